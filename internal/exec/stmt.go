package exec

import "llvmexec/internal/layout"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtWrite represents a register write.
	StmtWrite StmtKind = iota
	// StmtStore represents a memory store.
	StmtStore
	// StmtEval represents an expression evaluated for its effects.
	StmtEval
)

// Stmt represents a non-terminating operation of a block.
type Stmt struct {
	Kind StmtKind

	Write WriteStmt `msgpack:",omitempty"`
	Store StoreStmt `msgpack:",omitempty"`
	Eval  EvalStmt  `msgpack:",omitempty"`
}

type WriteStmt struct {
	Dst   RegID
	Kind  SlotKind
	Value *Expr
}

type StoreStmt struct {
	Addr  *Expr
	Value *Expr
	Type  layout.Shape
	Size  int
	Align int
}

type EvalStmt struct {
	Value *Expr
}
