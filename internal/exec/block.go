package exec

type Block struct {
	ID    BlockID
	Name  string
	Stmts []Stmt
	Term  Terminator

	// DeadAfter lists registers whose values are not needed once the block
	// has run. Empty unless lifetime analysis ran.
	DeadAfter []RegID `msgpack:",omitempty"`
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}
