package exec

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermBr
	TermCondBr
	TermSwitch
	TermIndirectBr
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Return     ReturnTerm     `msgpack:",omitempty"`
	Br         BrTerm         `msgpack:",omitempty"`
	CondBr     CondBrTerm     `msgpack:",omitempty"`
	Switch     SwitchTerm     `msgpack:",omitempty"`
	IndirectBr IndirectBrTerm `msgpack:",omitempty"`
}

// Edge is one control transfer. Phis are the register writes performed
// when the edge is taken, before control reaches Target.
type Edge struct {
	Target BlockID
	Phis   []Stmt
}

type ReturnTerm struct {
	HasValue bool
	Value    *Expr
	Kind     SlotKind
}

type BrTerm struct {
	Edge Edge
}

type CondBrTerm struct {
	Cond *Expr
	Then Edge
	Else Edge
}

type SwitchCase struct {
	Value Literal
	Edge  Edge
}

type SwitchTerm struct {
	Value   *Expr
	Cases   []SwitchCase
	Default Edge
}

// IndirectBrTerm transfers control to the block whose address Addr holds.
type IndirectBrTerm struct {
	Addr    *Expr
	Targets []Edge
}

// Edges returns every outgoing edge of the terminator.
func (t *Terminator) Edges() []*Edge {
	switch t.Kind {
	case TermBr:
		return []*Edge{&t.Br.Edge}
	case TermCondBr:
		return []*Edge{&t.CondBr.Then, &t.CondBr.Else}
	case TermSwitch:
		out := make([]*Edge, 0, len(t.Switch.Cases)+1)
		for i := range t.Switch.Cases {
			out = append(out, &t.Switch.Cases[i].Edge)
		}
		return append(out, &t.Switch.Default)
	case TermIndirectBr:
		out := make([]*Edge, 0, len(t.IndirectBr.Targets))
		for i := range t.IndirectBr.Targets {
			out = append(out, &t.IndirectBr.Targets[i])
		}
		return out
	default:
		return nil
	}
}
