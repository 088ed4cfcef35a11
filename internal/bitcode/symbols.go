package bitcode

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// Symbol is one entry of the module-wide symbol sequence. Exactly one of
// Const and Value is set, unless the entry is a placeholder.
type Symbol struct {
	Type        types.Type
	Const       *Constant
	Value       constant.Constant // globals and functions seeded by the caller
	Placeholder bool
}

// Symbols is the append-only symbol sequence shared by a module's decoders.
type Symbols struct {
	list []Symbol

	materialized map[int]constant.Constant
}

func NewSymbols() *Symbols {
	return &Symbols{materialized: make(map[int]constant.Constant)}
}

// AddValue appends an already-built value (a global or a function).
func (s *Symbols) AddValue(v constant.Constant) int {
	return s.add(Symbol{Type: v.Type(), Value: v})
}

func (s *Symbols) add(sym Symbol) int {
	s.list = append(s.list, sym)
	return len(s.list) - 1
}

// At returns the symbol at position i.
func (s *Symbols) At(i int) (Symbol, bool) {
	if i < 0 || i >= len(s.list) {
		return Symbol{}, false
	}
	return s.list[i], true
}

// Len returns the number of symbols.
func (s *Symbols) Len() int { return len(s.list) }

// Placeholders returns the positions of placeholder symbols.
func (s *Symbols) Placeholders() []int {
	var out []int
	for i, sym := range s.list {
		if sym.Placeholder {
			out = append(out, i)
		}
	}
	return out
}
