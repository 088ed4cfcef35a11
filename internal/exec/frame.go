package exec

import (
	"errors"
	"fmt"
)

// ErrKindMismatch is returned when a register is accessed with a kind other
// than the one it was first given.
var ErrKindMismatch = errors.New("register kind mismatch")

// Frame assigns stable register indices to the named values of one function.
type Frame struct {
	regs   []Register
	byName map[string]RegID
	temps  int
}

// NewFrame returns a frame holding only the reserved registers.
func NewFrame() *Frame {
	f := &Frame{byName: make(map[string]RegID, 16)}
	f.add(ReturnSlotName, SlotIllegal)
	f.add(StackSlotName, SlotObject)
	return f
}

func (f *Frame) add(name string, kind SlotKind) RegID {
	id := RegID(len(f.regs))
	f.regs = append(f.regs, Register{Name: name, Kind: kind})
	f.byName[name] = id
	return id
}

// Slot returns the register for name, creating it on first use. A register
// whose kind is still SlotIllegal takes kind; otherwise kind must match.
func (f *Frame) Slot(name string, kind SlotKind) (RegID, error) {
	id, ok := f.byName[name]
	if !ok {
		return f.add(name, kind), nil
	}
	if err := f.SetKind(id, kind); err != nil {
		return NoRegID, err
	}
	return id, nil
}

// Lookup returns the register for name if it exists.
func (f *Frame) Lookup(name string) (RegID, bool) {
	id, ok := f.byName[name]
	return id, ok
}

// SetKind fixes the kind of a register. SlotIllegal requests are ignored.
func (f *Frame) SetKind(id RegID, kind SlotKind) error {
	if id < 0 || int(id) >= len(f.regs) {
		return fmt.Errorf("register r%d does not exist", id)
	}
	r := &f.regs[id]
	switch {
	case kind == SlotIllegal || r.Kind == kind:
		return nil
	case r.Kind == SlotIllegal:
		r.Kind = kind
		return nil
	default:
		return fmt.Errorf("%w: %s is %s, accessed as %s", ErrKindMismatch, r.Name, r.Kind, kind)
	}
}

// Temp allocates an anonymous register of the given kind.
func (f *Frame) Temp(kind SlotKind) RegID {
	f.temps++
	return f.add(fmt.Sprintf("<tmp.%d>", f.temps), kind)
}

// Kind returns the current kind of a register.
func (f *Frame) Kind(id RegID) SlotKind {
	if id < 0 || int(id) >= len(f.regs) {
		return SlotIllegal
	}
	return f.regs[id].Kind
}

// Registers returns a copy of the register table.
func (f *Frame) Registers() []Register {
	return append([]Register(nil), f.regs...)
}

// Len returns the number of registers.
func (f *Frame) Len() int { return len(f.regs) }
