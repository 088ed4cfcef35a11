package exec

import (
	"errors"
	"fmt"
)

// ErrGlobalLimit is returned when a GlobalTable is full.
var ErrGlobalLimit = errors.New("global storage exhausted")

// GlobalTable is the default storage builder: it hands out sequential
// handles and records the size of each allocation.
type GlobalTable struct {
	globals []Global
	limit   int
}

// NewGlobalTable creates a table that accepts at most limit globals
// (unlimited when limit <= 0).
func NewGlobalTable(limit int) *GlobalTable {
	return &GlobalTable{limit: limit}
}

// Allocate reserves storage for one global.
func (t *GlobalTable) Allocate(name string, size, align int, constant bool) (GlobalHandle, error) {
	if t.limit > 0 && len(t.globals) >= t.limit {
		return NoGlobalHandle, fmt.Errorf("%w: cannot allocate %s", ErrGlobalLimit, name)
	}
	if size < 0 {
		return NoGlobalHandle, fmt.Errorf("negative size %d for global %s", size, name)
	}
	h := GlobalHandle(len(t.globals))
	t.globals = append(t.globals, Global{
		Handle:   h,
		Name:     name,
		Size:     size,
		Align:    max(align, 1),
		Constant: constant,
	})
	return h, nil
}

// Globals returns the allocations made so far, in handle order.
func (t *GlobalTable) Globals() []Global {
	return append([]Global(nil), t.globals...)
}

// Len returns the number of allocations.
func (t *GlobalTable) Len() int { return len(t.globals) }
