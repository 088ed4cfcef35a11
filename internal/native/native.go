// Package native resolves the addresses of externally defined symbols.
package native

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownSymbol is returned for names the resolver has no address for.
var ErrUnknownSymbol = errors.New("unknown native symbol")

// Resolver maps an external symbol name to a numeric address.
type Resolver interface {
	Resolve(name string) (uint64, error)
}

// Table is a fixed symbol table. Names are compared after stripping a
// leading '@' and NFC normalisation, so quoted IR names with composed and
// decomposed forms resolve to the same entry.
type Table struct {
	mu      sync.RWMutex
	symbols map[string]uint64
}

func NewTable(symbols map[string]uint64) *Table {
	t := &Table{symbols: make(map[string]uint64, len(symbols))}
	for name, addr := range symbols {
		t.symbols[canonical(name)] = addr
	}
	return t
}

func canonical(name string) string {
	return norm.NFC.String(strings.TrimPrefix(name, "@"))
}

// Define adds or replaces a symbol.
func (t *Table) Define(name string, addr uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[canonical(name)] = addr
}

func (t *Table) Resolve(name string) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.symbols[canonical(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return addr, nil
}

// Names returns the defined names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// None resolves nothing.
type None struct{}

func (None) Resolve(name string) (uint64, error) {
	return 0, fmt.Errorf("%w: %s (no native symbols configured)", ErrUnknownSymbol, name)
}
