package diag

import (
	"sort"
	"strings"
	"sync"
)

// Bag collects diagnostics up to a limit. It is safe for concurrent use so
// a multi-module run can share one.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
	max   int
}

// NewBag returns a bag holding at most max diagnostics; max <= 0 means no
// limit.
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

// Add stores d and reports false when the limit was reached.
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Report(d Diagnostic) { b.Add(d) }

func (b *Bag) HasErrors() bool { return b.has(SevError) }

func (b *Bag) HasWarnings() bool { return b.has(SevWarning) }

func (b *Bag) has(min Severity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Severity >= min {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the stored diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Diagnostic(nil), b.items...)
}

// Merge appends the diagnostics of other, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	items := other.Items()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.items)+len(items) > b.max {
		b.max = len(b.items) + len(items)
	}
	b.items = append(b.items, items...)
}

// Sort orders by subject, severity (descending) and code.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	sortDiagnostics(b.items)
}

func sortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Subject != dj.Subject {
			return di.Subject < dj.Subject
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup drops repeated diagnostics with the same code and subject.
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	items := b.items[:0]
	for _, d := range b.items {
		key := d.Code.ID() + ":" + d.Subject
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, d)
	}
	b.items = items
}

// Format renders diagnostics one per line in a stable order.
func Format(diags []Diagnostic) string {
	sorted := append([]Diagnostic(nil), diags...)
	sortDiagnostics(sorted)
	lines := make([]string, len(sorted))
	for i, d := range sorted {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
