package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIDs(t *testing.T) {
	assert.Equal(t, "N1001", NoteModuleAsm.ID())
	assert.Equal(t, "W2001", WarnUnresolvedAlias.ID())
	assert.Equal(t, "E3001", ErrTranslateFailed.ID())
	assert.Equal(t, "E0000", Code(42).ID())
	assert.Equal(t, "unknown diagnostic", Code(42).Title())
}

func TestBagLimitAndFlags(t *testing.T) {
	b := NewBag(2)
	assert.True(t, b.Add(New(SevInfo, NoteModuleAsm, "module asm", "")))
	assert.True(t, b.Add(New(SevWarning, WarnUnresolvedAlias, "@a", "")))
	assert.False(t, b.Add(New(SevError, ErrTranslateFailed, "@f", "")))
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.HasWarnings())
	assert.False(t, b.HasErrors())
}

func TestReportersAndFormat(t *testing.T) {
	b := NewBag(0)
	rep := NewDedupReporter(BagReporter{Bag: b})
	Warning(rep, WarnUnresolvedAlias, "@b", "target\nnever bound")
	Warning(rep, WarnUnresolvedAlias, "@b", "target\nnever bound")
	Note(rep, NoteNamedMetadata, "!llvm.ident", "")
	Warning(nil, WarnUnresolvedAlias, "@c", "dropped")
	require.Equal(t, 2, b.Len())

	want := "note N1002 !llvm.ident: named metadata is ignored\n" +
		"warning W2001 @b: target never bound"
	assert.Equal(t, want, Format(b.Items()))
}

func TestMergeAndDedup(t *testing.T) {
	a, b := NewBag(1), NewBag(0)
	a.Add(New(SevWarning, WarnBitcodePlaceholder, "record 3", "x"))
	b.Add(New(SevWarning, WarnBitcodePlaceholder, "record 3", "y"))
	b.Add(New(SevInfo, NoteModuleAsm, "module asm", ""))
	a.Merge(b)
	assert.Equal(t, 3, a.Len())
	a.Dedup()
	assert.Equal(t, 2, a.Len())
	a.Sort()
	assert.Equal(t, "module asm", a.Items()[0].Subject)
}
