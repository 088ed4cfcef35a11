package translate

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"llvmexec/internal/bitcode"
	"llvmexec/internal/diag"
)

// ErrInitializer is returned when a decoded constant cannot become the
// initializer it is bound to.
var ErrInitializer = errors.New("decoded initializer")

// Records supplies global initializers from a decoded constant stream.
// Symbols number the module's globals first and its functions next, in
// declaration order, followed by the constants of Stream.
type Records struct {
	Stream *bitcode.Stream
	// Bind maps a global identifier (@name) to the symbol that initializes it.
	Bind map[string]int
}

// ModuleSymbols returns a symbol sequence seeded with m's globals and
// functions.
func ModuleSymbols(m *ir.Module) *bitcode.Symbols {
	syms := bitcode.NewSymbols()
	for _, g := range m.Globals {
		syms.AddValue(g)
	}
	for _, f := range m.Funcs {
		syms.AddValue(f)
	}
	return syms
}

// SeedInitializers decodes r.Stream against m and installs each bound
// constant as its global's initializer. It returns the records the decoder
// did not recognise.
func SeedInitializers(m *ir.Module, r *Records) ([]bitcode.RecordID, error) {
	if r == nil || r.Stream == nil {
		return nil, nil
	}
	syms := ModuleSymbols(m)
	dec, err := r.Stream.Decode(syms)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*ir.Global, len(m.Globals))
	for _, g := range m.Globals {
		byName[g.Ident()] = g
	}
	for _, name := range slices.Sorted(maps.Keys(r.Bind)) {
		g, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: no global %s", ErrInitializer, name)
		}
		c, err := syms.Materialize(r.Bind[name])
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrInitializer, name, err)
		}
		if !types.Equal(c.Type(), g.ContentType) {
			return nil, fmt.Errorf("%w for %s: %s does not match %s", ErrInitializer, name, c.Type(), g.ContentType)
		}
		g.Init = c
	}
	return dec.Placeholders(), nil
}

func (mt *moduleTranslator) seedInitializers() error {
	placeholders, err := SeedInitializers(mt.m, mt.ctx.Options.Records)
	if err != nil {
		return err
	}
	for _, id := range placeholders {
		mt.report(diag.SevWarning, diag.WarnBitcodePlaceholder, "record "+id.String(), "no value was decoded")
	}
	return nil
}
