package translate

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"llvmexec/internal/diag"
	"llvmexec/internal/exec"
	"llvmexec/internal/native"
	"llvmexec/internal/registry"
)

// AliasPolicy decides what an alias that never resolves does to a module.
type AliasPolicy uint8

const (
	// AliasWarn reports unresolved aliases and keeps translating; a later
	// use of such an alias fails the function or global that uses it.
	AliasWarn AliasPolicy = iota
	// AliasError fails the module.
	AliasError
)

func (p AliasPolicy) String() string {
	if p == AliasError {
		return "error"
	}
	return "warn"
}

// ParseAliasPolicy accepts "warn" and "error"; empty means warn.
func ParseAliasPolicy(s string) (AliasPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return AliasWarn, nil
	case "error":
		return AliasError, nil
	default:
		return AliasWarn, fmt.Errorf("invalid alias policy: %q (expected: warn|error)", s)
	}
}

type Options struct {
	LifetimeAnalysis bool
	AliasPolicy      AliasPolicy
	// DataLayout replaces the module's own target datalayout when set.
	DataLayout string
	// GlobalLimit caps the globals one module may allocate; 0 means none.
	GlobalLimit int
	// Records, when set, initializes globals from decoded constants.
	Records *Records
}

// Context carries everything one or more translations share. The registry
// is safe for concurrent use; the rest is read-only during translation.
type Context struct {
	Registry *registry.Registry
	Natives  native.Resolver
	Options  Options
	Diags    diag.Reporter
	Log      commonlog.Logger

	// NewFactory returns the node factory for one module.
	NewFactory func() Factory
}

func NewContext(reg *registry.Registry, opts Options) *Context {
	return &Context{
		Registry:   reg,
		Natives:    native.None{},
		Options:    opts,
		Log:        commonlog.GetLogger("llvmexec.translate"),
		NewFactory: func() Factory { return exec.NewBuilder() },
	}
}
