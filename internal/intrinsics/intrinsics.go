// Package intrinsics lists the functions the engine implements natively:
// substituted C library entry points and the recognised llvm.* families.
package intrinsics

import (
	"sort"
	"strings"
)

// LLVMPrefix marks callee names that belong to the LLVM intrinsic namespace.
const LLVMPrefix = "llvm."

// Substitution is a library function replaced by a native implementation.
type Substitution struct {
	Name  string // IR name including the sigil, e.g. "@malloc"
	Arity int    // arguments passed at run time, including the stack pointer
}

var substitutions = []Substitution{
	{Name: "@abort", Arity: 1},
	{Name: "@exit", Arity: 2},
	{Name: "@atexit", Arity: 2},
	{Name: "@signal", Arity: 3},
	{Name: "@malloc", Arity: 2},
	{Name: "@calloc", Arity: 3},
	{Name: "@realloc", Arity: 3},
	{Name: "@free", Arity: 2},
	{Name: "@puts", Arity: 2},
	{Name: "@putchar", Arity: 2},
	{Name: "@strlen", Arity: 2},
	{Name: "@memcpy", Arity: 4},
	{Name: "@memmove", Arity: 4},
	{Name: "@memset", Arity: 4},
}

// Substitutions returns the substituted functions in registration order.
func Substitutions() []Substitution {
	return append([]Substitution(nil), substitutions...)
}

// Family describes a group of llvm.* intrinsics sharing a name prefix.
type Family struct {
	Prefix string
	NoOp   bool // calls are dropped during translation
}

var families = []Family{
	{Prefix: "llvm.memcpy."},
	{Prefix: "llvm.memmove."},
	{Prefix: "llvm.memset."},
	{Prefix: "llvm.stacksave"},
	{Prefix: "llvm.stackrestore"},
	{Prefix: "llvm.va_start"},
	{Prefix: "llvm.va_end"},
	{Prefix: "llvm.va_copy"},
	{Prefix: "llvm.trap"},
	{Prefix: "llvm.expect."},
	{Prefix: "llvm.objectsize."},
	{Prefix: "llvm.fabs."},
	{Prefix: "llvm.sqrt."},
	{Prefix: "llvm.pow."},
	{Prefix: "llvm.exp."},
	{Prefix: "llvm.log."},
	{Prefix: "llvm.floor."},
	{Prefix: "llvm.ceil."},
	{Prefix: "llvm.copysign."},
	{Prefix: "llvm.bswap."},
	{Prefix: "llvm.ctpop."},
	{Prefix: "llvm.ctlz."},
	{Prefix: "llvm.cttz."},
	{Prefix: "llvm.uadd.with.overflow."},
	{Prefix: "llvm.sadd.with.overflow."},
	{Prefix: "llvm.usub.with.overflow."},
	{Prefix: "llvm.ssub.with.overflow."},
	{Prefix: "llvm.umul.with.overflow."},
	{Prefix: "llvm.smul.with.overflow."},
	{Prefix: "llvm.dbg.", NoOp: true},
	{Prefix: "llvm.lifetime.", NoOp: true},
	{Prefix: "llvm.invariant.", NoOp: true},
	{Prefix: "llvm.assume", NoOp: true},
	{Prefix: "llvm.donothing", NoOp: true},
}

func init() {
	// longest prefix first so "llvm.memcpy.inline." style names pick the
	// most specific family
	sort.SliceStable(families, func(i, j int) bool {
		return len(families[i].Prefix) > len(families[j].Prefix)
	})
}

// IsLLVM reports whether name (with or without the leading '@') lies in the
// llvm.* namespace.
func IsLLVM(name string) bool {
	return strings.HasPrefix(strings.TrimPrefix(name, "@"), LLVMPrefix)
}

// Lookup finds the family of an llvm.* intrinsic. The name may carry the
// leading '@'.
func Lookup(name string) (Family, bool) {
	name = strings.TrimPrefix(name, "@")
	for _, f := range families {
		if name == strings.TrimSuffix(f.Prefix, ".") || strings.HasPrefix(name, f.Prefix) {
			return f, true
		}
	}
	return Family{}, false
}
