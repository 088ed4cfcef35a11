package layout

import (
	"sort"
	"strconv"
	"strings"
)

// PointerSpec holds the size and ABI alignment of pointers in one address space.
type PointerSpec struct {
	Size  int // bytes
	Align int // bytes
}

// DataLayout is the parsed form of a module's target datalayout string.
// Alignments and sizes are in bytes.
type DataLayout struct {
	Raw       string
	BigEndian bool
	Explicit  bool // parsed from a module or override, not defaulted

	Pointers       map[int]PointerSpec
	Ints           map[int]int // bit width -> ABI alignment
	Floats         map[int]int
	Vectors        map[int]int
	AggregateAlign int
	StackAlign     int
	NativeInts     []int
}

// X86_64 returns the SysV x86-64 defaults used when a module carries no layout.
func X86_64() DataLayout {
	return DataLayout{
		Pointers: map[int]PointerSpec{0: {Size: 8, Align: 8}},
		Ints: map[int]int{
			1: 1, 8: 1, 16: 2, 32: 4, 64: 8, 128: 16,
		},
		Floats: map[int]int{
			16: 2, 32: 4, 64: 8, 80: 16, 128: 16,
		},
		Vectors:        map[int]int{64: 8, 128: 16},
		AggregateAlign: 1,
		StackAlign:     16,
		NativeInts:     []int{8, 16, 32, 64},
	}
}

// ParseDataLayout parses an LLVM datalayout string on top of the x86-64
// defaults. An empty string yields the defaults with Explicit unset.
func ParseDataLayout(s string) (DataLayout, error) {
	dl := X86_64()
	s = strings.TrimSpace(s)
	if s == "" {
		return dl, nil
	}
	dl.Raw = s
	dl.Explicit = true
	for _, spec := range strings.Split(s, "-") {
		if spec == "" {
			continue
		}
		if err := dl.apply(spec); err != nil {
			return dl, err
		}
	}
	return dl, nil
}

func (dl *DataLayout) apply(spec string) error {
	bad := func(err error) error {
		return &LayoutError{Kind: LayoutErrDataLayout, Spec: spec, Err: err}
	}
	switch spec[0] {
	case 'e':
		dl.BigEndian = false
	case 'E':
		dl.BigEndian = true
	case 'm', 'A', 'P', 'G', 'F':
		// mangling, address spaces and function pointer alignment carry no layout
	case 'S':
		bits, err := strconv.Atoi(spec[1:])
		if err != nil {
			return bad(err)
		}
		dl.StackAlign = bits / 8
	case 'n':
		if strings.HasPrefix(spec, "ni:") {
			return nil
		}
		dl.NativeInts = dl.NativeInts[:0]
		for _, w := range strings.Split(spec[1:], ":") {
			bits, err := strconv.Atoi(w)
			if err != nil {
				return bad(err)
			}
			dl.NativeInts = append(dl.NativeInts, bits)
		}
	case 'p':
		parts := strings.Split(spec[1:], ":")
		as := 0
		if parts[0] != "" {
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return bad(err)
			}
			as = n
		}
		if len(parts) < 3 {
			return bad(nil)
		}
		size, err := strconv.Atoi(parts[1])
		if err != nil {
			return bad(err)
		}
		abi, err := strconv.Atoi(parts[2])
		if err != nil {
			return bad(err)
		}
		dl.Pointers[as] = PointerSpec{Size: size / 8, Align: abi / 8}
	case 'i', 'f', 'v', 'a':
		parts := strings.Split(spec[1:], ":")
		if spec[0] == 'a' {
			if len(parts) < 2 {
				return bad(nil)
			}
			abi, err := strconv.Atoi(parts[1])
			if err != nil {
				return bad(err)
			}
			dl.AggregateAlign = max(abi/8, 1)
			return nil
		}
		if len(parts) < 2 {
			return bad(nil)
		}
		bits, err := strconv.Atoi(parts[0])
		if err != nil {
			return bad(err)
		}
		abi, err := strconv.Atoi(parts[1])
		if err != nil {
			return bad(err)
		}
		switch spec[0] {
		case 'i':
			dl.Ints[bits] = abi / 8
		case 'f':
			dl.Floats[bits] = abi / 8
		default:
			dl.Vectors[bits] = abi / 8
		}
	default:
		return bad(nil)
	}
	return nil
}

// Pointer returns the pointer spec for address space 0.
func (dl DataLayout) Pointer() PointerSpec {
	if p, ok := dl.Pointers[0]; ok && p.Size > 0 {
		if p.Align <= 0 {
			p.Align = p.Size
		}
		return p
	}
	return PointerSpec{Size: 8, Align: 8}
}

// IntAlign returns the ABI alignment of an integer of the given width. Widths
// without an entry take the alignment of the next larger specified width, or
// of the largest one.
func (dl DataLayout) IntAlign(bits int) int {
	if a, ok := dl.Ints[bits]; ok {
		return max(a, 1)
	}
	widths := make([]int, 0, len(dl.Ints))
	for w := range dl.Ints {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	for _, w := range widths {
		if w > bits {
			return max(dl.Ints[w], 1)
		}
	}
	if len(widths) == 0 {
		return 1
	}
	return max(dl.Ints[widths[len(widths)-1]], 1)
}

// FloatAlign returns the ABI alignment of a floating-point type.
func (dl DataLayout) FloatAlign(bits int) int {
	if a, ok := dl.Floats[bits]; ok {
		return max(a, 1)
	}
	return max(bits/8, 1)
}

// VectorAlign returns the ABI alignment of a vector of the given total width.
func (dl DataLayout) VectorAlign(bits int) int {
	if a, ok := dl.Vectors[bits]; ok {
		return max(a, 1)
	}
	bytes := max((bits+7)/8, 1)
	align := 1
	for align < bytes {
		align <<= 1
	}
	return align
}
