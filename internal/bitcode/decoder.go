package bitcode

import (
	"math/big"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir/types"
)

// Decoder turns constants-block records into symbols. The only state it
// keeps is the current type set by the last SETTYPE record.
type Decoder struct {
	types   []types.Type
	symbols *Symbols
	cur     types.Type

	placeholders []RecordID
}

// NewDecoder creates a decoder resolving type operands against typeTable
// and appending to syms.
func NewDecoder(typeTable []types.Type, syms *Symbols) *Decoder {
	return &Decoder{types: typeTable, symbols: syms}
}

// Type returns the current type context.
func (d *Decoder) Type() types.Type { return d.cur }

// Placeholders returns the codes of records that were not understood and
// were kept as type-only symbols.
func (d *Decoder) Placeholders() []RecordID {
	return append([]RecordID(nil), d.placeholders...)
}

func (d *Decoder) typeAt(id RecordID, op uint64) (types.Type, error) {
	if op >= uint64(len(d.types)) {
		return nil, recordErr(id, "type %d out of range (have %d)", op, len(d.types))
	}
	return d.types[op], nil
}

func (d *Decoder) emit(c *Constant) {
	d.symbols.add(Symbol{Type: c.Type, Const: c})
}

func need(id RecordID, ops []uint64, n int) error {
	if len(ops) < n {
		return recordErr(id, "expected at least %d operands, got %d", n, len(ops))
	}
	return nil
}

func symbolRefs(id RecordID, ops []uint64) ([]int, error) {
	out := make([]int, len(ops))
	for i, op := range ops {
		ref, err := safecast.Conv[int](op)
		if err != nil {
			return nil, recordErr(id, "symbol reference %d: %v", op, err)
		}
		out[i] = ref
	}
	return out, nil
}

// Record decodes one record.
func (d *Decoder) Record(id RecordID, ops []uint64) error {
	if id == RecSetType {
		if err := need(id, ops, 1); err != nil {
			return err
		}
		t, err := d.typeAt(id, ops[0])
		if err != nil {
			return err
		}
		d.cur = t
		return nil
	}
	if d.cur == nil {
		return recordErr(id, "no current type; SETTYPE must come first")
	}

	switch id {
	case RecNull:
		d.emit(d.nullOf(d.cur))

	case RecUndef:
		d.emit(&Constant{Kind: ConstUndef, Type: d.cur})

	case RecInteger:
		if err := need(id, ops, 1); err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstInteger, Type: d.cur, Int: DecodeSigned(ops[0])})

	case RecWideInteger:
		if err := need(id, ops, 1); err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstWideInteger, Type: d.cur, Wide: wideValue(ops)})

	case RecFloat:
		if err := need(id, ops, 1); err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstFloat, Type: d.cur, Bits: append([]uint64(nil), ops...)})

	case RecAggregate:
		refs, err := symbolRefs(id, ops)
		if err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstAggregate, Type: d.cur, Operands: refs})

	case RecString, RecCString:
		b := make([]byte, len(ops))
		for i, op := range ops {
			b[i] = byte(op)
		}
		kind := ConstString
		if id == RecCString {
			kind = ConstCString
		}
		d.emit(&Constant{Kind: kind, Type: d.cur, Bytes: b})

	case RecBinop:
		if err := need(id, ops, 3); err != nil {
			return err
		}
		refs, err := symbolRefs(id, ops[1:3])
		if err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstBinary, Type: d.cur, Op: ops[0], Operands: refs})

	case RecCast:
		if err := need(id, ops, 3); err != nil {
			return err
		}
		refs, err := symbolRefs(id, ops[2:3])
		if err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstCast, Type: d.cur, Op: ops[0], Operands: refs})

	case RecCmp:
		if err := need(id, ops, 4); err != nil {
			return err
		}
		refs, err := symbolRefs(id, ops[1:3])
		if err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstCompare, Type: d.cur, Op: ops[3], Operands: refs})

	case RecGEP, RecInBoundsGEP:
		c, err := d.gep(id, ops)
		if err != nil {
			return err
		}
		d.emit(c)

	case RecBlockAddress:
		if err := need(id, ops, 3); err != nil {
			return err
		}
		refs, err := symbolRefs(id, ops[1:3])
		if err != nil {
			return err
		}
		d.emit(&Constant{Kind: ConstBlockAddress, Type: d.cur, Func: refs[0], Block: refs[1]})

	case RecData:
		d.emit(&Constant{Kind: ConstData, Type: d.cur, Data: append([]uint64(nil), ops...)})

	default:
		d.placeholders = append(d.placeholders, id)
		d.symbols.add(Symbol{Type: d.cur, Placeholder: true})
	}
	return nil
}

func (d *Decoder) nullOf(t types.Type) *Constant {
	switch t.(type) {
	case *types.IntType:
		return &Constant{Kind: ConstInteger, Type: t}
	case *types.PointerType:
		return &Constant{Kind: ConstNull, Type: t}
	default:
		return &Constant{Kind: ConstZero, Type: t}
	}
}

// gep decodes [pointee type, (type, value) for the base, (type, value) per
// index]: the base value sits at operand 2 and index i at operand 2*(i+2).
func (d *Decoder) gep(id RecordID, ops []uint64) (*Constant, error) {
	if err := need(id, ops, 3); err != nil {
		return nil, err
	}
	elem, err := d.typeAt(id, ops[0])
	if err != nil {
		return nil, err
	}
	n := ((len(ops) - 1) >> 1) - 1
	picked := make([]uint64, 0, n+1)
	picked = append(picked, ops[2])
	for i := 0; i < n; i++ {
		picked = append(picked, ops[(i+2)<<1])
	}
	operands, err := symbolRefs(id, picked)
	if err != nil {
		return nil, err
	}
	return &Constant{
		Kind:     ConstGEP,
		Type:     d.cur,
		ElemType: elem,
		InBounds: id == RecInBoundsGEP,
		Operands: operands,
	}, nil
}

// wideValue assembles sign-folded 64-bit words, least significant first.
func wideValue(words []uint64) *big.Int {
	v := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		v.Lsh(v, 64)
		v.Or(v, new(big.Int).SetUint64(uint64(DecodeSigned(words[i]))))
	}
	if DecodeSigned(words[len(words)-1]) < 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(64*len(words))))
	}
	return v
}
