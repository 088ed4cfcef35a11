package bitcode

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/llir/llvm/ir/types"
)

// The record text format lists a type table followed by constants-block
// records, one per line:
//
//	type 0 = i32
//	type 1 = [4 x i8]
//	SETTYPE 0
//	INTEGER 84
//	SETTYPE 1
//	CSTRING c"abc"
//
// Record names may be replaced by their numeric codes. A c"..." operand
// expands to one operand per byte.

var recordLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"CString", `c"[^"\n]*"`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_.]*`, nil},
		{"Int", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Punct", `[=%\[\]<>{},*]`, nil},
		{"EOL", `\n`, nil},
		{"Whitespace", `[ \t\r]+`, nil},
	},
})

type recordFile struct {
	Lines []*recordLine `@@*`
}

type recordLine struct {
	Pos lexer.Position

	Type   *typeDecl   `(  @@`
	Record *recordText ` | @@ )? EOL`
}

type typeDecl struct {
	Index string    `"type" @Int "="`
	Type  *typeExpr `@@`
}

type typeExpr struct {
	Base  *typeBase `@@`
	Stars []string  `@"*"*`
}

type typeBase struct {
	Struct *structType `  @@`
	Array  *seqType    `| "[" @@ "]"`
	Vector *seqType    `| "<" @@ ">"`
	Ref    *string     `| "%" @Int`
	Named  *string     `| @Ident`
}

type structType struct {
	Packed bool        `@"packed"? "{"`
	Fields []*typeExpr `( @@ ( "," @@ )* )? "}"`
}

type seqType struct {
	Len  string    `@Int "x"`
	Elem *typeExpr `@@`
}

type recordText struct {
	Name     string     `@( Ident | Int )`
	Operands []*operand `@@*`
}

type operand struct {
	CString *string `  @CString`
	Int     *string `| @Int`
}

var recordParser = participle.MustBuild[recordFile](
	participle.Lexer(recordLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// Record is one parsed record line.
type Record struct {
	ID   RecordID
	Ops  []uint64
	Line int
}

// Stream is a parsed record file.
type Stream struct {
	Types   []types.Type
	Records []Record
}

// ParseRecordsFile reads and parses a record file.
func ParseRecordsFile(path string) (*Stream, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRecords(path, string(src))
}

// ParseRecords parses the record text format.
func ParseRecords(name, src string) (*Stream, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	file, err := recordParser.ParseString(name, src)
	if err != nil {
		return nil, err
	}
	st := &Stream{}
	for _, line := range file.Lines {
		switch {
		case line.Type != nil:
			if err := st.declare(line); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, line.Pos.Line, err)
			}
		case line.Record != nil:
			rec, err := convertRecord(line.Record)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, line.Pos.Line, err)
			}
			rec.Line = line.Pos.Line
			st.Records = append(st.Records, rec)
		}
	}
	return st, nil
}

// Decode feeds every record to a fresh decoder over syms. Decoding stops at
// the first malformed record.
func (st *Stream) Decode(syms *Symbols) (*Decoder, error) {
	d := NewDecoder(st.Types, syms)
	for _, rec := range st.Records {
		if err := d.Record(rec.ID, rec.Ops); err != nil {
			return d, fmt.Errorf("line %d: %w", rec.Line, err)
		}
	}
	return d, nil
}

func (st *Stream) declare(line *recordLine) error {
	idx, err := strconv.Atoi(line.Type.Index)
	if err != nil {
		return err
	}
	if idx != len(st.Types) {
		return fmt.Errorf("type %d declared out of order, expected type %d", idx, len(st.Types))
	}
	t, err := st.build(line.Type.Type)
	if err != nil {
		return err
	}
	st.Types = append(st.Types, t)
	return nil
}

func (st *Stream) build(te *typeExpr) (types.Type, error) {
	t, err := st.buildBase(te.Base)
	if err != nil {
		return nil, err
	}
	for range te.Stars {
		t = types.NewPointer(t)
	}
	return t, nil
}

func (st *Stream) buildBase(b *typeBase) (types.Type, error) {
	switch {
	case b.Struct != nil:
		fields := make([]types.Type, len(b.Struct.Fields))
		for i, f := range b.Struct.Fields {
			t, err := st.build(f)
			if err != nil {
				return nil, err
			}
			fields[i] = t
		}
		s := types.NewStruct(fields...)
		s.Packed = b.Struct.Packed
		return s, nil
	case b.Array != nil:
		n, elem, err := st.sequence(b.Array)
		if err != nil {
			return nil, err
		}
		return types.NewArray(n, elem), nil
	case b.Vector != nil:
		n, elem, err := st.sequence(b.Vector)
		if err != nil {
			return nil, err
		}
		return types.NewVector(n, elem), nil
	case b.Ref != nil:
		idx, err := strconv.Atoi(*b.Ref)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(st.Types) {
			return nil, fmt.Errorf("type %%%d is not declared yet", idx)
		}
		return st.Types[idx], nil
	case b.Named != nil:
		return namedType(*b.Named)
	}
	return nil, fmt.Errorf("empty type")
}

func (st *Stream) sequence(s *seqType) (uint64, types.Type, error) {
	n, err := strconv.ParseUint(s.Len, 0, 64)
	if err != nil {
		return 0, nil, err
	}
	elem, err := st.build(s.Elem)
	if err != nil {
		return 0, nil, err
	}
	return n, elem, nil
}

func namedType(name string) (types.Type, error) {
	switch name {
	case "void":
		return types.Void, nil
	case "half":
		return types.Half, nil
	case "float":
		return types.Float, nil
	case "double":
		return types.Double, nil
	case "x86_fp80":
		return types.X86_FP80, nil
	case "fp128":
		return types.FP128, nil
	case "label":
		return types.Label, nil
	case "metadata":
		return types.Metadata, nil
	case "token":
		return types.Token, nil
	case "ptr":
		return types.NewPointer(types.I8), nil
	}
	if bits, ok := strings.CutPrefix(name, "i"); ok {
		n, err := strconv.ParseUint(bits, 10, 64)
		if err == nil && n > 0 {
			return types.NewInt(n), nil
		}
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func convertRecord(r *recordText) (Record, error) {
	id, ok := ParseRecordID(r.Name)
	if !ok {
		return Record{}, fmt.Errorf("unknown record %q", r.Name)
	}
	rec := Record{ID: id}
	for _, op := range r.Operands {
		switch {
		case op.CString != nil:
			body := strings.TrimSuffix(strings.TrimPrefix(*op.CString, `c"`), `"`)
			b, err := UnescapeCString(body)
			if err != nil {
				return Record{}, err
			}
			for _, c := range b {
				rec.Ops = append(rec.Ops, uint64(c))
			}
		case op.Int != nil:
			v, err := strconv.ParseUint(*op.Int, 0, 64)
			if err != nil {
				return Record{}, err
			}
			rec.Ops = append(rec.Ops, v)
		}
	}
	return rec, nil
}
