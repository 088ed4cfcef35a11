package exec

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Dump writes a human-readable representation of a program.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "program %s\n", p.Name)
	if p.Triple != "" {
		fmt.Fprintf(&sb, "  triple=%s\n", p.Triple)
	}
	if p.DataLayout != "" {
		fmt.Fprintf(&sb, "  datalayout=%s\n", p.DataLayout)
	}
	if p.Main != NoFuncIndex {
		fmt.Fprintf(&sb, "  main=f%d\n", p.Main)
	}
	if len(p.Globals) > 0 {
		fmt.Fprintf(&sb, "globals=%d\n", len(p.Globals))
		for _, g := range p.Globals {
			flags := ""
			if g.Constant {
				flags = " const"
			}
			fmt.Fprintf(&sb, "  G%d: size=%d align=%d%s name=%s\n", g.Handle, g.Size, g.Align, flags, g.Name)
		}
	}
	for _, a := range p.Aliases {
		fmt.Fprintf(&sb, "alias %s = %s\n", a.Name, formatLiteral(a.Value))
	}
	for _, name := range p.Unresolved {
		fmt.Fprintf(&sb, "alias %s = <unresolved>\n", name)
	}
	fmt.Fprintf(&sb, "funcs=%d\n", len(p.Funcs))
	for _, f := range p.Funcs {
		dumpFunc(&sb, f)
	}
	if p.Init != nil {
		dumpFunc(&sb, p.Init)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, f *Func) error {
	var sb strings.Builder
	dumpFunc(&sb, f)
	_, err := io.WriteString(w, sb.String())
	return err
}

func dumpFunc(sb *strings.Builder, f *Func) {
	if f == nil {
		return
	}
	if f.IsIntrinsic() {
		fmt.Fprintf(sb, "\nfn f%d %s: intrinsic arity=%d\n", f.Index, f.Name, f.Arity)
		return
	}
	fmt.Fprintf(sb, "\nfn f%d %s:\n", f.Index, f.Name)
	fmt.Fprintf(sb, "  regs:\n")
	width := 0
	for _, r := range f.Regs {
		width = max(width, runewidth.StringWidth(r.Name))
	}
	for i, r := range f.Regs {
		fmt.Fprintf(sb, "    r%-3d %s %s\n", i, runewidth.FillRight(r.Name, width), r.Kind)
	}
	if len(f.Prologue) > 0 {
		fmt.Fprintf(sb, "  prologue:\n")
		for i := range f.Prologue {
			fmt.Fprintf(sb, "    %s\n", formatStmt(&f.Prologue[i]))
		}
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(sb, "  bb%d: ; %s\n", bb.ID, bb.Name)
		for j := range bb.Stmts {
			fmt.Fprintf(sb, "    %s\n", formatStmt(&bb.Stmts[j]))
		}
		fmt.Fprintf(sb, "    %s\n", formatTerm(&bb.Term))
		if len(bb.DeadAfter) > 0 {
			regs := make([]string, len(bb.DeadAfter))
			for k, r := range bb.DeadAfter {
				regs[k] = fmt.Sprintf("r%d", r)
			}
			fmt.Fprintf(sb, "    ; dead: %s\n", strings.Join(regs, " "))
		}
	}
	if len(f.Epilogue) > 0 {
		fmt.Fprintf(sb, "  epilogue:\n")
		for i := range f.Epilogue {
			fmt.Fprintf(sb, "    %s\n", formatStmt(&f.Epilogue[i]))
		}
	}
}

func formatStmt(s *Stmt) string {
	switch s.Kind {
	case StmtWrite:
		return fmt.Sprintf("r%d = %s", s.Write.Dst, FormatExpr(s.Write.Value))
	case StmtStore:
		return fmt.Sprintf("store %s %s -> %s", s.Store.Type, FormatExpr(s.Store.Value), FormatExpr(s.Store.Addr))
	case StmtEval:
		return FormatExpr(s.Eval.Value)
	default:
		return fmt.Sprintf("stmt?%d", s.Kind)
	}
}

func formatEdge(e *Edge) string {
	if len(e.Phis) == 0 {
		return fmt.Sprintf("bb%d", e.Target)
	}
	phis := make([]string, len(e.Phis))
	for i := range e.Phis {
		phis[i] = formatStmt(&e.Phis[i])
	}
	return fmt.Sprintf("bb%d [%s]", e.Target, strings.Join(phis, "; "))
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermNone:
		return "<none>"
	case TermReturn:
		if !t.Return.HasValue {
			return "return"
		}
		return "return " + FormatExpr(t.Return.Value)
	case TermBr:
		return "br " + formatEdge(&t.Br.Edge)
	case TermCondBr:
		return fmt.Sprintf("br %s then %s else %s", FormatExpr(t.CondBr.Cond),
			formatEdge(&t.CondBr.Then), formatEdge(&t.CondBr.Else))
	case TermSwitch:
		parts := make([]string, 0, len(t.Switch.Cases))
		for i := range t.Switch.Cases {
			c := &t.Switch.Cases[i]
			parts = append(parts, fmt.Sprintf("%s => %s", formatLiteral(c.Value), formatEdge(&c.Edge)))
		}
		return fmt.Sprintf("switch %s {%s; default => %s}", FormatExpr(t.Switch.Value),
			strings.Join(parts, ", "), formatEdge(&t.Switch.Default))
	case TermIndirectBr:
		parts := make([]string, len(t.IndirectBr.Targets))
		for i := range t.IndirectBr.Targets {
			parts[i] = formatEdge(&t.IndirectBr.Targets[i])
		}
		return fmt.Sprintf("indirectbr %s [%s]", FormatExpr(t.IndirectBr.Addr), strings.Join(parts, ", "))
	case TermUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("term?%d", t.Kind)
	}
}

func formatLiteral(l Literal) string {
	switch l.Kind {
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitWideInt:
		return fmt.Sprintf("0x%x", reverse(l.Bytes))
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitAddress:
		return fmt.Sprintf("addr(%d)", l.Address)
	case LitFunction:
		return fmt.Sprintf("f%d", l.Func)
	case LitGlobal:
		return fmt.Sprintf("G%d", l.Global)
	case LitBlock:
		return fmt.Sprintf("blockaddr(bb%d)", l.Block)
	default:
		return "lit?"
	}
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

func formatExprs(es []*Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = FormatExpr(e)
	}
	return strings.Join(parts, ", ")
}

// FormatExpr renders an expression tree on one line.
func FormatExpr(e *Expr) string {
	if e == nil {
		return "_"
	}
	switch e.Kind {
	case ExprLiteral:
		return fmt.Sprintf("%s %s", e.Type, formatLiteral(e.Literal))
	case ExprReg:
		return fmt.Sprintf("r%d", e.Reg)
	case ExprArg:
		return fmt.Sprintf("arg%d", e.Arg)
	case ExprLoad:
		return fmt.Sprintf("load %s %s", e.Type, FormatExpr(e.Load.Addr))
	case ExprAlloc:
		life := "alloca"
		if e.Alloc.Lifetime == AllocFunction {
			life = "scratch"
		}
		if e.Alloc.Count != nil {
			return fmt.Sprintf("%s %d x %s align %d", life, e.Alloc.Size, FormatExpr(e.Alloc.Count), e.Alloc.Align)
		}
		return fmt.Sprintf("%s %d align %d", life, e.Alloc.Size, e.Alloc.Align)
	case ExprElementPtr:
		return fmt.Sprintf("gep %s + %s * %d", FormatExpr(e.ElemPtr.Base), FormatExpr(e.ElemPtr.Index), e.ElemPtr.Stride)
	case ExprArith:
		return fmt.Sprintf("%s %s %s, %s", e.Arith.Op, e.Type, FormatExpr(e.Arith.Left), FormatExpr(e.Arith.Right))
	case ExprLogic:
		return fmt.Sprintf("%s %s %s, %s", e.Logic.Op, e.Type, FormatExpr(e.Logic.Left), FormatExpr(e.Logic.Right))
	case ExprCompare:
		return fmt.Sprintf("cmp %s %s %s, %s", e.Compare.Pred, e.Compare.Operand, FormatExpr(e.Compare.Left), FormatExpr(e.Compare.Right))
	case ExprCast:
		return fmt.Sprintf("%s %s %s to %s", e.Cast.Op, e.Cast.From, FormatExpr(e.Cast.Value), e.Type)
	case ExprSelect:
		return fmt.Sprintf("select %s ? %s : %s", FormatExpr(e.Select.Cond), FormatExpr(e.Select.True), FormatExpr(e.Select.False))
	case ExprCall:
		return fmt.Sprintf("call %s %s(%s)", e.Type, FormatExpr(e.Call.Callee), formatExprs(e.Call.Args))
	case ExprIntrinsic:
		return fmt.Sprintf("intrinsic %s %s(%s)", e.Type, e.Intrinsic.Name, formatExprs(e.Intrinsic.Args))
	case ExprInlineAsm:
		return fmt.Sprintf("asm %q %q(%s)", e.InlineAsm.Asm, e.InlineAsm.Constraints, formatExprs(e.InlineAsm.Args))
	case ExprArrayLit:
		return fmt.Sprintf("array %s [%s]", e.Type, formatExprs(e.Aggregate.Elems))
	case ExprStructLit:
		return fmt.Sprintf("struct size %d {%s}", e.Aggregate.Size, formatExprs(e.Aggregate.Elems))
	case ExprVectorLit:
		return fmt.Sprintf("vector %s <%s>", e.Type, formatExprs(e.Aggregate.Elems))
	case ExprZeroFill:
		return fmt.Sprintf("zerofill %d %s", e.Zero.Size, FormatExpr(e.Zero.Target))
	case ExprZeroVector:
		return fmt.Sprintf("zerovector %s", e.Type)
	case ExprUndef:
		return fmt.Sprintf("undef %s", e.Type)
	case ExprExtractElement:
		return fmt.Sprintf("extractelement %s, %s", FormatExpr(e.Element.Vector), FormatExpr(e.Element.Index))
	case ExprInsertElement:
		return fmt.Sprintf("insertelement %s, %s, %s", FormatExpr(e.Element.Vector), FormatExpr(e.Element.Value), FormatExpr(e.Element.Index))
	case ExprExtractValue:
		return fmt.Sprintf("extractvalue %s +%d", FormatExpr(e.Member.Aggregate), e.Member.Offset)
	case ExprInsertValue:
		return fmt.Sprintf("insertvalue %s +%d, %s", FormatExpr(e.Member.Aggregate), e.Member.Offset, FormatExpr(e.Member.Value))
	case ExprShuffle:
		return fmt.Sprintf("shuffle %s, %s, %s", FormatExpr(e.Shuffle.Left), FormatExpr(e.Shuffle.Right), FormatExpr(e.Shuffle.Mask))
	default:
		return fmt.Sprintf("expr?%d", e.Kind)
	}
}
