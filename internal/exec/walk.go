package exec

// Children returns the direct operands of e, skipping nil ones.
func Children(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	var out []*Expr
	add := func(xs ...*Expr) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	switch e.Kind {
	case ExprLiteral, ExprReg, ExprArg, ExprUndef:
	case ExprLoad:
		add(e.Load.Addr)
	case ExprAlloc:
		add(e.Alloc.Count)
	case ExprElementPtr:
		add(e.ElemPtr.Base, e.ElemPtr.Index)
	case ExprArith:
		add(e.Arith.Target, e.Arith.Left, e.Arith.Right)
	case ExprLogic:
		add(e.Logic.Target, e.Logic.Left, e.Logic.Right)
	case ExprCompare:
		add(e.Compare.Target, e.Compare.Left, e.Compare.Right)
	case ExprCast:
		add(e.Cast.Target, e.Cast.Value)
	case ExprSelect:
		add(e.Select.Cond, e.Select.True, e.Select.False)
	case ExprCall:
		add(e.Call.Callee)
		add(e.Call.Args...)
	case ExprIntrinsic:
		add(e.Intrinsic.Args...)
	case ExprInlineAsm:
		add(e.InlineAsm.Args...)
	case ExprArrayLit, ExprStructLit, ExprVectorLit:
		add(e.Aggregate.Target)
		add(e.Aggregate.Elems...)
	case ExprZeroFill, ExprZeroVector:
		add(e.Zero.Target)
	case ExprExtractElement, ExprInsertElement:
		add(e.Element.Target, e.Element.Vector, e.Element.Index, e.Element.Value)
	case ExprExtractValue, ExprInsertValue:
		add(e.Member.Target, e.Member.Aggregate, e.Member.Value)
	case ExprShuffle:
		add(e.Shuffle.Target, e.Shuffle.Left, e.Shuffle.Right, e.Shuffle.Mask)
	}
	return out
}

// WalkExpr calls fn for e and every expression below it, parents first.
func WalkExpr(e *Expr, fn func(*Expr)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range Children(e) {
		WalkExpr(c, fn)
	}
}

// StmtExprs returns the top-level expressions a statement evaluates.
func StmtExprs(s *Stmt) []*Expr {
	switch s.Kind {
	case StmtWrite:
		return []*Expr{s.Write.Value}
	case StmtStore:
		return []*Expr{s.Store.Addr, s.Store.Value}
	case StmtEval:
		return []*Expr{s.Eval.Value}
	default:
		return nil
	}
}

// TermExprs returns the expressions a terminator evaluates itself,
// excluding the phi writes on its edges.
func TermExprs(t *Terminator) []*Expr {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			return []*Expr{t.Return.Value}
		}
	case TermCondBr:
		return []*Expr{t.CondBr.Cond}
	case TermSwitch:
		return []*Expr{t.Switch.Value}
	case TermIndirectBr:
		return []*Expr{t.IndirectBr.Addr}
	}
	return nil
}

// ReadRegs appends to dst every register read by e.
func ReadRegs(dst []RegID, e *Expr) []RegID {
	WalkExpr(e, func(x *Expr) {
		if x.Kind == ExprReg {
			dst = append(dst, x.Reg)
		}
	})
	return dst
}
