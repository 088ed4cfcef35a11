package exec

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants of a program.
// Returns error if any invariant is violated.
func Validate(p *Program) error {
	if p == nil {
		return nil
	}
	var errs []error
	seen := make(map[FuncIndex]string, len(p.Funcs))
	for _, f := range p.Funcs {
		if f == nil {
			continue
		}
		if f.Index == 0 {
			errs = append(errs, fmt.Errorf("fn %s: uses the reserved index 0", f.Name))
		}
		if prev, ok := seen[f.Index]; ok && f.Index != NoFuncIndex {
			errs = append(errs, fmt.Errorf("fn %s: index %d already used by %s", f.Name, f.Index, prev))
		}
		seen[f.Index] = f.Name
		if err := ValidateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("fn %s: %w", f.Name, err))
		}
	}
	if p.Init != nil {
		if err := ValidateFunc(p.Init); err != nil {
			errs = append(errs, fmt.Errorf("init: %w", err))
		}
	}
	for i, g := range p.Globals {
		if int(g.Handle) != i {
			errs = append(errs, fmt.Errorf("global %s: handle %d at position %d", g.Name, g.Handle, i))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks one function body.
func ValidateFunc(f *Func) error {
	if f == nil || f.IsIntrinsic() {
		return nil
	}
	var errs []error
	if len(f.Regs) < 2 || f.Regs[RegReturn].Name != ReturnSlotName || f.Regs[RegStack].Name != StackSlotName {
		errs = append(errs, errors.New("reserved registers missing"))
	}
	if len(f.Blocks) > 0 && (f.Entry < 0 || int(f.Entry) >= len(f.Blocks)) {
		errs = append(errs, fmt.Errorf("entry bb%d does not exist", f.Entry))
	}

	blockExists := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}
	regExists := func(id RegID) bool {
		return id >= 0 && int(id) < len(f.Regs)
	}
	checkExpr := func(e *Expr, where string) {
		WalkExpr(e, func(x *Expr) {
			if x.Kind == ExprReg && !regExists(x.Reg) {
				errs = append(errs, fmt.Errorf("%s: register r%d does not exist", where, x.Reg))
			}
		})
	}
	checkStmt := func(s *Stmt, where string) {
		if s.Kind == StmtWrite {
			switch {
			case !regExists(s.Write.Dst):
				errs = append(errs, fmt.Errorf("%s: write to missing register r%d", where, s.Write.Dst))
			case s.Write.Kind != SlotIllegal && f.Regs[s.Write.Dst].Kind != s.Write.Kind:
				errs = append(errs, fmt.Errorf("%s: write of %s to %s register r%d",
					where, s.Write.Kind, f.Regs[s.Write.Dst].Kind, s.Write.Dst))
			}
		}
		for _, e := range StmtExprs(s) {
			checkExpr(e, where)
		}
	}

	for i := range f.Prologue {
		checkStmt(&f.Prologue[i], fmt.Sprintf("prologue %d", i))
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if int(bb.ID) != i {
			errs = append(errs, fmt.Errorf("bb%d: block at position %d", bb.ID, i))
		}
		if !bb.Terminated() {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
		for j := range bb.Stmts {
			checkStmt(&bb.Stmts[j], fmt.Sprintf("bb%d stmt %d", i, j))
		}
		for _, e := range TermExprs(&bb.Term) {
			checkExpr(e, fmt.Sprintf("bb%d term", i))
		}
		for k, edge := range bb.Term.Edges() {
			if !blockExists(edge.Target) {
				errs = append(errs, fmt.Errorf("bb%d: edge %d target bb%d does not exist", i, k, edge.Target))
			}
			for j := range edge.Phis {
				phi := &edge.Phis[j]
				if phi.Kind != StmtWrite {
					errs = append(errs, fmt.Errorf("bb%d: edge %d carries a non-write phi", i, k))
				}
				checkStmt(phi, fmt.Sprintf("bb%d edge %d phi %d", i, k, j))
			}
		}
		if bb.Term.Kind == TermSwitch {
			seenCase := make(map[int64]bool, len(bb.Term.Switch.Cases))
			for _, c := range bb.Term.Switch.Cases {
				if c.Value.Kind != LitInt {
					continue
				}
				if seenCase[c.Value.Int] {
					errs = append(errs, fmt.Errorf("bb%d: switch has duplicate case %d", i, c.Value.Int))
				}
				seenCase[c.Value.Int] = true
			}
		}
		for _, r := range bb.DeadAfter {
			if !regExists(r) {
				errs = append(errs, fmt.Errorf("bb%d: dead register r%d does not exist", i, r))
			}
		}
	}
	for i := range f.Epilogue {
		checkStmt(&f.Epilogue[i], fmt.Sprintf("epilogue %d", i))
	}
	return errors.Join(errs...)
}
