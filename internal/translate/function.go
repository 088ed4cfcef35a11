package translate

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

// phiBinding is one incoming value of a phi in target, owned by the
// predecessor whose outgoing edges must write it.
type phiBinding struct {
	target *ir.Block
	phi    *ir.InstPhi
	value  value.Value
}

type funcTranslator struct {
	mt    *moduleTranslator
	b     Factory
	fn    *ir.Func
	frame *exec.Frame

	regs  map[value.Value]exec.RegID
	phis  map[*ir.Block][]phiBinding
	cur   *ir.Block
	sret  bool
	extra []exec.Stmt // statements to place before the current terminator
}

func newFuncTranslator(mt *moduleTranslator, f *ir.Func) *funcTranslator {
	return &funcTranslator{
		mt:    mt,
		b:     mt.b,
		fn:    f,
		frame: exec.NewFrame(),
		regs:  make(map[value.Value]exec.RegID, 32),
		phis:  make(map[*ir.Block][]phiBinding),
		sret:  isAggregate(f.Sig.RetType),
	}
}

// argBase is the position of the first declared parameter: after the
// stack pointer and, for aggregate returns, the result address.
func (ft *funcTranslator) argBase() int {
	if ft.sret {
		return 2
	}
	return 1
}

func (ft *funcTranslator) translate() (*exec.Func, error) {
	b := ft.b
	if err := ft.assignSlots(); err != nil {
		return nil, err
	}
	ft.bindPhis()

	prologue := []exec.Stmt{b.WriteReg(exec.RegStack, exec.SlotObject, b.Arg(0, addrShape))}
	for i, p := range ft.fn.Params {
		kind, s, err := ft.mt.slotKind(p.Type())
		if err != nil {
			return nil, err
		}
		prologue = append(prologue, b.WriteReg(ft.regs[p], kind, b.Arg(ft.argBase()+i, s)))
	}

	blocks := make([]exec.Block, 0, len(ft.fn.Blocks))
	for i, blk := range ft.fn.Blocks {
		ft.cur = blk
		ft.extra = nil
		var stmts []exec.Stmt
		for _, inst := range blk.Insts {
			out, err := ft.inst(inst)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", blockName(blk), err)
			}
			stmts = append(stmts, out...)
		}
		term, err := ft.term(blk.Term)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", blockName(blk), err)
		}
		stmts = append(stmts, ft.extra...)
		blocks = append(blocks, b.Block(exec.BlockID(i), blockName(blk), stmts, term))
	}
	return b.Function(ft.fn.Ident(), ft.frame, prologue, blocks, nil, ft.fn.Sig.Variadic), nil
}

// assignSlots gives every parameter and every value-producing instruction
// a register, in declaration order.
func (ft *funcTranslator) assignSlots() error {
	for _, p := range ft.fn.Params {
		if err := ft.slot(p); err != nil {
			return err
		}
	}
	for _, blk := range ft.fn.Blocks {
		for _, inst := range blk.Insts {
			v, ok := inst.(value.Named)
			if !ok || isVoid(v.Type()) {
				continue
			}
			if err := ft.slot(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ft *funcTranslator) slot(v value.Named) error {
	kind, _, err := ft.mt.slotKind(v.Type())
	if err != nil {
		return err
	}
	name := v.Ident()
	if _, dup := ft.frame.Lookup(name); dup {
		name = fmt.Sprintf("%s.%d", name, ft.frame.Len())
	}
	id, err := ft.frame.Slot(name, kind)
	if err != nil {
		return invariant(err, "slot for %s", v.Ident())
	}
	ft.regs[v] = id
	return nil
}

// bindPhis records every incoming value under its predecessor block.
func (ft *funcTranslator) bindPhis() {
	for _, blk := range ft.fn.Blocks {
		for _, inst := range blk.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				break
			}
			seen := make(map[*ir.Block]bool, len(phi.Incs))
			for _, inc := range phi.Incs {
				pred, ok := asBlock(inc.Pred)
				if !ok || seen[pred] {
					continue
				}
				seen[pred] = true
				ft.phis[pred] = append(ft.phis[pred], phiBinding{target: blk, phi: phi, value: inc.X})
			}
		}
	}
}

func asBlock(v value.Value) (*ir.Block, bool) {
	blk, ok := v.(*ir.Block)
	return blk, ok
}

// value translates an operand of the current function.
func (ft *funcTranslator) value(v value.Value) (*exec.Expr, error) {
	if id, ok := ft.regs[v]; ok {
		s, err := ft.mt.layout.Resolve(v.Type())
		if err != nil {
			return nil, err
		}
		return ft.b.ReadReg(id, s), nil
	}
	switch v := v.(type) {
	case *ir.Block:
		id, err := ft.mt.label(ft.fn, v)
		if err != nil {
			return nil, err
		}
		return ft.b.BlockAddress(id), nil
	case constant.Constant:
		e, err := ft.mt.constant(v)
		if err != nil || e != nil {
			return e, err
		}
		s, err := ft.mt.layout.Resolve(v.Type())
		if err != nil {
			return nil, err
		}
		return ft.b.Undef(s), nil
	case *ir.InlineAsm:
		return nil, unsupported("inline assembly", "used as a value outside a call")
	}
	return nil, invariant(nil, "%s has no register", v.Ident())
}

func (ft *funcTranslator) write(v value.Value, e *exec.Expr) exec.Stmt {
	id := ft.regs[v]
	return ft.b.WriteReg(id, ft.frame.Kind(id), e)
}

// edge builds the transfer to target with the phi writes it carries.
func (ft *funcTranslator) edge(target value.Value) (exec.Edge, error) {
	id, err := ft.mt.label(ft.fn, target)
	if err != nil {
		return exec.Edge{}, err
	}
	blk, _ := asBlock(target)
	phis, err := ft.phiWrites(blk)
	if err != nil {
		return exec.Edge{}, err
	}
	return ft.b.Edge(id, phis), nil
}

// phiWrites produces one write per phi of target for the edge from the
// current block. When a value reads a phi of target that an earlier write
// on the same edge already replaced, every value is first copied to a
// temporary.
func (ft *funcTranslator) phiWrites(target *ir.Block) ([]exec.Stmt, error) {
	var bindings []phiBinding
	for _, pb := range ft.phis[ft.cur] {
		if pb.target == target {
			bindings = append(bindings, pb)
		}
	}
	if len(bindings) == 0 {
		return nil, nil
	}
	parallel := false
	written := make(map[*ir.InstPhi]bool, len(bindings))
	for _, pb := range bindings {
		if src, ok := pb.value.(*ir.InstPhi); ok && written[src] {
			parallel = true
		}
		written[pb.phi] = true
	}

	b := ft.b
	out := make([]exec.Stmt, 0, 2*len(bindings))
	temps := make([]exec.RegID, len(bindings))
	for i, pb := range bindings {
		v, err := ft.value(pb.value)
		if err != nil {
			return nil, err
		}
		if !parallel {
			out = append(out, ft.write(pb.phi, v))
			continue
		}
		kind := ft.frame.Kind(ft.regs[pb.phi])
		temps[i] = ft.frame.Temp(kind)
		out = append(out, b.WriteReg(temps[i], kind, v))
	}
	if parallel {
		for i, pb := range bindings {
			s, err := ft.mt.layout.Resolve(pb.phi.Type())
			if err != nil {
				return nil, err
			}
			out = append(out, ft.write(pb.phi, b.ReadReg(temps[i], s)))
		}
	}
	return out, nil
}

func (ft *funcTranslator) term(t ir.Terminator) (exec.Terminator, error) {
	b := ft.b
	switch t := t.(type) {
	case *ir.TermRet:
		return ft.ret(t)
	case *ir.TermBr:
		e, err := ft.edge(t.Target)
		if err != nil {
			return exec.Terminator{}, err
		}
		return b.Br(e), nil
	case *ir.TermCondBr:
		cond, err := ft.value(t.Cond)
		if err != nil {
			return exec.Terminator{}, err
		}
		then, err := ft.edge(t.TargetTrue)
		if err != nil {
			return exec.Terminator{}, err
		}
		els, err := ft.edge(t.TargetFalse)
		if err != nil {
			return exec.Terminator{}, err
		}
		return b.CondBr(cond, then, els), nil
	case *ir.TermSwitch:
		return ft.switchTerm(t)
	case *ir.TermIndirectBr:
		addr, err := ft.value(t.Addr)
		if err != nil {
			return exec.Terminator{}, err
		}
		targets := make([]exec.Edge, len(t.ValidTargets))
		for i, target := range t.ValidTargets {
			if targets[i], err = ft.edge(target); err != nil {
				return exec.Terminator{}, err
			}
		}
		return b.IndirectBr(addr, targets), nil
	case *ir.TermUnreachable:
		return b.Unreachable(), nil
	case *ir.TermInvoke, *ir.TermResume, *ir.TermCatchSwitch, *ir.TermCatchRet, *ir.TermCleanupRet:
		return exec.Terminator{}, unsupported("exception handling", "%T", t)
	case nil:
		return exec.Terminator{}, &StructuralError{Function: ft.fn.Ident(), Block: ft.cur.Ident(), Detail: "block has no terminator"}
	default:
		return exec.Terminator{}, unsupported("terminator", "%T", t)
	}
}

func (ft *funcTranslator) switchTerm(t *ir.TermSwitch) (exec.Terminator, error) {
	x, err := ft.value(t.X)
	if err != nil {
		return exec.Terminator{}, err
	}
	def, err := ft.edge(t.TargetDefault)
	if err != nil {
		return exec.Terminator{}, err
	}
	values := make([]exec.Literal, len(t.Cases))
	targets := make([]exec.Edge, len(t.Cases))
	for i, c := range t.Cases {
		n, ok := constIndex(c.X)
		if !ok {
			return exec.Terminator{}, unsupported("switch case", "value %s", c.X.Ident())
		}
		values[i] = exec.Literal{Kind: exec.LitInt, Int: n}
		if targets[i], err = ft.edge(c.Target); err != nil {
			return exec.Terminator{}, err
		}
	}
	return ft.b.Switch(x, values, targets, def), nil
}

// ret fixes the kind of the return register from the returned value. An
// aggregate is copied to the caller's result address, which is returned.
func (ft *funcTranslator) ret(t *ir.TermRet) (exec.Terminator, error) {
	b := ft.b
	if t.X == nil {
		return b.Return(nil, exec.SlotIllegal), nil
	}
	v, err := ft.value(t.X)
	if err != nil {
		return exec.Terminator{}, err
	}
	if ft.sret {
		s, err := ft.mt.layout.Resolve(t.X.Type())
		if err != nil {
			return exec.Terminator{}, err
		}
		size, align, err := ft.mt.sizeAlign(t.X.Type())
		if err != nil {
			return exec.Terminator{}, err
		}
		ft.extra = append(ft.extra, b.Store(s, b.Arg(1, addrShape), v, size, align))
		v = b.Arg(1, addrShape)
	}
	kind := exec.SlotObject
	if !ft.sret {
		if kind, _, err = ft.mt.slotKind(t.X.Type()); err != nil {
			return exec.Terminator{}, err
		}
	}
	if err := ft.frame.SetKind(exec.RegReturn, kind); err != nil {
		return exec.Terminator{}, invariant(err, "return from %s", ft.fn.Ident())
	}
	return b.Return(v, kind), nil
}

func (ft *funcTranslator) shape(t types.Type) (layout.Shape, error) {
	return ft.mt.layout.Resolve(t)
}
