// Package lifetime computes, per block, the registers whose values are no
// longer needed once the block has been left.
package lifetime

import (
	"slices"

	"llvmexec/internal/exec"
)

type regSet map[exec.RegID]struct{}

func (s regSet) add(id exec.RegID) { s[id] = struct{}{} }

func (s regSet) has(id exec.RegID) bool {
	_, ok := s[id]
	return ok
}

func union(dst, src regSet) regSet {
	if dst == nil {
		dst = regSet{}
	}
	for id := range src {
		dst.add(id)
	}
	return dst
}

func subtract(src, sub regSet) regSet {
	out := regSet{}
	for id := range src {
		if !sub.has(id) {
			out.add(id)
		}
	}
	return out
}

func equal(a, b regSet) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b.has(id) {
			return false
		}
	}
	return true
}

func (s regSet) sorted() []exec.RegID {
	out := make([]exec.RegID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// BlockInfo is the liveness of one block.
type BlockInfo struct {
	Use  []exec.RegID
	Def  []exec.RegID
	In   []exec.RegID
	Out  []exec.RegID
	Dead []exec.RegID
}

// edgeSets are the phi reads and writes of one outgoing edge. They happen
// after the block body and only when that edge is taken.
type edgeSets struct {
	target   exec.BlockID
	use, def regSet
}

type blockSets struct {
	use, def regSet
	edges    []edgeSets
	in, out  regSet
}

// Analyze computes liveness for f. The prologue counts as part of the entry
// block. A phi write on one edge only kills liveness along that edge.
func Analyze(f *exec.Func) []BlockInfo {
	if f == nil || len(f.Blocks) == 0 {
		return nil
	}
	sets := make([]blockSets, len(f.Blocks))
	for i := range f.Blocks {
		var prologue []exec.Stmt
		if exec.BlockID(i) == f.Entry {
			prologue = f.Prologue
		}
		sets[i] = bodySets(prologue, &f.Blocks[i])
	}
	liveIn := func(target exec.BlockID) regSet {
		if target < 0 || int(target) >= len(sets) {
			return nil
		}
		return sets[target].in
	}

	changed := true
	for changed {
		changed = false
		for i := len(sets) - 1; i >= 0; i-- {
			s := &sets[i]
			out, atTerm := regSet{}, regSet{}
			for _, e := range s.edges {
				next := liveIn(e.target)
				out = union(out, next)
				atTerm = union(atTerm, union(subtract(next, e.def), e.use))
			}
			in := union(subtract(atTerm, s.def), s.use)
			if !equal(out, s.out) || !equal(in, s.in) {
				s.out, s.in = out, in
				changed = true
			}
		}
	}

	info := make([]BlockInfo, len(f.Blocks))
	for i, s := range sets {
		use, def := union(nil, s.use), union(nil, s.def)
		for _, e := range s.edges {
			use = union(use, subtract(e.use, s.def))
			def = union(def, e.def)
		}
		touched := union(union(union(nil, s.in), def), use)
		dead := subtract(touched, s.out)
		delete(dead, exec.RegReturn)
		delete(dead, exec.RegStack)
		info[i] = BlockInfo{
			Use:  use.sorted(),
			Def:  def.sorted(),
			In:   s.in.sorted(),
			Out:  s.out.sorted(),
			Dead: dead.sorted(),
		}
	}
	return info
}

func bodySets(prologue []exec.Stmt, bb *exec.Block) blockSets {
	bs := blockSets{use: regSet{}, def: regSet{}}
	readExpr := func(e *exec.Expr, use, def regSet) {
		for _, id := range exec.ReadRegs(nil, e) {
			if !def.has(id) {
				use.add(id)
			}
		}
	}
	stmt := func(s *exec.Stmt, use, def regSet) {
		for _, e := range exec.StmtExprs(s) {
			readExpr(e, use, def)
		}
		if s.Kind == exec.StmtWrite {
			def.add(s.Write.Dst)
		}
	}
	for i := range prologue {
		stmt(&prologue[i], bs.use, bs.def)
	}
	for i := range bb.Stmts {
		stmt(&bb.Stmts[i], bs.use, bs.def)
	}
	for _, e := range exec.TermExprs(&bb.Term) {
		readExpr(e, bs.use, bs.def)
	}
	for _, e := range bb.Term.Edges() {
		es := edgeSets{target: e.Target, use: regSet{}, def: regSet{}}
		for j := range e.Phis {
			stmt(&e.Phis[j], es.use, es.def)
		}
		bs.edges = append(bs.edges, es)
	}
	return bs
}

// Annotate runs Analyze and stores the dead sets into f's blocks.
func Annotate(f *exec.Func) {
	for i, bi := range Analyze(f) {
		f.Blocks[i].DeadAfter = bi.Dead
	}
}
