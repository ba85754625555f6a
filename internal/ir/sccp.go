package ir

import "strconv"

// latticeKind is the three-point lattice SCCP tracks per SSA value: unknown
// (never yet assigned a fact), a known constant, or provably non-constant.
type latticeKind int

const (
	latticeTop latticeKind = iota
	latticeConst
	latticeBottom
)

type lattice struct {
	kind  latticeKind
	value int64
}

var topCell = lattice{kind: latticeTop}
var bottomCell = lattice{kind: latticeBottom}

func constCell(v int64) lattice { return lattice{kind: latticeConst, value: v} }

// meet combines two facts about the same value; Top is the identity, any
// disagreement between two constants falls to Bottom.
func meet(a, b lattice) lattice {
	if a.kind == latticeTop {
		return b
	}
	if b.kind == latticeTop {
		return a
	}
	if a.kind == latticeBottom || b.kind == latticeBottom {
		return bottomCell
	}
	if a.value != b.value {
		return bottomCell
	}
	return a
}

// edge identifies one CFG edge for the executable-flags worklist.
type edge struct{ from, to *BasicBlock }

// SCCP runs sparse conditional constant propagation over f, rewriting
// provably-constant values to Store operations and removing CFG edges
// proven unreachable. Callers should recompute dominance after this if they
// plan to rerun SSA-dependent passes, since block/edge shape may change.
func SCCP(f *Function) {
	s := &sccpState{
		fn:         f,
		values:     make(map[string]lattice),
		executable: make(map[edge]bool),
	}
	s.seedParams()
	s.run()
	s.rewrite()
}

type sccpState struct {
	fn         *Function
	values     map[string]lattice
	executable map[edge]bool
	blockQueue []*BasicBlock
	valueQueue []string
	reachable  map[*BasicBlock]bool
}

// seedParams marks every parameter Bottom: a parameter's value comes from
// the caller, so it is never a compile-time constant.
func (s *sccpState) seedParams() {
	for _, p := range s.fn.Params {
		s.values[p.Name+"_v1"] = bottomCell
	}
}

func (s *sccpState) run() {
	s.reachable = map[*BasicBlock]bool{s.fn.Entry: true}
	s.blockQueue = append(s.blockQueue, s.fn.Entry)

	for len(s.blockQueue) > 0 || len(s.valueQueue) > 0 {
		for len(s.blockQueue) > 0 {
			b := s.blockQueue[0]
			s.blockQueue = s.blockQueue[1:]
			s.visitBlock(b)
		}
		for len(s.valueQueue) > 0 {
			name := s.valueQueue[0]
			s.valueQueue = s.valueQueue[1:]
			s.propagateUses(name)
		}
	}
}

// visitBlock evaluates every phi and instruction in b once, on the
// assumption that b is reachable; it marks outgoing edges executable as the
// block's own terminators are evaluated.
func (s *sccpState) visitBlock(b *BasicBlock) {
	for name, phi := range b.Phis {
		s.evalPhi(name, phi, b)
	}
	var condValue lattice
	var sawCmp bool
	for _, instr := range b.Instrs {
		switch in := instr.(type) {
		case Assign:
			s.evalAssign(in)
		case Cmp:
			condValue = s.get(in.Left)
			sawCmp = true
		case Jump:
			s.markJumpExecutable(b, in, condValue, sawCmp)
		case Return:
			s.markEdgeExecutable(b, s.fn.Exit)
		}
	}
}

func (s *sccpState) markJumpExecutable(b *BasicBlock, j Jump, cond lattice, sawCmp bool) {
	target := s.fn.GetBlock(j.Label)
	if target == nil {
		return
	}
	switch j.Kind {
	case JumpUnconditional:
		s.markEdgeExecutable(b, target)
	case JumpIfZero:
		if !sawCmp || cond.kind == latticeBottom || (cond.kind == latticeConst && cond.value == 0) {
			s.markEdgeExecutable(b, target)
		}
	case JumpIfNonZero:
		if !sawCmp || cond.kind == latticeBottom || (cond.kind == latticeConst && cond.value != 0) {
			s.markEdgeExecutable(b, target)
		}
	}
}

func (s *sccpState) markEdgeExecutable(from, to *BasicBlock) {
	e := edge{from, to}
	if s.executable[e] {
		return
	}
	s.executable[e] = true
	firstVisit := !s.reachable[to]
	s.reachable[to] = true
	if firstVisit {
		s.blockQueue = append(s.blockQueue, to)
	} else {
		// Block was already reachable; only its phis need re-evaluating for
		// the newly-live incoming edge.
		for name, phi := range to.Phis {
			s.evalPhi(name, phi, to)
		}
	}
}

func (s *sccpState) evalPhi(name string, phi *Phi, owner *BasicBlock) {
	result := topCell
	for pred, v := range phi.Incoming {
		predBlock := s.fn.GetBlock(pred)
		if predBlock == nil || !s.executable[edge{predBlock, owner}] {
			continue
		}
		result = meet(result, s.get(v))
	}
	s.update(phi.LHS.Name, result)
}

func (s *sccpState) evalAssign(in Assign) {
	var result lattice
	switch op := in.RHS.(type) {
	case Store:
		result = constCell(op.Value)
	case Binary:
		result = s.evalBinary(op)
	case Unary:
		result = s.evalUnary(op)
	case Call:
		result = bottomCell
	}
	s.update(in.LHS.Name, result)
}

func (s *sccpState) evalBinary(op Binary) lattice {
	x, y := s.get(op.X), s.get(op.Y)
	if x.kind == latticeBottom || y.kind == latticeBottom {
		return bottomCell
	}
	if x.kind == latticeTop || y.kind == latticeTop {
		return topCell
	}
	v, ok := foldBinary(op.Op, x.value, y.value)
	if !ok {
		return bottomCell
	}
	return constCell(v)
}

func (s *sccpState) evalUnary(op Unary) lattice {
	x := s.get(op.X)
	if x.kind == latticeBottom {
		return bottomCell
	}
	if x.kind == latticeTop {
		return topCell
	}
	return constCell(foldUnary(op.Op, x.value))
}

func foldBinary(op string, a, b int64) (int64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "%":
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case "<":
		return boolInt(a < b), true
	case "<=":
		return boolInt(a <= b), true
	case ">":
		return boolInt(a > b), true
	case ">=":
		return boolInt(a >= b), true
	case "==":
		return boolInt(a == b), true
	case "!=":
		return boolInt(a != b), true
	case "&&":
		return boolInt(a != 0 && b != 0), true
	case "||":
		return boolInt(a != 0 || b != 0), true
	}
	return 0, false
}

func foldUnary(op string, a int64) int64 {
	switch op {
	case "-":
		return -a
	case "!":
		return boolInt(a == 0)
	}
	return a
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (s *sccpState) get(v Value) lattice {
	if cell, ok := s.values[v.Name]; ok {
		return cell
	}
	return topCell
}

func (s *sccpState) update(name string, v lattice) {
	old, ok := s.values[name]
	if !ok {
		old = topCell
	}
	merged := meet(old, v)
	// A use with no new information yields back old; only a strict descent
	// (Top -> Const -> Bottom) re-triggers users, matching finite-height
	// termination.
	if v.kind == latticeTop {
		return
	}
	if merged == old {
		return
	}
	s.values[name] = v
	s.valueQueue = append(s.valueQueue, name)
}

// propagateUses re-evaluates every instruction that reads name, since its
// lattice cell just changed.
func (s *sccpState) propagateUses(name string) {
	for _, b := range s.fn.Blocks {
		if !s.reachable[b] {
			continue
		}
		for pname, phi := range b.Phis {
			if usesValue(phi, name) {
				s.evalPhi(pname, phi, b)
			}
		}
		var condValue lattice
		var sawCmp bool
		for _, instr := range b.Instrs {
			switch in := instr.(type) {
			case Assign:
				if assignUses(in, name) {
					s.evalAssign(in)
				}
			case Cmp:
				condValue = s.get(in.Left)
				sawCmp = true
			case Jump:
				if sawCmp || in.Kind == JumpUnconditional {
					s.markJumpExecutable(b, in, condValue, sawCmp)
				}
			}
		}
	}
}

func usesValue(phi *Phi, name string) bool {
	for _, v := range phi.Incoming {
		if v.Name == name {
			return true
		}
	}
	return false
}

func assignUses(in Assign, name string) bool {
	switch op := in.RHS.(type) {
	case Binary:
		return op.X.Name == name || op.Y.Name == name
	case Unary:
		return op.X.Name == name
	case Call:
		for _, a := range op.Args {
			if a.Name == name {
				return true
			}
		}
	}
	return false
}

// rewrite replaces every instruction whose result settled to a known
// constant with an equivalent Store, then prunes blocks and edges that were
// never marked executable.
func (s *sccpState) rewrite() {
	for _, b := range s.fn.Blocks {
		for i, instr := range b.Instrs {
			a, ok := instr.(Assign)
			if !ok {
				continue
			}
			if _, isStore := a.RHS.(Store); isStore {
				continue
			}
			cell := s.get(a.LHS)
			if cell.kind == latticeConst {
				a.RHS = Store{Value: cell.value}
				b.Instrs[i] = a
			}
		}
	}
	s.foldReturns()
	s.pruneUnreachable()
}

// foldReturns rewrites `return(v)` to print its literal value directly when
// v has settled to a known constant, matching the golden rendering of a
// fully-propagated return.
func (s *sccpState) foldReturns() {
	for _, b := range s.fn.Blocks {
		for i, instr := range b.Instrs {
			ret, ok := instr.(Return)
			if !ok || ret.Value == nil {
				continue
			}
			cell := s.get(*ret.Value)
			if cell.kind != latticeConst {
				continue
			}
			lit := Value{Name: constLiteral(cell.value)}
			ret.Value = &lit
			b.Instrs[i] = ret
		}
	}
}

func constLiteral(v int64) string { return strconv.FormatInt(v, 10) }

// pruneUnreachable drops edges never marked executable and removes blocks
// left with no surviving predecessor (other than the entry block itself),
// repairing successor phi maps as it goes.
func (s *sccpState) pruneUnreachable() {
	changed := true
	for changed {
		changed = false
		for _, b := range s.fn.Blocks {
			for _, succ := range append([]*BasicBlock(nil), b.Succs...) {
				if !s.executable[edge{b, succ}] {
					b.RemoveEdge(succ)
					for _, phi := range succ.Phis {
						delete(phi.Incoming, b.Label)
					}
					changed = true
				}
			}
		}
	}

	kept := make([]*BasicBlock, 0, len(s.fn.Blocks))
	for _, b := range s.fn.Blocks {
		if b == s.fn.Entry || b == s.fn.Exit || len(b.Preds) > 0 {
			kept = append(kept, b)
		}
	}
	s.fn.Blocks = kept

	for _, b := range s.fn.Blocks {
		b.Instrs = dropDeadJumps(b, s.fn)
	}
}

// dropDeadJumps removes Jump instructions whose target block was pruned,
// and simplifies a surviving JumpIfNonZero/JumpIfZero pair down to a single
// unconditional jump once only one of the two targets still exists.
func dropDeadJumps(b *BasicBlock, f *Function) []Instruction {
	var out []Instruction
	for _, instr := range b.Instrs {
		j, ok := instr.(Jump)
		if !ok {
			out = append(out, instr)
			continue
		}
		if f.GetBlock(j.Label) == nil {
			continue
		}
		if !blockHasSucc(b, j.Label) {
			continue
		}
		out = append(out, j)
	}
	return simplifyBranchPair(out)
}

func blockHasSucc(b *BasicBlock, label string) bool {
	for _, s := range b.Succs {
		if s.Label == label {
			return true
		}
	}
	return false
}

// simplifyBranchPair collapses a lone surviving conditional Jump (its
// partner having been dropped because its target was pruned) into an
// unconditional jump to the one remaining target.
func simplifyBranchPair(instrs []Instruction) []Instruction {
	if len(instrs) == 0 {
		return instrs
	}
	last, ok := instrs[len(instrs)-1].(Jump)
	if !ok || last.Kind == JumpUnconditional {
		return instrs
	}
	if len(instrs) >= 2 {
		if _, ok := instrs[len(instrs)-2].(Jump); ok {
			return instrs // both halves of the pair survived
		}
	}
	out := append([]Instruction(nil), instrs[:len(instrs)-1]...)
	return append(out, Jump{Kind: JumpUnconditional, Label: last.Label})
}
