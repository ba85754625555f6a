package ir

import "fmt"

// NaturalLoop is one back-edge-rooted loop: a header dominating every block
// in its body, including the latch that jumps back to it.
type NaturalLoop struct {
	Header    *BasicBlock
	Body      map[*BasicBlock]bool
	Preheader *BasicBlock
}

// LICM hoists loop-invariant pure computations out of every natural loop in
// f, innermost loop first, iterating each loop to a fixed point before
// moving to its enclosing loop.
func LICM(f *Function, dom *DomInfo) {
	loops := findLoops(f, dom)
	if len(loops) == 0 {
		return
	}
	for _, loop := range loops {
		loop.Preheader = createPreheader(f, loop)
	}

	defBlock := indexDefBlocks(f)
	defInstr := indexDefInstrs(f)
	orderInnermostFirst(loops)
	for _, loop := range loops {
		hoistToFixedPoint(loop, defBlock, defInstr)
	}
}

// findLoops locates every back edge (b -> h where h dominates b) and grows
// each into its natural loop by walking predecessors backward from the
// latch until the header is reached.
func findLoops(f *Function, dom *DomInfo) []*NaturalLoop {
	byHeader := make(map[*BasicBlock]*NaturalLoop)
	var loops []*NaturalLoop
	for _, b := range f.Blocks {
		for _, succ := range b.Succs {
			if !dom.Dominates(succ, b) {
				continue
			}
			loop, ok := byHeader[succ]
			if !ok {
				loop = &NaturalLoop{Header: succ, Body: map[*BasicBlock]bool{succ: true}}
				byHeader[succ] = loop
				loops = append(loops, loop)
			}
			growBody(loop, b)
		}
	}
	return loops
}

func growBody(loop *NaturalLoop, latch *BasicBlock) {
	if loop.Body[latch] {
		return
	}
	stack := []*BasicBlock{latch}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if loop.Body[n] {
			continue
		}
		loop.Body[n] = true
		for _, p := range n.Preds {
			stack = append(stack, p)
		}
	}
}

// createPreheader gives loop a dedicated entry block, redirecting every
// predecessor of the header that sits outside the loop body to jump there
// instead, and repointing the header's phi incoming edges to match. A
// preheader synthesized by an earlier LICM run (the header's only outside
// predecessor, tagged "loop preheader", with the header as its sole
// successor) is reused as-is rather than wrapped in another one.
func createPreheader(f *Function, loop *NaturalLoop) *BasicBlock {
	var outside []*BasicBlock
	for _, p := range loop.Header.Preds {
		if !loop.Body[p] {
			outside = append(outside, p)
		}
	}
	if len(outside) == 1 && outside[0].Tag == "loop preheader" && len(outside[0].Succs) == 1 {
		return outside[0]
	}

	ph := newBlockFor(f, "loop preheader")

	for _, p := range outside {
		redirectJumpTarget(p, loop.Header.Label, ph.Label)
		p.RemoveEdge(loop.Header)
		p.AddEdge(ph)
	}
	ph.AddEdge(loop.Header)
	ph.addInstr(Jump{Kind: JumpUnconditional, Label: loop.Header.Label})

	for _, phi := range loop.Header.Phis {
		for _, p := range outside {
			if v, ok := phi.Incoming[p.Label]; ok {
				delete(phi.Incoming, p.Label)
				phi.Incoming[ph.Label] = v
			}
		}
	}

	return ph
}

func redirectJumpTarget(b *BasicBlock, from, to string) {
	for i, instr := range b.Instrs {
		if j, ok := instr.(Jump); ok && j.Label == from {
			j.Label = to
			b.Instrs[i] = j
		}
	}
}

// newBlockFor creates a block with the function's own sequential label
// scheme, for passes (LICM's preheaders) that synthesize blocks after the
// initial build.
func newBlockFor(f *Function, tag string) *BasicBlock {
	label := fmt.Sprintf("bb%d", f.blockCounter)
	f.blockCounter++
	bb := newBasicBlock(label)
	bb.Tag = tag
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// indexDefBlocks maps every SSA name to the block defining it, across the
// whole function. Names with no entry (function parameters) are treated as
// defined outside every loop.
func indexDefBlocks(f *Function) map[string]*BasicBlock {
	out := make(map[string]*BasicBlock)
	for _, b := range f.Blocks {
		for _, phi := range b.Phis {
			out[phi.LHS.Name] = b
		}
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				out[a.LHS.Name] = b
			}
		}
	}
	return out
}

// indexDefInstrs maps every SSA name defined by an Assign to that Assign,
// so isHoistable can inspect the defining operation of an operand (to check
// whether a divisor is a known-nonzero constant) rather than just its block.
func indexDefInstrs(f *Function) map[string]Assign {
	out := make(map[string]Assign)
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				out[a.LHS.Name] = a
			}
		}
	}
	return out
}

// orderInnermostFirst sorts loops so that any loop nested in another (its
// body a proper subset of the outer loop's) is processed before it.
func orderInnermostFirst(loops []*NaturalLoop) {
	less := func(i, j int) bool { return len(loops[i].Body) < len(loops[j].Body) }
	// insertion sort: loop counts here are small (one function's loop nest)
	for i := 1; i < len(loops); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			loops[j], loops[j-1] = loops[j-1], loops[j]
		}
	}
}

// hoistToFixedPoint repeatedly moves pure, loop-invariant assignments from
// loop's body blocks into its preheader until a full pass moves nothing.
// Each hoisted value is recorded in defBlock as its move lands it in the
// preheader, so a chain of invariant computations (b depends on invariant a)
// hoists in its entirety over successive passes.
func hoistToFixedPoint(loop *NaturalLoop, defBlock map[string]*BasicBlock, defInstr map[string]Assign) {
	insertAt := len(loop.Preheader.Instrs) - 1 // before the preheader's own jmp
	for {
		moved := false
		for b := range loop.Body {
			if b == loop.Preheader {
				continue
			}
			var kept []Instruction
			for _, instr := range b.Instrs {
				a, ok := instr.(Assign)
				if ok && isHoistable(a, loop, defBlock, defInstr) {
					loop.Preheader.Instrs = append(
						loop.Preheader.Instrs[:insertAt],
						append([]Instruction{a}, loop.Preheader.Instrs[insertAt:]...)...,
					)
					insertAt++
					defBlock[a.LHS.Name] = loop.Preheader
					moved = true
					continue
				}
				kept = append(kept, instr)
			}
			b.Instrs = kept
		}
		if !moved {
			return
		}
	}
}

func isHoistable(a Assign, loop *NaturalLoop, defBlock map[string]*BasicBlock, defInstr map[string]Assign) bool {
	if !a.RHS.Pure() {
		return false
	}
	if bop, ok := a.RHS.(Binary); ok && (bop.Op == "/" || bop.Op == "%") && !knownNonzero(bop.Y, defInstr) {
		return false
	}
	for _, operand := range operandsOf(a.RHS) {
		if def, ok := defBlock[operand.Name]; ok && loop.Body[def] {
			return false
		}
	}
	return true
}

// knownNonzero reports whether v's defining instruction is a constant Store
// with a nonzero value. Hoisting a loop-invariant divide/mod out of the loop
// body executes it unconditionally in the preheader, so a divisor that isn't
// provably nonzero must stay where a zero-trip loop would never reach it.
func knownNonzero(v Value, defInstr map[string]Assign) bool {
	a, ok := defInstr[v.Name]
	if !ok {
		return false
	}
	s, ok := a.RHS.(Store)
	return ok && s.Value != 0
}

func operandsOf(op Operation) []Value {
	switch o := op.(type) {
	case Binary:
		return []Value{o.X, o.Y}
	case Unary:
		return []Value{o.X}
	case Call:
		return o.Args
	default:
		return nil
	}
}
