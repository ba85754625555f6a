package ir

// DCE removes every instruction and phi in f whose result is never used by
// an essential computation. An instruction is essential if it is a Return,
// Jump, Cmp, Call, or the Assign of a value transitively used by an
// essential instruction; a phi is essential iff at least one of its users
// is essential. Essentiality is propagated to a fixed point before anything
// is swept, since usefulness can flow backward through long def-use chains.
func DCE(f *Function) {
	essential := markEssential(f)
	sweep(f, essential)
}

func markEssential(f *Function) map[string]bool {
	essential := make(map[string]bool)
	var worklist []string

	use := func(v Value) {
		if !essential[v.Name] {
			essential[v.Name] = true
			worklist = append(worklist, v.Name)
		}
	}

	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			switch in := instr.(type) {
			case Return:
				if in.Value != nil {
					use(*in.Value)
				}
			case Cmp:
				use(in.Left)
				use(in.Right)
			case Assign:
				if _, ok := in.RHS.(Call); ok {
					use(in.LHS)
					for _, a := range operandsOf(in.RHS) {
						use(a)
					}
				}
			}
		}
	}

	defInstr := make(map[string]Assign)
	defPhi := make(map[string]*Phi)
	for _, b := range f.Blocks {
		for _, phi := range b.Phis {
			defPhi[phi.LHS.Name] = phi
		}
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				defInstr[a.LHS.Name] = a
			}
		}
	}

	for len(worklist) > 0 {
		name := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if a, ok := defInstr[name]; ok {
			for _, operand := range operandsOf(a.RHS) {
				use(operand)
			}
		}
		if phi, ok := defPhi[name]; ok {
			for _, v := range phi.Incoming {
				use(v)
			}
		}
	}
	return essential
}

// sweep drops Assign instructions and phis whose result was never marked
// essential, then removes any block left with no predecessor besides the
// entry block, repairing successor phi maps as it goes. It never removes a
// terminator, even an unused-looking one, since every block must still end
// in a Jump or Return to satisfy the CFG invariant.
func sweep(f *Function, essential map[string]bool) {
	for _, b := range f.Blocks {
		var kept []Instruction
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok && !essential[a.LHS.Name] {
				continue
			}
			kept = append(kept, instr)
		}
		b.Instrs = kept

		for name, phi := range b.Phis {
			if !essential[phi.LHS.Name] {
				delete(b.Phis, name)
			}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range f.Blocks {
			if b == f.Entry || b == f.Exit {
				continue
			}
			if len(b.Preds) > 0 {
				continue
			}
			for _, succ := range append([]*BasicBlock(nil), b.Succs...) {
				b.RemoveEdge(succ)
				for _, phi := range succ.Phis {
					delete(phi.Incoming, b.Label)
				}
			}
			changed = true
		}
		kept := make([]*BasicBlock, 0, len(f.Blocks))
		for _, b := range f.Blocks {
			if b == f.Entry || b == f.Exit || len(b.Preds) > 0 {
				kept = append(kept, b)
			}
		}
		if len(kept) != len(f.Blocks) {
			f.Blocks = kept
			changed = true
		}
	}
}
