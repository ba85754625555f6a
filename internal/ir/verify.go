package ir

// Verify checks the structural invariants a CFG/SSA function must hold after
// every pass: each SSA value has exactly one def, every use is dominated by
// its def, every phi has exactly one incoming entry per predecessor, and
// pred/succ edges are symmetric. It is meant for tests and optional
// debug-mode checks, not the hot compile path.
func Verify(f *Function, dom *DomInfo) error {
	defBlock, defInstrIdx, err := checkSingleDef(f)
	if err != nil {
		return err
	}
	if err := checkPhiArity(f); err != nil {
		return err
	}
	if err := checkSymmetricEdges(f); err != nil {
		return err
	}
	if err := checkDominatedUses(f, dom, defBlock, defInstrIdx); err != nil {
		return err
	}
	return nil
}

// checkSingleDef verifies every SSA name is defined exactly once and
// returns, for each name, the block and (for non-phi defs) instruction
// index that defines it.
func checkSingleDef(f *Function) (map[string]*BasicBlock, map[string]int, error) {
	defBlock := make(map[string]*BasicBlock)
	defIdx := make(map[string]int)
	seen := make(map[string]bool)

	note := func(name string, b *BasicBlock, idx int) error {
		if seen[name] {
			return newError(IRInvariantViolation, f.Name, "value %s is defined more than once", name)
		}
		seen[name] = true
		defBlock[name] = b
		defIdx[name] = idx
		return nil
	}

	for _, p := range f.Params {
		if err := note(p.Name+"_v1", f.Entry, -1); err != nil {
			return nil, nil, err
		}
	}
	for _, b := range f.Blocks {
		for _, phi := range b.Phis {
			if err := note(phi.LHS.Name, b, -1); err != nil {
				return nil, nil, err
			}
		}
		for idx, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				if err := note(a.LHS.Name, b, idx); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	return defBlock, defIdx, nil
}

// checkPhiArity verifies every phi has exactly one incoming entry per
// predecessor of its block.
func checkPhiArity(f *Function) error {
	for _, b := range f.Blocks {
		for name, phi := range b.Phis {
			if len(phi.Incoming) != len(b.Preds) {
				return newError(IRInvariantViolation, f.Name,
					"phi %s in block %s has %d incoming entries, block has %d preds",
					name, b.Label, len(phi.Incoming), len(b.Preds))
			}
			for _, p := range b.Preds {
				if _, ok := phi.Incoming[p.Label]; !ok {
					return newError(IRInvariantViolation, f.Name,
						"phi %s in block %s has no incoming entry for predecessor %s", name, b.Label, p.Label)
				}
			}
		}
	}
	return nil
}

// checkSymmetricEdges verifies u in v.preds iff v in u.succs.
func checkSymmetricEdges(f *Function) error {
	for _, b := range f.Blocks {
		for _, succ := range b.Succs {
			if !containsBlock(succ.Preds, b) {
				return newError(IRInvariantViolation, f.Name,
					"edge %s -> %s is not symmetric: %s missing from %s's preds", b.Label, succ.Label, b.Label, succ.Label)
			}
		}
		for _, pred := range b.Preds {
			if !containsBlock(pred.Succs, b) {
				return newError(IRInvariantViolation, f.Name,
					"edge %s -> %s is not symmetric: %s missing from %s's succs", pred.Label, b.Label, b.Label, pred.Label)
			}
		}
	}
	return nil
}

// checkDominatedUses verifies every use of a value occurs in a block
// dominated by the value's definition (and, within the defining block
// itself, strictly after it).
func checkDominatedUses(f *Function, dom *DomInfo, defBlock map[string]*BasicBlock, defIdx map[string]int) error {
	useIn := func(v Value, useBlock *BasicBlock, useIdx int) error {
		def, ok := defBlock[v.Name]
		if !ok {
			return nil // parameter or otherwise-external name, nothing to check
		}
		if !dom.Dominates(def, useBlock) {
			return newError(IRInvariantViolation, f.Name,
				"use of %s in block %s is not dominated by its definition in block %s", v.Name, useBlock.Label, def.Label)
		}
		if def == useBlock && defIdx[v.Name] >= 0 && defIdx[v.Name] >= useIdx {
			return newError(IRInvariantViolation, f.Name,
				"use of %s precedes its definition within block %s", v.Name, useBlock.Label)
		}
		return nil
	}

	for _, b := range f.Blocks {
		for _, phi := range b.Phis {
			for pred, v := range phi.Incoming {
				predBlock := f.GetBlock(pred)
				if predBlock == nil {
					continue
				}
				if err := useIn(v, predBlock, len(predBlock.Instrs)); err != nil {
					return err
				}
			}
		}
		for idx, instr := range b.Instrs {
			switch in := instr.(type) {
			case Cmp:
				if err := useIn(in.Left, b, idx); err != nil {
					return err
				}
				if err := useIn(in.Right, b, idx); err != nil {
					return err
				}
			case Return:
				if in.Value != nil {
					if err := useIn(*in.Value, b, idx); err != nil {
						return err
					}
				}
			case Assign:
				for _, operand := range operandsOf(in.RHS) {
					if err := useIn(operand, b, idx); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
