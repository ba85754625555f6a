package ir

// DomInfo holds a function's dominator tree and dominance frontiers, computed
// once and consumed by SSA construction and by LICM's natural-loop detection.
type DomInfo struct {
	idom      map[*BasicBlock]*BasicBlock
	children  map[*BasicBlock][]*BasicBlock
	frontier  map[*BasicBlock]map[*BasicBlock]bool
	postorder []*BasicBlock
	order     map[*BasicBlock]int // postorder index, used for the intersect walk
}

// IDom returns b's immediate dominator, or nil for the entry block.
func (d *DomInfo) IDom(b *BasicBlock) *BasicBlock { return d.idom[b] }

// Dominates reports whether a dominates b (reflexively: a dominates itself).
func (d *DomInfo) Dominates(a, b *BasicBlock) bool {
	for n := b; n != nil; n = d.idom[n] {
		if n == a {
			return true
		}
	}
	return false
}

// Frontier returns b's dominance frontier.
func (d *DomInfo) Frontier(b *BasicBlock) []*BasicBlock {
	set := d.frontier[b]
	out := make([]*BasicBlock, 0, len(set))
	for bb := range set {
		out = append(out, bb)
	}
	return out
}

// Children returns the blocks b immediately dominates.
func (d *DomInfo) Children(b *BasicBlock) []*BasicBlock { return d.children[b] }

// ComputeDominance runs the Cooper-Harvey-Kennedy engineered iterative
// algorithm over f's reachable blocks, then derives dominance frontiers with
// the standard Cytron et al. join-point walk.
func ComputeDominance(f *Function) *DomInfo {
	postorder := postorderFrom(f.Entry)
	order := make(map[*BasicBlock]int, len(postorder))
	for i, b := range postorder {
		order[b] = i
	}

	idom := map[*BasicBlock]*BasicBlock{f.Entry: f.Entry}
	changed := true
	for changed {
		changed = false
		// Process in reverse postorder, skipping the entry block.
		for i := len(postorder) - 2; i >= 0; i-- {
			b := postorder[i]
			var newIdom *BasicBlock
			for _, p := range b.Preds {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, order)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	idom[f.Entry] = nil

	children := make(map[*BasicBlock][]*BasicBlock)
	for _, b := range f.Blocks {
		if p := idom[b]; p != nil {
			children[p] = append(children[p], b)
		}
	}

	frontier := make(map[*BasicBlock]map[*BasicBlock]bool)
	for _, b := range f.Blocks {
		frontier[b] = make(map[*BasicBlock]bool)
	}
	for _, b := range f.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			if idom[p] == nil && p != f.Entry {
				continue // unreachable predecessor, no dominance info
			}
			runner := p
			for runner != idom[b] {
				frontier[runner][b] = true
				next := idom[runner]
				if next == nil {
					break
				}
				runner = next
			}
		}
	}

	return &DomInfo{idom: idom, children: children, frontier: frontier, postorder: postorder, order: order}
}

func intersect(a, b *BasicBlock, idom map[*BasicBlock]*BasicBlock, order map[*BasicBlock]int) *BasicBlock {
	for a != b {
		for order[a] < order[b] {
			a = idom[a]
		}
		for order[b] < order[a] {
			b = idom[b]
		}
	}
	return a
}

// postorderFrom returns a postorder traversal of blocks reachable from
// entry. Unreachable blocks never enter the dominator computation.
func postorderFrom(entry *BasicBlock) []*BasicBlock {
	visited := make(map[*BasicBlock]bool)
	var order []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	visit(entry)
	return order
}
