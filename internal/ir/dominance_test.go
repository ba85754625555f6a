package ir

import "testing"

// buildDiamond wires entry -> a -> {b, c} -> d -> exit, the textbook case
// that forces idom(d) to stop at a rather than picking either branch.
func buildDiamond() (*Function, *BasicBlock, *BasicBlock, *BasicBlock, *BasicBlock, *BasicBlock) {
	entry := newBasicBlock("entry")
	a := newBasicBlock("a")
	b := newBasicBlock("b")
	c := newBasicBlock("c")
	d := newBasicBlock("d")
	exit := newBasicBlock("exit")

	entry.AddEdge(a)
	a.AddEdge(b)
	a.AddEdge(c)
	b.AddEdge(d)
	c.AddEdge(d)
	d.AddEdge(exit)

	f := &Function{
		Name:   "diamond",
		Entry:  entry,
		Exit:   exit,
		Blocks: []*BasicBlock{entry, a, b, c, d, exit},
	}
	return f, entry, a, b, c, d
}

func TestDominanceDiamond(t *testing.T) {
	f, entry, a, b, c, d := buildDiamond()
	dom := ComputeDominance(f)

	if dom.IDom(a) != entry {
		t.Errorf("idom(a) = %v, want entry", dom.IDom(a))
	}
	if dom.IDom(d) != a {
		t.Errorf("idom(d) = %v, want a", dom.IDom(d))
	}
	if dom.IDom(b) != a || dom.IDom(c) != a {
		t.Errorf("idom(b)/idom(c) should be a")
	}
	if !dom.Dominates(entry, d) {
		t.Error("entry should dominate d")
	}
	if dom.Dominates(b, c) || dom.Dominates(c, b) {
		t.Error("b and c must not dominate each other")
	}

	// d is the join point of b and c, so it is exactly their dominance
	// frontier; a strictly dominates d, so d is not in a's frontier.
	frontierHas := func(b *BasicBlock, want *BasicBlock) bool {
		for _, x := range dom.Frontier(b) {
			if x == want {
				return true
			}
		}
		return false
	}
	if !frontierHas(b, d) {
		t.Error("d should be in b's dominance frontier")
	}
	if !frontierHas(c, d) {
		t.Error("d should be in c's dominance frontier")
	}
	if frontierHas(a, d) {
		t.Error("a should not have d in its frontier: a strictly dominates d")
	}
}

func TestDominanceUnreachableBlockExcluded(t *testing.T) {
	f, _, _, _, _, _ := buildDiamond()
	unreachable := newBasicBlock("orphan")
	f.Blocks = append(f.Blocks, unreachable)

	dom := ComputeDominance(f)
	if dom.IDom(unreachable) != nil {
		t.Error("a block with no path from entry should get no idom")
	}
}
