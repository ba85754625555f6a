package ir

import "fmt"

// ConvertToSSA rewrites f in place into SSA form: it inserts phi nodes at
// the iterated dominance frontier of every assigned name's definition sites,
// then renames every definition and use by walking the dominator tree in
// preorder with one version stack per base name.
//
// dom must have been computed over f before any phi is inserted, since phi
// placement and the entry-block parameter bindings do not change f's CFG
// shape.
func ConvertToSSA(f *Function, dom *DomInfo) {
	defsites := collectDefsites(f)
	placePhis(dom, defsites)

	r := &renamer{
		fn:      f,
		dom:     dom,
		stacks:  make(map[string][]Value),
		version: make(map[string]int),
	}
	for _, p := range f.Params {
		r.push(p.Name, r.newVersion(p.Name))
	}
	r.rename(f.Entry)
}

// collectDefsites maps every base name assigned anywhere in f to the set of
// blocks that assign it at least once.
func collectDefsites(f *Function) map[string][]*BasicBlock {
	seen := make(map[string]map[*BasicBlock]bool)
	add := func(name string, b *BasicBlock) {
		set, ok := seen[name]
		if !ok {
			set = make(map[*BasicBlock]bool)
			seen[name] = set
		}
		set[b] = true
	}
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				add(a.LHS.Name, b)
			}
		}
	}
	out := make(map[string][]*BasicBlock, len(seen))
	for name, set := range seen {
		blocks := make([]*BasicBlock, 0, len(set))
		for b := range set {
			blocks = append(blocks, b)
		}
		out[name] = blocks
	}
	return out
}

// placePhis inserts an (initially empty) phi for name at every block in the
// iterated dominance frontier of name's definition sites.
func placePhis(dom *DomInfo, defsites map[string][]*BasicBlock) {
	for name, sites := range defsites {
		hasPhi := make(map[*BasicBlock]bool)
		worklist := append([]*BasicBlock(nil), sites...)
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, d := range dom.Frontier(b) {
				if hasPhi[d] {
					continue
				}
				d.InsertPhi(name)
				hasPhi[d] = true
				worklist = append(worklist, d)
			}
		}
	}
}

type renamer struct {
	fn      *Function
	dom     *DomInfo
	stacks  map[string][]Value
	version map[string]int
}

func (r *renamer) newVersion(base string) Value {
	r.version[base]++
	return Value{Name: fmt.Sprintf("%s_v%d", base, r.version[base])}
}

func (r *renamer) push(base string, v Value) { r.stacks[base] = append(r.stacks[base], v) }

func (r *renamer) top(base string) (Value, bool) {
	stack := r.stacks[base]
	if len(stack) == 0 {
		return Value{}, false
	}
	return stack[len(stack)-1], true
}

// resolve rewrites a use of a pre-SSA value to its current version. Names
// with no recorded definition (should not occur for code that passed
// semantic analysis) are left as-is rather than panicking.
func (r *renamer) resolve(v Value) Value {
	if top, ok := r.top(v.Name); ok {
		return top
	}
	return v
}

func (r *renamer) rename(b *BasicBlock) {
	depth := make(map[string]int, len(b.Phis)+len(b.Instrs))
	popTo := func(base string) { depth[base]++ }

	for base, phi := range b.Phis {
		v := r.newVersion(base)
		phi.LHS = v
		r.push(base, v)
		popTo(base)
	}

	for idx, instr := range b.Instrs {
		switch in := instr.(type) {
		case Assign:
			in.RHS = r.resolveOperation(in.RHS)
			base := in.LHS.Name
			v := r.newVersion(base)
			in.LHS = v
			b.Instrs[idx] = in
			r.push(base, v)
			popTo(base)
		case Cmp:
			in.Left = r.resolve(in.Left)
			in.Right = r.resolve(in.Right)
			b.Instrs[idx] = in
		case Jump:
			// no operand to resolve
		case Return:
			if in.Value != nil {
				v := r.resolve(*in.Value)
				in.Value = &v
				b.Instrs[idx] = in
			}
		}
	}

	for _, s := range b.Succs {
		for base, phi := range s.Phis {
			if v, ok := r.top(base); ok {
				phi.Incoming[b.Label] = v
			} else {
				// No definition reaches this edge: record the unversioned
				// "undef" sentinel so the phi still has one entry per pred.
				phi.Incoming[b.Label] = Value{Name: "undef"}
			}
		}
	}

	for _, child := range r.dom.Children(b) {
		r.rename(child)
	}

	for base := range depth {
		if n := depth[base]; n > 0 {
			stack := r.stacks[base]
			r.stacks[base] = stack[:len(stack)-n]
		}
	}
}

func (r *renamer) resolveOperation(op Operation) Operation {
	switch o := op.(type) {
	case Store:
		return o
	case Binary:
		o.X = r.resolve(o.X)
		o.Y = r.resolve(o.Y)
		return o
	case Unary:
		o.X = r.resolve(o.X)
		return o
	case Call:
		args := make([]Value, len(o.Args))
		for i, a := range o.Args {
			args[i] = r.resolve(a)
		}
		o.Args = args
		return o
	}
	return op
}
