package ir

import (
	"fmt"

	"ssacl/internal/ast"
)

// Build lowers a checked program into one CFG per function. program must
// already have passed semantic analysis: Build does not re-check names,
// arities, or return coverage, it assumes they hold.
func Build(program *ast.Program) (*Program, error) {
	out := &Program{}
	for _, fn := range program.Functions {
		f, err := buildFunction(fn)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, f)
	}
	return out, nil
}

// builder holds the mutable state threaded through one function's lowering:
// the function being built, the block currently being appended to, and the
// break/continue target stacks for loop bodies.
type builder struct {
	fn               *Function
	current          *BasicBlock
	breakTargets     []*BasicBlock
	continueTargets  []*BasicBlock
}

func buildFunction(fn *ast.Function) (*Function, error) {
	f := &Function{
		Name:       fn.Name.Value,
		ReturnType: fn.ReturnType.Name,
	}
	for _, p := range fn.Params {
		f.Params = append(f.Params, Param{Name: p.Name.Value, Type: p.Type.Name})
	}

	b := &builder{fn: f}
	entry := b.newBlock("entry")
	exit := b.newBlock("exit")
	f.Entry = entry
	f.Exit = exit
	b.current = entry

	if err := b.buildBlock(fn.Body); err != nil {
		return nil, err
	}

	// A void function whose body falls off the end without an explicit
	// return still needs a terminator to satisfy the block invariant.
	if len(b.current.Succs) == 0 {
		b.current.addInstr(Return{})
		b.current.AddEdge(exit)
	}

	return f, nil
}

// newBlock creates a basic block labeled sequentially within the function
// and appends it to the function's block list. The original source this
// builder is grounded on only ever appended entry and exit to that list,
// leaving every later block unreachable from it; that omission would break
// dominance computation and SSA renaming here, so every block created is
// tracked. tag records the block's role for the printer's comment.
func (b *builder) newBlock(tag string) *BasicBlock {
	label := fmt.Sprintf("bb%d", b.fn.blockCounter)
	b.fn.blockCounter++
	bb := newBasicBlock(label)
	bb.Tag = tag
	b.fn.Blocks = append(b.fn.Blocks, bb)
	return bb
}

func (b *builder) tmp() Value {
	v := Value{Name: fmt.Sprintf("%%%d", b.fn.tmpCounter)}
	b.fn.tmpCounter++
	return v
}

func (b *builder) switchTo(bb *BasicBlock) { b.current = bb }

func (b *builder) buildBlock(block *ast.Block) error {
	for _, stmt := range block.Stmts {
		if err := b.buildStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) buildStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		b.buildExpr(s.Value, Value{Name: s.Name.Value})
		return nil

	case *ast.AssignStmt:
		b.buildExpr(s.Value, Value{Name: s.Name.Value})
		return nil

	case *ast.ExprStmt:
		b.buildExpr(s.Expr, b.tmp())
		return nil

	case *ast.IfStmt:
		return b.buildIf(s)

	case *ast.ForStmt:
		return b.buildFor(s)

	case *ast.LoopStmt:
		return b.buildLoop(s)

	case *ast.BreakStmt:
		if len(b.breakTargets) == 0 {
			return newError(InputContractViolation, b.fn.Name, "break outside loop reached the IR builder")
		}
		target := b.breakTargets[len(b.breakTargets)-1]
		b.current.AddEdge(target)
		b.current.addInstr(Jump{Kind: JumpUnconditional, Label: target.Label})
		b.switchTo(b.newBlock("unreachable"))
		return nil

	case *ast.ContinueStmt:
		if len(b.continueTargets) == 0 {
			return newError(InputContractViolation, b.fn.Name, "continue outside loop reached the IR builder")
		}
		target := b.continueTargets[len(b.continueTargets)-1]
		b.current.AddEdge(target)
		b.current.addInstr(Jump{Kind: JumpUnconditional, Label: target.Label})
		b.switchTo(b.newBlock("unreachable"))
		return nil

	case *ast.ReturnStmt:
		if s.Value != nil {
			v := b.buildExpr(s.Value, b.tmp())
			b.current.addInstr(Return{Value: &v})
		} else {
			b.current.addInstr(Return{})
		}
		b.current.AddEdge(b.fn.Exit)
		b.switchTo(b.newBlock("unreachable"))
		return nil

	case *ast.BlockStmt:
		return b.buildBlock(s.Block)

	default:
		return newError(InputContractViolation, b.fn.Name, "unrecognized statement reached the IR builder")
	}
}

// buildExpr lowers expr, writing its result into target (except for a bare
// identifier, which has no instruction of its own and is returned as-is).
func (b *builder) buildExpr(expr ast.Expr, target Value) Value {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		b.current.addInstr(Assign{LHS: target, RHS: Store{Value: e.Value}})
		return target

	case *ast.IdentExpr:
		return Value{Name: e.Name}

	case *ast.UnaryExpr:
		operand := b.buildExpr(e.Value, b.tmp())
		b.current.addInstr(Assign{LHS: target, RHS: Unary{Op: e.Op, X: operand}})
		return target

	case *ast.BinaryExpr:
		left := b.buildExpr(e.Left, b.tmp())
		right := b.buildExpr(e.Right, b.tmp())
		b.current.addInstr(Assign{LHS: target, RHS: Binary{Op: e.Op, X: left, Y: right}})
		return target

	case *ast.CallExpr:
		args := make([]Value, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.buildExpr(a, b.tmp())
		}
		b.current.addInstr(Assign{LHS: target, RHS: Call{Name: e.Func, Args: args}})
		return target

	default:
		return target
	}
}

// buildIf lowers `if (c) then [else]` to: cmp(c, 0); jnz then; jz
// merge-or-else. Each branch gets its own block, ending with jmp merge.
func (b *builder) buildIf(s *ast.IfStmt) error {
	thenBlock := b.newBlock("then")
	mergeBlock := b.newBlock("merge")

	zero := b.tmp()
	b.current.addInstr(Assign{LHS: zero, RHS: Store{Value: 0}})
	cond := b.buildExpr(s.Cond, b.tmp())
	b.current.addInstr(Cmp{Left: cond, Right: zero})
	b.current.addInstr(Jump{Kind: JumpIfNonZero, Label: thenBlock.Label})

	if s.Else == nil {
		b.current.addInstr(Jump{Kind: JumpIfZero, Label: mergeBlock.Label})
	} else {
		elseBlock := b.newBlock("else")
		b.current.addInstr(Jump{Kind: JumpIfZero, Label: elseBlock.Label})
		b.current.AddEdge(elseBlock)

		old := b.current
		b.switchTo(elseBlock)
		if err := b.buildBlock(s.Else); err != nil {
			return err
		}
		b.current.AddEdge(mergeBlock)
		b.current.addInstr(Jump{Kind: JumpUnconditional, Label: mergeBlock.Label})
		b.switchTo(old)
	}

	b.current.AddEdge(thenBlock)
	b.switchTo(thenBlock)
	if err := b.buildBlock(s.Then); err != nil {
		return err
	}
	b.current.AddEdge(mergeBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: mergeBlock.Label})
	b.switchTo(mergeBlock)
	return nil
}

// buildFor lowers a counted `for (init; cond; upd) body` into five blocks:
// init (runs the declaration once), header (evaluates cond), body, update
// (runs upd then loops back to header), exit.
func (b *builder) buildFor(s *ast.ForStmt) error {
	initBlock := b.newBlock("loop init")
	headerBlock := b.newBlock("loop header")
	bodyBlock := b.newBlock("loop body")
	updateBlock := b.newBlock("loop update")
	exitBlock := b.newBlock("loop exit")

	b.breakTargets = append(b.breakTargets, exitBlock)
	b.continueTargets = append(b.continueTargets, updateBlock)

	b.current.AddEdge(initBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: initBlock.Label})

	b.switchTo(initBlock)
	b.current.AddEdge(headerBlock)
	b.buildExpr(s.Init.Value, Value{Name: s.Init.Name.Value})
	one := b.tmp()
	b.current.addInstr(Assign{LHS: one, RHS: Store{Value: 1}})
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: headerBlock.Label})

	b.switchTo(headerBlock)
	b.current.AddEdge(bodyBlock)
	b.current.AddEdge(exitBlock)
	cond := b.buildExpr(s.Cond, b.tmp())
	b.current.addInstr(Cmp{Left: cond, Right: one})
	b.current.addInstr(Jump{Kind: JumpIfNonZero, Label: bodyBlock.Label})
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: exitBlock.Label})

	b.switchTo(bodyBlock)
	if err := b.buildBlock(s.Body); err != nil {
		return err
	}
	b.current.AddEdge(updateBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: updateBlock.Label})

	b.switchTo(updateBlock)
	b.current.AddEdge(headerBlock)
	b.buildExpr(s.Update.Value, Value{Name: s.Update.Name.Value})
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: headerBlock.Label})

	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]
	b.switchTo(exitBlock)
	return nil
}

// buildLoop lowers an unconditional `for { body }` into init -> body, with the
// body's back edge jumping to init (which only jumps on to body). Break
// targets exit; continue targets init.
func (b *builder) buildLoop(s *ast.LoopStmt) error {
	initBlock := b.newBlock("loop init")
	bodyBlock := b.newBlock("loop body")
	exitBlock := b.newBlock("loop exit")

	b.breakTargets = append(b.breakTargets, exitBlock)
	b.continueTargets = append(b.continueTargets, initBlock)

	b.current.AddEdge(initBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: initBlock.Label})

	b.switchTo(initBlock)
	b.current.AddEdge(bodyBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: bodyBlock.Label})

	b.switchTo(bodyBlock)
	if err := b.buildBlock(s.Body); err != nil {
		return err
	}
	b.current.AddEdge(initBlock)
	b.current.addInstr(Jump{Kind: JumpUnconditional, Label: initBlock.Label})

	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]
	b.switchTo(exitBlock)
	return nil
}
