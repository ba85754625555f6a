package parser

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"ssacl/grammar"
	"ssacl/internal/ast"
)

func pos(p lexer.Position) ast.Position {
	return ast.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func convertProgram(p *grammar.Program) *ast.Program {
	out := &ast.Program{Pos: pos(p.Pos), EndPos: pos(p.EndPos)}
	for _, f := range p.Functions {
		out.Functions = append(out.Functions, convertFunction(f))
	}
	return out
}

func convertFunction(f *grammar.Function) *ast.Function {
	fn := &ast.Function{
		Pos:    pos(f.Pos),
		EndPos: pos(f.EndPos),
		Name:   convertIdent(f.Name),
		Body:   convertBlock(f.Body),
	}
	for _, p := range f.Params {
		fn.Params = append(fn.Params, &ast.Param{
			Pos:    pos(p.Pos),
			EndPos: pos(p.EndPos),
			Name:   convertIdent(p.Name),
			Type:   convertType(p.Type),
		})
	}
	if f.Return != nil {
		fn.ReturnType = convertType(*f.Return)
	} else {
		fn.ReturnType = ast.Type{Name: "void"}
	}
	return fn
}

func convertIdent(p grammar.PosIdent) ast.Ident {
	return ast.Ident{Pos: pos(p.Pos), EndPos: pos(p.EndPos), Value: p.Value}
}

func convertType(p grammar.PosIdent) ast.Type {
	return ast.Type{Pos: pos(p.Pos), EndPos: pos(p.EndPos), Name: p.Value}
}

func convertBlock(b *grammar.Block) *ast.Block {
	out := &ast.Block{Pos: pos(b.Pos), EndPos: pos(b.EndPos)}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, convertStmt(s))
	}
	return out
}

func convertStmt(s *grammar.Stmt) ast.Stmt {
	switch {
	case s.If != nil:
		return convertIf(s.If)
	case s.For != nil:
		return convertFor(s.For)
	case s.Loop != nil:
		return &ast.LoopStmt{Pos: pos(s.Loop.Pos), EndPos: pos(s.Loop.EndPos), Body: convertBlock(s.Loop.Body)}
	case s.Break != nil:
		return &ast.BreakStmt{Pos: pos(s.Break.Pos), EndPos: pos(s.Break.EndPos)}
	case s.Continue != nil:
		return &ast.ContinueStmt{Pos: pos(s.Continue.Pos), EndPos: pos(s.Continue.EndPos)}
	case s.Return != nil:
		r := &ast.ReturnStmt{Pos: pos(s.Return.Pos), EndPos: pos(s.Return.EndPos)}
		if s.Return.Value != nil {
			r.Value = convertExpr(s.Return.Value)
		}
		return r
	case s.Let != nil:
		return &ast.LetStmt{
			Pos: pos(s.Let.Pos), EndPos: pos(s.Let.EndPos),
			Name: convertIdent(s.Let.Name), Type: convertType(s.Let.Type),
			Value: convertExpr(s.Let.Value),
		}
	case s.Assign != nil:
		return &ast.AssignStmt{
			Pos: pos(s.Assign.Pos), EndPos: pos(s.Assign.EndPos),
			Name: convertIdent(s.Assign.Name), Value: convertExpr(s.Assign.Value),
		}
	case s.Nested != nil:
		return &ast.BlockStmt{Pos: pos(s.Nested.Pos), EndPos: pos(s.Nested.EndPos), Block: convertBlock(s.Nested)}
	case s.ExprStmt != nil:
		return &ast.ExprStmt{Pos: pos(s.ExprStmt.Pos), EndPos: pos(s.ExprStmt.EndPos), Expr: convertExpr(s.ExprStmt.Expr)}
	}
	panic("parser: empty statement alternation")
}

func convertIf(s *grammar.IfStmt) *ast.IfStmt {
	out := &ast.IfStmt{
		Pos: pos(s.Pos), EndPos: pos(s.EndPos),
		Cond: convertExpr(s.Cond), Then: convertBlock(s.Then),
	}
	if s.Else != nil {
		out.Else = convertBlock(s.Else)
	}
	return out
}

func convertFor(s *grammar.ForStmt) *ast.ForStmt {
	return &ast.ForStmt{
		Pos: pos(s.Pos), EndPos: pos(s.EndPos),
		Init: &ast.LetStmt{
			Pos: pos(s.Init.Pos), EndPos: pos(s.Init.EndPos),
			Name: convertIdent(s.Init.Name), Type: convertType(s.Init.Type),
			Value: convertExpr(s.Init.Value),
		},
		Cond: convertExpr(s.Cond),
		Update: &ast.AssignStmt{
			Pos: pos(s.Update.Pos), EndPos: pos(s.Update.EndPos),
			Name: convertIdent(s.Update.Name), Value: convertExpr(s.Update.Value),
		},
		Body: convertBlock(s.Body),
	}
}

// binaryPrecedence mirrors the usual C-family precedence climb: || lowest,
// *//% highest. The grammar itself parses a flat left-operand +
// operator-chain (see grammar.Expr); this function reshapes that chain
// into a precedence-correct binary tree.
var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func convertExpr(e *grammar.Expr) ast.Expr {
	left := convertUnary(e.Left)
	terms := make([]ast.Expr, 0, len(e.Ops)+1)
	ops := make([]string, 0, len(e.Ops))
	terms = append(terms, left)
	for _, o := range e.Ops {
		ops = append(ops, o.Operator)
		terms = append(terms, convertUnary(o.Right))
	}
	return buildTree(terms, ops)
}

// buildTree runs a small shunting-yard reduction over the flat
// term/operator lists produced by convertExpr, so that e.g. `a + b * c`
// parses as `a + (b * c)` rather than left-to-right.
func buildTree(terms []ast.Expr, ops []string) ast.Expr {
	// Shunting-yard over two parallel slices: terms[0] op[0] terms[1] op[1] ...
	var outStack []ast.Expr
	var opStack []string

	popApply := func() {
		op := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		right := outStack[len(outStack)-1]
		left := outStack[len(outStack)-2]
		outStack = outStack[:len(outStack)-2]
		outStack = append(outStack, &ast.BinaryExpr{
			Pos: left.Position(), EndPos: right.Position(),
			Op: op, Left: left, Right: right,
		})
	}

	outStack = append(outStack, terms[0])
	for i, op := range ops {
		for len(opStack) > 0 && binaryPrecedence[opStack[len(opStack)-1]] >= binaryPrecedence[op] {
			popApply()
		}
		opStack = append(opStack, op)
		outStack = append(outStack, terms[i+1])
	}
	for len(opStack) > 0 {
		popApply()
	}
	return outStack[0]
}

func convertUnary(u *grammar.UnaryExpr) ast.Expr {
	prim := convertPrimary(u.Value)
	if u.Operator != nil {
		return &ast.UnaryExpr{Pos: pos(u.Pos), EndPos: pos(u.EndPos), Op: *u.Operator, Value: prim}
	}
	return prim
}

func convertPrimary(p *grammar.PrimaryExpr) ast.Expr {
	switch {
	case p.Call != nil:
		call := &ast.CallExpr{Pos: pos(p.Call.Pos), EndPos: pos(p.Call.EndPos), Func: p.Call.Name}
		for _, a := range p.Call.Args {
			call.Args = append(call.Args, convertExpr(a))
		}
		return call
	case p.Number != nil:
		v, _ := strconv.ParseInt(*p.Number, 0, 64)
		return &ast.IntLiteral{Pos: pos(p.Pos), EndPos: pos(p.EndPos), Value: v}
	case p.Ident != nil:
		return &ast.IdentExpr{Pos: pos(p.Pos), EndPos: pos(p.EndPos), Name: *p.Ident}
	case p.Parens != nil:
		return convertExpr(p.Parens)
	}
	panic("parser: empty primary expression alternation")
}
