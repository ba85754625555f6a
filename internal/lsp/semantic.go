package lsp

import "ssacl/internal/ast"

// SemanticToken is a single LSP semantic token entry. Line and StartChar are
// 0-based positions; TokenType indexes SemanticTokenTypes and TokenModifiers
// is a bitmask over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

// collectSemanticTokens walks a parsed program and emits one token per
// function, parameter, return type, and variable reference.
func collectSemanticTokens(program *ast.Program) []SemanticToken {
	var tokens []SemanticToken
	if program == nil {
		return tokens
	}
	for _, fn := range program.Functions {
		tokens = append(tokens, walkFunction(fn)...)
	}
	return tokens
}

func walkFunction(fn *ast.Function) []SemanticToken {
	var tokens []SemanticToken
	tokens = append(tokens, makeToken(fn.Name.Pos, fn.Name.Value, "function", 1))
	for _, p := range fn.Params {
		tokens = append(tokens, makeToken(p.Name.Pos, p.Name.Value, "parameter", 1))
		tokens = append(tokens, makeToken(p.Type.Pos, p.Type.Name, "type", 0))
	}
	if fn.ReturnType.Name != "" {
		tokens = append(tokens, makeToken(fn.ReturnType.Pos, fn.ReturnType.Name, "type", 0))
	}
	if fn.Body != nil {
		tokens = append(tokens, walkBlock(fn.Body)...)
	}
	return tokens
}

func walkBlock(b *ast.Block) []SemanticToken {
	var tokens []SemanticToken
	for _, stmt := range b.Stmts {
		tokens = append(tokens, walkStmt(stmt)...)
	}
	return tokens
}

func walkStmt(stmt ast.Stmt) []SemanticToken {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		var tokens []SemanticToken
		tokens = append(tokens, makeToken(s.Name.Pos, s.Name.Value, "variable", 1))
		tokens = append(tokens, makeToken(s.Type.Pos, s.Type.Name, "type", 0))
		return append(tokens, walkExpr(s.Value)...)
	case *ast.AssignStmt:
		tokens := []SemanticToken{makeToken(s.Name.Pos, s.Name.Value, "variable", 0)}
		return append(tokens, walkExpr(s.Value)...)
	case *ast.IfStmt:
		var tokens []SemanticToken
		tokens = append(tokens, walkExpr(s.Cond)...)
		tokens = append(tokens, walkBlock(s.Then)...)
		if s.Else != nil {
			tokens = append(tokens, walkBlock(s.Else)...)
		}
		return tokens
	case *ast.ForStmt:
		var tokens []SemanticToken
		if s.Init != nil {
			tokens = append(tokens, walkStmt(s.Init)...)
		}
		tokens = append(tokens, walkExpr(s.Cond)...)
		if s.Update != nil {
			tokens = append(tokens, walkStmt(s.Update)...)
		}
		return append(tokens, walkBlock(s.Body)...)
	case *ast.LoopStmt:
		return walkBlock(s.Body)
	case *ast.ReturnStmt:
		if s.Value != nil {
			return walkExpr(s.Value)
		}
	case *ast.ExprStmt:
		return walkExpr(s.Expr)
	case *ast.BlockStmt:
		return walkBlock(s.Block)
	}
	return nil
}

func walkExpr(expr ast.Expr) []SemanticToken {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		return append(walkExpr(e.Left), walkExpr(e.Right)...)
	case *ast.UnaryExpr:
		return walkExpr(e.Value)
	case *ast.IdentExpr:
		return []SemanticToken{makeToken(e.Pos, e.Name, "variable", 0)}
	case *ast.CallExpr:
		tokens := []SemanticToken{makeToken(e.Pos, e.Func, "function", 0)}
		for _, a := range e.Args {
			tokens = append(tokens, walkExpr(a)...)
		}
		return tokens
	}
	return nil
}

func makeToken(pos ast.Position, value, tokenType string, decl int) SemanticToken {
	return SemanticToken{
		Line:           uint32(maxInt(pos.Line-1, 0)),
		StartChar:      uint32(maxInt(pos.Column-1, 0)),
		Length:         uint32(len(value)),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: decl << indexOf("declaration", SemanticTokenModifiers),
	}
}

func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
