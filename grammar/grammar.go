package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// PosIdent is a bare identifier with position info, for names and type names.
type PosIdent struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  string `@Ident`
}

// Program is the parse-tree root: an ordered list of functions.
type Program struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Functions []*Function `@@*`
}

type Function struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent   `"func" @@ "("`
	Params []*Param   `[ @@ { "," @@ } ] ")"`
	Return *PosIdent  `[ "->" @@ ]`
	Body   *Block     `@@`
}

type Param struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent `@@`
	Type   PosIdent `@@`
}

type Block struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Stmts  []*Stmt `"{" @@* "}"`
}

// Stmt is the union of statement forms. Order matters: ForStmt is tried
// before LoopStmt (both start with "for"), and LetStmt before AssignStmt
// before ExprStmt (all three can start with an identifier).
type Stmt struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	If       *IfStmt       `  @@`
	For      *ForStmt      `| @@`
	Loop     *LoopStmt     `| @@`
	Break    *BreakStmt    `| @@`
	Continue *ContinueStmt `| @@`
	Return   *ReturnStmt   `| @@`
	Let      *LetStmt      `| @@`
	Assign   *AssignStmt   `| @@`
	Nested   *Block        `| @@`
	ExprStmt *ExprStmt     `| @@`
}

type IfStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Cond   *Expr  `"if" "(" @@ ")"`
	Then   *Block `@@`
	Else   *Block `[ "else" @@ ]`
}

type ForStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Init   *ForInit   `"for" "(" @@`
	Cond   *Expr      `@@ ";"`
	Update *ForUpdate `@@ ")"`
	Body   *Block     `@@`
}

type ForInit struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent `@@`
	Type   PosIdent `@@`
	Value  *Expr    `"=" @@ ";"`
}

type ForUpdate struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent `@@`
	Value  *Expr    `"=" @@`
}

// LoopStmt is the unconditional `for { ... }` loop.
type LoopStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Body   *Block `"for" @@`
}

type BreakStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tok    string `@"break" ";"`
}

type ContinueStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tok    string `@"continue" ";"`
}

type ReturnStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  *Expr `"return" [ @@ ] ";"`
}

type LetStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent `@@`
	Type   PosIdent `@@`
	Value  *Expr    `"=" @@ ";"`
}

type AssignStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   PosIdent `@@`
	Value  *Expr    `"=" @@ ";"`
}

type ExprStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Expr   *Expr `@@ ";"`
}

// Expr is a flat left-operand + operator-chain; precedence climbing
// happens during AST conversion (see internal/parser), not in the grammar.
type Expr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *UnaryExpr `@@`
	Ops    []*BinOp   `{ @@ }`
}

type BinOp struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Operator string     `@("||" | "&&" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "+" | "-" | "*" | "/" | "%")`
	Right    *UnaryExpr `@@`
}

type UnaryExpr struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Operator *string      `[ @("-" | "!") ]`
	Value    *PrimaryExpr `@@`
}

type PrimaryExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Call   *CallExpr `  @@`
	Number *string   `| @Integer`
	Ident  *string   `| @Ident`
	Parens *Expr     `| "(" @@ ")"`
}

type CallExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string  `@Ident "("`
	Args   []*Expr `[ @@ { "," @@ } ] ")"`
}
