package grammar

import (
	"fmt"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (p *Program) String() string {
	var b strings.Builder
	for _, f := range p.Functions {
		b.WriteString(f.StringWithIndent(0))
	}
	return b.String()
}

func (f *Function) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%sfunc %s(", indent(level), f.Name.Value))
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(")")
	if f.Return != nil {
		b.WriteString(" -> " + f.Return.Value)
	}
	b.WriteString(" " + f.Body.StringWithIndent(level))
	return b.String()
}

func (p *Param) String() string {
	return fmt.Sprintf("%s %s", p.Name.Value, p.Type.Value)
}

func (b *Block) StringWithIndent(level int) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Stmts {
		sb.WriteString(s.StringWithIndent(level + 1))
	}
	sb.WriteString(indent(level) + "}\n")
	return sb.String()
}

func (s *Stmt) StringWithIndent(level int) string {
	switch {
	case s.If != nil:
		return indent(level) + s.If.StringWithIndent(level)
	case s.For != nil:
		return indent(level) + s.For.StringWithIndent(level)
	case s.Loop != nil:
		return indent(level) + s.Loop.StringWithIndent(level)
	case s.Break != nil:
		return indent(level) + "break;\n"
	case s.Continue != nil:
		return indent(level) + "continue;\n"
	case s.Return != nil:
		return indent(level) + s.Return.String() + "\n"
	case s.Let != nil:
		return indent(level) + s.Let.String() + "\n"
	case s.Assign != nil:
		return indent(level) + s.Assign.String() + "\n"
	case s.Nested != nil:
		return indent(level) + s.Nested.StringWithIndent(level)
	case s.ExprStmt != nil:
		return indent(level) + s.ExprStmt.String() + "\n"
	}
	return ""
}

func (i *IfStmt) StringWithIndent(level int) string {
	s := fmt.Sprintf("if (%s) %s", i.Cond.String(), i.Then.StringWithIndent(level))
	if i.Else != nil {
		s = strings.TrimRight(s, "\n") + " else " + i.Else.StringWithIndent(level) + "\n"
	}
	return s
}

func (f *ForStmt) StringWithIndent(level int) string {
	return fmt.Sprintf("for (%s %s = %s; %s; %s = %s) %s",
		f.Init.Name.Value, f.Init.Type.Value, f.Init.Value.String(),
		f.Cond.String(),
		f.Update.Name.Value, f.Update.Value.String(),
		f.Body.StringWithIndent(level))
}

func (l *LoopStmt) StringWithIndent(level int) string {
	return "for " + l.Body.StringWithIndent(level)
}

func (r *ReturnStmt) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s;", r.Value.String())
	}
	return "return;"
}

func (l *LetStmt) String() string {
	return fmt.Sprintf("%s %s = %s;", l.Name.Value, l.Type.Value, l.Value.String())
}

func (a *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s;", a.Name.Value, a.Value.String())
}

func (e *ExprStmt) String() string {
	return e.Expr.String() + ";"
}

func (e *Expr) String() string {
	s := e.Left.String()
	for _, op := range e.Ops {
		s += " " + op.Operator + " " + op.Right.String()
	}
	return s
}

func (u *UnaryExpr) String() string {
	if u.Operator != nil {
		return *u.Operator + u.Value.String()
	}
	return u.Value.String()
}

func (p *PrimaryExpr) String() string {
	switch {
	case p.Call != nil:
		return p.Call.String()
	case p.Number != nil:
		return *p.Number
	case p.Ident != nil:
		return *p.Ident
	case p.Parens != nil:
		return "(" + p.Parens.String() + ")"
	}
	return ""
}

func (c *CallExpr) String() string {
	var args []string
	for _, a := range c.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}
