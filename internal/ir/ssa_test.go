package ir

import (
	"strings"
	"testing"

	"ssacl/internal/ast"
)

func buildSSA(t *testing.T, fn *ast.Function) *Function {
	t.Helper()
	out, err := Build(program(fn))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := out.Functions[0]
	dom := ComputeDominance(f)
	ConvertToSSA(f, dom)
	if err := Verify(f, dom); err != nil {
		t.Fatalf("Verify after SSA conversion: %v", err)
	}
	return f
}

func TestSSAInsertsPhiAtIfMerge(t *testing.T) {
	// y int = 0;
	// if (c) { y = 1; } else { y = 2; }
	// return y;
	fn := &ast.Function{
		Name:       ident("pick"),
		ReturnType: intType(),
		Params:     []*ast.Param{{Name: ident("c"), Type: intType()}},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("y"), Type: intType(), Value: lit(0)},
			&ast.IfStmt{
				Cond: idExpr("c"),
				Then: &ast.Block{Stmts: []ast.Stmt{&ast.AssignStmt{Name: ident("y"), Value: lit(1)}}},
				Else: &ast.Block{Stmts: []ast.Stmt{&ast.AssignStmt{Name: ident("y"), Value: lit(2)}}},
			},
			&ast.ReturnStmt{Value: idExpr("y")},
		}},
	}
	f := buildSSA(t, fn)

	var merge *BasicBlock
	for _, b := range f.Blocks {
		if b.Tag == "merge" {
			merge = b
		}
	}
	if merge == nil {
		t.Fatal("no merge block")
	}
	if _, ok := merge.Phis["y"]; !ok {
		t.Fatalf("merge block should have a phi for y, has: %v", merge.Phis)
	}
	if len(merge.Phis["y"].Incoming) != 2 {
		t.Fatalf("phi for y should have 2 incoming entries, got %d", len(merge.Phis["y"].Incoming))
	}
}

func TestSSAEveryAssignGetsFreshVersion(t *testing.T) {
	// x int = 1; x = x + 1; x = x + 1; return x;
	fn := &ast.Function{
		Name:       ident("triple"),
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("x"), Type: intType(), Value: lit(1)},
			&ast.AssignStmt{Name: ident("x"), Value: bin("+", idExpr("x"), lit(1))},
			&ast.AssignStmt{Name: ident("x"), Value: bin("+", idExpr("x"), lit(1))},
			&ast.ReturnStmt{Value: idExpr("x")},
		}},
	}
	f := buildSSA(t, fn)

	names := map[string]bool{}
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok && strings.HasPrefix(a.LHS.Name, "x_v") {
				names[a.LHS.Name] = true
			}
		}
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 distinct versions of x, got %v", names)
	}
}

func TestSSALoopHeaderPhiCarriesBackEdge(t *testing.T) {
	fn := &ast.Function{
		Name:       ident("count"),
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("sum"), Type: intType(), Value: lit(0)},
			&ast.ForStmt{
				Init:   &ast.LetStmt{Name: ident("i"), Type: intType(), Value: lit(0)},
				Cond:   bin("<", idExpr("i"), lit(10)),
				Update: &ast.AssignStmt{Name: ident("i"), Value: bin("+", idExpr("i"), lit(1))},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Name: ident("sum"), Value: bin("+", idExpr("sum"), idExpr("i"))},
				}},
			},
			&ast.ReturnStmt{Value: idExpr("sum")},
		}},
	}
	f := buildSSA(t, fn)

	var header *BasicBlock
	for _, b := range f.Blocks {
		if b.Tag == "loop header" {
			header = b
		}
	}
	if header == nil {
		t.Fatal("no loop header block")
	}
	if len(header.Phis) == 0 {
		t.Fatal("loop header should carry phis for variables mutated in the loop body")
	}
	for name, phi := range header.Phis {
		if len(phi.Incoming) != len(header.Preds) {
			t.Errorf("phi %s has %d incoming, header has %d preds", name, len(phi.Incoming), len(header.Preds))
		}
	}
}
