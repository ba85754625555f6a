package ir

import (
	"strings"
	"testing"

	"ssacl/internal/ast"
)

func TestDCERemovesDeadAssignment(t *testing.T) {
	// x int = 1 + 2; // never used
	// return 7;
	fn := &ast.Function{
		Name:       ident("deadValue"),
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("x"), Type: intType(), Value: bin("+", lit(1), lit(2))},
			&ast.ReturnStmt{Value: lit(7)},
		}},
	}
	f := buildAndSSA(t, fn)
	DCE(f)

	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok && strings.HasPrefix(a.LHS.Name, "x_v") {
				t.Fatalf("dead assignment to x should have been removed, found %v", a)
			}
		}
	}
}

func TestDCEKeepsValueUsedByReturn(t *testing.T) {
	fn := &ast.Function{
		Name:       ident("liveValue"),
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("x"), Type: intType(), Value: bin("+", lit(1), lit(2))},
			&ast.ReturnStmt{Value: idExpr("x")},
		}},
	}
	f := buildAndSSA(t, fn)
	DCE(f)

	found := false
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok && strings.HasPrefix(a.LHS.Name, "x_v") {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("assignment feeding the return value must survive DCE")
	}
}

func TestDCEKeepsLiveLoopHeaderPhi(t *testing.T) {
	// func sumLoop(n int) -> int {
	//     sum int = 0;
	//     for (i int = 0; i < n; i = i + 1) { sum = sum + i; }
	//     return sum;
	// }
	// Neither i's nor sum's header phi is dead code: the loop condition
	// reads i_vN every iteration and the return reads sum's final value, so
	// DCE must keep both phis and the instructions that still reference them.
	fn := &ast.Function{
		Name:       ident("sumLoop"),
		Params:     []*ast.Param{{Name: ident("n"), Type: intType()}},
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("sum"), Type: intType(), Value: lit(0)},
			&ast.ForStmt{
				Init:   &ast.LetStmt{Name: ident("i"), Type: intType(), Value: lit(0)},
				Cond:   bin("<", idExpr("i"), idExpr("n")),
				Update: &ast.AssignStmt{Name: ident("i"), Value: bin("+", idExpr("i"), lit(1))},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Name: ident("sum"), Value: bin("+", idExpr("sum"), idExpr("i"))},
				}},
			},
			&ast.ReturnStmt{Value: idExpr("sum")},
		}},
	}
	f := buildSSA(t, fn)

	phisBefore := 0
	for _, b := range f.Blocks {
		phisBefore += len(b.Phis)
	}
	if phisBefore == 0 {
		t.Fatal("test setup: loop header should have phis before DCE runs")
	}

	DCE(f)

	phisAfter := 0
	for _, b := range f.Blocks {
		phisAfter += len(b.Phis)
	}
	if phisAfter == 0 {
		t.Fatalf("DCE deleted every phi in a function with a live loop-carried value; blocks: %v", blockLabels(f))
	}

	dom := ComputeDominance(f)
	if err := Verify(f, dom); err != nil {
		t.Fatalf("Verify after DCE on a live loop: %v", err)
	}

	out := Print(f)
	if !strings.Contains(out, "ϕ(") {
		t.Fatalf("printed IR should still show a phi for the loop-carried values, got:\n%s", out)
	}
}

func TestDCEDropsUnreachableLoopWhenConditionIsFalseConstant(t *testing.T) {
	// for (i int = 0; i < 0; i = i + 1) { sum = sum + i; }
	// return sum;  -- the loop body is dead once SCCP proves the header
	// condition never holds, and SCCP's pruning of unexecutable edges drops it.
	fn := &ast.Function{
		Name:       ident("deadLoop"),
		ReturnType: intType(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("sum"), Type: intType(), Value: lit(0)},
			&ast.ForStmt{
				Init:   &ast.LetStmt{Name: ident("i"), Type: intType(), Value: lit(0)},
				Cond:   bin("<", idExpr("i"), lit(0)),
				Update: &ast.AssignStmt{Name: ident("i"), Value: bin("+", idExpr("i"), lit(1))},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Name: ident("sum"), Value: bin("+", idExpr("sum"), idExpr("i"))},
				}},
			},
			&ast.ReturnStmt{Value: idExpr("sum")},
		}},
	}
	f := buildAndSSA(t, fn)
	OptimizeFunction(f)

	for _, b := range f.Blocks {
		if b.Tag == "loop body" {
			t.Fatalf("loop body should be unreachable once i < 0 folds to false, blocks: %v", blockLabels(f))
		}
	}
	out := Print(f)
	if !strings.Contains(out, "return(0)") {
		t.Fatalf("sum should fold to the constant 0 once the loop never runs, got:\n%s", out)
	}
}
