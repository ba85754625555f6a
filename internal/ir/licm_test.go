package ir

import (
	"testing"

	"ssacl/internal/ast"
)

func TestLICMHoistsInvariantComputation(t *testing.T) {
	// for (i int = 0; i < n; i = i + 1) {
	//   t int = a + b;     // loop-invariant: a, b never change in the body
	//   sum = sum + t;
	// }
	fn := &ast.Function{
		Name:       ident("sumConst"),
		ReturnType: intType(),
		Params: []*ast.Param{
			{Name: ident("n"), Type: intType()},
			{Name: ident("a"), Type: intType()},
			{Name: ident("b"), Type: intType()},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("sum"), Type: intType(), Value: lit(0)},
			&ast.ForStmt{
				Init:   &ast.LetStmt{Name: ident("i"), Type: intType(), Value: lit(0)},
				Cond:   bin("<", idExpr("i"), idExpr("n")),
				Update: &ast.AssignStmt{Name: ident("i"), Value: bin("+", idExpr("i"), lit(1))},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.LetStmt{Name: ident("t"), Type: intType(), Value: bin("+", idExpr("a"), idExpr("b"))},
					&ast.AssignStmt{Name: ident("sum"), Value: bin("+", idExpr("sum"), idExpr("t"))},
				}},
			},
			&ast.ReturnStmt{Value: idExpr("sum")},
		}},
	}

	out, err := Build(program(fn))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := out.Functions[0]
	dom := ComputeDominance(f)
	ConvertToSSA(f, dom)

	dom = ComputeDominance(f)
	LICM(f, dom)

	var preheader, body *BasicBlock
	for _, b := range f.Blocks {
		switch b.Tag {
		case "loop preheader":
			preheader = b
		case "loop body":
			body = b
		}
	}
	if preheader == nil {
		t.Fatal("LICM should have synthesized a preheader for the for-loop")
	}
	if body == nil {
		t.Fatal("no loop body block")
	}

	hoisted := false
	for _, instr := range preheader.Instrs {
		if a, ok := instr.(Assign); ok {
			if bop, ok := a.RHS.(Binary); ok && bop.Op == "+" {
				hoisted = true
			}
		}
	}
	if !hoisted {
		t.Fatal("a + b should have been hoisted into the preheader")
	}

	// LICM added a preheader block, so dominance must be recomputed.
	if err := Verify(f, ComputeDominance(f)); err != nil {
		t.Fatalf("Verify after LICM: %v", err)
	}
}

func TestLICMDoesNotHoistDivisionByUnknownDivisor(t *testing.T) {
	// for (i int = 0; i < n; i = i + 1) {
	//   t int = a / b;   // loop-invariant, but b is an ordinary parameter:
	//   sum = sum + t;   // nothing proves it's nonzero, so hoisting would
	// }                  // speculate a trap on a loop that might never run.
	fn := &ast.Function{
		Name:       ident("divConst"),
		ReturnType: intType(),
		Params: []*ast.Param{
			{Name: ident("n"), Type: intType()},
			{Name: ident("a"), Type: intType()},
			{Name: ident("b"), Type: intType()},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: ident("sum"), Type: intType(), Value: lit(0)},
			&ast.ForStmt{
				Init:   &ast.LetStmt{Name: ident("i"), Type: intType(), Value: lit(0)},
				Cond:   bin("<", idExpr("i"), idExpr("n")),
				Update: &ast.AssignStmt{Name: ident("i"), Value: bin("+", idExpr("i"), lit(1))},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.LetStmt{Name: ident("t"), Type: intType(), Value: bin("/", idExpr("a"), idExpr("b"))},
					&ast.AssignStmt{Name: ident("sum"), Value: bin("+", idExpr("sum"), idExpr("t"))},
				}},
			},
			&ast.ReturnStmt{Value: idExpr("sum")},
		}},
	}

	out, err := Build(program(fn))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := out.Functions[0]
	dom := ComputeDominance(f)
	ConvertToSSA(f, dom)
	dom = ComputeDominance(f)
	LICM(f, dom)

	var body *BasicBlock
	for _, b := range f.Blocks {
		if b.Tag == "loop body" {
			body = b
		}
	}
	if body == nil {
		t.Fatal("no loop body block")
	}

	foundInBody := false
	for _, instr := range body.Instrs {
		if a, ok := instr.(Assign); ok {
			if bop, ok := a.RHS.(Binary); ok && bop.Op == "/" {
				foundInBody = true
			}
		}
	}
	if !foundInBody {
		t.Fatal("a / b must remain in the loop body: the divisor isn't provably nonzero")
	}

	for _, b := range f.Blocks {
		if b.Tag != "loop preheader" {
			continue
		}
		for _, instr := range b.Instrs {
			if a, ok := instr.(Assign); ok {
				if bop, ok := a.RHS.(Binary); ok && bop.Op == "/" {
					t.Fatal("a / b must not be hoisted into the preheader")
				}
			}
		}
	}
}

func TestLICMDoesNotHoistLoopVariantComputation(t *testing.T) {
	// for (i int = 0; i < n; i = i + 1) { sum = sum + i; }
	// sum + i depends on i, which changes every iteration: must stay put.
	fn := &ast.Function{
		Name:       ident("sumLoop"),
		ReturnType: intType(),
		Params:     []*ast.Param{{Name: ident("n"), Type: intType()}},
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

	out, err := Build(program(fn))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := out.Functions[0]
	dom := ComputeDominance(f)
	ConvertToSSA(f, dom)
	dom = ComputeDominance(f)
	LICM(f, dom)

	var body *BasicBlock
	for _, b := range f.Blocks {
		if b.Tag == "loop body" {
			body = b
		}
	}
	if body == nil {
		t.Fatal("no loop body block")
	}
	found := false
	for _, instr := range body.Instrs {
		if a, ok := instr.(Assign); ok {
			if bop, ok := a.RHS.(Binary); ok && bop.Op == "+" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("sum + i must remain in the loop body: it is not loop-invariant")
	}
}
