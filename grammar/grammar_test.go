package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMinimalFunction(t *testing.T) {
	source := `func main() -> void {
    return;
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	assert.Len(t, program.Functions, 1)
	assert.Equal(t, "main", program.Functions[0].Name.Value)
	assert.Equal(t, "void", program.Functions[0].Return.Value)
}

func TestParseParamsAndReturnType(t *testing.T) {
	source := `func add(x int, y int) -> int {
    return x + y;
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	fn := program.Functions[0]
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, "x", fn.Params[0].Name.Value)
	assert.Equal(t, "int", fn.Params[0].Type.Value)
	assert.NotNil(t, fn.Return)
	assert.Equal(t, "int", fn.Return.Value)
}

func TestParseDeclarationHasNoLetKeyword(t *testing.T) {
	source := `func main() -> void {
    i int = 0;
    return;
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	stmt := program.Functions[0].Body.Stmts[0]
	assert.NotNil(t, stmt.Let)
	assert.Equal(t, "i", stmt.Let.Name.Value)
	assert.Equal(t, "int", stmt.Let.Type.Value)
}

func TestParseIfElse(t *testing.T) {
	source := `func main() -> void {
    if (1 < 2) {
        return;
    } else {
        return;
    }
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	stmt := program.Functions[0].Body.Stmts[0]
	assert.NotNil(t, stmt.If)
	assert.NotNil(t, stmt.If.Else)
}

func TestParseCountedForLoop(t *testing.T) {
	source := `func main() -> void {
    for (i int = 0; i < 10; i = i + 1) {
        continue;
    }
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	stmt := program.Functions[0].Body.Stmts[0]
	assert.NotNil(t, stmt.For)
	assert.Equal(t, "i", stmt.For.Init.Name.Value)
}

func TestParseUnconditionalForLoop(t *testing.T) {
	source := `func main() -> void {
    for {
        break;
    }
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	stmt := program.Functions[0].Body.Stmts[0]
	assert.NotNil(t, stmt.Loop)
}

func TestParseExpressionPrecedenceIsFlatAtGrammarLevel(t *testing.T) {
	// The grammar itself keeps the operator chain flat; precedence is
	// resolved later during AST conversion.
	source := `func main() -> int {
    return 1 + 2 * 3;
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	ret := program.Functions[0].Body.Stmts[0].Return
	assert.Len(t, ret.Value.Ops, 2)
	assert.Equal(t, "+", ret.Value.Ops[0].Operator)
	assert.Equal(t, "*", ret.Value.Ops[1].Operator)
}

func TestParseCallExpression(t *testing.T) {
	source := `func main() -> int {
    return add(1, 2 + 3);
}`
	program, err := ParseSource("test.ssa", source)
	assert.NoError(t, err)
	call := program.Functions[0].Body.Stmts[0].Return.Value.Left.Value.Call
	assert.NotNil(t, call)
	assert.Equal(t, "add", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseSource("test.ssa", `func ( { garbage`)
	assert.Error(t, err)
}
