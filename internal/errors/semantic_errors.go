package errors

import (
	"fmt"
	"strings"

	"ssacl/internal/ast"
)

// SemanticErrorBuilder provides a fluent interface for creating semantic errors with suggestions.
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError creates a new semantic error builder.
func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewSemanticWarning creates a new semantic warning builder.
func NewSemanticWarning(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span.
func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error.
func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error.
func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error.
func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error.
func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// UndefinedVariable creates an error for a use of an undeclared variable.
func UndefinedVariable(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		builder = builder.WithSuggestion(didYouMean(similarNames))
	} else {
		builder = builder.WithSuggestion("make sure the variable is declared before use").
			WithNote("variables must be declared with a typed declaration (name int = value;) before they are read or assigned")
	}

	return builder.Build()
}

// UndefinedFunction creates an error for a call to an undeclared function.
func UndefinedFunction(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedFunction, fmt.Sprintf("function '%s' is not defined", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		builder = builder.WithSuggestion(didYouMean(similarNames))
	}

	return builder.WithHelp("functions must be declared before they are called").Build()
}

// TypeMismatch creates an error for a value of the wrong type used where a different type is required.
func TypeMismatch(expected, actual string, pos ast.Position) CompilerError {
	builder := NewSemanticError(ErrorTypeMismatch, fmt.Sprintf("type mismatch: expected %s, found %s", expected, actual), pos)

	if expected == "void" && actual != "void" {
		builder = builder.WithSuggestion("drop the returned value, this function returns void").
			WithNote("a void function must end with a bare 'return;' or fall off the end of its body")
	} else if expected != "void" && actual == "void" {
		builder = builder.WithSuggestion(fmt.Sprintf("return a value of type %s", expected)).
			WithNote("void expressions cannot be used where a value is required")
	}

	return builder.Build()
}

// UnreachableCode creates a warning for statements after a return in the same block.
func UnreachableCode(pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnreachableCode, "unreachable code", pos).
		WithSuggestion("remove the unreachable code").
		WithNote("code after a return statement never executes").
		Build()
}

// MissingReturn creates an error for a function that declares a non-void
// return type but has a control-flow path falling off the end of its body.
func MissingReturn(functionName, returnType string, pos ast.Position) CompilerError {
	message := fmt.Sprintf("function '%s' declares return type '%s' but does not return on all paths", functionName, returnType)
	return NewSemanticError(ErrorMissingReturn, message, pos).
		WithSuggestion(fmt.Sprintf("add a return statement that returns a value of type '%s'", returnType)).
		WithHelp("every control-flow path through a non-void function must end in a return statement").
		Build()
}

// DuplicateDeclaration creates an error for a name declared twice in the same scope.
func DuplicateDeclaration(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDeclaration, fmt.Sprintf("duplicate declaration: %s", name), pos).
		WithSuggestion(fmt.Sprintf("rename the duplicate '%s' to a unique name", name)).
		WithNote("identifiers must be unique within their scope").
		Build()
}

// InvalidArguments creates an error for a call with the wrong number of arguments.
func InvalidArguments(functionName string, expected, actual int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidArguments,
		fmt.Sprintf("function '%s' expects %d argument(s), got %d", functionName, expected, actual), pos).
		WithSuggestion(fmt.Sprintf("provide exactly %d argument(s)", expected)).
		WithHelp("check the function signature for the correct number of parameters").
		Build()
}

// InvalidAssignment creates an error for an assignment to an undeclared name.
func InvalidAssignment(message string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidAssignment, message, pos).
		WithHelp("assignments must target a variable that already has a typed declaration").
		Build()
}

// BreakOutsideLoop creates an error for a break statement outside any loop.
func BreakOutsideLoop(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorBreakOutsideLoop, "break used outside of a loop", pos).
		WithSuggestion("remove the break statement or move it inside a for/loop body").
		Build()
}

// ContinueOutsideLoop creates an error for a continue statement outside any loop.
func ContinueOutsideLoop(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorContinueOutsideLoop, "continue used outside of a loop", pos).
		WithSuggestion("remove the continue statement or move it inside a for/loop body").
		Build()
}

// InvalidOperation creates an error for an operator applied to incompatible operand types.
func InvalidOperation(op, leftType, rightType string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidBinaryOperation, fmt.Sprintf("invalid operation: %s %s %s", leftType, op, rightType), pos).
		WithNote("arithmetic, comparison and logical operators all require int operands").
		Build()
}

func didYouMean(similarNames []string) string {
	if len(similarNames) == 1 {
		return fmt.Sprintf("did you mean '%s'?", similarNames[0])
	}
	return fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similarNames, "', '"))
}

// FindSimilarNames returns candidates within edit distance 2 of target, used
// by callers to build the similarNames argument to UndefinedVariable and
// UndefinedFunction.
func FindSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// levenshteinDistance is a plain O(len(a)*len(b)) edit-distance implementation.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
