// Package parser converts a participle parse tree (package grammar) into
// the internal AST (package ast) consumed by semantic analysis and the IR
// builder.
package parser

import (
	"ssacl/grammar"
	"ssacl/internal/ast"
)

// ParseFile reads and parses a source file into an ast.Program.
func ParseFile(path string) (*ast.Program, error) {
	tree, err := grammar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return convertProgram(tree), nil
}

// ParseSource parses in-memory source text into an ast.Program.
// sourceName is used only for position reporting.
func ParseSource(sourceName string, source string) (*ast.Program, error) {
	tree, err := grammar.ParseSource(sourceName, source)
	if err != nil {
		return nil, err
	}
	return convertProgram(tree), nil
}
