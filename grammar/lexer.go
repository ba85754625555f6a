package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SourceLexer tokenizes the source language: functions, typed declarations,
// conditionals, counted/unconditional loops, break/continue, calls, and
// the usual arithmetic/logical/comparison operators.
var SourceLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"DocComment", `///[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},

		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},

		// Multi-character operators must precede their single-character prefixes.
		{"Operator", `(\|\||&&|==|!=|<=|>=|->|[-+*/%<>=!])`, nil},

		{"Punctuation", `[(){};,]`, nil},

		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
