package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = buildParser()

func buildParser() *participle.Parser[Program] {
	p, err := participle.Build[Program](
		participle.Lexer(SourceLexer),
		participle.Elide("Whitespace", "Comment", "DocComment"),
		participle.UseLookahead(4),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build grammar parser: %w", err))
	}
	return p
}

// ParseFile reads and parses a source file into a participle parse tree.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSource(path, string(source))
}

// ParseSource parses in-memory source text into a participle parse tree.
// sourceName is used only for position reporting (file name, "<stdin>", ...).
func ParseSource(sourceName string, source string) (*Program, error) {
	return parser.ParseString(sourceName, source)
}
