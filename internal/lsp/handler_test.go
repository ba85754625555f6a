package lsp_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssacl/internal/lsp"
)

const fixtureSource = `func add(x int, y int) -> int {
    sum int = x + y;
    return sum;
}
`

func writeFixture(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.ssa")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	handler := lsp.NewKansoHandler()

	path := writeFixture(t, fixtureSource)
	uri := "file://" + filepath.ToSlash(path)

	ctx := &glsp.Context{}
	params := &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}

	tokens, err := handler.TextDocumentSemanticTokensFull(ctx, params)
	require.NoError(t, err, "TextDocumentSemanticTokensFull returned error")
	require.NotNil(t, tokens, "returned tokens should not be nil")
	require.NotEmpty(t, tokens.Data, "returned token data should not be empty")

	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err, "failed to decode semantic tokens")
	require.NotEmpty(t, decoded, "no semantic tokens decoded")

	tokenTypes := make(map[string]int)
	for _, token := range decoded {
		tokenTypes[token.Type]++
	}

	require.Greater(t, tokenTypes["function"], 0, "should have a function token for add")
	require.Greater(t, tokenTypes["parameter"], 0, "should have parameter tokens for x and y")
	require.Greater(t, tokenTypes["type"], 0, "should have type tokens for int")
	require.Greater(t, tokenTypes["variable"], 0, "should have variable tokens for sum")

	t.Logf("generated %d semantic tokens with types: %v", len(decoded), tokenTypes)
}

func TestTextDocumentHoverShowsOptimizedIR(t *testing.T) {
	handler := lsp.NewKansoHandler()

	path := writeFixture(t, fixtureSource)
	uri := "file://" + filepath.ToSlash(path)

	ctx := &glsp.Context{}
	err := handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: fixtureSource},
	})
	require.NoError(t, err)

	hover, err := handler.TextDocumentHover(ctx, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 1, Character: 4},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover, "hover should report the enclosing function's IR")

	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok, "hover contents should be markup")
	require.Contains(t, content.Value, "bb0")
}

type DecodedToken struct {
	Index     int
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		deltaLine := raw[i]
		deltaStart := raw[i+1]
		length := raw[i+2]
		tokenTypeIdx := raw[i+3]
		tokenModMask := raw[i+4]

		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if tokenModMask&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Index:     i / 5,
			Line:      line,
			Char:      char,
			Length:    length,
			Type:      lsp.SemanticTokenTypes[tokenTypeIdx],
			Modifiers: modifiers,
		})
	}

	return decoded, nil
}
