package lsp

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssacl/internal/ast"
	"ssacl/internal/ir"
	"ssacl/internal/parser"
	"ssacl/internal/sema"
)

// SemanticTokenTypes is the set of semantic token kinds this server reports.
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"typeParameter",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
	"modifier",
}

// SemanticTokenModifiers is the set of semantic token modifiers this server reports.
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
	"static",
	"deprecated",
	"abstract",
}

// Handler implements the LSP server's text-document handlers over the
// CFG/SSA middle end: diagnostics come from parsing and semantic analysis,
// and hover shows a function's optimized IR.
type Handler struct {
	mu       sync.RWMutex
	content  map[string]string
	programs map[string]*ast.Program
}

// NewKansoHandler creates a handler with empty document state. The name is
// kept from the protocol this server was grounded on; glsp wires handlers by
// function value, not by type name.
func NewKansoHandler() *Handler {
	return &Handler{
		content:  make(map[string]string),
		programs: make(map[string]*ast.Program),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider: ptrBool(true),
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("LSP Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("LSP Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	diagnostics, err := h.updateAST(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.programs, path)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	diagnostics, err := h.updateAST(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	return &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}, nil
}

// TextDocumentHover reports the optimized IR of the function enclosing the
// cursor, so a reader can see exactly what the middle end made of their code
// without leaving the editor.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.RLock()
	program := h.programs[path]
	h.mu.RUnlock()
	if program == nil {
		return nil, nil
	}

	line := int(params.Position.Line) + 1
	fn := functionAtLine(program, line)
	if fn == nil {
		return nil, nil
	}

	compiled, err := ir.Compile(&ast.Program{Functions: []*ast.Function{fn}})
	if err != nil || len(compiled.Functions) == 0 {
		return nil, nil
	}

	text := fmt.Sprintf("```\n%s\n```", ir.Print(compiled.Functions[0]))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text},
	}, nil
}

func functionAtLine(program *ast.Program, line int) *ast.Function {
	for _, fn := range program.Functions {
		if line >= fn.Pos.Line && line <= fn.EndPos.Line {
			return fn
		}
	}
	return nil
}

func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	program, err := h.getOrUpdateAST(ctx, path, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return &protocol.SemanticTokens{}, nil
	}

	tokens := collectSemanticTokens(program)
	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine, prevStart = token.Line, token.StartChar
	}
	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *Handler) getOrUpdateAST(ctx *glsp.Context, path string, rawURI protocol.DocumentUri) (*ast.Program, error) {
	h.mu.RLock()
	program, ok := h.programs[path]
	h.mu.RUnlock()
	if ok {
		return program, nil
	}

	diagnostics, err := h.updateAST(rawURI)
	if err != nil {
		return nil, err
	}
	sendDiagnosticNotification(ctx, rawURI, diagnostics)

	h.mu.RLock()
	program = h.programs[path]
	h.mu.RUnlock()
	return program, nil
}

// updateAST reparses and re-analyzes the file at rawURI, caching the result,
// and returns every diagnostic a client should see (parse errors, or else
// the semantic analyzer's findings).
func (h *Handler) updateAST(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	program, err := parser.ParseSource(path, string(content))
	if err != nil {
		h.mu.Lock()
		delete(h.programs, path)
		h.mu.Unlock()
		return ConvertParseError(err), nil
	}

	h.mu.Lock()
	h.content[path] = string(content)
	h.programs[path] = program
	h.mu.Unlock()

	analyzer := sema.NewAnalyzer()
	diags := analyzer.Analyze(program)
	return ConvertSemanticErrors(diags), nil
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
