package lsp

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssacl/internal/errors"
)

// ConvertParseError transforms a participle parse error into a single LSP
// diagnostic. Errors that aren't participle.Error (shouldn't happen, since
// parser.ParseSource only ever wraps participle) fall back to a
// whole-document diagnostic at the origin.
func ConvertParseError(err error) []protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("ssacl-parser"),
			Message:  err.Error(),
		}}
	}
	pos := pe.Position()
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(maxInt(pos.Line-1, 0)), Character: uint32(maxInt(pos.Column-1, 0))},
			End:   protocol.Position{Line: uint32(maxInt(pos.Line-1, 0)), Character: uint32(pos.Column + 5)},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("ssacl-parser"),
		Message:  pe.Message(),
	}}
}

// ConvertSemanticErrors transforms the analyzer's diagnostics into LSP
// diagnostics, one per compiler error or warning.
func ConvertSemanticErrors(diags []errors.CompilerError) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		length := d.Length
		if length <= 0 {
			length = 1
		}
		line := uint32(maxInt(d.Position.Line-1, 0))
		col := uint32(maxInt(d.Position.Column-1, 0))
		message := d.Message
		if d.HelpText != "" {
			message = message + " (" + d.HelpText + ")"
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + uint32(length)},
			},
			Severity: ptrSeverity(severityFor(d.Level)),
			Source:   ptrString("ssacl-sema"),
			Message:  strings.TrimSpace("[" + d.Code + "] " + message),
		})
	}
	return out
}

func severityFor(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note, errors.Help:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                           { return &s }
