// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"ssacl/internal/lsp"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "ssacl"

var version = "0.0.1"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewKansoHandler()

	handler := protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting ssacl language server, version", version)

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting ssacl language server:", err)
		os.Exit(1)
	}
}
