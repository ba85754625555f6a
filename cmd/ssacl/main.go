// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	cerrors "ssacl/internal/errors"
	"ssacl/internal/ir"
	"ssacl/internal/parser"
	"ssacl/internal/sema"
)

func main() {
	printIR := flag.Bool("print-ir", true, "print the optimized IR to stdout")
	flag.Parse()
	args := flag.Args()

	// With no file argument the source is read from standard input.
	path := "<stdin>"
	var source []byte
	var err error
	if len(args) > 0 {
		path = args[0]
		source, err = os.ReadFile(path)
	} else {
		source, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	program, err := parser.ParseSource(path, string(source))
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	analyzer := sema.NewAnalyzer()
	if diags := analyzer.Analyze(program); len(diags) > 0 {
		reportSemanticErrors(path, string(source), diags)
		os.Exit(1)
	}

	compiled, err := ir.Compile(program)
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	if *printIR {
		for i, f := range compiled.Functions {
			if i > 0 {
				fmt.Println()
			}
			fmt.Print(ir.Print(f))
		}
	}
	color.Green("✅ %s compiled cleanly", path)
}

// reportSemanticErrors renders every diagnostic the analyzer collected with
// caret-annotated source context. It does not exit; main exits nonzero once
// all of them have been printed.
func reportSemanticErrors(path, source string, diags []cerrors.CompilerError) {
	reporter := cerrors.NewErrorReporter(path, source)
	for _, d := range diags {
		fmt.Println(reporter.FormatError(d))
	}
}
