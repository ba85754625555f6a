package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders f's CFG in the textual form used throughout this package's
// tests and by the CLI's --print-ir flag: one paragraph per block, a label
// line tagged with the block's role, its phis (sorted by name for
// determinism), a blank line if there were any, then its instructions.
func Print(f *Function) string {
	var sb strings.Builder
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		printBlock(&sb, b)
	}
	return sb.String()
}

func printBlock(sb *strings.Builder, b *BasicBlock) {
	if b.Tag != "" {
		fmt.Fprintf(sb, "%s: ; [%s]\n", b.Label, b.Tag)
	} else {
		fmt.Fprintf(sb, "%s:\n", b.Label)
	}

	names := make([]string, 0, len(b.Phis))
	for name := range b.Phis {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, "  %s\n", printPhi(b.Phis[name]))
	}
	if len(names) > 0 {
		sb.WriteString("\n")
	}

	instrs := renderInstrs(b.Instrs)
	for _, line := range instrs {
		fmt.Fprintf(sb, "  %s\n", line)
	}
}

func printPhi(p *Phi) string {
	preds := make([]string, 0, len(p.Incoming))
	for pred := range p.Incoming {
		preds = append(preds, pred)
	}
	sort.Strings(preds)
	parts := make([]string, len(preds))
	for i, pred := range preds {
		parts[i] = fmt.Sprintf("%s: %s", pred, p.Incoming[pred])
	}
	return fmt.Sprintf("%s = \u03d5(%s)", p.LHS, strings.Join(parts, ", "))
}

// renderInstrs renders a block's instructions, combining a trailing
// JumpIfNonZero/JumpIfZero pair (the shape an if-statement's branch ends
// with) into a single `if CF == 1 then jmp A else jmp B` line. A loop
// header's JumpIfNonZero followed by an unconditional jmp prints as two lines.
func renderInstrs(instrs []Instruction) []string {
	var lines []string
	for i := 0; i < len(instrs); i++ {
		if j1, ok := instrs[i].(Jump); ok && j1.Kind == JumpIfNonZero && i+1 < len(instrs) {
			if j2, ok := instrs[i+1].(Jump); ok && j2.Kind == JumpIfZero {
				lines = append(lines, fmt.Sprintf("if CF == 1 then jmp %s else jmp %s", j1.Label, j2.Label))
				i++
				continue
			}
		}
		lines = append(lines, instrs[i].String())
	}
	return lines
}
