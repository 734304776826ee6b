package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of fn followed by the
// listings of the functions nested in it
func Disassemble(fn *CompiledFunction) string {
	var sb strings.Builder
	disassembleFunction(&sb, fn, fn.Name)
	return sb.String()
}

func disassembleFunction(sb *strings.Builder, fn *CompiledFunction, name string) {
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	var nested []*CompiledFunction
	for offset, ins := range fn.Chunk.Code {
		disassembleInstruction(sb, fn.Chunk, offset)
		if ins.Op == OP_CLOSURE && ins.Fn != nil {
			nested = append(nested, ins.Fn)
		}
	}

	for _, inner := range nested {
		sb.WriteString("\n")
		disassembleFunction(sb, inner, name+"/"+inner.Signature())
	}
}

// disassembleInstruction writes one instruction line
func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	// Repeated lines print as a bar
	line := chunk.Code[offset].Line
	if offset > 0 && line == chunk.Code[offset-1].Line {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", line))
	}

	sb.WriteString(chunk.Code[offset].String())
	sb.WriteString("\n")
}
