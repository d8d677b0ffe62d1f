package ir

import "strings"

// Print renders m in the textual form of spec.md §6.5:
//
//	fun <name>(l1:l2:...) =
//	  bK =
//	    %id = <op> <args...>
//
// <name> is either "$main" or a stable identifier derived from the function
// declaration; the lowerer is responsible for minting that identifier, Print
// only renders whatever name the Function already carries.
func Print(m *Module) string {
	var b strings.Builder
	for i, fn := range m.Functions() {
		if i > 0 {
			b.WriteByte('\n')
		}
		printFunction(&b, fn)
	}
	return b.String()
}

// PrintFunction renders a single function, for tests that want to snapshot
// one function's body without the rest of the module.
func PrintFunction(fn *Function) string {
	var b strings.Builder
	printFunction(&b, fn)
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function) {
	b.WriteString("fun ")
	b.WriteString(fn.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(fn.Labels, ":"))
	b.WriteString(") =\n")

	if !fn.HasBody {
		b.WriteString("  <no implementation>\n")
		return
	}

	for _, block := range fn.Blocks() {
		b.WriteString("  ")
		b.WriteString(block.ID.String())
		b.WriteString(" =\n")
		for _, instr := range instructionsOf(fn, block) {
			b.WriteString("    %")
			b.WriteString(instr.ID().String())
			b.WriteString(" = ")
			b.WriteString(instr.Text())
			b.WriteByte('\n')
		}
	}
}

func instructionsOf(fn *Function, block *Block) []Instruction {
	var out []Instruction
	for _, instr := range fn.Instructions() {
		if b, ok := fn.ContainerBlock(instr.ID()); ok && b == block.ID {
			out = append(out, instr)
		}
	}
	return out
}
