package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/mohanaraosv/commons-bcel-sub001/constpool"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/sequence"
)

var (
	branchColor = color.New(color.FgCyan)
	exitColor   = color.New(color.FgRed)
	opColor     = color.New(color.FgGreen)
	noteColor   = color.New(color.FgHiBlack)
)

func mnemonicColor(op instr.Opcode) *color.Color {
	switch {
	case op.IsBranch(), op.IsSwitch():
		return branchColor
	case op.IsReturn(), op == instr.OpAthrow:
		return exitColor
	}
	return opColor
}

// printListing writes one line per instruction: position, mnemonic and
// operands, with branch targets as absolute positions. Pool operands are
// annotated when pool is set.
func printListing(w io.Writer, seq *sequence.Sequence, pool *constpool.Pool) error {
	if err := seq.Resolve(); err != nil {
		return err
	}
	for _, h := range seq.Handles() {
		pos, err := seq.Position(h)
		if err != nil {
			return err
		}
		in := seq.Instruction(h)
		text := sequence.Format(in, func(i int) string {
			p, err := seq.Position(seq.Target(h, i))
			if err != nil {
				return "?"
			}
			return strconv.Itoa(p)
		})

		mnemonic, operands, _ := strings.Cut(text, " ")
		line := fmt.Sprintf("%5d: %s", pos, mnemonicColor(in.Opcode()).Sprint(mnemonic))
		if operands != "" {
			line += " " + operands
		}
		if pi, ok := in.(instr.PoolIndexed); ok && pool != nil {
			line += noteColor.Sprintf("  // %s", pool.Describe(pi.PoolIndex()))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
