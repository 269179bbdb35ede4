package instr

import (
	"fmt"
	"math"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Branch is a conditional or unconditional jump with one relative offset.
// goto and jsr are promotable: when the offset outgrows 16 bits they are
// encoded as goto_w and jsr_w. Conditional branches have no wide form.
type Branch struct {
	base   Opcode // never goto_w or jsr_w
	wide   bool
	offset int32
}

// NewBranch returns a branch with a zero offset. Passing goto_w or jsr_w
// yields a branch that starts in the wide form.
func NewBranch(op Opcode) (*Branch, error) {
	switch op {
	case OpGotoW:
		return &Branch{base: OpGoto, wide: true}, nil
	case OpJsrW:
		return &Branch{base: OpJsr, wide: true}, nil
	}
	if op.Info().Format != FormatBranch {
		return nil, invalid(op, "not a branch instruction")
	}
	return &Branch{base: op}, nil
}

// MustBranch is NewBranch for opcodes known to be branches.
func MustBranch(op Opcode) *Branch {
	b, err := NewBranch(op)
	if err != nil {
		panic(err)
	}
	return b
}

// Promotable reports whether the branch has a wide form.
func (b *Branch) Promotable() bool {
	return b.base == OpGoto || b.base == OpJsr
}

// Wide reports whether the branch uses a 32-bit offset.
func (b *Branch) Wide() bool { return b.wide }

// Conditional reports whether control may fall through.
func (b *Branch) Conditional() bool { return !b.Promotable() }

func (b *Branch) Opcode() Opcode {
	if b.wide {
		if b.base == OpJsr {
			return OpJsrW
		}
		return OpGotoW
	}
	return b.base
}

func (b *Branch) Len() int {
	if b.wide {
		return 5
	}
	return 3
}

func (b *Branch) Clone() Instruction { c := *b; return &c }
func (b *Branch) String() string     { return fmt.Sprintf("%s %+d", b.Opcode(), b.offset) }
func (b *Branch) NumTargets() int    { return 1 }
func (b *Branch) Offset(int) int     { return int(b.offset) }

func (b *Branch) SetOffset(_ int, off int) { b.offset = int32(off) }

func (b *Branch) Fits() bool {
	return b.wide || (b.offset >= math.MinInt16 && b.offset <= math.MaxInt16)
}

func (b *Branch) Widen() bool {
	if b.wide || !b.Promotable() {
		return false
	}
	b.wide = true
	return true
}

func (b *Branch) Encode(w *classfile.Writer) error {
	if !b.Fits() {
		return overflow(b.base, "branch offset %d does not fit in 16 bits", b.offset)
	}
	w.WriteU1(uint8(b.Opcode()))
	if b.wide {
		w.WriteS4(b.offset)
	} else {
		w.WriteS2(int16(b.offset))
	}
	return nil
}
