package instr

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// maxSwitchCases bounds the case count so that a switch fits in a method
// body of at most 65535 bytes.
const maxSwitchCases = 16383

// Switch is tableswitch or lookupswitch. Target 0 is the default; target
// i+1 belongs to the i-th key in ascending order. Between the opcode and
// the operands sit 0-3 padding bytes that align them to a multiple of four
// from the start of the code array, so the length depends on the position.
type Switch struct {
	op      Opcode
	keys    []int32
	offsets []int32 // default first
	pad     int
}

// NewTableSwitch returns a tableswitch over the contiguous keys low..high.
func NewTableSwitch(low, high int32) (*Switch, error) {
	if low > high {
		return nil, invalid(OpTableswitch, "low %d greater than high %d", low, high)
	}
	n := int64(high) - int64(low) + 1
	if n > maxSwitchCases {
		return nil, invalid(OpTableswitch, "%d cases exceed %d", n, maxSwitchCases)
	}
	keys := make([]int32, n)
	for i := range keys {
		keys[i] = low + int32(i)
	}
	return newSwitch(OpTableswitch, keys), nil
}

// NewLookupSwitch returns a lookupswitch over keys, which are sorted.
// Duplicate keys are rejected.
func NewLookupSwitch(keys []int32) (*Switch, error) {
	if len(keys) > maxSwitchCases {
		return nil, invalid(OpLookupswitch, "%d cases exceed %d", len(keys), maxSwitchCases)
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, invalid(OpLookupswitch, "duplicate key %d", sorted[i])
		}
	}
	return newSwitch(OpLookupswitch, sorted), nil
}

func newSwitch(op Opcode, keys []int32) *Switch {
	s := &Switch{op: op, keys: keys, offsets: make([]int32, len(keys)+1)}
	s.Align(0)
	return s
}

// Keys returns the match values in ascending order.
func (s *Switch) Keys() []int32 { return slices.Clone(s.keys) }

// Padding returns the number of alignment bytes for the current position.
func (s *Switch) Padding() int { return s.pad }

// Align computes the padding for an opcode placed at pos.
func (s *Switch) Align(pos int) {
	s.pad = (4 - (pos+1)%4) % 4
}

// MaxLen returns the length with the largest possible padding.
func (s *Switch) MaxLen() int {
	return s.lenWithPad(3)
}

func (s *Switch) lenWithPad(pad int) int {
	n := len(s.keys)
	if s.op == OpTableswitch {
		return 1 + pad + 12 + 4*n
	}
	return 1 + pad + 8 + 8*n
}

func (s *Switch) Opcode() Opcode   { return s.op }
func (s *Switch) Len() int         { return s.lenWithPad(s.pad) }
func (s *Switch) NumTargets() int  { return len(s.offsets) }
func (s *Switch) Offset(i int) int { return int(s.offsets[i]) }
func (s *Switch) Fits() bool       { return true }
func (s *Switch) Widen() bool      { return false }

func (s *Switch) SetOffset(i int, off int) { s.offsets[i] = int32(off) }

func (s *Switch) Clone() Instruction {
	c := *s
	c.keys = slices.Clone(s.keys)
	c.offsets = slices.Clone(s.offsets)
	return &c
}

func (s *Switch) String() string {
	var sb strings.Builder
	sb.WriteString(s.op.String())
	for i, k := range s.keys {
		fmt.Fprintf(&sb, " %d:%+d", k, s.offsets[i+1])
	}
	fmt.Fprintf(&sb, " default:%+d", s.offsets[0])
	return sb.String()
}

func (s *Switch) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(s.op))
	for i := 0; i < s.pad; i++ {
		w.WriteU1(0)
	}
	w.WriteS4(s.offsets[0])
	if s.op == OpTableswitch {
		w.WriteS4(s.keys[0])
		w.WriteS4(s.keys[len(s.keys)-1])
		for _, off := range s.offsets[1:] {
			w.WriteS4(off)
		}
		return nil
	}
	w.WriteS4(int32(len(s.keys)))
	for i, k := range s.keys {
		w.WriteS4(k)
		w.WriteS4(s.offsets[i+1])
	}
	return nil
}
