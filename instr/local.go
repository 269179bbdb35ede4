package instr

import (
	"fmt"
	"math"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// LocalVariable is a load, store or ret addressing a local variable slot.
// The encoded form follows the index: a dedicated one-byte opcode for slots
// 0-3, a byte operand up to 255 and a wide prefix beyond that.
type LocalVariable struct {
	base  Opcode // iload..aload, istore..astore or ret
	index uint16
}

// NewLocal returns a local variable instruction. op may be the general
// opcode or any of its compact forms; the form actually encoded is chosen
// from index.
func NewLocal(op Opcode, index int) (*LocalVariable, error) {
	base, ok := localBase(op)
	if !ok {
		return nil, invalid(op, "not a local variable instruction")
	}
	l := &LocalVariable{base: base}
	if err := l.SetLocalIndex(index); err != nil {
		return nil, err
	}
	return l, nil
}

// localBase maps a compact or general opcode to its general form.
func localBase(op Opcode) (Opcode, bool) {
	switch {
	case op >= OpIload && op <= OpAload, op >= OpIstore && op <= OpAstore, op == OpRet:
		return op, true
	case op >= OpIload0 && op <= OpAload3:
		return OpIload + (op-OpIload0)/4, true
	case op >= OpIstore0 && op <= OpAstore3:
		return OpIstore + (op-OpIstore0)/4, true
	}
	return 0, false
}

// compactSlot returns the slot encoded by a compact opcode.
func compactSlot(op Opcode) int {
	if op >= OpIstore0 {
		return int(op-OpIstore0) % 4
	}
	return int(op-OpIload0) % 4
}

// Base returns the general opcode of the family, e.g. iload for iload_2.
func (l *LocalVariable) Base() Opcode { return l.base }

// LocalIndex returns the slot addressed.
func (l *LocalVariable) LocalIndex() int { return int(l.index) }

// SetLocalIndex changes the slot and with it the encoded form.
func (l *LocalVariable) SetLocalIndex(index int) error {
	if index < 0 {
		return invalid(l.base, "negative local variable index %d", index)
	}
	if index > math.MaxUint16 {
		return overflow(l.base, "local variable index %d exceeds %d", index, math.MaxUint16)
	}
	l.index = uint16(index)
	return nil
}

func (l *LocalVariable) compact() bool {
	return l.index <= 3 && l.base != OpRet
}

// Wide reports whether the instruction needs the wide prefix.
func (l *LocalVariable) Wide() bool { return l.index > math.MaxUint8 }

func (l *LocalVariable) Opcode() Opcode {
	if !l.compact() {
		return l.base
	}
	if l.base >= OpIstore {
		return OpIstore0 + (l.base-OpIstore)*4 + Opcode(l.index)
	}
	return OpIload0 + (l.base-OpIload)*4 + Opcode(l.index)
}

func (l *LocalVariable) Len() int {
	switch {
	case l.compact():
		return 1
	case l.Wide():
		return 4
	default:
		return 2
	}
}

func (l *LocalVariable) Clone() Instruction { c := *l; return &c }

func (l *LocalVariable) String() string {
	switch {
	case l.compact():
		return l.Opcode().String()
	case l.Wide():
		return fmt.Sprintf("wide %s %d", l.base, l.index)
	default:
		return fmt.Sprintf("%s %d", l.base, l.index)
	}
}

func (l *LocalVariable) Encode(w *classfile.Writer) error {
	switch {
	case l.compact():
		w.WriteU1(uint8(l.Opcode()))
	case l.Wide():
		w.WriteU1(uint8(OpWide))
		w.WriteU1(uint8(l.base))
		w.WriteU2(l.index)
	default:
		w.WriteU1(uint8(l.base))
		w.WriteU1(uint8(l.index))
	}
	return nil
}

// Iinc increments a local int variable by a constant. It is widened when
// either the slot or the increment outgrows a byte.
type Iinc struct {
	index uint16
	inc   int16
}

// NewIinc returns iinc for the given slot and increment.
func NewIinc(index, inc int) (*Iinc, error) {
	if inc < math.MinInt16 || inc > math.MaxInt16 {
		return nil, invalid(OpIinc, "increment %d out of short range", inc)
	}
	i := &Iinc{inc: int16(inc)}
	if err := i.SetLocalIndex(index); err != nil {
		return nil, err
	}
	return i, nil
}

// Increment returns the constant added.
func (i *Iinc) Increment() int { return int(i.inc) }

// SetIncrement changes the constant added.
func (i *Iinc) SetIncrement(inc int) error {
	if inc < math.MinInt16 || inc > math.MaxInt16 {
		return invalid(OpIinc, "increment %d out of short range", inc)
	}
	i.inc = int16(inc)
	return nil
}

func (i *Iinc) LocalIndex() int { return int(i.index) }

func (i *Iinc) SetLocalIndex(index int) error {
	if index < 0 {
		return invalid(OpIinc, "negative local variable index %d", index)
	}
	if index > math.MaxUint16 {
		return overflow(OpIinc, "local variable index %d exceeds %d", index, math.MaxUint16)
	}
	i.index = uint16(index)
	return nil
}

// Wide reports whether the instruction needs the wide prefix.
func (i *Iinc) Wide() bool {
	return i.index > math.MaxUint8 || i.inc < math.MinInt8 || i.inc > math.MaxInt8
}

func (i *Iinc) Opcode() Opcode     { return OpIinc }
func (i *Iinc) Clone() Instruction { c := *i; return &c }

func (i *Iinc) Len() int {
	if i.Wide() {
		return 6
	}
	return 3
}

func (i *Iinc) String() string {
	if i.Wide() {
		return fmt.Sprintf("wide iinc %d %d", i.index, i.inc)
	}
	return fmt.Sprintf("iinc %d %d", i.index, i.inc)
}

func (i *Iinc) Encode(w *classfile.Writer) error {
	if i.Wide() {
		w.WriteU1(uint8(OpWide))
		w.WriteU1(uint8(OpIinc))
		w.WriteU2(i.index)
		w.WriteS2(i.inc)
		return nil
	}
	w.WriteU1(uint8(OpIinc))
	w.WriteU1(uint8(i.index))
	w.WriteS1(int8(i.inc))
	return nil
}
