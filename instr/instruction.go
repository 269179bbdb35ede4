package instr

import (
	"fmt"
	"math"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Instruction is one encoded JVM instruction. Implementations know their
// opcode, their current encoded length and how to write themselves.
// Instructions are values: branch targets are tracked by the sequence that
// holds them, not by the instruction.
type Instruction interface {
	Opcode() Opcode
	Len() int
	Encode(w *classfile.Writer) error
	String() string
	Clone() Instruction
}

// PoolIndexed is implemented by instructions carrying a constant pool index.
type PoolIndexed interface {
	Instruction
	PoolIndex() int
	SetPoolIndex(index int) error
}

// LocalIndexed is implemented by instructions addressing a local variable.
type LocalIndexed interface {
	Instruction
	LocalIndex() int
	SetLocalIndex(index int) error
}

// Jumper is implemented by instructions with relative branch offsets.
// Target 0 is the sole target of a branch and the default of a switch.
type Jumper interface {
	Instruction
	NumTargets() int
	Offset(i int) int
	SetOffset(i int, off int)
	// Fits reports whether every offset is encodable in the current form.
	Fits() bool
	// Widen switches to the wider form. It reports false when none exists.
	Widen() bool
}

// Aligned is implemented by instructions whose length depends on their
// byte position.
type Aligned interface {
	Instruction
	Align(pos int)
	MaxLen() int
}

func invalid(op Opcode, format string, args ...any) error {
	return classfile.Errorf(classfile.KindConstruction, op.String(), format, args...)
}

func overflow(op Opcode, format string, args ...any) error {
	return classfile.Errorf(classfile.KindEncodingOverflow, op.String(), format, args...)
}

// ---------------------------------------------------------------------------
// Simple
// ---------------------------------------------------------------------------

// Simple is an instruction with no operands.
type Simple struct {
	op Opcode
}

// NewSimple returns the operand-free instruction for op.
func NewSimple(op Opcode) (*Simple, error) {
	if !op.Valid() || op.Info().Format != FormatNone {
		return nil, invalid(op, "opcode takes operands")
	}
	return &Simple{op: op}, nil
}

// MustSimple is NewSimple for opcodes known to be operand-free.
func MustSimple(op Opcode) *Simple {
	s, err := NewSimple(op)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Simple) Opcode() Opcode                   { return s.op }
func (s *Simple) Len() int                         { return 1 }
func (s *Simple) String() string                   { return s.op.String() }
func (s *Simple) Clone() Instruction               { c := *s; return &c }
func (s *Simple) Encode(w *classfile.Writer) error { w.WriteU1(uint8(s.op)); return nil }

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

// Push is bipush or sipush.
type Push struct {
	op    Opcode
	value int16
}

// NewBipush pushes a value in the signed byte range.
func NewBipush(v int) (*Push, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return nil, invalid(OpBipush, "value %d out of byte range", v)
	}
	return &Push{op: OpBipush, value: int16(v)}, nil
}

// NewSipush pushes a value in the signed short range.
func NewSipush(v int) (*Push, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return nil, invalid(OpSipush, "value %d out of short range", v)
	}
	return &Push{op: OpSipush, value: int16(v)}, nil
}

// Value returns the pushed constant.
func (p *Push) Value() int { return int(p.value) }

func (p *Push) Opcode() Opcode     { return p.op }
func (p *Push) Clone() Instruction { c := *p; return &c }
func (p *Push) String() string     { return fmt.Sprintf("%s %d", p.op, p.value) }

func (p *Push) Len() int {
	if p.op == OpBipush {
		return 2
	}
	return 3
}

func (p *Push) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(p.op))
	if p.op == OpBipush {
		w.WriteS1(int8(p.value))
	} else {
		w.WriteS2(p.value)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Constant pool references
// ---------------------------------------------------------------------------

func checkPoolIndex(op Opcode, index, max int) error {
	if index < 0 {
		return invalid(op, "negative constant pool index %d", index)
	}
	if index > max {
		return overflow(op, "constant pool index %d exceeds %d", index, max)
	}
	return nil
}

// PoolRef is a three-byte instruction whose operand is a constant pool
// index: field access, invokes other than interface and dynamic, new,
// anewarray, checkcast, instanceof, ldc_w and ldc2_w.
type PoolRef struct {
	op    Opcode
	index uint16
}

// NewPoolRef returns op with the given pool index.
func NewPoolRef(op Opcode, index int) (*PoolRef, error) {
	if op.Info().Format != FormatPool {
		return nil, invalid(op, "opcode has no constant pool operand")
	}
	if err := checkPoolIndex(op, index, math.MaxUint16); err != nil {
		return nil, err
	}
	return &PoolRef{op: op, index: uint16(index)}, nil
}

func (p *PoolRef) Opcode() Opcode     { return p.op }
func (p *PoolRef) Len() int           { return 3 }
func (p *PoolRef) Clone() Instruction { c := *p; return &c }
func (p *PoolRef) PoolIndex() int     { return int(p.index) }
func (p *PoolRef) String() string     { return fmt.Sprintf("%s #%d", p.op, p.index) }

func (p *PoolRef) SetPoolIndex(index int) error {
	if err := checkPoolIndex(p.op, index, math.MaxUint16); err != nil {
		return err
	}
	p.index = uint16(index)
	return nil
}

func (p *PoolRef) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(p.op))
	w.WriteU2(p.index)
	return nil
}

// Ldc loads a single-slot constant. It encodes as ldc when the index fits
// in a byte and as ldc_w otherwise.
type Ldc struct {
	index uint16
}

// NewLdc returns a load of the pool constant at index.
func NewLdc(index int) (*Ldc, error) {
	if err := checkPoolIndex(OpLdc, index, math.MaxUint16); err != nil {
		return nil, err
	}
	return &Ldc{index: uint16(index)}, nil
}

func (l *Ldc) Opcode() Opcode {
	if l.index > math.MaxUint8 {
		return OpLdcW
	}
	return OpLdc
}

func (l *Ldc) Len() int {
	if l.index > math.MaxUint8 {
		return 3
	}
	return 2
}

func (l *Ldc) Clone() Instruction { c := *l; return &c }
func (l *Ldc) PoolIndex() int     { return int(l.index) }
func (l *Ldc) String() string     { return fmt.Sprintf("%s #%d", l.Opcode(), l.index) }

func (l *Ldc) SetPoolIndex(index int) error {
	if err := checkPoolIndex(OpLdc, index, math.MaxUint16); err != nil {
		return err
	}
	l.index = uint16(index)
	return nil
}

func (l *Ldc) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(l.Opcode()))
	if l.index > math.MaxUint8 {
		w.WriteU2(l.index)
	} else {
		w.WriteU1(uint8(l.index))
	}
	return nil
}

// InvokeInterface is invokeinterface with its argument slot count.
type InvokeInterface struct {
	index uint16
	count uint8
}

// NewInvokeInterface returns an interface call. count is the number of
// argument slots plus one for the receiver.
func NewInvokeInterface(index, count int) (*InvokeInterface, error) {
	if err := checkPoolIndex(OpInvokeinterface, index, math.MaxUint16); err != nil {
		return nil, err
	}
	if count < 1 || count > math.MaxUint8 {
		return nil, invalid(OpInvokeinterface, "argument count %d out of range 1..255", count)
	}
	return &InvokeInterface{index: uint16(index), count: uint8(count)}, nil
}

// Count returns the count operand.
func (i *InvokeInterface) Count() int { return int(i.count) }

func (i *InvokeInterface) Opcode() Opcode     { return OpInvokeinterface }
func (i *InvokeInterface) Len() int           { return 5 }
func (i *InvokeInterface) Clone() Instruction { c := *i; return &c }
func (i *InvokeInterface) PoolIndex() int     { return int(i.index) }

func (i *InvokeInterface) String() string {
	return fmt.Sprintf("invokeinterface #%d %d", i.index, i.count)
}

func (i *InvokeInterface) SetPoolIndex(index int) error {
	if err := checkPoolIndex(OpInvokeinterface, index, math.MaxUint16); err != nil {
		return err
	}
	i.index = uint16(index)
	return nil
}

func (i *InvokeInterface) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(OpInvokeinterface))
	w.WriteU2(i.index)
	w.WriteU1(i.count)
	w.WriteU1(0)
	return nil
}

// InvokeDynamic is invokedynamic; its two trailing bytes are always zero.
type InvokeDynamic struct {
	index uint16
}

// NewInvokeDynamic returns a dynamic call site for an InvokeDynamic entry.
func NewInvokeDynamic(index int) (*InvokeDynamic, error) {
	if err := checkPoolIndex(OpInvokedynamic, index, math.MaxUint16); err != nil {
		return nil, err
	}
	return &InvokeDynamic{index: uint16(index)}, nil
}

func (i *InvokeDynamic) Opcode() Opcode     { return OpInvokedynamic }
func (i *InvokeDynamic) Len() int           { return 5 }
func (i *InvokeDynamic) Clone() Instruction { c := *i; return &c }
func (i *InvokeDynamic) PoolIndex() int     { return int(i.index) }
func (i *InvokeDynamic) String() string     { return fmt.Sprintf("invokedynamic #%d", i.index) }

func (i *InvokeDynamic) SetPoolIndex(index int) error {
	if err := checkPoolIndex(OpInvokedynamic, index, math.MaxUint16); err != nil {
		return err
	}
	i.index = uint16(index)
	return nil
}

func (i *InvokeDynamic) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(OpInvokedynamic))
	w.WriteU2(i.index)
	w.WriteU2(0)
	return nil
}

// MultiANewArray allocates a multi-dimensional array.
type MultiANewArray struct {
	index uint16
	dims  uint8
}

// NewMultiANewArray returns multianewarray for the array class at index.
func NewMultiANewArray(index, dims int) (*MultiANewArray, error) {
	if err := checkPoolIndex(OpMultianewarray, index, math.MaxUint16); err != nil {
		return nil, err
	}
	if dims < 1 || dims > math.MaxUint8 {
		return nil, invalid(OpMultianewarray, "dimensions %d out of range 1..255", dims)
	}
	return &MultiANewArray{index: uint16(index), dims: uint8(dims)}, nil
}

// Dimensions returns the number of dimensions allocated.
func (m *MultiANewArray) Dimensions() int { return int(m.dims) }

func (m *MultiANewArray) Opcode() Opcode     { return OpMultianewarray }
func (m *MultiANewArray) Len() int           { return 4 }
func (m *MultiANewArray) Clone() Instruction { c := *m; return &c }
func (m *MultiANewArray) PoolIndex() int     { return int(m.index) }

func (m *MultiANewArray) String() string {
	return fmt.Sprintf("multianewarray #%d %d", m.index, m.dims)
}

func (m *MultiANewArray) SetPoolIndex(index int) error {
	if err := checkPoolIndex(OpMultianewarray, index, math.MaxUint16); err != nil {
		return err
	}
	m.index = uint16(index)
	return nil
}

func (m *MultiANewArray) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(OpMultianewarray))
	w.WriteU2(m.index)
	w.WriteU1(m.dims)
	return nil
}

// ---------------------------------------------------------------------------
// newarray
// ---------------------------------------------------------------------------

// ArrayType codes for newarray; they equal the jtype primitive kinds.
const (
	ArrayBoolean uint8 = 4
	ArrayChar    uint8 = 5
	ArrayFloat   uint8 = 6
	ArrayDouble  uint8 = 7
	ArrayByte    uint8 = 8
	ArrayShort   uint8 = 9
	ArrayInt     uint8 = 10
	ArrayLong    uint8 = 11
)

var arrayTypeNames = [...]string{"boolean", "char", "float", "double", "byte", "short", "int", "long"}

// NewArray allocates a one-dimensional primitive array.
type NewArray struct {
	atype uint8
}

// NewNewArray returns newarray for a primitive array type code.
func NewNewArray(atype uint8) (*NewArray, error) {
	if atype < ArrayBoolean || atype > ArrayLong {
		return nil, invalid(OpNewarray, "array type %d out of range 4..11", atype)
	}
	return &NewArray{atype: atype}, nil
}

// ArrayType returns the element type code.
func (n *NewArray) ArrayType() uint8 { return n.atype }

func (n *NewArray) Opcode() Opcode     { return OpNewarray }
func (n *NewArray) Len() int           { return 2 }
func (n *NewArray) Clone() Instruction { c := *n; return &c }

func (n *NewArray) String() string {
	return "newarray " + arrayTypeNames[n.atype-ArrayBoolean]
}

func (n *NewArray) Encode(w *classfile.Writer) error {
	w.WriteU1(uint8(OpNewarray))
	w.WriteU1(n.atype)
	return nil
}
