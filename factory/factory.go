// Package factory maps semantic operations and JVM types to concrete
// instructions, adding whatever constant pool entries they reference.
package factory

import (
	"fmt"
	"math"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/constpool"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
)

var stringBuilder = jtype.NewObject("java.lang.StringBuilder")

func unsupported(op string, t jtype.Type) error {
	return classfile.Errorf(classfile.KindUnsupportedOperation, op, "no instruction for type %v", t)
}

// Factory creates instructions that reference a constant pool. Operations
// that need no pool entries are package-level functions.
type Factory struct {
	pool *constpool.Builder
}

// New returns a factory adding entries to pool.
func New(pool *constpool.Builder) *Factory {
	return &Factory{pool: pool}
}

// Pool returns the builder the factory adds entries to.
func (f *Factory) Pool() *constpool.Builder { return f.pool }

// ---------------------------------------------------------------------------
// Locals, arrays and returns
// ---------------------------------------------------------------------------

// opcodeFamily picks the int, long, float, double or reference member of
// a five-opcode family laid out in that order.
func opcodeFamily(base instr.Opcode, t jtype.Type) (instr.Opcode, bool) {
	k := t.Kind()
	switch {
	case k.IsIntFamily():
		return base, true
	case k == jtype.KindLong:
		return base + 1, true
	case k == jtype.KindFloat:
		return base + 2, true
	case k == jtype.KindDouble:
		return base + 3, true
	case k == jtype.KindObject || k == jtype.KindArray:
		return base + 4, true
	}
	return 0, false
}

// Load returns the local variable load for t at index, in the shortest
// form the index allows.
func Load(t jtype.Type, index int) (*instr.LocalVariable, error) {
	op, ok := opcodeFamily(instr.OpIload, t)
	if !ok {
		return nil, unsupported("load", t)
	}
	return instr.NewLocal(op, index)
}

// Store returns the local variable store for t at index.
func Store(t jtype.Type, index int) (*instr.LocalVariable, error) {
	op, ok := opcodeFamily(instr.OpIstore, t)
	if !ok {
		return nil, unsupported("store", t)
	}
	return instr.NewLocal(op, index)
}

// This loads the receiver of an instance method.
func This() *instr.LocalVariable {
	l, _ := instr.NewLocal(instr.OpAload, 0)
	return l
}

var arrayLoads = map[jtype.Kind]instr.Opcode{
	jtype.KindBoolean: instr.OpBaload,
	jtype.KindByte:    instr.OpBaload,
	jtype.KindChar:    instr.OpCaload,
	jtype.KindShort:   instr.OpSaload,
	jtype.KindInt:     instr.OpIaload,
	jtype.KindLong:    instr.OpLaload,
	jtype.KindFloat:   instr.OpFaload,
	jtype.KindDouble:  instr.OpDaload,
	jtype.KindObject:  instr.OpAaload,
	jtype.KindArray:   instr.OpAaload,
}

var arrayStores = map[jtype.Kind]instr.Opcode{
	jtype.KindBoolean: instr.OpBastore,
	jtype.KindByte:    instr.OpBastore,
	jtype.KindChar:    instr.OpCastore,
	jtype.KindShort:   instr.OpSastore,
	jtype.KindInt:     instr.OpIastore,
	jtype.KindLong:    instr.OpLastore,
	jtype.KindFloat:   instr.OpFastore,
	jtype.KindDouble:  instr.OpDastore,
	jtype.KindObject:  instr.OpAastore,
	jtype.KindArray:   instr.OpAastore,
}

// ArrayLoad returns the element load for an array of elem. Byte and
// boolean arrays share baload.
func ArrayLoad(elem jtype.Type) (*instr.Simple, error) {
	op, ok := arrayLoads[elem.Kind()]
	if !ok {
		return nil, unsupported("array load", elem)
	}
	return instr.MustSimple(op), nil
}

// ArrayStore returns the element store for an array of elem.
func ArrayStore(elem jtype.Type) (*instr.Simple, error) {
	op, ok := arrayStores[elem.Kind()]
	if !ok {
		return nil, unsupported("array store", elem)
	}
	return instr.MustSimple(op), nil
}

// Return returns the method return for t; void yields return.
func Return(t jtype.Type) (*instr.Simple, error) {
	if t.Kind() == jtype.KindVoid {
		return instr.MustSimple(instr.OpReturn), nil
	}
	op, ok := opcodeFamily(instr.OpIreturn, t)
	if !ok {
		return nil, unsupported("return", t)
	}
	return instr.MustSimple(op), nil
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

type binaryKey struct {
	op   string
	kind jtype.Kind
}

var binaryOps = func() map[binaryKey]instr.Opcode {
	m := make(map[binaryKey]instr.Opcode)
	// Arithmetic opcodes: each operator has i, l, f, d in consecutive order.
	arith := map[string]instr.Opcode{
		"+": instr.OpIadd,
		"-": instr.OpIsub,
		"*": instr.OpImul,
		"/": instr.OpIdiv,
		"%": instr.OpIrem,
	}
	for sym, base := range arith {
		m[binaryKey{sym, jtype.KindInt}] = base
		m[binaryKey{sym, jtype.KindLong}] = base + 1
		m[binaryKey{sym, jtype.KindFloat}] = base + 2
		m[binaryKey{sym, jtype.KindDouble}] = base + 3
	}
	// Bitwise and shift opcodes: int then long.
	bits := map[string]instr.Opcode{
		"&":   instr.OpIand,
		"|":   instr.OpIor,
		"^":   instr.OpIxor,
		"<<":  instr.OpIshl,
		">>":  instr.OpIshr,
		">>>": instr.OpIushr,
	}
	for sym, base := range bits {
		m[binaryKey{sym, jtype.KindInt}] = base
		m[binaryKey{sym, jtype.KindLong}] = base + 1
	}
	return m
}()

// BinaryOperation returns the arithmetic, bitwise or shift instruction for
// op on operands of type t. Shifts distinguish ">>" (arithmetic) from ">>>"
// (logical).
func BinaryOperation(op string, t jtype.Type) (*instr.Simple, error) {
	k := t.Kind()
	switch {
	case k == jtype.KindBoolean && op != "&" && op != "|" && op != "^":
		return nil, unsupported(op, t)
	case k.IsIntFamily():
		k = jtype.KindInt
	}
	code, ok := binaryOps[binaryKey{op, k}]
	if !ok {
		return nil, unsupported(op, t)
	}
	return instr.MustSimple(code), nil
}

// Negate returns the unary minus for t.
func Negate(t jtype.Type) (*instr.Simple, error) {
	k := t.Kind()
	if k == jtype.KindBoolean || !k.IsPrimitive() {
		return nil, unsupported("neg", t)
	}
	op, _ := opcodeFamily(instr.OpIneg, t)
	return instr.MustSimple(op), nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

// Null pushes null.
func Null() *instr.Simple { return instr.MustSimple(instr.OpAconstNull) }

// Pop discards a value occupying size slots.
func Pop(size int) (*instr.Simple, error) {
	switch size {
	case 1:
		return instr.MustSimple(instr.OpPop), nil
	case 2:
		return instr.MustSimple(instr.OpPop2), nil
	}
	return nil, classfile.Errorf(classfile.KindConstruction, "pop", "size %d is not 1 or 2", size)
}

// Dup duplicates a value occupying size slots.
func Dup(size int) (*instr.Simple, error) {
	switch size {
	case 1:
		return instr.MustSimple(instr.OpDup), nil
	case 2:
		return instr.MustSimple(instr.OpDup2), nil
	}
	return nil, classfile.Errorf(classfile.KindConstruction, "dup", "size %d is not 1 or 2", size)
}

// Branch returns an unlinked branch for op; the sequence links it to its
// target.
func Branch(op instr.Opcode) (*instr.Branch, error) {
	return instr.NewBranch(op)
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// Constant pushes v, choosing the shortest encoding: iconst, bipush and
// sipush for small ints, the dedicated zero and one forms for long, float
// and double, and ldc or ldc2_w otherwise. v may be a Go integer, bool,
// float32 (float), float64 (double), int64 (long), string, or a reference
// jtype.Type for a class literal.
func (f *Factory) Constant(v any) (instr.Instruction, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return instr.MustSimple(instr.OpIconst1), nil
		}
		return instr.MustSimple(instr.OpIconst0), nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, classfile.Errorf(classfile.KindConstruction, "constant",
				"%d does not fit an int; pass an int64 for a long", v)
		}
		return f.intConstant(int32(v))
	case int8:
		return f.intConstant(int32(v))
	case int16:
		return f.intConstant(int32(v))
	case int32:
		return f.intConstant(v)
	case uint8:
		return f.intConstant(int32(v))
	case uint16:
		return f.intConstant(int32(v))
	case int64:
		if v == 0 || v == 1 {
			return instr.MustSimple(instr.OpLconst0 + instr.Opcode(v)), nil
		}
		return f.wideConstant(f.pool.AddLong(v))
	case float32:
		switch {
		case v == 0 && !math.Signbit(float64(v)):
			return instr.MustSimple(instr.OpFconst0), nil
		case v == 1:
			return instr.MustSimple(instr.OpFconst1), nil
		case v == 2:
			return instr.MustSimple(instr.OpFconst2), nil
		}
		return f.ldc(f.pool.AddFloat(v))
	case float64:
		switch {
		case v == 0 && !math.Signbit(v):
			return instr.MustSimple(instr.OpDconst0), nil
		case v == 1:
			return instr.MustSimple(instr.OpDconst1), nil
		}
		return f.wideConstant(f.pool.AddDouble(v))
	case string:
		return f.ldc(f.pool.AddString(v))
	case jtype.ObjectType, jtype.ArrayType:
		return f.ldc(f.pool.AddClassOf(v.(jtype.Type)))
	}
	return nil, classfile.Errorf(classfile.KindUnsupportedOperation, "constant", "no constant of Go type %T", v)
}

func (f *Factory) intConstant(v int32) (instr.Instruction, error) {
	switch {
	case v >= -1 && v <= 5:
		return instr.MustSimple(instr.Opcode(int32(instr.OpIconst0) + v)), nil
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return instr.NewBipush(int(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return instr.NewSipush(int(v))
	}
	return f.ldc(f.pool.AddInteger(v))
}

func (f *Factory) ldc(index int, err error) (instr.Instruction, error) {
	if err != nil {
		return nil, err
	}
	return instr.NewLdc(index)
}

func (f *Factory) wideConstant(index int, err error) (instr.Instruction, error) {
	if err != nil {
		return nil, err
	}
	return instr.NewPoolRef(instr.OpLdc2W, index)
}

// ---------------------------------------------------------------------------
// Objects, fields and calls
// ---------------------------------------------------------------------------

// InvokeKind selects the invoke instruction.
type InvokeKind uint8

const (
	Virtual InvokeKind = iota
	Static
	Special
	Interface
)

func (k InvokeKind) String() string {
	switch k {
	case Virtual:
		return "invokevirtual"
	case Static:
		return "invokestatic"
	case Special:
		return "invokespecial"
	case Interface:
		return "invokeinterface"
	}
	return fmt.Sprintf("InvokeKind(%d)", uint8(k))
}

// Invoke calls class.name with the given signature. For interface calls
// the count operand is the argument slot count plus one for the receiver.
func (f *Factory) Invoke(kind InvokeKind, class, name string, ret jtype.Type, args []jtype.Type) (instr.Instruction, error) {
	desc := jtype.MethodDescriptor(ret, args)
	switch kind {
	case Interface:
		idx, err := f.pool.AddInterfaceMethodref(class, name, desc)
		if err != nil {
			return nil, err
		}
		return instr.NewInvokeInterface(idx, jtype.ArgumentSlots(args)+1)
	case Virtual, Static, Special:
		idx, err := f.pool.AddMethodref(class, name, desc)
		if err != nil {
			return nil, err
		}
		op := map[InvokeKind]instr.Opcode{
			Virtual: instr.OpInvokevirtual,
			Static:  instr.OpInvokestatic,
			Special: instr.OpInvokespecial,
		}[kind]
		return instr.NewPoolRef(op, idx)
	}
	return nil, classfile.Errorf(classfile.KindUnsupportedOperation, "invoke", "unknown invoke kind %d", kind)
}

// FieldKind selects the field access instruction.
type FieldKind uint8

const (
	GetField FieldKind = iota
	PutField
	GetStatic
	PutStatic
)

var fieldOps = [...]instr.Opcode{
	GetField:  instr.OpGetfield,
	PutField:  instr.OpPutfield,
	GetStatic: instr.OpGetstatic,
	PutStatic: instr.OpPutstatic,
}

// FieldAccess reads or writes class.name of type t.
func (f *Factory) FieldAccess(kind FieldKind, class, name string, t jtype.Type) (*instr.PoolRef, error) {
	if int(kind) >= len(fieldOps) {
		return nil, classfile.Errorf(classfile.KindUnsupportedOperation, "field access", "unknown field kind %d", kind)
	}
	if t.Kind() == jtype.KindVoid {
		return nil, unsupported(fieldOps[kind].String(), t)
	}
	idx, err := f.pool.AddFieldref(class, name, t.Descriptor())
	if err != nil {
		return nil, err
	}
	return instr.NewPoolRef(fieldOps[kind], idx)
}

// New allocates an uninitialized instance of class.
func (f *Factory) New(class string) (*instr.PoolRef, error) {
	idx, err := f.pool.AddClass(class)
	if err != nil {
		return nil, err
	}
	return instr.NewPoolRef(instr.OpNew, idx)
}

// NewArray allocates an array of dims dimensions whose elements are of
// type elem: newarray for one dimension of a primitive, anewarray for one
// dimension of a reference, multianewarray otherwise.
func (f *Factory) NewArray(elem jtype.Type, dims int) (instr.Instruction, error) {
	if dims < 1 {
		return nil, classfile.Errorf(classfile.KindConstruction, "new array", "dimensions %d < 1", dims)
	}
	if elem.Kind() == jtype.KindVoid {
		return nil, unsupported("new array", elem)
	}
	if dims == 1 {
		if elem.Kind().IsPrimitive() {
			return instr.NewNewArray(uint8(elem.Kind()))
		}
		idx, err := f.pool.AddClassOf(elem)
		if err != nil {
			return nil, err
		}
		return instr.NewPoolRef(instr.OpAnewarray, idx)
	}
	at, err := jtype.NewArray(elem, dims)
	if err != nil {
		return nil, classfile.Errorf(classfile.KindConstruction, "new array", "%v", err)
	}
	idx, err := f.pool.AddArrayClass(at)
	if err != nil {
		return nil, err
	}
	return instr.NewMultiANewArray(idx, dims)
}

// CheckCast checks that the reference on the stack is a t.
func (f *Factory) CheckCast(t jtype.Type) (*instr.PoolRef, error) {
	return f.classOp(instr.OpCheckcast, t)
}

// InstanceOf tests whether the reference on the stack is a t.
func (f *Factory) InstanceOf(t jtype.Type) (*instr.PoolRef, error) {
	return f.classOp(instr.OpInstanceof, t)
}

func (f *Factory) classOp(op instr.Opcode, t jtype.Type) (*instr.PoolRef, error) {
	if !jtype.IsReference(t) {
		return nil, unsupported(op.String(), t)
	}
	idx, err := f.pool.AddClassOf(t)
	if err != nil {
		return nil, err
	}
	return instr.NewPoolRef(op, idx)
}

// ---------------------------------------------------------------------------
// Convenience sequences
// ---------------------------------------------------------------------------

// Println prints s on System.out.
func (f *Factory) Println(s string) ([]instr.Instruction, error) {
	out, err := f.FieldAccess(GetStatic, "java.lang.System", "out", jtype.PrintStream)
	if err != nil {
		return nil, err
	}
	msg, err := f.Constant(s)
	if err != nil {
		return nil, err
	}
	call, err := f.Invoke(Virtual, "java.io.PrintStream", "println", jtype.Void, []jtype.Type{jtype.StringClass})
	if err != nil {
		return nil, err
	}
	return []instr.Instruction{out, msg, call}, nil
}

// Append calls StringBuilder.append for a value of type t. Byte and short
// values use the int overload; references other than String use Object.
func (f *Factory) Append(t jtype.Type) (instr.Instruction, error) {
	var arg jtype.Type
	switch k := t.Kind(); {
	case jtype.Equal(t, jtype.StringClass):
		arg = jtype.StringClass
	case k == jtype.KindByte || k == jtype.KindShort:
		arg = jtype.Int
	case k.IsPrimitive():
		arg = t
	case k == jtype.KindObject || k == jtype.KindArray:
		arg = jtype.ObjectClass
	default:
		return nil, unsupported("append", t)
	}
	return f.Invoke(Virtual, stringBuilder.InternalName(), "append", stringBuilder, []jtype.Type{arg})
}
