// Package jtype models JVM value types as they appear in field and method
// descriptors: the eight primitives, void, class types and array types.
package jtype

import (
	"fmt"
	"strings"
)

// Kind is the JVM type tag. Primitive values match the newarray atype
// operand (T_BOOLEAN = 4 ... T_LONG = 11).
type Kind uint8

const (
	KindBoolean Kind = 4
	KindChar    Kind = 5
	KindFloat   Kind = 6
	KindDouble  Kind = 7
	KindByte    Kind = 8
	KindShort   Kind = 9
	KindInt     Kind = 10
	KindLong    Kind = 11
	KindVoid    Kind = 12
	KindArray   Kind = 13
	KindObject  Kind = 14
)

var kindNames = map[Kind]string{
	KindBoolean: "boolean",
	KindChar:    "char",
	KindFloat:   "float",
	KindDouble:  "double",
	KindByte:    "byte",
	KindShort:   "short",
	KindInt:     "int",
	KindLong:    "long",
	KindVoid:    "void",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsPrimitive reports whether k is one of the eight primitive kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindBoolean && k <= KindLong
}

// IsIntFamily reports whether values of kind k live on the operand stack as
// int: boolean, byte, char, short and int.
func (k Kind) IsIntFamily() bool {
	switch k {
	case KindBoolean, KindByte, KindChar, KindShort, KindInt:
		return true
	}
	return false
}

// Type is a JVM type.
type Type interface {
	Kind() Kind
	// Descriptor returns the field descriptor, e.g. "I" or "[Ljava/lang/String;".
	Descriptor() string
	// Size is the number of local variable or operand stack slots a value
	// occupies: 0 for void, 2 for long and double, 1 otherwise.
	Size() int
	// String returns the Java source spelling, e.g. "java.lang.String[]".
	String() string
}

// ---------------------------------------------------------------------------
// Primitive types
// ---------------------------------------------------------------------------

// BasicType is a primitive type or void.
type BasicType struct {
	kind Kind
}

var (
	Boolean = BasicType{KindBoolean}
	Char    = BasicType{KindChar}
	Float   = BasicType{KindFloat}
	Double  = BasicType{KindDouble}
	Byte    = BasicType{KindByte}
	Short   = BasicType{KindShort}
	Int     = BasicType{KindInt}
	Long    = BasicType{KindLong}
	Void    = BasicType{KindVoid}
)

var basicDescriptors = map[Kind]string{
	KindBoolean: "Z",
	KindChar:    "C",
	KindFloat:   "F",
	KindDouble:  "D",
	KindByte:    "B",
	KindShort:   "S",
	KindInt:     "I",
	KindLong:    "J",
	KindVoid:    "V",
}

// Basic returns the BasicType for a primitive or void kind.
func Basic(k Kind) (BasicType, error) {
	if !k.IsPrimitive() && k != KindVoid {
		return BasicType{}, fmt.Errorf("jtype: %s is not a basic kind", k)
	}
	return BasicType{k}, nil
}

func (b BasicType) Kind() Kind         { return b.kind }
func (b BasicType) Descriptor() string { return basicDescriptors[b.kind] }
func (b BasicType) String() string     { return b.kind.String() }

func (b BasicType) Size() int {
	switch b.kind {
	case KindVoid:
		return 0
	case KindLong, KindDouble:
		return 2
	default:
		return 1
	}
}

// ---------------------------------------------------------------------------
// Reference types
// ---------------------------------------------------------------------------

// ObjectType is a class or interface type.
type ObjectType struct {
	name string // dotted form, e.g. java.lang.String
}

// Commonly used class types.
var (
	ObjectClass  = NewObject("java.lang.Object")
	StringClass  = NewObject("java.lang.String")
	StringBuffer = NewObject("java.lang.StringBuffer")
	PrintStream  = NewObject("java.io.PrintStream")
	Throwable    = NewObject("java.lang.Throwable")
)

// NewObject returns the type for a class name. Both dotted and internal
// (slash separated) spellings are accepted.
func NewObject(className string) ObjectType {
	return ObjectType{name: strings.ReplaceAll(className, "/", ".")}
}

func (o ObjectType) Kind() Kind         { return KindObject }
func (o ObjectType) Size() int          { return 1 }
func (o ObjectType) String() string     { return o.name }
func (o ObjectType) Descriptor() string { return "L" + o.InternalName() + ";" }

// ClassName returns the dotted class name.
func (o ObjectType) ClassName() string { return o.name }

// InternalName returns the slash separated name used in the constant pool.
func (o ObjectType) InternalName() string {
	return strings.ReplaceAll(o.name, ".", "/")
}

// ArrayType is an array with a non-array element type and one or more
// dimensions.
type ArrayType struct {
	base Type
	dims int
}

// NewArray returns the array type with the given element type and number of
// dimensions. An array element is flattened: NewArray(int[], 2) is int[][][].
func NewArray(elem Type, dims int) (ArrayType, error) {
	if dims < 1 || dims > 255 {
		return ArrayType{}, fmt.Errorf("jtype: invalid array dimensions %d", dims)
	}
	switch e := elem.(type) {
	case ArrayType:
		if e.dims+dims > 255 {
			return ArrayType{}, fmt.Errorf("jtype: invalid array dimensions %d", e.dims+dims)
		}
		return ArrayType{base: e.base, dims: e.dims + dims}, nil
	case BasicType:
		if e.kind == KindVoid {
			return ArrayType{}, fmt.Errorf("jtype: array of void")
		}
	}
	return ArrayType{base: elem, dims: dims}, nil
}

// MustArray is NewArray for statically known arguments; it panics on error.
func MustArray(elem Type, dims int) ArrayType {
	a, err := NewArray(elem, dims)
	if err != nil {
		panic(err)
	}
	return a
}

func (a ArrayType) Kind() Kind { return KindArray }
func (a ArrayType) Size() int  { return 1 }

func (a ArrayType) Descriptor() string {
	return strings.Repeat("[", a.dims) + a.base.Descriptor()
}

func (a ArrayType) String() string {
	return a.base.String() + strings.Repeat("[]", a.dims)
}

// Dimensions returns the number of array dimensions.
func (a ArrayType) Dimensions() int { return a.dims }

// BaseType returns the innermost non-array element type.
func (a ArrayType) BaseType() Type { return a.base }

// ElementType returns the type obtained by indexing once.
func (a ArrayType) ElementType() Type {
	if a.dims == 1 {
		return a.base
	}
	return ArrayType{base: a.base, dims: a.dims - 1}
}

// IsReference reports whether t is a class or array type.
func IsReference(t Type) bool {
	k := t.Kind()
	return k == KindObject || k == KindArray
}

// Equal reports whether two types denote the same JVM type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Descriptor() == b.Descriptor()
}
