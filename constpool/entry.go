package constpool

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagInvokeDynamic:      "InvokeDynamic",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tag(%d)", t)
}

// Method handle reference kinds.
const (
	RefGetField         uint8 = 1
	RefGetStatic        uint8 = 2
	RefPutField         uint8 = 3
	RefPutStatic        uint8 = 4
	RefInvokeVirtual    uint8 = 5
	RefInvokeStatic     uint8 = 6
	RefInvokeSpecial    uint8 = 7
	RefNewInvokeSpecial uint8 = 8
	RefInvokeInterface  uint8 = 9
)

// Entry is one immutable constant pool entry.
type Entry interface {
	Tag() Tag
	// Slots is the number of pool indices the entry occupies: 2 for Long and
	// Double, 1 for everything else.
	Slots() int
	encode(w *classfile.Writer)
	key() entryKey
	// refs lists the pool indices the entry points at, paired with the tags
	// they must carry.
	refs() []ref
}

type ref struct {
	index uint16
	tags  []Tag
}

// entryKey is the structural identity used for deduplication. Floating point
// values are keyed by bit pattern.
type entryKey struct {
	tag  Tag
	a, b uint64
	s    string
}

// ---------------------------------------------------------------------------
// Literal entries
// ---------------------------------------------------------------------------

// Utf8 is a modified UTF-8 encoded string.
type Utf8 struct{ Value string }

// Integer is a 32-bit int literal.
type Integer struct{ Value int32 }

// Float is a 32-bit float literal.
type Float struct{ Value float32 }

// Long is a 64-bit long literal. It occupies two pool slots.
type Long struct{ Value int64 }

// Double is a 64-bit double literal. It occupies two pool slots.
type Double struct{ Value float64 }

func (Utf8) Tag() Tag    { return TagUtf8 }
func (Integer) Tag() Tag { return TagInteger }
func (Float) Tag() Tag   { return TagFloat }
func (Long) Tag() Tag    { return TagLong }
func (Double) Tag() Tag  { return TagDouble }

func (Utf8) Slots() int    { return 1 }
func (Integer) Slots() int { return 1 }
func (Float) Slots() int   { return 1 }
func (Long) Slots() int    { return 2 }
func (Double) Slots() int  { return 2 }

func (e Utf8) key() entryKey    { return entryKey{tag: TagUtf8, s: e.Value} }
func (e Integer) key() entryKey { return entryKey{tag: TagInteger, a: uint64(uint32(e.Value))} }
func (e Float) key() entryKey {
	return entryKey{tag: TagFloat, a: uint64(math.Float32bits(e.Value))}
}
func (e Long) key() entryKey { return entryKey{tag: TagLong, a: uint64(e.Value)} }
func (e Double) key() entryKey {
	return entryKey{tag: TagDouble, a: math.Float64bits(e.Value)}
}

func (Utf8) refs() []ref    { return nil }
func (Integer) refs() []ref { return nil }
func (Float) refs() []ref   { return nil }
func (Long) refs() []ref    { return nil }
func (Double) refs() []ref  { return nil }

func (e Utf8) encode(w *classfile.Writer) {
	data := encodeModifiedUTF8(e.Value)
	w.WriteU1(uint8(TagUtf8))
	w.WriteU2(uint16(len(data)))
	w.Write(data)
}

func (e Integer) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagInteger))
	w.WriteS4(e.Value)
}

func (e Float) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagFloat))
	w.WriteU4(math.Float32bits(e.Value))
}

func (e Long) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagLong))
	w.WriteU8(uint64(e.Value))
}

func (e Double) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagDouble))
	w.WriteU8(math.Float64bits(e.Value))
}

func (e Utf8) String() string    { return strconv.Quote(e.Value) }
func (e Integer) String() string { return strconv.FormatInt(int64(e.Value), 10) }
func (e Float) String() string   { return strconv.FormatFloat(float64(e.Value), 'g', -1, 32) + "f" }
func (e Long) String() string    { return strconv.FormatInt(e.Value, 10) + "L" }
func (e Double) String() string  { return strconv.FormatFloat(e.Value, 'g', -1, 64) + "d" }

// ---------------------------------------------------------------------------
// Symbolic reference entries
// ---------------------------------------------------------------------------

// Class references a class or array type by its internal name.
type Class struct{ NameIndex uint16 }

// String references a string literal.
type String struct{ StringIndex uint16 }

// NameAndType pairs a member name with its descriptor.
type NameAndType struct{ NameIndex, DescriptorIndex uint16 }

// Fieldref references a field of a class.
type Fieldref struct{ ClassIndex, NameAndTypeIndex uint16 }

// Methodref references a method of a class.
type Methodref struct{ ClassIndex, NameAndTypeIndex uint16 }

// InterfaceMethodref references a method of an interface.
type InterfaceMethodref struct{ ClassIndex, NameAndTypeIndex uint16 }

// MethodHandle references a field or method with a behavior kind.
type MethodHandle struct {
	RefKind  uint8
	RefIndex uint16
}

// MethodType references a method descriptor.
type MethodType struct{ DescriptorIndex uint16 }

// InvokeDynamic names a call site by bootstrap method attribute index and
// NameAndType.
type InvokeDynamic struct{ BootstrapIndex, NameAndTypeIndex uint16 }

func (Class) Tag() Tag              { return TagClass }
func (String) Tag() Tag             { return TagString }
func (NameAndType) Tag() Tag        { return TagNameAndType }
func (Fieldref) Tag() Tag           { return TagFieldref }
func (Methodref) Tag() Tag          { return TagMethodref }
func (InterfaceMethodref) Tag() Tag { return TagInterfaceMethodref }
func (MethodHandle) Tag() Tag       { return TagMethodHandle }
func (MethodType) Tag() Tag         { return TagMethodType }
func (InvokeDynamic) Tag() Tag      { return TagInvokeDynamic }

func (Class) Slots() int              { return 1 }
func (String) Slots() int             { return 1 }
func (NameAndType) Slots() int        { return 1 }
func (Fieldref) Slots() int           { return 1 }
func (Methodref) Slots() int          { return 1 }
func (InterfaceMethodref) Slots() int { return 1 }
func (MethodHandle) Slots() int       { return 1 }
func (MethodType) Slots() int         { return 1 }
func (InvokeDynamic) Slots() int      { return 1 }

func pair(tag Tag, a, b uint16) entryKey {
	return entryKey{tag: tag, a: uint64(a), b: uint64(b)}
}

func (e Class) key() entryKey       { return pair(TagClass, e.NameIndex, 0) }
func (e String) key() entryKey      { return pair(TagString, e.StringIndex, 0) }
func (e NameAndType) key() entryKey { return pair(TagNameAndType, e.NameIndex, e.DescriptorIndex) }
func (e Fieldref) key() entryKey    { return pair(TagFieldref, e.ClassIndex, e.NameAndTypeIndex) }
func (e Methodref) key() entryKey   { return pair(TagMethodref, e.ClassIndex, e.NameAndTypeIndex) }
func (e InterfaceMethodref) key() entryKey {
	return pair(TagInterfaceMethodref, e.ClassIndex, e.NameAndTypeIndex)
}
func (e MethodHandle) key() entryKey {
	return pair(TagMethodHandle, uint16(e.RefKind), e.RefIndex)
}
func (e MethodType) key() entryKey { return pair(TagMethodType, e.DescriptorIndex, 0) }
func (e InvokeDynamic) key() entryKey {
	return pair(TagInvokeDynamic, e.BootstrapIndex, e.NameAndTypeIndex)
}

var (
	utf8Only   = []Tag{TagUtf8}
	classOnly  = []Tag{TagClass}
	natOnly    = []Tag{TagNameAndType}
	memberRefs = []Tag{TagFieldref, TagMethodref, TagInterfaceMethodref}
)

func (e Class) refs() []ref  { return []ref{{e.NameIndex, utf8Only}} }
func (e String) refs() []ref { return []ref{{e.StringIndex, utf8Only}} }
func (e NameAndType) refs() []ref {
	return []ref{{e.NameIndex, utf8Only}, {e.DescriptorIndex, utf8Only}}
}
func (e Fieldref) refs() []ref {
	return []ref{{e.ClassIndex, classOnly}, {e.NameAndTypeIndex, natOnly}}
}
func (e Methodref) refs() []ref {
	return []ref{{e.ClassIndex, classOnly}, {e.NameAndTypeIndex, natOnly}}
}
func (e InterfaceMethodref) refs() []ref {
	return []ref{{e.ClassIndex, classOnly}, {e.NameAndTypeIndex, natOnly}}
}
func (e MethodHandle) refs() []ref    { return []ref{{e.RefIndex, memberRefs}} }
func (e MethodType) refs() []ref      { return []ref{{e.DescriptorIndex, utf8Only}} }
func (e InvokeDynamic) refs() []ref   { return []ref{{e.NameAndTypeIndex, natOnly}} }

func (e Class) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagClass))
	w.WriteU2(e.NameIndex)
}

func (e String) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagString))
	w.WriteU2(e.StringIndex)
}

func encodePair(w *classfile.Writer, tag Tag, a, b uint16) {
	w.WriteU1(uint8(tag))
	w.WriteU2(a)
	w.WriteU2(b)
}

func (e NameAndType) encode(w *classfile.Writer) {
	encodePair(w, TagNameAndType, e.NameIndex, e.DescriptorIndex)
}
func (e Fieldref) encode(w *classfile.Writer) {
	encodePair(w, TagFieldref, e.ClassIndex, e.NameAndTypeIndex)
}
func (e Methodref) encode(w *classfile.Writer) {
	encodePair(w, TagMethodref, e.ClassIndex, e.NameAndTypeIndex)
}
func (e InterfaceMethodref) encode(w *classfile.Writer) {
	encodePair(w, TagInterfaceMethodref, e.ClassIndex, e.NameAndTypeIndex)
}
func (e InvokeDynamic) encode(w *classfile.Writer) {
	encodePair(w, TagInvokeDynamic, e.BootstrapIndex, e.NameAndTypeIndex)
}

func (e MethodHandle) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagMethodHandle))
	w.WriteU1(e.RefKind)
	w.WriteU2(e.RefIndex)
}

func (e MethodType) encode(w *classfile.Writer) {
	w.WriteU1(uint8(TagMethodType))
	w.WriteU2(e.DescriptorIndex)
}

func (e Class) String() string              { return fmt.Sprintf("#%d", e.NameIndex) }
func (e String) String() string             { return fmt.Sprintf("#%d", e.StringIndex) }
func (e NameAndType) String() string        { return fmt.Sprintf("#%d:#%d", e.NameIndex, e.DescriptorIndex) }
func (e Fieldref) String() string           { return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex) }
func (e Methodref) String() string          { return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex) }
func (e InterfaceMethodref) String() string { return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex) }
func (e MethodHandle) String() string       { return fmt.Sprintf("%d:#%d", e.RefKind, e.RefIndex) }
func (e MethodType) String() string         { return fmt.Sprintf("#%d", e.DescriptorIndex) }
func (e InvokeDynamic) String() string {
	return fmt.Sprintf("#%d:#%d", e.BootstrapIndex, e.NameAndTypeIndex)
}

// decodeEntry reads one entry, tag included.
func decodeEntry(r *classfile.Reader) (Entry, error) {
	t, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	tag := Tag(t)
	u2 := func() uint16 {
		if err != nil {
			return 0
		}
		var v uint16
		v, err = r.ReadU2()
		return v
	}
	var e Entry
	switch tag {
	case TagUtf8:
		n := u2()
		if err != nil {
			return nil, err
		}
		var data []byte
		if data, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		s, derr := decodeModifiedUTF8(data)
		if derr != nil {
			return nil, derr
		}
		e = Utf8{Value: s}
	case TagInteger:
		var v int32
		v, err = r.ReadS4()
		e = Integer{Value: v}
	case TagFloat:
		var v uint32
		v, err = r.ReadU4()
		e = Float{Value: math.Float32frombits(v)}
	case TagLong:
		var v uint64
		v, err = r.ReadU8()
		e = Long{Value: int64(v)}
	case TagDouble:
		var v uint64
		v, err = r.ReadU8()
		e = Double{Value: math.Float64frombits(v)}
	case TagClass:
		e = Class{NameIndex: u2()}
	case TagString:
		e = String{StringIndex: u2()}
	case TagNameAndType:
		e = NameAndType{NameIndex: u2(), DescriptorIndex: u2()}
	case TagFieldref:
		e = Fieldref{ClassIndex: u2(), NameAndTypeIndex: u2()}
	case TagMethodref:
		e = Methodref{ClassIndex: u2(), NameAndTypeIndex: u2()}
	case TagInterfaceMethodref:
		e = InterfaceMethodref{ClassIndex: u2(), NameAndTypeIndex: u2()}
	case TagMethodHandle:
		var kind uint8
		kind, err = r.ReadU1()
		e = MethodHandle{RefKind: kind, RefIndex: u2()}
	case TagMethodType:
		e = MethodType{DescriptorIndex: u2()}
	case TagInvokeDynamic:
		e = InvokeDynamic{BootstrapIndex: u2(), NameAndTypeIndex: u2()}
	default:
		return nil, classfile.Errorf(classfile.KindMalformed, "constpool", "unknown tag %d at pos %d", t, r.Pos()-1)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
