// Package constpool builds and reads the class file constant pool: the flat,
// deduplicated symbol table every instruction refers to by index.
package constpool

import (
	"strings"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
)

// MaxCount is the largest constant_pool_count a class file can declare.
// Valid indices run from 1 to MaxCount-1.
const MaxCount = 65535

// ---------------------------------------------------------------------------
// Builder: deduplicating, append-only pool
// ---------------------------------------------------------------------------

// Builder accumulates constant pool entries. Adding content that is already
// present returns the existing index; entries are never removed, so indices
// stay valid for the builder's lifetime. A Builder is not safe for concurrent
// use.
type Builder struct {
	entries []Entry // index i holds entry i; slot 0 and the second slot of Long/Double are nil
	index   map[entryKey]int
	snap    *Pool // last Finalize result, nil after an addition
}

// NewBuilder creates an empty pool builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make([]Entry, 1, 64),
		index:   make(map[entryKey]int),
	}
}

// NewBuilderFrom creates a builder that continues from an existing pool.
// Indices of the pool's entries are preserved.
func NewBuilderFrom(p *Pool) *Builder {
	b := &Builder{
		entries: make([]Entry, len(p.entries), len(p.entries)+16),
		index:   make(map[entryKey]int, len(p.entries)),
	}
	copy(b.entries, p.entries)
	for i, e := range b.entries {
		if e == nil {
			continue
		}
		if _, dup := b.index[e.key()]; !dup {
			b.index[e.key()] = i
		}
	}
	return b
}

// Count returns the current constant_pool_count: one more than the highest
// index in use.
func (b *Builder) Count() int {
	return len(b.entries)
}

// Entry returns the entry at index i.
func (b *Builder) Entry(i int) (Entry, error) {
	return entryAt(b.entries, i)
}

// Add inserts e, validating that every index it references exists and has
// the right tag. It returns the index of e, existing or new.
func (b *Builder) Add(e Entry) (int, error) {
	if i, ok := b.index[e.key()]; ok {
		return i, nil
	}
	for _, r := range e.refs() {
		if err := checkRef(b.entries, r); err != nil {
			return 0, err
		}
	}
	if u, ok := e.(Utf8); ok {
		if n := modifiedUTF8Len(u.Value); n > maxUtf8Bytes {
			return 0, classfile.Errorf(classfile.KindConstruction, "constpool",
				"Utf8 entry of %d bytes exceeds %d", n, maxUtf8Bytes)
		}
	}
	if len(b.entries)+e.Slots() > MaxCount {
		return 0, classfile.Errorf(classfile.KindEncodingOverflow, "constpool",
			"pool is full (%d entries)", len(b.entries))
	}
	i := len(b.entries)
	b.entries = append(b.entries, e)
	if e.Slots() == 2 {
		b.entries = append(b.entries, nil)
	}
	b.index[e.key()] = i
	b.snap = nil
	return i, nil
}

// Lookup returns the index of an entry equal to e, if present.
func (b *Builder) Lookup(e Entry) (int, bool) {
	i, ok := b.index[e.key()]
	return i, ok
}

// Finalize returns an immutable snapshot of the pool. It can be called any
// number of times; without intervening additions it returns the same pool.
func (b *Builder) Finalize() *Pool {
	if b.snap == nil {
		entries := make([]Entry, len(b.entries))
		copy(entries, b.entries)
		b.snap = &Pool{entries: entries}
	}
	return b.snap
}

// ---------------------------------------------------------------------------
// Typed adders
// ---------------------------------------------------------------------------

// AddUtf8 adds a Utf8 entry.
func (b *Builder) AddUtf8(s string) (int, error) {
	return b.Add(Utf8{Value: s})
}

// AddInteger adds an Integer entry.
func (b *Builder) AddInteger(v int32) (int, error) {
	return b.Add(Integer{Value: v})
}

// AddFloat adds a Float entry.
func (b *Builder) AddFloat(v float32) (int, error) {
	return b.Add(Float{Value: v})
}

// AddLong adds a Long entry, which takes two slots.
func (b *Builder) AddLong(v int64) (int, error) {
	return b.Add(Long{Value: v})
}

// AddDouble adds a Double entry, which takes two slots.
func (b *Builder) AddDouble(v float64) (int, error) {
	return b.Add(Double{Value: v})
}

// AddString adds a String entry and the Utf8 it refers to.
func (b *Builder) AddString(s string) (int, error) {
	u, err := b.AddUtf8(s)
	if err != nil {
		return 0, err
	}
	return b.Add(String{StringIndex: uint16(u)})
}

// AddClass adds a Class entry. Dotted names are converted to the internal
// slash form.
func (b *Builder) AddClass(name string) (int, error) {
	if name == "" {
		return 0, classfile.Errorf(classfile.KindConstruction, "constpool", "empty class name")
	}
	u, err := b.AddUtf8(strings.ReplaceAll(name, ".", "/"))
	if err != nil {
		return 0, err
	}
	return b.Add(Class{NameIndex: uint16(u)})
}

// AddArrayClass adds a Class entry naming an array type; its name is the
// array descriptor, e.g. "[[I".
func (b *Builder) AddArrayClass(t jtype.ArrayType) (int, error) {
	u, err := b.AddUtf8(t.Descriptor())
	if err != nil {
		return 0, err
	}
	return b.Add(Class{NameIndex: uint16(u)})
}

// AddClassOf adds the Class entry for a reference type, choosing the array
// or object shape.
func (b *Builder) AddClassOf(t jtype.Type) (int, error) {
	switch rt := t.(type) {
	case jtype.ArrayType:
		return b.AddArrayClass(rt)
	case jtype.ObjectType:
		return b.AddClass(rt.InternalName())
	default:
		return 0, classfile.Errorf(classfile.KindConstruction, "constpool", "%v is not a reference type", t)
	}
}

// AddNameAndType adds a NameAndType entry.
func (b *Builder) AddNameAndType(name, descriptor string) (int, error) {
	n, err := b.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	d, err := b.AddUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(NameAndType{NameIndex: uint16(n), DescriptorIndex: uint16(d)})
}

func (b *Builder) memberParts(class, name, descriptor string) (uint16, uint16, error) {
	c, err := b.AddClass(class)
	if err != nil {
		return 0, 0, err
	}
	nt, err := b.AddNameAndType(name, descriptor)
	if err != nil {
		return 0, 0, err
	}
	return uint16(c), uint16(nt), nil
}

// AddFieldref adds a Fieldref entry for class.name:descriptor.
func (b *Builder) AddFieldref(class, name, descriptor string) (int, error) {
	c, nt, err := b.memberParts(class, name, descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(Fieldref{ClassIndex: c, NameAndTypeIndex: nt})
}

// AddMethodref adds a Methodref entry for class.name:descriptor.
func (b *Builder) AddMethodref(class, name, descriptor string) (int, error) {
	c, nt, err := b.memberParts(class, name, descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(Methodref{ClassIndex: c, NameAndTypeIndex: nt})
}

// AddInterfaceMethodref adds an InterfaceMethodref entry.
func (b *Builder) AddInterfaceMethodref(class, name, descriptor string) (int, error) {
	c, nt, err := b.memberParts(class, name, descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(InterfaceMethodref{ClassIndex: c, NameAndTypeIndex: nt})
}

// AddMethodType adds a MethodType entry.
func (b *Builder) AddMethodType(descriptor string) (int, error) {
	d, err := b.AddUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(MethodType{DescriptorIndex: uint16(d)})
}

// AddMethodHandle adds a MethodHandle entry referencing a member ref.
func (b *Builder) AddMethodHandle(kind uint8, refIndex int) (int, error) {
	if kind < RefGetField || kind > RefInvokeInterface {
		return 0, classfile.Errorf(classfile.KindConstruction, "constpool", "invalid method handle kind %d", kind)
	}
	if err := checkIndex(refIndex); err != nil {
		return 0, err
	}
	return b.Add(MethodHandle{RefKind: kind, RefIndex: uint16(refIndex)})
}

// AddInvokeDynamic adds an InvokeDynamic entry.
func (b *Builder) AddInvokeDynamic(bootstrap int, name, descriptor string) (int, error) {
	if bootstrap < 0 || bootstrap > 0xFFFF {
		return 0, classfile.Errorf(classfile.KindConstruction, "constpool", "invalid bootstrap index %d", bootstrap)
	}
	nt, err := b.AddNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	return b.Add(InvokeDynamic{BootstrapIndex: uint16(bootstrap), NameAndTypeIndex: uint16(nt)})
}

// ---------------------------------------------------------------------------
// Typed lookups
// ---------------------------------------------------------------------------

// LookupUtf8 returns the index of a Utf8 entry without adding it.
func (b *Builder) LookupUtf8(s string) (int, bool) {
	return b.Lookup(Utf8{Value: s})
}

// LookupClass returns the index of a Class entry without adding it.
func (b *Builder) LookupClass(name string) (int, bool) {
	u, ok := b.LookupUtf8(strings.ReplaceAll(name, ".", "/"))
	if !ok {
		return 0, false
	}
	return b.Lookup(Class{NameIndex: uint16(u)})
}

// LookupString returns the index of a String entry without adding it.
func (b *Builder) LookupString(s string) (int, bool) {
	u, ok := b.LookupUtf8(s)
	if !ok {
		return 0, false
	}
	return b.Lookup(String{StringIndex: uint16(u)})
}

// LookupNameAndType returns the index of a NameAndType entry without adding it.
func (b *Builder) LookupNameAndType(name, descriptor string) (int, bool) {
	n, ok := b.LookupUtf8(name)
	if !ok {
		return 0, false
	}
	d, ok := b.LookupUtf8(descriptor)
	if !ok {
		return 0, false
	}
	return b.Lookup(NameAndType{NameIndex: uint16(n), DescriptorIndex: uint16(d)})
}

func (b *Builder) lookupMember(class, name, descriptor string, mk func(c, nt uint16) Entry) (int, bool) {
	c, ok := b.LookupClass(class)
	if !ok {
		return 0, false
	}
	nt, ok := b.LookupNameAndType(name, descriptor)
	if !ok {
		return 0, false
	}
	return b.Lookup(mk(uint16(c), uint16(nt)))
}

// LookupFieldref returns the index of a Fieldref entry without adding it.
func (b *Builder) LookupFieldref(class, name, descriptor string) (int, bool) {
	return b.lookupMember(class, name, descriptor, func(c, nt uint16) Entry {
		return Fieldref{ClassIndex: c, NameAndTypeIndex: nt}
	})
}

// LookupMethodref returns the index of a Methodref entry without adding it.
func (b *Builder) LookupMethodref(class, name, descriptor string) (int, bool) {
	return b.lookupMember(class, name, descriptor, func(c, nt uint16) Entry {
		return Methodref{ClassIndex: c, NameAndTypeIndex: nt}
	})
}

// LookupInterfaceMethodref returns the index of an InterfaceMethodref entry
// without adding it.
func (b *Builder) LookupInterfaceMethodref(class, name, descriptor string) (int, bool) {
	return b.lookupMember(class, name, descriptor, func(c, nt uint16) Entry {
		return InterfaceMethodref{ClassIndex: c, NameAndTypeIndex: nt}
	})
}

// ---------------------------------------------------------------------------
// Index validation
// ---------------------------------------------------------------------------

func checkIndex(i int) error {
	if i <= 0 || i >= MaxCount {
		return classfile.Errorf(classfile.KindConstruction, "constpool", "invalid pool index %d", i)
	}
	return nil
}

func entryAt(entries []Entry, i int) (Entry, error) {
	if i <= 0 || i >= len(entries) {
		return nil, classfile.Errorf(classfile.KindConstruction, "constpool",
			"index %d out of range [1, %d)", i, len(entries))
	}
	e := entries[i]
	if e == nil {
		return nil, classfile.Errorf(classfile.KindConstruction, "constpool",
			"index %d is the second slot of a long or double", i)
	}
	return e, nil
}

func checkRef(entries []Entry, r ref) error {
	e, err := entryAt(entries, int(r.index))
	if err != nil {
		return err
	}
	for _, t := range r.tags {
		if e.Tag() == t {
			return nil
		}
	}
	return classfile.Errorf(classfile.KindConstruction, "constpool",
		"index %d is %s, want %v", r.index, e.Tag(), r.tags)
}
