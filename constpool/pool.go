package constpool

import (
	"fmt"
	"strings"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Pool is a finalized, immutable constant pool. Index 0 is reserved, as is
// the slot following each Long and Double.
type Pool struct {
	entries []Entry
}

// Count returns constant_pool_count, one more than the highest valid index.
func (p *Pool) Count() int {
	return len(p.entries)
}

// Entry returns the entry at index i.
func (p *Pool) Entry(i int) (Entry, error) {
	return entryAt(p.entries, i)
}

// Each calls fn for every entry in index order, skipping reserved slots.
func (p *Pool) Each(fn func(index int, e Entry)) {
	for i, e := range p.entries {
		if e != nil {
			fn(i, e)
		}
	}
}

// Encode writes constant_pool_count followed by every entry.
func (p *Pool) Encode(w *classfile.Writer) {
	w.WriteU2(uint16(len(p.entries)))
	for _, e := range p.entries {
		if e != nil {
			e.encode(w)
		}
	}
}

// Bytes returns the encoded pool, count included.
func (p *Pool) Bytes() []byte {
	w := classfile.NewWriter()
	p.Encode(w)
	return w.Bytes()
}

// Read decodes a constant pool, count included, and validates every
// cross-reference.
func Read(r *classfile.Reader) (*Pool, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, classfile.Errorf(classfile.KindMalformed, "constpool", "constant_pool_count is 0")
	}
	entries := make([]Entry, 1, count)
	for len(entries) < int(count) {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, fmt.Errorf("constpool: entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
		if e.Slots() == 2 {
			if len(entries) >= int(count) {
				return nil, classfile.Errorf(classfile.KindMalformed, "constpool",
					"%s at index %d overruns pool of %d", e.Tag(), len(entries)-1, count)
			}
			entries = append(entries, nil)
		}
	}
	for i, e := range entries {
		if e == nil {
			continue
		}
		for _, rf := range e.refs() {
			if err := checkRef(entries, rf); err != nil {
				return nil, &classfile.Error{Kind: classfile.KindMalformed, Op: "constpool",
					Msg: fmt.Sprintf("entry %d", i), Err: err}
			}
		}
	}
	return &Pool{entries: entries}, nil
}

// Parse decodes a pool from a byte slice produced by Bytes.
func Parse(data []byte) (*Pool, error) {
	return Read(classfile.NewReader(data))
}

// ---------------------------------------------------------------------------
// Typed accessors
// ---------------------------------------------------------------------------

// Utf8 returns the text of the Utf8 entry at i.
func (p *Pool) Utf8(i int) (string, error) {
	e, err := p.typed(i, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.(Utf8).Value, nil
}

// ClassName returns the internal name the Class entry at i refers to.
func (p *Pool) ClassName(i int) (string, error) {
	e, err := p.typed(i, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(int(e.(Class).NameIndex))
}

// NameAndType returns the name and descriptor of the NameAndType entry at i.
func (p *Pool) NameAndType(i int) (name, descriptor string, err error) {
	e, err := p.typed(i, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	nt := e.(NameAndType)
	if name, err = p.Utf8(int(nt.NameIndex)); err != nil {
		return "", "", err
	}
	if descriptor, err = p.Utf8(int(nt.DescriptorIndex)); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// Member resolves a Fieldref, Methodref or InterfaceMethodref to its class,
// name and descriptor.
func (p *Pool) Member(i int) (class, name, descriptor string, err error) {
	e, err := p.Entry(i)
	if err != nil {
		return "", "", "", err
	}
	var c, nt uint16
	switch m := e.(type) {
	case Fieldref:
		c, nt = m.ClassIndex, m.NameAndTypeIndex
	case Methodref:
		c, nt = m.ClassIndex, m.NameAndTypeIndex
	case InterfaceMethodref:
		c, nt = m.ClassIndex, m.NameAndTypeIndex
	default:
		return "", "", "", classfile.Errorf(classfile.KindConstruction, "constpool",
			"index %d is %s, not a member reference", i, e.Tag())
	}
	if class, err = p.ClassName(int(c)); err != nil {
		return "", "", "", err
	}
	name, descriptor, err = p.NameAndType(int(nt))
	return class, name, descriptor, err
}

func (p *Pool) typed(i int, tag Tag) (Entry, error) {
	e, err := p.Entry(i)
	if err != nil {
		return nil, err
	}
	if e.Tag() != tag {
		return nil, classfile.Errorf(classfile.KindConstruction, "constpool",
			"index %d is %s, want %s", i, e.Tag(), tag)
	}
	return e, nil
}

// Describe renders the entry at i with its references resolved, the way a
// disassembler prints instruction operands.
func (p *Pool) Describe(i int) string {
	e, err := p.Entry(i)
	if err != nil {
		return fmt.Sprintf("#%d <invalid>", i)
	}
	switch v := e.(type) {
	case Class:
		name, _ := p.Utf8(int(v.NameIndex))
		return name
	case String:
		s, _ := p.Utf8(int(v.StringIndex))
		return fmt.Sprintf("%q", s)
	case NameAndType:
		name, desc, _ := p.NameAndType(i)
		return name + ":" + desc
	case Fieldref, Methodref, InterfaceMethodref:
		class, name, desc, _ := p.Member(i)
		return class + "." + name + ":" + desc
	case MethodType:
		d, _ := p.Utf8(int(v.DescriptorIndex))
		return d
	case MethodHandle:
		return fmt.Sprintf("%d:%s", v.RefKind, p.Describe(int(v.RefIndex)))
	case InvokeDynamic:
		name, desc, _ := p.NameAndType(int(v.NameAndTypeIndex))
		return fmt.Sprintf("#%d:%s:%s", v.BootstrapIndex, name, desc)
	default:
		return fmt.Sprint(e)
	}
}

// String lists the pool, one entry per line.
func (p *Pool) String() string {
	var sb strings.Builder
	p.Each(func(i int, e Entry) {
		fmt.Fprintf(&sb, "#%d = %s %s\n", i, e.Tag(), e)
	})
	return sb.String()
}
