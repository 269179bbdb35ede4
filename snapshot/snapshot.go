// Package snapshot captures an assembled method as a self-contained,
// content-addressed value: its code, constant pool and attribute tables.
// Snapshots are encoded as canonical CBOR so that equal methods always
// produce equal bytes and equal hashes.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/mohanaraosv/commons-bcel-sub001/constpool"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
	"github.com/mohanaraosv/commons-bcel-sub001/sequence"
)

// Version is the snapshot format version written into every Method.
const Version = 1

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Method is a resolved method body together with the pool it indexes.
type Method struct {
	Version    byte             `cbor:"1,keyasint"`
	Class      string           `cbor:"2,keyasint,omitempty"`
	Name       string           `cbor:"3,keyasint"`
	Descriptor string           `cbor:"4,keyasint"`
	Static     bool             `cbor:"5,keyasint,omitempty"`
	MaxStack   int              `cbor:"6,keyasint"`
	MaxLocals  int              `cbor:"7,keyasint"`
	Code       []byte           `cbor:"8,keyasint"`
	Pool       []byte           `cbor:"9,keyasint"` // encoded pool, count first
	Exceptions []ExceptionEntry `cbor:"10,keyasint,omitempty"`
	Lines      []LineEntry      `cbor:"11,keyasint,omitempty"`
}

// ExceptionEntry is one exception table row. EndPC is exclusive.
type ExceptionEntry struct {
	StartPC   int `cbor:"1,keyasint"`
	EndPC     int `cbor:"2,keyasint"`
	HandlerPC int `cbor:"3,keyasint"`
	CatchType int `cbor:"4,keyasint"` // pool index, 0 catches everything
}

// LineEntry maps a code position to a source line.
type LineEntry struct {
	StartPC int `cbor:"1,keyasint"`
	Line    int `cbor:"2,keyasint"`
}

// Header carries the method identity stored alongside the code.
type Header struct {
	Class      string
	Name       string
	Descriptor string
	Static     bool
	MaxStack   int
	// MaxLocals is computed from the code and descriptor when zero.
	MaxLocals int
}

// FromSequence resolves seq if needed and captures it with pool.
func FromSequence(h Header, seq *sequence.Sequence, pool *constpool.Pool) (*Method, error) {
	_, args, err := jtype.ParseMethodDescriptor(h.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", h.Name, err)
	}
	if seq.State() != sequence.Resolved {
		if err := seq.Resolve(); err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", h.Name, err)
		}
	}
	code, err := seq.Bytes()
	if err != nil {
		return nil, err
	}
	exc, err := seq.ExceptionTable()
	if err != nil {
		return nil, err
	}
	lines, err := seq.LineNumberTable()
	if err != nil {
		return nil, err
	}

	m := &Method{
		Version:    Version,
		Class:      h.Class,
		Name:       h.Name,
		Descriptor: h.Descriptor,
		Static:     h.Static,
		MaxStack:   h.MaxStack,
		MaxLocals:  h.MaxLocals,
		Code:       code,
		Pool:       pool.Bytes(),
	}
	for _, e := range exc {
		m.Exceptions = append(m.Exceptions, ExceptionEntry(e))
	}
	for _, l := range lines {
		m.Lines = append(m.Lines, LineEntry(l))
	}
	if m.MaxLocals == 0 {
		m.MaxLocals = MaxLocals(seq, args, h.Static)
	}
	return m, nil
}

// MaxLocals returns the number of local slots a method needs: its
// arguments (plus this for instance methods) or the highest slot any local
// variable instruction touches, whichever is larger.
func MaxLocals(seq *sequence.Sequence, args []jtype.Type, static bool) int {
	n := jtype.ArgumentSlots(args)
	if !static {
		n++
	}
	seq.Each(func(_ sequence.Handle, in instr.Instruction) {
		li, ok := in.(instr.LocalIndexed)
		if !ok {
			return
		}
		top := li.LocalIndex() + slotWidth(in)
		if top > n {
			n = top
		}
	})
	return n
}

func slotWidth(in instr.Instruction) int {
	lv, ok := in.(*instr.LocalVariable)
	if !ok {
		return 1
	}
	switch lv.Base() {
	case instr.OpLload, instr.OpDload, instr.OpLstore, instr.OpDstore:
		return 2
	}
	return 1
}

// ConstantPool parses the embedded pool.
func (m *Method) ConstantPool() (*constpool.Pool, error) {
	return constpool.Parse(m.Pool)
}

// Sequence decodes the code and tables back into an editable sequence.
func (m *Method) Sequence(opts ...sequence.Option) (*sequence.Sequence, error) {
	seq, err := sequence.Decode(m.Code, opts...)
	if err != nil {
		return nil, err
	}
	exc := make([]sequence.ExceptionEntry, len(m.Exceptions))
	for i, e := range m.Exceptions {
		exc[i] = sequence.ExceptionEntry(e)
	}
	lines := make([]sequence.LineEntry, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = sequence.LineEntry(l)
	}
	if err := seq.DecodeTables(exc, lines); err != nil {
		return nil, err
	}
	return seq, nil
}

// Marshal serializes m to canonical CBOR.
func Marshal(m *Method) ([]byte, error) {
	return encMode.Marshal(m)
}

// Unmarshal deserializes a Method from CBOR bytes.
func Unmarshal(data []byte) (*Method, error) {
	var m Method
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal method: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", m.Version)
	}
	return &m, nil
}

// Hash is the SHA-256 of a method's canonical encoding.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Short returns the first 12 hex digits.
func (h Hash) Short() string { return h.String()[:12] }

// ParseHash parses a full hex-encoded hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("snapshot: bad hash %q: %w", s, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("snapshot: bad hash %q: want %d bytes, got %d", s, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ContentHash returns the hash of m's canonical encoding.
func ContentHash(m *Method) (Hash, error) {
	data, err := Marshal(m)
	if err != nil {
		return Hash{}, err
	}
	return HashOf(data), nil
}

// HashOf returns the hash of data already produced by Marshal.
func HashOf(data []byte) Hash { return sha256.Sum256(data) }
