package constpool

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
)

// must returns a checker for (index, error) pairs from the adders.
func must(t *testing.T) func(int, error) int {
	return func(i int, err error) int {
		t.Helper()
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		return i
	}
}

func TestDedup(t *testing.T) {
	b := NewBuilder()

	s1 := must(t)(b.AddUtf8("hello"))
	s2 := must(t)(b.AddUtf8("world"))
	s3 := must(t)(b.AddUtf8("hello"))
	if s1 != 1 || s2 != 2 {
		t.Errorf("first indices = %d, %d; want 1, 2", s1, s2)
	}
	if s3 != s1 {
		t.Errorf("duplicate Utf8 index = %d, want %d", s3, s1)
	}

	m1 := must(t)(b.AddMethodref("java/lang/Object", "<init>", "()V"))
	count := b.Count()
	m2 := must(t)(b.AddMethodref("java.lang.Object", "<init>", "()V"))
	if m1 != m2 {
		t.Errorf("duplicate Methodref = %d, want %d", m2, m1)
	}
	if b.Count() != count {
		t.Errorf("Count grew from %d to %d on duplicate add", count, b.Count())
	}

	// Same name, different kind: distinct entries.
	f := must(t)(b.AddFieldref("java/lang/Object", "<init>", "()V"))
	im := must(t)(b.AddInterfaceMethodref("java/lang/Object", "<init>", "()V"))
	if f == m1 || im == m1 || f == im {
		t.Errorf("Fieldref %d, Methodref %d, InterfaceMethodref %d should differ", f, m1, im)
	}
}

func TestLongAndDoubleTakeTwoSlots(t *testing.T) {
	b := NewBuilder()
	l := must(t)(b.AddLong(42))
	d := must(t)(b.AddDouble(1.5))
	i := must(t)(b.AddInteger(7))

	if l != 1 || d != 3 || i != 5 {
		t.Errorf("indices = %d, %d, %d; want 1, 3, 5", l, d, i)
	}
	if b.Count() != 6 {
		t.Errorf("Count() = %d, want 6", b.Count())
	}
	if _, err := b.Entry(2); err == nil {
		t.Error("Entry(2) (second slot of long) succeeded")
	}
}

func TestFloatKeyedByBits(t *testing.T) {
	b := NewBuilder()
	nan1 := must(t)(b.AddFloat(float32(math.NaN())))
	nan2 := must(t)(b.AddFloat(float32(math.NaN())))
	if nan1 != nan2 {
		t.Errorf("NaN float entries = %d, %d; want equal", nan1, nan2)
	}
	pz := must(t)(b.AddDouble(0))
	nz := must(t)(b.AddDouble(math.Copysign(0, -1)))
	if pz == nz {
		t.Error("+0.0 and -0.0 collapsed into one entry")
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	b := NewBuilder()
	must(t)(b.AddString("abc"))
	must(t)(b.AddClass("java.util.List"))

	p1 := b.Finalize()
	p2 := b.Finalize()
	if p1 != p2 {
		t.Error("Finalize without additions returned a different pool")
	}
	if !bytes.Equal(p1.Bytes(), p2.Bytes()) {
		t.Error("Finalize twice produced different bytes")
	}

	before := p1.Bytes()
	must(t)(b.AddInteger(99))
	p3 := b.Finalize()
	if p3.Count() != p1.Count()+1 {
		t.Errorf("Count after add = %d, want %d", p3.Count(), p1.Count()+1)
	}
	if !bytes.Equal(p1.Bytes(), before) {
		t.Error("earlier snapshot changed after a later addition")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := NewBuilder()
	must(t)(b.AddMethodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V"))
	must(t)(b.AddFieldref("java/lang/System", "out", "Ljava/io/PrintStream;"))
	must(t)(b.AddInterfaceMethodref("java/util/List", "size", "()I"))
	must(t)(b.AddString("héllo\x00wörld \U0001F600"))
	must(t)(b.AddLong(-1))
	must(t)(b.AddDouble(math.Pi))
	must(t)(b.AddFloat(2.5))
	must(t)(b.AddInteger(math.MinInt32))
	must(t)(b.AddArrayClass(jtype.MustArray(jtype.Int, 2)))
	must(t)(b.AddMethodType("(I)V"))
	mref := must(t)(b.AddMethodref("Foo", "bar", "(I)V"))
	must(t)(b.AddMethodHandle(RefInvokeStatic, mref))
	must(t)(b.AddInvokeDynamic(0, "run", "()Ljava/lang/Runnable;"))

	pool := b.Finalize()
	data := pool.Bytes()

	decoded, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if decoded.Count() != pool.Count() {
		t.Fatalf("decoded Count = %d, want %d", decoded.Count(), pool.Count())
	}
	if !bytes.Equal(decoded.Bytes(), data) {
		t.Error("re-encoded decoded pool differs")
	}

	s, _ := b.LookupString("héllo\x00wörld \U0001F600")
	e, err := decoded.Entry(s)
	if err != nil {
		t.Fatalf("Entry(%d): %v", s, err)
	}
	str := e.(String)
	text, _ := decoded.Utf8(int(str.StringIndex))
	if text != "héllo\x00wörld \U0001F600" {
		t.Errorf("decoded string = %q", text)
	}
}

func TestModifiedUTF8Encoding(t *testing.T) {
	got := encodeModifiedUTF8("\x00")
	if !bytes.Equal(got, []byte{0xC0, 0x80}) {
		t.Errorf("NUL encodes to % X, want C0 80", got)
	}
	got = encodeModifiedUTF8("\U0001F600")
	if len(got) != 6 {
		t.Errorf("supplementary char encodes to %d bytes, want 6", len(got))
	}
	if _, err := decodeModifiedUTF8([]byte{0xF0, 0x9F, 0x98, 0x80}); err == nil {
		t.Error("standard 4-byte UTF-8 accepted")
	}
}

func TestMemberDescribe(t *testing.T) {
	b := NewBuilder()
	m := must(t)(b.AddMethodref("java.lang.Object", "toString", "()Ljava/lang/String;"))
	p := b.Finalize()

	class, name, desc, err := p.Member(m)
	if err != nil {
		t.Fatalf("Member: %v", err)
	}
	if class != "java/lang/Object" || name != "toString" || desc != "()Ljava/lang/String;" {
		t.Errorf("Member = %s %s %s", class, name, desc)
	}
	if got := p.Describe(m); got != "java/lang/Object.toString:()Ljava/lang/String;" {
		t.Errorf("Describe = %q", got)
	}
	if !strings.Contains(p.String(), "Methodref") {
		t.Errorf("String() lacks Methodref:\n%s", p)
	}
}

func TestInvalidReferences(t *testing.T) {
	b := NewBuilder()
	u := must(t)(b.AddUtf8("x"))

	tests := []struct {
		name string
		e    Entry
	}{
		{"out of range", Class{NameIndex: 99}},
		{"zero index", String{StringIndex: 0}},
		{"wrong kind", Fieldref{ClassIndex: uint16(u), NameAndTypeIndex: uint16(u)}},
	}
	for _, tt := range tests {
		if _, err := b.Add(tt.e); !errors.Is(err, classfile.ErrConstruction) {
			t.Errorf("%s: err = %v, want construction error", tt.name, err)
		}
	}

	if _, err := b.Entry(-1); err == nil {
		t.Error("Entry(-1) succeeded")
	}
	if _, err := b.AddMethodHandle(0, u); err == nil {
		t.Error("method handle kind 0 accepted")
	}
	if _, err := b.AddUtf8(strings.Repeat("a", maxUtf8Bytes+1)); err == nil {
		t.Error("oversized Utf8 accepted")
	}
	if _, err := b.AddClass(""); err == nil {
		t.Error("empty class name accepted")
	}
}

func TestNewBuilderFrom(t *testing.T) {
	b := NewBuilder()
	c := must(t)(b.AddClass("A"))
	p := b.Finalize()

	nb := NewBuilderFrom(p)
	if got := must(t)(nb.AddClass("A")); got != c {
		t.Errorf("continued builder re-added class at %d, want %d", got, c)
	}
	if got := must(t)(nb.AddClass("B")); got != p.Count()+1 {
		t.Errorf("new class at %d, want %d", got, p.Count()+1)
	}
}

func TestReadRejectsCorruptPools(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"zero count", []byte{0, 0}},
		{"unknown tag", []byte{0, 2, 2}},
		{"truncated", []byte{0, 2, byte(TagInteger), 0, 0}},
		{"long overruns", []byte{0, 2, byte(TagLong), 0, 0, 0, 0, 0, 0, 0, 1}},
		{"dangling class", []byte{0, 2, byte(TagClass), 0, 5}},
	}
	for _, tt := range tests {
		if _, err := Parse(tt.data); err == nil {
			t.Errorf("%s: Parse succeeded", tt.name)
		}
	}
}
