package instr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

func encode(t *testing.T, in Instruction) []byte {
	t.Helper()
	w := classfile.NewWriter()
	if err := in.Encode(w); err != nil {
		t.Fatalf("%s: Encode: %v", in, err)
	}
	return w.Bytes()
}

func TestOpcodeTable(t *testing.T) {
	ops := AllOpcodes()
	if len(ops) != 0xCA {
		t.Errorf("defined opcodes = %d, want %d", len(ops), 0xCA)
	}
	for _, op := range ops {
		got, ok := Lookup(op.String())
		if !ok || got != op {
			t.Errorf("Lookup(%q) = %v, %v; want %v", op.String(), got, ok, op)
		}
	}
	if Opcode(0xCA).String() != "UNKNOWN_CA" {
		t.Errorf("Opcode(0xCA).String() = %q", Opcode(0xCA).String())
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup of unknown mnemonic succeeded")
	}

	tests := []struct {
		op   Opcode
		name string
		len  int
	}{
		{OpNop, "nop", 1},
		{OpIload0, "iload_0", 1},
		{OpLdc2W, "ldc2_w", 3},
		{OpIfIcmpge, "if_icmpge", 3},
		{OpGotoW, "goto_w", 5},
		{OpInvokeinterface, "invokeinterface", 5},
		{OpMultianewarray, "multianewarray", 4},
		{OpTableswitch, "tableswitch", -1},
		{OpJsrW, "jsr_w", 5},
	}
	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name || info.Len != tt.len {
			t.Errorf("0x%02X info = %s/%d, want %s/%d", uint8(tt.op), info.Name, info.Len, tt.name, tt.len)
		}
	}

	if !OpIfnull.IsBranch() || OpTableswitch.IsBranch() || OpIadd.IsBranch() {
		t.Error("IsBranch misclassifies")
	}
	if !OpReturn.IsReturn() || !OpIreturn.IsReturn() || OpAthrow.IsReturn() {
		t.Error("IsReturn misclassifies")
	}
}

func TestRoundTrip(t *testing.T) {
	mk := func(in Instruction, err error) Instruction {
		t.Helper()
		if err != nil {
			t.Fatalf("construct: %v", err)
		}
		return in
	}
	br := func(op Opcode, off int) Instruction {
		b := MustBranch(op)
		b.SetOffset(0, off)
		return b
	}
	wideGoto := MustBranch(OpGoto)
	wideGoto.Widen()
	wideGoto.SetOffset(0, -32769)

	tests := []Instruction{
		MustSimple(OpIadd),
		MustSimple(OpAconstNull),
		mk(NewBipush(-128)),
		mk(NewBipush(127)),
		mk(NewSipush(-32768)),
		mk(NewSipush(32767)),
		mk(NewLdc(255)),
		mk(NewLdc(256)),
		mk(NewPoolRef(OpGetstatic, 65535)),
		mk(NewPoolRef(OpLdc2W, 7)),
		mk(NewLocal(OpIload, 0)),
		mk(NewLocal(OpAstore, 3)),
		mk(NewLocal(OpDload, 255)),
		mk(NewLocal(OpLstore, 256)),
		mk(NewLocal(OpRet, 2)),
		mk(NewLocal(OpRet, 1000)),
		mk(NewIinc(255, 127)),
		mk(NewIinc(256, -32768)),
		mk(NewIinc(3, 32767)),
		br(OpIfeq, 32767),
		br(OpIfIcmplt, -32768),
		br(OpGotoW, 32768),
		wideGoto,
		mk(NewInvokeInterface(12, 3)),
		mk(NewInvokeDynamic(9)),
		mk(NewMultiANewArray(4, 3)),
		mk(NewNewArray(ArrayLong)),
	}
	for _, in := range tests {
		data := encode(t, in)
		if len(data) != in.Len() {
			t.Errorf("%s: encoded %d bytes, Len() = %d", in, len(data), in.Len())
		}
		out, err := Decode(classfile.NewReader(data))
		if err != nil {
			t.Errorf("%s: Decode: %v", in, err)
			continue
		}
		if out.Opcode() != in.Opcode() {
			t.Errorf("%s: decoded opcode %s", in, out.Opcode())
		}
		if again := encode(t, out); !bytes.Equal(again, data) {
			t.Errorf("%s: re-encoded % X, want % X", in, again, data)
		}
	}
}

func TestLocalFormSelection(t *testing.T) {
	l, err := NewLocal(OpIload, 0)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		index int
		op    Opcode
		len   int
	}{
		{0, OpIload0, 1},
		{3, OpIload3, 1},
		{4, OpIload, 2},
		{255, OpIload, 2},
		{256, OpIload, 4},
		{65535, OpIload, 4},
		{10, OpIload, 2},
		{2, OpIload2, 1},
	}
	for _, tt := range tests {
		if err := l.SetLocalIndex(tt.index); err != nil {
			t.Fatalf("SetLocalIndex(%d): %v", tt.index, err)
		}
		if l.Opcode() != tt.op || l.Len() != tt.len {
			t.Errorf("index %d: %s/%d, want %s/%d", tt.index, l.Opcode(), l.Len(), tt.op, tt.len)
		}
		// Setting the same index again changes nothing.
		l.SetLocalIndex(tt.index)
		if l.Opcode() != tt.op || l.Len() != tt.len {
			t.Errorf("index %d again: %s/%d", tt.index, l.Opcode(), l.Len())
		}
	}

	if got := encode(t, mustLocal(t, OpIstore, 256)); !bytes.Equal(got, []byte{0xC4, 0x36, 0x01, 0x00}) {
		t.Errorf("wide istore 256 = % X", got)
	}
	if got := mustLocal(t, OpLload3, 3).Opcode(); got != OpLload3 {
		t.Errorf("compact input opcode = %s, want lload_3", got)
	}
	if got := mustLocal(t, OpAstore1, 7).Opcode(); got != OpAstore {
		t.Errorf("astore_1 family at 7 = %s, want astore", got)
	}
	if r := mustLocal(t, OpRet, 0); r.Len() != 2 {
		t.Errorf("ret 0 length = %d, want 2", r.Len())
	}
}

func mustLocal(t *testing.T, op Opcode, index int) *LocalVariable {
	t.Helper()
	l, err := NewLocal(op, index)
	if err != nil {
		t.Fatalf("NewLocal(%s, %d): %v", op, index, err)
	}
	return l
}

func TestIincForm(t *testing.T) {
	tests := []struct {
		index, inc int
		wide       bool
	}{
		{0, 0, false},
		{255, 127, false},
		{255, -128, false},
		{256, 0, true},
		{0, 128, true},
		{0, -129, true},
	}
	for _, tt := range tests {
		i, err := NewIinc(tt.index, tt.inc)
		if err != nil {
			t.Fatalf("NewIinc(%d, %d): %v", tt.index, tt.inc, err)
		}
		if i.Wide() != tt.wide {
			t.Errorf("iinc %d %d wide = %v, want %v", tt.index, tt.inc, i.Wide(), tt.wide)
		}
	}
}

func TestBranchPromotion(t *testing.T) {
	g := MustBranch(OpGoto)
	g.SetOffset(0, 32767)
	if !g.Fits() {
		t.Error("offset 32767 does not fit")
	}
	g.SetOffset(0, 32768)
	if g.Fits() {
		t.Error("offset 32768 fits a 16-bit branch")
	}
	w := classfile.NewWriter()
	if err := g.Encode(w); !errors.Is(err, classfile.ErrEncodingOverflow) {
		t.Errorf("Encode of oversized goto: err = %v", err)
	}
	if !g.Widen() {
		t.Fatal("goto did not widen")
	}
	if g.Opcode() != OpGotoW || g.Len() != 5 || !g.Fits() {
		t.Errorf("widened goto = %s/%d", g.Opcode(), g.Len())
	}
	if g.Widen() {
		t.Error("goto_w widened again")
	}

	c := MustBranch(OpIfne)
	c.SetOffset(0, -32769)
	if c.Widen() {
		t.Error("conditional branch widened")
	}
	if err := c.Encode(classfile.NewWriter()); !errors.Is(err, classfile.ErrEncodingOverflow) {
		t.Errorf("Encode of oversized ifne: err = %v", err)
	}

	j := MustBranch(OpJsr)
	j.Widen()
	if j.Opcode() != OpJsrW {
		t.Errorf("widened jsr = %s", j.Opcode())
	}
	if _, err := NewBranch(OpIadd); !errors.Is(err, classfile.ErrConstruction) {
		t.Errorf("NewBranch(iadd): err = %v", err)
	}
}

func TestSwitchPadding(t *testing.T) {
	s, err := NewTableSwitch(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	for pos, want := range []int{3, 2, 1, 0, 3} {
		s.Align(pos)
		if s.Padding() != want {
			t.Errorf("padding at %d = %d, want %d", pos, s.Padding(), want)
		}
		if s.Len() > s.MaxLen() {
			t.Errorf("Len %d exceeds MaxLen %d", s.Len(), s.MaxLen())
		}
	}

	l, err := NewLookupSwitch([]int32{30, -5, 10})
	if err != nil {
		t.Fatal(err)
	}
	keys := l.Keys()
	if keys[0] != -5 || keys[1] != 10 || keys[2] != 30 {
		t.Errorf("keys = %v, want sorted", keys)
	}
	if _, err := NewLookupSwitch([]int32{1, 2, 1}); err == nil {
		t.Error("duplicate lookupswitch keys accepted")
	}
	if _, err := NewTableSwitch(5, 4); err == nil {
		t.Error("tableswitch with low > high accepted")
	}

	// Place each switch after one nop so padding is 2 and decode the stream.
	for _, sw := range []*Switch{s, l} {
		sw.Align(1)
		for i := 0; i < sw.NumTargets(); i++ {
			sw.SetOffset(i, 100+i)
		}
		w := classfile.NewWriter()
		w.WriteU1(uint8(OpNop))
		if err := sw.Encode(w); err != nil {
			t.Fatal(err)
		}
		list, pos, err := DecodeAll(w.Bytes())
		if err != nil {
			t.Fatalf("%s: DecodeAll: %v", sw.Opcode(), err)
		}
		if len(list) != 2 || pos[1] != 1 {
			t.Fatalf("%s: decoded %d instructions at %v", sw.Opcode(), len(list), pos)
		}
		got := list[1].(*Switch)
		if got.Padding() != 2 || got.Len() != sw.Len() {
			t.Errorf("%s: padding %d len %d, want 2 and %d", sw.Opcode(), got.Padding(), got.Len(), sw.Len())
		}
		for i := 0; i < got.NumTargets(); i++ {
			if got.Offset(i) != 100+i {
				t.Errorf("%s: offset %d = %d", sw.Opcode(), i, got.Offset(i))
			}
		}
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"negative pool index", second(NewPoolRef(OpGetfield, -1)), classfile.ErrConstruction},
		{"pool index too large", second(NewPoolRef(OpNew, 65536)), classfile.ErrEncodingOverflow},
		{"wrong pool opcode", second(NewPoolRef(OpIadd, 1)), classfile.ErrConstruction},
		{"zero dimensions", second(NewMultiANewArray(1, 0)), classfile.ErrConstruction},
		{"zero count", second(NewInvokeInterface(1, 0)), classfile.ErrConstruction},
		{"bipush range", second(NewBipush(128)), classfile.ErrConstruction},
		{"sipush range", second(NewSipush(-32769)), classfile.ErrConstruction},
		{"newarray type", second(NewNewArray(3)), classfile.ErrConstruction},
		{"negative local", second(NewLocal(OpIload, -1)), classfile.ErrConstruction},
		{"local too large", second(NewLocal(OpIload, 65536)), classfile.ErrEncodingOverflow},
		{"not a local op", second(NewLocal(OpIadd, 1)), classfile.ErrConstruction},
		{"iinc increment", second(NewIinc(1, 40000)), classfile.ErrConstruction},
		{"simple with operands", second(NewSimple(OpBipush)), classfile.ErrConstruction},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func second(_ any, err error) error { return err }

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"undefined opcode", []byte{0xCA}},
		{"truncated sipush", []byte{0x11, 0x00}},
		{"wide iadd", []byte{0xC4, 0x60, 0x00, 0x01}},
		{"bad newarray type", []byte{0xBC, 0x02}},
		{"invokeinterface reserved byte", []byte{0xB9, 0x00, 0x01, 0x01, 0x07}},
		{"lookupswitch unsorted", []byte{0xAB, 0, 0, 0,
			0, 0, 0, 0, // default
			0, 0, 0, 2, // npairs
			0, 0, 0, 5, 0, 0, 0, 0,
			0, 0, 0, 1, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		_, _, err := DecodeAll(tt.code)
		if !errors.Is(err, classfile.ErrMalformed) {
			t.Errorf("%s: err = %v, want malformed", tt.name, err)
		}
	}
}

func TestClone(t *testing.T) {
	l := mustLocal(t, OpAload, 5)
	c := l.Clone().(*LocalVariable)
	c.SetLocalIndex(300)
	if l.LocalIndex() != 5 {
		t.Errorf("original index changed to %d", l.LocalIndex())
	}

	s, _ := NewLookupSwitch([]int32{1, 2})
	sc := s.Clone().(*Switch)
	sc.SetOffset(1, 40)
	if s.Offset(1) != 0 {
		t.Error("switch clone shares offsets")
	}
}
