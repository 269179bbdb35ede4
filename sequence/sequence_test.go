package sequence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

func nop() instr.Instruction { return instr.MustSimple(instr.OpNop) }

func appendN(t *testing.T, s *Sequence, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.Append(nop()); err != nil {
			t.Fatal(err)
		}
	}
}

func mustAppend(t *testing.T, s *Sequence, in instr.Instruction) Handle {
	t.Helper()
	h, err := s.Append(in)
	if err != nil {
		t.Fatalf("Append(%s): %v", in, err)
	}
	return h
}

func mustBranch(t *testing.T, s *Sequence, op instr.Opcode, target Handle) Handle {
	t.Helper()
	h, err := s.AppendBranch(instr.MustBranch(op), target)
	if err != nil {
		t.Fatalf("AppendBranch(%s): %v", op, err)
	}
	return h
}

func mustResolve(t *testing.T, s *Sequence) []byte {
	t.Helper()
	if err := s.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	code, err := s.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return code
}

func TestResolveWithoutBranches(t *testing.T) {
	s := New()
	mustAppend(t, s, instr.MustSimple(instr.OpIconst5))
	p, _ := instr.NewSipush(1000)
	mustAppend(t, s, p)
	l, _ := instr.NewLocal(instr.OpIstore, 300)
	mustAppend(t, s, l)
	mustAppend(t, s, instr.MustSimple(instr.OpReturn))

	code := mustResolve(t, s)
	want := []byte{0x08, 0x11, 0x03, 0xE8, 0xC4, 0x36, 0x01, 0x2C, 0xB1}
	if !bytes.Equal(code, want) {
		t.Errorf("code = % X, want % X", code, want)
	}
	pos, _ := s.Positions()
	for i, p := range []int{0, 1, 4, 8} {
		if pos[i] != p {
			t.Errorf("position %d = %d, want %d", i, pos[i], p)
		}
	}
}

func TestBackwardBranchPromotion(t *testing.T) {
	s := New()
	target := mustAppend(t, s, nop())
	appendN(t, s, 32799)
	g := mustBranch(t, s, instr.OpGoto, target)
	mustAppend(t, s, instr.MustSimple(instr.OpReturn))

	before := 0
	s.Each(func(_ Handle, in instr.Instruction) { before += in.Len() })

	code := mustResolve(t, s)
	if len(code) != before+2 {
		t.Errorf("code length = %d, want %d", len(code), before+2)
	}
	pos, _ := s.Position(g)
	if pos != 32800 {
		t.Fatalf("goto at %d, want 32800", pos)
	}
	if s.Instruction(g).Opcode() != instr.OpGotoW {
		t.Errorf("branch is %s, want goto_w", s.Instruction(g).Opcode())
	}
	if code[pos] != byte(instr.OpGotoW) {
		t.Errorf("opcode byte = %02X", code[pos])
	}
	if off := int32(binary.BigEndian.Uint32(code[pos+1:])); off != -32800 {
		t.Errorf("offset = %d, want -32800", off)
	}
	if code[len(code)-1] != byte(instr.OpReturn) {
		t.Errorf("last byte = %02X, want return", code[len(code)-1])
	}
}

func TestForwardBranchAtLimitStaysNarrow(t *testing.T) {
	s := New()
	g := mustBranch(t, s, instr.OpGoto, Nil)
	appendN(t, s, 32764)
	target := mustAppend(t, s, instr.MustSimple(instr.OpReturn))
	if err := s.Retarget(g, target); err != nil {
		t.Fatal(err)
	}

	code := mustResolve(t, s)
	if code[0] != byte(instr.OpGoto) {
		t.Errorf("opcode = %02X, want goto", code[0])
	}
	if off := int16(binary.BigEndian.Uint16(code[1:])); off != 32767 {
		t.Errorf("offset = %d, want 32767", off)
	}
}

func TestConditionalBranchOverflow(t *testing.T) {
	s := New()
	target := mustAppend(t, s, nop())
	appendN(t, s, 32800)
	mustBranch(t, s, instr.OpIfeq, target)

	err := s.Resolve()
	if !errors.Is(err, classfile.ErrEncodingOverflow) {
		t.Fatalf("Resolve: err = %v, want encoding overflow", err)
	}
	if s.State() != Unresolved {
		t.Errorf("state after failure = %s", s.State())
	}
	if _, err := s.Bytes(); !errors.Is(err, ErrNotResolved) {
		t.Errorf("Bytes after failure: err = %v", err)
	}
}

func TestConditionalAcrossSwitchAtLimit(t *testing.T) {
	for _, op := range []instr.Opcode{instr.OpIfeq, instr.OpGoto} {
		s := New()
		br := mustBranch(t, s, op, Nil)
		// At position 3 a tableswitch needs no padding: 17 bytes.
		sw, err := instr.NewTableSwitch(0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.AppendBranch(sw, br, br); err != nil {
			t.Fatal(err)
		}
		appendN(t, s, 32747)
		target := mustAppend(t, s, instr.MustSimple(instr.OpReturn))
		if err := s.Retarget(br, target); err != nil {
			t.Fatal(err)
		}

		code := mustResolve(t, s)
		if code[0] != byte(op) {
			t.Errorf("%s: opcode = %02X", op, code[0])
		}
		if off := int16(binary.BigEndian.Uint16(code[1:])); off != 32767 {
			t.Errorf("%s: offset = %d, want 32767", op, off)
		}
		if pos, _ := s.Position(target); pos != 32767 {
			t.Errorf("%s: target at %d, want 32767", op, pos)
		}
	}
}

func TestSharedInstructionIsCopied(t *testing.T) {
	s := New()
	top := mustAppend(t, s, nop())
	g := instr.MustBranch(instr.OpGoto)
	first, err := s.AppendBranch(g, top)
	if err != nil {
		t.Fatal(err)
	}
	appendN(t, s, 2)
	second, err := s.AppendBranch(g, top)
	if err != nil {
		t.Fatal(err)
	}

	code := mustResolve(t, s)
	want := []byte{0x00, 0xA7, 0xFF, 0xFF, 0x00, 0x00, 0xA7, 0xFF, 0xFA}
	if !bytes.Equal(code, want) {
		t.Errorf("code = % X, want % X", code, want)
	}
	if s.Instruction(first) == s.Instruction(second) {
		t.Error("two occurrences share one instruction")
	}
	if g.Offset(0) != 0 {
		t.Errorf("caller's branch offset changed to %d", g.Offset(0))
	}
}

func TestFailedResolveRestoresBranches(t *testing.T) {
	s := New()
	target := mustAppend(t, s, nop())
	appendN(t, s, 32799)
	g := mustBranch(t, s, instr.OpGoto, target)
	mustBranch(t, s, instr.OpIfeq, target)

	if err := s.Resolve(); !errors.Is(err, classfile.ErrEncodingOverflow) {
		t.Fatalf("Resolve: err = %v, want encoding overflow", err)
	}
	if op := s.Instruction(g).Opcode(); op != instr.OpGoto {
		t.Errorf("goto after failed resolve is %s", op)
	}
	if s.State() != Unresolved {
		t.Errorf("state after failure = %s", s.State())
	}
}

func TestPassLimit(t *testing.T) {
	s := New(WithMaxPasses(1))
	target := mustAppend(t, s, nop())
	appendN(t, s, 32800)
	mustBranch(t, s, instr.OpGoto, target)

	if err := s.Resolve(); !errors.Is(err, ErrNoConvergence) {
		t.Errorf("Resolve: err = %v, want ErrNoConvergence", err)
	}
}

func TestRemoveKeepsGraphConsistent(t *testing.T) {
	s := New()
	a := mustAppend(t, s, instr.MustSimple(instr.OpIconst0))
	b := mustAppend(t, s, instr.MustSimple(instr.OpPop))
	br := mustBranch(t, s, instr.OpGoto, b)

	err := s.Remove(b)
	if !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Fatalf("Remove of targeted occurrence: err = %v", err)
	}
	if s.Len() != 3 || !s.Valid(b) {
		t.Error("failed Remove changed the sequence")
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify after failed Remove: %v", err)
	}

	if err := s.Retarget(br, a); err != nil {
		t.Fatal(err)
	}
	if s.IsTargeted(b) {
		t.Error("old target still has targeters")
	}
	if err := s.Remove(b); err != nil {
		t.Fatalf("Remove after retarget: %v", err)
	}
	if s.Valid(b) || s.Len() != 2 || s.Next(a) != br {
		t.Errorf("after Remove: len %d, next(a) = %s", s.Len(), s.Next(a))
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}

	// Removing the branch drops it from its target's targeters.
	if err := s.Remove(br); err != nil {
		t.Fatal(err)
	}
	if s.IsTargeted(a) {
		t.Error("removed branch still listed as targeter")
	}
	if err := s.Remove(b); !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Errorf("Remove of stale handle: err = %v", err)
	}
}

func TestRedirectAndClearTargeters(t *testing.T) {
	s := New()
	start := mustAppend(t, s, instr.MustSimple(instr.OpIconst1))
	old := mustAppend(t, s, instr.MustSimple(instr.OpPop))
	replacement := mustAppend(t, s, instr.MustSimple(instr.OpReturn))
	g := mustBranch(t, s, instr.OpGoto, old)
	eh, err := s.AddExceptionHandler(start, old, old, 0)
	if err != nil {
		t.Fatal(err)
	}

	if n := len(s.Targeters(old)); n != 2 {
		t.Fatalf("targeters of old = %d, want 2", n)
	}
	if err := s.RedirectTargeters(old, replacement); err != nil {
		t.Fatal(err)
	}
	if s.Target(g, 0) != replacement || eh.End() != replacement || eh.Handler() != replacement {
		t.Errorf("redirect missed a targeter: branch %s, end %s, handler %s",
			s.Target(g, 0), eh.End(), eh.Handler())
	}
	if s.IsTargeted(old) {
		t.Error("old still targeted")
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := s.Remove(old); err != nil {
		t.Errorf("Remove after redirect: %v", err)
	}

	cleared, err := s.ClearTargeters(replacement)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 2 {
		t.Errorf("cleared %d targeters, want 2", len(cleared))
	}
	if s.Target(g, 0) != Nil || len(s.ExceptionHandlers()) != 0 {
		t.Error("ClearTargeters left links behind")
	}
	if err := s.Resolve(); !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Errorf("Resolve with unset target: err = %v", err)
	}
	if err := s.Verify(); err == nil || !strings.Contains(err.Error(), "unset") {
		t.Errorf("Verify = %v, want unset target report", err)
	}
}

func TestMutationAfterResolve(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(*Sequence) { calls++ })

	h := mustAppend(t, s, instr.MustSimple(instr.OpIconst0))
	mustAppend(t, s, instr.MustSimple(instr.OpIreturn))
	code := mustResolve(t, s)
	if s.State() != Resolved {
		t.Fatalf("state = %s", s.State())
	}
	snapshot := append([]byte(nil), code...)
	code[0] = 0xFF

	if _, err := s.InsertBefore(h, nop()); err != nil {
		t.Fatal(err)
	}
	if s.State() != Unresolved {
		t.Errorf("state after insert = %s, want unresolved", s.State())
	}
	if _, err := s.Bytes(); !errors.Is(err, ErrNotResolved) {
		t.Errorf("Bytes: err = %v, want ErrNotResolved", err)
	}
	if _, err := s.Position(h); !errors.Is(err, ErrNotResolved) {
		t.Errorf("Position: err = %v, want ErrNotResolved", err)
	}

	again := mustResolve(t, s)
	if !bytes.Equal(again[1:], snapshot) || again[0] != byte(instr.OpNop) {
		t.Errorf("re-resolved code = % X", again)
	}
	if calls != 0 {
		t.Errorf("observer calls before NotifyChanged = %d, want 0", calls)
	}

	// In-place edits need an explicit notification.
	l, _ := instr.NewLocal(instr.OpIload, 0)
	lh := mustAppend(t, s, l)
	mustResolve(t, s)
	s.Instruction(lh).(*instr.LocalVariable).SetLocalIndex(300)
	s.NotifyChanged()
	if s.State() != Unresolved {
		t.Error("NotifyChanged did not invalidate")
	}
	if calls != 1 {
		t.Errorf("observer calls = %d, want 1", calls)
	}
	code = mustResolve(t, s)
	if n := len(code); n != 3+4 {
		t.Errorf("code length after widening local = %d, want 7", n)
	}
}

func TestAppendSwitch(t *testing.T) {
	s := New()
	mustAppend(t, s, nop())

	// Dense keys build a table.
	sw, err := s.AppendSwitch([]int32{3, 1, 2}, []Handle{Nil, Nil, Nil}, Nil)
	if err != nil {
		t.Fatal(err)
	}
	c1 := mustAppend(t, s, instr.MustSimple(instr.OpIconst1))
	c2 := mustAppend(t, s, instr.MustSimple(instr.OpIconst2))
	c3 := mustAppend(t, s, instr.MustSimple(instr.OpIconst3))
	def := mustAppend(t, s, instr.MustSimple(instr.OpIreturn))
	for i, h := range []Handle{def, c1, c2, c3} {
		if err := s.RetargetCase(sw, i, h); err != nil {
			t.Fatal(err)
		}
	}
	if s.Instruction(sw).Opcode() != instr.OpTableswitch {
		t.Errorf("dense keys gave %s", s.Instruction(sw).Opcode())
	}

	code := mustResolve(t, s)
	ts := s.Instruction(sw).(*instr.Switch)
	if ts.Padding() != 2 {
		t.Errorf("padding at position 1 = %d, want 2", ts.Padding())
	}
	p1, _ := s.Position(c1)
	if p1 != 1+ts.Len() {
		t.Errorf("first case at %d, want %d", p1, 1+ts.Len())
	}
	// default offset at bytes 4..7, relative to the switch at 1
	pd, _ := s.Position(def)
	if off := int32(binary.BigEndian.Uint32(code[4:])); int(off) != pd-1 {
		t.Errorf("default offset = %d, want %d", off, pd-1)
	}

	// Sparse keys build a lookup, keyed in ascending order.
	s2 := New()
	x := mustAppend(t, s2, instr.MustSimple(instr.OpIconst0))
	y := mustAppend(t, s2, instr.MustSimple(instr.OpIconst1))
	lh, err := s2.AppendSwitch([]int32{1000, 1}, []Handle{y, x}, x)
	if err != nil {
		t.Fatal(err)
	}
	ls := s2.Instruction(lh).(*instr.Switch)
	if ls.Opcode() != instr.OpLookupswitch {
		t.Fatalf("sparse keys gave %s", ls.Opcode())
	}
	if s2.Target(lh, 1) != x || s2.Target(lh, 2) != y {
		t.Errorf("lookup targets = %v", s2.Targets(lh))
	}

	// Gaps in a table go to the default.
	s3 := New()
	d := mustAppend(t, s3, nop())
	k := mustAppend(t, s3, nop())
	th, err := s3.AppendSwitch([]int32{0, 2, 3, 4}, []Handle{k, k, k, k}, d)
	if err != nil {
		t.Fatal(err)
	}
	if s3.Instruction(th).Opcode() != instr.OpTableswitch || s3.Target(th, 2) != d {
		t.Errorf("gap target = %s, want default %s", s3.Target(th, 2), d)
	}
	if _, err := s3.AppendSwitch([]int32{1, 1}, []Handle{k, k}, d); err == nil {
		t.Error("duplicate switch keys accepted")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	code := []byte{
		0x1B,             // 0: iload_1
		0x99, 0x00, 0x07, // 1: ifeq 8
		0x04,             // 4: iconst_1
		0xA7, 0x00, 0x04, // 5: goto 9
		0x03, // 8: iconst_0
		0xAC, // 9: ireturn
	}
	s, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Len() != 6 {
		t.Fatalf("Len = %d, want 6", s.Len())
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := s.DecodeTables([]ExceptionEntry{{StartPC: 0, EndPC: 5, HandlerPC: 8}},
		[]LineEntry{{StartPC: 0, Line: 10}, {StartPC: 8, Line: 12}}); err != nil {
		t.Fatalf("DecodeTables: %v", err)
	}

	got := mustResolve(t, s)
	if !bytes.Equal(got, code) {
		t.Errorf("re-encoded % X, want % X", got, code)
	}
	ifeq := s.Next(s.First())
	tpos, _ := s.Position(s.Target(ifeq, 0))
	if tpos != 8 {
		t.Errorf("ifeq target at %d, want 8", tpos)
	}

	ex, _ := s.ExceptionTable()
	if len(ex) != 1 || ex[0] != (ExceptionEntry{StartPC: 0, EndPC: 5, HandlerPC: 8}) {
		t.Errorf("exception table = %+v", ex)
	}
	lines, _ := s.LineNumberTable()
	if len(lines) != 2 || lines[1] != (LineEntry{StartPC: 8, Line: 12}) {
		t.Errorf("line table = %+v", lines)
	}

	listing := s.String()
	if !strings.Contains(listing, "1: ifeq 8") || !strings.Contains(listing, "5: goto 9") {
		t.Errorf("listing:\n%s", listing)
	}

	if _, err := Decode([]byte{0xA7, 0x00, 0x02, 0x00}); !errors.Is(err, classfile.ErrMalformed) {
		t.Errorf("branch into operand bytes: err = %v", err)
	}
}

func TestMetadataTables(t *testing.T) {
	s := New()
	start := mustAppend(t, s, instr.MustSimple(instr.OpAconstNull))
	end := mustAppend(t, s, instr.MustSimple(instr.OpAthrow))
	handler := mustAppend(t, s, instr.MustSimple(instr.OpReturn))

	if _, err := s.AddExceptionHandler(start, end, handler, 7); err != nil {
		t.Fatal(err)
	}
	lv, err := s.AddLocalRange("this", "LFoo;", 0, start, handler)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddLineNumber(Handle(99), 1); !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Errorf("line number on invalid handle: err = %v", err)
	}
	if _, err := s.ExceptionTable(); !errors.Is(err, ErrNotResolved) {
		t.Errorf("ExceptionTable before Resolve: err = %v", err)
	}

	mustResolve(t, s)
	ex, _ := s.ExceptionTable()
	if ex[0] != (ExceptionEntry{StartPC: 0, EndPC: 2, HandlerPC: 2, CatchType: 7}) {
		t.Errorf("exception entry = %+v", ex[0])
	}
	locals, _ := s.LocalVariableTable()
	if locals[0].Length != 3 || locals[0].Name != "this" {
		t.Errorf("local entry = %+v", locals[0])
	}

	s.RemoveLocalRange(lv)
	if s.IsTargeted(start) != true {
		t.Error("exception handler no longer targets start")
	}
	if len(s.LocalRanges()) != 0 {
		t.Error("local range not removed")
	}

	// Reversed ranges are rejected at resolve time.
	r := New()
	a := mustAppend(t, r, nop())
	b := mustAppend(t, r, nop())
	r.AddExceptionHandler(b, a, a, 0)
	if err := r.Resolve(); !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Errorf("reversed range: err = %v", err)
	}
}

func TestInsertValidation(t *testing.T) {
	s := New()
	if _, err := s.Append(instr.MustBranch(instr.OpGoto)); err == nil {
		t.Error("branch appended without targets")
	}
	if _, err := s.AppendBranch(instr.MustBranch(instr.OpGoto), Handle(5)); !errors.Is(err, classfile.ErrGraphConsistency) {
		t.Errorf("branch to unknown handle: err = %v", err)
	}
	if _, err := s.InsertBefore(Handle(1), nop()); err == nil {
		t.Error("insert before unknown handle accepted")
	}
	h := mustAppend(t, s, nop())
	first, err := s.InsertBefore(h, instr.MustSimple(instr.OpIconst0))
	if err != nil {
		t.Fatal(err)
	}
	if s.First() != first || s.Last() != h || s.Prev(h) != first {
		t.Errorf("order = %v", s.Handles())
	}
	if _, err := s.InsertBranchBefore(first, instr.MustBranch(instr.OpGoto), h); err != nil {
		t.Fatal(err)
	}
	if got := s.Handles(); len(got) != 3 || got[1] != first {
		t.Errorf("order after branch insert = %v", got)
	}
}
