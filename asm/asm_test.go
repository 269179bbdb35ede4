package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/snapshot"
)

func assemble(t *testing.T, src string) []*snapshot.Method {
	t.Helper()
	methods, err := Assemble("test.j", []byte(src), Options{Class: "demo/Calc", MaxStack: 8})
	require.NoError(t, err)
	return methods
}

func TestAssembleBranches(t *testing.T) {
	methods := assemble(t, `
.method static max (II)I
.limit stack 2
    iload_0
    iload_1
    if_icmpge first   # forward reference
    iload_1
    ireturn
first:
    iload_0
    ireturn
.end method
`)
	require.Len(t, methods, 1)
	m := methods[0]
	require.Equal(t, "demo/Calc", m.Class)
	require.Equal(t, "max", m.Name)
	require.True(t, m.Static)
	require.Equal(t, 2, m.MaxStack)
	require.Equal(t, 2, m.MaxLocals)
	require.Equal(t, []byte{0x1A, 0x1B, 0xA2, 0x00, 0x05, 0x1B, 0xAC, 0x1A, 0xAC}, m.Code)
}

func TestAssembleMemberReferences(t *testing.T) {
	methods := assemble(t, `
.class demo/Hello
.method static main ([Ljava/lang/String;)V
    getstatic java/lang/System out Ljava/io/PrintStream;
    ldc "hi there"
    invokevirtual java/io/PrintStream println (Ljava/lang/String;)V
    return
.end method
`)
	require.Len(t, methods, 1)
	m := methods[0]
	require.Equal(t, "demo/Hello", m.Class)
	require.Equal(t, 8, m.MaxStack)
	require.Len(t, m.Code, 9)

	pool, err := m.ConstantPool()
	require.NoError(t, err)
	code, _, err := instr.DecodeAll(m.Code)
	require.NoError(t, err)
	require.Len(t, code, 4)

	class, name, desc, err := pool.Member(code[0].(instr.PoolIndexed).PoolIndex())
	require.NoError(t, err)
	require.Equal(t, []string{"java/lang/System", "out", "Ljava/io/PrintStream;"}, []string{class, name, desc})

	class, name, desc, err = pool.Member(code[2].(instr.PoolIndexed).PoolIndex())
	require.NoError(t, err)
	require.Equal(t, []string{"java/io/PrintStream", "println", "(Ljava/lang/String;)V"}, []string{class, name, desc})
	require.Equal(t, instr.OpLdc, code[1].Opcode())
}

func TestAssembleSwitches(t *testing.T) {
	methods := assemble(t, `
.method static pick (I)I
    iload_0
    lookupswitch { 1: one  10: ten  default: other }
one:
    iconst_1
    ireturn
ten:
    bipush 10
    ireturn
other:
    iconst_m1
    ireturn
.end method

.method static dense (I)I
    iload_0
    tableswitch {
        0: zero
        2: two
        default: other
    }
zero:
two:
    iconst_0
    ireturn
other:
    iconst_1
    ireturn
.end method
`)
	require.Len(t, methods, 2)

	pick := methods[0]
	require.Len(t, pick.Code, 35)
	code, offsets, err := instr.DecodeAll(pick.Code)
	require.NoError(t, err)
	sw := code[1].(*instr.Switch)
	require.Equal(t, 1, offsets[1])
	require.Equal(t, 2, sw.Padding())
	require.Equal(t, []int32{1, 10}, sw.Keys())
	require.Equal(t, 32, sw.Offset(0))
	require.Equal(t, 27, sw.Offset(1))
	require.Equal(t, 29, sw.Offset(2))

	dense := methods[1]
	code, _, err = instr.DecodeAll(dense.Code)
	require.NoError(t, err)
	sw = code[1].(*instr.Switch)
	require.Equal(t, instr.OpTableswitch, sw.Opcode())
	require.Equal(t, []int32{0, 1, 2}, sw.Keys())
	// Key 1 is a gap and falls through to the default.
	require.Equal(t, sw.Offset(0), sw.Offset(2))
	require.Equal(t, sw.Offset(1), sw.Offset(3))

	// Both methods index the same shared pool.
	require.Equal(t, pick.Pool, dense.Pool)
}

func TestAssembleCatchAndLines(t *testing.T) {
	methods := assemble(t, `
.method run ()V
start:
.line 3
    aload_0
    invokevirtual demo/Calc work ()V
end:
    return
handler:
    pop
    return
.catch java/lang/Exception from start to end using handler
.catch all from start to end using handler
.end method
`)
	m := methods[0]
	require.False(t, m.Static)
	require.Equal(t, 1, m.MaxLocals)
	require.Equal(t, []snapshot.LineEntry{{StartPC: 0, Line: 3}}, m.Lines)
	require.Len(t, m.Exceptions, 2)

	e := m.Exceptions[0]
	require.Equal(t, 0, e.StartPC)
	require.Equal(t, 4, e.EndPC)
	require.Equal(t, 5, e.HandlerPC)

	pool, err := m.ConstantPool()
	require.NoError(t, err)
	name, err := pool.ClassName(e.CatchType)
	require.NoError(t, err)
	require.Equal(t, "java/lang/Exception", name)
	require.Equal(t, 0, m.Exceptions[1].CatchType)
}

func TestAssembleConstantsAndWideForms(t *testing.T) {
	methods := assemble(t, `
.method static f ()V
.limit locals 300
    ldc2_w 5L
    ldc2_w 2.5
    ldc 1.5f
    ldc 100000
    ldc java/lang/String
    ldc2_w 0x10L
    iinc 299 1
    iload 256
    newarray int
    multianewarray [[I 2
    return
.end method
`)
	m := methods[0]
	require.Equal(t, 300, m.MaxLocals)
	code, _, err := instr.DecodeAll(m.Code)
	require.NoError(t, err)

	var ops []instr.Opcode
	for _, in := range code {
		ops = append(ops, in.Opcode())
	}
	require.Equal(t, []instr.Opcode{
		instr.OpLdc2W, instr.OpLdc2W, instr.OpLdc, instr.OpLdc, instr.OpLdc, instr.OpLdc2W,
		instr.OpIinc, instr.OpIload, instr.OpNewarray, instr.OpMultianewarray, instr.OpReturn,
	}, ops)
	require.Equal(t, 6, code[6].Len())
	require.Equal(t, 4, code[7].Len())

	pool, err := m.ConstantPool()
	require.NoError(t, err)
	require.Equal(t, "5L", pool.Describe(code[0].(instr.PoolIndexed).PoolIndex()))
	require.Equal(t, "16L", pool.Describe(code[5].(instr.PoolIndexed).PoolIndex()))
}

func TestAssembleCollectsErrors(t *testing.T) {
	src := `.method static broken ()V
    frobnicate
    goto nowhere
    bipush 1000
    return
.end method
`
	_, err := Assemble("bad.j", []byte(src), Options{})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)
	require.Contains(t, err.Error(), "bad.j:2:5: frobnicate: unknown instruction")
	require.Contains(t, err.Error(), "undefined label nowhere")
	require.Contains(t, err.Error(), "bipush")
}

func TestAssembleStructureErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"outside method", "iadd\n", "outside a method"},
		{"unterminated", ".method f ()V\nreturn\n", "no .end method"},
		{"empty", ".method f ()V\n.end method\n", "has no code"},
		{"duplicate label", ".method f ()V\na:\na:\nreturn\n.end method\n", "already defined"},
		{"end label target", ".method f ()V\ngoto done\ndone:\n.end method\n", "marks the end"},
		{"bad descriptor", ".method f (Q)V\n", "invalid descriptor"},
		{"long via ldc", ".method f ()V\nldc 5L\nreturn\n.end method\n", "needs ldc2_w"},
		{"missing default", ".method f ()V\nlookupswitch { 1: a }\na:\nreturn\n.end method\n", "missing default"},
		{"unknown directive", ".frob\n", "unknown directive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble("x.j", []byte(tt.src), Options{})
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseError(t *testing.T) {
	_, err := Parse("p.j", []byte(".method f ()V\n  iload 1 :\n"))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "p.j:2:"), err.Error())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"0x1F", int64(31)},
		{"9L", int64(9)},
		{"1.5f", float32(1.5)},
		{"2.5", 2.5},
		{"1e3", 1000.0},
		{"3d", 3.0},
	}
	for _, tt := range tests {
		got, err := parseNumber(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}
