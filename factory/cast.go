package factory

import (
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
)

type castKey struct {
	src, dst jtype.Kind
}

// castTable holds the instructions for every numeric conversion. Sources
// of the int family share the int row because their values already live
// on the stack as int; narrowing a long, float or double to byte, char or
// short goes through int first. A nil entry needs no instruction.
var castTable = func() map[castKey][]instr.Opcode {
	const (
		I = jtype.KindInt
		J = jtype.KindLong
		F = jtype.KindFloat
		D = jtype.KindDouble
		B = jtype.KindByte
		C = jtype.KindChar
		S = jtype.KindShort
	)
	toInt := map[jtype.Kind]instr.Opcode{J: instr.OpL2i, F: instr.OpF2i, D: instr.OpD2i}
	narrow := map[jtype.Kind]instr.Opcode{B: instr.OpI2b, C: instr.OpI2c, S: instr.OpI2s}
	m := map[castKey][]instr.Opcode{
		{I, J}: {instr.OpI2l}, {I, F}: {instr.OpI2f}, {I, D}: {instr.OpI2d},
		{J, I}: {instr.OpL2i}, {J, F}: {instr.OpL2f}, {J, D}: {instr.OpL2d},
		{F, I}: {instr.OpF2i}, {F, J}: {instr.OpF2l}, {F, D}: {instr.OpF2d},
		{D, I}: {instr.OpD2i}, {D, J}: {instr.OpD2l}, {D, F}: {instr.OpD2f},
	}
	for dst, op := range narrow {
		m[castKey{I, dst}] = []instr.Opcode{op}
		for src, via := range toInt {
			m[castKey{src, dst}] = []instr.Opcode{via, op}
		}
	}
	// The remaining int-family sources follow the int row, except where
	// the source range already fits the destination.
	for _, src := range []jtype.Kind{B, C, S} {
		for _, dst := range []jtype.Kind{I, J, F, D, B, C, S} {
			if dst != src {
				m[castKey{src, dst}] = m[castKey{I, dst}]
			}
		}
	}
	m[castKey{B, S}] = nil
	m[castKey{B, I}] = nil
	m[castKey{S, I}] = nil
	m[castKey{C, I}] = nil
	return m
}()

// Cast converts the value on the stack from src to dst. Numeric casts come
// from a static table and yield zero, one or two instructions; reference
// casts yield a checkcast. Boolean converts only to itself.
func (f *Factory) Cast(src, dst jtype.Type) ([]instr.Instruction, error) {
	if jtype.Equal(src, dst) {
		return nil, nil
	}
	if jtype.IsReference(src) && jtype.IsReference(dst) {
		cc, err := f.CheckCast(dst)
		if err != nil {
			return nil, err
		}
		return []instr.Instruction{cc}, nil
	}
	ops, ok := castTable[castKey{src.Kind(), dst.Kind()}]
	if !ok {
		return nil, unsupported("cast to "+dst.String(), src)
	}
	out := make([]instr.Instruction, 0, len(ops))
	for _, op := range ops {
		out = append(out, instr.MustSimple(op))
	}
	return out, nil
}
