package instr

import (
	"fmt"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Decode reads one instruction from r. The reader must be positioned
// relative to the start of the code array, since switch padding depends on
// the absolute position. Branch offsets are returned raw; resolving them to
// instructions is the sequence's job. Forms are normalized: a wide or ldc_w
// instruction whose operand fits a shorter form encodes short again.
func Decode(r *classfile.Reader) (Instruction, error) {
	start := r.Pos()
	in, err := decode(r)
	if err != nil {
		if classfile.IsKind(err, classfile.KindMalformed) {
			return nil, err
		}
		return nil, &classfile.Error{Kind: classfile.KindMalformed, Op: "decode",
			Msg: fmt.Sprintf("instruction at %d", start), Err: err}
	}
	return in, nil
}

// DecodeAll reads instructions until the code array is exhausted and
// returns them with their byte positions.
func DecodeAll(code []byte) ([]Instruction, []int, error) {
	r := classfile.NewReader(code)
	var (
		list []Instruction
		pos  []int
	)
	for r.HasMore() {
		p := r.Pos()
		in, err := Decode(r)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, in)
		pos = append(pos, p)
	}
	return list, pos, nil
}

func decode(r *classfile.Reader) (Instruction, error) {
	b, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	op := Opcode(b)
	if !op.Valid() {
		return nil, classfile.Errorf(classfile.KindMalformed, "decode",
			"undefined opcode 0x%02X at %d", b, r.Pos()-1)
	}

	switch op.Info().Format {
	case FormatNone:
		return &Simple{op: op}, nil

	case FormatByte:
		v, err := r.ReadS1()
		if err != nil {
			return nil, err
		}
		return NewBipush(int(v))

	case FormatShort:
		v, err := r.ReadS2()
		if err != nil {
			return nil, err
		}
		return NewSipush(int(v))

	case FormatPoolByte:
		idx, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		return NewLdc(int(idx))

	case FormatPool:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		if op == OpLdcW {
			return NewLdc(int(idx))
		}
		return NewPoolRef(op, int(idx))

	case FormatCompactLocal:
		return NewLocal(op, compactSlot(op))

	case FormatLocal:
		idx, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		return NewLocal(op, int(idx))

	case FormatIinc:
		idx, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		inc, err := r.ReadS1()
		if err != nil {
			return nil, err
		}
		return NewIinc(int(idx), int(inc))

	case FormatBranch:
		off, err := r.ReadS2()
		if err != nil {
			return nil, err
		}
		br := &Branch{base: op}
		br.SetOffset(0, int(off))
		return br, nil

	case FormatBranchWide:
		off, err := r.ReadS4()
		if err != nil {
			return nil, err
		}
		br := MustBranch(op)
		br.SetOffset(0, int(off))
		return br, nil

	case FormatTableSwitch, FormatLookupSwitch:
		return decodeSwitch(r, op)

	case FormatInvokeInterface:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		count, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		if err := expectZero(r, 1); err != nil {
			return nil, err
		}
		return NewInvokeInterface(int(idx), int(count))

	case FormatInvokeDynamic:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		if err := expectZero(r, 2); err != nil {
			return nil, err
		}
		return NewInvokeDynamic(int(idx))

	case FormatNewArray:
		atype, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		return NewNewArray(atype)

	case FormatMultiANewArray:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		dims, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		return NewMultiANewArray(int(idx), int(dims))

	case FormatWide:
		return decodeWide(r)
	}
	return nil, classfile.Errorf(classfile.KindMalformed, "decode", "no decoder for %s", op)
}

func decodeWide(r *classfile.Reader) (Instruction, error) {
	b, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	op := Opcode(b)
	idx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	if op == OpIinc {
		inc, err := r.ReadS2()
		if err != nil {
			return nil, err
		}
		return NewIinc(int(idx), int(inc))
	}
	if op.Info().Format != FormatLocal {
		return nil, classfile.Errorf(classfile.KindMalformed, "decode",
			"wide cannot modify %s", op)
	}
	return NewLocal(op, int(idx))
}

func decodeSwitch(r *classfile.Reader, op Opcode) (*Switch, error) {
	pad := (4 - r.Pos()%4) % 4
	if err := r.Skip(pad); err != nil {
		return nil, err
	}
	def, err := r.ReadS4()
	if err != nil {
		return nil, err
	}

	var (
		s    *Switch
		offs []int32
	)
	if op == OpTableswitch {
		low, err := r.ReadS4()
		if err != nil {
			return nil, err
		}
		high, err := r.ReadS4()
		if err != nil {
			return nil, err
		}
		if s, err = NewTableSwitch(low, high); err != nil {
			return nil, err
		}
		for range s.keys {
			off, err := r.ReadS4()
			if err != nil {
				return nil, err
			}
			offs = append(offs, off)
		}
	} else {
		n, err := r.ReadS4()
		if err != nil {
			return nil, err
		}
		if n < 0 || n > maxSwitchCases {
			return nil, classfile.Errorf(classfile.KindMalformed, "lookupswitch", "pair count %d", n)
		}
		keys := make([]int32, n)
		for i := range keys {
			if keys[i], err = r.ReadS4(); err != nil {
				return nil, err
			}
			off, err := r.ReadS4()
			if err != nil {
				return nil, err
			}
			offs = append(offs, off)
			if i > 0 && keys[i] <= keys[i-1] {
				return nil, classfile.Errorf(classfile.KindMalformed, "lookupswitch",
					"keys not strictly ascending at pair %d", i)
			}
		}
		if s, err = NewLookupSwitch(keys); err != nil {
			return nil, err
		}
	}

	s.pad = pad
	s.offsets[0] = def
	copy(s.offsets[1:], offs)
	return s, nil
}

func expectZero(r *classfile.Reader, n int) error {
	for i := 0; i < n; i++ {
		b, err := r.ReadU1()
		if err != nil {
			return err
		}
		if b != 0 {
			return classfile.Errorf(classfile.KindMalformed, "decode",
				"reserved byte at %d is 0x%02X, want 0", r.Pos()-1, b)
		}
	}
	return nil
}
