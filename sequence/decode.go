package sequence

import (
	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

// Decode rebuilds a sequence from a code array, turning raw branch offsets
// into links. Every branch must land on an instruction boundary. The
// returned sequence is unresolved.
func Decode(code []byte, opts ...Option) (*Sequence, error) {
	list, positions, err := instr.DecodeAll(code)
	if err != nil {
		return nil, err
	}
	s := New(opts...)
	at := make(map[int]Handle, len(list))
	for i, in := range list {
		h := Handle(len(s.occ))
		o := occurrence{in: in, live: true, pos: positions[i]}
		if j, ok := in.(instr.Jumper); ok {
			o.jumper = j
			o.targets = make([]Handle, j.NumTargets())
		}
		s.occ = append(s.occ, o)
		s.link(h, Nil)
		s.n++
		at[positions[i]] = h
	}

	for h := s.head; h != Nil; h = s.occ[h].next {
		o := &s.occ[h]
		if o.jumper == nil {
			continue
		}
		for i := range o.targets {
			dest := o.pos + o.jumper.Offset(i)
			t, ok := at[dest]
			if !ok {
				return nil, classfile.Errorf(classfile.KindMalformed, o.in.Opcode().String(),
					"branch at %d targets %d, which is not an instruction boundary", o.pos, dest)
			}
			o.targets[i] = t
			s.addTargeter(t, h)
		}
	}
	log.Debugf("decoded %d bytes into %d instructions", len(code), s.n)
	return s, nil
}

// DecodeTables attaches an exception table and line numbers given in byte
// positions to a sequence built by Decode, before it is changed. End
// positions of exception ranges are exclusive, as in the class file.
func (s *Sequence) DecodeTables(exceptions []ExceptionEntry, lines []LineEntry) error {
	byPos := make(map[int]Handle, s.n)
	var last Handle
	for h := s.head; h != Nil; h = s.occ[h].next {
		byPos[s.occ[h].pos] = h
		last = h
	}
	endAt := func(pc int) (Handle, bool) {
		if last != Nil && pc == s.occ[last].pos+s.occ[last].in.Len() {
			return last, true
		}
		h, ok := byPos[pc]
		if !ok {
			return Nil, false
		}
		return s.occ[h].prev, s.occ[h].prev != Nil
	}
	bad := func(what string, pc int) error {
		return classfile.Errorf(classfile.KindMalformed, "decode tables",
			"%s %d is not an instruction boundary", what, pc)
	}

	for _, e := range exceptions {
		start, ok := byPos[e.StartPC]
		if !ok {
			return bad("exception start", e.StartPC)
		}
		end, ok := endAt(e.EndPC)
		if !ok {
			return bad("exception end", e.EndPC)
		}
		handler, ok := byPos[e.HandlerPC]
		if !ok {
			return bad("exception handler", e.HandlerPC)
		}
		if _, err := s.AddExceptionHandler(start, end, handler, e.CatchType); err != nil {
			return err
		}
	}
	for _, l := range lines {
		h, ok := byPos[l.StartPC]
		if !ok {
			return bad("line number start", l.StartPC)
		}
		if _, err := s.AddLineNumber(h, l.Line); err != nil {
			return err
		}
	}
	return nil
}
