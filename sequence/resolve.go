package sequence

import (
	"fmt"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

// MaxCodeLength is the largest code array a method may carry.
const MaxCodeLength = 65535

// Resolve assigns byte positions and branch offsets. Each pass lays out
// the exact switch padding from current lengths, recomputes offsets and
// promotes goto and jsr whose offsets outgrow 16 bits, until a pass
// promotes nothing. Promotion only grows lengths, so the loop ends after at
// most one pass per promotable branch. Conditional branches that do not
// fit are rejected once the layout has settled.
//
// A resolved sequence stays resolved until the next mutation. When Resolve
// fails, branches and switches are restored to their forms before the call.
func (s *Sequence) Resolve() error {
	if s.state == Resolved {
		return nil
	}
	if err := s.checkLinks(); err != nil {
		return err
	}
	s.state = Resolving
	saved := s.saveJumpers()

	passes, end := 0, 0
	for {
		passes++
		if passes > s.maxPasses {
			s.abandon(saved)
			return fmt.Errorf("%w after %d passes", ErrNoConvergence, s.maxPasses)
		}
		end = s.layout()
		if !s.relax() {
			break
		}
	}
	if err := s.checkFits(); err != nil {
		s.abandon(saved)
		return err
	}
	if end > MaxCodeLength {
		s.abandon(saved)
		return classfile.Errorf(classfile.KindEncodingOverflow, "resolve",
			"code length %d exceeds %d", end, MaxCodeLength)
	}

	w := classfile.NewWriter()
	for h := s.head; h != Nil; h = s.occ[h].next {
		if err := s.occ[h].in.Encode(w); err != nil {
			s.abandon(saved)
			return err
		}
	}
	s.code = w.Bytes()
	s.state = Resolved
	log.Debugf("resolved %d instructions into %d bytes in %d passes", s.n, len(s.code), passes)
	return nil
}

// saveJumpers copies every branch and switch so a failed Resolve can
// put them back.
func (s *Sequence) saveJumpers() map[Handle]instr.Instruction {
	saved := make(map[Handle]instr.Instruction)
	for h := s.head; h != Nil; h = s.occ[h].next {
		if s.occ[h].jumper != nil {
			saved[h] = s.occ[h].in.Clone()
		}
	}
	return saved
}

func (s *Sequence) abandon(saved map[Handle]instr.Instruction) {
	for h, in := range saved {
		s.occ[h].in = in
		s.occ[h].jumper = in.(instr.Jumper)
	}
	s.state = Unresolved
}

// layout assigns positions from current lengths, aligning switches to
// their positions, and returns the end position.
func (s *Sequence) layout() int {
	pos := 0
	for h := s.head; h != Nil; h = s.occ[h].next {
		o := &s.occ[h]
		o.pos = pos
		if a, ok := o.in.(instr.Aligned); ok {
			a.Align(pos)
		}
		pos += o.in.Len()
	}
	return pos
}

// relax writes every branch offset from the current positions and widens
// the promotable branches that no longer fit. It reports whether anything
// grew.
func (s *Sequence) relax() bool {
	grew := false
	for h := s.head; h != Nil; h = s.occ[h].next {
		o := &s.occ[h]
		if o.jumper == nil {
			continue
		}
		for i, t := range o.targets {
			o.jumper.SetOffset(i, s.occ[t].pos-o.pos)
		}
		if o.jumper.Fits() || !o.jumper.Widen() {
			continue
		}
		log.Debugf("promoted %s at %d to %s", h, o.pos, o.in.Opcode())
		grew = true
	}
	return grew
}

// checkFits rejects branches whose settled offsets have no encoding.
func (s *Sequence) checkFits() error {
	for h := s.head; h != Nil; h = s.occ[h].next {
		o := &s.occ[h]
		if o.jumper != nil && !o.jumper.Fits() {
			return classfile.Errorf(classfile.KindEncodingOverflow, o.in.Opcode().String(),
				"offset %d at position %d has no wide form", o.jumper.Offset(0), o.pos)
		}
	}
	return nil
}

// checkLinks rejects sequences with unset or stale branch targets and
// metadata ranges whose ends are out of order.
func (s *Sequence) checkLinks() error {
	for h := s.head; h != Nil; h = s.occ[h].next {
		for i, t := range s.occ[h].targets {
			if !s.Valid(t) {
				return classfile.Errorf(classfile.KindGraphConsistency, "resolve",
					"%s target %d of %s is unset", s.occ[h].in.Opcode(), i, h)
			}
		}
	}
	for _, e := range s.handlers {
		if !s.before(e.start, e.end) {
			return classfile.Errorf(classfile.KindGraphConsistency, "resolve",
				"exception handler range %s..%s is reversed", e.start, e.end)
		}
	}
	for _, l := range s.locals {
		if !s.before(l.start, l.end) {
			return classfile.Errorf(classfile.KindGraphConsistency, "resolve",
				"local variable %s range %s..%s is reversed", l.name, l.start, l.end)
		}
	}
	return nil
}

// before reports whether a is b or precedes it.
func (s *Sequence) before(a, b Handle) bool {
	for h := a; h != Nil; h = s.occ[h].next {
		if h == b {
			return true
		}
	}
	return false
}

// Bytes returns a copy of the resolved code array.
func (s *Sequence) Bytes() ([]byte, error) {
	if s.state != Resolved {
		return nil, ErrNotResolved
	}
	return append([]byte(nil), s.code...), nil
}

// Position returns the byte position of h in the resolved code array.
func (s *Sequence) Position(h Handle) (int, error) {
	if s.state != Resolved {
		return 0, ErrNotResolved
	}
	if !s.Valid(h) {
		return 0, s.errInvalid("position", h)
	}
	return s.occ[h].pos, nil
}

// Positions returns the byte position of every occurrence in order.
func (s *Sequence) Positions() ([]int, error) {
	if s.state != Resolved {
		return nil, ErrNotResolved
	}
	out := make([]int, 0, s.n)
	for h := s.head; h != Nil; h = s.occ[h].next {
		out = append(out, s.occ[h].pos)
	}
	return out, nil
}

// At returns the occurrence starting at byte position pos of the resolved
// code array.
func (s *Sequence) At(pos int) (Handle, bool) {
	if s.state != Resolved {
		return Nil, false
	}
	for h := s.head; h != Nil; h = s.occ[h].next {
		if s.occ[h].pos == pos {
			return h, true
		}
		if s.occ[h].pos > pos {
			break
		}
	}
	return Nil, false
}
