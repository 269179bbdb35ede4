package sequence

import (
	"github.com/hashicorp/go-multierror"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// Verify checks that branch targets and the targeter index agree in both
// directions and that metadata only references live occurrences. It
// reports every inconsistency found, not just the first.
func (s *Sequence) Verify() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, classfile.Errorf(classfile.KindGraphConsistency, "verify", format, args...))
	}

	count := 0
	for h := s.head; h != Nil; h = s.occ[h].next {
		count++
		o := &s.occ[h]
		if o.next != Nil && s.occ[o.next].prev != h {
			fail("%s.next is %s but %s.prev is %s", h, o.next, o.next, s.occ[o.next].prev)
		}
		for i, t := range o.targets {
			switch {
			case t == Nil:
				fail("%s %s target %d is unset", h, o.in.Opcode(), i)
			case !s.Valid(t):
				fail("%s %s target %d is removed occurrence %s", h, o.in.Opcode(), i, t)
			case !s.targetedBy(t, h):
				fail("%s targets %s but is missing from its targeters", h, t)
			}
		}
	}
	if count != s.n {
		fail("walked %d occurrences, expected %d", count, s.n)
	}

	for h, set := range s.targeters {
		if !s.Valid(h) {
			fail("targeters recorded for removed occurrence %s", h)
			continue
		}
		set.Each(func(t Targeter) bool {
			switch t := t.(type) {
			case Handle:
				if !s.Valid(t) {
					fail("%s is targeted by removed occurrence %s", h, t)
				} else if !contains(s.occ[t].targets, h) {
					fail("%s lists %s as targeter but it branches elsewhere", h, t)
				}
			case metadata:
				if !contains(t.handles(), h) {
					fail("%s lists a metadata entry that no longer references it", h)
				}
			}
			return false
		})
	}

	for _, e := range s.handlers {
		s.verifyMetadata(e, "exception handler", fail)
	}
	for _, l := range s.lines {
		s.verifyMetadata(l, "line number", fail)
	}
	for _, l := range s.locals {
		s.verifyMetadata(l, "local variable "+l.name, fail)
	}
	return result.ErrorOrNil()
}

func (s *Sequence) verifyMetadata(m metadata, what string, fail func(string, ...any)) {
	for _, h := range m.handles() {
		if !s.Valid(h) {
			fail("%s references removed occurrence %s", what, h)
		} else if !s.targetedBy(h, m) {
			fail("%s references %s but is missing from its targeters", what, h)
		}
	}
}

func (s *Sequence) targetedBy(h Handle, t Targeter) bool {
	set, ok := s.targeters[h]
	return ok && set.Contains(t)
}

func contains(hs []Handle, h Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}
