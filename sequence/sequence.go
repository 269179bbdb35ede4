// Package sequence holds an ordered, mutable list of instruction
// occurrences addressed by stable handles. Branches link to their targets
// by handle; the sequence keeps the reverse links (targeters) in sync and
// resolves byte positions and branch offsets before serialization.
package sequence

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tliron/commonlog"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

var log = commonlog.GetLogger("jbc.sequence")

// DefaultMaxPasses bounds the relaxation loop of Resolve.
const DefaultMaxPasses = 64

// ErrNotResolved is returned when positions or bytes are requested before
// Resolve has succeeded since the last mutation.
var ErrNotResolved = errors.New("sequence: not resolved")

// ErrNoConvergence is returned when Resolve exceeds its pass limit.
var ErrNoConvergence = errors.New("sequence: branch relaxation did not converge")

// Handle identifies one occurrence in a sequence. Handles are never reused
// within a sequence, so a removed occurrence's handle stays invalid.
type Handle int32

// Nil is the zero handle. A branch target may be Nil while a sequence is
// being assembled, but not when it is resolved.
const Nil Handle = 0

// Targeter is anything that references an occurrence by handle: a branch
// occurrence (its Handle) or a metadata entry such as an exception handler.
type Targeter interface {
	targeter()
}

func (Handle) targeter() {}

func (h Handle) String() string {
	return fmt.Sprintf("L%d", int32(h))
}

// State is the resolution state of a whole sequence.
type State uint8

const (
	Unresolved State = iota
	Resolving
	Resolved
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

type occurrence struct {
	in      instr.Instruction
	jumper  instr.Jumper // nil unless in is a branch or switch
	targets []Handle
	prev    Handle
	next    Handle
	pos     int
	live    bool
}

// Sequence is an ordered list of instruction occurrences. It is not safe
// for concurrent use.
type Sequence struct {
	occ       []occurrence // indexed by Handle; slot 0 unused
	head      Handle
	tail      Handle
	n         int
	targeters map[Handle]mapset.Set[Targeter]

	handlers []*ExceptionHandler
	lines    []*LineNumber
	locals   []*LocalRange

	state     State
	code      []byte
	maxPasses int
	observers []func(*Sequence)
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithMaxPasses sets the relaxation pass limit. Values below 1 are ignored.
func WithMaxPasses(n int) Option {
	return func(s *Sequence) {
		if n >= 1 {
			s.maxPasses = n
		}
	}
}

// New returns an empty sequence.
func New(opts ...Option) *Sequence {
	s := &Sequence{
		occ:       make([]occurrence, 1),
		targeters: make(map[Handle]mapset.Set[Targeter]),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current resolution state.
func (s *Sequence) State() State { return s.state }

// Len returns the number of occurrences.
func (s *Sequence) Len() int { return s.n }

// Valid reports whether h names a live occurrence of s.
func (s *Sequence) Valid(h Handle) bool {
	return h > 0 && int(h) < len(s.occ) && s.occ[h].live
}

// Instruction returns the instruction at h, or nil for an invalid handle.
// Changing the returned instruction in place leaves positions stale; call
// NotifyChanged afterwards.
func (s *Sequence) Instruction(h Handle) instr.Instruction {
	if !s.Valid(h) {
		return nil
	}
	return s.occ[h].in
}

// Target returns target i of the branch at h, or Nil.
func (s *Sequence) Target(h Handle, i int) Handle {
	if !s.Valid(h) || i < 0 || i >= len(s.occ[h].targets) {
		return Nil
	}
	return s.occ[h].targets[i]
}

// Targets returns every target of the branch at h in target order.
func (s *Sequence) Targets(h Handle) []Handle {
	if !s.Valid(h) {
		return nil
	}
	return append([]Handle(nil), s.occ[h].targets...)
}

// First returns the first occurrence, or Nil when the sequence is empty.
func (s *Sequence) First() Handle { return s.head }

// Last returns the last occurrence, or Nil when the sequence is empty.
func (s *Sequence) Last() Handle { return s.tail }

// Next returns the occurrence after h, or Nil.
func (s *Sequence) Next(h Handle) Handle {
	if !s.Valid(h) {
		return Nil
	}
	return s.occ[h].next
}

// Prev returns the occurrence before h, or Nil.
func (s *Sequence) Prev(h Handle) Handle {
	if !s.Valid(h) {
		return Nil
	}
	return s.occ[h].prev
}

// Handles returns every handle in order.
func (s *Sequence) Handles() []Handle {
	hs := make([]Handle, 0, s.n)
	for h := s.head; h != Nil; h = s.occ[h].next {
		hs = append(hs, h)
	}
	return hs
}

// Each calls fn for every occurrence in order.
func (s *Sequence) Each(fn func(h Handle, in instr.Instruction)) {
	for h := s.head; h != Nil; h = s.occ[h].next {
		fn(h, s.occ[h].in)
	}
}

// Subscribe registers fn to run on every NotifyChanged. Mutations do not
// fire observers by themselves; the owner notifies once after a batch of
// edits.
func (s *Sequence) Subscribe(fn func(*Sequence)) {
	s.observers = append(s.observers, fn)
}

// NotifyChanged marks the sequence unresolved and runs the observers. Call
// it after a batch of edits, and after changing an instruction obtained
// from Instruction in place.
func (s *Sequence) NotifyChanged() {
	s.touch()
	for _, fn := range s.observers {
		fn(s)
	}
}

// touch returns the sequence to Unresolved. Bytes handed out earlier are
// copies and stay as they were.
func (s *Sequence) touch() {
	s.state = Unresolved
	s.code = nil
}

// ---------------------------------------------------------------------------
// Insertion
// ---------------------------------------------------------------------------

// Append adds a non-branch instruction at the end. Every insertion stores
// a copy of in; use Instruction to reach the stored value.
func (s *Sequence) Append(in instr.Instruction) (Handle, error) {
	return s.insert(Nil, in, nil)
}

// AppendBranch adds a branch or switch at the end, linked to targets in
// target order (default first for switches). Targets may be Nil and set
// later with Retarget.
func (s *Sequence) AppendBranch(in instr.Jumper, targets ...Handle) (Handle, error) {
	return s.insert(Nil, in, targets)
}

// InsertBefore adds a non-branch instruction before at. Targeters of at
// keep pointing at at.
func (s *Sequence) InsertBefore(at Handle, in instr.Instruction) (Handle, error) {
	if !s.Valid(at) {
		return Nil, s.errInvalid("insert", at)
	}
	return s.insert(at, in, nil)
}

// InsertBranchBefore adds a branch or switch before at.
func (s *Sequence) InsertBranchBefore(at Handle, in instr.Jumper, targets ...Handle) (Handle, error) {
	if !s.Valid(at) {
		return Nil, s.errInvalid("insert", at)
	}
	return s.insert(at, in, targets)
}

func (s *Sequence) insert(before Handle, in instr.Instruction, targets []Handle) (Handle, error) {
	if in == nil {
		return Nil, classfile.Errorf(classfile.KindConstruction, "insert", "nil instruction")
	}
	j, isJump := in.(instr.Jumper)
	if isJump && targets == nil {
		return Nil, classfile.Errorf(classfile.KindConstruction, "insert",
			"%s needs targets", in.Opcode())
	}
	if isJump && len(targets) != j.NumTargets() {
		return Nil, classfile.Errorf(classfile.KindConstruction, "insert",
			"%s takes %d targets, got %d", in.Opcode(), j.NumTargets(), len(targets))
	}
	if !isJump && len(targets) > 0 {
		return Nil, classfile.Errorf(classfile.KindConstruction, "insert",
			"%s is not a branch", in.Opcode())
	}
	for _, t := range targets {
		if t != Nil && !s.Valid(t) {
			return Nil, s.errInvalid("insert", t)
		}
	}

	// Each occurrence owns its instruction; offsets and padding live in it.
	in = in.Clone()
	h := Handle(len(s.occ))
	o := occurrence{in: in, live: true}
	if isJump {
		o.jumper = in.(instr.Jumper)
		o.targets = append([]Handle(nil), targets...)
	}
	s.occ = append(s.occ, o)
	s.link(h, before)
	for _, t := range targets {
		if t != Nil {
			s.addTargeter(t, h)
		}
	}
	s.n++
	s.touch()
	return h, nil
}

// link places h before the given occurrence, or at the end for Nil.
func (s *Sequence) link(h, before Handle) {
	o := &s.occ[h]
	if before == Nil {
		o.prev = s.tail
		if s.tail != Nil {
			s.occ[s.tail].next = h
		} else {
			s.head = h
		}
		s.tail = h
		return
	}
	b := &s.occ[before]
	o.prev, o.next = b.prev, before
	if b.prev != Nil {
		s.occ[b.prev].next = h
	} else {
		s.head = h
	}
	b.prev = h
}

// ---------------------------------------------------------------------------
// Removal and retargeting
// ---------------------------------------------------------------------------

// Remove deletes the occurrence at h. It fails without changing anything
// while any branch or metadata entry still targets h.
func (s *Sequence) Remove(h Handle) error {
	if !s.Valid(h) {
		return s.errInvalid("remove", h)
	}
	if set, ok := s.targeters[h]; ok && set.Cardinality() > 0 {
		return classfile.Errorf(classfile.KindGraphConsistency, "remove",
			"%s is still targeted by %d targeter(s)", h, set.Cardinality())
	}
	o := &s.occ[h]
	for _, t := range o.targets {
		if t != Nil {
			s.removeTargeter(t, h)
		}
	}
	if o.prev != Nil {
		s.occ[o.prev].next = o.next
	} else {
		s.head = o.next
	}
	if o.next != Nil {
		s.occ[o.next].prev = o.prev
	} else {
		s.tail = o.prev
	}
	delete(s.targeters, h)
	*o = occurrence{}
	s.n--
	s.touch()
	return nil
}

// Retarget points target 0 of the branch at h to target: the only target
// of a branch, the default of a switch.
func (s *Sequence) Retarget(h, target Handle) error {
	return s.RetargetCase(h, 0, target)
}

// RetargetCase points target i of the branch at h to target.
func (s *Sequence) RetargetCase(h Handle, i int, target Handle) error {
	if !s.Valid(h) {
		return s.errInvalid("retarget", h)
	}
	o := &s.occ[h]
	if o.jumper == nil {
		return classfile.Errorf(classfile.KindConstruction, "retarget",
			"%s at %s is not a branch", o.in.Opcode(), h)
	}
	if i < 0 || i >= len(o.targets) {
		return classfile.Errorf(classfile.KindConstruction, "retarget",
			"target %d out of range for %s", i, o.in.Opcode())
	}
	if target != Nil && !s.Valid(target) {
		return s.errInvalid("retarget", target)
	}
	old := o.targets[i]
	o.targets[i] = target
	if old != Nil {
		s.dropIfUnused(old, h)
	}
	if target != Nil {
		s.addTargeter(target, h)
	}
	s.touch()
	return nil
}

// RedirectTargeters moves every targeter of from to to.
func (s *Sequence) RedirectTargeters(from, to Handle) error {
	if !s.Valid(from) {
		return s.errInvalid("redirect", from)
	}
	if !s.Valid(to) {
		return s.errInvalid("redirect", to)
	}
	if from == to {
		return nil
	}
	set, ok := s.targeters[from]
	if !ok {
		return nil
	}
	for _, t := range set.ToSlice() {
		switch t := t.(type) {
		case Handle:
			for i, tgt := range s.occ[t].targets {
				if tgt == from {
					s.occ[t].targets[i] = to
				}
			}
		case metadata:
			t.replace(from, to)
		}
		s.addTargeter(to, t)
	}
	delete(s.targeters, from)
	s.touch()
	return nil
}

// ClearTargeters detaches every targeter of h and returns them. Branches
// are left with a Nil target; metadata entries referencing h are removed
// from the sequence.
func (s *Sequence) ClearTargeters(h Handle) ([]Targeter, error) {
	if !s.Valid(h) {
		return nil, s.errInvalid("clear", h)
	}
	set, ok := s.targeters[h]
	if !ok {
		return nil, nil
	}
	list := set.ToSlice()
	for _, t := range list {
		switch t := t.(type) {
		case Handle:
			for i, tgt := range s.occ[t].targets {
				if tgt == h {
					s.occ[t].targets[i] = Nil
				}
			}
		case metadata:
			s.removeMetadata(t)
		}
	}
	delete(s.targeters, h)
	s.touch()
	return list, nil
}

// Targeters returns everything that targets h, in no particular order.
func (s *Sequence) Targeters(h Handle) []Targeter {
	set, ok := s.targeters[h]
	if !ok {
		return nil
	}
	return set.ToSlice()
}

// IsTargeted reports whether anything targets h.
func (s *Sequence) IsTargeted(h Handle) bool {
	set, ok := s.targeters[h]
	return ok && set.Cardinality() > 0
}

func (s *Sequence) addTargeter(h Handle, t Targeter) {
	set, ok := s.targeters[h]
	if !ok {
		set = mapset.NewThreadUnsafeSet[Targeter]()
		s.targeters[h] = set
	}
	set.Add(t)
}

func (s *Sequence) removeTargeter(h Handle, t Targeter) {
	set, ok := s.targeters[h]
	if !ok {
		return
	}
	set.Remove(t)
	if set.Cardinality() == 0 {
		delete(s.targeters, h)
	}
}

// dropIfUnused removes branch from the targeters of h unless another of
// its targets still points there.
func (s *Sequence) dropIfUnused(h, branch Handle) {
	for _, t := range s.occ[branch].targets {
		if t == h {
			return
		}
	}
	s.removeTargeter(h, branch)
}

func (s *Sequence) errInvalid(op string, h Handle) error {
	return classfile.Errorf(classfile.KindGraphConsistency, op, "%s is not an occurrence of this sequence", h)
}
