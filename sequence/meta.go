package sequence

import (
	"slices"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
)

// metadata is a non-instruction targeter: it references occurrences by
// handle and is rewritten when those occurrences are redirected.
type metadata interface {
	Targeter
	handles() []Handle
	replace(from, to Handle)
}

// ExceptionHandler covers the occurrences from Start through End inclusive
// and transfers control to Handler when an exception of CatchType is
// thrown. A CatchType of 0 catches everything.
type ExceptionHandler struct {
	start, end, handler Handle
	catchType           int
}

func (*ExceptionHandler) targeter() {}

func (e *ExceptionHandler) Start() Handle   { return e.start }
func (e *ExceptionHandler) End() Handle     { return e.end }
func (e *ExceptionHandler) Handler() Handle { return e.handler }
func (e *ExceptionHandler) CatchType() int  { return e.catchType }

func (e *ExceptionHandler) handles() []Handle {
	return []Handle{e.start, e.end, e.handler}
}

func (e *ExceptionHandler) replace(from, to Handle) {
	if e.start == from {
		e.start = to
	}
	if e.end == from {
		e.end = to
	}
	if e.handler == from {
		e.handler = to
	}
}

// LineNumber maps the occurrence At and those following it to a source line.
type LineNumber struct {
	at   Handle
	line int
}

func (*LineNumber) targeter() {}

func (l *LineNumber) At() Handle { return l.at }
func (l *LineNumber) Line() int  { return l.line }

func (l *LineNumber) handles() []Handle { return []Handle{l.at} }

func (l *LineNumber) replace(from, to Handle) {
	if l.at == from {
		l.at = to
	}
}

// LocalRange names a local variable slot over the occurrences from Start
// through End inclusive.
type LocalRange struct {
	name, descriptor string
	index            int
	start, end       Handle
}

func (*LocalRange) targeter() {}

func (l *LocalRange) Name() string       { return l.name }
func (l *LocalRange) Descriptor() string { return l.descriptor }
func (l *LocalRange) Index() int         { return l.index }
func (l *LocalRange) Start() Handle      { return l.start }
func (l *LocalRange) End() Handle        { return l.end }

func (l *LocalRange) handles() []Handle { return []Handle{l.start, l.end} }

func (l *LocalRange) replace(from, to Handle) {
	if l.start == from {
		l.start = to
	}
	if l.end == from {
		l.end = to
	}
}

// AddExceptionHandler registers a handler. catchType is the constant pool
// index of the caught Class, or 0 for any exception.
func (s *Sequence) AddExceptionHandler(start, end, handler Handle, catchType int) (*ExceptionHandler, error) {
	if catchType < 0 || catchType > 0xFFFF {
		return nil, classfile.Errorf(classfile.KindConstruction, "exception handler",
			"catch type index %d out of range", catchType)
	}
	e := &ExceptionHandler{start: start, end: end, handler: handler, catchType: catchType}
	if err := s.attach("exception handler", e); err != nil {
		return nil, err
	}
	s.handlers = append(s.handlers, e)
	return e, nil
}

// AddLineNumber attaches a source line to the occurrence at h.
func (s *Sequence) AddLineNumber(h Handle, line int) (*LineNumber, error) {
	if line < 0 || line > 0xFFFF {
		return nil, classfile.Errorf(classfile.KindConstruction, "line number", "line %d out of range", line)
	}
	l := &LineNumber{at: h, line: line}
	if err := s.attach("line number", l); err != nil {
		return nil, err
	}
	s.lines = append(s.lines, l)
	return l, nil
}

// AddLocalRange names local variable index over start..end.
func (s *Sequence) AddLocalRange(name, descriptor string, index int, start, end Handle) (*LocalRange, error) {
	if index < 0 || index > 0xFFFF {
		return nil, classfile.Errorf(classfile.KindConstruction, "local variable",
			"index %d out of range", index)
	}
	l := &LocalRange{name: name, descriptor: descriptor, index: index, start: start, end: end}
	if err := s.attach("local variable", l); err != nil {
		return nil, err
	}
	s.locals = append(s.locals, l)
	return l, nil
}

func (s *Sequence) attach(op string, m metadata) error {
	for _, h := range m.handles() {
		if !s.Valid(h) {
			return s.errInvalid(op, h)
		}
	}
	for _, h := range m.handles() {
		s.addTargeter(h, m)
	}
	s.touch()
	return nil
}

// RemoveExceptionHandler, RemoveLineNumber and RemoveLocalRange detach a
// metadata entry. Removing an entry that is not attached is a no-op.
func (s *Sequence) RemoveExceptionHandler(e *ExceptionHandler) { s.removeMetadata(e) }
func (s *Sequence) RemoveLineNumber(l *LineNumber)             { s.removeMetadata(l) }
func (s *Sequence) RemoveLocalRange(l *LocalRange)             { s.removeMetadata(l) }

func (s *Sequence) removeMetadata(m metadata) {
	found := false
	switch m := m.(type) {
	case *ExceptionHandler:
		if i := slices.Index(s.handlers, m); i >= 0 {
			s.handlers = slices.Delete(s.handlers, i, i+1)
			found = true
		}
	case *LineNumber:
		if i := slices.Index(s.lines, m); i >= 0 {
			s.lines = slices.Delete(s.lines, i, i+1)
			found = true
		}
	case *LocalRange:
		if i := slices.Index(s.locals, m); i >= 0 {
			s.locals = slices.Delete(s.locals, i, i+1)
			found = true
		}
	}
	if !found {
		return
	}
	for _, h := range m.handles() {
		s.removeTargeter(h, m)
	}
	s.touch()
}

// ExceptionHandlers returns the attached handlers in registration order.
func (s *Sequence) ExceptionHandlers() []*ExceptionHandler { return slices.Clone(s.handlers) }

// LineNumbers returns the attached line numbers in registration order.
func (s *Sequence) LineNumbers() []*LineNumber { return slices.Clone(s.lines) }

// LocalRanges returns the attached local variable ranges.
func (s *Sequence) LocalRanges() []*LocalRange { return slices.Clone(s.locals) }

// ---------------------------------------------------------------------------
// Resolved tables
// ---------------------------------------------------------------------------

// ExceptionEntry is one row of a Code attribute's exception table. EndPC
// is exclusive.
type ExceptionEntry struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType int
}

// LineEntry is one row of a LineNumberTable.
type LineEntry struct {
	StartPC int
	Line    int
}

// LocalEntry is one row of a LocalVariableTable.
type LocalEntry struct {
	StartPC    int
	Length     int
	Name       string
	Descriptor string
	Index      int
}

// ExceptionTable returns the handlers with byte positions.
func (s *Sequence) ExceptionTable() ([]ExceptionEntry, error) {
	if s.state != Resolved {
		return nil, ErrNotResolved
	}
	out := make([]ExceptionEntry, 0, len(s.handlers))
	for _, e := range s.handlers {
		out = append(out, ExceptionEntry{
			StartPC:   s.occ[e.start].pos,
			EndPC:     s.endPC(e.end),
			HandlerPC: s.occ[e.handler].pos,
			CatchType: e.catchType,
		})
	}
	return out, nil
}

// LineNumberTable returns the line numbers with byte positions, ordered by
// position.
func (s *Sequence) LineNumberTable() ([]LineEntry, error) {
	if s.state != Resolved {
		return nil, ErrNotResolved
	}
	out := make([]LineEntry, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, LineEntry{StartPC: s.occ[l.at].pos, Line: l.line})
	}
	slices.SortStableFunc(out, func(a, b LineEntry) int { return a.StartPC - b.StartPC })
	return out, nil
}

// LocalVariableTable returns the local ranges with byte positions.
func (s *Sequence) LocalVariableTable() ([]LocalEntry, error) {
	if s.state != Resolved {
		return nil, ErrNotResolved
	}
	out := make([]LocalEntry, 0, len(s.locals))
	for _, l := range s.locals {
		start := s.occ[l.start].pos
		out = append(out, LocalEntry{
			StartPC:    start,
			Length:     s.endPC(l.end) - start,
			Name:       l.name,
			Descriptor: l.descriptor,
			Index:      l.index,
		})
	}
	return out, nil
}

func (s *Sequence) endPC(h Handle) int {
	return s.occ[h].pos + s.occ[h].in.Len()
}
