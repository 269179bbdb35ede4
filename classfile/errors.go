package classfile

import (
	"errors"
	"fmt"
)

// Kind classifies a failure reported by the assembly packages.
type Kind uint8

const (
	// KindConstruction is an invalid operand at creation time: negative
	// index, non-positive dimension or argument count, immediate out of range.
	KindConstruction Kind = iota + 1

	// KindEncodingOverflow is an offset or index that exceeds even the
	// widest encoding available for the instruction.
	KindEncodingOverflow

	// KindGraphConsistency is a mutation that would leave a targeter
	// referencing an occurrence that is gone.
	KindGraphConsistency

	// KindUnsupportedOperation is a factory request with no encoding in
	// the instruction set.
	KindUnsupportedOperation

	// KindMalformed is corrupt input seen while decoding.
	KindMalformed
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "invalid operand"
	case KindEncodingOverflow:
		return "encoding overflow"
	case KindGraphConsistency:
		return "graph consistency"
	case KindUnsupportedOperation:
		return "unsupported operation"
	case KindMalformed:
		return "malformed input"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrConstruction         = &Error{Kind: KindConstruction}
	ErrEncodingOverflow     = &Error{Kind: KindEncodingOverflow}
	ErrGraphConsistency     = &Error{Kind: KindGraphConsistency}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
	ErrMalformed            = &Error{Kind: KindMalformed}
)

// Error is the typed failure shared by the constpool, instr, sequence and
// factory packages.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "iload" or "remove"
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. A target with an
// empty Op and Msg matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return (t.Op == "" || t.Op == e.Op) && (t.Msg == "" || t.Msg == e.Msg)
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err, or anything it wraps, is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}
