package sequence

import (
	"fmt"
	"strings"

	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

// String lists the sequence one instruction per line. A resolved sequence
// is shown by byte position with absolute branch targets; otherwise
// occurrences and targets are shown by handle.
func (s *Sequence) String() string {
	var sb strings.Builder
	resolved := s.state == Resolved
	label := func(h Handle) string {
		switch {
		case h == Nil:
			return "<unset>"
		case resolved && s.Valid(h):
			return fmt.Sprint(s.occ[h].pos)
		}
		return h.String()
	}

	for h := s.head; h != Nil; h = s.occ[h].next {
		o := &s.occ[h]
		if resolved {
			fmt.Fprintf(&sb, "%5d: ", o.pos)
		} else {
			fmt.Fprintf(&sb, "%5s: ", h)
		}
		sb.WriteString(Format(o.in, func(i int) string { return label(o.targets[i]) }))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Format renders one instruction, asking target for the label of each
// branch target.
func Format(in instr.Instruction, target func(i int) string) string {
	switch in := in.(type) {
	case *instr.Branch:
		return in.Opcode().String() + " " + target(0)
	case *instr.Switch:
		var sb strings.Builder
		sb.WriteString(in.Opcode().String())
		sb.WriteString(" {")
		for i, k := range in.Keys() {
			fmt.Fprintf(&sb, " %d: %s", k, target(i+1))
		}
		fmt.Fprintf(&sb, " default: %s }", target(0))
		return sb.String()
	}
	return in.String()
}
