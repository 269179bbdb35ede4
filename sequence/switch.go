package sequence

import (
	"slices"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
)

// AppendSwitch appends a switch over keys, jumping to targets[i] for
// keys[i] and to def otherwise. It emits a tableswitch when its cost in
// space plus three times its cost in time does not exceed that of a
// lookupswitch; gaps in a table jump to def.
func (s *Sequence) AppendSwitch(keys []int32, targets []Handle, def Handle) (Handle, error) {
	if len(keys) != len(targets) {
		return Nil, classfile.Errorf(classfile.KindConstruction, "switch",
			"%d keys but %d targets", len(keys), len(targets))
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case keys[a] < keys[b]:
			return -1
		case keys[a] > keys[b]:
			return 1
		}
		return 0
	})

	sorted := make([]int32, len(keys))
	for i, k := range order {
		sorted[i] = keys[k]
	}

	if useTable(sorted) {
		sw, err := instr.NewTableSwitch(sorted[0], sorted[len(sorted)-1])
		if err != nil {
			return Nil, err
		}
		links := make([]Handle, sw.NumTargets())
		for i := range links {
			links[i] = def
		}
		for i, k := range order {
			if i > 0 && sorted[i] == sorted[i-1] {
				return Nil, classfile.Errorf(classfile.KindConstruction, "switch", "duplicate key %d", sorted[i])
			}
			links[1+int(sorted[i]-sorted[0])] = targets[k]
		}
		return s.AppendBranch(sw, links...)
	}

	sw, err := instr.NewLookupSwitch(sorted)
	if err != nil {
		return Nil, err
	}
	links := make([]Handle, 0, len(keys)+1)
	links = append(links, def)
	for _, k := range order {
		links = append(links, targets[k])
	}
	return s.AppendBranch(sw, links...)
}

func useTable(sorted []int32) bool {
	n := int64(len(sorted))
	if n == 0 {
		return false
	}
	span := int64(sorted[n-1]) - int64(sorted[0]) + 1
	if span > 16383 {
		return false
	}
	tableSpace := 4 + span
	tableTime := int64(3)
	lookupSpace := 3 + 2*n
	lookupTime := n
	return tableSpace+3*tableTime <= lookupSpace+3*lookupTime
}
