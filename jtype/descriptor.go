package jtype

import (
	"fmt"
	"strings"
)

// ParseDescriptor parses a complete field descriptor such as "I",
// "Ljava/lang/String;" or "[[D". "V" is accepted and yields Void.
func ParseDescriptor(desc string) (Type, error) {
	t, n, err := parseOne(desc, 0)
	if err != nil {
		return nil, err
	}
	if n != len(desc) {
		return nil, fmt.Errorf("jtype: trailing data in descriptor %q", desc)
	}
	return t, nil
}

// ParseMethodDescriptor splits "(IJ)Ljava/lang/String;" into its return type
// and argument types.
func ParseMethodDescriptor(desc string) (ret Type, args []Type, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, nil, fmt.Errorf("jtype: method descriptor %q does not start with '('", desc)
	}
	pos := 1
	for {
		if pos >= len(desc) {
			return nil, nil, fmt.Errorf("jtype: unterminated argument list in %q", desc)
		}
		if desc[pos] == ')' {
			pos++
			break
		}
		t, n, err := parseOne(desc, pos)
		if err != nil {
			return nil, nil, err
		}
		if t.Kind() == KindVoid {
			return nil, nil, fmt.Errorf("jtype: void argument in %q", desc)
		}
		args = append(args, t)
		pos = n
	}
	ret, n, err := parseOne(desc, pos)
	if err != nil {
		return nil, nil, err
	}
	if n != len(desc) {
		return nil, nil, fmt.Errorf("jtype: trailing data in method descriptor %q", desc)
	}
	return ret, args, nil
}

// MethodDescriptor renders a method descriptor from its parts.
func MethodDescriptor(ret Type, args []Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, a := range args {
		sb.WriteString(a.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(ret.Descriptor())
	return sb.String()
}

// ArgumentSlots returns the number of local variable slots the arguments
// occupy, counting long and double twice.
func ArgumentSlots(args []Type) int {
	n := 0
	for _, a := range args {
		n += a.Size()
	}
	return n
}

func parseOne(desc string, pos int) (Type, int, error) {
	if pos >= len(desc) {
		return nil, pos, fmt.Errorf("jtype: unexpected end of descriptor %q", desc)
	}
	switch c := desc[pos]; c {
	case 'Z':
		return Boolean, pos + 1, nil
	case 'C':
		return Char, pos + 1, nil
	case 'F':
		return Float, pos + 1, nil
	case 'D':
		return Double, pos + 1, nil
	case 'B':
		return Byte, pos + 1, nil
	case 'S':
		return Short, pos + 1, nil
	case 'I':
		return Int, pos + 1, nil
	case 'J':
		return Long, pos + 1, nil
	case 'V':
		return Void, pos + 1, nil
	case 'L':
		end := strings.IndexByte(desc[pos:], ';')
		if end < 2 {
			return nil, pos, fmt.Errorf("jtype: bad class descriptor in %q at %d", desc, pos)
		}
		return NewObject(desc[pos+1 : pos+end]), pos + end + 1, nil
	case '[':
		dims := 0
		for pos < len(desc) && desc[pos] == '[' {
			dims++
			pos++
		}
		elem, n, err := parseOne(desc, pos)
		if err != nil {
			return nil, pos, err
		}
		arr, err := NewArray(elem, dims)
		if err != nil {
			return nil, pos, err
		}
		return arr, n, nil
	default:
		return nil, pos, fmt.Errorf("jtype: invalid descriptor character %q in %q", c, desc)
	}
}

// ParseJava parses a Java source spelling such as "int", "java.lang.String"
// or "long[][]".
func ParseJava(s string) (Type, error) {
	s = strings.TrimSpace(s)
	dims := 0
	for strings.HasSuffix(s, "[]") {
		dims++
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}
	if s == "" {
		return nil, fmt.Errorf("jtype: empty type name")
	}
	var base Type
	switch s {
	case "boolean":
		base = Boolean
	case "char":
		base = Char
	case "float":
		base = Float
	case "double":
		base = Double
	case "byte":
		base = Byte
	case "short":
		base = Short
	case "int":
		base = Int
	case "long":
		base = Long
	case "void":
		base = Void
	default:
		base = NewObject(s)
	}
	if dims == 0 {
		return base, nil
	}
	arr, err := NewArray(base, dims)
	if err != nil {
		return nil, err
	}
	return arr, nil
}
