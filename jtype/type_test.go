package jtype

import "testing"

func TestBasicDescriptorsAndSizes(t *testing.T) {
	tests := []struct {
		t    Type
		desc string
		size int
	}{
		{Boolean, "Z", 1},
		{Char, "C", 1},
		{Float, "F", 1},
		{Double, "D", 2},
		{Byte, "B", 1},
		{Short, "S", 1},
		{Int, "I", 1},
		{Long, "J", 2},
		{Void, "V", 0},
		{StringClass, "Ljava/lang/String;", 1},
		{MustArray(Int, 2), "[[I", 1},
	}
	for _, tt := range tests {
		if got := tt.t.Descriptor(); got != tt.desc {
			t.Errorf("%v.Descriptor() = %q, want %q", tt.t, got, tt.desc)
		}
		if got := tt.t.Size(); got != tt.size {
			t.Errorf("%v.Size() = %d, want %d", tt.t, got, tt.size)
		}
	}
}

func TestArrayFlattening(t *testing.T) {
	inner := MustArray(Long, 1)
	outer := MustArray(inner, 2)
	if outer.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", outer.Dimensions())
	}
	if outer.String() != "long[][][]" {
		t.Errorf("String() = %q", outer.String())
	}
	elem, ok := outer.ElementType().(ArrayType)
	if !ok || elem.Dimensions() != 2 {
		t.Errorf("ElementType() = %v, want long[][]", outer.ElementType())
	}
	if _, err := NewArray(Void, 1); err == nil {
		t.Error("array of void accepted")
	}
	if _, err := NewArray(Int, 0); err == nil {
		t.Error("zero dimensions accepted")
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	ret, args, err := ParseMethodDescriptor("(IJ[Ljava/lang/String;D)V")
	if err != nil {
		t.Fatalf("ParseMethodDescriptor: %v", err)
	}
	if ret != Void {
		t.Errorf("ret = %v, want void", ret)
	}
	if len(args) != 4 {
		t.Fatalf("len(args) = %d, want 4", len(args))
	}
	if got := ArgumentSlots(args); got != 6 {
		t.Errorf("ArgumentSlots = %d, want 6", got)
	}
	if got := MethodDescriptor(ret, args); got != "(IJ[Ljava/lang/String;D)V" {
		t.Errorf("MethodDescriptor round trip = %q", got)
	}

	for _, bad := range []string{"", "I", "(I", "(V)V", "(Ljava/lang/String)V", "()VX", "(Q)V"} {
		if _, _, err := ParseMethodDescriptor(bad); err == nil {
			t.Errorf("ParseMethodDescriptor(%q) succeeded", bad)
		}
	}
}

func TestParseJava(t *testing.T) {
	tests := map[string]string{
		"int":                "I",
		"java.lang.String":   "Ljava/lang/String;",
		"java/util/List":     "Ljava/util/List;",
		"double[][]":         "[[D",
		"java.lang.Object[]": "[Ljava/lang/Object;",
	}
	for in, want := range tests {
		got, err := ParseJava(in)
		if err != nil {
			t.Errorf("ParseJava(%q): %v", in, err)
			continue
		}
		if got.Descriptor() != want {
			t.Errorf("ParseJava(%q) = %q, want %q", in, got.Descriptor(), want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	for _, k := range []Kind{KindBoolean, KindByte, KindChar, KindShort, KindInt} {
		if !k.IsIntFamily() {
			t.Errorf("%v.IsIntFamily() = false", k)
		}
	}
	for _, k := range []Kind{KindLong, KindFloat, KindDouble, KindObject, KindArray, KindVoid} {
		if k.IsIntFamily() {
			t.Errorf("%v.IsIntFamily() = true", k)
		}
	}
	if !IsReference(StringClass) || IsReference(Int) {
		t.Error("IsReference misclassifies")
	}
}
