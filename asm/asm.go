// Package asm implements a line-oriented text assembler for method bodies.
//
// A source file holds one directive or instruction per line:
//
//	.class demo/Calc
//	.method static max (II)I
//	.limit stack 2
//	    iload_0
//	    iload_1
//	    if_icmpge first
//	    iload_1
//	    ireturn
//	first:
//	    iload_0
//	    ireturn
//	.end method
//
// Labels name the next instruction. Branch operands are labels, member
// operands are written "class name descriptor", and switches list their
// cases in braces:
//
//	lookupswitch { 1: one  10: ten  default: other }
//
// Other directives are ".line N", which attaches a source line to the next
// instruction, and ".catch CLASS|all from L1 to L2 using L3", where L2 is
// exclusive. Comments start with '#'. All methods of a file share one
// constant pool.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hashicorp/go-multierror"
	"github.com/tliron/commonlog"

	"github.com/mohanaraosv/commons-bcel-sub001/classfile"
	"github.com/mohanaraosv/commons-bcel-sub001/constpool"
	"github.com/mohanaraosv/commons-bcel-sub001/factory"
	"github.com/mohanaraosv/commons-bcel-sub001/instr"
	"github.com/mohanaraosv/commons-bcel-sub001/jtype"
	"github.com/mohanaraosv/commons-bcel-sub001/sequence"
	"github.com/mohanaraosv/commons-bcel-sub001/snapshot"
)

var log = commonlog.GetLogger("jbc.asm")

// Options supplies defaults for values a source file leaves out.
type Options struct {
	// Class is used when the file has no .class directive.
	Class string
	// MaxStack is used for methods without ".limit stack".
	MaxStack int
	// MaxPasses bounds branch resolution; 0 selects the default.
	MaxPasses int
}

// Assemble parses and assembles src. Errors from every method are
// collected and returned together.
func Assemble(filename string, src []byte, opts Options) ([]*snapshot.Method, error) {
	file, err := Parse(filename, src)
	if err != nil {
		return nil, err
	}
	return AssembleFile(file, opts)
}

// AssembleFile assembles a parsed file.
func AssembleFile(file *File, opts Options) ([]*snapshot.Method, error) {
	pool := constpool.NewBuilder()
	a := &assembler{
		opts:  opts,
		class: opts.Class,
		pool:  pool,
		f:     factory.New(pool),
	}
	for _, line := range file.Lines {
		a.line(line)
	}
	if a.cur != nil {
		a.fail(a.cur.pos, "method %s has no .end method", a.cur.header.Name)
		a.finish()
	}
	if err := a.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	// Every method is captured against the final shared pool.
	p := pool.Finalize()
	out := make([]*snapshot.Method, 0, len(a.methods))
	for _, m := range a.methods {
		m.header.Class = a.class
		sm, err := snapshot.FromSequence(m.header, m.seq, p)
		if err != nil {
			a.fail(m.pos, "%v", err)
			continue
		}
		log.Debugf("assembled %s.%s%s: %d bytes", a.class, m.header.Name, m.header.Descriptor, len(sm.Code))
		out = append(out, sm)
	}
	if err := a.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

type assembler struct {
	opts    Options
	class   string
	pool    *constpool.Builder
	f       *factory.Factory
	errs    *multierror.Error
	methods []*method
	cur     *method
}

type method struct {
	pos     lexer.Position
	header  snapshot.Header
	seq     *sequence.Sequence
	labels  map[string]sequence.Handle // Nil marks the end of the code
	waiting []string
	line    int
	fixups  []fixup
	catches []catch
	failed  bool
}

type fixup struct {
	pos   lexer.Position
	h     sequence.Handle
	i     int
	label string
}

type catch struct {
	pos             lexer.Position
	class           string
	from, to, using string
}

func (a *assembler) fail(pos lexer.Position, format string, args ...any) {
	a.errs = multierror.Append(a.errs, fmt.Errorf("%s: %s", pos, fmt.Sprintf(format, args...)))
	if a.cur != nil {
		a.cur.failed = true
	}
}

func (a *assembler) line(l *Line) {
	for _, name := range l.Labels {
		a.label(l.Pos, name)
	}
	switch {
	case l.Directive != nil:
		a.directive(l.Directive)
	case l.Instruction != nil:
		if a.cur == nil {
			a.fail(l.Instruction.Pos, "instruction %s outside a method", l.Instruction.Mnemonic)
			return
		}
		a.instruction(l.Instruction)
	}
}

func (a *assembler) label(pos lexer.Position, name string) {
	m := a.cur
	if m == nil {
		a.fail(pos, "label %s outside a method", name)
		return
	}
	if _, dup := m.labels[name]; dup {
		a.fail(pos, "label %s already defined", name)
		return
	}
	for _, w := range m.waiting {
		if w == name {
			a.fail(pos, "label %s already defined", name)
			return
		}
	}
	m.waiting = append(m.waiting, name)
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

func (a *assembler) directive(d *Directive) {
	switch d.Name {
	case ".class":
		if a.cur != nil || len(a.methods) > 0 {
			a.fail(d.Pos, ".class must precede every method")
			return
		}
		if len(d.Args) != 1 || d.Args[0].Word == nil {
			a.fail(d.Pos, "usage: .class NAME")
			return
		}
		a.class = *d.Args[0].Word
	case ".method":
		a.startMethod(d)
	case ".end":
		if len(d.Args) != 1 || d.Args[0].String() != "method" {
			a.fail(d.Pos, "usage: .end method")
			return
		}
		if a.cur == nil {
			a.fail(d.Pos, ".end method outside a method")
			return
		}
		a.finish()
	case ".limit":
		a.limit(d)
	case ".line":
		if a.cur == nil {
			a.fail(d.Pos, ".line outside a method")
			return
		}
		n, err := integer(d.Args, 0, 0xFFFF)
		if err != nil {
			a.fail(d.Pos, "usage: .line N: %v", err)
			return
		}
		a.cur.line = int(n)
	case ".catch":
		a.catchDirective(d)
	default:
		a.fail(d.Pos, "unknown directive %s", d.Name)
	}
}

func (a *assembler) startMethod(d *Directive) {
	if a.cur != nil {
		a.fail(d.Pos, "method %s has no .end method", a.cur.header.Name)
		a.finish()
	}
	args := d.Args
	static := false
	if len(args) > 0 && args[0].String() == "static" {
		static = true
		args = args[1:]
	}
	if len(args) != 2 || args[0].Word == nil || args[1].Word == nil {
		a.fail(d.Pos, "usage: .method [static] NAME DESCRIPTOR")
		return
	}
	desc := *args[1].Word
	if _, _, err := jtype.ParseMethodDescriptor(desc); err != nil {
		a.fail(args[1].Pos, "%v", err)
		return
	}
	opts := []sequence.Option{}
	if a.opts.MaxPasses > 0 {
		opts = append(opts, sequence.WithMaxPasses(a.opts.MaxPasses))
	}
	a.cur = &method{
		pos: d.Pos,
		header: snapshot.Header{
			Name:       *args[0].Word,
			Descriptor: desc,
			Static:     static,
			MaxStack:   a.opts.MaxStack,
		},
		seq:    sequence.New(opts...),
		labels: make(map[string]sequence.Handle),
	}
}

func (a *assembler) limit(d *Directive) {
	if a.cur == nil {
		a.fail(d.Pos, ".limit outside a method")
		return
	}
	if len(d.Args) != 2 {
		a.fail(d.Pos, "usage: .limit stack|locals N")
		return
	}
	n, err := integer(d.Args[1:], 1, 0xFFFF)
	if err != nil {
		a.fail(d.Pos, "%v", err)
		return
	}
	switch d.Args[0].String() {
	case "stack":
		a.cur.header.MaxStack = int(n)
	case "locals":
		a.cur.header.MaxLocals = int(n)
	default:
		a.fail(d.Args[0].Pos, "unknown limit %q", d.Args[0].String())
	}
}

func (a *assembler) catchDirective(d *Directive) {
	if a.cur == nil {
		a.fail(d.Pos, ".catch outside a method")
		return
	}
	words := make([]string, len(d.Args))
	for i, arg := range d.Args {
		words[i] = arg.String()
	}
	if len(words) != 7 || words[1] != "from" || words[3] != "to" || words[5] != "using" {
		a.fail(d.Pos, "usage: .catch CLASS|all from L1 to L2 using L3")
		return
	}
	a.cur.catches = append(a.cur.catches, catch{
		pos: d.Pos, class: words[0], from: words[2], to: words[4], using: words[6],
	})
}

// finish binds forward references and registers the current method.
func (a *assembler) finish() {
	m := a.cur
	for _, name := range m.waiting {
		m.labels[name] = sequence.Nil
	}
	m.waiting = nil

	for _, fx := range m.fixups {
		h, ok := a.target(fx.pos, fx.label)
		if !ok {
			continue
		}
		if err := m.seq.RetargetCase(fx.h, fx.i, h); err != nil {
			a.fail(fx.pos, "%v", err)
		}
	}
	for _, c := range m.catches {
		a.bindCatch(c)
	}
	if m.seq.Len() == 0 {
		a.fail(m.pos, "method %s has no code", m.header.Name)
	}
	if !m.failed {
		a.methods = append(a.methods, m)
	}
	a.cur = nil
}

func (a *assembler) target(pos lexer.Position, name string) (sequence.Handle, bool) {
	h, ok := a.cur.labels[name]
	switch {
	case !ok:
		a.fail(pos, "undefined label %s", name)
		return sequence.Nil, false
	case h == sequence.Nil:
		a.fail(pos, "label %s marks the end of the code", name)
		return sequence.Nil, false
	}
	return h, true
}

func (a *assembler) bindCatch(c catch) {
	m := a.cur
	start, ok1 := a.target(c.pos, c.from)
	handler, ok2 := a.target(c.pos, c.using)
	to, ok3 := m.labels[c.to]
	if !ok3 {
		a.fail(c.pos, "undefined label %s", c.to)
	}
	if !ok1 || !ok2 || !ok3 {
		return
	}
	end := m.seq.Last()
	if to != sequence.Nil {
		end = m.seq.Prev(to)
	}
	if end == sequence.Nil || to == start {
		a.fail(c.pos, "empty range %s to %s", c.from, c.to)
		return
	}
	catchType := 0
	if c.class != "all" {
		idx, err := a.pool.AddClass(c.class)
		if err != nil {
			a.fail(c.pos, "%v", err)
			return
		}
		catchType = idx
	}
	if _, err := m.seq.AddExceptionHandler(start, end, handler, catchType); err != nil {
		a.fail(c.pos, "%v", err)
	}
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

func (a *assembler) instruction(in *Instruction) {
	m := a.cur
	built, labels, err := a.build(in)
	if err != nil {
		a.fail(in.Pos, "%s: %v", in.Mnemonic, err)
		return
	}

	var h sequence.Handle
	if j, ok := built.(instr.Jumper); ok {
		h, err = m.seq.AppendBranch(j, make([]sequence.Handle, j.NumTargets())...)
	} else {
		h, err = m.seq.Append(built)
	}
	if err != nil {
		a.fail(in.Pos, "%s: %v", in.Mnemonic, err)
		return
	}
	for i, name := range labels {
		m.fixups = append(m.fixups, fixup{pos: in.Pos, h: h, i: i, label: name})
	}

	for _, name := range m.waiting {
		m.labels[name] = h
	}
	m.waiting = m.waiting[:0]
	if m.line > 0 {
		if _, err := m.seq.AddLineNumber(h, m.line); err != nil {
			a.fail(in.Pos, "%v", err)
		}
		m.line = 0
	}
}

// build returns the instruction for in and, for branches and switches, the
// label of each target in target order.
func (a *assembler) build(in *Instruction) (instr.Instruction, []string, error) {
	op, ok := instr.Lookup(in.Mnemonic)
	if !ok {
		return nil, nil, fmt.Errorf("unknown instruction")
	}
	info := op.Info()
	if len(in.Cases) > 0 && !op.IsSwitch() {
		return nil, nil, fmt.Errorf("only switches take a case list")
	}
	args := in.Operands

	switch info.Format {
	case instr.FormatNone, instr.FormatCompactLocal:
		if err := arity(args, 0); err != nil {
			return nil, nil, err
		}
		i, err := instr.Decode(classfile.NewReader([]byte{byte(op)}))
		return i, nil, err

	case instr.FormatByte, instr.FormatShort:
		v, err := integer(args, -1<<15, 1<<15-1)
		if err != nil {
			return nil, nil, err
		}
		if op == instr.OpBipush {
			i, err := instr.NewBipush(int(v))
			return i, nil, err
		}
		i, err := instr.NewSipush(int(v))
		return i, nil, err

	case instr.FormatLocal:
		idx, err := integer(args, 0, 0xFFFF)
		if err != nil {
			return nil, nil, err
		}
		i, err := instr.NewLocal(op, int(idx))
		return i, nil, err

	case instr.FormatIinc:
		if err := arity(args, 2); err != nil {
			return nil, nil, err
		}
		idx, err := integer(args[:1], 0, 0xFFFF)
		if err != nil {
			return nil, nil, err
		}
		inc, err := integer(args[1:], -1<<15, 1<<15-1)
		if err != nil {
			return nil, nil, err
		}
		i, err := instr.NewIinc(int(idx), int(inc))
		return i, nil, err

	case instr.FormatBranch, instr.FormatBranchWide:
		if err := arity(args, 1); err != nil {
			return nil, nil, err
		}
		if args[0].Word == nil {
			return nil, nil, fmt.Errorf("expected a label, got %s", args[0])
		}
		b, err := instr.NewBranch(op)
		return b, []string{*args[0].Word}, err

	case instr.FormatTableSwitch, instr.FormatLookupSwitch:
		if err := arity(args, 0); err != nil {
			return nil, nil, err
		}
		return a.switchInstruction(op, in.Cases)

	case instr.FormatPoolByte, instr.FormatPool, instr.FormatInvokeInterface,
		instr.FormatInvokeDynamic, instr.FormatNewArray, instr.FormatMultiANewArray:
		i, err := a.poolInstruction(op, args)
		return i, nil, err
	}
	return nil, nil, fmt.Errorf("wide is selected from the operands")
}

func (a *assembler) switchInstruction(op instr.Opcode, cases []*Case) (instr.Instruction, []string, error) {
	def := ""
	keys := make([]int32, 0, len(cases))
	targets := make(map[int32]string, len(cases))
	for _, c := range cases {
		if c.Label != nil {
			if *c.Label != "default" {
				return nil, nil, fmt.Errorf("case key %q is not a number", *c.Label)
			}
			if def != "" {
				return nil, nil, fmt.Errorf("duplicate default")
			}
			def = c.Target
			continue
		}
		k, err := parseInt(*c.Key, -1<<31, 1<<31-1)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := targets[int32(k)]; dup {
			return nil, nil, fmt.Errorf("duplicate key %d", k)
		}
		keys = append(keys, int32(k))
		targets[int32(k)] = c.Target
	}
	if def == "" {
		return nil, nil, fmt.Errorf("missing default")
	}

	var sw *instr.Switch
	var err error
	if op == instr.OpTableswitch {
		if len(keys) == 0 {
			return nil, nil, fmt.Errorf("tableswitch needs at least one key")
		}
		low, high := keys[0], keys[0]
		for _, k := range keys {
			low, high = min(low, k), max(high, k)
		}
		sw, err = instr.NewTableSwitch(low, high)
	} else {
		sw, err = instr.NewLookupSwitch(keys)
	}
	if err != nil {
		return nil, nil, err
	}

	labels := make([]string, 0, sw.NumTargets())
	labels = append(labels, def)
	for _, k := range sw.Keys() {
		if t, ok := targets[k]; ok {
			labels = append(labels, t)
		} else {
			labels = append(labels, def)
		}
	}
	return sw, labels, nil
}

var fieldKinds = map[instr.Opcode]factory.FieldKind{
	instr.OpGetfield:  factory.GetField,
	instr.OpPutfield:  factory.PutField,
	instr.OpGetstatic: factory.GetStatic,
	instr.OpPutstatic: factory.PutStatic,
}

var invokeKinds = map[instr.Opcode]factory.InvokeKind{
	instr.OpInvokevirtual:   factory.Virtual,
	instr.OpInvokespecial:   factory.Special,
	instr.OpInvokestatic:    factory.Static,
	instr.OpInvokeinterface: factory.Interface,
}

func (a *assembler) poolInstruction(op instr.Opcode, args []*Operand) (instr.Instruction, error) {
	switch op {
	case instr.OpLdc, instr.OpLdcW:
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		idx, err := a.constant(args[0], false)
		if err != nil {
			return nil, err
		}
		return instr.NewLdc(idx)

	case instr.OpLdc2W:
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		idx, err := a.constant(args[0], true)
		if err != nil {
			return nil, err
		}
		return instr.NewPoolRef(op, idx)

	case instr.OpNew:
		class, err := word(args, 1)
		if err != nil {
			return nil, err
		}
		return a.f.New(class[0])

	case instr.OpAnewarray, instr.OpCheckcast, instr.OpInstanceof:
		class, err := word(args, 1)
		if err != nil {
			return nil, err
		}
		t, err := classType(class[0])
		if err != nil {
			return nil, err
		}
		switch op {
		case instr.OpAnewarray:
			return a.f.NewArray(t, 1)
		case instr.OpCheckcast:
			return a.f.CheckCast(t)
		}
		return a.f.InstanceOf(t)

	case instr.OpNewarray:
		name, err := word(args, 1)
		if err != nil {
			return nil, err
		}
		t, err := jtype.ParseJava(name[0])
		if err != nil {
			return nil, err
		}
		if !t.Kind().IsPrimitive() {
			return nil, fmt.Errorf("%s is not a primitive type", t)
		}
		return a.f.NewArray(t, 1)

	case instr.OpMultianewarray:
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		if args[0].Word == nil {
			return nil, fmt.Errorf("expected an array descriptor, got %s", args[0])
		}
		t, err := jtype.ParseDescriptor(*args[0].Word)
		if err != nil {
			return nil, err
		}
		at, ok := t.(jtype.ArrayType)
		if !ok {
			return nil, fmt.Errorf("%s is not an array type", t)
		}
		dims, err := integer(args[1:], 1, int64(at.Dimensions()))
		if err != nil {
			return nil, err
		}
		idx, err := a.pool.AddArrayClass(at)
		if err != nil {
			return nil, err
		}
		return instr.NewMultiANewArray(idx, int(dims))

	case instr.OpInvokedynamic:
		if err := arity(args, 3); err != nil {
			return nil, err
		}
		bsm, err := integer(args[:1], 0, 0xFFFF)
		if err != nil {
			return nil, err
		}
		names, err := word(args[1:], 2)
		if err != nil {
			return nil, err
		}
		if _, _, err := jtype.ParseMethodDescriptor(names[1]); err != nil {
			return nil, err
		}
		idx, err := a.pool.AddInvokeDynamic(int(bsm), names[0], names[1])
		if err != nil {
			return nil, err
		}
		return instr.NewInvokeDynamic(idx)
	}

	member, err := word(args, 3)
	if err != nil {
		return nil, err
	}
	if kind, ok := fieldKinds[op]; ok {
		t, err := jtype.ParseDescriptor(member[2])
		if err != nil {
			return nil, err
		}
		return a.f.FieldAccess(kind, member[0], member[1], t)
	}
	if kind, ok := invokeKinds[op]; ok {
		ret, params, err := jtype.ParseMethodDescriptor(member[2])
		if err != nil {
			return nil, err
		}
		return a.f.Invoke(kind, member[0], member[1], ret, params)
	}
	return nil, fmt.Errorf("unsupported instruction")
}

// constant adds the pool entry for an ldc operand. Two-slot constants are
// accepted only when wide is set.
func (a *assembler) constant(o *Operand, wide bool) (int, error) {
	switch {
	case o.Str != nil:
		if wide {
			return 0, fmt.Errorf("ldc2_w takes a long or double")
		}
		s, err := strconv.Unquote(*o.Str)
		if err != nil {
			return 0, fmt.Errorf("bad string %s", *o.Str)
		}
		return a.pool.AddString(s)
	case o.Word != nil:
		if wide {
			return 0, fmt.Errorf("ldc2_w takes a long or double")
		}
		t, err := classType(*o.Word)
		if err != nil {
			return 0, err
		}
		return a.pool.AddClassOf(t)
	}

	v, err := parseNumber(*o.Number)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		if wide {
			return a.pool.AddLong(v)
		}
		if strings.HasSuffix(strings.ToLower(*o.Number), "l") {
			return 0, fmt.Errorf("long constant %s needs ldc2_w", *o.Number)
		}
		if v < -1<<31 || v > 1<<31-1 {
			return 0, fmt.Errorf("%d does not fit an int", v)
		}
		return a.pool.AddInteger(int32(v))
	case float32:
		if wide {
			return 0, fmt.Errorf("float constant %s needs ldc", *o.Number)
		}
		return a.pool.AddFloat(v)
	case float64:
		if !wide {
			if strings.HasSuffix(strings.ToLower(*o.Number), "d") {
				return 0, fmt.Errorf("double constant %s needs ldc2_w", *o.Number)
			}
			return a.pool.AddFloat(float32(v))
		}
		return a.pool.AddDouble(v)
	}
	return 0, fmt.Errorf("bad constant %s", *o.Number)
}

// parseNumber reads an integer or floating literal. A trailing L marks a
// long, F a float and D a double; unsuffixed literals with a fraction or
// exponent are doubles in ldc2_w position and floats otherwise.
func parseNumber(s string) (any, error) {
	lower := strings.ToLower(s)
	isHex := strings.Contains(lower, "0x")
	switch {
	case strings.HasSuffix(lower, "l"):
		return strconv.ParseInt(strings.TrimSuffix(lower, "l"), 0, 64)
	case !isHex && strings.HasSuffix(lower, "f"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(lower, "f"), 32)
		return float32(f), err
	case !isHex && strings.HasSuffix(lower, "d"):
		return strconv.ParseFloat(strings.TrimSuffix(lower, "d"), 64)
	case !isHex && strings.ContainsAny(lower, ".e"):
		return strconv.ParseFloat(lower, 64)
	}
	return strconv.ParseInt(lower, 0, 64)
}

func parseInt(s string, lo, hi int64) (int64, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("bad number %s", s)
	}
	n, ok := v.(int64)
	switch {
	case !ok || strings.HasSuffix(strings.ToLower(s), "l"):
		return 0, fmt.Errorf("expected an integer, got %s", s)
	case n < lo || n > hi:
		return 0, fmt.Errorf("%d out of range %d..%d", n, lo, hi)
	}
	return n, nil
}

// integer reads args[0] as an integer within lo..hi and rejects any other
// operands.
func integer(args []*Operand, lo, hi int64) (int64, error) {
	if err := arity(args, 1); err != nil {
		return 0, err
	}
	if args[0].Number == nil {
		return 0, fmt.Errorf("expected a number, got %s", args[0])
	}
	return parseInt(*args[0].Number, lo, hi)
}

func arity(args []*Operand, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d operands, got %d", n, len(args))
	}
	return nil
}

func word(args []*Operand, n int) ([]string, error) {
	if err := arity(args, n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i, arg := range args {
		if arg.Word == nil {
			return nil, fmt.Errorf("operand %d: expected a name, got %s", i+1, arg)
		}
		out[i] = *arg.Word
	}
	return out, nil
}

// classType reads a class operand: an array descriptor or a class name.
func classType(s string) (jtype.Type, error) {
	if strings.HasPrefix(s, "[") {
		return jtype.ParseDescriptor(s)
	}
	return jtype.NewObject(s), nil
}
