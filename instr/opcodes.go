// Package instr is the JVM instruction encoding model: opcodes, typed
// instruction variants that know their own byte layout, and a decoder for
// code arrays.
package instr

import "fmt"

// Opcode is a JVM instruction opcode byte.
type Opcode uint8

const (
	// ========================================================================
	// Constants (0x00-0x14)
	// ========================================================================

	OpNop        Opcode = 0x00
	OpAconstNull Opcode = 0x01
	OpIconstM1   Opcode = 0x02
	OpIconst0    Opcode = 0x03
	OpIconst1    Opcode = 0x04
	OpIconst2    Opcode = 0x05
	OpIconst3    Opcode = 0x06
	OpIconst4    Opcode = 0x07
	OpIconst5    Opcode = 0x08
	OpLconst0    Opcode = 0x09
	OpLconst1    Opcode = 0x0A
	OpFconst0    Opcode = 0x0B
	OpFconst1    Opcode = 0x0C
	OpFconst2    Opcode = 0x0D
	OpDconst0    Opcode = 0x0E
	OpDconst1    Opcode = 0x0F
	OpBipush     Opcode = 0x10
	OpSipush     Opcode = 0x11
	OpLdc        Opcode = 0x12
	OpLdcW       Opcode = 0x13
	OpLdc2W      Opcode = 0x14

	// ========================================================================
	// Loads (0x15-0x35)
	// ========================================================================

	OpIload  Opcode = 0x15
	OpLload  Opcode = 0x16
	OpFload  Opcode = 0x17
	OpDload  Opcode = 0x18
	OpAload  Opcode = 0x19
	OpIload0 Opcode = 0x1A
	OpIload1 Opcode = 0x1B
	OpIload2 Opcode = 0x1C
	OpIload3 Opcode = 0x1D
	OpLload0 Opcode = 0x1E
	OpLload1 Opcode = 0x1F
	OpLload2 Opcode = 0x20
	OpLload3 Opcode = 0x21
	OpFload0 Opcode = 0x22
	OpFload1 Opcode = 0x23
	OpFload2 Opcode = 0x24
	OpFload3 Opcode = 0x25
	OpDload0 Opcode = 0x26
	OpDload1 Opcode = 0x27
	OpDload2 Opcode = 0x28
	OpDload3 Opcode = 0x29
	OpAload0 Opcode = 0x2A
	OpAload1 Opcode = 0x2B
	OpAload2 Opcode = 0x2C
	OpAload3 Opcode = 0x2D
	OpIaload Opcode = 0x2E
	OpLaload Opcode = 0x2F
	OpFaload Opcode = 0x30
	OpDaload Opcode = 0x31
	OpAaload Opcode = 0x32
	OpBaload Opcode = 0x33
	OpCaload Opcode = 0x34
	OpSaload Opcode = 0x35

	// ========================================================================
	// Stores (0x36-0x56)
	// ========================================================================

	OpIstore  Opcode = 0x36
	OpLstore  Opcode = 0x37
	OpFstore  Opcode = 0x38
	OpDstore  Opcode = 0x39
	OpAstore  Opcode = 0x3A
	OpIstore0 Opcode = 0x3B
	OpIstore1 Opcode = 0x3C
	OpIstore2 Opcode = 0x3D
	OpIstore3 Opcode = 0x3E
	OpLstore0 Opcode = 0x3F
	OpLstore1 Opcode = 0x40
	OpLstore2 Opcode = 0x41
	OpLstore3 Opcode = 0x42
	OpFstore0 Opcode = 0x43
	OpFstore1 Opcode = 0x44
	OpFstore2 Opcode = 0x45
	OpFstore3 Opcode = 0x46
	OpDstore0 Opcode = 0x47
	OpDstore1 Opcode = 0x48
	OpDstore2 Opcode = 0x49
	OpDstore3 Opcode = 0x4A
	OpAstore0 Opcode = 0x4B
	OpAstore1 Opcode = 0x4C
	OpAstore2 Opcode = 0x4D
	OpAstore3 Opcode = 0x4E
	OpIastore Opcode = 0x4F
	OpLastore Opcode = 0x50
	OpFastore Opcode = 0x51
	OpDastore Opcode = 0x52
	OpAastore Opcode = 0x53
	OpBastore Opcode = 0x54
	OpCastore Opcode = 0x55
	OpSastore Opcode = 0x56

	// ========================================================================
	// Stack (0x57-0x5F)
	// ========================================================================

	OpPop    Opcode = 0x57
	OpPop2   Opcode = 0x58
	OpDup    Opcode = 0x59
	OpDupX1  Opcode = 0x5A
	OpDupX2  Opcode = 0x5B
	OpDup2   Opcode = 0x5C
	OpDup2X1 Opcode = 0x5D
	OpDup2X2 Opcode = 0x5E
	OpSwap   Opcode = 0x5F

	// ========================================================================
	// Math (0x60-0x84)
	// ========================================================================

	OpIadd  Opcode = 0x60
	OpLadd  Opcode = 0x61
	OpFadd  Opcode = 0x62
	OpDadd  Opcode = 0x63
	OpIsub  Opcode = 0x64
	OpLsub  Opcode = 0x65
	OpFsub  Opcode = 0x66
	OpDsub  Opcode = 0x67
	OpImul  Opcode = 0x68
	OpLmul  Opcode = 0x69
	OpFmul  Opcode = 0x6A
	OpDmul  Opcode = 0x6B
	OpIdiv  Opcode = 0x6C
	OpLdiv  Opcode = 0x6D
	OpFdiv  Opcode = 0x6E
	OpDdiv  Opcode = 0x6F
	OpIrem  Opcode = 0x70
	OpLrem  Opcode = 0x71
	OpFrem  Opcode = 0x72
	OpDrem  Opcode = 0x73
	OpIneg  Opcode = 0x74
	OpLneg  Opcode = 0x75
	OpFneg  Opcode = 0x76
	OpDneg  Opcode = 0x77
	OpIshl  Opcode = 0x78
	OpLshl  Opcode = 0x79
	OpIshr  Opcode = 0x7A
	OpLshr  Opcode = 0x7B
	OpIushr Opcode = 0x7C
	OpLushr Opcode = 0x7D
	OpIand  Opcode = 0x7E
	OpLand  Opcode = 0x7F
	OpIor   Opcode = 0x80
	OpLor   Opcode = 0x81
	OpIxor  Opcode = 0x82
	OpLxor  Opcode = 0x83
	OpIinc  Opcode = 0x84

	// ========================================================================
	// Conversions (0x85-0x93)
	// ========================================================================

	OpI2l Opcode = 0x85
	OpI2f Opcode = 0x86
	OpI2d Opcode = 0x87
	OpL2i Opcode = 0x88
	OpL2f Opcode = 0x89
	OpL2d Opcode = 0x8A
	OpF2i Opcode = 0x8B
	OpF2l Opcode = 0x8C
	OpF2d Opcode = 0x8D
	OpD2i Opcode = 0x8E
	OpD2l Opcode = 0x8F
	OpD2f Opcode = 0x90
	OpI2b Opcode = 0x91
	OpI2c Opcode = 0x92
	OpI2s Opcode = 0x93

	// ========================================================================
	// Comparisons (0x94-0xA6)
	// ========================================================================

	OpLcmp     Opcode = 0x94
	OpFcmpl    Opcode = 0x95
	OpFcmpg    Opcode = 0x96
	OpDcmpl    Opcode = 0x97
	OpDcmpg    Opcode = 0x98
	OpIfeq     Opcode = 0x99
	OpIfne     Opcode = 0x9A
	OpIflt     Opcode = 0x9B
	OpIfge     Opcode = 0x9C
	OpIfgt     Opcode = 0x9D
	OpIfle     Opcode = 0x9E
	OpIfIcmpeq Opcode = 0x9F
	OpIfIcmpne Opcode = 0xA0
	OpIfIcmplt Opcode = 0xA1
	OpIfIcmpge Opcode = 0xA2
	OpIfIcmpgt Opcode = 0xA3
	OpIfIcmple Opcode = 0xA4
	OpIfAcmpeq Opcode = 0xA5
	OpIfAcmpne Opcode = 0xA6

	// ========================================================================
	// Control (0xA7-0xB1)
	// ========================================================================

	OpGoto         Opcode = 0xA7
	OpJsr          Opcode = 0xA8
	OpRet          Opcode = 0xA9
	OpTableswitch  Opcode = 0xAA
	OpLookupswitch Opcode = 0xAB
	OpIreturn      Opcode = 0xAC
	OpLreturn      Opcode = 0xAD
	OpFreturn      Opcode = 0xAE
	OpDreturn      Opcode = 0xAF
	OpAreturn      Opcode = 0xB0
	OpReturn       Opcode = 0xB1

	// ========================================================================
	// References (0xB2-0xC3)
	// ========================================================================

	OpGetstatic       Opcode = 0xB2
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpInvokedynamic   Opcode = 0xBA
	OpNew             Opcode = 0xBB
	OpNewarray        Opcode = 0xBC
	OpAnewarray       Opcode = 0xBD
	OpArraylength     Opcode = 0xBE
	OpAthrow          Opcode = 0xBF
	OpCheckcast       Opcode = 0xC0
	OpInstanceof      Opcode = 0xC1
	OpMonitorenter    Opcode = 0xC2
	OpMonitorexit     Opcode = 0xC3

	// ========================================================================
	// Extended (0xC4-0xC9)
	// ========================================================================

	OpWide           Opcode = 0xC4
	OpMultianewarray Opcode = 0xC5
	OpIfnull         Opcode = 0xC6
	OpIfnonnull      Opcode = 0xC7
	OpGotoW          Opcode = 0xC8
	OpJsrW           Opcode = 0xC9
)

// Format describes the operand layout that follows an opcode.
type Format uint8

const (
	FormatNone            Format = iota // no operands
	FormatByte                          // bipush: s1
	FormatShort                         // sipush: s2
	FormatPoolByte                      // ldc: u1 pool index
	FormatPool                          // u2 pool index
	FormatLocal                         // u1 local index (u2 after wide)
	FormatCompactLocal                  // index encoded in the opcode
	FormatIinc                          // u1 index, s1 increment (u2, s2 after wide)
	FormatBranch                        // s2 relative offset
	FormatBranchWide                    // s4 relative offset
	FormatTableSwitch                   // padded default, low, high, offsets
	FormatLookupSwitch                  // padded default, npairs, pairs
	FormatInvokeInterface               // u2 pool index, u1 count, 0
	FormatInvokeDynamic                 // u2 pool index, 0, 0
	FormatNewArray                      // u1 array type
	FormatMultiANewArray                // u2 pool index, u1 dimensions
	FormatWide                          // prefix for the next instruction
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name   string // mnemonic as written by javap
	Format Format
	Len    int // encoded length in bytes, -1 when it varies
}

var opcodeTable = [...]OpcodeInfo{
	OpNop:             {"nop", FormatNone, 1},
	OpAconstNull:      {"aconst_null", FormatNone, 1},
	OpIconstM1:        {"iconst_m1", FormatNone, 1},
	OpIconst0:         {"iconst_0", FormatNone, 1},
	OpIconst1:         {"iconst_1", FormatNone, 1},
	OpIconst2:         {"iconst_2", FormatNone, 1},
	OpIconst3:         {"iconst_3", FormatNone, 1},
	OpIconst4:         {"iconst_4", FormatNone, 1},
	OpIconst5:         {"iconst_5", FormatNone, 1},
	OpLconst0:         {"lconst_0", FormatNone, 1},
	OpLconst1:         {"lconst_1", FormatNone, 1},
	OpFconst0:         {"fconst_0", FormatNone, 1},
	OpFconst1:         {"fconst_1", FormatNone, 1},
	OpFconst2:         {"fconst_2", FormatNone, 1},
	OpDconst0:         {"dconst_0", FormatNone, 1},
	OpDconst1:         {"dconst_1", FormatNone, 1},
	OpBipush:          {"bipush", FormatByte, 2},
	OpSipush:          {"sipush", FormatShort, 3},
	OpLdc:             {"ldc", FormatPoolByte, 2},
	OpLdcW:            {"ldc_w", FormatPool, 3},
	OpLdc2W:           {"ldc2_w", FormatPool, 3},
	OpIload:           {"iload", FormatLocal, 2},
	OpLload:           {"lload", FormatLocal, 2},
	OpFload:           {"fload", FormatLocal, 2},
	OpDload:           {"dload", FormatLocal, 2},
	OpAload:           {"aload", FormatLocal, 2},
	OpIload0:          {"iload_0", FormatCompactLocal, 1},
	OpIload1:          {"iload_1", FormatCompactLocal, 1},
	OpIload2:          {"iload_2", FormatCompactLocal, 1},
	OpIload3:          {"iload_3", FormatCompactLocal, 1},
	OpLload0:          {"lload_0", FormatCompactLocal, 1},
	OpLload1:          {"lload_1", FormatCompactLocal, 1},
	OpLload2:          {"lload_2", FormatCompactLocal, 1},
	OpLload3:          {"lload_3", FormatCompactLocal, 1},
	OpFload0:          {"fload_0", FormatCompactLocal, 1},
	OpFload1:          {"fload_1", FormatCompactLocal, 1},
	OpFload2:          {"fload_2", FormatCompactLocal, 1},
	OpFload3:          {"fload_3", FormatCompactLocal, 1},
	OpDload0:          {"dload_0", FormatCompactLocal, 1},
	OpDload1:          {"dload_1", FormatCompactLocal, 1},
	OpDload2:          {"dload_2", FormatCompactLocal, 1},
	OpDload3:          {"dload_3", FormatCompactLocal, 1},
	OpAload0:          {"aload_0", FormatCompactLocal, 1},
	OpAload1:          {"aload_1", FormatCompactLocal, 1},
	OpAload2:          {"aload_2", FormatCompactLocal, 1},
	OpAload3:          {"aload_3", FormatCompactLocal, 1},
	OpIaload:          {"iaload", FormatNone, 1},
	OpLaload:          {"laload", FormatNone, 1},
	OpFaload:          {"faload", FormatNone, 1},
	OpDaload:          {"daload", FormatNone, 1},
	OpAaload:          {"aaload", FormatNone, 1},
	OpBaload:          {"baload", FormatNone, 1},
	OpCaload:          {"caload", FormatNone, 1},
	OpSaload:          {"saload", FormatNone, 1},
	OpIstore:          {"istore", FormatLocal, 2},
	OpLstore:          {"lstore", FormatLocal, 2},
	OpFstore:          {"fstore", FormatLocal, 2},
	OpDstore:          {"dstore", FormatLocal, 2},
	OpAstore:          {"astore", FormatLocal, 2},
	OpIstore0:         {"istore_0", FormatCompactLocal, 1},
	OpIstore1:         {"istore_1", FormatCompactLocal, 1},
	OpIstore2:         {"istore_2", FormatCompactLocal, 1},
	OpIstore3:         {"istore_3", FormatCompactLocal, 1},
	OpLstore0:         {"lstore_0", FormatCompactLocal, 1},
	OpLstore1:         {"lstore_1", FormatCompactLocal, 1},
	OpLstore2:         {"lstore_2", FormatCompactLocal, 1},
	OpLstore3:         {"lstore_3", FormatCompactLocal, 1},
	OpFstore0:         {"fstore_0", FormatCompactLocal, 1},
	OpFstore1:         {"fstore_1", FormatCompactLocal, 1},
	OpFstore2:         {"fstore_2", FormatCompactLocal, 1},
	OpFstore3:         {"fstore_3", FormatCompactLocal, 1},
	OpDstore0:         {"dstore_0", FormatCompactLocal, 1},
	OpDstore1:         {"dstore_1", FormatCompactLocal, 1},
	OpDstore2:         {"dstore_2", FormatCompactLocal, 1},
	OpDstore3:         {"dstore_3", FormatCompactLocal, 1},
	OpAstore0:         {"astore_0", FormatCompactLocal, 1},
	OpAstore1:         {"astore_1", FormatCompactLocal, 1},
	OpAstore2:         {"astore_2", FormatCompactLocal, 1},
	OpAstore3:         {"astore_3", FormatCompactLocal, 1},
	OpIastore:         {"iastore", FormatNone, 1},
	OpLastore:         {"lastore", FormatNone, 1},
	OpFastore:         {"fastore", FormatNone, 1},
	OpDastore:         {"dastore", FormatNone, 1},
	OpAastore:         {"aastore", FormatNone, 1},
	OpBastore:         {"bastore", FormatNone, 1},
	OpCastore:         {"castore", FormatNone, 1},
	OpSastore:         {"sastore", FormatNone, 1},
	OpPop:             {"pop", FormatNone, 1},
	OpPop2:            {"pop2", FormatNone, 1},
	OpDup:             {"dup", FormatNone, 1},
	OpDupX1:           {"dup_x1", FormatNone, 1},
	OpDupX2:           {"dup_x2", FormatNone, 1},
	OpDup2:            {"dup2", FormatNone, 1},
	OpDup2X1:          {"dup2_x1", FormatNone, 1},
	OpDup2X2:          {"dup2_x2", FormatNone, 1},
	OpSwap:            {"swap", FormatNone, 1},
	OpIadd:            {"iadd", FormatNone, 1},
	OpLadd:            {"ladd", FormatNone, 1},
	OpFadd:            {"fadd", FormatNone, 1},
	OpDadd:            {"dadd", FormatNone, 1},
	OpIsub:            {"isub", FormatNone, 1},
	OpLsub:            {"lsub", FormatNone, 1},
	OpFsub:            {"fsub", FormatNone, 1},
	OpDsub:            {"dsub", FormatNone, 1},
	OpImul:            {"imul", FormatNone, 1},
	OpLmul:            {"lmul", FormatNone, 1},
	OpFmul:            {"fmul", FormatNone, 1},
	OpDmul:            {"dmul", FormatNone, 1},
	OpIdiv:            {"idiv", FormatNone, 1},
	OpLdiv:            {"ldiv", FormatNone, 1},
	OpFdiv:            {"fdiv", FormatNone, 1},
	OpDdiv:            {"ddiv", FormatNone, 1},
	OpIrem:            {"irem", FormatNone, 1},
	OpLrem:            {"lrem", FormatNone, 1},
	OpFrem:            {"frem", FormatNone, 1},
	OpDrem:            {"drem", FormatNone, 1},
	OpIneg:            {"ineg", FormatNone, 1},
	OpLneg:            {"lneg", FormatNone, 1},
	OpFneg:            {"fneg", FormatNone, 1},
	OpDneg:            {"dneg", FormatNone, 1},
	OpIshl:            {"ishl", FormatNone, 1},
	OpLshl:            {"lshl", FormatNone, 1},
	OpIshr:            {"ishr", FormatNone, 1},
	OpLshr:            {"lshr", FormatNone, 1},
	OpIushr:           {"iushr", FormatNone, 1},
	OpLushr:           {"lushr", FormatNone, 1},
	OpIand:            {"iand", FormatNone, 1},
	OpLand:            {"land", FormatNone, 1},
	OpIor:             {"ior", FormatNone, 1},
	OpLor:             {"lor", FormatNone, 1},
	OpIxor:            {"ixor", FormatNone, 1},
	OpLxor:            {"lxor", FormatNone, 1},
	OpIinc:            {"iinc", FormatIinc, 3},
	OpI2l:             {"i2l", FormatNone, 1},
	OpI2f:             {"i2f", FormatNone, 1},
	OpI2d:             {"i2d", FormatNone, 1},
	OpL2i:             {"l2i", FormatNone, 1},
	OpL2f:             {"l2f", FormatNone, 1},
	OpL2d:             {"l2d", FormatNone, 1},
	OpF2i:             {"f2i", FormatNone, 1},
	OpF2l:             {"f2l", FormatNone, 1},
	OpF2d:             {"f2d", FormatNone, 1},
	OpD2i:             {"d2i", FormatNone, 1},
	OpD2l:             {"d2l", FormatNone, 1},
	OpD2f:             {"d2f", FormatNone, 1},
	OpI2b:             {"i2b", FormatNone, 1},
	OpI2c:             {"i2c", FormatNone, 1},
	OpI2s:             {"i2s", FormatNone, 1},
	OpLcmp:            {"lcmp", FormatNone, 1},
	OpFcmpl:           {"fcmpl", FormatNone, 1},
	OpFcmpg:           {"fcmpg", FormatNone, 1},
	OpDcmpl:           {"dcmpl", FormatNone, 1},
	OpDcmpg:           {"dcmpg", FormatNone, 1},
	OpIfeq:            {"ifeq", FormatBranch, 3},
	OpIfne:            {"ifne", FormatBranch, 3},
	OpIflt:            {"iflt", FormatBranch, 3},
	OpIfge:            {"ifge", FormatBranch, 3},
	OpIfgt:            {"ifgt", FormatBranch, 3},
	OpIfle:            {"ifle", FormatBranch, 3},
	OpIfIcmpeq:        {"if_icmpeq", FormatBranch, 3},
	OpIfIcmpne:        {"if_icmpne", FormatBranch, 3},
	OpIfIcmplt:        {"if_icmplt", FormatBranch, 3},
	OpIfIcmpge:        {"if_icmpge", FormatBranch, 3},
	OpIfIcmpgt:        {"if_icmpgt", FormatBranch, 3},
	OpIfIcmple:        {"if_icmple", FormatBranch, 3},
	OpIfAcmpeq:        {"if_acmpeq", FormatBranch, 3},
	OpIfAcmpne:        {"if_acmpne", FormatBranch, 3},
	OpGoto:            {"goto", FormatBranch, 3},
	OpJsr:             {"jsr", FormatBranch, 3},
	OpRet:             {"ret", FormatLocal, 2},
	OpTableswitch:     {"tableswitch", FormatTableSwitch, -1},
	OpLookupswitch:    {"lookupswitch", FormatLookupSwitch, -1},
	OpIreturn:         {"ireturn", FormatNone, 1},
	OpLreturn:         {"lreturn", FormatNone, 1},
	OpFreturn:         {"freturn", FormatNone, 1},
	OpDreturn:         {"dreturn", FormatNone, 1},
	OpAreturn:         {"areturn", FormatNone, 1},
	OpReturn:          {"return", FormatNone, 1},
	OpGetstatic:       {"getstatic", FormatPool, 3},
	OpPutstatic:       {"putstatic", FormatPool, 3},
	OpGetfield:        {"getfield", FormatPool, 3},
	OpPutfield:        {"putfield", FormatPool, 3},
	OpInvokevirtual:   {"invokevirtual", FormatPool, 3},
	OpInvokespecial:   {"invokespecial", FormatPool, 3},
	OpInvokestatic:    {"invokestatic", FormatPool, 3},
	OpInvokeinterface: {"invokeinterface", FormatInvokeInterface, 5},
	OpInvokedynamic:   {"invokedynamic", FormatInvokeDynamic, 5},
	OpNew:             {"new", FormatPool, 3},
	OpNewarray:        {"newarray", FormatNewArray, 2},
	OpAnewarray:       {"anewarray", FormatPool, 3},
	OpArraylength:     {"arraylength", FormatNone, 1},
	OpAthrow:          {"athrow", FormatNone, 1},
	OpCheckcast:       {"checkcast", FormatPool, 3},
	OpInstanceof:      {"instanceof", FormatPool, 3},
	OpMonitorenter:    {"monitorenter", FormatNone, 1},
	OpMonitorexit:     {"monitorexit", FormatNone, 1},
	OpWide:            {"wide", FormatWide, -1},
	OpMultianewarray:  {"multianewarray", FormatMultiANewArray, 4},
	OpIfnull:          {"ifnull", FormatBranch, 3},
	OpIfnonnull:       {"ifnonnull", FormatBranch, 3},
	OpGotoW:           {"goto_w", FormatBranchWide, 5},
	OpJsrW:            {"jsr_w", FormatBranchWide, 5},
}

var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for i, info := range opcodeTable {
		if info.Name != "" {
			m[info.Name] = Opcode(i)
		}
	}
	return m
}()

// Info returns the metadata for an opcode. Undefined opcodes report an
// UNKNOWN name and a zero length.
func (op Opcode) Info() OpcodeInfo {
	if int(op) < len(opcodeTable) && opcodeTable[op].Name != "" {
		return opcodeTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", uint8(op))}
}

// Valid reports whether op is a defined JVM opcode.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeTable) && opcodeTable[op].Name != ""
}

// String returns the mnemonic.
func (op Opcode) String() string {
	return op.Info().Name
}

// IsBranch reports whether op carries one relative branch offset.
func (op Opcode) IsBranch() bool {
	f := op.Info().Format
	return op.Valid() && (f == FormatBranch || f == FormatBranchWide)
}

// IsSwitch reports whether op is tableswitch or lookupswitch.
func (op Opcode) IsSwitch() bool {
	return op == OpTableswitch || op == OpLookupswitch
}

// IsReturn reports whether op returns from the method.
func (op Opcode) IsReturn() bool {
	return op >= OpIreturn && op <= OpReturn
}

// EndsBlock reports whether control never falls through to the next
// instruction.
func (op Opcode) EndsBlock() bool {
	switch op {
	case OpGoto, OpGotoW, OpAthrow, OpRet, OpTableswitch, OpLookupswitch:
		return true
	}
	return op.IsReturn()
}

// Lookup returns the opcode for a mnemonic.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[mnemonic]
	return op, ok
}

// AllOpcodes returns every defined opcode in numeric order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeTable))
	for i := range opcodeTable {
		if opcodeTable[i].Name != "" {
			ops = append(ops, Opcode(i))
		}
	}
	return ops
}
