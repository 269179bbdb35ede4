package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohanaraosv/commons-bcel-sub001/asm"
	"github.com/mohanaraosv/commons-bcel-sub001/snapshot"
)

const maxSource = `.method static max (II)I
.limit stack 2
    iload_0
    iload_1
    if_icmpge first
    iload_1
    ireturn
first:
    iload_0
    ireturn
.end method
`

const helloSource = `.method static main ([Ljava/lang/String;)V
    getstatic java/lang/System out Ljava/io/PrintStream;
    ldc "hi"
    invokevirtual java/io/PrintStream println (Ljava/lang/String;)V
    return
.end method
`

// workspace creates a directory with a jbc.toml and the given files.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["jbc.toml"] = "[store]\npath = \"store.db\"\n\n[assembler]\nclass = \"demo/Calc\"\n"
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"jbc", "--no-color", "--config", dir}, args...))
	return out.String(), err
}

func TestAsmPrintsHashAndCode(t *testing.T) {
	dir := workspace(t, map[string]string{"max.j": maxSource})

	out, err := run(t, dir, "asm", filepath.Join(dir, "max.j"))
	require.NoError(t, err)
	require.Contains(t, out, "demo/Calc.max(II)I")
	require.Contains(t, out, "1A 1B A2 00 05 1B AC 1A AC")

	out, err = run(t, dir, "asm", "--class", "other/Name", filepath.Join(dir, "max.j"))
	require.NoError(t, err)
	require.Contains(t, out, "other/Name.max(II)I")
}

func TestAsmOutThenDis(t *testing.T) {
	dir := workspace(t, map[string]string{"max.j": maxSource})
	snap := filepath.Join(dir, "max.cbor")

	_, err := run(t, dir, "asm", "--out", snap, filepath.Join(dir, "max.j"))
	require.NoError(t, err)

	out, err := run(t, dir, "dis", snap)
	require.NoError(t, err)
	require.Contains(t, out, "method demo/Calc.max(II)I stack=2 locals=2")
	require.Contains(t, out, "    2: if_icmpge 7")
	require.Contains(t, out, "    8: ireturn")
}

func TestDisHexCode(t *testing.T) {
	dir := workspace(t, map[string]string{"code.hex": "08 06\n60 AC\n"})

	out, err := run(t, dir, "dis", filepath.Join(dir, "code.hex"))
	require.NoError(t, err)
	require.Contains(t, out, "    0: iconst_5")
	require.Contains(t, out, "    1: iconst_3")
	require.Contains(t, out, "    2: iadd")
	require.Contains(t, out, "    3: ireturn")
}

func TestPoolTable(t *testing.T) {
	dir := workspace(t, map[string]string{"hello.j": helloSource})
	snap := filepath.Join(dir, "hello.cbor")

	_, err := run(t, dir, "asm", "--out", snap, filepath.Join(dir, "hello.j"))
	require.NoError(t, err)

	out, err := run(t, dir, "pool", snap)
	require.NoError(t, err)
	require.Contains(t, out, `"hi"`)
	require.Contains(t, out, "java/lang/System.out:Ljava/io/PrintStream;")

	out, err = run(t, dir, "dis", snap)
	require.NoError(t, err)
	require.Contains(t, out, "// java/io/PrintStream.println:(Ljava/lang/String;)V")
}

func TestStoreRoundTrip(t *testing.T) {
	dir := workspace(t, map[string]string{"max.j": maxSource, "hello.j": helloSource})

	_, err := run(t, dir, "asm", "--store", filepath.Join(dir, "max.j"))
	require.NoError(t, err)
	_, err = run(t, dir, "asm", "--store", filepath.Join(dir, "hello.j"))
	require.NoError(t, err)

	out, err := run(t, dir, "store", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "max(II)I")
	require.Contains(t, out, "main([Ljava/lang/String;)V")

	methods, err := asm.Assemble("max.j", []byte(maxSource), asm.Options{Class: "demo/Calc", MaxStack: 16})
	require.NoError(t, err)
	h, err := snapshot.ContentHash(methods[0])
	require.NoError(t, err)

	out, err = run(t, dir, "dis", "--hash", h.String())
	require.NoError(t, err)
	require.Contains(t, out, "    2: if_icmpge 7")

	_, err = run(t, dir, "store", "rm", h.String())
	require.NoError(t, err)
	out, err = run(t, dir, "store", "ls")
	require.NoError(t, err)
	require.NotContains(t, out, "max(II)I")
	require.Contains(t, out, "main([Ljava/lang/String;)V")
}

func TestCommandErrors(t *testing.T) {
	dir := workspace(t, map[string]string{"bad.j": ".method f ()V\n    frob\n.end method\n"})

	_, err := run(t, dir, "asm", filepath.Join(dir, "bad.j"))
	require.ErrorContains(t, err, "unknown instruction")

	_, err = run(t, dir, "asm", filepath.Join(dir, "missing.j"))
	require.Error(t, err)

	_, err = run(t, dir, "asm")
	require.ErrorContains(t, err, "required arguments")

	_, err = run(t, dir, "dis", "--hash", "zz")
	require.Error(t, err)
}
