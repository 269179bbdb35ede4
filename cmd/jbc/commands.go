package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/mohanaraosv/commons-bcel-sub001/asm"
	"github.com/mohanaraosv/commons-bcel-sub001/constpool"
	"github.com/mohanaraosv/commons-bcel-sub001/sequence"
	"github.com/mohanaraosv/commons-bcel-sub001/snapshot"
	"github.com/mohanaraosv/commons-bcel-sub001/store"
)

var (
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Write the assembled method as a CBOR snapshot to this file",
	}
	storeFlag = &cli.BoolFlag{
		Name:  "store",
		Usage: "Put every assembled method into the snapshot store",
	}
	classFlag = &cli.StringFlag{
		Name:  "class",
		Usage: "Class name for files without a .class directive",
	}
	hashFlag = &cli.StringFlag{
		Name:  "hash",
		Usage: "Read the method from the snapshot store instead of a file",
	}

	asmCommand = &cli.Command{
		Action:    assemble,
		Name:      "asm",
		Usage:     "Assemble a source file",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{outFlag, storeFlag, classFlag},
		Description: `
Assembles every method in the file and prints its content hash and code.`,
	}
	disCommand = &cli.Command{
		Action:    disassemble,
		Name:      "dis",
		Usage:     "Disassemble a snapshot or hex-encoded code",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{hashFlag},
	}
	poolCommand = &cli.Command{
		Action:    showPool,
		Name:      "pool",
		Usage:     "Print the constant pool of a snapshot",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{hashFlag},
	}
	storeCommand = &cli.Command{
		Name:  "store",
		Usage: "Snapshot store operations",
		Subcommands: []*cli.Command{
			{
				Action: listStore,
				Name:   "ls",
				Usage:  "List stored methods",
			},
			{
				Action:    removeFromStore,
				Name:      "rm",
				Usage:     "Remove a stored method",
				ArgsUsage: "<hash>",
			},
		},
	}
)

func assemble(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("required arguments: %v", ctx.Command.ArgsUsage)
	}
	cfg := configFrom(ctx)
	path := ctx.Args().First()
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	opts := asm.Options{
		Class:     cfg.Assembler.Class,
		MaxStack:  cfg.Assembler.MaxStack,
		MaxPasses: cfg.Resolver.MaxPasses,
	}
	if ctx.IsSet(classFlag.Name) {
		opts.Class = ctx.String(classFlag.Name)
	}
	methods, err := asm.Assemble(path, src, opts)
	if err != nil {
		return err
	}

	if out := ctx.String(outFlag.Name); out != "" {
		if len(methods) != 1 {
			return fmt.Errorf("--out needs exactly one method, %s has %d", path, len(methods))
		}
		data, err := snapshot.Marshal(methods[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
	}

	var st *store.Store
	if ctx.Bool(storeFlag.Name) {
		if st, err = store.Open(cfg.StorePath()); err != nil {
			return err
		}
		defer st.Close()
	}

	w := ctx.App.Writer
	for _, m := range methods {
		h, err := snapshot.ContentHash(m)
		if err != nil {
			return err
		}
		if st != nil {
			if _, err := st.Put(m); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s %s.%s%s\n", color.YellowString(h.Short()), m.Class, m.Name, m.Descriptor)
		fmt.Fprintf(w, "  % X\n", m.Code)
	}
	return nil
}

func disassemble(ctx *cli.Context) error {
	m, err := loadMethod(ctx)
	if err != nil {
		return err
	}
	w := ctx.App.Writer

	var pool *constpool.Pool
	if len(m.Pool) > 0 {
		if pool, err = m.ConstantPool(); err != nil {
			return err
		}
	}
	if m.Name != "" {
		fmt.Fprintf(w, "%s %s.%s%s stack=%d locals=%d\n",
			color.New(color.Bold).Sprint("method"), m.Class, m.Name, m.Descriptor, m.MaxStack, m.MaxLocals)
	}
	seq, err := m.Sequence(sequence.WithMaxPasses(configFrom(ctx).Resolver.MaxPasses))
	if err != nil {
		return err
	}
	if err := printListing(w, seq, pool); err != nil {
		return err
	}
	for _, e := range m.Exceptions {
		catch := "any"
		if e.CatchType != 0 && pool != nil {
			catch = pool.Describe(e.CatchType)
		}
		fmt.Fprintf(w, "  catch %s [%d, %d) -> %d\n", catch, e.StartPC, e.EndPC, e.HandlerPC)
	}
	for _, l := range m.Lines {
		fmt.Fprintf(w, "  line %d: %d\n", l.Line, l.StartPC)
	}
	return nil
}

func showPool(ctx *cli.Context) error {
	m, err := loadMethod(ctx)
	if err != nil {
		return err
	}
	if len(m.Pool) == 0 {
		return errors.New("no constant pool")
	}
	pool, err := m.ConstantPool()
	if err != nil {
		return err
	}

	var data [][]string
	pool.Each(func(i int, e constpool.Entry) {
		data = append(data, []string{fmt.Sprintf("#%d", i), e.Tag().String(), pool.Describe(i)})
	})
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Index", "Tag", "Value"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func listStore(ctx *cli.Context) error {
	st, err := store.Open(configFrom(ctx).StorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List()
	if err != nil {
		return err
	}
	var data [][]string
	for _, e := range entries {
		data = append(data, []string{
			e.Hash.Short(),
			e.Class,
			e.Name + e.Descriptor,
			fmt.Sprint(e.CodeLength),
			e.Created.Format("2006-01-02 15:04:05"),
		})
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Hash", "Class", "Method", "Code", "Created"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func removeFromStore(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("required arguments: %v", ctx.Command.ArgsUsage)
	}
	h, err := snapshot.ParseHash(ctx.Args().First())
	if err != nil {
		return err
	}
	st, err := store.Open(configFrom(ctx).StorePath())
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Delete(h)
}

// loadMethod reads the method named by --hash or the file argument. Files
// holding hex digits are taken as bare code; anything else must be a
// snapshot.
func loadMethod(ctx *cli.Context) (*snapshot.Method, error) {
	if s := ctx.String(hashFlag.Name); s != "" {
		h, err := snapshot.ParseHash(s)
		if err != nil {
			return nil, err
		}
		st, err := store.Open(configFrom(ctx).StorePath())
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Get(h)
	}

	if ctx.NArg() != 1 {
		return nil, fmt.Errorf("required arguments: %v", ctx.Command.ArgsUsage)
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return nil, err
	}
	if code, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), "")); err == nil && len(code) > 0 {
		return &snapshot.Method{Version: snapshot.Version, Code: code}, nil
	}
	return snapshot.Unmarshal(data)
}
