package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/term"

	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
	"github.com/embedkit/typesynth/synth"
	"github.com/embedkit/typesynth/thunk"
)

func main() {
	var (
		className   = flag.String("class", "", "Full class name to synthesize and report")
		list        = flag.Bool("list", false, "List the demo class registry and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose synthesis logging")
	)
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync() //nolint:errcheck // stderr flush
		synth.SetLogger(log)
	}

	if *interactive {
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*className, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// demoKit holds one fully wired synthesis session over the built-in
// demo class registry.
type demoKit struct {
	rt      *objmodel.Runtime
	classes *foreign.Manager
	thunks  *thunk.Table
	m       *synth.Manager
}

func newDemoKit() (*demoKit, error) {
	classes := foreign.NewManager()
	rt := objmodel.NewRuntime(objmodel.V1, objmodel.WithHandleReleaser(classes.Handles()))
	thunks := thunk.NewTable()

	if err := defineDemoClasses(classes); err != nil {
		return nil, err
	}

	m, err := synth.New(synth.Config{Runtime: rt, Classes: classes, Thunks: thunks})
	if err != nil {
		return nil, err
	}
	return &demoKit{rt: rt, classes: classes, thunks: thunks, m: m}, nil
}

// defineDemoClasses populates a registry shaped like a real binding
// surface: plain classes, a base chain, a bound generic, a nested
// class, an interface, a delegate, an array, and an exception.
func defineDemoClasses(classes *foreign.Manager) error {
	str, err := classes.Define(foreign.ClassSpec{
		FullName:  "System.String",
		Assembly:  "System.Runtime.dll",
		Iterable:  true,
		Indexable: true,
		Sized:     true,
		Methods:   []string{"Contains", "Split", "Trim"},
	})
	if err != nil {
		return err
	}

	stream, err := classes.Define(foreign.ClassSpec{
		FullName: "System.IO.Stream",
		Assembly: "System.Runtime.dll",
		Methods:  []string{"Read", "Write", "Seek", "Close"},
	})
	if err != nil {
		return err
	}

	specs := []foreign.ClassSpec{
		{
			FullName: "System.IO.FileStream",
			Assembly: "System.Runtime.dll",
			Base:     stream,
			Methods:  []string{"Read", "Lock"},
		},
		{
			FullName:    "System.Collections.Generic.List`1",
			Assembly:    "System.Collections.dll",
			GenericArgs: []*foreign.Class{str},
			Iterable:    true,
			Indexable:   true,
			Sized:       true,
			Methods:     []string{"Add", "Clear", "Contains"},
		},
		{
			FullName: "System.Environment+SpecialFolder",
			Assembly: "System.Runtime.dll",
		},
		{
			FullName: "System.IDisposable",
			Assembly: "System.Runtime.dll",
			Kind:     foreign.KindInterface,
			Methods:  []string{"Dispose"},
		},
		{
			FullName: "System.EventHandler",
			Assembly: "System.Runtime.dll",
			Kind:     foreign.KindDelegate,
			Methods:  []string{"Invoke"},
		},
		{
			FullName:  "System.Byte[]",
			Assembly:  "System.Runtime.dll",
			Kind:      foreign.KindArray,
			Iterable:  true,
			Indexable: true,
			Sized:     true,
		},
		{
			FullName: "System.InvalidOperationException",
			Assembly: "System.Runtime.dll",
			Kind:     foreign.KindException,
			Methods:  []string{"ToString"},
		},
	}
	for _, spec := range specs {
		if _, err := classes.Define(spec); err != nil {
			return err
		}
	}
	return nil
}

func run(className string, listOnly bool) error {
	kit, err := newDemoKit()
	if err != nil {
		return err
	}
	defer kit.m.Teardown()

	if listOnly || className == "" {
		listClasses(kit)
		if className == "" && !listOnly {
			fmt.Println("\nUse -class <full name> for a synthesis report, or -i for interactive mode.")
		}
		return nil
	}

	var target *foreign.Class
	kit.classes.Each(func(c *foreign.Class) bool {
		if c.FullName == className {
			target = c
			return false
		}
		return true
	})
	if target == nil {
		return fmt.Errorf("class %q is not in the demo registry (use -list)", className)
	}

	typ, err := kit.m.Synthesize(target)
	if err != nil {
		return err
	}
	fmt.Print(typeReport(kit, target, typ))
	return nil
}

func listClasses(kit *demoKit) {
	width := 100
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	fmt.Printf("Demo class registry (%d classes):\n\n", kit.classes.Len())
	kit.classes.Each(func(c *foreign.Class) bool {
		line := fmt.Sprintf("  %-12s %s", c.Kind, c.FullName)
		var caps []string
		if c.Iterable {
			caps = append(caps, "iterable")
		}
		if c.Indexable {
			caps = append(caps, "indexable")
		}
		if c.Sized {
			caps = append(caps, "sized")
		}
		if len(caps) > 0 {
			line += "  [" + strings.Join(caps, " ") + "]"
		}
		if len(line) > width {
			line = line[:width-3] + "..."
		}
		fmt.Println(line)
		return true
	})
}

func typeReport(kit *demoKit, c *foreign.Class, typ *objmodel.TypeObject) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Class:    %s (%s, %s)\n", c.FullName, c.Kind, c.Assembly)
	fmt.Fprintf(&b, "Type:     %s\n", typ.Name)
	fmt.Fprintf(&b, "Base:     %s\n", typ.Base.Name)
	fmt.Fprintf(&b, "Size:     %d bytes\n", typ.BasicSize)
	fmt.Fprintf(&b, "Layout:   dict@%d weaklist@%d foreign_inst@%d\n",
		typ.DictOffset, typ.WeakListOffset, typ.ForeignInstOffset)
	fmt.Fprintf(&b, "Handle:   %#x\n", typ.HandleWord())

	b.WriteString("\nSlots:\n")
	base, end := kit.rt.Table().Region()
	for off := base; off < end; off += 8 {
		id, _ := kit.rt.Table().IDAt(off)
		addr := typ.Slot(off)
		switch {
		case addr == 0:
			continue
		case addr < objmodel.ReservedCeiling:
			fmt.Fprintf(&b, "  %-18s %#06x  host default\n", id, addr)
		default:
			owner := "?"
			if h, ok := kit.thunks.HandlerAt(addr); ok {
				owner = h.Owner
			}
			fmt.Fprintf(&b, "  %-18s %#06x  trampoline (%s)\n", id, addr, owner)
		}
	}

	keys := maps.Keys(typ.Dict)
	slices.Sort(keys)
	b.WriteString("\nDict:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-22s %v\n", k, typ.Dict[k])
	}
	return b.String()
}
