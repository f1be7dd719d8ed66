// Command typedump inspects how a set of signatures compiles: the expanded
// signature order, the discrimination tree with its fall-through flags, and
// the emitted dispatcher source. It is the debugging surface for the
// ordering and fall-through subtleties of union, variadic, conversion and
// any-typed signatures.
//
// Usage:
//
//	typedump [-tree] [-source] [-name fn] "number, string" "...number"
//	typedump -m universe.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/mattn/go-isatty"
	"github.com/sanity-io/litter"

	"github.com/Hypercubed/typed-function/internal/dispatch"
	"github.com/Hypercubed/typed-function/internal/manifest"
)

var (
	manifestPath = flag.String("m", "", "load signatures from a YAML manifest")
	fnName       = flag.String("name", "", "dispatcher name (ignored with -m)")
	showTree     = flag.Bool("tree", false, "print only the discrimination tree")
	showSource   = flag.Bool("source", false, "print only the emitted source")
	debugTree    = flag.Bool("debug", false, "dump the tree as full Go structures")
)

func main() {
	flag.Parse()

	m, err := loadManifest()
	if err != nil {
		fatal(err)
	}
	_, d, err := m.Build()
	if err != nil {
		fatal(err)
	}

	out := &printer{color: isatty.IsTerminal(os.Stdout.Fd())}
	all := !*showTree && !*showSource

	if all {
		out.section("signatures")
		for _, e := range d.Signatures() {
			fmt.Printf("  %s\n", e.Key)
		}
	}
	if all || *showTree {
		out.section("tree")
		if *debugTree {
			fmt.Println(treeDumper.Sdump(d.Root()))
		} else {
			dumpTree(d.Root(), "  ")
		}
	}
	if all || *showSource {
		out.section("source")
		fmt.Print(d.Source())
	}
}

func loadManifest() (*manifest.Manifest, error) {
	if *manifestPath != "" {
		return manifest.Load(*manifestPath)
	}
	if flag.NArg() == 0 {
		return nil, fmt.Errorf("no signatures given; pass signature strings or -m manifest.yaml")
	}
	return &manifest.Manifest{Name: *fnName, Signatures: flag.Args()}, nil
}

// dumpTree prints one line per node: the guarding param, the terminal
// signature if any, and the fall-through flag.
func dumpTree(n *dispatch.Node, indent string) {
	label := "(root)"
	if n.Param != nil {
		label = n.Param.String()
	}
	line := indent + label
	if n.Signature != nil {
		line += fmt.Sprintf("  terminal=%s", n.Signature)
	}
	if n.FallThrough {
		line += "  fallThrough"
	}
	if n.SiblingFallThrough {
		line += "  siblingFallThrough"
	}
	fmt.Println(line)
	for _, child := range n.Childs {
		dumpTree(child, indent+"  ")
	}
}

type printer struct {
	color bool
}

func (p *printer) section(title string) {
	if p.color {
		fmt.Printf("\x1b[1;36m== %s\x1b[0m\n", title)
	} else {
		fmt.Printf("== %s\n", title)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "typedump: %v\n", err)
	os.Exit(1)
}

// treeDumper renders the full node structures for -debug. Paths repeat the
// parent params at every level, so they are elided from the dump.
var treeDumper = litter.Options{
	HidePrivateFields: true,
	FieldExclusions:   regexp.MustCompile(`^(Path|Fn)$`),
}
