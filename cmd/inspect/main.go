package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	sessao "github.com/sessao/session-core"
	"github.com/sessao/session-core/document"
	"github.com/sessao/session-core/render"
)

func main() {
	var (
		docFile     = flag.String("doc", "", "Path to protocol document (YAML)")
		role        = flag.String("role", "", "Role to inspect")
		mermaid     = flag.Bool("mermaid", false, "Print a Mermaid chart (graph, or projection with -role)")
		list        = flag.Bool("list", false, "List roles and their state counts and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *docFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -doc <protocol.yaml> [-role name] [-mermaid] [-list] [-i]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*docFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	proto, err := document.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := sessao.Compile(proto)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Protocol %q is invalid:\n", proto.Name)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(os.Stderr, "  %v\n", d)
		}
		os.Exit(1)
	}

	switch {
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case *mermaid && *role != "":
		p, err := res.Model.Projection(*role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(render.Projection(p))

	case *mermaid:
		fmt.Print(render.Graph(res.Graph))

	case *list:
		fmt.Printf("protocol %s: valid\n", res.Model.Protocol())
		for _, r := range res.Model.Roles() {
			states, _ := res.Model.StatesFor(r)
			fmt.Printf("  %-16s %d states\n", r, len(states))
		}

	case *role != "":
		printRole(res, *role)

	default:
		fmt.Printf("protocol %s: valid, %d roles\n", res.Model.Protocol(), len(res.Model.Roles()))
		fmt.Println("use -list, -role, -mermaid, or -i to inspect")
	}
}

func printRole(res *sessao.Result, role string) {
	states, err := res.Model.StatesFor(role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("role %s\n", role)
	for _, id := range states {
		marker := ""
		if res.Model.IsTerminal(role, id) {
			marker = " (terminal)"
		}
		fmt.Printf("  state %d%s\n", id, marker)
		ops, _ := res.Model.OperationsAt(role, id)
		for _, op := range ops {
			next, err := res.Model.Transition(role, id, op)
			if err != nil {
				continue
			}
			fmt.Printf("    %-40s -> %d\n", op.String(), next)
		}
	}
}
