// cmd/henry/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"henrylang/internal/bytecode"
	"henrylang/internal/compiler"
	"henrylang/internal/errors"
	"henrylang/internal/lexer"
	"henrylang/internal/parser"
	"henrylang/internal/repl"
	"henrylang/internal/vm"
)

func main() {
	args := os.Args[1:]
	switch {
	case len(args) == 0:
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			if err := repl.Run(os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		runSource(string(src))
	case args[0] == "-e" && len(args) == 2:
		runSource(args[1])
	case args[0] == "-ast" && len(args) == 2:
		dumpAST(readFile(args[1]))
	case args[0] == "-dis" && len(args) == 2:
		disassemble(readFile(args[1]))
	case len(args) == 1 && !strings.HasPrefix(args[0], "-"):
		runSource(readFile(args[0]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: henry [file]")
	fmt.Fprintln(os.Stderr, "       henry -e <expression>")
	fmt.Fprintln(os.Stderr, "       henry -ast <file>   print the syntax tree")
	fmt.Fprintln(os.Stderr, "       henry -dis <file>   print the compiled bytecode")
	fmt.Fprintln(os.Stderr, "With no arguments and a terminal, starts the repl.")
}

func readFile(path string) string {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return string(src)
}

func runSource(source string) {
	prog, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, attachSource(err, source))
		os.Exit(65)
	}
	result, err := vm.New().Run(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, attachSource(err, source))
		os.Exit(70)
	}
	fmt.Println(vm.ToString(result))
}

func dumpAST(source string) {
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		fmt.Fprintln(os.Stderr, attachSource(err, source))
		os.Exit(65)
	}
	ast, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, attachSource(err, source))
		os.Exit(65)
	}
	fmt.Printf("%# v\n", pretty.Formatter(ast))
}

func disassemble(source string) {
	prog, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, attachSource(err, source))
		os.Exit(65)
	}

	var chunks []namedChunk
	collectChunks(prog.Main, &chunks)
	codeBytes := 0
	constants := 0
	for _, nc := range chunks {
		fmt.Print(nc.chunk.Disassemble(nc.name))
		codeBytes += len(nc.chunk.Code)
		constants += len(nc.chunk.Constants)
	}
	fmt.Printf("%s chunks, %s of bytecode, %s constants\n",
		humanize.Comma(int64(len(chunks))),
		humanize.Bytes(uint64(codeBytes)),
		humanize.Comma(int64(constants)))
}

type namedChunk struct {
	name  string
	chunk *bytecode.Chunk
}

// collectChunks walks nested function constants so every compiled body
// gets disassembled once, outermost first.
func collectChunks(fn *vm.Function, into *[]namedChunk) {
	*into = append(*into, namedChunk{name: fn.Name, chunk: fn.Chunk})
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.(*vm.Function); ok {
			collectChunks(nested, into)
		}
	}
}

// attachSource adds the offending source line for caret rendering.
func attachSource(err error, source string) error {
	he, ok := err.(*errors.HenryError)
	if !ok || he.Line <= 0 {
		return err
	}
	lines := strings.Split(source, "\n")
	if he.Line <= len(lines) {
		he.WithSource(strings.TrimRight(lines[he.Line-1], " \t"))
	}
	return he
}
