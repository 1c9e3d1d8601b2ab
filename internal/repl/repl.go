// internal/repl/repl.go
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"henrylang/internal/compiler"
	"henrylang/internal/vm"
)

const prompt = "henry> "

// Run reads, compiles and evaluates one line at a time. Bindings persist
// across lines; compile errors leave earlier bindings intact.
func Run(out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer saveHistory(line, histPath)

	session := compiler.NewSession()
	machine := vm.NewWithOutput(out)

	fmt.Fprintln(out, "henrylang repl; :help for commands, :quit to leave")
	for {
		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if quit := runCommand(out, session, input); quit {
				return nil
			}
			continue
		}

		prog, err := session.Compile(input)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		result, err := machine.Run(prog)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		fmt.Fprintln(out, vm.ToString(result))
	}
}

func runCommand(out io.Writer, session *compiler.Session, input string) bool {
	switch input {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, ":help     show this help")
		fmt.Fprintln(out, ":globals  list all bindings with their types")
		fmt.Fprintln(out, ":quit     leave the repl")
	case ":globals":
		for _, g := range session.Globals() {
			fmt.Fprintf(out, "%-28s %s\n", g.Key, g.Type)
		}
	default:
		fmt.Fprintf(out, "unknown command %s; try :help\n", input)
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".henry_history")
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
