package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"minischeme/interpreter-go/pkg/interpreter"
	"minischeme/interpreter-go/pkg/runtime"
	"minischeme/interpreter-go/pkg/syntax"
)

const (
	historyFile = ".minischeme_history"
	promptMain  = "> "
	promptCont  = "  "
)

func runREPL() int {
	fmt.Fprintln(os.Stdout, cliToolVersion)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	interp := interpreter.New()

	for {
		// Accumulate possibly-multiline input until the reader says the
		// form is complete.
		forms, code, ok := readForms(ln)
		if !ok {
			fmt.Fprintln(os.Stdout)
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}

		terminated := false
		for _, form := range forms {
			val, err := interp.EvalForm(form)
			if err != nil {
				fmt.Fprintln(os.Stdout, err)
				break
			}
			if val.Kind() == runtime.KindTerminate {
				terminated = true
				break
			}
			if val.Kind() != runtime.KindVoid {
				fmt.Fprintln(os.Stdout, runtime.FormatValue(val))
			}
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if terminated {
			break
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readForms prompts until the accumulated input parses as complete
// forms. A syntax error that is not mere incompleteness is printed and
// the buffer discarded.
func readForms(ln *liner.State) ([]syntax.Node, string, bool) {
	var src string
	for {
		prompt := promptMain
		if src != "" {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				src = ""
				continue
			}
			return nil, "", false
		}
		if src == "" {
			src = line
		} else {
			src += "\n" + line
		}
		if strings.TrimSpace(src) == "" {
			return nil, "", true
		}

		forms, err := syntax.Read(src)
		if err != nil {
			if errors.Is(err, syntax.ErrIncomplete) {
				continue
			}
			fmt.Fprintln(os.Stdout, err)
			return nil, "", true
		}
		return forms, src, true
	}
}
