package prog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dop251/goja/parser"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/engine"
	"src.jsil.dev/pkg/rt"
)

const (
	promptMain  = "> "
	promptCont  = "... "
	historyFile = "jsil/history"
)

// lineReader reads one line of input, showing a prompt if it is
// interactive. It returns io.EOF at the end of the input and errInterrupted
// when the user abandons the current input.
type lineReader interface {
	readLine(prompt string) (string, error)
	addHistory(entry string)
	close()
}

var errInterrupted = liner.ErrPromptAborted

// repl evaluates input until its end. Line editing and prompts are only used
// when in is a terminal.
func repl(ev *engine.Engine, in io.Reader, out, errOut io.Writer) error {
	var r lineReader
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		r = newTerminalReader()
	} else {
		r = &pipeReader{bufio.NewScanner(in)}
	}
	defer r.close()

	for {
		src, err := readInput(r)
		if err == io.EOF {
			return nil
		}
		if err == errInterrupted {
			continue
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		r.addHistory(src)
		v, err := ev.Evaluate("[repl]", src)
		if err != nil {
			diag.ShowError(errOut, err)
			continue
		}
		fmt.Fprintln(out, showValue(v))
	}
}

// readInput reads lines until they form a complete script or a syntax error
// that more input cannot fix.
func readInput(r lineReader) (string, error) {
	var sb strings.Builder
	for {
		prompt := promptMain
		if sb.Len() > 0 {
			prompt = promptCont
		}
		line, err := r.readLine(prompt)
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
		if !incomplete(sb.String()) {
			return sb.String(), nil
		}
	}
}

func incomplete(src string) bool {
	_, err := parser.ParseFile(nil, "", src, 0)
	return err != nil && strings.Contains(err.Error(), "Unexpected end of input")
}

func showValue(v rt.Value) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return rt.ToDisplayString(v)
}

type pipeReader struct{ sc *bufio.Scanner }

func (r *pipeReader) readLine(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *pipeReader) addHistory(string) {}
func (r *pipeReader) close()            {}

type terminalReader struct {
	st          *liner.State
	historyPath string
}

func newTerminalReader() *terminalReader {
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)
	r := &terminalReader{st: st}
	path, err := xdg.StateFile(historyFile)
	if err != nil {
		logger.Warnf("cannot locate history file: %v", err)
		return r
	}
	r.historyPath = path
	if f, err := os.Open(path); err == nil {
		st.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *terminalReader) readLine(prompt string) (string, error) {
	return r.st.Prompt(prompt)
}

func (r *terminalReader) addHistory(entry string) {
	r.st.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
}

func (r *terminalReader) close() {
	if r.historyPath != "" {
		if f, err := os.Create(r.historyPath); err == nil {
			r.st.WriteHistory(f)
			f.Close()
		} else {
			logger.Warnf("cannot save history: %v", err)
		}
	}
	r.st.Close()
}
