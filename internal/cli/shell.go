package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/go-minbpe/storage"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/gomlx/go-minbpe/tokenizers/normalize"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Session is the state of an interactive shell. Commands that train or load a model replace Model
// with a new value; a failed command leaves it untouched.
type Session struct {
	Model     *bpe.Model // nil until a model is trained or loaded.
	VocabSize int        // Default vocabulary size for "train".
	Verbose   bool       // Report every merge while training.
	Form      normalize.Form
}

// ErrNoModel is returned by shell commands that need a model before one was trained or loaded.
var ErrNoModel = errors.New("model is not initialized, train or load first")

type shellCommandKind int

const (
	shellEncode shellCommandKind = iota
	shellDecode
	shellTrain
	shellPrint
	shellSave
	shellLoad
	shellHelp
	shellQuit
)

// shellCommand is a parsed and validated shell line.
type shellCommand struct {
	kind      shellCommandKind
	path      string
	vocabSize int // Only for shellTrain, 0 means the session default.
}

const shellUsage = `Available Commands:
  e, enc, encode <text-path>              Encode a text file and print the ids
  d, dec, decode <ids-path>               Decode a file of comma-separated ids and print the text
  t, tr, train <text-path> [vocab-size]   Train a new model on a text (or .parquet) file
  p, pr, print                            Print the current model
  s, sv, save <model-path>                Save the current model
  l, ld, load <model-path>                Load a model, replacing the current one
  h, ?, help                              Show this help
  q, quit, exit                           Exit the shell
`

var shellKeywords = map[string]shellCommandKind{
	"e": shellEncode, "enc": shellEncode, "encode": shellEncode,
	"d": shellDecode, "dec": shellDecode, "decode": shellDecode,
	"t": shellTrain, "tr": shellTrain, "train": shellTrain,
	"p": shellPrint, "pr": shellPrint, "print": shellPrint,
	"s": shellSave, "sv": shellSave, "save": shellSave,
	"l": shellLoad, "ld": shellLoad, "load": shellLoad,
	"h": shellHelp, "?": shellHelp, "help": shellHelp,
	"q": shellQuit, "quit": shellQuit, "exit": shellQuit,
}

// parseShellLine parses one line of input. Empty lines return ok=false and no error.
func parseShellLine(line string) (cmd shellCommand, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmd, false, nil
	}
	kind, found := shellKeywords[strings.ToLower(fields[0])]
	if !found {
		return cmd, false, errors.Errorf("unknown command %q", fields[0])
	}
	cmd.kind = kind
	args := fields[1:]

	minArgs, maxArgs := 0, 0
	switch kind {
	case shellEncode, shellDecode, shellSave, shellLoad:
		minArgs, maxArgs = 1, 1
	case shellTrain:
		minArgs, maxArgs = 1, 2
	}
	if len(args) < minArgs {
		return cmd, false, errors.Errorf("not enough arguments for %q", fields[0])
	}
	if len(args) > maxArgs {
		return cmd, false, errors.Errorf("too many arguments for %q", fields[0])
	}
	if len(args) > 0 {
		cmd.path = args[0]
	}
	if kind == shellTrain && len(args) == 2 {
		cmd.vocabSize, err = strconv.Atoi(args[1])
		if err != nil {
			return cmd, false, errors.Errorf("invalid vocab size %q", args[1])
		}
	}
	return cmd, true, nil
}

// execute runs one command against the session, writing results to w.
func (s *Session) execute(cmd shellCommand, w io.Writer) error {
	switch cmd.kind {
	case shellHelp:
		_, err := fmt.Fprint(w, shellUsage)
		return err
	case shellTrain:
		vocabSize := cmd.vocabSize
		if vocabSize == 0 {
			vocabSize = s.VocabSize
		}
		m, err := train(cmd.path, "", vocabSize, s.Form, s.Verbose)
		if err != nil {
			return err
		}
		s.Model = m
		_, err = fmt.Fprintf(w, "trained %d merges (vocab size %d)\n", m.NumMerges(), m.VocabSize())
		return err
	case shellLoad:
		m, err := storage.LoadModel(cmd.path)
		if err != nil {
			return err
		}
		s.Model = m
		_, err = fmt.Fprintf(w, "loaded %d merges (vocab size %d) from %s\n", m.NumMerges(), m.VocabSize(), cmd.path)
		return err
	}

	// Remaining commands need a model.
	if s.Model == nil {
		return ErrNoModel
	}
	switch cmd.kind {
	case shellEncode:
		text, err := storage.ReadText(cmd.path)
		if err != nil {
			return err
		}
		ids := s.Model.Encode(normalize.Apply(s.Form, text))
		_, err = fmt.Fprintln(w, bpe.FormatIDs(ids))
		return err
	case shellDecode:
		ids, err := storage.ReadIDs(cmd.path)
		if err != nil {
			return err
		}
		text, err := s.Model.Decode(ids)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, text)
		return err
	case shellPrint:
		_, err := fmt.Fprintln(w, renderModel(s.Model))
		return err
	case shellSave:
		if err := storage.SaveModel(cmd.path, s.Model); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "saved model to %s\n", cmd.path)
		return err
	}
	return errors.Errorf("unhandled command kind %d", cmd.kind)
}

// RunShell reads commands from in, one per line, until "quit" or the end of the input. Command errors
// are printed to out and don't stop the shell.
func RunShell(in io.Reader, out io.Writer, session *Session, prompt bool) error {
	if prompt {
		fmt.Fprint(out, shellUsage)
	}
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "minbpe> ")
		}
		if !scanner.Scan() {
			break
		}
		cmd, ok, err := parseShellLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n%s", err, shellUsage)
			continue
		}
		if !ok {
			continue
		}
		if cmd.kind == shellQuit {
			return nil
		}
		if err := session.execute(cmd, out); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
	if prompt {
		fmt.Fprintln(out)
	}
	return errors.Wrap(scanner.Err(), "reading shell input")
}

// isTerminal returns whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
