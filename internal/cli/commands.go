package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomlx/go-minbpe/internal/config"
	"github.com/gomlx/go-minbpe/storage"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/gomlx/go-minbpe/tokenizers/hfexport"
	"github.com/gomlx/go-minbpe/tokenizers/normalize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// optionalArg returns args[i] or "" if not given.
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// writeOutput writes content to outPath, or to w followed by a newline if outPath is empty.
func writeOutput(w io.Writer, outPath, content string) error {
	if outPath == "" {
		_, err := fmt.Fprintln(w, content)
		return err
	}
	return storage.WriteFile(outPath, []byte(content))
}

// splitLines splits text in lines, ignoring the line ending of the last one.
func splitLines(text string) []string {
	text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func runEncode(cmd *cobra.Command, args []string) error {
	textPath, modelPath, outPath := args[0], args[1], optionalArg(args, 2)
	form, err := formFlag(cmd)
	if err != nil {
		return err
	}
	m, err := storage.LoadModel(modelPath)
	if err != nil {
		return err
	}
	text, err := storage.ReadText(textPath)
	if err != nil {
		return err
	}
	text = normalize.Apply(form, text)

	byLine, _ := cmd.Flags().GetBool("lines")
	if !byLine {
		return writeOutput(cmd.OutOrStdout(), outPath, bpe.FormatIDs(m.Encode(text)))
	}
	parallel, _ := cmd.Flags().GetInt("parallel")
	lines := splitLines(text)
	encoded, err := bpe.EncodeBatch(cmd.Context(), m, lines, parallel)
	if err != nil {
		return err
	}
	formatted := make([]string, len(encoded))
	for i, ids := range encoded {
		formatted[i] = bpe.FormatIDs(ids)
	}
	klog.V(1).Infof("Encoded %d lines from %q", len(lines), textPath)
	return writeOutput(cmd.OutOrStdout(), outPath, strings.Join(formatted, "\n"))
}

func runDecode(cmd *cobra.Command, args []string) error {
	idsPath, modelPath, outPath := args[0], args[1], optionalArg(args, 2)
	m, err := storage.LoadModel(modelPath)
	if err != nil {
		return err
	}
	byLine, _ := cmd.Flags().GetBool("lines")
	if !byLine {
		ids, err := storage.ReadIDs(idsPath)
		if err != nil {
			return err
		}
		text, err := m.Decode(ids)
		if err != nil {
			return errors.WithMessagef(err, "decoding %q", idsPath)
		}
		return writeOutput(cmd.OutOrStdout(), outPath, text)
	}

	content, err := storage.ReadText(idsPath)
	if err != nil {
		return err
	}
	lines := splitLines(content)
	texts := make([]string, len(lines))
	for i, line := range lines {
		ids, err := bpe.ParseIDs(line)
		if err != nil {
			return errors.WithMessagef(err, "%s:%d", idsPath, i+1)
		}
		if texts[i], err = m.Decode(ids); err != nil {
			return errors.WithMessagef(err, "decoding %s:%d", idsPath, i+1)
		}
	}
	return writeOutput(cmd.OutOrStdout(), outPath, strings.Join(texts, "\n"))
}

// train reads the corpus at path, normalizes it and trains a model.
func train(path, column string, vocabSize int, form normalize.Form, verbose bool) (*bpe.Model, error) {
	text, err := storage.ReadCorpus(path, column)
	if err != nil {
		return nil, err
	}
	text = normalize.Apply(form, text)
	klog.Infof("Training on %q (%d bytes), vocab size %d", path, len(text), vocabSize)
	m, err := bpe.Train(text, vocabSize, klogReporter{verbose: verbose})
	if err != nil {
		return nil, err
	}
	klog.Infof("Trained %d merges", m.NumMerges())
	return m, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	textPath, outPath := args[0], optionalArg(args, 1)
	form, err := formFlag(cmd)
	if err != nil {
		return err
	}
	vocabSize, _ := cmd.Flags().GetInt("vocab-size")
	column, _ := cmd.Flags().GetString("column")
	verbose, _ := cmd.Flags().GetBool("verbose")
	m, err := train(textPath, column, vocabSize, form, verbose)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), bpe.Serialize(m))
		return err
	}
	return storage.SaveModel(outPath, m)
}

func runExportHF(cmd *cobra.Command, args []string) error {
	modelPath, outPath := args[0], optionalArg(args, 1)
	m, err := storage.LoadModel(modelPath)
	if err != nil {
		return err
	}
	content, err := hfexport.Export(m)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outPath, string(content))
}

func runShell(cmd *cobra.Command, _ []string) error {
	form, err := formFlag(cmd)
	if err != nil {
		return err
	}
	session := &Session{
		VocabSize: config.VocabSize,
		Verbose:   config.Verbose,
		Form:      form,
	}
	return RunShell(cmd.InOrStdin(), cmd.OutOrStdout(), session, isTerminal(cmd.InOrStdin()))
}
