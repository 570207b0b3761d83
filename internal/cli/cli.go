// Package cli implements the minbpe command line: one-shot encode/decode/train/export-hf commands and
// an interactive shell.
package cli

import (
	"flag"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/gomlx/go-minbpe/internal/config"
	"github.com/gomlx/go-minbpe/tokenizers/normalize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// Command names and their aliases, as accepted by both the command line and the shell.
var commandAliases = map[string][]string{
	"encode":    {"e", "enc"},
	"decode":    {"d", "dec"},
	"train":     {"t", "tr"},
	"export-hf": nil,
	"shell":     nil,
}

// NormalizeArgs strips the leading dashes of the first argument if it names a command, so that
// "minbpe -e ..." and "minbpe --encode ..." work as "minbpe encode ...".
func NormalizeArgs(args []string) []string {
	if len(args) == 0 || !strings.HasPrefix(args[0], "-") {
		return args
	}
	name := strings.TrimLeft(args[0], "-")
	for cmd, aliases := range commandAliases {
		if name == cmd || slices.Contains(aliases, name) {
			return append([]string{name}, args[1:]...)
		}
	}
	return args
}

func envHelp() string {
	vars := config.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("Environment Variables:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %-22s %s\n", name, vars[name].Description)
	}
	return sb.String()
}

// formFlag returns the normalization form selected with --normalize.
func formFlag(cmd *cobra.Command) (normalize.Form, error) {
	name, err := cmd.Flags().GetString("normalize")
	if err != nil {
		return normalize.None, err
	}
	return normalize.Parse(name)
}

// NewCLI returns the root command. Without a subcommand it starts the interactive shell.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minbpe",
		Short: "Byte-pair-encoding tokenizer: train, encode and decode",
		Long:  "Byte-pair-encoding tokenizer: train, encode and decode.\n\n" + envHelp(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			_, err := formFlag(cmd)
			return err
		},
		Args: cobra.NoArgs,
		RunE: runShell,
	}
	rootCmd.PersistentFlags().String("normalize", config.Normalize, "Unicode normalization applied to text before training/encoding: none, NFC, NFD, NFKC or NFKD")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cobra.EnableCommandSorting = false

	encodeCmd := &cobra.Command{
		Use:     "encode <text-path> <model-path> [out-path]",
		Aliases: commandAliases["encode"],
		Short:   "Encode a text file into comma-separated symbol ids",
		Args:    cobra.RangeArgs(2, 3),
		RunE:    runEncode,
	}
	encodeCmd.Flags().Bool("lines", false, "Encode every line independently (in parallel), writing one ids list per line")
	encodeCmd.Flags().Int("parallel", config.NumParallel, "Maximum number of lines encoded in parallel, with --lines")

	decodeCmd := &cobra.Command{
		Use:     "decode <ids-path> <model-path> [out-path]",
		Aliases: commandAliases["decode"],
		Short:   "Decode a file of comma-separated symbol ids into text",
		Args:    cobra.RangeArgs(2, 3),
		RunE:    runDecode,
	}
	decodeCmd.Flags().Bool("lines", false, "Decode every line as an independent ids list")

	trainCmd := &cobra.Command{
		Use:     "train <text-path> [out-path]",
		Aliases: commandAliases["train"],
		Short:   "Train a model on a text file (or a .parquet dataset shard)",
		Long: "Train a model on a text file, or on a string column of a .parquet dataset shard.\n" +
			"The model is written to out-path (zstd-compressed if it ends with .zst), or printed.",
		Args: cobra.RangeArgs(1, 2),
		RunE: runTrain,
	}
	trainCmd.Flags().Int("vocab-size", config.VocabSize, "Vocabulary size: 256 base symbols plus the number of merges to learn")
	trainCmd.Flags().String("column", "", "Text column to read from .parquet files (default \"text\")")
	trainCmd.Flags().Bool("verbose", config.Verbose, "Report every merge")

	exportCmd := &cobra.Command{
		Use:   "export-hf <model-path> [out-path]",
		Short: "Export a model as a HuggingFace tokenizer.json",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runExportHF,
	}

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}

	rootCmd.AddCommand(
		encodeCmd,
		decodeCmd,
		trainCmd,
		exportCmd,
		shellCmd,
	)
	return rootCmd
}
