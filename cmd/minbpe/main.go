// minbpe trains byte-pair-encoding tokenizers, and encodes/decodes text with them.
//
// Run "minbpe --help" for the list of commands, or "minbpe" alone for an interactive shell.
package main

import (
	"context"
	"os"

	"github.com/gomlx/go-minbpe/internal/cli"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	root := cli.NewCLI()
	root.SetArgs(cli.NormalizeArgs(os.Args[1:]))
	err := root.ExecuteContext(context.Background())
	klog.Flush()
	cobra.CheckErr(err)
}
