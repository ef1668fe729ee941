// visual-agent is the main CLI: run, find, find-color, generate.
//
// Usage:
//
//	visual-agent run -f <pipeline.json> --entry <node>
//	visual-agent find --template <file.png> [--threshold 0.8] [--click]
//	visual-agent find-color --lower h,s,v --upper h,s,v [--count 1]
//	visual-agent generate "task description" [-o <out.json>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "visual-agent",
	Short: "Screen recognition and UI automation pipelines",
	Long: "visual-agent locates visual targets in screen captures and drives\n" +
		"mouse and keyboard input through configurable recognize-act pipelines.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(findColorCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
