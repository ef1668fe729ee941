package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qt-visual-agent/llm"
	"qt-visual-agent/logutil"
)

var generateFlags struct {
	output string
}

var generateCmd = &cobra.Command{
	Use:   "generate <task description>",
	Short: "Generate a pipeline configuration from a task description",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "", "Output file (default ai_pipeline_<timestamp>.json)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY not set")
	}
	log.Info("generating pipeline",
		zap.String("model", cfg.Model),
		zap.String("api_key", logutil.RedactKey(cfg.APIKey)))

	llm.Init(&llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})

	doc, err := llm.GeneratePipeline(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := generateFlags.output
	if out == "" {
		out = fmt.Sprintf("ai_pipeline_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := os.WriteFile(out, doc, 0644); err != nil {
		return fmt.Errorf("write pipeline: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pipeline written to %s\n", out)
	return nil
}
