package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qt-visual-agent/eventloop"
	"qt-visual-agent/pipeline"
)

var runFlags struct {
	file  string
	entry string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a pipeline configuration file",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.file, "file", "f", "", "Pipeline configuration file, JSON or YAML (required)")
	f.StringVar(&runFlags.entry, "entry", "", "Entry node name (required)")

	_ = runCmd.MarkFlagRequired("file")
	_ = runCmd.MarkFlagRequired("entry")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	p, err := pipeline.LoadFile(runFlags.file, buildOptions(cfg, log))
	if err != nil {
		return err
	}

	loop := eventloop.New(log)
	defer loop.Close()
	if err := loop.StartCancelHotkey(cfg.CancelHotkey); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := loop.Execute(ctx, p, runFlags.entry)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("run %s: %s", res.Status, res.Reason)
	}
	return nil
}
