package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/expense-import/cmd/batch"
	"fjacquet/expense-import/cmd/categorize"
	"fjacquet/expense-import/cmd/export"
	"fjacquet/expense-import/cmd/importcmd"
	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/cmd/rules"
	"fjacquet/expense-import/cmd/summary"
)

func init() {
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
