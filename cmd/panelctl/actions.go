package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CTRL-ALT-OP/docker-tools/internal/app"
	"github.com/CTRL-ALT-OP/docker-tools/internal/command"
	"github.com/CTRL-ALT-OP/docker-tools/internal/config"
	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
	"github.com/CTRL-ALT-OP/docker-tools/internal/task"
)

var archiveOutput string

// commandBuilder assembles one concrete command with the progress callback
// and logger every variant reports through.
type commandBuilder func(a *app.App, cfg *config.Config, progress command.ProgressFunc, log *logger.Logger) (command.Command, error)

// cleanupCmd removes cache and build directories from the project tree.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete cache and build directories from the project",
	Run: func(cmd *cobra.Command, args []string) {
		runAction(buildCleanupCommand, printCleanupReport)
	},
}

// archiveCmd packs the project into an archive using the platform preset.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Pack the project directory into an archive",
	Run: func(cmd *cobra.Command, args []string) {
		runAction(buildArchiveCommand, printArchiveReport)
	},
}

// statusCmd reports the git state of the project tree.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show git branch and working tree state",
	Run: func(cmd *cobra.Command, args []string) {
		runAction(buildStatusCommand, printGitStatusReport)
	},
}

func buildCleanupCommand(a *app.App, cfg *config.Config, progress command.ProgressFunc, log *logger.Logger) (command.Command, error) {
	return command.NewCleanupCommand(cfg.Project.SourceDir, cfg.Project.IgnoreDirs, progress, log), nil
}

func buildArchiveCommand(a *app.App, cfg *config.Config, progress command.ProgressFunc, log *logger.Logger) (command.Command, error) {
	output := archiveOutput
	if output == "" {
		output = filepath.Base(cfg.Project.SourceDir) + ".tgz"
	}
	cmdline, err := a.Catalog().ArchiveCommand(map[string]string{
		"archive_name": output,
		"file_path":    cfg.Project.SourceDir,
	})
	if err != nil {
		return nil, fmt.Errorf("no archive preset: %w", err)
	}
	return command.NewArchiveCommand(a.Runner(), cfg.Project.SourceDir, output, cmdline, progress, log), nil
}

func buildStatusCommand(a *app.App, cfg *config.Config, progress command.ProgressFunc, log *logger.Logger) (command.Command, error) {
	return command.NewGitStatusCommand(a.Runner(), cfg.Project.SourceDir, progress, log), nil
}

// runAction brings the application up, runs one command on the task manager,
// prints its outcome, and shuts everything down again.
func runAction(build commandBuilder, print func(res result.Result[any])) {
	cfg, log, ok := loadRuntime()
	if !ok {
		os.Exit(1)
	}

	a := app.New(cfg, log)
	if err := a.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			log.Error("shutdown incomplete", err)
		}
	}()

	progress := func(message string, level command.Level) {
		a.Foreground().Post(func() {
			fmt.Printf("[%s] %s\n", level, message)
		})
	}

	c, err := build(a, cfg, progress, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare command: %v\n", err)
		os.Exit(1)
	}

	done := make(chan result.Result[any], 1)
	_, err = a.Tasks().RunTask(func(ctx context.Context) (any, error) {
		res := command.Run(ctx, c, progress, func(r result.Result[any]) {
			done <- r
		}, log)
		return res, nil
	}, task.WithName(c.Name()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to submit %s: %v\n", c.Name(), err)
		os.Exit(1)
	}

	res := <-done
	print(res)
	if res.IsError() {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", c.Name(), res.Err())
		os.Exit(1)
	}
}

func printCleanupReport(res result.Result[any]) {
	report, ok := res.Data().(command.CleanupReport)
	if !ok {
		return
	}
	fmt.Printf("Deleted %d items, freed %d bytes\n", len(report.Deleted), report.FreedBytes)
	for _, path := range report.Failed {
		fmt.Printf("  failed: %s\n", path)
	}
}

func printArchiveReport(res result.Result[any]) {
	report, ok := res.Data().(command.ArchiveReport)
	if !ok {
		return
	}
	fmt.Printf("Archive: %s (%d -> %d bytes)\n", report.ArchivePath, report.OriginalSize, report.CompressedSize)
}

func printGitStatusReport(res result.Result[any]) {
	report, ok := res.Data().(command.GitStatusReport)
	if !ok {
		return
	}
	state := "clean"
	if !report.Clean {
		state = fmt.Sprintf("%d modified files", len(report.Modified))
	}
	fmt.Printf("Branch %s: %s\n", report.Branch, state)
	for _, path := range report.Modified {
		fmt.Printf("  %s\n", path)
	}
}

func init() {
	archiveCmd.Flags().StringVarP(&archiveOutput, "output", "o", "", "Archive output path (default: <project>.tgz)")
}
