package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/unsafe-finder/internal/config"
)

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter unsafe-finder config file",
		Long: `Write a starter config file listing every setting with its default value.

path defaults to ./` + config.LocalNames[0] + `. If path is a directory the file is
created inside it. An existing file is only replaced with --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, dryRun, force, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// runInit implements the `unsafe-finder init` subcommand.
func runInit(args []string, dryRun, force bool, stdout, stderr io.Writer) error {
	if dryRun {
		_, _ = fmt.Fprint(stdout, config.Template)
		return nil
	}

	path := initPath(args)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote config to %s\n", path)
	return nil
}

func initPath(args []string) string {
	if len(args) == 0 {
		return config.LocalNames[0]
	}
	if fi, err := os.Stat(args[0]); err == nil && fi.IsDir() {
		return filepath.Join(args[0], config.LocalNames[0])
	}
	return args[0]
}
