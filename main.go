// unsafe-finder reports public unsafe functions and functions that hide
// unsafe blocks inside Rust impl blocks and trait definitions.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/phobologic/unsafe-finder/internal/config"
	"github.com/phobologic/unsafe-finder/internal/report"
)

var version = "dev"

const usageLine = "Usage: unsafe-finder [directory | filename.rs]..."

// errNoPaths is returned after the usage line has been printed.
var errNoPaths = errors.New("no paths given")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errNoPaths) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

type options struct {
	configPath  string
	exclude     []string
	gitignore   bool
	format      string
	jobs        int
	maxFileSize int64
	strict      bool
	color       string
	logLevel    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "unsafe-finder [flags] [directory | filename.rs]...",
		Short: "Inventory unsafe boundaries in Rust code",
		Long: `unsafe-finder scans Rust files and directories and reports, for every
top-level impl block and trait definition:

  --- pub unsafe fn NAME          public functions declared unsafe
  --- unsafe-containing fn NAME   functions not declared unsafe whose body
                                  contains an unsafe block

Directories are expanded recursively; only .rs files are analyzed.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(stderr, usageLine)
				return errNoPaths
			}
			if err := opts.load(cmd); err != nil {
				return err
			}
			return scan(args, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("unsafe-finder {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default: .unsafe-finder.yml in the working directory, if present)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "doublestar pattern of paths to skip during directory expansion (repeatable)")
	f.BoolVar(&opts.gitignore, "gitignore", false, "skip paths matched by the .gitignore of each directory argument")
	f.StringVar(&opts.format, "format", report.FormatText, "output format: text, json or sarif")
	f.IntVarP(&opts.jobs, "jobs", "j", 1, "files analyzed in parallel (0 = GOMAXPROCS)")
	f.Int64Var(&opts.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (0 = no limit)")
	f.BoolVar(&opts.strict, "strict", false, "exit with status 1 if any path was skipped")
	f.StringVar(&opts.color, "color", "auto", "colorize text output: auto, always or never")
	f.StringVar(&opts.logLevel, "log-level", "warn", "diagnostic log level: trace, debug, info, warn or error")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

// load merges the config file into opts. Flags set on the command line win.
func (o *options) load(cmd *cobra.Command) error {
	var (
		cfg config.FileConfig
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg, _, err = config.LoadLocal(".")
		if err != nil && !errors.Is(err, config.ErrNoConfig) {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	flags := cmd.Flags()
	if !flags.Changed("exclude") && cfg.Exclude != nil {
		o.exclude = cfg.Exclude
	}
	if !flags.Changed("gitignore") && cfg.Gitignore != nil {
		o.gitignore = *cfg.Gitignore
	}
	if !flags.Changed("format") && cfg.Format != nil {
		o.format = *cfg.Format
	}
	if !flags.Changed("jobs") && cfg.Jobs != nil {
		o.jobs = *cfg.Jobs
	}
	if !flags.Changed("max-file-size") && cfg.MaxFileSize != nil {
		o.maxFileSize = *cfg.MaxFileSize
	}
	if !flags.Changed("strict") && cfg.Strict != nil {
		o.strict = *cfg.Strict
	}
	if !flags.Changed("color") && cfg.Color != nil {
		o.color = *cfg.Color
	}
	if !flags.Changed("log-level") && cfg.LogLevel != nil {
		o.logLevel = *cfg.LogLevel
	}

	return o.validate()
}

func (o *options) validate() error {
	if !slices.Contains(report.Formats, o.format) {
		return fmt.Errorf("unsupported format %q", o.format)
	}
	if !slices.Contains(config.ColorModes, o.color) {
		return fmt.Errorf("unsupported color mode %q", o.color)
	}
	if hclog.LevelFromString(o.logLevel) == hclog.NoLevel {
		return fmt.Errorf("unsupported log level %q", o.logLevel)
	}
	if o.jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	if o.jobs == 0 {
		o.jobs = runtime.GOMAXPROCS(0)
	}
	if o.maxFileSize < 0 {
		return fmt.Errorf("--max-file-size must not be negative")
	}
	return nil
}

// useColor resolves the color mode for w. "auto" colors only a terminal stdout.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && !color.NoColor
}
