// Package main provides the entry point for the notesmirror CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thesavant42/notesmirror/internal/automation"
	"github.com/thesavant42/notesmirror/internal/config"
	"github.com/thesavant42/notesmirror/internal/modes"
	"github.com/thesavant42/notesmirror/internal/notes"
	"github.com/thesavant42/notesmirror/internal/output"
	"github.com/thesavant42/notesmirror/internal/ui"
)

// Build info set via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s)", version, short)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// app carries the settings resolved before any subcommand runs.
type app struct {
	settings config.Config
	log      zerolog.Logger
}

// modesConfig builds the per-command configuration.
func (a *app) modesConfig(cmd *cobra.Command) *modes.Config {
	cfg := modes.FromSettings(a.settings)
	cfg.Out = cmd.OutOrStdout()
	cfg.Logger = a.log
	cfg.Spinner = isTerminal(cmd.ErrOrStderr())
	return cfg
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "notesmirror",
		Short: "Mirror a Notes folder tree to HTML files",
		Long: `notesmirror exports a folder of the Notes app, with all of its subfolders,
to a directory of HTML files. Images embedded in a note are moved into a
"<note>-attachments" directory next to it and the note is rewritten to
reference them.

Settings are read from ~/.config/notesmirror/config.yaml, .env files,
NOTESMIRROR_* environment variables and flags, in increasing precedence.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Print progress and diagnostics")
	flags.String("script", "", "Path to a Notes automation script (default: built-in AppleScript)")
	flags.String("interpreter", "", "Program used to run the automation script")
	flags.Int("workers", 0, "Files processed concurrently by extract")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return output.NewUserErrorWithCause(err.Error(), err)
		}
		a.settings = settings
		a.log = newLogger(cmd.ErrOrStderr(), settings.Verbose)
		if settings.File != "" {
			a.log.Debug().Str("file", settings.File).Msg("loaded config")
		}
		return nil
	}

	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newExtractCmd(a))
	cmd.AddCommand(newVerifyCmd(a))

	return cmd
}

// loadSettings layers flags over the config file and environment.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	config.LoadEnvFiles()

	settings, err := config.Load()
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		settings.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("script") {
		settings.Script, _ = flags.GetString("script")
	}
	if flags.Changed("interpreter") {
		settings.Interpreter, _ = flags.GetString("interpreter")
	}
	if flags.Changed("workers") {
		settings.Workers, _ = flags.GetInt("workers")
	}
	if f := flags.Lookup("no-extract"); f != nil && f.Changed {
		settings.Extract = false
	}

	return settings, settings.Validate()
}

// newLogger returns a console logger on w when verbose, else a disabled one.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// exitError maps a fatal command error to its exit code.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	var scriptErr *automation.ScriptError
	var listingErr *notes.ListingError
	switch {
	case errors.Is(err, notes.ErrFolderNotFound):
		return output.NewUserErrorWithCause(err.Error(), err)
	case errors.Is(err, automation.ErrUnavailable),
		errors.As(err, &scriptErr),
		errors.As(err, &listingErr):
		return output.NewSystemErrorWithCause(err.Error(), err)
	case errors.Is(err, ui.ErrInterrupted), errors.Is(err, context.Canceled):
		return output.NewSystemErrorWithCause("interrupted", err)
	default:
		return output.NewSystemErrorWithCause(err.Error(), err)
	}
}

// printErrors prints the error count and, when verbose, each error.
func printErrors(w io.Writer, errs []error, verbose bool) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(w, ui.SummaryLine("Errors:", len(errs)))
	if verbose {
		fmt.Fprint(w, ui.ErrorList(errs))
	}
}

func newListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts and their folders",
		Long: `Lists every account known to Notes with its top-level folders and
the number of notes in each. Use --all to show the whole folder tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := modes.RunList(cmd.Context(), a.modesConfig(cmd))
			if err != nil {
				return exitError(err)
			}

			w := cmd.OutOrStdout()
			modes.RenderForest(w, result.Forest, all)
			if a.settings.Verbose {
				fmt.Fprintln(w, ui.SummaryHeader())
				fmt.Fprintln(w, ui.SummaryLine("Accounts:", result.Accounts))
				fmt.Fprintln(w, ui.SummaryLine("Folders:", result.Folders))
				fmt.Fprintln(w, ui.SummaryLine("Notes:", result.Notes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show nested folders")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "export <[account:]folder> <output-dir>",
		Short: "Export a folder and its subfolders to HTML",
		Long: `Exports the named folder, with all of its subfolders, into output-dir.
Each note becomes "<title> -- <id>.html" and its embedded images are
extracted into a "<title> -- <id>-attachments" directory beside it.

Without an account, all accounts are searched breadth first and the
shallowest match wins.

Examples:
  notesmirror export Recipes ./backup
  notesmirror export iCloud:Work ./backup
  notesmirror export --account Google "Meeting: Q3" ./backup`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.modesConfig(cmd)
			w := cmd.OutOrStdout()

			target := notes.ParseTarget(args[0])
			if account != "" {
				target = notes.Target{Account: account, Folder: args[0]}
			}

			if cfg.Verbose {
				fmt.Fprint(w, ui.Banner(buildVersion()))
				fmt.Fprint(w, ui.Target("Folder", target.String()))
			}

			var progress *ui.Progress
			cfg.OnProgress = func(event string, data any) {
				switch event {
				case "notes_found":
					if total := data.(int); total > 0 && !cfg.Verbose && isTerminal(w) {
						progress = ui.NewProgress(w, total, "Exporting notes")
					}
				case "note_written":
					if progress != nil {
						progress.Increment()
					}
				}
			}

			result, err := modes.RunExport(cmd.Context(), cfg, target, args[1])
			if progress != nil {
				progress.Done()
			}
			if err != nil {
				return exitError(err)
			}

			fmt.Fprintln(w, ui.SummaryHeader())
			fmt.Fprintln(w, ui.SummaryLine("Folder:", result.Folder))
			fmt.Fprintln(w, ui.SummaryLine("Output:", result.OutputDir))
			fmt.Fprintln(w, ui.SummaryLine("Folders created:", result.FoldersCreated))
			fmt.Fprintln(w, ui.SummaryLine("Notes written:", fmt.Sprintf("%d/%d", result.NotesWritten, result.NotesFound)))
			if cfg.Extract {
				fmt.Fprintln(w, ui.SummaryLine("Attachments:", result.AttachmentsExtracted))
			}
			printErrors(w, result.Errors, cfg.Verbose)
			fmt.Fprintln(w)

			if len(result.Errors) > 0 {
				return output.NewPartialError(len(result.Errors), "items")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only search this account")
	cmd.Flags().Bool("no-extract", false, "Leave embedded images inline")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file-or-directory>",
		Short: "Extract embedded images from exported HTML",
		Long: `Moves base64 images embedded in HTML files into attachment directories
and rewrites the files to reference them. A directory is searched
recursively for .html and .htm files. Running it twice is harmless.

Examples:
  notesmirror extract "./backup/Recipes/Soup -- 9f3c.html"
  notesmirror extract ./backup`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.modesConfig(cmd)
			w := cmd.OutOrStdout()

			var progress *ui.Progress
			cfg.OnProgress = func(event string, data any) {
				switch event {
				case "files_found":
					if total := data.(int); total > 0 && !cfg.Verbose && isTerminal(w) {
						progress = ui.NewProgress(w, total, "Extracting")
					}
				case "file_processed":
					if progress != nil {
						progress.Increment()
					}
				}
			}

			result, err := modes.RunExtract(cfg, args[0])
			if progress != nil {
				progress.Done()
			}
			if err != nil {
				return exitError(err)
			}

			fmt.Fprintln(w, ui.SummaryHeader())
			fmt.Fprintln(w, ui.SummaryLine("Files scanned:", result.FilesScanned))
			fmt.Fprintln(w, ui.SummaryLine("Files rewritten:", result.FilesRewritten))
			fmt.Fprintln(w, ui.SummaryLine("Attachments:", result.AttachmentsExtracted))
			if result.AttachmentsFailed > 0 {
				fmt.Fprintln(w, ui.SummaryLine("Left inline:", result.AttachmentsFailed))
			}
			printErrors(w, result.Errors, cfg.Verbose)
			fmt.Fprintln(w)

			if len(result.Errors) > 0 {
				return output.NewPartialError(len(result.Errors), "items")
			}
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <directory>",
		Short: "Check that exported notes reference existing attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.modesConfig(cmd)
			w := cmd.OutOrStdout()

			result, err := modes.RunVerify(cfg, args[0])
			if err != nil {
				return exitError(err)
			}

			fmt.Fprintln(w, ui.SummaryHeader())
			fmt.Fprintln(w, ui.SummaryLine("Files checked:", result.FilesChecked))
			fmt.Fprintln(w, ui.SummaryLine("References:", result.RefsChecked))
			fmt.Fprintln(w, ui.SummaryLine("Still inline:", result.InlineImages))
			fmt.Fprintln(w, ui.SummaryLine("Missing:", len(result.Missing)))
			printErrors(w, result.Errors, cfg.Verbose)
			fmt.Fprintln(w)

			if n := len(result.Missing) + len(result.Errors); n > 0 {
				return output.NewPartialError(n, "references")
			}
			return nil
		},
	}
}
