package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"pixelgroomer/internal/app"
	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
	appErrors "pixelgroomer/internal/errors"
	"pixelgroomer/internal/infra/checksum"
	"pixelgroomer/internal/infra/exif"
	"pixelgroomer/internal/infra/exiftool"
	"pixelgroomer/internal/infra/fs"
	"pixelgroomer/internal/infra/prompt"
	"pixelgroomer/internal/logging"
	"pixelgroomer/internal/presentation"
	"pixelgroomer/internal/tui"
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Copy photos from a card or folder into the library",
	Long: "Scan <source>, group RAW and image files into shots, derive dated names and copy them into the library.\n" +
		"Use --dry-run to preview the plan without writing anything.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importEnvFile string

var errCancelled = errors.New("import cancelled, remaining files were not imported")

// flagKeys maps import flags to configuration keys. Only flags the user set
// enter the CLI layer.
var flagKeys = map[string]string{
	"output":          config.KeyLibrary,
	"folders":         config.KeyFolderStructure,
	"pattern":         config.KeyNamingPattern,
	"event":           config.KeyEvent,
	"location":        config.KeyLocation,
	"author":          config.KeyAuthor,
	"copyright":       config.KeyCopyright,
	"credit":          config.KeyCredit,
	"tags":            config.KeyTags,
	"gps":             config.KeyGPS,
	"dry-run":         config.KeyDryRun,
	"no-delete":       config.KeyNoDelete,
	"trip":            config.KeyTrip,
	"split-by-type":   config.KeySplitByType,
	"verbose":         config.KeyVerbose,
	"no-interactive":  config.KeyNonInteractive,
	"tui":             config.KeyTUI,
	"checksums":       config.KeyGenerateChecksums,
	"algorithm":       config.KeyChecksumAlgorithm,
	"workers":         config.KeyWorkers,
	"tool-timeout":    config.KeyToolTimeout,
	"metadata-reader": config.KeyMetadataReader,
	"exiftool":        config.KeyExiftoolPath,
}

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.StringP("output", "o", "", "Library root (overrides PHOTO_LIBRARY and archive in .import.yaml)")
	f.String("folders", "", "Folder template, tokens {year} {month} {day}")
	f.String("pattern", "", "File name template, tokens {date} {time} {event} {seq[:03d]} {camera}")
	f.StringP("event", "e", "", "Event name used in file names and metadata")
	f.StringP("location", "l", "", "Location written to metadata")
	f.StringP("author", "a", "", "Author written to metadata")
	f.String("copyright", "", "Copyright notice written to metadata")
	f.String("credit", "", "Credit line written to metadata")
	f.String("tags", "", "Comma separated keywords written to metadata")
	f.String("gps", "", "Coordinates \"lat,lon\" written to metadata")
	f.BoolP("dry-run", "n", false, "Print the plan and exit without writing anything")
	f.Bool("no-delete", false, "Never delete source files")
	f.Bool("trip", false, "Trip mode: no prompts, date-only names when no event is set")
	f.Bool("split-by-type", false, "Put RAW files into raw/ and images into jpg/")
	f.BoolP("verbose", "v", false, "Verbose output")
	f.Bool("no-interactive", false, "Never prompt for missing values")
	f.Bool("tui", false, "Run the full-screen terminal UI")
	f.Bool("checksums", false, "Record checksums in per-directory .checksums manifests")
	f.String("algorithm", "", "Checksum algorithm: "+fmt.Sprint(checksum.Supported()))
	f.Int("workers", 0, "Parallel workers for probing and copying (default: CPU count)")
	f.Duration("tool-timeout", 0, "Timeout for each metadata read or write (default 30s)")
	f.String("metadata-reader", "", "Metadata reader: auto, exiftool or goexif")
	f.String("exiftool", "", "Path to the exiftool binary")
	f.StringVar(&importEnvFile, "env-file", "", "Read settings from this .env file")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := resolveImportConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Verbose).With("run", uuid.NewString()[:8])
	for key, origin := range cfg.Origins {
		logger.Verbosef("Config %s from %s", key, origin)
	}

	filesystem := fs.OSFS{}
	if _, err := filesystem.Stat(cfg.SourceDir); err != nil {
		return appErrors.Wrap(appErrors.NotFound, "stat", cfg.SourceDir, err)
	}

	var hasher checksum.Hasher
	if cfg.GenerateChecksums {
		if hasher, err = checksum.New(cfg.ChecksumAlgorithm); err != nil {
			return appErrors.Wrap(appErrors.ConfigError, "checksum", "", err)
		}
	}

	tools, err := openMetadataTools(cfg, logger)
	if err != nil {
		return err
	}
	defer tools.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := importRun{
		cfg:    cfg,
		logger: logger,
		fs:     filesystem,
		planner: &app.Planner{
			FS:      filesystem,
			Prober:  app.Prober{Reader: tools.reader, Timeout: cfg.ToolTimeout},
			Workers: cfg.Workers,
			Logger:  logger,
		},
		executor: &app.Executor{
			FS:     filesystem,
			Writer: tools.writer,
			Logger: logger,
		},
		printer: presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose},
	}
	if cfg.GenerateChecksums {
		run.executor.Checksum = hasher
		run.executor.Manifest = checksum.NewManifest()
	}

	if cfg.TUI {
		return run.withTUI(ctx)
	}
	return run.plain(ctx)
}

func resolveImportConfig(flags *pflag.FlagSet, source string) (config.EffectiveConfig, error) {
	cli := config.Layer{Name: "cli", Values: map[string]string{config.KeySource: source}}
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			cli.Values[key] = f.Value.String()
		}
	})
	cli.Values[config.KeyInteractive] = strconv.FormatBool(term.IsTerminal(int(os.Stdin.Fd())))

	envFiles := config.DotEnvCandidates()
	if importEnvFile != "" {
		envFiles = []string{importEnvFile}
	}
	dotenv, _, err := config.LoadDotEnv(envFiles...)
	if err != nil {
		return config.EffectiveConfig{}, appErrors.Wrap(appErrors.ConfigError, "env file", "", err)
	}

	file, _, err := config.FileLayer(source)
	if err != nil {
		return config.EffectiveConfig{}, appErrors.Wrap(appErrors.ConfigError, "import file", "", err)
	}

	cfg, err := config.Resolve(config.Inputs{
		CLI:      cli,
		Env:      config.EnvLayer(os.LookupEnv, dotenv),
		File:     file,
		Defaults: config.Defaults(),
	}, prompt.Terminal{})
	if err != nil {
		return config.EffectiveConfig{}, appErrors.Wrap(appErrors.ConfigError, "resolve", "", err)
	}
	if _, err := app.NewDeriver(cfg); err != nil {
		return config.EffectiveConfig{}, appErrors.Wrap(appErrors.ConfigError, "templates", "", err)
	}
	return cfg, nil
}

type metadataTools struct {
	reader app.MetadataReader
	writer app.MetadataWriter
	close  func()
}

// openMetadataTools picks the metadata reader and starts exiftool when it
// reads or when metadata values have to be written.
func openMetadataTools(cfg config.EffectiveConfig, logger logging.Logger) (metadataTools, error) {
	tools := metadataTools{reader: exif.Reader{}, close: func() {}}
	needWriter := !cfg.DryRun && !cfg.MetadataFields().Empty()
	useExiftool := cfg.MetadataReader == "exiftool" ||
		(cfg.MetadataReader == "auto" && exiftool.Available(cfg.ExiftoolPath))

	if !useExiftool && !needWriter {
		logger.Verbosef("Reading metadata in-process")
		return tools, nil
	}
	tool, err := exiftool.New(cfg.ExiftoolPath, cfg.ToolTimeout)
	if err != nil {
		return tools, appErrors.Wrap(appErrors.ConfigError, "exiftool", cfg.ExiftoolPath, err)
	}
	tools.close = func() {
		if err := tool.Close(); err != nil {
			logger.Warnf("Closing exiftool: %v", err)
		}
	}
	if useExiftool {
		logger.Verbosef("Reading metadata with exiftool")
		tools.reader = tool
	}
	if needWriter {
		tools.writer = tool
	}
	return tools, nil
}

type importRun struct {
	cfg      config.EffectiveConfig
	logger   logging.Logger
	fs       fs.OSFS
	planner  *app.Planner
	executor *app.Executor
	printer  presentation.Printer
}

func (r importRun) state(s domain.RunState) {
	r.logger.Verbosef("State: %s", s)
}

func (r importRun) deletePrompt() app.PromptPort {
	if r.cfg.Interactive && !r.cfg.Trip {
		return prompt.Terminal{}
	}
	return prompt.NonInteractive{}
}

func (r importRun) plain(ctx context.Context) error {
	r.planner.OnState = r.state
	r.executor.OnState = r.state

	plan, err := r.planner.Plan(ctx, r.cfg)
	if err != nil {
		return planError(r.cfg, err)
	}

	r.printer.PrintPlan(plan, r.cfg.DryRun)
	if r.cfg.DryRun {
		r.state(domain.StateDryRunPrinted)
		return nil
	}
	if err := r.fs.MkdirAll(r.cfg.LibraryRoot, 0o755); err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "mkdir", r.cfg.LibraryRoot, err)
	}

	results, err := r.executor.Execute(ctx, plan, r.cfg)
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "execute", "", err)
	}

	deleter := app.Deleter{FS: r.fs, Prompt: r.deletePrompt(), Logger: r.logger}
	results, delErr := deleter.Delete(ctx, results, r.cfg)
	summary := domain.Summarize(results)
	summary.DeleteDeclined = appErrors.Is(delErr, appErrors.DeleteDeclined)
	r.state(domain.StateCompleted)

	fmt.Fprintln(os.Stdout)
	r.printer.PrintExecution(summary)
	return r.outcome(ctx, summary)
}

func (r importRun) withTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	r.planner.OnState = func(s domain.RunState) { r.state(s); send(tui.StateMsg{State: s}) }
	r.planner.OnProgress = func(current, total int) { send(tui.ProbeProgressMsg{Current: current, Total: total}) }
	r.executor.OnState = r.state
	r.executor.OnProgress = func(done, total int, file string) {
		send(tui.CopyProgressMsg{Current: done, Total: total, File: file})
	}

	model := tui.NewModel(tui.Config{
		SourceDir:     r.cfg.SourceDir,
		LibraryRoot:   r.cfg.LibraryRoot,
		DryRun:        r.cfg.DryRun,
		Verbose:       r.cfg.Verbose,
		NoDelete:      r.cfg.NoDelete,
		ConfirmDelete: r.cfg.ConfirmDelete,
		Execute: func(plan domain.ImportPlan) tea.Cmd {
			return func() tea.Msg {
				if err := r.fs.MkdirAll(r.cfg.LibraryRoot, 0o755); err != nil {
					return tui.ErrorMsg{Err: appErrors.Wrap(appErrors.IOFailure, "mkdir", r.cfg.LibraryRoot, err)}
				}
				results, err := r.executor.Execute(ctx, plan, r.cfg)
				if err != nil {
					return tui.ErrorMsg{Err: err}
				}
				return tui.ImportDoneMsg{Results: results}
			}
		},
		Delete: func(results []domain.ExecutionResult, confirmed bool) tea.Cmd {
			return func() tea.Msg {
				deleter := app.Deleter{FS: r.fs, Prompt: prompt.Fixed{Answer: confirmed}, Logger: r.logger}
				out, err := deleter.Delete(ctx, results, r.cfg)
				return tui.DeleteDoneMsg{Results: out, Declined: err != nil}
			}
		},
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		plan, err := r.planner.Plan(ctx, r.cfg)
		if err != nil {
			send(tui.ErrorMsg{Err: planError(r.cfg, err)})
			return
		}
		send(tui.PlanReadyMsg{Plan: plan})
	}()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	m, ok := final.(tui.Model)
	if !ok {
		return appErrors.Wrap(appErrors.Internal, "tui", "", errors.New("unexpected model"))
	}

	switch {
	case m.Phase == tui.PhaseError:
		return m.Err
	case !m.Finished():
		cancel()
		return errCancelled
	case r.cfg.DryRun:
		r.printer.PrintPlan(m.Plan, true)
		return nil
	}
	r.printer.PrintExecution(m.Summary)
	return r.outcome(ctx, m.Summary)
}

func (r importRun) outcome(ctx context.Context, summary domain.RunSummary) error {
	if ctx.Err() != nil {
		return errCancelled
	}
	if !summary.OK() {
		return errReported
	}
	return nil
}

func planError(cfg config.EffectiveConfig, err error) error {
	var appErr *appErrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, context.Canceled):
		return errCancelled
	default:
		return appErrors.Wrap(appErrors.IOFailure, "scan", cfg.SourceDir, err)
	}
}
