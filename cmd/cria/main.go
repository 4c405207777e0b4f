package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cria-lang/cria/pkg/cria"
	"github.com/cria-lang/cria/pkg/ioctx"
	"github.com/cria-lang/cria/pkg/lsp"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	File       string
	LSP        bool
	LSPLogFile string
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "cria [flags] [file]",
		Short: "Cria language checker and interpreter",
		Long: `Cria is a small statically typed language with Portuguese keywords.
Programs are type checked before they run, and can be compiled to JavaScript.`,
		Example: `  # Check and run a program
  cria main.cria

  # Start interactive REPL
  cria

  # Run with debug logging enabled
  cria --debug main.cria`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(os.Stderr, cfg.Debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LSP {
				return runLSP(cmd.Context(), cfg)
			}

			if len(args) == 1 {
				cfg.File = args[0]
				return run(cmd.Context(), cfg)
			}
			return runREPL(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&cfg.LSP, "lsp", false, "Run in Language Server Protocol mode")
	rootCmd.Flags().StringVar(&cfg.LSPLogFile, "lsp-log-file", "", "Path to LSP log file (stderr if not specified)")

	rootCmd.AddCommand(checkCmd(), emitCmd(), parseCmd())

	ctx := context.Background()
	ctx = ioctx.WithStdout(ctx, os.Stdout)
	ctx = ioctx.WithStderr(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, renderError(err))
		}),
	); err != nil {
		os.Exit(1)
	}
}

func setupLogging(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// withProjectConfig resolves the cria.toml governing dir into ctx.
func withProjectConfig(ctx context.Context, dir string) (context.Context, error) {
	config, err := cria.ResolveProjectConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cria.ProjectFileName, err)
	}
	slog.DebugContext(ctx, "project config", "dir", dir, "config", config)
	return cria.ContextWithProjectConfig(ctx, config), nil
}

// renderError shows located errors with their source context.
func renderError(err error) string {
	var checkErrs *cria.CheckErrors
	if errors.As(err, &checkErrs) {
		var parts []string
		for _, e := range checkErrs.Errors {
			parts = append(parts, renderError(e))
		}
		return strings.Join(parts, "\n")
	}

	var srcErr *cria.SourceError
	if errors.As(err, &srcErr) {
		out := srcErr.Format(os.Getenv("NO_COLOR") == "")
		// Keep context wrapped around the source error, e.g. the file being
		// run.
		if prefix := strings.TrimSuffix(err.Error(), srcErr.Error()); prefix != "" && prefix != err.Error() {
			out = strings.TrimSuffix(prefix, ": ") + ":\n" + out
		}
		return out
	}
	return err.Error()
}

func run(ctx context.Context, cfg Config) error {
	info, err := os.Stat(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to access path %s: %w", cfg.File, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", cfg.File)
	}

	ctx, err = withProjectConfig(ctx, filepath.Dir(cfg.File))
	if err != nil {
		return err
	}

	_, err = cria.RunFile(ctx, cfg.File)
	return err
}

func runREPL(ctx context.Context, cfg Config) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	ctx, err = withProjectConfig(ctx, cwd)
	if err != nil {
		return err
	}
	return runREPLLoop(ctx, cria.ProjectConfigFromContext(ctx))
}

func runLSP(ctx context.Context, cfg Config) error {
	var logDest io.Writer
	if cfg.LSPLogFile != "" {
		logFile, err := os.Create(cfg.LSPLogFile)
		if err != nil {
			return fmt.Errorf("open lsp log: %w", err)
		}
		defer logFile.Close() //nolint:errcheck
		logDest = logFile
	} else {
		logDest = os.Stderr
	}

	logger := setupLogging(logDest, cfg.Debug)
	logger.InfoContext(ctx, "starting LSP server")

	handler := lsp.NewHandler(ctx)
	srv := jrpc2.NewServer(handler, &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    func(text string) { logger.Debug(text) },
	})

	// Store server reference in handler for callbacks
	handler.SetServer(srv)

	srv.Start(channel.LSP(stdrwc{}, stdrwc{}))

	logger.InfoContext(ctx, "LSP server closed", "error", srv.Wait())
	return nil
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func checkCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check [flags] [path...]",
		Short: "Type check cria source files",
		Long: `Type check cria source files without running them.

Directories are searched for .cria files. Every file is checked, and all
errors are reported together.`,
		Example: `  # Check a file
  cria check main.cria

  # Check every .cria file in a directory
  cria check ./src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			return checkFiles(cmd.Context(), cmd.OutOrStdout(), files, quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors")

	return cmd
}

// collectFiles expands directories to the .cria files directly inside them.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("accessing %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".cria") {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}
	return files, nil
}

// checkFiles checks files concurrently. Files are independent, so a failure
// in one does not stop the others. Results are reported in argument order.
func checkFiles(ctx context.Context, out io.Writer, files []string, quiet bool) error {
	results := make([]error, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		eg.Go(func() error {
			fileCtx, err := withProjectConfig(ctx, filepath.Dir(file))
			if err == nil {
				_, err = cria.CheckFile(fileCtx, file)
			}
			results[i] = err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	errs := &cria.CheckErrors{}
	for i, err := range results {
		if err != nil {
			errs.Add(err)
		} else if !quiet {
			fmt.Fprintf(out, "ok %s\n", files[i])
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func emitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "emit [flags] file",
		Short: "Compile a cria file to JavaScript",
		Long: `Type check a cria file and print the equivalent JavaScript.

Builtins the program uses are defined at the top of the output unless the
prelude is turned off in cria.toml.`,
		Example: `  # Print JavaScript to stdout
  cria emit main.cria

  # Write it to a file
  cria emit -o main.js main.cria`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := withProjectConfig(cmd.Context(), filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			js, err := cria.EmitFile(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), js)
				return err
			}
			return os.WriteFile(output, []byte(js), 0644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write JavaScript to this file instead of stdout")

	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse file",
		Short: "Print the syntax tree of a cria file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := withProjectConfig(cmd.Context(), filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			config := cria.ProjectConfigFromContext(ctx)

			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			nodes, err := cria.Parse(args[0], string(source), config.ParseOptions()...)
			if err != nil {
				return cria.ConvertError(err, string(source))
			}
			for _, node := range nodes {
				if _, err := pretty.Fprintf(cmd.OutOrStdout(), "%# v\n", node); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
