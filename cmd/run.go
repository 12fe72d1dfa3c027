// File: cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
	"github.com/xkilldash9x/decoy-cli/internal/browser/chromium"
	"github.com/xkilldash9x/decoy-cli/internal/browser/static"
	"github.com/xkilldash9x/decoy-cli/internal/config"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
	"github.com/xkilldash9x/decoy-cli/internal/interact"
	"github.com/xkilldash9x/decoy-cli/internal/journey"
	"github.com/xkilldash9x/decoy-cli/internal/observability"
	"github.com/xkilldash9x/decoy-cli/internal/supervise"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the scripted session loops against the configured URL list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFromCommand(cmd)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			applyRunFlags(cmd, cfg)

			urls, err := loadURLList(cfg.Run.URLFile)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Run.CatalogFile)
			if err != nil {
				return err
			}

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				runner := newRunner(static.NewLauncher(logger), cfg, catalog, logger)
				return dryRunScript(ctx, cmd.OutOrStdout(), urls, runner)
			}

			workers := resolveWorkers(cmd, cfg.Run.Workers)

			launcher := chromium.NewLauncher(chromium.Options{
				Headless:        cfg.Browser.Headless,
				ExecPath:        cfg.Browser.ExecPath,
				ExtraArgs:       cfg.Browser.ExtraArgs,
				TeardownTimeout: cfg.Browser.TeardownTimeout,
			}, logger)

			sink, err := supervise.NewSink(cfg.Run.SnapshotFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			sup, err := supervise.New(supervise.Options{
				Workers:      workers,
				URLs:         urls,
				Runner:       newRunner(launcher, cfg, catalog, logger),
				SuccessPause: cfg.Run.SuccessPause,
				FailurePause: cfg.Run.FailurePause,
				RefreshEvery: cfg.Run.RefreshEvery,
				Sink:         sink,
				Logger:       logger,
			})
			if err != nil {
				return err
			}

			logger.Info("Starting supervised run.",
				zap.Int("workers", workers),
				zap.Int("urls", len(urls)),
				zap.Bool("headless", cfg.Browser.Headless))
			return sup.Run(ctx)
		},
	}

	runCmd.Flags().StringP("urls", "u", "", "Path to the newline-delimited URL list. (Overrides config/env)")
	runCmd.Flags().IntP("workers", "n", 0,
		fmt.Sprintf("Concurrent loop count, 1-%d. Prompts when omitted or invalid.", config.MaxWorkers))
	runCmd.Flags().Bool("headless", true, "Run browsers without a visible window. (Overrides config/env)")
	runCmd.Flags().Bool("json", false, "Write dashboard snapshots as JSON lines instead of the live table.")
	runCmd.Flags().Bool("dry-run", false, "Walk the script once per URL over plain HTTP, no browser, then exit.")
	runCmd.Flags().String("catalog", "", "Path to a JSON archetype catalog. (Overrides config/env)")

	return runCmd
}

// applyRunFlags layers explicitly set command-line flags over the resolved
// configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("urls") {
		cfg.Run.URLFile, _ = flags.GetString("urls")
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("catalog") {
		cfg.Run.CatalogFile, _ = flags.GetString("catalog")
	}
	if jsonOut, _ := flags.GetBool("json"); jsonOut {
		cfg.Run.SnapshotFormat = "json"
	}
}

// newRunner wires a session runner from the resolved configuration. The
// budgets the config does not expose keep their defaults.
func newRunner(launcher browser.Launcher, cfg *config.Config, catalog *fingerprint.Catalog, logger *zap.Logger) *journey.Runner {
	tun := interact.DefaultTunables()
	tun.PollInterval = cfg.Engine.PollInterval
	tun.StepBudget = cfg.Engine.StepBudget
	tun.DOMBudget = cfg.Engine.DOMBudget
	tun.IdleBudget = cfg.Engine.IdleBudget

	return journey.NewRunner(launcher, journey.Options{
		Identities:        fingerprint.NewSynthesizer(catalog),
		Tunables:          tun,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		TeardownTimeout:   cfg.Browser.TeardownTimeout,
		FinalDwell:        cfg.Engine.FinalDwell,
		LaunchPerSec:      cfg.Run.LaunchPerSec,
		Logger:            logger,
	})
}

// loadURLList reads the newline-delimited URL list. Blank lines and
// #-comments are skipped. A missing or empty list is an input error: the
// run has nothing to do and no loop may start.
func loadURLList(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no URL list configured (use --urls or run.url_file)", journey.ErrInputError)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open url list: %v", journey.ErrInputError, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read url list %s: %v", journey.ErrInputError, path, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: url list %s holds no URLs", journey.ErrInputError, path)
	}
	return urls, nil
}

// loadCatalog reads the archetype catalog when one is configured. A nil
// result means the built-in pool.
func loadCatalog(path string) (*fingerprint.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	catalog, err := fingerprint.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", journey.ErrInputError, err)
	}
	return catalog, nil
}

// resolveWorkers picks the loop count: the flag when it is set and valid,
// otherwise an interactive prompt.
func resolveWorkers(cmd *cobra.Command, fallback int) int {
	if cmd.Flags().Changed("workers") {
		n, _ := cmd.Flags().GetInt("workers")
		if n >= 1 && n <= config.MaxWorkers {
			return n
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Ignoring --workers=%d: must be between 1 and %d.\n", n, config.MaxWorkers)
	}
	return promptWorkers(cmd.InOrStdin(), cmd.OutOrStdout(), fallback)
}

// promptWorkers asks for an instance count. Anything unusable, including
// EOF on a non-interactive stdin, keeps the default.
func promptWorkers(in io.Reader, out io.Writer, def int) int {
	if def < 1 || def > config.MaxWorkers {
		def = 1
	}
	fmt.Fprintf(out, "How many instances? [1-%d, default %d]: ", config.MaxWorkers, def)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return def
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return def
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > config.MaxWorkers {
		fmt.Fprintf(out, "Invalid count %q, using %d.\n", line, def)
		return def
	}
	return n
}

// dryRunScript walks the script once per URL on the backend the runner was
// built over, printing each transcript entry. Any failed URL makes the
// command exit non-zero.
func dryRunScript(ctx context.Context, out io.Writer, urls []string, runner *journey.Runner) error {
	failed := 0
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(out, url)

		outcomes, err := runner.RunOnce(ctx, url, nil)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, o := range outcomes {
			status := "ok"
			if !o.OK {
				status = "FAIL"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", o.Label, status, o.Detail)
		}
		tw.Flush()

		if err != nil {
			failed++
			fmt.Fprintf(out, "  error: %v\n", err)
		}
		fmt.Fprintln(out)
	}

	if failed > 0 {
		return fmt.Errorf("dry run: %d of %d URLs failed", failed, len(urls))
	}
	fmt.Fprintf(out, "dry run: all %d URLs passed\n", len(urls))
	return nil
}
