// Package commands defines the copro CLI.
//
// The root command loads copro.yaml, applies flag overrides, and builds the
// logger and the store wiring before any subcommand runs. Subcommands use
// the shared wiring and render results through the output package.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/app"
	"github.com/copropiedad/ledger/pkg/config"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/infrastructure/logging"
	"github.com/copropiedad/ledger/pkg/interfaces/cli/output"
)

// ExitRetryable is the exit status for failures that may succeed when retried
const ExitRetryable = 75

// skipWire marks commands that run without opening a store
const skipWire = "skip-wire"

type rootOptions struct {
	configPath string
	store      string
	dbPath     string
	format     string
	currency   string
	outputPath string
	verbose    bool
}

// CLI holds the state shared by every subcommand of one invocation
type CLI struct {
	opts   rootOptions
	cfg    *config.Config
	wire   *app.Wire
	logger *zap.Logger

	stdout io.Writer
	out    io.Writer
	file   *os.File
}

// NewCLI creates a CLI writing results to stdout
func NewCLI(stdout io.Writer) *CLI {
	return &CLI{stdout: stdout, out: stdout, logger: zap.NewNop()}
}

// Execute runs the copro command line
func Execute(ctx context.Context) error {
	cli := NewCLI(os.Stdout)
	defer cli.close()
	return cli.Command().ExecuteContext(ctx)
}

// Command builds the root command and its subcommands
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "copro",
		Short:         "Manage four-share summer co-ownership of holiday properties",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", config.DefaultPath, "path to the YAML config file")
	flags.StringVar(&c.opts.store, "store", "", "store backend: memory or sqlite (overrides config)")
	flags.StringVar(&c.opts.dbPath, "db", "", "SQLite database path (overrides config)")
	flags.StringVarP(&c.opts.format, "format", "f", "", "output format: text, json, csv (overrides config)")
	flags.StringVar(&c.opts.currency, "currency", "", "currency label for amounts (overrides config)")
	flags.StringVarP(&c.opts.outputPath, "output", "o", "", "write results to this file instead of stdout")
	flags.BoolVarP(&c.opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.propertyCmd(),
		c.ownerCmd(),
		c.agentCmd(),
		c.invoiceCmd(),
		c.commissionCmd(),
		c.statsCmd(),
		c.calendarCmd(),
		c.reportCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.generateCmd(),
		c.configCmd(),
	)
	return root
}

func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Backend = c.opts.store
	}
	if flags.Changed("db") {
		cfg.Store.Path = c.opts.dbPath
	}
	if flags.Changed("format") {
		cfg.Output.Format = c.opts.format
	}
	if flags.Changed("currency") {
		cfg.Output.Currency = c.opts.currency
	}
	if err := (output.Config{Format: cfg.Output.Format}).Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: c.opts.verbose,
	})
	if err != nil {
		return err
	}
	c.logger = logger

	if c.opts.outputPath != "" {
		f, err := output.Create(c.opts.outputPath)
		if err != nil {
			return err
		}
		c.file = f
		c.out = f
	}

	if cmd.Annotations[skipWire] != "" {
		return nil
	}
	wire, err := app.NewWire(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.wire = wire
	logger.Debug("command started", zap.String("command", cmd.CommandPath()), zap.String("store", cfg.Store.Backend))
	return nil
}

// close releases the wiring and output file. Safe to call more than once.
func (c *CLI) close() error {
	var errs []error
	if c.wire != nil {
		errs = append(errs, c.wire.Close())
		c.wire = nil
	}
	if c.file != nil {
		errs = append(errs, c.file.Close())
		c.file = nil
		c.out = c.stdout
	}
	_ = c.logger.Sync()
	return errors.Join(errs...)
}

func (c *CLI) renderer() *output.Renderer {
	return output.New(c.out, output.Config{Format: c.cfg.Output.Format, Currency: c.cfg.Output.Currency})
}

// ExitCode maps an error returned by Execute to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *entities.PersistenceError
	if errors.As(err, &pe) && pe.Retryable() {
		return ExitRetryable
	}
	return 1
}

// FormatError renders err for the terminal
func FormatError(err error) string {
	var pe *entities.PersistenceError
	switch {
	case errors.As(err, &pe):
		return fmt.Sprintf("⚠️  %v\nThe change was not saved. Please try again.", err)
	case errors.Is(err, entities.ErrShareAlreadyAssigned):
		return fmt.Sprintf("Error: this share is already assigned to another owner (%v)", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
