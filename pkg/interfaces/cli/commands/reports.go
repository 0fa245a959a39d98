package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/domain/repositories"
	"github.com/copropiedad/ledger/pkg/interfaces/cli/output"
)

func (c *CLI) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.wire.Properties.PortfolioSummary(cmd.Context())
			if err != nil {
				return err
			}
			return c.renderer().Summary(summary)
		},
	}
}

func (c *CLI) calendarCmd() *cobra.Command {
	var status, agent string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Draw the summer share calendar as SVG",
		Long:  "Draw the summer share calendar as SVG: one row per property, one column per half month. Use --output to write a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(status, "", agent, "", "", "")
			if err != nil {
				return err
			}
			views, err := c.wire.Properties.ListProperties(cmd.Context(), filter)
			if err != nil {
				return err
			}
			svg := output.NewShareCalendar(len(views)).GenerateSVG(views)
			return c.write("calendar", svg)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only properties with this aggregate status")
	cmd.Flags().StringVar(&agent, "agent", "", "only properties of this agent")
	return cmd
}

func (c *CLI) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Render an HTML portfolio report",
		Long:  "Render a self-contained HTML report with statistics, the share calendar and commissions. Use --output to write a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			summary, err := c.wire.Properties.PortfolioSummary(ctx)
			if err != nil {
				return err
			}
			properties, err := c.wire.Properties.ListProperties(ctx, repositories.PropertyFilter{})
			if err != nil {
				return err
			}
			commissions, err := c.wire.Properties.CommissionReport(ctx, repositories.PropertyFilter{})
			if err != nil {
				return err
			}

			html, err := output.NewHTMLReport(c.cfg.Output.Currency).GenerateHTML(&output.ReportData{
				Summary:     summary,
				Properties:  properties,
				Commissions: commissions,
			})
			if err != nil {
				return err
			}
			return c.write("report", html)
		},
	}
}

func (c *CLI) write(kind, document string) error {
	if _, err := io.WriteString(c.out, document); err != nil {
		return fmt.Errorf("failed to write %s: %w", kind, err)
	}
	if c.opts.outputPath != "" {
		c.logger.Info(kind+" written", zap.String("path", c.opts.outputPath), zap.Int("bytes", len(document)))
	}
	return nil
}
