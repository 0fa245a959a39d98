package commands

import (
	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
)

func (c *CLI) commissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commission",
		Aliases: []string{"commissions"},
		Short:   "Track agent commissions",
	}
	cmd.AddCommand(
		c.commissionListCmd(),
		c.commissionSetCmd(),
		c.commissionMarkCmd(),
		c.commissionToggleCmd(),
	)
	return cmd
}

func (c *CLI) commissionListCmd() *cobra.Command {
	var (
		status string
		agent  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List commissions of properties with an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(status, "", agent, "", "", "")
			if err != nil {
				return err
			}
			report, err := c.wire.Properties.CommissionReport(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.renderer().Commissions(report)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only properties with this aggregate status")
	cmd.Flags().StringVar(&agent, "agent", "", "only properties of this agent")
	return cmd
}

func (c *CLI) commissionSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <property-id> <percentage>",
		Short: "Set the commission percentage (1 to 5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := domain.ParsePercentage(args[1])
			if err != nil {
				return err
			}
			view, err := c.wire.Properties.SetCommission(cmd.Context(), entities.PropertyID(args[0]), pct)
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}

func (c *CLI) commissionMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mark <property-id> <paid|pending>",
		Short:     "Mark a commission paid or pending",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"paid", "pending"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := entities.ParseCommissionStatus(args[1])
			if err != nil {
				return err
			}
			view, err := c.wire.Properties.SetCommissionStatus(cmd.Context(), entities.PropertyID(args[0]), status)
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}

func (c *CLI) commissionToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <property-id>",
		Short: "Flip a commission between pending and paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.wire.Properties.ToggleCommissionStatus(cmd.Context(), entities.PropertyID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}
