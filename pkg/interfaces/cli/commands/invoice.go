package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

func (c *CLI) invoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"invoices"},
		Short:   "Bill owners for common and management expenses",
	}
	cmd.AddCommand(
		c.invoiceCreateCmd(),
		c.invoiceListCmd(),
		c.invoiceShowCmd(),
		c.invoiceMarkCmd(),
		c.invoiceDeleteCmd(),
		c.invoiceHistoryCmd(),
	)
	return cmd
}

func (c *CLI) invoiceCreateCmd() *cobra.Command {
	var (
		id, number, owner, property string
		date, period, amount, kind  string
		notes                       string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Bill an owner for one property and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := entities.ParseMoney(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			invoiceType, err := entities.ParseInvoiceType(kind)
			if err != nil {
				return err
			}
			in := services.CreateInvoiceInput{
				ID:         entities.InvoiceID(id),
				Number:     number,
				OwnerID:    entities.OwnerID(owner),
				PropertyID: entities.PropertyID(property),
				Amount:     value,
				Type:       invoiceType,
				Notes:      notes,
			}
			if date != "" {
				if in.Date, err = time.Parse("2006-01-02", date); err != nil {
					return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
				}
			}
			if period != "" {
				if in.Period, err = entities.ParseBillingPeriod(period); err != nil {
					return err
				}
			}

			view, err := c.wire.Invoices.CreateInvoice(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.renderer().Invoice(view)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "invoice id (generated when empty)")
	flags.StringVar(&number, "number", "", "invoice number (INV-YYYYMM-… when empty)")
	flags.StringVar(&owner, "owner", "", "id of the billed owner")
	flags.StringVar(&property, "property", "", "id of a property the owner holds a share of")
	flags.StringVar(&date, "date", "", "invoice date YYYY-MM-DD (default today)")
	flags.StringVar(&period, "period", "", "billed month YYYY-MM (default the month of --date)")
	flags.StringVar(&amount, "amount", "", "amount billed")
	flags.StringVar(&kind, "type", "common_expenses", "common_expenses or management_expenses")
	flags.StringVar(&notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (c *CLI) invoiceListCmd() *cobra.Command {
	var (
		owner, property, kind string
		bank, payment, period string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repositories.InvoiceFilter{
				OwnerID:    entities.OwnerID(owner),
				PropertyID: entities.PropertyID(property),
			}
			if kind != "" {
				t, err := entities.ParseInvoiceType(kind)
				if err != nil {
					return err
				}
				filter.Type = &t
			}
			if bank != "" {
				s, err := entities.ParseBankStatus(bank)
				if err != nil {
					return err
				}
				filter.BankStatus = &s
			}
			if payment != "" {
				s, err := entities.ParsePaymentStatus(payment)
				if err != nil {
					return err
				}
				filter.PaymentStatus = &s
			}
			if period != "" {
				p, err := entities.ParseBillingPeriod(period)
				if err != nil {
					return err
				}
				filter.Year, filter.Month = p.Year, int(p.Month)
			}

			views, err := c.wire.Invoices.ListInvoices(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.renderer().Invoices(views)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&owner, "owner", "", "only invoices of this owner")
	flags.StringVar(&property, "property", "", "only invoices for this property")
	flags.StringVar(&kind, "type", "", "common_expenses or management_expenses")
	flags.StringVar(&bank, "bank", "", "bank status: pending, sent or returned")
	flags.StringVar(&payment, "payment", "", "payment status: paid, pending or returned")
	flags.StringVar(&period, "period", "", "billed month YYYY-MM")
	return cmd
}

func (c *CLI) invoiceShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.wire.Invoices.GetInvoice(cmd.Context(), entities.InvoiceID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Invoice(view)
		},
	}
}

func (c *CLI) invoiceMarkCmd() *cobra.Command {
	var bank, payment string
	cmd := &cobra.Command{
		Use:   "mark <invoice-id>",
		Short: "Record the bank or payment status of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var change services.InvoiceStatusChange
			if bank != "" {
				s, err := entities.ParseBankStatus(bank)
				if err != nil {
					return err
				}
				change.Bank = &s
			}
			if payment != "" {
				s, err := entities.ParsePaymentStatus(payment)
				if err != nil {
					return err
				}
				change.Payment = &s
			}

			view, err := c.wire.Invoices.MarkInvoice(cmd.Context(), entities.InvoiceID(args[0]), change)
			if err != nil {
				return err
			}
			return c.renderer().Invoice(view)
		},
	}
	cmd.Flags().StringVar(&bank, "bank", "", "bank status: pending, sent or returned")
	cmd.Flags().StringVar(&payment, "payment", "", "payment status: paid, pending or returned")
	cmd.MarkFlagsOneRequired("bank", "payment")
	return cmd
}

func (c *CLI) invoiceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <invoice-id>",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.wire.Invoices.DeleteInvoice(cmd.Context(), entities.InvoiceID(args[0])); err != nil {
				return err
			}
			return c.renderer().Message("Deleted invoice %s", args[0])
		},
	}
}

func (c *CLI) invoiceHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <invoice-id>",
		Short: "Show the recorded changes of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := c.wire.Invoices.History(cmd.Context(), entities.InvoiceID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Events(history)
		},
	}
}
