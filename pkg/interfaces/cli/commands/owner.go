package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/domain/entities"
)

func (c *CLI) ownerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "owner",
		Aliases: []string{"owners"},
		Short:   "Manage owners and the shares they hold",
	}
	cmd.AddCommand(
		c.ownerCreateCmd(),
		c.ownerListCmd(),
		c.ownerShowCmd(),
		c.ownerDeleteCmd(),
		c.ownerAssignCmd(),
		c.ownerClearCmd(),
	)
	return cmd
}

func (c *CLI) ownerCreateCmd() *cobra.Command {
	var in services.CreateOwnerInput
	var id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = entities.OwnerID(id)
			view, err := c.wire.Owners.CreateOwner(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.renderer().Owner(view)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "owner id (generated when empty)")
	flags.StringVar(&in.FirstName, "first-name", "", "first name")
	flags.StringVar(&in.LastNames, "last-names", "", "last names")
	flags.StringVar(&in.Email, "email", "", "email address")
	flags.StringVar(&in.Phone, "phone", "", "phone number")
	flags.StringVar(&in.NationalID, "national-id", "", "national identity document")
	flags.StringVar(&in.Address.City, "city", "", "city of residence")
	flags.StringVar(&in.Address.Country, "country", "", "country of residence")
	flags.StringVar(&in.BirthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	flags.StringVar(&in.Occupation, "occupation", "", "occupation")
	flags.StringVar(&in.Notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-names")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) ownerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := c.wire.Owners.ListOwners(cmd.Context())
			if err != nil {
				return err
			}
			return c.renderer().Owners(views)
		},
	}
}

func (c *CLI) ownerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner-id>",
		Short: "Show an owner and the shares they hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.wire.Owners.GetOwner(cmd.Context(), entities.OwnerID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Owner(view)
		},
	}
}

func (c *CLI) ownerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <owner-id>",
		Short: "Release the owner's shares and delete the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.wire.Owners.DeleteOwner(cmd.Context(), entities.OwnerID(args[0])); err != nil {
				return err
			}
			return c.renderer().Message("Deleted owner %s", args[0])
		},
	}
}

func (c *CLI) ownerAssignCmd() *cobra.Command {
	var purchasePrice string
	cmd := &cobra.Command{
		Use:   "assign <owner-id> <property-id> <share>",
		Short: "Give an owner one share of a property",
		Long: "Give an owner one share of a property. Fails when another owner already holds the share.\n" +
			"The purchase price defaults to the current share price.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseShareNumber(args[2])
			if err != nil {
				return err
			}
			var price *entities.Money
			if purchasePrice != "" {
				p, err := entities.ParseMoney(purchasePrice)
				if err != nil {
					return fmt.Errorf("invalid --purchase-price: %w", err)
				}
				price = &p
			}
			assignment, err := c.wire.Owners.AssignShare(cmd.Context(),
				entities.OwnerID(args[0]), entities.PropertyID(args[1]), number, price)
			if err != nil {
				return err
			}
			return c.renderer().Assignment(assignment)
		},
	}
	cmd.Flags().StringVar(&purchasePrice, "purchase-price", "", "price the owner paid (defaults to the share price)")
	return cmd
}

func (c *CLI) ownerClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <owner-id>",
		Short: "Release every share the owner holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := c.wire.Owners.ClearAssignment(cmd.Context(), entities.OwnerID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Message("Released %d share(s) held by %s", removed, args[0])
		},
	}
}
