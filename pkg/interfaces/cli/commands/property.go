package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
)

func (c *CLI) propertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"properties", "p"},
		Short:   "Create, inspect and sell the shares of properties",
	}
	cmd.AddCommand(
		c.propertyCreateCmd(),
		c.propertyListCmd(),
		c.propertyShowCmd(),
		c.propertyUpdateCmd(),
		c.propertySetStatusCmd(),
		c.propertySetPriceCmd(),
		c.propertyRepriceCmd(),
		c.propertyDeleteCmd(),
		c.propertyHistoryCmd(),
	)
	return cmd
}

// propertyFields are the descriptive flags shared by create and update
type propertyFields struct {
	name        string
	category    string
	street      string
	city        string
	state       string
	zipCode     string
	country     string
	description string
	agent       string
	bedrooms    int
	bathrooms   int
	squareFeet  int
	yearBuilt   int
}

func (f *propertyFields) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "property name")
	flags.StringVar(&f.category, "category", "", "category, e.g. villa or apartment")
	flags.StringVar(&f.street, "street", "", "street address")
	flags.StringVar(&f.city, "city", "", "city")
	flags.StringVar(&f.state, "state", "", "state or province")
	flags.StringVar(&f.zipCode, "zip", "", "postal code")
	flags.StringVar(&f.country, "country", "", "country")
	flags.StringVar(&f.description, "description", "", "free-text description")
	flags.StringVar(&f.agent, "agent", "", "id of the selling agent")
	flags.IntVar(&f.bedrooms, "bedrooms", 0, "number of bedrooms")
	flags.IntVar(&f.bathrooms, "bathrooms", 0, "number of bathrooms")
	flags.IntVar(&f.squareFeet, "square-feet", 0, "living area in square feet")
	flags.IntVar(&f.yearBuilt, "year-built", 0, "year of construction")
}

func (f *propertyFields) address() entities.Address {
	return entities.Address{Street: f.street, City: f.city, State: f.state, ZipCode: f.zipCode, Country: f.country}
}

func (f *propertyFields) details() entities.Details {
	return entities.Details{
		Description: f.description,
		Bedrooms:    f.bedrooms,
		Bathrooms:   f.bathrooms,
		SquareFeet:  f.squareFeet,
		YearBuilt:   f.yearBuilt,
	}
}

func (c *CLI) propertyCreateCmd() *cobra.Command {
	var (
		fields     propertyFields
		id         string
		totalPrice string
		commission string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a property with four available shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := entities.ParseMoney(totalPrice)
			if err != nil {
				return fmt.Errorf("invalid --total-price: %w", err)
			}
			in := services.CreatePropertyInput{
				ID:         entities.PropertyID(id),
				Name:       fields.name,
				Category:   fields.category,
				Address:    fields.address(),
				Details:    fields.details(),
				TotalPrice: total,
				AgentID:    entities.AgentID(fields.agent),
			}
			if commission != "" {
				pct, err := domain.ParsePercentage(commission)
				if err != nil {
					return err
				}
				comm, err := entities.NewCommission(pct, entities.CommissionPending)
				if err != nil {
					return err
				}
				in.Commission = &comm
			}

			view, err := c.wire.Properties.CreateProperty(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "property id (generated when empty)")
	cmd.Flags().StringVar(&totalPrice, "total-price", "", "total price, split evenly across the four shares")
	cmd.Flags().StringVar(&commission, "commission", "", "agent commission percentage between 1 and 5 (default 1)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("total-price")
	return cmd
}

func (c *CLI) propertyListCmd() *cobra.Command {
	var (
		status   string
		category string
		agent    string
		minPrice string
		maxPrice string
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(status, category, agent, minPrice, maxPrice, search)
			if err != nil {
				return err
			}
			views, err := c.wire.Properties.ListProperties(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.renderer().Properties(views)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&status, "status", "", "aggregate status: available, reserved or sold")
	flags.StringVar(&category, "category", "", "category")
	flags.StringVar(&agent, "agent", "", "agent id")
	flags.StringVar(&minPrice, "min-price", "", "minimum total price")
	flags.StringVar(&maxPrice, "max-price", "", "maximum total price")
	flags.StringVar(&search, "search", "", "text to find in the name, street or city")
	return cmd
}

func buildFilter(status, category, agent, minPrice, maxPrice, search string) (repositories.PropertyFilter, error) {
	filter := repositories.PropertyFilter{
		Category:   category,
		AgentID:    entities.AgentID(agent),
		SearchTerm: search,
	}
	if status != "" {
		s, err := entities.ParsePropertyStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = &s
	}
	if minPrice != "" {
		m, err := entities.ParseMoney(minPrice)
		if err != nil {
			return filter, fmt.Errorf("invalid --min-price: %w", err)
		}
		filter.MinPrice = &m
	}
	if maxPrice != "" {
		m, err := entities.ParseMoney(maxPrice)
		if err != nil {
			return filter, fmt.Errorf("invalid --max-price: %w", err)
		}
		filter.MaxPrice = &m
	}
	return filter, nil
}

func (c *CLI) propertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <property-id>",
		Short: "Show a property and its four shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.wire.Properties.GetProperty(cmd.Context(), entities.PropertyID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}

func (c *CLI) propertyUpdateCmd() *cobra.Command {
	var (
		fields     propertyFields
		totalPrice string
	)
	cmd := &cobra.Command{
		Use:   "update <property-id>",
		Short: "Change descriptive fields or the total price of a property",
		Long: "Change descriptive fields or the total price of a property. Only the flags given are changed.\n" +
			"A new total price keeps the current share prices; use reprice to split it again.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := entities.PropertyID(args[0])
			flags := cmd.Flags()

			current, err := c.wire.Properties.GetProperty(ctx, id)
			if err != nil {
				return err
			}

			var in services.UpdatePropertyInput
			if flags.Changed("name") {
				in.Name = &fields.name
			}
			if flags.Changed("category") {
				in.Category = &fields.category
			}
			if flags.Changed("agent") {
				agent := entities.AgentID(fields.agent)
				in.AgentID = &agent
			}
			if anyChanged(cmd, "street", "city", "state", "zip", "country") {
				addr := current.Property.Address
				overlay(cmd, "street", &addr.Street, fields.street)
				overlay(cmd, "city", &addr.City, fields.city)
				overlay(cmd, "state", &addr.State, fields.state)
				overlay(cmd, "zip", &addr.ZipCode, fields.zipCode)
				overlay(cmd, "country", &addr.Country, fields.country)
				in.Address = &addr
			}
			if anyChanged(cmd, "description", "bedrooms", "bathrooms", "square-feet", "year-built") {
				details := current.Property.Details
				overlay(cmd, "description", &details.Description, fields.description)
				overlay(cmd, "bedrooms", &details.Bedrooms, fields.bedrooms)
				overlay(cmd, "bathrooms", &details.Bathrooms, fields.bathrooms)
				overlay(cmd, "square-feet", &details.SquareFeet, fields.squareFeet)
				overlay(cmd, "year-built", &details.YearBuilt, fields.yearBuilt)
				in.Details = &details
			}

			view := current
			if in != (services.UpdatePropertyInput{}) {
				if view, err = c.wire.Properties.UpdateProperty(ctx, id, in); err != nil {
					return err
				}
			}
			if flags.Changed("total-price") {
				total, err := entities.ParseMoney(totalPrice)
				if err != nil {
					return fmt.Errorf("invalid --total-price: %w", err)
				}
				if view, err = c.wire.Properties.ChangeTotalPrice(ctx, id, total, false); err != nil {
					return err
				}
			}
			return c.renderer().Property(view)
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&totalPrice, "total-price", "", "new total price (share prices are kept)")
	return cmd
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func overlay[T any](cmd *cobra.Command, flag string, dst *T, value T) {
	if cmd.Flags().Changed(flag) {
		*dst = value
	}
}

func (c *CLI) propertySetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <property-id> <share> <status>",
		Short: "Set one share to available, reserved or sold",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseShareNumber(args[1])
			if err != nil {
				return err
			}
			status, err := entities.ParseShareStatus(args[2])
			if err != nil {
				return err
			}
			view, err := c.wire.Properties.SetShareStatus(cmd.Context(), entities.PropertyID(args[0]), number, status)
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}

func (c *CLI) propertySetPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-price <property-id> <share> <price>",
		Short: "Override the price of one share",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseShareNumber(args[1])
			if err != nil {
				return err
			}
			price, err := entities.ParseMoney(args[2])
			if err != nil {
				return err
			}
			view, err := c.wire.Properties.SetSharePrice(cmd.Context(), entities.PropertyID(args[0]), number, price)
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
}

func (c *CLI) propertyRepriceCmd() *cobra.Command {
	var (
		totalPrice string
		yes        bool
	)
	cmd := &cobra.Command{
		Use:   "reprice <property-id>",
		Short: "Split the total price evenly across the shares again",
		Long: "Split the total price evenly across the four shares, discarding any manual share prices.\n" +
			"With --total-price the total is changed first. Requires --yes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reprice overwrites every share price of %s; rerun with --yes to confirm", args[0])
			}
			ctx := cmd.Context()
			id := entities.PropertyID(args[0])

			var (
				view *dto.PropertyView
				err  error
			)
			if totalPrice != "" {
				total, perr := entities.ParseMoney(totalPrice)
				if perr != nil {
					return fmt.Errorf("invalid --total-price: %w", perr)
				}
				view, err = c.wire.Properties.ChangeTotalPrice(ctx, id, total, true)
			} else {
				view, err = c.wire.Properties.ResetSharePrices(ctx, id)
			}
			if err != nil {
				return err
			}
			return c.renderer().Property(view)
		},
	}
	cmd.Flags().StringVar(&totalPrice, "total-price", "", "new total price to split")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm that manual share prices are discarded")
	return cmd
}

func (c *CLI) propertyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <property-id>",
		Short: "Delete a property with its shares and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.wire.Properties.DeleteProperty(cmd.Context(), entities.PropertyID(args[0])); err != nil {
				return err
			}
			return c.renderer().Message("Deleted property %s", args[0])
		},
	}
}

func (c *CLI) propertyHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <property-id>",
		Short: "Show the recorded changes of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := c.wire.Properties.History(cmd.Context(), entities.PropertyID(args[0]))
			if err != nil {
				return err
			}
			return c.renderer().Events(history)
		},
	}
}

func parseShareNumber(s string) (entities.ShareNumber, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", entities.ErrInvalidShareNumber, s)
	}
	number := entities.ShareNumber(n)
	if err := number.Validate(); err != nil {
		return 0, err
	}
	return number, nil
}
