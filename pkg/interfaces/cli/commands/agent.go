package commands

import (
	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/domain/entities"
)

func (c *CLI) agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agent",
		Aliases: []string{"agents"},
		Short:   "Manage sales agents",
	}
	cmd.AddCommand(
		c.agentCreateCmd(),
		c.agentListCmd(),
		c.agentShowCmd(),
		c.agentDeleteCmd(),
	)
	return cmd
}

func (c *CLI) agentCreateCmd() *cobra.Command {
	var in services.CreateAgentInput
	var id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a sales agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = entities.AgentID(id)
			agent, err := c.wire.Agents.CreateAgent(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.renderer().Agent(&dto.AgentView{Agent: agent})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "agent id (generated when empty)")
	flags.StringVar(&in.Name, "name", "", "agent name")
	flags.StringVar(&in.Email, "email", "", "email address")
	flags.StringVar(&in.Phone, "phone", "", "phone number")
	flags.StringVar(&in.License, "license", "", "real estate license number")
	flags.StringVar(&in.Bio, "bio", "", "short biography")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) agentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents with the number of properties they sell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := c.wire.Agents.ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			return c.renderer().Agents(views)
		},
	}
}

func (c *CLI) agentShowCmd() *cobra.Command {
	var withProperties bool
	cmd := &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Show an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := entities.AgentID(args[0])
			view, err := c.wire.Agents.GetAgent(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !withProperties {
				return c.renderer().Agent(view)
			}
			properties, err := c.wire.Agents.AgentProperties(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.renderer().Properties(properties)
		},
	}
	cmd.Flags().BoolVar(&withProperties, "properties", false, "list the agent's properties instead")
	return cmd
}

func (c *CLI) agentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <agent-id>",
		Short: "Delete an agent no property refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.wire.Agents.DeleteAgent(cmd.Context(), entities.AgentID(args[0])); err != nil {
				return err
			}
			return c.renderer().Message("Deleted agent %s", args[0])
		},
	}
}
