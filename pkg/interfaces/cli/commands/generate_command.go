package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
	csvrepo "github.com/copropiedad/ledger/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for demo data generation
type GenerateConfig struct {
	Properties int     // Number of properties to generate
	Owners     int     // Number of owners to generate
	Agents     int     // Number of agents to generate
	Occupancy  float64 // Fraction of shares given to an owner (0.0 - 1.0)
	OutputDir  string  // Output directory for generated files
	Seed       int64   // Random seed for reproducible generation
	Verbose    bool    // Verbose output
}

// GenerateCommand writes a random but plausible portfolio as import CSV files
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig, out io.Writer) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    out,
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if err := cmd.validate(); err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out,
			"🔧 Generating %d properties, %d owners, %d agents, %.0f%% occupancy\n",
			cmd.config.Properties, cmd.config.Owners, cmd.config.Agents, cmd.config.Occupancy*100)
		fmt.Fprintf(cmd.out, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	agents := cmd.generateAgents()
	owners := cmd.generateOwners()
	properties := cmd.generateProperties(agents)
	assignments, err := cmd.generateAssignments(properties, owners)
	if err != nil {
		return fmt.Errorf("failed to generate assignments: %w", err)
	}

	files := []struct {
		name  string
		write func(*csvrepo.Writer) error
	}{
		{agentsFile, func(w *csvrepo.Writer) error { return w.WriteAgents(agents) }},
		{ownersFile, func(w *csvrepo.Writer) error { return w.WriteOwners(owners) }},
		{propertiesFile, func(w *csvrepo.Writer) error { return w.WriteProperties(properties) }},
		{assignmentsFile, func(w *csvrepo.Writer) error { return w.WriteAssignments(assignments) }},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.out, "📝 Generating %s...\n", f.name)
		}
		if err := cmd.writeFile(f.name, f.write); err != nil {
			return err
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "✅ Demo data generated in %s (%d assignments)\n", cmd.config.OutputDir, len(assignments))
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("output directory is required")
	case cmd.config.Properties < 0 || cmd.config.Owners < 0 || cmd.config.Agents < 0:
		return fmt.Errorf("counts cannot be negative")
	case cmd.config.Occupancy < 0 || cmd.config.Occupancy > 1:
		return fmt.Errorf("occupancy must be between 0 and 1, got %.2f", cmd.config.Occupancy)
	}
	return nil
}

func (cmd *GenerateCommand) writeFile(name string, write func(*csvrepo.Writer) error) error {
	path := filepath.Join(cmd.config.OutputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := write(csvrepo.NewWriter(file)); err != nil {
		return err
	}
	return file.Close()
}

// generateAgents creates agents with sequential ids
func (cmd *GenerateCommand) generateAgents() []*entities.Agent {
	agents := make([]*entities.Agent, 0, cmd.config.Agents)
	for i := 0; i < cmd.config.Agents; i++ {
		first := firstNames[cmd.rand.Intn(len(firstNames))]
		last := lastNames[cmd.rand.Intn(len(lastNames))]
		agents = append(agents, &entities.Agent{
			ID:      entities.AgentID(fmt.Sprintf("AGENT_%03d", i+1)),
			Name:    first + " " + last,
			Email:   fmt.Sprintf("agent%03d@example.com", i+1),
			Phone:   cmd.generatePhone(),
			License: fmt.Sprintf("LIC-%05d", cmd.rand.Intn(100000)),
		})
	}
	return agents
}

// generateOwners creates owners with sequential ids
func (cmd *GenerateCommand) generateOwners() []*entities.Owner {
	owners := make([]*entities.Owner, 0, cmd.config.Owners)
	for i := 0; i < cmd.config.Owners; i++ {
		owners = append(owners, &entities.Owner{
			ID:         entities.OwnerID(fmt.Sprintf("OWNER_%04d", i+1)),
			FirstName:  firstNames[cmd.rand.Intn(len(firstNames))],
			LastNames:  lastNames[cmd.rand.Intn(len(lastNames))] + " " + lastNames[cmd.rand.Intn(len(lastNames))],
			Email:      fmt.Sprintf("owner%04d@example.com", i+1),
			Phone:      cmd.generatePhone(),
			NationalID: fmt.Sprintf("%08d%c", cmd.rand.Intn(100000000), 'A'+rune(cmd.rand.Intn(26))),
			Address:    entities.Address{City: cities[cmd.rand.Intn(len(cities))]},
		})
	}
	return owners
}

// generateProperties creates properties priced between 80.000 and 1.200.000
func (cmd *GenerateCommand) generateProperties(agents []*entities.Agent) []*entities.Property {
	properties := make([]*entities.Property, 0, cmd.config.Properties)
	for i := 0; i < cmd.config.Properties; i++ {
		category := categories[cmd.rand.Intn(len(categories))]
		city := cities[cmd.rand.Intn(len(cities))]

		// whole euros with an occasional odd cent amount to exercise the remainder split
		total := entities.Money(80_000_00 + cmd.rand.Int63n(1_120_000)*100)
		if cmd.rand.Intn(4) == 0 {
			total += entities.Money(cmd.rand.Intn(4))
		}

		p := &entities.Property{
			ID:         entities.PropertyID(fmt.Sprintf("PROP_%04d", i+1)),
			Name:       fmt.Sprintf("%s %s %d", category.prefix, city, i+1),
			Category:   category.name,
			Address:    entities.Address{Street: cmd.generateStreet(), City: city, Country: "Spain"},
			TotalPrice: total,
			Commission: entities.DefaultCommission(),
			Details: entities.Details{
				Bedrooms:   category.minRooms + cmd.rand.Intn(3),
				Bathrooms:  1 + cmd.rand.Intn(3),
				SquareFeet: 500 + cmd.rand.Intn(3000),
			},
		}
		if len(agents) > 0 && cmd.rand.Float64() < 0.7 {
			p.AgentID = agents[cmd.rand.Intn(len(agents))].ID
			// 1% to 5% in steps of 0.5
			p.Commission.Percentage = entities.MinCommissionPercentage.Add(decimal.New(int64(cmd.rand.Intn(9))*5, -1))
		}
		properties = append(properties, p)
	}
	return properties
}

// generateAssignments hands out shares to random owners through the share
// ledger, so the output never breaks the one-owner-per-share rule.
func (cmd *GenerateCommand) generateAssignments(properties []*entities.Property, owners []*entities.Owner) ([]entities.ShareAssignment, error) {
	var assignments []entities.ShareAssignment
	if len(owners) == 0 {
		return assignments, nil
	}

	ledger := domain.NewShareLedger()
	for _, p := range properties {
		prices, err := domain.SplitPrice(p.TotalPrice)
		if err != nil {
			return nil, err
		}
		for n := 1; n <= entities.SharesPerProperty; n++ {
			if cmd.rand.Float64() >= cmd.config.Occupancy {
				continue
			}
			owner := owners[cmd.rand.Intn(len(owners))]
			assignments, err = ledger.AssignOwnerToShare(assignments, owner.ID, p.ID, entities.ShareNumber(n), prices[n-1])
			if err != nil {
				return nil, err
			}
		}
	}
	return assignments, nil
}

func (cmd *GenerateCommand) generatePhone() string {
	return fmt.Sprintf("+34 6%02d %03d %03d", cmd.rand.Intn(100), cmd.rand.Intn(1000), cmd.rand.Intn(1000))
}

func (cmd *GenerateCommand) generateStreet() string {
	return fmt.Sprintf("%s %d", streets[cmd.rand.Intn(len(streets))], 1+cmd.rand.Intn(150))
}

type categoryTemplate struct {
	name     string
	prefix   string
	minRooms int
}

var (
	categories = []categoryTemplate{
		{"villa", "Villa", 3},
		{"apartment", "Apartamento", 1},
		{"house", "Casa", 2},
		{"penthouse", "Ático", 2},
	}
	cities     = []string{"Marbella", "Jávea", "Sitges", "Cadaqués", "Nerja", "Altea", "Llanes", "Comillas"}
	streets    = []string{"Calle del Mar", "Avenida de la Playa", "Paseo Marítimo", "Calle Mayor", "Camino del Faro"}
	firstNames = []string{"Lucía", "Martín", "Carmen", "Javier", "Elena", "Pablo", "Sofía", "Diego", "Marta", "Andrés"}
	lastNames  = []string{"García", "Fernández", "López", "Martínez", "Sánchez", "Romero", "Navarro", "Torres", "Ruiz", "Vidal"}
)

func (c *CLI) generateCmd() *cobra.Command {
	var config GenerateConfig
	cmd := &cobra.Command{
		Use:         "generate",
		Short:       "Write random demo data as import CSV files",
		Long:        "Write agents.csv, owners.csv, properties.csv and assignments.csv with random demo data.\nLoad them with: copro import --dir <DIR>",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipWire: "true"},
		Example: `  # Small reproducible portfolio
  copro generate --dir ./demo --properties 20 --owners 40 --agents 3 --seed 12345

  # Half the shares sold, with progress output
  copro generate --dir ./demo --occupancy 0.5 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Verbose = c.opts.verbose
			return NewGenerateCommand(config, c.out).Execute(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&config.OutputDir, "dir", "", "output directory for generated files")
	flags.IntVar(&config.Properties, "properties", 10, "number of properties")
	flags.IntVar(&config.Owners, "owners", 20, "number of owners")
	flags.IntVar(&config.Agents, "agents", 3, "number of agents")
	flags.Float64Var(&config.Occupancy, "occupancy", 0.3, "fraction of shares assigned to an owner")
	flags.Int64Var(&config.Seed, "seed", 0, "random seed for reproducible output")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
