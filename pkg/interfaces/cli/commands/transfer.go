package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/services"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	csvrepo "github.com/copropiedad/ledger/pkg/infrastructure/repositories/csv"
	"github.com/copropiedad/ledger/pkg/interfaces/cli/output"
)

// Export file names, also looked up by import --dir
const (
	agentsFile      = "agents.csv"
	ownersFile      = "owners.csv"
	propertiesFile  = "properties.csv"
	assignmentsFile = "assignments.csv"
)

func (c *CLI) importCmd() *cobra.Command {
	var (
		files services.ImportFiles
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load agents, owners, properties and assignments from CSV files",
		Long: "Load records from CSV files in the order agents, owners, properties, assignments.\n" +
			"Every record is validated like one created by hand; the import stops at the first bad row.\n" +
			"With --dir the files agents.csv, owners.csv, properties.csv and assignments.csv are used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				files = resolveImportFiles(dir, files)
			}
			if files == (services.ImportFiles{}) {
				return fmt.Errorf("nothing to import: pass --dir or at least one of --agents, --owners, --properties, --assignments")
			}
			result, err := c.wire.Import.Import(cmd.Context(), files)
			if err != nil {
				if result != nil {
					c.logger.Warn("import stopped",
						zap.Int("agents", result.Agents),
						zap.Int("owners", result.Owners),
						zap.Int("properties", result.Properties),
						zap.Int("assignments", result.Assignments))
				}
				return err
			}
			return c.renderer().ImportResult(result)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&dir, "dir", "", "directory holding the four CSV files")
	flags.StringVar(&files.Agents, "agents", "", "agents CSV file")
	flags.StringVar(&files.Owners, "owners", "", "owners CSV file")
	flags.StringVar(&files.Properties, "properties", "", "properties CSV file")
	flags.StringVar(&files.Assignments, "assignments", "", "share assignments CSV file")
	return cmd
}

// resolveImportFiles fills the files not given explicitly from dir
func resolveImportFiles(dir string, files services.ImportFiles) services.ImportFiles {
	fill := func(dst *string, name string) {
		if *dst == "" {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				*dst = path
			}
		}
	}
	fill(&files.Agents, agentsFile)
	fill(&files.Owners, ownersFile)
	fill(&files.Properties, propertiesFile)
	fill(&files.Assignments, assignmentsFile)
	return files
}

func (c *CLI) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to CSV files that import can read back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			agentViews, err := c.wire.Agents.ListAgents(ctx)
			if err != nil {
				return err
			}
			ownerViews, err := c.wire.Owners.ListOwners(ctx)
			if err != nil {
				return err
			}
			propertyViews, err := c.wire.Properties.ListProperties(ctx, repositories.PropertyFilter{})
			if err != nil {
				return err
			}

			agents := make([]*entities.Agent, 0, len(agentViews))
			for _, v := range agentViews {
				agents = append(agents, v.Agent)
			}
			owners := make([]*entities.Owner, 0, len(ownerViews))
			var assignments []entities.ShareAssignment
			for _, v := range ownerViews {
				owners = append(owners, v.Owner)
				for _, s := range v.Shares {
					assignments = append(assignments, s.Assignment)
				}
			}
			properties := make([]*entities.Property, 0, len(propertyViews))
			for i := len(propertyViews) - 1; i >= 0; i-- {
				properties = append(properties, propertyViews[i].Property)
			}

			writes := []struct {
				name  string
				write func(*csvrepo.Writer) error
			}{
				{agentsFile, func(w *csvrepo.Writer) error { return w.WriteAgents(agents) }},
				{ownersFile, func(w *csvrepo.Writer) error { return w.WriteOwners(owners) }},
				{propertiesFile, func(w *csvrepo.Writer) error { return w.WriteProperties(properties) }},
				{assignmentsFile, func(w *csvrepo.Writer) error { return w.WriteAssignments(assignments) }},
			}
			for _, wr := range writes {
				path := filepath.Join(dir, wr.name)
				f, err := output.Create(path)
				if err != nil {
					return err
				}
				err = wr.write(csvrepo.NewWriter(f))
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				c.logger.Debug("export file written", zap.String("path", path))
			}
			return c.renderer().Message("Exported %d agents, %d owners, %d properties, %d assignments to %s",
				len(agents), len(owners), len(properties), len(assignments), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to write the CSV files to")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
