// Package data holds the dataset commands for the Schoolpitch CLI. They load
// the same CSV sources as the web server and either summarise them or write
// the sales workbook without running a server.
package data

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hmiddleton/schoolpitch/internal/dataset"
	"github.com/hmiddleton/schoolpitch/internal/export"
	"github.com/hmiddleton/schoolpitch/internal/models"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "data",
	Title: "Dataset operations",
}

func init() {
	Stats.Flags().Int("top", 0, "also list the top N schools by teaching support spend")
	addSourceFlags(Stats)

	Export.Flags().String("out", "./school_shortlist.xlsx", "path to the generated workbook")
	Export.Flags().String("priority", "", "only include schools with this sales priority (HIGH, MEDIUM, LOW)")
	Export.Flags().Int("limit", 0, "cap the number of exported schools, 0 means no cap")
	addSourceFlags(Export)
}

// addSourceFlags registers the CSV source flags shared by the dataset
// commands. Defaults come from the same environment variables as the server,
// so a .env file configures both.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("financial", envOr("SCHOOLPITCH_FINANCIAL_CSV", "./data/financial.csv"), "path to the financial benchmarking CSV")
	cmd.Flags().String("directory", envOr("SCHOOLPITCH_DIRECTORY_CSV", "./data/gias.csv"), "path to the GIAS directory CSV")
	cmd.Flags().String("send", envOr("SCHOOLPITCH_SEND_CSV", "./data/send.csv"), "path to the SEND CSV")
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func loadStore(cmd *cobra.Command) (*dataset.Store, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	financial, err := cmd.Flags().GetString("financial")
	if err != nil {
		return nil, err
	}
	directory, err := cmd.Flags().GetString("directory")
	if err != nil {
		return nil, err
	}
	send, err := cmd.Flags().GetString("send")
	if err != nil {
		return nil, err
	}
	return dataset.NewLoader(logger, financial, directory, send).Load()
}

var Stats = &cobra.Command{
	Use:     "stats",
	GroupID: "data",
	Short:   "Summarise the merged dataset",
	Long:    `Loads the CSV sources, merges them by URN and prints summary statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd)
		if err != nil {
			return err
		}
		stats := store.Statistics()
		fmt.Printf("Schools:             %d\n", stats.TotalSchools)
		fmt.Printf("With financial data: %d\n", stats.WithFinancial)
		fmt.Printf("With SEND data:      %d\n", stats.WithSEND)
		fmt.Printf("High priority:       %d\n", stats.HighPriority)
		fmt.Printf("Medium priority:     %d\n", stats.MediumPriority)
		fmt.Printf("Low priority:        %d\n", stats.LowPriority)
		fmt.Printf("Unknown priority:    %d\n", stats.UnknownPriority)
		fmt.Printf("SEND high priority:  %d\n", stats.SENDHighPriority)
		fmt.Printf("With SEN unit:       %d\n", stats.WithSENUnit)

		top, err := cmd.Flags().GetInt("top")
		if err != nil {
			return err
		}
		if top > 0 {
			fmt.Printf("\nTop %d by teaching support spend:\n", top)
			for _, school := range store.TopSpenders(top) {
				spend := "unreported"
				if school.Financial != nil && school.Financial.TotalTeachingSupportCosts != nil {
					spend = models.FormatGBP(*school.Financial.TotalTeachingSupportCosts)
				}
				fmt.Printf("  %s  %s  %s\n", school.URN, spend, school.Name)
			}
		}
		return nil
	},
}

var Export = &cobra.Command{
	Use:     "export [urn...]",
	GroupID: "data",
	Short:   "Write the sales workbook",
	Long: `Loads the CSV sources and writes the two-sheet xlsx workbook used by the
sales team. With URN arguments only those schools are exported; otherwise the
whole dataset, optionally filtered by priority.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd)
		if err != nil {
			return err
		}

		priority, err := cmd.Flags().GetString("priority")
		if err != nil {
			return err
		}
		var schools []*models.School
		switch {
		case len(args) > 0:
			for _, urn := range args {
				school, ok := store.ByURN(urn)
				if !ok {
					return fmt.Errorf("unknown URN %q", urn)
				}
				schools = append(schools, school)
			}
		case priority != "":
			schools = store.ByPriority(models.Priority(priority))
		default:
			schools = store.All()
		}

		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		if limit > 0 && len(schools) > limit {
			schools = schools[:limit]
		}

		workbook, err := export.Workbook(schools)
		if err != nil {
			return err
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, workbook, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d schools to %s\n", len(schools), outPath)
		return nil
	},
}
