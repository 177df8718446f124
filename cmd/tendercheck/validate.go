package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360studio/tendercheck/tender"
)

func validateCmd(configPath *string) *cobra.Command {
	var (
		tenderID     string
		proposalPath string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a proposal against a stored tender",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(proposalPath)
			if err != nil {
				return fmt.Errorf("read proposal: %w", err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.validator.Run(ctx, tenderID, proposalPath, content)
			if err != nil {
				return err
			}
			a.metrics.RecordCache(a.cache.Stats())

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			printResults(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenderID, "tender", "", "Tender ID to validate against")
	cmd.Flags().StringVar(&proposalPath, "proposal", "", "Proposal file (pdf, html, md, txt)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")
	_ = cmd.MarkFlagRequired("tender")
	_ = cmd.MarkFlagRequired("proposal")

	return cmd
}

func printResults(results []tender.ValidationResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUIREMENT\tSTATUS\tCONFIDENCE\tREASONING")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", r.RequirementID, r.Status, r.Confidence, r.Reasoning)
	}
	_ = w.Flush()
}
