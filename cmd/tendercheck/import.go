package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/tendercheck/tender"
)

// tenderFile is the on-disk YAML shape of a tender definition.
type tenderFile struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Requirements []struct {
		ID       string   `yaml:"id"`
		Text     string   `yaml:"text"`
		Type     string   `yaml:"type"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"requirements"`
}

func importCmd(configPath *string) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a tender definition YAML into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			t, err := loadTenderFile(filePath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.Save(ctx, t); err != nil {
				return fmt.Errorf("save tender: %w", err)
			}

			fmt.Printf("Imported tender %s (%d requirements)\n", t.ID, len(t.Requirements))
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Tender definition YAML file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadTenderFile parses a tender definition YAML into a tender. Missing
// requirement IDs get positional "r<n>" identifiers.
func loadTenderFile(path string) (*tender.Tender, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tender file: %w", err)
	}

	var file tenderFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tender file: %w", err)
	}
	if file.Title == "" {
		return nil, fmt.Errorf("tender title is required")
	}
	if len(file.Requirements) == 0 {
		return nil, fmt.Errorf("tender has no requirements")
	}

	t := tender.NewTender(file.Title)
	if file.ID != "" {
		t.ID = file.ID
	}

	for i, req := range file.Requirements {
		id := req.ID
		if id == "" {
			id = fmt.Sprintf("r%d", i+1)
		}
		if req.Text == "" {
			return nil, fmt.Errorf("requirement %s has no text", id)
		}
		t.Requirements = append(t.Requirements, tender.Requirement{
			ID:       id,
			Text:     req.Text,
			Type:     parseRequirementType(req.Type),
			Keywords: req.Keywords,
		})
	}

	return t, nil
}

func parseRequirementType(s string) tender.RequirementType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANDATORY":
		return tender.RequirementMandatory
	case "OPTIONAL":
		return tender.RequirementOptional
	default:
		return tender.RequirementUnknown
	}
}
