package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lcplatform/platform/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate application dependency descriptors",
	Long: `Validate reads a YAML or JSON file holding a list of dependency
descriptors and checks every record against the dependency schema.
The command prints a per-record report and exits non-zero when any
record fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(args[0])
		if err != nil {
			return err
		}

		result := validate.Dependency().ValidateBatch(cmd.Context(), records)

		for _, inv := range result.Invalid {
			fmt.Printf("record %d:\n", inv.Index)
			for _, fe := range inv.Errors {
				path := fe.Path
				if path == "" {
					path = "/"
				}
				fmt.Printf("  %s: %s\n", path, fe.Message)
			}
		}

		fmt.Printf("%d record(s): %d passed, %d failed (%s)\n",
			result.Summary.Total, result.Summary.Passed, result.Summary.Failed,
			result.Summary.Duration.Round(time.Microsecond))

		if !result.OK {
			cmd.SilenceUsage = true
			return fmt.Errorf("%d record(s) failed validation", result.Summary.Failed)
		}
		return nil
	},
}

// readRecords loads a YAML or JSON list and normalizes it through a
// JSON round trip so the validator sees JSON-typed values.
func readRecords(path string) ([]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}
	var out interface{}
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}

	switch v := out.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		return []interface{}{v}, nil
	default:
		return nil, fmt.Errorf("%s: expected a list of dependency descriptors", path)
	}
}
