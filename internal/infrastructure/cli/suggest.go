package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/wiring"
)

var (
	suggestConflictID string
	suggestJSON       bool

	applyConflictID string
	applyIndex      int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Rank resolution suggestions for a detected conflict",
	RunE:  runSuggest,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply an auto-applicable resolution suggestion",
	Long: `Apply executes one suggestion from "crewsched suggest" inside a
single transaction. Only auto-applicable suggestions can be applied;
the rest need a human to carry them out.`,
	RunE: runApply,
}

// findConflict resolves a conflict ID (or unique prefix) against the
// current sweep.
func findConflict(cmd *cobra.Command, services *wiring.AppServices, id string) (conflict.Conflict, error) {
	conflicts, err := services.Conflicts.ScanAll(cmd.Context())
	if err != nil {
		return conflict.Conflict{}, fmt.Errorf("scan: %w", err)
	}
	var matched []conflict.Conflict
	for _, c := range conflicts {
		if c.ID == id || strings.HasPrefix(c.ID, id) {
			matched = append(matched, c)
		}
	}
	switch len(matched) {
	case 0:
		return conflict.Conflict{}, fmt.Errorf("no conflict matches %q; run \"crewsched scan\" first", id)
	case 1:
		return matched[0], nil
	default:
		return conflict.Conflict{}, fmt.Errorf("conflict ID %q is ambiguous (%d matches)", id, len(matched))
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	c, err := findConflict(cmd, services, suggestConflictID)
	if err != nil {
		return err
	}

	suggestions, err := services.Resolution.Suggestions(cmd.Context(), c)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}

	if suggestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	}

	if len(suggestions) == 0 {
		fmt.Println("No suggestions available for this conflict")
		return nil
	}
	fmt.Printf("Conflict %s (%s): %s\n\n", c.ID[:8], c.Type, c.Message)
	for i, s := range suggestions {
		auto := ""
		if s.AutoApplicable {
			auto = " [auto]"
		}
		cost := ""
		if s.EstimatedCost != nil {
			cost = fmt.Sprintf(", ~$%.0f", *s.EstimatedCost)
		}
		fmt.Printf("%d. %s%s\n   confidence %d%%, impact %s%s\n", i+1, s.Description, auto, s.Confidence, s.Impact, cost)
	}
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	defer services.Close()

	c, err := findConflict(cmd, services, applyConflictID)
	if err != nil {
		return err
	}

	suggestions, err := services.Resolution.Suggestions(cmd.Context(), c)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	if applyIndex < 1 || applyIndex > len(suggestions) {
		return fmt.Errorf("suggestion index %d out of range (1-%d)", applyIndex, len(suggestions))
	}

	result := services.Resolution.Apply(cmd.Context(), suggestions[applyIndex-1])
	if !result.Success {
		return fmt.Errorf("apply failed: %s", result.Error)
	}

	services.Conflicts.InvalidateScan()
	fmt.Println("Resolution applied")
	return nil
}

func init() {
	suggestCmd.Flags().StringVar(&suggestConflictID, "conflict", "", "Conflict ID from \"crewsched scan\"")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Output in JSON format")
	suggestCmd.MarkFlagRequired("conflict")

	applyCmd.Flags().StringVar(&applyConflictID, "conflict", "", "Conflict ID from \"crewsched scan\"")
	applyCmd.Flags().IntVar(&applyIndex, "suggestion", 1, "1-based suggestion rank to apply")
	applyCmd.MarkFlagRequired("conflict")

	RootCmd.AddCommand(suggestCmd)
	RootCmd.AddCommand(applyCmd)
}
