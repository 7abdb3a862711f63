package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aS4meone/qutty-ai-public/internal/capture"
	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/sequence"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var sequenceJSONFlag bool

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Print the plan a run of the given test would walk",
	Long: `Sequence builds one randomized run plan and prints it without capturing:
the disclosed cues, the rehearsal list, and every presented step with the
label its frames would carry.`,
	Run: runSequence,
}

func init() {
	sequenceCmd.Flags().BoolVar(&sequenceJSONFlag, "json", false, "Print the plan as JSON")
}

func runSequence(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	cfg, err := buildRunConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid test configuration")
	}
	plan, err := capture.NewPlan(cfg, sequence.NewSource())
	if err != nil {
		log.Fatal().Err(err).Int("test", cfg.TestNumber).Msg("Failed to build plan")
	}

	if sequenceJSONFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode plan")
		}
		return
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Printf("Test %d plan\n", plan.TestNumber)
	fmt.Println("============================================")
	for _, cue := range plan.Cues {
		fmt.Printf("Cue: %s -> %s\n", cue.Stimulus, cue.Response)
	}
	if len(plan.Rehearsal) > 0 {
		fmt.Printf("Rehearsal: %s\n", joinSymbols(plan.Rehearsal))
	}
	fmt.Println("--------------------------------------------")
	for i, st := range plan.Steps {
		marker := " "
		if st.IsTarget {
			marker = "*"
		}
		line := fmt.Sprintf("  %2d. %s %s", i+1, marker, st.Symbol)
		if st.IsTarget && st.Label != st.Symbol {
			line += " (answer: " + string(st.Label) + ")"
		}
		if st.Prompt != "" {
			line += "  \"" + st.Prompt + "\""
		}
		fmt.Println(line)
	}
	fmt.Println("--------------------------------------------")
	fmt.Printf("Capture ticks (max): %d\n", cfg.MaxCaptureTicks(plan))
	fmt.Println()
}

// buildRunConfig resolves the test configuration from flags.
func buildRunConfig() (capture.Config, error) {
	cfg, err := capture.ConfigFor(testNumFlag)
	if err != nil {
		return capture.Config{}, err
	}
	cfg.Targets = toSymbols(targetsFlag)
	cfg.Responses = toSymbols(responseFlag)
	return cfg, nil
}

func toSymbols(in []string) []catalog.Symbol {
	if len(in) == 0 {
		return nil
	}
	out := make([]catalog.Symbol, len(in))
	for i, s := range in {
		out[i] = catalog.Symbol(strings.TrimSpace(s))
	}
	return out
}

func joinSymbols(in []catalog.Symbol) string {
	parts := make([]string, len(in))
	for i, s := range in {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
