// internal/cli/accuracy.go
package routerbench

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/report"
)

var accuracyCmd = &cobra.Command{
	Use:   "accuracy [PROMPT]",
	Short: "Compare both models and grade their answers",
	Long: `The 'accuracy' command runs an accuracy comparison: both models answer the prompt and a grader scores each answer.
--scenario uses a canned scenario's ground truth (and its prompt when none is given); --ground-truth supplies the expected answer directly. Without either, the backend grades without a reference.`,
	Args:        cobra.ArbitraryArgs,
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		ctx := cmd.Context()
		scenarioID, _ := cmd.Flags().GetString("scenario")
		groundTruth, _ := cmd.Flags().GetString("ground-truth")
		department, _ := cmd.Flags().GetString("department")
		if department == "" {
			department = rt.cfg.DepartmentOrDefault()
		}

		prompt := strings.TrimSpace(strings.Join(args, " "))
		if scenarioID != "" {
			if prompt == "" {
				p, err := scenarioPrompt(ctx, rt.backend, department, scenarioID)
				if err != nil {
					return err
				}
				prompt = p
			}
			gt, err := rt.backend.GroundTruth(ctx, scenarioID)
			if err != nil {
				return err
			}
			groundTruth = gt.ExpectedAnswer
		}
		if prompt == "" {
			return errors.New("a prompt or --scenario is required")
		}

		resp, err := rt.backend.AccuracyComparison(ctx, prompt, groundTruth)
		if err != nil {
			return err
		}
		return rt.emit(resp, func() string {
			return report.Accuracy(resp, outputWidth)
		})
	},
}

// scenarioPrompt finds the prompt of scenario id within department.
func scenarioPrompt(ctx context.Context, b api.Backend, department, id string) (string, error) {
	list, err := b.Scenarios(ctx, department)
	if err != nil {
		return "", err
	}
	for _, s := range list {
		if s.ID == id {
			return s.Prompt, nil
		}
	}
	return "", fmt.Errorf("scenario %q not found in %s", id, department)
}

var groundTruthCmd = &cobra.Command{
	Use:         "ground-truth SCENARIO_ID",
	Short:       "Show the expected answer for a scenario",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		gt, err := rt.backend.GroundTruth(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return rt.emit(gt, func() string {
			return report.GroundTruth(args[0], gt, outputWidth)
		})
	},
}

func init() {
	accuracyCmd.Flags().String("scenario", "", "scenario id whose ground truth is used")
	accuracyCmd.Flags().String("ground-truth", "", "expected answer to grade against")
	accuracyCmd.Flags().String("department", "", "department to look the scenario up in")
	accuracyCmd.MarkFlagsMutuallyExclusive("scenario", "ground-truth")

	rootCmd.AddCommand(accuracyCmd)
	rootCmd.AddCommand(groundTruthCmd)
}
