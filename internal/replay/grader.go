package replay

import (
	"fmt"
	"strings"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
)

const gradingMs = 1800

var gradeBase = map[string]float64{
	ModelLightweight: 58,
	ModelStandard:    66,
	ModelPremium:     74,
	ModelBenchmark:   78,
}

// grade scores a response deterministically. Without ground truth no score is given.
func grade(model, prompt, groundTruth string) api.AccuracyEvaluation {
	eval := api.AccuracyEvaluation{ModelEvaluated: model}
	if strings.TrimSpace(groundTruth) == "" {
		eval.Reasoning = "No ground truth provided; accuracy was not evaluated."
		return eval
	}
	base, ok := gradeBase[model]
	if !ok {
		base = 60
	}
	score := base + float64(hash(model+"|"+prompt+"|"+groundTruth)%20)
	eval.Score = &score
	eval.Reasoning = fmt.Sprintf("%s covers the expected answer at a %s level.", model, strings.ToLower(aggregate.ScoreBand(&score)))
	eval.Strengths = []string{"Addresses the main request", "Output is well structured"}
	if score < 75 {
		eval.Weaknesses = []string{"Omits supporting detail present in the expected answer"}
		eval.KeyGaps = []string{"Incomplete coverage of the evaluation criteria"}
	}
	return eval
}
