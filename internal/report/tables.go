package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/history"
	"github.com/mwiater/routerbench/internal/metrics"
	"github.com/mwiater/routerbench/internal/pricing"
	"github.com/mwiater/routerbench/internal/util"
)

const (
	promptColumnWidth = 48
	barWidth          = 30
	routerColor       = "62"
	benchmarkColor    = "205"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// Scenarios lists canned prompts.
func Scenarios(department string, scenarios []api.Scenario) string {
	t := newTable("ID", "Title", "Complexity", "Expectation", "Prompt")
	for _, s := range scenarios {
		t.Row(s.ID, s.Title, s.Complexity, s.QualityExpectation, util.TruncateRunes(s.Prompt, promptColumnWidth))
	}
	return Title(fmt.Sprintf("%s scenarios (%d)", department, len(scenarios))) + "\n" + t.Render()
}

// Pricing renders the pricing table sorted by model name.
func Pricing(data pricing.Data) string {
	names := make([]string, 0, len(data.Models))
	for name := range data.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable("Model", "Input / 1M", "Output / 1M", "Description")
	for _, name := range names {
		rate := data.Models[name]
		t.Row(name, fmt.Sprintf("$%.2f", rate.InputPer1M), fmt.Sprintf("$%.2f", rate.OutputPer1M), rate.Description)
	}

	var b strings.Builder
	b.WriteString(Title("Pricing") + "\n")
	if info := data.PricingInfo; info.Description != "" || info.LastUpdated != "" {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s (currency %s, updated %s)", info.Description, info.Currency, info.LastUpdated)) + "\n")
	}
	b.WriteString(t.Render())
	return b.String()
}

// Response renders a single model invocation with its cost.
func Response(title string, resp api.ModelResponse, cost pricing.Breakdown, lookup pricing.Lookup, width int) string {
	var b strings.Builder
	b.WriteString(Title(title) + "\n")

	t := newTable("Model", "Latency", "Server", "Network", "Tokens in/out", "Cost")
	t.Row(
		resp.ModelType,
		formatMs(resp.LatencyMs()),
		formatMs(resp.ServerMs()),
		formatMs(deref(resp.NetworkMs)),
		fmt.Sprintf("%d / %d", resp.PromptTokens, resp.CompletionTokens),
		formatCost(cost.Total),
	)
	b.WriteString(t.Render() + "\n")
	if cost.RouterSurcharge > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("includes router surcharge %s", formatCost(cost.RouterSurcharge))) + "\n")
	}
	if lookup.Source == pricing.Fallback {
		b.WriteString(warnStyle.Render("pricing fallback: "+lookup.Reason) + "\n")
	}
	if resp.Error != "" {
		b.WriteString(badStyle.Render("error: "+resp.Error) + "\n")
	}
	b.WriteString("\n" + util.WrapToWidth(resp.Output, width))
	return b.String()
}

// Comparison holds one router-vs-benchmark pairing ready for display.
type Comparison struct {
	Router        api.ModelResponse
	Benchmark     api.ModelResponse
	RouterCost    pricing.Breakdown
	BenchmarkCost pricing.Breakdown
	Warnings      []string
}

// Compare renders a side-by-side comparison with latency bars and savings.
func Compare(c Comparison, width int) string {
	lat := aggregate.CompareResponses(c.Router, c.Benchmark)
	maxMs := max(lat.RouterMs, lat.BenchmarkMs)

	t := newTable("", "Model", "Latency", "", "Tokens in/out", "Cost")
	t.Row("Router", c.Router.ModelType, formatMs(lat.RouterMs), LatencyBar(lat.RouterMs, maxMs, barWidth, routerColor),
		fmt.Sprintf("%d / %d", c.Router.PromptTokens, c.Router.CompletionTokens), formatCost(c.RouterCost.Total))
	t.Row("Benchmark", c.Benchmark.ModelType, formatMs(lat.BenchmarkMs), LatencyBar(lat.BenchmarkMs, maxMs, barWidth, benchmarkColor),
		fmt.Sprintf("%d / %d", c.Benchmark.PromptTokens, c.Benchmark.CompletionTokens), formatCost(c.BenchmarkCost.Total))

	var b strings.Builder
	b.WriteString(Title("Router vs Benchmark") + "\n")
	b.WriteString(t.Render() + "\n")
	b.WriteString(LatencySummary(lat) + "\n")
	b.WriteString(fmt.Sprintf("Cost savings: %s", savingsText(aggregate.CostSavings(c.RouterCost.Total, c.BenchmarkCost.Total))) + "\n")
	for _, w := range c.Warnings {
		b.WriteString(warnStyle.Render("pricing fallback: "+w) + "\n")
	}
	if c.Router.Error != "" {
		b.WriteString(badStyle.Render("Router error: "+c.Router.Error) + "\n")
	}
	if c.Benchmark.Error != "" {
		b.WriteString(badStyle.Render("Benchmark error: "+c.Benchmark.Error) + "\n")
	}
	if width > 0 {
		b.WriteString("\n" + headerStyle.Render("Router output") + "\n" + util.WrapToWidth(c.Router.Output, width) + "\n")
		b.WriteString("\n" + headerStyle.Render("Benchmark output") + "\n" + util.WrapToWidth(c.Benchmark.Output, width))
	}
	return b.String()
}

// LatencySummary describes who was faster and by how much.
func LatencySummary(l aggregate.Latency) string {
	if !l.Comparable {
		return mutedStyle.Render("latency: no timing reported")
	}
	if l.RouterFaster {
		return goodStyle.Render(fmt.Sprintf("Router was %.1fx faster (saved %s, %.1f%%)", l.Multiplier, formatMs(l.SavedMs()), l.Percent))
	}
	if l.DiffMs == 0 {
		return "Router and benchmark took the same time"
	}
	return badStyle.Render(fmt.Sprintf("Router was %.1fx slower (%s, %.1f%%)", l.Multiplier, formatMs(l.SavedMs()), l.Percent))
}

// Repeat renders running latency statistics for repeated comparisons.
func Repeat(router, benchmark aggregate.RunningStat) string {
	t := newTable("", "Runs", "Mean", "Min", "Max", "StdDev")
	for _, row := range []struct {
		label string
		rs    aggregate.RunningStat
	}{{"Router", router}, {"Benchmark", benchmark}} {
		t.Row(row.label, fmt.Sprintf("%d", row.rs.Count), formatMs(row.rs.Mean), formatMs(row.rs.Min), formatMs(row.rs.Max), formatMs(row.rs.StdDev()))
	}
	return Title("Repeated comparison") + "\n" + t.Render() + "\n" + LatencySummary(aggregate.CompareLatency(router.Mean, benchmark.Mean))
}

// Accuracy renders a graded comparison.
func Accuracy(resp api.AccuracyComparisonResponse, width int) string {
	var b strings.Builder
	heading := "Accuracy comparison"
	if resp.ScenarioID != "" {
		heading += " (" + resp.ScenarioID + ")"
	}
	b.WriteString(Title(heading) + "\n")

	t := newTable("", "Model", "Score", "Latency", "Tokens out")
	for _, row := range []struct {
		label string
		r     api.ModelResponseWithAccuracy
	}{{"Router", resp.Router}, {"Benchmark", resp.Benchmark}} {
		t.Row(row.label, row.r.ModelType, ScoreBadge(score(row.r.AccuracyEvaluation)), formatMs(row.r.LatencyMs()), fmt.Sprintf("%d", row.r.CompletionTokens))
	}
	b.WriteString(t.Render() + "\n")

	timing := resp.Timing
	line := fmt.Sprintf("generation %s, grading %s, server total %s", formatMs(timing.ResponseGenerationMs), formatMs(timing.AccuracyEvaluationMs), formatMs(timing.TotalMs))
	if timing.ClientTotalMs != nil {
		line += fmt.Sprintf(", client total %s", formatMs(*timing.ClientTotalMs))
	}
	b.WriteString(mutedStyle.Render(line) + "\n")

	for _, row := range []struct {
		label string
		eval  *api.AccuracyEvaluation
	}{{"Router", resp.Router.AccuracyEvaluation}, {"Benchmark", resp.Benchmark.AccuracyEvaluation}} {
		if row.eval == nil {
			continue
		}
		b.WriteString("\n" + headerStyle.Render(row.label+" evaluation") + "\n")
		if row.eval.Error != "" {
			b.WriteString(badStyle.Render(row.eval.Error) + "\n")
		}
		if row.eval.Reasoning != "" {
			b.WriteString(util.WrapToWidth(row.eval.Reasoning, width) + "\n")
		}
		writeList(&b, "Strengths", row.eval.Strengths)
		writeList(&b, "Weaknesses", row.eval.Weaknesses)
		writeList(&b, "Key gaps", row.eval.KeyGaps)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label + ":\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
}

func score(eval *api.AccuracyEvaluation) *float64 {
	if eval == nil {
		return nil
	}
	return eval.Score
}

// GroundTruth renders a scenario's expected answer.
func GroundTruth(scenarioID string, gt api.GroundTruth, width int) string {
	var b strings.Builder
	b.WriteString(Title("Ground truth for "+scenarioID) + "\n")
	b.WriteString(util.WrapToWidth(gt.ExpectedAnswer, width) + "\n")
	if gt.EvaluationCriteria != "" {
		b.WriteString("\n" + headerStyle.Render("Evaluation criteria") + "\n" + util.WrapToWidth(gt.EvaluationCriteria, width))
	}
	return strings.TrimRight(b.String(), "\n")
}

// JobStatus renders one status snapshot.
func JobStatus(st api.JobStatus) string {
	line := fmt.Sprintf("job %s: %s %d/%d (%.0f%%)", st.JobID, st.Status, st.ProcessedRows, st.TotalRows, st.Progress)
	switch st.Status {
	case api.JobCompleted:
		return goodStyle.Render(line)
	case api.JobFailed:
		msg := st.ErrorMessage
		if msg == "" {
			msg = "An error occurred during evaluation."
		}
		return badStyle.Render(line + ": " + msg)
	default:
		return line
	}
}

// Results renders a completed dataset evaluation with its summary.
func Results(res api.DatasetEvaluationResults, stats aggregate.Stats) string {
	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Dataset results for job %s", res.JobID)) + "\n")

	t := newTable("#", "Prompt", "Router", "Latency", "Cost", "Score", "Benchmark", "Latency", "Cost", "Score")
	for _, r := range res.Results {
		t.Row(
			fmt.Sprintf("%d", r.RowIndex+1),
			util.TruncateRunes(r.Prompt, promptColumnWidth),
			r.Router.ModelType,
			formatMs(r.Router.LatencyMs),
			formatOptionalCost(r.Router.Cost),
			formatOptionalScore(r.Router.Accuracy),
			r.Benchmark.ModelType,
			formatMs(r.Benchmark.LatencyMs),
			formatOptionalCost(r.Benchmark.Cost),
			formatOptionalScore(r.Benchmark.Accuracy),
		)
	}
	b.WriteString(t.Render() + "\n")
	b.WriteString(Summary(stats))
	return b.String()
}

// Summary renders aggregate statistics.
func Summary(s aggregate.Stats) string {
	maxMs := max(s.AvgRouterLatencyMs, s.AvgBenchmarkLatencyMs)
	t := newTable("", "Router", "Benchmark", "Savings")
	t.Row("Avg latency", formatMs(s.AvgRouterLatencyMs), formatMs(s.AvgBenchmarkLatencyMs), savingsText(s.LatencySavings))
	t.Row("Total cost", formatCost(s.TotalRouterCost), formatCost(s.TotalBenchmarkCost), savingsText(s.CostSavings))
	t.Row("Avg accuracy", fmt.Sprintf("%.0f", s.AvgRouterAccuracy), fmt.Sprintf("%.0f", s.AvgBenchmarkAccuracy), "")
	t.Row("Graded accuracy", gradedText(s.GradedRouterAccuracy, s.RouterGraded, s.Rows), gradedText(s.GradedBenchmarkAccuracy, s.BenchmarkGraded, s.Rows), "")

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Summary (%d prompts)", s.Rows)) + "\n")
	b.WriteString(t.Render() + "\n")
	b.WriteString("Router    " + LatencyBar(s.AvgRouterLatencyMs, maxMs, barWidth, routerColor) + "\n")
	b.WriteString("Benchmark " + LatencyBar(s.AvgBenchmarkLatencyMs, maxMs, barWidth, benchmarkColor) + "\n")
	if s.TotalRouterSurcharge > 0 {
		b.WriteString(mutedStyle.Render("router surcharge included: "+formatCost(s.TotalRouterSurcharge)) + "\n")
	}
	if len(s.FallbackModels) > 0 {
		b.WriteString(warnStyle.Render("fallback pricing used for: "+strings.Join(s.FallbackModels, ", ")) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func gradedText(avg *float64, graded, rows int) string {
	if avg == nil {
		return fmt.Sprintf("n/a (0/%d)", rows)
	}
	return fmt.Sprintf("%.0f (%d/%d)", *avg, graded, rows)
}

// History lists saved evaluations.
func History(records []history.Record) string {
	t := newTable("ID", "Job", "Source", "Completed", "Rows", "Cost savings", "Latency savings")
	for _, r := range records {
		t.Row(r.ID, r.JobID, r.Source, r.CompletedAt.Format("2006-01-02 15:04:05"), fmt.Sprintf("%d", r.TotalRows),
			savingsText(r.Stats.CostSavings), savingsText(r.Stats.LatencySavings))
	}
	return Title(fmt.Sprintf("Saved evaluations (%d)", len(records))) + "\n" + t.Render()
}

// Metrics renders client timing statistics per operation.
func Metrics(ops []metrics.OperationMetrics) string {
	if len(ops) == 0 {
		return mutedStyle.Render("no client timings recorded yet")
	}
	t := newTable("Operation", "Calls", "Mean", "Min", "Max", "StdDev", "Mean network", "Last updated")
	for _, m := range ops {
		rs := m.OverallStats.ResponseMs
		t.Row(m.Operation, fmt.Sprintf("%d", m.OverallStats.TotalRequests), formatMs(rs.Mean), formatMs(rs.Min), formatMs(rs.Max),
			formatMs(rs.StdDev()), formatMs(m.OverallStats.NetworkMs.Mean), m.LastUpdatedUTC.Format("2006-01-02 15:04:05"))
	}
	return Title("Client timings") + "\n" + t.Render()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
