package replay

import (
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/pricing"
)

// Model names used by the canned backend.
const (
	ModelLightweight = "Mock Lightweight"
	ModelStandard    = "Mock Standard"
	ModelPremium     = "Mock Premium"
	ModelBenchmark   = "Mock GPT-5 Benchmark"

	recordedBenchmark = "gpt-5"
	recordedNano      = "gpt-5-nano"
	recordedMini      = "gpt-5-mini"
)

// recordedRow is one row of a past router vs benchmark run.
type recordedRow struct {
	routerLatencyMs     float64
	benchmarkLatencyMs  float64
	routerAccuracy      float64
	benchmarkAccuracy   float64
	promptTokens        int
	routerModel         string
	routerCompletion    int
	benchmarkCompletion int
	routerSummary       string
	benchmarkSummary    string
}

var recorded = []recordedRow{
	{2896, 8160, 72, 68, 314, recordedNano, 706, 490,
		"Acme Corp INV-2025-001 $12,500.00; BlueSky Ltd BS-2025-483 $8,200.00; Zava Supplies ZS-2025-912 $3,450.00.",
		"Three invoices extracted: Acme Corp ($12,500.00), BlueSky Ltd ($8,200.00) and Zava Supplies ($3,450.00). Combined total $24,150.00."},
	{3192, 7959, 82, 82, 229, recordedNano, 844, 775,
		"Reports 1041 and 1044 exceed the meal and lodging caps and should be reviewed.",
		"Two reports are out of policy: 1041 (airfare above cap without pre-approval) and 1044 (hotel nightly rate over limit)."},
	{60633, 112847, 64, 72, 350, recordedMini, 5594, 11178,
		"Cleaned sales by region, flagged the March West spike, and forecast Q3/Q4 with moving average and YoY trend.",
		"Aggregated regional sales, isolated two anomalous spikes, produced dual-method Q3/Q4 forecasts with 80% confidence bands."},
	{17524, 120702, 78, 85, 464, recordedMini, 713, 7854,
		"Risk statements grouped into privacy, cybersecurity and litigation, mapped to SOX and GDPR.",
		"Categorized twelve risk statements, inferred three implicit compliance gaps, mapped each to SOX, GDPR or SEC disclosure rules."},
	{9120, 23713, 93, 97, 229, recordedNano, 3466, 1177,
		"Mentions are mostly positive about the ThermoCore Baselayer; shipping delays drive the negatives.",
		"Overall sentiment positive (68%). Praise centers on product quality; complaints cluster around delivery times."},
	{5361, 33856, 82, 97, 150, recordedNano, 931, 2632,
		"C002 led on conversion rate; the retail segment outperformed wholesale.",
		"Campaign C002 converted best at 4.1%. Retail customers opened and clicked at nearly twice the wholesale rate."},
	{19868, 160818, 64, 84, 214, recordedMini, 678, 9888,
		"Customers grouped into RFM tiers with two emerging micro-segments identified.",
		"Built RFM tiers, overlaid age band and geography, and surfaced two growth micro-segments with detection criteria."},
	{24117, 65183, 72, 84, 271, recordedMini, 810, 3568,
		"Negative posts trend upward around logistics; mitigation playbook proposed.",
		"Themes classified, an accelerating logistics complaint trend detected, and a three-phase mitigation playbook proposed."},
	{7760, 13508, 82, 62, 250, recordedNano, 3056, 1162,
		"Bugs grouped into UI, authentication and performance with severity tags.",
		"Five bug reports categorized; the mobile login issue is critical, the others medium or low."},
	{8134, 20727, 80, 68, 179, recordedNano, 3302, 1592,
		"Feature requests clustered into usability, integrations and reporting; dark mode is most urgent.",
		"Requests fall into three themes. Dark mode and CSV export carry the highest urgency."},
	{14126, 140178, 72, 86, 386, recordedMini, 524, 7694,
		"Launch plan with alpha, beta and GA phases, risks scored, five KPIs defined.",
		"Phased launch program with critical path, probability/impact risk matrix, contingency triggers and five KPIs."},
	{24951, 97897, 79, 83, 350, recordedMini, 1303, 3854,
		"Feature matrix built against competitors with three offensive and three defensive moves.",
		"Comparative brief covering feature gaps, positioning, likely countermoves and six recommended strategic actions."},
}

var scenarioPrompts = map[string][]api.Scenario{
	"Finance": {
		{ID: "fin-1", Title: "Invoice Extraction", Prompt: "Extract invoice totals and vendor names from the accounting system."},
		{ID: "fin-2", Title: "Expense Policy Review", Prompt: "Flag any expense reports with out-of-policy items for review from the expense reporting system."},
		{ID: "fin-3", Title: "Multi-step Financial Analysis", Prompt: "Perform a multi-step financial analysis: clean and aggregate historical sales by region, detect anomalous spikes, and forecast quarterly revenue for the next two quarters using two comparative methods."},
		{ID: "fin-4", Title: "Regulatory Filing Review", Prompt: "Conduct a structured regulatory review of the SEC filing excerpt: categorize risk statements, identify implicit compliance vulnerabilities, and map findings to SOX, GDPR and SEC disclosure obligations."},
	},
	"Marketing": {
		{ID: "mkt-1", Title: "Social Sentiment", Prompt: "Analyze sentiment of the recent social media mentions about our company."},
		{ID: "mkt-2", Title: "Email Campaign Summary", Prompt: "Summarize the performance of last month's email campaign from the marketing database."},
		{ID: "mkt-3", Title: "Customer Segmentation", Prompt: "Execute an advanced segmentation workflow: group customers by purchase frequency, recency and monetary value, calculate RFM tiers, and identify two emerging micro-segments with growth potential."},
		{ID: "mkt-4", Title: "Brand Reputation Assessment", Prompt: "Perform a multi-layer brand reputation assessment: classify posts into themes, detect accelerating negative trends, and propose a prioritized mitigation playbook."},
	},
	"Product": {
		{ID: "prd-1", Title: "Bug Report Triage", Prompt: "Summarize and categorize incoming bug reports from the issue tracking system."},
		{ID: "prd-2", Title: "Feature Request Clustering", Prompt: "Cluster feature requests by theme and urgency from the product backlog data."},
		{ID: "prd-3", Title: "Launch Program", Prompt: "Construct a comprehensive launch program: identify milestones and dependencies, develop a phased timeline, score risks, and define five KPIs for post-launch monitoring."},
		{ID: "prd-4", Title: "Competitive Intelligence Brief", Prompt: "Deliver a comparative intelligence brief: build a feature matrix against each competitor, assess strategic positioning, and recommend offensive and defensive actions."},
	},
}

var complexities = []string{"Low", "Medium", "High", "High"}

var expectations = map[string]string{
	"Low":    "Accurate extraction with minimal reasoning",
	"Medium": "Correct classification with brief justification",
	"High":   "Multi-step reasoning with traceable justification",
}

var groundTruths = map[string]api.GroundTruth{
	"fin-1": {ExpectedAnswer: "Acme Corp INV-2025-001 $12,500.00; BlueSky Ltd BS-2025-483 $8,200.00; Zava Supplies ZS-2025-912 $3,450.00", EvaluationCriteria: "All three vendors, invoice ids and totals must be present and correct."},
	"fin-2": {ExpectedAnswer: "Reports 1041 and 1044 are out of policy.", EvaluationCriteria: "Identifies every out-of-policy report and names the violated rule."},
	"fin-3": {ExpectedAnswer: "Regional aggregates, anomaly justification and a two-method Q3/Q4 forecast with stated confidence.", EvaluationCriteria: "Covers every numbered step with quantitative support."},
	"fin-4": {ExpectedAnswer: "Risk statements categorized and mapped to SOX, GDPR and SEC disclosure obligations with priorities.", EvaluationCriteria: "Categorization is complete and each mapping has a rationale."},
	"mkt-1": {ExpectedAnswer: "Predominantly positive sentiment; negatives relate to shipping delays.", EvaluationCriteria: "Correct overall polarity with supporting examples."},
	"mkt-2": {ExpectedAnswer: "C002 has the best conversion rate; retail outperforms wholesale.", EvaluationCriteria: "Correct best campaign and segment comparison."},
	"mkt-3": {ExpectedAnswer: "RFM tiers with demographic overlays and two emerging micro-segments.", EvaluationCriteria: "Segments are defined with explicit detection criteria."},
	"mkt-4": {ExpectedAnswer: "Logistics complaints are accelerating; a phased mitigation playbook is proposed.", EvaluationCriteria: "Trend claim is supported by evidence and mitigations are prioritized."},
	"prd-1": {ExpectedAnswer: "Bugs categorized by area with the mobile login issue marked critical.", EvaluationCriteria: "Every bug is categorized with a severity."},
	"prd-2": {ExpectedAnswer: "Three themes; dark mode and export are most urgent.", EvaluationCriteria: "Clusters are coherent and urgency is justified."},
	"prd-3": {ExpectedAnswer: "Phased alpha, beta and GA timeline with scored risks and five KPIs.", EvaluationCriteria: "All five requested elements are present."},
	"prd-4": {ExpectedAnswer: "Feature matrix, positioning, countermoves and three offensive plus three defensive actions.", EvaluationCriteria: "Recommendations follow from the matrix and positioning analysis."},
}

// PricingTable is the canned /api/pricing payload.
var PricingTable = pricing.Data{
	PricingInfo: pricing.Info{
		Description: "Per-1M-token list prices used for cost comparison",
		LastUpdated: "2025-08-20",
		Currency:    "USD",
	},
	Models: map[string]pricing.Rate{
		pricing.RouterModel:  {InputPer1M: 0.14, OutputPer1M: 0, Description: "Router classification surcharge"},
		pricing.DefaultModel: {InputPer1M: 1.25, OutputPer1M: 10.00, Description: "Default rate for unlisted models"},
		recordedBenchmark:    {InputPer1M: 1.25, OutputPer1M: 10.00, Description: "GPT-5"},
		recordedMini:         {InputPer1M: 0.25, OutputPer1M: 2.00, Description: "GPT-5 mini"},
		recordedNano:         {InputPer1M: 0.05, OutputPer1M: 0.40, Description: "GPT-5 nano"},
		ModelLightweight:     {InputPer1M: 0.05, OutputPer1M: 0.40, Description: "Mock lightweight tier"},
		ModelStandard:        {InputPer1M: 0.25, OutputPer1M: 2.00, Description: "Mock standard tier"},
		ModelPremium:         {InputPer1M: 1.25, OutputPer1M: 10.00, Description: "Mock premium tier"},
		ModelBenchmark:       {InputPer1M: 1.25, OutputPer1M: 10.00, Description: "Mock benchmark"},
	},
}

func init() {
	for dept, list := range scenarioPrompts {
		for i := range list {
			c := complexities[i%len(complexities)]
			list[i].Department = dept
			list[i].Complexity = c
			list[i].QualityExpectation = expectations[c]
		}
	}
}
