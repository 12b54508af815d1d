/*
Package report generates narrative summaries of waste bank activity.

PURPOSE:
  Turns raw ledger data (deposits, catalog) into a compact summary and asks
  a language model to write the report. Two audiences are served: the
  operator (bank-wide performance) and an individual member (their own
  recycling activity).

KEY CONCEPTS:
  Summary:   Plain structs computed locally from ledger data. All numbers
             in a report come from here, never from the model.
  Generator: Interface over the model call so handlers and tests do not
             depend on the Gemini SDK.

DESIGN PRINCIPLES:
  1. The model narrates, it does not compute. Totals and composition are
     aggregated in Go and serialized into the prompt.
  2. Summaries cap the transaction detail sent along (last 10) to keep
     prompts small.

SEE ALSO:
  - core/ledger.go: Where the underlying data comes from
*/
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/ecovault/bank-engine/core"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// recentLimit caps how many individual transactions ride along in a prompt.
const recentLimit = 10

// Generator produces narrative reports from pre-computed summaries.
type Generator interface {
	OperatorReport(ctx context.Context, summary OperatorSummary) (string, error)
	MemberReport(ctx context.Context, summary MemberSummary) (string, error)
}

// =============================================================================
// SUMMARIES - Computed locally, serialized into prompts
// =============================================================================

// DepositDetail is the per-transaction slice of a summary.
type DepositDetail struct {
	CategoryName string     `json:"categoryName"`
	WeightKg     string     `json:"weightKg"`
	TotalAmount  core.Money `json:"totalAmount"`
	RecordedAt   string     `json:"recordedAt"`
}

// OperatorSummary aggregates bank-wide deposit activity.
type OperatorSummary struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalWeightKg     string          `json:"totalWeightKg"`
	TotalValuePaid    core.Money      `json:"totalValuePaid"`
	CategoriesOffered []string        `json:"categoriesOffered"`
	RecentDeposits    []DepositDetail `json:"recentDeposits"`
}

// MemberSummary aggregates one member's recycling activity.
type MemberSummary struct {
	MemberName        string            `json:"memberName"`
	TotalTransactions int               `json:"totalTransactions"`
	TotalWeightKg     string            `json:"totalWeightKg"`
	TotalEarnings     core.Money        `json:"totalEarnings"`
	WasteComposition  map[string]string `json:"wasteComposition"`
}

// BuildOperatorSummary computes the bank-wide summary from ledger data.
func BuildOperatorSummary(deposits []core.DepositTransaction, categories []core.WasteCategory) OperatorSummary {
	totalWeight := decimal.Zero
	var totalValue core.Money
	for _, d := range deposits {
		totalWeight = totalWeight.Add(d.Weight)
		totalValue += d.TotalAmount
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	recent := deposits
	if len(recent) > recentLimit {
		recent = recent[len(recent)-recentLimit:]
	}
	details := make([]DepositDetail, 0, len(recent))
	for _, d := range recent {
		details = append(details, DepositDetail{
			CategoryName: d.CategoryName,
			WeightKg:     d.Weight.String(),
			TotalAmount:  d.TotalAmount,
			RecordedAt:   d.RecordedAt.Format("2006-01-02"),
		})
	}

	return OperatorSummary{
		TotalTransactions: len(deposits),
		TotalWeightKg:     totalWeight.String(),
		TotalValuePaid:    totalValue,
		CategoriesOffered: names,
		RecentDeposits:    details,
	}
}

// BuildMemberSummary computes a single member's summary from their deposits.
func BuildMemberSummary(memberName string, deposits []core.DepositTransaction) MemberSummary {
	totalWeight := decimal.Zero
	var totalEarnings core.Money
	composition := make(map[string]decimal.Decimal)
	for _, d := range deposits {
		totalWeight = totalWeight.Add(d.Weight)
		totalEarnings += d.TotalAmount
		composition[d.CategoryName] = composition[d.CategoryName].Add(d.Weight)
	}

	comp := make(map[string]string, len(composition))
	for name, w := range composition {
		comp[name] = w.String()
	}

	return MemberSummary{
		MemberName:        memberName,
		TotalTransactions: len(deposits),
		TotalWeightKg:     totalWeight.String(),
		TotalEarnings:     totalEarnings,
		WasteComposition:  comp,
	}
}

// =============================================================================
// GEMINI GENERATOR
// =============================================================================

// Gemini implements Generator against the Gemini API. The client reads its
// API key from the GEMINI_API_KEY environment variable.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed generator. An empty model selects
// DefaultModel.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) OperatorReport(ctx context.Context, summary OperatorSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	prompt := "Act as an environmental and financial analyst for a community waste bank.\n\n" +
		"Here is our operational summary data in JSON:\n" +
		string(data) + "\n\n" +
		"Write a short, engaging report in Markdown covering:\n" +
		"1. **Performance summary**: total waste collected and money credited to members.\n" +
		"2. **Waste trends**: which categories appear most often in the recent deposits.\n" +
		"3. **Environmental impact**: a rough estimate of CO2 or energy saved based on the total weight. General estimates are fine.\n" +
		"4. **Recommendations**: suggestions for the bank operator to increase member participation.\n\n" +
		"Use a formal but motivating tone.\n"

	return g.generate(ctx, prompt)
}

func (g *Gemini) MemberReport(ctx context.Context, summary MemberSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	prompt := "Act as a personal environmental assistant for a waste bank member named " +
		summary.MemberName + ".\n\n" +
		"Here is this member's recycling activity data:\n" +
		string(data) + "\n\n" +
		"Write a warm, motivating personal report in Markdown covering:\n" +
		"1. **Your achievements**: celebrate the total weight (" + summary.TotalWeightKg + " kg) " +
		"and the earnings. Offer a simple analogy (for example, trees saved).\n" +
		"2. **Habit analysis**: comment on the waste categories they deposit most.\n" +
		"3. **Tips**: two practical tips to raise the value of their deposits or sort waste better, based on their composition.\n" +
		"4. **Closing**: encouragement to keep depositing.\n\n" +
		"Use a friendly, encouraging, educational tone.\n"

	return g.generate(ctx, prompt)
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
