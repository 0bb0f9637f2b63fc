/*
Package ai provides optional Gemini analysis of a filing document, giving the
notification a short plain-language summary of the insider purchase.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// Analysis is the structured summary returned by the model.
type Analysis struct {
	Summary      []string `json:"summary"`
	Significance string   `json:"significance"`
}

var systemInstruction = `
You are a financial analyst monitoring Korean KIND regulatory filings for insider open-market share purchases (장내매수).

Analyze the provided filing document text and report:
1. A 2-4 bullet summary of who bought what: reporter, role, share count, amount, dates, and ownership change.
2. A one-sentence assessment of the purchase's significance (size relative to existing stake, role seniority, clustering with other insider activity if mentioned).

Base every claim on the document text. If a figure is absent, say so rather than estimating.
`

// GenerateSummary analyzes a filing document with Gemini. The API key is
// required; callers skip this entirely when no key is configured.
func GenerateSummary(ctx context.Context, text string, apiKey string, modelName string) (*Analysis, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	prompt := fmt.Sprintf("Analyze the following filing document text:\n\n---\n%s", text)

	contents := []*genai.Content{
		{Role: "system", Parts: []*genai.Part{{Text: systemInstruction}}},
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   getResponseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()

	var analysis Analysis
	if err := json.Unmarshal([]byte(respText), &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}

	return &analysis, nil
}

func getResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "2-4 concise bullet points describing the purchase.",
			},
			"significance": {
				Type:        genai.TypeString,
				Description: "One-sentence assessment of the purchase's significance.",
			},
		},
		Required: []string{"summary", "significance"},
	}
}
