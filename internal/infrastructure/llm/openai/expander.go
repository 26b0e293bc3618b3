package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Expander derives related biomedical search phrases from a normalized
// query. Errors fall open upstream, so a failed expansion only costs the
// extra recall, never the request.
type Expander struct {
	client *Client
}

func NewExpander(client *Client) *Expander {
	return &Expander{client: client}
}

func (e *Expander) Expand(ctx context.Context, query string) ([]string, error) {
	content, err := e.client.complete(ctx, "expand", chatRequest{
		Model: e.client.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: expansionSystemPrompt},
			{Role: "user", Content: buildExpansionPrompt(query)},
		},
		MaxTokens:      200,
		Temperature:    0.2,
		ResponseFormat: jsonObjectFormat,
	})
	if err != nil {
		return nil, err
	}

	terms, err := parseExpansionTerms(content)
	if err != nil {
		return nil, err
	}
	return terms, nil
}

// parseExpansionTerms accepts a bare JSON array or an object wrapping one
// under an arbitrary key. JSON-object response mode makes models wrap the
// array even when the prompt asks for the array alone.
func parseExpansionTerms(content string) ([]string, error) {
	trimmed := strings.TrimSpace(content)

	var direct []string
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		return cleanTerms(direct), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSONObject(trimmed)), &wrapped); err != nil {
		return nil, fmt.Errorf("parse expansion json: %w", err)
	}
	for _, raw := range wrapped {
		var terms []string
		if err := json.Unmarshal(raw, &terms); err == nil {
			return cleanTerms(terms), nil
		}
	}
	return nil, fmt.Errorf("no term array in expansion response")
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
