package openai

import (
	"context"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Generator synthesizes the grounded answer on the RAG model. It only runs
// after the quality gate passes; the degraded outcomes never reach it.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	return g.client.complete(ctx, "generate", chatRequest{
		Model: g.client.ragModel,
		Messages: []chatMessage{
			{Role: "system", Content: generationSystemPrompt},
			{Role: "user", Content: buildAnswerPrompt(req)},
		},
		MaxTokens:   1500,
		Temperature: 0.2,
	})
}
