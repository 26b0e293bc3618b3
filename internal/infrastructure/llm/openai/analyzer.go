package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Analyzer identifies the language of a question and translates it to
// English on the chat model. Callers treat any error as "keep the original
// text", so the adapter reports failures and never guesses.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) AnalyzeAndTranslate(ctx context.Context, text string) (domain.Translation, error) {
	content, err := a.client.complete(ctx, "translate", chatRequest{
		Model: a.client.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: translationSystemPrompt},
			{Role: "user", Content: buildTranslationPrompt(text)},
		},
		MaxTokens:      200,
		Temperature:    0.1,
		ResponseFormat: jsonObjectFormat,
	})
	if err != nil {
		return domain.Translation{}, err
	}

	var result struct {
		SourceLanguage string `json:"source_language"`
		TranslatedText string `json:"translated_text"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &result); err != nil {
		return domain.Translation{}, fmt.Errorf("parse translation json: %w", err)
	}

	// Missing keys fall back to the input unchanged, treated as English.
	if result.TranslatedText == "" {
		result.TranslatedText = text
	}
	if result.SourceLanguage == "" {
		result.SourceLanguage = string(domain.LanguageEnglish)
	}
	return domain.Translation{
		Text:           result.TranslatedText,
		SourceLanguage: domain.SourceLanguage(result.SourceLanguage),
	}, nil
}
