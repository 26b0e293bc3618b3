package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// plainEnglishPattern matches queries made entirely of ASCII letters, digits,
// whitespace, and common punctuation. Anything it matches needs no
// translation and never touches the language model.
var plainEnglishPattern = regexp.MustCompile("^[a-zA-Z0-9\\s.,;:!?\\-()\\[\\]{}'\"/\\\\@#$%^&*+=<>~`|]+$")

// IsPlainEnglish reports whether query can take the no-translation fast path.
func IsPlainEnglish(query string) bool {
	return plainEnglishPattern.MatchString(query)
}

// Normalize resolves query to English. Plain-ASCII input short-circuits with
// zero external calls; everything else goes through the language analyzer
// once. The stage fails open: any analyzer error or empty result degrades to
// the identity translation tagged English, so a language-model outage never
// takes retrieval down with it.
func (uc *QueryUseCase) Normalize(ctx context.Context, query string) domain.Translation {
	if IsPlainEnglish(query) {
		return domain.Translation{Text: query, SourceLanguage: domain.LanguageEnglish}
	}

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.TranslateTimeout)
	defer cancel()

	translation, err := uc.language.AnalyzeAndTranslate(ctx, query)
	if err != nil {
		slog.Warn("translate_failed", "error", err)
		return domain.Translation{Text: query, SourceLanguage: domain.LanguageEnglish}
	}
	if strings.TrimSpace(translation.Text) == "" {
		translation.Text = query
	}
	if translation.SourceLanguage == "" {
		translation.SourceLanguage = domain.LanguageEnglish
	}
	return translation
}

// Translate backs the standalone translation endpoint. The second return
// value reports whether the fast path applied.
func (uc *QueryUseCase) Translate(ctx context.Context, query string) (domain.Translation, bool) {
	if IsPlainEnglish(query) {
		return domain.Translation{Text: query, SourceLanguage: domain.LanguageEnglish}, true
	}
	return uc.Normalize(ctx, query), false
}
