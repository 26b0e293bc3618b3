package openai

import (
	"fmt"

	"github.com/yhchiang/medrag/internal/core/domain"
)

const translationSystemPrompt = "You are an assistant that analyzes and translates text, returning the result in a specific JSON format."

func buildTranslationPrompt(text string) string {
	return fmt.Sprintf(`You are a language analysis and translation expert. Your task is to analyze the following text.
1. Identify the source language. Distinguish between "English", "Simplified Chinese", and "Traditional Chinese". For other languages, identify them by name (e.g., "Japanese").
2. Translate the text to English.

Return a single JSON object with two keys: "source_language" and "translated_text".

User Text: "%s"
`, text)
}

const expansionSystemPrompt = "You are a helpful assistant that provides expanded search terms in a JSON array format."

func buildExpansionPrompt(query string) string {
	return fmt.Sprintf(`You are a biomedical research query analyst. Your task is to expand a user's query into a set of 3 to 5 semantically related, specific search terms that are likely to appear in PubMed abstracts. Focus on academic and technical vocabulary.

Return the result as a JSON array of strings. Only return the JSON array, nothing else.

User Query: "%s"
`, query)
}

const generationSystemPrompt = "You are a medical research assistant. You help with PubMed literature research by answering questions based *only* on the provided literature. You must adhere to the user's instructions, especially regarding region-specific focus and citation format."

func regionInstruction(region domain.RegionFocus) string {
	switch region {
	case domain.RegionTaiwan:
		return "Focus specifically on Taiwan and the Taiwanese healthcare system. Prioritize Taiwan-specific information. If the provided literature is about other regions (e.g., China), first state that the documents are not about Taiwan, and then you may draw cautious parallels if relevant, but clearly label it as a comparison. Explicitly state if no direct information on Taiwan is found."
	case domain.RegionChina:
		return "Focus specifically on China and the Chinese healthcare system. Prioritize China-specific information."
	case domain.RegionKorea:
		return "Focus specifically on Korea and the Korean healthcare system. Prioritize Korea-specific information."
	default:
		return "Provide a balanced analysis based on the available literature."
	}
}

func languageInstruction(lang domain.SourceLanguage) string {
	switch lang {
	case domain.LanguageTraditionalChinese:
		return "The user asked in Traditional Chinese. Your entire response MUST be in Traditional Chinese (繁體中文)."
	case domain.LanguageSimplifiedChinese:
		return "The user asked in Simplified Chinese. Your entire response MUST be in Simplified Chinese (简体中文)."
	default:
		return fmt.Sprintf("Answer in the same language as the original user question (%s).", lang)
	}
}

func buildAnswerPrompt(req domain.GenerationRequest) string {
	return fmt.Sprintf(`You are a medical research assistant specialized in helping with PubMed medical literature research.

YOUR ROLE AND CAPABILITIES:
- You can answer questions about medical research, healthcare systems, diseases, treatments, and health policy based on PubMed literature.
- You CANNOT provide personal medical advice, diagnosis, or treatment recommendations.

Question: %s

Relevant Medical Literature (Based on %d articles):
%s

Instructions:
1.  Answer based *only* on the provided "Relevant Medical Literature". Do not use outside knowledge.
2.  %s
3.  Provide a comprehensive answer that includes key findings, methodologies, and conclusions from the literature.
4.  When citing studies, use proper APA format: (First Author et al., Year; PMID: XXXX).
5.  Extract the year from the 'pub_date' field for citations.
6.  If the literature does not contain enough information to answer the question, clearly state this limitation.
7.  %s
8.  Answer in the same language as the original user question (`+"`%s`"+`).
9.  Structure your answer logically with clear sections if appropriate.

Answer:`,
		req.OriginalQuestion,
		req.ArticlesInContext,
		req.Context,
		regionInstruction(req.Region),
		languageInstruction(req.SourceLanguage),
		req.OriginalQuestion,
	)
}
