package domain

import "strings"

// SourceLanguage is the detected language of the user's question. The three
// named constants get dedicated handling (fast path, response-language
// instructions); anything else is carried through as the analyzer named it,
// e.g. "Japanese".
type SourceLanguage string

const (
	LanguageEnglish            SourceLanguage = "English"
	LanguageSimplifiedChinese  SourceLanguage = "Simplified Chinese"
	LanguageTraditionalChinese SourceLanguage = "Traditional Chinese"
)

// Translation is the output of the language analysis capability.
type Translation struct {
	Text           string
	SourceLanguage SourceLanguage
}

// RegionFocus selects the regional framing of a generated answer.
type RegionFocus string

const (
	RegionNone   RegionFocus = "none"
	RegionTaiwan RegionFocus = "taiwan"
	RegionChina  RegionFocus = "china"
	RegionKorea  RegionFocus = "korea"
)

var regionKeywords = []struct {
	region   RegionFocus
	keywords []string
}{
	{RegionTaiwan, []string{"taiwan", "taiwanese"}},
	{RegionChina, []string{"china", "chinese"}},
	{RegionKorea, []string{"korea", "korean"}},
}

// DetectRegionFocus keyword-matches the normalized question against the
// region tables. First table in order wins, so "taiwanese chinese medicine"
// resolves to Taiwan.
func DetectRegionFocus(question string) RegionFocus {
	lower := strings.ToLower(question)
	for _, entry := range regionKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.region
			}
		}
	}
	return RegionNone
}
