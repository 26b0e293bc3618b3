package pubmed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yhchiang/medrag/internal/core/domain"
)

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID          string         `xml:"MedlineCitation>PMID"`
	Title         string         `xml:"MedlineCitation>Article>ArticleTitle"`
	AbstractTexts []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	OtherAbstract []abstractText `xml:"MedlineCitation>OtherAbstract>AbstractText"`
	Authors       []author       `xml:"MedlineCitation>Article>AuthorList>Author"`
	Journal       string         `xml:"MedlineCitation>Article>Journal>Title"`
	PubDate       pubDate        `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
	Volume        string         `xml:"MedlineCitation>Article>Journal>JournalIssue>Volume"`
	Issue         string         `xml:"MedlineCitation>Article>Journal>JournalIssue>Issue"`
	Pages         string         `xml:"MedlineCitation>Article>Pagination>MedlinePgn"`
	MeshTerms     []string       `xml:"MedlineCitation>MeshHeadingList>MeshHeading>DescriptorName"`
	PubTypes      []string       `xml:"MedlineCitation>Article>PublicationTypeList>PublicationType"`
	ELocationIDs  []eLocationID  `xml:"MedlineCitation>Article>ELocationID"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type author struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
	Initials string `xml:"Initials"`
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type eLocationID struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

// parseArticleSet decodes an EFetch payload. Charset conversion follows the
// XML declaration; PubMed still serves some records outside UTF-8.
func parseArticleSet(r io.Reader) ([]domain.Article, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var set articleSet
	if err := decoder.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode article set: %w", err)
	}

	articles := make([]domain.Article, 0, len(set.Articles))
	for _, raw := range set.Articles {
		articles = append(articles, raw.toDomain())
	}
	return articles, nil
}

func (p pubmedArticle) toDomain() domain.Article {
	return domain.Article{
		PMID:      strings.TrimSpace(p.PMID),
		Title:     strings.TrimSpace(p.Title),
		Abstract:  joinAbstract(p.AbstractTexts, p.OtherAbstract),
		Authors:   authorNames(p.Authors),
		Journal:   titleCase(strings.TrimSpace(p.Journal)),
		PubDate:   formatPubDate(p.PubDate),
		MeshTerms: trimAll(p.MeshTerms),
		PubTypes:  trimAll(p.PubTypes),
		DOI:       p.doi(),
		Volume:    strings.TrimSpace(p.Volume),
		Issue:     strings.TrimSpace(p.Issue),
		Pages:     strings.TrimSpace(p.Pages),
	}
}

// joinAbstract merges abstract sections into one string, prefixing labeled
// sections with "[Label] ". OtherAbstract only applies when the article has
// no regular abstract at all.
func joinAbstract(primary, fallback []abstractText) string {
	parts := abstractParts(primary)
	if len(parts) == 0 {
		parts = abstractParts(fallback)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func abstractParts(texts []abstractText) []string {
	var parts []string
	for _, ab := range texts {
		text := strings.TrimSpace(ab.Text)
		if text == "" {
			continue
		}
		if label := strings.TrimSpace(ab.Label); label != "" {
			parts = append(parts, "["+label+"] "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return parts
}

func authorNames(authors []author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if name := a.displayName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (a author) displayName() string {
	last := strings.TrimSpace(a.LastName)
	first := strings.TrimSpace(a.ForeName)
	initials := strings.TrimSpace(a.Initials)
	switch {
	case last != "" && first != "":
		return first + " " + last
	case last != "" && initials != "":
		return initials + " " + last
	case last != "":
		return last
	case first != "":
		return first
	default:
		return ""
	}
}

func formatPubDate(d pubDate) string {
	year := strings.TrimSpace(d.Year)
	month := strings.TrimSpace(d.Month)
	day := strings.TrimSpace(d.Day)
	if year == "" || month == "" {
		return year
	}
	if day != "" {
		return year + "-" + month + "-" + day
	}
	return year + "-" + month
}

func (p pubmedArticle) doi() string {
	for _, loc := range p.ELocationIDs {
		if strings.EqualFold(strings.TrimSpace(loc.Type), "doi") {
			return strings.TrimSpace(loc.Value)
		}
	}
	return ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// titleCase normalizes journal names, which PubMed serves in mixed casing.
// Casers are stateful, so one is built per call.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}
