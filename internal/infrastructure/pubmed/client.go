package pubmed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/infrastructure/resilience"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// E-utilities allow 10 requests per second with an API key, 3 without.
	keyedRateLimit     = 10
	anonymousRateLimit = 3
)

// Client speaks the ESearch and EFetch interfaces of the E-utilities API.
// All requests flow through one shared rate limiter, so a crawler paging
// searches and a worker fetching batches cannot jointly exceed the quota
// when they share a client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(baseURL, apiKey string, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := anonymousRateLimit
	if apiKey != "" {
		rps = keyedRateLimit
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		executor:   executor,
	}
}

// buildTermQuery scopes one search to a term and a single publication year.
// Year splitting keeps every result set under the API's 10,000-record cap.
func buildTermQuery(term string, year int) string {
	return fmt.Sprintf("(%s) AND hasabstract AND \"English\"[Language] AND %d[Date - Publication]", term, year)
}

// SearchIDs returns one page of PMIDs for the term and year, newest first,
// along with the total match count the source reports for the whole query.
func (c *Client) SearchIDs(ctx context.Context, term string, year, retStart, retMax int) (domain.IDPage, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", buildTermQuery(term, year))
	params.Set("retstart", strconv.Itoa(retStart))
	params.Set("retmax", strconv.Itoa(retMax))
	params.Set("retmode", "json")
	params.Set("sort", "date")

	var response struct {
		Result struct {
			Count  string   `json:"count"`
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	err := c.executor.Execute(ctx, "pubmed.esearch", func(ctx context.Context) error {
		response.Result.Count = ""
		response.Result.IDList = nil
		return c.getJSON(ctx, "/esearch.fcgi", params, &response, "esearch")
	}, classifyPubMedError)
	if err != nil {
		return domain.IDPage{}, wrapTemporaryIfNeeded("esearch", err)
	}

	total, err := strconv.Atoi(response.Result.Count)
	if err != nil {
		return domain.IDPage{}, fmt.Errorf("esearch: parse count %q: %w", response.Result.Count, err)
	}
	return domain.IDPage{IDs: response.Result.IDList, Total: total}, nil
}

// FetchArticles retrieves full records for the PMIDs. When a payload does
// not parse, the batch is halved recursively until the poisoned records are
// isolated; everything else still lands. Only a fully failed batch errors.
func (c *Client) FetchArticles(ctx context.Context, pmids []string) ([]domain.Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	raw, err := c.efetch(ctx, pmids)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("efetch", err)
	}

	articles, parseErr := parseArticleSet(bytes.NewReader(raw))
	if parseErr == nil {
		return articles, nil
	}
	if len(pmids) == 1 {
		return nil, fmt.Errorf("parse article %s: %w", pmids[0], parseErr)
	}

	slog.Warn("efetch_parse_failed",
		"pmids", len(pmids),
		"error", parseErr,
	)
	mid := len(pmids) / 2
	left, leftErr := c.FetchArticles(ctx, pmids[:mid])
	right, rightErr := c.FetchArticles(ctx, pmids[mid:])
	if leftErr != nil && rightErr != nil {
		return nil, fmt.Errorf("efetch halves: %w", errors.Join(leftErr, rightErr))
	}
	if leftErr != nil {
		slog.Warn("efetch_half_skipped", "pmids", mid, "error", leftErr)
	}
	if rightErr != nil {
		slog.Warn("efetch_half_skipped", "pmids", len(pmids)-mid, "error", rightErr)
	}
	return append(left, right...), nil
}

func (c *Client) efetch(ctx context.Context, pmids []string) ([]byte, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("rettype", "xml")
	params.Set("retmode", "xml")

	var raw []byte
	err := c.executor.Execute(ctx, "pubmed.efetch", func(ctx context.Context) error {
		data, err := c.getRaw(ctx, "/efetch.fcgi", params, "efetch")
		if err != nil {
			return err
		}
		raw = data
		return nil
	}, classifyPubMedError)
	return raw, err
}
