package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yhchiang/medrag/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
	})
}

func TestSearchIDsBuildsYearScopedQuery(t *testing.T) {
	var capturedQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/esearch.fcgi" {
			http.NotFound(w, r)
			return
		}
		capturedQuery = map[string]string{}
		for key := range r.URL.Query() {
			capturedQuery[key] = r.URL.Query().Get(key)
		}
		_, _ = w.Write([]byte(`{"esearchresult":{"count":"1042","idlist":["36789012","36789013"]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret-key", testExecutor())
	page, err := client.SearchIDs(context.Background(), `"Insurance, Health"[MeSH Terms]`, 2023, 500, 250)
	if err != nil {
		t.Fatalf("SearchIDs() error = %v", err)
	}
	if page.Total != 1042 {
		t.Fatalf("total = %d, want 1042", page.Total)
	}
	if len(page.IDs) != 2 || page.IDs[0] != "36789012" {
		t.Fatalf("ids = %v", page.IDs)
	}

	wantTerm := `("Insurance, Health"[MeSH Terms]) AND hasabstract AND "English"[Language] AND 2023[Date - Publication]`
	if capturedQuery["term"] != wantTerm {
		t.Fatalf("term = %q, want %q", capturedQuery["term"], wantTerm)
	}
	if capturedQuery["retstart"] != "500" || capturedQuery["retmax"] != "250" {
		t.Fatalf("paging params = %q/%q", capturedQuery["retstart"], capturedQuery["retmax"])
	}
	if capturedQuery["sort"] != "date" || capturedQuery["retmode"] != "json" || capturedQuery["db"] != "pubmed" {
		t.Fatalf("unexpected fixed params %v", capturedQuery)
	}
	if capturedQuery["api_key"] != "secret-key" {
		t.Fatalf("api_key = %q", capturedQuery["api_key"])
	}
}

func TestSearchIDsOmitsAPIKeyWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("api_key") {
			t.Fatal("api_key sent without configuration")
		}
		_, _ = w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "", testExecutor())
	page, err := client.SearchIDs(context.Background(), "term", 2020, 0, 10)
	if err != nil {
		t.Fatalf("SearchIDs() error = %v", err)
	}
	if page.Total != 0 || len(page.IDs) != 0 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSearchIDsSurvivesControlCharactersInPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"esearchresult\":{\"count\":\"7\",\x07\"idlist\":[\"1\"]}}"))
	}))
	defer server.Close()

	client := New(server.URL, "", testExecutor())
	page, err := client.SearchIDs(context.Background(), "term", 2020, 0, 10)
	if err != nil {
		t.Fatalf("SearchIDs() error = %v", err)
	}
	if page.Total != 7 || len(page.IDs) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSearchIDsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "server busy", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"esearchresult":{"count":"3","idlist":["1","2","3"]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "", testExecutor())
	page, err := client.SearchIDs(context.Background(), "term", 2021, 0, 100)
	if err != nil {
		t.Fatalf("SearchIDs() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if page.Total != 3 {
		t.Fatalf("total = %d", page.Total)
	}
}

func TestFetchArticlesReturnsParsedRecords(t *testing.T) {
	var capturedIDs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/efetch.fcgi" {
			http.NotFound(w, r)
			return
		}
		capturedIDs = r.URL.Query().Get("id")
		_, _ = w.Write([]byte(sampleArticleSetXML))
	}))
	defer server.Close()

	client := New(server.URL, "", testExecutor())
	articles, err := client.FetchArticles(context.Background(), []string{"36789012", "36789013"})
	if err != nil {
		t.Fatalf("FetchArticles() error = %v", err)
	}
	if capturedIDs != "36789012,36789013" {
		t.Fatalf("id param = %q", capturedIDs)
	}
	if len(articles) != 2 || articles[0].PMID != "36789012" {
		t.Fatalf("unexpected articles %v", articles)
	}
}

func TestFetchArticlesHalvesBatchAroundPoisonedRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("id")
		if strings.Contains(ids, "666") {
			_, _ = w.Write([]byte("<PubmedArticleSet><PubmedArticle>"))
			return
		}
		_, _ = w.Write([]byte(`<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>1001</PMID><Article><ArticleTitle>ok</ArticleTitle></Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`))
	}))
	defer server.Close()

	client := New(server.URL, "", testExecutor())
	articles, err := client.FetchArticles(context.Background(), []string{"1001", "666"})
	if err != nil {
		t.Fatalf("FetchArticles() error = %v", err)
	}
	if len(articles) != 1 || articles[0].PMID != "1001" {
		t.Fatalf("expected only the healthy half, got %v", articles)
	}
}

func TestFetchArticlesEmptyInput(t *testing.T) {
	client := New("http://unused.invalid", "", testExecutor())
	articles, err := client.FetchArticles(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchArticles() error = %v", err)
	}
	if articles != nil {
		t.Fatalf("expected nil for empty input, got %v", articles)
	}
}
