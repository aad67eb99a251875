package ofsted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hmiddleton/schoolpitch/internal/errors"
)

const (
	defaultSerperURL = "https://google.serper.dev/search"
	defaultSearchURL = "https://reports.ofsted.gov.uk/search"
)

// LocatorConfig holds the endpoints the Locator talks to. The zero value
// gets the production endpoints; tests point the URLs at local servers.
type LocatorConfig struct {
	SerperAPIKey string
	SerperURL    string
	SearchURL    string
	HTTPClient   *http.Client
}

// Locator finds the inspection report document for a school. Strategies run
// in a fixed order: a web-search API when a key is configured, then scraping
// the inspection body's own search page. The first document found wins;
// Locate fails only when every strategy fails.
type Locator struct {
	logger       *slog.Logger
	client       *http.Client
	serperAPIKey string
	serperURL    string
	searchURL    string
}

func NewLocator(logger *slog.Logger, cfg LocatorConfig) *Locator {
	if cfg.SerperURL == "" {
		cfg.SerperURL = defaultSerperURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Locator{
		logger:       logger,
		client:       cfg.HTTPClient,
		serperAPIKey: cfg.SerperAPIKey,
		serperURL:    cfg.SerperURL,
		searchURL:    cfg.SearchURL,
	}
}

// Locate returns the report document URL for the named school. The returned
// error aggregates every strategy's failure when no document is found.
func (l *Locator) Locate(ctx context.Context, schoolName string) (string, error) {
	var failures []error

	if l.serperAPIKey != "" {
		reportURL, err := l.locateViaSearchAPI(ctx, schoolName)
		if err == nil {
			return reportURL, nil
		}
		failures = append(failures, err)
	} else {
		failures = append(failures, errors.New("web search unconfigured, skipped"))
	}

	reportURL, err := l.locateViaSearchPage(ctx, schoolName)
	if err == nil {
		return reportURL, nil
	}
	failures = append(failures, err)

	return "", errors.Wrap(errors.Join(failures...), "locate inspection report",
		slog.String("school", schoolName))
}

// searchQueries builds the web-search queries in order of specificity.
func searchQueries(schoolName string) []string {
	return []string{
		fmt.Sprintf("%q site:files.ofsted.gov.uk filetype:pdf", schoolName),
		fmt.Sprintf("%s Ofsted report PDF", schoolName),
		fmt.Sprintf("%q Ofsted inspection report", schoolName),
	}
}

type serperResponse struct {
	Organic []struct {
		Link string `json:"link"`
	} `json:"organic"`
}

func (l *Locator) locateViaSearchAPI(ctx context.Context, schoolName string) (string, error) {
	var failures []error
	for _, query := range searchQueries(schoolName) {
		links, err := l.search(ctx, query)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		for _, link := range links {
			if isReportDocumentURL(link) {
				l.logger.Info("report found via web search", slog.String("url", link))
				return link, nil
			}
			if strings.Contains(link, "ofsted.gov.uk") {
				if reportURL, err := l.documentLinkOnPage(ctx, link); err == nil && reportURL != "" {
					l.logger.Info("report found via provider page", slog.String("url", reportURL))
					return reportURL, nil
				}
			}
		}
	}
	failures = append(failures, errors.New("no report link in search results"))
	return "", errors.Join(failures...)
}

func (l *Locator) search(ctx context.Context, query string) ([]string, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": 5})
	if err != nil {
		return nil, errors.Wrap(err, "marshal search request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.serperURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}
	req.Header.Set("X-API-KEY", l.serperAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search", slog.String("query", query))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("search API error",
			slog.String("query", query),
			slog.Int("status", resp.StatusCode))
	}
	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	links := make([]string, 0, len(parsed.Organic))
	for _, result := range parsed.Organic {
		links = append(links, result.Link)
	}
	return links, nil
}

// locateViaSearchPage scrapes the inspection body's search page, following
// the first provider link when no direct document link is present.
func (l *Locator) locateViaSearchPage(ctx context.Context, schoolName string) (string, error) {
	searchURL := l.searchURL + "?q=" + url.QueryEscape(schoolName)
	doc, err := l.fetchDocument(ctx, searchURL)
	if err != nil {
		return "", err
	}

	var reportURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "files.ofsted.gov.uk") && strings.Contains(strings.ToLower(href), ".pdf") {
			reportURL = href
			return false
		}
		if strings.Contains(href, "/provider/") {
			providerURL := absoluteURL(searchURL, href)
			if found, err := l.documentLinkOnPage(ctx, providerURL); err == nil && found != "" {
				reportURL = found
				return false
			}
		}
		return true
	})
	if reportURL == "" {
		return "", errors.New("no report link on search page", slog.String("school", schoolName))
	}
	return reportURL, nil
}

// documentLinkOnPage scans a provider page for a report document link.
func (l *Locator) documentLinkOnPage(ctx context.Context, pageURL string) (string, error) {
	doc, err := l.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	var reportURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if strings.Contains(lower, "files.ofsted.gov.uk") && strings.Contains(lower, ".pdf") {
			reportURL = href
			return false
		}
		if strings.HasSuffix(lower, ".pdf") && strings.Contains(lower, "ofsted") {
			reportURL = absoluteURL(pageURL, href)
			return false
		}
		return true
	})
	return reportURL, nil
}

func (l *Locator) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get", slog.String("url", pageURL))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status",
			slog.String("url", pageURL),
			slog.Int("status", resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse page", slog.String("url", pageURL))
	}
	return doc, nil
}

// isReportDocumentURL reports whether a search hit points straight at an
// inspection report document.
func isReportDocumentURL(link string) bool {
	lower := strings.ToLower(link)
	if !strings.Contains(lower, "ofsted") {
		return false
	}
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "file/")
}
