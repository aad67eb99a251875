package ofsted

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/hmiddleton/schoolpitch/internal/errors"
)

// Report servers reject requests without a browser user agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxReportBytes caps the download size; inspection reports are well under
// 10 MB.
const maxReportBytes = 32 << 20

// Extractor downloads an inspection report and yields its plain text.
type Extractor struct {
	logger *slog.Logger
	client *http.Client
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract fetches the document at reportURL and returns its text with
// whitespace collapsed. When the URL points at an HTML page rather than the
// document itself, the page is scanned for a report link to follow.
func (e *Extractor) Extract(ctx context.Context, reportURL string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(reportURL), ".pdf") {
		if resolved, err := e.findDocumentLink(ctx, reportURL); err == nil && resolved != "" {
			reportURL = resolved
		}
	}

	data, err := e.fetch(ctx, reportURL)
	if err != nil {
		return "", errors.Wrap(err, "download report", slog.String("url", reportURL))
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "parse report", slog.String("url", reportURL))
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("skipping unreadable report page",
				slog.String("url", reportURL),
				slog.Int("page", i),
				errors.SlogError(err))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := whitespace.ReplaceAllString(b.String(), " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("report contains no extractable text", slog.String("url", reportURL))
	}
	e.logger.Info("report text extracted",
		slog.String("url", reportURL),
		slog.Int("pages", reader.NumPage()),
		slog.Int("chars", len(text)))
	return text, nil
}

// findDocumentLink scans an HTML page for an inspection report link.
func (e *Extractor) findDocumentLink(ctx context.Context, pageURL string) (string, error) {
	data, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "parse page", slog.String("url", pageURL))
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".pdf") &&
			!(strings.Contains(lower, "files.ofsted.gov.uk") && strings.Contains(lower, ".pdf")) {
			return true
		}
		found = absoluteURL(pageURL, href)
		return false
	})
	return found, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status", slog.Int("status", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

// absoluteURL resolves href against base, returning href untouched when it
// is already absolute or the base is unparsable.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
