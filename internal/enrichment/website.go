// Package enrichment inspects prospect websites to sharpen account fit.
package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// SiteReport is what a single homepage fetch revealed
type SiteReport struct {
	URL         string   `json:"url"`
	Live        bool     `json:"live"`
	StatusCode  int      `json:"status_code"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// WebsiteInspector fetches homepages politely: one shared rate limit and
// a bounded timeout per request
type WebsiteInspector struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	keywords   []string
}

// NewWebsiteInspector creates an inspector allowing rps requests per second.
// keywords are freight terms looked for in page text.
func NewWebsiteInspector(rps float64, keywords []string, client *http.Client) *WebsiteInspector {
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		}
	}
	if rps <= 0 {
		rps = 2
	}
	return &WebsiteInspector{
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:  "Mozilla/5.0 (compatible; FreightOps-Inspector/1.0)",
		keywords:   keywords,
	}
}

// Inspect fetches the homepage at raw. A site that answers non-2xx is
// reported as not live rather than as an error; transport failures are
// errors.
func (w *WebsiteInspector) Inspect(ctx context.Context, raw string) (*SiteReport, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return nil, fmt.Errorf("empty website")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	report := &SiteReport{URL: target, StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return report, nil
	}
	report.Live = true

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return report, nil
	}
	w.extract(doc, report)
	return report, nil
}

func (w *WebsiteInspector) extract(doc *goquery.Document, report *SiteReport) {
	report.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		report.Description = strings.TrimSpace(desc)
	}

	seen := make(map[string]bool)
	doc.Find(`a[href^="mailto:"], a[href^="tel:"]`).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.SplitN(strings.TrimPrefix(href, "mailto:"), "?", 2)[0]
			if addr != "" && !seen[addr] {
				seen[addr] = true
				report.Emails = append(report.Emails, addr)
			}
		case strings.HasPrefix(href, "tel:"):
			phone := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
			if phone != "" && !seen[phone] {
				seen[phone] = true
				report.Phones = append(report.Phones, phone)
			}
		}
	})

	text := strings.ToLower(doc.Find("body").Text() + " " + report.Description)
	for _, kw := range w.keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			report.Keywords = append(report.Keywords, kw)
		}
	}
}
