// internal/paronym/scraper.go
package paronym

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Letters are the index pages of the paronym dictionary.
const Letters = "АБВГДЕЖЗИКЛМНОПРСТУФХЦЧШЭЮЯ"

const (
	headingPrefix    = "Паронимы: "
	groupSeparator   = " — "
	linksSelector    = ".paronyms-list.list-columns a"
	defaultUserAgent = "errsynth-paronym-scraper/1.0"
)

// Scraper collects paronym groups from the dictionary site.
type Scraper struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	letters    []rune
}

// NewScraper creates a Scraper. requestsPerSecond <= 0 disables throttling.
func NewScraper(baseURL string, requestsPerSecond float64, logger *zap.Logger) *Scraper {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Scraper{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		logger:     logger.Named("paronym.scraper"),
		letters:    []rune(Letters),
	}
}

// Scrape visits every letter page and every group page linked from it.
// Pages that fail or do not hold a valid group are logged and skipped; only
// context cancellation aborts the run.
func (s *Scraper) Scrape(ctx context.Context) ([][]string, error) {
	var groups [][]string
	for _, letter := range s.letters {
		doc, err := s.fetch(ctx, s.baseURL+"/"+string(letter))
		if err != nil {
			if ctx.Err() != nil {
				return groups, ctx.Err()
			}
			s.logger.Warn("Failed to fetch letter page", zap.String("letter", string(letter)), zap.Error(err))
			continue
		}

		links := ExtractLinks(doc, s.baseURL)
		if len(links) == 0 {
			s.logger.Warn("No paronym links on letter page", zap.String("letter", string(letter)))
		}
		for _, link := range links {
			page, err := s.fetch(ctx, link)
			if err != nil {
				if ctx.Err() != nil {
					return groups, ctx.Err()
				}
				s.logger.Warn("Failed to fetch paronym page", zap.String("url", link), zap.Error(err))
				continue
			}
			group, ok := ExtractGroup(page)
			if !ok || !allLowerCase(group) {
				s.logger.Debug("Skipping paronym page", zap.String("url", link))
				continue
			}
			groups = append(groups, group)
		}
		s.logger.Info("Letter scraped", zap.String("letter", string(letter)), zap.Int("groups_total", len(groups)))
	}
	return groups, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// -- Extraction --

// ExtractLinks returns the absolute URLs of group pages listed on a letter page.
func ExtractLinks(doc *goquery.Document, baseURL string) []string {
	var links []string
	doc.Find(linksSelector).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			links = append(links, strings.TrimRight(baseURL, "/")+href)
		}
	})
	return links
}

// ExtractGroup parses the group from the first h1, formatted as
// "Паронимы: a — b — c". Fewer than two members is not a group.
func ExtractGroup(doc *goquery.Document) ([]string, bool) {
	heading := strings.TrimSpace(doc.Find("h1").First().Text())
	rest, ok := strings.CutPrefix(heading, headingPrefix)
	if !ok {
		return nil, false
	}
	parts := strings.Split(rest, groupSeparator)
	if len(parts) < 2 {
		return nil, false
	}
	group := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			group = append(group, p)
		}
	}
	return group, true
}

func allLowerCase(words []string) bool {
	for _, w := range words {
		if strings.ToLower(w) != w {
			return false
		}
	}
	return true
}
