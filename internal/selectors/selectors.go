// Package selectors implements the CMS selector detector (C2): given a
// parsed page and its URL, pick the best-matching CmsPattern and
// validate/compile the CSS selectors it carries.
package selectors

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/PuerkitoBio/goquery"

	"github.com/uring/crawler/internal/model"
)

// GenericFallback is the selector set callers may substitute when no
// CmsPattern matches, per spec.md §4.2.
var GenericFallback = model.CmsSelectors{
	Row:      "table tr:has(a)",
	Title:    "a",
	Date:     "td:last-child",
	LinkAttr: "href",
}

// Detect iterates patterns in order and returns the first whose URL or
// HTML detector is satisfied. ok is false if nothing matched.
func Detect(patterns []model.CmsPattern, absoluteURL, html string) (model.CmsSelectors, bool) {
	for _, p := range patterns {
		if matches(p, absoluteURL, html) {
			return p.CmsSelectors, true
		}
	}
	return model.CmsSelectors{}, false
}

func matches(p model.CmsPattern, absoluteURL, html string) bool {
	if p.DetectURLContains != "" && strings.Contains(absoluteURL, p.DetectURLContains) {
		return true
	}
	if p.DetectHTMLContains != "" && strings.Contains(html, p.DetectHTMLContains) {
		return true
	}
	return false
}

// Compiled holds pre-parsed cascadia selectors for one board, built
// once by BuildCache and read-only thereafter (spec.md §5).
type Compiled struct {
	Row    cascadia.Selector
	Title  cascadia.Selector
	Date   cascadia.Selector
	Link   cascadia.Selector // nil if no link selector configured
	Author cascadia.Selector // nil if no author selector configured
	Body   cascadia.Selector // nil if no body selector configured

	LinkAttr string
}

// Validate parses every required selector in s, returning an error
// naming the first invalid one. Required selectors are row, title and
// date; link/author/body are validated only if present.
func Validate(s model.CmsSelectors) error {
	if _, err := cascadia.Parse(s.Row); err != nil {
		return fmt.Errorf("selectors: invalid row selector %q: %w", s.Row, err)
	}
	if _, err := cascadia.Parse(s.Title); err != nil {
		return fmt.Errorf("selectors: invalid title selector %q: %w", s.Title, err)
	}
	if _, err := cascadia.Parse(s.Date); err != nil {
		return fmt.Errorf("selectors: invalid date selector %q: %w", s.Date, err)
	}
	if s.Link != "" {
		if _, err := cascadia.Parse(s.Link); err != nil {
			return fmt.Errorf("selectors: invalid link selector %q: %w", s.Link, err)
		}
	}
	if s.Author != "" {
		if _, err := cascadia.Parse(s.Author); err != nil {
			return fmt.Errorf("selectors: invalid author selector %q: %w", s.Author, err)
		}
	}
	if s.Body != "" {
		if _, err := cascadia.Parse(s.Body); err != nil {
			return fmt.Errorf("selectors: invalid body selector %q: %w", s.Body, err)
		}
	}
	return nil
}

// Compile validates and pre-parses s into a Compiled set, per spec.md
// §4.5's "pre-compile every board's selectors once into a shared cache".
func Compile(s model.CmsSelectors) (*Compiled, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	row, _ := cascadia.Parse(s.Row)
	title, _ := cascadia.Parse(s.Title)
	date, _ := cascadia.Parse(s.Date)

	compiled := &Compiled{
		Row:      row,
		Title:    title,
		Date:     date,
		LinkAttr: s.ResolvedLinkAttr(),
	}

	if s.Link != "" {
		compiled.Link, _ = cascadia.Parse(s.Link)
	}
	if s.Author != "" {
		compiled.Author, _ = cascadia.Parse(s.Author)
	}
	if s.Body != "" {
		compiled.Body, _ = cascadia.Parse(s.Body)
	}

	return compiled, nil
}

// Cache holds the pre-compiled selectors for every board in a crawl,
// keyed by board id. It is populated once before Stage A and is
// read-only afterward, matching spec.md §5's concurrency model.
type Cache struct {
	byBoardID map[string]*Compiled
}

// BuildCache compiles selectors for every board, skipping (and
// reporting) boards with an invalid selector set.
func BuildCache(boards []model.Board) (*Cache, []model.CrawlError) {
	cache := &Cache{byBoardID: make(map[string]*Compiled, len(boards))}
	var errs []model.CrawlError

	for _, b := range boards {
		compiled, err := Compile(b.Selectors)
		if err != nil {
			errs = append(errs, model.CrawlError{
				Stage:     model.StageSelector,
				BoardID:   b.ID,
				BoardName: b.DisplayName,
				URL:       b.URL,
				Message:   err.Error(),
				Retryable: false,
			})
			continue
		}
		cache.byBoardID[b.ID] = compiled
	}

	return cache, errs
}

// Get returns the compiled selectors for a board id, or nil if the
// board was excluded during BuildCache.
func (c *Cache) Get(boardID string) (*Compiled, bool) {
	compiled, ok := c.byBoardID[boardID]
	return compiled, ok
}

// DetectFromDocument runs Detect using doc re-serialized to HTML as the
// "html" substring haystack, for callers that already have a parsed
// document rather than a raw HTML string.
func DetectFromDocument(patterns []model.CmsPattern, absoluteURL string, doc *goquery.Document) (model.CmsSelectors, bool) {
	html, err := doc.Html()
	if err != nil {
		html = ""
	}
	return Detect(patterns, absoluteURL, html)
}
