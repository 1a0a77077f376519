// Package boards implements board discovery (C4): given a department
// homepage, find its notice boards by filtering in-domain links
// against the keyword dictionary, optionally augmented with the
// department's sitemap page.
package boards

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/uring/crawler/internal/config"
	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/normalize"
	"github.com/uring/crawler/internal/platform/fanout"
	"github.com/uring/crawler/internal/selectors"
)

var sitemapLinkRe = regexp.MustCompile(`(?i)사이트맵|sitemap`)

// Fetcher is the subset of *fetch.Client board discovery needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Result is the outcome of discovering boards for one department.
type Result struct {
	Boards       []model.Board
	ManualReview *model.ManualReviewItem
}

// DiscoverAll runs Discover across every department of every college
// (plus campus-level departments) in site, bounded at concurrency
// (default 14 per spec.md §4.4). It stores each department's boards in
// site in place and returns the manual-review items collected along the
// way.
func DiscoverAll(ctx context.Context, f Fetcher, site *model.SiteMap, seed config.Seed, disc config.DiscoveryConfig, concurrency int) []model.ManualReviewItem {
	if concurrency <= 0 {
		concurrency = 14
	}

	type work struct {
		campus string
		dept   *model.Department
	}

	var items []work
	for ci := range site.Campuses {
		campus := &site.Campuses[ci]
		for gi := range campus.Colleges {
			college := &campus.Colleges[gi]
			for di := range college.Departments {
				items = append(items, work{campus: campus.Name, dept: &college.Departments[di]})
			}
		}
		for di := range campus.Departments {
			items = append(items, work{campus: campus.Name, dept: &campus.Departments[di]})
		}
	}

	results := fanout.Map(items, concurrency, func(w work) Result {
		return Discover(ctx, f, w.campus, w.dept, seed, disc)
	})

	var reviews []model.ManualReviewItem
	for i, r := range results {
		items[i].dept.Boards = r.Boards
		if r.ManualReview != nil {
			reviews = append(reviews, *r.ManualReview)
		}
	}
	return reviews
}

// Discover implements spec.md §4.4's per-department board discovery.
func Discover(ctx context.Context, f Fetcher, campusName string, dept *model.Department, seed config.Seed, disc config.DiscoveryConfig) Result {
	if dept.HomepageURL == model.NotFoundURL || dept.HomepageURL == "" {
		return Result{ManualReview: &model.ManualReviewItem{
			Campus: campusName,
			Name:   dept.Name,
			URL:    dept.HomepageURL,
			Reason: "department homepage not found",
		}}
	}

	body, err := f.Fetch(ctx, dept.HomepageURL)
	if err != nil {
		return Result{ManualReview: &model.ManualReviewItem{
			Campus: campusName,
			Name:   dept.Name,
			URL:    dept.HomepageURL,
			Reason: fmt.Sprintf("fetch homepage: %v", err),
		}}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return Result{ManualReview: &model.ManualReviewItem{
			Campus: campusName,
			Name:   dept.Name,
			URL:    dept.HomepageURL,
			Reason: fmt.Sprintf("parse homepage: %v", err),
		}}
	}

	defaultSelectors, _ := selectors.DetectFromDocument(seed.CmsPatterns, dept.HomepageURL, doc)

	homeLinks := extractLinks(doc)

	var sitemapLinks []candidateLink
	if sitemapURL, ok := findSitemapLink(doc, dept.HomepageURL); ok {
		if sitemapBody, err := f.Fetch(ctx, sitemapURL); err == nil {
			if sitemapDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(sitemapBody))); err == nil {
				sitemapLinks = extractLinks(sitemapDoc)
			}
		}
	}

	candidates := mergeLinks(dept.HomepageURL, homeLinks, sitemapLinks)

	host, err := url.Parse(dept.HomepageURL)
	if err != nil {
		return Result{ManualReview: &model.ManualReviewItem{
			Campus: campusName,
			Name:   dept.Name,
			URL:    dept.HomepageURL,
			Reason: fmt.Sprintf("parse homepage url: %v", err),
		}}
	}

	boards := buildBoards(ctx, f, candidates, dept.HomepageURL, host.Host, seed.Keywords, disc, defaultSelectors, seed.CmsPatterns)

	if len(boards) == 0 {
		return Result{ManualReview: &model.ManualReviewItem{
			Campus: campusName,
			Name:   dept.Name,
			URL:    dept.HomepageURL,
			Reason: "No boards discovered from homepage or sitemap",
		}}
	}

	return Result{Boards: boards}
}

type candidateLink struct {
	text string
	href string
}

func extractLinks(doc *goquery.Document) []candidateLink {
	var links []candidateLink
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		links = append(links, candidateLink{text: strings.TrimSpace(a.Text()), href: href})
	})
	return links
}

func findSitemapLink(doc *goquery.Document, baseURL string) (string, bool) {
	var found string
	var ok bool
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !sitemapLinkRe.MatchString(a.Text()) {
			return true
		}
		href, hasHref := a.Attr("href")
		if !hasHref {
			return true
		}
		resolved, err := normalize.ResolveLink(baseURL, href)
		if err != nil {
			return true
		}
		found, ok = resolved, true
		return false
	})
	return found, ok
}

// mergeLinks dedupes by absolute URL, with homepage-sourced links
// (home) winning ties over sitemap-sourced links (extra), per spec.md
// §4.4 step 4. Every href is resolved against baseURL, the same base
// buildBoards resolves against; an href that does not resolve is keyed
// on its raw text.
func mergeLinks(baseURL string, home, extra []candidateLink) []candidateLink {
	seen := make(map[string]bool, len(home)+len(extra))
	merged := make([]candidateLink, 0, len(home)+len(extra))

	add := func(l candidateLink) {
		key := l.href
		if abs, err := normalize.ResolveLink(baseURL, l.href); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, l)
	}
	for _, l := range home {
		add(l)
	}
	for _, l := range extra {
		add(l)
	}
	return merged
}

func buildBoards(ctx context.Context, f Fetcher, candidates []candidateLink, homepageURL, homeHost string, keywords []model.KeywordMapping, disc config.DiscoveryConfig, defaultSelectors model.CmsSelectors, patterns []model.CmsPattern) []model.Board {
	var boards []model.Board
	idCount := make(map[string]int)

	for _, c := range candidates {
		if rejected(c, homeHost, disc) {
			continue
		}

		mapping, ok := matchKeyword(c.text, keywords)
		if !ok {
			continue
		}

		absoluteURL, err := normalize.ResolveLink(homepageURL, c.href)
		if err != nil {
			continue
		}

		name := c.text
		if name == "" {
			name = mapping.DisplayName
		}

		boardSelectors := defaultSelectors
		if boardSelectors.Row == "" {
			if detected, ok := detectBoardSelectors(ctx, f, absoluteURL, patterns); ok {
				boardSelectors = detected
			} else {
				boardSelectors = selectors.GenericFallback
			}
		}

		id := mapping.ID
		idCount[mapping.ID]++
		if n := idCount[mapping.ID]; n > 1 {
			id = fmt.Sprintf("%s_%d", mapping.ID, n)
		}

		boards = append(boards, model.Board{
			ID:          id,
			DisplayName: name,
			URL:         absoluteURL,
			Selectors:   boardSelectors,
		})
	}

	return boards
}

func detectBoardSelectors(ctx context.Context, f Fetcher, boardURL string, patterns []model.CmsPattern) (model.CmsSelectors, bool) {
	body, err := f.Fetch(ctx, boardURL)
	if err != nil {
		return model.CmsSelectors{}, false
	}
	return selectors.Detect(patterns, boardURL, string(body))
}

func matchKeyword(text string, keywords []model.KeywordMapping) (model.KeywordMapping, bool) {
	for _, k := range keywords {
		if k.Keyword != "" && strings.Contains(text, k.Keyword) {
			return k, true
		}
	}
	return model.KeywordMapping{}, false
}

// rejected implements spec.md §4.4 step 5's rejection rules.
func rejected(c candidateLink, homeHost string, disc config.DiscoveryConfig) bool {
	href := strings.TrimSpace(c.href)
	if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return true
	}

	for _, token := range disc.BlacklistPatterns {
		if token != "" && strings.Contains(href, token) {
			return true
		}
	}

	if disc.MaxBoardNameLength > 0 && len([]rune(c.text)) > disc.MaxBoardNameLength {
		return true
	}

	if u, err := url.Parse(href); err == nil && u.Host != "" && !strings.EqualFold(u.Host, homeHost) {
		return true
	}

	return false
}
