// Package departments implements the department crawler (C3): walking
// a campus root page's h1 headers in document order to build the
// campus -> college -> department tree.
package departments

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/normalize"
)

// collegeRe matches a Korean word ending in "대학" (college), per
// spec.md §4.3.
var collegeRe = regexp.MustCompile(`[가-힣]+대학`)

var homepageLinkRe = regexp.MustCompile(`홈페이지`)

// Fetcher is the subset of *fetch.Client departments needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CrawlCampus fetches campus.URL and builds its college/department
// tree, per spec.md §4.3.
func CrawlCampus(ctx context.Context, f Fetcher, campus model.CampusInfo) (model.Campus, error) {
	body, err := f.Fetch(ctx, campus.URL)
	if err != nil {
		return model.Campus{}, fmt.Errorf("departments: fetch campus root %s: %w", campus.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return model.Campus{}, fmt.Errorf("departments: parse campus root %s: %w", campus.URL, err)
	}

	main := doc.Find("main").First()
	if main.Length() == 0 {
		main = doc.Selection
	}

	result := walkHeaders(campus.Name, main, campus.URL)
	assignDepartmentIDs(&result)

	return result, nil
}

// assignDepartmentIDs derives each department's id deterministically
// from its homepage host (preferring the subdomain when present), so
// re-runs over the same site produce stable ids, per spec.md §3.
func assignDepartmentIDs(campus *model.Campus) {
	for ci := range campus.Colleges {
		for di := range campus.Colleges[ci].Departments {
			d := &campus.Colleges[ci].Departments[di]
			d.ID = departmentIDFromHost(d.HomepageURL)
		}
	}
	for di := range campus.Departments {
		d := &campus.Departments[di]
		d.ID = departmentIDFromHost(d.HomepageURL)
	}
}

func departmentIDFromHost(homepageURL string) string {
	if homepageURL == model.NotFoundURL || homepageURL == "" {
		return ""
	}
	u, err := url.Parse(homepageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	labels := strings.Split(host, ".")
	if len(labels) >= 3 {
		return labels[0]
	}
	return host
}

// walkHeaders implements the h1-in-document-order walk described in
// spec.md §4.3: a header matching "<Korean word>+대학" opens a college
// context; a subsequent non-college header denotes a department inside
// it; a single header of the form "<college> <department>" can open
// both at once. Homepage urls are then handed out by assignHomepages,
// which pairs departments with "홈페이지" anchors by position; where an
// anchor sits relative to the headers is not considered.
func walkHeaders(campusName string, main *goquery.Selection, baseURL string) model.Campus {
	result := model.Campus{Name: campusName}

	collegeIndex := make(map[string]int) // normalized college name -> index into result.Colleges
	seen := make(map[string]bool)        // "college|department" seen-before guard

	var currentCollege string

	headers := main.Find("h1")

	headers.Each(func(_ int, h *goquery.Selection) {
		text := strings.TrimSpace(h.Text())
		if text == "" {
			return
		}

		college, department := splitCollegeDepartment(text)

		if college != "" && department == "" {
			currentCollege = normalizeCollegeName(college)
			ensureCollege(&result, collegeIndex, currentCollege)
			return
		}

		if college != "" && department != "" {
			currentCollege = normalizeCollegeName(college)
			ensureCollege(&result, collegeIndex, currentCollege)
			addDepartment(&result, collegeIndex, seen, currentCollege, department)
			return
		}

		// Bare department header under whatever college context is open.
		addDepartment(&result, collegeIndex, seen, currentCollege, text)
	})

	// Second pass: hand out the "홈페이지" anchors, in document order,
	// to the departments in the order assignHomepages walks them.
	assignHomepages(&result, main, baseURL)

	return result
}

// splitCollegeDepartment detects a header of the form "<college>
// <department>" per spec.md §4.3. If text itself matches the college
// pattern entirely, it is treated as a college-only header.
func splitCollegeDepartment(text string) (college, department string) {
	loc := collegeRe.FindStringIndex(text)
	if loc == nil {
		return "", ""
	}

	collegePart := strings.TrimSpace(text[:loc[1]])
	rest := strings.TrimSpace(text[loc[1]:])

	if rest == "" {
		return collegePart, ""
	}
	return collegePart, rest
}

// normalizeCollegeName removes intra-word whitespace so "소프트웨어
// 디지털 … 대학" and "소프트웨어디지털…대학" collapse to the same
// college entry, per spec.md §4.3.
func normalizeCollegeName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

func ensureCollege(campus *model.Campus, index map[string]int, name string) int {
	if idx, ok := index[name]; ok {
		return idx
	}
	campus.Colleges = append(campus.Colleges, model.College{Name: name})
	idx := len(campus.Colleges) - 1
	index[name] = idx
	return idx
}

// addDepartment appends a department to the named college (or to the
// campus-level department list if college is empty), dropping
// duplicate (college, department) pairs per spec.md §4.3. It returns
// the index of the appended (or pre-existing) department within its
// owning slice, or -1 if the pair was a duplicate the caller should
// not track further.
func addDepartment(campus *model.Campus, collegeIndex map[string]int, seen map[string]bool, college, department string) int {
	key := college + "|" + department
	if seen[key] {
		return -1
	}
	seen[key] = true

	dept := model.Department{Name: department, HomepageURL: model.NotFoundURL}

	if college == "" {
		campus.Departments = append(campus.Departments, dept)
		return len(campus.Departments) - 1
	}

	idx, ok := collegeIndex[college]
	if !ok {
		idx = ensureCollege(campus, collegeIndex, college)
	}
	campus.Colleges[idx].Departments = append(campus.Colleges[idx].Departments, dept)
	return len(campus.Colleges[idx].Departments) - 1
}

// assignHomepages zips departments with the "홈페이지" anchors of main:
// the Nth department receives the Nth anchor in document order.
// Departments are taken college by college (colleges in the order they
// were first opened, each college's departments in the order they were
// added), then the campus-level departments, so the pairing follows
// document order only where that grouping does. An anchor's position
// relative to the headers is not considered; departments beyond the
// last anchor get model.NotFoundURL.
func assignHomepages(campus *model.Campus, main *goquery.Selection, baseURL string) {
	var links []string
	main.Find("a").Each(func(_ int, a *goquery.Selection) {
		if homepageLinkRe.MatchString(a.Text()) {
			if href, ok := a.Attr("href"); ok {
				links = append(links, href)
			}
		}
	})

	cursor := 0
	next := func() string {
		if cursor >= len(links) {
			return model.NotFoundURL
		}
		href := links[cursor]
		cursor++
		return href
	}

	for ci := range campus.Colleges {
		for di := range campus.Colleges[ci].Departments {
			campus.Colleges[ci].Departments[di].HomepageURL = resolveOrNotFound(baseURL, next())
		}
	}
	for di := range campus.Departments {
		campus.Departments[di].HomepageURL = resolveOrNotFound(baseURL, next())
	}
}

func resolveOrNotFound(base, href string) string {
	if href == model.NotFoundURL || href == "" {
		return model.NotFoundURL
	}
	resolved, err := normalize.ResolveLink(base, href)
	if err != nil {
		return model.NotFoundURL
	}
	return resolved
}
