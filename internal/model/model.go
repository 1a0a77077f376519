// Package model holds the plain data structures shared across the
// mapper, crawler, safety and snapshot components. None of these types
// carry behavior beyond small helper methods; they are the wire/JSON
// shapes described by the notice-board crawler's data model.
package model

import "time"

// CampusInfo is seed input describing one university campus root.
type CampusInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SiteMap is the ordered sequence of campuses discovered by the mapper.
type SiteMap struct {
	Campuses []Campus `json:"campuses"`
}

// Campus is one university campus with its colleges and departments.
type Campus struct {
	Name        string       `json:"name"`
	Colleges    []College    `json:"colleges"`
	Departments []Department `json:"departments"`
}

// College groups departments under a campus.
type College struct {
	Name        string       `json:"name"`
	Departments []Department `json:"departments"`
}

// Department is a single academic department with its notice boards.
type Department struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	HomepageURL string  `json:"homepage_url"`
	Boards      []Board `json:"boards"`
}

// NotFoundURL marks a department whose homepage link could not be
// located during the C3 crawl.
const NotFoundURL = "NOT_FOUND"

// Board is a single notice-listing page belonging to a department.
type Board struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	URL         string       `json:"url"`
	Selectors   CmsSelectors `json:"selectors"`
}

// CmsSelectors are the CSS selectors needed to scrape one board.
type CmsSelectors struct {
	Row      string `json:"row"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Link     string `json:"link,omitempty"`
	Author   string `json:"author,omitempty"`
	Body     string `json:"body,omitempty"`
	LinkAttr string `json:"link_attr,omitempty"`
}

// ResolvedLinkAttr returns LinkAttr, defaulting to "href".
func (s CmsSelectors) ResolvedLinkAttr() string {
	if s.LinkAttr == "" {
		return "href"
	}
	return s.LinkAttr
}

// CmsPattern is a CMS fingerprint plus the selectors appropriate for it.
type CmsPattern struct {
	Name               string `json:"name"`
	DetectURLContains  string `json:"detect_url_contains,omitempty"`
	DetectHTMLContains string `json:"detect_html_contains,omitempty"`
	CmsSelectors
}

// KeywordMapping maps an anchor-text keyword to a board id/display name.
type KeywordMapping struct {
	Keyword     string `json:"keyword"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ManualReviewItem records a department that could not be auto-discovered.
type ManualReviewItem struct {
	Campus string `json:"campus"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Notice is the internal, normalized representation of one crawled item.
type Notice struct {
	Campus         string `json:"campus"`
	College        string `json:"college"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	BoardID        string `json:"board_id"`
	BoardName      string `json:"board_name"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	Link           string `json:"link"`
	Author         string `json:"author,omitempty"`
	SourceID       string `json:"source_id,omitempty"`
	IsPinned       bool   `json:"is_pinned,omitempty"`

	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
}

// NoticeIndexItem is the compact projection stored in per-snapshot indices.
type NoticeIndexItem struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	Link           string `json:"link"`
	DepartmentName string `json:"department_name"`
	BoardName      string `json:"board_name"`
	Category       string `json:"category"`
	ContentHash    string `json:"content_hash,omitempty"`
}

// CrawlStage identifies which stage of the notice crawler produced an error.
type CrawlStage string

const (
	StageSelector     CrawlStage = "selector"
	StageBoardList    CrawlStage = "board_list"
	StageNoticeDetail CrawlStage = "notice_detail"
	StageBoardLookup  CrawlStage = "board_lookup"
)

// CrawlError records one structured failure from the notice crawler.
type CrawlError struct {
	Stage     CrawlStage `json:"stage"`
	BoardID   string     `json:"board_id,omitempty"`
	BoardName string     `json:"board_name,omitempty"`
	URL       string     `json:"url,omitempty"`
	NoticeID  string     `json:"notice_id,omitempty"`
	Message   string     `json:"message"`
	Retryable bool       `json:"retryable"`
}

// CrawlOutcome is the complete, partial-failure-tolerant result of a
// notice crawl run.
type CrawlOutcome struct {
	Notices        []Notice     `json:"-"`
	BoardTotal     int          `json:"board_total"`
	BoardFailures  int          `json:"board_failures"`
	NoticeTotal    int          `json:"notice_total"`
	NoticeFailures int          `json:"notice_failures"`
	DetailTotal    int          `json:"detail_total"`
	DetailFailures int          `json:"detail_failures"`
	Errors         []CrawlError `json:"errors"`
}

// ManifestEntry records one committed object's metadata.
type ManifestEntry struct {
	Key             string `json:"key"`
	Bytes           int64  `json:"bytes"`
	SHA256          string `json:"sha256"`
	ContentType     string `json:"content_type"`
	ContentEncoding string `json:"content_encoding,omitempty"`
	CacheControl    string `json:"cache_control,omitempty"`
}

// SnapshotManifest lists every object written for one snapshot version.
type SnapshotManifest struct {
	SchemaVersion int             `json:"schema_version"`
	Version       string          `json:"version"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Entries       []ManifestEntry `json:"entries"`
}

// SnapshotPointer is the `latest.json` / `previous.json` document.
type SnapshotPointer struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiffMeta records which field a Diff's "updated" set was computed from.
type DiffMeta struct {
	UpdateBasis string `json:"update_basis"`
}

// Diff is the set of notice-id changes between two snapshots.
type Diff struct {
	Added   []string `json:"added"`
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
	Meta    DiffMeta `json:"meta"`
}

// InvertedIndex maps a token to the sorted, unique list of notice ids
// whose metadata contains it.
type InvertedIndex struct {
	Version      int                 `json:"version"`
	NoticeCount  int                 `json:"notice_count"`
	TokenCount   int                 `json:"token_count"`
	Index        map[string][]string `json:"index"`
}
