// Package normalize implements the notice normalizer (C6): pure
// functions that clean titles/dates, resolve links, and compute
// canonical ids and content hashes per spec.md §3/§4.6.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/uring/crawler/internal/config"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanTitle collapses whitespace and strips every configured removal
// pattern from a raw title.
func CleanTitle(raw string, removePatterns []string) string {
	title := raw
	for _, pattern := range removePatterns {
		if pattern == "" {
			continue
		}
		if re, err := regexp.Compile(pattern); err == nil {
			title = re.ReplaceAllString(title, "")
		} else {
			title = strings.ReplaceAll(title, pattern, "")
		}
	}
	title = whitespaceRun.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

var ymdDashRe = regexp.MustCompile(`^(\d{2,4})-(\d{1,2})-(\d{1,2})$`)

// NormalizeDate implements spec.md §3/§8's date normalization law:
// "2024.01.15", "2024/01/15", "2024-01-15" and "24-01-15" all resolve
// to "2024-01-15"; unparseable input passes through with '.'/'/'
// replaced by '-'.
func NormalizeDate(raw string, crawlDay time.Time, removePatterns []string, replacements []config.DateReplacement) string {
	date := raw
	for _, pattern := range removePatterns {
		if pattern == "" {
			continue
		}
		if re, err := regexp.Compile(pattern); err == nil {
			date = re.ReplaceAllString(date, "")
		} else {
			date = strings.ReplaceAll(date, pattern, "")
		}
	}
	for _, rep := range replacements {
		date = strings.ReplaceAll(date, rep.From, rep.To)
	}
	date = strings.TrimSpace(date)

	date = strings.ReplaceAll(date, ".", "-")
	date = strings.ReplaceAll(date, "/", "-")
	date = strings.Trim(date, "-")

	if m := ymdDashRe.FindStringSubmatch(date); m != nil {
		year := widenYear(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", year, month, day)
	}

	if parsed, err := dateparse.ParseAny(date); err == nil {
		return parsed.Format("2006-01-02")
	}

	if date == "" {
		return crawlDay.Format("2006-01-02")
	}

	return date
}

func widenYear(y string) string {
	if len(y) == 2 {
		return "20" + y
	}
	return y
}

// ResolveLink resolves ref against base, per spec.md §8's URL-resolution
// law: relative paths resolve against base, absolute paths re-root to
// the host, already-absolute URLs pass through unchanged.
func ResolveLink(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("normalize: parse base url %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("normalize: parse ref url %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

var sourceIDQueryKeys = []string{
	"articleNo", "article_no", "articleId", "article_id",
	"board_seq", "notice_id", "noticeId", "seq", "no", "id",
}

var numericRe = regexp.MustCompile(`^[0-9]+$`)
var trailingDigitsRe = regexp.MustCompile(`(\d+)$`)

// ExtractSourceID implements the source-id extraction cascade from
// spec.md §4.6: known query keys, then any id/no/seq/article-ish query
// key, then any fully-numeric query value, then trailing path digits.
func ExtractSourceID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	q := u.Query()

	for _, key := range sourceIDQueryKeys {
		for k, vals := range q {
			if strings.EqualFold(k, key) && len(vals) > 0 && vals[0] != "" {
				return vals[0]
			}
		}
	}

	for k, vals := range q {
		lower := strings.ToLower(k)
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		if strings.Contains(lower, "id") || strings.Contains(lower, "no") ||
			strings.Contains(lower, "seq") || strings.Contains(lower, "article") {
			return vals[0]
		}
	}

	for _, vals := range q {
		if len(vals) > 0 && numericRe.MatchString(vals[0]) {
			return vals[0]
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 {
		last := segments[len(segments)-1]
		if m := trailingDigitsRe.FindStringSubmatch(last); m != nil {
			return m[1]
		}
	}

	return ""
}

// CanonicalID implements spec.md §3's canonical-id formula:
// SHA-256(lower(campus)|lower(department_id)|lower(board_id)|lower(source_id)|lower(link)),
// prefixed with the crawl day and truncated to "YYYYMMDD-XXXXXX".
func CanonicalID(campus, departmentID, boardID, sourceID, link string, crawlDay time.Time) string {
	parts := []string{
		strings.ToLower(campus),
		strings.ToLower(departmentID),
		strings.ToLower(boardID),
		strings.ToLower(sourceID),
		strings.ToLower(link),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	hexSum := hex.EncodeToString(sum[:])

	prefix := crawlDay.Format("20060102")
	const totalLen = 15 // "YYYYMMDD-XXXXXX"
	const suffixLen = totalLen - len(prefix) - 1

	return fmt.Sprintf("%s-%s", prefix, hexSum[:suffixLen])
}

// ContentHash hashes a notice's title, date, link and author, used only
// to detect updates to an already-known id. Campus, college, department
// and board names are not part of the hash.
func ContentHash(title, date, link, author string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{title, date, link, author}, "|")))
	return hex.EncodeToString(sum[:])
}

// categoryKeywords is the fixed Korean-keyword table spec.md §3 uses to
// derive a NoticeIndexItem's category from its board name. Order
// matters: the first matching category wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"academic", []string{"학사", "수강", "교육", "강의"}},
	{"scholarship", []string{"장학"}},
	{"recruitment", []string{"채용", "모집", "인턴"}},
	{"event", []string{"행사", "세미나", "공모"}},
	{"general", []string{"공지", "일반"}},
}

// Category derives a NoticeIndexItem's category from its board name per
// spec.md §3: academic / scholarship / recruitment / event / general /
// other, via a fixed Korean-keyword table.
func Category(boardName string) string {
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(boardName, kw) {
				return c.category
			}
		}
	}
	return "other"
}
