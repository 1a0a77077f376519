// Package index implements the inverted index builder (C9):
// tokenizing notice titles and metadata into a token -> sorted notice
// id map suitable for client-side search, per spec.md §4.9.
package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/uring/crawler/internal/model"
)

// MinTokenLength drops tokens shorter than this, default per spec.md §4.9.
const MinTokenLength = 2

// MaxTokensPerNotice caps the number of tokens contributed by one notice.
const MaxTokensPerNotice = 50

// SchemaVersion is the InvertedIndex.Version written to disk.
const SchemaVersion = 1

// stopWords is the small bilingual stop-word list from spec.md §4.9:
// Korean particles, English articles/prepositions/auxiliaries, and
// URL noise.
var stopWords = map[string]bool{
	// Korean particles.
	"은": true, "는": true, "이": true, "가": true, "을": true, "를": true,
	"의": true, "에": true, "와": true, "과": true, "도": true, "로": true,
	"으로": true, "에서": true, "에게": true, "한테": true,
	// English articles/prepositions/auxiliaries.
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "and": true, "or": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"by": true, "with": true, "as": true, "it": true,
	// URL noise.
	"http": true, "https": true, "www": true, "com": true, "kr": true,
	"html": true, "php": true,
}

// Options controls tokenization, with spec.md §4.9 defaults.
type Options struct {
	MinTokenLength     int
	MaxTokensPerNotice int
	IncludeMetadata    bool // campus/college/department_name/board_name, default on
}

// DefaultOptions returns the spec's default tokenization options.
func DefaultOptions() Options {
	return Options{
		MinTokenLength:     MinTokenLength,
		MaxTokensPerNotice: MaxTokensPerNotice,
		IncludeMetadata:    true,
	}
}

// Tokenize lowercases text, splits it on Unicode word boundaries, and
// drops tokens shorter than minLen or present in the stop-word list.
func Tokenize(text string, minLen int) []string {
	if minLen <= 0 {
		minLen = MinTokenLength
	}

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		if len([]rune(tok)) < minLen {
			return
		}
		if stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// Build tokenizes every notice's title (and, if opts.IncludeMetadata,
// its campus/college/department/board name) and returns the token ->
// sorted-unique-id inverted index described in spec.md §4.9. Build is
// deterministic for deterministic input.
func Build(items []model.NoticeIndexItem, notices []model.Notice, opts Options) model.InvertedIndex {
	if opts.MinTokenLength <= 0 {
		opts.MinTokenLength = MinTokenLength
	}
	if opts.MaxTokensPerNotice <= 0 {
		opts.MaxTokensPerNotice = MaxTokensPerNotice
	}

	noticeByID := make(map[string]model.Notice, len(notices))
	for _, n := range notices {
		noticeByID[n.ID] = n
	}

	postings := make(map[string]map[string]bool)

	for _, item := range items {
		tokens := tokensFor(item, noticeByID[item.ID], opts)
		for i, tok := range tokens {
			if i >= opts.MaxTokensPerNotice {
				break
			}
			set, ok := postings[tok]
			if !ok {
				set = make(map[string]bool)
				postings[tok] = set
			}
			set[item.ID] = true
		}
	}

	out := model.InvertedIndex{
		Version:     SchemaVersion,
		NoticeCount: len(items),
		Index:       make(map[string][]string, len(postings)),
	}

	for tok, set := range postings {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out.Index[tok] = ids
	}
	out.TokenCount = len(out.Index)

	return out
}

func tokensFor(item model.NoticeIndexItem, notice model.Notice, opts Options) []string {
	var fields []string
	fields = append(fields, item.Title)

	if opts.IncludeMetadata {
		if notice.Campus != "" {
			fields = append(fields, notice.Campus)
		}
		if notice.College != "" {
			fields = append(fields, notice.College)
		}
		fields = append(fields, item.DepartmentName, item.BoardName)
	}

	var tokens []string
	seen := make(map[string]bool)
	for _, f := range fields {
		for _, tok := range Tokenize(f, opts.MinTokenLength) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
