package normalize

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	crawlDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "dots", raw: "2024.01.15", want: "2024-01-15"},
		{name: "slashes", raw: "2024/01/15", want: "2024-01-15"},
		{name: "dashes", raw: "2024-01-15", want: "2024-01-15"},
		{name: "two-digit year", raw: "24-01-15", want: "2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.raw, crawlDay, nil, nil)
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeDate_Unparseable(t *testing.T) {
	crawlDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	got := NormalizeDate("공지.사항/특별", crawlDay, nil, nil)
	if got == "" {
		t.Fatal("NormalizeDate() returned empty string for unparseable input")
	}
	// dots and slashes must still be replaced with dashes.
	for _, c := range got {
		if c == '.' || c == '/' {
			t.Errorf("NormalizeDate() result %q still contains '.' or '/'", got)
		}
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "relative", base: "https://x.com/a/", ref: "b.html", want: "https://x.com/a/b.html"},
		{name: "absolute path", base: "https://x.com/a/b/", ref: "/c.html", want: "https://x.com/c.html"},
		{name: "already absolute", base: "https://x.com/a/", ref: "https://y.com/z", want: "https://y.com/z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLink(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("ResolveLink() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveLink(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
		})
	}
}

func TestCanonicalID_Stability(t *testing.T) {
	crawlDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	id1 := CanonicalID("Campus", "cse", "notice", "123", "https://x.com/n/1", crawlDay)
	id2 := CanonicalID("Campus", "cse", "notice", "123", "https://x.com/n/1", crawlDay)
	if id1 != id2 {
		t.Errorf("CanonicalID() not stable: %q != %q", id1, id2)
	}

	if len(id1) != 15 {
		t.Errorf("CanonicalID() length = %d, want 15", len(id1))
	}

	idOther := CanonicalID("Campus", "cse", "notice", "999", "https://x.com/n/1", crawlDay)
	if id1 == idOther {
		t.Error("CanonicalID() changing source_id did not change id")
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		boardName string
		want      string
	}{
		{"장학 안내", "scholarship"},
		{"채용 공고", "recruitment"},
		{"세미나 일정", "event"},
		{"학사 공지", "academic"},
		{"일반 공지사항", "general"},
		{"동아리 소식", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.boardName, func(t *testing.T) {
			if got := Category(tt.boardName); got != tt.want {
				t.Errorf("Category(%q) = %q, want %q", tt.boardName, got, tt.want)
			}
		})
	}
}

func TestExtractSourceID(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{name: "articleNo", link: "https://x.com/bbs?articleNo=42", want: "42"},
		{name: "board_seq", link: "https://x.com/bbs?board_seq=7", want: "7"},
		{name: "numeric fallback", link: "https://x.com/bbs?foo=99", want: "99"},
		{name: "path digits", link: "https://x.com/bbs/123", want: "123"},
		{name: "none", link: "https://x.com/bbs", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSourceID(tt.link)
			if got != tt.want {
				t.Errorf("ExtractSourceID(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}
