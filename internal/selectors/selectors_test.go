package selectors

import (
	"testing"

	"github.com/uring/crawler/internal/model"
)

func TestDetect(t *testing.T) {
	patterns := []model.CmsPattern{
		{
			Name:              "xpress",
			DetectURLContains: "board_seq",
			CmsSelectors:      model.CmsSelectors{Row: ".bbs tr", Title: ".title", Date: ".date"},
		},
		{
			Name:               "gnuboard",
			DetectHTMLContains: "gnuboard5",
			CmsSelectors:       model.CmsSelectors{Row: "table.board tr", Title: "td.title a", Date: "td.date"},
		},
	}

	sel, ok := Detect(patterns, "https://x.ac.kr/bbs?board_seq=1", "")
	if !ok || sel.Row != ".bbs tr" {
		t.Fatalf("Detect() url match failed: %+v ok=%v", sel, ok)
	}

	sel, ok = Detect(patterns, "https://x.ac.kr/none", "<html class=gnuboard5>")
	if !ok || sel.Row != "table.board tr" {
		t.Fatalf("Detect() html match failed: %+v ok=%v", sel, ok)
	}

	_, ok = Detect(patterns, "https://x.ac.kr/none", "<html>")
	if ok {
		t.Fatal("Detect() matched when it should not have")
	}
}

func TestValidate_InvalidSelector(t *testing.T) {
	err := Validate(model.CmsSelectors{Row: "[[invalid", Title: "a", Date: "td"})
	if err == nil {
		t.Fatal("Validate() error = nil, want error for invalid row selector")
	}
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(model.CmsSelectors{Row: "table tr", Title: "a", Date: "td:last-child"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestBuildCache_QuarantinesInvalidSelector(t *testing.T) {
	boards := []model.Board{
		{ID: "good", Selectors: model.CmsSelectors{Row: "table tr", Title: "a", Date: "td"}},
		{ID: "bad", Selectors: model.CmsSelectors{Row: "[[invalid", Title: "a", Date: "td"}},
	}

	cache, errs := BuildCache(boards)

	if len(errs) != 1 {
		t.Fatalf("BuildCache() errs = %d, want 1", len(errs))
	}
	if errs[0].Stage != model.StageSelector || errs[0].BoardID != "bad" {
		t.Errorf("BuildCache() error = %+v", errs[0])
	}

	if _, ok := cache.Get("good"); !ok {
		t.Error("BuildCache() good board missing from cache")
	}
	if _, ok := cache.Get("bad"); ok {
		t.Error("BuildCache() bad board should be excluded from cache")
	}
}
