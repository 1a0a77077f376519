package index

import (
	"testing"

	"github.com/uring/crawler/internal/model"
)

func TestTokenize_LowercasesAndSplits(t *testing.T) {
	tokens := Tokenize("2024 Scholarship Notice! (중요)", 2)
	want := map[string]bool{"2024": true, "scholarship": true, "notice": true, "중요": true}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize() = %v, want tokens matching %v", tokens, want)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
	}
}

func TestTokenize_DropsShortAndStopWords(t *testing.T) {
	tokens := Tokenize("a to the of http www", 2)
	if len(tokens) != 0 {
		t.Errorf("Tokenize() = %v, want empty", tokens)
	}
}

func TestBuild_DeterministicAndSorted(t *testing.T) {
	items := []model.NoticeIndexItem{
		{ID: "20240101-aaa", Title: "Scholarship Notice", DepartmentName: "CS", BoardName: "General"},
		{ID: "20240102-bbb", Title: "Scholarship Deadline", DepartmentName: "CS", BoardName: "General"},
	}
	notices := []model.Notice{
		{ID: "20240101-aaa", Campus: "Main", College: "Engineering"},
		{ID: "20240102-bbb", Campus: "Main", College: "Engineering"},
	}

	idx1 := Build(items, notices, DefaultOptions())
	idx2 := Build(items, notices, DefaultOptions())

	if idx1.TokenCount != idx2.TokenCount || idx1.NoticeCount != idx2.NoticeCount {
		t.Fatalf("Build() not deterministic: %+v vs %+v", idx1, idx2)
	}

	ids, ok := idx1.Index["scholarship"]
	if !ok {
		t.Fatal(`Index["scholarship"] missing`)
	}
	if len(ids) != 2 || ids[0] != "20240101-aaa" || ids[1] != "20240102-bbb" {
		t.Errorf(`Index["scholarship"] = %v, want sorted [20240101-aaa 20240102-bbb]`, ids)
	}
}

func TestBuild_StopWordsNeverKeys(t *testing.T) {
	items := []model.NoticeIndexItem{{ID: "1", Title: "The notice of the www"}}
	idx := Build(items, nil, DefaultOptions())

	for _, stop := range []string{"the", "of", "www"} {
		if _, ok := idx.Index[stop]; ok {
			t.Errorf("stop word %q present as key", stop)
		}
	}
}

func TestBuild_EveryIDInIndexAppearsInInput(t *testing.T) {
	items := []model.NoticeIndexItem{
		{ID: "x1", Title: "Recruitment notice"},
		{ID: "x2", Title: "Recruitment event"},
	}
	idx := Build(items, nil, DefaultOptions())

	valid := map[string]bool{"x1": true, "x2": true}
	for tok, ids := range idx.Index {
		for _, id := range ids {
			if !valid[id] {
				t.Errorf("token %q references unknown id %q", tok, id)
			}
		}
	}
}

func TestBuild_CapsTokensPerNotice(t *testing.T) {
	items := []model.NoticeIndexItem{{ID: "1", Title: "aa bb cc dd ee ff gg"}}
	idx := Build(items, nil, Options{MinTokenLength: 2, MaxTokensPerNotice: 3})

	count := 0
	for _, ids := range idx.Index {
		for _, id := range ids {
			if id == "1" {
				count++
			}
		}
	}
	if count > 3 {
		t.Errorf("notice contributed %d tokens, want <= 3", count)
	}
}
