package config

import "fmt"

import "github.com/uring/crawler/internal/model"

// Seed is the campus/keyword/CMS-pattern input to the mapper.
type Seed struct {
	Campuses    []model.CampusInfo     `toml:"campuses"`
	Keywords    []model.KeywordMapping `toml:"keywords"`
	CmsPatterns []model.CmsPattern     `toml:"cms_patterns"`
}

// Validate checks the seed per spec.md §6: campuses and keywords
// non-empty.
func (s Seed) Validate() error {
	if len(s.Campuses) == 0 {
		return fmt.Errorf("seed: campuses must not be empty")
	}
	if len(s.Keywords) == 0 {
		return fmt.Errorf("seed: keywords must not be empty")
	}
	for i, c := range s.Campuses {
		if c.Name == "" || c.URL == "" {
			return fmt.Errorf("seed: campuses[%d] missing name or url", i)
		}
	}
	for i, k := range s.Keywords {
		if k.Keyword == "" || k.ID == "" {
			return fmt.Errorf("seed: keywords[%d] missing keyword or id", i)
		}
	}
	return nil
}
