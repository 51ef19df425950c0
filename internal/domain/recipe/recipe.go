// Package recipe contains the recipe record, the category taxonomy and the
// pure text rules around generation: prompt assembly, title extraction and
// identifier synthesis.
package recipe

import (
	"fmt"
	"strings"
	"time"
)

// GeneralSubcategory is the bucket used whenever a requested subcategory is
// absent or unknown.
const GeneralSubcategory = "General"

// Recipe is one generated recipe as stored and served.
//
// IsFavorite is always false in storage. Callers own favorite state and it
// is overlaid on copies at read time.
type Recipe struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	FullText    string `json:"full_text"`
	IsFavorite  bool   `json:"is_favorite"`
}

// New builds an unsaved record from a backend answer. The subcategory is the
// one requested; the store decides the effective bucket.
func New(category, subcategory, text string, now time.Time) Recipe {
	sub := subcategory
	if sub == "" {
		sub = GeneralSubcategory
	}
	return Recipe{
		ID:          NewID(category, subcategory, now),
		Title:       ExtractTitle(text),
		Category:    category,
		Subcategory: sub,
		FullText:    text,
	}
}

// NewID returns "{category}_{subcategory}_{epoch millis}" with spaces
// replaced by underscores. Two records created in the same millisecond for
// the same bucket share an ID.
func NewID(category, subcategory string, now time.Time) string {
	if subcategory == "" {
		subcategory = GeneralSubcategory
	}
	return fmt.Sprintf("%s_%s_%d",
		strings.ReplaceAll(category, " ", "_"),
		strings.ReplaceAll(subcategory, " ", "_"),
		now.UnixMilli(),
	)
}

// WithFavorite returns a copy flagged according to the favorites set.
func (r Recipe) WithFavorite(favorites map[string]struct{}) Recipe {
	_, ok := favorites[r.ID]
	r.IsFavorite = ok
	return r
}

// FavoriteSet turns a list of IDs into a lookup set.
func FavoriteSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
