package recipe

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

// allFilter is the query value meaning "do not filter on this field"
const allFilter = "all"

// Document titles, one per selection rule
const (
	TitleFavorites = "My Favorite Recipes"
	TitleSelection = "Recipe Selection"
	TitleAll       = "All Recipes"
	titleCategory  = "Recipes for %s"
)

//go:embed templates/export.html.tmpl
var templateFS embed.FS

var exportTemplate = template.Must(template.ParseFS(templateFS, "templates/export.html.tmpl"))

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\- ]+`)

// Selection is the outcome of applying an export query to the store
type Selection struct {
	Title string
	// Scope is a short machine-readable description written into the
	// document metadata
	Scope   string
	Recipes []recipe.Recipe
}

// SelectForExport applies the first matching rule of q to all, the
// candidate records in store order. It only fails when favorites are requested without
// any favorite ID.
func SelectForExport(all []recipe.Recipe, taxonomy *recipe.Taxonomy, q inbound.ExportQuery) (Selection, error) {
	switch {
	case q.FavoritesOnly:
		if len(q.Favorites) == 0 {
			return Selection{}, errors.NewValidationError("No favorite recipe IDs were supplied for the PDF.")
		}
		return Selection{
			Title:   TitleFavorites,
			Scope:   "favorites",
			Recipes: filterByID(all, q.Favorites),
		}, nil

	case len(q.IDs) > 0:
		return Selection{
			Title:   TitleSelection,
			Scope:   "ids",
			Recipes: filterByID(all, q.IDs),
		}, nil

	case q.Category != "" && q.Category != allFilter:
		sel := Selection{
			Title: fmt.Sprintf(titleCategory, q.Category),
			Scope: "category:" + q.Category,
		}
		if q.Subcategory == "" || q.Subcategory == allFilter {
			sel.Recipes = filter(all, func(r recipe.Recipe) bool {
				return r.Category == q.Category
			})
			return sel, nil
		}

		sel.Title += " - " + q.Subcategory
		sel.Scope += "/" + q.Subcategory
		bucket, _, err := taxonomy.ResolveSubcategory(q.Category, q.Subcategory)
		if err != nil {
			return sel, nil
		}
		sel.Recipes = filter(all, func(r recipe.Recipe) bool {
			return r.Category == q.Category && r.Subcategory == bucket
		})
		return sel, nil
	}

	return Selection{
		Title:   TitleAll,
		Scope:   allFilter,
		Recipes: append([]recipe.Recipe(nil), all...),
	}, nil
}

// RenderExportHTML builds the printable document for a selection. Every
// dynamic value is escaped by html/template.
func RenderExportHTML(sel Selection) (string, error) {
	var buf bytes.Buffer
	if err := exportTemplate.Execute(&buf, sel); err != nil {
		return "", fmt.Errorf("render export document: %w", err)
	}
	return buf.String(), nil
}

// ExportFilename derives the attachment name from a document title
func ExportFilename(title string) string {
	safe := unsafeFilenameChars.ReplaceAllString(title, "")
	return strings.ReplaceAll(safe, " ", "_") + ".pdf"
}

func filterByID(all []recipe.Recipe, ids []string) []recipe.Recipe {
	wanted := recipe.FavoriteSet(ids)
	return filter(all, func(r recipe.Recipe) bool {
		_, ok := wanted[r.ID]
		return ok
	})
}

func filter(all []recipe.Recipe, keep func(recipe.Recipe) bool) []recipe.Recipe {
	var out []recipe.Recipe
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
