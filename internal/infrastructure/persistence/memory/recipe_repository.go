// Package memory provides in-memory repository implementations
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"go.uber.org/zap"
)

// RecipeRepository keeps recipes in category -> subcategory buckets. Buckets
// are created up front from the taxonomy and only ever grow.
type RecipeRepository struct {
	taxonomy *recipe.Taxonomy
	buckets  map[string]map[string][]recipe.Recipe
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewRecipeRepository creates an empty store shaped by taxonomy
func NewRecipeRepository(taxonomy *recipe.Taxonomy, logger *zap.Logger) *RecipeRepository {
	buckets := make(map[string]map[string][]recipe.Recipe)
	for _, c := range taxonomy.Categories() {
		subs := make(map[string][]recipe.Recipe, len(c.Subcategories))
		for _, s := range c.Subcategories {
			subs[s] = nil
		}
		buckets[c.Name] = subs
	}

	return &RecipeRepository{
		taxonomy: taxonomy,
		buckets:  buckets,
		logger:   logger.Named("recipe-store"),
	}
}

// Insert appends a recipe to its bucket
func (r *RecipeRepository) Insert(ctx context.Context, category, subcategory string, rec recipe.Recipe) (recipe.Recipe, error) {
	effective, substituted, err := r.taxonomy.ResolveSubcategory(category, subcategory)
	if err != nil {
		r.logger.Error("Rejected recipe for unknown bucket",
			zap.String("category", category),
			zap.String("subcategory", subcategory),
			zap.Error(err),
		)
		return recipe.Recipe{}, err
	}
	if substituted {
		r.logger.Warn("Subcategory not found, storing under fallback",
			zap.String("category", category),
			zap.String("requested_subcategory", subcategory),
			zap.String("effective_subcategory", effective),
		)
	}

	rec.Category = category
	rec.Subcategory = effective
	rec.IsFavorite = false

	r.mutex.Lock()
	r.buckets[category][effective] = append(r.buckets[category][effective], rec)
	r.mutex.Unlock()

	r.logger.Info("Recipe stored",
		zap.String("recipe_id", rec.ID),
		zap.String("title", rec.Title),
		zap.String("category", category),
		zap.String("subcategory", effective),
	)
	return rec, nil
}

// ListAll returns every recipe in taxonomy order, then insertion order
func (r *RecipeRepository) ListAll(ctx context.Context) ([]recipe.Recipe, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []recipe.Recipe
	for _, c := range r.taxonomy.Categories() {
		out = r.appendCategory(out, c)
	}
	return out, nil
}

// ListByCategory returns every recipe of one category
func (r *RecipeRepository) ListByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	c, ok := r.taxonomy.Category(category)
	if !ok {
		return nil, recipe.ErrCategoryNotFound
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.appendCategory(nil, c), nil
}

// ListBySubcategory returns one bucket, falling back to General when the
// requested one does not exist
func (r *RecipeRepository) ListBySubcategory(ctx context.Context, category, subcategory string) ([]recipe.Recipe, error) {
	effective, substituted, err := r.taxonomy.ResolveSubcategory(category, subcategory)
	if err != nil {
		return nil, err
	}
	if substituted && subcategory != "" {
		r.logger.Info("Subcategory not found, returning fallback bucket",
			zap.String("category", category),
			zap.String("requested_subcategory", subcategory),
			zap.String("effective_subcategory", effective),
		)
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]recipe.Recipe(nil), r.buckets[category][effective]...), nil
}

// FindByIDs returns the recipes whose ID is listed, in store order
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []string) ([]recipe.Recipe, error) {
	wanted := recipe.FavoriteSet(ids)

	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, rec := range all {
		if _, ok := wanted[rec.ID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Categories lists, per category, the sorted subcategories that hold a
// recipe plus General
func (r *RecipeRepository) Categories(ctx context.Context) ([]outbound.CategorySummary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []outbound.CategorySummary
	for _, c := range r.taxonomy.Categories() {
		var subs []string
		for _, s := range c.Subcategories {
			if len(r.buckets[c.Name][s]) > 0 || s == recipe.GeneralSubcategory {
				subs = append(subs, s)
			}
		}
		if len(subs) == 0 {
			continue
		}
		sort.Strings(subs)
		out = append(out, outbound.CategorySummary{Name: c.Name, Subcategories: subs})
	}
	return out, nil
}

// Count returns the number of stored recipes
func (r *RecipeRepository) Count(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	n := 0
	for _, subs := range r.buckets {
		for _, list := range subs {
			n += len(list)
		}
	}
	return n, nil
}

// appendCategory copies the buckets of c in declared order. Callers hold the read lock.
func (r *RecipeRepository) appendCategory(out []recipe.Recipe, c recipe.Category) []recipe.Recipe {
	for _, s := range c.Subcategories {
		out = append(out, r.buckets[c.Name][s]...)
	}
	return out
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)
