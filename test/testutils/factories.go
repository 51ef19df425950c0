// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/brianvoe/gofakeit/v6"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
	clock time.Time
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
		clock: time.UnixMilli(1700000000000),
	}
}

// Ingredients returns n distinct-looking ingredient names
func (f *RecipeFactory) Ingredients(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			out = append(out, strings.ToLower(f.faker.Vegetable()))
		case 1:
			out = append(out, strings.ToLower(f.faker.Fruit()))
		default:
			out = append(out, strings.ToLower(f.faker.Snack()))
		}
	}
	return out
}

// GeneratedText builds a markdown answer shaped like a backend response
func (f *RecipeFactory) GeneratedText(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	b.WriteString("**Ingredients:**\n")
	for _, ing := range f.Ingredients(4) {
		fmt.Fprintf(&b, "- %d g %s\n", f.faker.Number(10, 500), ing)
	}
	b.WriteString("\n**Instructions:**\n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i, f.faker.Sentence(8))
	}
	fmt.Fprintf(&b, "\n**Total time:** %d minutes\n", f.faker.Number(10, 90))
	return b.String()
}

// Recipe creates a stored-shape recipe for the given bucket. IDs are unique
// per factory because the factory clock advances one millisecond per call.
func (f *RecipeFactory) Recipe(category, subcategory string) recipe.Recipe {
	f.clock = f.clock.Add(time.Millisecond)
	title := f.Title()
	return recipe.New(category, subcategory, f.GeneratedText(title), f.clock)
}

// Title returns a plausible recipe title
func (f *RecipeFactory) Title() string {
	return fmt.Sprintf("%s %s", strings.Title(f.faker.Adjective()), f.faker.Dessert())
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	recipe recipe.Recipe
}

// NewRecipeBuilder creates a new recipe builder with default values
func NewRecipeBuilder() *RecipeBuilder {
	faker := gofakeit.New(time.Now().UnixNano())
	now := time.Now()

	return &RecipeBuilder{
		recipe: recipe.Recipe{
			ID:          recipe.NewID("Breakfast", "General", now),
			Title:       faker.Breakfast(),
			Category:    "Breakfast",
			Subcategory: recipe.GeneralSubcategory,
			FullText:    faker.Paragraph(2, 3, 5, "\n"),
		},
	}
}

// WithID sets the recipe ID
func (rb *RecipeBuilder) WithID(id string) *RecipeBuilder {
	rb.recipe.ID = id
	return rb
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.recipe.Title = title
	return rb
}

// InBucket sets the category and subcategory
func (rb *RecipeBuilder) InBucket(category, subcategory string) *RecipeBuilder {
	rb.recipe.Category = category
	rb.recipe.Subcategory = subcategory
	return rb
}

// WithFullText sets the generated text
func (rb *RecipeBuilder) WithFullText(text string) *RecipeBuilder {
	rb.recipe.FullText = text
	return rb
}

// Build returns the recipe
func (rb *RecipeBuilder) Build() recipe.Recipe {
	return rb.recipe
}
