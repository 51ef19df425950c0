package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Store lookups
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")

	// Taxonomy validation
	ErrEmptyTaxonomy     = errors.New("taxonomy must declare at least one category")
	ErrEmptyName         = errors.New("category and subcategory names must not be empty")
	ErrDuplicateCategory = errors.New("category declared more than once")
	ErrDuplicateSub      = errors.New("subcategory declared more than once in a category")
	ErrMalformedTaxonomy = errors.New("taxonomy must be a mapping of category to a list of subcategories")
)
