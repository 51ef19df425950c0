package recipe

import (
	"fmt"
	"strings"
)

// MaxPromptIngredients caps how many ingredients are named in a prompt.
const MaxPromptIngredients = 10

const (
	promptRequirements = ". The recipe must include a clear and catchy title, the complete ingredient list with exact quantities, very detailed step-by-step instructions and the total estimated preparation time."
	promptFormatting   = " Format the response clearly and in an organized way, using markdown for headings, lists and bold where appropriate."
)

// BuildPrompt assembles the instruction sent to the generation backend.
func BuildPrompt(category, subcategory string, ingredients []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a detailed recipe for category '%s'", category)
	if subcategory != "" {
		fmt.Fprintf(&b, " with a specific focus on '%s'", subcategory)
	}
	if len(ingredients) > 0 {
		if len(ingredients) > MaxPromptIngredients {
			ingredients = ingredients[:MaxPromptIngredients]
		}
		b.WriteString(" using mainly the following ingredients: ")
		b.WriteString(strings.Join(ingredients, ", "))
	}
	b.WriteString(promptRequirements)
	b.WriteString(promptFormatting)
	return b.String()
}
