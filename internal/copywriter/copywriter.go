// Package copywriter drafts perfume descriptions with a language model.
package copywriter

import (
	"context"
	"fmt"
	"strings"
)

// promptTemplate is shared by every backend.
const promptTemplate = `Write a two-sentence product description for a perfume listing.
Perfume: %s
Brand: %s
Concentration: %s
For: %s
Category: %s
Notes: %s
Respond with the description only, no heading and no quotes.`

type Writer interface {
	Describe(ctx context.Context, brief Brief) (string, error)
}

// Brief is what the model knows about the perfume being described.
type Brief struct {
	Name           string
	Brand          string
	Concentration  string
	TargetAudience string
	Category       string
	Ingredients    []string
}

// Prompt renders the brief into the model prompt. Unknown fields are
// rendered as "unspecified".
func Prompt(b Brief) string {
	return fmt.Sprintf(promptTemplate,
		orUnspecified(b.Name),
		orUnspecified(b.Brand),
		orUnspecified(b.Concentration),
		orUnspecified(b.TargetAudience),
		orUnspecified(b.Category),
		orUnspecified(strings.Join(b.Ingredients, ", ")),
	)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unspecified"
	}
	return s
}
