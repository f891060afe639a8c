package ai

import "strings"

const basePrompt = `You write listing copy for a home-baker cake marketplace.

Rules:

* Write 2 to 3 sentences, at most 60 words.
* Describe flavour, texture, and the occasion the cake suits.
* Do NOT invent prices, allergens, delivery terms, or discounts.
* Plain text only: no markdown, no headings, no emoji, no surrounding quotes.`

var categoryPrompts = map[string]string{
	"wedding":     "Tone: elegant and romantic. Mention tiers or decoration only if the notes do.",
	"birthday":    "Tone: cheerful and celebratory.",
	"cupcakes":    "Tone: playful. Treat the product as a box of individual cupcakes.",
	"vegan":       "Tone: warm. Say it is made without animal products; do not make health claims.",
	"gluten free": "Tone: reassuring. Say it is made without gluten ingredients; do not make medical claims.",
	"macarons":    "Tone: refined. Treat the product as a box of macarons.",
	"customize":   "Tone: inviting. Encourage the buyer to describe their design in the order note.",
}

// BuildDescriptionPrompt appends the tone for category to the base rules.
func BuildDescriptionPrompt(category string) string {
	style, ok := categoryPrompts[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return basePrompt
	}
	return basePrompt + "\n\n" + style
}
