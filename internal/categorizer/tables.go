package categorizer

import (
	"strings"

	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"
)

// TransferGroup is an ordered set of transfer phrases and the category they
// route to.
type TransferGroup struct {
	Keywords []string
	Target   string
}

// DefaultTransferGroups are checked in order. Payment phrases come first so
// they route to card payments rather than generic transfers.
var DefaultTransferGroups = []TransferGroup{
	{
		Keywords: []string{"payment thank you", "payment received", "credit card payment", "payment"},
		Target:   models.CategoryCreditCardPayments,
	},
	{
		Keywords: []string{"transfer", "e-transfer", "direct deposit", "refund", "return", "points"},
		Target:   models.CategoryTransfers,
	},
}

// DefaultPersonalKeywords flag a row as personal whatever its category.
var DefaultPersonalKeywords = []string{
	"salon", "spa", "barber", "gym", "hobby", "massage", "openai", "open ai", "chatgpt",
}

// DefaultTagRules label rows by who or what they concern. Tags follow table
// order.
var DefaultTagRules = []models.TagRule{
	{Keyword: "david", Tag: "David"},
	{Keyword: "denys", Tag: "Denys"},
	{Keyword: "cookie", Tag: "Cookie"},
}

// DefaultKeywordTable is evaluated top to bottom; the first entry with a
// matching keyword and an existing target wins. Brands precede the merchant
// table, and generic single words come last.
var DefaultKeywordTable = models.KeywordTable{Rules: []models.KeywordRule{
	{Keywords: []string{"apple online store", "apple store"}, Category: models.CategoryElectronics, Fallback: models.CategoryGeneralShopping},
	{Keywords: []string{"ikea"}, Category: models.CategoryFurniture, Fallback: models.CategoryGeneralShopping},
	{Keywords: []string{"costco"}, Category: models.CategoryGroceries},

	{Keywords: []string{"metro", "iga", "provigo", "loblaws", "super c"}, Category: models.CategoryGroceries},
	{Keywords: []string{"boulangerie", "patisserie", "starbucks", "tim hortons"}, Category: models.CategoryBakeryCoffee},
	{Keywords: []string{"esso", "shell", "petro"}, Category: models.CategoryGasFuel},
	{Keywords: []string{"stm"}, Category: models.CategoryPublicTransit},
	{Keywords: []string{"amazon", "walmart", "canadian tire"}, Category: models.CategoryGeneralShopping},
	{Keywords: []string{"hydro", "bell", "videotron", "virgin"}, Category: models.CategoryUtilities},
	{Keywords: []string{"hockey", "tennis", "ski", "camp", "piano"}, Category: models.CategorySports},
	{Keywords: []string{"apple.com/bill", "apple bill", "itunes", "icloud", "apple music", "apple tv", "netflix", "disney", "spotify"}, Category: models.CategorySubscriptions},

	{Keywords: []string{"shop"}, Category: models.CategoryGeneralShopping},
	{Keywords: []string{"gas"}, Category: models.CategoryGasFuel},
	{Keywords: []string{"cafe", "coffee", "bakery"}, Category: models.CategoryBakeryCoffee},
}}

// LegacyCategoryAliases maps free-text statement categories to taxonomy
// leaves. Keys are normalized.
var LegacyCategoryAliases = map[string]string{
	"food":              models.CategoryGroceries,
	"boulangerie":       models.CategoryBakeryCoffee,
	"sushi":             "Restaurants",
	"eating out":        "Restaurants",
	"dine out":          "Restaurants",
	"house":             "Home Maintenance & Repairs",
	"home":              "Home Maintenance & Repairs",
	"furniture":         models.CategoryFurniture,
	"appliance":         models.CategoryFurniture,
	"deck":              "Home Maintenance & Repairs",
	"air conditioner":   "Home Maintenance & Repairs",
	"hydro quebec":      models.CategoryUtilities,
	"internet":          models.CategoryUtilities,
	"virgin":            models.CategoryUtilities,
	"gas":               models.CategoryGasFuel,
	"stm":               models.CategoryPublicTransit,
	"parking":           "Parking",
	"car registration":  "Car Maintenance & Registration",
	"car dl":            "Car Maintenance & Registration",
	"hockey":            models.CategorySports,
	"summer camp":       "Camps & Lessons",
	"piano":             "Activities & Recreation",
	"school":            "School & Education",
	"pet food":          "Pet Food & Care",
	"amazon":            models.CategoryGeneralShopping,
	"electronics":       models.CategoryElectronics,
	"cosmetics":         "Cosmetics & Personal Care",
	"cinema":            "Entertainment",
	"tickets":           "Tickets & Events",
	"aquaparc":          "Activities & Recreation",
	"ski":               "Activities & Recreation",
	"tennis":            "Activities & Recreation",
	"mortgage":          "Mortgage",
	"condo fees":        "Condo Fees",
	"property tax":      "Property Tax",
	"payment thank you": models.CategoryCreditCardPayments,
	"transfer":          models.CategoryTransfers,
	"return":            models.CategoryTransfers,
	"points":            models.CategoryTransfers,
}

// MapStatementCategory resolves a statement's own category cell: an existing
// category name is returned as is, a known alias is translated, anything
// else is returned trimmed.
func MapStatementCategory(raw string) string {
	key := textutils.Normalize(raw)
	if key == "" {
		return ""
	}
	if alias, ok := LegacyCategoryAliases[key]; ok {
		return alias
	}
	return strings.TrimSpace(raw)
}

// normalizePhrases normalizes every phrase and drops the empty ones.
func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := textutils.Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// containsAny returns the first phrase found in any of texts.
func containsAny(phrases []string, texts ...string) (string, bool) {
	for _, phrase := range phrases {
		for _, text := range texts {
			if textutils.ContainsPhrase(text, phrase) {
				return phrase, true
			}
		}
	}
	return "", false
}
