package generator

import "strings"

// SeedKeyword is one row of the seed keyword table. All fields are free-form
// text as produced by the model.
type SeedKeyword struct {
	Keyword           string `json:"keyword"`
	SearchVolume      string `json:"searchVolume"`
	RankingDifficulty string `json:"rankingDifficulty"`
	CPC               string `json:"cpc"`
	BlogPostTopic     string `json:"blogPostTopic"`
}

// ProductRecommendation is a product suggested for a seed keyword.
type ProductRecommendation struct {
	Name        string `json:"name"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// ExpansionData bundles everything derived from a chosen seed keyword.
type ExpansionData struct {
	FAQs                   []string                `json:"faqs"`
	CoreKeywords           []string                `json:"coreKeywords"`
	SecondaryKeywords      []string                `json:"secondaryKeywords"`
	ProductRecommendations []ProductRecommendation `json:"productRecommendations"`
}

// SectionSelection controls which ExpansionData sections feed the article.
type SectionSelection struct {
	FAQs                   bool `json:"faqs"`
	CoreKeywords           bool `json:"coreKeywords"`
	SecondaryKeywords      bool `json:"secondaryKeywords"`
	ProductRecommendations bool `json:"productRecommendations"`
}

// DefaultSelection includes every section.
func DefaultSelection() SectionSelection {
	return SectionSelection{
		FAQs:                   true,
		CoreKeywords:           true,
		SecondaryKeywords:      true,
		ProductRecommendations: true,
	}
}

// Included lists the human-readable names of the selected sections.
func (s SectionSelection) Included() []string {
	var out []string
	if s.FAQs {
		out = append(out, "Frequently Asked Questions")
	}
	if s.CoreKeywords {
		out = append(out, "Core Keywords")
	}
	if s.SecondaryKeywords {
		out = append(out, "Secondary Keywords")
	}
	if s.ProductRecommendations {
		out = append(out, "Product Recommendations")
	}
	return out
}

// ArticleRequest carries the inputs of the article composition stage.
type ArticleRequest struct {
	MainKeyword string
	Country     string
	Expansion   ExpansionData
	Selection   SectionSelection
}

// Article is the composed blog post. Text always starts with the
// "META DESCRIPTION:" line; MetaDescription and Body are split out of it.
type Article struct {
	Text            string `json:"text"`
	MetaDescription string `json:"metaDescription"`
	Title           string `json:"title"`
	Body            string `json:"body"`
}

// Empty reports whether no article has been composed yet.
func (a Article) Empty() bool {
	return strings.TrimSpace(a.Text) == ""
}
