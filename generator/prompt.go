package generator

import (
	"fmt"
	"strings"
)

// Prompt is one request to the model. Shape is nil for free-text output.
type Prompt struct {
	Text  string
	Shape *Shape
}

// MetaDescriptionPrefix is the literal every composed article starts with.
const MetaDescriptionPrefix = "META DESCRIPTION:"

const (
	seedKeywordCount    = 50
	articleTargetWords  = 1500
	metaDescriptionSize = 155
)

// BuildMainKeywordsPrompt asks for the top main keywords of a niche.
func BuildMainKeywordsPrompt(niche string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Provide a comprehensive list of the top main keywords related to \"%s\". ", niche)
	sb.WriteString("Include terms that are highly relevant and frequently searched by users interested in this topic.\n\n")
	sb.WriteString("Provide the output as a clean JSON array of strings, with each string being a keyword.\n")
	sb.WriteString(MainKeywordsShape.Instruction())
	return sb.String()
}

// BuildSeedKeywordsPrompt asks for a table of related keywords with metrics.
func BuildSeedKeywordsPrompt(mainKeyword string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a detailed table for the seed keyword and its related keywords. For the keyword \"%s\", ", mainKeyword)
	fmt.Fprintf(&sb, "provide %d entries with columns for estimated search volume, ranking difficulty, CPC (Cost Per Click), and possible blog post topics. ", seedKeywordCount)
	sb.WriteString("Ensure all related keywords are highly relevant and frequently searched by users interested in this topic, and make the table clear and accurate.\n\n")
	sb.WriteString("Provide each table row as one JSON object.\n")
	sb.WriteString(SeedKeywordsShape.Instruction())
	return sb.String()
}

// BuildExpansionPrompt asks for FAQs, keywords and product recommendations.
func BuildExpansionPrompt(seedKeyword string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "For the keyword \"%s\", please provide the following:\n", seedKeyword)
	sb.WriteString("- Frequently Asked Questions (FAQs): List at least 10 common questions that users typically ask about this topic.\n")
	sb.WriteString("- Core Keywords: Identify the 5-10 most relevant primary keywords associated with the main keyword.\n")
	sb.WriteString("- Secondary Keywords: List 10-15 secondary keywords or long-tail keywords that can be used to optimize content.\n")
	sb.WriteString("- Top Product Recommendations: Provide a detailed list of the top 20 products that are highly relevant to the keyword. ")
	sb.WriteString("This should include product names, links, and brief descriptions.\n")
	sb.WriteString("Please ensure that your response is comprehensive, accurate, and up-to-date.\n\n")
	sb.WriteString(ExpansionShape.Instruction())
	return sb.String()
}

// BuildArticlePrompt asks for the final blog post. Only the sections flagged
// in req.Selection are listed under "Information Provided".
func BuildArticlePrompt(req ArticleRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Act like an expert content writer assigned to create a high-quality, SEO-optimized blog post about \"%s\" for an audience in \"%s\".\n", req.MainKeyword, req.Country)
	sb.WriteString("An outline is provided below.\n\n")
	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Content Structure:\n")
	sb.WriteString("   - Introduction: Start with an engaging hook that captures the essence of the topic.\n")
	fmt.Fprintf(&sb, "   - Body: Incorporate the provided %s seamlessly into the content. ", bodySources(req.Selection))
	sb.WriteString("Develop each section thoroughly, ensuring it adds value and depth to the reader's understanding. ")
	sb.WriteString("Where appropriate, include tables to present data or comparisons clearly.\n")
	sb.WriteString("   - Conclusion: Summarize key insights and encourage reader engagement with a compelling call-to-action.\n")
	sb.WriteString("2. Writing Style:\n")
	sb.WriteString("   - Adopt a natural, organic and casual tone.\n")
	sb.WriteString("   - Use simple, everyday language, avoiding jargon. Write with a unique, personal, and engaging voice.\n")
	sb.WriteString("   - Use formatting like bolding, italics, bullet points, and short paragraphs for readability.\n")
	sb.WriteString("   - Write conversationally using \"you\" and \"I\".\n")
	sb.WriteString("   - Be witty and clever, including subtle humor or analogies.\n")
	sb.WriteString("   - Include relevant anecdotes or personal insights.\n")
	sb.WriteString("   - Be authoritative yet approachable.\n")
	sb.WriteString("   - Use a mix of simple, compound, and complex sentences.\n")
	sb.WriteString("   - Vary sentence lengths for a human-like rhythm.\n")
	sb.WriteString("   - Ensure a logical flow with smooth transitions.\n")
	fmt.Fprintf(&sb, "   - Match spelling, units, currency and cultural references to readers in %s.\n", req.Country)
	sb.WriteString("3. SEO Optimization:\n")
	sb.WriteString("   - Integrate the main keyword and secondary keywords naturally.\n")
	sb.WriteString("   - Use headings and subheadings with keywords where appropriate.\n")
	fmt.Fprintf(&sb, "   - Craft a compelling meta description (~%d characters) that includes the main keyword. ", metaDescriptionSize)
	fmt.Fprintf(&sb, "Start the entire response with \"%s\" followed by the description, then a newline, and then the full article.\n", MetaDescriptionPrefix)
	sb.WriteString("4. EEAT Compliance (Experience, Expertise, Authoritativeness, Trustworthiness):\n")
	sb.WriteString("   - Provide accurate, detailed information.\n")
	sb.WriteString("   - Build trustworthiness through honest, transparent content.\n")
	sb.WriteString("5. Content Variety:\n")
	sb.WriteString("   - Suggest where to insert relevant images (e.g., \"[Insert image of description here]\").\n")
	sb.WriteString("   - Include tables to organize complex information if it makes sense.\n")
	sb.WriteString("6. Additional Guidelines:\n")
	fmt.Fprintf(&sb, "   - Length: Aim for around %d,%03d words.\n", articleTargetWords/1000, articleTargetWords%1000)
	sb.WriteString("   - Originality: Ensure the content is original and not AI-detectable.\n\n")
	sb.WriteString("Information Provided:\n")
	sb.WriteString(articleInformation(req))
	sb.WriteString("\nObjective: Create a blog post that informs, engages, and resonates with the reader, ")
	sb.WriteString("positioning it as a valuable resource that stands out in search engine results. Deliver the article ready-to-publish.")
	return sb.String()
}

// bodySources names the selected question sections the body should weave in.
func bodySources(sel SectionSelection) string {
	switch {
	case sel.FAQs && sel.SecondaryKeywords:
		return "Frequently Asked Questions (FAQs) and secondary keywords/questions"
	case sel.FAQs:
		return "Frequently Asked Questions (FAQs)"
	case sel.SecondaryKeywords:
		return "secondary keywords/questions"
	default:
		return "information"
	}
}

func articleInformation(req ArticleRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- Main Keyword/Title: %s\n", req.MainKeyword)
	sel, exp := req.Selection, req.Expansion
	if sel.FAQs {
		fmt.Fprintf(&sb, "- Frequently Asked Questions (FAQs): %s\n", strings.Join(exp.FAQs, ", "))
	}
	if sel.SecondaryKeywords {
		fmt.Fprintf(&sb, "- Secondary Keywords/Questions: %s\n", strings.Join(exp.SecondaryKeywords, ", "))
	}
	if sel.CoreKeywords {
		fmt.Fprintf(&sb, "- Core Keywords to include: %s\n", strings.Join(exp.CoreKeywords, ", "))
	}
	if sel.ProductRecommendations {
		sb.WriteString("- Top Product Recommendations:\n")
		for _, p := range exp.ProductRecommendations {
			fmt.Fprintf(&sb, "  - %s: %s (%s)\n", p.Name, p.Description, p.Link)
		}
	}
	return sb.String()
}
