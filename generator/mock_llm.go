package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var quotedTopicRe = regexp.MustCompile(`"([^"]+)"`)

// MockLLM is a deterministic offline implementation for local demos. It never
// calls an external model; every shape gets a canned, well-formed payload
// built around the first quoted term of the prompt.
type MockLLM struct{}

func (MockLLM) Name() string { return "mock" }

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := "your topic"
	if match := quotedTopicRe.FindStringSubmatch(prompt.Text); len(match) == 2 {
		topic = match[1]
	}
	if prompt.Shape == nil {
		return mockArticle(topic), nil
	}

	var payload any
	switch prompt.Shape.Kind {
	case ShapeStringArray:
		payload = []string{
			topic + " guide",
			"best " + topic,
			topic + " for beginners",
			topic + " tips",
			topic + " mistakes to avoid",
		}
	case ShapeRecordArray:
		rows := make([]SeedKeyword, 0, seedKeywordCount)
		for i := 1; i <= seedKeywordCount; i++ {
			rows = append(rows, SeedKeyword{
				Keyword:           fmt.Sprintf("%s idea %d", topic, i),
				SearchVolume:      fmt.Sprintf("%d", 1000+i*37),
				RankingDifficulty: []string{"Low", "Medium", "High"}[i%3],
				CPC:               fmt.Sprintf("$%d.%02d", 1+i%4, (i*7)%100),
				BlogPostTopic:     fmt.Sprintf("Everything you need to know about %s idea %d", topic, i),
			})
		}
		payload = rows
	case ShapeObject:
		payload = mockExpansion(topic)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mockExpansion(topic string) ExpansionData {
	var exp ExpansionData
	for i := 1; i <= 10; i++ {
		exp.FAQs = append(exp.FAQs, fmt.Sprintf("What is question %d about %s?", i, topic))
	}
	for i := 1; i <= 5; i++ {
		exp.CoreKeywords = append(exp.CoreKeywords, fmt.Sprintf("%s core %d", topic, i))
	}
	for i := 1; i <= 10; i++ {
		exp.SecondaryKeywords = append(exp.SecondaryKeywords, fmt.Sprintf("%s long tail %d", topic, i))
	}
	slug := strings.ReplaceAll(strings.ToLower(topic), " ", "-")
	for i := 1; i <= 20; i++ {
		exp.ProductRecommendations = append(exp.ProductRecommendations, ProductRecommendation{
			Name:        fmt.Sprintf("%s product %d", topic, i),
			Link:        fmt.Sprintf("https://example.com/%s/%d", slug, i),
			Description: fmt.Sprintf("A reliable pick for %s.", topic),
		})
	}
	return exp
}

func mockArticle(topic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s A friendly, practical guide to %s with tips, comparisons and answers to common questions.\n", MetaDescriptionPrefix, topic)
	fmt.Fprintf(&sb, "# The Complete Guide to %s\n\n", topic)
	fmt.Fprintf(&sb, "Let's be honest: you came here because %s felt more complicated than it should.\n\n", topic)
	fmt.Fprintf(&sb, "[Insert image of %s here]\n\n", topic)
	sb.WriteString("## Why It Matters\n\n")
	sb.WriteString("- It saves you time\n- It saves you money\n\n")
	sb.WriteString("| Option | Best for |\n|---|---|\n| Basic | Beginners |\n| Pro | Enthusiasts |\n\n")
	sb.WriteString("## Conclusion\n\nGive it a try and tell me how it goes.\n")
	return sb.String()
}
