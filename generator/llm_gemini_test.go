package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func TestGeminiSchema_StringArray(t *testing.T) {
	s := geminiSchema(MainKeywordsShape)
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeString, s.Items.Type)
}

func TestGeminiSchema_RecordArrayMatchesShape(t *testing.T) {
	s := geminiSchema(SeedKeywordsShape)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeObject, s.Items.Type)
	assert.Equal(t, SeedKeywordsShape.FieldNames(), s.Items.Required)
	for _, name := range SeedKeywordsShape.FieldNames() {
		require.Contains(t, s.Items.Properties, name)
		assert.Equal(t, genai.TypeString, s.Items.Properties[name].Type)
	}
}

func TestGeminiSchema_ExpansionObject(t *testing.T) {
	s := geminiSchema(ExpansionShape)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, ExpansionShape.FieldNames(), s.Required)

	products := s.Properties["productRecommendations"]
	require.NotNil(t, products)
	assert.Equal(t, genai.TypeArray, products.Type)
	assert.Equal(t, []string{"name", "link", "description"}, products.Items.Required)
	assert.Equal(t, genai.TypeArray, s.Properties["faqs"].Type)
}

func TestResponseText_SkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `["a",`},
				{Text: `"b"]`},
			}},
		}},
	}
	assert.Equal(t, `["a","b"]`, responseText(resp))
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
}

func TestNewGeminiLLM_RequiresKey(t *testing.T) {
	_, err := NewGeminiLLM(t.Context(), &LLMSettings{Provider: "gemini"})
	require.Error(t, err)
}
