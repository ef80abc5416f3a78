package generator

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiLLM implements LLMClient on top of the official genai client.
// Shape-constrained prompts are sent with an application/json MIME type and a
// response schema derived from the Shape.
type GeminiLLM struct {
	cli   *genai.Client
	model string
}

func NewGeminiLLM(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiLLM{cli: cli, model: model}, nil
}

func (g *GeminiLLM) Name() string { return "gemini:" + g.model }

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var conf *genai.GenerateContentConfig
	if prompt.Shape != nil {
		conf = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiSchema(*prompt.Shape),
		}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt.Text, genai.RoleUser)},
		conf,
	)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	txt := responseText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", &GenerationError{Err: ErrEmptyResponse}
	}
	return txt, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func geminiSchema(s Shape) *genai.Schema {
	switch s.Kind {
	case ShapeStringArray:
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	case ShapeRecordArray:
		return &genai.Schema{Type: genai.TypeArray, Items: geminiObject(s.Fields)}
	case ShapeObject:
		return geminiObject(s.Fields)
	default:
		return nil
	}
}

func geminiObject(fields []Field) *genai.Schema {
	obj := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		obj.Properties[f.Name] = geminiField(f)
		obj.Required = append(obj.Required, f.Name)
		obj.PropertyOrdering = append(obj.PropertyOrdering, f.Name)
	}
	return obj
}

func geminiField(f Field) *genai.Schema {
	var s *genai.Schema
	switch f.Kind {
	case FieldStringArray:
		s = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	case FieldRecordArray:
		s = &genai.Schema{Type: genai.TypeArray, Items: geminiObject(f.Fields)}
	default:
		s = &genai.Schema{Type: genai.TypeString}
	}
	s.Description = f.Description
	return s
}
