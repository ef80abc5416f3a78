package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Agent runs the four research stages. Each call is one blocking round trip
// to the model and depends only on its arguments.
type Agent struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewAgent(llm LLMClient, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, logger: logger.Named("generator")}, nil
}

// DeriveMainKeywords returns the main keywords of a niche.
func (a *Agent) DeriveMainKeywords(ctx context.Context, niche string) ([]string, error) {
	var out []string
	err := a.generateJSON(ctx, "main keywords", BuildMainKeywordsPrompt(niche), MainKeywordsShape, &out)
	return out, err
}

// DeriveSeedKeywords returns the seed keyword table for a main keyword.
func (a *Agent) DeriveSeedKeywords(ctx context.Context, mainKeyword string) ([]SeedKeyword, error) {
	var out []SeedKeyword
	err := a.generateJSON(ctx, "seed keywords", BuildSeedKeywordsPrompt(mainKeyword), SeedKeywordsShape, &out)
	return out, err
}

// DeriveExpansion returns FAQs, keywords and product recommendations for a seed keyword.
func (a *Agent) DeriveExpansion(ctx context.Context, seedKeyword string) (ExpansionData, error) {
	var out ExpansionData
	err := a.generateJSON(ctx, "keyword expansion", BuildExpansionPrompt(seedKeyword), ExpansionShape, &out)
	return out, err
}

// ComposeArticle writes the blog post. The output is free text but must carry
// the META DESCRIPTION prefix.
func (a *Agent) ComposeArticle(ctx context.Context, req ArticleRequest) (Article, error) {
	const op = "article"
	raw, err := a.complete(ctx, op, Prompt{Text: BuildArticlePrompt(req)})
	if err != nil {
		return Article{}, err
	}
	article, err := ParseArticle(raw)
	if err != nil {
		a.logMismatch(op, err)
		return Article{}, err
	}
	return article, nil
}

func (a *Agent) generateJSON(ctx context.Context, op, text string, shape Shape, out any) error {
	raw, err := a.complete(ctx, op, Prompt{Text: text, Shape: &shape})
	if err != nil {
		return err
	}
	payload, err := Validate(raw, shape)
	if err != nil {
		a.logMismatch(op, err)
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		se := &SchemaError{Shape: shape.Name, Reason: err.Error(), Raw: raw}
		a.logMismatch(op, se)
		return se
	}
	return nil
}

func (a *Agent) complete(ctx context.Context, op string, prompt Prompt) (string, error) {
	a.logger.Debug("llm request", zap.String("op", op), zap.String("model", a.llm.Name()), zap.Int("bytes", len(prompt.Text)))
	raw, err := a.llm.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		a.logger.Warn("llm request failed", zap.String("op", op), zap.Error(err))
		return "", generationFailure(op, err)
	}
	a.logger.Debug("llm response", zap.String("op", op), zap.Int("bytes", len(raw)))
	return raw, nil
}

func (a *Agent) logMismatch(op string, err error) {
	var se *SchemaError
	if !errors.As(err, &se) {
		return
	}
	a.logger.Warn("unexpected model output",
		zap.String("op", op),
		zap.String("reason", se.Error()),
		zap.String("raw", se.Raw),
	)
}
