package workflow

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"keyword_studio/generator"
)

var (
	// ErrMissingPrerequisite means a transition was invoked before the data it
	// depends on exists. State is left unchanged.
	ErrMissingPrerequisite = errors.New("workflow: missing prerequisite")
	// ErrBusy means another transition is still waiting on the model.
	ErrBusy = errors.New("workflow: a transition is already in progress")
	// ErrEmptyInput means a required text input was blank.
	ErrEmptyInput = errors.New("workflow: input is empty")
	// ErrUnknownKeyword means the selected keyword was not offered by the previous stage.
	ErrUnknownKeyword = errors.New("workflow: keyword is not one of the offered choices")
	// ErrNothingToRetry means Retry was called without a pending failure.
	ErrNothingToRetry = errors.New("workflow: no failed transition to retry")
	// ErrDiscarded means the workflow was started over while the call was in flight.
	ErrDiscarded = errors.New("workflow: result discarded after start over")
)

// GenericFormatMessage replaces schema mismatch details in user-facing state.
const GenericFormatMessage = "The model returned an unexpected format. Please try again."

// Stages is the stage service the controller drives. *generator.Agent implements it.
type Stages interface {
	DeriveMainKeywords(ctx context.Context, niche string) ([]string, error)
	DeriveSeedKeywords(ctx context.Context, mainKeyword string) ([]generator.SeedKeyword, error)
	DeriveExpansion(ctx context.Context, seedKeyword string) (generator.ExpansionData, error)
	ComposeArticle(ctx context.Context, req generator.ArticleRequest) (generator.Article, error)
}

// Controller owns one workflow State. At most one model call is in flight per
// controller; transitions requested meanwhile fail with ErrBusy.
type Controller struct {
	stages Stages
	logger *zap.Logger

	mu    sync.Mutex
	state State
	epoch uint64
	// inflight survives StartOver; it is cleared only when the outbound call returns.
	inflight bool
}

func NewController(stages Stages, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		stages: stages,
		logger: logger.Named("workflow"),
		state:  NewState(),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SubmitNiche derives the main keywords of niche.
func (c *Controller) SubmitNiche(ctx context.Context, niche string) error {
	niche = strings.TrimSpace(niche)
	if niche == "" {
		return ErrEmptyInput
	}
	return c.run(ctx, TransitionNiche, niche, nil, func(ctx context.Context, _ State) (Event, error) {
		kws, err := c.stages.DeriveMainKeywords(ctx, niche)
		if err != nil {
			return nil, err
		}
		return MainKeywordsDerived{Niche: niche, Keywords: kws}, nil
	})
}

// SelectMainKeyword derives the seed keyword table for one of the offered main keywords.
func (c *Controller) SelectMainKeyword(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return ErrEmptyInput
	}
	check := func(s State) error {
		if len(s.MainKeywords) == 0 {
			return ErrMissingPrerequisite
		}
		if !slices.Contains(s.MainKeywords, keyword) {
			return ErrUnknownKeyword
		}
		return nil
	}
	return c.run(ctx, TransitionMainKeyword, keyword, check, func(ctx context.Context, _ State) (Event, error) {
		records, err := c.stages.DeriveSeedKeywords(ctx, keyword)
		if err != nil {
			return nil, err
		}
		return SeedKeywordsDerived{MainKeyword: keyword, Records: records}, nil
	})
}

// SelectSeedKeyword derives the expansion data for one row of the seed keyword table.
func (c *Controller) SelectSeedKeyword(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return ErrEmptyInput
	}
	check := func(s State) error {
		if s.MainKeyword == "" || len(s.SeedKeywords) == 0 {
			return ErrMissingPrerequisite
		}
		if findSeed(s.SeedKeywords, keyword) < 0 {
			return ErrUnknownKeyword
		}
		return nil
	}
	return c.run(ctx, TransitionSeedKeyword, keyword, check, func(ctx context.Context, s State) (Event, error) {
		seed := s.SeedKeywords[findSeed(s.SeedKeywords, keyword)]
		exp, err := c.stages.DeriveExpansion(ctx, seed.Keyword)
		if err != nil {
			return nil, err
		}
		return ExpansionDerived{SeedKeyword: seed, Expansion: exp}, nil
	})
}

// ConfirmSelection records which expansion sections feed the article. It does
// not call the model.
func (c *Controller) ConfirmSelection(sel generator.SectionSelection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight {
		return ErrBusy
	}
	if c.state.Expansion == nil || c.state.SeedKeyword == nil {
		return ErrMissingPrerequisite
	}
	c.state = Reduce(c.state, SelectionConfirmed{Selection: sel})
	return nil
}

// ComposeArticle writes the article for the chosen seed keyword, localized to country.
func (c *Controller) ComposeArticle(ctx context.Context, country string) error {
	country = strings.TrimSpace(country)
	check := func(s State) error {
		if s.Expansion == nil || s.SeedKeyword == nil || s.Stage < StageComposing {
			return ErrMissingPrerequisite
		}
		if country == "" {
			return ErrEmptyInput
		}
		return nil
	}
	return c.run(ctx, TransitionArticle, country, check, func(ctx context.Context, s State) (Event, error) {
		article, err := c.stages.ComposeArticle(ctx, generator.ArticleRequest{
			MainKeyword: s.SeedKeyword.Keyword,
			Country:     country,
			Expansion:   *s.Expansion,
			Selection:   s.Selection,
		})
		if err != nil {
			return nil, err
		}
		return ArticleComposed{Country: country, Article: article}, nil
	})
}

// Retry re-runs the transition that produced the pending failure with the same input.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	f := c.state.Failure
	c.mu.Unlock()
	if f == nil {
		return ErrNothingToRetry
	}
	switch f.Transition {
	case TransitionNiche:
		return c.SubmitNiche(ctx, f.Input)
	case TransitionMainKeyword:
		return c.SelectMainKeyword(ctx, f.Input)
	case TransitionSeedKeyword:
		return c.SelectSeedKeyword(ctx, f.Input)
	case TransitionArticle:
		return c.ComposeArticle(ctx, f.Input)
	default:
		return ErrNothingToRetry
	}
}

// DismissError clears the error overlay and keeps every collected result.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, ErrorDismissed{})
}

// StartOver resets to the initial state. A call still in flight is not
// aborted, but its result is dropped; new transitions fail with ErrBusy
// until that call returns.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = Reduce(c.state, StartedOver{})
}

type stageCall func(ctx context.Context, s State) (Event, error)

func (c *Controller) run(ctx context.Context, tr Transition, input string, check func(State) error, call stageCall) error {
	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return ErrBusy
	}
	if check != nil {
		if err := check(c.state); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.state = Reduce(c.state, TransitionStarted{Transition: tr})
	c.inflight = true
	snap := c.state.Clone()
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Info("transition started", zap.String("transition", string(tr)), zap.String("stage", snap.Stage.String()))
	// The outbound call is not aborted if the caller stops waiting.
	ev, err := call(context.WithoutCancel(ctx), snap)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false
	if epoch != c.epoch {
		c.logger.Info("transition result discarded", zap.String("transition", string(tr)))
		return ErrDiscarded
	}
	if err != nil {
		c.state = Reduce(c.state, TransitionFailed{Failure: failureFor(tr, input, err)})
		c.logger.Warn("transition failed", zap.String("transition", string(tr)), zap.Error(err))
		return err
	}
	c.state = Reduce(c.state, ev)
	c.logger.Info("transition done", zap.String("transition", string(tr)), zap.String("stage", c.state.Stage.String()))
	return nil
}

func failureFor(tr Transition, input string, err error) Failure {
	f := Failure{Transition: tr, Input: input, Kind: KindGenerationFailure, Message: err.Error()}
	if errors.Is(err, generator.ErrSchemaMismatch) {
		f.Kind = KindSchemaMismatch
		f.Message = GenericFormatMessage
	}
	return f
}

func findSeed(records []generator.SeedKeyword, keyword string) int {
	return slices.IndexFunc(records, func(r generator.SeedKeyword) bool {
		return r.Keyword == keyword
	})
}
