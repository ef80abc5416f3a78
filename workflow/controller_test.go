package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"keyword_studio/generator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStages struct {
	mu       sync.Mutex
	calls    []string
	failNext error
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeStages) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	err := f.failNext
	f.failNext = nil
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeStages) DeriveMainKeywords(_ context.Context, niche string) ([]string, error) {
	if err := f.record("main:" + niche); err != nil {
		return nil, err
	}
	return []string{"pour over coffee", "espresso machines"}, nil
}

func (f *fakeStages) DeriveSeedKeywords(_ context.Context, kw string) ([]generator.SeedKeyword, error) {
	if err := f.record("seed:" + kw); err != nil {
		return nil, err
	}
	out := make([]generator.SeedKeyword, 0, 50)
	for i := 0; i < 50; i++ {
		out = append(out, generator.SeedKeyword{
			Keyword:           fmt.Sprintf("%s %d", kw, i),
			SearchVolume:      "1000",
			RankingDifficulty: "Low",
			CPC:               "$1.00",
			BlogPostTopic:     "topic",
		})
	}
	return out, nil
}

func (f *fakeStages) DeriveExpansion(_ context.Context, seed string) (generator.ExpansionData, error) {
	if err := f.record("expand:" + seed); err != nil {
		return generator.ExpansionData{}, err
	}
	return generator.ExpansionData{
		FAQs:              []string{"how to grind?"},
		CoreKeywords:      []string{"grinder"},
		SecondaryKeywords: []string{"burr grinder"},
		ProductRecommendations: []generator.ProductRecommendation{
			{Name: "Kettle", Link: "https://example.com/kettle", Description: "gooseneck"},
		},
	}, nil
}

func (f *fakeStages) ComposeArticle(_ context.Context, req generator.ArticleRequest) (generator.Article, error) {
	if err := f.record("article:" + req.MainKeyword + "/" + req.Country); err != nil {
		return generator.Article{}, err
	}
	return generator.ParseArticle("META DESCRIPTION: brew better\n# Pour Over\n\nBody text.")
}

func advanceToComposing(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))
	require.NoError(t, c.SelectMainKeyword(ctx, "pour over coffee"))
	require.NoError(t, c.SelectSeedKeyword(ctx, "pour over coffee 3"))
	require.NoError(t, c.ConfirmSelection(generator.DefaultSelection()))
}

func TestController_HappyPath(t *testing.T) {
	ctx := context.Background()
	stages := &fakeStages{}
	c := NewController(stages, nil)

	require.NoError(t, c.SubmitNiche(ctx, "  home coffee brewing "))
	s := c.Snapshot()
	assert.Equal(t, StageChoosingMainKeyword, s.Stage)
	assert.Equal(t, "home coffee brewing", s.Niche)
	assert.NotEmpty(t, s.MainKeywords)

	require.NoError(t, c.SelectMainKeyword(ctx, "pour over coffee"))
	s = c.Snapshot()
	assert.Equal(t, StageChoosingSeedKeyword, s.Stage)
	assert.Len(t, s.SeedKeywords, 50)

	require.NoError(t, c.SelectSeedKeyword(ctx, "pour over coffee 3"))
	s = c.Snapshot()
	assert.Equal(t, StageConfiguringExpansion, s.Stage)
	require.NotNil(t, s.Expansion)
	assert.Equal(t, generator.DefaultSelection(), s.Selection)

	require.NoError(t, c.ConfirmSelection(generator.DefaultSelection()))
	assert.Equal(t, StageComposing, c.Snapshot().Stage)

	require.NoError(t, c.ComposeArticle(ctx, "United States"))
	s = c.Snapshot()
	assert.Equal(t, StageDone, s.Stage)
	assert.Equal(t, "United States", s.Country)
	assert.Contains(t, s.Article.Text, generator.MetaDescriptionPrefix+" brew better\n")
	assert.False(t, s.Busy)
	assert.Nil(t, s.Failure)

	assert.Equal(t, []string{
		"main:home coffee brewing",
		"seed:pour over coffee",
		"expand:pour over coffee 3",
		"article:pour over coffee 3/United States",
	}, stages.calls)
}

func TestController_ComposeBeforeExpansion(t *testing.T) {
	ctx := context.Background()
	c := NewController(&fakeStages{}, nil)
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))

	before := c.Snapshot()
	err := c.ComposeArticle(ctx, "United States")
	require.ErrorIs(t, err, ErrMissingPrerequisite)
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}
}

func TestController_PrerequisitesLeaveStateUnchanged(t *testing.T) {
	c := NewController(&fakeStages{}, nil)
	ctx := context.Background()
	fresh := c.Snapshot()

	require.ErrorIs(t, c.SelectMainKeyword(ctx, "x"), ErrMissingPrerequisite)
	require.ErrorIs(t, c.SelectSeedKeyword(ctx, "x"), ErrMissingPrerequisite)
	require.ErrorIs(t, c.ConfirmSelection(generator.DefaultSelection()), ErrMissingPrerequisite)
	require.ErrorIs(t, c.SubmitNiche(ctx, "   "), ErrEmptyInput)
	assert.Empty(t, cmp.Diff(fresh, c.Snapshot()))
}

func TestController_UnknownKeyword(t *testing.T) {
	ctx := context.Background()
	c := NewController(&fakeStages{}, nil)
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))
	require.ErrorIs(t, c.SelectMainKeyword(ctx, "tea"), ErrUnknownKeyword)
	assert.Equal(t, StageChoosingMainKeyword, c.Snapshot().Stage)
}

func TestController_ComposeNeedsCountry(t *testing.T) {
	c := NewController(&fakeStages{}, nil)
	advanceToComposing(t, c)
	require.ErrorIs(t, c.ComposeArticle(context.Background(), " "), ErrEmptyInput)
	assert.Equal(t, StageComposing, c.Snapshot().Stage)
}

func TestController_SchemaMismatchKeepsData(t *testing.T) {
	ctx := context.Background()
	stages := &fakeStages{}
	c := NewController(stages, nil)
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))

	stages.failNext = &generator.SchemaError{Shape: "seed keywords", Reason: "payload is not valid JSON", Raw: "not json"}
	err := c.SelectMainKeyword(ctx, "pour over coffee")
	require.ErrorIs(t, err, generator.ErrSchemaMismatch)

	s := c.Snapshot()
	assert.Equal(t, StageChoosingMainKeyword, s.Stage)
	assert.Equal(t, "home coffee brewing", s.Niche)
	assert.NotEmpty(t, s.MainKeywords)
	assert.False(t, s.Busy)
	require.NotNil(t, s.Failure)
	assert.Equal(t, KindSchemaMismatch, s.Failure.Kind)
	assert.Equal(t, GenericFormatMessage, s.Failure.Message)
	assert.NotContains(t, s.Failure.Message, "not json")
}

func TestController_GenerationFailureRetry(t *testing.T) {
	ctx := context.Background()
	stages := &fakeStages{}
	c := NewController(stages, nil)
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))

	stages.failNext = &generator.GenerationError{Op: "seed keywords", Err: errors.New("503 service unavailable")}
	err := c.SelectMainKeyword(ctx, "pour over coffee")
	require.ErrorIs(t, err, generator.ErrGenerationFailure)

	s := c.Snapshot()
	assert.False(t, s.Busy)
	require.NotNil(t, s.Failure)
	assert.Equal(t, KindGenerationFailure, s.Failure.Kind)
	assert.Contains(t, s.Failure.Message, "503 service unavailable")
	assert.Equal(t, TransitionMainKeyword, s.Failure.Transition)

	require.NoError(t, c.Retry(ctx))
	s = c.Snapshot()
	assert.Nil(t, s.Failure)
	assert.Equal(t, StageChoosingSeedKeyword, s.Stage)
	assert.Equal(t, "pour over coffee", s.MainKeyword)
}

func TestController_DismissKeepsStage(t *testing.T) {
	ctx := context.Background()
	stages := &fakeStages{}
	c := NewController(stages, nil)
	advanceToComposing(t, c)

	stages.failNext = errors.New("boom")
	require.Error(t, c.ComposeArticle(ctx, "Canada"))
	require.NotNil(t, c.Snapshot().Failure)

	c.DismissError()
	s := c.Snapshot()
	assert.Nil(t, s.Failure)
	assert.Equal(t, StageComposing, s.Stage)
	assert.NotNil(t, s.Expansion)
	require.ErrorIs(t, c.Retry(ctx), ErrNothingToRetry)
}

func TestController_StartOverIsIdempotent(t *testing.T) {
	c := NewController(&fakeStages{}, nil)
	c.StartOver()
	assert.Empty(t, cmp.Diff(NewState(), c.Snapshot()))

	advanceToComposing(t, c)
	require.NoError(t, c.ComposeArticle(context.Background(), "United States"))
	c.StartOver()
	assert.Empty(t, cmp.Diff(NewState(), c.Snapshot()))
	c.StartOver()
	assert.Empty(t, cmp.Diff(NewState(), c.Snapshot()))
}

func TestController_RejectsWhileBusy(t *testing.T) {
	stages := &fakeStages{block: make(chan struct{}), entered: make(chan struct{})}
	c := NewController(stages, nil)

	done := make(chan error, 1)
	go func() { done <- c.SubmitNiche(context.Background(), "home coffee brewing") }()
	<-stages.entered

	s := c.Snapshot()
	assert.True(t, s.Busy)
	assert.Equal(t, TransitionNiche, s.Pending)
	require.ErrorIs(t, c.SubmitNiche(context.Background(), "tea"), ErrBusy)

	close(stages.block)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().Busy)
}

func TestController_StartOverDiscardsInFlightResult(t *testing.T) {
	stages := &fakeStages{block: make(chan struct{}), entered: make(chan struct{})}
	c := NewController(stages, nil)

	done := make(chan error, 1)
	go func() { done <- c.SubmitNiche(context.Background(), "home coffee brewing") }()
	<-stages.entered

	c.StartOver()
	close(stages.block)
	require.ErrorIs(t, <-done, ErrDiscarded)
	assert.Empty(t, cmp.Diff(NewState(), c.Snapshot()))
}

func TestController_StartOverKeepsSingleCallInFlight(t *testing.T) {
	stages := &fakeStages{block: make(chan struct{}), entered: make(chan struct{})}
	c := NewController(stages, nil)

	done := make(chan error, 1)
	go func() { done <- c.SubmitNiche(context.Background(), "one") }()
	<-stages.entered

	c.StartOver()
	require.ErrorIs(t, c.SubmitNiche(context.Background(), "two"), ErrBusy)
	assert.Equal(t, StageCollectingNiche, c.Snapshot().Stage)

	close(stages.block)
	require.ErrorIs(t, <-done, ErrDiscarded)

	stages.mu.Lock()
	stages.block, stages.entered = nil, nil
	stages.mu.Unlock()
	require.NoError(t, c.SubmitNiche(context.Background(), "two"))
	assert.Equal(t, []string{"main:one", "main:two"}, stages.calls)
	assert.Equal(t, "two", c.Snapshot().Niche)
}

func TestController_CanceledContextDoesNotAbortCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewController(ctxCheckingStages{&fakeStages{}}, nil)
	require.NoError(t, c.SubmitNiche(ctx, "home coffee brewing"))
}

type ctxCheckingStages struct{ *fakeStages }

func (ctxCheckingStages) DeriveMainKeywords(ctx context.Context, _ string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{"a"}, nil
}
