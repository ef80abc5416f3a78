package workflow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword_studio/generator"
)

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Reduce(NewState(), MainKeywordsDerived{Niche: "tea", Keywords: []string{"green tea"}})
	before := s.Clone()

	_ = Reduce(s, SeedKeywordsDerived{MainKeyword: "green tea", Records: []generator.SeedKeyword{{Keyword: "matcha"}}})
	assert.Empty(t, cmp.Diff(before, s))
}

func TestReduce_NewResultClearsDownstream(t *testing.T) {
	s := NewState()
	s = Reduce(s, MainKeywordsDerived{Niche: "tea", Keywords: []string{"green tea", "black tea"}})
	s = Reduce(s, SeedKeywordsDerived{MainKeyword: "green tea", Records: []generator.SeedKeyword{{Keyword: "matcha"}}})
	s = Reduce(s, ExpansionDerived{SeedKeyword: generator.SeedKeyword{Keyword: "matcha"}, Expansion: generator.ExpansionData{FAQs: []string{"q"}}})
	s = Reduce(s, SelectionConfirmed{Selection: generator.SectionSelection{FAQs: true}})
	require.Equal(t, StageComposing, s.Stage)

	s = Reduce(s, SeedKeywordsDerived{MainKeyword: "black tea", Records: []generator.SeedKeyword{{Keyword: "assam"}}})
	assert.Equal(t, StageChoosingSeedKeyword, s.Stage)
	assert.Equal(t, "tea", s.Niche)
	assert.Equal(t, []string{"green tea", "black tea"}, s.MainKeywords)
	assert.Nil(t, s.Expansion)
	assert.Nil(t, s.SeedKeyword)
	assert.Equal(t, generator.DefaultSelection(), s.Selection)
}

func TestReduce_FailureIsOverlay(t *testing.T) {
	s := Reduce(NewState(), MainKeywordsDerived{Niche: "tea", Keywords: []string{"green tea"}})
	s = Reduce(s, TransitionStarted{Transition: TransitionMainKeyword})
	require.True(t, s.Busy)

	failed := Reduce(s, TransitionFailed{Failure: Failure{Kind: KindGenerationFailure, Message: "down", Transition: TransitionMainKeyword, Input: "green tea"}})
	assert.False(t, failed.Busy)
	assert.Empty(t, failed.Pending)
	assert.Equal(t, s.Stage, failed.Stage)
	assert.Equal(t, s.MainKeywords, failed.MainKeywords)

	dismissed := Reduce(failed, ErrorDismissed{})
	assert.Nil(t, dismissed.Failure)
	assert.Equal(t, StageChoosingMainKeyword, dismissed.Stage)
}

func TestReduce_StartedOver(t *testing.T) {
	s := Reduce(NewState(), MainKeywordsDerived{Niche: "tea", Keywords: []string{"green tea"}})
	s = Reduce(s, TransitionStarted{Transition: TransitionMainKeyword})
	assert.Empty(t, cmp.Diff(NewState(), Reduce(s, StartedOver{})))
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "collecting_niche", StageCollectingNiche.String())
	assert.Equal(t, "done", StageDone.String())
	b, err := StageComposing.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "composing", string(b))
}

func TestStage_UnmarshalText(t *testing.T) {
	var s Stage
	require.NoError(t, s.UnmarshalText([]byte("configuring_expansion")))
	assert.Equal(t, StageConfiguringExpansion, s)
	require.Error(t, s.UnmarshalText([]byte("nowhere")))
}
