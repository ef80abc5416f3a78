// Package workflow holds the research workflow state machine. State is an
// explicit value changed only through Reduce; Controller owns the single
// instance and gates re-entrant transitions.
package workflow

import (
	"fmt"
	"slices"

	"keyword_studio/generator"
)

// Stage marks where the user is in the workflow.
type Stage int

const (
	StageCollectingNiche Stage = iota
	StageChoosingMainKeyword
	StageChoosingSeedKeyword
	StageConfiguringExpansion
	StageComposing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCollectingNiche:
		return "collecting_niche"
	case StageChoosingMainKeyword:
		return "choosing_main_keyword"
	case StageChoosingSeedKeyword:
		return "choosing_seed_keyword"
	case StageConfiguringExpansion:
		return "configuring_expansion"
	case StageComposing:
		return "composing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	for st := StageCollectingNiche; st <= StageDone; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("workflow: unknown stage %q", b)
}

// Transition names a state-changing user action that calls the model.
type Transition string

const (
	TransitionNiche       Transition = "submit_niche"
	TransitionMainKeyword Transition = "select_main_keyword"
	TransitionSeedKeyword Transition = "select_seed_keyword"
	TransitionArticle     Transition = "compose_article"
)

// ErrorKind classifies a pending failure.
type ErrorKind string

const (
	KindGenerationFailure ErrorKind = "generation_failure"
	KindSchemaMismatch    ErrorKind = "schema_mismatch"
)

// Failure is the error overlay. It never replaces collected data; Input is
// what the failed transition was called with so it can be retried.
type Failure struct {
	Kind       ErrorKind  `json:"kind"`
	Message    string     `json:"message"`
	Transition Transition `json:"transition"`
	Input      string     `json:"input"`
}

// State is the whole workflow. Presentation code only ever sees copies.
type State struct {
	Stage        Stage                      `json:"stage"`
	Niche        string                     `json:"niche,omitempty"`
	MainKeywords []string                   `json:"mainKeywords,omitempty"`
	MainKeyword  string                     `json:"mainKeyword,omitempty"`
	SeedKeywords []generator.SeedKeyword    `json:"seedKeywords,omitempty"`
	SeedKeyword  *generator.SeedKeyword     `json:"seedKeyword,omitempty"`
	Expansion    *generator.ExpansionData   `json:"expansion,omitempty"`
	Selection    generator.SectionSelection `json:"selection"`
	Country      string                     `json:"country,omitempty"`
	Article      generator.Article          `json:"article"`
	Busy         bool                       `json:"busy"`
	Pending      Transition                 `json:"pending,omitempty"`
	Failure      *Failure                   `json:"failure,omitempty"`
}

// NewState returns the initial state.
func NewState() State {
	return State{
		Stage:     StageCollectingNiche,
		Selection: generator.DefaultSelection(),
	}
}

// Clone returns a deep copy so callers cannot alias controller-owned slices.
func (s State) Clone() State {
	out := s
	out.MainKeywords = slices.Clone(s.MainKeywords)
	out.SeedKeywords = slices.Clone(s.SeedKeywords)
	if s.SeedKeyword != nil {
		sk := *s.SeedKeyword
		out.SeedKeyword = &sk
	}
	if s.Expansion != nil {
		exp := cloneExpansion(*s.Expansion)
		out.Expansion = &exp
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	return out
}

func cloneExpansion(e generator.ExpansionData) generator.ExpansionData {
	return generator.ExpansionData{
		FAQs:                   slices.Clone(e.FAQs),
		CoreKeywords:           slices.Clone(e.CoreKeywords),
		SecondaryKeywords:      slices.Clone(e.SecondaryKeywords),
		ProductRecommendations: slices.Clone(e.ProductRecommendations),
	}
}

// Event is an input to Reduce.
type Event interface{ isEvent() }

type (
	TransitionStarted   struct{ Transition Transition }
	MainKeywordsDerived struct {
		Niche    string
		Keywords []string
	}
	SeedKeywordsDerived struct {
		MainKeyword string
		Records     []generator.SeedKeyword
	}
	ExpansionDerived struct {
		SeedKeyword generator.SeedKeyword
		Expansion   generator.ExpansionData
	}
	SelectionConfirmed struct{ Selection generator.SectionSelection }
	ArticleComposed    struct {
		Country string
		Article generator.Article
	}
	TransitionFailed struct{ Failure Failure }
	ErrorDismissed   struct{}
	StartedOver      struct{}
)

func (TransitionStarted) isEvent()   {}
func (MainKeywordsDerived) isEvent() {}
func (SeedKeywordsDerived) isEvent() {}
func (ExpansionDerived) isEvent()    {}
func (SelectionConfirmed) isEvent()  {}
func (ArticleComposed) isEvent()     {}
func (TransitionFailed) isEvent()    {}
func (ErrorDismissed) isEvent()      {}
func (StartedOver) isEvent()         {}

// Reduce applies ev to s and returns the next state. It does not check
// prerequisites; Controller does that before any event is produced. A stage
// result clears everything downstream of it.
func Reduce(s State, ev Event) State {
	next := s.Clone()
	switch e := ev.(type) {
	case TransitionStarted:
		next.Busy = true
		next.Pending = e.Transition
		next.Failure = nil
	case MainKeywordsDerived:
		next = clearFrom(next, StageChoosingMainKeyword)
		next.Niche = e.Niche
		next.MainKeywords = slices.Clone(e.Keywords)
		next.Stage = StageChoosingMainKeyword
		next = settle(next)
	case SeedKeywordsDerived:
		next = clearFrom(next, StageChoosingSeedKeyword)
		next.MainKeyword = e.MainKeyword
		next.SeedKeywords = slices.Clone(e.Records)
		next.Stage = StageChoosingSeedKeyword
		next = settle(next)
	case ExpansionDerived:
		next = clearFrom(next, StageConfiguringExpansion)
		sk := e.SeedKeyword
		exp := cloneExpansion(e.Expansion)
		next.SeedKeyword = &sk
		next.Expansion = &exp
		next.Stage = StageConfiguringExpansion
		next = settle(next)
	case SelectionConfirmed:
		next = clearFrom(next, StageComposing)
		next.Selection = e.Selection
		next.Stage = StageComposing
	case ArticleComposed:
		next.Country = e.Country
		next.Article = e.Article
		next.Stage = StageDone
		next = settle(next)
	case TransitionFailed:
		f := e.Failure
		next.Failure = &f
		next = settle(next)
	case ErrorDismissed:
		next.Failure = nil
	case StartedOver:
		return NewState()
	}
	return next
}

func settle(s State) State {
	s.Busy = false
	s.Pending = ""
	return s
}

// clearFrom drops the data produced at or after stage.
func clearFrom(s State, stage Stage) State {
	if stage <= StageChoosingMainKeyword {
		s.Niche = ""
		s.MainKeywords = nil
	}
	if stage <= StageChoosingSeedKeyword {
		s.MainKeyword = ""
		s.SeedKeywords = nil
	}
	if stage <= StageConfiguringExpansion {
		s.SeedKeyword = nil
		s.Expansion = nil
		s.Selection = generator.DefaultSelection()
	}
	if stage <= StageComposing {
		s.Country = ""
		s.Article = generator.Article{}
	}
	s.Failure = nil
	return s
}
