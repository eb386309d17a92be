// Package reveal drives the progressive, timed exposure of an assistant
// reply. A Scheduler is a per-message state machine: each tick reveals one
// more character of the parsed reasoning text, and the structured suggestions
// become visible only once the reasoning is fully revealed. The package also
// holds the render policy deciding which messages animate at all.
package reveal

import (
	"sync"
	"time"

	"esmalte/internal/parser"
	"esmalte/pkg/esmaltetypes"
)

// DefaultInterval is the fixed delay between reveal ticks: one character
// every 20ms.
const DefaultInterval = 20 * time.Millisecond

// State identifies the scheduler's position in its lifecycle.
type State int

// Scheduler states. Complete is terminal for a given content identity.
const (
	StateIdle State = iota
	StateRevealing
	StateComplete
)

// Snapshot is the externally visible reveal state for one message instance.
// Suggestions is empty in every state except Complete, regardless of whether
// parsing already found suggestions: the reasoning must finish before the
// suggestion cards appear.
type Snapshot struct {
	Text        string
	Done        bool
	Suggestions []esmaltetypes.SuggestionItem
}

// Scheduler incrementally exposes one assistant message. It is safe for use
// from a timer goroutine concurrent with snapshot reads; ticks for the same
// instance are serialized and strictly monotonic.
type Scheduler struct {
	mu         sync.Mutex
	parsed     esmaltetypes.ParsedResponse
	reasoning  []rune
	revealed   int
	state      State
	content    string
	generation uint64
}

// NewScheduler creates a scheduler for the given raw completion content,
// starting idle with nothing revealed. Empty reasoning completes immediately
// with nothing to reveal.
func NewScheduler(content string) *Scheduler {
	s := &Scheduler{}
	s.reset(content)
	return s
}

// NewInstant creates a scheduler already in the Complete state, with the full
// reasoning text and suggestions exposed on first observation. Used for
// historical messages that must render without animation.
func NewInstant(content string) *Scheduler {
	s := NewScheduler(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed = len(s.reasoning)
	s.state = StateComplete
	return s
}

// reset installs new content and returns the machine to its initial state.
// Callers must hold no lock for NewScheduler; SetContent locks around it.
func (s *Scheduler) reset(content string) {
	s.content = content
	s.parsed = parser.ParseResponse(content)
	s.reasoning = []rune(s.parsed.Reasoning)
	s.revealed = 0
	s.state = StateIdle
	s.generation++
	if len(s.reasoning) == 0 {
		s.state = StateComplete
	}
}

// Generation returns the content-identity token for the current content.
// Ticks carrying a stale token are discarded.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetContent cancels any in-flight reveal and starts a fresh machine for the
// new content, returning its generation token. Setting identical content is
// a no-op: partial state survives only for the same content identity.
func (s *Scheduler) SetContent(content string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content == s.content {
		return s.generation
	}
	s.reset(content)
	return s.generation
}

// Tick advances the reveal by one character. The generation token must match
// the scheduler's current content identity; a stale tick is a no-op so that
// no tick scheduled against superseded content can mutate the replacement's
// state. Returns true if the tick was applied.
func (s *Scheduler) Tick(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.state == StateComplete {
		return false
	}

	s.revealed++
	s.state = StateRevealing
	if s.revealed >= len(s.reasoning) {
		s.revealed = len(s.reasoning)
		s.state = StateComplete
	}
	return true
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done reports whether the reveal has reached the terminal Complete state.
func (s *Scheduler) Done() bool {
	return s.State() == StateComplete
}

// Revealed returns the number of reasoning characters currently exposed.
func (s *Scheduler) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Snapshot returns the exposed prefix of the reasoning text plus, once the
// reveal is complete, the parsed suggestion list.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Text:        string(s.reasoning[:s.revealed]),
		Done:        s.state == StateComplete,
		Suggestions: []esmaltetypes.SuggestionItem{},
	}
	if s.state == StateComplete {
		snap.Suggestions = s.parsed.Suggestions
	}
	return snap
}
