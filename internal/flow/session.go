package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"product-studio/internal/agent/deps"
	"product-studio/internal/agent/prompt"
	"product-studio/internal/model"
)

var (
	// ErrValidation means topic or audience was blank; no provider call was made
	ErrValidation = errors.New("topic and audience are required")
	// ErrGenerationInProgress means the session is already Loading
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	// ErrSuperseded means StartOver ran while the attempt was in flight; its result was dropped
	ErrSuperseded = errors.New("generation attempt was superseded")
)

// Snapshot is a read-only copy of a session for presentation
type Snapshot struct {
	ID        string         `json:"sessionId"`
	Step      model.AppStep  `json:"step"`
	Topic     string         `json:"topic"`
	Audience  string         `json:"audience"`
	Product   *model.Product `json:"product,omitempty"`
	Error     string         `json:"error,omitempty"`
	Cause     error          `json:"-"` // underlying failure behind Error
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Session is one user's pass through Idea -> Loading -> Result.
// All state is mutated only through Begin, Attempt.Run and StartOver.
type Session struct {
	id      string
	content deps.ContentGenerator
	cover   deps.CoverGenerator
	now     func() time.Time

	mu         sync.Mutex
	step       model.AppStep
	topic      string
	audience   string
	product    *model.Product
	errMsg     string
	lastErr    error
	generation uint64 // bumped by Begin and StartOver
	updatedAt  time.Time
	lastSeen   time.Time
}

// NewSession creates a session in the Idea step
func NewSession(id string, content deps.ContentGenerator, cover deps.CoverGenerator) *Session {
	return newSession(id, content, cover, time.Now)
}

func newSession(id string, content deps.ContentGenerator, cover deps.CoverGenerator, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:        id,
		content:   content,
		cover:     cover,
		now:       now,
		step:      model.StepIdea,
		updatedAt: t,
		lastSeen:  t,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Attempt is a generation that has passed validation and moved the session to Loading
type Attempt struct {
	session    *Session
	generation uint64
	topic      string
	audience   string
}

// Generate runs a full attempt synchronously: Begin, then Run
func (s *Session) Generate(ctx context.Context, topic, audience string) error {
	attempt, err := s.Begin(topic, audience)
	if err != nil {
		return err
	}
	return attempt.Run(ctx)
}

// Begin validates the inputs and moves the session to Loading.
// Blank inputs leave the step unchanged and set a validation message.
func (s *Session) Begin(topic, audience string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == model.StepLoading {
		return nil, ErrGenerationInProgress
	}

	s.topic = topic
	s.audience = audience
	s.touchLocked()

	topic = strings.TrimSpace(topic)
	audience = strings.TrimSpace(audience)
	if topic == "" || audience == "" {
		s.errMsg = prompt.ValidationMessage
		s.lastErr = ErrValidation
		return nil, ErrValidation
	}

	s.errMsg = ""
	s.lastErr = nil
	s.product = nil
	s.step = model.StepLoading
	s.generation++
	log.Printf("[FLOW] Session %s -> %s", s.id, s.step)

	return &Attempt{
		session:    s,
		generation: s.generation,
		topic:      topic,
		audience:   audience,
	}, nil
}

// Run performs content generation, then cover generation keyed off the generated title.
// Any failure discards partial results and returns the session to Idea.
func (a *Attempt) Run(ctx context.Context) error {
	s := a.session
	started := s.now()

	text, err := s.content.GenerateContent(ctx, a.topic, a.audience)
	if err != nil {
		return a.fail(err)
	}

	if a.superseded() {
		return ErrSuperseded
	}

	cover, err := s.cover.GenerateCover(ctx, text.Title)
	if err != nil {
		return a.fail(err)
	}

	product, err := model.NewProduct(text, cover)
	if err != nil {
		return a.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a.generation != s.generation {
		return ErrSuperseded
	}
	s.product = product
	s.errMsg = ""
	s.lastErr = nil
	s.step = model.StepResult
	s.touchLocked()
	log.Printf("[FLOW] Session %s -> %s in %v title=%q", s.id, s.step, s.now().Sub(started), product.Title)
	return nil
}

func (a *Attempt) superseded() bool {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	return a.generation != a.session.generation
}

func (a *Attempt) fail(cause error) error {
	s := a.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.generation != s.generation {
		return fmt.Errorf("%w: %w", ErrSuperseded, cause)
	}

	s.product = nil
	s.errMsg = fmt.Sprintf(prompt.FailureMessage, cause.Error())
	s.lastErr = cause
	s.step = model.StepIdea
	s.touchLocked()
	log.Printf("[FLOW] Session %s -> %s: %v", s.id, s.step, cause)
	return cause
}

// StartOver clears topic, audience, product and error and returns to Idea from any step.
// An attempt still in flight will find itself superseded and drop its result.
func (s *Session) StartOver() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topic = ""
	s.audience = ""
	s.product = nil
	s.errMsg = ""
	s.lastErr = nil
	s.step = model.StepIdea
	s.generation++
	s.touchLocked()
	log.Printf("[FLOW] Session %s start over", s.id)
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		Step:      s.step,
		Topic:     s.topic,
		Audience:  s.audience,
		Error:     s.errMsg,
		Cause:     s.lastErr,
		UpdatedAt: s.updatedAt,
	}
	if s.product != nil {
		p := *s.product
		snap.Product = &p
	}
	return snap
}

func (s *Session) touchLocked() {
	s.updatedAt = s.now()
	s.lastSeen = s.updatedAt
}

func (s *Session) markSeen() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// idleSince reports the last access time and whether an attempt is running
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.step == model.StepLoading
}
