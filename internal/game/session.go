// Package game implements a single player's quiz: configuration, the random
// question queue, answer scoring and the idle/running lifecycle.
//
// A Session must only be mutated by one goroutine at a time. Calls made in
// the wrong lifecycle state never panic: getters return zero values and log a
// warning, so a UI can poll without checking IsRunning first.
package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
)

type state int

const (
	idle state = iota
	running
)

// Session is the quiz state machine for one player.
type Session struct {
	catalog *catalog.Catalog
	rnd     *rand.Rand
	log     zerolog.Logger

	state      state
	mode       domain.Mode
	difficulty domain.Difficulty

	queue     []int // catalog indices in question order
	cursor    int   // len(queue) means past the end
	correct   int
	incorrect int
	remaining int
}

// Option customizes a Session.
type Option func(*Session)

// WithRand makes question selection reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rnd = r }
}

// WithLogger sets the logger that receives soft-fail warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates an idle session in selection mode at easy difficulty.
// The catalog must hold at least as many cities as the hardest difficulty asks.
func NewSession(c *catalog.Catalog, opts ...Option) (*Session, error) {
	if c == nil {
		return nil, fmt.Errorf("nil catalog: %w", domain.ErrInvalidArgument)
	}
	if c.Len() < domain.MaxQuestions {
		return nil, fmt.Errorf("catalog %q has %d cities, need at least %d: %w",
			c.ID(), c.Len(), domain.MaxQuestions, domain.ErrInvalidArgument)
	}
	s := &Session{
		catalog:    c,
		rnd:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:        log.Logger,
		mode:       domain.Selection,
		difficulty: domain.Easy,
		remaining:  domain.Easy.Questions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) warn(op, msg string) {
	s.log.Warn().Str("op", op).Msg(msg)
}

func (s *Session) Mode() domain.Mode { return s.mode }

// SetMode fails with ErrInvalidState while running.
func (s *Session) SetMode(mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("set mode %d: %w", int(mode), domain.ErrInvalidArgument)
	}
	if s.IsRunning() {
		s.warn("SetMode", "the quiz is running")
		return fmt.Errorf("set mode: %w", domain.ErrInvalidState)
	}
	s.mode = mode
	return nil
}

func (s *Session) Difficulty() domain.Difficulty { return s.difficulty }

// SetDifficulty also resets the remaining count shown before a quiz starts.
func (s *Session) SetDifficulty(d domain.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("set difficulty %d: %w", int(d), domain.ErrInvalidArgument)
	}
	if s.IsRunning() {
		s.warn("SetDifficulty", "the quiz is running")
		return fmt.Errorf("set difficulty: %w", domain.ErrInvalidState)
	}
	s.difficulty = d
	s.remaining = d.Questions()
	return nil
}

func (s *Session) IsRunning() bool { return s.state == running }

// Start draws a fresh question queue. It is a no-op while running.
func (s *Session) Start() {
	if s.IsRunning() {
		s.warn("Start", "the quiz is running")
		return
	}
	s.queue = pickRandom(s.rnd, s.catalog.Len(), s.difficulty.Questions())
	s.cursor = 0
	s.remaining = s.difficulty.Questions()
	s.state = running
}

// Stop discards the queue and resets the counters. It is a no-op while idle.
func (s *Session) Stop() {
	if !s.IsRunning() {
		s.warn("Stop", "the quiz is not running")
		return
	}
	s.queue = nil
	s.cursor = 0
	s.correct = 0
	s.incorrect = 0
	s.remaining = s.difficulty.Questions()
	s.state = idle
}

// CurrentCity returns nil while idle or once every question was asked.
func (s *Session) CurrentCity() *domain.City {
	if !s.IsRunning() {
		s.warn("CurrentCity", "the quiz is not running")
		return nil
	}
	if s.cursor >= len(s.queue) {
		return nil
	}
	return s.catalog.At(s.queue[s.cursor])
}

func (s *Session) CorrectCount() int {
	if !s.IsRunning() {
		s.warn("CorrectCount", "the quiz is not running")
		return 0
	}
	return s.correct
}

func (s *Session) IncorrectCount() int {
	if !s.IsRunning() {
		s.warn("IncorrectCount", "the quiz is not running")
		return 0
	}
	return s.incorrect
}

func (s *Session) RemainingCount() int {
	if !s.IsRunning() {
		s.warn("RemainingCount", "the quiz is not running")
		return 0
	}
	return s.remaining
}

// IdleRemaining is the question count a quiz started now would ask.
func (s *Session) IdleRemaining() int { return s.remaining }

// CheckAnswer scores text against the current city and bumps exactly one
// counter. Submitting twice for the same question counts twice.
func (s *Session) CheckAnswer(text string) bool {
	if !s.IsRunning() {
		s.warn("CheckAnswer", "the quiz is not running")
		return false
	}
	city := s.CurrentCity()
	if city == nil {
		return false
	}
	if sameName(city.Name, text) {
		s.correct++
		return true
	}
	s.incorrect++
	return false
}

// Advance moves to the next question and reports whether one exists. The
// session stays running after the last question so counters can be read.
func (s *Session) Advance() bool {
	if !s.IsRunning() {
		s.warn("Advance", "the quiz is not running")
		return false
	}
	if s.cursor >= len(s.queue) {
		return false
	}
	s.cursor++
	s.remaining--
	return s.cursor < len(s.queue)
}

// pickRandom draws count distinct indices from [0, n) by redrawing on
// collisions. count must not exceed n.
func pickRandom(rnd *rand.Rand, n, count int) []int {
	picked := make([]bool, n)
	queue := make([]int, 0, count)
	for len(queue) < count {
		i := rnd.IntN(n)
		if picked[i] {
			continue
		}
		picked[i] = true
		queue = append(queue, i)
	}
	return queue
}
