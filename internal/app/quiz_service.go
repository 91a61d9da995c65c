package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/game"
)

// SessionRepository abstracts where player sessions live (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// CatalogRepository loads city catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error)
}

// Options tunes a QuizService. Zero values fall back to the defaults.
type Options struct {
	CatalogID  string
	Mode       domain.Mode
	Difficulty domain.Difficulty
	Logger     *zerolog.Logger
	Clock      func() time.Time
}

// QuizService contains the quiz use cases for many independent players.
type QuizService struct {
	sessions  SessionRepository
	catalogs  CatalogRepository
	catalogID string
	mode      domain.Mode
	diff      domain.Difficulty
	log       zerolog.Logger
	now       func() time.Time
}

func NewQuizService(store SessionRepository, catalogs CatalogRepository, opts Options) *QuizService {
	s := &QuizService{
		sessions:  store,
		catalogs:  catalogs,
		catalogID: opts.CatalogID,
		mode:      opts.Mode,
		diff:      opts.Difficulty,
		log:       log.Logger,
		now:       opts.Clock,
	}
	if s.catalogID == "" {
		s.catalogID = catalog.DefaultID
	}
	if !s.mode.Valid() {
		s.mode = domain.Selection
	}
	if !s.diff.Valid() {
		s.diff = domain.Easy
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create registers a new idle player session with the default configuration.
func (s *QuizService) Create(ctx context.Context) (domain.Snapshot, error) {
	cat, err := s.catalogs.GetCatalog(ctx, s.catalogID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	id := uuid.NewString()
	quiz, err := game.NewSession(cat, game.WithLogger(s.log.With().Str("session", id).Logger()))
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := quiz.SetMode(s.mode); err != nil {
		return domain.Snapshot{}, err
	}
	if err := quiz.SetDifficulty(s.diff); err != nil {
		return domain.Snapshot{}, err
	}

	session := newSession(id, quiz, s.now)
	s.sessions.Save(session)
	s.log.Info().Str("session", id).Str("catalog", cat.ID()).Msg("session created")
	return session.Snapshot(), nil
}

// Configure changes mode and difficulty. Both are rejected while running.
func (s *QuizService) Configure(_ context.Context, id string, mode domain.Mode, difficulty domain.Difficulty) (domain.Snapshot, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if !difficulty.Valid() {
		return domain.Snapshot{}, fmt.Errorf("configure: difficulty %d: %w", int(difficulty), domain.ErrInvalidArgument)
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.quiz.SetMode(mode); err != nil {
		return session.snapshotLocked(), err
	}
	if err := session.quiz.SetDifficulty(difficulty); err != nil {
		return session.snapshotLocked(), err
	}
	return session.snapshotLocked(), nil
}

// Start begins a quiz. Starting a running quiz changes nothing.
func (s *QuizService) Start(_ context.Context, id string) (domain.Snapshot, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.startLocked()
	return session.snapshotLocked(), nil
}

// Restart throws away the current round and starts a new one.
func (s *QuizService) Restart(_ context.Context, id string) (domain.Snapshot, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.quiz.IsRunning() {
		session.quiz.Stop()
	}
	session.startLocked()
	return session.snapshotLocked(), nil
}

// Stop ends the quiz and discards its progress.
func (s *QuizService) Stop(_ context.Context, id string) (domain.Snapshot, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.quiz.Stop()
	session.startedAt = time.Time{}
	return session.snapshotLocked(), nil
}

// Answer scores text against the current city and moves on to the next
// question. After the last question the summary is read and the quiz stopped.
func (s *QuizService) Answer(_ context.Context, id, text string) (domain.AnswerResult, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.quiz.IsRunning() {
		return domain.AnswerResult{}, fmt.Errorf("answer: quiz not running: %w", domain.ErrInvalidState)
	}
	city := session.quiz.CurrentCity()
	if city == nil {
		return domain.AnswerResult{}, fmt.Errorf("answer: no current question: %w", domain.ErrInvalidState)
	}

	result := domain.AnswerResult{
		Correct:  session.quiz.CheckAnswer(text),
		Expected: *city,
	}
	result.HasNext = session.quiz.Advance()
	if !result.HasNext {
		summary := domain.Summary{
			Correct:   session.quiz.CorrectCount(),
			Incorrect: session.quiz.IncorrectCount(),
			Elapsed:   session.elapsedLocked(),
		}
		result.Summary = &summary
		session.quiz.Stop()
		session.startedAt = time.Time{}
		s.log.Info().
			Str("session", id).
			Int("correct", summary.Correct).
			Int("incorrect", summary.Incorrect).
			Dur("elapsed", summary.Elapsed).
			Msg("quiz finished")
	}
	result.State = session.snapshotLocked()
	return result, nil
}

// State returns the current snapshot without changing anything.
func (s *QuizService) State(_ context.Context, id string) (domain.Snapshot, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Leave drops the player session.
func (s *QuizService) Leave(_ context.Context, id string) {
	s.sessions.Delete(id)
}

// Cities returns the catalog in its stable order, for drawing the map.
func (s *QuizService) Cities(ctx context.Context) ([]domain.City, error) {
	cat, err := s.catalogs.GetCatalog(ctx, s.catalogID)
	if err != nil {
		return nil, err
	}
	return cat.Cities(), nil
}

// Describe looks up one city by exact name.
func (s *QuizService) Describe(ctx context.Context, name string) (domain.City, error) {
	cat, err := s.catalogs.GetCatalog(ctx, s.catalogID)
	if err != nil {
		return domain.City{}, err
	}
	city, ok := cat.Lookup(name)
	if !ok {
		return domain.City{}, fmt.Errorf("%q: %w", name, domain.ErrCityNotFound)
	}
	return *city, nil
}

func (s *QuizService) get(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Session owns one player's quiz. The mutex is the single writer the game
// package expects.
type Session struct {
	id        string
	now       func() time.Time
	mu        sync.Mutex
	quiz      *game.Session
	startedAt time.Time
}

// NewSession is exported for infrastructure layers and tests.
func NewSession(id string, quiz *game.Session) *Session {
	return newSession(id, quiz, time.Now)
}

func newSession(id string, quiz *game.Session, now func() time.Time) *Session {
	return &Session{id: id, now: now, quiz: quiz}
}

func (s *Session) ID() string { return s.id }

// Snapshot reads the session under its lock.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) startLocked() {
	if s.quiz.IsRunning() {
		s.quiz.Start() // logs the no-op
		return
	}
	s.quiz.Start()
	s.startedAt = s.now()
}

func (s *Session) elapsedLocked() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.startedAt)
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		ID:         s.id,
		Mode:       s.quiz.Mode().String(),
		Difficulty: s.quiz.Difficulty().String(),
		Running:    s.quiz.IsRunning(),
	}
	if !snap.Running {
		snap.Remaining = s.quiz.IdleRemaining()
		return snap
	}

	snap.Correct = s.quiz.CorrectCount()
	snap.Incorrect = s.quiz.IncorrectCount()
	snap.Remaining = s.quiz.RemainingCount()
	snap.Elapsed = s.elapsedLocked()
	if city := s.quiz.CurrentCity(); city != nil {
		// Selection mode asks for the location, typing mode for the name.
		if s.quiz.Mode().RevealsName() {
			snap.Prompt = city.Name
		} else {
			snap.MapRef = city.MapRef
		}
	}
	return snap
}
