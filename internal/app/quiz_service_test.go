package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"city-quiz-service/internal/app"
	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/infra/memory"
)

func TestCreateUsesDefaults(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{Mode: domain.Typing, Difficulty: domain.Medium})

	state, err := service.Create(ctx)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if state.ID == "" || state.Running {
		t.Fatalf("expected idle session with id, got %+v", state)
	}
	if state.Mode != "typing" || state.Difficulty != "medium" || state.Remaining != 19 {
		t.Fatalf("expected typing/medium/19, got %+v", state)
	}
}

func TestFullRoundReportsSummary(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, app.Options{})

	state, err := service.Create(ctx)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := state.ID
	if state, err = service.Start(ctx, id); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state.Prompt == "" || state.MapRef != "" {
		t.Fatalf("selection mode must show the name only, got %+v", state)
	}

	var result domain.AnswerResult
	for i := 0; i < 9; i++ {
		*clock = clock.Add(10 * time.Second)
		answer := state.Prompt
		if i%3 == 0 {
			answer = "wrong"
		}
		result, err = service.Answer(ctx, id, answer)
		if err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		if result.Expected.Name != state.Prompt {
			t.Fatalf("answer %d: expected city %s, got %s", i, state.Prompt, result.Expected.Name)
		}
		if result.Correct == (i%3 == 0) {
			t.Fatalf("answer %d: unexpected correctness %v", i, result.Correct)
		}
		state = result.State
	}

	if result.HasNext || result.Summary == nil {
		t.Fatalf("expected final summary, got %+v", result)
	}
	if result.Summary.Correct != 6 || result.Summary.Incorrect != 3 {
		t.Fatalf("expected 6/3, got %+v", result.Summary)
	}
	if result.Summary.Elapsed != 90*time.Second {
		t.Fatalf("expected 90s elapsed, got %v", result.Summary.Elapsed)
	}
	if result.State.Running || result.State.Correct != 0 || result.State.Remaining != 9 {
		t.Fatalf("expected reset idle state, got %+v", result.State)
	}

	if _, err := service.Answer(ctx, id, "Beograd"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after finish, got %v", err)
	}
}

func TestConfigureRejectedWhileRunning(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{})

	state, _ := service.Create(ctx)
	if _, err := service.Configure(ctx, state.ID, domain.Typing, domain.Hard); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if _, err := service.Start(ctx, state.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	got, err := service.Configure(ctx, state.ID, domain.Selection, domain.Easy)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if got.Mode != "typing" || got.Difficulty != "hard" || got.Remaining != 29 {
		t.Fatalf("configuration changed while running: %+v", got)
	}
}

func TestConfigureRejectsUnknownValuesAtomically(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{})

	state, _ := service.Create(ctx)
	if _, err := service.Configure(ctx, state.ID, domain.Typing, domain.Difficulty(3)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	state, _ = service.State(ctx, state.ID)
	if state.Mode != "selection" {
		t.Fatalf("mode must not change when difficulty is rejected, got %s", state.Mode)
	}
}

func TestStopAndRestart(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{})

	state, _ := service.Create(ctx)
	id := state.ID
	_, _ = service.Start(ctx, id)
	if _, err := service.Answer(ctx, id, "wrong"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	state, err := service.Restart(ctx, id)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if !state.Running || state.Incorrect != 0 || state.Remaining != 9 {
		t.Fatalf("expected fresh round, got %+v", state)
	}

	state, err = service.Stop(ctx, id)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if state.Running || state.Remaining != 9 || state.Prompt != "" {
		t.Fatalf("expected idle state, got %+v", state)
	}

	// Stopping twice is a logged no-op.
	if _, err := service.Stop(ctx, id); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{})

	if _, err := service.Start(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	state, _ := service.Create(ctx)
	service.Leave(ctx, state.ID)
	if _, err := service.State(ctx, state.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found after leave, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.Options{})

	city, err := service.Describe(ctx, "Kragujevac")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if city.Description == "" {
		t.Fatalf("expected a description")
	}
	if _, err := service.Describe(ctx, "kragujevac"); !errors.Is(err, domain.ErrCityNotFound) {
		t.Fatalf("expected city not found, got %v", err)
	}
}

func TestCreateFailsForUnknownCatalog(t *testing.T) {
	service, _ := newTestService(t, app.Options{CatalogID: "atlantis"})
	if _, err := service.Create(context.Background()); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected catalog not found, got %v", err)
	}
}

func newTestService(t *testing.T, opts app.Options) (*app.QuizService, *time.Time) {
	t.Helper()
	c, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	now := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	logger := zerolog.Nop()
	opts.Logger = &logger
	opts.Clock = func() time.Time { return now }

	quizRepo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(c), 5*time.Minute)
	return app.NewQuizService(memory.NewSessionStore(), quizRepo, opts), &now
}
