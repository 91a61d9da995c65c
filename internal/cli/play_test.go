package cli

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/game"
)

func TestPlayTypingRound(t *testing.T) {
	c := embedded(t)
	names := expectedOrder(t, c, domain.Easy, 7)
	names[4] = "Atlantis"

	var out bytes.Buffer
	p := &player{
		in:  strings.NewReader(strings.Join(names, "\n") + "\n"),
		out: &out,
		now: steppingClock(75 * time.Second),
	}
	summary, err := p.play(c, domain.Typing, domain.Easy, quizOptions(7)...)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if summary.Correct != 8 || summary.Incorrect != 1 {
		t.Fatalf("expected 8/1, got %+v", summary)
	}
	if summary.Elapsed != 75*time.Second {
		t.Fatalf("expected 75s, got %v", summary.Elapsed)
	}
	if got := strings.Count(out.String(), "correct\n"); got != 8 {
		t.Fatalf("expected 8 correct lines, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "[9/9]") {
		t.Fatalf("expected the last question to be numbered 9/9:\n%s", out.String())
	}
	if !strings.HasSuffix(out.String(), "8 correct, 1 incorrect in 1m15s\n") {
		t.Fatalf("unexpected summary line:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Where is") {
		t.Fatalf("typing mode must not reveal city names:\n%s", out.String())
	}
}

func TestPlaySelectionUsesMapRefs(t *testing.T) {
	c := embedded(t)
	names := expectedOrder(t, c, domain.Easy, 3)
	refs := make([]string, len(names))
	for i, name := range names {
		city, _ := c.Lookup(name)
		refs[i] = city.MapRef
	}
	// Names are not map refs, so this one is wrong.
	refs[0] = names[0]

	var out bytes.Buffer
	p := &player{in: strings.NewReader(strings.Join(refs, "\n")), out: &out, now: steppingClock(0)}
	summary, err := p.play(c, domain.Selection, domain.Easy, quizOptions(3)...)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if summary.Correct != 8 || summary.Incorrect != 1 {
		t.Fatalf("expected 8/1, got %+v", summary)
	}
	if !strings.Contains(out.String(), "Where is "+names[1]+"?") {
		t.Fatalf("selection mode must name the city:\n%s", out.String())
	}
}

func TestPlayEndsOnClosedInput(t *testing.T) {
	c := embedded(t)
	names := expectedOrder(t, c, domain.Medium, 11)

	var out bytes.Buffer
	p := &player{in: strings.NewReader(strings.Join(names[:3], "\n")), out: &out, now: steppingClock(time.Second)}
	summary, err := p.play(c, domain.Typing, domain.Medium, quizOptions(11)...)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if summary.Correct != 3 || summary.Incorrect != 0 {
		t.Fatalf("expected 3/0 after three answers, got %+v", summary)
	}
	if !strings.Contains(out.String(), "[4/19]") {
		t.Fatalf("expected the fourth question to be asked:\n%s", out.String())
	}
}

func TestPlayRejectsSmallCatalog(t *testing.T) {
	c, err := catalog.New("tiny", []domain.City{{Name: "Beograd", MapRef: "beograd"}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	p := &player{in: strings.NewReader(""), out: &bytes.Buffer{}, now: time.Now}
	if _, err := p.play(c, domain.Typing, domain.Easy); err == nil {
		t.Fatalf("expected an error for a catalog smaller than the hardest round")
	}
}

func embedded(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func quizOptions(seed uint64) []game.Option {
	return []game.Option{
		game.WithRand(rand.New(rand.NewPCG(seed, seed))),
		game.WithLogger(zerolog.Nop()),
	}
}

// expectedOrder replays the question queue a session seeded with seed draws.
func expectedOrder(t *testing.T, c *catalog.Catalog, d domain.Difficulty, seed uint64) []string {
	t.Helper()
	quiz, err := game.NewSession(c, quizOptions(seed)...)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := quiz.SetDifficulty(d); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	quiz.Start()
	var names []string
	for {
		names = append(names, quiz.CurrentCity().Name)
		if !quiz.Advance() {
			return names
		}
	}
}

func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		t := now.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}
