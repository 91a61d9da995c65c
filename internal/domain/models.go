package domain

import (
	"fmt"
	"strings"
	"time"
)

// City is a single catalog entry. Name doubles as the expected answer.
type City struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MapRef      string `json:"map_ref"` // opaque handle, only the UI interprets it
}

// Difficulty carries its own question count as the underlying value.
type Difficulty int

const (
	Easy   Difficulty = 9
	Medium Difficulty = 19
	Hard   Difficulty = 29
)

// Difficulties lists the recognized values in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// MaxQuestions is the largest question count any difficulty asks for.
const MaxQuestions = int(Hard)

// Questions returns the number of questions asked at this difficulty.
func (d Difficulty) Questions() int { return int(d) }

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty accepts the names returned by String.
func ParseDifficulty(raw string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(raw, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("difficulty %q: %w", raw, ErrInvalidArgument)
}

// Mode decides how the caller obtains an answer. Scoring is identical in both.
type Mode int

const (
	Selection Mode = iota // click the location, the name is shown
	Typing                // the location is shown, type the name
)

func (m Mode) Valid() bool {
	return m == Selection || m == Typing
}

// RevealsName reports whether the city name is shown as the prompt.
func (m Mode) RevealsName() bool {
	return m == Selection
}

func (m Mode) String() string {
	switch m {
	case Selection:
		return "selection"
	case Typing:
		return "typing"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the names returned by String.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(raw) {
	case "selection":
		return Selection, nil
	case "typing":
		return Typing, nil
	}
	return 0, fmt.Errorf("mode %q: %w", raw, ErrInvalidArgument)
}

// Snapshot is the read-only view of one player's quiz the UI renders.
type Snapshot struct {
	ID         string        `json:"id"`
	Mode       string        `json:"mode"`
	Difficulty string        `json:"difficulty"`
	Running    bool          `json:"running"`
	Prompt     string        `json:"prompt,omitempty"`
	MapRef     string        `json:"mapRef,omitempty"`
	Correct    int           `json:"correct"`
	Incorrect  int           `json:"incorrect"`
	Remaining  int           `json:"remaining"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Summary is read once the last question has been answered.
type Summary struct {
	Correct   int           `json:"correct"`
	Incorrect int           `json:"incorrect"`
	Elapsed   time.Duration `json:"elapsed"`
}

// AnswerResult summarizes the outcome of one submitted answer.
type AnswerResult struct {
	Correct  bool     `json:"correct"`
	Expected City     `json:"expected"`
	HasNext  bool     `json:"hasNext"`
	Summary  *Summary `json:"summary,omitempty"`
	State    Snapshot `json:"state"`
}
