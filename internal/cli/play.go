package cli

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/game"
)

// NewPlayCmd runs a single quiz round in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		mode       string
		difficulty string
		file       string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one quiz round on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			m, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}
			d, err := domain.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Catalog.File
			}
			c, err := readCatalog(cfg.Catalog.ID, file)
			if err != nil {
				return err
			}

			p := &player{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), now: time.Now}
			_, err = p.play(c, m, d, game.WithLogger(logger))
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", domain.Typing.String(), "selection or typing")
	cmd.Flags().StringVar(&difficulty, "difficulty", domain.Easy.String(), "easy, medium or hard")
	cmd.Flags().StringVar(&file, "file", "", "JSON catalog to play instead of the configured one")
	return cmd
}

type player struct {
	in  io.Reader
	out io.Writer
	now func() time.Time
}

// play asks every question of one round. In typing mode the player names the
// city at a map reference; in selection mode they give the map reference of a
// named city. Closing the input ends the round early.
func (p *player) play(c *catalog.Catalog, mode domain.Mode, difficulty domain.Difficulty, opts ...game.Option) (domain.Summary, error) {
	quiz, err := game.NewSession(c, opts...)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := quiz.SetMode(mode); err != nil {
		return domain.Summary{}, err
	}
	if err := quiz.SetDifficulty(difficulty); err != nil {
		return domain.Summary{}, err
	}

	byRef := make(map[string]string, c.Len())
	for _, city := range c.All() {
		byRef[city.MapRef] = city.Name
	}

	scanner := bufio.NewScanner(p.in)
	started := p.now()
	quiz.Start()
	total := difficulty.Questions()

	for {
		city := quiz.CurrentCity()
		if city == nil {
			break
		}
		n := total - quiz.RemainingCount() + 1
		if mode.RevealsName() {
			fmt.Fprintf(p.out, "[%d/%d] Where is %s? map ref: ", n, total, city.Name)
		} else {
			fmt.Fprintf(p.out, "[%d/%d] Which city is at %q? ", n, total, city.MapRef)
		}
		if !scanner.Scan() {
			fmt.Fprintln(p.out)
			break
		}
		answer := scanner.Text()
		if mode.RevealsName() {
			answer = byRef[answer]
		}

		if quiz.CheckAnswer(answer) {
			fmt.Fprintln(p.out, "correct")
		} else {
			fmt.Fprintf(p.out, "wrong, it was %s (%s)\n", city.Name, city.MapRef)
		}
		if !quiz.Advance() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Summary{}, err
	}

	summary := domain.Summary{
		Correct:   quiz.CorrectCount(),
		Incorrect: quiz.IncorrectCount(),
		Elapsed:   p.now().Sub(started),
	}
	quiz.Stop()

	fmt.Fprintf(p.out, "%d correct, %d incorrect in %s\n",
		summary.Correct, summary.Incorrect, summary.Elapsed.Round(time.Second))
	return summary, nil
}
