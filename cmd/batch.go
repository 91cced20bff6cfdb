package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/internal/pipeline"
)

var (
	batchInput   string
	batchOutput  string
	batchWorkers int
)

// batchAnswer is one line of the batch output file.
type batchAnswer struct {
	Question string               `json:"question"`
	Answer   string               `json:"answer,omitempty"`
	Source   model.EvidenceSource `json:"source,omitempty"`
	Error    string               `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Answer a file of questions concurrently",
	Long:  "Reads one question per line from the input file and writes JSONL answers. Each question runs through the full pipeline independently; a failed question records its error and does not stop the batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := readQuestions(batchInput)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return eris.Errorf("no questions in %s", batchInput)
		}

		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		workers := batchWorkers
		if workers <= 0 {
			workers = cfg.Batch.MaxConcurrentQuestions
		}

		answers := make([]batchAnswer, len(questions))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, q := range questions {
			g.Go(func() error {
				result, err := env.Pipeline.Answer(gctx, q, uuid.New().String())

				mu.Lock()
				defer mu.Unlock()
				answers[i] = batchAnswer{Question: q}
				if err != nil {
					answers[i].Error = batchErrorMessage(err)
					zap.L().Error("batch question failed", zap.Int("index", i), zap.Error(err))
					return nil
				}
				answers[i].Answer = result.AnswerText
				answers[i].Source = result.EvidenceSource
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := writeAnswers(batchOutput, answers); err != nil {
			return err
		}
		zap.L().Info("batch complete",
			zap.Int("questions", len(questions)),
			zap.String("output", batchOutput),
		)
		return nil
	},
}

// batchErrorMessage maps pipeline failures to the stable messages recorded in
// batch output, substituting the generation fallback where one exists.
func batchErrorMessage(err error) string {
	var ge *pipeline.GenerationError
	if errors.As(err, &ge) {
		return ge.Fallback
	}
	return err.Error()
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open questions file %s", path)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" || strings.HasPrefix(q, "#") {
			continue
		}
		questions = append(questions, q)
	}
	return questions, eris.Wrapf(scanner.Err(), "read questions file %s", path)
}

func writeAnswers(path string, answers []batchAnswer) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create output file %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, a := range answers {
		if err := enc.Encode(a); err != nil {
			return eris.Wrap(err, "encode answer")
		}
	}
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "questions.txt", "input file, one question per line")
	batchCmd.Flags().StringVar(&batchOutput, "output", "answers.jsonl", "output JSONL file")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent questions (default from config)")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
