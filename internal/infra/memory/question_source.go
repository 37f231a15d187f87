package memory

import (
	"context"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// StaticSource serves a fixed question list (useful for tests/demos).
type StaticSource struct {
	questions []domain.Question
	err       error

	mu    sync.Mutex
	calls int
}

func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

// NewFailingSource returns a source whose every fetch fails with err.
func NewFailingSource(err error) *StaticSource {
	return &StaticSource{err: err}
}

func (s *StaticSource) FetchQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Question(nil), s.questions...), nil
}

// Calls reports how many fetches were made.
func (s *StaticSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SampleQuestions is a small general-knowledge set served when no provider is configured.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		domain.NewQuestion("What is the chemical symbol for gold?", "Au", []string{"Ag", "Gd", "Go"}),
		domain.NewQuestion("Which planet has the shortest day?", "Jupiter", []string{"Saturn", "Earth", "Mercury"}),
		domain.NewQuestion("What is the powerhouse of the cell?", "Mitochondria", []string{"Ribosome", "Nucleus", "Golgi apparatus"}),
		domain.NewQuestion("How many bones are in the adult human body?", "206", []string{"201", "212", "196"}),
		domain.NewQuestion("What is the hardest natural substance?", "Diamond", []string{"Quartz", "Topaz", "Corundum"}),
	}
}
