package app

import (
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// Shuffler produces the presentation order of a question's answers.
type Shuffler interface {
	Shuffle(q domain.Question) domain.AnswerSet
}

// RandomShuffler is a Fisher-Yates shuffler safe for concurrent use.
type RandomShuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomShuffler() *RandomShuffler {
	return &RandomShuffler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RandomShuffler) Shuffle(q domain.Question) domain.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ShuffleAnswers(q, s.rnd)
}

// ShuffleAnswers returns the correct answer and every incorrect answer in uniform random order.
// Duplicates are kept as-is.
func ShuffleAnswers(q domain.Question, rnd *rand.Rand) domain.AnswerSet {
	answers := make(domain.AnswerSet, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.CorrectAnswer)
	answers = append(answers, q.IncorrectAnswers...)
	rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers
}
