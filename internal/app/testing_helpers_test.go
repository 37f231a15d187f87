package app

import (
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// manualClock hands out tickers whose channels the test feeds by hand.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) latest() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire delivers one tick, giving up once the ticking goroutine has gone away.
func (t *manualTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(time.Second):
		return false
	}
}

// identityShuffler keeps the correct answer first so tests can pick answers by position.
type identityShuffler struct{}

func (identityShuffler) Shuffle(q domain.Question) domain.AnswerSet {
	answers := domain.AnswerSet{q.CorrectAnswer}
	return append(answers, q.IncorrectAnswers...)
}

func sampleQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			Text:             "Question " + string(rune('A'+i)),
			CorrectAnswer:    "right",
			IncorrectAnswers: []string{"wrong-1", "wrong-2", "wrong-3"},
		})
	}
	return questions
}

func manualSession(n int) *Session {
	s := NewSession("quiz-1", WithClock(nil), WithShuffler(identityShuffler{}))
	s.Begin(sampleQuestions(n))
	return s
}
