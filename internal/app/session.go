package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// SessionOption customizes a Session at construction.
type SessionOption func(*Session)

// WithClock sets the tick source. A nil clock disables automatic ticking; callers then drive Tick.
func WithClock(clock Clock) SessionOption {
	return func(s *Session) { s.clock = clock }
}

func WithShuffler(shuffler Shuffler) SessionOption {
	return func(s *Session) { s.shuffler = shuffler }
}

// WithDuration sets the round length in seconds.
func WithDuration(seconds int) SessionOption {
	return func(s *Session) { s.duration = seconds }
}

// Session is a single player's run through a fixed list of questions.
// All transitions and timer ticks are serialized by mu.
type Session struct {
	id       string
	clock    Clock
	shuffler Shuffler
	duration int

	mu          sync.Mutex
	state       domain.State
	questions   []domain.Question
	index       int
	answers     domain.AnswerSet
	selected    string
	answered    bool
	score       int
	reason      domain.FinishReason
	loadErr     error
	countdown   *Countdown
	generation  uint64
	stopTicking func()
	closed      bool
	touched     time.Time
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession returns a session in the loading state.
func NewSession(id string, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		clock:       RealClock{},
		duration:    DefaultDurationSeconds,
		state:       domain.StateLoading,
		touched:     time.Now(),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shuffler == nil {
		s.shuffler = NewRandomShuffler()
	}
	s.countdown = NewCountdown(s.duration)
	return s
}

func (s *Session) ID() string { return s.id }

// Begin activates a loading session over the fetched questions.
// An empty list fails the session with domain.ErrNetwork.
func (s *Session) Begin(questions []domain.Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLoading || s.closed {
		return false
	}
	if len(questions) == 0 {
		s.failLocked(fmt.Errorf("%w: no questions returned", domain.ErrNetwork))
		return false
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.beginLocked()
	return true
}

// Fail moves a loading session to the terminal error state.
func (s *Session) Fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLoading {
		return false
	}
	if !errors.Is(err, domain.ErrNetwork) {
		err = fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	s.failLocked(err)
	return true
}

// Select records the answer for the current question. Only the first selection counts,
// and it must be one of the offered answers.
func (s *Session) Select(choice string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive || s.answered || !s.answers.Contains(choice) {
		return false
	}
	s.selected = choice
	s.answered = true
	s.touched = time.Now()
	if choice == s.questions[s.index].CorrectAnswer {
		s.score++
	}
	s.broadcastLocked()
	return true
}

// Advance moves past an answered question, finishing the session after the last one.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive || !s.answered {
		return false
	}
	if s.index == len(s.questions)-1 {
		s.finishLocked(domain.FinishCompleted)
		return true
	}
	s.index++
	s.touched = time.Now()
	s.selected = ""
	s.answered = false
	s.answers = s.shuffler.Shuffle(s.questions[s.index])
	s.broadcastLocked()
	return true
}

// Expire ends an active session as if the countdown had run out.
func (s *Session) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return false
	}
	s.finishLocked(domain.FinishTimeExpired)
	return true
}

// Restart replays a finished session over the same questions.
func (s *Session) Restart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinished || s.closed {
		return false
	}
	s.beginLocked()
	return true
}

// Tick consumes one second of the countdown and reports whether it expired the session.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked()
}

// Close stops the timer and releases subscribers. The session accepts no further transitions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTickingLocked()
	if s.state == domain.StateActive {
		s.countdown.Cancel()
		s.state = domain.StateFinished
		s.reason = domain.FinishCompleted
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Stale reports whether a finished or errored session has seen no transition for ttl.
// Loading and active sessions are never stale; an active round always ends via its countdown.
func (s *Session) Stale(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinished && s.state != domain.StateError {
		return false
	}
	return now.Sub(s.touched) >= ttl
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Err returns the load failure of a session in the error state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) beginLocked() {
	s.index = 0
	s.score = 0
	s.selected = ""
	s.answered = false
	s.reason = ""
	s.answers = s.shuffler.Shuffle(s.questions[0])
	s.countdown = NewCountdown(s.duration)
	s.state = domain.StateActive
	s.touched = time.Now()
	s.startTickingLocked()
	s.broadcastLocked()
}

func (s *Session) failLocked(err error) {
	s.loadErr = err
	s.state = domain.StateError
	s.touched = time.Now()
	s.broadcastLocked()
}

func (s *Session) finishLocked(reason domain.FinishReason) {
	s.state = domain.StateFinished
	s.reason = reason
	s.touched = time.Now()
	s.countdown.Cancel()
	s.stopTickingLocked()
	s.broadcastLocked()
}

func (s *Session) tickLocked() bool {
	if s.state != domain.StateActive {
		return false
	}
	if s.countdown.Tick() {
		s.finishLocked(domain.FinishTimeExpired)
		return true
	}
	s.broadcastLocked()
	return false
}

// tickFrom applies a tick delivered by the ticking goroutine of the given generation.
// Ticks from a generation that was stopped or replaced are dropped.
func (s *Session) tickFrom(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.tickLocked()
}

func (s *Session) startTickingLocked() {
	s.stopTickingLocked()
	if s.clock == nil {
		return
	}

	generation := s.generation
	ticker := s.clock.NewTicker(time.Second)
	done := make(chan struct{})
	s.stopTicking = func() {
		ticker.Stop()
		close(done)
	}

	go func() {
		for {
			select {
			case <-ticker.C():
				s.tickFrom(generation)
			case <-done:
				return
			}
		}
	}()
}

func (s *Session) stopTickingLocked() {
	s.generation++
	if s.stopTicking != nil {
		s.stopTicking()
		s.stopTicking = nil
	}
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Latest state wins for slow readers.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.Snapshot {
	remaining := s.countdown.Remaining()
	snap := domain.Snapshot{
		SessionID: s.id,
		State:     s.state,
		Score:     s.score,
		Remaining: remaining,
		Clock:     formatClock(remaining),
		LowTime:   s.state == domain.StateActive && remaining <= LowTimeSeconds,
	}

	switch s.state {
	case domain.StateError:
		if s.loadErr != nil {
			snap.Error = s.loadErr.Error()
		}
	case domain.StateActive:
		total := len(s.questions)
		snap.QuestionNumber = s.index + 1
		snap.Total = total
		snap.Progress = float64(s.index+1) / float64(total)
		snap.IsLastQuestion = s.index == total-1
		snap.Question = s.questions[s.index].Text
		snap.Answers = append(domain.AnswerSet(nil), s.answers...)
		snap.Answered = s.answered
		if s.answered {
			correct := s.selected == s.questions[s.index].CorrectAnswer
			snap.SelectedAnswer = s.selected
			snap.SelectedCorrect = &correct
		}
	case domain.StateFinished:
		total := len(s.questions)
		result := domain.Summarize(s.score, total)
		snap.Total = total
		snap.FinishReason = s.reason
		snap.Result = &result
	}
	return snap
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
