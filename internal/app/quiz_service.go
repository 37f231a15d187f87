package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	List() []*Session
}

// QuestionSource fetches the question list for one session.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *QuizService) { s.logger = logger }
}

// WithSessionOptions applies opts to every session the service creates.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// QuizService contains the quiz use cases on top of Session.
type QuizService struct {
	sessions    SessionRepository
	source      QuestionSource
	logger      *slog.Logger
	sessionOpts []SessionOption
	newID       func() string
}

func NewQuizService(store SessionRepository, source QuestionSource, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions: store,
		source:   source,
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session in the loading state.
func (s *QuizService) Create() *Session {
	session := NewSession(s.newID(), s.sessionOpts...)
	s.sessions.Add(session)
	s.logger.Debug("session created", "session", session.ID())
	return session
}

// Load performs the single question fetch of a loading session.
// Any fetch failure, including an empty list, leaves the session in the error state
// and is reported as domain.ErrNetwork.
func (s *QuizService) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}

	questions, err := s.source.FetchQuestions(ctx)
	if err != nil {
		session.Fail(err)
		s.logger.Warn("question fetch failed", "session", id, "error", err)
		return session.Snapshot(), fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if !session.Begin(questions) {
		if loadErr := session.Err(); loadErr != nil {
			s.logger.Warn("question fetch failed", "session", id, "error", loadErr)
			return session.Snapshot(), loadErr
		}
		return session.Snapshot(), nil
	}
	s.logger.Info("session started", "session", id, "questions", len(questions))
	return session.Snapshot(), nil
}

// Start creates a session and loads its questions.
func (s *QuizService) Start(ctx context.Context) (domain.Snapshot, error) {
	session := s.Create()
	return s.Load(ctx, session.ID())
}

// Select records an answer for the current question. Rejected selections are not errors.
func (s *QuizService) Select(_ context.Context, id, answer string) (domain.Snapshot, error) {
	return s.apply(id, func(session *Session) bool { return session.Select(answer) })
}

func (s *QuizService) Advance(_ context.Context, id string) (domain.Snapshot, error) {
	return s.apply(id, (*Session).Advance)
}

func (s *QuizService) Restart(_ context.Context, id string) (domain.Snapshot, error) {
	return s.apply(id, (*Session).Restart)
}

func (s *QuizService) Expire(_ context.Context, id string) (domain.Snapshot, error) {
	return s.apply(id, (*Session).Expire)
}

func (s *QuizService) Snapshot(_ context.Context, id string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives every state change of a session, starting
// with the current one. The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, id string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End stops a session's timer and forgets it.
func (s *QuizService) End(_ context.Context, id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
	s.logger.Debug("session ended", "session", id)
}

// Reap ends finished or errored sessions that have been idle for at least ttl
// and returns how many it removed.
func (s *QuizService) Reap(ctx context.Context, now time.Time, ttl time.Duration) int {
	reaped := 0
	for _, session := range s.sessions.List() {
		if session.Stale(now, ttl) {
			s.End(ctx, session.ID())
			reaped++
		}
	}
	if reaped > 0 {
		s.logger.Info("reaped idle sessions", "count", reaped)
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is done.
func (s *QuizService) RunReaper(ctx context.Context, ttl, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Reap(ctx, now, ttl)
		}
	}
}

func (s *QuizService) apply(id string, transition func(*Session) bool) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if !transition(session) {
		s.logger.Debug("transition rejected", "session", id)
	}
	return session.Snapshot(), nil
}
