package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const (
	throttleKey = "trivia:fetch:lock"
	maxPoll     = 250 * time.Millisecond
)

// ThrottledSource spaces out question fetches across every instance sharing a Redis.
// OpenTDB answers with response_code 5 when one IP asks more than once per 5 seconds.
//
// A fetch slot is the key trivia:fetch:lock, taken with SET NX PX interval.
type ThrottledSource struct {
	client   *redis.Client
	next     app.QuestionSource
	interval time.Duration
}

func NewThrottledSource(client *redis.Client, next app.QuestionSource, interval time.Duration) *ThrottledSource {
	return &ThrottledSource{client: client, next: next, interval: interval}
}

func (t *ThrottledSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	if t.interval > 0 {
		if err := t.acquire(ctx); err != nil {
			return nil, err
		}
	}
	return t.next.FetchQuestions(ctx)
}

func (t *ThrottledSource) acquire(ctx context.Context) error {
	for {
		ok, err := t.client.SetNX(ctx, throttleKey, "1", t.interval).Result()
		if err != nil {
			return errors.Wrap(err, "failed to take fetch slot")
		}
		if ok {
			return nil
		}

		wait := maxPoll
		if ttl, err := t.client.PTTL(ctx, throttleKey).Result(); err == nil && ttl > 0 && ttl < wait {
			wait = ttl
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), "gave up waiting for fetch slot")
		case <-timer.C:
		}
	}
}
