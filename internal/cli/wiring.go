package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/opentdb"
	pgsource "trivia-quiz-service/internal/infra/postgres"
	redisinfra "trivia-quiz-service/internal/infra/redis"
)

const (
	sourceOpenTDB  = "opentdb"
	sourcePostgres = "postgres"
	sourceStatic   = "static"
)

// deps holds the external clients a command opened; close releases all of them.
type deps struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			_ = d.close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
	}
	if cfg.Trivia.Source == sourcePostgres {
		if cfg.Postgres.URL == "" {
			_ = d.close()
			return nil, fmt.Errorf("trivia source %q needs postgres.url", sourcePostgres)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			_ = d.close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		d.pool = pool
	}
	return d, nil
}

func (d *deps) close() error {
	var result *multierror.Error
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
	return result.ErrorOrNil()
}

func (d *deps) sessionStore(cfg config.Config) app.SessionRepository {
	if d.redis != nil {
		return redisinfra.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

func (d *deps) questionSource(cfg config.Config, logger *slog.Logger) (app.QuestionSource, error) {
	var source app.QuestionSource
	switch cfg.Trivia.Source {
	case "", sourceOpenTDB:
		source = opentdb.NewClient(opentdb.Config{
			URL:        cfg.Trivia.URL,
			Amount:     cfg.Trivia.Amount,
			Category:   cfg.Trivia.Category,
			Difficulty: cfg.Trivia.Difficulty,
			Type:       cfg.Trivia.Type,
			Timeout:    config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second),
		})
		// OpenTDB allows one request per interval per client; local sources are not limited.
		if d.redis != nil {
			interval := config.TTLDuration(cfg.Trivia.MinInterval, 5*time.Second)
			logger.Debug("throttling question fetches through redis", "interval", interval)
			source = redisinfra.NewThrottledSource(d.redis, source, interval)
		}
	case sourcePostgres:
		category, difficulty, amount := cfg.Trivia.Category, cfg.Trivia.Difficulty, cfg.Trivia.Amount
		if category <= 0 {
			category = opentdb.DefaultCategory
		}
		if difficulty == "" {
			difficulty = opentdb.DefaultDifficulty
		}
		if amount <= 0 {
			amount = opentdb.DefaultAmount
		}
		source = pgsource.NewQuestionSource(d.pool, category, difficulty, amount)
	case sourceStatic:
		source = memory.NewStaticSource(memory.SampleQuestions())
	default:
		return nil, fmt.Errorf("unknown trivia source %q", cfg.Trivia.Source)
	}
	return source, nil
}

func sessionOptions(cfg config.Config) []app.SessionOption {
	if cfg.Quiz.DurationSeconds > 0 {
		return []app.SessionOption{app.WithDuration(cfg.Quiz.DurationSeconds)}
	}
	return nil
}
