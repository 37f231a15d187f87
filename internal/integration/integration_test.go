package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	pgsource "trivia-quiz-service/internal/infra/postgres"
	pgmigrations "trivia-quiz-service/internal/infra/postgres/migrations"
	infraredis "trivia-quiz-service/internal/infra/redis"
)

func TestQuizFromPostgresBankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, []domain.Question{
		{Text: "Which element has atomic number 1?", CorrectAnswer: "Hydrogen", IncorrectAnswers: []string{"Helium", "Lithium", "Oxygen"}},
		{Text: "What is the speed of light in km/s (approx.)?", CorrectAnswer: "300000", IncorrectAnswers: []string{"150000", "30000", "3000000"}},
		{Text: "Which gas do plants absorb?", CorrectAnswer: "Carbon dioxide", IncorrectAnswers: []string{"Oxygen", "Nitrogen", "Argon"}},
	})

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	source := infraredis.NewThrottledSource(redisClient, pgsource.NewQuestionSource(pool, 17, "hard", 10), time.Second)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(store, source, app.WithSessionOptions(app.WithClock(nil)))

	snap, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.State != domain.StateActive || snap.Total != 3 {
		t.Fatalf("expected 3 questions from the bank, got %+v", snap)
	}

	correct := map[string]string{
		"Which element has atomic number 1?":            "Hydrogen",
		"What is the speed of light in km/s (approx.)?": "300000",
		"Which gas do plants absorb?":                   "Carbon dioxide",
	}
	for i := 0; i < 3; i++ {
		current, _ := service.Snapshot(ctx, snap.SessionID)
		service.Select(ctx, snap.SessionID, correct[current.Question])
		snap, _ = service.Advance(ctx, snap.SessionID)
	}
	if snap.State != domain.StateFinished || snap.Result.Tier != domain.TierPerfect {
		t.Fatalf("expected perfect finish, got %+v", snap)
	}

	exists, err := redisClient.Exists(ctx, "quiz:session:"+snap.SessionID).Result()
	if err != nil || exists != 1 {
		t.Fatalf("expected session liveness key, exists=%d err=%v", exists, err)
	}
	service.End(ctx, snap.SessionID)
	if exists, _ := redisClient.Exists(ctx, "quiz:session:"+snap.SessionID).Result(); exists != 0 {
		t.Fatalf("expected liveness key removed on end")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string, questions []domain.Question) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, q := range questions {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (category, difficulty, question, correct_answer, incorrect_answers) VALUES (?, ?, ?, ?, ?)`,
			17, "hard", q.Text, q.CorrectAnswer, pgdialect.Array(q.IncorrectAnswers),
		); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
