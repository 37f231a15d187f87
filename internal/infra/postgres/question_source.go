package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"trivia-quiz-service/internal/domain"
)

const selectQuestionsSQL = `SELECT question, correct_answer, incorrect_answers
FROM questions
WHERE category = $1 AND difficulty = $2
ORDER BY random()
LIMIT $3`

// QuestionSource draws a random question set from the questions table.
type QuestionSource struct {
	pool       *pgxpool.Pool
	category   int
	difficulty string
	amount     int
}

func NewQuestionSource(pool *pgxpool.Pool, category int, difficulty string, amount int) *QuestionSource {
	return &QuestionSource{pool: pool, category: category, difficulty: difficulty, amount: amount}
}

func (s *QuestionSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, selectQuestionsSQL, s.category, s.difficulty, s.amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query questions")
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, s.amount)
	for rows.Next() {
		var (
			text, correct string
			incorrect     []string
		)
		if err := rows.Scan(&text, &correct, &incorrect); err != nil {
			return nil, errors.Wrap(err, "failed to scan question")
		}
		questions = append(questions, domain.NewQuestion(text, correct, incorrect))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read questions")
	}
	if len(questions) == 0 {
		return nil, errors.Errorf("no questions for category %d difficulty %q", s.category, s.difficulty)
	}
	return questions, nil
}
