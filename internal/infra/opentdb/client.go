package opentdb

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultURL        = "https://opentdb.com/api.php"
	DefaultAmount     = 10
	DefaultCategory   = 17
	DefaultDifficulty = "hard"
	DefaultType       = "multiple"
	requestDeadline   = 10 * time.Second
)

// Config selects which questions are requested.
type Config struct {
	URL        string
	Amount     int
	Category   int
	Difficulty string
	Type       string
	Timeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Amount <= 0 {
		c.Amount = DefaultAmount
	}
	if c.Category <= 0 {
		c.Category = DefaultCategory
	}
	if c.Difficulty == "" {
		c.Difficulty = DefaultDifficulty
	}
	if c.Type == "" {
		c.Type = DefaultType
	}
	if c.Timeout <= 0 {
		c.Timeout = requestDeadline
	}
	return c
}

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

var responseCodes = map[int]string{
	1: "no results",
	2: "invalid parameter",
	3: "token not found",
	4: "token empty",
	5: "rate limit",
}

// Client fetches question lists from OpenTriviaDB.
type Client struct {
	cfg        Config
	httpClient *req.Client
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	httpClient := req.C().
		SetTimeout(cfg.Timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json")
	return &Client{cfg: cfg, httpClient: httpClient}
}

// FetchQuestions performs the one request of a quiz session.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(c.query()).
		Get(c.cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get `%v`", c.cfg.URL)
	}
	if resp.GetStatusCode() != http.StatusOK {
		return nil, errors.Errorf("opentdb returned status %d", resp.GetStatusCode())
	}
	data, err := resp.ToBytes()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read body of `%v`", c.cfg.URL)
	}

	var payload apiResponse
	if err := json.UnmarshalContext(ctx, data, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal opentdb payload")
	}
	if payload.ResponseCode != 0 {
		return nil, errors.Errorf("opentdb response_code=%d (%s)", payload.ResponseCode, responseCodes[payload.ResponseCode])
	}
	if len(payload.Results) == 0 {
		return nil, errors.New("opentdb returned no questions")
	}

	return ToQuestions(payload.Results), nil
}

func (c *Client) query() map[string]string {
	return map[string]string{
		"amount":     strconv.Itoa(c.cfg.Amount),
		"category":   strconv.Itoa(c.cfg.Category),
		"difficulty": c.cfg.Difficulty,
		"type":       c.cfg.Type,
	}
}

// ToQuestions converts provider records into normalized domain questions.
func ToQuestions(raw []RawQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for _, item := range raw {
		questions = append(questions, domain.NewQuestion(item.Question, item.CorrectAnswer, item.IncorrectAnswers))
	}
	return questions
}
