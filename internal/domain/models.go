package domain

import (
	"html"
	"strings"
)

// State is the lifecycle stage of a quiz session.
type State string

const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateFinished State = "finished"
	StateError    State = "error"
)

// FinishReason records how a session reached StateFinished.
type FinishReason string

const (
	FinishCompleted   FinishReason = "completed"
	FinishTimeExpired FinishReason = "time_expired"
)

// Tier is the qualitative label for a final score.
type Tier string

const (
	TierPerfect        Tier = "perfect"
	TierGreat          Tier = "great"
	TierKeepPracticing Tier = "keep_practicing"
)

var tierMessages = map[Tier]string{
	TierPerfect:        "Perfect! You're a genius!",
	TierGreat:          "Great job! You know your stuff!",
	TierKeepPracticing: "Keep practicing!",
}

// Message returns the text shown alongside the tier on the results screen.
func (t Tier) Message() string {
	return tierMessages[t]
}

// Question is a single multiple-choice trivia question. It is never mutated after fetch.
type Question struct {
	Text             string   `json:"text"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// NewQuestion builds a Question from provider text, decoding HTML entities.
func NewQuestion(text, correct string, incorrect []string) Question {
	answers := make([]string, 0, len(incorrect))
	for _, a := range incorrect {
		answers = append(answers, html.UnescapeString(a))
	}
	return Question{
		Text:             NormalizeText(text),
		CorrectAnswer:    html.UnescapeString(correct),
		IncorrectAnswers: answers,
	}
}

var quoteReplacer = strings.NewReplacer("&quot;", "'", "&#039;", "'")

// NormalizeText turns escaped quotes into apostrophes and decodes any other entity.
func NormalizeText(s string) string {
	return html.UnescapeString(quoteReplacer.Replace(s))
}

// AnswerSet is the ordered list of choices presented for the current question.
type AnswerSet []string

// Contains reports whether choice is one of the answers.
func (a AnswerSet) Contains(choice string) bool {
	for _, answer := range a {
		if answer == choice {
			return true
		}
	}
	return false
}

// ResultSummary is the final tally of a finished session.
type ResultSummary struct {
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

// Summarize grades score out of total.
func Summarize(score, total int) ResultSummary {
	tier := TierKeepPracticing
	switch {
	case score == total:
		tier = TierPerfect
	case float64(score) >= 0.7*float64(total):
		tier = TierGreat
	}
	return ResultSummary{
		Score:   score,
		Total:   total,
		Tier:    tier,
		Message: tier.Message(),
	}
}

// Snapshot is the read-only view of a session handed to presenters.
type Snapshot struct {
	SessionID       string         `json:"sessionId"`
	State           State          `json:"state"`
	QuestionNumber  int            `json:"questionNumber,omitempty"`
	Total           int            `json:"total,omitempty"`
	Progress        float64        `json:"progress,omitempty"`
	IsLastQuestion  bool           `json:"isLastQuestion,omitempty"`
	Question        string         `json:"question,omitempty"`
	Answers         AnswerSet      `json:"answers,omitempty"`
	SelectedAnswer  string         `json:"selectedAnswer,omitempty"`
	Answered        bool           `json:"answered"`
	SelectedCorrect *bool          `json:"selectedCorrect,omitempty"`
	Score           int            `json:"score"`
	Remaining       int            `json:"remainingSeconds"`
	Clock           string         `json:"clock"`
	LowTime         bool           `json:"lowTime"`
	FinishReason    FinishReason   `json:"finishReason,omitempty"`
	Result          *ResultSummary `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
}
