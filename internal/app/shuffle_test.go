package app

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"trivia-quiz-service/internal/domain"
)

func TestShuffleAnswersPreservesMultiset(t *testing.T) {
	q := domain.Question{
		Text:             "Which planet is largest?",
		CorrectAnswer:    "Jupiter",
		IncorrectAnswers: []string{"Saturn", "Neptune", "Saturn"},
	}
	want := []string{"Jupiter", "Neptune", "Saturn", "Saturn"}
	shuffler := NewRandomShuffler()

	orders := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		got := []string(shuffler.Shuffle(q))
		orders[strings.Join(got, "|")] = struct{}{}

		sorted := append([]string(nil), got...)
		sort.Strings(sorted)
		if strings.Join(sorted, "|") != strings.Join(want, "|") {
			t.Fatalf("shuffle changed the answers: %v", got)
		}
	}
	if len(orders) < 2 {
		t.Fatalf("expected more than one ordering across 200 shuffles")
	}
}

func TestShuffleAnswersDoesNotMutateQuestion(t *testing.T) {
	q := domain.Question{CorrectAnswer: "a", IncorrectAnswers: []string{"b", "c", "d"}}

	for seed := int64(0); seed < 20; seed++ {
		ShuffleAnswers(q, rand.New(rand.NewSource(seed)))
	}
	if strings.Join(q.IncorrectAnswers, "") != "bcd" {
		t.Fatalf("question mutated: %v", q.IncorrectAnswers)
	}
}
