package opentdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{URL: server.URL, Timeout: 2 * time.Second})
}

func TestFetchQuestionsSendsQueryAndNormalizes(t *testing.T) {
	var query map[string]string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"amount":     r.URL.Query().Get("amount"),
			"category":   r.URL.Query().Get("category"),
			"difficulty": r.URL.Query().Get("difficulty"),
			"type":       r.URL.Query().Get("type"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{
			"type":"multiple","difficulty":"hard","category":"Science &amp; Nature",
			"question":"What is &quot;Schr&ouml;dinger&#039;s&quot; equation about?",
			"correct_answer":"Wave functions",
			"incorrect_answers":["Gravity","Entropy","Light &amp; sound"]}]}`))
	})

	questions, err := client.FetchQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)

	assert.Equal(t, map[string]string{"amount": "10", "category": "17", "difficulty": "hard", "type": "multiple"}, query)
	assert.Equal(t, "What is 'Schrödinger's' equation about?", questions[0].Text)
	assert.Equal(t, "Wave functions", questions[0].CorrectAnswer)
	assert.Equal(t, []string{"Gravity", "Entropy", "Light & sound"}, questions[0].IncorrectAnswers)
}

func TestFetchQuestionsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200 status", status: http.StatusBadGateway, body: ``},
		{name: "malformed json", status: http.StatusOK, body: `not-json`},
		{name: "rate limited", status: http.StatusOK, body: `{"response_code":5,"results":[]}`},
		{name: "empty results", status: http.StatusOK, body: `{"response_code":0,"results":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			questions, err := client.FetchQuestions(context.Background())
			assert.Error(t, err)
			assert.Empty(t, questions)
		})
	}
}

func TestFetchQuestionsHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.FetchQuestions(ctx)
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, DefaultAmount, cfg.Amount)
	assert.Equal(t, DefaultCategory, cfg.Category)
	assert.Equal(t, requestDeadline, cfg.Timeout)
}
