package memory

import (
	"testing"

	"trivia-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	store.Add(app.NewSession("quiz-1", app.WithClock(nil)))
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 || len(store.List()) != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("quiz-1")
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected session removed")
	}
}
