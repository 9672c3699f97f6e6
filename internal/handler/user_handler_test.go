package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

type stubPresence struct {
	ids []string
	err error
}

func (s stubPresence) Online(context.Context) ([]string, error) { return s.ids, s.err }

func TestUserHandler_Online(t *testing.T) {
	h := NewUserHandler(nil, stubPresence{ids: []string{"alice", "bob"}})

	rec := httptest.NewRecorder()
	h.Online(rec, httptest.NewRequest(http.MethodGet, "/api/users/online", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if want := []string{"alice", "bob"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUserHandler_OnlineStoreDown(t *testing.T) {
	h := NewUserHandler(nil, stubPresence{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.Online(rec, httptest.NewRequest(http.MethodGet, "/api/users/online", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when the presence store is unreachable, got %d", rec.Code)
	}
}
