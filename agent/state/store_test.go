package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	contractx "github.com/svergara/concierge/agent/contract"
)

func TestUpstashRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "conv:abc:turns" {
		t.Fatalf("redisKey() = %q, want %q", got, "conv:abc:turns")
	}
}

func TestUpstashRedisStoreRedisKeyEmptySession(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	_, err := store.redisKey("   ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestUpstashRedisStoreAppendPushesTurnsAndExpires(t *testing.T) {
	t.Parallel()

	var commands [][]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		commands = append(commands, cmd)
		fmt.Fprint(w, `{"result":2}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	turns := []contractx.ConversationTurn{
		{Role: contractx.RoleUser, Content: "hello"},
		{Role: contractx.RoleAssistant, Content: "hi there"},
	}
	if err := store.Append(context.Background(), "session-1", turns); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if len(commands) != 2 {
		t.Fatalf("expected RPUSH then EXPIRE, got %d commands", len(commands))
	}

	push := commands[0]
	if push[0] != "RPUSH" || push[1] != "conv:session-1:turns" {
		t.Fatalf("unexpected push command: %#v", push)
	}
	if len(push) != 4 {
		t.Fatalf("RPUSH must carry both turns, got %#v", push)
	}
	var first contractx.ConversationTurn
	if err := json.Unmarshal([]byte(push[2].(string)), &first); err != nil {
		t.Fatalf("unmarshal pushed turn: %v", err)
	}
	if first.Role != contractx.RoleUser || first.Content != "hello" {
		t.Fatalf("unexpected pushed turn: %#v", first)
	}

	expire := commands[1]
	if expire[0] != "EXPIRE" || expire[1] != "conv:session-1:turns" {
		t.Fatalf("unexpected expire command: %#v", expire)
	}
}

func TestUpstashRedisStoreAppendNoTTLSkipsExpire(t *testing.T) {
	t.Parallel()

	var commands [][]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		commands = append(commands, cmd)
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
		WithTTL(0),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	err = store.Append(context.Background(), "session-1", []contractx.ConversationTurn{
		{Role: contractx.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if len(commands) != 1 {
		t.Fatalf("expected a single RPUSH, got %d commands", len(commands))
	}
}

func TestUpstashRedisStoreGetDecodesTurns(t *testing.T) {
	t.Parallel()

	seed := []contractx.ConversationTurn{
		{Role: contractx.RoleUser, Content: "where is my order?"},
		{Role: contractx.RoleAssistant, Content: "on its way"},
		{Role: contractx.RoleSystemContext, Content: "order #19 delayed"},
	}
	encoded := make([]string, 0, len(seed))
	for _, turn := range seed {
		payload, err := json.Marshal(turn)
		if err != nil {
			t.Fatalf("marshal seed turn: %v", err)
		}
		encoded = append(encoded, string(payload))
	}
	result, err := json.Marshal(encoded)
	if err != nil {
		t.Fatalf("marshal seed list: %v", err)
	}

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, result)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	turns, err := store.Get(context.Background(), "session-2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(turns, seed) {
		t.Fatalf("Get() = %#v, want %#v", turns, seed)
	}

	if gotCommand[0] != "LRANGE" || gotCommand[1] != "conv:session-2:turns" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
}

func TestUpstashRedisStoreGetMissingSessionIsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[]}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	turns, err := store.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty conversation, got %#v", turns)
	}
}

func TestUpstashRedisStoreSurfacesRedisErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGTYPE Operation against a key"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if _, err := store.Get(context.Background(), "session-3"); err == nil {
		t.Fatal("expected redis error to surface")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	turns, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("fresh session must be empty, got %#v", turns)
	}

	first := []contractx.ConversationTurn{{Role: contractx.RoleUser, Content: "hello"}}
	second := []contractx.ConversationTurn{{Role: contractx.RoleAssistant, Content: "hi"}}
	if err := store.Append(ctx, "s1", first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "s1", second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	turns, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := append(append([]contractx.ConversationTurn{}, first...), second...)
	if !reflect.DeepEqual(turns, want) {
		t.Fatalf("Get() = %#v, want %#v", turns, want)
	}

	// Mutating the returned slice must not affect the stored history.
	turns[0].Content = "tampered"
	again, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again[0].Content != "hello" {
		t.Fatal("store must hand out copies")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	turns, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("deleted session must be empty, got %#v", turns)
	}
}

func TestMemoryStoreRejectsEmptySession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), " "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Get() error = %v, want ErrInvalidSession", err)
	}
	err := store.Append(context.Background(), "", []contractx.ConversationTurn{{Role: contractx.RoleUser, Content: "x"}})
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Append() error = %v, want ErrInvalidSession", err)
	}
}
