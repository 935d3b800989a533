package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// detachedClient has a queue but no connection.
func detachedClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufferSize)}
}

func TestRegisterUnregister(t *testing.T) {
	hub := testHub()
	c1, c2 := detachedClient(hub), detachedClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
	if _, ok := <-c1.send; ok {
		t.Error("expected closed queue after unregister")
	}
	hub.Unregister(c2)
}

func TestPublish(t *testing.T) {
	hub := testHub()
	c1, c2 := detachedClient(hub), detachedClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Publish(NewMessage(EntityRecipe, ActionCreated, 42))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "recipe_created" || got.Entity != EntityRecipe || got.ID != 42 {
				t.Errorf("got %+v", got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestPublishNilHub(t *testing.T) {
	var hub *Hub
	hub.Publish(NewMessage(EntityPlan, ActionDeleted, 1))
}

func TestPublishFullQueueDrops(t *testing.T) {
	hub := testHub()
	c := detachedClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.Publish(NewMessage(EntityPlan, ActionCreated, int64(i)))
	}
	if got := len(c.send); got != sendBufferSize {
		t.Errorf("queued %d messages, want %d", got, sendBufferSize)
	}
}

func TestShutdown(t *testing.T) {
	hub := testHub()
	c := detachedClient(hub)
	hub.Register(c)

	hub.Shutdown()
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
	if _, ok := <-c.send; ok {
		t.Error("expected closed queue after shutdown")
	}
	if hub.Register(detachedClient(hub)) {
		t.Error("register after shutdown should fail")
	}
	hub.Unregister(c)
}

func TestGeneratedMessageCarriesCount(t *testing.T) {
	msg := NewMessage(EntityPlan, ActionGenerated, 0)
	msg.Count = 14
	data, _ := json.Marshal(msg)

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["type"] != "plan_generated" || raw["count"] != float64(14) {
		t.Errorf("got %s", data)
	}
	if _, ok := raw["id"]; ok {
		t.Errorf("zero id should be omitted: %s", data)
	}
}

func TestAcceptOptions(t *testing.T) {
	if opts := acceptOptions([]string{"*"}); !opts.InsecureSkipVerify {
		t.Error("wildcard should skip origin checks")
	}
	opts := acceptOptions([]string{"http://localhost:5173", "https://recipes.example.com/"})
	want := []string{"localhost:5173", "recipes.example.com"}
	if len(opts.OriginPatterns) != 2 || opts.OriginPatterns[0] != want[0] || opts.OriginPatterns[1] != want[1] {
		t.Errorf("patterns = %v, want %v", opts.OriginPatterns, want)
	}
}

func TestConcurrentPublish(t *testing.T) {
	hub := testHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := detachedClient(hub)
			hub.Register(c)
			hub.Publish(NewMessage(EntityRecipe, ActionUpdated, 1))
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}
