package handlers_test

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Umar7799/task4safety/internal/broadcast"
	"github.com/Umar7799/task4safety/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func waitForSubscribers(t *testing.T, hub *broadcast.Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for time.Now().Before(deadline) {
		if hub.Subscribers() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("never reached %d subscribers (have %d)", want, hub.Subscribers())
}

func TestEventStreamDeliversRosterChanged(t *testing.T) {
	hub := broadcast.NewHub()

	h := handlers.NewStreamHandler(hub, nil)

	r := gin.New()
	r.GET("/api/events", h.Events)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")

	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("got content type %q, want text/event-stream", ct)
	}

	waitForSubscribers(t, hub, 1)

	hub.Publish(broadcast.EventRosterChanged)

	// read until the event line arrives; the stream has no other traffic
	lines := make(chan string, 16)

	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	deadline := time.After(3 * time.Second)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before event arrived")
			}
			if strings.HasPrefix(line, "event:") && strings.Contains(line, broadcast.EventRosterChanged) {
				// got the signal; closing the hub must end the stream
				hub.Close()
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for roster_changed event")
		}
	}
}

func TestEventStreamEndsOnHubClose(t *testing.T) {
	hub := broadcast.NewHub()

	h := handlers.NewStreamHandler(hub, nil)

	r := gin.New()
	r.GET("/api/events", h.Events)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")

	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	defer resp.Body.Close()

	waitForSubscribers(t, hub, 1)

	hub.Close()

	done := make(chan struct{})

	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := resp.Body.Read(buf); err != nil {
				close(done)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("stream did not end after hub close")
	}
}
