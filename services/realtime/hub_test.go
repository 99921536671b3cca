package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

func serve(t *testing.T, hub *Hub) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	srv := serve(t, hub)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	waitFor(t, func() bool { return hub.ClientCount() > 0 })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishAttempt(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger())
	conn := dial(t, hub)

	d := 12.5
	attempt := attendance.CheckInAttempt{
		PRN:            "24020542001",
		FullName:       "Asha Patil",
		Location:       geo.Point{Latitude: 18.5205, Longitude: 73.8568},
		DistanceMeters: &d,
		Admitted:       true,
		Outcome:        attendance.OutcomeAdmitted,
	}
	hub.PublishAttempt(attempt)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got struct {
		Type string                    `json:"type"`
		Data attendance.CheckInAttempt `json:"data"`
	}
	if err = json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	assert.Equal(t, EventAttempt, got.Type)
	assert.Equal(t, attempt.PRN, got.Data.PRN)
	assert.Equal(t, attendance.OutcomeAdmitted, got.Data.Outcome)
	if assert.NotNil(t, got.Data.DistanceMeters) {
		assert.Equal(t, d, *got.Data.DistanceMeters)
	}
}

func TestHub_PublishSettings(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger())
	conn := dial(t, hub)

	hub.PublishSettings(attendance.Settings{WindowOpen: false})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	assert.Equal(t, EventSettings, got.Type)
}

func TestHub_clientDisconnect(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger())
	conn := dial(t, hub)
	assert.Equal(t, 1, hub.ClientCount())

	_ = conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_slowClientDropped(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger())
	c := &client{send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	hub.Broadcast(Event{Type: EventSettings})
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(Event{Type: EventSettings}) // buffer full
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_noClients(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger())
	assert.NotPanics(t, func() { hub.Broadcast(Event{Type: EventAttempt}) })
	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_checkOrigin(t *testing.T) {
	hub := NewHub(logsvc.NewDiscardLogger(), "http://localhost:3000/", "not a url")
	srv := serve(t, hub)

	tests := []struct {
		name     string
		origin   string
		wantCode int
	}{
		{name: "no origin", wantCode: http.StatusSwitchingProtocols},
		{name: "same origin", origin: srv.URL, wantCode: http.StatusSwitchingProtocols},
		{name: "dashboard", origin: "http://localhost:3000", wantCode: http.StatusSwitchingProtocols},
		{name: "dashboard, upper case", origin: "HTTP://LOCALHOST:3000", wantCode: http.StatusSwitchingProtocols},
		{name: "other port", origin: "http://localhost:3001", wantCode: http.StatusForbidden},
		{name: "other scheme", origin: "https://localhost:3000", wantCode: http.StatusForbidden},
		{name: "foreign", origin: "https://evil.example.com", wantCode: http.StatusForbidden},
		{name: "malformed", origin: "://", wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
			if conn != nil {
				_ = conn.Close()
			}
			if tt.wantCode == http.StatusSwitchingProtocols && err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			if assert.NotNil(t, resp) {
				assert.Equal(t, tt.wantCode, resp.StatusCode)
			}
		})
	}
}
