package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsRunEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/events", func(c *gin.Context) { c.Set(auth.OperatorContextKey, "ops") }, NewHandler(hub).HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %s", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	report := models.NewReport()
	report.Courses = 42
	run := models.PipelineRun{
		ID:        uuid.New(),
		Status:    models.RunSucceeded,
		Trigger:   "api",
		StartedAt: time.Now().UTC(),
		Report:    report,
	}
	hub.Publish(run)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %s", err)
	}
	var event RunEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if event.RunID != run.ID || event.Status != models.RunSucceeded || event.Report == nil || event.Report.Courses != 42 {
		t.Errorf("Unexpected event: %+v", event)
	}

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Errorf("Expected the connection to close when the hub stops")
	}
}

func TestPublishWithoutClients(t *testing.T) {
	hub := NewHub()
	// nothing drains the queue; publishing must not block once it is full
	for i := 0; i < broadcastBuffer+5; i++ {
		hub.Publish(models.PipelineRun{ID: uuid.New(), Status: models.RunRunning})
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients")
	}
}
