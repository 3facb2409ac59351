package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelsmith/compose"
	"reelsmith/config"
	"reelsmith/orchestrator"
	"reelsmith/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type blockingRunner struct {
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, req types.RenderRequest, s config.Settings) (*compose.Result, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	tl := types.NewTimeline(req.Length)
	return &compose.Result{RunID: req.RunID, Project: req.Project, OutputPath: "out.mp4", Timeline: tl}, nil
}

func newTestServer(t *testing.T) (*Server, *blockingRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	runner := &blockingRunner{release: make(chan struct{})}
	svc := orchestrator.NewService(runner, nil, nil, nil)
	s := NewServer(svc, "0", nil)
	t.Cleanup(func() {
		select {
		case <-runner.release:
		default:
			close(runner.release)
		}
		_ = s.Shutdown(context.Background())
	})
	return s, runner
}

func postRender(router http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/render", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRenderAcceptedThenConflict(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.NewRouter()
	body := fmt.Sprintf(`{"project":%q,"length":10}`, t.TempDir())

	w := postRender(router, body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("first POST = %d %s", w.Code, w.Body)
	}
	var resp RenderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.RunID == "" {
		t.Fatalf("response = %s (%v)", w.Body, err)
	}

	if w := postRender(router, body); w.Code != http.StatusConflict {
		t.Fatalf("second POST = %d %s; want 409", w.Code, w.Body)
	}
}

func TestRenderBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.NewRouter()
	cases := map[string]string{
		"malformed":       `{"project":`,
		"zero length":     `{"project":"/tmp/x","length":0}`,
		"missing project": `{"length":5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if w := postRender(router, body); w.Code != http.StatusBadRequest {
				t.Fatalf("POST = %d %s; want 400", w.Code, w.Body)
			}
		})
	}
}

func TestStatusAndHealth(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.NewRouter()

	for _, path := range []string{"/health", "/api/status", "/api/feeds"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var st types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.State != types.StateIdle {
		t.Fatalf("status = %s (%v)", w.Body, err)
	}
}

func TestEventsStream(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.NewRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first types.StatusResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if first.State != types.StateIdle {
		t.Fatalf("initial state = %s", first.State)
	}

	s.svc.Status.AddLog("hello")
	var next types.StatusResponse
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if n := len(next.Logs); n == 0 || next.Logs[n-1].Message != "hello" {
		t.Fatalf("update logs = %+v", next.Logs)
	}
}

func TestStartCronRejectsBadSpec(t *testing.T) {
	s, _ := newTestServer(t)
	if err := s.StartCron([]ScheduledJob{{Spec: "not a spec"}}); err == nil {
		t.Fatal("StartCron accepted an invalid spec")
	}
}
