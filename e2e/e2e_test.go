package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ayusman/goldenreps/internal/capture"
	"github.com/ayusman/goldenreps/internal/metrics"
	"github.com/ayusman/goldenreps/internal/pose"
	"github.com/ayusman/goldenreps/internal/replay"
	"github.com/ayusman/goldenreps/internal/server"
	"github.com/ayusman/goldenreps/internal/session"
	"github.com/ayusman/goldenreps/internal/store"
	"github.com/ayusman/goldenreps/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	logger := zaptest.NewLogger(t)
	mgr, reg := metrics.NewTestManagerAndRegistry()
	rec := &session.Recorder{}

	ctl := session.New(session.Config{TickInterval: time.Hour}, session.Deps{
		Camera:    capture.NewMockCamera(nil, false),
		Estimator: pose.NewMockEstimator(),
		Best:      s.Settings(),
		History:   s.Sessions(),
		Metrics:   mgr,
		Logger:    logger,
	})
	defer ctl.Close(context.Background())
	ctl.AddDisplay(rec)

	hub := server.NewHub(ctl.Status, logger)
	ctl.AddDisplay(hub)

	srv := server.New(server.Config{
		Controller: ctl,
		History:    s.Sessions(),
		Best:       s.Settings(),
		Hub:        hub,
		Gatherer:   reg,
		Logger:     logger,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	if _, err := ctl.LoadBest(context.Background()); err != nil {
		t.Fatalf("LoadBest() error = %v", err)
	}

	var sessionID string
	t.Run("StartSession", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/start", "application/json", nil)
		if err != nil {
			t.Fatalf("start session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var st session.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if !st.Running || st.SessionID == "" {
			t.Fatalf("status = %+v, want a running session", st)
		}
		sessionID = st.SessionID
	})

	t.Run("StartTwiceConflicts", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/start", "application/json", nil)
		if err != nil {
			t.Fatalf("start session error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
		}
	})

	t.Run("ReplayRecording", func(t *testing.T) {
		data, err := testdata.LoadPoses(testdata.Pushups)
		if err != nil {
			t.Fatal(err)
		}
		frames, err := replay.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}

		for _, f := range frames {
			ctl.HandleFrame(f.Poses, nil)
		}

		if got := ctl.Status().Reps; got != 12 {
			t.Errorf("reps = %d, want 12", got)
		}

		milestones := rec.OfType(session.EventMilestone)
		if len(milestones) == 0 || milestones[0].Count != 10 {
			t.Errorf("milestones = %+v, want one at 10", milestones)
		}
	})

	t.Run("StatusReportsReps", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/session")
		if err != nil {
			t.Fatalf("get status error = %v", err)
		}
		defer resp.Body.Close()

		var st session.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if st.Reps != 12 {
			t.Errorf("reps = %d, want 12", st.Reps)
		}
	})

	t.Run("StopSession", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/stop", "application/json", nil)
		if err != nil {
			t.Fatalf("stop session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var sum session.Summary
		if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		if !sum.NewBest || sum.Best != 12 {
			t.Errorf("summary = %+v, want a new best of 12", sum)
		}
	})

	t.Run("BestPersisted", func(t *testing.T) {
		best, err := s.Settings().BestSession(context.Background())
		if err != nil {
			t.Fatalf("BestSession() error = %v", err)
		}
		if best != 12 {
			t.Errorf("best = %d, want 12", best)
		}
	})

	t.Run("HistoryListed", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("list sessions error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Sessions []store.Session `json:"sessions"`
			Best     int             `json:"best"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode sessions: %v", err)
		}
		if len(body.Sessions) != 1 {
			t.Fatalf("sessions = %d, want 1", len(body.Sessions))
		}

		got := body.Sessions[0]
		if got.ID != sessionID || got.Reps != 12 || !got.NewBest || !got.Finished() {
			t.Errorf("session = %+v", got)
		}
		if body.Best != 12 {
			t.Errorf("best = %d, want 12", body.Best)
		}
	})

	t.Run("StopWhenStoppedConflicts", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/stop", "application/json", nil)
		if err != nil {
			t.Fatalf("stop session error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
		}
	})

	t.Run("SecondSessionKeepsBest", func(t *testing.T) {
		if _, err := ctl.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		ctl.HandleFrame([]pose.Pose{pose.PlankPose(100)}, nil)
		ctl.HandleFrame([]pose.Pose{pose.PlankPose(130)}, nil)
		ctl.HandleFrame([]pose.Pose{pose.PlankPose(100)}, nil)

		sum, err := ctl.Stop(context.Background())
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		if sum.NewBest || sum.Best != 12 || sum.Stats.RepCount != 1 {
			t.Errorf("summary = %+v, want 1 rep and best kept at 12", sum)
		}

		list, err := s.Sessions().List(context.Background(), 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 2 {
			t.Errorf("history = %d sessions, want 2", len(list))
		}
	})
}
