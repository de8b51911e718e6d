//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"composewait/internal/compose"
	"composewait/internal/db"
	"composewait/internal/logger"
	"composewait/internal/metrics"
	"composewait/internal/readiness"
	"composewait/internal/server"
	"composewait/internal/testutil"
)

// flipSleeper marks the web container healthy after the first wait
type flipSleeper struct {
	querier *testutil.MockQuerier
	calls   int
}

func (f *flipSleeper) Sleep(_ context.Context, _ time.Duration) error {
	f.calls++
	if f.calls == 1 {
		f.querier.SetState("web1", "running", "healthy")
	}
	return nil
}

type PollIntegrationTestSuite struct {
	suite.Suite
	testDir   string
	compose   string
	database  *db.DB
	runs      *db.RunRepository
	hub       *server.Hub
	collector *metrics.Collector
	baseURL   string
	stop      context.CancelFunc
	done      chan error
}

func (s *PollIntegrationTestSuite) SetupTest() {
	s.testDir = s.T().TempDir()
	s.compose = filepath.Join(s.testDir, "docker-compose.yml")
	s.Require().NoError(os.WriteFile(s.compose, []byte(`services:
  web:
    image: nginx
  db:
    image: postgres
`), 0644))

	s.database = testutil.SetupTestDB(s.T())
	s.runs = db.NewRunRepository(s.database)
	s.hub = server.NewHub()
	s.collector = metrics.NewCollector()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.baseURL = "http://" + listener.Addr().String()

	srv := server.New(server.DefaultConfig(), s.hub,
		server.WithMetrics(s.collector.Handler()),
		server.WithHistory(s.runs))

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- srv.Serve(ctx, listener)
	}()
}

func (s *PollIntegrationTestSuite) TearDownTest() {
	s.stop()
	s.NoError(<-s.done)
}

func (s *PollIntegrationTestSuite) get(path string, out interface{}) int {
	resp, err := http.Get(s.baseURL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if out != nil {
		s.Require().NoError(json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func (s *PollIntegrationTestSuite) poll(querier *testutil.MockQuerier, sleeper readiness.Sleeper, maxRetries int) (bool, string) {
	log, _ := test.NewNullLogger()
	ctx := context.Background()
	recorder := db.NewRecorder(ctx, s.runs)

	poller := readiness.NewPoller(
		compose.NewSource(s.compose),
		querier,
		logger.NewReporter(log),
		readiness.Options{
			MaxRetries:    maxRetries,
			RetryInterval: time.Second,
			ComposeFile:   s.compose,
		},
		readiness.WithSleeper(sleeper),
		readiness.WithObserver(readiness.Observers{s.collector, s.hub, recorder}),
	)

	healthy, err := poller.Poll(logger.ContextWithRunID(ctx, recorder.RunID()))
	s.Require().NoError(err)
	return healthy, recorder.RunID()
}

func (s *PollIntegrationTestSuite) TestBecomesHealthyOnSecondAttempt() {
	querier := testutil.NewMockQuerier().
		AddContainer("web", "web1", "running", "starting").
		AddContainer("db", "db1", "running", "healthy")

	var status server.StatusResponse
	s.Equal(http.StatusServiceUnavailable, s.get("/api/status", &status))
	s.Equal(server.RunStatePending, status.State)

	healthy, runID := s.poll(querier, &flipSleeper{querier: querier}, 5)
	s.True(healthy)

	s.Equal(http.StatusOK, s.get("/api/status", &status))
	s.Equal(server.RunStateHealthy, status.State)
	s.Equal(2, status.Attempt)

	var attempts server.AttemptsResponse
	s.Equal(http.StatusOK, s.get("/api/attempts", &attempts))
	s.Equal(2, attempts.Total)
	s.False(attempts.Attempts[0].Healthy)
	s.True(attempts.Attempts[1].Healthy)

	var runs server.RunsResponse
	s.Equal(http.StatusOK, s.get("/api/runs", &runs))
	s.Require().Len(runs.Runs, 1)
	s.Equal(runID, runs.Runs[0].ID)
	s.Equal(db.RunStatusHealthy, runs.Runs[0].Status)
	s.Equal(2, runs.Runs[0].Attempts)

	var recorded server.RunAttemptsResponse
	s.Equal(http.StatusOK, s.get(fmt.Sprintf("/api/runs/%s/attempts", runID), &recorded))
	s.Len(recorded.Attempts, 2)

	resp, err := http.Get(s.baseURL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `composewait_runs_total{outcome="healthy"} 1`)
	s.Contains(string(body), "composewait_attempts_total")
}

func (s *PollIntegrationTestSuite) TestTimeoutIsRecorded() {
	querier := testutil.NewMockQuerier().
		AddContainer("web", "web1", "exited", "")

	healthy, runID := s.poll(querier, readiness.SleeperFunc(func(context.Context, time.Duration) error { return nil }), 3)
	s.False(healthy)

	run, err := s.runs.GetRun(context.Background(), runID)
	s.Require().NoError(err)
	s.Equal(db.RunStatusTimeout, run.Status)
	s.Equal(3, run.Attempts)

	var status server.StatusResponse
	s.Equal(http.StatusServiceUnavailable, s.get("/api/status", &status))
	s.Equal(server.RunStateTimedOut, status.State)
}

func (s *PollIntegrationTestSuite) TestWebSocketStreamsRun() {
	querier := testutil.NewMockQuerier().
		AddContainer("web", "web1", "running", "starting").
		AddContainer("db", "db1", "running", "healthy")

	wsURL := "ws" + s.baseURL[len("http"):] + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	defer conn.Close()

	var snapshot server.Event
	s.Require().NoError(conn.ReadJSON(&snapshot))
	s.Equal(server.EventSnapshot, snapshot.Type)

	healthy, _ := s.poll(querier, &flipSleeper{querier: querier}, 5)
	s.True(healthy)

	var types []server.EventType
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev server.Event
		s.Require().NoError(conn.ReadJSON(&ev))
		types = append(types, ev.Type)
		if ev.Type == server.EventRunFinished {
			s.Require().NotNil(ev.Healthy)
			s.True(*ev.Healthy)
			s.Equal(readiness.OutcomeHealthy, ev.Outcome)
			break
		}
	}

	s.Equal([]server.EventType{
		server.EventRunStarted,
		server.EventAttemptStarted,
		server.EventAttemptFinished,
		server.EventAttemptStarted,
		server.EventAttemptFinished,
		server.EventRunFinished,
	}, types)
}

func TestPollIntegration(t *testing.T) {
	suite.Run(t, new(PollIntegrationTestSuite))
}
