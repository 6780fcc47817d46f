package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/telemetry"
)

type fakeQueue struct {
	depth     int
	cancelled []string
}

func (f *fakeQueue) Query(agentID string, mode config.Mode) (int, time.Duration, bool) {
	return 0, 0, false
}

func (f *fakeQueue) Depth(mode config.Mode) int { return f.depth }

func (f *fakeQueue) Cancel(ctx context.Context, agentID string, mode config.Mode) {
	f.cancelled = append(f.cancelled, agentID)
}

type fakeMatches struct {
	commentary     []string
	preMatchResult bool
}

func (f *fakeMatches) BroadcastCommentary(matchID, text string) error {
	f.commentary = append(f.commentary, text)
	return nil
}

func (f *fakeMatches) CancelPreMatch(agentID string) bool { return f.preMatchResult }

func newTestServer(q *fakeQueue, m *fakeMatches) *httptest.Server {
	metrics := telemetry.NewPrometheusMetrics()
	return httptest.NewServer(NewServer(metrics.Registry(), q, m).Router())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(&fakeQueue{}, &fakeMatches{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestQueueDepth(t *testing.T) {
	ts := newTestServer(&fakeQueue{depth: 7}, &fakeMatches{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/queue/ranked_1v1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["depth"])
}

func TestQueueCancel_RemovesEntryAndPreMatchSession(t *testing.T) {
	q := &fakeQueue{}
	ts := newTestServer(q, &fakeMatches{preMatchResult: true})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/queue/ranked_1v1/agent-7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["session_cancelled"])
	assert.Equal(t, []string{"agent-7"}, q.cancelled)
}

func TestCommentary_ForwardedToMatches(t *testing.T) {
	m := &fakeMatches{}
	ts := newTestServer(&fakeQueue{}, m)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/commentary/m1", "application/json", strings.NewReader(`{"text":"tanks rolling out"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"tanks rolling out"}, m.commentary)
}

func TestCommentary_EmptyBodyRejected(t *testing.T) {
	ts := newTestServer(&fakeQueue{}, &fakeMatches{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/commentary/m1", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
