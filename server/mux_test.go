package server_test

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/test"
)

const prometheusAccessToken = "prom1234"

func prom() server.PrometheusConfig {
	return server.PrometheusConfig{AccessToken: prometheusAccessToken}
}

func newMux(baseURL string) (*server.Mux, *server.ConnManager) {
	conns := newConnManager()
	mux := server.NewMux(test.NewLogger(), baseURL, "v0.0.0", conns, conn.StateClosed, prom(), embed)

	return mux, conns
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, value interface{}) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), value))
}

func Test_routeIndex(t *testing.T) {
	mux, conns := newMux("/test")
	conns.Create(conn.StateListening)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	assert.Regexp(t, "action=\"/test/connections\"", w.Body.String())
	assert.Contains(t, w.Body.String(), "Listening")
}

func Test_routeIndex_noBaseURL(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	assert.Regexp(t, "action=\"/connections\"", w.Body.String())
	assert.Contains(t, w.Body.String(), "No active connections")
}

func Test_routeCreateConn(t *testing.T) {
	mux, conns := newMux("")
	w := httptest.NewRecorder()
	reader := strings.NewReader(url.Values{"state": {"listening"}}.Encode())
	r := httptest.NewRequest("POST", "/connections", reader)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	mux.ServeHTTP(w, r)

	require.Equal(t, 201, w.Code)

	var info server.ConnInfo
	decodeJSON(t, w, &info)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, conn.StateListening, info.State)

	got, ok := conns.Get(info.ID)
	require.True(t, ok)
	assert.Equal(t, conn.StateListening, got.State)
}

func Test_routeCreateConn_default(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/connections", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 201, w.Code)

	var info server.ConnInfo
	decodeJSON(t, w, &info)
	assert.Equal(t, conn.StateClosed, info.State)
}

func Test_routeCreateConn_unknownState(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	reader := strings.NewReader(url.Values{"state": {"bogus"}}.Encode())
	r := httptest.NewRequest("POST", "/connections", reader)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	mux.ServeHTTP(w, r)

	require.Equal(t, 400, w.Code)
}

func Test_routeListConns(t *testing.T) {
	mux, conns := newMux("")
	conns.Create(conn.StateClosed)
	conns.Create(conn.StateEstablished)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/connections", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)

	var infos []server.ConnInfo
	decodeJSON(t, w, &infos)
	assert.Len(t, infos, 2)
}

func Test_routeGetConn(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateListening)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/connections/"+info.ID.String(), nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)

	var got server.ConnInfo
	decodeJSON(t, w, &got)
	assert.Equal(t, info.ID, got.ID)
	assert.Equal(t, conn.StateListening, got.State)
}

func Test_routeGetConn_notFound(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/connections/missing", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 404, w.Code)
}

func applyAction(t *testing.T, mux *server.Mux, connID identifiers.ConnID, body string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/connections/"+connID.String()+"/actions", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	mux.ServeHTTP(w, r)

	return w
}

func Test_routeApplyAction_accepted(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateClosed)

	w := applyAction(t, mux, info.ID, `{"action": "open"}`)
	require.Equal(t, 200, w.Code)

	var report conn.Report
	decodeJSON(t, w, &report)
	assert.Equal(t, conn.StatusAccepted, report.Status)
	assert.Equal(t, conn.StateListening, report.To)
	assert.Equal(t, "Transitioning from Closed to Listening state.", report.Message)
}

func Test_routeApplyAction_rejected(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateClosed)

	// A rejected action is a defined outcome, not an HTTP error.
	w := applyAction(t, mux, info.ID, `{"action": "send", "payload": "Hello"}`)
	require.Equal(t, 200, w.Code)

	var report conn.Report
	decodeJSON(t, w, &report)
	assert.Equal(t, conn.StatusRejected, report.Status)
	assert.Equal(t, conn.StateClosed, report.To)
	assert.Equal(t, "Cannot send data. Connection is closed.", report.Message)
}

func Test_routeApplyAction_payloadEcho(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateEstablished)

	w := applyAction(t, mux, info.ID, `{"action": "receive", "payload": "Hi"}`)
	require.Equal(t, 200, w.Code)

	var report conn.Report
	decodeJSON(t, w, &report)
	assert.Equal(t, "Receiving data: Hi", report.Message)
}

func Test_routeApplyAction_unknownAction(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateClosed)

	w := applyAction(t, mux, info.ID, `{"action": "explode"}`)
	require.Equal(t, 400, w.Code)
}

func Test_routeApplyAction_unknownConn(t *testing.T) {
	mux, _ := newMux("")

	w := applyAction(t, mux, "missing", `{"action": "open"}`)
	require.Equal(t, 404, w.Code)
}

func Test_routeSetState(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateClosed)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("PUT", "/connections/"+info.ID.String()+"/state", strings.NewReader(`{"state": "listening"}`))
	r.Header.Set("Content-Type", "application/json")

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)

	var got server.ConnInfo
	decodeJSON(t, w, &got)
	assert.Equal(t, conn.StateListening, got.State)
}

func Test_routeRemoveConn(t *testing.T) {
	mux, conns := newMux("")
	info := conns.Create(conn.StateClosed)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("DELETE", "/connections/"+info.ID.String(), nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 204, w.Code)
	assert.Equal(t, 0, conns.Size())

	w = httptest.NewRecorder()
	r = httptest.NewRequest("DELETE", "/connections/"+info.ID.String(), nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 404, w.Code)
}

func Test_probes(t *testing.T) {
	mux, _ := newMux("")

	for _, path := range []string{"/probes/liveness", "/probes/health"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", path, nil)

		mux.ServeHTTP(w, r)

		require.Equal(t, 200, w.Code, "probe %s", path)
	}
}

func Test_metrics_unauthorized(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics", nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 401, w.Code)
}

func Test_metrics_bearer(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics", nil)
	r.Header.Set("Authorization", "Bearer "+prometheusAccessToken)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "conn_created_total")
}

func Test_metrics_accessTokenForm(t *testing.T) {
	mux, _ := newMux("")
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics?access_token="+prometheusAccessToken, nil)

	mux.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
}
