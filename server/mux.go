package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
)

type Mux struct {
	BaseURL string

	log     logger.Logger
	handler *chi.Mux
	version string
	conns   *ConnManager
	initial conn.State
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.handler.ServeHTTP(w, r)
}

func withGauge(counter prometheus.Counter, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counter.Inc()
		h.ServeHTTP(w, r)
	}
}

func NewMux(
	log logger.Logger,
	baseURL string,
	version string,
	conns *ConnManager,
	initial conn.State,
	prom PrometheusConfig,
	embed Embed,
) *Mux {
	log = log.WithNamespaceAppended("mux")

	templates := ParseTemplates(embed.Templates)
	renderer := NewRenderer(log, templates, baseURL, version)

	handler := chi.NewRouter()
	mux := &Mux{
		BaseURL: baseURL,
		log:     log,
		handler: handler,
		version: version,
		conns:   conns,
		initial: initial,
	}

	var root string
	if baseURL == "" {
		root = "/"
	} else {
		root = baseURL
	}

	wss := NewWSS(log, conns)
	watchHandler := NewWatchHandler(log, wss, conns)

	handler.Route(root, func(router chi.Router) {
		router.Get("/", withGauge(prometheusHomeViewsTotal, renderer.Render(mux.routeIndex)))

		router.Post("/connections", mux.routeCreateConn)
		router.Get("/connections", mux.routeListConns)
		router.Get("/connections/{connID}", mux.routeGetConn)
		router.Post("/connections/{connID}/actions", mux.routeApplyAction)
		router.Put("/connections/{connID}/state", mux.routeSetState)
		router.Delete("/connections/{connID}", mux.routeRemoveConn)

		router.Get("/probes/liveness", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
		})
		router.Get("/probes/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
		})

		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			accessToken := r.Header.Get("Authorization")
			if strings.HasPrefix(accessToken, "Bearer ") {
				accessToken = accessToken[len("Bearer "):]
			} else {
				accessToken = r.FormValue("access_token")
			}

			if accessToken == "" || accessToken != prom.AccessToken {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}
			promhttp.Handler().ServeHTTP(w, r)
		})

		router.Mount("/ws", watchHandler)
	})

	return mux
}

func (mux *Mux) jsonResponse(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		mux.log.Error("Encode json response", err, nil)
	}
}

func (mux *Mux) jsonError(w http.ResponseWriter, status int, message string) {
	mux.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

func (mux *Mux) routeIndex(w http.ResponseWriter, r *http.Request) (string, interface{}, error) {
	type indexConn struct {
		ID         identifiers.ConnID
		State      conn.State
		StateClass string
		CreatedAt  string
	}

	infos := mux.conns.List()
	connections := make([]indexConn, 0, len(infos))

	for _, info := range infos {
		connections = append(connections, indexConn{
			ID:         info.ID,
			State:      info.State,
			StateClass: strings.ToLower(info.State.String()),
			CreatedAt:  info.CreatedAt.Format(time.RFC3339),
		})
	}

	data := map[string]interface{}{
		"Connections": connections,
	}

	return "index.html", data, nil
}

func (mux *Mux) routeCreateConn(w http.ResponseWriter, r *http.Request) {
	initial := mux.initial

	if value := r.PostFormValue("state"); value != "" {
		state, ok := conn.StateFromString(value)
		if !ok {
			mux.jsonError(w, http.StatusBadRequest, "unknown state: "+value)

			return
		}

		initial = state
	}

	info := mux.conns.Create(initial)

	mux.jsonResponse(w, http.StatusCreated, info)
}

func (mux *Mux) routeListConns(w http.ResponseWriter, r *http.Request) {
	mux.jsonResponse(w, http.StatusOK, mux.conns.List())
}

func (mux *Mux) routeGetConn(w http.ResponseWriter, r *http.Request) {
	connID := identifiers.ConnID(chi.URLParam(r, "connID"))

	info, ok := mux.conns.Get(connID)
	if !ok {
		mux.jsonError(w, http.StatusNotFound, "connection not found")

		return
	}

	mux.jsonResponse(w, http.StatusOK, info)
}

type actionRequest struct {
	Action  string `json:"action"`
	Payload string `json:"payload"`
}

// routeApplyAction dispatches an action on a connection. Rejected actions
// are a defined outcome, so the response is 200 either way and the report
// tells the status.
func (mux *Mux) routeApplyAction(w http.ResponseWriter, r *http.Request) {
	connID := identifiers.ConnID(chi.URLParam(r, "connID"))

	var request actionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		mux.jsonError(w, http.StatusBadRequest, "malformed action request")

		return
	}

	kind, ok := conn.ActionKindFromString(request.Action)
	if !ok {
		mux.jsonError(w, http.StatusBadRequest, "unknown action: "+request.Action)

		return
	}

	report, err := mux.conns.Apply(connID, conn.Action{
		Kind:    kind,
		Payload: []byte(request.Payload),
	})
	if err != nil {
		mux.jsonError(w, http.StatusNotFound, "connection not found")

		return
	}

	mux.jsonResponse(w, http.StatusOK, report)
}

type setStateRequest struct {
	State string `json:"state"`
}

func (mux *Mux) routeSetState(w http.ResponseWriter, r *http.Request) {
	connID := identifiers.ConnID(chi.URLParam(r, "connID"))

	var request setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		mux.jsonError(w, http.StatusBadRequest, "malformed state request")

		return
	}

	state, ok := conn.StateFromString(request.State)
	if !ok {
		mux.jsonError(w, http.StatusBadRequest, "unknown state: "+request.State)

		return
	}

	if err := mux.conns.SetState(connID, state); err != nil {
		mux.jsonError(w, http.StatusNotFound, "connection not found")

		return
	}

	info, _ := mux.conns.Get(connID)
	mux.jsonResponse(w, http.StatusOK, info)
}

func (mux *Mux) routeRemoveConn(w http.ResponseWriter, r *http.Request) {
	connID := identifiers.ConnID(chi.URLParam(r, "connID"))

	if !mux.conns.Remove(connID) {
		mux.jsonError(w, http.StatusNotFound, "connection not found")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
