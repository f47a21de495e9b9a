package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/juju/errors"

	"github.com/connstate/connstate/server/multierr"
)

// PProf is a standalone debug server exposing the runtime profiles. Bound to
// its own listener so the profiles never share a port with the public API.
type PProf struct {
	server *http.Server
}

func NewPProf() *PProf {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &PProf{
		server: &http.Server{
			Handler: mux,
		},
	}
}

func (p *PProf) Start(ctx context.Context, l net.Listener) error {
	startErrCh := make(chan error, 1)

	go func() {
		defer close(startErrCh)

		startErrCh <- errors.Annotate(p.server.Serve(l), "start pprof")
	}()

	select {
	case <-ctx.Done():
	case err := <-startErrCh:
		return errors.Trace(err)
	}

	err := errors.Trace(p.server.Close())

	if startErr := <-startErrCh; startErr != nil {
		err = errors.Trace(startErr)
	}

	if !multierr.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}

	return nil
}
