package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/clock"
	"github.com/connstate/connstate/server/command"
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/logger"
)

type serverHandler struct {
	args struct {
		config    string
		pprofAddr string
	}

	log      logger.Logger
	config   server.Config
	props    Props
	server   *server.Server
	mux      *server.Mux
	adapters *server.AdapterFactory
}

func (h *serverHandler) RegisterFlags(c *command.Command, flags *pflag.FlagSet) {
	flags.StringVarP(&h.args.config, "config", "c", "", "config file to use")
	flags.StringVar(&h.args.pprofAddr, "pprof-addr", "", "when set, will enable pprof server (example: 127.0.0.1:6060)")
}

func (h *serverHandler) Handle(ctx context.Context, args []string) error {
	if err := h.configure(); err != nil {
		return errors.Trace(err)
	}

	defer func() {
		if err := h.adapters.Close(); err != nil {
			h.log.Error("Close adapter factory", errors.Trace(err), nil)
		}
	}()

	if pprofAddr := h.args.pprofAddr; pprofAddr != "" {
		pprofListener, err := net.Listen("tcp", pprofAddr)
		if err != nil {
			return errors.Annotatef(err, "listen pprof: %q", pprofAddr)
		}

		h.log.Info(fmt.Sprintf("Listen pprof %s", pprofAddr), logger.Ctx{
			"local_addr": pprofAddr,
		})

		go server.NewPProf().Start(ctx, pprofListener)
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(
		h.config.BindHost,
		strconv.Itoa(h.config.BindPort),
	))
	if err != nil {
		return errors.Annotate(err, "listen")
	}

	h.server = server.New(server.Params{
		TLSCertFile: h.config.TLS.Cert,
		TLSKeyFile:  h.config.TLS.Key,
	}, h.mux)

	defer listener.Close()

	addr, _ := listener.Addr().(*net.TCPAddr)
	h.log.Info("Listen", logger.Ctx{
		"local_addr": addr,
	})

	err = h.server.Start(ctx, listener)

	return errors.Trace(err)
}

func newServerCmd(props Props) *command.Command {
	h := &serverHandler{
		log:   props.Log,
		props: props,
	}

	return command.New(command.Params{
		Name:         "server",
		Desc:         "Starts the connstate server (default)",
		FlagRegistry: h,
		Handler:      h,
		SubCommands:  nil,
	})
}

func (h *serverHandler) configure() (err error) {
	log := h.log

	configFiles := []string{}
	if h.args.config != "" {
		configFiles = append(configFiles, h.args.config)
	}

	h.config, err = server.ReadConfig(configFiles)
	if err != nil {
		return errors.Annotate(err, "read config")
	}

	c := h.config

	log.Info(fmt.Sprintf("Using config: %+v", c), nil)

	initial, ok := conn.StateFromString(c.Conn.InitialState)
	if !ok {
		return errors.Errorf("unknown initial state: %q", c.Conn.InitialState)
	}

	h.adapters = server.NewAdapterFactory(log, c.Store)

	conns := server.NewConnManager(server.ConnManagerParams{
		Log:        log,
		Clock:      clock.New(),
		NewAdapter: h.adapters.NewAdapter,
	})

	h.mux = server.NewMux(log, c.BaseURL, h.props.Version, conns, initial, c.Prometheus, h.props.Embed)

	return nil
}
