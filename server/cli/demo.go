package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/command"
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
	"github.com/connstate/connstate/server/uuid"
)

// DemoStep is a single entry in a demo scenario. A step either applies an
// action, optionally with a payload, or overwrites the state directly.
type DemoStep struct {
	Action  string `yaml:"action"`
	Payload string `yaml:"payload"`
	State   string `yaml:"state"`
}

// DemoScenario is a scripted sequence of steps driving one connection.
type DemoScenario struct {
	InitialState string     `yaml:"initial_state"`
	Steps        []DemoStep `yaml:"steps"`
}

// referenceScenario is the classic walkthrough: both data actions are
// rejected while closed, the state is moved to listening by hand, the first
// received data completes the handshake and data flows until close.
func referenceScenario() DemoScenario {
	return DemoScenario{
		InitialState: "closed",
		Steps: []DemoStep{
			{Action: "send", Payload: "Hello"},
			{Action: "receive", Payload: "Hi"},
			{State: "listening"},
			{Action: "receive", Payload: "Hello"},
			{Action: "send", Payload: "Hello"},
			{Action: "receive", Payload: "Hi"},
			{Action: "close"},
		},
	}
}

type demoHandler struct {
	args struct {
		config   string
		scenario string
		state    string
	}

	log   logger.Logger
	props Props
}

func (h *demoHandler) RegisterFlags(c *command.Command, flags *pflag.FlagSet) {
	flags.StringVarP(&h.args.config, "config", "c", "", "config file to use")
	flags.StringVarP(&h.args.scenario, "scenario", "s", "", "yaml scenario file to run instead of the built-in one")
	flags.StringVar(&h.args.state, "state", "", "initial state override (closed, listening or established)")
}

func (h *demoHandler) Handle(ctx context.Context, args []string) error {
	scenario, err := h.loadScenario()
	if err != nil {
		return errors.Trace(err)
	}

	initial, err := h.initialState(scenario)
	if err != nil {
		return errors.Trace(err)
	}

	c := conn.New(conn.Params{
		Log:     h.log,
		ID:      identifierForDemo(),
		Initial: initial,
	})

	for _, step := range scenario.Steps {
		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		default:
		}

		if step.State != "" {
			state, ok := conn.StateFromString(step.State)
			if !ok {
				return errors.Errorf("unknown state in scenario: %q", step.State)
			}

			c.SetState(state)

			continue
		}

		kind, ok := conn.ActionKindFromString(step.Action)
		if !ok {
			return errors.Errorf("unknown action in scenario: %q", step.Action)
		}

		report := c.Apply(conn.Action{
			Kind:    kind,
			Payload: []byte(step.Payload),
		})

		fmt.Println(report.Message)
	}

	return nil
}

func (h *demoHandler) loadScenario() (DemoScenario, error) {
	if h.args.scenario == "" {
		return referenceScenario(), nil
	}

	f, err := os.Open(h.args.scenario)
	if err != nil {
		return DemoScenario{}, errors.Annotatef(err, "read scenario file: %s", h.args.scenario)
	}

	defer f.Close()

	var scenario DemoScenario

	if err := yaml.NewDecoder(f).Decode(&scenario); err != nil {
		return DemoScenario{}, errors.Annotatef(err, "decode scenario yaml: %s", h.args.scenario)
	}

	return scenario, nil
}

// initialState resolves the initial state with the flag taking precedence
// over the scenario, the scenario over the config.
func (h *demoHandler) initialState(scenario DemoScenario) (conn.State, error) {
	name := h.args.state

	if name == "" {
		name = scenario.InitialState
	}

	if name == "" {
		configFiles := []string{}
		if h.args.config != "" {
			configFiles = append(configFiles, h.args.config)
		}

		config, err := server.ReadConfig(configFiles)
		if err != nil {
			return conn.StateClosed, errors.Annotate(err, "read config")
		}

		name = config.Conn.InitialState
	}

	state, ok := conn.StateFromString(name)
	if !ok {
		return conn.StateClosed, errors.Errorf("unknown initial state: %q", name)
	}

	return state, nil
}

func identifierForDemo() identifiers.ConnID {
	return identifiers.ConnID("demo-" + uuid.New())
}

func newDemoCmd(props Props) *command.Command {
	h := &demoHandler{
		log:   props.Log,
		props: props,
	}

	return command.New(command.Params{
		Name:         "demo",
		Desc:         "Runs a connection state machine scenario and prints each report",
		FlagRegistry: h,
		Handler:      h,
	})
}
