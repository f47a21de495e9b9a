package conn_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/connstate/connstate/server/conn"
	"github.com/stretchr/testify/assert"
)

func TestStep(t *testing.T) {
	t.Parallel()

	type testCase struct {
		state       conn.State
		action      conn.Action
		wantStatus  conn.Status
		wantState   conn.State
		wantMessage string
	}

	testCases := []testCase{
		{
			conn.StateClosed, conn.Open(),
			conn.StatusAccepted, conn.StateListening,
			"Transitioning from Closed to Listening state.",
		},
		{
			conn.StateClosed, conn.Close(),
			conn.StatusAccepted, conn.StateClosed,
			"Already in Closed state.",
		},
		{
			conn.StateClosed, conn.Send([]byte("Hello")),
			conn.StatusRejected, conn.StateClosed,
			"Cannot send data. Connection is closed.",
		},
		{
			conn.StateClosed, conn.Receive([]byte("Hi")),
			conn.StatusRejected, conn.StateClosed,
			"Cannot receive data. Connection is closed.",
		},
		{
			conn.StateListening, conn.Open(),
			conn.StatusAccepted, conn.StateListening,
			"Already in Listening state.",
		},
		{
			conn.StateListening, conn.Close(),
			conn.StatusAccepted, conn.StateClosed,
			"Transitioning from Listening to Closed state.",
		},
		{
			conn.StateListening, conn.Send([]byte("Hello")),
			conn.StatusRejected, conn.StateListening,
			"Cannot send data. Connection is in Listening state.",
		},
		{
			conn.StateListening, conn.Receive([]byte("Hello")),
			conn.StatusAccepted, conn.StateEstablished,
			"Transitioning from Listening to Established state.",
		},
		{
			conn.StateEstablished, conn.Open(),
			conn.StatusAccepted, conn.StateEstablished,
			"Already in Established state.",
		},
		{
			conn.StateEstablished, conn.Close(),
			conn.StatusAccepted, conn.StateClosed,
			"Transitioning from Established to Closed state.",
		},
		{
			conn.StateEstablished, conn.Send([]byte("Hello")),
			conn.StatusAccepted, conn.StateEstablished,
			"Sending data: Hello",
		},
		{
			conn.StateEstablished, conn.Receive([]byte("Hi")),
			conn.StatusAccepted, conn.StateEstablished,
			"Receiving data: Hi",
		},
	}

	for i, tc := range testCases {
		descr := fmt.Sprintf("test case: %d, state: %s, action: %s", i, tc.state, tc.action.Kind)

		report, next := conn.Step(tc.state, tc.action)

		assert.Equal(t, tc.wantStatus, report.Status, "%s: status", descr)
		assert.Equal(t, tc.wantState, next, "%s: next state", descr)
		assert.Equal(t, tc.wantState, report.To, "%s: report.To", descr)
		assert.Equal(t, tc.state, report.From, "%s: report.From", descr)
		assert.Equal(t, tc.wantMessage, report.Message, "%s: message", descr)
		assert.Equal(t, tc.action.Kind, report.Action, "%s: report.Action", descr)
	}
}

func TestStep_CloseAlwaysYieldsClosed(t *testing.T) {
	t.Parallel()

	for _, state := range []conn.State{conn.StateClosed, conn.StateListening, conn.StateEstablished} {
		report, next := conn.Step(state, conn.Close())

		assert.Equal(t, conn.StateClosed, next, "close from %s", state)
		assert.True(t, report.Accepted(), "close from %s", state)

		report, next = conn.Step(next, conn.Close())

		assert.Equal(t, conn.StateClosed, next, "second close from %s", state)
		assert.False(t, report.Transitioned(), "second close from %s", state)
	}
}

func TestStep_SendOnlyAcceptedWhenEstablished(t *testing.T) {
	t.Parallel()

	for _, state := range []conn.State{conn.StateClosed, conn.StateListening, conn.StateEstablished} {
		report, next := conn.Step(state, conn.Send([]byte("payload")))

		assert.Equal(t, state, next, "send must never transition, state: %s", state)

		if state == conn.StateEstablished {
			assert.True(t, report.Accepted(), "state: %s", state)
		} else {
			assert.True(t, report.Rejected(), "state: %s", state)
		}
	}
}

func TestStep_PayloadEchoed(t *testing.T) {
	t.Parallel()

	report, _ := conn.Step(conn.StateEstablished, conn.Send([]byte("some opaque payload")))
	assert.Equal(t, "Sending data: some opaque payload", report.Message)

	report, _ = conn.Step(conn.StateEstablished, conn.Receive([]byte("another payload")))
	assert.Equal(t, "Receiving data: another payload", report.Message)
}

func TestStep_NeverLeavesKnownStates(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	actions := []conn.Action{
		conn.Open(),
		conn.Close(),
		conn.Send([]byte("x")),
		conn.Receive([]byte("y")),
	}

	state := conn.StateClosed

	for i := 0; i < 1000; i++ {
		action := actions[rng.Intn(len(actions))]

		var report conn.Report

		report, state = conn.Step(state, action)

		assert.Contains(t,
			[]conn.State{conn.StateClosed, conn.StateListening, conn.StateEstablished},
			state,
			"step: %d, action: %s", i, action.Kind,
		)
		assert.Equal(t, state, report.To)
	}
}

func BenchmarkStep(b *testing.B) {
	action := conn.Send([]byte("benchmark payload"))

	state := conn.StateEstablished

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, state = conn.Step(state, action)
	}
}
