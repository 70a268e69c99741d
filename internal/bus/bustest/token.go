package bustest

import (
	"time"

	"github.com/pkg/errors"
)

var (
	errBrokerDown     = errors.New("bustest: broker down")
	errNotConnected   = errors.New("bustest: not connected")
	errConnectionLost = errors.New("bustest: connection lost")
)

// fakeToken is an already-completed paho token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func okToken() *fakeToken { return newToken(nil) }

func errToken(err error) *fakeToken { return newToken(err) }

func newToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// fakeMessage is an inbound paho message.
type fakeMessage struct {
	topic    string
	body     []byte
	retained bool
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return m.retained }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.body }
func (m *fakeMessage) Ack()              {}
