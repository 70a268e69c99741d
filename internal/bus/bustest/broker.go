// Package bustest provides an in-memory MQTT broker implementing the
// narrow client surface the bus adapter uses, so bus behavior is testable
// without a real broker. It models topic routing with single-level
// wildcards, retained messages, last-will delivery, and broker outages.
package bustest

import (
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/flowpro-icc/tnc-gateway/internal/bus"
)

// Broker is the in-memory broker. All connected clients share it.
type Broker struct {
	mu       sync.Mutex
	clients  []*Client
	retained map[string]retainedMsg
	down     bool

	dispatchMu sync.Mutex
}

type retainedMsg struct {
	body []byte
}

// NewBroker builds an empty broker.
func NewBroker() *Broker {
	return &Broker{retained: make(map[string]retainedMsg)}
}

// Dialer returns a bus.Dialer that connects clients to this broker.
func (b *Broker) Dialer() bus.Dialer {
	return func(opts *mqtt.ClientOptions) bus.Client {
		c := &Client{broker: b, opts: opts, subs: make(map[string]mqtt.MessageHandler)}
		b.mu.Lock()
		b.clients = append(b.clients, c)
		b.mu.Unlock()
		return c
	}
}

// Clients returns every client ever dialed, in dial order.
func (b *Broker) Clients() []*Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Client, len(b.clients))
	copy(out, b.clients)
	return out
}

// SetDown cuts or restores the broker. Cutting disconnects every client
// (firing their lost handlers); restoring reconnects clients that want
// auto-reconnect, firing their connect handlers.
func (b *Broker) SetDown(down bool) {
	b.mu.Lock()
	b.down = down
	affected := make([]*Client, len(b.clients))
	copy(affected, b.clients)
	b.mu.Unlock()

	for _, c := range affected {
		if down {
			c.drop(false)
		} else {
			c.reconnect()
		}
	}
}

// Kill disconnects one client ungracefully, delivering its last will.
func (b *Broker) Kill(c *Client) { c.drop(true) }

// Inject publishes a message as if from an external participant.
func (b *Broker) Inject(topic string, body []byte, retained bool) {
	b.deliver(topic, body, retained)
}

// Retained returns the retained body on a topic, if any.
func (b *Broker) Retained(topic string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.retained[topic]
	return m.body, ok
}

// deliver routes a message to every matching subscription of every
// connected client, under a dispatch lock so concurrent publishes keep a
// total order per topic.
func (b *Broker) deliver(topic string, body []byte, retained bool) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	if retained {
		if len(body) == 0 {
			delete(b.retained, topic)
		} else {
			b.retained[topic] = retainedMsg{body: body}
		}
	}
	type target struct {
		cb mqtt.MessageHandler
		c  *Client
	}
	var targets []target
	for _, c := range b.clients {
		c.mu.Lock()
		if c.connected {
			for filter, cb := range c.subs {
				if filterMatches(filter, topic) {
					targets = append(targets, target{cb: cb, c: c})
				}
			}
		}
		c.mu.Unlock()
	}
	b.mu.Unlock()

	for _, t := range targets {
		t.cb(nil, &fakeMessage{topic: topic, body: body, retained: retained})
	}
}

// Client is one in-memory broker connection.
type Client struct {
	broker *Broker
	opts   *mqtt.ClientOptions

	mu        sync.Mutex
	connected bool
	subs      map[string]mqtt.MessageHandler
}

func (c *Client) Connect() mqtt.Token {
	c.broker.mu.Lock()
	down := c.broker.down
	c.broker.mu.Unlock()
	if down {
		return errToken(errBrokerDown)
	}
	c.mu.Lock()
	c.connected = true
	onConnect := c.opts.OnConnect
	c.mu.Unlock()
	if onConnect != nil {
		go onConnect(nil)
	}
	return okToken()
}

func (c *Client) Disconnect(_ uint) {
	// Clean disconnect discards the will.
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

// drop models an ungraceful connection loss.
func (c *Client) drop(deliverWill bool) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	lost := c.opts.OnConnectionLost
	c.mu.Unlock()
	if !wasConnected {
		return
	}
	if deliverWill && c.opts.WillEnabled {
		c.broker.deliver(c.opts.WillTopic, c.opts.WillPayload, c.opts.WillRetained)
	}
	if lost != nil {
		go lost(nil, errConnectionLost)
	}
}

func (c *Client) reconnect() {
	c.mu.Lock()
	if c.connected || !c.opts.AutoReconnect {
		c.mu.Unlock()
		return
	}
	c.connected = true
	onConnect := c.opts.OnConnect
	c.mu.Unlock()
	if onConnect != nil {
		go onConnect(nil)
	}
}

func (c *Client) Publish(topic string, _ byte, retained bool, p interface{}) mqtt.Token {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return errToken(errNotConnected)
	}
	var body []byte
	switch v := p.(type) {
	case []byte:
		body = v
	case string:
		body = []byte(v)
	}
	c.broker.deliver(topic, body, retained)
	return okToken()
}

func (c *Client) Subscribe(filter string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return errToken(errNotConnected)
	}
	c.subs[filter] = cb
	c.mu.Unlock()

	// Retained replay, as a broker does for fresh subscriptions.
	c.broker.mu.Lock()
	type replay struct {
		topic string
		body  []byte
	}
	var msgs []replay
	for topic, m := range c.broker.retained {
		if filterMatches(filter, topic) {
			msgs = append(msgs, replay{topic: topic, body: m.body})
		}
	}
	c.broker.mu.Unlock()
	for _, m := range msgs {
		cb(nil, &fakeMessage{topic: m.topic, body: m.body, retained: true})
	}
	return okToken()
}

func (c *Client) Unsubscribe(filters ...string) mqtt.Token {
	c.mu.Lock()
	for _, f := range filters {
		delete(c.subs, f)
	}
	c.mu.Unlock()
	return okToken()
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func filterMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, seg := range fp {
		if seg == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if seg != "+" && seg != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}
