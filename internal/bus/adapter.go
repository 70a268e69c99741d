// Package bus is the gateway's client of the MQTT event bus. It owns the
// broker connection lifecycle, the topic router, the offline publish
// queue, and the identity presence registry; the event patterns built on
// top of it live in patterns.go.
package bus

import (
	"crypto/tls"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	uberatomic "go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/flowpro-icc/tnc-gateway/internal/config"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// AgentRole is the role every gateway identity carries on the bus.
const AgentRole = "TNC Agent"

// ErrStopped reports an operation against a bus client that is not
// running.
var ErrStopped = errors.New("bus client is stopped")

// Identity is the agent identity broadcast on the bus for lifecycle
// tracking.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Client is the slice of the paho client surface the adapter uses.
// mqtt.Client satisfies it; bustest provides an in-memory implementation.
type Client interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	IsConnected() bool
}

// Dialer builds a Client from prepared paho options. The default dialer
// wraps mqtt.NewClient.
type Dialer func(opts *mqtt.ClientOptions) Client

func pahoDialer(opts *mqtt.ClientOptions) Client { return mqtt.NewClient(opts) }

const qos = 1

type message struct {
	topic string
	body  []byte
}

type outbound struct {
	topic    string
	body     []byte
	retained bool
}

// Adapter multiplexes the gateway's bus traffic over one MQTT client.
// Subscriptions and queued publishes are run-scoped: Stop ends every
// subscription cleanly and drops the queue. Agent watchers (lifecycle
// tracking) are adapter-scoped and survive restarts.
type Adapter struct {
	log  *zap.Logger
	dial Dialer

	mu      sync.Mutex
	opts    config.BusOptions
	client  Client
	running bool
	stopCh  chan struct{}
	subs    map[string][]*subscription
	queue   []outbound

	online  *uberatomic.Bool
	watch   *onlineWatchers
	agents  *agentRegistry
	backoff func() backoff.BackOff
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDialer replaces the paho client constructor, used by tests to run
// against the in-memory broker.
func WithDialer(d Dialer) Option {
	return func(a *Adapter) { a.dial = d }
}

// NewAdapter builds a stopped adapter with the given boot options.
func NewAdapter(opts config.BusOptions, log *zap.Logger, options ...Option) *Adapter {
	a := &Adapter{
		log:    log.Named("bus"),
		dial:   pahoDialer,
		opts:   opts,
		subs:   make(map[string][]*subscription),
		online: uberatomic.NewBool(false),
		watch:  newOnlineWatchers(),
		agents: newAgentRegistry(),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// Identity returns the live local identity.
func (a *Adapter) Identity() Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Identity{ID: a.opts.IdentityID, Name: a.opts.IdentityName, Role: AgentRole}
}

// Online reports whether the client currently holds a broker connection.
func (a *Adapter) Online() bool { return a.online.Load() }

// Start brings the client up and begins connecting. The initial connect
// retries in the background with exponential backoff; publishes and
// subscriptions issued before the connection lands are queued and flushed
// in order on connect.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("bus client already started")
	}
	if a.opts.BrokerURL == "" {
		return errors.New("no broker url configured")
	}

	copts, err := a.clientOptions()
	if err != nil {
		return err
	}
	a.client = a.dial(copts)
	a.running = true
	a.stopCh = make(chan struct{})

	// The adapter's own identity subscription feeds the presence
	// registry; retained replay on connect restores the known-agent set.
	sub := a.subscribeLocked(a.topic("identity", "+"))
	go a.pumpIdentities(sub)

	go a.connectLoop(a.client, a.stopCh)
	a.log.Info("bus client starting", zap.String("broker", a.opts.BrokerURL), zap.String("namespace", a.opts.Namespace))
	return nil
}

// Stop tears the client down: the retained identity is tombstoned, every
// run-scoped subscription ends cleanly, and the publish queue is dropped.
// Idempotent.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopCh)
	client := a.client
	a.client = nil

	subs := a.subs
	a.subs = make(map[string][]*subscription)
	a.queue = nil
	tombstone := a.topic("identity", a.opts.IdentityID)
	a.mu.Unlock()

	if client != nil && client.IsConnected() {
		t := client.Publish(tombstone, qos, true, []byte{})
		t.WaitTimeout(time.Second)
		client.Disconnect(250)
	}
	for _, list := range subs {
		for _, s := range list {
			s.box.close()
		}
	}
	a.setOnline(false)
	a.log.Info("bus client stopped")
}

// Restart applies merged options: stop (tombstoning the prior identity),
// swap, start. An identity change therefore surfaces on the bus as a
// LEAVE of the old identity followed by a JOIN of the new one.
func (a *Adapter) Restart(opts config.BusOptions) error {
	a.Stop()
	a.mu.Lock()
	a.opts = opts
	a.mu.Unlock()
	if opts.BrokerURL == "" {
		return nil
	}
	return a.Start()
}

func (a *Adapter) clientOptions() (*mqtt.ClientOptions, error) {
	o := mqtt.NewClientOptions()
	o.AddBroker(a.opts.BrokerURL)
	o.SetClientID("tnc-gateway-" + a.opts.IdentityID)
	if a.opts.Username != "" {
		o.SetUsername(a.opts.Username)
		o.SetPassword(a.opts.Password)
	}
	tlsCfg, err := a.tlsConfig()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		o.SetTLSConfig(tlsCfg)
	}
	o.SetCleanSession(true)
	o.SetAutoReconnect(true)
	o.SetOrderMatters(true)
	// Ungraceful death leaves a retained tombstone so remote trackers see
	// the LEAVE.
	o.SetBinaryWill(a.topic("identity", a.opts.IdentityID), []byte{}, qos, true)
	o.SetOnConnectHandler(a.handleConnect)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.setOnline(false)
		a.log.Warn("bus connection lost", zap.Error(err))
	})
	return o, nil
}

// tlsConfig builds the TLS material from the configured cert and key,
// each either a PEM string or a file path.
func (a *Adapter) tlsConfig() (*tls.Config, error) {
	if a.opts.TLSCert == "" && a.opts.VerifyServerCert {
		if !strings.HasPrefix(a.opts.BrokerURL, "mqtts://") && !strings.HasPrefix(a.opts.BrokerURL, "ssl://") && !strings.HasPrefix(a.opts.BrokerURL, "wss://") {
			return nil, nil
		}
	}
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !a.opts.VerifyServerCert, //nolint:gosec // operator toggle for self-signed brokers
	}
	if a.opts.TLSCert != "" {
		certPEM, err := pemMaterial(a.opts.TLSCert)
		if err != nil {
			return nil, errors.Wrap(err, "load tls cert")
		}
		keyPEM, err := pemMaterial(a.opts.TLSKey)
		if err != nil {
			return nil, errors.Wrap(err, "load tls key")
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, errors.Wrap(err, "parse tls key pair")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func pemMaterial(v string) ([]byte, error) {
	if strings.Contains(v, "-----BEGIN") {
		return []byte(v), nil
	}
	return os.ReadFile(v)
}

// connectLoop retries the initial connect until it lands or the run is
// stopped. Reconnects after that are paho's auto-reconnect.
func (a *Adapter) connectLoop(client Client, stop <-chan struct{}) {
	bo := a.backoff()
	for {
		t := client.Connect()
		t.Wait()
		if t.Error() == nil {
			return
		}
		a.log.Warn("bus connect failed", zap.Error(t.Error()))
		select {
		case <-time.After(bo.NextBackOff()):
		case <-stop:
			return
		}
	}
}

// handleConnect runs on every (re)connect: restore subscriptions, publish
// the retained identity, flush the queue in order.
func (a *Adapter) handleConnect(_ mqtt.Client) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	client := a.client
	filters := make([]string, 0, len(a.subs))
	for f := range a.subs {
		filters = append(filters, f)
	}
	queued := a.queue
	a.queue = nil
	identity := Identity{ID: a.opts.IdentityID, Name: a.opts.IdentityName, Role: AgentRole}
	identityTopic := a.topic("identity", a.opts.IdentityID)
	a.mu.Unlock()

	for _, f := range filters {
		client.Subscribe(f, qos, a.route)
	}
	body, err := marshalIdentity(identity)
	if err == nil {
		client.Publish(identityTopic, qos, true, body)
		metrics.BusEventsPublished.WithLabelValues("identity").Inc()
	}
	for _, out := range queued {
		client.Publish(out.topic, qos, out.retained, out.body)
	}

	a.setOnline(true)
	a.log.Info("bus connected", zap.Int("flushed", len(queued)))
}

func (a *Adapter) setOnline(v bool) {
	if a.online.Swap(v) != v {
		if v {
			metrics.BusOnline.Set(1)
		} else {
			metrics.BusOnline.Set(0)
		}
		a.watch.notify(v)
	}
}

// ObserveOnline returns the current online state and a stream of
// subsequent transitions.
func (a *Adapter) ObserveOnline() (bool, <-chan bool, func()) {
	return a.watch.add(a.online.Load())
}

// publish hands a message to the broker, or queues it while the
// connection is down. Callers enforce fail-fast before getting here.
func (a *Adapter) publish(topic string, body []byte, retained bool) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return ErrStopped
	}
	client := a.client
	if !a.online.Load() {
		a.queue = append(a.queue, outbound{topic: topic, body: body, retained: retained})
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	t := client.Publish(topic, qos, retained, body)
	t.Wait()
	return errors.Wrap(t.Error(), "publish "+topic)
}

// subscription is one local consumer of a topic filter. Messages arrive
// through an unbounded mailbox pumped by a dedicated goroutine, so the
// MQTT router never blocks and per-topic order is preserved.
type subscription struct {
	a      *Adapter
	filter string
	box    *mailbox[message]
	once   sync.Once
}

// cancel removes the subscription; the broker-side subscription is
// released when the last local consumer of the filter goes.
func (s *subscription) cancel() {
	s.once.Do(func() {
		s.a.remove(s)
		s.box.close()
	})
}

func (a *Adapter) subscribe(filter string) (*subscription, error) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil, ErrStopped
	}
	s := a.subscribeLocked(filter)
	first := len(a.subs[filter]) == 1
	client := a.client
	online := a.online.Load()
	a.mu.Unlock()

	// The broker call happens outside the lock: delivery (including
	// retained replay) re-enters the router.
	if first && client != nil && online {
		client.Subscribe(filter, qos, a.route)
	}
	return s, nil
}

func (a *Adapter) subscribeLocked(filter string) *subscription {
	s := &subscription{a: a, filter: filter, box: newMailbox[message]()}
	a.subs[filter] = append(a.subs[filter], s)
	return s
}

func (a *Adapter) remove(s *subscription) {
	a.mu.Lock()
	list := a.subs[s.filter]
	for i, cur := range list {
		if cur == s {
			a.subs[s.filter] = append(list[:i], list[i+1:]...)
			break
		}
	}
	var client Client
	if len(a.subs[s.filter]) == 0 {
		delete(a.subs, s.filter)
		if a.client != nil && a.online.Load() {
			client = a.client
		}
	}
	a.mu.Unlock()
	if client != nil {
		client.Unsubscribe(s.filter)
	}
}

// route fans an inbound broker message out to every matching local
// subscription mailbox.
func (a *Adapter) route(_ mqtt.Client, msg mqtt.Message) {
	m := message{topic: msg.Topic(), body: msg.Payload()}
	a.mu.Lock()
	var boxes []*mailbox[message]
	for filter, list := range a.subs {
		if topicMatches(filter, m.topic) {
			for _, s := range list {
				boxes = append(boxes, s.box)
			}
		}
	}
	a.mu.Unlock()
	for _, b := range boxes {
		b.put(m)
	}
}

// topic joins the namespace with a pattern segment and its element.
func (a *Adapter) topic(pattern, element string) string {
	return a.opts.Namespace + "/" + pattern + "/" + element
}

// Topic exposes namespaced topic construction for collaborators that run
// raw traffic over the adapter, such as the consensus transport.
func (a *Adapter) Topic(parts ...string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.Namespace + "/" + strings.Join(parts, "/")
}

// topicMatches reports whether a single-level-wildcard filter matches a
// concrete topic.
func topicMatches(filter, topic string) bool {
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

// onlineWatchers fans online/offline transitions out to observers.
type onlineWatchers struct {
	mu   sync.Mutex
	next int
	set  map[int]chan bool
}

func newOnlineWatchers() *onlineWatchers {
	return &onlineWatchers{set: make(map[int]chan bool)}
}

func (w *onlineWatchers) add(current bool) (bool, <-chan bool, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	ch := make(chan bool, 8)
	w.set[id] = ch
	return current, ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if c, ok := w.set[id]; ok {
			delete(w.set, id)
			close(c)
		}
	}
}

func (w *onlineWatchers) notify(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.set {
		select {
		case ch <- v:
		default:
		}
	}
}
