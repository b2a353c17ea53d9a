package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/powermatch/core/aggregate"
	coremetrics "github.com/kilianp07/powermatch/core/metrics"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pemBlock("CERTIFICATE", der)
	keyPEM := pemBlock("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	for f, b := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(f, b, 0o600); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	return
}

func pemBlock(typ string, b []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: b})
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}

	caOnly, err := Config{CABundle: ca}.LoadTLSConfig()
	if err != nil {
		t.Fatalf("ca only: %v", err)
	}
	if len(caOnly.Certificates) != 0 {
		t.Fatalf("unexpected client cert")
	}
	if _, err := (Config{}).LoadTLSConfig(); err == nil {
		t.Fatalf("expected missing ca error")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.TopicPrefix != "powermatch" || c.ClientID == "" || c.MaxRetries != 3 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("disabled config must be valid: %v", err)
	}
	c.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected broker error")
	}
	c.Broker = "tcp://localhost:1883"
	c.QoS = 3
	if err := c.Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", TopicPrefix: "pm", QoS: 1})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "pm/status" || string(opts.WillPayload) != "offline" || !opts.WillRetained {
		t.Fatalf("will options incorrect")
	}
}

func newTestPublisher(t *testing.T, mc *mockClient, cfg Config) *Publisher {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
	}
	p, err := NewPublisher(cfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	return p
}

func TestPublisher_OnConnect(t *testing.T) {
	mc := &mockClient{}
	newTestPublisher(t, mc, Config{TopicPrefix: "pm/", QoS: 1})
	if len(mc.subscribed) != 1 || mc.subscribed[0].topic != "pm/control/cancel" || mc.subscribed[0].qos != 1 {
		t.Fatalf("control subscription wrong: %+v", mc.subscribed)
	}
	if len(mc.published) != 1 || mc.published[0].topic != "pm/status" || !mc.published[0].retained {
		t.Fatalf("online status not published: %+v", mc.published)
	}
}

func TestPublisher_Topics(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{TopicPrefix: "pm"})
	mc.published = nil

	if err := p.RecordDispatchStep(coremetrics.DispatchStepEvent{RunID: "r1", Unit: "Gas", Index: 1, Total: 2}); err != nil {
		t.Fatalf("dispatch step: %v", err)
	}
	if err := p.RecordGeneration(coremetrics.GenerationEvent{RunID: "r1", Generation: 2, Best: 80}); err != nil {
		t.Fatalf("generation: %v", err)
	}
	sum := aggregate.Summary{Totals: aggregate.Totals{LCOE: aggregate.Blank}}
	if err := p.RecordSummary(coremetrics.SummaryEvent{RunID: "r1", Kind: coremetrics.KindPowermatch, Summary: sum}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if err := p.RecordOptimise(coremetrics.OptimiseEvent{RunID: "r1", Capacities: map[string]float64{"Gas": 50}}); err != nil {
		t.Fatalf("optimise: %v", err)
	}
	want := []string{"pm/runs/r1/progress", "pm/runs/r1/progress", "pm/runs/r1/summary", "pm/runs/r1/optimise"}
	if len(mc.published) != len(want) {
		t.Fatalf("published %d messages", len(mc.published))
	}
	for i, w := range want {
		if mc.published[i].topic != w {
			t.Errorf("message %d on %s, want %s", i, mc.published[i].topic, w)
		}
	}
	var gen map[string]any
	if err := json.Unmarshal(mc.published[1].payload, &gen); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gen["stage"] != "optimise" || gen["best"] != 80.0 {
		t.Fatalf("unexpected payload %v", gen)
	}
	var summary struct {
		Summary struct {
			Totals struct {
				LCOE *float64 `json:"lcoe"`
			} `json:"totals"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(mc.published[2].payload, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Summary.Totals.LCOE != nil {
		t.Fatalf("blank lcoe must be null")
	}
}

func TestPublisher_Retry(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{MaxRetries: 1, BackoffMS: 1})
	mc.published = nil
	mc.publishErrs = []error{errors.New("net fail"), nil}
	if err := p.RecordGeneration(coremetrics.GenerationEvent{RunID: "r"}); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected 2 attempts got %d", len(mc.published))
	}

	mc.publishErrs = []error{errors.New("a"), errors.New("b")}
	if err := p.RecordGeneration(coremetrics.GenerationEvent{RunID: "r"}); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestPublisher_Cancel(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{})
	called := 0
	unregister := p.OnCancel("run-1", func() { called++ })
	p.onCancel(nil, mockMessage{[]byte(`{"run_id":"run-2"}`)})
	p.onCancel(nil, mockMessage{[]byte(`not json`)})
	p.onCancel(nil, mockMessage{[]byte(`{"run_id":"run-1"}`)})
	unregister()
	p.onCancel(nil, mockMessage{[]byte(`{"run_id":"run-1"}`)})
	if called != 1 {
		t.Fatalf("cancel called %d times", called)
	}
	p.Disconnect()
	if last := mc.published[len(mc.published)-1]; last.topic != "powermatch/status" || string(last.payload) != "offline" {
		t.Fatalf("offline status not published: %+v", last)
	}
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	mu         sync.Mutex
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	}
	m.published = append(m.published, published{topic, qos, retained, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
