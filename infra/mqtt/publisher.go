package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher streams run progress and results to an MQTT broker:
//
//	<prefix>/status                  online / offline (retained)
//	<prefix>/runs/<id>/progress      dispatch steps and optimiser generations
//	<prefix>/runs/<id>/summary       final summary
//	<prefix>/runs/<id>/optimise      optimiser result
//	<prefix>/control/cancel          {"run_id": "..."} cancels a running job
//
// It implements the metrics recorders so it can sit behind a MultiSink.
type Publisher struct {
	cli    pahoClient
	prefix string
	qos    byte
	retain bool
	logger logger.Logger

	maxRetries int
	backoff    time.Duration

	mu      sync.Mutex
	cancels map[string]func()
}

// NewPublisher connects to the broker and subscribes to the control topic.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &Publisher{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		cancels:    make(map[string]func()),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		c.Publish(p.prefix+"/status", p.qos, true, "online")
		if token := c.Subscribe(p.prefix+"/control/cancel", p.qos, p.onCancel); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// OnCancel registers fn to run when a cancel request for runID arrives.
// The returned func unregisters it.
func (p *Publisher) OnCancel(runID string, fn func()) func() {
	p.mu.Lock()
	p.cancels[runID] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.cancels, runID)
		p.mu.Unlock()
	}
}

func (p *Publisher) onCancel(_ paho.Client, msg paho.Message) {
	var m struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode cancel request: %v", err)
		return
	}
	p.mu.Lock()
	fn, ok := p.cancels[m.RunID]
	p.mu.Unlock()
	if !ok {
		p.logger.Debugf("cancel for unknown run %s", m.RunID)
		return
	}
	p.logger.Infof("cancel requested for run %s", m.RunID)
	fn()
}

func (p *Publisher) topic(runID, kind string) string {
	return fmt.Sprintf("%s/runs/%s/%s", p.prefix, runID, kind)
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// RecordSummary publishes the summary of a finished run.
func (p *Publisher) RecordSummary(ev coremetrics.SummaryEvent) error {
	return p.publish(p.topic(ev.RunID, "summary"), struct {
		Kind     coremetrics.RunKind `json:"kind"`
		Summary  any                 `json:"summary"`
		Duration float64             `json:"duration_s"`
		Time     time.Time           `json:"time"`
	}{ev.Kind, ev.Summary, ev.Duration.Seconds(), ev.Time})
}

// RecordGeneration publishes optimiser progress.
func (p *Publisher) RecordGeneration(ev coremetrics.GenerationEvent) error {
	return p.publish(p.topic(ev.RunID, "progress"), map[string]any{
		"stage":       "optimise",
		"generation":  ev.Generation,
		"best":        ev.Best,
		"best_ever":   ev.BestEver,
		"mean":        ev.Mean,
		"evaluations": ev.Evaluations,
		"elapsed_s":   ev.Elapsed.Seconds(),
	})
}

// RecordDispatchStep publishes single-pass progress.
func (p *Publisher) RecordDispatchStep(ev coremetrics.DispatchStepEvent) error {
	return p.publish(p.topic(ev.RunID, "progress"), map[string]any{
		"stage": "dispatch",
		"unit":  ev.Unit,
		"index": ev.Index,
		"total": ev.Total,
	})
}

// RecordOptimise publishes the optimiser result.
func (p *Publisher) RecordOptimise(ev coremetrics.OptimiseEvent) error {
	return p.publish(p.topic(ev.RunID, "optimise"), map[string]any{
		"fitness":     ev.Fitness,
		"generations": ev.Generations,
		"evaluations": ev.Evaluations,
		"stop":        ev.Stop,
		"capacities":  ev.Capacities,
		"warnings":    ev.Warnings,
		"duration_s":  ev.Duration.Seconds(),
	})
}

// Disconnect announces offline status and closes the connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Publish(p.prefix+"/status", p.qos, true, "offline").Wait()
		p.cli.Disconnect(250)
	}
}
