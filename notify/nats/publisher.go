// Package nats publishes job-completion notifications over NATS,
// adapted from the teacher's event/eventbus/nats.EventBus: the same
// connect-once-on-first-use shape, gob-encoded envelope, and
// subject/connection functional options, narrowed from a full
// publish/subscribe event bus down to the one-way completion feed
// jobflow needs — nothing in jobflow core depends on receiving NATS
// messages, only on telling the world a job finished.
package nats

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/xperrylinn/jobflow/response"
)

// Completion is the notification published when a job finishes.
type Completion struct {
	UUID        string
	Index       int
	Name        string
	CompletedAt time.Time
	StopFlow    bool
}

// FromResponse builds a Completion for a finished job.
func FromResponse(uuid, name string, index int, completedAt time.Time, resp *response.Response) Completion {
	c := Completion{UUID: uuid, Index: index, Name: name, CompletedAt: completedAt}
	if resp != nil {
		c.StopFlow = resp.StopFlow
	}
	return c
}

// Publisher publishes Completions to a NATS subject.
type Publisher struct {
	subjectFunc func(name string) string
	url         string
	connectOpts []natsgo.Option

	connMux sync.Mutex
	conn    *natsgo.Conn

	onceConnect sync.Once
	connectErr  error
}

// Option configures a Publisher.
type Option func(*Publisher)

// SubjectFunc sets the NATS subject a completion is published on, by
// calling fn with the job's name.
func SubjectFunc(fn func(name string) string) Option {
	return func(p *Publisher) { p.subjectFunc = fn }
}

// SubjectPrefix publishes every completion under prefix+name.
func SubjectPrefix(prefix string) Option {
	return SubjectFunc(func(name string) string { return prefix + name })
}

// URL sets the NATS connection URL. If unset, NATS_URL (or nats.go's
// own default) is used.
func URL(url string) Option {
	return func(p *Publisher) { p.url = url }
}

// Connection supplies an already-open *nats.Conn.
func Connection(conn *natsgo.Conn) Option {
	return func(p *Publisher) { p.conn = conn }
}

// ConnectWith adds nats.Options used when connecting lazily.
func ConnectWith(opts ...natsgo.Option) Option {
	return func(p *Publisher) { p.connectOpts = append(p.connectOpts, opts...) }
}

// New constructs a Publisher. The connection is established lazily on
// the first call to Publish.
func New(opts ...Option) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	if p.subjectFunc == nil {
		p.subjectFunc = func(name string) string { return "jobflow.completions." + name }
	}
	return p
}

// Subject returns the NATS subject a completion for the named job would
// be published on.
func (p *Publisher) Subject(name string) string { return p.subjectFunc(name) }

// Publish encodes and sends a completion notification.
func (p *Publisher) Publish(ctx context.Context, c Completion) error {
	if err := p.connectOnce(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode completion: %w", err)
	}

	if err := p.conn.Publish(p.subjectFunc(c.Name), buf.Bytes()); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	return nil
}

func (p *Publisher) connectOnce(ctx context.Context) error {
	p.onceConnect.Do(func() { p.connectErr = p.connect(ctx) })
	return p.connectErr
}

func (p *Publisher) connect(ctx context.Context) error {
	if p.conn != nil {
		return nil
	}

	connected := make(chan error, 1)
	go func() {
		conn, err := natsgo.Connect(p.natsURL(), p.connectOpts...)
		if err != nil {
			connected <- fmt.Errorf("nats: %w", err)
			return
		}
		p.connMux.Lock()
		p.conn = conn
		p.connMux.Unlock()
		connected <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-connected:
		return err
	}
}

func (p *Publisher) natsURL() string {
	if p.url != "" {
		return p.url
	}
	if envuri := os.Getenv("NATS_URL"); envuri != "" {
		return envuri
	}
	return natsgo.DefaultURL
}

// Close closes the underlying connection, if one was established.
func (p *Publisher) Close() {
	p.connMux.Lock()
	defer p.connMux.Unlock()
	if p.conn != nil {
		p.conn.Close()
	}
}
