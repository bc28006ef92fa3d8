package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrChannelDestinationRequired is returned when the destination is empty.
	ErrChannelDestinationRequired = errors.New("pkgmessage: channel destination is required")
	// ErrChannelHandlerRequired is returned when Consume is called with a nil handler.
	ErrChannelHandlerRequired = errors.New("pkgmessage: channel handler is required")
)

// ChannelConfig configures the in-process channel implementation.
type ChannelConfig struct {
	// BufferSize is the capacity of each per-destination queue.
	// Non-positive values fall back to 256.
	BufferSize int
}

// Channel is a messaging implementation backed by in-process Go channels.
//
// Each destination is a buffered queue with competing consumers, which gives
// worker-pool semantics inside a single binary. It is used by tests and by
// deployments that do not run an external broker.
type Channel struct {
	buffer int
	seq    atomic.Uint64

	mu     sync.Mutex
	queues map[string]chan *channelMessage
	closed bool
	done   chan struct{}
}

// NewChannel constructs an in-process messaging client.
func NewChannel(cfg ChannelConfig) (*Channel, error) {
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 256
	}

	return &Channel{
		buffer: buffer,
		queues: make(map[string]chan *channelMessage),
		done:   make(chan struct{}),
	}, nil
}

// Close stops publishing and wakes up all consumers.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	return nil
}

func (c *Channel) queue(destination string) (chan *channelMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, io.ErrClosedPipe
	}

	q, ok := c.queues[destination]
	if !ok {
		q = make(chan *channelMessage, c.buffer)
		c.queues[destination] = q
	}

	return q, nil
}

// Publish enqueues a message on the destination queue.
func (c *Channel) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrChannelDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	q, err := c.queue(destination)
	if err != nil {
		return PublishResult{}, err
	}

	now := time.Now()
	cm := &channelMessage{
		id:         strconv.FormatUint(c.seq.Add(1), 10),
		topic:      destination,
		body:       append([]byte(nil), msg.Body...),
		key:        append([]byte(nil), msg.Key...),
		headers:    append([]Header(nil), msg.Headers...),
		attributes: msg.Attributes,
		receivedAt: now,
		requeue:    q,
	}

	select {
	case q <- cm:
	case <-ctx.Done():
		return PublishResult{}, ctx.Err()
	case <-c.done:
		return PublishResult{}, io.ErrClosedPipe
	}

	return PublishResult{
		MessageID: cm.id,
		Topic:     destination,
		Timestamp: now,
	}, nil
}

// Consume starts a worker pool draining the destination queue. It blocks
// until ctx is canceled or the client is closed.
func (c *Channel) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrChannelDestinationRequired
	}
	if handler == nil {
		return ErrChannelHandlerRequired
	}

	co := newConsumeOptions(opts...)
	concurrency := concurrencyOrDefault(co.concurrency, 1)

	q, err := c.queue(source)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for {
				select {
				case msg := <-q:
					//nolint:errcheck // handler errors are the handler's concern
					_ = callHandlerWithRecover(ctx, "channel", func() error {
						return handler(ctx, msg)
					})
				case <-ctx.Done():
					return
				case <-c.done:
					return
				}
			}
		})
	}

	select {
	case <-ctx.Done():
	case <-c.done:
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

type channelMessage struct {
	id         string
	topic      string
	body       []byte
	key        []byte
	headers    []Header
	attributes map[string]string
	receivedAt time.Time
	requeue    chan *channelMessage

	responded atomic.Bool
}

func (m *channelMessage) Body() []byte                  { return m.body }
func (m *channelMessage) Key() []byte                   { return m.key }
func (m *channelMessage) Headers() []Header             { return m.headers }
func (m *channelMessage) Attributes() map[string]string { return m.attributes }
func (m *channelMessage) ID() string                    { return m.id }
func (m *channelMessage) Topic() string                 { return m.topic }
func (m *channelMessage) Subject() string               { return m.topic }
func (m *channelMessage) Timestamp() time.Time          { return m.receivedAt }

func (m *channelMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.responded.Store(true)

	return nil
}

// Nack puts the message back on the queue when there is room.
func (m *channelMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}

	redelivery := &channelMessage{
		id:         m.id,
		topic:      m.topic,
		body:       m.body,
		key:        m.key,
		headers:    m.headers,
		attributes: m.attributes,
		receivedAt: m.receivedAt,
		requeue:    m.requeue,
	}

	select {
	case m.requeue <- redelivery:
	default:
	}

	return nil
}

func (m *channelMessage) String() string {
	return fmt.Sprintf("channel topic=%q id=%s", m.topic, m.id)
}
