package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestChannelPublishConsume(t *testing.T) {
	client, err := NewChannel(ChannelConfig{BufferSize: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	received := make(chan Message, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		_ = client.Consume(ctx, "orders", func(_ context.Context, msg Message) error {
			received <- msg
			return nil
		}, WithConcurrency(2))
	})

	res, err := client.Publish(context.Background(), "orders", OutgoingMessage{
		Body:    []byte(`{"n":1}`),
		Headers: []Header{{Key: "cID", Value: []byte("abc")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID == "" || res.Topic != "orders" {
		t.Fatalf("unexpected publish result: %+v", res)
	}

	select {
	case msg := <-received:
		if string(msg.Body()) != `{"n":1}` {
			t.Fatalf("unexpected body: %s", msg.Body())
		}
		if len(msg.Headers()) != 1 || msg.Headers()[0].Key != "cID" || string(msg.Headers()[0].Value) != "abc" {
			t.Fatalf("unexpected headers: %+v", msg.Headers())
		}
		if msg.Topic() != "orders" || msg.ID() != res.MessageID {
			t.Fatalf("unexpected message metadata: topic=%s id=%s", msg.Topic(), msg.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}

	cancel()
	wg.Wait()
}

func TestChannelPublishValidation(t *testing.T) {
	client, err := NewChannel(ChannelConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if _, err := client.Publish(context.Background(), "", OutgoingMessage{}); !errors.Is(err, ErrChannelDestinationRequired) {
		t.Fatalf("expected destination error, got %v", err)
	}

	if _, err := client.Publish(context.Background(), "orders", OutgoingMessage{Delay: time.Second}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported error for delayed publish, got %v", err)
	}
}

func TestChannelConsumeValidation(t *testing.T) {
	client, err := NewChannel(ChannelConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Consume(context.Background(), "", func(context.Context, Message) error { return nil }); !errors.Is(err, ErrChannelDestinationRequired) {
		t.Fatalf("expected destination error, got %v", err)
	}

	if err := client.Consume(context.Background(), "orders", nil); !errors.Is(err, ErrChannelHandlerRequired) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestChannelClose(t *testing.T) {
	client, err := NewChannel(ChannelConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- client.Consume(context.Background(), "orders", func(context.Context, Message) error {
			return nil
		})
	}()

	// Closing unblocks consumers without a context cancel.
	time.Sleep(50 * time.Millisecond)
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean consumer shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("consumer did not stop after close")
	}

	if _, err := client.Publish(context.Background(), "orders", OutgoingMessage{Body: []byte("x")}); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected closed pipe error, got %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("expected idempotent close, got %v", err)
	}
}

func TestChannelPanicRecovery(t *testing.T) {
	client, err := NewChannel(ChannelConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	received := make(chan struct{}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		first := true
		_ = client.Consume(ctx, "orders", func(_ context.Context, _ Message) error {
			received <- struct{}{}
			if first {
				first = false
				panic("boom")
			}
			return nil
		})
	})

	// A handler panic must not kill the worker.
	for i := 0; i < 2; i++ {
		if _, err := client.Publish(context.Background(), "orders", OutgoingMessage{Body: []byte("x")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d never handled", i+1)
		}
	}

	cancel()
	wg.Wait()
}
