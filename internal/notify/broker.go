package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"concerndesk/internal/concern"
)

// Broker delivers concern insert events to live subscribers. Every
// subscriber sees every event; the returned cancel func must be called on
// teardown to release the subscription.
type Broker interface {
	Publish(ctx context.Context, c concern.Concern) error
	Subscribe(ctx context.Context) (<-chan concern.Concern, func(), error)
	Connected(ctx context.Context) bool
}

// InMemory is a channel-backed broker for dev/testing.
type InMemory struct {
	mu   sync.Mutex
	subs map[int]chan concern.Concern
	next int
}

// NewInMemory creates an in-memory broker.
func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[int]chan concern.Concern)}
}

// Publish fans the event out to all subscribers. A subscriber that cannot
// keep up misses the event; the next full refresh resynchronizes it.
func (b *InMemory) Publish(_ context.Context, c concern.Concern) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel.
func (b *InMemory) Subscribe(_ context.Context) (<-chan concern.Concern, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan concern.Concern, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel, nil
}

// Connected always reports up for the in-memory broker.
func (b *InMemory) Connected(_ context.Context) bool { return true }

// RedisBroker carries insert events over a redis pub/sub channel so every
// api process sees inserts committed by any of them.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedisBroker builds a broker over the given pub/sub channel name.
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = "concerndesk:concerns"
	}
	return &RedisBroker{client: client, channel: channel}
}

// Publish broadcasts the record as JSON.
func (b *RedisBroker) Publish(ctx context.Context, c concern.Concern) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe streams events until cancel is called or ctx ends. Reconnection
// after a dropped connection is go-redis's responsibility, not ours.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan concern.Concern, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan concern.Concern, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c concern.Concern
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

// Connected reports redis reachability for the live indicator.
func (b *RedisBroker) Connected(ctx context.Context) bool {
	return b.client.Ping(ctx).Err() == nil
}
