package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"recapp-sync-service/internal/app"
)

// fanout bridges Redis pub/sub channels to in-process sinks. The first
// subscriber of a channel opens the PubSub and starts a listener goroutine,
// the last one closing it tears both down.
type fanout struct {
	client *redis.Client
	decode func(payload []byte) (app.Push, error)

	mu   sync.Mutex
	subs map[string]*channelSub
}

type channelSub struct {
	pubsub *redis.PubSub
	next   int
	sinks  map[int]app.Sink
}

func newFanout(client *redis.Client, decode func([]byte) (app.Push, error)) *fanout {
	return &fanout{
		client: client,
		decode: decode,
		subs:   make(map[string]*channelSub),
	}
}

func (f *fanout) subscribe(channel string, sink app.Sink) func() {
	f.mu.Lock()
	cs, ok := f.subs[channel]
	if !ok {
		cs = &channelSub{
			pubsub: f.client.Subscribe(context.Background(), channel),
			sinks:  make(map[int]app.Sink),
		}
		f.subs[channel] = cs
		go f.listen(channel, cs)
	}
	id := cs.next
	cs.next++
	cs.sinks[id] = sink
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		cs, ok := f.subs[channel]
		if !ok {
			return
		}
		delete(cs.sinks, id)
		if len(cs.sinks) == 0 {
			delete(f.subs, channel)
			_ = cs.pubsub.Close()
		}
	}
}

func (f *fanout) listen(channel string, cs *channelSub) {
	for msg := range cs.pubsub.Channel() {
		push, err := f.decode([]byte(msg.Payload))
		if err != nil {
			log.Printf("redis: decode push on %s: %v", channel, err)
			continue
		}
		f.mu.Lock()
		sinks := make([]app.Sink, 0, len(cs.sinks))
		for _, sink := range cs.sinks {
			sinks = append(sinks, sink)
		}
		f.mu.Unlock()
		for _, sink := range sinks {
			sink(push)
		}
	}
}

func (f *fanout) publish(ctx context.Context, channel string, payload []byte) {
	if err := f.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("redis: publish on %s: %v", channel, err)
	}
}

// newUID generates an entity id with a readable prefix.
func newUID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + "-" + hex.EncodeToString(buf)
}
