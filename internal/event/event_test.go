package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber should only receive the event it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						domain.EventAuthChanged{Authenticated: true},
						domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "ubiquitous"}},
					},
					subscribers: []subscriber{
						{
							name:        "navigation",
							subscribeTo: []string{domain.EventNameAuthChanged},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{
					domain.EventAuthChanged{Authenticated: true},
				}, out.received["navigation"])
			},
		},

		"a subscriber should receive every occurrence of its event": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "ubiquitous"}},
						domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "ubiquitous"}},
					},
					subscribers: []subscriber{
						{
							name:        "counter",
							subscribeTo: []string{domain.EventNameWordSaved},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["counter"], 2)
			},
		},

		"an event should be dispatched to all its subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						domain.EventQuizCompleted{Result: domain.QuizResult{SessionID: "q1"}},
					},
					subscribers: []subscriber{
						{
							name:        "history",
							subscribeTo: []string{domain.EventNameQuizCompleted},
						},
						{
							name:        "notifier",
							subscribeTo: []string{domain.EventNameQuizCompleted},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["history"], 1)
				assert.Len(t, out.received["notifier"], 1)
			},
		},

		"events should be routed by name across multiple subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						domain.EventAuthChanged{Authenticated: true},
						domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "ubiquitous"}},
						domain.EventWordRemoved{WordID: "w1"},
						domain.EventAuthChanged{Authenticated: false},
					},
					subscribers: []subscriber{
						{
							name:        "navigation",
							subscribeTo: []string{domain.EventNameAuthChanged},
						},
						{
							name:        "saved-list",
							subscribeTo: []string{domain.EventNameWordSaved, domain.EventNameWordRemoved},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["navigation"], 2)
				assert.ElementsMatch(t, []event.Event{
					domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "ubiquitous"}},
					domain.EventWordRemoved{WordID: "w1"},
				}, out.received["saved-list"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				for _, e := range s.subscribeTo {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_PanickingSubscriberDoesNotStopDispatch(t *testing.T) {
	b := event.NewBus()

	var (
		mu       sync.Mutex
		received int
	)
	b.Subscribe(domain.EventNameWordSaved, func(ctx context.Context, e event.Event) error {
		panic("boom")
	})
	b.Subscribe(domain.EventNameWordSaved, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		received++
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), domain.EventWordSaved{Word: domain.SavedWord{ID: "w1", Word: "resilient"}})
	b.Publish(context.Background(), domain.EventWordSaved{Word: domain.SavedWord{ID: "w2", Word: "durable"}})
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, received)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
