// Package watch turns one-shot queries into streams of snapshots that are refreshed
// whenever the underlying tables change.
package watch

import (
	"strings"
	"sync"
)

// Tables
const (
	Users       = "users"
	Semesters   = "semesters"
	Subjects    = "subjects"
	Assignments = "assignments"
	Lectures    = "lectures"
)

// AllTables lists every table, for queries spanning the whole hierarchy.
var AllTables = []string{Users, Semesters, Subjects, Assignments, Lectures}

// Publisher is notified by the storage layer after every successful mutation.
type Publisher interface {
	Publish(tables ...string)
}

// NopPublisher drops every notification.
type NopPublisher struct{}

func (NopPublisher) Publish(...string) {}

// Broker fans table invalidations out to subscriptions.
type Broker struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*Subscription]bool
}

var (
	_ Publisher = (*Broker)(nil) // interface compliance check
	_ Publisher = NopPublisher{}
)

func NewBroker() *Broker {
	return &Broker{subscriptions: make(map[string]map[*Subscription]bool)}
}

// Subscription receives one signal per burst of changes on any of its tables.
type Subscription struct {
	broker *Broker
	tables []string
	c      chan struct{}
	once   sync.Once
}

// C is signalled when a subscribed table changed. Signals coalesce: a receiver that
// falls behind sees a single pending signal.
func (s *Subscription) C() <-chan struct{} {
	return s.c
}

// Close detaches the subscription from its broker. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Subscribe returns a subscription to changes on the given tables.
func (b *Broker) Subscribe(tables ...string) *Subscription {
	sub := &Subscription{broker: b, c: make(chan struct{}, 1)}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, table := range tables {
		table = strings.TrimSpace(table)
		if table == "" {
			continue
		}
		subs, ok := b.subscriptions[table]
		if !ok {
			subs = make(map[*Subscription]bool)
			b.subscriptions[table] = subs
		}
		subs[sub] = true
		sub.tables = append(sub.tables, table)
	}
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, table := range sub.tables {
		if subs, ok := b.subscriptions[table]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(b.subscriptions, table)
			}
		}
	}
}

// Publish signals every subscription interested in one of the tables. It never blocks.
func (b *Broker) Publish(tables ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, table := range tables {
		for sub := range b.subscriptions[table] {
			select {
			case sub.c <- struct{}{}:
			default: // a signal is already pending
			}
		}
	}
}

// Len returns the number of live subscriptions on table.
func (b *Broker) Len(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[table])
}
