// Package notifications fans order events out to push gateways. Delivery is
// best-effort: every failure is logged and absorbed here, never returned to
// the code that changed the order.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"bazaar/internal/models"
)

// TokenRegistry resolves users to device tokens.
type TokenRegistry interface {
	// DeviceToken returns "" when the user has no registered device.
	DeviceToken(ctx context.Context, userID string) (string, error)
	ForgetDeviceToken(ctx context.Context, userID, token string) error
}

// ShopDirectory resolves a shop to its owner.
type ShopDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Shop, error)
}

// Config tunes the dispatcher.
type Config struct {
	Workers        int
	QueueSize      int
	EnqueueTimeout time.Duration
	SendTimeout    time.Duration
	CurrencySymbol string
}

// Stats counts dispatcher outcomes since start.
type Stats struct {
	Delivered int64
	Skipped   int64
	Failed    int64
	Dropped   int64
}

// Dispatcher delivers events asynchronously. Events for the same order always
// land on the same worker, so they are delivered in the order they were
// emitted; events for different orders are unordered.
type Dispatcher struct {
	tokens  TokenRegistry
	shops   ShopDirectory
	gateway Gateway
	cfg     Config

	shards []chan Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	delivered atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher starts cfg.Workers delivery goroutines.
func NewDispatcher(tokens TokenRegistry, shops ShopDirectory, gateway Gateway, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		tokens:  tokens,
		shops:   shops,
		gateway: gateway,
		cfg:     cfg,
		shards:  make([]chan Event, cfg.Workers),
	}
	for i := range d.shards {
		d.shards[i] = make(chan Event, cfg.QueueSize)
		d.wg.Add(1)
		go d.run(d.shards[i])
	}
	return d
}

func (d *Dispatcher) shardFor(orderNumber string) chan Event {
	h := fnv.New32a()
	h.Write([]byte(orderNumber))
	return d.shards[h.Sum32()%uint32(len(d.shards))]
}

// Notify queues an event for order. It returns once the event is queued, or
// after the enqueue timeout if the queue is full, in which case the event is
// dropped and logged.
func (d *Dispatcher) Notify(kind EventKind, order models.Order) {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	ev := Event{Kind: kind, Order: order}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		log.Printf("Notification dispatcher closed; dropping %s for order %s", kind, order.OrderNumber)
		return
	}

	shard := d.shardFor(order.OrderNumber)
	select {
	case shard <- ev:
		return
	default:
	}

	timer := time.NewTimer(d.cfg.EnqueueTimeout)
	defer timer.Stop()
	select {
	case shard <- ev:
	case <-timer.C:
		d.dropped.Add(1)
		log.Printf("Warning: notification queue full; dropping %s for order %s", kind, order.OrderNumber)
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, shard := range d.shards {
		close(shard)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Stats returns a snapshot of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Skipped:   d.skipped.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) run(events <-chan Event) {
	defer d.wg.Done()
	for ev := range events {
		d.deliverSafely(ev)
	}
}

func (d *Dispatcher) deliverSafely(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			log.Printf("Error: notification %s for order %s panicked: %v", ev.Kind, ev.Order.OrderNumber, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.deliver(ctx, ev); err != nil {
		d.failed.Add(1)
		log.Printf("Warning: failed to send %s notification for order %s: %v", ev.Kind, ev.Order.OrderNumber, err)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) error {
	userID, err := d.recipient(ctx, ev)
	if err != nil {
		return err
	}

	token, err := d.tokens.DeviceToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("device token lookup for user %s: %w", userID, err)
	}
	if token == "" {
		d.skipped.Add(1)
		log.Printf("User %s has no device token registered; skipping %s for order %s", userID, ev.Kind, ev.Order.OrderNumber)
		return nil
	}

	msg := BuildMessage(ev, userID, token, d.cfg.CurrencySymbol)
	err = d.gateway.Send(ctx, msg)
	if errors.Is(err, ErrUnregisteredToken) {
		d.skipped.Add(1)
		log.Printf("Warning: device token for user %s is unregistered; clearing it", userID)
		if ferr := d.tokens.ForgetDeviceToken(ctx, userID, token); ferr != nil {
			log.Printf("Failed to clear device token for user %s: %v", userID, ferr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	d.delivered.Add(1)
	log.Printf("Sent %s notification for order %s to user %s", ev.Kind, ev.Order.OrderNumber, userID)
	return nil
}

func (d *Dispatcher) recipient(ctx context.Context, ev Event) (string, error) {
	if !ev.recipientIsSeller() {
		return ev.Order.CustomerID, nil
	}
	shop, err := d.shops.GetByID(ctx, ev.Order.ShopID)
	if err != nil {
		return "", fmt.Errorf("shop lookup for order %s: %w", ev.Order.OrderNumber, err)
	}
	return shop.OwnerID, nil
}
