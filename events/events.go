package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeDrawSettled             EventType = "draw_settled"
	EventTypeDrawPaymentMatched      EventType = "draw_payment_matched"
	EventTypeBreakdownPaymentMatched EventType = "breakdown_payment_matched"
	EventTypeReconciliationMismatch  EventType = "reconciliation_mismatch"
	EventTypeTransactionsIngested    EventType = "transactions_ingested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// DrawSettledEvent fires when a window closes and its result is persisted.
type DrawSettledEvent struct {
	DrawID            string
	OpenLedgerIndex   int64
	CloseLedgerIndex  int64
	TicketCodeCount   int64
	JackpotCode       string
	PayAmount         int64
	ResidualPoolDrops int64
	AutoPaid          bool
}

func (e DrawSettledEvent) Type() EventType {
	return EventTypeDrawSettled
}

// DrawPaymentMatchedEvent fires when a draw obligation is linked to an
// observed game-account settlement transaction.
type DrawPaymentMatchedEvent struct {
	DrawID    string
	PayTxHash string
	PayAmount int64
	ViaMemo   bool
}

func (e DrawPaymentMatchedEvent) Type() EventType {
	return EventTypeDrawPaymentMatched
}

// BreakdownPaymentMatchedEvent fires when a winner payout is linked to an
// observed operator-account settlement transaction.
type BreakdownPaymentMatchedEvent struct {
	DrawID       string
	TicketTxHash string
	Address      string
	PayTxHash    string
	AmountTotal  int64
	ViaMemo      bool
}

func (e BreakdownPaymentMatchedEvent) Type() EventType {
	return EventTypeBreakdownPaymentMatched
}

// ReconciliationMismatchEvent fires when a bound settlement transaction
// disagrees with its obligation. The obligation stays unpaid.
type ReconciliationMismatchEvent struct {
	DrawID       string
	TicketTxHash string // empty for draw-level obligations
	PayTxHash    string
	Reason       string
}

func (e ReconciliationMismatchEvent) Type() EventType {
	return EventTypeReconciliationMismatch
}

// TransactionsIngestedEvent fires after an ingestion pass stores new rows.
type TransactionsIngestedEvent struct {
	Account  string
	NewRows  int
	LastHash string
}

func (e TransactionsIngestedEvent) Type() EventType {
	return EventTypeTransactionsIngested
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Use background context for event emission so handlers outlive the
	// transaction context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
