package cart

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
)

// AddInput is the operator's add action together with the scale reading it
// was taken from.
type AddInput struct {
	Weight    float64
	Stable    bool
	Name      string
	UnitPrice float64
	Quantity  int
}

// Snapshot is a copy of a till cart; mutating it does not affect the engine.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Status    enums.CartStatus `json:"status"`
	Items     []LineItem       `json:"items"`
	Total     float64          `json:"total"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type tillCart struct {
	status    enums.CartStatus
	items     []LineItem
	updatedAt time.Time
}

// Engine holds one in-progress cart per till session.
type Engine struct {
	mu    sync.Mutex
	carts map[string]*tillCart
	now   func() time.Time
}

func NewEngine() *Engine {
	return &Engine{carts: map[string]*tillCart{}, now: time.Now}
}

// Add appends a line item. Unstable or non-positive weights are rejected and
// leave the cart untouched.
func (e *Engine) Add(session string, input AddInput) (Snapshot, error) {
	if err := requireSession(session); err != nil {
		return Snapshot{}, err
	}
	if !input.Stable {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeUnstableWeight, "weight is not stable yet").
			WithDetails(map[string]any{"weight": input.Weight})
	}
	if input.Weight <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "weight must be greater than zero").
			WithDetails(map[string]any{"weight": input.Weight})
	}
	item, err := NewLineItem(input.Name, input.Weight, input.UnitPrice, input.Quantity)
	if err != nil {
		return Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.carts[session]
	if c == nil {
		c = &tillCart{status: enums.CartStatusEmpty}
		e.carts[session] = c
	}
	if !c.status.Mutable() {
		return Snapshot{}, checkoutInProgress()
	}
	item.AddedAt = e.now()
	c.items = append(c.items, item)
	c.status = enums.CartStatusAccumulating
	c.updatedAt = item.AddedAt
	return snapshotOf(session, c), nil
}

// Remove drops the item with the given id. Ids stay fixed while other items
// come and go, so a retried removal cannot hit a different item.
func (e *Engine) Remove(session string, itemID uuid.UUID) (Snapshot, error) {
	if err := requireSession(session); err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.carts[session]
	index := -1
	if c != nil {
		index = slices.IndexFunc(c.items, func(item LineItem) bool { return item.ID == itemID })
	}
	if index < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found").
			WithDetails(map[string]any{"item_id": itemID.String()})
	}
	if !c.status.Mutable() {
		return Snapshot{}, checkoutInProgress()
	}
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	c.updatedAt = e.now()
	if len(c.items) == 0 {
		delete(e.carts, session)
		return emptySnapshot(session), nil
	}
	return snapshotOf(session, c), nil
}

// Snapshot returns the cart for session; unknown sessions are empty.
func (e *Engine) Snapshot(session string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.carts[session]
	if c == nil {
		return emptySnapshot(session)
	}
	return snapshotOf(session, c)
}

// Abandon discards the cart on logout and reports how many items were dropped.
func (e *Engine) Abandon(session string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.carts[session]
	if c == nil {
		return 0, nil
	}
	if !c.status.Mutable() {
		return 0, checkoutInProgress()
	}
	delete(e.carts, session)
	return len(c.items), nil
}

// Transfer moves the cart of from to to, used when a session is rotated.
// An existing cart under to is left alone.
func (e *Engine) Transfer(from, to string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.carts[from]
	if c == nil || from == to {
		return false
	}
	if _, taken := e.carts[to]; taken {
		return false
	}
	delete(e.carts, from)
	e.carts[to] = c
	return true
}

// BeginCheckout freezes the cart and returns the items to persist.
func (e *Engine) BeginCheckout(session string) (Snapshot, error) {
	if err := requireSession(session); err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.carts[session]
	if c == nil || len(c.items) == 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !c.status.Mutable() {
		return Snapshot{}, checkoutInProgress()
	}
	c.status = enums.CartStatusCheckingOut
	c.updatedAt = e.now()
	return snapshotOf(session, c), nil
}

// CompleteCheckout clears the cart after the sale is durable.
func (e *Engine) CompleteCheckout(session string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.carts, session)
}

// FailCheckout returns the cart to Accumulating with its items intact.
func (e *Engine) FailCheckout(session string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.carts[session]; c != nil && !c.status.Mutable() {
		c.status = enums.CartStatusAccumulating
		c.updatedAt = e.now()
	}
}

// SweepIdle drops carts untouched for longer than idle. Carts mid-checkout
// are never swept.
func (e *Engine) SweepIdle(idle time.Duration) []string {
	cutoff := e.now().Add(-idle)
	e.mu.Lock()
	defer e.mu.Unlock()

	var swept []string
	for session, c := range e.carts {
		if !c.status.Mutable() || c.updatedAt.After(cutoff) {
			continue
		}
		delete(e.carts, session)
		swept = append(swept, session)
	}
	return swept
}

// Sessions lists the sessions that currently hold a cart.
func (e *Engine) Sessions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.carts))
	for session := range e.carts {
		out = append(out, session)
	}
	return out
}

// Len reports how many sessions hold a non-empty cart.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.carts)
}

func snapshotOf(session string, c *tillCart) Snapshot {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return Snapshot{
		SessionID: session,
		Status:    c.status,
		Items:     items,
		Total:     Total(items),
		UpdatedAt: c.updatedAt,
	}
}

func emptySnapshot(session string) Snapshot {
	return Snapshot{SessionID: session, Status: enums.CartStatusEmpty, Items: []LineItem{}}
}

func requireSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "till session required")
	}
	return nil
}

func checkoutInProgress() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout in progress").
		WithDetails(map[string]any{"status": enums.CartStatusCheckingOut})
}
