package order

import (
	"fmt"
	"sort"
)

// OrderCancellationError is returned when a cancel request cannot be
// satisfied: the id is unknown, or the order is already terminal.
type OrderCancellationError struct {
	OrderID int64
	Reason  string
}

func (e *OrderCancellationError) Error() string {
	return fmt.Sprintf("order: cannot cancel %d: %s", e.OrderID, e.Reason)
}

// ErrOrderNotFound is the specific OrderCancellationError reason used
// when the id is not present in the repository at all.
const ErrOrderNotFound = "order not found"

// Repository indexes live orders the way the broker needs to match
// them: by id (primary), a FIFO market queue, an unordered limit set,
// and the strategy-set subset of the limit set holding live TP/SL
// orders. Parent-limit to child TP/SL links are maintained symmetrically
// as ids, never pointers (spec.md §3, §9).
type Repository struct {
	byID        map[int64]*Order
	marketQueue []int64
	limitSet    map[int64]struct{}
	strategySet map[int64]struct{}
	nextID      int64
}

// NewRepository creates an empty order repository.
func NewRepository() *Repository {
	return &Repository{
		byID:        make(map[int64]*Order),
		limitSet:    make(map[int64]struct{}),
		strategySet: make(map[int64]struct{}),
		nextID:      1,
	}
}

// NextID allocates and returns the next monotonic order id.
func (r *Repository) NextID() int64 {
	id := r.nextID
	r.nextID++
	return id
}

// Add inserts a newly-created order into the repository's indexes,
// routing it to the market queue or the limit set depending on Kind.
func (r *Repository) Add(o *Order) {
	r.byID[o.ID] = o
	switch o.Kind {
	case Market:
		r.marketQueue = append(r.marketQueue, o.ID)
	case Limit:
		r.limitSet[o.ID] = struct{}{}
	case TakeProfit, StopLoss:
		// TP/SL orders enter CREATED in the limit set (trigger_price is
		// matched there); they move to the market queue only once
		// ACTIVATED with no order_price (see EnqueueMarket).
		r.limitSet[o.ID] = struct{}{}
		r.strategySet[o.ID] = struct{}{}
	}
}

// Get returns the order with the given id, or nil if unknown.
func (r *Repository) Get(id int64) *Order {
	return r.byID[id]
}

// EnqueueMarket pushes an order (typically a TP/SL just activated with
// no order_price) onto the tail of the market queue.
func (r *Repository) EnqueueMarket(id int64) {
	r.marketQueue = append(r.marketQueue, id)
}

// DrainMarketQueue returns the ids currently queued, in insertion order,
// and clears the queue.
func (r *Repository) DrainMarketQueue() []int64 {
	drained := r.marketQueue
	r.marketQueue = nil
	return drained
}

// LimitSetSnapshot returns the ids currently in the limit set sorted
// ascending, matching spec.md §5's guidance that implementations iterate
// in ascending id order for reproducible regression snapshots.
func (r *Repository) LimitSetSnapshot() []int64 {
	ids := make([]int64, 0, len(r.limitSet))
	for id := range r.limitSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StrategySetSnapshot returns the live TP/SL order ids sorted ascending.
func (r *Repository) StrategySetSnapshot() []int64 {
	ids := make([]int64, 0, len(r.strategySet))
	for id := range r.strategySet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RemoveFromLimitSet removes an order from the limit and strategy sets,
// called once it reaches a terminal state or is activated into the
// market queue.
func (r *Repository) RemoveFromLimitSet(id int64) {
	delete(r.limitSet, id)
	delete(r.strategySet, id)
}

// LinkChildren records a Limit parent's TP/SL child ids and links the
// children back to their parent.
func (r *Repository) LinkChildren(parentID int64, takeProfitID, stopLossID *int64) {
	parent := r.byID[parentID]
	if parent == nil {
		return
	}
	parent.TakeProfitChildID = takeProfitID
	parent.StopLossChildID = stopLossID
	if takeProfitID != nil {
		if child := r.byID[*takeProfitID]; child != nil {
			child.ParentID = &parentID
		}
	}
	if stopLossID != nil {
		if child := r.byID[*stopLossID]; child != nil {
			child.ParentID = &parentID
		}
	}
}

// Cancel marks an order CANCELLED if it exists and is not terminal,
// returning its *Order for the caller to release funds against. Does
// not itself touch the balance -- the broker owns hold/release.
func (r *Repository) Cancel(id int64) (*Order, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, &OrderCancellationError{OrderID: id, Reason: ErrOrderNotFound}
	}
	if o.Status.Terminal() {
		return nil, &OrderCancellationError{OrderID: id, Reason: fmt.Sprintf("order is already %s", o.Status)}
	}
	o.Status = Cancelled
	r.RemoveFromLimitSet(id)
	return o, nil
}

// AllOrders returns every order the repository has ever indexed, sorted
// ascending by id, for read-only iteration (IterOrders on the broker
// proxy).
func (r *Repository) AllOrders() []*Order {
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// Count returns the total number of orders ever indexed.
func (r *Repository) Count() int {
	return len(r.byID)
}
