package order

import "github.com/samber/lo"

// transitions lists the legal forward moves. DELIVERED and CANCELLED are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether from -> to is allowed in strict mode.
func CanTransition(from, to Status) bool { return lo.Contains(transitions[from], to) }

// StockMove is the inventory side effect of a status change.
type StockMove int

const (
	StockKeep StockMove = iota
	// StockRelease puts the item quantities back on the shelf.
	StockRelease
	// StockReserve takes them again and fails on a shortfall.
	StockReserve
)

// StockMoveFor decides what a move does to inventory. Goods of a PENDING or
// PROCESSING order are still on hand, so cancelling returns them; once
// SHIPPED they are gone. Reopening a CANCELLED order needs the goods again.
func StockMoveFor(from, to Status) StockMove {
	switch {
	case from == to:
		return StockKeep
	case to == StatusCancelled && (from == StatusPending || from == StatusProcessing):
		return StockRelease
	case from == StatusCancelled:
		return StockReserve
	}
	return StockKeep
}
