package orders

import "github.com/retailops/procurement/models"

// forbiddenTransitions is the registered blacklist. Anything not listed here
// is permitted, including self-transitions and Delivered -> Cancelled /
// Delivered -> Returned. The asymmetry is intentional legacy behavior; see
// DESIGN.md before "fixing" it.
var forbiddenTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderDelivered: {
		models.OrderDraft, models.OrderPending, models.OrderConfirmed, models.OrderShipped,
	},
	models.OrderCancelled: {
		models.OrderDraft, models.OrderPending, models.OrderConfirmed, models.OrderShipped,
		models.OrderDelivered, models.OrderReturned,
	},
	models.OrderReturned: {
		models.OrderDraft, models.OrderPending, models.OrderConfirmed, models.OrderShipped,
	},
}

// IsTransitionAllowed reports whether a status change from -> to is permitted
// under the blacklist rules above.
func IsTransitionAllowed(from, to models.OrderStatus) bool {
	for _, blocked := range forbiddenTransitions[from] {
		if to == blocked {
			return false
		}
	}
	return true
}
