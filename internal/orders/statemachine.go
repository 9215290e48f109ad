package orders

import (
	"fmt"

	"farm2city/internal/models"
	"farm2city/internal/repository"
)

// Legal status moves. pending branches to confirmed or rejected, confirmed
// moves on to delivered; rejected and delivered are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderRejected},
	models.OrderConfirmed: {models.OrderDelivered},
}

// CanTransition reports whether from -> to is a legal status move.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition for an illegal move,
// spelling out the terminal case separately.
func ValidateTransition(from, to models.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", repository.ErrInvalidInput, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: order is already %s", repository.ErrInvalidTransition, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move from %s to %s", repository.ErrInvalidTransition, from, to)
	}
	return nil
}
