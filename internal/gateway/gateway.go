// Package gateway defines the payment-settlement capability the
// reconciliation engine charges against. Production deployments plug a real
// provider behind the interface; this package ships the simulated processor
// the platform runs with today.
package gateway

import "context"

// ChargeResult is a settled charge.
type ChargeResult struct {
	TransactionID string
	Reference     string
}

// DeclineError is a business-level decline from the processor, as opposed to
// a transport failure.
type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	return e.Reason
}

// Gateway settles an amount against a payment method. Implementations must
// honor ctx cancellation; a ctx error means the charge outcome is unknown
// and callers record the attempt as failed.
type Gateway interface {
	Charge(ctx context.Context, method string, amount int64, metadata map[string]any) (*ChargeResult, error)
}
