package pricechange

import (
	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/internal/models"
)

type MutationKind string

const (
	// MutationApplyNow changes the subscription amount immediately.
	MutationApplyNow MutationKind = "apply_now"
	// MutationRequestConsent opens a consent request and leaves the amount unchanged.
	MutationRequestConsent MutationKind = "request_consent"
)

// Mutation is the intended effect of a product price change on one subscription.
type Mutation struct {
	Kind         MutationKind
	Subscription *models.Subscription
	NewAmount    decimal.Decimal
	// Suspend pauses the subscription while consent is pending.
	Suspend bool
}

// Plan decides, per subscription, how change propagates. Variable
// subscriptions always absorb the new price; fixed ones wait for consent when
// the change's policy snapshot asks for it. Plan performs no I/O.
func Plan(change *models.ProductPriceChange, subs []*models.Subscription) []Mutation {
	mutations := make([]Mutation, 0, len(subs))
	for _, sub := range subs {
		requiresApproval := !sub.IsVariable() && change.RequiresApprovalForFixed
		if !requiresApproval {
			mutations = append(mutations, Mutation{
				Kind:         MutationApplyNow,
				Subscription: sub,
				NewAmount:    change.NewBaseAmount,
			})
			continue
		}
		mutations = append(mutations, Mutation{
			Kind:         MutationRequestConsent,
			Subscription: sub,
			NewAmount:    change.NewBaseAmount,
			Suspend:      change.AutoSuspendFixedUntilApproval,
		})
	}
	return mutations
}
