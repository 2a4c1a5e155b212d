package views

import (
	"github.com/paystream/payment-analytics/internal/domain"
)

// Router derives the per-view write fan-out for transaction events. It is a
// pure function of the static descriptor set and the event's field values;
// stateless and safe to invoke concurrently.
type Router struct {
	descriptors []Descriptor
}

// NewRouter creates a router over the given descriptor set
func NewRouter(descriptors []Descriptor) *Router {
	return &Router{descriptors: descriptors}
}

// Route produces exactly one WriteIntent per descriptor whose required fields
// are all present on the event, in registry order. Views whose key projection
// fails validation are returned as skipped; a missing field shared by several
// views drops each of them independently, never the whole event.
func (r *Router) Route(event *domain.TransactionEvent) ([]WriteIntent, []SkippedView) {
	intents := make([]WriteIntent, 0, len(r.descriptors))
	var skipped []SkippedView

	for _, desc := range r.descriptors {
		intent, verr := r.project(event, desc)
		if verr != nil {
			skipped = append(skipped, SkippedView{View: desc.Name, Err: verr})
			continue
		}
		intents = append(intents, intent)
	}

	return intents, skipped
}

// project resolves one descriptor against the event
func (r *Router) project(event *domain.TransactionEvent, desc Descriptor) (WriteIntent, *domain.ValidationError) {
	key := make(map[string]any, len(desc.PartitionKeyFields)+len(desc.ClusteringKeyFields))
	for _, field := range desc.KeyFields() {
		value, ok := event.Field(field)
		if !ok {
			return WriteIntent{}, &domain.ValidationError{View: desc.Name, Field: field}
		}
		key[field] = value
	}

	intent := WriteIntent{
		View: desc,
		Key:  key,
		TTL:  desc.TTL,
	}

	switch desc.Kind {
	case domain.ViewKindCounter:
		// Deltas only: the backend accumulates atomically, the router never
		// computes an absolute
		intent.CounterDeltas = map[string]int64{
			domain.CounterTotalAmountCents: event.AmountCents,
			domain.CounterTransactionCount: 1,
		}
	default:
		values := make(map[string]any, len(desc.ValueFields))
		for _, field := range desc.ValueFields {
			value, _ := event.Field(field)
			values[field] = value
		}
		intent.Values = values
	}

	return intent, nil
}
