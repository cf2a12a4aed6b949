package live

import (
	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed"
	"github.com/c360/feedbridge/market"
)

// subscriptionRegistry accumulates subscriptions between construction
// and Start. Insertion order is preserved, duplicates included, because
// the engine receives the set exactly as registered. The client's mutex
// guards access, the registry itself is not safe for concurrent use.
type subscriptionRegistry struct {
	subs []market.Subscription
}

// add validates the subscription against the engine's capabilities and
// appends it.
func (r *subscriptionRegistry) add(sub market.Subscription, caps feed.Capabilities) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if sub.Snapshot && !caps.Snapshot {
		return errors.WrapInvalid(errors.ErrUnsupportedCombination,
			"live.Client", "Subscribe", "snapshot subscription")
	}
	if !sub.Start.IsZero() && !caps.Replay {
		return errors.WrapInvalid(errors.ErrUnsupportedCombination,
			"live.Client", "Subscribe", "replay subscription")
	}
	if !caps.MultiDataset {
		for i := range r.subs {
			if r.subs[i].Dataset != sub.Dataset {
				return errors.WrapInvalid(errors.ErrUnsupportedCombination,
					"live.Client", "Subscribe", "cross-dataset subscription")
			}
		}
	}
	r.subs = append(r.subs, sub)
	return nil
}

// list returns the registered subscriptions in insertion order.
func (r *subscriptionRegistry) list() []market.Subscription {
	return append([]market.Subscription(nil), r.subs...)
}

// symbols returns the union of all requested symbols, first occurrence
// order, deduplicated. Metadata partition checks run against this set.
func (r *subscriptionRegistry) symbols() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range r.subs {
		for _, s := range r.subs[i].Symbols {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func (r *subscriptionRegistry) empty() bool {
	return len(r.subs) == 0
}
