package peripheral

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// subscriberRegistry is the set of centrals subscribed to a characteristic.
// It is not safe for concurrent use; the owning Characteristic serializes access.
type subscriberRegistry struct {
	centrals *orderedmap.OrderedMap[string, Central]
}

func newSubscriberRegistry() *subscriberRegistry {
	return &subscriberRegistry{centrals: orderedmap.New[string, Central]()}
}

// subscribe inserts c, replacing a previous handle with the same identity.
func (r *subscriberRegistry) subscribe(c Central) {
	r.centrals.Set(c.ID(), c)
}

// unsubscribe removes the central with the given identity; unknown ids are ignored.
func (r *subscriberRegistry) unsubscribe(id string) {
	r.centrals.Delete(id)
}

func (r *subscriberRegistry) hasSubscriber() bool {
	return r.centrals.Len() > 0
}

func (r *subscriberRegistry) len() int {
	return r.centrals.Len()
}

// snapshot returns the subscribed centrals in subscription order.
func (r *subscriberRegistry) snapshot() []Central {
	out := make([]Central, 0, r.centrals.Len())
	for pair := r.centrals.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
