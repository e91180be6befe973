package peripheral

// GateState is the state of a characteristic's notification gate.
type GateState int

const (
	// GateIdle means no send may be attempted until the transport signals readiness
	// or a central subscribes.
	GateIdle GateState = iota
	// GateUpdating means the next value update may attempt a send.
	GateUpdating
)

func (s GateState) String() string {
	switch s {
	case GateIdle:
		return "idle"
	case GateUpdating:
		return "updating"
	default:
		return "unknown"
	}
}

// notificationGate is the backpressure state machine of one characteristic.
//
// The flag reads "may attempt send": it is primed by a subscribe or a
// ready-to-update signal and then tracks the transport's answer to each send.
// It is not safe for concurrent use; the owning Characteristic serializes access.
type notificationGate struct {
	updating bool
}

func (g *notificationGate) state() GateState {
	if g.updating {
		return GateUpdating
	}
	return GateIdle
}

// subscribed primes the gate so the next update tries to deliver immediately.
func (g *notificationGate) subscribed(canNotify bool) {
	g.updating = canNotify
}

// unsubscribed closes the gate once the last subscriber is gone. Remaining
// subscribers keep the current state.
func (g *notificationGate) unsubscribed(hasSubscriber bool) {
	if !hasSubscriber {
		g.updating = false
	}
}

// ready handles the transport's ready-to-update signal.
func (g *notificationGate) ready(hasSubscriber, canNotify bool) {
	g.updating = hasSubscriber && canNotify
}

// attempt runs one update through the gate. send is invoked only while the gate is
// primed and the characteristic can notify; its result becomes the new state. A nil
// send means no transport is reachable and closes the gate.
func (g *notificationGate) attempt(canNotify bool, send func() bool) bool {
	if g.updating && canNotify && send != nil {
		g.updating = send()
	} else {
		g.updating = false
	}
	return g.updating
}
