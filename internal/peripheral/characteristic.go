package peripheral

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Characteristic is the runtime state of one mutable GATT characteristic.
//
// Every method is safe for concurrent use. Transport callbacks (DidSubscribe,
// DidUnsubscribe, DidRespondToWriteRequest, PeripheralReadyToUpdateSubscribers)
// and application calls share one mutex and never block on I/O while holding it.
type Characteristic struct {
	profile Profile
	logger  *logrus.Logger

	mu          sync.Mutex
	value       []byte
	subscribers *subscriberRegistry
	gate        notificationGate
	writes      writeRequestChannel
	serviceID   ServiceID
	services    ServiceLookup
}

// Option configures a Characteristic.
type Option func(*Characteristic)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Characteristic) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithService attaches the characteristic to a service at construction.
func WithService(id ServiceID, lookup ServiceLookup) Option {
	return func(c *Characteristic) {
		c.serviceID = id
		c.services = lookup
	}
}

// NewCharacteristic creates the state for profile, seeded with its initial value.
func NewCharacteristic(profile Profile, opts ...Option) (*Characteristic, error) {
	if profile == nil {
		return nil, ErrNilProfile
	}
	if profile.UUID() == "" {
		return nil, ErrEmptyUUID
	}

	c := &Characteristic{
		profile:     profile,
		value:       cloneBytes(profile.InitialValue()),
		subscribers: newSubscriberRegistry(),
		writes:      writeRequestChannel{name: profile.UUID()},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}
	return c, nil
}

// FromProfiles creates one Characteristic per profile with the same options.
func FromProfiles(profiles []Profile, opts ...Option) ([]*Characteristic, error) {
	chars := make([]*Characteristic, 0, len(profiles))
	for i, p := range profiles {
		c, err := NewCharacteristic(p, opts...)
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		chars = append(chars, c)
	}
	return chars, nil
}

// UUID returns the characteristic UUID from the profile.
func (c *Characteristic) UUID() string {
	return c.profile.UUID()
}

// Name returns the human-readable name from the profile.
func (c *Characteristic) Name() string {
	return c.profile.Name()
}

// StringValues returns the string values the profile knows about, if enumerated.
func (c *Characteristic) StringValues() []string {
	return c.profile.StringValues()
}

// Profile returns the profile the characteristic was built from.
func (c *Characteristic) Profile() Profile {
	return c.profile
}

// Properties returns the declared GATT properties.
func (c *Characteristic) Properties() Properties {
	return c.profile.Properties()
}

// Permissions returns the declared attribute permissions.
func (c *Characteristic) Permissions() Permissions {
	return c.profile.Permissions()
}

// PropertyEnabled reports whether any bit of p is declared.
func (c *Characteristic) PropertyEnabled(p Properties) bool {
	return c.profile.Properties().Has(p)
}

// PermissionEnabled reports whether any bit of p is declared.
func (c *Characteristic) PermissionEnabled(p Permissions) bool {
	return c.profile.Permissions().Has(p)
}

// Attach points the characteristic at its owning service. The characteristic does
// not own the service: every send resolves id through lookup and is a no-op if the
// service is gone.
func (c *Characteristic) Attach(id ServiceID, lookup ServiceLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceID = id
	c.services = lookup
}

// Service returns the handle of the owning service, false if never attached.
func (c *Characteristic) Service() (ServiceID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serviceID, !c.serviceID.IsZero()
}

// Value returns a copy of the current value, nil if none was ever set.
func (c *Characteristic) Value() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneBytes(c.value)
}

// StringValue decodes the current value through the profile.
func (c *Characteristic) StringValue() (map[string]string, bool) {
	value := c.Value()
	if value == nil {
		return nil, false
	}
	values, err := c.profile.StringValue(value)
	if err != nil {
		c.logger.WithError(err).WithField("characteristic", c.UUID()).Debug("Cannot decode characteristic value")
		return nil, false
	}
	return values, true
}

// DataFromStringValue encodes values through the profile.
func (c *Characteristic) DataFromStringValue(values map[string]string) ([]byte, bool) {
	data, err := c.profile.DataFromStringValue(values)
	if err != nil {
		c.logger.WithError(err).WithField("characteristic", c.UUID()).Debug("Cannot encode string value")
		return nil, false
	}
	return data, true
}

// HasSubscriber reports whether at least one central is subscribed.
func (c *Characteristic) HasSubscriber() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribers.hasSubscriber()
}

// Subscribers returns the subscribed centrals in subscription order.
func (c *Characteristic) Subscribers() []Central {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribers.snapshot()
}

// IsUpdating reports whether the next update may attempt a send.
func (c *Characteristic) IsUpdating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gate.updating
}

// GateState returns the notification gate state.
func (c *Characteristic) GateState() GateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gate.state()
}

// UpdateValue stores value and, if the gate is primed and the characteristic can
// notify, asks the transport to send it. The stored value is updated even when
// nothing is sent so later reads see it.
//
// Returns true if delivery was initiated. False means nothing was sent now: no
// subscriber, no notify-class property, no transport, or the transport was busy;
// retry after PeripheralReadyToUpdateSubscribers.
func (c *Characteristic) UpdateValue(value []byte) bool {
	c.mu.Lock()
	c.value = cloneBytes(value)

	var send func() bool
	if t, ok := c.transportLocked(); ok {
		payload := cloneBytes(value)
		uuid := c.profile.UUID()
		send = func() bool { return t.SendNotification(payload, uuid) }
	}
	updating := c.gate.attempt(c.profile.Properties().CanNotify(), send)
	subscribers := c.subscribers.len()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"bytes":          len(value),
		"subscribers":    subscribers,
		"gate":           gateName(updating),
	}).Debug("Characteristic value updated")
	return updating
}

// UpdateValueWith encodes v through the profile and publishes it with UpdateValue.
// An encoding failure leaves the stored value untouched and returns false.
func (c *Characteristic) UpdateValueWith(v any) bool {
	data, err := c.profile.Encode(v)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"characteristic": c.UUID(),
			"type":           fmt.Sprintf("%T", v),
		}).Warn("Cannot encode characteristic value")
		return false
	}
	return c.UpdateValue(data)
}

// UpdateValueWithString encodes values through the profile and publishes them.
func (c *Characteristic) UpdateValueWithString(values map[string]string) bool {
	data, ok := c.DataFromStringValue(values)
	if !ok {
		return false
	}
	return c.UpdateValue(data)
}

// DidSubscribe registers central and primes the gate so the next update is sent.
func (c *Characteristic) DidSubscribe(central Central) {
	c.mu.Lock()
	c.subscribers.subscribe(central)
	c.gate.subscribed(c.profile.Properties().CanNotify())
	subscribers := c.subscribers.len()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"central":        central.ID(),
		"subscribers":    subscribers,
	}).Info("Central subscribed")
}

// DidUnsubscribe removes central and closes the gate when it was the last subscriber.
func (c *Characteristic) DidUnsubscribe(central Central) {
	c.mu.Lock()
	c.subscribers.unsubscribe(central.ID())
	c.gate.unsubscribed(c.subscribers.hasSubscriber())
	subscribers := c.subscribers.len()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"central":        central.ID(),
		"subscribers":    subscribers,
	}).Info("Central unsubscribed")
}

// PeripheralReadyToUpdateSubscribers re-primes the gate after the transport
// drained its send buffers, provided someone is still subscribed.
func (c *Characteristic) PeripheralReadyToUpdateSubscribers() {
	c.mu.Lock()
	c.gate.ready(c.subscribers.hasSubscriber(), c.profile.Properties().CanNotify())
	updating := c.gate.updating
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"gate":           gateName(updating),
	}).Debug("Transport ready to update subscribers")
}

// StartRespondingToWriteRequests opens a fresh write request stream and returns it.
// capacity bounds the undelivered requests kept (oldest dropped first); 0 is
// unbounded. A stream started earlier is stopped.
func (c *Characteristic) StartRespondingToWriteRequests(capacity int) *WriteRequestStream {
	c.mu.Lock()
	replaced := c.writes.active()
	stream := c.writes.start(capacity)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"capacity":       stream.Capacity(),
		"replaced":       replaced,
	}).Debug("Started responding to write requests")
	return stream
}

// StopRespondingToWriteRequests closes the active stream. Later writes are dropped.
func (c *Characteristic) StopRespondingToWriteRequests() {
	c.mu.Lock()
	stopped := c.writes.stop()
	c.mu.Unlock()

	if stopped == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"delivered":      stopped.Delivered(),
		"dropped":        stopped.Dropped(),
	}).Debug("Stopped responding to write requests")
}

// DidRespondToWriteRequest hands an incoming write to the active stream.
// Returns false if the application is not listening; the request is dropped.
func (c *Characteristic) DidRespondToWriteRequest(req WriteRequest) bool {
	c.mu.Lock()
	var droppedBefore uint64
	if c.writes.stream != nil {
		droppedBefore = c.writes.stream.Dropped()
	}
	delivered := c.writes.deliver(req)
	overflow := delivered && c.writes.stream.Dropped() > droppedBefore
	c.mu.Unlock()

	entry := c.logger.WithField("characteristic", c.UUID())
	switch {
	case !delivered:
		entry.Debug("Write request dropped: not responding to write requests")
	case overflow:
		entry.Warn("Write request buffer full: dropped oldest request")
	}
	return delivered
}

// RespondToRequest forwards result for req to the transport. No local state changes.
func (c *Characteristic) RespondToRequest(req WriteRequest, result ATTResult) {
	c.mu.Lock()
	t, ok := c.transportLocked()
	c.mu.Unlock()

	if !ok {
		c.logger.WithFields(logrus.Fields{
			"characteristic": c.UUID(),
			"result":         result.String(),
		}).Debug("No transport to respond through")
		return
	}
	t.Respond(req, result)
}

func (c *Characteristic) transportLocked() (Transport, bool) {
	if c.services == nil || c.serviceID.IsZero() {
		return nil, false
	}
	return c.services.Transport(c.serviceID)
}

func gateName(updating bool) string {
	if updating {
		return GateUpdating.String()
	}
	return GateIdle.String()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
