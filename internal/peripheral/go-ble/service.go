// Package goble binds peripheral characteristics to a go-ble GATT server.
package goble

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/peripheral"
)

const (
	// DefaultWriteResponseTimeout bounds how long a write handler waits for the application.
	DefaultWriteResponseTimeout = 5 * time.Second

	// DefaultNotifyQueueDepth is the number of notifications queued per central.
	// One matches the single-packet transmit queue of most stacks.
	DefaultNotifyQueueDepth = 1
)

var (
	// ErrNoCharacteristics is returned when a service is built without characteristics.
	ErrNoCharacteristics = errors.New("service has no characteristics")
	// ErrDuplicateCharacteristic is returned when two characteristics share a UUID.
	ErrDuplicateCharacteristic = errors.New("duplicate characteristic")
)

// Service is a GATT service whose characteristics are served by go-ble.
// It implements peripheral.Transport for its characteristics.
type Service struct {
	uuid         ble.UUID
	id           peripheral.ServiceID
	table        *peripheral.ServiceTable
	chars        []*peripheral.Characteristic
	bleService   *ble.Service
	logger       *logrus.Logger
	writeTimeout time.Duration
	queueDepth   int

	mu       sync.Mutex
	outboxes map[string]map[string]*outbox
}

var _ peripheral.Transport = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(logger *logrus.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceTable registers the service in table instead of a private one.
func WithServiceTable(table *peripheral.ServiceTable) ServiceOption {
	return func(s *Service) {
		if table != nil {
			s.table = table
		}
	}
}

// WithWriteResponseTimeout sets how long a write waits for RespondToRequest.
func WithWriteResponseTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithNotifyQueueDepth sets the number of notifications queued per central.
func WithNotifyQueueDepth(depth int) ServiceOption {
	return func(s *Service) {
		if depth > 0 {
			s.queueDepth = depth
		}
	}
}

// NewService builds the go-ble service for chars, registers itself as their
// transport and attaches every characteristic to it.
func NewService(uuid string, chars []*peripheral.Characteristic, opts ...ServiceOption) (*Service, error) {
	u, err := ble.Parse(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", uuid, err)
	}
	if len(chars) == 0 {
		return nil, ErrNoCharacteristics
	}

	s := &Service{
		uuid:         u,
		chars:        chars,
		writeTimeout: DefaultWriteResponseTimeout,
		queueDepth:   DefaultNotifyQueueDepth,
		outboxes:     make(map[string]map[string]*outbox),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.New()
	}
	if s.table == nil {
		s.table = peripheral.NewServiceTable()
	}

	s.bleService = ble.NewService(u)
	seen := make(map[string]bool, len(chars))
	for _, c := range chars {
		if seen[c.UUID()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCharacteristic, c.UUID())
		}
		seen[c.UUID()] = true

		bc, err := s.newBLECharacteristic(c)
		if err != nil {
			return nil, err
		}
		s.bleService.AddCharacteristic(bc)
	}

	s.id = s.table.Register(s)
	for _, c := range chars {
		c.Attach(s.id, s.table)
	}

	s.logger.WithFields(logrus.Fields{
		"service":         s.uuid.String(),
		"characteristics": len(chars),
	}).Debug("GATT service built")
	return s, nil
}

// UUID returns the service UUID.
func (s *Service) UUID() ble.UUID { return s.uuid }

// ID returns the handle characteristics use to reach this service.
func (s *Service) ID() peripheral.ServiceID { return s.id }

// BLEService returns the go-ble declaration to add to a device.
func (s *Service) BLEService() *ble.Service { return s.bleService }

// Characteristics returns the served characteristics in declaration order.
func (s *Service) Characteristics() []*peripheral.Characteristic {
	return append([]*peripheral.Characteristic(nil), s.chars...)
}

// Close unregisters the service. Attached characteristics stop sending.
func (s *Service) Close() {
	s.table.Unregister(s.id)
}

func (s *Service) newBLECharacteristic(c *peripheral.Characteristic) (*ble.Characteristic, error) {
	u, err := ble.Parse(c.UUID())
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", c.UUID(), err)
	}

	props := c.Properties()
	bc := ble.NewCharacteristic(u)
	if props.Has(peripheral.PropertyRead) {
		bc.HandleRead(ble.ReadHandlerFunc(s.readHandler(c)))
	}
	if canWrite(props) {
		bc.HandleWrite(ble.WriteHandlerFunc(s.writeHandler(c)))
	}
	if canNotify(props) {
		bc.HandleNotify(ble.NotifyHandlerFunc(s.notifyHandler(c)))
	}
	if canIndicate(props) {
		bc.HandleIndicate(ble.NotifyHandlerFunc(s.notifyHandler(c)))
	}
	// Handlers set default bits; the declared properties win.
	bc.Property = BLEProperty(props)
	s.logger.WithFields(logrus.Fields{
		"characteristic": c.UUID(),
		"properties":     Properties(bc.Property).String(),
	}).Debug("GATT characteristic declared")
	return bc, nil
}

func (s *Service) readHandler(c *peripheral.Characteristic) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		log := s.logger.WithFields(logrus.Fields{
			"characteristic": c.UUID(),
			"central":        CentralFromRequest(req).ID(),
		})

		if !c.Permissions().CanRead() {
			log.Debug("Read rejected: not readable")
			rsp.SetStatus(ATTError(peripheral.ResultReadNotPermitted))
			return
		}

		value := c.Value()
		offset := req.Offset()
		if offset > len(value) {
			log.WithField("offset", offset).Debug("Read rejected: offset past end")
			rsp.SetStatus(ATTError(peripheral.ResultInvalidOffset))
			return
		}

		// The central reads the rest with ReadBlob at a higher offset.
		chunk := value[offset:]
		if room := rsp.Cap() - rsp.Len(); len(chunk) > room {
			chunk = chunk[:max(room, 0)]
		}
		if _, err := rsp.Write(chunk); err != nil {
			log.WithError(err).Warn("Read response failed")
			rsp.SetStatus(ATTError(peripheral.ResultUnlikelyError))
		}
	}
}

func (s *Service) writeHandler(c *peripheral.Characteristic) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		wr := newWriteRequest(req, c.UUID())
		log := s.logger.WithFields(logrus.Fields{
			"characteristic": c.UUID(),
			"central":        wr.central.ID(),
			"bytes":          len(wr.value),
		})

		if !c.Permissions().CanWrite() {
			log.Debug("Write rejected: not writeable")
			rsp.SetStatus(ATTError(peripheral.ResultWriteNotPermitted))
			return
		}

		if !c.DidRespondToWriteRequest(wr) {
			rsp.SetStatus(ATTError(peripheral.ResultRequestNotSupported))
			return
		}

		timer := time.NewTimer(s.writeTimeout)
		defer timer.Stop()

		select {
		case result := <-wr.reply:
			rsp.SetStatus(ATTError(result))
		case <-timer.C:
			if wr.responded.CompareAndSwap(false, true) {
				log.WithField("timeout", s.writeTimeout).Warn("Write request not answered in time")
				rsp.SetStatus(ATTError(peripheral.ResultUnlikelyError))
				return
			}
			rsp.SetStatus(ATTError(<-wr.reply))
		}
	}
}

func (s *Service) notifyHandler(c *peripheral.Characteristic) func(ble.Request, ble.Notifier) {
	return func(req ble.Request, n ble.Notifier) {
		central := CentralFromRequest(req)
		log := s.logger.WithFields(logrus.Fields{
			"characteristic": c.UUID(),
			"central":        central.ID(),
		})

		o := newOutbox(central, s.queueDepth, log)
		s.addOutbox(c.UUID(), o)
		c.DidSubscribe(central)

		o.pump(n.Context(), n, c.PeripheralReadyToUpdateSubscribers)

		remaining := s.removeOutbox(c.UUID(), o)
		c.DidUnsubscribe(central)

		// The rejecting outbox is gone and will never drain; the others can take sends.
		if remaining > 0 && o.rejected.Load() {
			c.PeripheralReadyToUpdateSubscribers()
		}
	}
}

func (s *Service) addOutbox(characteristic string, o *outbox) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCentral, ok := s.outboxes[characteristic]
	if !ok {
		byCentral = make(map[string]*outbox)
		s.outboxes[characteristic] = byCentral
	}
	byCentral[o.central.ID()] = o
}

// removeOutbox drops o and returns how many outboxes remain for characteristic.
func (s *Service) removeOutbox(characteristic string, o *outbox) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCentral := s.outboxes[characteristic]
	// A resubscribe may already have replaced this outbox.
	if byCentral[o.central.ID()] == o {
		delete(byCentral, o.central.ID())
	}
	if len(byCentral) == 0 {
		delete(s.outboxes, characteristic)
	}
	return len(byCentral)
}

// SendNotification queues value for every central subscribed to characteristic.
// It never blocks and returns false if any central's queue was full or nobody
// is subscribed; the characteristic is told when the queues drain.
func (s *Service) SendNotification(value []byte, characteristic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCentral := s.outboxes[characteristic]
	if len(byCentral) == 0 {
		return false
	}

	accepted := true
	for _, o := range byCentral {
		if !o.offer(append([]byte(nil), value...)) {
			accepted = false
		}
	}
	return accepted
}

// Respond completes a pending go-ble write with result. Requests from other
// transports and repeated responses are ignored.
func (s *Service) Respond(req peripheral.WriteRequest, result peripheral.ATTResult) {
	wr, ok := req.(*WriteRequest)
	if !ok {
		s.logger.WithField("request", fmt.Sprintf("%T", req)).Warn("Cannot respond to foreign write request")
		return
	}
	if !wr.respond(result) {
		s.logger.WithFields(logrus.Fields{
			"characteristic": wr.characteristic,
			"central":        wr.central.ID(),
			"result":         result.String(),
		}).Debug("Write request already answered")
	}
}
