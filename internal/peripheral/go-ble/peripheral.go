package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// DeviceFactory creates the go-ble device (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (ble.Device, error) {
	return newDevice()
}

// Peripheral advertises services on a go-ble device.
type Peripheral struct {
	dev    ble.Device
	logger *logrus.Logger

	mu       sync.Mutex
	services []*Service
}

// NewPeripheral opens the local device through DeviceFactory.
func NewPeripheral(logger *logrus.Logger) (*Peripheral, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to open BLE device: %w", NormalizeError(err))
	}
	return &Peripheral{dev: dev, logger: logger}, nil
}

// AddService publishes s in the device's GATT database.
func (p *Peripheral) AddService(s *Service) error {
	if err := p.dev.AddService(s.BLEService()); err != nil {
		return fmt.Errorf("failed to add service %s: %w", s.UUID(), NormalizeError(err))
	}

	p.mu.Lock()
	p.services = append(p.services, s)
	p.mu.Unlock()

	p.logger.WithField("service", s.UUID().String()).Info("Service added")
	return nil
}

// Services returns the added services.
func (p *Peripheral) Services() []*Service {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Service(nil), p.services...)
}

// Advertise advertises name and the added service UUIDs until ctx is done.
// Returns nil when ctx was cancelled or timed out.
func (p *Peripheral) Advertise(ctx context.Context, name string) error {
	services := p.Services()
	uuids := make([]ble.UUID, 0, len(services))
	for _, s := range services {
		uuids = append(uuids, s.UUID())
	}

	p.logger.WithFields(logrus.Fields{
		"name":     name,
		"services": len(uuids),
	}).Info("Advertising")

	err := p.dev.AdvertiseNameAndServices(ctx, name, uuids...)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		p.logger.WithField("name", name).Info("Advertising stopped")
		return nil
	}
	return NormalizeError(err)
}

// Close unregisters the services and stops the device.
func (p *Peripheral) Close() error {
	for _, s := range p.Services() {
		s.Close()
	}
	if err := p.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop BLE device: %w", err)
	}
	return nil
}
