package peripheral

import (
	"fmt"

	"github.com/cornelk/hashmap"
)

// ServiceTable maps service handles to the transports serving them.
// It is safe for concurrent use; characteristics resolve their transport through
// it on every send, so a service removed from the table turns sends into no-ops.
type ServiceTable struct {
	transports *hashmap.Map[string, Transport]
}

// NewServiceTable creates an empty table.
func NewServiceTable() *ServiceTable {
	return &ServiceTable{transports: hashmap.New[string, Transport]()}
}

// Register stores t under a fresh handle and returns it.
func (s *ServiceTable) Register(t Transport) ServiceID {
	for {
		id := NewServiceID()
		if err := s.RegisterAs(id, t); err == nil {
			return id
		}
	}
}

// RegisterAs stores t under id. It fails if id is already taken.
func (s *ServiceTable) RegisterAs(id ServiceID, t Transport) error {
	if id.IsZero() {
		return fmt.Errorf("register service: %w: zero id", ErrUnknownService)
	}
	if !s.transports.Insert(id.String(), t) {
		return fmt.Errorf("register service: id %s already registered", id)
	}
	return nil
}

// Unregister removes id. Returns false if it was not present.
func (s *ServiceTable) Unregister(id ServiceID) bool {
	return s.transports.Del(id.String())
}

// Transport implements ServiceLookup.
func (s *ServiceTable) Transport(id ServiceID) (Transport, bool) {
	return s.transports.Get(id.String())
}

// Len returns the number of registered services.
func (s *ServiceTable) Len() int {
	return s.transports.Len()
}
