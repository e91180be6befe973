package peripheral

import (
	"fmt"
	"strings"
)

// Properties is the characteristic properties bitmask.
type Properties uint16

const (
	PropertyBroadcast                  Properties = 1 << 0
	PropertyRead                       Properties = 1 << 1
	PropertyWriteWithoutResponse       Properties = 1 << 2
	PropertyWrite                      Properties = 1 << 3
	PropertyNotify                     Properties = 1 << 4
	PropertyIndicate                   Properties = 1 << 5
	PropertyAuthenticatedSignedWrites  Properties = 1 << 6
	PropertyExtendedProperties         Properties = 1 << 7
	PropertyNotifyEncryptionRequired   Properties = 1 << 8
	PropertyIndicateEncryptionRequired Properties = 1 << 9
)

// NotifyClass is every property that lets the peripheral push values to subscribers.
const NotifyClass = PropertyNotify | PropertyIndicate | PropertyNotifyEncryptionRequired | PropertyIndicateEncryptionRequired

type propertyName struct {
	flag Properties
	name string
}

var propertyNames = []propertyName{
	{PropertyBroadcast, "broadcast"},
	{PropertyRead, "read"},
	{PropertyWriteWithoutResponse, "write-without-response"},
	{PropertyWrite, "write"},
	{PropertyNotify, "notify"},
	{PropertyIndicate, "indicate"},
	{PropertyAuthenticatedSignedWrites, "authenticated-signed-writes"},
	{PropertyExtendedProperties, "extended-properties"},
	{PropertyNotifyEncryptionRequired, "notify-encryption-required"},
	{PropertyIndicateEncryptionRequired, "indicate-encryption-required"},
}

// Has reports whether any of the bits in p are set.
func (ps Properties) Has(p Properties) bool {
	return ps&p != 0
}

// CanNotify reports whether any notify-class property is set.
func (ps Properties) CanNotify() bool {
	return ps.Has(NotifyClass)
}

// Names returns the names of the set bits in declaration order.
func (ps Properties) Names() []string {
	names := make([]string, 0, len(propertyNames))
	for _, pn := range propertyNames {
		if ps&pn.flag != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}

func (ps Properties) String() string {
	if ps == 0 {
		return "none"
	}
	return strings.Join(ps.Names(), "|")
}

// ParseProperties parses a comma or pipe separated list such as "read,notify".
// Short aliases "writenr" and "wwr" are accepted for write-without-response.
func ParseProperties(s string) (Properties, error) {
	var ps Properties
	for _, tok := range splitFlags(s) {
		switch tok {
		case "writenr", "wwr", "write-nr":
			ps |= PropertyWriteWithoutResponse
			continue
		}
		found := false
		for _, pn := range propertyNames {
			if pn.name == tok {
				ps |= pn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown characteristic property %q", tok)
		}
	}
	return ps, nil
}

// Permissions is the attribute permissions bitmask.
type Permissions uint8

const (
	PermissionReadable                Permissions = 1 << 0
	PermissionWriteable               Permissions = 1 << 1
	PermissionReadEncryptionRequired  Permissions = 1 << 2
	PermissionWriteEncryptionRequired Permissions = 1 << 3
)

var permissionNames = []struct {
	flag Permissions
	name string
}{
	{PermissionReadable, "readable"},
	{PermissionWriteable, "writeable"},
	{PermissionReadEncryptionRequired, "read-encryption-required"},
	{PermissionWriteEncryptionRequired, "write-encryption-required"},
}

// Has reports whether any of the bits in p are set.
func (ps Permissions) Has(p Permissions) bool {
	return ps&p != 0
}

// CanRead reports whether reads are allowed, encrypted or not.
func (ps Permissions) CanRead() bool {
	return ps.Has(PermissionReadable | PermissionReadEncryptionRequired)
}

// CanWrite reports whether writes are allowed, encrypted or not.
func (ps Permissions) CanWrite() bool {
	return ps.Has(PermissionWriteable | PermissionWriteEncryptionRequired)
}

// Names returns the names of the set bits in declaration order.
func (ps Permissions) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if ps&pn.flag != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}

func (ps Permissions) String() string {
	if ps == 0 {
		return "none"
	}
	return strings.Join(ps.Names(), "|")
}

// ParsePermissions parses a comma or pipe separated list such as "readable,writeable".
func ParsePermissions(s string) (Permissions, error) {
	var ps Permissions
	for _, tok := range splitFlags(s) {
		found := false
		for _, pn := range permissionNames {
			if pn.name == tok {
				ps |= pn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown attribute permission %q", tok)
		}
	}
	return ps, nil
}

func splitFlags(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	})
	return fields
}
