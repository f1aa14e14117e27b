package builder

import (
	"fmt"
	"strings"
)

// Field tags one family of variables or constraints within a scope. Each
// device package owns a closed set of field constants; the linking fields
// below are the only ones declared here.
type Field string

// Linking fields shared by household and aggregator assembly.
const (
	FieldTotalLoad   Field = "totalLoad"
	FieldLinkTotal   Field = "link_total"
	FieldNetLoad     Field = "netLoad"
	FieldLinkNetLoad Field = "link_netLoad"
)

// Scope identifies the owner of a registry entry: the aggregator (both labels
// empty), a household, or a device within a household.
type Scope struct {
	Household string
	Device    string
}

// AggregatorScope returns the system-wide scope.
func AggregatorScope() Scope {
	return Scope{}
}

// HouseholdScope returns the scope of one household's own entries.
func HouseholdScope(household string) Scope {
	return Scope{Household: household}
}

// DeviceScope returns the scope of one device within a household.
func DeviceScope(household string, device string) Scope {
	return Scope{Household: household, Device: device}
}

// Key is a registry key: scope, field, cycle ordinal and time step. K is the
// secondary ordinal used by multi-cycle devices; it is zero everywhere else.
type Key struct {
	Scope Scope
	Field Field
	K     int
	T     int
}

// Key returns the registry key for field at time step t in this scope.
func (s Scope) Key(field Field, t int) Key {
	return Key{Scope: s, Field: field, T: t}
}

// CycleKey returns the registry key for field at cycle k, time step t.
func (s Scope) CycleKey(field Field, k int, t int) Key {
	return Key{Scope: s, Field: field, K: k, T: t}
}

// Name derives the solver-facing name of the entry. Names are cosmetic (the
// struct is the identity); they exist so a dumped model reads like the
// schedule it encodes.
func (k Key) Name() string {
	parts := make([]string, 0, 5)
	if k.Scope.Household != "" {
		parts = append(parts, k.Scope.Household)
	}
	if k.Scope.Device != "" {
		parts = append(parts, k.Scope.Device)
	}
	parts = append(parts, string(k.Field))
	if k.K > 0 {
		parts = append(parts, fmt.Sprintf("%d", k.K))
	}
	parts = append(parts, fmt.Sprintf("%d", k.T))
	return strings.Join(parts, "_")
}
