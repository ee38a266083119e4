// JSON response envelopes for the servers API. The view structs carry
// their own field tags; this file only adds the top-level keys.

package wire

import (
	"github.com/craneworks/nimbus/views"
)

// ServerResult wraps a single server representation.
type ServerResult struct {
	Server views.ServerDetail `json:"server"`
}

// ServersResult wraps a summary list, with pagination links when the
// page was truncated.
type ServersResult struct {
	Servers      []views.ServerSummary `json:"servers"`
	ServersLinks []views.Link          `json:"servers_links,omitempty"`
}

// ServersDetailResult wraps a detail list.
type ServersDetailResult struct {
	Servers      []views.ServerDetail `json:"servers"`
	ServersLinks []views.Link         `json:"servers_links,omitempty"`
}

// ReservationResult is the create response when the caller asked for
// the reservation id instead of the server representation.
type ReservationResult struct {
	ReservationId string `json:"reservation_id"`
}

// AddressesResult wraps a server's full address mapping.
type AddressesResult struct {
	Addresses map[string][]views.IP `json:"addresses"`
}
