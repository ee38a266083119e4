// Address view construction: flattens an instance's network
// attachments into the per-label address mapping exposed by the API.

package views

import (
	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
)

// IP is a single address entry in an address view.
type IP struct {
	Version int    `json:"version"`
	Addr    string `json:"addr"`
}

// FloatingLookup returns the floating addresses associated with a
// fixed IPv4 address, in association order. May be nil.
type FloatingLookup func(fixed string) []string

// Addresses builds the network label to address list mapping for the
// given attachments. For each attachment, in input order, IPv4
// addresses come first, each immediately followed by its floating
// addresses, then IPv6 addresses when includeIPv6 is set. Attachments
// sharing a label append to the same list. A malformed attachment
// (one with an empty label) is skipped silently.
func Addresses(attachments []compute.NetworkAttachment, includeIPv6 bool, floats FloatingLookup) map[string][]IP {
	addresses := make(map[string][]IP)
	for _, nic := range attachments {
		if nic.Label == "" {
			continue
		}
		ips := addresses[nic.Label]
		for _, addr := range nic.IPv4 {
			ips = append(ips, IP{Version: 4, Addr: addr})
			if floats != nil {
				for _, fip := range floats(addr) {
					ips = append(ips, IP{Version: 4, Addr: fip})
				}
			}
		}
		if includeIPv6 {
			for _, addr := range nic.IPv6 {
				ips = append(ips, IP{Version: 6, Addr: addr})
			}
		}
		addresses[nic.Label] = ips
	}
	return addresses
}

// NetworkAddresses returns the address list of a single network label.
func NetworkAddresses(attachments []compute.NetworkAttachment, label string, includeIPv6 bool, floats FloatingLookup) ([]IP, error) {
	addresses := Addresses(attachments, includeIPv6, floats)
	ips, ok := addresses[label]
	if !ok {
		return nil, errors.NotFoundf("network %q does not have any addresses", label)
	}
	return ips, nil
}
