// Query filter extraction for list operations. Unrecognized options
// are ignored, not rejected; the address filters and arbitrary extra
// options are only honored for elevated callers.

package api

import (
	"net/url"
	"time"

	"github.com/juju/collections/set"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
	"github.com/craneworks/nimbus/store"
	"github.com/craneworks/nimbus/views"
)

// userFilters are the options any caller may use. Everything else is
// admin-only and silently stripped for plain callers.
var userFilters = set.NewStrings(
	"name", "status", "image", "flavor", "changes-since",
	"reservation_id", "marker", "limit",
)

// parseFilter translates the request query into a store filter for
// the given caller. Invalid status and changes-since values fail
// fast; a changes-since query includes deleted instances so pollers
// can observe deletions.
func parseFilter(query url.Values, caller Caller) (store.Filter, error) {
	filter := store.Filter{ProjectId: caller.ProjectId}
	for key := range query {
		if !caller.Admin && !userFilters.Contains(key) {
			continue
		}
		value := query.Get(key)
		switch key {
		case "name":
			filter.Name = value
		case "status":
			vm, err := compute.VMStateOf(value)
			if err != nil {
				return filter, err
			}
			filter.VMState = vm
		case "image":
			filter.ImageRef = views.IdFromRef(value)
		case "flavor":
			filter.FlavorId = views.IdFromRef(value)
		case "changes-since":
			since, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return filter, errors.BadRequestf("Invalid changes-since value")
			}
			filter.ChangesSince = since
		case "reservation_id":
			filter.ReservationId = value
		case "ip":
			filter.IP = value
		case "ip6":
			filter.IP6 = value
		case "tenant_id":
			// admins may list another project's servers
			filter.ProjectId = value
		}
	}
	if caller.Admin {
		filter.IncludeDeleted = query.Get("deleted") == "true"
	}
	return filter, nil
}
