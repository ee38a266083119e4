// Marker/limit pagination over ordered instance collections.

package views

import (
	"net/url"
	"strconv"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
)

// PageRequest holds the validated pagination parameters of a list
// request. Limit and Marker are nil when the client did not supply
// them.
type PageRequest struct {
	Limit  *int
	Marker *int
}

// ParsePage extracts and validates the limit and marker query
// parameters. Malformed values fail fast before any pagination runs.
func ParsePage(query url.Values) (PageRequest, error) {
	var page PageRequest
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return page, errors.BadRequestf("limit param must be an integer")
		}
		if limit < 1 {
			return page, errors.BadRequestf("limit param must be positive")
		}
		page.Limit = &limit
	}
	if raw := query.Get("marker"); raw != "" {
		marker, err := strconv.Atoi(raw)
		if err != nil {
			return page, errors.BadRequestf("marker param must be an integer")
		}
		page.Marker = &marker
	}
	return page, nil
}

// Apply paginates the given collection, already ordered by id
// ascending. It returns the requested page and whether the page was
// truncated by an explicit limit, which is the condition for a next
// link. An absent limit is capped at maxLimit without producing one.
func (p PageRequest) Apply(instances []compute.InstanceRecord, maxLimit int) ([]compute.InstanceRecord, bool, error) {
	items := instances
	if p.Marker != nil {
		start := -1
		for i, instance := range items {
			if instance.Id == *p.Marker {
				start = i + 1
				break
			}
		}
		if start == -1 {
			return nil, false, errors.InvalidMarkerf("marker [%d] not found", *p.Marker)
		}
		items = items[start:]
	}
	limit := maxLimit
	explicit := false
	if p.Limit != nil {
		explicit = true
		limit = *p.Limit
		if limit > maxLimit {
			// cap silently, without a next link
			limit = maxLimit
			explicit = false
		}
	}
	if len(items) <= limit {
		return items, false, nil
	}
	return items[:limit], explicit, nil
}
