// Hyperlink construction for REST resources: versioned self links,
// version-agnostic bookmark links and pagination next links.

package views

import (
	"net/url"
	"strings"

	"github.com/craneworks/nimbus/errors"
)

// Link is a single hyperlink attached to a resource view.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// LinkBuilder constructs resource links from the service base URL and
// an optional project segment. The base URL carries the API version
// path, e.g. "http://localhost/v1.1".
type LinkBuilder struct {
	host        string
	versionPath string
	projectId   string
}

// NewLinkBuilder validates the base URL and returns a builder scoped
// to the given project. An empty or unparsable base URL is a
// configuration error, fatal at startup rather than per-request.
func NewLinkBuilder(baseURL, projectId string) (*LinkBuilder, error) {
	if baseURL == "" {
		return nil, errors.Configurationf("base URL must be set")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Configurationf("invalid base URL %q", baseURL)
	}
	return &LinkBuilder{
		host:        parsed.Scheme + "://" + parsed.Host,
		versionPath: strings.TrimRight(parsed.Path, "/"),
		projectId:   projectId,
	}, nil
}

// endpointURL returns either a versioned or non-versioned endpoint
// URL for the given path.
func (b *LinkBuilder) endpointURL(version bool, path string) string {
	ep := b.host
	if version {
		ep += b.versionPath
	}
	if b.projectId != "" {
		ep += "/" + b.projectId
	}
	if path != "" {
		ep += "/" + strings.TrimLeft(path, "/")
	}
	return ep
}

// ResourceLinks returns the self and bookmark link pair for the given
// resource, always in that order.
func (b *LinkBuilder) ResourceLinks(collection, id string) []Link {
	path := collection + "/" + id
	return []Link{
		{Href: b.endpointURL(true, path), Rel: "self"},
		{Href: b.endpointURL(false, path), Rel: "bookmark"},
	}
}

// BookmarkLinks returns the bookmark-only link list used by image and
// flavor sub-views.
func (b *LinkBuilder) BookmarkLinks(collection, id string) []Link {
	path := collection + "/" + id
	return []Link{
		{Href: b.endpointURL(false, path), Rel: "bookmark"},
	}
}

// NextLink returns the pagination link for the page following the one
// that ended with lastId. The original request's query parameters are
// preserved, with marker replaced.
func (b *LinkBuilder) NextLink(collection string, query url.Values, lastId string) Link {
	params := url.Values{}
	for key, vals := range query {
		params[key] = vals
	}
	params.Set("marker", lastId)
	return Link{
		Href: b.endpointURL(true, collection) + "?" + params.Encode(),
		Rel:  "next",
	}
}
