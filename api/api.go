// The servers HTTP API: list, show, create, update, delete and the
// address sub-resources, over both JSON and XML representations.

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/craneworks/nimbus/errors"
	"github.com/craneworks/nimbus/logging"
	"github.com/craneworks/nimbus/store"
	"github.com/craneworks/nimbus/views"
)

// Options configures the API service.
type Options struct {
	// Store supplies instance, flavor, image and key pair data.
	Store *store.Store

	// BaseURL is the versioned public endpoint of the service,
	// e.g. "http://localhost/v1.1".
	BaseURL string

	// MaxPageSize caps list responses. Zero means 1000.
	MaxPageSize int

	// PasswordLength sets generated admin password length. Zero
	// means 12.
	PasswordLength int

	// IncludeIPv6 controls whether address views carry IPv6
	// entries.
	IncludeIPv6 bool
}

// API serves the compute servers endpoints.
type API struct {
	store          *store.Store
	baseURL        string
	maxPageSize    int
	passwordLength int
	includeIPv6    bool
	logger         logging.Logger
	metrics        *metrics
}

// New validates the options and returns the API. A missing or invalid
// base URL is a configuration error, reported here rather than on the
// first request.
func New(opts Options) (*API, error) {
	if _, err := views.NewLinkBuilder(opts.BaseURL, ""); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.Configurationf("store must be set")
	}
	maxPageSize := opts.MaxPageSize
	if maxPageSize == 0 {
		maxPageSize = 1000
	}
	passwordLength := opts.PasswordLength
	if passwordLength == 0 {
		passwordLength = 12
	}
	return &API{
		store:          opts.Store,
		baseURL:        opts.BaseURL,
		maxPageSize:    maxPageSize,
		passwordLength: passwordLength,
		includeIPv6:    opts.IncludeIPv6,
		logger:         logging.New("api"),
		metrics:        newMetrics(),
	}, nil
}

// viewBuilder returns a view builder scoped to the caller's project.
func (a *API) viewBuilder(project string) *views.ViewBuilder {
	// the base URL was validated in New, so this cannot fail
	links, _ := views.NewLinkBuilder(a.baseURL, project)
	return views.NewViewBuilder(links, a.includeIPv6)
}

// linkBuilder returns a bare link builder scoped to the project.
func (a *API) linkBuilder(project string) *views.LinkBuilder {
	links, _ := views.NewLinkBuilder(a.baseURL, project)
	return links
}

// handle wraps a handler with identity derivation, logging and
// metrics for the named route.
func (a *API) handle(route string, handler http.HandlerFunc) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = withCaller(r)
		a.logger.Debugf("%s %s", r.Method, r.URL.Path)
		handler(w, r)
	})
	return a.metrics.middleware(route, inner)
}

// Router returns the service's route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	v := r.PathPrefix("/v1.1/{project}").Subrouter()
	v.Methods("GET").Path("/servers").Handler(a.handle("servers.index", a.indexServers))
	v.Methods("GET").Path("/servers/detail").Handler(a.handle("servers.detail", a.detailServers))
	v.Methods("POST").Path("/servers").Handler(a.handle("servers.create", a.createServer))
	v.Methods("GET").Path("/servers/{id}/ips").Handler(a.handle("servers.ips", a.serverAddresses))
	v.Methods("GET").Path("/servers/{id}/ips/{network}").Handler(a.handle("servers.ips.network", a.serverNetworkAddresses))
	v.Methods("GET").Path("/servers/{id}").Handler(a.handle("servers.show", a.showServer))
	v.Methods("PUT").Path("/servers/{id}").Handler(a.handle("servers.update", a.updateServer))
	v.Methods("DELETE").Path("/servers/{id}").Handler(a.handle("servers.delete", a.deleteServer))
	r.Path("/metrics").Handler(a.metrics.handler())
	return r
}
