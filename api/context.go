// Per-request caller identity, derived from request headers by the
// identity middleware and carried in the request context. Real
// deployments put an auth middleware in front; the derivation here
// trusts the headers as given.

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Caller identifies the requesting user and their privilege level.
type Caller struct {
	ProjectId string
	UserId    string
	Admin     bool
}

type ctxKeyType int

const ctxKeyCaller ctxKeyType = iota

// withCaller derives the caller from the request and stores it in the
// request context. The project comes from the URL, the user from
// X-Auth-User, and elevation from an "admin" entry in X-Roles.
func withCaller(r *http.Request) *http.Request {
	caller := Caller{
		ProjectId: mux.Vars(r)["project"],
		UserId:    r.Header.Get("X-Auth-User"),
	}
	if caller.UserId == "" {
		caller.UserId = "fake"
	}
	for _, role := range strings.Split(r.Header.Get("X-Roles"), ",") {
		if strings.TrimSpace(role) == "admin" {
			caller.Admin = true
		}
	}
	ctx := context.WithValue(r.Context(), ctxKeyCaller, caller)
	return r.WithContext(ctx)
}

// callerOf returns the caller stored by the identity middleware.
func callerOf(r *http.Request) Caller {
	caller, _ := r.Context().Value(ctxKeyCaller).(Caller)
	return caller
}
