// HTTP response plumbing: JSON sending and the error body formats
// the compute API uses for each failure class.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/craneworks/nimbus/errors"
)

type faultBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// sendJSON sends the given response serialized as JSON.
func (a *API) sendJSON(code int, resp interface{}, w http.ResponseWriter, r *http.Request) {
	var data []byte
	if resp != nil {
		var err error
		data, err = json.Marshal(resp)
		if err != nil {
			a.sendError(err, w, r)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(code)
	w.Write(data)
}

// sendXML sends a pre-rendered markup document.
func (a *API) sendXML(code int, data []byte, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(code)
	w.Write(data)
}

// sendError maps an error to the API's error body format. Bad
// requests and invalid markers map to 400, missing resources to 404,
// empty bodies to 422 and everything else, unknown instance states
// included, to a 500 compute fault.
func (a *API) sendError(err error, w http.ResponseWriter, r *http.Request) {
	var code int
	var key string
	switch {
	case errors.IsBadRequest(err), errors.IsInvalidMarker(err):
		code, key = http.StatusBadRequest, "badRequest"
	case errors.IsNotFound(err):
		code, key = http.StatusNotFound, "itemNotFound"
	case errors.IsUnprocessable(err):
		code, key = http.StatusUnprocessableEntity, "unprocessableEntity"
	case errors.IsDuplicateValue(err):
		code, key = http.StatusConflict, "conflictingRequest"
	default:
		code, key = http.StatusInternalServerError, "computeFault"
		a.logger.Errorf("request %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	body := map[string]faultBody{
		key: {Message: err.Error(), Code: code},
	}
	a.sendJSON(code, body, w, r)
}
