// Handlers for the servers endpoints.

package api

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
	"github.com/craneworks/nimbus/views"
	"github.com/craneworks/nimbus/wire"
)

// wantsXML reports whether the client asked for the markup
// representation.
func wantsXML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/xml")
}

// sentXML reports whether the client sent a markup request body.
func sentXML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/xml")
}

// lookupInstance resolves the {id} path segment, which may be either
// the numeric id or the instance uuid.
func (a *API) lookupInstance(r *http.Request) (*compute.InstanceRecord, error) {
	raw := mux.Vars(r)["id"]
	if serverId, err := strconv.Atoi(raw); err == nil {
		return a.store.Instance(serverId)
	}
	return a.store.InstanceByUUID(raw)
}

// floats adapts the store's floating address lookup for the address
// view builder.
func (a *API) floats() views.FloatingLookup {
	return func(fixed string) []string {
		return a.store.FloatingIPs(fixed)
	}
}

func (a *API) indexServers(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	query := r.URL.Query()
	filter, err := parseFilter(query, caller)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	page, err := views.ParsePage(query)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	instances, truncated, err := page.Apply(a.store.AllInstances(filter), a.maxPageSize)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	builder := a.viewBuilder(caller.ProjectId)
	result := wire.ServersResult{Servers: []views.ServerSummary{}}
	for _, instance := range instances {
		result.Servers = append(result.Servers, builder.Summary(instance))
	}
	if truncated {
		lastId := instances[len(instances)-1].Id
		result.ServersLinks = []views.Link{
			a.linkBuilder(caller.ProjectId).NextLink("servers", query, strconv.Itoa(lastId)),
		}
	}
	if wantsXML(r) {
		a.sendXML(http.StatusOK, wire.MarshalServersXML(result), w, r)
		return
	}
	a.sendJSON(http.StatusOK, result, w, r)
}

func (a *API) detailServers(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	query := r.URL.Query()
	filter, err := parseFilter(query, caller)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	page, err := views.ParsePage(query)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	instances, truncated, err := page.Apply(a.store.AllInstances(filter), a.maxPageSize)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	builder := a.viewBuilder(caller.ProjectId)
	result := wire.ServersDetailResult{Servers: []views.ServerDetail{}}
	for _, instance := range instances {
		attachments, _ := a.store.Attachments(instance.Id)
		detail, err := builder.Detail(instance, attachments, a.floats())
		if err != nil {
			a.sendError(err, w, r)
			return
		}
		result.Servers = append(result.Servers, detail)
	}
	if truncated {
		lastId := instances[len(instances)-1].Id
		result.ServersLinks = []views.Link{
			a.linkBuilder(caller.ProjectId).NextLink("servers/detail", query, strconv.Itoa(lastId)),
		}
	}
	if wantsXML(r) {
		a.sendXML(http.StatusOK, wire.MarshalServersDetailXML(result), w, r)
		return
	}
	a.sendJSON(http.StatusOK, result, w, r)
}

func (a *API) showServer(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	instance, err := a.lookupInstance(r)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	attachments, _ := a.store.Attachments(instance.Id)
	detail, err := a.viewBuilder(caller.ProjectId).Detail(*instance, attachments, a.floats())
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	if wantsXML(r) {
		a.sendXML(http.StatusOK, wire.MarshalServerXML(detail), w, r)
		return
	}
	a.sendJSON(http.StatusOK, wire.ServerResult{Server: detail}, w, r)
}

// passwordChars is the alphabet of generated admin passwords.
const passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func (a *API) generatePassword() string {
	buf := make([]byte, a.passwordLength)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = passwordChars[int(b)%len(passwordChars)]
	}
	return string(buf)
}

// newReservationId returns a fresh reservation correlation token.
func newReservationId() string {
	return "r-" + uuid.NewString()[:8]
}

// validateCreate checks the parsed request against the catalog and
// returns the instance template and admin password.
func (a *API) validateCreate(req *wire.CreateServer, caller Caller) (compute.InstanceRecord, string, error) {
	var record compute.InstanceRecord
	if req.Name == nil || *req.Name == "" {
		return record, "", errors.BadRequestf("Server name is not defined")
	}
	if req.FlavorRef == nil {
		return record, "", errors.BadRequestf("Invalid flavorRef provided.")
	}
	flavorId := views.IdFromRef(*req.FlavorRef)
	if _, err := a.store.Flavor(flavorId); err != nil {
		return record, "", errors.BadRequestf("Invalid flavorRef provided.")
	}
	imageId := ""
	if req.ImageRef != nil {
		imageId = views.IdFromRef(*req.ImageRef)
		if _, err := a.store.Image(imageId); err != nil {
			return record, "", errors.BadRequestf("Invalid imageRef provided.")
		}
	}
	if req.KeyName != nil {
		if _, err := a.store.KeyPair(*req.KeyName); err != nil {
			return record, "", errors.BadRequestf("Invalid key_name provided.")
		}
		record.KeyName = *req.KeyName
	}
	password := ""
	if req.AdminPass != nil {
		if *req.AdminPass == "" {
			return record, "", errors.BadRequestf("Invalid adminPass")
		}
		password = *req.AdminPass
	} else {
		password = a.generatePassword()
	}
	switch drive := req.ConfigDrive.(type) {
	case nil:
	case bool:
		if drive {
			record.ConfigDrive = &compute.ConfigDrive{Flag: true}
		}
	case string:
		record.ConfigDrive = &compute.ConfigDrive{Id: drive}
	default:
		return record, "", errors.BadRequestf("Bad value for config_drive")
	}
	for _, file := range req.Personality {
		if _, err := base64.StdEncoding.DecodeString(file.Contents); err != nil {
			return record, "", errors.BadRequestf("Personality content for %s cannot be decoded", file.Path)
		}
	}
	seen := map[string]bool{}
	for _, network := range req.Networks {
		if network.UUID == nil {
			return record, "", errors.BadRequestf("Bad networks format")
		}
		if _, err := uuid.Parse(*network.UUID); err != nil {
			return record, "", errors.BadRequestf("Bad networks format: network uuid is not in proper format (%s)", *network.UUID)
		}
		if seen[*network.UUID] {
			return record, "", errors.BadRequestf("Duplicate networks (%s) are not allowed", *network.UUID)
		}
		seen[*network.UUID] = true
	}
	if req.MinCount < 1 || req.MaxCount < 1 {
		return record, "", errors.BadRequestf("min_count and max_count must be positive integers")
	}
	if req.MinCount > req.MaxCount {
		return record, "", errors.BadRequestf("min_count must be <= max_count")
	}
	record.Name = *req.Name
	record.ProjectId = caller.ProjectId
	record.UserId = caller.UserId
	record.VMState = compute.VMBuilding
	record.FlavorId = flavorId
	record.ImageRef = imageId
	if req.AccessIPv4 != nil {
		record.AccessIPv4 = *req.AccessIPv4
	}
	if req.AccessIPv6 != nil {
		record.AccessIPv6 = *req.AccessIPv6
	}
	if req.Metadata != nil {
		record.Metadata = make(map[string]interface{})
		for key, value := range req.Metadata {
			record.Metadata[key] = value
		}
	}
	return record, password, nil
}

func (a *API) createServer(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	if len(body) == 0 {
		a.sendError(errors.Unprocessablef("The request body is empty"), w, r)
		return
	}
	var req *wire.CreateServer
	if sentXML(r) {
		req, err = wire.ParseCreateServerXML(body)
	} else {
		req, err = wire.ParseCreateServerJSON(body)
	}
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	template, password, err := a.validateCreate(req, caller)
	if err != nil {
		a.sendError(err, w, r)
		return
	}

	// a caller-supplied reservation id is only honored when elevated
	reservationId := newReservationId()
	if caller.Admin && req.ReservationId != nil && *req.ReservationId != "" {
		reservationId = *req.ReservationId
	}

	var first compute.InstanceRecord
	for i := 0; i < req.MaxCount; i++ {
		record, err := a.store.AddInstance(template, reservationId)
		if err != nil {
			a.sendError(err, w, r)
			return
		}
		if i == 0 {
			first = record
		}
	}
	if req.ReturnReservationId {
		a.sendJSON(http.StatusOK, wire.ReservationResult{ReservationId: reservationId}, w, r)
		return
	}
	detail, err := a.viewBuilder(caller.ProjectId).Detail(first, nil, nil)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	detail.AdminPass = password
	if wantsXML(r) {
		a.sendXML(http.StatusOK, wire.MarshalServerXML(detail), w, r)
		return
	}
	a.sendJSON(http.StatusOK, wire.ServerResult{Server: detail}, w, r)
}

func (a *API) updateServer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	if len(body) == 0 {
		a.sendError(errors.Unprocessablef("The request body is empty"), w, r)
		return
	}
	req, err := wire.ParseUpdateServerJSON(body)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	instance, err := a.lookupInstance(r)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	if req.Name != nil {
		instance.Name = *req.Name
	}
	if req.AccessIPv4 != nil {
		instance.AccessIPv4 = *req.AccessIPv4
	}
	if req.AccessIPv6 != nil {
		instance.AccessIPv6 = *req.AccessIPv6
	}
	if err := a.store.UpdateInstance(*instance); err != nil {
		a.sendError(err, w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteServer(w http.ResponseWriter, r *http.Request) {
	instance, err := a.lookupInstance(r)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	if err := a.store.RemoveInstance(instance.Id); err != nil {
		a.sendError(err, w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) serverAddresses(w http.ResponseWriter, r *http.Request) {
	instance, err := a.lookupInstance(r)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	attachments, err := a.store.Attachments(instance.Id)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	addresses := views.Addresses(attachments, a.includeIPv6, a.floats())
	a.sendJSON(http.StatusOK, wire.AddressesResult{Addresses: addresses}, w, r)
}

func (a *API) serverNetworkAddresses(w http.ResponseWriter, r *http.Request) {
	instance, err := a.lookupInstance(r)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	attachments, err := a.store.Attachments(instance.Id)
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	label := mux.Vars(r)["network"]
	ips, err := views.NetworkAddresses(attachments, label, a.includeIPv6, a.floats())
	if err != nil {
		a.sendError(err, w, r)
		return
	}
	a.sendJSON(http.StatusOK, map[string][]views.IP{label: ips}, w, r)
}
