package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "gopkg.in/check.v1"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/store"
	"github.com/craneworks/nimbus/views"
	"github.com/craneworks/nimbus/wire"
)

type ServersAPISuite struct {
	store  *store.Store
	api    *API
	router http.Handler
}

var _ = Suite(&ServersAPISuite{})

func (s *ServersAPISuite) SetUpTest(c *C) {
	s.store = store.New()
	api, err := New(Options{
		Store:       s.store,
		BaseURL:     "http://localhost/v1.1",
		IncludeIPv6: true,
	})
	c.Assert(err, IsNil)
	s.api = api
	s.router = api.Router()
}

func (s *ServersAPISuite) addServer(c *C, name string) compute.InstanceRecord {
	record, err := s.store.AddInstance(compute.InstanceRecord{
		Name:      name,
		ProjectId: "fake",
		UserId:    "fake",
		VMState:   compute.VMActive,
		ImageRef:  "10",
		FlavorId:  "1",
		Progress:  100,
	}, "")
	c.Assert(err, IsNil)
	return record
}

type header struct {
	name, value string
}

func (s *ServersAPISuite) request(c *C, method, path, body string, headers ...header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, h := range headers {
		req.Header.Set(h.name, h.value)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServersAPISuite) decode(c *C, rec *httptest.ResponseRecorder, into interface{}) {
	err := json.Unmarshal(rec.Body.Bytes(), into)
	c.Assert(err, IsNil)
}

func (s *ServersAPISuite) TestShowServer(c *C) {
	record := s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers/1", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.Id, Equals, record.Id)
	c.Assert(result.Server.Name, Equals, "server1")
	c.Assert(result.Server.Status, Equals, "ACTIVE")
	c.Assert(result.Server.Links, DeepEquals, []views.Link{
		{Href: "http://localhost/v1.1/fake/servers/1", Rel: "self"},
		{Href: "http://localhost/fake/servers/1", Rel: "bookmark"},
	})
	c.Assert(result.Server.Image.Links[0].Href, Equals, "http://localhost/fake/images/10")
	c.Assert(result.Server.Flavor.Links[0].Href, Equals, "http://localhost/fake/flavors/1")
}

func (s *ServersAPISuite) TestShowServerByUUID(c *C) {
	record := s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers/"+record.UUID, "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.UUID, Equals, record.UUID)
}

func (s *ServersAPISuite) TestShowServerNotFound(c *C) {
	rec := s.request(c, "GET", "/v1.1/fake/servers/42", "")
	c.Assert(rec.Code, Equals, http.StatusNotFound)
	var fault map[string]map[string]interface{}
	s.decode(c, rec, &fault)
	c.Assert(fault["itemNotFound"], NotNil)
}

func (s *ServersAPISuite) TestShowServerXML(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers/1", "",
		header{"Accept", "application/xml"})
	c.Assert(rec.Code, Equals, http.StatusOK)
	c.Assert(rec.Header().Get("Content-Type"), Equals, "application/xml")
	body := rec.Body.String()
	c.Assert(strings.HasPrefix(body, "<?xml version='1.0' encoding='UTF-8'?>"), Equals, true)
	c.Assert(body, Matches, `(?s).*name="server1".*`)
}

func (s *ServersAPISuite) TestIndexSummaryOnly(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var raw map[string][]map[string]interface{}
	s.decode(c, rec, &raw)
	servers := raw["servers"]
	c.Assert(servers, HasLen, 1)
	c.Assert(servers[0]["name"], Equals, "server1")
	// summary views never carry detail fields
	_, present := servers[0]["status"]
	c.Assert(present, Equals, false)
	_, present = servers[0]["addresses"]
	c.Assert(present, Equals, false)
}

func (s *ServersAPISuite) TestIndexPagination(c *C) {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.addServer(c, name)
	}
	rec := s.request(c, "GET", "/v1.1/fake/servers?limit=3", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 3)
	c.Assert(result.Servers[0].Id, Equals, 1)
	c.Assert(result.Servers[2].Id, Equals, 3)
	c.Assert(result.ServersLinks, HasLen, 1)
	c.Assert(result.ServersLinks[0].Rel, Equals, "next")
	c.Assert(result.ServersLinks[0].Href, Equals,
		"http://localhost/v1.1/fake/servers?limit=3&marker=3")
}

func (s *ServersAPISuite) TestIndexMarker(c *C) {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.addServer(c, name)
	}
	rec := s.request(c, "GET", "/v1.1/fake/servers?marker=3", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 2)
	c.Assert(result.Servers[0].Id, Equals, 4)
	c.Assert(result.Servers[1].Id, Equals, 5)
	c.Assert(result.ServersLinks, HasLen, 0)
}

func (s *ServersAPISuite) TestIndexBadLimit(c *C) {
	rec := s.request(c, "GET", "/v1.1/fake/servers?limit=aaa", "")
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestIndexZeroLimit(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers?limit=0", "")
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
	var fault map[string]map[string]interface{}
	s.decode(c, rec, &fault)
	c.Assert(fault["badRequest"]["message"], Equals, "limit param must be positive")
}

func (s *ServersAPISuite) TestIndexMarkerNotFound(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers?marker=42", "")
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
	var fault map[string]map[string]interface{}
	s.decode(c, rec, &fault)
	c.Assert(fault["badRequest"]["message"], Equals, "marker [42] not found")
}

func (s *ServersAPISuite) TestDetailList(c *C) {
	record := s.addServer(c, "server1")
	err := s.store.SetAttachments(record.Id, []compute.NetworkAttachment{
		{Label: "public", IPv4: []string{"192.168.0.3"}},
	})
	c.Assert(err, IsNil)
	rec := s.request(c, "GET", "/v1.1/fake/servers/detail", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersDetailResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 1)
	c.Assert(result.Servers[0].Status, Equals, "ACTIVE")
	c.Assert(result.Servers[0].Addresses, DeepEquals, map[string][]views.IP{
		"public": {{Version: 4, Addr: "192.168.0.3"}},
	})
}

func (s *ServersAPISuite) TestIndexFilterName(c *C) {
	s.addServer(c, "woot")
	s.addServer(c, "this")
	rec := s.request(c, "GET", "/v1.1/fake/servers?name=woo.*", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 1)
	c.Assert(result.Servers[0].Name, Equals, "woot")
}

func (s *ServersAPISuite) TestIndexFilterStatus(c *C) {
	s.addServer(c, "server1")
	stopped, err := s.store.AddInstance(compute.InstanceRecord{
		Name: "server2", ProjectId: "fake", VMState: compute.VMStopped, FlavorId: "1",
	}, "")
	c.Assert(err, IsNil)
	rec := s.request(c, "GET", "/v1.1/fake/servers?status=STOPPED", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 1)
	c.Assert(result.Servers[0].Id, Equals, stopped.Id)
}

func (s *ServersAPISuite) TestIndexFilterStatusInvalid(c *C) {
	rec := s.request(c, "GET", "/v1.1/fake/servers?status=running", "")
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestIndexFilterChangesSinceInvalid(c *C) {
	rec := s.request(c, "GET", "/v1.1/fake/servers?changes-since=asdf", "")
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestIndexUnknownOptionIgnored(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers?unknownoption=whee", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 1)
}

func (s *ServersAPISuite) TestIndexIPFilterStrippedForPlainCaller(c *C) {
	record := s.addServer(c, "server1")
	s.addServer(c, "server2")
	err := s.store.SetAttachments(record.Id, []compute.NetworkAttachment{
		{Label: "public", IPv4: []string{"10.0.0.12"}},
	})
	c.Assert(err, IsNil)
	rec := s.request(c, "GET", "/v1.1/fake/servers?ip=10.*", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 2)
}

func (s *ServersAPISuite) TestIndexIPFilterForAdmin(c *C) {
	record := s.addServer(c, "server1")
	s.addServer(c, "server2")
	err := s.store.SetAttachments(record.Id, []compute.NetworkAttachment{
		{Label: "public", IPv4: []string{"10.0.0.12"}},
	})
	c.Assert(err, IsNil)
	rec := s.request(c, "GET", "/v1.1/fake/servers?ip=10.*", "",
		header{"X-Roles", "admin"})
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServersResult
	s.decode(c, rec, &result)
	c.Assert(result.Servers, HasLen, 1)
	c.Assert(result.Servers[0].Id, Equals, record.Id)
}

const createBody = `{"server": {"name": "server_test", "imageRef": 10, "flavorRef": 1,
	"metadata": {"hello": "world"}}}`

func (s *ServersAPISuite) TestCreateServer(c *C) {
	rec := s.request(c, "POST", "/v1.1/fake/servers", createBody)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.Name, Equals, "server_test")
	c.Assert(result.Server.Status, Equals, "BUILD")
	c.Assert(result.Server.AdminPass, HasLen, 12)
	c.Assert(result.Server.Metadata, DeepEquals, map[string]string{"hello": "world"})
	c.Assert(result.Server.TenantId, Equals, "fake")
	// the instance is stored and visible
	instance, err := s.store.Instance(result.Server.Id)
	c.Assert(err, IsNil)
	c.Assert(instance.Name, Equals, "server_test")
}

func (s *ServersAPISuite) TestCreateServerAdminPassHonored(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "adminPass": "testpass"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.AdminPass, Equals, "testpass")
}

func (s *ServersAPISuite) TestCreateServerEmptyAdminPass(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "adminPass": ""}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerBadFlavor(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "17"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
	body = `{"server": {"name": "x", "imageRef": "10", "flavorRef": "asdf"}}`
	rec = s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerFlavorRefURL(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10",
		"flavorRef": "http://localhost/v1.1/flavors/2"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.Flavor.Id, Equals, "2")
}

func (s *ServersAPISuite) TestCreateServerBadKeyName(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "key_name": "nonexistentkey"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerKeyName(c *C) {
	err := s.store.AddKeyPair(compute.KeyPair{Name: "key", PublicKey: "ssh-rsa AAAA"})
	c.Assert(err, IsNil)
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "key_name": "key"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.KeyName, Equals, "key")
}

func (s *ServersAPISuite) TestCreateServerBadConfigDrive(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "config_drive": 13}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerConfigDrive(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1", "config_drive": true}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.ConfigDrive, Equals, true)
}

func (s *ServersAPISuite) TestCreateServerBadPersonality(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"personality": [{"path": "/etc/conf", "contents": "not!!!base64"}]}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerBadCounts(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"min_count": 4, "max_count": 2}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateMultipleNoReservationExposed(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"min_count": 2, "max_count": 3}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var raw map[string]interface{}
	s.decode(c, rec, &raw)
	c.Assert(raw, HasLen, 1)
	_, present := raw["server"]
	c.Assert(present, Equals, true)
	c.Assert(s.store.AllInstances(store.Filter{}), HasLen, 3)
}

func (s *ServersAPISuite) TestCreateReturnReservationId(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"min_count": 2, "max_count": 2, "return_reservation_id": true}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ReservationResult
	s.decode(c, rec, &result)
	c.Assert(strings.HasPrefix(result.ReservationId, "r-"), Equals, true)
	records := s.store.AllInstances(store.Filter{ReservationId: result.ReservationId})
	c.Assert(records, HasLen, 2)
}

func (s *ServersAPISuite) TestCreateSuppliedReservationIdReplaced(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"reservation_id": "r-mine", "return_reservation_id": true}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ReservationResult
	s.decode(c, rec, &result)
	c.Assert(result.ReservationId, Not(Equals), "r-mine")
}

func (s *ServersAPISuite) TestCreateAdminReservationIdHonored(c *C) {
	body := `{"server": {"name": "x", "imageRef": "10", "flavorRef": "1",
		"reservation_id": "r-mine", "return_reservation_id": true}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body,
		header{"X-Roles", "admin"})
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ReservationResult
	s.decode(c, rec, &result)
	c.Assert(result.ReservationId, Equals, "r-mine")
}

func (s *ServersAPISuite) TestCreateServerXMLBody(c *C) {
	body := `<server xmlns="http://docs.openstack.org/compute/api/v1.1"` +
		` name="server_test" imageRef="10" flavorRef="1"/>`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body,
		header{"Content-Type", "application/xml"})
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.ServerResult
	s.decode(c, rec, &result)
	c.Assert(result.Server.Name, Equals, "server_test")
}

func (s *ServersAPISuite) TestCreateServerEmptyBody(c *C) {
	rec := s.request(c, "POST", "/v1.1/fake/servers", "")
	c.Assert(rec.Code, Equals, http.StatusUnprocessableEntity)
}

func (s *ServersAPISuite) TestCreateServerBodyNotObject(c *C) {
	rec := s.request(c, "POST", "/v1.1/fake/servers", `{"server": "string"}`)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestCreateServerNoName(c *C) {
	body := `{"server": {"imageRef": "10", "flavorRef": "1"}}`
	rec := s.request(c, "POST", "/v1.1/fake/servers", body)
	c.Assert(rec.Code, Equals, http.StatusBadRequest)
}

func (s *ServersAPISuite) TestUpdateServer(c *C) {
	record := s.addServer(c, "server1")
	body := `{"server": {"name": "new_name", "accessIPv4": "0.0.0.0"}}`
	rec := s.request(c, "PUT", "/v1.1/fake/servers/1", body)
	c.Assert(rec.Code, Equals, http.StatusNoContent)
	instance, err := s.store.Instance(record.Id)
	c.Assert(err, IsNil)
	c.Assert(instance.Name, Equals, "new_name")
	c.Assert(instance.AccessIPv4, Equals, "0.0.0.0")
}

func (s *ServersAPISuite) TestUpdateServerEmptyBody(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "PUT", "/v1.1/fake/servers/1", "")
	c.Assert(rec.Code, Equals, http.StatusUnprocessableEntity)
}

func (s *ServersAPISuite) TestUpdateServerNotFound(c *C) {
	body := `{"server": {"name": "new_name"}}`
	rec := s.request(c, "PUT", "/v1.1/fake/servers/42", body)
	c.Assert(rec.Code, Equals, http.StatusNotFound)
}

func (s *ServersAPISuite) TestDeleteServer(c *C) {
	record := s.addServer(c, "server1")
	rec := s.request(c, "DELETE", "/v1.1/fake/servers/1", "")
	c.Assert(rec.Code, Equals, http.StatusNoContent)
	rec = s.request(c, "GET", "/v1.1/fake/servers/1", "")
	c.Assert(rec.Code, Equals, http.StatusNotFound)
	// soft delete: elevated store reads still see the record
	records := s.store.AllInstances(store.Filter{IncludeDeleted: true})
	c.Assert(records, HasLen, 1)
	c.Assert(records[0].Id, Equals, record.Id)
}

func (s *ServersAPISuite) TestServerAddresses(c *C) {
	record := s.addServer(c, "server1")
	err := s.store.SetAttachments(record.Id, []compute.NetworkAttachment{
		{Label: "public", IPv4: []string{"172.19.0.1"}, IPv6: []string{"b33f::1"}},
		{Label: "private", IPv4: []string{"192.168.0.3"}},
	})
	c.Assert(err, IsNil)
	s.store.AssociateFloatingIP("172.19.0.1", "1.2.3.4")
	rec := s.request(c, "GET", "/v1.1/fake/servers/1/ips", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result wire.AddressesResult
	s.decode(c, rec, &result)
	c.Assert(result.Addresses, DeepEquals, map[string][]views.IP{
		"public": {
			{Version: 4, Addr: "172.19.0.1"},
			{Version: 4, Addr: "1.2.3.4"},
			{Version: 6, Addr: "b33f::1"},
		},
		"private": {{Version: 4, Addr: "192.168.0.3"}},
	})
}

func (s *ServersAPISuite) TestServerNetworkAddresses(c *C) {
	record := s.addServer(c, "server1")
	err := s.store.SetAttachments(record.Id, []compute.NetworkAttachment{
		{Label: "public", IPv4: []string{"172.19.0.1"}},
	})
	c.Assert(err, IsNil)
	rec := s.request(c, "GET", "/v1.1/fake/servers/1/ips/public", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	var result map[string][]views.IP
	s.decode(c, rec, &result)
	c.Assert(result, DeepEquals, map[string][]views.IP{
		"public": {{Version: 4, Addr: "172.19.0.1"}},
	})
}

func (s *ServersAPISuite) TestServerNetworkAddressesUnknown(c *C) {
	s.addServer(c, "server1")
	rec := s.request(c, "GET", "/v1.1/fake/servers/1/ips/bogus", "")
	c.Assert(rec.Code, Equals, http.StatusNotFound)
}

func (s *ServersAPISuite) TestMetricsEndpoint(c *C) {
	s.addServer(c, "server1")
	s.request(c, "GET", "/v1.1/fake/servers", "")
	rec := s.request(c, "GET", "/metrics", "")
	c.Assert(rec.Code, Equals, http.StatusOK)
	c.Assert(rec.Body.String(), Matches, `(?s).*nimbus_http_requests_total.*`)
}
