// Package httpsuite provides a gocheck suite that runs a real HTTP
// server for the duration of each test. End-to-end API tests use it to
// exercise handlers through an actual network round trip.
package httpsuite

import (
	"net/http"
	"net/http/httptest"

	gc "gopkg.in/check.v1"
)

// HTTPSuite starts a test server before each test and shuts it down
// afterwards. Handlers are attached to Mux; Server.URL is the base
// address to request against.
type HTTPSuite struct {
	Server *httptest.Server
	Mux    *http.ServeMux
	UseTLS bool
}

func (s *HTTPSuite) SetUpSuite(c *gc.C) {
}

func (s *HTTPSuite) TearDownSuite(c *gc.C) {
}

func (s *HTTPSuite) SetUpTest(c *gc.C) {
	s.Mux = http.NewServeMux()
	if s.UseTLS {
		s.Server = httptest.NewTLSServer(s.Mux)
	} else {
		s.Server = httptest.NewServer(s.Mux)
	}
}

func (s *HTTPSuite) TearDownTest(c *gc.C) {
	if s.Server != nil {
		s.Server.Close()
		s.Server = nil
	}
	s.Mux = nil
}
