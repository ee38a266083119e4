// Package envsuite provides a gocheck suite that isolates tests from
// the process environment. Configuration tests use it so NIMBUS_*
// variables set outside the test run cannot leak in.
package envsuite

import (
	"os"
	"strings"

	gc "gopkg.in/check.v1"
)

// EnvSuite clears the environment for every test and restores the
// original environment afterwards.
type EnvSuite struct {
	environ []string
}

func (s *EnvSuite) SetUpSuite(c *gc.C) {
	s.environ = os.Environ()
}

func (s *EnvSuite) SetUpTest(c *gc.C) {
	os.Clearenv()
}

func (s *EnvSuite) TearDownTest(c *gc.C) {
	for _, entry := range s.environ {
		pair := strings.SplitN(entry, "=", 2)
		os.Setenv(pair[0], pair[1])
	}
}

func (s *EnvSuite) TearDownSuite(c *gc.C) {
}
