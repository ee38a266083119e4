package compute

import (
	"crypto/sha256"
	"encoding/hex"
)

// HostToken returns an opaque token identifying the host an instance
// runs on. The token is stable for a given (host, project) pair and
// scoped to the project, so tenants cannot correlate placement across
// projects. Empty when the host is not set.
func HostToken(host, projectId string) string {
	if host == "" {
		return ""
	}
	sum := sha256.Sum224([]byte(host + projectId))
	return hex.EncodeToString(sum[:])
}
