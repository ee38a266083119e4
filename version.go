// Package nimbus carries the module version reported by nimbusd.
package nimbus

import "fmt"

// VersionNum is a released version of the nimbus module.
type VersionNum struct {
	Major int
	Minor int
	Micro int
}

func (v VersionNum) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// VersionNumber is the current release.
var VersionNumber = VersionNum{Major: 0, Minor: 1, Micro: 0}

// Version is VersionNumber rendered as a string.
var Version = VersionNumber.String()
