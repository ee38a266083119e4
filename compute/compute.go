// Core compute data structures shared by the store, the view builders
// and the HTTP API. These are internal records, not wire types; the
// wire representations live in the views and wire packages.

package compute

import (
	"time"
)

// ConfigDrive describes an instance's config drive request: either a
// plain boolean flag or the id of a specific volume to attach.
type ConfigDrive struct {
	Flag bool
	Id   string
}

// InstanceRecord is the stored representation of a server, as supplied
// by the storage layer to the view builders.
type InstanceRecord struct {
	Id          int
	UUID        string
	ProjectId   string
	UserId      string
	Created     time.Time
	Updated     time.Time
	Name        string
	VMState     VMState
	TaskState   TaskState
	ImageRef    string
	FlavorId    string
	AccessIPv4  string
	AccessIPv6  string
	Host        string
	Progress    int
	KeyName     string
	Metadata    map[string]interface{}
	ConfigDrive *ConfigDrive
}

// NetworkAttachment is one virtual interface of an instance: a network
// label plus the attached IPv4 and IPv6 addresses, in allocation order.
// An attachment with an empty label is considered malformed.
type NetworkAttachment struct {
	Label string
	IPv4  []string
	IPv6  []string
}

// FlavorDetail describes an instance type.
type FlavorDetail struct {
	Id    string
	Name  string
	RAM   int
	VCPUs int
	Disk  int
}

// ImageDetail describes a bootable image.
type ImageDetail struct {
	Id     string
	Name   string
	Status string
}

// KeyPair is a registered SSH key pair, referenced by name at
// instance creation.
type KeyPair struct {
	Name        string
	PublicKey   string
	Fingerprint string
}

// InjectedFile is a personality file requested at instance creation:
// a guest path and the decoded file contents.
type InjectedFile struct {
	Path     string
	Contents []byte
}

// RequestedNetwork is one requested network attachment from a create
// request. A nil field means the request did not carry the attribute
// at all, which is distinct from an empty value.
type RequestedNetwork struct {
	UUID    *string
	FixedIP *string
}
