// Server resource views: the summary and detail representations
// composed from an instance record, its network attachments and the
// derived status.

package views

import (
	"fmt"
	"strings"

	"github.com/craneworks/nimbus/compute"
)

// timeFormat is the wire timestamp layout: UTC, second precision,
// trailing Z.
const timeFormat = "2006-01-02T15:04:05Z"

// Entity is an id plus links reference to a related resource, used
// for the image and flavor sub-views.
type Entity struct {
	Id    string `json:"id"`
	Links []Link `json:"links"`
}

// ServerSummary is the reduced server representation returned by
// plain list operations.
type ServerSummary struct {
	Id    int    `json:"id"`
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Links []Link `json:"links"`
}

// ServerDetail is the full server representation.
type ServerDetail struct {
	Id          int               `json:"id"`
	UUID        string            `json:"uuid"`
	UserId      string            `json:"user_id"`
	TenantId    string            `json:"tenant_id"`
	Created     string            `json:"created"`
	Updated     string            `json:"updated"`
	Progress    int               `json:"progress"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	AccessIPv4  string            `json:"accessIPv4"`
	AccessIPv6  string            `json:"accessIPv6"`
	HostId      string            `json:"hostId"`
	KeyName     string            `json:"key_name"`
	Image       *Entity           `json:"image,omitempty"`
	Flavor      *Entity           `json:"flavor"`
	Addresses   map[string][]IP   `json:"addresses"`
	Metadata    map[string]string `json:"metadata"`
	ConfigDrive interface{}       `json:"config_drive"`
	AdminPass   string            `json:"adminPass,omitempty"`
	Links       []Link            `json:"links"`
}

// ViewBuilder composes the status, address and link builders into
// server representations. Stateless; one builder serves concurrent
// requests.
type ViewBuilder struct {
	links       *LinkBuilder
	includeIPv6 bool
}

// NewViewBuilder returns a builder producing links through the given
// LinkBuilder.
func NewViewBuilder(links *LinkBuilder, includeIPv6 bool) *ViewBuilder {
	return &ViewBuilder{links: links, includeIPv6: includeIPv6}
}

// IdFromRef extracts a resource id from either a bare id or a URL
// reference, taking the last path segment.
func IdFromRef(ref string) string {
	if slash := strings.LastIndex(ref, "/"); slash != -1 {
		return ref[slash+1:]
	}
	return ref
}

// Summary builds the reduced representation of an instance.
func (v *ViewBuilder) Summary(instance compute.InstanceRecord) ServerSummary {
	id := fmt.Sprint(instance.Id)
	return ServerSummary{
		Id:    instance.Id,
		UUID:  instance.UUID,
		Name:  instance.Name,
		Links: v.links.ResourceLinks("servers", id),
	}
}

// Detail builds the full representation of an instance. Validation of
// the instance's state happens here: an unrecognized vm state aborts
// the build, never emitting a partial view.
func (v *ViewBuilder) Detail(instance compute.InstanceRecord, attachments []compute.NetworkAttachment, floats FloatingLookup) (ServerDetail, error) {
	status, err := compute.StatusOf(instance.VMState, instance.TaskState)
	if err != nil {
		return ServerDetail{}, err
	}
	id := fmt.Sprint(instance.Id)
	detail := ServerDetail{
		Id:         instance.Id,
		UUID:       instance.UUID,
		UserId:     instance.UserId,
		TenantId:   instance.ProjectId,
		Created:    instance.Created.UTC().Format(timeFormat),
		Updated:    instance.Updated.UTC().Format(timeFormat),
		Progress:   instance.Progress,
		Name:       instance.Name,
		Status:     status,
		AccessIPv4: instance.AccessIPv4,
		AccessIPv6: instance.AccessIPv6,
		HostId:     compute.HostToken(instance.Host, instance.ProjectId),
		KeyName:    instance.KeyName,
		Flavor: &Entity{
			Id:    instance.FlavorId,
			Links: v.links.BookmarkLinks("flavors", instance.FlavorId),
		},
		Addresses: Addresses(attachments, v.includeIPv6, floats),
		Metadata:  stringified(instance.Metadata),
		Links:     v.links.ResourceLinks("servers", id),
	}
	if instance.ImageRef != "" {
		imageId := IdFromRef(instance.ImageRef)
		detail.Image = &Entity{
			Id:    imageId,
			Links: v.links.BookmarkLinks("images", imageId),
		}
	}
	if cd := instance.ConfigDrive; cd != nil {
		if cd.Id != "" {
			detail.ConfigDrive = cd.Id
		} else if cd.Flag {
			detail.ConfigDrive = true
		}
	}
	return detail, nil
}

// stringified coerces metadata values to strings.
func stringified(metadata map[string]interface{}) map[string]string {
	result := make(map[string]string)
	for key, value := range metadata {
		result[key] = fmt.Sprint(value)
	}
	return result
}
