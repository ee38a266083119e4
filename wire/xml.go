// XML rendering of server resource views. The markup format puts
// scalar fields on the root element as attributes and nested
// collections in child elements, with resource links in the Atom
// namespace. Output is deterministic: map-backed collections are
// rendered in sorted key order.

package wire

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/craneworks/nimbus/views"
)

// XMLDeclaration starts every markup document.
const XMLDeclaration = "<?xml version='1.0' encoding='UTF-8'?>\n"

const (
	// NamespaceCompute is the default namespace of server documents.
	NamespaceCompute = "http://docs.openstack.org/compute/api/v1.1"

	// NamespaceAtom qualifies resource link elements.
	NamespaceAtom = "http://www.w3.org/2005/Atom"
)

type xmlBuilder struct {
	buf bytes.Buffer
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (b *xmlBuilder) raw(s string) {
	b.buf.WriteString(s)
}

func (b *xmlBuilder) attr(name, value string) {
	fmt.Fprintf(&b.buf, ` %s="%s"`, name, escapeXML(value))
}

func (b *xmlBuilder) atomLink(link views.Link) {
	b.raw("<atom:link")
	b.attr("href", link.Href)
	b.attr("rel", link.Rel)
	b.raw("/>")
}

func (b *xmlBuilder) namespaces() {
	b.attr("xmlns", NamespaceCompute)
	b.attr("xmlns:atom", NamespaceAtom)
}

func (b *xmlBuilder) entity(name string, entity *views.Entity) {
	if entity == nil {
		return
	}
	b.raw("<" + name)
	b.attr("id", entity.Id)
	b.raw(">")
	for _, link := range entity.Links {
		b.atomLink(link)
	}
	b.raw("</" + name + ">")
}

func (b *xmlBuilder) metadata(metadata map[string]string) {
	b.raw("<metadata>")
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.raw("<meta")
		b.attr("key", key)
		b.raw(">")
		b.raw(escapeXML(metadata[key]))
		b.raw("</meta>")
	}
	b.raw("</metadata>")
}

func (b *xmlBuilder) addresses(addresses map[string][]views.IP) {
	b.raw("<addresses>")
	labels := make([]string, 0, len(addresses))
	for label := range addresses {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		b.raw("<network")
		b.attr("id", label)
		b.raw(">")
		for _, ip := range addresses[label] {
			b.raw("<ip")
			b.attr("version", fmt.Sprint(ip.Version))
			b.attr("addr", ip.Addr)
			b.raw("/>")
		}
		b.raw("</network>")
	}
	b.raw("</addresses>")
}

func (b *xmlBuilder) serverDetail(server views.ServerDetail, root bool) {
	b.raw("<server")
	if root {
		b.namespaces()
	}
	b.attr("id", fmt.Sprint(server.Id))
	b.attr("uuid", server.UUID)
	b.attr("user_id", server.UserId)
	b.attr("tenant_id", server.TenantId)
	b.attr("created", server.Created)
	b.attr("updated", server.Updated)
	b.attr("progress", fmt.Sprint(server.Progress))
	b.attr("name", server.Name)
	b.attr("status", server.Status)
	b.attr("accessIPv4", server.AccessIPv4)
	b.attr("accessIPv6", server.AccessIPv6)
	b.attr("hostId", server.HostId)
	b.attr("key_name", server.KeyName)
	switch drive := server.ConfigDrive.(type) {
	case nil:
	case bool:
		b.attr("config_drive", fmt.Sprint(drive))
	default:
		b.attr("config_drive", fmt.Sprint(drive))
	}
	if server.AdminPass != "" {
		b.attr("adminPass", server.AdminPass)
	}
	b.raw(">")
	b.entity("image", server.Image)
	b.entity("flavor", server.Flavor)
	b.metadata(server.Metadata)
	b.addresses(server.Addresses)
	for _, link := range server.Links {
		b.atomLink(link)
	}
	b.raw("</server>")
}

func (b *xmlBuilder) serverSummary(server views.ServerSummary, root bool) {
	b.raw("<server")
	if root {
		b.namespaces()
	}
	b.attr("id", fmt.Sprint(server.Id))
	b.attr("uuid", server.UUID)
	b.attr("name", server.Name)
	b.raw(">")
	for _, link := range server.Links {
		b.atomLink(link)
	}
	b.raw("</server>")
}

// MarshalServerXML renders a single server document.
func MarshalServerXML(server views.ServerDetail) []byte {
	var b xmlBuilder
	b.raw(XMLDeclaration)
	b.serverDetail(server, true)
	return b.buf.Bytes()
}

// MarshalServersXML renders a summary collection document. Pagination
// links render as Atom links directly under the collection root.
func MarshalServersXML(result ServersResult) []byte {
	var b xmlBuilder
	b.raw(XMLDeclaration)
	b.raw("<servers")
	b.namespaces()
	b.raw(">")
	for _, server := range result.Servers {
		b.serverSummary(server, false)
	}
	for _, link := range result.ServersLinks {
		b.atomLink(link)
	}
	b.raw("</servers>")
	return b.buf.Bytes()
}

// MarshalServersDetailXML renders a detail collection document.
func MarshalServersDetailXML(result ServersDetailResult) []byte {
	var b xmlBuilder
	b.raw(XMLDeclaration)
	b.raw("<servers")
	b.namespaces()
	b.raw(">")
	for _, server := range result.Servers {
		b.serverDetail(server, false)
	}
	for _, link := range result.ServersLinks {
		b.atomLink(link)
	}
	b.raw("</servers>")
	return b.buf.Bytes()
}
