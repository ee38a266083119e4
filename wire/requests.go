// Inbound request body parsing for the servers API, in both the JSON
// and XML representations. Parsing normalizes each body into a
// CreateServer or UpdateServer value; semantic validation (flavor
// lookups, password rules) happens in the API layer.

package wire

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
)

// ServerFile is one personality entry: a guest path and the
// base64-encoded file contents, kept encoded as received.
type ServerFile struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// CreateServer is a normalized create request. Nil pointer fields and
// nil collections mean the request did not carry the key at all; an
// empty non-nil collection means the key was present but empty.
type CreateServer struct {
	Name                *string
	ImageRef            *string
	FlavorRef           *string
	AdminPass           *string
	AccessIPv4          *string
	AccessIPv6          *string
	KeyName             *string
	ConfigDrive         interface{}
	Metadata            map[string]string
	Personality         []ServerFile
	Networks            []compute.RequestedNetwork
	MinCount            int
	MaxCount            int
	ReservationId       *string
	ReturnReservationId bool
}

// UpdateServer is a normalized update request. Only the mutable
// fields are represented; anything else in the body is dropped.
type UpdateServer struct {
	Name       *string
	AccessIPv4 *string
	AccessIPv6 *string
}

type xmlMeta struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlFile struct {
	Path     string `xml:"path,attr"`
	Contents string `xml:",chardata"`
}

type xmlNetwork struct {
	UUID    *string `xml:"uuid,attr"`
	FixedIP *string `xml:"fixed_ip,attr"`
}

type xmlCreateServer struct {
	XMLName    xml.Name `xml:"server"`
	Name       *string  `xml:"name,attr"`
	ImageRef   *string  `xml:"imageRef,attr"`
	FlavorRef  *string  `xml:"flavorRef,attr"`
	AdminPass  *string  `xml:"adminPass,attr"`
	AccessIPv4 *string  `xml:"accessIPv4,attr"`
	AccessIPv6 *string  `xml:"accessIPv6,attr"`
	KeyName    *string  `xml:"key_name,attr"`
	Metadata   *struct {
		Entries []xmlMeta `xml:"meta"`
	} `xml:"metadata"`
	Personality *struct {
		Files []xmlFile `xml:"file"`
	} `xml:"personality"`
	Networks []struct {
		Entries []xmlNetwork `xml:"network"`
	} `xml:"networks"`
}

// ParseCreateServerXML parses an XML create request body. Later
// duplicate metadata keys overwrite earlier ones. When more than one
// networks block is present only the first is honored.
func ParseCreateServerXML(body []byte) (*CreateServer, error) {
	var doc xmlCreateServer
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.BadRequestf("cannot understand XML")
	}
	req := &CreateServer{
		Name:       doc.Name,
		ImageRef:   doc.ImageRef,
		FlavorRef:  doc.FlavorRef,
		AdminPass:  doc.AdminPass,
		AccessIPv4: doc.AccessIPv4,
		AccessIPv6: doc.AccessIPv6,
		KeyName:    doc.KeyName,
		MinCount:   1,
		MaxCount:   1,
	}
	if doc.Metadata != nil {
		req.Metadata = make(map[string]string)
		for _, meta := range doc.Metadata.Entries {
			req.Metadata[meta.Key] = meta.Value
		}
	}
	if doc.Personality != nil {
		req.Personality = []ServerFile{}
		for _, file := range doc.Personality.Files {
			req.Personality = append(req.Personality, ServerFile{
				Path:     file.Path,
				Contents: file.Contents,
			})
		}
	}
	if len(doc.Networks) > 0 {
		req.Networks = []compute.RequestedNetwork{}
		for _, network := range doc.Networks[0].Entries {
			req.Networks = append(req.Networks, compute.RequestedNetwork{
				UUID:    network.UUID,
				FixedIP: network.FixedIP,
			})
		}
	}
	return req, nil
}

type jsonCreateServer struct {
	Name        *string                `json:"name"`
	ImageRef    interface{}            `json:"imageRef"`
	FlavorRef   interface{}            `json:"flavorRef"`
	AdminPass   *string                `json:"adminPass"`
	AccessIPv4  *string                `json:"accessIPv4"`
	AccessIPv6  *string                `json:"accessIPv6"`
	KeyName     *string                `json:"key_name"`
	ConfigDrive interface{}            `json:"config_drive"`
	Metadata    map[string]interface{} `json:"metadata"`
	Personality []ServerFile           `json:"personality"`
	Networks    []struct {
		UUID    *string `json:"uuid"`
		FixedIP *string `json:"fixed_ip"`
	} `json:"networks"`
	MinCount            *int        `json:"min_count"`
	MaxCount            *int        `json:"max_count"`
	ReservationId       *string     `json:"reservation_id"`
	ReturnReservationId interface{} `json:"return_reservation_id"`
}

// refString renders an image or flavor reference supplied as either a
// JSON number or a string.
func refString(value interface{}) *string {
	if value == nil {
		return nil
	}
	var ref string
	switch v := value.(type) {
	case string:
		ref = v
	case float64:
		ref = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		ref = fmt.Sprint(v)
	}
	return &ref
}

// serverBody extracts and checks the top-level "server" key of a JSON
// request body. A missing or non-object value is a bad request.
func serverBody(body []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.BadRequestf("malformed request body")
	}
	server, ok := envelope["server"]
	if !ok {
		return nil, errors.BadRequestf("malformed request body")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(server, &fields); err != nil {
		return nil, errors.BadRequestf("malformed request body")
	}
	return server, nil
}

// ParseCreateServerJSON parses a JSON create request body.
func ParseCreateServerJSON(body []byte) (*CreateServer, error) {
	server, err := serverBody(body)
	if err != nil {
		return nil, err
	}
	var doc jsonCreateServer
	if err := json.Unmarshal(server, &doc); err != nil {
		return nil, errors.BadRequestf("malformed request body")
	}
	req := &CreateServer{
		Name:        doc.Name,
		ImageRef:    refString(doc.ImageRef),
		FlavorRef:   refString(doc.FlavorRef),
		AdminPass:   doc.AdminPass,
		AccessIPv4:  doc.AccessIPv4,
		AccessIPv6:  doc.AccessIPv6,
		KeyName:     doc.KeyName,
		ConfigDrive: doc.ConfigDrive,
		Personality: doc.Personality,
		MinCount:    1,
		MaxCount:    1,
	}
	if doc.Metadata != nil {
		req.Metadata = make(map[string]string)
		for key, value := range doc.Metadata {
			req.Metadata[key] = fmt.Sprint(value)
		}
	}
	if doc.Networks != nil {
		req.Networks = []compute.RequestedNetwork{}
		for _, network := range doc.Networks {
			req.Networks = append(req.Networks, compute.RequestedNetwork{
				UUID:    network.UUID,
				FixedIP: network.FixedIP,
			})
		}
	}
	if doc.MinCount != nil {
		req.MinCount = *doc.MinCount
	}
	if doc.MaxCount != nil {
		req.MaxCount = *doc.MaxCount
	}
	req.ReservationId = doc.ReservationId
	switch v := doc.ReturnReservationId.(type) {
	case bool:
		req.ReturnReservationId = v
	case string:
		req.ReturnReservationId = v == "True" || v == "true"
	}
	return req, nil
}

// ParseUpdateServerJSON parses a JSON update request body. Fields
// outside the mutable set, adminPass included, are silently dropped.
func ParseUpdateServerJSON(body []byte) (*UpdateServer, error) {
	server, err := serverBody(body)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Name       *string `json:"name"`
		AccessIPv4 *string `json:"accessIPv4"`
		AccessIPv6 *string `json:"accessIPv6"`
	}
	if err := json.Unmarshal(server, &doc); err != nil {
		return nil, errors.BadRequestf("malformed request body")
	}
	return &UpdateServer{
		Name:       doc.Name,
		AccessIPv4: doc.AccessIPv4,
		AccessIPv6: doc.AccessIPv6,
	}, nil
}
