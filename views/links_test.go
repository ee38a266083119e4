package views

import (
	"net/url"

	. "gopkg.in/check.v1"

	"github.com/craneworks/nimbus/errors"
)

type LinksSuite struct{}

var _ = Suite(&LinksSuite{})

func (s *LinksSuite) TestResourceLinks(c *C) {
	builder, err := NewLinkBuilder("http://localhost/v1.1", "fake")
	c.Assert(err, IsNil)
	links := builder.ResourceLinks("servers", "1")
	c.Assert(links, DeepEquals, []Link{
		{Href: "http://localhost/v1.1/fake/servers/1", Rel: "self"},
		{Href: "http://localhost/fake/servers/1", Rel: "bookmark"},
	})
}

func (s *LinksSuite) TestResourceLinksNoProject(c *C) {
	builder, err := NewLinkBuilder("http://localhost/v1.1", "")
	c.Assert(err, IsNil)
	links := builder.ResourceLinks("servers", "1")
	c.Assert(links, DeepEquals, []Link{
		{Href: "http://localhost/v1.1/servers/1", Rel: "self"},
		{Href: "http://localhost/servers/1", Rel: "bookmark"},
	})
}

func (s *LinksSuite) TestBookmarkLinks(c *C) {
	builder, err := NewLinkBuilder("http://localhost/v1.1", "fake")
	c.Assert(err, IsNil)
	links := builder.BookmarkLinks("images", "10")
	c.Assert(links, DeepEquals, []Link{
		{Href: "http://localhost/fake/images/10", Rel: "bookmark"},
	})
}

func (s *LinksSuite) TestNextLink(c *C) {
	builder, err := NewLinkBuilder("http://localhost/v1.1", "fake")
	c.Assert(err, IsNil)
	query := url.Values{"limit": []string{"3"}}
	link := builder.NextLink("servers", query, "2")
	c.Assert(link.Rel, Equals, "next")
	href, err := url.Parse(link.Href)
	c.Assert(err, IsNil)
	c.Assert(href.Path, Equals, "/v1.1/fake/servers")
	c.Assert(href.Query(), DeepEquals, url.Values{
		"limit":  []string{"3"},
		"marker": []string{"2"},
	})
}

func (s *LinksSuite) TestNextLinkPreservesParams(c *C) {
	builder, err := NewLinkBuilder("http://localhost/v1.1", "fake")
	c.Assert(err, IsNil)
	query := url.Values{
		"limit":  []string{"3"},
		"blah":   []string{"2:t"},
		"marker": []string{"1"},
	}
	link := builder.NextLink("servers", query, "2")
	href, err := url.Parse(link.Href)
	c.Assert(err, IsNil)
	c.Assert(href.Query(), DeepEquals, url.Values{
		"limit":  []string{"3"},
		"blah":   []string{"2:t"},
		"marker": []string{"2"},
	})
}

func (s *LinksSuite) TestEmptyBaseURL(c *C) {
	_, err := NewLinkBuilder("", "fake")
	c.Assert(err, ErrorMatches, "base URL must be set")
	c.Assert(errors.IsConfiguration(err), Equals, true)
}

func (s *LinksSuite) TestInvalidBaseURL(c *C) {
	_, err := NewLinkBuilder("localhost-no-scheme", "fake")
	c.Assert(errors.IsConfiguration(err), Equals, true)
}
