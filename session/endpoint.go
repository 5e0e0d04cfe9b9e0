package session

import (
	"net/url"
	"strconv"
	"strings"
)

// Endpoint describes how a position maps onto a content request address.
type Endpoint struct {
	Origin        string // scheme://host[:port], no trailing slash
	Path          string // e.g. /getBookContent
	ResourceParam string // query parameter carrying the base resource
	IndexParam    string // query parameter carrying the position index
}

// DefaultEndpoint returns the Legado web service layout for the given origin.
func DefaultEndpoint(origin string) Endpoint {
	return Endpoint{
		Origin:        strings.TrimRight(origin, "/"),
		Path:          "/getBookContent",
		ResourceParam: "url",
		IndexParam:    "index",
	}
}

// Address builds the request address for one content unit.
func (e Endpoint) Address(baseResource string, index int) string {
	q := url.Values{}
	q.Set(e.ResourceParam, baseResource)
	q.Set(e.IndexParam, strconv.Itoa(index))
	return e.Origin + e.Path + "?" + q.Encode()
}

// Parse extracts the base resource and index from a request address.
// Relative addresses are resolved against the endpoint origin. ok is false
// when the path does not match or either parameter is missing or malformed.
func (e Endpoint) Parse(raw string) (baseResource string, index int, ok bool) {
	if !strings.Contains(raw, e.Path) {
		return "", Unset, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", Unset, false
	}
	if !u.IsAbs() && e.Origin != "" {
		origin, err := url.Parse(e.Origin)
		if err != nil {
			return "", Unset, false
		}
		u = origin.ResolveReference(u)
	}
	if !strings.HasSuffix(u.Path, e.Path) {
		return "", Unset, false
	}

	q := u.Query()
	baseResource = q.Get(e.ResourceParam)
	if baseResource == "" {
		return "", Unset, false
	}
	index, err = strconv.Atoi(q.Get(e.IndexParam))
	if err != nil || index < 0 {
		return "", Unset, false
	}
	return baseResource, index, true
}
