package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type TargetType string

const (
	TargetProduct    TargetType = "product"
	TargetCollection TargetType = "collection"
)

var (
	ErrInvalidURL         = errors.New("invalid storefront url")
	ErrUnresolvableHandle = errors.New("url has no resolvable handle")
)

// Target is a parsed scrape target: which store, which handle, and whether
// the handle names a single product or a collection.
type Target struct {
	Store  string     `json:"store"`
	Handle string     `json:"handle"`
	Type   TargetType `json:"type"`
}

// Resolve parses a user-supplied storefront URL. A collections/<handle>
// prefix classifies the URL as a collection even when a /products/... suffix
// follows; ambiguous paths fall back to the last segment and the caller's
// default type.
func Resolve(raw string, defaultType TargetType) (*Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	segments := splitPath(u.Path)

	switch {
	case len(segments) >= 2 && segments[0] == "collections":
		return &Target{Store: u.Host, Handle: segments[1], Type: TargetCollection}, nil
	case len(segments) >= 2 && segments[0] == "products":
		return &Target{Store: u.Host, Handle: segments[1], Type: TargetProduct}, nil
	case len(segments) > 0:
		return &Target{Store: u.Host, Handle: segments[len(segments)-1], Type: defaultType}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnresolvableHandle, raw)
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
