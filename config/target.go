package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	olxDomain  = "olx.pl"
	sortParam  = "search[order]"
	sortEscape = "search%5Border%5D"
)

var ErrMissingTargetURL = errors.New("target URL is required")

// ValidateTargetURL accepts absolute http(s) URLs on the OLX domain.
func ValidateTargetURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrMissingTargetURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL format: scheme must be http or https")
	}
	host := strings.ToLower(u.Hostname())
	if host != olxDomain && !strings.HasSuffix(host, "."+olxDomain) {
		return fmt.Errorf("URL must be on the %s domain, got %q", olxDomain, host)
	}
	return nil
}

// WithSorting adds the sort order to a search URL that has none. An empty
// order or an already sorted URL is returned unchanged.
func WithSorting(raw, order string) (string, error) {
	if order == "" || strings.Contains(raw, sortParam) || strings.Contains(raw, sortEscape) {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, fmt.Errorf("add sorting: %w", err)
	}
	q := u.Query()
	q.Set(sortParam, order)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
