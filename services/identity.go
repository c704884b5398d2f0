package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	// trailingIDRegexp captures "-<digits>" at the end of a URL, optionally
	// followed by a slash and/or a query string.
	trailingIDRegexp = regexp.MustCompile(`-(\d+)/?(?:\?.*)?$`)
	// longNumberRegexp captures any run of 6+ digits.
	longNumberRegexp = regexp.MustCompile(`(\d{6,})`)
)

const fingerprintDelimiter = "|"

// ResolveID derives a stable offer id. A non-blank existing id wins; otherwise a
// numeric id is taken from the URL; otherwise the id is a content
// fingerprint, so identical cards on different URLs share one id.
func ResolveID(existingID, url, title, price, location string) string {
	if id := strings.TrimSpace(existingID); id != "" {
		return id
	}
	if id := IDFromURL(url); id != "" {
		return id
	}
	return Fingerprint(title, price, location)
}

// IDFromURL extracts a numeric listing id from url, or "" if there is none.
func IDFromURL(url string) string {
	if m := trailingIDRegexp.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := longNumberRegexp.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// Fingerprint is the hex-encoded SHA-256 of title|price|location.
func Fingerprint(title, price, location string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{title, price, location}, fingerprintDelimiter)))
	return hex.EncodeToString(sum[:])
}
