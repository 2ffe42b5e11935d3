// Package username decodes the SOCKS5 username field into a bare user and
// an optional OS fingerprint selector.
//
// A username is either a bare string, or a string followed by the literal
// separator "-fingerprint-" and a case-insensitive tag drawn from the
// closed fingerprint set in package fingerprint.
package username

import (
	"fmt"
	"strings"

	"github.com/sanverite/cellroute/internal/fingerprint"
)

const separator = "-fingerprint-"

// ParseError is returned when the fingerprint suffix does not name a known
// tag. It carries the offending tag so callers can log or reject precisely.
type ParseError struct {
	Tag string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid fingerprint value: %s", e.Tag)
}

// Parse splits raw into a user and a fingerprint. If raw contains no
// "-fingerprint-" separator, the whole string is the user and def is
// returned unchanged. Otherwise everything before the first occurrence of
// the separator is the user (original case preserved) and everything after
// it is lowercased and looked up in the fingerprint set; an unknown tag
// yields a *ParseError.
func Parse(raw string, def fingerprint.Profile) (user string, fp fingerprint.Profile, err error) {
	idx := strings.Index(raw, separator)
	if idx < 0 {
		return raw, def, nil
	}

	user = raw[:idx]
	tag := strings.ToLower(raw[idx+len(separator):])
	fp, err = fingerprint.Lookup(tag)
	if err != nil {
		return "", fingerprint.Profile{}, &ParseError{Tag: tag}
	}
	return user, fp, nil
}
