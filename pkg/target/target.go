// Package target classifies user-supplied analysis targets. The checks are
// format-only and meant for fast feedback; the analysis backend remains the
// authority on whether a target is real.
package target

import (
	"regexp"
	"strconv"
	"strings"

	"ipinsight/pkg/domain"
)

// Type is the outcome of Classify.
type Type string

const (
	IPv4    Type = "ipv4"
	IPv6    Type = "ipv6"
	Domain  Type = "domain"
	Invalid Type = "invalid"
)

// DisplayType collapses IPv4 and IPv6 into a single "ip" category.
type DisplayType string

const (
	DisplayIP      DisplayType = "ip"
	DisplayDomain  DisplayType = "domain"
	DisplayUnknown DisplayType = "unknown"
)

// MaxLength is the longest accepted target.
const MaxLength = 253

var (
	ipv4Re   = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Re   = regexp.MustCompile(`^([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}$`)
	domainRe = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,63}$`)
)

// Classify returns the type of the trimmed text. IPv4 is tested first, then
// IPv6, then domain; the first match wins.
func Classify(text string) Type {
	s := strings.TrimSpace(text)

	switch {
	case isIPv4(s):
		return IPv4
	case ipv6Re.MatchString(s):
		return IPv6
	case isDomain(s):
		return Domain
	default:
		return Invalid
	}
}

// Display returns the display category of text. It is derived from Classify
// so both agree on what counts as an IP.
func Display(text string) DisplayType {
	switch Classify(text) {
	case IPv4, IPv6:
		return DisplayIP
	case Domain:
		return DisplayDomain
	default:
		return DisplayUnknown
	}
}

// TargetType converts a valid classification to the domain target type. It
// reports false for Invalid.
func (t Type) TargetType() (domain.TargetType, bool) {
	switch t {
	case IPv4:
		return domain.TargetIPv4, true
	case IPv6:
		return domain.TargetIPv6, true
	case Domain:
		return domain.TargetDomain, true
	default:
		return "", false
	}
}

// Validation is the user-facing verdict on an input.
type Validation struct {
	Valid   bool        `json:"valid"`
	Message string      `json:"message"`
	Type    Type        `json:"type"`
	Display DisplayType `json:"display"`
}

// Validate checks an input and explains the verdict.
func Validate(text string) Validation {
	s := strings.TrimSpace(text)

	if s == "" {
		return Validation{Message: "enter an IP address or domain", Type: Invalid, Display: DisplayUnknown}
	}
	if len(s) > MaxLength {
		return Validation{Message: "input is too long", Type: Invalid, Display: DisplayUnknown}
	}

	t := Classify(s)
	v := Validation{Valid: t != Invalid, Type: t, Display: Display(s)}

	switch t {
	case IPv4:
		v.Message = "valid IPv4 address"
	case IPv6:
		v.Message = "valid IPv6 address"
	case Domain:
		v.Message = "valid domain"
	default:
		v.Message = "invalid format, enter an IP (e.g. 8.8.8.8) or a domain (e.g. google.com)"
	}

	return v
}

func isIPv4(s string) bool {
	if !ipv4Re.MatchString(s) {
		return false
	}

	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 || strconv.Itoa(n) != part {
			return false
		}
	}

	return true
}

func isDomain(s string) bool {
	return len(s) <= MaxLength && domainRe.MatchString(s)
}
