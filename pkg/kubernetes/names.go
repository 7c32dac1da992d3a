package kubernetes

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/rand"
)

// NameClass selects the length budget applied to a generated resource name.
type NameClass int

const (
	// LabelName is for names that must also be usable as label values (pod names, 63 chars).
	LabelName NameClass = iota
	// SubdomainName is for names that only need to be DNS-1123 subdomains (253 chars).
	SubdomainName
)

const (
	labelNameMaxLength     = 63
	subdomainNameMaxLength = 253
	randomSuffixLength     = 8
)

// MaxLength returns the total length budget of the class, suffix included.
func (c NameClass) MaxLength() int {
	if c == SubdomainName {
		return subdomainNameMaxLength
	}
	return labelNameMaxLength
}

// prefixLength is the room left for the sanitized identifier once "-" and the suffix are reserved.
func (c NameClass) prefixLength() int {
	return c.MaxLength() - randomSuffixLength - 1
}

// UniquePodName generates a unique pod name with random characters.
// The identifier is kept as the prefix of the name when it is already valid.
func UniquePodName(identifier string) string {
	return UniqueName(identifier, LabelName)
}

// UniqueName turns an arbitrary identifier into a valid Kubernetes resource name that is
// unique per call: the sanitized identifier, truncated to the class budget, followed by a
// dash and 8 random lowercase alphanumeric characters.
//
// The suffix only protects concurrent constructions of the same identifier from colliding.
// With 8 characters the collision probability is low but not zero.
func UniqueName(identifier string, class NameClass) string {
	base := sanitizeName(identifier)
	if len(base) > class.prefixLength() {
		base = base[:class.prefixLength()]
	}
	base = strings.Trim(base, "-.")

	suffix := rand.String(randomSuffixLength)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// sanitizeName lowercases the identifier and replaces every character that can't appear in
// a DNS-1123 subdomain with a dash. Dots are only kept between two alphanumerics so each
// dot-separated segment starts and ends with an alphanumeric character.
func sanitizeName(identifier string) string {
	lower := strings.ToLower(identifier)
	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		switch {
		case isAlphanumeric(c), c == '-':
			out[i] = c
		case c == '.':
			out[i] = '.'
		default:
			out[i] = '-'
		}
	}

	for i, c := range out {
		if c != '.' {
			continue
		}
		if i == 0 || i == len(out)-1 || !isAlphanumeric(lower[i-1]) || !isAlphanumeric(lower[i+1]) {
			out[i] = '-'
		}
	}
	return string(out)
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
