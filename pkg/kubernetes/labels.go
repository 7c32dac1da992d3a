package kubernetes

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"strings"
	"time"
)

const (
	// MaxLabelValueLength is the maximum length of a label value accepted by the API server.
	MaxLabelValueLength = 63

	// labelHashLength is the number of hex characters of the digest appended to altered values.
	// Changing it changes every label value already attached to running pods.
	labelHashLength = 9

	isoLayout       = "2006-01-02T15:04:05-07:00"
	isoLayoutMicros = "2006-01-02T15:04:05.000000-07:00"
)

var labelTimeReplacer = strings.NewReplacer(":", "_", "+", "_plus_")

// SafeLabelValue converts any string into a valid label value.
//
// Leading and trailing non-alphanumeric characters are removed, as well as any character
// that is not allowed in a label value. When the value had to be altered, or is too long,
// the first 9 characters of the MD5 digest of the original string are appended, so two
// different strings that sanitize to the same value still produce different labels.
// The digest always survives truncation.
func SafeLabelValue(value string) string {
	safe := strings.TrimFunc(value, func(r rune) bool { return !isAlphanumericRune(r) })
	safe = strings.Map(func(r rune) rune {
		if isAlphanumericRune(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return -1
	}, safe)

	if len(safe) <= MaxLabelValueLength && safe == value {
		return safe
	}

	sum := md5.Sum([]byte(value)) //nolint:gosec
	hash := hex.EncodeToString(sum[:])[:labelHashLength]

	maxPrefix := MaxLabelValueLength - labelHashLength - 1
	if len(safe) > maxPrefix {
		safe = safe[:maxPrefix]
	}
	if safe == "" {
		return hash
	}
	return safe + "-" + hash
}

// IsoFormat renders a timestamp as ISO 8601 with a numeric UTC offset.
// Microseconds are only printed when they are not zero.
func IsoFormat(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(isoLayoutMicros)
	}
	return t.Format(isoLayout)
}

// LabelSafeTime converts a timestamp into a string usable as a label value:
// ':' becomes '_' and '+' becomes '_plus_'.
func LabelSafeTime(t time.Time) string {
	return labelTimeReplacer.Replace(IsoFormat(t))
}

func isAlphanumericRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
