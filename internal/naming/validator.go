// Package naming classifies ingest filenames against the naming convention
// and derives the remote object key for a local path.
//
// A conforming base name has four dash-separated fields:
//
//	<sequence>-<stage>-<section>-<subject>
//
// sequence is 1-5 decimal digits, stage is 1-5 or "prep", section is one or
// more word characters and subject is one of math, english or urdu. The
// provisional token "null" may stand in for any field; such names are not
// final yet and classify as DelayRequired.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel marks a field whose value is not final yet.
const Sentinel = "null"

var pattern = regexp.MustCompile(`^(\d{1,5}|null)-([1-5]|prep|null)-(\w+)-(math|english|urdu|null)$`)

// Classification is the result of validating a filename.
type Classification int

const (
	Invalid Classification = iota
	Valid
	DelayRequired
)

func (c Classification) String() string {
	switch c {
	case Valid:
		return "valid"
	case DelayRequired:
		return "delay-required"
	default:
		return "invalid"
	}
}

// FilenameKey is a base name decomposed into its ordered fields.
type FilenameKey struct {
	Sequence string
	Stage    string
	Section  string
	Subject  string
}

// Fields returns the fields in order.
func (k FilenameKey) Fields() []string {
	return []string{k.Sequence, k.Stage, k.Section, k.Subject}
}

// Provisional reports whether any field holds the sentinel.
func (k FilenameKey) Provisional() bool {
	for _, f := range k.Fields() {
		if f == Sentinel {
			return true
		}
	}
	return false
}

func (k FilenameKey) String() string {
	return strings.Join(k.Fields(), "-")
}

// BaseName strips the directory and the final extension from a path.
func BaseName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse decomposes the base name of filename. ok is false when the name does
// not have the expected structure.
func Parse(filename string) (key FilenameKey, ok bool) {
	m := pattern.FindStringSubmatch(BaseName(filename))
	if m == nil {
		return FilenameKey{}, false
	}
	return FilenameKey{Sequence: m[1], Stage: m[2], Section: m[3], Subject: m[4]}, true
}

// Classify validates filename. It has no side effects.
func Classify(filename string) Classification {
	key, ok := Parse(filename)
	switch {
	case !ok:
		return Invalid
	case key.Provisional():
		return DelayRequired
	default:
		return Valid
	}
}
