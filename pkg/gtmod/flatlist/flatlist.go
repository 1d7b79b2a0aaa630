// Package flatlist builds the manifest files consumed by the vendor
// archiver. A flatlist names every asset staged for one archive together
// with its declared type:
//
//	i_unflat:unflat()
//	{
//	    smoke_01	, texture	, loc_def ;
//	}
//
// Fields are tab-delimited. The grammar offers no escaping, so names
// containing delimiter characters are rejected outright instead of producing
// a malformed manifest.
package flatlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Type is the asset type vocabulary understood by mkflat.
type Type string

// Known flatlist asset types.
const (
	TypeTexture Type = "texture"
	TypeSound   Type = "sound"
)

// Extension is the filename suffix of flatlist files.
const Extension = ".!flatlist"

// soundSuffix is the compound extension of prepared game sound files.
const soundSuffix = ".loc_def.sound"

// ErrUnsafeName indicates a logical name containing flatlist delimiter
// characters.
var ErrUnsafeName = errors.New("logical name contains flatlist delimiter characters")

// ErrNoEntries indicates an attempt to build an empty manifest.
var ErrNoEntries = errors.New("flatlist requires at least one entry")

// Entry is one asset line in the manifest.
type Entry struct {
	// Name is the asset's logical name, without game extensions.
	Name string

	// Type is the declared asset type.
	Type Type
}

// LogicalName derives the manifest entry name from a staged filename. Known
// compound suffixes are stripped first; otherwise the plain extension goes.
func LogicalName(filename string) string {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, soundSuffix) {
		return filename[:len(filename)-len(soundSuffix)]
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ValidateName rejects names the flatlist grammar cannot represent.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnsafeName)
	}
	if strings.ContainsAny(name, ",\t;{}\n\r") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}

// Build renders the manifest text for the given entries. Entry order is
// preserved; identical input yields byte-identical output.
func Build(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoEntries
	}

	var b strings.Builder
	b.WriteString("i_unflat:unflat()\n{\n")
	for _, e := range entries {
		if err := ValidateName(e.Name); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %s\t, %s\t, loc_def ;\n", e.Name, e.Type)
	}
	b.WriteString("}\n")
	return b.String(), nil
}
