package headless

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// fallbackProtocolVersion is used when no PROTOCOL_VERSION file is
// found and no override is set.
const fallbackProtocolVersion = "0.1.0"

// Compat classifies how two protocol versions relate.
type Compat int

const (
	// CompatExact means all three components match.
	CompatExact Compat = iota
	// CompatPatch means only the patch component differs.
	CompatPatch
	// CompatMinor means the minor component differs. Compatible, but
	// worth a debug note.
	CompatMinor
	// CompatIncompatible means the major component differs.
	CompatIncompatible
)

// OwnVersion resolves the worker's protocol version: the
// HEDDLE_PROTOCOL_VERSION environment variable wins, then a
// PROTOCOL_VERSION file next to the working directory or the binary,
// then the built-in fallback.
func OwnVersion() string {
	if v := strings.TrimSpace(os.Getenv("HEDDLE_PROTOCOL_VERSION")); v != "" {
		return v
	}
	for _, path := range versionFilePaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	return fallbackProtocolVersion
}

func versionFilePaths() []string {
	paths := []string{"PROTOCOL_VERSION"}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "PROTOCOL_VERSION"))
	}
	return paths
}

// CheckCompat compares two semver strings component-wise. A parse
// failure on either side counts as incompatible.
func CheckCompat(ours, theirs string) Compat {
	a, err := semver.NewVersion(ours)
	if err != nil {
		return CompatIncompatible
	}
	b, err := semver.NewVersion(theirs)
	if err != nil {
		return CompatIncompatible
	}
	switch {
	case a.Major() != b.Major():
		return CompatIncompatible
	case a.Minor() != b.Minor():
		return CompatMinor
	case a.Patch() != b.Patch():
		return CompatPatch
	}
	return CompatExact
}
