// Package version carries build identity shared by the CLI and the session
// journal.
package version

// Version is the heddle release version.
const Version = "0.1.0"
