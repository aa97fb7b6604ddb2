// Package gridbalancer provides the version information for gridbalancer.
package gridbalancer

// Version is the current version of gridbalancer.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
