package common

import (
	"fmt"
	"strings"
)

// Version is set via ldflags at build time: -ldflags "-X github.com/Alia5/sharedcodecs/internal/codegen/common.Version=x.y.z"
var Version = ""

// GetVersion returns the version string that was set at build time via ldflags.
// Returns "0.0.1-dev" if Version is empty (development builds only).
func GetVersion() (string, error) {
	if Version == "" {
		return "0.0.1-dev", nil
	}

	version := strings.TrimPrefix(Version, "v")
	baseVersion := strings.SplitN(version, "-", 2)[0]
	if !strings.Contains(baseVersion, ".") {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}

	return version, nil
}

// GeneratedHeader is the first line of every emitted Go file, in the form
// recognised by go vet and editors as generated code.
func GeneratedHeader() (string, error) {
	version, err := GetVersion()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("// Code generated by sharedcodecs %s. DO NOT EDIT.", version), nil
}
