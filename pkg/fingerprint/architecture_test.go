package fingerprint

import (
	"strings"
	"testing"

	"rostercore/testutil"
)

// The fingerprint engine is a leaf library: no domain types, no internal
// packages, no third-party dependencies.
func TestFingerprintHasNoUpwardDependencies(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DomainImportForbidden,
		"fingerprint must not know about domain entities")
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"fingerprint must not reach into internal packages")
}

func TestFingerprintIsStdlibOnly(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", func(path string) bool {
		root := strings.SplitN(path, "/", 2)[0]
		return strings.Contains(root, ".")
	}, "fingerprint carries no third-party dependencies")
}
