// Dependency boundary test keeping the sqlite adapter thin: domain contracts,
// the composed in-memory store, and the DDL bundle only.
package sqlite

import (
	"strings"
	"testing"

	"rostercore/testutil"
)

func TestSQLiteAdapterDependencies(t *testing.T) {
	allowed := map[string]bool{
		"rostercore/pkg/domain":                        true,
		"rostercore/internal/infra/persistence/memory": true,
		"rostercore/internal/entitymodel/sqlbundle":    true,
	}
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "rostercore/") && !allowed[path]
	}, "sqlite adapter stays a thin snapshot layer")
}
