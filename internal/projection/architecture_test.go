package projection

import (
	"testing"

	"exhibitcore/testutil"
)

func TestNoStorageOrTransportImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.InfraImportForbidden, testutil.TransportImportForbidden),
		"projection works on in-memory exhibits only")
}
