package domain

import (
	"testing"

	"exhibitcore/testutil"
)

func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"the domain package is shared by every layer")
}
