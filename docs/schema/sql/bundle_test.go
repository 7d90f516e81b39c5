package sqldocs

import (
	"strings"
	"testing"
)

func TestBundlesDefineStateTable(t *testing.T) {
	for name, ddl := range map[string]string{"sqlite": SQLite, "postgres": Postgres} {
		upper := strings.ToUpper(ddl)
		if !strings.Contains(upper, "CREATE TABLE IF NOT EXISTS STATE") {
			t.Errorf("%s bundle missing state table", name)
		}
		if !strings.Contains(upper, "BUCKET TEXT PRIMARY KEY") {
			t.Errorf("%s bundle missing bucket key", name)
		}
	}
	if !strings.Contains(Postgres, "JSONB") {
		t.Error("postgres payload should be JSONB")
	}
}
