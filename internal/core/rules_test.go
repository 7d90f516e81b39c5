package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"exhibitcore/pkg/domain"
)

func exhibitFixture(id, serial string) domain.Exhibit {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return domain.Exhibit{ID: id, SerialNumber: serial, DateReceived: domain.MustParseDate("2025-03-01"), Remarks: domain.RemarksUnexploited, CollectionStatus: domain.StatusNotCollected, CreatedAt: created, UpdatedAt: created}
}

func evaluate(t *testing.T, rule domain.Rule, exhibits []domain.Exhibit, changes ...domain.Change) domain.Result {
	t.Helper()
	res, err := rule.Evaluate(context.Background(), domain.NewCollectionView(exhibits), changes)
	if err != nil {
		t.Fatalf("evaluate %s: %v", rule.Name(), err)
	}
	return res
}

func TestLifecycleTransitionRule(t *testing.T) {
	rule := LifecycleTransitionRule()
	if rule.Name() != "lifecycle_transition" {
		t.Fatalf("unexpected name %s", rule.Name())
	}
	before := exhibitFixture("a", "001-03-2025")
	before.Remarks = domain.RemarksExploited
	before.CollectionStatus = domain.StatusCollected
	before.CollectionDate = ptr(domain.MustParseDate("2025-03-10"))
	before.CollectedBy = ptr("Sgt. Otieno")

	reverted := before.Clone()
	reverted.Remarks = domain.RemarksUnexploited
	reverted.CollectionStatus = domain.StatusNotCollected
	reverted.CollectionDate = nil
	reverted.CollectedBy = nil
	reverted.CreatedAt = before.CreatedAt.Add(time.Hour)

	res := evaluate(t, rule, []domain.Exhibit{reverted}, domain.Change{Action: domain.ActionUpdate, Before: &before, After: &reverted})
	if len(res.Violations) != 3 || !res.HasBlocking() {
		t.Fatalf("expected remarks, status and createdAt violations, got %+v", res.Violations)
	}
}

func TestLifecycleTransitionCollectionConsistency(t *testing.T) {
	rule := LifecycleTransitionRule()
	half := exhibitFixture("a", "001-03-2025")
	half.CollectionStatus = domain.StatusCollected
	half.CollectedBy = ptr("A")

	res := evaluate(t, rule, []domain.Exhibit{half}, domain.Change{Action: domain.ActionCollect, After: &half})
	if !res.HasBlocking() || !strings.Contains(res.Violations[0].Message, "without a collection date") {
		t.Fatalf("expected blocking mismatch, got %+v", res.Violations)
	}
	res = evaluate(t, rule, []domain.Exhibit{half}, domain.Change{Action: domain.ActionImport, After: &half})
	if res.HasBlocking() || len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected import warning, got %+v", res.Violations)
	}

	stray := exhibitFixture("b", "002-03-2025")
	stray.CollectedBy = ptr("A")
	if res := evaluate(t, rule, nil, domain.Change{Action: domain.ActionUpdate, After: &stray}); !res.HasBlocking() {
		t.Fatalf("expected collection details on uncollected exhibit to block")
	}

	exploitedWithReason := exhibitFixture("c", "003-03-2025")
	exploitedWithReason.Remarks = domain.RemarksExploited
	exploitedWithReason.UnexploitationReason = ptr(domain.ReasonCaseClosed)
	if res := evaluate(t, rule, nil, domain.Change{Action: domain.ActionUpdate, After: &exploitedWithReason}); !res.HasBlocking() {
		t.Fatalf("expected reason on exploited exhibit to block")
	}

	fine := exhibitFixture("d", "004-03-2025")
	if res := evaluate(t, rule, nil, domain.Change{Action: domain.ActionCreate, After: &fine}, domain.Change{Action: domain.ActionDelete, Before: &fine}); len(res.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", res.Violations)
	}
}

func TestLifecycleTransitionWarnsOnInheritedMismatch(t *testing.T) {
	rule := LifecycleTransitionRule()
	legacy := exhibitFixture("a", "001-01-2025")
	legacy.CollectionStatus = domain.StatusCollected
	edited := legacy.Clone()
	edited.Station = "North"

	res := evaluate(t, rule, []domain.Exhibit{edited}, domain.Change{Action: domain.ActionUpdate, Before: &legacy, After: &edited})
	if res.HasBlocking() || len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected a carried-over mismatch to warn, got %+v", res.Violations)
	}

	clean := exhibitFixture("b", "002-01-2025")
	broken := clean.Clone()
	broken.CollectedBy = ptr("A")
	res = evaluate(t, rule, []domain.Exhibit{broken}, domain.Change{Action: domain.ActionUpdate, Before: &clean, After: &broken})
	if !res.HasBlocking() {
		t.Fatalf("expected a new mismatch to block, got %+v", res.Violations)
	}
}

func TestLifecycleTransitionBlocksUnknownEnums(t *testing.T) {
	rule := LifecycleTransitionRule()
	before := exhibitFixture("a", "001-03-2025")
	after := before.Clone()
	after.Remarks = domain.Remarks("Bogus")
	after.CollectionStatus = domain.CollectionStatus("Lost")

	res := evaluate(t, rule, []domain.Exhibit{after}, domain.Change{Action: domain.ActionUpdate, Before: &before, After: &after})
	if !res.HasBlocking() || len(res.Violations) != 2 {
		t.Fatalf("expected unknown remarks and status to block, got %+v", res.Violations)
	}
	if !strings.Contains(res.Violations[0].Message, `"Bogus"`) {
		t.Fatalf("unexpected message %q", res.Violations[0].Message)
	}
}

func TestSerialUniquenessRule(t *testing.T) {
	rule := SerialUniquenessRule()
	if rule.Name() != "serial_uniqueness" {
		t.Fatalf("unexpected name %s", rule.Name())
	}
	a := exhibitFixture("a", "001-03-2025")
	dupSerial := exhibitFixture("b", "001-03-2025")
	res := evaluate(t, rule, []domain.Exhibit{a, dupSerial}, domain.Change{Action: domain.ActionCreate, After: &dupSerial})
	if !res.HasBlocking() || !strings.Contains(res.Violations[0].Message, "001-03-2025") {
		t.Fatalf("expected duplicate serial to block, got %+v", res.Violations)
	}

	dupID := exhibitFixture("a", "002-03-2025")
	res = evaluate(t, rule, []domain.Exhibit{a, dupID}, domain.Change{Action: domain.ActionUpdate, After: &dupID})
	if !res.HasBlocking() || !strings.Contains(res.Violations[0].Message, "exhibit id a") {
		t.Fatalf("expected duplicate id to block, got %+v", res.Violations)
	}

	malformed := exhibitFixture("m", "EXH-7")
	res = evaluate(t, rule, []domain.Exhibit{malformed}, domain.Change{Action: domain.ActionCreate, After: &malformed})
	if !res.HasBlocking() {
		t.Fatalf("expected malformed created serial to block")
	}
	res = evaluate(t, rule, []domain.Exhibit{malformed}, domain.Change{Action: domain.ActionImport, After: &malformed})
	if res.HasBlocking() || len(res.Violations) != 1 {
		t.Fatalf("expected malformed imported serial to warn, got %+v", res.Violations)
	}
	res = evaluate(t, rule, []domain.Exhibit{malformed}, domain.Change{Action: domain.ActionUpdate, After: &malformed}, domain.Change{Action: domain.ActionImport})
	if len(res.Violations) != 0 {
		t.Fatalf("expected updates of legacy serials to pass, got %+v", res.Violations)
	}
}

func TestDefaultRulesEngineOrder(t *testing.T) {
	rules := NewDefaultRulesEngine().Rules()
	if len(rules) != 2 || rules[0].Name() != "lifecycle_transition" || rules[1].Name() != "serial_uniqueness" {
		t.Fatalf("unexpected default rules %v", rules)
	}
}
