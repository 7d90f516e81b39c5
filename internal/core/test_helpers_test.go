package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"exhibitcore/internal/infra/persistence/memory"
	"exhibitcore/pkg/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("exh-%d", n)
	}
}

func validForm(station string) domain.ExhibitForm {
	return domain.ExhibitForm{
		DateReceived:         domain.MustParseDate("2025-03-14"),
		ReceivingOfficer:     "PC Wanjiru",
		Examiner:             "Dr. Achieng",
		InvestigatingOfficer: "Insp. Mwangi",
		Station:              station,
		AccusedPerson:        "John Doe",
		Description:          "Samsung Galaxy A14, cracked screen",
	}
}

// newTestService returns a service over an in-memory gateway with a fixed
// clock at 2025-03-14 09:00 UTC and ids exh-1, exh-2, ...
func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Store, *testClock) {
	t.Helper()
	store := memory.NewStore()
	clock := newTestClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	base := []ServiceOption{WithClock(clock), WithIDGenerator(sequentialIDs())}
	return NewService(store, append(base, opts...)...), store, clock
}

func mustCreate(t *testing.T, svc *Service, station string) domain.Exhibit {
	t.Helper()
	e, err := svc.Create(context.Background(), validForm(station))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return e
}

func mustLoad(t *testing.T, store domain.Gateway) []domain.Exhibit {
	t.Helper()
	exhibits, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return exhibits
}

func ptr[T any](v T) *T { return &v }

// failingGateway fails loads or saves on demand.
type failingGateway struct {
	domain.Gateway
	loadErr error
	saveErr error
}

func (g failingGateway) LoadAll(ctx context.Context) ([]domain.Exhibit, error) {
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	return g.Gateway.LoadAll(ctx)
}

func (g failingGateway) SaveAll(ctx context.Context, exhibits []domain.Exhibit) error {
	if g.saveErr != nil {
		return g.saveErr
	}
	return g.Gateway.SaveAll(ctx, exhibits)
}

var errBackendDown = errors.New("backend down")
