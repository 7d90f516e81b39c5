// Package core implements the exhibit lifecycle: intake, updates,
// exploitation and collection, deletion, bulk import and export, queries and
// statistics. Every mutation loads the whole collection, changes a copy,
// runs the rules engine and saves the whole collection back.
package core

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"exhibitcore/internal/projection"
	"exhibitcore/internal/transfer"
	"exhibitcore/pkg/domain"
)

// Service is the exhibit register. It is safe for concurrent use; mutations
// are serialised within the process.
type Service struct {
	gateway  domain.Gateway
	engine   *domain.RulesEngine
	mu       sync.Mutex
	clock    Clock
	location *time.Location
	newID    func() string
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
}

// NewService constructs a service persisting through gateway.
func NewService(gateway domain.Gateway, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		gateway:  gateway,
		engine:   o.engine,
		clock:    o.clock,
		location: o.location,
		newID:    o.newID,
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
		audit:    o.audit,
	}
}

// RulesEngine exposes the active engine so callers can register extra rules.
func (s *Service) RulesEngine() *domain.RulesEngine { return s.engine }

type operation struct {
	name   string
	action domain.Action
}

var (
	opCreate  = operation{"create_exhibit", domain.ActionCreate}
	opUpdate  = operation{"update_exhibit", domain.ActionUpdate}
	opExploit = operation{"exploit_exhibit", domain.ActionUpdate}
	opCollect = operation{"collect_exhibit", domain.ActionCollect}
	opDelete  = operation{"delete_exhibit", domain.ActionDelete}
	opImport  = operation{"import_exhibits", domain.ActionImport}
	opGet     = operation{"get_exhibit", domain.ActionRead}
	opList    = operation{"list_exhibits", domain.ActionRead}
	opQuery   = operation{"query_exhibits", domain.ActionRead}
	opStats   = operation{"exhibit_statistics", domain.ActionRead}
	opExport  = operation{"export_exhibits", domain.ActionExport}
)

// subject names the exhibit an operation touched, for the audit trail.
type subject struct {
	id     string
	serial string
}

func subjectOf(e domain.Exhibit) subject {
	return subject{id: e.ID, serial: e.SerialNumber}
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// run wraps fn with tracing, metrics, logging and an audit entry.
func (s *Service) run(ctx context.Context, op operation, fn func(context.Context) (subject, error)) error {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op.name)
	subj, err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op.name, err == nil, duration)

	entry := AuditEntry{
		Operation:    op.name,
		Action:       op.action,
		EntityID:     subj.id,
		SerialNumber: subj.serial,
		Status:       AuditStatusSuccess,
		Duration:     duration,
		Timestamp:    s.now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logFailure(op, subj, err)
	} else if op.action == domain.ActionRead {
		s.logger.Debug("exhibit operation completed", "operation", op.name, "id", subj.id, "duration", duration)
	} else {
		s.logger.Info("exhibit operation completed", "operation", op.name, "id", subj.id, "serial", subj.serial, "duration", duration)
	}
	s.audit.Record(ctx, entry)
	return err
}

func (s *Service) logFailure(op operation, subj subject, err error) {
	var (
		persistErr domain.PersistenceError
		ruleErr    domain.RuleViolationError
	)
	switch {
	case errors.As(err, &persistErr):
		s.logger.Error("exhibit operation failed", "operation", op.name, "id", subj.id, "error", err)
	case errors.As(err, &ruleErr):
		s.logger.Warn("exhibit operation blocked", "operation", op.name, "id", subj.id, "error", err)
	default:
		s.logger.Debug("exhibit operation rejected", "operation", op.name, "id", subj.id, "error", err)
	}
}

func (s *Service) load(ctx context.Context) ([]domain.Exhibit, error) {
	exhibits, err := s.gateway.LoadAll(ctx)
	if err != nil {
		return nil, domain.PersistenceError{Op: "load", Err: err}
	}
	if exhibits == nil {
		exhibits = []domain.Exhibit{}
	}
	return exhibits, nil
}

// mutation edits a private copy of the collection and reports what changed.
// Returning no changes skips the save.
type mutation func(exhibits []domain.Exhibit) ([]domain.Exhibit, []domain.Change, error)

// mutate runs fn under the service lock. Nothing is saved when fn fails or a
// blocking rule fires.
func (s *Service) mutate(ctx context.Context, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, changes, err := fn(domain.CloneExhibits(current))
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	res, err := s.engine.Evaluate(ctx, domain.NewCollectionView(next), changes)
	if err != nil {
		return err
	}
	for _, v := range res.Violations {
		switch v.Severity {
		case domain.SeverityWarn:
			s.logger.Warn("rule warning", "rule", v.Rule, "id", v.EntityID, "message", v.Message)
		case domain.SeverityLog:
			s.logger.Info("rule notice", "rule", v.Rule, "id", v.EntityID, "message", v.Message)
		}
	}
	if res.HasBlocking() {
		return domain.RuleViolationError{Result: res}
	}
	if err := s.gateway.SaveAll(ctx, next); err != nil {
		return domain.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Create records a new exhibit from the intake form. The serial number is
// always allocated here; remarks start Unexploited and the exhibit is Not
// Collected.
func (s *Service) Create(ctx context.Context, form domain.ExhibitForm) (domain.Exhibit, error) {
	var created domain.Exhibit
	err := s.run(ctx, opCreate, func(ctx context.Context) (subject, error) {
		form = form.Normalize()
		if err := form.Validate(); err != nil {
			return subject{}, err
		}
		err := s.mutate(ctx, func(exhibits []domain.Exhibit) ([]domain.Exhibit, []domain.Change, error) {
			now := s.now()
			serial, err := domain.NextSerial(exhibits, now.In(s.location))
			if err != nil {
				return nil, nil, err
			}
			e := domain.Exhibit{
				ID:                   s.newID(),
				SerialNumber:         serial,
				DateReceived:         form.DateReceived,
				ReceivingOfficer:     form.ReceivingOfficer,
				Examiner:             form.Examiner,
				InvestigatingOfficer: form.InvestigatingOfficer,
				Station:              form.Station,
				AccusedPerson:        form.AccusedPerson,
				Description:          form.Description,
				Remarks:              domain.RemarksUnexploited,
				CollectionStatus:     domain.StatusNotCollected,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			created = e
			after := e.Clone()
			return append(exhibits, e), []domain.Change{{Action: domain.ActionCreate, After: &after}}, nil
		})
		return subjectOf(created), err
	})
	if err != nil {
		return domain.Exhibit{}, err
	}
	return created, nil
}

// Get returns the exhibit with id.
func (s *Service) Get(ctx context.Context, id string) (domain.Exhibit, error) {
	var found domain.Exhibit
	err := s.run(ctx, opGet, func(ctx context.Context) (subject, error) {
		exhibits, err := s.load(ctx)
		if err != nil {
			return subject{id: id}, err
		}
		i := domain.IndexOf(exhibits, id)
		if i < 0 {
			return subject{id: id}, domain.NotFoundError{ID: id}
		}
		found = exhibits[i].Clone()
		return subjectOf(found), nil
	})
	if err != nil {
		return domain.Exhibit{}, err
	}
	return found, nil
}

// List returns the stored collection in storage order.
func (s *Service) List(ctx context.Context) ([]domain.Exhibit, error) {
	var out []domain.Exhibit
	err := s.run(ctx, opList, func(ctx context.Context) (subject, error) {
		exhibits, err := s.load(ctx)
		if err != nil {
			return subject{}, err
		}
		out = domain.CloneExhibits(exhibits)
		return subject{}, nil
	})
	return out, err
}

// Query returns the filtered and sorted projection of the collection.
func (s *Service) Query(ctx context.Context, q projection.Query) ([]domain.Exhibit, error) {
	var out []domain.Exhibit
	err := s.run(ctx, opQuery, func(ctx context.Context) (subject, error) {
		exhibits, err := s.load(ctx)
		if err != nil {
			return subject{}, err
		}
		out = projection.Apply(exhibits, q)
		return subject{}, nil
	})
	return out, err
}

// Statistics summarises the stored collection.
func (s *Service) Statistics(ctx context.Context) (projection.Stats, error) {
	var stats projection.Stats
	err := s.run(ctx, opStats, func(ctx context.Context) (subject, error) {
		exhibits, err := s.load(ctx)
		if err != nil {
			return subject{}, err
		}
		stats = projection.Summarize(exhibits)
		return subject{}, nil
	})
	return stats, err
}

// Update applies patch to the exhibit with id and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, patch domain.ExhibitPatch) (domain.Exhibit, error) {
	return s.update(ctx, opUpdate, id, patch)
}

// MarkExploited records that forensic examination took place.
func (s *Service) MarkExploited(ctx context.Context, id string) (domain.Exhibit, error) {
	exploited := domain.RemarksExploited
	return s.update(ctx, opExploit, id, domain.ExhibitPatch{Remarks: &exploited})
}

func (s *Service) update(ctx context.Context, op operation, id string, patch domain.ExhibitPatch) (domain.Exhibit, error) {
	var updated domain.Exhibit
	err := s.run(ctx, op, func(ctx context.Context) (subject, error) {
		subj := subject{id: id}
		err := s.mutate(ctx, func(exhibits []domain.Exhibit) ([]domain.Exhibit, []domain.Change, error) {
			i := domain.IndexOf(exhibits, id)
			if i < 0 {
				return nil, nil, domain.NotFoundError{ID: id}
			}
			before := exhibits[i].Clone()
			subj = subjectOf(before)
			next, err := patch.Apply(before)
			if err != nil {
				return nil, nil, err
			}
			next.UpdatedAt = s.now()
			exhibits[i] = next
			updated = next
			after := next.Clone()
			return exhibits, []domain.Change{{Action: domain.ActionUpdate, Before: &before, After: &after}}, nil
		})
		return subj, err
	})
	if err != nil {
		return domain.Exhibit{}, err
	}
	return updated, nil
}

// MarkCollected records that the submitting party took the exhibit back.
// The unexploitation reason is kept only for exhibits that were never
// examined.
func (s *Service) MarkCollected(ctx context.Context, id string, data domain.CollectionData) (domain.Exhibit, error) {
	var collected domain.Exhibit
	err := s.run(ctx, opCollect, func(ctx context.Context) (subject, error) {
		subj := subject{id: id}
		data = data.Normalize()
		err := s.mutate(ctx, func(exhibits []domain.Exhibit) ([]domain.Exhibit, []domain.Change, error) {
			i := domain.IndexOf(exhibits, id)
			if i < 0 {
				return nil, nil, domain.NotFoundError{ID: id}
			}
			before := exhibits[i].Clone()
			subj = subjectOf(before)
			if before.IsCollected() {
				return nil, nil, domain.AlreadyCollectedError{ID: id, SerialNumber: before.SerialNumber}
			}
			if err := data.Validate(before.Remarks); err != nil {
				return nil, nil, err
			}
			next := before.Clone()
			date := data.CollectionDate
			by := data.CollectedBy
			next.CollectionStatus = domain.StatusCollected
			next.CollectionDate = &date
			next.CollectedBy = &by
			next.UnexploitationReason = nil
			if next.Remarks == domain.RemarksUnexploited && data.UnexploitationReason != nil {
				reason := *data.UnexploitationReason
				next.UnexploitationReason = &reason
			}
			next.UpdatedAt = s.now()
			exhibits[i] = next
			collected = next
			after := next.Clone()
			return exhibits, []domain.Change{{Action: domain.ActionCollect, Before: &before, After: &after}}, nil
		})
		return subj, err
	})
	if err != nil {
		return domain.Exhibit{}, err
	}
	return collected, nil
}

// Delete removes the exhibit with id and reports whether it existed.
// Deleting a missing exhibit succeeds without touching storage.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool
	err := s.run(ctx, opDelete, func(ctx context.Context) (subject, error) {
		subj := subject{id: id}
		err := s.mutate(ctx, func(exhibits []domain.Exhibit) ([]domain.Exhibit, []domain.Change, error) {
			i := domain.IndexOf(exhibits, id)
			if i < 0 {
				return exhibits, nil, nil
			}
			before := exhibits[i].Clone()
			subj = subjectOf(before)
			existed = true
			return append(exhibits[:i], exhibits[i+1:]...), []domain.Change{{Action: domain.ActionDelete, Before: &before}}, nil
		})
		return subj, err
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// Export writes the stored collection to w in the portable file format.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	return s.run(ctx, opExport, func(ctx context.Context) (subject, error) {
		exhibits, err := s.load(ctx)
		if err != nil {
			return subject{}, err
		}
		return subject{}, transfer.Encode(w, exhibits)
	})
}

// Import replaces the whole collection with the exhibits read from r. The
// stored collection is untouched unless the payload is valid and every
// blocking rule passes.
func (s *Service) Import(ctx context.Context, r io.Reader) ([]domain.Exhibit, error) {
	var imported []domain.Exhibit
	err := s.run(ctx, opImport, func(ctx context.Context) (subject, error) {
		incoming, err := transfer.Decode(r)
		if err != nil {
			return subject{}, err
		}
		err = s.mutate(ctx, func([]domain.Exhibit) ([]domain.Exhibit, []domain.Change, error) {
			changes := make([]domain.Change, 0, len(incoming))
			for i := range incoming {
				after := incoming[i].Clone()
				changes = append(changes, domain.Change{Action: domain.ActionImport, After: &after})
			}
			if len(changes) == 0 {
				// an empty import still replaces the collection
				changes = append(changes, domain.Change{Action: domain.ActionImport})
			}
			return domain.CloneExhibits(incoming), changes, nil
		})
		if err != nil {
			return subject{}, err
		}
		imported = domain.CloneExhibits(incoming)
		return subject{}, nil
	})
	if err != nil {
		return nil, err
	}
	return imported, nil
}
