package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hrcases-be/apperrors"
	"hrcases-be/metrics"
	"hrcases-be/models"
	"hrcases-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CacheInvalidator is told about every committed case write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CaseServiceDeps are the collaborators of a CaseService. Only Cases and
// History are required.
type CaseServiceDeps struct {
	Cases   store.CaseStore
	History store.HistoryStore
	Outbox  store.HistoryOutbox
	Cache   CacheInvalidator
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// EnforceUniqueCaseID rejects a case_id already used by another active case.
	EnforceUniqueCaseID bool
}

// CaseService is the only writer of case documents and journal entries.
type CaseService struct {
	cases        store.CaseStore
	history      store.HistoryStore
	outbox       store.HistoryOutbox
	cache        CacheInvalidator
	metrics      *metrics.Metrics
	logger       *zap.Logger
	uniqueCaseID bool
}

func NewCaseService(d CaseServiceDeps) *CaseService {
	s := &CaseService{
		cases:        d.Cases,
		history:      d.History,
		outbox:       d.Outbox,
		cache:        d.Cache,
		metrics:      d.Metrics,
		logger:       d.Logger,
		uniqueCaseID: d.EnforceUniqueCaseID,
	}
	if s.outbox == nil {
		s.outbox = store.NewMemoryHistoryOutbox()
	}
	if s.cache == nil {
		s.cache = NopAnalyticsCache{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CaseList is one page of List results.
type CaseList struct {
	Cases []models.Case `json:"cases"`
	Total int64         `json:"total"`
	Limit int64         `json:"limit"`
	Skip  int64         `json:"skip"`
}

// StatusChange is the outcome of ChangeStatus. A nil Warning means the
// journal entry was written together with the status.
type StatusChange struct {
	Case            *models.Case                  `json:"case"`
	OldStatus       string                        `json:"old_status"`
	NewStatus       string                        `json:"new_status"`
	ChangedAt       time.Time                     `json:"changed_at"`
	HistoryRecorded bool                          `json:"history_recorded"`
	Warning         *apperrors.ConsistencyWarning `json:"warning,omitempty"`
}

func parseCaseID(op, id string) (primitive.ObjectID, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidIdentifier(op, id)
	}
	return oid, nil
}

// storeError translates store sentinels into the service taxonomy.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(op, "case not found")
	case errors.Is(err, store.ErrInvalidID):
		return &apperrors.Error{Kind: apperrors.KindInvalidIdentifier, Op: op, Message: "invalid case ID", Err: err}
	case errors.Is(err, store.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Transient(op, err)
	default:
		return apperrors.Internal(op, err)
	}
}

// invalidate drops cached analytics. A failure only prolongs staleness up
// to the cache TTL, so it is logged and not returned.
func (s *CaseService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
	}
}

func (s *CaseService) checkUniqueCaseID(ctx context.Context, op, caseID string, exclude primitive.ObjectID) error {
	if !s.uniqueCaseID {
		return nil
	}
	exists, err := s.cases.ActiveCaseIDExists(ctx, caseID, exclude)
	if err != nil {
		return storeError(op, err)
	}
	if exists {
		return apperrors.Conflict(op, "case_id "+caseID+" is already used by another active case")
	}
	return nil
}

// Create validates and persists a new case.
func (s *CaseService) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	const op = "CreateCase"

	c.Normalize()
	if err := validateCase(op, c); err != nil {
		return nil, err
	}
	if err := s.checkUniqueCaseID(ctx, op, c.CaseID, primitive.NilObjectID); err != nil {
		return nil, err
	}
	if err := s.cases.Insert(ctx, c); err != nil {
		return nil, storeError(op, err)
	}

	s.metrics.CasesCreated.Inc()
	s.invalidate(ctx)
	s.logger.Info("case created",
		zap.String("id", c.ID.Hex()),
		zap.String("case_id", c.CaseID),
	)
	return c, nil
}

// Get returns an active case.
func (s *CaseService) Get(ctx context.Context, id string) (*models.Case, error) {
	const op = "GetCase"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.FindActive(ctx, oid)
	if err != nil {
		return nil, storeError(op, err)
	}
	return c, nil
}

// List returns one page of active cases in creation order.
func (s *CaseService) List(ctx context.Context, f models.CaseFilter, page models.Page) (*CaseList, error) {
	const op = "ListCases"

	fields := map[string]string{}
	if page.Limit < 1 || page.Limit > models.MaxPageLimit {
		fields["limit"] = "must be between 1 and 100"
	}
	if page.Skip < 0 {
		fields["skip"] = "must not be negative"
	}
	if f.ReportedFrom != nil && f.ReportedTo != nil && f.ReportedFrom.After(*f.ReportedTo) {
		fields["reported_from"] = "must not be after reported_to"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(op, "invalid list parameters", fields)
	}

	f.Country = strings.TrimSpace(f.Country)
	f.Region = strings.TrimSpace(f.Region)
	f.ViolationType = strings.TrimSpace(f.ViolationType)
	f.Priority = strings.TrimSpace(f.Priority)
	f.Status = strings.TrimSpace(f.Status)

	cases, err := s.cases.Find(ctx, f, page)
	if err != nil {
		return nil, storeError(op, err)
	}
	total, err := s.cases.Count(ctx, f)
	if err != nil {
		return nil, storeError(op, err)
	}
	return &CaseList{Cases: cases, Total: total, Limit: page.Limit, Skip: page.Skip}, nil
}

// Update replaces every field of an active case with c. It does not touch
// the status journal.
func (s *CaseService) Update(ctx context.Context, id string, c *models.Case) (*models.Case, error) {
	const op = "UpdateCase"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return nil, err
	}
	c.Normalize()
	if err := validateCase(op, c); err != nil {
		return nil, err
	}
	if err := s.checkUniqueCaseID(ctx, op, c.CaseID, oid); err != nil {
		return nil, err
	}

	updated, err := s.cases.Replace(ctx, oid, c)
	if err != nil {
		return nil, storeError(op, err)
	}

	s.invalidate(ctx)
	s.logger.Info("case updated", zap.String("id", id), zap.String("case_id", updated.CaseID))
	return updated, nil
}

// ChangeStatus swaps the status atomically, then journals the transition.
// Once the swap has committed the call succeeds; a failed journal write is
// queued for the reconciler and reported as a ConsistencyWarning.
func (s *CaseService) ChangeStatus(ctx context.Context, id, newStatus string) (*StatusChange, error) {
	const op = "ChangeStatus"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return nil, err
	}
	newStatus = strings.TrimSpace(newStatus)
	if newStatus == "" {
		return nil, apperrors.Validation(op, "invalid status change", map[string]string{"new_status": "is required"})
	}

	before, now, err := s.cases.SwapStatus(ctx, oid, newStatus)
	if err != nil {
		return nil, storeError(op, err)
	}

	entry := models.StatusHistoryEntry{
		ID:        primitive.NewObjectID(),
		CaseID:    before.CaseID,
		OldStatus: before.Status,
		NewStatus: newStatus,
		ChangedAt: now,
	}

	after := before.Clone()
	after.Status = newStatus
	after.UpdatedAt = now
	result := &StatusChange{
		Case:            after,
		OldStatus:       before.Status,
		NewStatus:       newStatus,
		ChangedAt:       now,
		HistoryRecorded: true,
	}
	s.metrics.StatusChanges.Inc()
	s.invalidate(ctx)

	if err := s.history.Append(ctx, &entry); err != nil {
		result.HistoryRecorded = false
		result.Warning = s.deferEntry(ctx, id, entry, err)
	}
	return result, nil
}

// deferEntry hands a journal entry that could not be written to the outbox.
func (s *CaseService) deferEntry(ctx context.Context, id string, entry models.StatusHistoryEntry, cause error) *apperrors.ConsistencyWarning {
	s.metrics.ConsistencyWarnings.Inc()
	warning := &apperrors.ConsistencyWarning{
		CaseID:  entry.CaseID,
		Message: "status updated but history entry was not recorded",
	}

	// The request context may be what failed the append; the outbox push
	// must still get a chance.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	fields := []zap.Field{
		zap.String("id", id),
		zap.String("case_id", entry.CaseID),
		zap.String("old_status", entry.OldStatus),
		zap.String("new_status", entry.NewStatus),
		zap.Time("changed_at", entry.ChangedAt),
		zap.Error(cause),
	}
	if err := s.outbox.Push(pushCtx, entry); err != nil {
		s.logger.Error("status history entry lost, outbox unavailable",
			append(fields, zap.NamedError("outbox_error", err))...)
		return warning
	}

	warning.Queued = true
	s.logger.Warn("status history entry deferred to reconciler", fields...)
	return warning
}

// Archive soft-deletes a case. Archiving twice is a no-op.
func (s *CaseService) Archive(ctx context.Context, id string) error {
	const op = "ArchiveCase"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return err
	}
	if err := s.cases.SetArchived(ctx, oid); err != nil {
		return storeError(op, err)
	}

	s.metrics.CasesArchived.Inc()
	s.invalidate(ctx)
	s.logger.Info("case archived", zap.String("id", id))
	return nil
}

// AttachEvidence appends items to the case's evidence without replacing it.
func (s *CaseService) AttachEvidence(ctx context.Context, id string, items []models.Evidence) (*models.Case, error) {
	const op = "AttachEvidence"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return nil, err
	}
	if err := validateEvidence(op, items); err != nil {
		return nil, err
	}

	updated, err := s.cases.PushEvidence(ctx, oid, items)
	if err != nil {
		return nil, storeError(op, err)
	}

	s.metrics.EvidenceAttached.Add(float64(len(items)))
	s.logger.Info("evidence attached", zap.String("id", id), zap.Int("items", len(items)))
	return updated, nil
}

// GetStatusHistory returns the journal of a case, archived or not.
func (s *CaseService) GetStatusHistory(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	const op = "GetStatusHistory"

	oid, err := parseCaseID(op, id)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.FindAny(ctx, oid)
	if err != nil {
		return nil, storeError(op, err)
	}

	entries, err := s.history.ListByCaseID(ctx, c.CaseID)
	if err != nil {
		return nil, storeError(op, err)
	}
	return entries, nil
}
