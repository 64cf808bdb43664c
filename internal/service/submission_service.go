package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
)

// Natural key of a submission.
const (
	SubjectField   = "mealId"
	SubmitterField = "email"
)

// ErrInvalidSubmission is returned when a candidate lacks its natural key.
var ErrInvalidSubmission = errors.New("mealId and email are required")

// DuplicateSubmissionError is returned when the submitter already has a
// submission for the same subject. Message is meant for the end user.
type DuplicateSubmissionError struct {
	Message string
}

func (e *DuplicateSubmissionError) Error() string { return e.Message }

// SubmissionService accepts at most one submission per (mealId, email) pair
// in its collection. The pair is backed by a unique index so concurrent
// duplicates are rejected by the store, not by a read-then-write check.
type SubmissionService struct {
	subs         *repository.Collection
	duplicateMsg string
	log          *zap.Logger
}

func NewSubmissionService(subs *repository.Collection, duplicateMsg string, log *zap.Logger) *SubmissionService {
	return &SubmissionService{subs: subs, duplicateMsg: duplicateMsg, log: log.With(zap.String("collection", subs.Name()))}
}

// NewMealRequestService guards the mealRequests collection.
func NewMealRequestService(subs *repository.Collection, log *zap.Logger) *SubmissionService {
	return NewSubmissionService(subs, "You have already requested this meal.", log)
}

// NewReviewService guards the reviews collection.
func NewReviewService(subs *repository.Collection, log *zap.Logger) *SubmissionService {
	return NewSubmissionService(subs, "You have already reviewed this meal.", log)
}

// EnsureIndexes creates the unique index the guard relies on. It must run
// before the first Submit.
func (s *SubmissionService) EnsureIndexes(ctx context.Context) error {
	if err := s.subs.EnsureUnique(ctx, SubjectField, SubmitterField); err != nil {
		return errors.Wrapf(err, "ensure unique submission index on %s", s.subs.Name())
	}
	return nil
}

// Submit stores candidate unless the submitter already has a submission for
// the same subject, and returns the stored record.
func (s *SubmissionService) Submit(ctx context.Context, candidate store.Record) (store.Record, error) {
	subject, ok1 := keyValue(candidate, SubjectField)
	submitter, ok2 := keyValue(candidate, SubmitterField)
	if !ok1 || !ok2 {
		return nil, ErrInvalidSubmission
	}

	stored, err := s.subs.Create(ctx, candidate)
	if errors.Is(err, store.ErrDuplicateKey) {
		s.log.Info("duplicate submission rejected",
			zap.String("subject", subject), zap.String("submitter", submitter))
		return nil, &DuplicateSubmissionError{Message: s.duplicateMsg}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "store submission in %s", s.subs.Name())
	}
	return stored, nil
}

func keyValue(rec store.Record, field string) (string, bool) {
	v, ok := rec[field].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
