package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telemed/internal/config"
	"telemed/internal/docstore"
	"telemed/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VisitService coordinates the visit lifecycle against the shared waiting
// room. A visit and its queue entry are always written in one atomic batch;
// the finish transition is guarded by optimistic concurrency on the queue
// entry. The service holds no state of its own, so all coordination is the
// store's.
type VisitService struct {
	store  docstore.Store
	cfg    *config.Config
	logger *zap.Logger
}

// NewVisitService creates a new visit service.
func NewVisitService(store docstore.Store, cfg *config.Config, logger *zap.Logger) *VisitService {
	return &VisitService{store: store, cfg: cfg, logger: logger}
}

// Create opens a visit for the caller and enqueues it in the default
// waiting room.
//
// Unless skipDedup is set, an existing unfinished visit is returned instead
// of creating a new one (oldest wins). The dedup query and the create are
// not one transaction: two concurrent creates for the same user can both
// miss and both write. That race is accepted; the alternative would be a
// transactional read-check-write on every create.
func (s *VisitService) Create(ctx context.Context, caller *IdentityContext, skipDedup bool) (*model.CreateVisitResponse, error) {
	profile, err := caller.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotRegistered
	}
	uid := profile.ID
	visitsPath := docstore.Join("users", uid, "visits")

	if !skipDedup {
		snaps, err := s.store.Query(ctx, visitsPath, docstore.Query{
			Field:   "isFinished",
			Equals:  false,
			OrderBy: "createdAt",
			Limit:   1,
		})
		if err != nil {
			return nil, fmt.Errorf("query unfinished visits: %w", err)
		}
		if len(snaps) > 0 {
			s.logger.Debug("reusing unfinished visit",
				zap.String("uid", uid), zap.String("visitId", snaps[0].ID))
			return &model.CreateVisitResponse{UserID: uid, VisitID: snaps[0].ID, Created: false}, nil
		}
	}

	now := time.Now()
	visitID := now.Format(s.cfg.Visit.IDTimeLayout)
	waitingUserID := docstore.NewID()
	roomToken := newRoomToken()

	visitPath := docstore.Join(visitsPath, visitID)
	waitingUserPath := docstore.Join(
		"waitingRooms", s.cfg.Visit.DefaultWaitingRoomID, "waitingUsers", waitingUserID)

	s.logger.Debug("creating visit",
		zap.String("uid", uid),
		zap.String("visitId", visitID),
		zap.String("waitingUserId", waitingUserID),
		zap.String("roomToken", roomToken))

	visit := &model.Visit{
		Status:     model.VisitStatusWaiting,
		IsFinished: false,
		RoomToken:  roomToken,
		CreatedAt:  now,
	}
	waitingUser := &model.WaitingUser{
		UserID:    uid,
		VisitID:   visitID,
		User:      profile.Data,
		Status:    model.WaitingUserWaiting,
		RoomToken: roomToken,
		CreatedAt: now,
		UpdatedAt: now,
	}

	batch := s.store.Batch()
	batch.Create(visitPath, visit.Document())
	batch.Create(waitingUserPath, waitingUser.Document())
	if err := batch.Commit(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ErrIndeterminate
		}
		return nil, fmt.Errorf("commit visit batch: %w", err)
	}
	if ctx.Err() != nil {
		// The batch was dispatched; whether it landed is unknowable here.
		return nil, ErrIndeterminate
	}

	s.logger.Debug("visit committed",
		zap.String("visitPath", visitPath), zap.String("waitingUserPath", waitingUserPath))

	return &model.CreateVisitResponse{UserID: uid, VisitID: visitID, Created: true}, nil
}

// Finish marks a queue entry and its linked visit finished in one atomic
// batch. The WaitingUser update is conditioned on the update time observed
// at read; the Visit update is unconditional since this path is its only
// writer. A stale condition rejects the whole batch.
func (s *VisitService) Finish(ctx context.Context, roomID, waitingUserID string) error {
	if !docstore.ValidDocID(roomID) || !docstore.ValidDocID(waitingUserID) {
		return fmt.Errorf("%w: %q, %q", ErrInvalidID, roomID, waitingUserID)
	}
	waitingUserPath := docstore.Join("waitingRooms", roomID, "waitingUsers", waitingUserID)

	snap, err := s.store.Get(ctx, waitingUserPath)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: waiting user %s", ErrNotFound, waitingUserID)
		}
		return err
	}
	waitingUser := model.WaitingUserFromDocument(snap.Data)
	if waitingUser.UserID == "" || waitingUser.VisitID == "" {
		return fmt.Errorf("waiting user %s carries no visit reference", waitingUserID)
	}
	visitPath := docstore.Join("users", waitingUser.UserID, "visits", waitingUser.VisitID)

	s.logger.Debug("finishing visit",
		zap.String("uid", waitingUser.UserID),
		zap.String("visitId", waitingUser.VisitID),
		zap.String("roomId", roomID),
		zap.String("waitingUserId", waitingUserID))

	finished, _ := model.WaitingUserStatuses.Encode(model.WaitingUserFinished)
	batch := s.store.Batch()
	batch.Update(visitPath, docstore.Document{"isFinished": true}, docstore.None())
	batch.Update(waitingUserPath, docstore.Document{"status": finished},
		docstore.LastUpdated(snap.UpdateTime))
	if err := batch.Commit(ctx); err != nil {
		switch {
		case errors.Is(err, docstore.ErrFailedPrecondition):
			return fmt.Errorf("%w: waiting user %s", ErrConcurrentModification, waitingUserID)
		case errors.Is(err, docstore.ErrNotFound):
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		if ctx.Err() != nil {
			return ErrIndeterminate
		}
		return fmt.Errorf("commit finish batch: %w", err)
	}

	s.logger.Debug("finish committed",
		zap.String("visitPath", visitPath), zap.String("waitingUserPath", waitingUserPath))
	return nil
}

// newRoomToken returns an opaque 128-bit call-room identifier in hex.
func newRoomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
