// README: Dispatch engine: aid request lifecycle, driver capacity, side effects.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

var (
	ErrNotFound         = errors.New("aid request not found")
	ErrUnauthorized     = errors.New("caller is not authorized for this operation")
	ErrInvalidTarget    = errors.New("target is not an approved driver")
	ErrConflict         = errors.New("aid request state conflict")
	ErrValidation       = errors.New("missing or malformed request fields")
	ErrStoreUnavailable = errors.New("request store unavailable")
)

type Store interface {
	Create(ctx context.Context, r *AidRequest) error
	Get(ctx context.Context, id types.ID) (*AidRequest, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID types.ID, at time.Time) (bool, error)
	ListByStatus(ctx context.Context, st Status) ([]AidRequest, error)
	ListBySender(ctx context.Context, senderID types.ID) ([]AidRequest, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]AidRequest, error)
}

// Directory answers approval-gate questions and owns the atomic driver claim
// that enforces the one-mission-per-driver capacity invariant.
type Directory interface {
	ApprovedSender(ctx context.Context, id types.ID) (bool, error)
	ApprovedDriver(ctx context.Context, id types.ID) (bool, error)
	IsAdmin(ctx context.Context, id types.ID) (bool, error)
	ClaimDriver(ctx context.Context, id types.ID) (bool, error)
	ReleaseDriver(ctx context.Context, id types.ID) error
}

type Notifier interface {
	Notify(ctx context.Context, userID types.ID, kind notify.Kind, title, message string, requestID types.ID) error
}

// Fleet is the live availability registry. The engine only flips the
// available flag; location is owned by the registry alone.
type Fleet interface {
	SetAvailable(driverID types.ID, available bool)
}

type Service struct {
	store    Store
	dir      Directory
	notifier Notifier
	fleet    Fleet
}

func NewService(store Store, dir Directory, notifier Notifier, fleet Fleet) *Service {
	return &Service{store: store, dir: dir, notifier: notifier, fleet: fleet}
}

type CreateCommand struct {
	SenderID    types.ID
	DriverID    types.ID
	AidType     string
	Quantity    string
	Destination string
	Urgency     Urgency
}

// Create validates the sender's approval and the target driver, then opens a
// PENDING request. The driver is not required to be READY at this point:
// a driver going offline between listing and submission is a real-world race,
// resolved by driver-side accept.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*AidRequest, error) {
	if cmd.SenderID == "" || cmd.DriverID == "" || cmd.AidType == "" || cmd.Quantity == "" || cmd.Destination == "" {
		return nil, ErrValidation
	}
	if !ValidUrgency(cmd.Urgency) {
		return nil, ErrValidation
	}
	ok, err := s.dir.ApprovedSender(ctx, cmd.SenderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	ok, err = s.dir.ApprovedDriver(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTarget
	}

	now := time.Now()
	r := &AidRequest{
		ID:          types.ID(uuid.NewString()),
		SenderID:    cmd.SenderID,
		DriverID:    cmd.DriverID,
		AidType:     cmd.AidType,
		Quantity:    cmd.Quantity,
		Destination: cmd.Destination,
		Urgency:     cmd.Urgency,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.notifyAsync(ctx, r.DriverID, notify.KindInfo, "New aid request",
		fmt.Sprintf("%s (%s) to %s, urgency %s", r.AidType, r.Quantity, r.Destination, r.Urgency), r.ID)
	return r, nil
}

// Accept transitions PENDING -> ACCEPTED for exactly one caller. The driver
// claim is taken first and rolled back if the request transition loses; both
// steps are conditional updates, so there is no read-then-write window.
func (s *Service) Accept(ctx context.Context, requestID, driverID types.ID) (*AidRequest, error) {
	r, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrConflict
	}
	ok, err := s.dir.ApprovedDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	claimed, err := s.dir.ClaimDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Driver already holds an active mission.
		return nil, ErrConflict
	}

	now := time.Now()
	won, err := s.store.UpdateStatus(ctx, requestID, StatusPending, StatusAccepted, driverID, now)
	if err != nil || !won {
		if relErr := s.dir.ReleaseDriver(ctx, driverID); relErr != nil {
			logrus.WithError(relErr).WithField("driver_id", driverID).Error("failed to release driver claim after lost accept")
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}

	s.fleet.SetAvailable(driverID, false)
	r.Status = StatusAccepted
	r.DriverID = driverID
	r.AcceptedAt = &now
	r.UpdatedAt = now
	s.notifyAsync(ctx, r.SenderID, notify.KindSuccess, "Request accepted",
		fmt.Sprintf("A driver accepted your %s request to %s.", r.AidType, r.Destination), r.ID)
	return r, nil
}

// Complete closes an ACCEPTED request. Only the assigned driver may complete.
func (s *Service) Complete(ctx context.Context, requestID, driverID types.ID) (*AidRequest, error) {
	r, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusAccepted {
		return nil, ErrConflict
	}
	if r.DriverID != driverID {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	won, err := s.store.UpdateStatus(ctx, requestID, StatusAccepted, StatusCompleted, "", now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrConflict
	}

	s.releaseToReady(ctx, driverID)
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	s.notifyAsync(ctx, r.SenderID, notify.KindSuccess, "Delivery completed",
		fmt.Sprintf("Your %s request to %s has been delivered.", r.AidType, r.Destination), r.ID)
	return r, nil
}

// Cancel is allowed from PENDING or ACCEPTED, by the sender, the assigned
// driver, or an admin. Cancelling an ACCEPTED request frees the driver.
func (s *Service) Cancel(ctx context.Context, requestID, actorID types.ID) (*AidRequest, error) {
	r, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, ErrConflict
	}
	if actorID != r.SenderID && actorID != r.DriverID {
		admin, err := s.dir.IsAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrUnauthorized
		}
	}

	from := r.Status
	now := time.Now()
	won, err := s.store.UpdateStatus(ctx, requestID, from, StatusCancelled, "", now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrConflict
	}

	if from == StatusAccepted {
		s.releaseToReady(ctx, r.DriverID)
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.UpdatedAt = now

	msg := fmt.Sprintf("The %s request to %s was cancelled.", r.AidType, r.Destination)
	if actorID == r.SenderID {
		s.notifyAsync(ctx, r.DriverID, notify.KindWarning, "Request cancelled", msg, r.ID)
	} else {
		s.notifyAsync(ctx, r.SenderID, notify.KindWarning, "Request cancelled", msg, r.ID)
	}
	return r, nil
}

// ListAvailable returns every PENDING request, newest first. Targeting is
// advisory: the creation-time driver gets the notification, but any approved
// driver may accept.
func (s *Service) ListAvailable(ctx context.Context) ([]AidRequest, error) {
	return s.store.ListByStatus(ctx, StatusPending)
}

func (s *Service) ListForSender(ctx context.Context, senderID types.ID) ([]AidRequest, error) {
	return s.store.ListBySender(ctx, senderID)
}

func (s *Service) ListForDriver(ctx context.Context, driverID types.ID) ([]AidRequest, error) {
	return s.store.ListByDriver(ctx, driverID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*AidRequest, error) {
	return s.store.Get(ctx, id)
}

// releaseToReady reverts the driver to READY in both the durable record and
// the live registry. The driver keeps broadcasting availability unless it
// separately goes offline.
func (s *Service) releaseToReady(ctx context.Context, driverID types.ID) {
	if err := s.dir.ReleaseDriver(ctx, driverID); err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Error("failed to release driver")
	}
	s.fleet.SetAvailable(driverID, true)
}

// notifyAsync records a notification without letting delivery problems fail
// the state transition that triggered it.
func (s *Service) notifyAsync(ctx context.Context, userID types.ID, kind notify.Kind, title, message string, requestID types.ID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, title, message, requestID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"request_id": requestID,
		}).Warn("notification delivery failed")
	}
}
