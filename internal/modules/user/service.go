// README: Registration, login, and the admin approval state machine.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrValidation       = errors.New("invalid registration data")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrStoreUnavailable = errors.New("user store unavailable")
)

type Store interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id types.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRegistrationStatus(ctx context.Context, st RegistrationStatus) ([]User, error)
	SetRegistrationStatus(ctx context.Context, id types.ID, st RegistrationStatus) (*User, error)
	ClaimDriver(ctx context.Context, id types.ID) (bool, error)
	ReleaseDriver(ctx context.Context, id types.ID) error
}

// TokenIssuer mints access tokens carrying (userId, role).
type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}

// Notifier is the durable-plus-push fan-out; approval decisions are routed
// through it so users learn about them without polling.
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, kind notify.Kind, title, message string, requestID types.ID) error
}

type Service struct {
	store    Store
	tokens   TokenIssuer
	notifier Notifier
}

func NewService(store Store, tokens TokenIssuer, notifier Notifier) *Service {
	return &Service{store: store, tokens: tokens, notifier: notifier}
}

type RegisterCommand struct {
	Name         string
	Email        string
	Password     string
	Role         Role
	Truck        *TruckDetails
	Organization *OrganizationDetails
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*User, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if cmd.Name == "" || cmd.Email == "" || cmd.Password == "" {
		return nil, ErrValidation
	}
	switch cmd.Role {
	case RoleDriver:
		if cmd.Truck == nil || cmd.Truck.LicensePlate == "" {
			return nil, ErrValidation
		}
	case RoleSender:
		if cmd.Organization == nil || cmd.Organization.Name == "" {
			return nil, ErrValidation
		}
	case RoleAdmin:
		// admins carry no profile details
	default:
		return nil, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &User{
		ID:                  types.ID(uuid.NewString()),
		Name:                cmd.Name,
		Email:               cmd.Email,
		PasswordHash:        string(hash),
		Role:                cmd.Role,
		RegistrationStatus:  RegistrationPending,
		OrganizationDetails: cmd.Organization,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if cmd.Role == RoleDriver {
		t := *cmd.Truck
		t.CurrentStatus = TruckIdle
		u.TruckDetails = &t
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrBadCredentials
	}
	token, err := s.tokens.Issue(string(u.ID), string(u.Role))
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) ListPending(ctx context.Context) ([]User, error) {
	return s.store.ListByRegistrationStatus(ctx, RegistrationPending)
}

// SetStatus moves a user between PENDING, APPROVED, and REJECTED. No state is
// terminal; an admin can revert any decision. Notification delivery is
// best-effort and never fails the transition.
func (s *Service) SetStatus(ctx context.Context, id types.ID, st RegistrationStatus) (*User, error) {
	if !ValidRegistrationStatus(st) {
		return nil, ErrValidation
	}
	u, err := s.store.SetRegistrationStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		var kind notify.Kind
		var title, msg string
		switch st {
		case RegistrationApproved:
			kind, title, msg = notify.KindSuccess, "Registration approved", "Your account has been approved. You can now participate in aid deliveries."
		case RegistrationRejected:
			kind, title, msg = notify.KindWarning, "Registration rejected", "Your registration was rejected. Contact an administrator for details."
		default:
			kind, title, msg = notify.KindInfo, "Registration under review", "Your account has been moved back to pending review."
		}
		if err := s.notifier.Notify(ctx, u.ID, kind, title, msg, ""); err != nil {
			logrus.WithError(err).WithField("user_id", u.ID).Warn("registration status notification failed")
		}
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

// ApprovedSender reports whether id names an APPROVED sender.
func (s *Service) ApprovedSender(ctx context.Context, id types.ID) (bool, error) {
	return s.approvedRole(ctx, id, RoleSender)
}

// ApprovedDriver reports whether id names an APPROVED driver.
func (s *Service) ApprovedDriver(ctx context.Context, id types.ID) (bool, error) {
	return s.approvedRole(ctx, id, RoleDriver)
}

func (s *Service) IsAdmin(ctx context.Context, id types.ID) (bool, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == RoleAdmin, nil
}

func (s *Service) approvedRole(ctx context.Context, id types.ID, role Role) (bool, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == role && u.RegistrationStatus == RegistrationApproved, nil
}

func (s *Service) ClaimDriver(ctx context.Context, id types.ID) (bool, error) {
	return s.store.ClaimDriver(ctx, id)
}

func (s *Service) ReleaseDriver(ctx context.Context, id types.ID) error {
	return s.store.ReleaseDriver(ctx, id)
}

// DriverDisplay is the read-model enrichment attached to sender listings.
type DriverDisplay struct {
	Name  string `json:"name"`
	Plate string `json:"plate"`
}

func (s *Service) Display(ctx context.Context, id types.ID) (DriverDisplay, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return DriverDisplay{}, err
	}
	d := DriverDisplay{Name: u.Name}
	if u.TruckDetails != nil {
		d.Plate = u.TruckDetails.LicensePlate
	}
	return d, nil
}
