package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/auth"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

const AggregateType = "User"

var (
	ErrEmailExists            = errors.New("email is already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrNotLoggedIn            = errors.New("not logged in")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidInput           = errors.New("invalid user input")
)

// Address is a postal address. The same shape is used for a user's saved
// address and a sale's delivery address.
type Address struct {
	Street         string `json:"street" validate:"required"`
	City           string `json:"city" validate:"required"`
	AddressDetails string `json:"addressDetails,omitempty"`
	ZipCode        string `json:"zipCode,omitempty"`
}

// User is the public, password-free view of an account
type User struct {
	ID        string    `json:"id" validate:"required"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email" validate:"required"`
	Phone     string    `json:"phone"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) clone() User {
	if u.Address != nil {
		a := *u.Address
		u.Address = &a
	}
	return u
}

// StoredUser is a registry record. Password holds a bcrypt hash, or a
// plaintext value written by an older client until its next login.
type StoredUser struct {
	User
	Password string `json:"password"`
}

type RegisterInput struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	Password  string
	Phone     string
}

// Service owns the user registry and the session
type Service struct {
	kv         store.KeyValueStore
	users      *store.Collection[StoredUser]
	currentKey string
	tokenKey   string
	session    *Session
	tokens     *auth.TokenService
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewService creates the identity service. tokens may be nil, in which case
// no session token is written or checked.
func NewService(kv store.KeyValueStore, keys store.Keys, session *Session, tokens *auth.TokenService, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "user"))
	return &Service{
		kv:         kv,
		users:      store.NewCollection[StoredUser](kv, keys.For(store.KeyUsers), logger),
		currentKey: keys.For(store.KeyCurrentUser),
		tokenKey:   keys.For(store.KeySessionToken),
		session:    session,
		tokens:     tokens,
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Current implements Identity
func (s *Service) Current() (User, bool) {
	return s.session.Current()
}

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := store.Validate(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created StoredUser
	change, err := s.users.Stage(ctx, func(users []StoredUser) ([]StoredUser, error) {
		if findByEmail(users, in.Email) >= 0 {
			return nil, ErrEmailExists
		}
		created = StoredUser{
			User: User{
				ID:        uuid.New().String(),
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Email:     in.Email,
				Phone:     in.Phone,
				CreatedAt: s.now(),
			},
			Password: hash,
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.commitWithSession(ctx, created.User, change); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", created.ID))
	store.Emit(ctx, s.eventStore, s.logger, created.ID, AggregateType, EventUserRegistered, UserRegistered{
		UserID:       created.ID,
		Email:        created.Email,
		FirstName:    created.FirstName,
		LastName:     created.LastName,
		RegisteredAt: created.CreatedAt,
	})

	u := created.User.clone()
	return &u, nil
}

// Login signs in by case-insensitive email. A matching plaintext password
// left by an older client is replaced by its hash.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Items(ctx)
	if err != nil {
		return nil, err
	}
	idx := findByEmail(users, strings.TrimSpace(email))
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	found := users[idx]

	ok, needsRehash := auth.VerifyStored(password, found.Password)
	if !ok {
		return nil, ErrInvalidPassword
	}

	changes := []*store.Change{}
	if needsRehash {
		change, err := s.rehash(ctx, found.ID, password)
		if err != nil {
			s.logger.Warn("Keeping legacy password", zap.String("user_id", found.ID), zap.Error(err))
			needsRehash = false
		} else {
			changes = append(changes, change)
		}
	}

	if err := s.commitWithSession(ctx, found.User, changes...); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", found.ID))
	store.Emit(ctx, s.eventStore, s.logger, found.ID, AggregateType, EventUserLoggedIn, UserLoggedIn{
		UserID:   found.ID,
		Upgraded: needsRehash,
		LoggedAt: s.now(),
	})

	u := found.User.clone()
	return &u, nil
}

func (s *Service) rehash(ctx context.Context, userID, password string) (*store.Change, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.users.Stage(ctx, func(users []StoredUser) ([]StoredUser, error) {
		idx := findByID(users, userID)
		if idx < 0 {
			return nil, ErrUserNotFound
		}
		users[idx].Password = hash
		return users, nil
	})
}

// Logout clears the session. The registry is untouched.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.session.Current()
	if err := s.dropSession(ctx); err != nil {
		return err
	}
	if ok {
		store.Emit(ctx, s.eventStore, s.logger, current.ID, AggregateType, EventUserLoggedOut, UserLoggedOut{
			UserID:   current.ID,
			LoggedAt: s.now(),
		})
	}
	return nil
}

// UpdatePassword replaces the password after checking the current one
func (s *Service) UpdatePassword(ctx context.Context, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.session.Current()
	if !ok {
		return ErrNotLoggedIn
	}

	err := s.users.Save(ctx, func(users []StoredUser) ([]StoredUser, error) {
		idx := findByID(users, me.ID)
		if idx < 0 {
			return nil, ErrUserNotFound
		}
		if ok, _ := auth.VerifyStored(current, users[idx].Password); !ok {
			return nil, ErrInvalidCurrentPassword
		}
		hash, err := auth.HashPassword(next)
		if err != nil {
			return nil, err
		}
		users[idx].Password = hash
		return users, nil
	})
	if err != nil {
		return err
	}

	store.Emit(ctx, s.eventStore, s.logger, me.ID, AggregateType, EventUserPasswordChanged, UserPasswordChanged{
		UserID:    me.ID,
		ChangedAt: s.now(),
	})
	return nil
}

// UpdatePhone changes the phone number of the signed-in user
func (s *Service) UpdatePhone(ctx context.Context, phone string) (*User, error) {
	return s.updateCurrent(ctx, "phone", func(u *User) error {
		u.Phone = strings.TrimSpace(phone)
		return nil
	})
}

// UpdateProfile changes first and last name
func (s *Service) UpdateProfile(ctx context.Context, firstName, lastName string) (*User, error) {
	return s.updateCurrent(ctx, "profile", func(u *User) error {
		if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
			return fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
		}
		u.FirstName = strings.TrimSpace(firstName)
		u.LastName = strings.TrimSpace(lastName)
		return nil
	})
}

// UpdateAvatar sets the avatar to a data URI or an image URL
func (s *Service) UpdateAvatar(ctx context.Context, avatar string) (*User, error) {
	return s.updateCurrent(ctx, "avatar", func(u *User) error {
		if err := store.ValidateVar(avatar, "required,datauri|url"); err != nil {
			return fmt.Errorf("%w: avatar: %v", ErrInvalidInput, err)
		}
		u.AvatarURL = avatar
		return nil
	})
}

// UpdateAddress stores the default delivery address
func (s *Service) UpdateAddress(ctx context.Context, addr Address) (*User, error) {
	return s.updateCurrent(ctx, "address", func(u *User) error {
		if err := store.Validate(&addr); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		u.Address = &addr
		return nil
	})
}

// updateCurrent applies mutate to the registry record of the signed-in user
// and rewrites the session copy in the same commit.
func (s *Service) updateCurrent(ctx context.Context, field string, mutate func(u *User) error) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.session.Current()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	var updated User
	change, err := s.users.Stage(ctx, func(users []StoredUser) ([]StoredUser, error) {
		idx := findByID(users, me.ID)
		if idx < 0 {
			return nil, ErrUserNotFound
		}
		u := users[idx].User.clone()
		if err := mutate(&u); err != nil {
			return nil, err
		}
		users[idx].User = u
		updated = u
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.commitWithSession(ctx, updated, change); err != nil {
		return nil, err
	}

	store.Emit(ctx, s.eventStore, s.logger, me.ID, AggregateType, EventUserProfileUpdated, UserProfileUpdated{
		UserID:    me.ID,
		Field:     field,
		UpdatedAt: s.now(),
	})

	out := updated.clone()
	return &out, nil
}

// Restore loads the persisted session. A corrupted, expired or orphaned
// session is dropped rather than reported.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := store.LoadDocument[User](ctx, s.kv, s.currentKey, s.logger)
	if err != nil {
		return err
	}
	if saved == nil {
		s.session.clear()
		return nil
	}

	if s.tokens != nil {
		token, ok, err := s.kv.Get(ctx, s.tokenKey)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Info("Dropping session without token", zap.String("user_id", saved.ID))
			return s.dropSession(ctx)
		}
		claims, err := s.tokens.Validate(token)
		if err != nil || claims.UserID != saved.ID {
			s.logger.Info("Dropping session with invalid token", zap.String("user_id", saved.ID), zap.Error(err))
			return s.dropSession(ctx)
		}
	}

	users, err := s.users.Items(ctx)
	if err != nil {
		return err
	}
	idx := findByID(users, saved.ID)
	if idx < 0 {
		s.logger.Info("Dropping session of unknown user", zap.String("user_id", saved.ID))
		return s.dropSession(ctx)
	}

	// registry copy wins if the two ever drifted
	s.session.set(users[idx].User)
	return nil
}

// FindByID returns the public view of a registered user
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	users, err := s.users.Items(ctx)
	if err != nil {
		return nil, err
	}
	idx := findByID(users, id)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	u := users[idx].User.clone()
	return &u, nil
}

// Reload drops the cached registry so another process's writes become visible
func (s *Service) Reload() {
	s.users.Reload()
}

// commitWithSession writes the given registry changes together with the
// session copy and token for u, then signs u in.
func (s *Service) commitWithSession(ctx context.Context, u User, changes ...*store.Change) error {
	sessionChange, err := store.DocumentChange(s.currentKey, u)
	if err != nil {
		store.Discard(changes...)
		return err
	}
	changes = append(changes, sessionChange)

	if s.tokens != nil {
		token, _, err := s.tokens.Issue(u.ID, u.Email)
		if err != nil {
			store.Discard(changes...)
			return fmt.Errorf("failed to issue session token: %w", err)
		}
		changes = append(changes, &store.Change{Key: s.tokenKey, Value: token})
	}

	if err := store.Commit(ctx, s.kv, changes...); err != nil {
		return err
	}
	s.session.set(u)
	return nil
}

func (s *Service) dropSession(ctx context.Context) error {
	s.session.clear()
	if err := s.kv.Remove(ctx, s.currentKey); err != nil {
		return err
	}
	return s.kv.Remove(ctx, s.tokenKey)
}

func findByEmail(users []StoredUser, email string) int {
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

func findByID(users []StoredUser, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// ErrorCode maps an error to the short code the presentation layer shows
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailExists):
		return "emailExists"
	case errors.Is(err, ErrUserNotFound):
		return "userNotFound"
	case errors.Is(err, ErrInvalidPassword):
		return "invalidPassword"
	case errors.Is(err, ErrNotLoggedIn):
		return "notLoggedIn"
	case errors.Is(err, ErrInvalidCurrentPassword):
		return "invalidCurrentPassword"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "passwordTooShort"
	case errors.Is(err, ErrInvalidInput):
		return "invalidInput"
	default:
		return "unknown"
	}
}
