package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"runtime"
	"strings"
	"time"

	"visiverse/internal/logger"
	"visiverse/internal/metrics"
	"visiverse/internal/models"
	"visiverse/internal/repository"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// Store is the user persistence the authenticator depends on.
type Store interface {
	FetchUser(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, u models.User) error
	UpdateUserFields(ctx context.Context, username string, f models.UserFields) error
}

// Hasher computes and checks self-describing password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) (bool, error)
}

const (
	opRegister     = "register"
	opAuthenticate = "authenticate"
)

type Authenticator struct {
	store   Store
	hasher  Hasher
	sem     *semaphore.Weighted
	dummy   string
	log     *logger.Logger
	metrics *metrics.Metrics

	maxConcurrent int64
}

type Option func(*Authenticator)

func WithLogger(l *logger.Logger) Option {
	return func(a *Authenticator) { a.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// WithMaxConcurrent bounds how many hash computations run at once. Values below 1
// keep the default of GOMAXPROCS.
func WithMaxConcurrent(n int) Option {
	return func(a *Authenticator) {
		if n > 0 {
			a.maxConcurrent = int64(n)
		}
	}
}

// NewAuthenticator builds an Authenticator. It hashes a random throwaway password
// with the hasher's current parameters, which is verified against whenever a
// username is not found.
func NewAuthenticator(store Store, hasher Hasher, opts ...Option) (*Authenticator, error) {
	if store == nil {
		return nil, errors.New("auth: nil store")
	}
	if hasher == nil {
		return nil, errors.New("auth: nil hasher")
	}

	a := &Authenticator{
		store:         store,
		hasher:        hasher,
		log:           logger.Nop(),
		maxConcurrent: int64(runtime.GOMAXPROCS(0)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.sem = semaphore.NewWeighted(a.maxConcurrent)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, oops.Code(CodeHashFailed).Wrapf(err, "generate dummy password")
	}
	dummy, err := hasher.Hash(hex.EncodeToString(secret))
	if err != nil {
		return nil, oops.Code(CodeHashFailed).Wrapf(err, "hash dummy password")
	}
	a.dummy = dummy
	return a, nil
}

// Register creates a user with a freshly salted hash of password. The password
// itself is not checked against any policy.
func (a *Authenticator) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		a.metrics.AuthAttempt(opRegister, metrics.OutcomeError)
		return nil, oops.Code(CodeInvalidUsername).Wrap(ErrInvalidUsername)
	}

	hash, err := a.hash(ctx, password)
	if err != nil {
		a.metrics.AuthAttempt(opRegister, metrics.OutcomeError)
		return nil, err
	}

	u := models.User{Username: username, PasswordHash: hash}
	if err := a.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			a.metrics.AuthAttempt(opRegister, metrics.OutcomeDuplicate)
			return nil, oops.Code(CodeDuplicateUser).With("username", username).Wrap(ErrDuplicateUser)
		}
		a.metrics.AuthAttempt(opRegister, metrics.OutcomeError)
		return nil, storeError("insert user", err)
	}

	a.metrics.AuthAttempt(opRegister, metrics.OutcomeSuccess)
	a.log.Infow("user_registered", "username", username)
	return &u, nil
}

// Authenticate checks password against the stored hash of username.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := a.store.FetchUser(ctx, username)
	target := a.dummy
	switch {
	case err == nil:
		target = u.PasswordHash
	case errors.Is(err, repository.ErrNotFound):
		u = nil
	default:
		a.metrics.AuthAttempt(opAuthenticate, metrics.OutcomeError)
		return nil, storeError("fetch user", err)
	}

	ok, err := a.verify(ctx, password, target)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.metrics.AuthAttempt(opAuthenticate, metrics.OutcomeError)
			return nil, err
		}
		if u != nil {
			a.log.Warnw("stored_hash_unusable", "username", username, "err", err)
			// keep the cost of this path equal to a real mismatch
			if _, err := a.verify(ctx, password, a.dummy); err != nil && ctx.Err() != nil {
				a.metrics.AuthAttempt(opAuthenticate, metrics.OutcomeError)
				return nil, err
			}
		}
		ok = false
	}
	if u == nil || !ok {
		a.metrics.AuthAttempt(opAuthenticate, metrics.OutcomeInvalidCredentials)
		return nil, invalidCredentials()
	}

	a.rehash(ctx, u, password)
	a.metrics.AuthAttempt(opAuthenticate, metrics.OutcomeSuccess)
	return u, nil
}

// rehash replaces u's hash when it was made under weaker parameters. Failures are
// logged and counted only.
func (a *Authenticator) rehash(ctx context.Context, u *models.User, password string) {
	need, err := a.hasher.NeedsRehash(u.PasswordHash)
	if err != nil {
		a.log.Warnw("rehash_check_failed", "username", u.Username, "err", err)
		return
	}
	if !need {
		return
	}

	fresh, err := a.hash(ctx, password)
	if err != nil {
		a.metrics.Rehash(metrics.OutcomeError)
		a.log.Warnw("rehash_failed", "username", u.Username, "err", err)
		return
	}
	if err := a.store.UpdateUserFields(ctx, u.Username, models.UserFields{PasswordHash: &fresh}); err != nil {
		a.metrics.Rehash(metrics.OutcomeError)
		a.log.Warnw("rehash_store_failed", "username", u.Username, "err", err)
		return
	}
	u.PasswordHash = fresh
	a.metrics.Rehash(metrics.OutcomeSuccess)
	a.log.Infow("password_rehashed", "username", u.Username)
}

func (a *Authenticator) hash(ctx context.Context, password string) (string, error) {
	if err := a.acquire(ctx); err != nil {
		return "", err
	}
	defer a.sem.Release(1)

	start := time.Now()
	h, err := a.hasher.Hash(password)
	a.metrics.ObserveHash(time.Since(start))
	if err != nil {
		return "", oops.Code(CodeHashFailed).Wrap(err)
	}
	return h, nil
}

func (a *Authenticator) verify(ctx context.Context, password, encoded string) (bool, error) {
	if err := a.acquire(ctx); err != nil {
		return false, err
	}
	defer a.sem.Release(1)

	start := time.Now()
	ok, err := a.hasher.Verify(password, encoded)
	a.metrics.ObserveHash(time.Since(start))
	return ok, err
}

func (a *Authenticator) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return oops.Code(CodeCanceled).Wrap(err)
	}
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return oops.Code(CodeCanceled).Wrap(err)
	}
	return nil
}
