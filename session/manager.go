package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zamanivault/zamanivault-go/domain/auth"
	apperrors "github.com/zamanivault/zamanivault-go/errors"
	"github.com/zamanivault/zamanivault-go/notify"
	"github.com/zamanivault/zamanivault-go/store"
)

// Backend is the slice of the HTTP gateway the manager depends on.
type Backend interface {
	Do(ctx context.Context, method, endpoint string, body, out any) error
}

// Options groups dependencies for NewManager.
type Options struct {
	Backend Backend
	Store   store.Store

	// Sink receives one transient notification per operation outcome.
	// Nil disables notifications.
	Sink notify.Sink

	Logger *slog.Logger
}

// Manager owns the in-memory session and mediates every state
// transition: restore, login, register, logout, and profile mutation.
//
// Session-mutating operations serialize through a single operation gate
// (the single-operation-queue strategy), so overlapping logical
// operations can never interleave their loading-flag or store writes.
// Reads never wait behind in-flight network calls.
type Manager struct {
	backend Backend
	store   store.Store
	sink    notify.Sink
	logger  *slog.Logger

	// opGate serializes mutating operations end to end, including their
	// network round-trips. Never held by reads or by token callbacks.
	opGate sync.Mutex

	// mu guards the session fields below and is only held for memory
	// access, never across the wire.
	mu       sync.RWMutex
	identity *auth.Identity
	access   string
	refresh  string
	loading  bool

	subMu  sync.Mutex
	subSeq int
	subs   []subscriber
}

// NewManager constructs a Manager with an empty session.
func NewManager(opts Options) (*Manager, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if opts.Store == nil {
		return nil, errors.New("session: credential store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: opts.Backend,
		store:   opts.Store,
		sink:    opts.Sink,
		logger:  logger,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User    *auth.Identity `json:"user"`
	Token   string         `json:"token"`
	Refresh string         `json:"refresh,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Restore populates the session from the credential store, if a complete
// record is present. It never contacts the network; a missing, partial,
// or unreadable record simply leaves the session empty.
func (m *Manager) Restore(ctx context.Context) error {
	m.opGate.Lock()
	defer m.opGate.Unlock()

	rawIdentity, haveIdentity, err := m.store.Load(ctx, store.KeyIdentity)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "load persisted identity")
	}
	access, haveAccess, err := m.store.Load(ctx, store.KeyAccessToken)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "load persisted access token")
	}
	if !haveIdentity || !haveAccess || access == "" {
		m.publish()
		return nil
	}

	identity, ok, err := store.DecodeIdentity(rawIdentity)
	if err != nil || !ok {
		m.logger.Warn("discarding unreadable persisted identity", slog.Any("error", err))
		m.publish()
		return nil
	}

	refresh, _, err := m.store.Load(ctx, store.KeyRefreshToken)
	if err != nil {
		m.logger.Warn("load persisted refresh token failed", slog.Any("error", err))
	}

	m.mu.Lock()
	m.identity = &identity
	m.access = access
	m.refresh = refresh
	m.loading = false
	m.mu.Unlock()

	m.publish()
	return nil
}

// Login authenticates with the backend and, on success, populates and
// persists the session. Failures are returned as classified errors and
// never leave a partially-populated session behind.
func (m *Manager) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		m.notifyFailure(ctx, "Login failed", err)
		return nil, err
	}

	m.opGate.Lock()
	defer m.opGate.Unlock()
	m.setLoading(true)
	defer m.setLoading(false)

	var resp authResponse
	if err := m.backend.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		failure := loginFailure(err)
		m.notifyFailure(ctx, "Login failed", failure)
		return nil, failure
	}
	identity, err := m.acceptAuthResponse(ctx, resp, "Invalid email or password")
	if err != nil {
		m.notifyFailure(ctx, "Login failed", err)
		return nil, err
	}

	m.notifySuccess(ctx, "Login successful", "Welcome back, "+identity.Name+"!")
	m.publish()
	return identity, nil
}

// Register creates an account and, on success, behaves exactly like a
// successful login.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*auth.Identity, error) {
	if err := validateRegistration(name, email, password); err != nil {
		m.notifyFailure(ctx, "Registration failed", err)
		return nil, err
	}

	m.opGate.Lock()
	defer m.opGate.Unlock()
	m.setLoading(true)
	defer m.setLoading(false)

	var resp authResponse
	if err := m.backend.Do(ctx, http.MethodPost, "/auth/register", registerRequest{Name: name, Email: email, Password: password}, &resp); err != nil {
		failure := registerFailure(err)
		m.notifyFailure(ctx, "Registration failed", failure)
		return nil, failure
	}
	identity, err := m.acceptAuthResponse(ctx, resp, "Could not create account")
	if err != nil {
		m.notifyFailure(ctx, "Registration failed", err)
		return nil, err
	}

	m.notifySuccess(ctx, "Registration successful", "Welcome to ZamaniVault, "+identity.Name+"!")
	m.publish()
	return identity, nil
}

// Logout clears the session and the credential store. It is idempotent:
// logging out of an empty session still wipes storage defensively.
func (m *Manager) Logout(ctx context.Context) error {
	m.opGate.Lock()
	defer m.opGate.Unlock()
	return m.clearSession(ctx, "Logged out", "You have been successfully logged out", notify.SeverityInfo)
}

// UpdateProfile merges the given fields into the current identity via the
// backend and persists the result. Requires an authenticated session.
func (m *Manager) UpdateProfile(ctx context.Context, upd auth.ProfileUpdate) (*auth.Identity, error) {
	return m.updateProfile(ctx, upd,
		"Profile updated", "Your profile has been successfully updated", "Update failed")
}

// UpdateSubscription is sugar over UpdateProfile restricted to the
// subscription tier.
func (m *Manager) UpdateSubscription(ctx context.Context, tier auth.Tier) (*auth.Identity, error) {
	if !tier.Valid() {
		err := apperrors.ValidationField("subscription", "Unknown subscription tier")
		m.notifyFailure(ctx, "Subscription update failed", err)
		return nil, err
	}
	t := tier
	return m.updateProfile(ctx, auth.ProfileUpdate{Subscription: &t},
		"Subscription updated", "Your subscription has been changed to "+string(tier), "Subscription update failed")
}

func (m *Manager) updateProfile(ctx context.Context, upd auth.ProfileUpdate, okTitle, okDesc, failTitle string) (*auth.Identity, error) {
	if upd.IsEmpty() {
		err := apperrors.Validation("No fields to update")
		m.notifyFailure(ctx, failTitle, err)
		return nil, err
	}

	m.opGate.Lock()
	defer m.opGate.Unlock()

	current := m.CurrentIdentity()
	if current == nil {
		err := apperrors.Unauthorized("not authenticated")
		m.notifyFailure(ctx, failTitle, err)
		return nil, err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	var updated auth.Identity
	if err := m.backend.Do(ctx, http.MethodPut, "/user/profile", upd, &updated); err != nil {
		m.notifyFailure(ctx, failTitle, err)
		return nil, err
	}
	if updated.ID == "" {
		// Collaborator echoed nothing useful; apply the merge locally.
		updated = upd.Apply(*current)
	}
	if updated.ID != current.ID {
		err := apperrors.Internal("Backend returned a different identity")
		m.notifyFailure(ctx, failTitle, err)
		return nil, err
	}

	m.mu.Lock()
	id := updated
	m.identity = &id
	m.mu.Unlock()
	m.persistIdentity(ctx)

	m.notifySuccess(ctx, okTitle, okDesc)
	m.publish()
	result := updated
	return &result, nil
}

// CurrentIdentity returns a copy of the current identity, or nil.
func (m *Manager) CurrentIdentity() *auth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// IsAuthenticated reports whether the session holds both an identity and
// a bearer token.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil && m.access != ""
}

// IsAdmin reports whether the session is authenticated as an admin.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil && m.access != "" && m.identity.IsAdmin()
}

// State returns the published snapshot of the session.
func (m *Manager) State() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{IsLoading: m.loading}
	if m.identity != nil {
		id := *m.identity
		snap.Identity = &id
		snap.IsAuthenticated = m.access != ""
		snap.IsAdmin = snap.IsAuthenticated && id.IsAdmin()
	}
	return snap
}

// acceptAuthResponse validates a login/register payload and adopts it
// into the session, persisting through to the credential store.
func (m *Manager) acceptAuthResponse(ctx context.Context, resp authResponse, failureMessage string) (*auth.Identity, error) {
	if resp.User == nil || resp.Token == "" {
		msg := resp.Error
		if msg == "" {
			msg = failureMessage
		}
		return nil, apperrors.Credential(msg)
	}
	if err := resp.User.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Backend returned a malformed identity")
	}

	identity := *resp.User
	m.mu.Lock()
	m.identity = &identity
	m.access = resp.Token
	if resp.Refresh != "" {
		m.refresh = resp.Refresh
	}
	m.mu.Unlock()

	m.persist(ctx)
	result := identity
	return &result, nil
}

// persist mirrors the full session into the credential store. Storage
// failures are logged, not surfaced: the in-memory session stays
// authoritative and the mirror catches up on the next write.
func (m *Manager) persist(ctx context.Context) {
	m.persistIdentity(ctx)

	m.mu.RLock()
	access, refresh := m.access, m.refresh
	m.mu.RUnlock()
	if err := m.store.Save(ctx, store.KeyAccessToken, access); err != nil {
		m.logger.Warn("persist access token failed", slog.Any("error", err))
	}
	if refresh != "" {
		if err := m.store.Save(ctx, store.KeyRefreshToken, refresh); err != nil {
			m.logger.Warn("persist refresh token failed", slog.Any("error", err))
		}
	}
}

func (m *Manager) persistIdentity(ctx context.Context) {
	current := m.CurrentIdentity()
	if current == nil {
		return
	}
	record, err := store.EncodeIdentity(*current)
	if err != nil {
		m.logger.Warn("encode identity record failed", slog.Any("error", err))
		return
	}
	if err := m.store.Save(ctx, store.KeyIdentity, record); err != nil {
		m.logger.Warn("persist identity failed", slog.Any("error", err))
	}
}

// clearSession wipes memory and storage. It takes only the state lock,
// never the operation gate, so the gateway may invoke it (via
// ForceLogout) from within an operation that already holds the gate.
func (m *Manager) clearSession(ctx context.Context, title, desc, severity string) error {
	m.mu.Lock()
	m.identity = nil
	m.access = ""
	m.refresh = ""
	m.loading = false
	m.mu.Unlock()

	err := store.ClearAll(ctx, m.store)
	if err != nil {
		m.logger.Warn("clear credential store failed", slog.Any("error", err))
	}

	m.notify(ctx, title, desc, severity)
	m.publish()
	return err
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
	m.publish()
}

// Subscribe registers a callback invoked after every published state
// transition, in registration order. The returned function removes the
// subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	m.subSeq++
	id := m.subSeq
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// publish delivers the current snapshot to all subscribers synchronously,
// so a consumer observing the snapshot after an operation resolves always
// sees the post-operation state.
func (m *Manager) publish() {
	snap := m.State()
	m.subMu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(snap)
	}
}

func (m *Manager) notifySuccess(ctx context.Context, title, desc string) {
	m.notify(ctx, title, desc, notify.SeverityInfo)
}

func (m *Manager) notifyFailure(ctx context.Context, title string, err error) {
	m.notify(ctx, title, apperrors.Reason(err), notify.SeverityError)
}

func (m *Manager) notify(ctx context.Context, title, desc, severity string) {
	if m.sink == nil {
		return
	}
	n := notify.Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: desc,
		Severity:    severity,
		OccurredAt:  time.Now(),
	}
	if err := m.sink.Send(ctx, n); err != nil {
		m.logger.Warn("send notification failed", slog.String("title", title), slog.Any("error", err))
	}
}

// loginFailure converts a gateway error into the login failure surfaced
// to the user. Rejections become a credential failure; connectivity and
// backend faults pass through unchanged.
func loginFailure(err error) error {
	if apperrors.IsNetwork(err) || apperrors.IsServer(err) || apperrors.IsInternal(err) {
		return err
	}
	return apperrors.Credential("Invalid email or password")
}

// registerFailure converts a gateway error into the register failure
// surfaced to the user. Conflicts keep the canonical duplicate-email
// wording the views test for.
func registerFailure(err error) error {
	switch {
	case apperrors.IsConflict(err):
		return apperrors.Conflict("Email already in use")
	case apperrors.IsNetwork(err), apperrors.IsServer(err), apperrors.IsInternal(err), apperrors.IsValidation(err):
		return err
	default:
		return apperrors.Credential("Could not create account")
	}
}

func validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return apperrors.ValidationField("password", "Password is required")
	}
	return nil
}

func validateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.ValidationField("name", "Name is required")
	}
	return validateCredentials(email, password)
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.ValidationField("email", "Email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return apperrors.ValidationField("email", "Email address looks invalid")
	}
	return nil
}
