// Package session holds the session and entitlement state for the
// application: who is signed in, whether they are a Pro member, and how many
// free-tier projects they have created.
//
// The state lives in two key-value scopes: a persistent scope that survives
// restarts and a session scope that dies with the process. A Gate is
// constructed once at startup from those scopes and threaded through the
// application; every transition writes through to storage before returning,
// so a restart reconstructs the same state from the persisted flags alone.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/serhq/estimator/internal/storage"
)

// Storage keys. These match the flags the client app has always written, so
// existing persisted state keeps working.
const (
	keyAuthenticated = "ser_is_authenticated"
	keyAuthExpiry    = "ser_auth_expiry"
	keyPro           = "ser_is_pro"
	keyProjectCount  = "ser_project_count"
	keyProfile       = "ser_user_profile"
)

// FreeProjectCeiling is the number of projects a Free-tier member may
// create before project creation routes to the upgrade flow.
const FreeProjectCeiling = 2

// persistentAuthTTL is how long a remember-me login stays valid.
const persistentAuthTTL = 7 * 24 * time.Hour

// ErrProjectLimit signals that the free ceiling is reached. It is a routing
// decision (show the upsell), not a failure.
var ErrProjectLimit = errors.New("free project limit reached")

// AuthState is the authentication state of the current session.
type AuthState int

const (
	// Anonymous means no valid login marker exists in either scope.
	Anonymous AuthState = iota
	// AuthenticatedSession means the login lives in the session scope only
	// and ends with the process.
	AuthenticatedSession
	// AuthenticatedPersistent means the login survives restarts, either
	// until its stored expiry or forever when no expiry was recorded.
	AuthenticatedPersistent
)

// Gate is the single authority on authentication and entitlement. All
// mutations go through its named transitions; nothing else writes the flags.
// One Gate is shared by every request handler, so every transition and
// accessor takes the mutex.
type Gate struct {
	persistent storage.KV
	session    storage.KV

	mu           sync.Mutex
	auth         AuthState
	pro          bool
	projectCount int
}

// Load constructs a Gate from the persisted flags, re-validating the
// persistent login marker: an expired marker is cleared and the state
// collapses to Anonymous. A marker with no expiry recorded is permanently
// valid; Load never invents an expiry for it retroactively.
func Load(ctx context.Context, persistent, session storage.KV) (*Gate, error) {
	g := &Gate{persistent: persistent, session: session}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadAuth(ctx); err != nil {
		return nil, err
	}

	pro, ok, err := persistent.Get(ctx, keyPro)
	if err != nil {
		return nil, fmt.Errorf("load entitlement flag: %w", err)
	}
	g.pro = ok && pro == "true"

	count, ok, err := persistent.Get(ctx, keyProjectCount)
	if err != nil {
		return nil, fmt.Errorf("load project count: %w", err)
	}
	if ok {
		// A corrupt counter reads as zero rather than failing startup.
		g.projectCount, _ = strconv.Atoi(count)
	}

	return g, nil
}

func (g *Gate) loadAuth(ctx context.Context) error {
	// Session scope wins when present; it needs no expiry check because its
	// lifetime is the process itself.
	sessionAuth, ok, err := g.session.Get(ctx, keyAuthenticated)
	if err != nil {
		return fmt.Errorf("load session auth flag: %w", err)
	}
	if ok && sessionAuth == "true" {
		g.auth = AuthenticatedSession
		return nil
	}

	persistentAuth, ok, err := g.persistent.Get(ctx, keyAuthenticated)
	if err != nil {
		return fmt.Errorf("load persistent auth flag: %w", err)
	}
	if !ok || persistentAuth != "true" {
		g.auth = Anonymous
		return nil
	}

	expiry, ok, err := g.persistent.Get(ctx, keyAuthExpiry)
	if err != nil {
		return fmt.Errorf("load auth expiry: %w", err)
	}
	if !ok {
		// Legacy marker with no expiry: permanently valid.
		g.auth = AuthenticatedPersistent
		return nil
	}

	expiryMillis, err := strconv.ParseInt(expiry, 10, 64)
	if err == nil && time.Now().UnixMilli() <= expiryMillis {
		g.auth = AuthenticatedPersistent
		return nil
	}

	// Expired (or unreadable) marker: clear both keys and start anonymous.
	if err := g.persistent.Delete(ctx, keyAuthenticated); err != nil {
		return fmt.Errorf("clear expired auth flag: %w", err)
	}
	if err := g.persistent.Delete(ctx, keyAuthExpiry); err != nil {
		return fmt.Errorf("clear expired auth expiry: %w", err)
	}
	g.auth = Anonymous
	return nil
}

// Login records a successful sign-in. With remember set the marker goes to
// the persistent scope with a 7-day expiry; otherwise it lives in the
// session scope only. The opposite scope is cleared to avoid conflicts.
func (g *Gate) Login(ctx context.Context, remember bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if remember {
		if err := g.persistent.Set(ctx, keyAuthenticated, "true"); err != nil {
			return fmt.Errorf("persist auth flag: %w", err)
		}
		expiry := time.Now().Add(persistentAuthTTL).UnixMilli()
		if err := g.persistent.Set(ctx, keyAuthExpiry, strconv.FormatInt(expiry, 10)); err != nil {
			return fmt.Errorf("persist auth expiry: %w", err)
		}
		if err := g.session.Delete(ctx, keyAuthenticated); err != nil {
			return fmt.Errorf("clear session auth flag: %w", err)
		}
		g.auth = AuthenticatedPersistent
		return nil
	}

	if err := g.session.Set(ctx, keyAuthenticated, "true"); err != nil {
		return fmt.Errorf("set session auth flag: %w", err)
	}
	if err := g.persistent.Delete(ctx, keyAuthenticated); err != nil {
		return fmt.Errorf("clear persistent auth flag: %w", err)
	}
	if err := g.persistent.Delete(ctx, keyAuthExpiry); err != nil {
		return fmt.Errorf("clear persistent auth expiry: %w", err)
	}
	g.auth = AuthenticatedSession
	return nil
}

// Logout clears the login markers in both scopes.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.persistent.Delete(ctx, keyAuthenticated); err != nil {
		return fmt.Errorf("clear persistent auth flag: %w", err)
	}
	if err := g.persistent.Delete(ctx, keyAuthExpiry); err != nil {
		return fmt.Errorf("clear persistent auth expiry: %w", err)
	}
	if err := g.session.Delete(ctx, keyAuthenticated); err != nil {
		return fmt.Errorf("clear session auth flag: %w", err)
	}
	g.auth = Anonymous
	return nil
}

// Upgrade flips entitlement to Pro on a payment-success signal, real or
// simulated. The Pro flag is persisted without expiry, and authentication is
// forced to persistent so a paying member is never logged out.
func (g *Gate) Upgrade(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.persistent.Set(ctx, keyPro, "true"); err != nil {
		return fmt.Errorf("persist entitlement flag: %w", err)
	}
	if err := g.persistent.Set(ctx, keyAuthenticated, "true"); err != nil {
		return fmt.Errorf("persist auth flag: %w", err)
	}
	if err := g.persistent.Delete(ctx, keyAuthExpiry); err != nil {
		return fmt.Errorf("clear auth expiry: %w", err)
	}
	g.pro = true
	g.auth = AuthenticatedPersistent
	return nil
}

// Downgrade returns entitlement to Free. It only runs on an explicit,
// user-confirmed cancellation; the confirmation itself is the caller's
// concern.
func (g *Gate) Downgrade(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.persistent.Delete(ctx, keyPro); err != nil {
		return fmt.Errorf("clear entitlement flag: %w", err)
	}
	g.pro = false
	return nil
}

// CanCreateProject reports whether a new project may be created: always for
// Pro, and under the free ceiling otherwise.
func (g *Gate) CanCreateProject() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pro || g.projectCount < FreeProjectCeiling
}

// RecordProjectCreated accounts for a successful project creation. While
// Free it increments the persisted counter by exactly one; the counter is
// never decremented or reset. At the ceiling it returns ErrProjectLimit
// without counting. Pro members are never counted or refused. The ceiling
// check and the increment happen under one lock, so concurrent creations
// cannot both slip under the ceiling.
func (g *Gate) RecordProjectCreated(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pro {
		return nil
	}
	if g.projectCount >= FreeProjectCeiling {
		return ErrProjectLimit
	}
	next := g.projectCount + 1
	if err := g.persistent.Set(ctx, keyProjectCount, strconv.Itoa(next)); err != nil {
		return fmt.Errorf("persist project count: %w", err)
	}
	g.projectCount = next
	return nil
}

// Auth returns the current authentication state.
func (g *Gate) Auth() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.auth
}

// Authenticated reports whether any valid login marker exists.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.auth != Anonymous
}

// Pro reports whether the premium tier is active.
func (g *Gate) Pro() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pro
}

// ProjectCount returns the number of free-tier projects created so far.
func (g *Gate) ProjectCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.projectCount
}
