// Package guard decides, on each page load, whether the user may see the
// page, and drives the login/registration flow. It is the only place that
// reasons about authentication state transitions; pages consume the Outcome
// and perform whatever rendering or navigation it prescribes.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/gateway"
	"github.com/licomnaklavy/edu-platform/internal/nav"
	"github.com/licomnaklavy/edu-platform/internal/session"
)

// State is the authentication state of a page instance
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Action says what the page should do with an Outcome
type Action int

const (
	// ActionRender means the page may render its content
	ActionRender Action = iota
	// ActionRedirect means the page must navigate to Target and stop
	ActionRedirect
)

// Intent is an explicit navigation effect. It is returned, not executed, so
// the decision is testable without a real navigation primitive.
type Intent struct {
	Action Action
	Target nav.Page
}

// Render allows the page to proceed
func Render() Intent {
	return Intent{Action: ActionRender}
}

// Redirect sends the page elsewhere
func Redirect(target nav.Page) Intent {
	return Intent{Action: ActionRedirect, Target: target}
}

// Outcome is the result of a guard decision
type Outcome struct {
	State  State
	Intent Intent
	User   *domain.User
	Err    error
}

// Submission errors
var (
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrActionInFlight = errors.New("action already in flight")
)

// Guard owns the per-page auth-flow state machine
type Guard struct {
	sessions *session.Store
	api      *gateway.Client
	logger   *slog.Logger

	submitting atomic.Bool
	actions    sync.Map // per-resource latch for mutating course actions
}

// New creates a guard over the session store and the gateway
func New(sessions *session.Store, api *gateway.Client, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{sessions: sessions, api: api, logger: logger}
}

// CheckProtected runs the guard for a protected page. Local validity is
// necessary but not sufficient: the token may have been revoked server-side,
// so the identity is always re-verified against the backend before the page
// renders. On verification failure the session is torn down and the page is
// sent to login.
func (g *Guard) CheckProtected(ctx context.Context) Outcome {
	if !g.sessions.IsValid() {
		g.logger.Debug("no valid local session, redirecting to login")
		return Outcome{State: StateUnauthenticated, Intent: Redirect(nav.PageLogin)}
	}

	user, err := g.api.CurrentUser(ctx)
	if err != nil {
		g.logger.Info("session verification failed, logging out", "error", err)
		if clearErr := g.api.Logout(); clearErr != nil {
			g.logger.Warn("clear session", "error", clearErr)
		}
		return Outcome{State: StateUnauthenticated, Intent: Redirect(nav.PageLogin), Err: err}
	}

	// Keep the cached snapshot fresh; the header shows this user on every
	// page.
	if err := g.sessions.UpdateUser(user); err != nil {
		g.logger.Warn("refresh cached user", "error", err)
	}

	return Outcome{State: StateAuthenticated, Intent: Render(), User: user}
}

// CheckEntry runs the guard for the login/registration entry point. A user
// with a valid session has no business on the login page.
func (g *Guard) CheckEntry(ctx context.Context) Outcome {
	if g.sessions.IsValid() {
		return Outcome{State: StateAuthenticated, Intent: Redirect(nav.PageMyCourses)}
	}
	return Outcome{State: StateUnauthenticated, Intent: Render()}
}

// ResolveLanding decides where the index page sends the user. Purely local;
// no backend round trip.
func (g *Guard) ResolveLanding() Outcome {
	if g.sessions.IsValid() {
		return Outcome{State: StateAuthenticated, Intent: Redirect(nav.PageMyCourses)}
	}
	return Outcome{State: StateUnauthenticated, Intent: Redirect(nav.PageLogin)}
}

// SubmitLogin drives a login form submission. While a submission is in
// flight the control is latched so a duplicate submit cannot issue a second
// overlapping request.
func (g *Guard) SubmitLogin(ctx context.Context, email, password string) Outcome {
	return g.submit(func() error {
		_, err := g.api.Login(ctx, email, password)
		return err
	})
}

// SubmitRegister drives a registration form submission; same transitions as
// SubmitLogin.
func (g *Guard) SubmitRegister(ctx context.Context, email, password, name string) Outcome {
	return g.submit(func() error {
		_, err := g.api.Register(ctx, email, password, name)
		return err
	})
}

func (g *Guard) submit(call func() error) Outcome {
	if !g.submitting.CompareAndSwap(false, true) {
		return Outcome{State: StateAuthenticating, Err: ErrSubmitInFlight}
	}
	defer g.submitting.Store(false)

	if err := call(); err != nil {
		// Back to the form, control re-enabled, gateway message verbatim.
		return Outcome{State: StateUnauthenticated, Intent: Render(), Err: err}
	}

	user, _ := g.sessions.ReadUser()
	return Outcome{State: StateAuthenticated, Intent: Redirect(nav.PageMyCourses), User: user}
}

// Logout tears down the session and sends the user to login. Always
// succeeds from the user's point of view: there is no network round trip to
// fail.
func (g *Guard) Logout() Outcome {
	if err := g.api.Logout(); err != nil {
		g.logger.Warn("clear session", "error", err)
	}
	return Outcome{State: StateUnauthenticated, Intent: Redirect(nav.PageLogin)}
}
