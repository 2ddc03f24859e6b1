// internal/app/features/authgoogle/handler.go
package authgoogle

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) of a users record
//   - ExternalID / external_id: Google's subject id ("sub"); the QR badge encodes it

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/festhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/normalize"
	"github.com/dalemusser/festhub/internal/app/system/timeouts"
	"github.com/dalemusser/festhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long a user may sit on Google's consent screen.
const stateTTL = 10 * time.Minute

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.festhub.in/auth/google/callback"

	// FrontendURL prefixes post-login redirects; the UI is hosted separately.
	FrontendURL string

	// AdminEmails are promoted to the admin role when they sign in with a
	// verified address.
	AdminEmails map[string]bool

	// Overridable in tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL, frontendURL string,
	adminEmails []string,
	logger *zap.Logger,
) *Handler {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalize.Email(e); e != "" {
			admins[e] = true
		}
	}
	return &Handler{
		Users:        userstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		FrontendURL:  strings.TrimRight(frontendURL, "/"),
		AdminEmails:  admins,
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToFrontend(w, r, "/login?error=google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "/login?error=internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "/login?error=internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, finds or creates the user,   |
| and starts the session.                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToFrontend(w, r, "/login?error=google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToFrontend(w, r, "/login?error=invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "/login?error=internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToFrontend(w, r, "/login?error=invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToFrontend(w, r, "/login?error=invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToFrontend(w, r, "/login?error=token_exchange")
		return
	}

	googleUser, err := h.fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToFrontend(w, r, "/login?error=user_info")
		return
	}

	u, created, err := h.findOrCreateUser(ctxTimeout, googleUser)
	if err != nil {
		h.Log.Error("failed to look up user", zap.Error(err), zap.String("google_id", googleUser.ID))
		h.redirectToFrontend(w, r, "/login?error=internal")
		return
	}

	h.createSessionAndRedirect(w, r, u, created, returnURL)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func (h *Handler) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("user info has no subject id")
	}

	return &info, nil
}

// findOrCreateUser returns the user linked to the Google subject id. A first
// login creates the record from the Google profile with zero points; later
// logins leave the profile the attendee filled in untouched.
func (h *Handler) findOrCreateUser(ctx context.Context, g *googleUserInfo) (*models.User, bool, error) {
	u, err := h.Users.GetByExternalID(ctx, g.ID)
	created := false
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		u, created, err = h.Users.Upsert(ctx, g.ID, userstore.Profile{
			FirstName:   g.GivenName,
			LastName:    g.FamilyName,
			DisplayName: g.Name,
			PhotoURL:    g.Picture,
			Email:       g.Email,
		})
		if err != nil {
			return nil, false, err
		}
	case err != nil:
		return nil, false, err
	}

	if g.EmailVerified && h.AdminEmails[normalize.Email(g.Email)] && u.Role != models.RoleAdmin {
		if err := h.Users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return nil, false, err
		}
		u.Role = models.RoleAdmin
		h.Log.Info("promoted configured admin", zap.String("user_id", u.ID.Hex()))
	}
	return u, created, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// createSessionAndRedirect creates an authenticated session and redirects to
// the front end. New users land on the profile form so they can add their
// college.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, created bool, returnURL string) {
	if _, err := h.SessionMgr.GetSession(r); err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		}
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.redirectToFrontend(w, r, "/login?error=session")
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.Bool("new_user", created))

	dest := urlutil.SafeReturn(returnURL, "", "/")
	if created {
		dest = "/profile?new=1"
	}
	h.redirectToFrontend(w, r, dest)
}

func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.FrontendURL+path, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
