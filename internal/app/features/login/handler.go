// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Login / login: The email or username a user types to sign in

import (
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/ratelimit"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"github.com/dalemusser/codeswitch/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const tokenType = "bearer"

var errBadCredentials = apperr.Unauthorized("incorrect email/username or password")

type Handler struct {
	Users      *userstore.Store
	Tokens     *auth.Tokens
	Limiter    *ratelimit.LoginLimiter
	BcryptCost int // 0 means bcrypt.DefaultCost
	Audit      *auditlog.Logger
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, tokens *auth.Tokens, bcryptCost int, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Tokens:     tokens,
		Limiter:    ratelimit.NewLoginLimiter(),
		BcryptCost: bcryptCost,
		Audit:      audit,
		Log:        logger,
		ErrLog:     errLog,
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatar_url"`
}

// Register creates an account.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonio.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "decode register body", err)
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		h.ErrLog.Respond(w, r, "register", apperr.BadRequest("password must be at least 6 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		AvatarURL:    strings.TrimSpace(req.AvatarURL),
		PasswordHash: hash,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create user failed", err)
		return
	}

	h.Audit.UserRegistered(ctx, r, u.ID, u.Username)
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))
	jsonio.Write(w, http.StatusCreated, u)
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user,omitempty"`
}

// Login exchanges credentials for an access token. It accepts a JSON body
// or the OAuth2 password form (username, password).
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	login, password, err := readCredentials(r)
	if err != nil {
		h.ErrLog.Respond(w, r, "decode login body", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok, reason := h.Limiter.Check(r, login); !ok {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)), zap.String("login", login))
		h.Audit.LoginFailedRateLimit(ctx, r, login, reason)
		jsonio.Write(w, http.StatusTooManyRequests, map[string]string{"detail": reason})
		return
	}

	u, err := h.Users.GetByLogin(ctx, login)
	switch {
	case apperr.KindOf(err) == apperr.KindNotFound:
		h.Audit.LoginFailedUserNotFound(ctx, r, login)
		h.ErrLog.Respond(w, r, "login", errBadCredentials)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load user for login failed", err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, login)
		h.ErrLog.Respond(w, r, "login", errBadCredentials)
		return
	}
	// inactive accounts get the same answer as a bad password
	if !u.IsActive {
		h.Audit.LoginFailedUserInactive(ctx, r, u.ID, login)
		h.ErrLog.Respond(w, r, "login", errBadCredentials)
		return
	}
	h.Limiter.Succeeded(login)

	tok, exp, err := h.Tokens.Issue(u.ID.Hex())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token failed", err)
		return
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, login)
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()))
	jsonio.OK(w, tokenResponse{AccessToken: tok, TokenType: tokenType, ExpiresAt: exp, User: u})
}

type guestResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserType    string `json:"user_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Guest issues a read-only guest token. No account is created.
// POST /auth/guest
func (h *Handler) Guest(w http.ResponseWriter, r *http.Request) {
	tok, exp, err := h.Tokens.IssueGuest()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue guest token failed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	h.Audit.GuestTokenIssued(ctx, r)
	jsonio.OK(w, guestResponse{
		AccessToken: tok,
		TokenType:   tokenType,
		UserType:    auth.TypeGuest,
		ExpiresIn:   int64(time.Until(exp).Round(time.Second) / time.Second),
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (login, password string, err error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return "", "", apperr.BadRequest("invalid form body")
		}
		login, password = r.PostFormValue("username"), r.PostFormValue("password")
	} else {
		var req loginRequest
		if err := jsonio.Decode(r, &req); err != nil {
			return "", "", err
		}
		login = firstNonEmpty(req.Login, req.Username, req.Email)
		password = req.Password
	}
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", "", apperr.BadRequest("username and password are required")
	}
	return login, password, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
