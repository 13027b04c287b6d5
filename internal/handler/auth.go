package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // sql.ErrNoRows marks a missing account or token
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/document-tracking/internal/config"
	"github.com/iliyamo/document-tracking/internal/model"
	"github.com/iliyamo/document-tracking/internal/repository"
	"github.com/iliyamo/document-tracking/internal/utils"
)

// AccountStore is the subset of repository.AccountRepo used by AuthHandler.
type AccountStore interface {
	Create(ctx context.Context, a model.NewAccount) error
	GetByUsername(ctx context.Context, kind model.AccountKind, username string) (model.Account, error)
	GetByEmail(ctx context.Context, kind model.AccountKind, email string) (model.Account, error)
	StoreResetToken(ctx context.Context, kind model.AccountKind, email, tokenHash string, expiry time.Time) error
	ResetPassword(ctx context.Context, kind model.AccountKind, tokenHash, passwordHash string, now time.Time) error
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordResetEmail(toEmail, resetLink string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountStore
	Mailer   ResetMailer
	Now      func() time.Time
}

func NewAuthHandler(cfg config.Config, accounts AccountStore, mailer ResetMailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Mailer: mailer, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	OfficeName string `json:"officeName"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type forgotReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type resetReq struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userPart struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Designation *string `json:"designation"`
	Role        string  `json:"role"`
}

type loginResp struct {
	Message string    `json:"message"`
	User    userPart  `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

const msgServerError = "Server error"

// Register creates a citizen, organization or admin account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.Username == "" || req.Email == "" || req.Contact == "" || req.Password == "" || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "All required fields (username, email, contact, password, role) must be provided."})
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Role must be citizen, organization or admin."})
	}
	if role == model.RoleOrganization && strings.TrimSpace(req.OfficeName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Organization name is required for the organization role."})
	}
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please enter a valid email address."})
	}
	if !validContact(req.Contact) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Contact number must be exactly 10 digits."})
	}
	if len(req.Password) > maxPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPasswordTooLong})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("register: hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Accounts.Create(ctx, model.NewAccount{
		Role:         role,
		Username:     req.Username,
		Email:        req.Email,
		Contact:      req.Contact,
		PasswordHash: hash,
		OfficeName:   req.OfficeName,
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Username already taken."})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email address already registered."})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "User with this information already exists."})
	default:
		c.Logger().Errorf("register %s: %v", role, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": role.Title() + " registered successfully!"})
}

// Login checks the password against the table the role maps to.  An
// unknown username and a wrong password produce the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username, password, and role are required."})
	}
	kind := model.KindOf(model.NormalizeRole(req.Role))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByUsername(ctx, kind, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same bcrypt work as a wrong password, so timing does not
			// reveal whether the username exists.
			utils.VerifyDummyPassword(req.Password, h.Cfg.BcryptCost)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		c.Logger().Errorf("login %s: %v", kind, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc.Username, acc.Email, string(acc.Role), h.Cfg.AccessTTLMin, h.Now())
	if err != nil {
		c.Logger().Errorf("login: issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	return c.JSON(http.StatusOK, loginResp{
		Message: "Logged in successfully!",
		User:    userPart{Username: acc.Username, Email: acc.Email, Role: string(acc.Role)},
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// ForgotPassword stores a fresh reset token for the account and mails the
// link.  A new token replaces any earlier one.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	role := strings.TrimSpace(req.Role)
	kind := model.KindOf(model.NormalizeRole(role))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, kind, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User with role '" + role + "' not found."})
		}
		c.Logger().Errorf("forgot password %s: %v", kind, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}

	raw, err := utils.NewResetToken()
	if err != nil {
		c.Logger().Errorf("forgot password: token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	expiry := h.Now().Add(h.Cfg.ResetTokenTTL)
	if err := h.Accounts.StoreResetToken(ctx, kind, acc.Email, utils.HashToken(raw), expiry); err != nil {
		c.Logger().Errorf("forgot password: store token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}

	if err := h.Mailer.SendPasswordResetEmail(acc.Email, h.resetLink(raw, role)); err != nil {
		c.Logger().Errorf("forgot password: send mail to %s: %v", acc.Email, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error while sending reset email."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Reset link sent to your email"})
}

func (h *AuthHandler) resetLink(rawToken, role string) string {
	return h.Cfg.FrontendURL + "/reset-password/" + url.PathEscape(rawToken) + "?role=" + url.QueryEscape(role)
}

// ResetPassword redeems a reset token.  The token is cleared by the same
// statement that sets the password, so it works exactly once.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password and role are required."})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 6 characters long."})
	}
	if len(req.Password) > maxPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPasswordTooLong})
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired token. Please try again."})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("reset password: hash: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	kind := model.KindOf(model.NormalizeRole(req.Role))
	if err := h.Accounts.ResetPassword(ctx, kind, utils.HashToken(token), hash, h.Now()); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired token. Please try again."})
		}
		c.Logger().Errorf("reset password %s: %v", kind, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been updated successfully."})
}
