package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/averix/identity/middleware/bearer"
	"github.com/averix/identity/middleware/requestid"
	"github.com/averix/identity/services/authn"
	"github.com/averix/identity/services/logging"
	"github.com/averix/identity/services/users"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler exposes the account lifecycle over HTTP. It only translates
// between the wire and the authentication service; all policy lives below.
type AuthHandler struct {
	auth     *authn.Service
	accounts *users.Store
	logger   *logging.Service
}

func NewAuthHandler(auth *authn.Service, accounts *users.Store, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		accounts: accounts,
		logger:   logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	ack, err := h.auth.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: ack})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	account, err := h.auth.ValidateCredentials(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	result, err := h.auth.Login(c.Request().Context(), account)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ack, err := h.auth.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: ack})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	result, err := h.auth.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Me returns the live account behind the presented access token.
func (h *AuthHandler) Me(c echo.Context) error {
	account, err := h.accounts.FindByID(c.Request().Context(), bearer.GetAccountID(c))
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, account.Profile())
}

func (h *AuthHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, authn.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	case errors.Is(err, authn.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	case errors.Is(err, authn.ErrInvalidOrExpiredCode):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired code"})
	case errors.Is(err, authn.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, authn.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	default:
		// Infrastructure failure; never leak details to the client.
		h.requestLogger(c).Error("request failed", zap.Error(err), zap.String("path", c.Path()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// requestLogger scopes the handler logger to the request's correlation
// identifier, so every line for one request can be grepped together.
func (h *AuthHandler) requestLogger(c echo.Context) *logging.Service {
	if id := requestid.FromContext(c.Request().Context()); id != "" {
		return h.logger.With(zap.String("request_id", id))
	}
	return h.logger
}
