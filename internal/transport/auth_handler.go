package transport

import (
	"net/http"
	"time"

	"debandi-store/internal/middleware"
	"debandi-store/internal/ratelimit"
	"debandi-store/internal/repository"
	"debandi-store/internal/service"
	"debandi-store/internal/token"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthResponse carries the authenticated user and their session token.
type AuthResponse struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

// AuthHandler handles authentication HTTP requests. Each sensitive endpoint
// is guarded by its own limiter instance.
type AuthHandler struct {
	authService     service.AuthService
	loginLimiter    *ratelimit.Limiter
	registerLimiter *ratelimit.Limiter
	logger          *zap.Logger
	cookieMaxAge    time.Duration
	secureCookies   bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService service.AuthService,
	loginLimiter, registerLimiter *ratelimit.Limiter,
	cookieMaxAge time.Duration,
	secureCookies bool,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		loginLimiter:    loginLimiter,
		registerLimiter: registerLimiter,
		logger:          logger,
		cookieMaxAge:    cookieMaxAge,
		secureCookies:   secureCookies,
	}
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}

// Login authenticates a user. Attempts are throttled per client
// fingerprint; a successful login forgives prior failures.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	clientID := ratelimit.Fingerprint(r)
	ctx := r.Context()

	if h.rejectIfLimited(w, r, h.loginLimiter, clientID) {
		return
	}

	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokenString, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			if recordErr := h.loginLimiter.RecordAttempt(ctx, clientID); recordErr != nil {
				h.logger.Error("Failed to record login attempt", zap.Error(recordErr))
			}
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	if err := h.loginLimiter.Reset(ctx, clientID); err != nil {
		h.logger.Error("Failed to reset login limiter", zap.Error(err))
	}

	h.setSessionCookie(w, tokenString)

	h.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, AuthResponse{User: user, Token: tokenString})
}

// Register creates a new account. Registration is throttled more strictly
// than login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	clientID := ratelimit.Fingerprint(r)
	ctx := r.Context()

	if h.rejectIfLimited(w, r, h.registerLimiter, clientID) {
		return
	}

	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokenString, err := h.authService.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch err {
		case repository.ErrEmailAlreadyExists,
			service.ErrPasswordTooShort,
			service.ErrPasswordTooWeak,
			service.ErrCommonPassword:
			if recordErr := h.registerLimiter.RecordAttempt(ctx, clientID); recordErr != nil {
				h.logger.Error("Failed to record registration attempt", zap.Error(recordErr))
			}
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	if err := h.registerLimiter.Reset(ctx, clientID); err != nil {
		h.logger.Error("Failed to reset register limiter", zap.Error(err))
	}

	h.setSessionCookie(w, tokenString)

	h.logger.Info("User registered", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, AuthResponse{User: user, Token: tokenString})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	tokenString := middleware.ExtractToken(r)
	if tokenString == "" {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.authService.GetCurrentUser(r.Context(), tokenString)
	if err != nil {
		switch err {
		case token.ErrInvalidToken:
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
		case repository.ErrUserNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("Failed to resolve current user", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get user")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Logout clears the session cookie. Tokens themselves stay valid until
// expiry; there is no revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// rejectIfLimited sends a 429 with the window reset time when the client
// has exhausted its attempts. Limiter errors fail open.
func (h *AuthHandler) rejectIfLimited(w http.ResponseWriter, r *http.Request, limiter *ratelimit.Limiter, clientID string) bool {
	ctx := r.Context()

	limited, err := limiter.IsLimited(ctx, clientID)
	if err != nil {
		h.logger.Error("Rate limit check failed", zap.Error(err))
		return false
	}
	if !limited {
		return false
	}

	status, err := limiter.Status(ctx, clientID)
	if err != nil {
		h.logger.Error("Rate limit status failed", zap.Error(err))
		return false
	}

	h.logger.Warn("Authentication attempt rate limited",
		zap.String("client_id", clientID),
		zap.String("path", r.URL.Path),
	)

	middleware.RespondWithErrorDetails(w, http.StatusTooManyRequests, "too many attempts, try again later", map[string]interface{}{
		"resetTime": status.ResetTime,
	})
	return true
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
