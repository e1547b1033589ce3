package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lpg-backend/internal/auth"
	"lpg-backend/internal/logger"
	"lpg-backend/internal/models"
	"lpg-backend/internal/repositories"
	"lpg-backend/internal/tenant"
	"lpg-backend/pkg/utils"
)

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// authenticate validates the bearer token and returns the current user from
// the database, so deactivation takes effect without waiting for token expiry.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		utils.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization header required"})
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		utils.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		utils.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		return nil, false
	}

	user, err := m.userRepo.Get(r.Context(), claims.UserID)
	if err != nil {
		utils.JSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
		return nil, false
	}

	if !user.IsActive {
		utils.JSON(w, http.StatusForbidden, map[string]string{"error": "account suspended, contact your administrator"})
		return nil, false
	}

	return user, true
}

// Authenticate validates the JWT and sets the tenant scope on the request
// context. All repository access downstream is filtered by that scope.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.authenticate(w, r)
		if !ok {
			return
		}

		ctx := tenant.WithScope(r.Context(), tenant.Scope{AdminID: user.AdminID})
		log := logger.FromContext(ctx).With(
			zap.Int("user_id", user.ID),
			zap.Int("tenant_id", user.AdminID),
			zap.String("role", user.Role),
		)
		ctx = logger.WithContext(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the authenticated user holds one of the allowed roles.
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := m.authenticate(w, r)
			if !ok {
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				utils.JSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
				return
			}

			ctx := tenant.WithScope(r.Context(), tenant.Scope{AdminID: user.AdminID})
			log := logger.FromContext(ctx).With(
				zap.Int("user_id", user.ID),
				zap.Int("tenant_id", user.AdminID),
				zap.String("role", user.Role),
			)
			ctx = logger.WithContext(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards destructive operations.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin)(next)
}
