package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"merchcrm/internal/model"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context keys set on authenticated requests
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxRoleName  = "roleName"
)

var jwtSecret []byte

// Init wires the middleware package with its JWT secret and DB handle for
// permission lookups
func Init(secret []byte, db *gorm.DB) {
	jwtSecret = secret
	permDB = db
}

// JWTSecret exposes the configured secret (websocket handshake reuses it)
func JWTSecret() []byte {
	return jwtSecret
}

// SetSessionCookie sets the access token as an HttpOnly cookie
func SetSessionCookie(c *gin.Context, token string, release bool) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if release {
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, 3600*24, "/", "", secure, true)
}

// ClearSessionCookie removes the access token cookie
func ClearSessionCookie(c *gin.Context, release bool) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if release {
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// extractToken reads the token from the cookie first, then the bearer header
func extractToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, true
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// parseClaims validates the JWT and returns its claims
func parseClaims(tokenString string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// RequireAuth validates the session token and stores the principal on the
// request context
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Не авторизован"))
			return
		}

		claims, ok := parseClaims(tokenString)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Не авторизован"))
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Не авторизован"))
			return
		}

		email, _ := claims["email"].(string)
		roleName, _ := claims["role"].(string)

		c.Set(CtxUserID, userID)
		c.Set(CtxUserEmail, email)
		c.Set(CtxRoleName, roleName)
		c.Next()
	}
}

// RequireAdmin allows only the built-in administrator role or roles granted
// edit access to the users section
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName := c.GetString(CtxRoleName)
		if roleName == model.AdminRoleName {
			c.Next()
			return
		}

		matrix, err := matrixForRole(roleName)
		if err != nil || !matrix.Allows("users", "edit") {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Доступ запрещен"))
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller's role matrix for one section/action pair.
// The administrator role always passes.
func RequirePermission(section, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName := c.GetString(CtxRoleName)
		if roleName == model.AdminRoleName {
			c.Next()
			return
		}

		matrix, err := matrixForRole(roleName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Не удалось проверить права доступа"))
			return
		}
		if !matrix.Allows(section, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Доступ запрещен"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id from the request context
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// --- Permission matrix cache ---

type matrixCacheEntry struct {
	matrix    model.PermissionMatrix
	expiresAt time.Time
}

var (
	matrixCache    sync.Map // role name -> matrixCacheEntry
	matrixCacheTTL = 5 * time.Minute
	permDB         *gorm.DB
)

// matrixForRole returns the cached or freshly loaded permission matrix for a
// role name. Unknown roles resolve to an empty matrix.
func matrixForRole(roleName string) (model.PermissionMatrix, error) {
	if entry, ok := matrixCache.Load(roleName); ok {
		cached := entry.(matrixCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.matrix, nil
		}
	}

	if permDB == nil {
		return nil, gorm.ErrInvalidDB
	}

	var role model.Role
	err := permDB.Where("name = ?", roleName).First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.PermissionMatrix{}, nil
		}
		return nil, err
	}

	matrixCache.Store(roleName, matrixCacheEntry{
		matrix:    role.Permissions,
		expiresAt: time.Now().Add(matrixCacheTTL),
	})
	return role.Permissions, nil
}

// ClearPermissionCache drops cached permissions for one role, or all roles
// when name is empty. Called after any role mutation.
func ClearPermissionCache(roleName string) {
	if roleName == "" {
		matrixCache.Range(func(key, _ interface{}) bool {
			matrixCache.Delete(key)
			return true
		})
		return
	}
	matrixCache.Delete(roleName)
}
