package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/atrium-edu/atrium-go-api/internal/utils"
)

// accessClaims is the token payload the platform issues: the registered
// subject carries the numeric user id, "role" the caller's role.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProtected validates HS256 bearer tokens and stores the caller's
// identity in request locals ("user_id", "user_role") for the RBAC and
// rate-limit middlewares downstream.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &accessClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals("user_id", uint(userID))
		if role := canonicalRole(claims.Role); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// canonicalRole maps the role claim onto the roles the API understands.
// Instructor-side synonyms collapse to faculty so the RBAC checks only ever
// see the two canonical values.
func canonicalRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case RoleFaculty, "teacher", "instructor", "admin":
		return RoleFaculty
	case RoleStudent, "learner":
		return RoleStudent
	default:
		return ""
	}
}
