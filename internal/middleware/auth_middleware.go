package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"avs_backend/internal/model"
	"avs_backend/pkg/database"
	"avs_backend/pkg/utils/jwt"
)

// AuthMiddleware Bearer token'ı doğrular ve kullanıcıyı context'e yerleştirir
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format",
			})
		}

		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		var user model.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Inactive user",
			})
		}

		c.Locals("currentUser", &user)
		return c.Next()
	}
}

// AdminMiddleware sadece superuser erişimine izin verir, AuthMiddleware'den sonra çalışır
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !user.IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "The user doesn't have enough privileges",
			})
		}

		return c.Next()
	}
}

// CurrentUser context'teki doğrulanmış kullanıcıyı döner
func CurrentUser(c *fiber.Ctx) *model.User {
	user, ok := c.Locals("currentUser").(*model.User)
	if !ok {
		return nil
	}
	return user
}
