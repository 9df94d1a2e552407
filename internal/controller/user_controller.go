package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"avs_backend/internal/middleware"
	"avs_backend/internal/model"
	"avs_backend/internal/repository"
	"avs_backend/pkg/database"
	"avs_backend/pkg/utils/validation"
)

type CreateUserInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

type UpdateUserInput struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

type UpdateMeInput struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	FullName *string `json:"full_name"`
}

// GetUsers kullanıcı listesi (admin)
func GetUsers(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)

	users, err := repository.ListUsers(database.DB, skip, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	total, err := repository.CountUsers(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count users",
		})
	}

	profiles := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].GetPublicProfile())
	}

	return c.JSON(fiber.Map{
		"users": profiles,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

// GetUsersWithStats abonelik ve ay içi kullanım özetiyle kullanıcı listesi (admin)
func GetUsersWithStats(c *fiber.Ctx) error {
	skip, limit := paginationParams(c)
	search := c.Query("search")

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		value := raw == "true"
		isActive = &value
	}

	users, err := repository.ListUsersWithStats(database.DB, search, isActive, skip, limit, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"skip":  skip,
		"limit": limit,
	})
}

// CreateUser admin tarafından kullanıcı oluşturma
func CreateUser(c *fiber.Ctx) error {
	var input CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := repository.GetUserByEmail(database.DB, input.Email); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A user with this email already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing user",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	user := model.User{
		Email:       input.Email,
		Password:    string(hashedPassword),
		FullName:    input.FullName,
		IsActive:    isActive,
		IsSuperuser: input.IsSuperuser,
	}
	if err := repository.CreateUser(database.DB, &user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(user.GetPublicProfile())
}

// GetMe oturum açmış kullanıcının profili
func GetMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(user.GetPublicProfile())
}

// UpdateMe kullanıcının kendi profilini güncellemesi
func UpdateMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input UpdateMeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if input.Email != nil && *input.Email != user.Email {
		if _, err := repository.GetUserByEmail(database.DB, *input.Email); err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "A user with this email already exists",
			})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check existing user",
			})
		}
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to hash password",
			})
		}
		updates["password"] = string(hashedPassword)
	}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}

	if len(updates) > 0 {
		if err := repository.UpdateUser(database.DB, user, updates); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update user",
			})
		}
	}

	return c.JSON(user.GetPublicProfile())
}

// GetMyDashboard kullanıcının kendi paneli
func GetMyDashboard(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	dashboard, err := repository.GetUserDashboardStats(database.DB, user.ID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	return c.JSON(dashboard)
}

// GetUser kullanıcı detayı; admin değilse sadece kendi kaydı
func GetUser(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if !canAccessUser(current, uint(id)) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The user doesn't have enough privileges",
		})
	}

	user, err := repository.GetUserByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(user.GetPublicProfile())
}

// GetUserDashboard belirli bir kullanıcının paneli (admin)
func GetUserDashboard(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if _, err := repository.GetUserByID(database.DB, uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	dashboard, err := repository.GetUserDashboardStats(database.DB, uint(id), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	return c.JSON(dashboard)
}

// UpdateUser admin tarafından kullanıcı güncelleme
func UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	user, err := repository.GetUserByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var input UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if input.Email != nil && *input.Email != user.Email {
		if _, err := repository.GetUserByEmail(database.DB, *input.Email); err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "A user with this email already exists",
			})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check existing user",
			})
		}
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to hash password",
			})
		}
		updates["password"] = string(hashedPassword)
	}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsSuperuser != nil {
		updates["is_superuser"] = *input.IsSuperuser
	}

	if len(updates) > 0 {
		if err := repository.UpdateUser(database.DB, user, updates); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update user",
			})
		}
	}

	return c.JSON(user.GetPublicProfile())
}

// DeleteUser kullanıcıyı bağlı kayıtlarıyla birlikte siler (admin)
func DeleteUser(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if current.ID == uint(id) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Users cannot delete themselves",
		})
	}

	if _, err := repository.GetUserByID(database.DB, uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if err := repository.DeleteUserCascade(database.DB, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// ActivateUser kullanıcıyı aktifleştirir (admin)
func ActivateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	user, err := repository.GetUserByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if err := repository.UpdateUser(database.DB, user, map[string]interface{}{"is_active": true}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to activate user",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User activated successfully",
		"user":    user.GetPublicProfile(),
	})
}

// DeactivateUser kullanıcıyı pasifleştirir; kendi hesabında izin verilmez (admin)
func DeactivateUser(c *fiber.Ctx) error {
	current := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if current.ID == uint(id) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Users cannot deactivate themselves",
		})
	}

	user, err := repository.GetUserByID(database.DB, uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if err := repository.UpdateUser(database.DB, user, map[string]interface{}{"is_active": false}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate user",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User deactivated successfully",
		"user":    user.GetPublicProfile(),
	})
}
