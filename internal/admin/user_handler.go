package admin

import (
	"errors"
	"fmt"
	"strconv"

	"factory-backend/internal/audit"
	"factory-backend/internal/auth"
	"factory-backend/internal/models"
	"factory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// auditUser is the journal snapshot of a user; the password hash stays out.
type auditUser struct {
	ID    uint            `json:"id"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

var errLastAdmin = fiber.NewError(fiber.StatusConflict, "at least one admin must remain")

func userIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return uint(id), nil
}

func lockUser(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

func otherAdmins(tx *gorm.DB, id uint) (int64, error) {
	var n int64
	err := tx.Model(&models.User{}).Where("role = ? AND id <> ?", models.RoleAdmin, id).Count(&n).Error
	return n, err
}

func internalOr(err error, msg string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// GET /api/admin/users?role=sales_director
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext()).Model(&models.User{})
		if role := models.UserRole(c.Query("role")); role != "" {
			if !role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "unknown role")
			}
			q = q.Where("role = ?", role)
		}

		var users []models.User
		if err := q.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/users/:id/role
func UpdateUserRoleHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}
		var body UpdateUserRoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}
		if !body.Role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown role")
		}

		var updated models.User
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			u, err := lockUser(tx, id)
			if err != nil {
				return err
			}
			if u.Role == body.Role {
				updated = *u
				return nil
			}
			if u.Role == models.RoleAdmin {
				n, err := otherAdmins(tx, u.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return errLastAdmin
				}
			}

			before := auditUser{ID: u.ID, Email: u.Email, Role: u.Role}
			if err := tx.Model(u).Update("role", body.Role).Error; err != nil {
				return err
			}
			updated = *u
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       auth.ActorFromCtx(c),
				EntityType:  "user",
				EntityID:    u.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("role of %s changed from %s to %s", u.Email, before.Role, body.Role),
				Before:      before,
				After:       auditUser{ID: u.ID, Email: u.Email, Role: body.Role},
			})
		})
		if err != nil {
			return internalOr(err, "could not update user")
		}
		return c.JSON(toUserResponse(&updated))
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}
		actor := auth.ActorFromCtx(c)
		if actor.UserID == id {
			return fiber.NewError(fiber.StatusConflict, "you cannot delete your own account")
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			u, err := lockUser(tx, id)
			if err != nil {
				return err
			}
			if u.Role == models.RoleAdmin {
				n, err := otherAdmins(tx, u.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return errLastAdmin
				}
			}
			if err := tx.Delete(u).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  "user",
				EntityID:    u.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("user %s deleted", u.Email),
				Before:      auditUser{ID: u.ID, Email: u.Email, Role: u.Role},
			})
		})
		if err != nil {
			return internalOr(err, "could not delete user")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
