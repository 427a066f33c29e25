package auth

import (
	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Action names an operation the HTTP layer guards.
type Action string

const (
	ActionViewCatalog     Action = "catalog:view"
	ActionManageCatalog   Action = "catalog:manage"
	ActionManageMaterials Action = "materials:manage"
	ActionManageBOM       Action = "bom:manage"
	ActionViewStock       Action = "stock:view"
	ActionManageStock     Action = "stock:manage"
	ActionCreateBatch     Action = "batch:create"
	ActionViewBatches     Action = "batch:view"
	ActionReleaseBatch    Action = "batch:release"
	ActionViewGoods       Action = "goods:view"
	ActionManageParties   Action = "counterparty:manage"
	ActionShip            Action = "shipment:create"
	ActionViewShipments   Action = "shipment:view"
	ActionViewAudit       Action = "audit:view"
	ActionCheckLedger     Action = "ledger:check"
)

// Policy decides whether a role may perform an action.
type Policy interface {
	Allowed(role models.UserRole, action Action) bool
}

// RolePolicy is a static role -> actions table. Admins are allowed everything.
type RolePolicy map[models.UserRole]map[Action]bool

func (p RolePolicy) Allowed(role models.UserRole, action Action) bool {
	if role == models.RoleAdmin {
		return true
	}
	return p[role][action]
}

func grant(actions ...Action) map[Action]bool {
	m := make(map[Action]bool, len(actions))
	for _, a := range actions {
		m[a] = true
	}
	return m
}

func DefaultPolicy() RolePolicy {
	return RolePolicy{
		models.RoleMaterialManager: grant(
			ActionViewCatalog, ActionManageMaterials, ActionManageBOM,
			ActionViewStock, ActionManageStock, ActionViewBatches,
		),
		models.RoleFinishedGoodsManager: grant(
			ActionViewCatalog, ActionManageCatalog, ActionViewStock,
			ActionCreateBatch, ActionViewBatches, ActionReleaseBatch, ActionViewGoods,
		),
		models.RoleSalesDirector: grant(
			ActionViewCatalog, ActionViewBatches, ActionViewGoods,
			ActionManageParties, ActionShip, ActionViewShipments,
		),
	}
}

// Authorize rejects the request with 403 unless the caller's role may perform action.
func Authorize(p Policy, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role missing from token")
		}
		if !p.Allowed(role, action) {
			return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
		}
		return c.Next()
	}
}

// ActorFromCtx reads the authenticated user set by JWTMiddleware.
func ActorFromCtx(c *fiber.Ctx) audit.Actor {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	name, _ := c.Locals(CtxUserNameKey).(string)
	return audit.Actor{UserID: id, UserName: name}
}
