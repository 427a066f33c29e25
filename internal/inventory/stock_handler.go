package inventory

import (
	"factory-backend/internal/auth"
	"factory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SetStockRequest struct {
	MaterialID uint             `json:"material_id" validate:"required"`
	Quantity   *decimal.Decimal `json:"quantity" validate:"required"`
}

type StockMovementRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// PUT /api/stocks
func SetStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetStockRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		stock, err := svc.AddOrUpdateStock(c.UserContext(), auth.ActorFromCtx(c), body.MaterialID, *body.Quantity)
		if err != nil {
			return svc.toHTTPError("AddOrUpdateStock", err)
		}
		return c.JSON(toStockResponse(stock))
	}
}

// POST /api/stocks/:materialID/credit
func CreditStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materialID, err := paramID(c, "materialID")
		if err != nil {
			return err
		}
		var body StockMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		stock, err := svc.CreditStock(c.UserContext(), auth.ActorFromCtx(c), materialID, *body.Amount)
		if err != nil {
			return svc.toHTTPError("CreditStock", err)
		}
		return c.JSON(toStockResponse(stock))
	}
}

// POST /api/stocks/:materialID/debit
func DebitStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materialID, err := paramID(c, "materialID")
		if err != nil {
			return err
		}
		var body StockMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		stock, err := svc.DebitStock(c.UserContext(), auth.ActorFromCtx(c), materialID, *body.Amount)
		if err != nil {
			return svc.toHTTPError("DebitStock", err)
		}
		return c.JSON(toStockResponse(stock))
	}
}

// GET /api/stocks
func ListStocksHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stocks, err := svc.ListStocks(c.UserContext())
		if err != nil {
			return svc.toHTTPError("ListStocks", err)
		}
		res := make([]StockResponse, 0, len(stocks))
		for i := range stocks {
			res = append(res, toStockResponse(&stocks[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/stocks/:materialID
func GetStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materialID, err := paramID(c, "materialID")
		if err != nil {
			return err
		}
		stock, err := svc.GetStock(c.UserContext(), materialID)
		if err != nil {
			return svc.toHTTPError("GetStock", err)
		}
		return c.JSON(toStockResponse(stock))
	}
}
