package inventory

import (
	"factory-backend/internal/auth"
	"factory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateBatchRequest struct {
	ProductID      uint   `json:"product_id" validate:"required"`
	LineID         uint   `json:"line_id" validate:"required"`
	ProductionDate string `json:"production_date" validate:"required"`
}

type ReleaseRequest struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

// POST /api/batches
func CreateBatchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}
		date, err := parseDate("production_date", body.ProductionDate)
		if err != nil {
			return err
		}

		batch, err := svc.CreateBatch(c.UserContext(), auth.ActorFromCtx(c), BatchInput{
			ProductID: body.ProductID, LineID: body.LineID, ProductionDate: date,
		})
		if err != nil {
			return svc.toHTTPError("CreateBatch", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
	}
}

// GET /api/batches?start_date=2024-06-01&end_date=2024-06-30&product_id=1
func ListBatchesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := queryDateRange(c)
		if err != nil {
			return err
		}
		productID, err := queryID(c, "product_id")
		if err != nil {
			return err
		}

		batches, err := svc.ListBatches(c.UserContext(), BatchFilter{From: from, To: to, ProductID: productID})
		if err != nil {
			return svc.toHTTPError("ListBatches", err)
		}
		res := make([]BatchResponse, 0, len(batches))
		for i := range batches {
			res = append(res, toBatchResponse(&batches[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/batches/:id
func GetBatchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		batch, err := svc.GetBatch(c.UserContext(), id)
		if err != nil {
			return svc.toHTTPError("GetBatch", err)
		}
		return c.JSON(toBatchResponse(batch))
	}
}

// POST /api/batches/:id/release
func ReleaseBatchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body ReleaseRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		res, err := svc.ReleaseProducts(c.UserContext(), auth.ActorFromCtx(c), id, *body.Quantity)
		if err != nil {
			return svc.toHTTPError("ReleaseProducts", err)
		}
		return c.JSON(toReleaseResponse(res))
	}
}

// GET /api/finished-goods?product_id=1&open=true
func ListFinishedGoodsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := queryID(c, "product_id")
		if err != nil {
			return err
		}
		rows, err := svc.ListFinishedGoods(c.UserContext(), FinishedGoodsFilter{
			ProductID: productID,
			OpenOnly:  c.QueryBool("open", false),
		})
		if err != nil {
			return svc.toHTTPError("ListFinishedGoods", err)
		}
		res := make([]FinishedGoodsResponse, 0, len(rows))
		for i := range rows {
			res = append(res, toFinishedGoodsResponse(&rows[i]))
		}
		return c.JSON(res)
	}
}
