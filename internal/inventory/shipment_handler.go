package inventory

import (
	"factory-backend/internal/auth"
	"factory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateShipmentRequest struct {
	ProductID      uint             `json:"product_id" validate:"required"`
	BatchID        uint             `json:"batch_id" validate:"required"`
	CounterpartyID uint             `json:"counterparty_id" validate:"required"`
	Quantity       *decimal.Decimal `json:"quantity" validate:"required"`
	ShipmentDate   string           `json:"shipment_date" validate:"required"`
}

type AddShipmentItemRequest struct {
	ProductID uint             `json:"product_id" validate:"required"`
	BatchID   uint             `json:"batch_id" validate:"required"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
}

// POST /api/shipments
func CreateShipmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateShipmentRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}
		date, err := parseDate("shipment_date", body.ShipmentDate)
		if err != nil {
			return err
		}

		shipment, err := svc.CreateShipment(c.UserContext(), auth.ActorFromCtx(c), ShipmentInput{
			ProductID:      body.ProductID,
			BatchID:        body.BatchID,
			CounterpartyID: body.CounterpartyID,
			Quantity:       *body.Quantity,
			ShipmentDate:   date,
		})
		if err != nil {
			return svc.toHTTPError("CreateShipment", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toShipmentResponse(shipment))
	}
}

// POST /api/shipments/:id/items
func AddShipmentItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shipmentID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body AddShipmentItemRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		item, err := svc.AddShipmentItem(c.UserContext(), auth.ActorFromCtx(c), shipmentID, ShipmentItemInput{
			ProductID: body.ProductID, BatchID: body.BatchID, Quantity: *body.Quantity,
		})
		if err != nil {
			return svc.toHTTPError("AddShipmentItem", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toShipmentItemResponse(item))
	}
}

// GET /api/shipments?start_date=2024-06-01&end_date=2024-06-30&counterparty_id=3
func ListShipmentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := queryDateRange(c)
		if err != nil {
			return err
		}
		counterpartyID, err := queryID(c, "counterparty_id")
		if err != nil {
			return err
		}

		shipments, err := svc.ListShipments(c.UserContext(), ShipmentFilter{From: from, To: to, CounterpartyID: counterpartyID})
		if err != nil {
			return svc.toHTTPError("ListShipments", err)
		}
		res := make([]ShipmentResponse, 0, len(shipments))
		for i := range shipments {
			res = append(res, toShipmentResponse(&shipments[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/shipments/:id
func GetShipmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		shipment, err := svc.GetShipment(c.UserContext(), id)
		if err != nil {
			return svc.toHTTPError("GetShipment", err)
		}
		return c.JSON(toShipmentResponse(shipment))
	}
}
