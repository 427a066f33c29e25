package inventory

import (
	"factory-backend/internal/auth"
	"factory-backend/internal/models"
	"factory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateLineRequest struct {
	Name   string           `json:"name" validate:"required,max=100"`
	Volume *decimal.Decimal `json:"volume" validate:"required"`
	Number int              `json:"number" validate:"gte=0"`
}

type CreateProductRequest struct {
	LineID uint             `json:"line_id" validate:"required"`
	Name   string           `json:"name" validate:"required,max=100"`
	GTIN   string           `json:"gtin" validate:"required,max=50"`
	Volume *decimal.Decimal `json:"volume" validate:"required"`
}

type CreateMaterialRequest struct {
	Name string              `json:"name" validate:"required,max=100"`
	Unit models.MaterialUnit `json:"unit" validate:"required,oneof=gram piece liter"`
}

type RenameMaterialRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateBOMLineRequest struct {
	ProductID  uint             `json:"product_id" validate:"required"`
	MaterialID uint             `json:"material_id" validate:"required"`
	Quantity   *decimal.Decimal `json:"quantity" validate:"required"`
}

type CreateCounterpartyRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Address       string `json:"address" validate:"required,max=255"`
	ContactNumber string `json:"contact_number" validate:"required,max=15"`
}

// POST /api/lines
func CreateLineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLineRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		line, err := svc.CreateLine(c.UserContext(), auth.ActorFromCtx(c), LineInput{
			Name: body.Name, Volume: *body.Volume, Number: body.Number,
		})
		if err != nil {
			return svc.toHTTPError("CreateLine", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toLineResponse(line))
	}
}

// GET /api/lines
func ListLinesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lines, err := svc.ListLines(c.UserContext())
		if err != nil {
			return svc.toHTTPError("ListLines", err)
		}
		res := make([]LineResponse, 0, len(lines))
		for i := range lines {
			res = append(res, toLineResponse(&lines[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/products
func CreateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		product, err := svc.CreateProduct(c.UserContext(), auth.ActorFromCtx(c), ProductInput{
			LineID: body.LineID, Name: body.Name, GTIN: body.GTIN, Volume: *body.Volume,
		})
		if err != nil {
			return svc.toHTTPError("CreateProduct", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(product))
	}
}

// GET /api/products?line_id=1
func ListProductsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lineID, err := queryID(c, "line_id")
		if err != nil {
			return err
		}
		products, err := svc.ListProducts(c.UserContext(), lineID)
		if err != nil {
			return svc.toHTTPError("ListProducts", err)
		}
		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/materials
func CreateMaterialHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		material, err := svc.CreateMaterial(c.UserContext(), auth.ActorFromCtx(c), body.Name, body.Unit)
		if err != nil {
			return svc.toHTTPError("CreateMaterial", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(material))
	}
}

// PUT /api/materials/:id
func RenameMaterialHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body RenameMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		material, err := svc.RenameMaterial(c.UserContext(), auth.ActorFromCtx(c), id, body.Name)
		if err != nil {
			return svc.toHTTPError("RenameMaterial", err)
		}
		return c.JSON(toMaterialResponse(material))
	}
}

// GET /api/materials
func ListMaterialsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materials, err := svc.ListMaterials(c.UserContext())
		if err != nil {
			return svc.toHTTPError("ListMaterials", err)
		}
		res := make([]MaterialResponse, 0, len(materials))
		for i := range materials {
			res = append(res, toMaterialResponse(&materials[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/product-materials
func CreateBOMLineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBOMLineRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		pm, err := svc.CreateProductMaterial(c.UserContext(), auth.ActorFromCtx(c), body.ProductID, body.MaterialID, *body.Quantity)
		if err != nil {
			return svc.toHTTPError("CreateProductMaterial", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toBOMLineResponse(pm))
	}
}

// GET /api/product-materials?product_id=1
func ListBOMLinesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := queryID(c, "product_id")
		if err != nil {
			return err
		}
		lines, err := svc.ListProductMaterials(c.UserContext(), productID)
		if err != nil {
			return svc.toHTTPError("ListProductMaterials", err)
		}
		res := make([]BOMLineResponse, 0, len(lines))
		for i := range lines {
			res = append(res, toBOMLineResponse(&lines[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/counterparties
func CreateCounterpartyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCounterpartyRequest
		if err := c.BodyParser(&body); err != nil {
			return bodyError()
		}
		if err := validation.Struct(&body); err != nil {
			return err
		}

		cp, err := svc.CreateCounterparty(c.UserContext(), auth.ActorFromCtx(c), CounterpartyInput{
			Name: body.Name, Address: body.Address, ContactNumber: body.ContactNumber,
		})
		if err != nil {
			return svc.toHTTPError("CreateCounterparty", err)
		}
		return c.Status(fiber.StatusCreated).JSON(toCounterpartyResponse(cp))
	}
}

// GET /api/counterparties
func ListCounterpartiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cps, err := svc.ListCounterparties(c.UserContext())
		if err != nil {
			return svc.toHTTPError("ListCounterparties", err)
		}
		res := make([]CounterpartyResponse, 0, len(cps))
		for i := range cps {
			res = append(res, toCounterpartyResponse(&cps[i]))
		}
		return c.JSON(res)
	}
}
