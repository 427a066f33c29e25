package inventory

import (
	"fmt"
	"strings"
	"time"

	"factory-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/stocks/import (multipart, field "file")
func ImportStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload missing: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload")
		}
		defer file.Close()

		res, err := svc.ImportStockWorkbook(c.UserContext(), auth.ActorFromCtx(c), file)
		if err != nil {
			return svc.toHTTPError("ImportStockWorkbook", err)
		}
		return c.JSON(fiber.Map{
			"updated":   res.Updated,
			"unmatched": res.Unmatched,
			"ambiguous": res.Ambiguous,
			"message": fmt.Sprintf("%d stock rows updated, %d names unmatched, %d ambiguous",
				res.Updated, len(res.Unmatched), len(res.Ambiguous)),
		})
	}
}

// GET /api/reports/stock.xlsx
func ExportStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		buf, err := svc.ExportStockWorkbook(c.UserContext())
		if err != nil {
			return svc.toHTTPError("ExportStockWorkbook", err)
		}
		name := "stock-" + time.Now().UTC().Format(apiDateLayout) + ".xlsx"
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(buf.Bytes())
	}
}

// GET /api/admin/consistency
func ConsistencyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		issues, err := svc.CheckConsistency(c.UserContext())
		if err != nil {
			return svc.toHTTPError("CheckConsistency", err)
		}
		return c.JSON(fiber.Map{
			"consistent": len(issues) == 0,
			"issues":     issues,
		})
	}
}
