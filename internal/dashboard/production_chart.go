package dashboard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"factory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type ChartPoint struct {
	Label    string `json:"label"` // bucket start, YYYY-MM-DD
	Released string `json:"released"`
	Shipped  string `json:"shipped"`
}

type ChartTotals struct {
	Released string `json:"released"`
	Shipped  string `json:"shipped"`
}

type ChartResponse struct {
	ProductID   uint         `json:"product_id,omitempty"`
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

type ChartQuery struct {
	Period    Period
	Count     int // zero picks the period's default
	ProductID uint
	Now       time.Time
}

func defaultCount(p Period) int {
	switch p {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	}
	return 7
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(p Period, t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodWeekly:
		offset := (int(d.Weekday()) + 6) % 7 // monday
		return d.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// window returns the first bucket start and the last day covered.
func window(p Period, count int, now time.Time) (from, to time.Time) {
	last := bucketStart(p, now)
	switch p {
	case PeriodWeekly:
		return last.AddDate(0, 0, -7*(count-1)), last.AddDate(0, 0, 6)
	case PeriodMonthly:
		return last.AddDate(0, -(count - 1), 0), last.AddDate(0, 1, -1)
	}
	return last.AddDate(0, 0, -(count - 1)), last
}

func next(p Period, t time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

type dated struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// ProductionChart sums released batch quantities (by production date) and
// shipped quantities (by shipment date) per period bucket. Empty buckets are
// included so the series has exactly Count points.
func ProductionChart(ctx context.Context, db *gorm.DB, q ChartQuery) (*ChartResponse, error) {
	switch q.Period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	case "":
		q.Period = PeriodDaily
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
	}
	if q.Count < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "count must be positive")
	}
	if q.Count == 0 {
		q.Count = defaultCount(q.Period)
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	from, to := window(q.Period, q.Count, q.Now)
	dbc := db.WithContext(ctx)

	var released []dated
	rq := dbc.Model(&models.Batch{}).
		Select("production_date AS date, quantity").
		Where("quantity > 0 AND production_date BETWEEN ? AND ?", from, to)
	if q.ProductID != 0 {
		rq = rq.Where("product_id = ?", q.ProductID)
	}
	if err := rq.Scan(&released).Error; err != nil {
		return nil, err
	}

	var shipped []dated
	sq := dbc.Model(&models.Shipment{}).
		Select("shipment_date AS date, quantity").
		Where("shipment_date BETWEEN ? AND ?", from, to)
	if q.ProductID != 0 {
		sq = sq.Where("product_id = ?", q.ProductID)
	}
	if err := sq.Scan(&shipped).Error; err != nil {
		return nil, err
	}

	var items []dated
	iq := dbc.Table("shipment_items").
		Select("shipments.shipment_date AS date, shipment_items.quantity").
		Joins("JOIN shipments ON shipments.id = shipment_items.shipment_id").
		Where("shipments.shipment_date BETWEEN ? AND ?", from, to)
	if q.ProductID != 0 {
		iq = iq.Where("shipment_items.product_id = ?", q.ProductID)
	}
	if err := iq.Scan(&items).Error; err != nil {
		return nil, err
	}

	type agg struct{ released, shipped decimal.Decimal }
	buckets := make(map[time.Time]*agg, q.Count)
	starts := make([]time.Time, 0, q.Count)
	for b := from; !b.After(to); b = next(q.Period, b) {
		buckets[b] = &agg{}
		starts = append(starts, b)
	}
	add := func(rows []dated, outbound bool) {
		for _, r := range rows {
			a, ok := buckets[bucketStart(q.Period, r.Date)]
			if !ok {
				continue
			}
			if outbound {
				a.shipped = a.shipped.Add(r.Quantity)
			} else {
				a.released = a.released.Add(r.Quantity)
			}
		}
	}
	add(released, false)
	add(shipped, true)
	add(items, true)

	resp := &ChartResponse{
		ProductID: q.ProductID,
		Period:    q.Period,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Points:    make([]ChartPoint, 0, len(starts)),
	}
	var totalReleased, totalShipped decimal.Decimal
	for _, s := range starts {
		a := buckets[s]
		resp.Points = append(resp.Points, ChartPoint{
			Label:    s.Format("2006-01-02"),
			Released: a.released.StringFixed(2),
			Shipped:  a.shipped.StringFixed(2),
		})
		totalReleased = totalReleased.Add(a.released)
		totalShipped = totalShipped.Add(a.shipped)
	}
	resp.GrandTotals = ChartTotals{Released: totalReleased.StringFixed(2), Shipped: totalShipped.StringFixed(2)}
	return resp, nil
}

// GET /api/dashboard/production-chart?period=weekly&count=8&product_id=1
func ProductionChartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := ChartQuery{Period: Period(c.Query("period", string(PeriodDaily)))}
		if v := c.Query("count"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			q.Count = n
		}
		if v := c.Query("product_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
			}
			q.ProductID = uint(id)
		}

		resp, err := ProductionChart(c.UserContext(), db, q)
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not build production chart")
		}
		return c.JSON(resp)
	}
}
