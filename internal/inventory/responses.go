package inventory

import (
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
)

const apiDateLayout = "2006-01-02"

func qty(d decimal.Decimal) string { return d.StringFixed(2) }

type LineResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Volume string `json:"volume"`
	Number int    `json:"number"`
}

func toLineResponse(l *models.Line) LineResponse {
	return LineResponse{ID: l.ID, Name: l.Name, Volume: qty(l.Volume), Number: l.Number}
}

type ProductResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	GTIN     string `json:"gtin"`
	Volume   string `json:"volume"`
	LineID   uint   `json:"line_id"`
	LineName string `json:"line_name,omitempty"`
}

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID: p.ID, Name: p.Name, GTIN: p.GTIN, Volume: qty(p.Volume),
		LineID: p.LineID, LineName: p.Line.Name,
	}
}

type MaterialResponse struct {
	ID   uint                `json:"id"`
	Name string              `json:"name"`
	Unit models.MaterialUnit `json:"unit"`
}

func toMaterialResponse(m *models.Material) MaterialResponse {
	return MaterialResponse{ID: m.ID, Name: m.Name, Unit: m.Unit}
}

type StockResponse struct {
	MaterialID uint                `json:"material_id"`
	Material   string              `json:"material,omitempty"`
	Unit       models.MaterialUnit `json:"unit,omitempty"`
	Quantity   string              `json:"quantity"`
}

func toStockResponse(s *models.MaterialStock) StockResponse {
	return StockResponse{
		MaterialID: s.MaterialID, Material: s.Material.Name,
		Unit: s.Material.Unit, Quantity: qty(s.Quantity),
	}
}

type BOMLineResponse struct {
	ID         uint   `json:"id"`
	ProductID  uint   `json:"product_id"`
	MaterialID uint   `json:"material_id"`
	Material   string `json:"material,omitempty"`
	Quantity   string `json:"quantity"`
}

func toBOMLineResponse(pm *models.ProductMaterial) BOMLineResponse {
	return BOMLineResponse{
		ID: pm.ID, ProductID: pm.ProductID, MaterialID: pm.MaterialID,
		Material: pm.Material.Name, Quantity: qty(pm.Quantity),
	}
}

type CounterpartyResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
}

func toCounterpartyResponse(c *models.Counterparty) CounterpartyResponse {
	return CounterpartyResponse{ID: c.ID, Name: c.Name, Address: c.Address, ContactNumber: c.ContactNumber}
}

type BatchResponse struct {
	ID             uint   `json:"id"`
	BatchNumber    string `json:"batch_number"`
	ProductID      uint   `json:"product_id"`
	Product        string `json:"product,omitempty"`
	LineID         uint   `json:"line_id"`
	Line           string `json:"line,omitempty"`
	ProductionDate string `json:"production_date"`
	Quantity       string `json:"quantity"`
	IsUsed         bool   `json:"is_used"`
	CanRelease     bool   `json:"can_release"`
}

func toBatchResponse(b *models.Batch) BatchResponse {
	return BatchResponse{
		ID: b.ID, BatchNumber: b.BatchNumber,
		ProductID: b.ProductID, Product: b.Product.Name,
		LineID: b.LineID, Line: b.Line.Name,
		ProductionDate: b.ProductionDate.Format(apiDateLayout),
		Quantity:       qty(b.Quantity),
		IsUsed:         b.IsUsed,
		CanRelease:     CanRelease(b, decimal.Zero),
	}
}

type FinishedGoodsResponse struct {
	ID             uint   `json:"id"`
	ProductID      uint   `json:"product_id"`
	Product        string `json:"product,omitempty"`
	BatchNumber    string `json:"batch_number"`
	ProductionDate string `json:"production_date"`
	Quantity       string `json:"quantity"`
	IsUsed         bool   `json:"is_used"`
}

func toFinishedGoodsResponse(g *models.FinishedGoodsStock) FinishedGoodsResponse {
	return FinishedGoodsResponse{
		ID: g.ID, ProductID: g.ProductID, Product: g.Product.Name,
		BatchNumber: g.BatchNumber, ProductionDate: g.ProductionDate.Format(apiDateLayout),
		Quantity: qty(g.Quantity), IsUsed: g.IsUsed,
	}
}

type ReleaseResponse struct {
	Batch         BatchResponse         `json:"batch"`
	FinishedGoods FinishedGoodsResponse `json:"finished_goods"`
	Consumed      []ConsumptionResponse `json:"consumed"`
}

type ConsumptionResponse struct {
	MaterialID uint   `json:"material_id"`
	Material   string `json:"material"`
	Amount     string `json:"amount"`
	Remaining  string `json:"remaining"`
}

func toReleaseResponse(r *ReleaseResult) ReleaseResponse {
	consumed := make([]ConsumptionResponse, 0, len(r.Consumed))
	for _, c := range r.Consumed {
		consumed = append(consumed, ConsumptionResponse{
			MaterialID: c.MaterialID, Material: c.Material,
			Amount: qty(c.Amount), Remaining: qty(c.Remaining),
		})
	}
	return ReleaseResponse{
		Batch:         toBatchResponse(r.Batch),
		FinishedGoods: toFinishedGoodsResponse(r.FinishedGoods),
		Consumed:      consumed,
	}
}

type ShipmentItemResponse struct {
	ID        uint   `json:"id"`
	ProductID uint   `json:"product_id"`
	BatchID   uint   `json:"batch_id"`
	Quantity  string `json:"quantity"`
}

func toShipmentItemResponse(it *models.ShipmentItem) ShipmentItemResponse {
	return ShipmentItemResponse{ID: it.ID, ProductID: it.ProductID, BatchID: it.BatchID, Quantity: qty(it.Quantity)}
}

type ShipmentResponse struct {
	ID             uint                   `json:"id"`
	ProductID      uint                   `json:"product_id"`
	Product        string                 `json:"product,omitempty"`
	BatchID        uint                   `json:"batch_id"`
	BatchNumber    string                 `json:"batch_number,omitempty"`
	CounterpartyID uint                   `json:"counterparty_id"`
	Counterparty   string                 `json:"counterparty,omitempty"`
	Quantity       string                 `json:"quantity"`
	ShipmentDate   string                 `json:"shipment_date"`
	Items          []ShipmentItemResponse `json:"items"`
}

func toShipmentResponse(s *models.Shipment) ShipmentResponse {
	items := make([]ShipmentItemResponse, 0, len(s.Items))
	for i := range s.Items {
		items = append(items, toShipmentItemResponse(&s.Items[i]))
	}
	return ShipmentResponse{
		ID: s.ID, ProductID: s.ProductID, Product: s.Product.Name,
		BatchID: s.BatchID, BatchNumber: s.Batch.BatchNumber,
		CounterpartyID: s.CounterpartyID, Counterparty: s.Counterparty.Name,
		Quantity: qty(s.Quantity), ShipmentDate: s.ShipmentDate.Format(apiDateLayout),
		Items: items,
	}
}
