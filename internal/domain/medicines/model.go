package medicines

import "time"

// Medicine es un medicamento registrado por el usuario con su inventario.
type Medicine struct {
	ID     string
	UserID string

	Name   string
	Type   string // tablet, capsule, syrup...
	Dosage string // "500mg"

	Stock    int
	MinStock int

	Notes string

	// Active=false es el soft delete: el registro queda por el historial.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockStatus clasifica un medicamento con stock bajo.
type StockStatus string

const (
	StockLow        StockStatus = "LOW_STOCK"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

type LowStockItem struct {
	Medicine Medicine
	Status   StockStatus
}

// IsLow: stock <= minStock.
func (m Medicine) IsLow() bool { return m.Stock <= m.MinStock }

func (m Medicine) StockStatus() StockStatus {
	if m.Stock <= 0 {
		return StockOutOfStock
	}
	return StockLow
}
