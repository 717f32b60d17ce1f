package inventory

import (
	"context"
	"io"

	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// TxRunner unidad de trabajo con repositorios atados a ella (misma firma que usa fabricación).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		orderRepo repository.ManufacturingOrderRepository,
	) error) error
}

// TableWriter serializa una tabla (cabecera + filas) en un formato descargable.
type TableWriter interface {
	WriteTable(w io.Writer, sheet string, headers []string, rows [][]string) error
}

// ExportFormat formato de exportación registrado.
type ExportFormat struct {
	ContentType string
	Extension   string
	Writer      TableWriter
}
