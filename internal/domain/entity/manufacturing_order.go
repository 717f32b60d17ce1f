package entity

import "time"

// OrderState estado de una orden de fabricación. Los valores son los literales del contrato JSON.
type OrderState string

const (
	OrderStatePending    OrderState = "Pendiente"
	OrderStateInProgress OrderState = "En Proceso"
	OrderStateFinished   OrderState = "Finalizado"
	OrderStateCancelled  OrderState = "Cancelado"
)

// OrderStates en orden de ciclo de vida.
var OrderStates = []OrderState{OrderStatePending, OrderStateInProgress, OrderStateFinished, OrderStateCancelled}

// ParseOrderState reconoce solo los literales exactos del contrato.
func ParseOrderState(s string) (OrderState, bool) {
	for _, st := range OrderStates {
		if s == string(st) {
			return st, true
		}
	}
	return "", false
}

// IsTerminal indica si el estado no admite transiciones a otro estado.
func (s OrderState) IsTerminal() bool {
	return s == OrderStateFinished || s == OrderStateCancelled
}

// MaterialUsage material consumido por una orden desde un lote concreto.
// El mismo material puede aparecer varias veces si se tomó de varios lotes.
type MaterialUsage struct {
	Material string `json:"material"`
	Quantity int    `json:"cantidad"`
}

// ManufacturingOrder orden de fabricación de una maceta.
// Materials se fija al crear la orden y no cambia después.
type ManufacturingOrder struct {
	ID         string
	Product    string
	Materials  []MaterialUsage
	State      OrderState
	StartedAt  time.Time
	FinishedAt *time.Time // presente si y solo si State == OrderStateFinished
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
