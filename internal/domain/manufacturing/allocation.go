package manufacturing

import (
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// Draw unidades a tomar de un lote concreto.
type Draw struct {
	Item     *entity.StockItem
	Quantity int
}

// Plan consumo de lotes calculado para una lista de materiales, en el orden de la lista.
type Plan struct {
	Draws []Draw
}

// Usages materiales consumidos por lote, en el orden del plan.
func (p *Plan) Usages() []entity.MaterialUsage {
	out := make([]entity.MaterialUsage, 0, len(p.Draws))
	for _, d := range p.Draws {
		out = append(out, entity.MaterialUsage{Material: d.Item.Name, Quantity: d.Quantity})
	}
	return out
}

// Apply descuenta cada Draw de su lote y devuelve los lotes modificados (sin repetir) para persistir.
func (p *Plan) Apply() []*entity.StockItem {
	var touched []*entity.StockItem
	seen := make(map[*entity.StockItem]bool)
	for _, d := range p.Draws {
		d.Item.Take(d.Quantity)
		if !seen[d.Item] {
			seen[d.Item] = true
			touched = append(touched, d.Item)
		}
	}
	return touched
}

// PlanAllocation recorre la lista de materiales en orden y, para cada material, toma de sus lotes
// de forma voraz en el orden recibido (el primer lote se agota primero). Solo se registran lotes
// de los que se toma algo. Si un material no alcanza devuelve *domain.InsufficientStockError y
// ningún lote se modifica: el plan se calcula por completo antes de aplicar nada.
func PlanAllocation(bill []Requirement, lots map[string][]*entity.StockItem) (*Plan, error) {
	reserved := make(map[*entity.StockItem]int)
	plan := &Plan{}
	for _, req := range bill {
		available := 0
		for _, lot := range lots[req.Material] {
			available += free(lot, reserved)
		}
		if available < req.Quantity {
			return nil, &domain.InsufficientStockError{Material: req.Material, Required: req.Quantity, Available: available}
		}
		remaining := req.Quantity
		for _, lot := range lots[req.Material] {
			if remaining == 0 {
				break
			}
			take := min(free(lot, reserved), remaining)
			if take <= 0 {
				continue
			}
			reserved[lot] += take
			remaining -= take
			plan.Draws = append(plan.Draws, Draw{Item: lot, Quantity: take})
		}
	}
	return plan, nil
}

func free(lot *entity.StockItem, reserved map[*entity.StockItem]int) int {
	n := lot.Quantity - reserved[lot]
	if n < 0 {
		return 0
	}
	return n
}
