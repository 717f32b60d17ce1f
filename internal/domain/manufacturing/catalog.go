// Package manufacturing contiene las reglas de fabricación: lista de materiales por tamaño de maceta,
// tabla de precios, planificación de consumo de lotes y máquina de estados de las órdenes.
package manufacturing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Etiquetas de producto. Son parte del contrato JSON y deben coincidir exactamente.
const (
	ProductSmall  = "Maceta pequeña"
	ProductMedium = "Maceta mediana"
	ProductLarge  = "Maceta grande"
)

// Requirement cantidad de un material necesaria para fabricar una unidad.
type Requirement struct {
	Material string
	Quantity int
}

// Product regla de fabricación de un tamaño: lista de materiales ordenada y precio de venta.
type Product struct {
	Label string
	Bill  []Requirement
	Price decimal.Decimal
}

// Catalog tabla inmutable producto → regla. Se inyecta en el motor de asignación.
type Catalog struct {
	byLabel map[string]Product
	labels  []string
}

// NewCatalog valida y construye el catálogo. Cada producto necesita etiqueta única,
// al menos un material y cantidades positivas.
func NewCatalog(products ...Product) (*Catalog, error) {
	c := &Catalog{byLabel: make(map[string]Product, len(products))}
	for _, p := range products {
		if p.Label == "" || len(p.Bill) == 0 {
			return nil, fmt.Errorf("producto %q: etiqueta y materiales requeridos", p.Label)
		}
		if _, dup := c.byLabel[p.Label]; dup {
			return nil, fmt.Errorf("producto %q duplicado", p.Label)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("producto %q: precio negativo", p.Label)
		}
		bill := make([]Requirement, len(p.Bill))
		for i, r := range p.Bill {
			if r.Material == "" || r.Quantity <= 0 {
				return nil, fmt.Errorf("producto %q: material inválido en posición %d", p.Label, i)
			}
			bill[i] = r
		}
		p.Bill = bill
		c.byLabel[p.Label] = p
		c.labels = append(c.labels, p.Label)
	}
	return c, nil
}

// DefaultCatalog las tres macetas que fabrica el taller.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Product{
			Label: ProductSmall,
			Price: decimal.NewFromInt(27),
			Bill: []Requirement{
				{"LED Rojo", 2}, {"LED Verde", 2}, {"LED Amarillo", 2},
				{"Maceta de plástico Pequeño", 1},
				{"Sensor de humedad", 1}, {"Sensor de luz", 1}, {"Batería", 1},
			},
		},
		Product{
			Label: ProductMedium,
			Price: decimal.NewFromInt(34),
			Bill: []Requirement{
				{"LED Rojo", 3}, {"LED Verde", 3}, {"LED Amarillo", 3},
				{"Maceta de plástico Mediano", 1},
				{"Sensor de humedad", 1}, {"Sensor de luz", 1}, {"Batería", 1},
			},
		},
		Product{
			Label: ProductLarge,
			Price: decimal.NewFromInt(40),
			Bill: []Requirement{
				{"LED Rojo", 4}, {"LED Verde", 4}, {"LED Amarillo", 4},
				{"Maceta de plástico Grande", 1},
				{"Sensor de humedad", 2}, {"Sensor de luz", 1}, {"Batería", 2},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Bill devuelve una copia de la lista de materiales del producto.
func (c *Catalog) Bill(label string) ([]Requirement, bool) {
	p, ok := c.byLabel[label]
	if !ok {
		return nil, false
	}
	out := make([]Requirement, len(p.Bill))
	copy(out, p.Bill)
	return out, true
}

// Price precio de venta del producto terminado; cero si la etiqueta no existe.
func (c *Catalog) Price(label string) decimal.Decimal {
	if p, ok := c.byLabel[label]; ok {
		return p.Price
	}
	return decimal.Zero
}

// Has indica si la etiqueta es un producto conocido.
func (c *Catalog) Has(label string) bool {
	_, ok := c.byLabel[label]
	return ok
}

// Products productos en el orden en que se registraron.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.labels))
	for _, l := range c.labels {
		p := c.byLabel[l]
		p.Bill, _ = c.Bill(l)
		out = append(out, p)
	}
	return out
}

// Materials nombres de material distintos de la lista del producto, ordenados alfabéticamente.
// Es el orden en que se bloquean las filas de stock para que dos asignaciones concurrentes
// no se bloqueen mutuamente.
func Materials(bill []Requirement) []string {
	seen := make(map[string]struct{}, len(bill))
	var out []string
	for _, r := range bill {
		if _, ok := seen[r.Material]; ok {
			continue
		}
		seen[r.Material] = struct{}{}
		out = append(out, r.Material)
	}
	sort.Strings(out)
	return out
}
