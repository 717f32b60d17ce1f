package entity

import "time"

// Customer representa un cliente del taller (facturación y ventas).
type Customer struct {
	ID        string
	Name      string
	TaxID     string // NIT, RUT o documento de identidad
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
