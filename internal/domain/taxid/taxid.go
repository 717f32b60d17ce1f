// Package taxid valida el NIT o la cédula de un cliente.
package taxid

import (
	"fmt"
	"strings"

	"github.com/taller-macetas/macetas-erp/internal/domain"
)

// pesos DIAN del módulo 11, aplicados desde el dígito menos significativo.
var weights = [15]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// CheckDigit calcula el dígito de verificación de un NIT. Acepta puntos como separador de miles.
func CheckDigit(base string) (int, error) {
	digits, err := digitsOf(base)
	if err != nil {
		return 0, err
	}
	sum := 0
	for i := range digits {
		sum += digits[len(digits)-1-i] * weights[i]
	}
	if r := sum % 11; r > 1 {
		return 11 - r, nil
	}
	return sum % 11, nil
}

// Validate acepta un número sin dígito de verificación ("1020304050") o un NIT con guion y
// dígito de verificación ("800.197.268-4"), en cuyo caso el dígito debe cuadrar.
func Validate(s string) error {
	s = strings.TrimSpace(s)
	base, dv, hasDV := strings.Cut(s, "-")
	if !hasDV {
		_, err := digitsOf(s)
		return err
	}
	if len(dv) != 1 || dv[0] < '0' || dv[0] > '9' {
		return fmt.Errorf("NIT %q: dígito de verificación inválido: %w", s, domain.ErrInvalidInput)
	}
	want, err := CheckDigit(base)
	if err != nil {
		return err
	}
	if got := int(dv[0] - '0'); got != want {
		return fmt.Errorf("NIT %q: dígito de verificación %d, esperado %d: %w", s, got, want, domain.ErrInvalidInput)
	}
	return nil
}

func digitsOf(s string) ([]int, error) {
	var out []int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			out = append(out, int(r-'0'))
		case r == '.':
		default:
			return nil, fmt.Errorf("identificación %q: carácter %q no permitido: %w", s, r, domain.ErrInvalidInput)
		}
	}
	if len(out) < 5 || len(out) > len(weights) {
		return nil, fmt.Errorf("identificación %q: se esperaban entre 5 y %d dígitos: %w", s, len(weights), domain.ErrInvalidInput)
	}
	return out, nil
}
