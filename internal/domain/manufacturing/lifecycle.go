package manufacturing

import (
	"fmt"

	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// CreditPolicy decide qué pasa al pedir "Finalizado" sobre una orden ya finalizada.
type CreditPolicy string

const (
	// CreditOnce la segunda finalización no hace nada: el producto terminado se abona una sola vez.
	CreditOnce CreditPolicy = "once"
	// CreditEvery cada petición de finalización abona otra unidad de producto terminado.
	CreditEvery CreditPolicy = "every"
)

// ParseCreditPolicy valida el valor leído de configuración. Vacío equivale a CreditOnce.
func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch CreditPolicy(s) {
	case "", CreditOnce:
		return CreditOnce, nil
	case CreditEvery:
		return CreditEvery, nil
	}
	return "", fmt.Errorf("política de abono desconocida %q (once|every)", s)
}

// TransitionRules tabla de transiciones de una orden de fabricación.
type TransitionRules struct {
	// RequireInProgress prohíbe pasar de Pendiente a Finalizado sin pasar por En Proceso.
	RequireInProgress bool
	CreditPolicy      CreditPolicy
}

// Check decide si la transición from → to se aplica. apply=false con err=nil significa que la
// petición es válida pero no cambia nada (mismo estado). Salir de un estado terminal devuelve
// domain.ErrInvalidTransition.
func (r TransitionRules) Check(from, to entity.OrderState) (apply bool, err error) {
	if from == to {
		if to == entity.OrderStateFinished && r.CreditPolicy == CreditEvery {
			return true, nil
		}
		return false, nil
	}
	if from.IsTerminal() {
		return false, fmt.Errorf("%s → %s: %w", from, to, domain.ErrInvalidTransition)
	}
	switch to {
	case entity.OrderStateCancelled:
		return true, nil
	case entity.OrderStateInProgress:
		if from == entity.OrderStatePending {
			return true, nil
		}
	case entity.OrderStateFinished:
		if from == entity.OrderStateInProgress {
			return true, nil
		}
		if from == entity.OrderStatePending && !r.RequireInProgress {
			return true, nil
		}
	}
	return false, fmt.Errorf("%s → %s: %w", from, to, domain.ErrInvalidTransition)
}
