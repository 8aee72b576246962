package service

import (
	"errors"
	"fmt"
)

// Caller-visible outcomes of the stock/reservation core. All of these are
// recoverable: handlers map them to 4xx responses, and a failed call leaves
// stock, reserved stock and the movement log untouched.
var (
	ErrProductoNoEncontrado = errors.New("producto no encontrado")
	ErrReservaNoEncontrada  = errors.New("reserva no encontrada")
	ErrAlertaNoEncontrada   = errors.New("alerta no encontrada")
	ErrStockInsuficiente    = errors.New("stock insuficiente")
	ErrStockNegativo        = errors.New("el ajuste dejaría el stock en negativo")
	ErrReservaExpirada      = errors.New("la reserva está vencida")
)

// TransicionInvalidaError reports a reservation action not permitted from the
// current status. The transition is rejected before any mutation.
type TransicionInvalidaError struct {
	Desde string
	Hacia string
}

func (e *TransicionInvalidaError) Error() string {
	return fmt.Sprintf("transición inválida de %s a %s", e.Desde, e.Hacia)
}
