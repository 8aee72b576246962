package worker

// expiry_sweep.go
// Background goroutine that periodically expires stale pending reservations,
// releasing the stock they hold. Lazy on-read expiry covers reservations that
// are touched again; this sweep covers the ones that never are.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 50

// Expirador is the slice of the reservation service the sweep needs.
type Expirador interface {
	BarridoExpiracion(ctx context.Context, limit int) (int, error)
}

// StartExpirySweep launches a goroutine that ticks every interval and expires
// overdue pending reservations in batches. It respects the context for
// graceful shutdown.
func StartExpirySweep(ctx context.Context, reservas Expirador, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("expiry_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_sweep: shutting down")
				return
			case <-ticker.C:
				expiradas, err := reservas.BarridoExpiracion(ctx, sweepBatchSize)
				if err != nil {
					log.Error().Err(err).Msg("expiry_sweep: sweep failed")
					continue
				}
				if expiradas > 0 {
					log.Info().Int("expiradas", expiradas).Msg("expiry_sweep: reservas expiradas")
				}
			}
		}
	}()
}
