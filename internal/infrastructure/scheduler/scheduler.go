// Package scheduler ejecuta tareas periódicas con robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/taller-macetas/macetas-erp/internal/application/dto"
)

// LowStockSource obtiene las filas en o por debajo del umbral.
type LowStockSource interface {
	LowStock(ctx context.Context, threshold int) ([]dto.StockItemResponse, error)
}

// LowStockGauge recibe el número de filas con stock bajo.
type LowStockGauge interface {
	SetLowStockRows(n int)
}

// LowStockReport avisa por log de cada fila con stock bajo y actualiza el gauge.
type LowStockReport struct {
	source    LowStockSource
	gauge     LowStockGauge
	threshold int
	log       zerolog.Logger
}

// NewLowStockReport construye la tarea. gauge puede ser nil.
func NewLowStockReport(source LowStockSource, gauge LowStockGauge, threshold int, log zerolog.Logger) *LowStockReport {
	return &LowStockReport{
		source:    source,
		gauge:     gauge,
		threshold: threshold,
		log:       log.With().Str("job", "low_stock").Logger(),
	}
}

// Run ejecuta el informe una vez y devuelve cuántas filas están bajo el umbral.
func (r *LowStockReport) Run(ctx context.Context) (int, error) {
	rows, err := r.source.LowStock(ctx, r.threshold)
	if err != nil {
		return 0, fmt.Errorf("informe de stock bajo: %w", err)
	}
	for _, s := range rows {
		r.log.Warn().
			Str("stock_id", s.ID).
			Str("name", s.Name).
			Str("category", s.Category).
			Int("quantity", s.Quantity).
			Int("threshold", r.threshold).
			Msg("stock bajo")
	}
	if r.gauge != nil {
		r.gauge.SetLowStockRows(len(rows))
	}
	return len(rows), nil
}

// Scheduler envoltorio de cron con logging zerolog.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
}

// New crea el planificador. Una tarea que sigue en curso no se vuelve a lanzar.
func New(log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:     l,
		timeout: time.Minute,
	}
}

// AddLowStockReport programa el informe con una expresión cron ("@every 1h", "0 7 * * *").
func (s *Scheduler) AddLowStockReport(spec string, report *LowStockReport) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		n, err := report.Run(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("tarea fallida")
			return
		}
		s.log.Info().Int("rows", n).Msg("informe de stock bajo generado")
	})
	if err != nil {
		return fmt.Errorf("cron %q: %w", spec, err)
	}
	return nil
}

// Start arranca el planificador en segundo plano.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el planificador y espera a las tareas en curso o a que ctx expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries número de tareas programadas.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// cronLogger adapta zerolog a cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
