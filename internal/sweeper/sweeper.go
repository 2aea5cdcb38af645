// Package sweeper expires bookings whose payment never arrived and gives
// their rooms back.
package sweeper

import (
	"context"
	"time"

	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	DefaultTTL       = 15 * time.Minute
	DefaultInterval  = time.Minute
	DefaultBatchSize = 100
)

type PendingFinder interface {
	FindExpiredPending(ctx context.Context, createdBefore time.Time, after *model.BookingCursor, limit int) ([]*model.Booking, error)
}

// Expirer re-checks a booking and expires it in its own transaction.
type Expirer interface {
	ExpirePendingBooking(ctx context.Context, id string, cutoff time.Time) (bool, error)
}

type Config struct {
	// TTL is how long a booking may wait for payment.
	TTL       time.Duration
	Interval  time.Duration
	BatchSize int
}

type Report struct {
	Scanned int          `json:"scanned"`
	Expired int          `json:"expired"`
	Errors  []SweepError `json:"errors"`
}

type SweepError struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

type Sweeper struct {
	bookings PendingFinder
	expirer  Expirer
	clock    clock.Clock
	cfg      Config
	log      *logger.Logger

	expiredCounter metric.Int64Counter
	errorCounter   metric.Int64Counter
}

func New(bookings PendingFinder, expirer Expirer, clk clock.Clock, cfg Config, log *logger.Logger) *Sweeper {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	s := &Sweeper{
		bookings: bookings,
		expirer:  expirer,
		clock:    clk,
		cfg:      cfg,
		log:      log.Component("sweeper"),
	}
	s.initMetrics(otel.GetMeterProvider().Meter("hotelbooking/sweeper"))
	return s
}

func (s *Sweeper) initMetrics(meter metric.Meter) {
	var err error
	fallback := noop.NewMeterProvider().Meter("hotelbooking/sweeper")

	if s.expiredCounter, err = meter.Int64Counter("hotelbooking.sweeper.expired",
		metric.WithDescription("Bookings expired for missing payment"),
	); err != nil {
		s.log.Warn("Failed to create sweeper metric", "metric", "expired", "error", err)
		s.expiredCounter, _ = fallback.Int64Counter("hotelbooking.sweeper.expired")
	}
	if s.errorCounter, err = meter.Int64Counter("hotelbooking.sweeper.errors",
		metric.WithDescription("Bookings the sweeper failed to expire"),
	); err != nil {
		s.log.Warn("Failed to create sweeper metric", "metric", "errors", "error", err)
		s.errorCounter, _ = fallback.Int64Counter("hotelbooking.sweeper.errors")
	}
}

// SweepOnce expires every booking that has waited longer than the TTL. A
// booking that fails to expire is logged and counted and the sweep moves on.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	var report Report
	cutoff := s.clock.Now().Add(-s.cfg.TTL)

	// Page forward so bookings that keep failing never hide newer ones.
	var after *model.BookingCursor
	for {
		batch, err := s.bookings.FindExpiredPending(ctx, cutoff, after, s.cfg.BatchSize)
		if err != nil {
			return report, err
		}
		report.Scanned += len(batch)

		for _, b := range batch {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			expired, err := s.expirer.ExpirePendingBooking(ctx, b.ID, cutoff)
			if err != nil {
				report.Errors = append(report.Errors, SweepError{BookingID: b.ID, Error: err.Error()})
				s.errorCounter.Add(ctx, 1)
				s.log.Error("Failed to expire booking",
					"booking_id", b.ID,
					"error", err,
				)
				continue
			}
			if expired {
				report.Expired++
				s.expiredCounter.Add(ctx, 1)
			}
		}

		if len(batch) == 0 || len(batch) < s.cfg.BatchSize {
			break
		}
		after = batch[len(batch)-1].CursorAfter()
	}

	if report.Scanned > 0 {
		s.log.Info("Sweep finished",
			"scanned", report.Scanned,
			"expired", report.Expired,
			"errors", len(report.Errors),
			"cutoff", cutoff,
		)
	}
	return report, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("Sweeper started",
		"ttl", s.cfg.TTL,
		"interval", s.cfg.Interval,
		"batch_size", s.cfg.BatchSize,
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("Sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.log.Info("Sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
