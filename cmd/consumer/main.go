package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-sharing/internal/config"
	"github.com/example/ride-sharing/internal/logging"
	"github.com/example/ride-sharing/internal/models"
	"github.com/example/ride-sharing/internal/storage"
)

const (
	driverEarningsKey   = "rides:driver_earnings"
	riderSpendingKey    = "rides:rider_spending"
	typeDistributionKey = "rides:type_distribution"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total ride event messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	msgsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_duplicate_total",
		Help: "Total redelivered events skipped",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis projections",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
	journalErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_journal_errors_total",
		Help: "Total event journal write errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, msgsDuplicate, redisUpdates, redisErrors, journalErrors)
}

func main() {
	cfg, err := config.LoadConsumerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	var journal storage.EventJournal = storage.NewMemoryJournal(cfg.JournalCapacity)
	if cfg.PGDSN != "" {
		pj, err := storage.NewPostgresJournal(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("postgres journal unavailable", "error", err)
			os.Exit(1)
		}
		defer pj.Close()
		if cfg.RunMigrations {
			if err := pj.Migrate(ctx); err != nil {
				logger.Error("journal migration failed", "error", err)
				os.Exit(1)
			}
			logger.Info("journal migration applied")
		}
		journal = pj
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroup, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	h := &handler{
		projector: &redisAdapter{c: rc},
		journal:   journal,
		attempts:  cfg.RetryAttempts,
		delay:     cfg.RetryDelay,
		logger:    logger,
	}

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff.String())
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		h.handle(ctx, m.Value)
	}
}

// RideProjector applies one linked ride to the Redis leaderboards and counters.
type RideProjector interface {
	ApplyRide(ctx context.Context, driverID, riderID int, ride models.RideDetails) error
}

type redisAdapter struct{ c *redis.Client }

// ApplyRide runs all increments in one MULTI/EXEC so a retry never applies
// half a ride.
func (r *redisAdapter) ApplyRide(ctx context.Context, driverID, riderID int, ride models.RideDetails) error {
	_, err := r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZIncrBy(ctx, driverEarningsKey, ride.Fare, "driver:"+strconv.Itoa(driverID))
		p.ZIncrBy(ctx, riderSpendingKey, ride.Fare, "rider:"+strconv.Itoa(riderID))
		p.HIncrBy(ctx, typeDistributionKey, string(ride.Type), 1)
		return nil
	})
	return err
}

type handler struct {
	projector RideProjector
	journal   storage.EventJournal
	attempts  int
	delay     time.Duration
	logger    *slog.Logger
}

func (h *handler) handle(ctx context.Context, value []byte) {
	msgsConsumed.Inc()

	var e models.Event
	if err := json.Unmarshal(value, &e); err != nil || e.ID == "" {
		msgsInvalid.Inc()
		h.logger.Warn("invalid message", "error", err)
		return
	}

	inserted, err := h.journal.Append(ctx, e)
	if err != nil {
		// project anyway; a journal outage must not stall the read models
		journalErrors.Inc()
		h.logger.Error("journal append failed", "event_id", e.ID, "error", err)
	} else if !inserted {
		msgsDuplicate.Inc()
		h.logger.Debug("duplicate event skipped", "event_id", e.ID)
		return
	}

	if e.Kind != models.EventRideCreated || e.Ride == nil {
		return
	}
	if err := applyRideWithRetry(ctx, h.projector, e, h.attempts, h.delay); err != nil {
		redisErrors.Inc()
		h.logger.Error("redis projection failed", "event_id", e.ID, "ride_id", e.Ride.ID, "error", err)
		return
	}
	redisUpdates.Inc()
}

// applyRideWithRetry retries the projection with doubling delay.
func applyRideWithRetry(ctx context.Context, p RideProjector, e models.Event, attempts int, delay time.Duration) error {
	if e.Ride == nil {
		return errors.New("event has no ride")
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.ApplyRide(ctx, e.DriverID, e.RiderID, *e.Ride); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
