package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Collection labels for store metrics.
const (
	collectionInspections = "inspections"
	collectionPlaces      = "places"
)

const (
	inspectionColumns = `"ScoreRecent", "GradeRecent", "DateRecent", "Score2", "Grade2", "Date2",
		"Score3", "Grade3", "Date3", permit_number, facility_type, facility_type_description,
		subtype, subtype_description, premise_name, premise_address, premise_city,
		premise_state, premise_zip, opening_date`

	placeColumns = `"Id", "LatD", "LatM", "LatS", "NS", "LonD", "LonM", "LonS", "EW", "City", "State"`

	listInspectionsSQL        = `SELECT ` + inspectionColumns + ` FROM inspections ORDER BY permit_number`
	listInspectionsByGradeSQL = `SELECT ` + inspectionColumns + ` FROM inspections WHERE "GradeRecent" = $1 ORDER BY permit_number`
	listPlacesSQL             = `SELECT ` + placeColumns + ` FROM places ORDER BY "Id"`
	listPlacesByStateSQL      = `SELECT ` + placeColumns + ` FROM places WHERE "State" = $1 ORDER BY "Id"`
)

type dbPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Config holds the connection settings for the record store.
type Config struct {
	DatabaseURL  string
	MaxConns     int32
	QueryTimeout time.Duration
}

// Store implements domain.RecordStore on a PostgreSQL connection pool.
type Store struct {
	pool         dbPool
	queryTimeout time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
}

type options struct {
	newPool func(ctx context.Context, cfg Config) (dbPool, error)
}

// Option overrides Store construction defaults.
type Option func(*options)

// WithPoolFactory replaces the pgxpool constructor. Used by tests.
func WithPoolFactory(f func(ctx context.Context, cfg Config) (dbPool, error)) Option {
	return func(o *options) {
		o.newPool = f
	}
}

// New connects to PostgreSQL and verifies the connection with a ping.
func New(ctx context.Context, cfg Config, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) (*Store, error) {
	o := options{newPool: newPgxPool}
	for _, opt := range opts {
		opt(&o)
	}

	pool, err := o.newPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrStoreUnavailable, err)
	}

	logger.Info("connected to postgres", "max_conns", cfg.MaxConns)
	return &Store{
		pool:         pool,
		queryTimeout: cfg.QueryTimeout,
		metrics:      metrics,
		logger:       logger.With("component", "postgres"),
	}, nil
}

func newPgxPool(ctx context.Context, cfg Config) (dbPool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// ListInspections returns every inspection ordered by permit number.
func (s *Store) ListInspections(ctx context.Context) ([]domain.InspectionRecord, error) {
	return query(ctx, s, collectionInspections, pgx.RowToStructByName[domain.InspectionRecord], listInspectionsSQL)
}

// ListInspectionsByGrade returns inspections whose most recent grade equals grade.
func (s *Store) ListInspectionsByGrade(ctx context.Context, grade string) ([]domain.InspectionRecord, error) {
	return query(ctx, s, collectionInspections, pgx.RowToStructByName[domain.InspectionRecord], listInspectionsByGradeSQL, grade)
}

// ListPlaces returns every place ordered by id.
func (s *Store) ListPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	return query(ctx, s, collectionPlaces, pgx.RowToStructByName[domain.PlaceRecord], listPlacesSQL)
}

// ListPlacesByState returns places whose state equals state.
func (s *Store) ListPlacesByState(ctx context.Context, state string) ([]domain.PlaceRecord, error) {
	return query(ctx, s, collectionPlaces, pgx.RowToStructByName[domain.PlaceRecord], listPlacesByStateSQL, state)
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func query[T any](ctx context.Context, s *Store, collection string, scan pgx.RowToFunc[T], sql string, args ...any) ([]T, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	records, err := collect(ctx, s.pool, scan, sql, args...)
	if err != nil {
		s.metrics.StoreQueries.WithLabelValues(collection, observability.OutcomeError).Inc()
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("query %s canceled: %w", collection, err)
		}
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrStoreUnavailable, collection, err)
	}

	s.metrics.StoreQueries.WithLabelValues(collection, observability.OutcomeSuccess).Inc()
	s.logger.Debug("store query", "collection", collection, "rows", len(records))
	return records, nil
}

func collect[T any](ctx context.Context, pool dbPool, scan pgx.RowToFunc[T], sql string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}
