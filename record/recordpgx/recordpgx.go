// Package recordpgx persists records in PostgreSQL over a jackc/pgx/v5
// connection pool. Records are stored as uuid-keyed rows with a JSON
// payload, one row per record, discriminated by a kind column derived from
// the record's Go type.
package recordpgx

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"time"

	conductor "github.com/ayanko/active-conductor"
	"github.com/ayanko/active-conductor/internal/retry"
	"github.com/ayanko/active-conductor/record"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var defaultRetry retry.Policy

// DefaultRetry is the connect retry policy Open falls back to when given a
// zero policy.
func DefaultRetry() retry.Policy { return defaultRetry }

func init() {
	var err error
	defaultRetry, err = retry.New(100*time.Millisecond, 2*time.Second, 2)
	if err != nil {
		panic(fmt.Errorf("init default retry policy: %w", err))
	}
}

// Store is a pgx connection pool that persists records.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

// Open connects to the database using pgx. It will ping and retry until
// either a successful connection is established or ctx is canceled.
func Open(
	ctx context.Context, log *slog.Logger, dsn string, maxConns int32,
	policy retry.Policy,
) (*Store, error) {
	if maxConns < 1 {
		maxConns = int32(runtime.NumCPU())
	}
	if policy == (retry.Policy{}) {
		policy = defaultRetry
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}
	cfg.MaxConns = maxConns

	var pool *pgxpool.Pool
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("connecting database timed out: %w", err)
		}
		time.Sleep(policy.Delay(attempt)) // First is always 0.

		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating pgx pool with config: %w", err)
		}

		ctxPing, cancel := context.WithTimeout(ctx, 1*time.Second)
		err = p.Ping(ctxPing)
		cancel()
		if err != nil {
			log.Error("pinging database",
				slog.Any("err", err),
				slog.Int("attempt", attempt))
			p.Close()
			continue
		}

		pool = p
		break
	}

	return &Store{log: log, pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// Migrate creates the records table if it doesn't exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrating records schema: %w", err)
	}
	return nil
}

// Exec executes sql on the pool. Intended for test setup and migrations.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := s.pool.Exec(ctx, sql, args...)
	return err
}

// Count returns the number of persisted records of the given kind.
func (s *Store) Count(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM records WHERE kind=$1
	`, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records of kind %q: %w", kind, err)
	}
	return n, nil
}

// Bind returns a new unpersisted Record persisting rec in this store.
// rec must be a pointer to a JSON-marshalable struct.
func (s *Store) Bind(rec any) *Record {
	return &Record{store: s, rec: rec}
}

// Load reads the record of the given kind and id into rec and returns the
// bound, persisted Record. rec must be of the same type the record was
// saved as.
func (s *Store) Load(ctx context.Context, id uuid.UUID, rec any) (*Record, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM records WHERE id=$1 AND kind=$2
	`, id, Kind(rec)).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("querying record %s: %w", id, err)
	}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, fmt.Errorf("unmarshaling record payload: %w", err)
	}
	r := &Record{store: s, rec: rec, id: id}
	r.MarkPersisted()
	return r, nil
}

// Kind returns the kind discriminator rec is stored under,
// the lower-cased Go type name.
func Kind(rec any) string {
	t := reflect.TypeOf(rec)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// Record makes a struct persisted in a Store usable as a conductor
// sub-model.
type Record struct {
	record.State
	store *Store
	rec   any
	id    uuid.UUID
}

var _ conductor.Model = new(Record)

// ID returns the record's identity.
// Zero until the first successful save assigns one.
func (r *Record) ID() uuid.UUID { return r.id }

// IsValid re-runs the record's validations and reports the result.
func (r *Record) IsValid() bool { return r.Check(r.rec) }

// Save upserts the record's JSON payload and reports whether persistence
// succeeded. The record's identity is assigned on the first save.
func (r *Record) Save(ctx context.Context) bool {
	if r.store == nil {
		panic("record is not bound to a store")
	}
	if !r.IsValid() {
		return false
	}
	payload, err := json.Marshal(r.rec)
	if err != nil {
		r.Errors().Add("base", fmt.Sprintf("could not be serialized: %v", err))
		return false
	}
	if r.id == uuid.Nil {
		r.id = uuid.New()
	}
	_, err = r.store.pool.Exec(ctx, `
		INSERT INTO records (id, kind, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET payload=$3, updated_at=now()
	`, r.id, Kind(r.rec), payload)
	if err != nil {
		r.store.log.Error("saving record",
			slog.String("id", r.id.String()),
			slog.String("kind", Kind(r.rec)),
			slog.Any("err", err))
		r.Errors().Add("base", "could not be saved")
		return false
	}
	r.MarkPersisted()
	return true
}
