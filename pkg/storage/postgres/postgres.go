// Package postgres provides a PostgreSQL implementation of storage.Store
// using pgx/v5 connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, logger: cfg.Logger}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveExchange inserts one chat exchange.
func (s *Store) SaveExchange(ctx context.Context, ex *api.Exchange) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exchanges (
			id, tenant_id, session_id, query, status,
			reply, reason, model, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		ex.ID, storage.GetTenant(ctx), ex.SessionID, ex.Query, string(ex.Status),
		ex.Reply, ex.Reason, ex.Model, ex.Attempts, ex.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// ListExchanges returns a session's exchanges oldest first.
func (s *Store) ListExchanges(ctx context.Context, sessionID string, opts storage.ListOptions) (*api.Transcript, error) {
	q := newQuery(`
		SELECT id, session_id, query, status, reply, reason, model, attempts, created_at
		FROM exchanges
		WHERE session_id = $1`, sessionID)

	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		q.where("tenant_id = %s", tenantID)
	}
	if opts.After != "" {
		q.where("(created_at, id) > (SELECT created_at, id FROM exchanges WHERE id = %s)", opts.After)
	}

	limit := opts.EffectiveLimit()
	q.tail(" ORDER BY created_at ASC, id ASC LIMIT %s", limit+1)

	rows, err := s.pool.Query(ctx, q.sql.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	data, err := pgx.CollectRows(rows, scanExchange)
	if err != nil {
		return nil, fmt.Errorf("scanning exchanges: %w", err)
	}

	hasMore := len(data) > limit
	if hasMore {
		data = data[:limit]
	}
	if data == nil {
		data = []api.Exchange{}
	}

	return &api.Transcript{
		Object:    "list",
		SessionID: sessionID,
		Data:      data,
		HasMore:   hasMore,
	}, nil
}

// SaveSubmission inserts one contact submission.
func (s *Store) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (
			id, tenant_id, name, email, phone, service, message,
			operator_status, sender_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		sub.ID, storage.GetTenant(ctx), sub.Name, sub.Email, sub.Phone, sub.Service, sub.Message,
		string(sub.OperatorStatus), string(sub.SenderStatus), sub.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

const submissionColumns = `id, name, email, phone, service, message, operator_status, sender_status, created_at`

// GetSubmission retrieves one submission by ID.
func (s *Store) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	q := newQuery("SELECT "+submissionColumns+" FROM submissions WHERE id = $1", id)
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		q.where("tenant_id = %s", tenantID)
	}

	rows, err := s.pool.Query(ctx, q.sql.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying submission: %w", err)
	}
	sub, err := pgx.CollectExactlyOneRow(rows, scanSubmission)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning submission: %w", err)
	}
	return &sub, nil
}

// ListSubmissions returns submissions newest first.
func (s *Store) ListSubmissions(ctx context.Context, opts storage.ListOptions) (*api.SubmissionList, error) {
	q := newQuery("SELECT " + submissionColumns + " FROM submissions WHERE TRUE")

	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		q.where("tenant_id = %s", tenantID)
	}
	if opts.UndeliveredOnly {
		q.sql.WriteString(" AND (operator_status <> 'sent' OR sender_status <> 'sent')")
	}
	if opts.After != "" {
		q.where("(created_at, id) < (SELECT created_at, id FROM submissions WHERE id = %s)", opts.After)
	}

	limit := opts.EffectiveLimit()
	q.tail(" ORDER BY created_at DESC, id DESC LIMIT %s", limit+1)

	rows, err := s.pool.Query(ctx, q.sql.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	data, err := pgx.CollectRows(rows, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("scanning submissions: %w", err)
	}

	hasMore := len(data) > limit
	if hasMore {
		data = data[:limit]
	}
	if data == nil {
		data = []api.Submission{}
	}

	return &api.SubmissionList{Object: "list", Data: data, HasMore: hasMore}, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanExchange(row pgx.CollectableRow) (api.Exchange, error) {
	var ex api.Exchange
	var status string
	err := row.Scan(
		&ex.ID, &ex.SessionID, &ex.Query, &status,
		&ex.Reply, &ex.Reason, &ex.Model, &ex.Attempts, &ex.CreatedAt,
	)
	ex.Status = api.ChatStatus(status)
	return ex, err
}

func scanSubmission(row pgx.CollectableRow) (api.Submission, error) {
	var sub api.Submission
	var opStatus, senderStatus string
	err := row.Scan(
		&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &sub.Service, &sub.Message,
		&opStatus, &senderStatus, &sub.CreatedAt,
	)
	sub.OperatorStatus = api.DeliveryStatus(opStatus)
	sub.SenderStatus = api.DeliveryStatus(senderStatus)
	return sub, err
}

// query accumulates SQL with numbered placeholders.
type query struct {
	sql  strings.Builder
	args []any
}

func newQuery(base string, args ...any) *query {
	q := &query{args: args}
	q.sql.WriteString(base)
	return q
}

// where appends an AND clause; %s in cond becomes the next placeholder.
func (q *query) where(cond string, arg any) {
	q.args = append(q.args, arg)
	q.sql.WriteString(" AND ")
	q.sql.WriteString(fmt.Sprintf(cond, fmt.Sprintf("$%d", len(q.args))))
}

// tail appends a trailing clause with one placeholder.
func (q *query) tail(clause string, arg any) {
	q.args = append(q.args, arg)
	q.sql.WriteString(fmt.Sprintf(clause, fmt.Sprintf("$%d", len(q.args))))
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
