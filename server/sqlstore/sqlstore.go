package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/app"
)

const driverName = "postgres"

// SQLStore is the Postgres implementation of app.Store.
type SQLStore struct {
	log     zerolog.Logger
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

var _ app.Store = (*SQLStore)(nil)

func New(ctx context.Context, dsn string, log zerolog.Logger) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	return NewFromDB(db, log), nil
}

func NewFromDB(db *sqlx.DB, log zerolog.Logger) *SQLStore {
	return &SQLStore{
		log:     log.With().Str("component", "sqlstore").Logger(),
		db:      db,
		builder: getQueryBuilder(),
	}
}

func getQueryBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type builder interface {
	ToSql() (string, []interface{}, error)
}

func (s *SQLStore) selectBuilder(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b builder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build sql")
	}

	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func (s *SQLStore) getBuilder(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b builder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build sql")
	}

	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func (s *SQLStore) execBuilder(ctx context.Context, e sqlx.ExecerContext, b builder) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sql")
	}

	return e.ExecContext(ctx, query, args...)
}

// execAffected runs b and returns the number of rows it touched.
func (s *SQLStore) execAffected(ctx context.Context, e sqlx.ExecerContext, b builder) (int64, error) {
	res, err := s.execBuilder(ctx, e, b)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) finalizeTransaction(tx *sqlx.Tx) {
	// Rollback returns sql.ErrTxDone if the transaction was already closed.
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		s.log.Error().Err(err).Msg("failed to rollback transaction")
	}
}
