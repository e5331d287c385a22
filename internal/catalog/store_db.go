package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

//go:embed schema/*.sql
var schemaFS embed.FS

// SQLStore keeps products in the products table. Every call runs as its own
// session: one pooled connection, one statement, and for writes one committed
// transaction. The connection goes back to the pool on every exit path.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *zap.Logger
}

func NewSQLStore(db *sql.DB, dialect Dialect, log *zap.Logger) *SQLStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLStore{db: db, dialect: dialect, log: log}
}

// CreateSchema creates the products table if it does not exist yet.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	raw, err := schemaFS.ReadFile("schema/" + s.dialect.String() + ".sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	return s.write(ctx, "schema", func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range strings.Split(string(raw), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := s.session(ctx, "list", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT id, name, description, price, quantity
			FROM products
			ORDER BY seq ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := s.session(ctx, "get", func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, s.rebind(`
			SELECT id, name, description, price, quantity
			FROM products
			WHERE id = ?
			ORDER BY seq ASC
			LIMIT 1
		`), id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *SQLStore) Create(ctx context.Context, p Product) (Product, error) {
	err := s.write(ctx, "create", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO products (id, name, description, price, quantity)
			VALUES (?, ?, ?, ?, ?)
		`), p.ID, p.Name, p.Description, p.Price, p.Quantity)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *SQLStore) Update(ctx context.Context, id int, p Product) (bool, error) {
	var n int64

	err := s.write(ctx, "update", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE products
			SET name = ?, description = ?, price = ?, quantity = ?
			WHERE seq = (
				SELECT seq FROM products WHERE id = ? ORDER BY seq ASC LIMIT 1
			)
		`), p.Name, p.Description, p.Price, p.Quantity, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int) (bool, error) {
	var n int64

	err := s.write(ctx, "delete", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			DELETE FROM products
			WHERE seq = (
				SELECT seq FROM products WHERE id = ? ORDER BY seq ASC LIMIT 1
			)
		`), id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.session(ctx, "count", func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	})
	return n, err
}

// Seed checks for emptiness and inserts inside one transaction, so a failed
// row leaves nothing behind and two instances starting together seed once.
func (s *SQLStore) Seed(ctx context.Context, products []Product) (int, error) {
	var inserted int

	err := s.write(ctx, "seed", func(ctx context.Context, tx *sql.Tx) error {
		if s.dialect == DialectPostgres {
			if _, err := tx.ExecContext(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
				return fmt.Errorf("lock products: %w", err)
			}
		}

		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO products (id, name, description, price, quantity)
			VALUES (?, ?, ?, ?, ?)
		`))
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range products {
			if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Description, p.Price, p.Quantity); err != nil {
				return fmt.Errorf("seed product %d: %w", p.ID, err)
			}
		}
		inserted = len(products)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// session acquires a dedicated connection for fn and releases it afterwards,
// whether fn succeeds, fails or panics.
func (s *SQLStore) session(ctx context.Context, op string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}

		sid := uuid.NewString()
		s.log.Debug("store session opened", zap.String("session_id", sid), zap.String("op", op))
		defer func() {
			_ = conn.Close()
			s.log.Debug("store session closed", zap.String("session_id", sid), zap.String("op", op))
		}()

		return fn(ctx, conn)
	})
}

// write runs fn inside a transaction on its own session. The transaction is
// committed before write returns; any error rolls it back.
func (s *SQLStore) write(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return s.session(ctx, op, func(ctx context.Context, conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", op, err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", op, err)
		}
		return nil
	})
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
