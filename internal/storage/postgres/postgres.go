// Package postgres implements storage.Storage on PostgreSQL using a pgx
// connection pool. Migrations run through goose over the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/migrate"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

// Postgres implements storage.Storage.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

// OpenDB opens a database/sql handle for dsn through the pgx driver.
// Only goose needs it; queries go through the pool.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sql connection: %w", err)
	}
	return db, nil
}

// New connects to dsn, applies pending migrations and returns the store.
func New(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty dsn")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := migrateUp(ctx, dsn, log); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func migrateUp(ctx context.Context, dsn string, log *slog.Logger) error {
	db, err := OpenDB(dsn)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	runner, err := migrate.New(db, migrate.DialectPostgres, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := runner.Up(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// CreateUser inserts a user.
func (p *Postgres) CreateUser(ctx context.Context, username, password string) (int64, error) {
	const query = `INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`
	var id int64
	if err := p.pool.QueryRow(ctx, query, username, password).Scan(&id); err != nil {
		return 0, fmt.Errorf("CreateUser: %w", err)
	}
	return id, nil
}

// GetUserByUsername fetches a user by exact username.
func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	const query = `SELECT id, username, password FROM users WHERE username = $1`
	var u types.User
	if err := p.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Password); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return &u, nil
}

// CreateStudent inserts a student and returns the stored row.
func (p *Postgres) CreateStudent(ctx context.Context, student types.Student) (*types.Student, error) {
	const query = `INSERT INTO students (name, email, course, address, age)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, course, address, age`
	var st types.Student
	err := p.pool.QueryRow(ctx, query, student.Name, student.Email, student.Course, student.Address, student.Age).
		Scan(&st.ID, &st.Name, &st.Email, &st.Course, &st.Address, &st.Age)
	if err != nil {
		return nil, fmt.Errorf("CreateStudent: %w", err)
	}
	return &st, nil
}

// GetStudentByID fetches one student.
func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	const query = `SELECT id, name, email, course, address, age FROM students WHERE id = $1`
	var st types.Student
	err := p.pool.QueryRow(ctx, query, id).Scan(&st.ID, &st.Name, &st.Email, &st.Course, &st.Address, &st.Age)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("GetStudentByID: %w", err)
	}
	return &st, nil
}

// ListStudents counts matches, then reads the requested page.
func (p *Postgres) ListStudents(ctx context.Context, params storage.ListParams) ([]types.Student, int, error) {
	q := storage.BuildListQuery(params, storage.Dollar)

	var total int
	if err := p.pool.QueryRow(ctx, q.Count, q.CountArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListStudents: count: %w", err)
	}

	rows, err := p.pool.Query(ctx, q.Select, q.SelectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var st types.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Course, &st.Address, &st.Age); err != nil {
			return nil, 0, fmt.Errorf("ListStudents: scan: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListStudents: rows: %w", err)
	}
	return students, total, nil
}

// UpdateStudent overwrites all mutable columns.
func (p *Postgres) UpdateStudent(ctx context.Context, id int64, student types.Student) error {
	const query = `UPDATE students SET name = $1, email = $2, course = $3, address = $4, age = $5 WHERE id = $6`
	tag, err := p.pool.Exec(ctx, query, student.Name, student.Email, student.Course, student.Address, student.Age, id)
	if err != nil {
		return fmt.Errorf("UpdateStudent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteStudent removes a row.
func (p *Postgres) DeleteStudent(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteStudent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping checks the pool.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases pooled connections.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
