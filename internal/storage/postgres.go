package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
)

// PostgresOptions configures the remote connection pool.
type PostgresOptions struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// PostgresStore is the remote application store. Every statement carries
// an owner_id predicate.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ ApplicationStore = (*PostgresStore)(nil)

// ConnectPostgres opens a pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnLifetime = time.Hour
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, remote("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, remote("ping", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Close closes the connection pool.
func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate brings the remote schema up to date.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if err := migratePostgres(ctx, p.pool, postgresMigrations); err != nil {
		return remote("migrate", err)
	}
	return nil
}

const applicationColumns = `id::text, owner_id, company_name, position, status, application_date,
	COALESCE(job_url, ''), COALESCE(notes, ''), COALESCE(salary_range, ''),
	COALESCE(location, ''), COALESCE(job_type, ''),
	interview_date, COALESCE(interview_type, ''), follow_up_date,
	COALESCE(contact_name, ''), COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
	created_at, updated_at`

// Insert stores app for owner. The server assigns id and timestamps.
func (p *PostgresStore) Insert(ctx context.Context, owner string, app record.Application) (record.Application, error) {
	if owner == "" {
		return record.Application{}, ErrUnauthenticated
	}
	app.CreatedAt, app.UpdatedAt = time.Time{}, time.Time{}
	app, err := record.New(app, p.now())
	if err != nil {
		return record.Application{}, err
	}

	q := `
INSERT INTO applications (
	owner_id, company_name, position, status, application_date,
	job_url, notes, salary_range, location, job_type,
	interview_date, interview_type, follow_up_date,
	contact_name, contact_email, contact_phone
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + applicationColumns

	row := p.pool.QueryRow(ctx, q,
		owner, app.CompanyName, app.Position, string(app.Status), app.ApplicationDate.Time,
		nullText(app.JobURL), nullText(app.Notes), nullText(app.SalaryRange), nullText(app.Location), nullText(string(app.JobType)),
		app.InterviewDate, nullText(string(app.InterviewType)), app.FollowUpDate,
		nullText(app.ContactName), nullText(app.ContactEmail), nullText(app.ContactPhone),
	)
	stored, err := scanApplication(row)
	if err != nil {
		return record.Application{}, mapPgError("insert", err)
	}
	return stored, nil
}

// Query runs c server-side for owner.
func (p *PostgresStore) Query(ctx context.Context, owner string, c query.Criteria) ([]record.Application, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	q, args := buildSelect(owner, c, p.now())

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, remote("query", err)
	}
	defer rows.Close()

	out := []record.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, remote("scan application", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, remote("query", err)
	}
	return out, nil
}

// Update merges patch into the owner's record and sets updated_at to now.
func (p *PostgresStore) Update(ctx context.Context, owner, id string, patch record.Patch) (record.Application, error) {
	if owner == "" {
		return record.Application{}, ErrUnauthenticated
	}
	if err := patch.Validate(); err != nil {
		return record.Application{}, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return record.Application{}, ErrNotFound
	}

	q, args := buildUpdate(owner, uid, patch)
	app, err := scanApplication(p.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return record.Application{}, mapPgError("update", err)
	}
	return app, nil
}

// Remove deletes the owner's record, or returns ErrNotFound.
func (p *PostgresStore) Remove(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1 AND owner_id = $2`, uid, owner)
	if err != nil {
		return remote("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildSelect composes the filtered listing for owner. Text matches are
// case-insensitive substring matches with LIKE metacharacters escaped.
func buildSelect(owner string, c query.Criteria, now time.Time) (string, []any) {
	clauses := []string{"owner_id = $1"}
	args := []any{owner}

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if s, ok := c.StatusFilter(); ok {
		add("status = $%d", string(s))
	}
	if c.StartDate != nil {
		add("application_date >= $%d", c.StartDate.Time)
	}
	if c.EndDate != nil {
		add("application_date <= $%d", c.EndDate.Time)
	}
	if c.Company != "" {
		add(`company_name ILIKE $%d ESCAPE '\'`, likePattern(c.Company))
	}
	if c.JobType != "" {
		add("job_type = $%d", string(c.JobType))
	}
	if c.Location != "" {
		add(`location ILIKE $%d ESCAPE '\'`, likePattern(c.Location))
	}
	if c.HasInterview {
		clauses = append(clauses, "interview_date IS NOT NULL")
	}
	if c.NeedsFollowUp {
		add("follow_up_date IS NOT NULL AND follow_up_date <= $%d", now)
	}

	q := "SELECT " + applicationColumns + " FROM applications WHERE " +
		strings.Join(clauses, " AND ") +
		" ORDER BY application_date DESC, created_at ASC, id ASC"
	return q, args
}

// buildUpdate composes the merge of patch into (id, owner).
func buildUpdate(owner string, id uuid.UUID, patch record.Patch) (string, []any) {
	patch = patch.Normalized()
	var sets []string
	var args []any

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	setText := func(col string, v *string) {
		if v != nil {
			set(col, nullText(*v))
		}
	}

	setText("company_name", patch.CompanyName)
	setText("position", patch.Position)
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.ApplicationDate != nil {
		set("application_date", patch.ApplicationDate.Time)
	}
	setText("job_url", patch.JobURL)
	setText("notes", patch.Notes)
	setText("salary_range", patch.SalaryRange)
	setText("location", patch.Location)
	if patch.JobType != nil {
		set("job_type", nullText(string(*patch.JobType)))
	}
	if patch.ClearInterview {
		sets = append(sets, "interview_date = NULL")
	} else if patch.InterviewDate != nil {
		set("interview_date", *patch.InterviewDate)
	}
	if patch.InterviewType != nil {
		set("interview_type", nullText(string(*patch.InterviewType)))
	}
	if patch.ClearFollowUp {
		sets = append(sets, "follow_up_date = NULL")
	} else if patch.FollowUpDate != nil {
		set("follow_up_date", *patch.FollowUpDate)
	}
	setText("contact_name", patch.ContactName)
	setText("contact_email", patch.ContactEmail)
	setText("contact_phone", patch.ContactPhone)
	sets = append(sets, "updated_at = GREATEST(now(), created_at)")

	args = append(args, id, owner)
	q := fmt.Sprintf("UPDATE applications SET %s WHERE id = $%d AND owner_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), applicationColumns)
	return q, args
}

// likePattern wraps s for a substring ILIKE match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// nullText stores empty optional text as NULL.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanApplication(row pgx.Row) (record.Application, error) {
	var a record.Application
	var status, jobType, interviewType string
	var appDate time.Time
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.CompanyName, &a.Position, &status, &appDate,
		&a.JobURL, &a.Notes, &a.SalaryRange, &a.Location, &jobType,
		&a.InterviewDate, &interviewType, &a.FollowUpDate,
		&a.ContactName, &a.ContactEmail, &a.ContactPhone,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return record.Application{}, err
	}
	a.Status = record.Status(status)
	a.JobType = record.JobType(jobType)
	a.InterviewType = record.InterviewType(interviewType)
	a.ApplicationDate = record.DateOf(appDate)
	return record.Normalize(a), nil
}

// mapPgError converts driver errors into the storage taxonomy.
func mapPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23514" || pgErr.Code == "23502") {
		return &record.ValidationError{Fields: []record.FieldError{
			{Field: pgErr.ColumnName, Message: pgErr.Message},
		}}
	}
	return remote(op, err)
}
