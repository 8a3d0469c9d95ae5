package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"reviewpasta/internal/domain"
)

const uniqueViolation = "23505"

const businessColumns = `id::text, name, slug, place_id, location, description, owner_id, created_at`

const waitlistColumns = `id::text, email, phone_number, name, business_name, business_description, business_url, message, status, created_at`

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func valTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// Repo is the hosted backend on PostgreSQL.
type Repo struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func Open(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pgxpool.New")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres ping")
	}
	return New(pool), nil
}

func (r *Repo) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func (r *Repo) Add(ctx context.Context, b domain.NewBusiness) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
INSERT INTO businesses (id, name, slug, place_id, location, description, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))`,
		id, b.Name, b.Slug, b.PlaceID, b.Location, b.Description, b.OwnerID, valTime(b.CreatedAt))
	if isDuplicate(err) {
		return "", errors.Mark(errors.Wrapf(err, "slug %q", b.Slug), domain.ErrDuplicateSlug)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) UpdateDescription(ctx context.Context, id string, description *string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE businesses SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE slug = $1`, slug))
}

func (r *Repo) GetByID(ctx context.Context, id string) (domain.Business, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Business{}, domain.ErrNotFound
	}
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
}

func (r *Repo) List(ctx context.Context) ([]domain.Business, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+businessColumns+` FROM businesses ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) Slugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM businesses`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanBusiness(row pgx.Row) (domain.Business, error) {
	var b domain.Business
	if err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.PlaceID, &b.Location, &b.Description, &b.OwnerID, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// ---- waitlist ----

func (r *Repo) AddEntry(ctx context.Context, e domain.WaitlistEntry) (string, error) {
	if e.Status == "" {
		e.Status = domain.WaitlistPending
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
INSERT INTO waitlist (id, email, phone_number, name, business_name, business_description, business_url, message, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))`,
		id, e.Email, e.PhoneNumber, e.Name, e.BusinessName, e.BusinessDescription, e.BusinessURL,
		e.Message, string(e.Status), valTime(e.CreatedAt))
	if isDuplicate(err) {
		return "", errors.Mark(errors.Wrapf(err, "email %q", e.Email), domain.ErrDuplicateEmail)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) ListEntries(ctx context.Context, status *domain.WaitlistStatus) ([]domain.WaitlistEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = r.pool.Query(ctx, `SELECT `+waitlistColumns+` FROM waitlist WHERE status = $1 ORDER BY created_at DESC, id DESC`, string(*status))
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+waitlistColumns+` FROM waitlist ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WaitlistEntry
	for rows.Next() {
		var e domain.WaitlistEntry
		var st string
		if err := rows.Scan(&e.ID, &e.Email, &e.PhoneNumber, &e.Name, &e.BusinessName,
			&e.BusinessDescription, &e.BusinessURL, &e.Message, &st, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = domain.WaitlistStatus(st)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, status domain.WaitlistStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE waitlist SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
