package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"reviewpasta/internal/domain"
)

const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects and pings. The DSN must carry parseTime=true.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sql.Open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db.Ping")
	}
	return New(db), nil
}

func (r *Repo) Close(context.Context) error { return r.db.Close() }

func (r *Repo) Add(ctx context.Context, b domain.NewBusiness) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertBusinessSQL,
		id,
		b.Name,
		b.Slug,
		b.PlaceID,
		valStr(b.Location),
		valStr(b.Description),
		valStr(b.OwnerID),
		valTime(b.CreatedAt),
	)
	if isDuplicate(err) {
		return "", errors.Mark(errors.Wrapf(err, "slug %q", b.Slug), domain.ErrDuplicateSlug)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) UpdateDescription(ctx context.Context, id string, description *string) error {
	// RowsAffected is 0 for a same-value update, so existence is checked first.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, updateDescriptionSQL, valStr(description), id)
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteBusinessSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Business, error) {
	return scanBusiness(r.db.QueryRowContext(ctx, getBusinessBySlugSQL, slug))
}

func (r *Repo) GetByID(ctx context.Context, id string) (domain.Business, error) {
	return scanBusiness(r.db.QueryRowContext(ctx, getBusinessByIDSQL, id))
}

func (r *Repo) List(ctx context.Context) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL)
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
	rows, err := r.db.QueryContext(ctx, listSlugsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (domain.Business, error) {
	var b domain.Business
	var location, desc, owner sql.NullString
	if err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.PlaceID, &location, &desc, &owner, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	b.Location = strPtr(location)
	b.Description = strPtr(desc)
	b.OwnerID = strPtr(owner)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// ---- waitlist ----

func (r *Repo) AddEntry(ctx context.Context, e domain.WaitlistEntry) (string, error) {
	if e.Status == "" {
		e.Status = domain.WaitlistPending
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertWaitlistSQL,
		id,
		e.Email,
		e.PhoneNumber,
		e.Name,
		e.BusinessName,
		e.BusinessDescription,
		e.BusinessURL,
		valStr(e.Message),
		string(e.Status),
		valTime(e.CreatedAt),
	)
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
		rows *sql.Rows
		err  error
	)
	if status != nil {
		rows, err = r.db.QueryContext(ctx, listWaitlistByStatusSQL, string(*status))
	} else {
		rows, err = r.db.QueryContext(ctx, listWaitlistSQL)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WaitlistEntry
	for rows.Next() {
		var e domain.WaitlistEntry
		var msg sql.NullString
		var st string
		if err := rows.Scan(&e.ID, &e.Email, &e.PhoneNumber, &e.Name, &e.BusinessName,
			&e.BusinessDescription, &e.BusinessURL, &msg, &st, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Message = strPtr(msg)
		e.Status = domain.WaitlistStatus(st)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, status domain.WaitlistStatus) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM waitlist WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, updateWaitlistStatusSQL, string(status), id)
	return err
}
