package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/student"
)

const uniqueViolation = "23505"

var studentOrderings = map[string]string{
	"prn":        "prn",
	"name":       "lower(name)",
	"created_at": "created_at",
}

type studentRow struct {
	PRN       string      `db:"prn"`
	Name      string      `db:"name"`
	Email     null.String `db:"email"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r studentRow) unboil() student.Student {
	return student.Student{
		PRN:       r.PRN,
		Name:      r.Name,
		Email:     r.Email.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	row := studentRow{
		PRN:       std.PRN,
		Name:      std.Name,
		Email:     null.NewString(std.Email, std.Email != ""),
		CreatedAt: std.CreatedAt,
		UpdatedAt: std.UpdatedAt,
	}
	q := `INSERT INTO student (prn, name, email, created_at, updated_at)
		VALUES (:prn, :name, :email, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return student.Student{}, student.ErrPRNExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return row.unboil(), nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, prn string) (student.Student, error) {
	var row studentRow
	q := `SELECT prn, name, email, created_at, updated_at FROM student WHERE prn = $1`
	if err := repo.db.GetContext(ctx, &row, q, prn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.unboil(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if !filter.IsEmpty() {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, "(lower(prn) LIKE $1 OR lower(name) LIKE $1 OR lower(coalesce(email, '')) LIKE $1)")
	}

	q := `SELECT prn, name, email, created_at, updated_at FROM student`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + core.OrderByClause(ordering, studentOrderings, "prn ASC")

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.unboil())
	}
	return students, nil
}

func (repo *studentRepository) DeleteStudents(ctx context.Context, prns ...string) error {
	if len(prns) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM student WHERE prn IN (?)`, prns)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
