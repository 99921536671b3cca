package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[std.PRN]; ok {
		return student.Student{}, student.ErrPRNExists
	}
	repo.db.table[std.PRN] = &std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, prn string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[prn]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		if !filter.IsEmpty() {
			search := strings.ToLower(filter.Search)
			if !(strings.Contains(strings.ToLower(std.PRN), search) ||
				strings.Contains(strings.ToLower(std.Name), search) ||
				strings.Contains(strings.ToLower(std.Email), search)) {
				continue
			}
		}
		students = append(students, *std)
	}

	ord := core.DBOrdering{Field: "prn", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(students, func(i, j int) bool {
		var c int
		switch ord.Field {
		case "name":
			c = strings.Compare(strings.ToLower(students[i].Name), strings.ToLower(students[j].Name))
		case "created_at":
			c = students[i].CreatedAt.Compare(students[j].CreatedAt)
		default:
			c = strings.Compare(students[i].PRN, students[j].PRN)
		}
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	})
	return students, nil
}

func (repo *studentRepository) DeleteStudents(_ context.Context, prns ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, prn := range prns {
		delete(repo.db.table, prn)
	}
	return nil
}
