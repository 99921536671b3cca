// Package dummydb is an in-memory store for tests and local runs without a database.
package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

type (
	DB struct {
		student  *studentTable
		attempt  *attemptTable
		settings *settingsTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student // {prn: Student}
	}

	attemptTable struct {
		sync.RWMutex
		rows []attendance.CheckInAttempt // insertion order
	}

	settingsTable struct {
		sync.RWMutex
		zone   *attendance.Zone
		window *bool
	}
)

func Open() *DB {
	return &DB{
		student:  &studentTable{table: make(map[string]*student.Student)},
		attempt:  &attemptTable{},
		settings: &settingsTable{},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.student.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.Unlock()

	db.attempt.Lock()
	db.attempt.rows = nil
	db.attempt.Unlock()

	db.settings.Lock()
	db.settings.zone = nil
	db.settings.window = nil
	db.settings.Unlock()
}
