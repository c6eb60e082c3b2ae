package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/schedule"
)

const timeLayout = time.RFC3339Nano

// scheduleToValue converts a schedule to its stored JSON text, or nil (SQL
// NULL) when there is none.
func scheduleToValue(s *schedule.Schedule) (any, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := schedule.Encode(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// scheduleFromColumn reads a stored schedule; NULL and unreadable values
// mean no schedule.
func scheduleFromColumn(s sql.NullString) *schedule.Schedule {
	if !s.Valid {
		return nil
	}
	return schedule.Decode([]byte(s.String))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// classifySQLiteErr maps constraint failures to the package sentinels.
func classifySQLiteErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrParentMissing
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY"):
		return ErrDuplicate
	}
	return nil
}
