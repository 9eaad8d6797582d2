package models

import (
	"database/sql"
	"math"
	"time"
)

type Reading struct {
	ID        int       `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Sensor    string    `json:"sensor"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Device    string    `json:"device"`
}

type ReadingModelInterface interface {
	Insert(device, sensor string, value float64, unit string, ts time.Time) error
	Latest() (map[string]Reading, error)
	Recent(since time.Time, maxPoints int) ([]Reading, error)
	Count() (int, error)
}

type ReadingModel struct {
	DB *sql.DB
}

func (m *ReadingModel) Insert(device, sensor string, value float64, unit string, ts time.Time) error {
	stmt := `INSERT INTO sensor_readings (timestamp, sensor, value, unit, device)
		VALUES (?, ?, ?, ?, ?)`
	_, err := m.DB.Exec(stmt, ts, sensor, value, unit, device)
	return err
}

// Latest returns the most recent reading per sensor.
func (m *ReadingModel) Latest() (map[string]Reading, error) {
	stmt := `SELECT r.sensor, r.value, COALESCE(r.unit, ''), r.timestamp, COALESCE(r.device, '')
		FROM sensor_readings r
		WHERE r.id = (SELECT MAX(id) FROM sensor_readings WHERE sensor = r.sensor)`
	rows, err := m.DB.Query(stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := map[string]Reading{}
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Sensor, &r.Value, &r.Unit, &r.Timestamp, &r.Device); err != nil {
			return nil, err
		}
		latest[r.Sensor] = r
	}
	return latest, rows.Err()
}

// Recent returns readings since the cutoff, downsampled so that no more than
// maxPoints rows come back (every step-th row is kept, oldest first).
func (m *ReadingModel) Recent(since time.Time, maxPoints int) ([]Reading, error) {
	stmt := `SELECT sensor, value, COALESCE(unit, ''), timestamp, COALESCE(device, '')
		FROM sensor_readings WHERE timestamp >= ? ORDER BY id ASC`
	rows, err := m.DB.Query(stmt, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Sensor, &r.Value, &r.Unit, &r.Timestamp, &r.Device); err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if maxPoints <= 0 || len(all) <= maxPoints {
		return all, nil
	}
	step := int(math.Ceil(float64(len(all)) / float64(maxPoints)))
	var filtered []Reading
	for i := 0; i < len(all); i += step {
		filtered = append(filtered, all[i])
	}
	return filtered, nil
}

func (m *ReadingModel) Count() (int, error) {
	var count int
	err := m.DB.QueryRow("SELECT COUNT(*) FROM sensor_readings").Scan(&count)
	return count, err
}
