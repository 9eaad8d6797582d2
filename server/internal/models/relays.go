package models

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

type ActuatorEvent struct {
	ID        int       `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	RelayID   int       `json:"relay_id"`
	State     int       `json:"state"`
	Source    string    `json:"source"`
}

type RelayModelInterface interface {
	Size() int
	DesiredMask() (string, error)
	SetDesiredMask(mask, source string) error
	SetRelay(n int, on bool, source string) (string, error)
	Events(limit int) ([]ActuatorEvent, error)
}

// RelayModel stores the desired relay mask the controller polls for, and an
// audit trail of every change.
type RelayModel struct {
	DB   *sql.DB
	size int
}

// NewRelayModel ensures the single desired-mask row exists (all off).
func NewRelayModel(db *sql.DB, size int) (*RelayModel, error) {
	m := &RelayModel{DB: db, size: size}
	mask := strings.Repeat("0", size)
	_, err := db.Exec("INSERT OR IGNORE INTO relay_desired (id, mask) VALUES (1, ?)", mask)
	if err != nil {
		return nil, err
	}
	// A size change in config invalidates the stored mask; reset it.
	current, err := m.DesiredMask()
	if err != nil {
		return nil, err
	}
	if len(current) != size {
		if _, err := db.Exec("UPDATE relay_desired SET mask = ? WHERE id = 1", mask); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RelayModel) Size() int { return m.size }

func (m *RelayModel) DesiredMask() (string, error) {
	var mask string
	err := m.DB.QueryRow("SELECT mask FROM relay_desired WHERE id = 1").Scan(&mask)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRecord
	}
	return mask, err
}

// SetDesiredMask replaces the whole mask and records an event per changed
// relay. The mask must be exactly size chars of '0'/'1'.
func (m *RelayModel) SetDesiredMask(mask, source string) error {
	if !m.validMask(mask) {
		return ErrInvalidMask
	}
	current, err := m.DesiredMask()
	if err != nil {
		return err
	}
	if _, err := m.DB.Exec("UPDATE relay_desired SET mask = ? WHERE id = 1", mask); err != nil {
		return err
	}
	for i := range mask {
		if mask[i] != current[i] {
			if err := m.logEvent(i+1, mask[i] == '1', source); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetRelay flips one relay in the mask and returns the new mask.
func (m *RelayModel) SetRelay(n int, on bool, source string) (string, error) {
	if n < 1 || n > m.size {
		return "", ErrInvalidMask
	}
	current, err := m.DesiredMask()
	if err != nil {
		return "", err
	}
	bits := []byte(current)
	want := byte('0')
	if on {
		want = '1'
	}
	if bits[n-1] == want {
		return current, nil
	}
	bits[n-1] = want
	mask := string(bits)
	if _, err := m.DB.Exec("UPDATE relay_desired SET mask = ? WHERE id = 1", mask); err != nil {
		return "", err
	}
	if err := m.logEvent(n, on, source); err != nil {
		return "", err
	}
	return mask, nil
}

func (m *RelayModel) Events(limit int) ([]ActuatorEvent, error) {
	stmt := `SELECT id, timestamp, relay_id, state, COALESCE(source, '')
		FROM actuator_events ORDER BY id DESC LIMIT ?`
	rows, err := m.DB.Query(stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ActuatorEvent
	for rows.Next() {
		var e ActuatorEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.RelayID, &e.State, &e.Source); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (m *RelayModel) logEvent(relayID int, on bool, source string) error {
	state := 0
	if on {
		state = 1
	}
	_, err := m.DB.Exec(
		"INSERT INTO actuator_events (timestamp, relay_id, state, source) VALUES (?, ?, ?, ?)",
		time.Now().UTC(), relayID, state, source)
	return err
}

func (m *RelayModel) validMask(mask string) bool {
	if len(mask) != m.size {
		return false
	}
	for i := 0; i < len(mask); i++ {
		if mask[i] != '0' && mask[i] != '1' {
			return false
		}
	}
	return true
}
