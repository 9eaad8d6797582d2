package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelayModelSeedsAllOff(t *testing.T) {
	db := newTestDB(t)

	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	mask, err := m.DesiredMask()
	require.NoError(t, err)
	assert.Equal(t, "000000000", mask)
	assert.Equal(t, 9, m.Size())
}

func TestNewRelayModelResetsOnSizeChange(t *testing.T) {
	db := newTestDB(t)

	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)
	require.NoError(t, m.SetDesiredMask("111111111", "test"))

	m, err = NewRelayModel(db, 4)
	require.NoError(t, err)

	mask, err := m.DesiredMask()
	require.NoError(t, err)
	assert.Equal(t, "0000", mask)
}

func TestSetDesiredMask(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	require.NoError(t, m.SetDesiredMask("101000000", "api"))

	mask, err := m.DesiredMask()
	require.NoError(t, err)
	assert.Equal(t, "101000000", mask)

	// One audit event per changed bit.
	events, err := m.Events(10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "api", e.Source)
		assert.Equal(t, 1, e.State)
	}
}

func TestSetDesiredMaskRejectsInvalid(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetDesiredMask("1010", "api"), ErrInvalidMask)
	assert.ErrorIs(t, m.SetDesiredMask("10100000x", "api"), ErrInvalidMask)
	assert.ErrorIs(t, m.SetDesiredMask(strings.Repeat("1", 10), "api"), ErrInvalidMask)
}

func TestSetRelay(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	mask, err := m.SetRelay(3, true, "dashboard")
	require.NoError(t, err)
	assert.Equal(t, "001000000", mask)

	mask, err = m.SetRelay(9, true, "dashboard")
	require.NoError(t, err)
	assert.Equal(t, "001000001", mask)

	mask, err = m.SetRelay(3, false, "dashboard")
	require.NoError(t, err)
	assert.Equal(t, "000000001", mask)
}

func TestSetRelayNoOpWhenAlreadySet(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	_, err = m.SetRelay(1, true, "api")
	require.NoError(t, err)
	_, err = m.SetRelay(1, true, "api")
	require.NoError(t, err)

	events, err := m.Events(10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSetRelayOutOfRange(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	_, err = m.SetRelay(0, true, "api")
	assert.ErrorIs(t, err, ErrInvalidMask)
	_, err = m.SetRelay(10, true, "api")
	assert.ErrorIs(t, err, ErrInvalidMask)
}

func TestEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	m, err := NewRelayModel(db, 9)
	require.NoError(t, err)

	for n := 1; n <= 3; n++ {
		_, err = m.SetRelay(n, true, "api")
		require.NoError(t, err)
	}

	events, err := m.Events(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].RelayID)
	assert.Equal(t, 2, events[1].RelayID)
}
