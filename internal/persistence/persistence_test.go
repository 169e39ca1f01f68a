package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusressel/battctl/internal/discharge"
)

func testPersistence(t *testing.T) Persistence {
	t.Helper()
	return NewPersistence(filepath.Join(t.TempDir(), "battctl.db"))
}

func testSession(startedAt time.Time, outcome discharge.Outcome, lastPercent int) discharge.Session {
	return discharge.Session{
		Battery:     "BAT0",
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(30 * time.Minute),
		Outcome:     outcome,
		LastPercent: lastPercent,
	}
}

func TestPersistence_SaveLoadDischargeSessions(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := testSession(base, discharge.OutcomeCompleted, 0)
	second := testSession(base.Add(time.Hour), discharge.OutcomePartialACRemoved, 30)

	// WHEN: saved out of order
	require.NoError(t, p.SaveDischargeSession(second))
	require.NoError(t, p.SaveDischargeSession(first))

	// THEN: loaded oldest first
	sessions, err := p.LoadDischargeSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, discharge.OutcomeCompleted, sessions[0].Outcome)
	assert.Equal(t, discharge.OutcomePartialACRemoved, sessions[1].Outcome)
	assert.Equal(t, 30, sessions[1].LastPercent)
}

func TestPersistence_LoadLastDischargeSession(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.SaveDischargeSession(testSession(base, discharge.OutcomeCancelled, 80)))
	require.NoError(t, p.SaveDischargeSession(testSession(base.Add(time.Hour), discharge.OutcomeCompleted, 0)))

	// WHEN
	last, err := p.LoadLastDischargeSession()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, discharge.OutcomeCompleted, last.Outcome)
}

func TestPersistence_LoadLastDischargeSession_Empty(t *testing.T) {
	// GIVEN
	p := testPersistence(t)

	// WHEN
	_, err := p.LoadLastDischargeSession()

	// THEN
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPersistence_DeleteDischargeSessions(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	require.NoError(t, p.SaveDischargeSession(testSession(time.Now(), discharge.OutcomeCompleted, 0)))

	// WHEN
	require.NoError(t, p.DeleteDischargeSessions())

	// THEN
	sessions, err := p.LoadDischargeSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
