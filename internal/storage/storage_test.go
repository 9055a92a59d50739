package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"coach-hub/internal/config"
	"coach-hub/internal/notifications"
	"coach-hub/internal/programcsv"
	"coach-hub/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	}
	store, err := Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func exec(t *testing.T, s *Store, query string, args ...interface{}) {
	t.Helper()
	_, err := s.db.Exec(s.rebind(query), args...)
	require.NoError(t, err)
}

// base is in the future so the reconciler keeps the seeded events.
var base = time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)

func seedCalendar(t *testing.T, s *Store) {
	t.Helper()
	exec(t, s, `INSERT INTO profiles (id, full_name) VALUES (?, ?), (?, ?)`,
		"client-1", "Ana Pérez", "coach-user", "Carlos Ruiz")
	exec(t, s, `INSERT INTO calendar_events (id, title, start_time, end_time, meet_link, coach_id, event_type, created_by_user_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"e1", "Consulta inicial", base.Add(24*time.Hour), base.Add(25*time.Hour), "https://meet.example/e1", "coach-1", "consultation", "coach-user", "pending")
	exec(t, s, `INSERT INTO calendar_events (id, title, start_time, coach_id, event_type, created_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"e2", "Taller de movilidad", base.Add(48*time.Hour), "coach-1", "workshop", "client-1")
	exec(t, s, `INSERT INTO calendar_event_participants (event_id, user_id, rsvp_status, updated_at, invited_by_user_id, invited_by_role)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"e1", "client-1", "pending", base, "coach-user", "coach")
	exec(t, s, `INSERT INTO calendar_event_participants (event_id, user_id, rsvp_status, updated_at)
		VALUES (?, ?, ?, ?)`,
		"e1", "coach-user", "accepted", base)
	exec(t, s, `INSERT INTO calendar_event_reschedule_requests (event_id, from_start_time, to_start_time, to_end_time, status, created_at, requested_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"e1", base.Add(24*time.Hour), base.Add(72*time.Hour), base.Add(73*time.Hour), "declined", base.Add(time.Hour), "client-1")
	exec(t, s, `INSERT INTO calendar_event_reschedule_requests (event_id, from_start_time, to_start_time, status, created_at, requested_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"e1", base.Add(24*time.Hour), base.Add(96*time.Hour), "pending", base.Add(2*time.Hour), "client-1")
}

func TestOpen(t *testing.T) {
	t.Run("unsupported type", func(t *testing.T) {
		_, err := Open(&config.Config{DatabaseType: "oracle"}, nil)
		assert.Error(t, err)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "twice.db")
		cfg := &config.Config{DatabaseType: "sqlite", DatabasePath: path}

		first, err := Open(cfg, nil)
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := Open(cfg, nil)
		require.NoError(t, err)
		defer second.Close()

		var count int
		require.NoError(t, second.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
		assert.Equal(t, 1, count)
		assert.NoError(t, second.Health(context.Background()))
	})
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	lite := &Store{dialect: DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))

	assert.Equal(t, "?, ?, ?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestCalendarQueries(t *testing.T) {
	s := setupTestStore(t)
	seedCalendar(t, s)
	ctx := context.Background()

	parts, err := s.ParticipantsForUser(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "e1", parts[0].EventID)
	assert.Equal(t, "coach", parts[0].InvitedByRole)
	assert.True(t, parts[0].UpdatedAt.Equal(base))

	parts, err = s.ParticipantsForEvents(ctx, []string{"e1", "e2"})
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	events, err := s.EventsByIDs(ctx, []string{"e1", "missing"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "https://meet.example/e1", events[0].MeetLink)
	require.NotNil(t, events[0].EndTime)
	assert.True(t, events[0].EndTime.Equal(base.Add(25*time.Hour)))

	created, err := s.EventsCreatedBy(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "e2", created[0].ID)
	assert.Nil(t, created[0].EndTime)
	assert.Empty(t, created[0].Status)

	consults, err := s.ConsultationEventsForCoach(ctx, "coach-1")
	require.NoError(t, err)
	require.Len(t, consults, 1)
	assert.Equal(t, "e1", consults[0].ID)

	all, err := s.RescheduleRequests(ctx, []string{"e1"}, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pending", all[0].Status, "newest first")

	pending, err := s.RescheduleRequests(ctx, []string{"e1"}, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].ToEndTime)

	profiles, err := s.Profiles(ctx, []string{"client-1", "coach-user"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	empty, err := s.EventsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCalendarMutations(t *testing.T) {
	s := setupTestStore(t)
	seedCalendar(t, s)
	ctx := context.Background()
	s.now = func() time.Time { return base.Add(5 * time.Hour) }

	require.NoError(t, s.UpdateParticipantStatus(ctx, "e1", "client-1", "accepted"))
	parts, err := s.ParticipantsForUser(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "accepted", parts[0].RSVPStatus)
	assert.True(t, parts[0].UpdatedAt.Equal(base.Add(5*time.Hour)))

	start := base.Add(96 * time.Hour)
	require.NoError(t, s.UpdateEvent(ctx, "e1", notifications.EventPatch{Status: "confirmed", StartTime: &start}))
	events, err := s.EventsByIDs(ctx, []string{"e1"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", events[0].Status)
	assert.True(t, events[0].StartTime.Equal(start))
	assert.True(t, events[0].EndTime.Equal(base.Add(25*time.Hour)), "end time untouched")

	require.NoError(t, s.UpdatePendingReschedule(ctx, "e1", "accepted"))
	pending, err := s.RescheduleRequests(ctx, []string{"e1"}, true)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := s.RescheduleRequests(ctx, []string{"e1"}, false)
	require.NoError(t, err)
	assert.Equal(t, "accepted", all[0].Status)
	assert.Equal(t, "declined", all[1].Status, "resolved rows are left alone")
}

func TestReconcileOverSQL(t *testing.T) {
	s := setupTestStore(t)
	seedCalendar(t, s)

	items, err := notifications.NewReconciler(s, nil).Reconcile(context.Background(),
		notifications.Actor{Role: notifications.RoleClient, UserID: "client-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	byEvent := map[string]notifications.Item{}
	for _, it := range items {
		byEvent[it.EventID] = it
	}
	require.Contains(t, byEvent, "e1")
	assert.Equal(t, "Carlos Ruiz", byEvent["e1"].OtherUserName)
	require.NotNil(t, byEvent["e1"].ReschedulePending)
	assert.True(t, byEvent["e1"].ReschedulePending.ToStartTime.Equal(base.Add(96*time.Hour)))
	assert.True(t, byEvent["e2"].IsCreator)
}

func TestPrograms(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	target := upload.Target{ActivityID: "act-1", CoachID: "coach-1"}
	other := upload.Target{ActivityID: "act-1", CoachID: "coach-2"}

	first := []programcsv.ProgramRow{
		{"semana": 1.0, "día": 1.0, "nombre_actividad": "Sentadilla"},
		{"semana": 1.0, "día": 3.0, "nombre_actividad": "Press banca"},
	}
	require.NoError(t, s.InsertPrograms(ctx, target, programcsv.Fitness, first))
	require.NoError(t, s.InsertPrograms(ctx, target, programcsv.Fitness, []programcsv.ProgramRow{
		{"semana": 2.0, "día": 1.0, "nombre_actividad": "Peso muerto"},
	}))
	require.NoError(t, s.InsertPrograms(ctx, other, programcsv.Fitness, first))
	require.NoError(t, s.InsertPrograms(ctx, target, programcsv.Nutrition, []programcsv.ProgramRow{{"comida": "Desayuno"}}))

	rows, err := s.ListPrograms(ctx, target, programcsv.Fitness)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sentadilla", rows[0]["nombre_actividad"])
	assert.Equal(t, "Peso muerto", rows[2]["nombre_actividad"], "appends keep upload order")

	require.NoError(t, s.DeletePrograms(ctx, target, programcsv.Fitness))

	rows, err = s.ListPrograms(ctx, target, programcsv.Fitness)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.ListPrograms(ctx, other, programcsv.Fitness)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "other coach untouched")

	rows, err = s.ListPrograms(ctx, target, programcsv.Nutrition)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "other program type untouched")

	require.NoError(t, s.InsertPrograms(ctx, target, programcsv.Fitness, nil))
}

func TestExecutorOverSQL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	target := upload.Target{ActivityID: "act-9", CoachID: "coach-9"}
	require.NoError(t, s.InsertPrograms(ctx, target, programcsv.Nutrition, []programcsv.ProgramRow{{"comida": "Antiguo"}}))

	spool := filepath.Join(t.TempDir(), "plan.csv")
	require.NoError(t, writeFile(spool, "semana,dia,comida,nombre,calorias\n1,Lunes,Desayuno,Avena,350\n1,Lunes,Cena,,200\n"))

	result := upload.NewExecutor(s, nil).Execute(ctx, programcsv.Operation{
		Type: programcsv.Nutrition,
		File: spool,
		Mode: programcsv.ModeReplace,
	}, target)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	rows, err := s.ListPrograms(ctx, target, programcsv.Nutrition)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Avena", rows[0]["nombre"])
	assert.Equal(t, 350.0, rows[0]["calorías"])
}
