package akademik

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := Open("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestAdvisor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	advisor, err := store.Advisor(ctx, "Agus Setiawan")
	require.NoError(t, err)
	require.Equal(t, "Dr. Budi Santoso", advisor)

	advisor, err = store.Advisor(ctx, "Rini Wijaya")
	require.NoError(t, err)
	require.Equal(t, "Prof. Siti Aminah", advisor)
}

func TestAdvisor_UnknownStudent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Advisor(context.Background(), "Unknown Student")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestTranscript(t *testing.T) {
	store := newTestStore(t)

	courses, err := store.Transcript(context.Background(), "Agus Setiawan")
	require.NoError(t, err)
	require.Equal(t, []Course{
		{Name: "Basis Data Lanjut", Grade: "B"},
		{Name: "Kecerdasan Buatan", Grade: "A"},
	}, courses)
}

func TestTranscript_UnknownStudent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Transcript(context.Background(), "Unknown Student")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestInit_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A second Init must not duplicate the seed data.
	require.NoError(t, store.Init(ctx))

	courses, err := store.Transcript(ctx, "Rini Wijaya")
	require.NoError(t, err)
	require.Len(t, courses, 2)
}
