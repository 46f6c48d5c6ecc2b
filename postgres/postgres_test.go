package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/editor"
	"github.com/meikuraledutech/process/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ process.Store = (*PGStore)(nil)

// newStore connects to TEST_DATABASE_URL and starts from an empty schema.
func newStore(t *testing.T) *PGStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	return s
}

func TestPGStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	f := shapes.NewFactory(shapes.DefaultCatalog())
	sess := editor.NewSession(editor.NewProcess(f, 9, "Refunds"), f)
	var st, end *process.Shape
	for _, sh := range sess.Process().Shapes {
		switch sh.Kind() {
		case process.ShapeKindSystemTask:
			st = sh
		case process.ShapeKindEnd:
			end = sh
		}
	}
	_, err := sess.InsertDecision(process.ShapeKindSystemDecision, st.ID, end.ID)
	require.NoError(t, err)

	saved, err := s.SaveProcess(ctx, sess.Process())
	require.NoError(t, err)
	assert.Empty(t, saved.LocalShapes())

	loaded, err := s.GetProcess(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Shapes, len(saved.Shapes))
	for i, sh := range saved.Shapes {
		assert.Equal(t, sh.ID, loaded.Shapes[i].ID)
		assert.Equal(t, sh.Kind(), loaded.Shapes[i].Kind())
	}
	if diff := cmp.Diff(saved.Links, loaded.Links); diff != "" {
		t.Errorf("links mismatch (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(saved.DecisionBranchDestinationLinks, loaded.DecisionBranchDestinationLinks); diff != "" {
		t.Errorf("destination links mismatch (-saved +loaded):\n%s", diff)
	}

	_, err = s.SaveProcess(ctx, loaded)
	require.NoError(t, err, "saving again keeps persisted ids")

	require.NoError(t, s.DeleteProcess(ctx, saved.ID))
	_, err = s.GetProcess(ctx, saved.ID)
	assert.ErrorIs(t, err, process.ErrProcessNotFound)
}
