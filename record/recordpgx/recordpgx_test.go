package recordpgx_test

import (
	"context"
	"log/slog"
	"testing"

	conductor "github.com/ayanko/active-conductor"
	"github.com/ayanko/active-conductor/internal/testdb"
	"github.com/ayanko/active-conductor/record/recordpgx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Article struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a *Article) Validate(errs conductor.Errors) {
	if a.Title == "" {
		errs.Add("title", "can't be blank")
	}
}

func setup(t *testing.T) *recordpgx.Store {
	t.Helper()
	store, _ := testdb.NewStore(t, slog.Default())
	return store
}

func TestKind(t *testing.T) {
	t.Parallel()
	require.Equal(t, "article", recordpgx.Kind(&Article{}))
	require.Equal(t, "article", recordpgx.Kind(Article{}))
}

func TestSaveAssignsID(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	r := store.Bind(&Article{Title: "hello", Body: "world"})
	require.True(t, r.IsNew())
	require.Equal(t, uuid.Nil, r.ID())

	require.True(t, r.Save(ctx))
	require.False(t, r.IsNew())
	require.NotEqual(t, uuid.Nil, r.ID())

	n, err := store.Count(ctx, "article")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestSaveInvalid(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	r := store.Bind(&Article{Body: "no title"})
	require.False(t, r.Save(ctx))
	require.True(t, r.IsNew())
	require.Equal(t, []string{"can't be blank"}, r.Errors().On("title"))

	n, err := store.Count(ctx, "article")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSaveUpsertsAndLoad(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	a := &Article{Title: "hello", Body: "world"}
	r := store.Bind(a)
	require.True(t, r.Save(ctx))

	a.Body = "updated"
	require.True(t, r.Save(ctx))

	n, err := store.Count(ctx, "article")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	var loaded Article
	lr, err := store.Load(ctx, r.ID(), &loaded)
	require.NoError(t, err)
	require.Equal(t, Article{Title: "hello", Body: "updated"}, loaded)
	require.False(t, lr.IsNew())
	require.Equal(t, r.ID(), lr.ID())
}

func TestLoadUnknownID(t *testing.T) {
	store := setup(t)

	var loaded Article
	_, err := store.Load(context.Background(), uuid.New(), &loaded)
	require.Error(t, err)
}

func TestUnboundRecordPanics(t *testing.T) {
	t.Parallel()
	r := &recordpgx.Record{}
	require.Panics(t, func() { r.Save(context.Background()) })
}
