package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Isolate each test with a fresh schema.
	require.NoError(t, db.Migrator().DropTable(&Record{}, &Collection{}))

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestCreateCollectionIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, "nutrition", 4))
	require.NoError(t, store.CreateCollection(ctx, "nutrition", 4))

	ok, err := store.HasCollection(ctx, "nutrition")
	require.NoError(t, err)
	assert.True(t, ok)

	// Same name with a different dimension must fail.
	err = store.CreateCollection(ctx, "nutrition", 8)
	assert.Error(t, err)
}

func TestDropCollectionTolerant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DropCollection(ctx, "missing"))

	require.NoError(t, store.CreateCollection(ctx, "recipes", 4))
	_, err := store.InsertSingle(ctx, "recipes",
		Document{Text: "清蒸鲈鱼"}, []float32{1, 0, 0, 0})
	require.NoError(t, err)

	require.NoError(t, store.DropCollection(ctx, "recipes"))
	ok, err := store.HasCollection(ctx, "recipes")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCollection(ctx, "nutrition", 4))

	_, err := store.Insert(ctx, "nutrition",
		[]Document{{Text: "a"}, {Text: "b"}},
		[][]float32{{1, 0, 0, 0}})
	assert.Error(t, err)

	_, err = store.Insert(ctx, "nutrition",
		[]Document{{Text: "a"}},
		[][]float32{{1, 0}})
	assert.Error(t, err)

	// Metadata values must be scalars; nested structures break the
	// exact-match filters.
	_, err = store.Insert(ctx, "nutrition",
		[]Document{{Text: "a", Metadata: map[string]any{"tags": []string{"高蛋白"}}}},
		[][]float32{{1, 0, 0, 0}})
	assert.Error(t, err)

	ids, err := store.Insert(ctx, "nutrition",
		[]Document{
			{Text: "a", Metadata: map[string]any{"category": "鱼类", "calories": 180}},
			{ID: "fixed-id", Text: "b"},
		},
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, "fixed-id", ids[1])
}

func TestSearchOrderingAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCollection(ctx, "nutrition", 3))

	docs := []Document{
		{ID: "tomato", Text: "番茄炒蛋", Metadata: map[string]any{"category": "家常菜"}},
		{ID: "fish", Text: "清蒸鲈鱼", Metadata: map[string]any{"category": "海鲜"}},
		{ID: "rice", Text: "白米饭", Metadata: map[string]any{"category": "主食"}},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
	_, err := store.Insert(ctx, "nutrition", docs, vectors)
	require.NoError(t, err)

	results, err := store.Search(ctx, "nutrition", []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "tomato", results[0].ID)
	assert.Equal(t, "fish", results[1].ID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)

	filtered, err := store.Search(ctx, "nutrition", []float32{1, 0, 0}, 10,
		map[string]any{"category": "主食"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "rice", filtered[0].ID)
}

func TestDeleteByIDsAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCollection(ctx, "exercise", 2))

	docs := make([]Document, 4)
	vectors := make([][]float32, 4)
	for i := range docs {
		docs[i] = Document{
			ID:       fmt.Sprintf("doc-%d", i),
			Text:     fmt.Sprintf("entry %d", i),
			Metadata: map[string]any{"source": "seed", "idx": i},
		}
		vectors[i] = []float32{float32(i), 1}
	}
	_, err := store.Insert(ctx, "exercise", docs, vectors)
	require.NoError(t, err)

	deleted, err := store.DeleteByIDs(ctx, "exercise", []string{"doc-0", "doc-9"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.DeleteByFilter(ctx, "exercise", map[string]any{"idx": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.DeleteByFilter(ctx, "exercise", nil)
	assert.Error(t, err)

	count, err := store.Count(ctx, "exercise")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCollection(ctx, "nutrition", 2))
	require.NoError(t, store.CreateCollection(ctx, "recipes", 2))

	_, err := store.InsertSingle(ctx, "nutrition", Document{Text: "鸡胸肉"}, []float32{1, 0})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "nutrition", stats[0].Name)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, int64(0), stats[1].Count)
}
