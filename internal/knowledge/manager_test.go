package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/embedding"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&vectorstore.Record{}, &vectorstore.Collection{}))

	store, err := vectorstore.NewStore(db)
	require.NoError(t, err)

	dataDir := t.TempDir()
	writeSeed(t, dataDir, "nutrition.json", []NutritionRecord{
		{Name: "番茄炒蛋", Category: "家常菜", Calories: 120, Protein: 7.5, Fat: 8.2, Carbs: 5.1,
			Serving: "一盘约300克", CookingNote: "油量差异大"},
		{Name: "清蒸鲈鱼", Category: "海鲜", Calories: 105, Protein: 18.6, Fat: 3.4},
		{Name: "白米饭", Category: "主食", Calories: 116, Protein: 2.6, Fat: 0.3, Carbs: 25.9},
	})
	writeSeed(t, dataDir, "recipes.json", []RecipeRecord{
		{Name: "鱼香肉丝", Ingredients: []string{"猪里脊", "豆瓣酱"},
			HiddenAllergens: []string{"soy", "wheat"},
			Narrative:       "调味汁含酱油"},
		{Name: "番茄炒蛋", Ingredients: []string{"番茄", "鸡蛋"},
			AllergenCodes: []string{"egg"}},
	})
	writeSeed(t, dataDir, "exercise_mets.json", []ExerciseRecord{
		{Name: "running", Aliases: []string{"跑步"}, Category: "有氧", METs: 8.0, Intensity: "vigorous"},
		{Name: "yoga", Aliases: []string{"瑜伽"}, Category: "柔韧", METs: 2.5, Intensity: "light"},
	})

	return NewManagerWithEncoder(store, embedding.NewHashingEncoder(256), &config.KnowledgeConfig{
		DataDir:     dataDir,
		TopK:        3,
		MaxDistance: 1.5,
	})
}

func writeSeed(t *testing.T, dir, name string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0644))
}

func TestBuildIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Build(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.RowCounts[CollectionNutrition])
	assert.Equal(t, int64(2), first.RowCounts[CollectionRecipes])
	assert.Equal(t, int64(2), first.RowCounts[CollectionExercise])

	second, err := m.Build(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, first.RowCounts, second.RowCounts)

	forced, err := m.Build(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, first.RowCounts, forced.RowCounts)
}

func TestEnsureInitializedSingleFlight(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ok, err := m.EnsureInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.EnsureInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNutritionContextHit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.Build(ctx, false)
	require.NoError(t, err)

	text, err := m.NutritionContext(ctx, "番茄炒蛋")
	require.NoError(t, err)
	require.NotEmpty(t, text)
	assert.True(t, strings.HasPrefix(text, "以下是《中国食物成分表》中的参考条目:"))
	assert.Contains(t, text, "番茄炒蛋")
	assert.Contains(t, text, "热量120千卡")
}

func TestNutritionContextEmpty(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.Build(ctx, false)
	require.NoError(t, err)

	// A tight distance bound filters everything out.
	m.maxDistance = 0.01
	text, err := m.NutritionContext(ctx, "完全不相关的查询文本xyz")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestHiddenAllergens(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.Build(ctx, false)
	require.NoError(t, err)

	codes, err := m.HiddenAllergens(ctx, "鱼香肉丝", 0.8)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"soy", "wheat"}, codes)
}

func TestAddIncremental(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.Build(ctx, false)
	require.NoError(t, err)

	id, err := m.AddNutrition(ctx, NutritionRecord{
		Name: "鸡胸肉", Category: "肉类", Calories: 133, Protein: 24.6, Fat: 3.1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	for _, s := range stats {
		if s.Name == CollectionNutrition {
			assert.Equal(t, int64(4), s.Count)
		}
	}
}

func TestExerciseMETsLookup(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.Build(ctx, false)
	require.NoError(t, err)

	mets, ok, err := m.ExerciseMETs(ctx, "跑步", 1.5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 8.0, mets, 0.001)
}
