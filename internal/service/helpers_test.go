package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/embedding"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/knowledge"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newServiceTestDB opens a uniquely named shared in-memory database so the
// gorm connection pool sees one store and tests stay isolated.
func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.DietRecord{},
		&model.MenuRecognition{},
		&model.TripPlan{},
		&model.TripItem{},
		&model.ExerciseRecord{},
		&model.MealComparison{},
		&model.AICallLog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, user *model.User) *model.User {
	t.Helper()
	if user == nil {
		user = &model.User{}
	}
	if user.Username == "" {
		user.Username = "u-" + uuid.NewString()[:8]
	}
	if user.PasswordHash == "" {
		user.PasswordHash = "x"
	}
	if user.HealthGoal == "" {
		user.HealthGoal = model.GoalUnset
	}
	user.Status = 1
	require.NoError(t, db.Create(user).Error)
	return user
}

// stubLLM is a scriptable LLMClient. When respond is set it decides every
// reply; otherwise the fixed text/err fields apply.
type stubLLM struct {
	mu      sync.Mutex
	text    string
	err     error
	respond func(callType, prompt string, images int) (string, error)

	calls   []string
	prompts []string
}

func (s *stubLLM) Generate(ctx context.Context, callType, prompt string, userID *int64) (string, error) {
	return s.reply(callType, prompt, 0)
}

func (s *stubLLM) GenerateVision(ctx context.Context, callType, prompt string, images [][]byte, userID *int64) (string, error) {
	return s.reply(callType, prompt, len(images))
}

func (s *stubLLM) reply(callType, prompt string, images int) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, callType)
	s.prompts = append(s.prompts, prompt)
	respond := s.respond
	text, err := s.text, s.err
	s.mu.Unlock()

	if respond != nil {
		return respond(callType, prompt, images)
	}
	return text, err
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// newTestKnowledge builds a small seeded knowledge manager on the offline
// hashing encoder.
func newTestKnowledge(t *testing.T, db *gorm.DB) *knowledge.Manager {
	t.Helper()
	require.NoError(t, db.AutoMigrate(&vectorstore.Collection{}, &vectorstore.Record{}))
	store, err := vectorstore.NewStore(db)
	require.NoError(t, err)

	dataDir := t.TempDir()
	writeKnowledgeSeed(t, dataDir, "nutrition.json", []knowledge.NutritionRecord{
		{Name: "番茄炒蛋", Category: "家常菜", Calories: 120, Protein: 7.5, Fat: 8.2, Carbs: 5.1,
			Serving: "一盘约300克"},
		{Name: "清蒸鲈鱼", Category: "海鲜", Calories: 105, Protein: 18.6, Fat: 3.4},
	})
	writeKnowledgeSeed(t, dataDir, "recipes.json", []knowledge.RecipeRecord{
		{Name: "番茄炒蛋", Ingredients: []string{"番茄", "鸡蛋"}, AllergenCodes: []string{"egg"}},
		{Name: "鱼香肉丝", Ingredients: []string{"猪里脊", "豆瓣酱"}, HiddenAllergens: []string{"soy", "wheat"}},
	})
	writeKnowledgeSeed(t, dataDir, "exercise_mets.json", []knowledge.ExerciseRecord{
		{Name: "running", Aliases: []string{"跑步"}, Category: "有氧", METs: 8.0, Intensity: "vigorous"},
	})

	return knowledge.NewManagerWithEncoder(store, embedding.NewHashingEncoder(256), &config.KnowledgeConfig{
		DataDir:     dataDir,
		TopK:        3,
		MaxDistance: 1.5,
	})
}

func writeKnowledgeSeed(t *testing.T, dir, name string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0644))
}
