package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubNutrition scripts per-dish analysis results and tracks concurrency.
type stubNutrition struct {
	mu       sync.Mutex
	results  map[string]*NutritionResult
	failOn   map[string]bool
	inFlight int32
	maxSeen  int32
}

func (s *stubNutrition) Analyze(ctx context.Context, foodName string, userID *int64, userAllergens []string) (*NutritionResult, error) {
	current := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, current) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[foodName] {
		return nil, errors.New("analyze failed")
	}
	if r, ok := s.results[foodName]; ok {
		return r, nil
	}
	return &NutritionResult{Name: foodName, Calories: 200, Protein: 18, Fat: 8, Carbs: 12}, nil
}

func TestMenuRecognizePreservesOrderAndDefaults(t *testing.T) {
	db := newServiceTestDB(t)
	menuRepo := repository.NewMenuRecognitionRepository(db)

	llm := &stubLLM{text: `["宫保鸡丁", "失败菜", "清蒸鲈鱼"]`}
	nutrition := &stubNutrition{
		failOn: map[string]bool{"失败菜": true},
		results: map[string]*NutritionResult{
			"宫保鸡丁": {Name: "宫保鸡丁", Calories: 230, Protein: 21, Fat: 10, Carbs: 14},
			"清蒸鲈鱼": {Name: "清蒸鲈鱼", Calories: 180, Protein: 26, Fat: 8, Carbs: 1},
		},
	}
	svc := NewMenuService(llm, nutrition, menuRepo)

	userID := int64(7)
	dishes, err := svc.Recognize(context.Background(), &userID, []byte("png"), model.GoalReduceFat, nil)
	require.NoError(t, err)
	require.Len(t, dishes, 3)

	assert.Equal(t, "宫保鸡丁", dishes[0].Name)
	assert.True(t, dishes[0].IsRecommended)

	assert.Equal(t, "失败菜", dishes[1].Name)
	assert.Zero(t, dishes[1].Calories)
	assert.Contains(t, dishes[1].Reason, "营养数据暂不可用")

	assert.Equal(t, "清蒸鲈鱼", dishes[2].Name)
	assert.True(t, dishes[2].IsRecommended)

	latest, err := svc.Latest(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Dishes, 3)
}

func TestMenuRecognizeBoundsConcurrency(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("菜品%d", i)
	}
	llm := &stubLLM{text: mustJSONArray(names)}
	nutrition := &stubNutrition{}
	svc := NewMenuService(llm, nutrition, nil)

	dishes, err := svc.Recognize(context.Background(), nil, []byte("png"), "", nil)
	require.NoError(t, err)
	require.Len(t, dishes, len(names))
	assert.LessOrEqual(t, nutrition.maxSeen, int32(menuAnalyzeConcurrency))
	for i, d := range dishes {
		assert.Equal(t, names[i], d.Name)
	}
}

func TestMenuRecognizeVisionFailureDegradesToEmptyList(t *testing.T) {
	llm := &stubLLM{err: errors.New("vision down")}
	svc := NewMenuService(llm, &stubNutrition{}, nil)

	dishes, err := svc.Recognize(context.Background(), nil, []byte("png"), "", nil)
	require.NoError(t, err)
	assert.Empty(t, dishes)
}

func TestMenuRecognizeGarbledResponseDegradesToEmptyList(t *testing.T) {
	llm := &stubLLM{text: "对不起, 我无法识别这张图片"}
	svc := NewMenuService(llm, &stubNutrition{}, nil)

	dishes, err := svc.Recognize(context.Background(), nil, []byte("png"), "", nil)
	require.NoError(t, err)
	assert.Empty(t, dishes)
}

func TestMenuRecognizeAnonymousSkipsPersist(t *testing.T) {
	db := newServiceTestDB(t)
	menuRepo := repository.NewMenuRecognitionRepository(db)

	llm := &stubLLM{text: `["青椒土豆丝"]`}
	svc := NewMenuService(llm, &stubNutrition{}, menuRepo)

	_, err := svc.Recognize(context.Background(), nil, []byte("png"), "", nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.MenuRecognition{}).Count(&count).Error)
	assert.Zero(t, count)
}

func mustJSONArray(names []string) string {
	out := "["
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", n)
	}
	return out + "]"
}
