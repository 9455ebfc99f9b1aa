package knowledge

import (
	"context"
	"strconv"
	"sync"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/embedding"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/vectorstore"
	"go.uber.org/zap"
)

// BuildReport lists row counts per collection after a build.
type BuildReport struct {
	RowCounts map[string]int64 `json:"row_counts"`
}

// Manager owns the three knowledge bases and the shared encoder.
type Manager struct {
	store     *vectorstore.Store
	encoder   embedding.Encoder
	nutrition *Base
	recipes   *Base
	exercise  *Base

	initOnce    sync.Once
	initErr     error
	initialized bool

	topK        int
	maxDistance float64
}

var (
	encoderOnce   sync.Once
	sharedEncoder embedding.Encoder
)

// defaultEncoder returns the process-wide encoder, created on first use.
func defaultEncoder(cfg *config.KnowledgeConfig, ai *config.AIConfig) embedding.Encoder {
	encoderOnce.Do(func() {
		if cfg.UseRemoteEmbedding {
			sharedEncoder = embedding.NewOpenAIEncoder(
				ai.Endpoint, ai.APIKey, ai.EmbeddingModel, embedding.DefaultDim)
			return
		}
		sharedEncoder = embedding.NewHashingEncoder(embedding.DefaultDim)
	})
	return sharedEncoder
}

// NewManager creates a manager backed by the given store using the
// process-wide encoder chosen by configuration.
func NewManager(store *vectorstore.Store, cfg *config.KnowledgeConfig, ai *config.AIConfig) *Manager {
	return NewManagerWithEncoder(store, defaultEncoder(cfg, ai), cfg)
}

// NewManagerWithEncoder creates a manager with an explicit encoder.
func NewManagerWithEncoder(store *vectorstore.Store, encoder embedding.Encoder, cfg *config.KnowledgeConfig) *Manager {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	maxDistance := cfg.MaxDistance
	if maxDistance <= 0 {
		maxDistance = 1.5
	}
	return &Manager{
		store:       store,
		encoder:     encoder,
		nutrition:   NewNutritionBase(store, encoder, cfg.DataDir),
		recipes:     NewRecipeBase(store, encoder, cfg.DataDir),
		exercise:    NewExerciseBase(store, encoder, cfg.DataDir),
		topK:        topK,
		maxDistance: maxDistance,
	}
}

// Build builds all three bases. force drops and rebuilds each collection.
func (m *Manager) Build(ctx context.Context, force bool) (*BuildReport, error) {
	report := &BuildReport{RowCounts: make(map[string]int64)}
	for _, base := range []*Base{m.nutrition, m.recipes, m.exercise} {
		count, err := base.Build(ctx, force)
		if err != nil {
			return nil, err
		}
		report.RowCounts[base.Name()] = count
	}
	return report, nil
}

// EnsureInitialized builds on first call and caches the result. Every later
// call returns the cached truth without touching the store.
func (m *Manager) EnsureInitialized(ctx context.Context) (bool, error) {
	m.initOnce.Do(func() {
		if _, err := m.Build(ctx, false); err != nil {
			m.initErr = err
			logger.Error("知识库初始化失败", zap.Error(err))
			return
		}
		m.initialized = true
	})
	return m.initialized, m.initErr
}

// AddNutrition inserts one composition row incrementally.
func (m *Manager) AddNutrition(ctx context.Context, record NutritionRecord) (string, error) {
	return m.nutrition.Add(ctx, record)
}

// AddRecipe inserts one recipe row incrementally.
func (m *Manager) AddRecipe(ctx context.Context, record RecipeRecord) (string, error) {
	return m.recipes.Add(ctx, record)
}

// AddExercise inserts one METs row incrementally.
func (m *Manager) AddExercise(ctx context.Context, record ExerciseRecord) (string, error) {
	return m.exercise.Add(ctx, record)
}

// SearchNutrition returns composition hits for a dish name.
func (m *Manager) SearchNutrition(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	return m.nutrition.Search(ctx, query, m.topK, m.maxDistance)
}

// HiddenAllergens consults the recipe graph for allergen codes that are not
// obvious from a dish name. A tight distance bound keeps this high precision.
func (m *Manager) HiddenAllergens(ctx context.Context, dishName string, maxDistance float64) ([]string, error) {
	if maxDistance <= 0 || maxDistance > 0.8 {
		maxDistance = 0.8
	}
	results, err := m.recipes.Search(ctx, dishName, 1, maxDistance)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	codes := DecodeStringList(results[0].Metadata["allergen_codes"])
	codes = append(codes, DecodeStringList(results[0].Metadata["hidden_allergens"])...)
	return dedupe(codes), nil
}

// ExerciseMETs looks up the METs value for an exercise description.
// ok is false when nothing lands within maxDistance.
func (m *Manager) ExerciseMETs(ctx context.Context, query string, maxDistance float64) (float64, bool, error) {
	if maxDistance <= 0 {
		maxDistance = m.maxDistance
	}
	results, err := m.exercise.Search(ctx, query, 1, maxDistance)
	if err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	mets, ok := toFloat(results[0].Metadata["mets"])
	return mets, ok, nil
}

// Stats reports per-collection row counts for diagnostics.
func (m *Manager) Stats(ctx context.Context) ([]vectorstore.CollectionStats, error) {
	return m.store.Stats(ctx)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
