package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/embedding"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/vectorstore"
	"go.uber.org/zap"
)

// Base is one knowledge base: a source file bound to a vector collection.
type Base struct {
	name    string
	file    string
	store   *vectorstore.Store
	encoder embedding.Encoder
	parse   func(data []byte) ([]Record, error)
}

// NewNutritionBase binds the food composition table.
func NewNutritionBase(store *vectorstore.Store, encoder embedding.Encoder, dataDir string) *Base {
	return &Base{
		name:    CollectionNutrition,
		file:    filepath.Join(dataDir, "nutrition.json"),
		store:   store,
		encoder: encoder,
		parse:   parseAs[NutritionRecord],
	}
}

// NewRecipeBase binds the recipe graph.
func NewRecipeBase(store *vectorstore.Store, encoder embedding.Encoder, dataDir string) *Base {
	return &Base{
		name:    CollectionRecipes,
		file:    filepath.Join(dataDir, "recipes.json"),
		store:   store,
		encoder: encoder,
		parse:   parseAs[RecipeRecord],
	}
}

// NewExerciseBase binds the exercise METs table.
func NewExerciseBase(store *vectorstore.Store, encoder embedding.Encoder, dataDir string) *Base {
	return &Base{
		name:    CollectionExercise,
		file:    filepath.Join(dataDir, "exercise_mets.json"),
		store:   store,
		encoder: encoder,
		parse:   parseAs[ExerciseRecord],
	}
}

func parseAs[T Record](data []byte) ([]Record, error) {
	var typed []T
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	records := make([]Record, len(typed))
	for i, r := range typed {
		records[i] = r
	}
	return records, nil
}

// Name returns the bound collection name.
func (b *Base) Name() string {
	return b.name
}

// Build loads the source file into the collection. When the collection
// already has rows and force is false, the existing row count is returned
// untouched. force drops and recreates.
func (b *Base) Build(ctx context.Context, force bool) (int64, error) {
	has, err := b.store.HasCollection(ctx, b.name)
	if err != nil {
		return 0, err
	}
	if has && !force {
		count, err := b.store.Count(ctx, b.name)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return count, nil
		}
	}
	if has && force {
		if err := b.store.DropCollection(ctx, b.name); err != nil {
			return 0, err
		}
	}
	if err := b.store.CreateCollection(ctx, b.name, b.encoder.Dim()); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(b.file)
	if err != nil {
		return 0, fmt.Errorf("读取知识库源文件失败 %s: %w", b.file, err)
	}
	records, err := b.parse(data)
	if err != nil {
		return 0, fmt.Errorf("解析知识库源文件失败 %s: %w", b.file, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	texts := make([]string, len(records))
	docs := make([]vectorstore.Document, len(records))
	for i, rec := range records {
		texts[i] = rec.Text()
		docs[i] = vectorstore.Document{
			Text:     rec.Text(),
			Metadata: rec.Metadata(),
		}
	}

	vectors, err := b.encoder.Embed(ctx, texts, false)
	if err != nil {
		return 0, err
	}
	if _, err := b.store.Insert(ctx, b.name, docs, vectors); err != nil {
		return 0, err
	}

	logger.Info("知识库构建完成",
		zap.String("collection", b.name),
		zap.Int("rows", len(records)))
	return int64(len(records)), nil
}

// Add embeds and inserts one record incrementally.
func (b *Base) Add(ctx context.Context, record Record) (string, error) {
	if err := b.store.CreateCollection(ctx, b.name, b.encoder.Dim()); err != nil {
		return "", err
	}
	vectors, err := b.encoder.Embed(ctx, []string{record.Text()}, false)
	if err != nil {
		return "", err
	}
	return b.store.InsertSingle(ctx, b.name, vectorstore.Document{
		Text:     record.Text(),
		Metadata: record.Metadata(),
	}, vectors[0])
}

// Search embeds the query and returns hits within maxDistance, closest first.
func (b *Base) Search(ctx context.Context, query string, topK int, maxDistance float64) ([]vectorstore.SearchResult, error) {
	vectors, err := b.encoder.Embed(ctx, []string{query}, true)
	if err != nil {
		return nil, err
	}
	results, err := b.store.Search(ctx, b.name, vectors[0], topK, nil)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Distance <= maxDistance {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
