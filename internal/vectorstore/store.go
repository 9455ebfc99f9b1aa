// Package vectorstore implements a database-backed vector store with
// brute-force cosine search. Collections and records live in relational
// tables so the knowledge base shares the application's database and
// survives restarts without an external vector service.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/embedding"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection is the persisted collection descriptor.
type Collection struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	Dim       int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Collection) TableName() string {
	return "vector_collections"
}

// Record is one stored vector with its document and scalar metadata.
type Record struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	CollectionID int64     `gorm:"index:idx_vector_collection;not null"`
	RecordID     string    `gorm:"uniqueIndex:uniq_vector_record;size:64;not null"`
	Document     string    `gorm:"type:text;not null"`
	Vector       string    `gorm:"type:mediumtext;not null"`
	Metadata     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string {
	return "vector_records"
}

// Document is the insert unit: text plus optional scalar metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// SearchResult is one hit, ordered by ascending cosine distance.
type SearchResult struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

// CollectionStats reports the record count of one collection.
type CollectionStats struct {
	Name  string `json:"name"`
	Dim   int    `json:"dim"`
	Count int64  `json:"count"`
}

// Store is the vector store facade. All writes to one collection are
// serialized through a per-collection mutex; reads are lock-free.
type Store struct {
	db *gorm.DB

	mu      sync.Mutex
	writeMu map[string]*sync.Mutex
}

// NewStore creates a store and migrates its tables.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Collection{}, &Record{}); err != nil {
		return nil, fmt.Errorf("初始化向量存储表失败: %w", err)
	}
	return &Store{
		db:      db,
		writeMu: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.writeMu[name]
	if !ok {
		mu = &sync.Mutex{}
		s.writeMu[name] = mu
	}
	return mu
}

// CreateCollection creates a collection if it does not exist. Creating an
// existing collection with the same dimension is a no-op; a dimension
// mismatch is an error.
func (s *Store) CreateCollection(ctx context.Context, name string, dim int) error {
	if name == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "集合名称不能为空")
	}
	if dim <= 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "向量维度必须大于 0")
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.getCollection(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Dim != dim {
			return fmt.Errorf("集合 %s 已存在且维度不匹配: 已有 %d, 请求 %d", name, existing.Dim, dim)
		}
		return nil
	}
	return s.db.WithContext(ctx).Create(&Collection{Name: name, Dim: dim}).Error
}

// DropCollection removes a collection and its records. Dropping a missing
// collection is not an error.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.getCollection(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", existing.ID).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Collection{}, existing.ID).Error
	})
}

// HasCollection reports whether a collection exists.
func (s *Store) HasCollection(ctx context.Context, name string) (bool, error) {
	existing, err := s.getCollection(ctx, name)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// ListCollections returns collection names in creation order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var cols []Collection
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&cols).Error; err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// Insert stores documents with their vectors. Documents with empty IDs get
// generated UUIDs. The vector count must match the document count, every
// vector must match the collection dimension, and metadata values must be
// scalars so the exact-match filters in Search and DeleteByFilter stay
// well-defined.
func (s *Store) Insert(ctx context.Context, name string, docs []Document, vectors [][]float32) ([]string, error) {
	if len(docs) != len(vectors) {
		return nil, apperrors.New(apperrors.ErrInvalidParam,
			fmt.Sprintf("文档与向量数量不匹配: %d vs %d", len(docs), len(vectors)))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	col, err := s.getCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("集合 %s 不存在", name)
	}

	records := make([]Record, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if len(vectors[i]) != col.Dim {
			return nil, apperrors.New(apperrors.ErrInvalidParam,
				fmt.Sprintf("向量维度不匹配: 集合 %d, 第 %d 条 %d", col.Dim, i, len(vectors[i])))
		}
		if err := validateMetadata(doc.Metadata); err != nil {
			return nil, err
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id

		vecJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return nil, err
		}
		metaJSON := ""
		if len(doc.Metadata) > 0 {
			raw, err := json.Marshal(doc.Metadata)
			if err != nil {
				return nil, err
			}
			metaJSON = string(raw)
		}
		records[i] = Record{
			CollectionID: col.ID,
			RecordID:     id,
			Document:     doc.Text,
			Vector:       string(vecJSON),
			Metadata:     metaJSON,
		}
	}

	if err := s.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertSingle stores one document and returns its ID.
func (s *Store) InsertSingle(ctx context.Context, name string, doc Document, vector []float32) (string, error) {
	ids, err := s.Insert(ctx, name, []Document{doc}, [][]float32{vector})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Search scans the collection and returns the topK nearest records by cosine
// distance, ascending. A non-nil where map restricts results to records whose
// metadata matches every key/value pair exactly.
func (s *Store) Search(ctx context.Context, name string, query []float32, topK int, where map[string]any) ([]SearchResult, error) {
	col, err := s.getCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("集合 %s 不存在", name)
	}
	if len(query) != col.Dim {
		return nil, apperrors.New(apperrors.ErrInvalidParam,
			fmt.Sprintf("查询向量维度不匹配: 集合 %d, 查询 %d", col.Dim, len(query)))
	}
	if topK <= 0 {
		topK = 10
	}

	var records []Record
	if err := s.db.WithContext(ctx).
		Where("collection_id = ?", col.ID).
		Find(&records).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		meta, err := decodeMetadata(rec.Metadata)
		if err != nil {
			return nil, err
		}
		if !matchesWhere(meta, where) {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(rec.Vector), &vec); err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:       rec.RecordID,
			Document: rec.Document,
			Metadata: meta,
			Distance: embedding.Cosine(query, vec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteByIDs removes records by their record IDs. Missing IDs are ignored.
func (s *Store) DeleteByIDs(ctx context.Context, name string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	col, err := s.getCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	if col == nil {
		return 0, fmt.Errorf("集合 %s 不存在", name)
	}

	result := s.db.WithContext(ctx).
		Where("collection_id = ? AND record_id IN ?", col.ID, ids).
		Delete(&Record{})
	return result.RowsAffected, result.Error
}

// DeleteByFilter removes records whose metadata matches every key/value pair.
func (s *Store) DeleteByFilter(ctx context.Context, name string, where map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidParam, "删除条件不能为空")
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	col, err := s.getCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	if col == nil {
		return 0, fmt.Errorf("集合 %s 不存在", name)
	}

	var records []Record
	if err := s.db.WithContext(ctx).
		Select("id", "record_id", "metadata").
		Where("collection_id = ?", col.ID).
		Find(&records).Error; err != nil {
		return 0, err
	}

	var matched []int64
	for _, rec := range records {
		meta, err := decodeMetadata(rec.Metadata)
		if err != nil {
			return 0, err
		}
		if matchesWhere(meta, where) {
			matched = append(matched, rec.ID)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Where("id IN ?", matched).Delete(&Record{})
	return result.RowsAffected, result.Error
}

// Stats returns record counts for every collection.
func (s *Store) Stats(ctx context.Context) ([]CollectionStats, error) {
	var cols []Collection
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&cols).Error; err != nil {
		return nil, err
	}
	stats := make([]CollectionStats, len(cols))
	for i, col := range cols {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Record{}).
			Where("collection_id = ?", col.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		stats[i] = CollectionStats{Name: col.Name, Dim: col.Dim, Count: count}
	}
	return stats, nil
}

// Count returns the record count of one collection.
func (s *Store) Count(ctx context.Context, name string) (int64, error) {
	col, err := s.getCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	if col == nil {
		return 0, fmt.Errorf("集合 %s 不存在", name)
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&Record{}).
		Where("collection_id = ?", col.ID).Count(&count).Error
	return count, err
}

func (s *Store) getCollection(ctx context.Context, name string) (*Collection, error) {
	var col Collection
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &col, nil
}

// validateMetadata rejects non-scalar metadata values.
func validateMetadata(meta map[string]any) error {
	for key, value := range meta {
		switch value.(type) {
		case nil, string, bool, int, int32, int64, float32, float64:
		default:
			return apperrors.New(apperrors.ErrInvalidParam,
				fmt.Sprintf("元数据 %s 必须是标量值, 收到 %T", key, value))
		}
	}
	return nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("解析向量元数据失败: %w", err)
	}
	return meta, nil
}

// matchesWhere compares metadata against a filter with exact matches.
// Numbers compare by value since JSON round-trips integers as float64.
func matchesWhere(meta, where map[string]any) bool {
	if len(where) == 0 {
		return true
	}
	for key, want := range where {
		got, ok := meta[key]
		if !ok {
			return false
		}
		if !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
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
	}
	return 0, false
}
