// Package embedding provides text vectorization for the knowledge base.
// Two encoders are available: a deterministic feature-hashing encoder that
// needs no network access, and a remote encoder backed by the embeddings API.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDim is the vector dimension used by the hashing encoder.
const DefaultDim = 1024

// queryInstruction is prepended to query texts so that queries and documents
// occupy asymmetric positions in the embedding space.
const queryInstruction = "为这个句子生成表示以用于检索相关文章:"

// Encoder converts texts into dense vectors. isQuery marks search queries,
// which may be encoded differently from stored documents.
type Encoder interface {
	Embed(ctx context.Context, texts []string, isQuery bool) ([][]float32, error)
	Dim() int
}

// HashingEncoder is a deterministic feature-hashing encoder. It produces the
// same vector for the same text on every call, which makes the knowledge base
// reproducible and testable without an embeddings service.
type HashingEncoder struct {
	dim int
}

// NewHashingEncoder creates a hashing encoder with the given dimension.
// Non-positive dimensions fall back to DefaultDim.
func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashingEncoder{dim: dim}
}

func (e *HashingEncoder) Dim() int {
	return e.dim
}

// Embed encodes the texts. The hashing encoder is symmetric: queries and
// documents share the same representation, so isQuery is ignored. Only the
// remote encoder applies the model-specific query instruction.
func (e *HashingEncoder) Embed(_ context.Context, texts []string, _ bool) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.encode(text)
	}
	return vectors, nil
}

// encode hashes character n-grams (n=1..3) into a fixed-size vector and
// L2-normalizes the result so that cosine similarity reduces to a dot product.
func (e *HashingEncoder) encode(text string) []float32 {
	vec := make([]float32, e.dim)
	runes := []rune(normalize(text))
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(runes); i++ {
			gram := string(runes[i : i+n])
			h := fnv.New64a()
			h.Write([]byte(gram))
			sum := h.Sum64()
			idx := int(sum % uint64(e.dim))
			// The second-highest bit decides the sign so that collisions
			// partially cancel instead of accumulating.
			sign := float32(1)
			if sum&(1<<62) != 0 {
				sign = -1
			}
			vec[idx] += sign
		}
	}
	normalizeL2(vec)
	return vec
}

func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeL2(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine distance (1 - similarity) between two vectors.
// Zero vectors yield the maximum distance 1.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1 - sim
}
