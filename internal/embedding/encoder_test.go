package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashingEncoderDeterministic(t *testing.T) {
	enc := NewHashingEncoder(256)
	ctx := context.Background()

	first, err := enc.Embed(ctx, []string{"番茄炒蛋", "跑步 30 分钟"}, false)
	require.NoError(t, err)
	second, err := enc.Embed(ctx, []string{"番茄炒蛋", "跑步 30 分钟"}, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashingEncoderNormalized(t *testing.T) {
	enc := NewHashingEncoder(512)
	vectors, err := enc.Embed(context.Background(), []string{"清蒸鲈鱼的营养成分"}, false)
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	var sum float64
	for _, v := range vectors[0] {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestHashingEncoderSymmetric(t *testing.T) {
	enc := NewHashingEncoder(256)
	ctx := context.Background()

	doc, err := enc.Embed(ctx, []string{"鸡胸肉"}, false)
	require.NoError(t, err)
	query, err := enc.Embed(ctx, []string{"鸡胸肉"}, true)
	require.NoError(t, err)

	// The hashing encoder ignores the query flag.
	assert.Equal(t, doc[0], query[0])
}

func TestHashingEncoderSimilarityOrdering(t *testing.T) {
	enc := NewHashingEncoder(1024)
	ctx := context.Background()

	vectors, err := enc.Embed(ctx, []string{
		"番茄炒蛋 家常菜",
		"番茄炒蛋的做法",
		"帮我制定一份跑步计划",
	}, false)
	require.NoError(t, err)

	near := Cosine(vectors[0], vectors[1])
	far := Cosine(vectors[0], vectors[2])
	assert.Less(t, near, far)
}

func TestHashingEncoderDefaultDim(t *testing.T) {
	enc := NewHashingEncoder(0)
	assert.Equal(t, DefaultDim, enc.Dim())
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "相同向量", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 0},
		{name: "正交向量", a: []float32{1, 0, 0}, b: []float32{0, 1, 0}, want: 1},
		{name: "反向向量", a: []float32{1, 0, 0}, b: []float32{-1, 0, 0}, want: 2},
		{name: "零向量", a: []float32{0, 0, 0}, b: []float32{1, 2, 3}, want: 1},
		{name: "长度不一致", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			assert.True(t, math.Abs(got-tt.want) < 1e-6, "got %v want %v", got, tt.want)
		})
	}
}
