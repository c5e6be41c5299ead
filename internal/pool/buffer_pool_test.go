package pool

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuffer(t *testing.T) {
	testCases := []struct {
		name string
		size int
		want func(Stats) int64
	}{
		{"small", 100, func(s Stats) int64 { return s.SmallPool.Gets }},
		{"small max", SmallBufferSize, func(s Stats) int64 { return s.SmallPool.Gets }},
		{"medium", SmallBufferSize + 1, func(s Stats) int64 { return s.MediumPool.Gets }},
		{"large", MediumBufferSize + 1, func(s Stats) int64 { return s.LargePool.Gets }},
		{"oversized", LargeBufferSize + 1, func(s Stats) int64 { return s.Oversized }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bp := NewBufferPool()
			buf := bp.GetBuffer(tc.size)

			require.NotNil(t, buf)
			assert.GreaterOrEqual(t, buf.Cap(), tc.size)
			assert.Zero(t, buf.Len())
			assert.Equal(t, int64(1), tc.want(bp.GetStats()))
		})
	}
}

func TestPutBuffer(t *testing.T) {
	t.Run("reset and reused", func(t *testing.T) {
		bp := NewBufferPool()
		buf := bp.GetBuffer(10)
		buf.WriteString("rendered prompt")
		bp.PutBuffer(buf)

		assert.Zero(t, buf.Len())
		assert.Equal(t, int64(1), bp.GetStats().SmallPool.Puts)
	})

	t.Run("grown buffer moves up a tier", func(t *testing.T) {
		bp := NewBufferPool()
		buf := bp.GetBuffer(10)
		buf.WriteString(strings.Repeat("x", MediumBufferSize+10))
		bp.PutBuffer(buf)

		stats := bp.GetStats()
		assert.Zero(t, stats.SmallPool.Puts)
		assert.Equal(t, int64(1), stats.MediumPool.Puts+stats.LargePool.Puts)
	})

	t.Run("oversized and nil are dropped", func(t *testing.T) {
		bp := NewBufferPool()
		bp.PutBuffer(nil)
		bp.PutBuffer(bytes.NewBuffer(make([]byte, 0, MaxPoolableSize+1)))
		bp.PutBuffer(bytes.NewBuffer(make([]byte, 0, 16)))

		stats := bp.GetStats()
		assert.Equal(t, int64(1), stats.Oversized)
		assert.Zero(t, stats.SmallPool.Puts)
	})
}

func TestWithBufferResult(t *testing.T) {
	out, err := WithBufferResult(EstimatePromptSize(10), func(buf *bytes.Buffer) (string, error) {
		buf.WriteString("hello")
		return buf.String(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	errBoom := errors.New("boom")
	_, err = WithBufferResult(10, func(*bytes.Buffer) (int, error) { return 0, errBoom })
	require.ErrorIs(t, err, errBoom)
}

func TestEstimatePromptSize(t *testing.T) {
	assert.LessOrEqual(t, EstimatePromptSize(0), SmallBufferSize)
	assert.Greater(t, EstimatePromptSize(8000), 8000)
}

func TestBufferPoolConcurrentUse(t *testing.T) {
	bp := NewBufferPool()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := bp.GetBuffer(EstimatePromptSize(i * 200))
			buf.WriteString("content")
			bp.PutBuffer(buf)
		}()
	}
	wg.Wait()

	stats := bp.GetStats()
	assert.Equal(t, int64(50), stats.SmallPool.Gets+stats.MediumPool.Gets+stats.LargePool.Gets)
}
