// Package pool provides tiered byte-buffer pools for rendering prompts and
// other short-lived text.
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Tier capacities. A request is served from the smallest tier that fits.
const (
	SmallBufferSize  = 2 << 10  // ticket prompts
	MediumBufferSize = 16 << 10 // typical PR prompts
	LargeBufferSize  = 64 << 10 // prompts carrying a full diff budget
	MaxPoolableSize  = 128 << 10
)

// BufferPool manages three tiers of reusable buffers with usage counters.
type BufferPool struct {
	tiers [3]tier

	oversized atomic.Int64
}

type tier struct {
	size int
	pool sync.Pool
	gets atomic.Int64
	puts atomic.Int64
}

// NewBufferPool creates a pool with the small, medium and large tiers.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for i, size := range []int{SmallBufferSize, MediumBufferSize, LargeBufferSize} {
		t := &bp.tiers[i]
		t.size = size
		t.pool.New = func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, size))
		}
	}
	return bp
}

//nolint:gochecknoglobals // Package-level singleton pattern
var (
	defaultBufferPool *BufferPool
	defaultPoolOnce   sync.Once
)

func getDefaultPool() *BufferPool {
	defaultPoolOnce.Do(func() {
		defaultBufferPool = NewBufferPool()
	})
	return defaultBufferPool
}

// GetBuffer returns an empty buffer with at least size bytes of capacity.
// Requests above LargeBufferSize get a fresh, unpooled buffer.
func (bp *BufferPool) GetBuffer(size int) *bytes.Buffer {
	for i := range bp.tiers {
		t := &bp.tiers[i]
		if size <= t.size {
			t.gets.Add(1)
			return t.pool.Get().(*bytes.Buffer)
		}
	}
	bp.oversized.Add(1)
	return bytes.NewBuffer(make([]byte, 0, size))
}

// PutBuffer resets buf and returns it to the tier matching its capacity.
// Nil and oversized buffers are dropped.
func (bp *BufferPool) PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()

	capacity := buf.Cap()
	if capacity > MaxPoolableSize {
		bp.oversized.Add(1)
		return
	}
	// a buffer that grew past its tier moves up; one smaller than the
	// small tier is dropped so GetBuffer keeps its capacity promise
	for i := len(bp.tiers) - 1; i >= 0; i-- {
		t := &bp.tiers[i]
		if capacity >= t.size {
			t.puts.Add(1)
			t.pool.Put(buf)
			return
		}
	}
}

// GetBuffer returns a buffer from the default pool.
func GetBuffer(size int) *bytes.Buffer {
	return getDefaultPool().GetBuffer(size)
}

// PutBuffer returns a buffer to the default pool.
func PutBuffer(buf *bytes.Buffer) {
	getDefaultPool().PutBuffer(buf)
}

// WithBufferResult runs fn with a pooled buffer and returns its result.
// The buffer goes back to the pool afterwards, so fn must copy anything it
// keeps (buf.String() does).
//
//	prompt, err := pool.WithBufferResult(pool.EstimatePromptSize(len(diff)), func(buf *bytes.Buffer) (string, error) {
//	    if err := tmpl.Execute(buf, in); err != nil {
//	        return "", err
//	    }
//	    return buf.String(), nil
//	})
func WithBufferResult[T any](size int, fn func(*bytes.Buffer) (T, error)) (T, error) {
	buf := GetBuffer(size)
	defer PutBuffer(buf)
	return fn(buf)
}

// EstimatePromptSize is the buffer size for a prompt embedding contentLen bytes of record text.
func EstimatePromptSize(contentLen int) int {
	const overhead = 1536 // instructions, features and labels
	return contentLen + overhead
}

// Stats contains buffer pool usage statistics
type Stats struct {
	SmallPool  Metrics `json:"small_pool"`
	MediumPool Metrics `json:"medium_pool"`
	LargePool  Metrics `json:"large_pool"`
	Oversized  int64   `json:"oversized"`
}

// Metrics contains the counters of one tier
type Metrics struct {
	Gets int64 `json:"gets"`
	Puts int64 `json:"puts"`
}

// GetStats returns the current counters.
func (bp *BufferPool) GetStats() Stats {
	m := func(i int) Metrics {
		return Metrics{Gets: bp.tiers[i].gets.Load(), Puts: bp.tiers[i].puts.Load()}
	}
	return Stats{
		SmallPool:  m(0),
		MediumPool: m(1),
		LargePool:  m(2),
		Oversized:  bp.oversized.Load(),
	}
}
