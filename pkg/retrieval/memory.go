package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/docpile-ai/docpile/pkg/types"
)

// MemoryMatcher is a brute-force cosine matcher holding chunks in process
// memory. It mirrors the semantics of the pgvector-backed chunk store and
// serves embedded deployments and tests.
type MemoryMatcher struct {
	mu        sync.RWMutex
	chunks    map[string]*entry
	dimension int
	seq       int64
}

type entry struct {
	chunk types.Chunk
	order int64
}

func NewMemoryMatcher(dimension int) *MemoryMatcher {
	return &MemoryMatcher{
		chunks:    make(map[string]*entry),
		dimension: dimension,
	}
}

// BatchCreate upserts chunks keyed by ID. Re-ingesting the same chunk replaces
// the stored row instead of duplicating it.
func (m *MemoryMatcher) BatchCreate(ctx context.Context, datas []*types.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, data := range datas {
		vec := data.Embedding.Slice()
		if m.dimension > 0 && len(vec) != m.dimension {
			return fmt.Errorf("chunk %s dimension mismatch: got %d, want %d, %w", data.ID, len(vec), m.dimension, types.ErrIndexWriteFailed)
		}
		if old, ok := m.chunks[data.ID]; ok {
			old.chunk = *data
			continue
		}
		m.seq++
		m.chunks[data.ID] = &entry{chunk: *data, order: m.seq}
	}
	return nil
}

// Query ranks stored chunks against the given vector. SpaceID is mandatory so
// one tenant can never read into another tenant's index.
func (m *MemoryMatcher) Query(ctx context.Context, opts types.GetChunksOptions, vector pgvector.Vector, threshold float32, limit uint64) ([]types.MatchResult, error) {
	if opts.SpaceID == "" {
		return nil, fmt.Errorf("chunk query requires a space id")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	query := vector.Slice()

	var matched []types.MatchResult
	orders := make(map[string]int64)
	for _, e := range m.chunks {
		c := e.chunk
		if c.SpaceID != opts.SpaceID {
			continue
		}
		if opts.DocumentID != "" && c.DocumentID != opts.DocumentID {
			continue
		}
		if opts.Category != "" && opts.Category != types.CATEGORY_ALL && c.Category != opts.Category {
			continue
		}

		cos := cosineSimilarity(query, c.Embedding.Slice())
		if cos < threshold {
			continue
		}

		matched = append(matched, types.MatchResult{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			SpaceID:    c.SpaceID,
			Category:   c.Category,
			Content:    c.Content,
			FileName:   c.FileName,
			Page:       c.Page,
			URL:        c.URL,
			CreatedAt:  c.CreatedAt,
			Cos:        cos,
		})
		orders[c.ID] = e.order
	}

	// Best match first, oldest chunk wins ties.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Cos != matched[j].Cos {
			return matched[i].Cos > matched[j].Cos
		}
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt < matched[j].CreatedAt
		}
		return orders[matched[i].ID] < orders[matched[j].ID]
	})

	if limit > 0 && uint64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryMatcher) UpdateMetaByDocument(ctx context.Context, spaceID, documentID, fileName, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.chunks {
		if e.chunk.SpaceID != spaceID || e.chunk.DocumentID != documentID {
			continue
		}
		if fileName != "" {
			e.chunk.FileName = fileName
		}
		if category != "" {
			e.chunk.Category = category
		}
	}
	return nil
}

// GetTable satisfies the store commons so the matcher can stand in for the
// sql-backed chunk store.
func (m *MemoryMatcher) GetTable(key ...interface{}) string {
	return "memory"
}

func (m *MemoryMatcher) List(ctx context.Context, opts types.GetChunksOptions, page, pageSize uint64) ([]types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []types.Chunk
	orders := make(map[string]int64)
	for _, e := range m.chunks {
		c := e.chunk
		if opts.SpaceID != "" && c.SpaceID != opts.SpaceID {
			continue
		}
		if opts.DocumentID != "" && c.DocumentID != opts.DocumentID {
			continue
		}
		if opts.Category != "" && opts.Category != types.CATEGORY_ALL && c.Category != opts.Category {
			continue
		}
		list = append(list, c)
		orders[c.ID] = e.order
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt < list[j].CreatedAt
		}
		return orders[list[i].ID] < orders[list[j].ID]
	})

	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		start := (page - 1) * pageSize
		if start >= uint64(len(list)) {
			return nil, nil
		}
		end := start + pageSize
		if end > uint64(len(list)) {
			end = uint64(len(list))
		}
		list = list[start:end]
	}
	return list, nil
}

func (m *MemoryMatcher) DeleteByDocument(ctx context.Context, spaceID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.chunks {
		if e.chunk.SpaceID == spaceID && e.chunk.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MemoryMatcher) DeleteAll(ctx context.Context, spaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.chunks {
		if e.chunk.SpaceID == spaceID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MemoryMatcher) Total(ctx context.Context, opts types.GetChunksOptions) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total uint64
	for _, e := range m.chunks {
		c := e.chunk
		if opts.SpaceID != "" && c.SpaceID != opts.SpaceID {
			continue
		}
		if opts.DocumentID != "" && c.DocumentID != opts.DocumentID {
			continue
		}
		if opts.Category != "" && opts.Category != types.CATEGORY_ALL && c.Category != opts.Category {
			continue
		}
		total++
	}
	return total, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
