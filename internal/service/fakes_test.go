package service

import (
	"context"
	"hash/fnv"
	"math"
	"sort"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/domain"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

const fakeDimension = 8

// fakeEmbedder produces a deterministic unit vector per distinct text, so
// identical texts embed identically and different texts (almost always)
// differ.
type fakeEmbedder struct {
	calls   int
	failFor map[string]error
	err     error
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.failFor[text]; ok {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	sum := h.Sum64()

	// one hash byte per component, so distinct hashes give distinct vectors
	vector := make([]float32, fakeDimension)
	for i := range vector {
		vector[i] = float32(byte(sum>>(8*i))) + 1
	}
	return normalize(vector), nil
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// fakeStore is an in-memory port.CodeStore with real cosine-distance search.
type fakeStore struct {
	nextID  int64
	codes   map[int64]domain.Code
	batches int
	// failBatch fails the Nth InsertBatch call (1-based); 0 disables.
	failBatch    int
	failBatchErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: map[int64]domain.Code{}}
}

var _ port.CodeStore = (*fakeStore)(nil)

func (s *fakeStore) hasCode(codeValue string, excludeID int64) bool {
	for id, c := range s.codes {
		if c.Code == codeValue && id != excludeID {
			return true
		}
	}
	return false
}

func (s *fakeStore) Insert(_ context.Context, rec domain.NewCode) (*domain.Code, error) {
	if s.hasCode(rec.Code, 0) {
		return nil, port.ErrDuplicateCode
	}
	s.nextID++
	emb := rec.Embedding
	code := domain.Code{
		ID:          s.nextID,
		Code:        rec.Code,
		Description: rec.Description,
		Embedding:   &emb,
	}
	s.codes[code.ID] = code
	return &code, nil
}

func (s *fakeStore) InsertBatch(ctx context.Context, recs []domain.NewCode) (int, error) {
	s.batches++
	if s.failBatch != 0 && s.batches == s.failBatch {
		return 0, s.failBatchErr
	}
	for _, rec := range recs {
		if _, err := s.Insert(ctx, rec); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Code, error) {
	code, ok := s.codes[id]
	if !ok {
		return nil, port.ErrCodeNotFound
	}
	return &code, nil
}

func (s *fakeStore) GetByCode(_ context.Context, codeValue string) (*domain.Code, error) {
	for _, code := range s.codes {
		if code.Code == codeValue {
			return &code, nil
		}
	}
	return nil, port.ErrCodeNotFound
}

func (s *fakeStore) Update(_ context.Context, id int64, codeValue, description string, embedding *pgvector.Vector) (*domain.Code, error) {
	code, ok := s.codes[id]
	if !ok {
		return nil, port.ErrCodeNotFound
	}
	if s.hasCode(codeValue, id) {
		return nil, port.ErrDuplicateCode
	}
	code.Code = codeValue
	code.Description = description
	if embedding != nil {
		code.Embedding = embedding
	}
	s.codes[id] = code
	return &code, nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.codes[id]; !ok {
		return port.ErrCodeNotFound
	}
	delete(s.codes, id)
	return nil
}

func (s *fakeStore) List(_ context.Context, page, size int) (*domain.CodePage, error) {
	all := s.sortedByID()
	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	totalPages := (len(all) + size - 1) / size
	return &domain.CodePage{
		Items:      all[start:end],
		Page:       page,
		Size:       size,
		TotalItems: int64(len(all)),
		TotalPages: totalPages,
	}, nil
}

func (s *fakeStore) NearestNeighbors(_ context.Context, query pgvector.Vector, limit int) ([]domain.Neighbor, error) {
	var neighbors []domain.Neighbor
	for _, code := range s.sortedByID() {
		if code.Embedding == nil {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{
			Code:     code,
			Distance: cosineDistance(query.Slice(), code.Embedding.Slice()),
		})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ID < neighbors[j].ID
	})
	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

func (s *fakeStore) sortedByID() []domain.Code {
	all := make([]domain.Code, 0, len(s.codes))
	for _, code := range s.codes {
		all = append(all, code)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
