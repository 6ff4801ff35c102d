package testutils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/streetninja/ninjabrain/pkg/models"
)

var (
	_ models.InferenceHandle = &FakeHandle{}
	_ models.ModelProvider   = &FakeProvider{}
	_ models.PredictionStore = &MemoryStore{}
)

// FakeHandle is an InferenceHandle that returns canned entities.
type FakeHandle struct {
	ModelID  models.ModelIdentifier
	Ver      string
	Entities []models.EntitySpan
	Err      error
	Delay    time.Duration
	// AfterRun is called once the delay has elapsed, before returning.
	AfterRun func()

	calls   atomic.Int32
	mu      sync.Mutex
	lastReq models.EngineRequest
}

func (h *FakeHandle) Model() models.ModelIdentifier { return h.ModelID }
func (h *FakeHandle) Version() string               { return h.Ver }

func (h *FakeHandle) Run(ctx context.Context, req models.EngineRequest) (*models.EngineResult, error) {
	h.calls.Add(1)
	h.mu.Lock()
	h.lastReq = req
	h.mu.Unlock()

	if h.Delay > 0 {
		select {
		case <-time.After(h.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if h.AfterRun != nil {
		h.AfterRun()
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &models.EngineResult{Entities: h.Entities, Version: h.Ver}, nil
}

func (h *FakeHandle) Calls() int {
	return int(h.calls.Load())
}

func (h *FakeHandle) LastRequest() models.EngineRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastReq
}

// FakeProvider hands out a single handle, or fails with Err.
type FakeProvider struct {
	Handle models.InferenceHandle
	Err    error

	calls atomic.Int32
}

func (p *FakeProvider) Get(_ context.Context, _ models.ModelIdentifier) (models.InferenceHandle, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Handle, nil
}

func (p *FakeProvider) Calls() int {
	return int(p.calls.Load())
}

type registrationKey struct {
	name    models.ModelIdentifier
	version string
}

// MemoryStore is an in-memory PredictionStore. A transaction works on a copy
// of the committed state and replaces it only when fn succeeds.
type MemoryStore struct {
	// FailCreatePrediction, when set, is returned by every CreatePrediction.
	FailCreatePrediction error

	mu            sync.Mutex
	registrations map[registrationKey]models.ModelRegistration
	predictions   []models.PredictionRecord
	nextID        int64
	cancelledTx   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{registrations: make(map[registrationKey]models.ModelRegistration)}
}

type memoryTx struct {
	store         *MemoryStore
	registrations map[registrationKey]models.ModelRegistration
	predictions   []models.PredictionRecord
}

func (s *MemoryStore) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, tx models.PredictionTx) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.cancelledTx++
		return err
	}

	tx := &memoryTx{
		store:         s,
		registrations: make(map[registrationKey]models.ModelRegistration, len(s.registrations)),
		predictions:   append([]models.PredictionRecord(nil), s.predictions...),
	}
	for k, v := range s.registrations {
		tx.registrations[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.registrations = tx.registrations
	s.predictions = tx.predictions
	return nil
}

func (tx *memoryTx) GetOrCreateRegistration(
	_ context.Context,
	name models.ModelIdentifier,
	version string,
) (*models.ModelRegistration, error) {
	key := registrationKey{name: name, version: version}
	if r, ok := tx.registrations[key]; ok {
		return &r, nil
	}
	tx.store.nextID++
	r := models.ModelRegistration{
		ID:        tx.store.nextID,
		Name:      name,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
	tx.registrations[key] = r
	return &r, nil
}

func (tx *memoryTx) CreatePrediction(
	_ context.Context,
	registration *models.ModelRegistration,
	req *models.PredictionWriteRequest,
) (*models.PredictionRecord, error) {
	if tx.store.FailCreatePrediction != nil {
		return nil, tx.store.FailCreatePrediction
	}
	if registration == nil {
		return nil, errors.New("missing registration")
	}
	tx.store.nextID++
	record := models.PredictionRecord{
		ID:                tx.store.nextID,
		UUID:              uuid.New(),
		ExternalID:        req.ExternalID,
		ModelRegistration: registration,
		ExtractedEntities: req.Entities,
		Language:          req.Language,
		ResponseTimeMS:    req.ElapsedMS,
		CreatedAt:         time.Now().UTC(),
	}
	tx.predictions = append(tx.predictions, record)
	return &record, nil
}

func (s *MemoryStore) GetPrediction(_ context.Context, id uuid.UUID) (*models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.predictions {
		if s.predictions[i].UUID == id {
			r := s.predictions[i]
			return &r, nil
		}
	}
	return nil, models.NewNotFoundError("prediction " + id.String())
}

func (s *MemoryStore) ListPredictions(_ context.Context, externalID int64) ([]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PredictionRecord, 0)
	for _, r := range s.predictions {
		if r.ExternalID == externalID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListRegistrations(_ context.Context) ([]models.ModelRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ModelRegistration, 0, len(s.registrations))
	for _, r := range s.registrations {
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// Counts returns the number of committed registrations and predictions.
func (s *MemoryStore) Counts() (registrations, predictions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations), len(s.predictions)
}

// Predictions returns the committed predictions in insertion order.
func (s *MemoryStore) Predictions() []models.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PredictionRecord(nil), s.predictions...)
}

// CancelledTx returns how many transactions were started with a cancelled
// context.
func (s *MemoryStore) CancelledTx() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelledTx
}
