package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
)

// MemoryStorage backs the repository interfaces with in-process maps. Used
// when no database URL is configured and throughout the test suite.
type MemoryStorage struct {
	recordings      map[string]*domain.Recording
	analyses        map[string]*domain.AnalysisResult
	events          map[string][]*domain.StutterEvent // analysisID -> events
	reports         map[string]*domain.Report
	associations    map[string][]string                        // reportID -> analysisIDs
	recommendations map[string][]*domain.TherapyRecommendation // reportID -> recs
	mu              sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		recordings:      make(map[string]*domain.Recording),
		analyses:        make(map[string]*domain.AnalysisResult),
		events:          make(map[string][]*domain.StutterEvent),
		reports:         make(map[string]*domain.Report),
		associations:    make(map[string][]string),
		recommendations: make(map[string][]*domain.TherapyRecommendation),
	}
}

// -----------------------------------------------------------------------------
// Recording Repository
// -----------------------------------------------------------------------------

type RecordingRepo struct {
	store *MemoryStorage
}

func NewRecordingRepo(store *MemoryStorage) *RecordingRepo {
	return &RecordingRepo{store: store}
}

func (r *RecordingRepo) Create(ctx context.Context, rec *domain.Recording) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *rec
	r.store.recordings[rec.ID] = &cp
	return nil
}

func (r *RecordingRepo) Get(ctx context.Context, id string) (*domain.Recording, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.recordings[id]
	if !ok {
		return nil, storage.ErrRecordingNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *RecordingRepo) Save(ctx context.Context, rec *domain.Recording) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.recordings[rec.ID]; !ok {
		return storage.ErrRecordingNotFound
	}
	cp := *rec
	r.store.recordings[rec.ID] = &cp
	return nil
}

func (r *RecordingRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.Recording, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var recs []*domain.Recording
	for _, rec := range r.store.recordings {
		if rec.PatientID == patientID {
			cp := *rec
			recs = append(recs, &cp)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordedAt.After(recs[j].RecordedAt)
	})
	return recs, nil
}

// -----------------------------------------------------------------------------
// Analysis Repository
// -----------------------------------------------------------------------------

type AnalysisRepo struct {
	store *MemoryStorage
}

func NewAnalysisRepo(store *MemoryStorage) *AnalysisRepo {
	return &AnalysisRepo{store: store}
}

func (r *AnalysisRepo) Create(ctx context.Context, res *domain.AnalysisResult) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.analyses {
		if a.RecordingID == res.RecordingID {
			return storage.ErrAnalysisExists
		}
	}
	cp := *res
	r.store.analyses[res.ID] = &cp
	return nil
}

func (r *AnalysisRepo) Get(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.analyses[id]
	if !ok {
		return nil, storage.ErrAnalysisNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *AnalysisRepo) GetByRecording(
	ctx context.Context,
	recordingID string,
) (*domain.AnalysisResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, res := range r.store.analyses {
		if res.RecordingID == recordingID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, storage.ErrAnalysisNotFound
}

func (r *AnalysisRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.AnalysisResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var results []*domain.AnalysisResult
	for _, res := range r.store.analyses {
		rec, ok := r.store.recordings[res.RecordingID]
		if ok && rec.PatientID == patientID {
			cp := *res
			results = append(results, &cp)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

// -----------------------------------------------------------------------------
// Event Repository
// -----------------------------------------------------------------------------

type EventRepo struct {
	store *MemoryStorage
}

func NewEventRepo(store *MemoryStorage) *EventRepo {
	return &EventRepo{store: store}
}

func (r *EventRepo) BulkCreate(ctx context.Context, events []*domain.StutterEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ev := range events {
		cp := *ev
		r.store.events[ev.AnalysisID] = append(r.store.events[ev.AnalysisID], &cp)
	}
	return nil
}

func (r *EventRepo) ListByAnalysis(
	ctx context.Context,
	analysisID string,
) ([]*domain.StutterEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := make([]*domain.StutterEvent, 0, len(r.store.events[analysisID]))
	for _, ev := range r.store.events[analysisID] {
		cp := *ev
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime < events[j].StartTime
	})
	return events, nil
}

// -----------------------------------------------------------------------------
// Report Repository
// -----------------------------------------------------------------------------

type ReportRepo struct {
	store *MemoryStorage
}

func NewReportRepo(store *MemoryStorage) *ReportRepo {
	return &ReportRepo{store: store}
}

func (r *ReportRepo) Create(ctx context.Context, report *domain.Report) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *report
	r.store.reports[report.ID] = &cp
	return nil
}

func (r *ReportRepo) Associate(ctx context.Context, reportID, analysisID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range r.store.associations[reportID] {
		if id == analysisID {
			return nil
		}
	}
	r.store.associations[reportID] = append(r.store.associations[reportID], analysisID)
	return nil
}

func (r *ReportRepo) BulkCreateRecommendations(
	ctx context.Context,
	recs []*domain.TherapyRecommendation,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range recs {
		cp := *rec
		r.store.recommendations[rec.ReportID] = append(r.store.recommendations[rec.ReportID], &cp)
	}
	return nil
}

func (r *ReportRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.Report, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var reports []*domain.Report
	for _, rep := range r.store.reports {
		if rep.PatientID == patientID {
			cp := *rep
			reports = append(reports, &cp)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Recommendations returns the therapy recommendations attached to a report.
// Not part of the storage interfaces; used by tests and the dev tooling.
func (s *MemoryStorage) Recommendations(reportID string) []*domain.TherapyRecommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.TherapyRecommendation(nil), s.recommendations[reportID]...)
}

// Associations returns the analysis IDs linked to a report.
func (s *MemoryStorage) Associations(reportID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.associations[reportID]...)
}
