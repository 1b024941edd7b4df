package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/budgetdesk/internal/docstore"
	"github.com/shopspring/decimal"
)

// Collection names in the document store.
const (
	CollectionOperating  = "operating"
	CollectionPositions  = "positions"
	CollectionEnvelopes  = "envelopes"
	CollectionNarratives = "narratives"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = docstore.ErrNotFound

// Service is the CRUD layer over the document store.
type Service struct {
	store docstore.Store
	now   func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// --- Operating items ---

// CreateOperating assigns an id and stores a new operating item.
func (s *Service) CreateOperating(ctx context.Context, item OperatingItem) (OperatingItem, error) {
	item.ID = NewID(item.Department, item.Description)
	return s.putOperating(ctx, item)
}

// UpdateOperating replaces an existing operating item.
func (s *Service) UpdateOperating(ctx context.Context, item OperatingItem) (OperatingItem, error) {
	if _, err := s.GetOperating(ctx, item.ID); err != nil {
		return OperatingItem{}, err
	}
	return s.putOperating(ctx, item)
}

func (s *Service) putOperating(ctx context.Context, item OperatingItem) (OperatingItem, error) {
	item.Department = strings.TrimSpace(item.Department)
	item.Account = strings.TrimSpace(item.Account)
	item.Description = strings.TrimSpace(item.Description)
	item.FundingSources = trimFunding(item.FundingSources)
	if err := item.Validate(); err != nil {
		return OperatingItem{}, err
	}
	item.UpdatedAt = s.now()
	if err := s.store.Put(ctx, CollectionOperating, item.ID, item); err != nil {
		return OperatingItem{}, fmt.Errorf("save operating item: %w", err)
	}
	return item, nil
}

func (s *Service) GetOperating(ctx context.Context, id string) (OperatingItem, error) {
	var item OperatingItem
	if err := s.store.Get(ctx, CollectionOperating, id, &item); err != nil {
		return OperatingItem{}, err
	}
	return item, nil
}

func (s *Service) ListOperating(ctx context.Context, f Filter) ([]OperatingItem, error) {
	items, err := list[OperatingItem](ctx, s.store, CollectionOperating)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if f.match(it.Department, it.FiscalYear) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) DeleteOperating(ctx context.Context, id string) error {
	return s.store.Delete(ctx, CollectionOperating, id)
}

// --- Positions ---

// CreatePosition assigns an id and stores a new position.
func (s *Service) CreatePosition(ctx context.Context, item PositionItem) (PositionItem, error) {
	item.ID = NewID(item.Department, item.Title)
	return s.putPosition(ctx, item)
}

// UpdatePosition replaces an existing position.
func (s *Service) UpdatePosition(ctx context.Context, item PositionItem) (PositionItem, error) {
	if _, err := s.GetPosition(ctx, item.ID); err != nil {
		return PositionItem{}, err
	}
	return s.putPosition(ctx, item)
}

func (s *Service) putPosition(ctx context.Context, item PositionItem) (PositionItem, error) {
	item.Department = strings.TrimSpace(item.Department)
	item.Title = strings.TrimSpace(item.Title)
	item.Employee = strings.TrimSpace(item.Employee)
	item.FundingSources = trimFunding(item.FundingSources)
	if err := item.Validate(); err != nil {
		return PositionItem{}, err
	}
	item.UpdatedAt = s.now()
	if err := s.store.Put(ctx, CollectionPositions, item.ID, item); err != nil {
		return PositionItem{}, fmt.Errorf("save position: %w", err)
	}
	return item, nil
}

func (s *Service) GetPosition(ctx context.Context, id string) (PositionItem, error) {
	var item PositionItem
	if err := s.store.Get(ctx, CollectionPositions, id, &item); err != nil {
		return PositionItem{}, err
	}
	return item, nil
}

func (s *Service) ListPositions(ctx context.Context, f Filter) ([]PositionItem, error) {
	items, err := list[PositionItem](ctx, s.store, CollectionPositions)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if f.match(it.Department, it.FiscalYear) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) DeletePosition(ctx context.Context, id string) error {
	return s.store.Delete(ctx, CollectionPositions, id)
}

// --- Envelopes ---

// SaveEnvelope creates or replaces the envelope for the department/year.
func (s *Service) SaveEnvelope(ctx context.Context, env Envelope) (Envelope, error) {
	env.Department = strings.TrimSpace(env.Department)
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	env.ID = EnvelopeID(env.Department, env.FiscalYear)
	env.UpdatedAt = s.now()
	if err := s.store.Put(ctx, CollectionEnvelopes, env.ID, env); err != nil {
		return Envelope{}, fmt.Errorf("save envelope: %w", err)
	}
	return env, nil
}

func (s *Service) GetEnvelope(ctx context.Context, department string, year int) (Envelope, error) {
	var env Envelope
	if err := s.store.Get(ctx, CollectionEnvelopes, EnvelopeID(department, year), &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (s *Service) ListEnvelopes(ctx context.Context, f Filter) ([]Envelope, error) {
	envs, err := list[Envelope](ctx, s.store, CollectionEnvelopes)
	if err != nil {
		return nil, err
	}
	out := envs[:0]
	for _, e := range envs {
		if f.match(e.Department, e.FiscalYear) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) DeleteEnvelope(ctx context.Context, department string, year int) error {
	return s.store.Delete(ctx, CollectionEnvelopes, EnvelopeID(department, year))
}

// Summarize totals operating and position lines for the department/year and
// compares them to its envelope.
func (s *Service) Summarize(ctx context.Context, department string, year int) (Summary, error) {
	f := Filter{Department: department, FiscalYear: year}
	sum := Summary{
		Department: department,
		FiscalYear: year,
		Envelope:   decimal.Zero,
		Operating:  decimal.Zero,
		Positions:  decimal.Zero,
	}

	env, err := s.GetEnvelope(ctx, department, year)
	switch {
	case err == nil:
		sum.HasEnvelope = true
		sum.Envelope = env.Amount
	case !errors.Is(err, ErrNotFound):
		return Summary{}, fmt.Errorf("load envelope: %w", err)
	}

	ops, err := s.ListOperating(ctx, f)
	if err != nil {
		return Summary{}, fmt.Errorf("list operating: %w", err)
	}
	for _, o := range ops {
		sum.Operating = sum.Operating.Add(o.Amount)
	}

	positions, err := s.ListPositions(ctx, f)
	if err != nil {
		return Summary{}, fmt.Errorf("list positions: %w", err)
	}
	for _, p := range positions {
		sum.Positions = sum.Positions.Add(p.Total())
	}

	sum.Allocated = sum.Operating.Add(sum.Positions)
	sum.Remaining = sum.Envelope.Sub(sum.Allocated)
	sum.OverBudget = sum.HasEnvelope && sum.Remaining.IsNegative()
	return sum, nil
}

func list[T any](ctx context.Context, store docstore.Store, collection string) ([]T, error) {
	recs, err := store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := r.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, r.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
