package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/google/uuid"
)

// memStore is an in-memory implementation of every store interface used by
// the service tests. Stored values are copied so callers cannot mutate them.
type memStore struct {
	mu        sync.Mutex
	shipments map[uuid.UUID]domain.Shipment
	attempts  []domain.VerificationAttempt
	imports   map[uuid.UUID]domain.ImportJob
	addresses map[uuid.UUID]domain.AddressPreset
	packages  map[uuid.UUID]domain.PackagePreset

	// attemptErr fails CreateAttempt when set.
	attemptErr error
	// verificationWrites counts SaveVerification calls.
	verificationWrites int
}

func newMemStore() *memStore {
	return &memStore{
		shipments: map[uuid.UUID]domain.Shipment{},
		imports:   map[uuid.UUID]domain.ImportJob{},
		addresses: map[uuid.UUID]domain.AddressPreset{},
		packages:  map[uuid.UUID]domain.PackagePreset{},
	}
}

func notFound(resource string, id uuid.UUID) error {
	return domain.NotFound("memstore", resource, id.String())
}

func (m *memStore) put(shipments ...*domain.Shipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range shipments {
		m.shipments[s.ID] = *s
	}
}

func (m *memStore) shipment(id uuid.UUID) domain.Shipment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shipments[id]
}

func (m *memStore) sorted(keep func(domain.Shipment) bool) []*domain.Shipment {
	out := []*domain.Shipment{}
	for _, s := range m.shipments {
		if keep(s) {
			c := s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowNumber < out[j].RowNumber })
	return out
}

// ShipmentStore

func (m *memStore) ReplaceShipments(ctx context.Context, importJobID uuid.UUID, shipments []*domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.shipments {
		if s.ImportJobID == importJobID {
			delete(m.shipments, id)
		}
	}
	for _, s := range shipments {
		m.shipments[s.ID] = *s
	}
	return nil
}

func (m *memStore) GetShipment(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	return &s, nil
}

func (m *memStore) ListShipments(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search := strings.ToLower(filter.Search)
	all := m.sorted(func(s domain.Shipment) bool {
		if s.ImportJobID != filter.ImportJobID {
			return false
		}
		if filter.Status != "" && s.ValidationStatus != filter.Status {
			return false
		}
		if search == "" {
			return true
		}
		for _, v := range []string{s.ExternalOrderNumber, s.ToName, s.ToStreet1, s.ToCity, s.ToPostalCode} {
			if strings.Contains(strings.ToLower(v), search) {
				return true
			}
		}
		return false
	})
	total := len(all)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return all[start:end], total, nil
}

func (m *memStore) ListShipmentsByImport(ctx context.Context, importJobID uuid.UUID) ([]*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s domain.Shipment) bool { return s.ImportJobID == importJobID }), nil
}

func (m *memStore) ListShipmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s domain.Shipment) bool { return slices.Contains(ids, s.ID) }), nil
}

func (m *memStore) ListImportShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) ([]*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s domain.Shipment) bool {
		return s.ImportJobID == importJobID && slices.Contains(ids, s.ID)
	}), nil
}

func (m *memStore) UpdateShipment(ctx context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[s.ID]; !ok {
		return notFound("shipment", s.ID)
	}
	m.shipments[s.ID] = *s
	return nil
}

func (m *memStore) SaveVerification(ctx context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.shipments[s.ID]
	if !ok {
		return notFound("shipment", s.ID)
	}
	m.verificationWrites++
	cur.AddressVerificationStatus = s.AddressVerificationStatus
	cur.AddressVerificationDetails = s.AddressVerificationDetails
	cur.FromAddressVerificationStatus = s.FromAddressVerificationStatus
	cur.FromAddressVerificationDetails = s.FromAddressVerificationDetails
	cur.ValidationStatus = s.ValidationStatus
	cur.ValidationErrors = s.ValidationErrors
	m.shipments[s.ID] = cur
	return nil
}

func (m *memStore) SaveValidation(ctx context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.shipments[s.ID]
	if !ok {
		return notFound("shipment", s.ID)
	}
	cur.ValidationStatus = s.ValidationStatus
	cur.ValidationErrors = s.ValidationErrors
	m.shipments[s.ID] = cur
	return nil
}

func (m *memStore) SetService(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID, service string, priceCents *int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.shipments {
		if s.ImportJobID == importJobID && slices.Contains(ids, id) {
			s.SelectedService = service
			s.SelectedServicePriceCents = priceCents
			m.shipments[id] = s
			n++
		}
	}
	return n, nil
}

func (m *memStore) SetLabel(ctx context.Context, id uuid.UUID, status domain.LabelStatus, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return notFound("shipment", id)
	}
	s.LabelStatus = status
	s.LabelURL = url
	m.shipments[id] = s
	return nil
}

func (m *memStore) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[id]; !ok {
		return notFound("shipment", id)
	}
	delete(m.shipments, id)
	m.attempts = slices.DeleteFunc(m.attempts, func(a domain.VerificationAttempt) bool { return a.ShipmentID == id })
	return nil
}

func (m *memStore) DeleteShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.shipments {
		if s.ImportJobID == importJobID && slices.Contains(ids, id) {
			delete(m.shipments, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) ImportSummary(ctx context.Context, importJobID uuid.UUID) (domain.ImportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum domain.ImportSummary
	for _, s := range m.shipments {
		if s.ImportJobID != importJobID {
			continue
		}
		sum.TotalRows++
		switch s.ValidationStatus {
		case domain.ValidationStatusReady:
			sum.ReadyCount++
			if s.SelectedService != "" {
				sum.ReadyWithServiceCount++
			}
		case domain.ValidationStatusNeedsInfo:
			sum.NeedsInfoCount++
		case domain.ValidationStatusInvalid:
			sum.InvalidCount++
		}
		if s.ValidationStatus == domain.ValidationStatusReady && !s.AddressVerificationStatus.Verified() {
			sum.AddressUnverifiedCount++
		}
		if s.Purchasable() {
			sum.PurchasableCount++
		}
	}
	return sum, nil
}

// AttemptStore

func (m *memStore) CreateAttempt(ctx context.Context, attempt *domain.VerificationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attemptErr != nil {
		return m.attemptErr
	}
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *memStore) ListAttempts(ctx context.Context, shipmentID uuid.UUID) ([]domain.VerificationAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.VerificationAttempt
	for _, a := range m.attempts {
		if a.ShipmentID == shipmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ImportJobStore

func (m *memStore) CreateImportJob(ctx context.Context, job *domain.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[job.ID] = *job
	return nil
}

func (m *memStore) GetImportJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.imports[id]
	if !ok {
		return nil, notFound("import job", id)
	}
	return &job, nil
}

func (m *memStore) UpdateImportJob(ctx context.Context, job *domain.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.imports[job.ID]
	if !ok {
		return notFound("import job", job.ID)
	}
	cur.Status = job.Status
	cur.ErrorSummary = job.ErrorSummary
	cur.Meta = job.Meta
	m.imports[job.ID] = cur
	return nil
}

func (m *memStore) SetImportProgress(ctx context.Context, id uuid.UUID, total, done int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.imports[id]
	if !ok {
		return notFound("import job", id)
	}
	job.ProgressTotal = total
	job.ProgressDone = done
	m.imports[id] = job
	return nil
}

func (m *memStore) IncrementImportProgress(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.imports[id]
	if !ok {
		return notFound("import job", id)
	}
	if job.ProgressDone < job.ProgressTotal {
		job.ProgressDone++
	}
	m.imports[id] = job
	return nil
}

// PresetStore

func (m *memStore) ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AddressPreset
	for _, p := range m.addresses {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.addresses[id]
	if !ok {
		return nil, notFound("address preset", id)
	}
	return &p, nil
}

func (m *memStore) CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[p.ID] = *p
	return nil
}

func (m *memStore) UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[p.ID]; !ok {
		return notFound("address preset", p.ID)
	}
	m.addresses[p.ID] = *p
	return nil
}

func (m *memStore) DeleteAddressPreset(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[id]; !ok {
		return notFound("address preset", id)
	}
	delete(m.addresses, id)
	return nil
}

func (m *memStore) ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PackagePreset
	for _, p := range m.packages {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, notFound("package preset", id)
	}
	return &p, nil
}

func (m *memStore) CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.ID] = *p
	return nil
}

func (m *memStore) UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[p.ID]; !ok {
		return notFound("package preset", p.ID)
	}
	m.packages[p.ID] = *p
	return nil
}

func (m *memStore) DeletePackagePreset(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[id]; !ok {
		return notFound("package preset", id)
	}
	delete(m.packages, id)
	return nil
}

var errStoreDown = errors.New("store unavailable")
