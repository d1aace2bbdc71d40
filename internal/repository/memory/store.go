// Package memory provides an in-process implementation of the repository
// interfaces. It is used by tests and by development runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/repository"
)

// Store holds every table behind one mutex so that multi-record updates
// (ledger append plus balance increment) are atomic.
type Store struct {
	mu sync.RWMutex

	admins        map[string]*domain.Admin
	adminsByEmail map[string]string

	professionals map[string]*domain.Professional
	proByEmail    map[string]string
	proByCode     map[string]string

	entries map[string][]domain.CommissionEntry

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		admins:        map[string]*domain.Admin{},
		adminsByEmail: map[string]string{},
		professionals: map[string]*domain.Professional{},
		proByEmail:    map[string]string{},
		proByCode:     map[string]string{},
		entries:       map[string][]domain.CommissionEntry{},
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Admins exposes the admin table.
func (s *Store) Admins() repository.AdminRepository { return &adminRepo{s: s} }

// Professionals exposes the professional table.
func (s *Store) Professionals() repository.ProfessionalRepository { return &professionalRepo{s: s} }

// Commissions exposes the commission ledger.
func (s *Store) Commissions() repository.CommissionRepository { return &commissionRepo{s: s} }

type adminRepo struct{ s *Store }

func (r *adminRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	admin, ok := r.s.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *admin
	return &cp, nil
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	id, ok := r.s.adminsByEmail[email]
	r.s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *adminRepo) Upsert(ctx context.Context, admin *domain.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.adminsByEmail[admin.Email]; ok {
		existing := r.s.admins[id]
		existing.Name = admin.Name
		existing.PasswordHash = admin.PasswordHash
		admin.ID = existing.ID
		admin.CreatedAt = existing.CreatedAt
		return nil
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = r.s.now()
	}
	cp := *admin
	r.s.admins[admin.ID] = &cp
	r.s.adminsByEmail[admin.Email] = admin.ID
	return nil
}

func (r *adminRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	admin, ok := r.s.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.PasswordHash = passwordHash
	return nil
}

type professionalRepo struct{ s *Store }

func (r *professionalRepo) Create(ctx context.Context, pro *domain.Professional) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.proByEmail[pro.Email]; taken {
		return repository.ErrDuplicateEmail
	}
	if _, taken := r.s.proByCode[pro.ReferralCode]; taken {
		return repository.ErrDuplicateReferralCode
	}
	now := r.s.now()
	pro.CreatedAt = now
	pro.UpdatedAt = now
	pro.CommissionBalance = decimal.Zero

	cp := *pro
	r.s.professionals[pro.ID] = &cp
	r.s.proByEmail[pro.Email] = pro.ID
	r.s.proByCode[pro.ReferralCode] = pro.ID
	return nil
}

func (r *professionalRepo) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.professionalLocked(id)
}

func (r *professionalRepo) GetByEmail(ctx context.Context, email string) (*domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.professionalLocked(r.s.proByEmail[email])
}

func (r *professionalRepo) GetByReferralCode(ctx context.Context, code string) (*domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.professionalLocked(r.s.proByCode[code])
}

func (r *professionalRepo) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.proByCode[code]
	return ok, nil
}

func (r *professionalRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Professional, error) {
	return r.mutate(ctx, id, func(p *domain.Professional) {
		p.Profile = update.Apply(p.Profile)
	})
}

func (r *professionalRepo) SetActive(ctx context.Context, id string, active bool) (*domain.Professional, error) {
	return r.mutate(ctx, id, func(p *domain.Professional) {
		p.Active = active
	})
}

func (r *professionalRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.mutate(ctx, id, func(p *domain.Professional) {
		p.PasswordHash = passwordHash
	})
	return err
}

func (r *professionalRepo) mutate(ctx context.Context, id string, fn func(*domain.Professional)) (*domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pro, ok := r.s.professionals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(pro)
	pro.UpdatedAt = r.s.now()
	cp := *pro
	return &cp, nil
}

func (r *professionalRepo) List(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	result := make([]domain.Professional, 0, len(r.s.professionals))
	for _, pro := range r.s.professionals {
		if filter.Active != nil && pro.Active != *filter.Active {
			continue
		}
		result = append(result, *pro)
	}
	r.s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.Professional{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

type commissionRepo struct{ s *Store }

func (r *commissionRepo) Append(ctx context.Context, entry *domain.CommissionEntry) (*domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pro, ok := r.s.professionals[entry.ProfessionalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	balance := pro.CommissionBalance.Add(entry.CommissionValue)
	if balance.GreaterThan(domain.MaxMoney) || entry.PurchaseValue.GreaterThan(domain.MaxMoney) {
		return nil, repository.ErrValueOutOfRange
	}
	entry.CreatedAt = r.s.now()
	r.s.entries[pro.ID] = append(r.s.entries[pro.ID], *entry)
	pro.CommissionBalance = balance
	pro.UpdatedAt = entry.CreatedAt
	cp := *pro
	return &cp, nil
}

// Statement returns the professional and their entries newest first under
// one read lock. Entries are appended in order, so reverse insertion order
// is the creation order.
func (r *commissionRepo) Statement(ctx context.Context, professionalID string) (*domain.Professional, []domain.CommissionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	pro, err := r.s.professionalLocked(professionalID)
	if err != nil {
		return nil, nil, err
	}
	stored := r.s.entries[professionalID]
	result := make([]domain.CommissionEntry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		result = append(result, stored[i])
	}
	return pro, result, nil
}

func (s *Store) professionalLocked(id string) (*domain.Professional, error) {
	pro, ok := s.professionals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *pro
	return &cp, nil
}
