package tenants

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gizihub/gizihub/internal/rbac"
	"github.com/gizihub/gizihub/internal/shared"
)

type stubRepo struct {
	nextID  int64
	byCode  map[string]Tenant
	byID    map[int64]Tenant
	statuses map[int64]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{byCode: map[string]Tenant{}, byID: map[int64]Tenant{}, statuses: map[int64]string{}}
}

func (s *stubRepo) Create(ctx context.Context, t Tenant) (Tenant, error) {
	if _, exists := s.byCode[t.Code]; exists {
		return Tenant{}, ErrCodeTaken
	}
	s.nextID++
	t.ID = s.nextID
	s.byCode[t.Code] = t
	s.byID[t.ID] = t
	s.statuses[t.ID] = t.Status
	return t, nil
}

func (s *stubRepo) Get(ctx context.Context, id int64) (Tenant, error) {
	t, ok := s.byID[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	t.Status = s.statuses[id]
	return t, nil
}

func (s *stubRepo) GetByCode(ctx context.Context, code string) (Tenant, error) {
	t, ok := s.byCode[code]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (s *stubRepo) List(ctx context.Context) ([]Tenant, error) {
	out := make([]Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	s.statuses[id] = status
	return nil
}

type stubProvisioner struct {
	calls []int64
	err   error
}

func (s *stubProvisioner) ProvisionTenant(ctx context.Context, tenantID int64) (rbac.ProvisionReport, error) {
	s.calls = append(s.calls, tenantID)
	if s.err != nil {
		return rbac.ProvisionReport{TenantID: tenantID}, s.err
	}
	return rbac.ProvisionReport{TenantID: tenantID, RolesCreated: 6}, nil
}

type stubScheduler struct {
	scheduled  []int64
	welcomes   []string
	err        error
	welcomeErr error
}

func (s *stubScheduler) ScheduleProvision(ctx context.Context, tenantID int64) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, tenantID)
	return nil
}

func (s *stubScheduler) ScheduleWelcomeEmail(ctx context.Context, to, tenantName string) error {
	if s.welcomeErr != nil {
		return s.welcomeErr
	}
	s.welcomes = append(s.welcomes, to)
	return nil
}

type stubAuditor struct {
	entries []shared.AuditLog
}

func (s *stubAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func validRequest() OnboardRequest {
	return OnboardRequest{
		Name:         "Dapur Gizi Cirebon Utara",
		Region:       "Jawa Barat",
		ContactEmail: "admin@cirebon-utara.sppg.id",
	}
}

func TestOnboardSchedulesProvisioning(t *testing.T) {
	repo := newStubRepo()
	scheduler := &stubScheduler{}
	provisioner := &stubProvisioner{}
	svc := NewService(repo, provisioner, scheduler, &stubAuditor{}, nil)

	tenant, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "dapur-gizi-cirebon-utara", tenant.Code)
	assert.Equal(t, StatusPending, tenant.Status)
	assert.Equal(t, []int64{tenant.ID}, scheduler.scheduled)
	assert.Empty(t, provisioner.calls, "scheduler present, provisioning must be deferred")
	assert.Equal(t, []string{"admin@cirebon-utara.sppg.id"}, scheduler.welcomes)
}

func TestOnboardWelcomeEmailFailureDoesNotFailSignup(t *testing.T) {
	repo := newStubRepo()
	scheduler := &stubScheduler{welcomeErr: errors.New("queue down")}
	svc := NewService(repo, &stubProvisioner{}, scheduler, nil, nil)

	tenant, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []int64{tenant.ID}, scheduler.scheduled)
	assert.Empty(t, scheduler.welcomes)
}

func TestOnboardProvisionsSynchronouslyWithoutScheduler(t *testing.T) {
	repo := newStubRepo()
	provisioner := &stubProvisioner{}
	svc := NewService(repo, provisioner, nil, nil, nil)

	tenant, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []int64{tenant.ID}, provisioner.calls)

	got, err := svc.Get(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestOnboardRejectsInvalidRequest(t *testing.T) {
	svc := NewService(newStubRepo(), &stubProvisioner{}, nil, nil, nil)

	req := validRequest()
	req.ContactEmail = "not-an-email"
	_, err := svc.Onboard(context.Background(), req)
	require.Error(t, err)

	req = validRequest()
	req.Name = "ab"
	_, err = svc.Onboard(context.Background(), req)
	require.Error(t, err)
}

func TestOnboardRejectsDuplicateCode(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubProvisioner{}, nil, nil, nil)

	_, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Onboard(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestProvisionActivatesTenant(t *testing.T) {
	repo := newStubRepo()
	provisioner := &stubProvisioner{}
	audit := &stubAuditor{}
	svc := NewService(repo, provisioner, &stubScheduler{}, audit, nil)

	tenant, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)

	report, err := svc.Provision(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, report.RolesCreated)

	got, err := svc.Get(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "tenant.provision", audit.entries[1].Action)
}

func TestProvisionFailureKeepsTenantPending(t *testing.T) {
	repo := newStubRepo()
	provisioner := &stubProvisioner{err: errors.New("storage down")}
	svc := NewService(repo, provisioner, &stubScheduler{}, nil, nil)

	tenant, err := svc.Onboard(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Provision(context.Background(), tenant.ID)
	require.Error(t, err)

	got, err := svc.Get(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
