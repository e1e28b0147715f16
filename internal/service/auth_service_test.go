package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/config"
	"github.com/Jvjesus89/ERPapp/internal/credstore"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/model"
	"github.com/Jvjesus89/ERPapp/internal/repository"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users       map[string]*model.User // keyed by email
	profiles    map[uuid.UUID]*model.Profile
	failProfile bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:    make(map[string]*model.User),
		profiles: make(map[uuid.UUID]*model.Profile),
	}
}

func (r *stubUserRepo) CreateTx(_ *gorm.DB, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Email] = u
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.users[email]
	if !ok || !u.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) CreateCompanyTx(_ *gorm.DB, c *model.Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (r *stubUserRepo) CreateProfile(_ context.Context, p *model.Profile) error {
	if r.failProfile {
		return gorm.ErrInvalidData
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.profiles[p.UserID] = p
	return nil
}

func (r *stubUserRepo) FindProfileByUserID(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubUserRepo) DB() *gorm.DB { return nil }

var _ repository.UserRepository = (*stubUserRepo)(nil)

// memCredStore is an in-memory credstore.Store (no encryption, tests only).
type memCredStore struct {
	blobs map[string][]byte
}

func newMemCredStore() *memCredStore { return &memCredStore{blobs: make(map[string][]byte)} }

func (s *memCredStore) Save(_ context.Context, name string, plaintext []byte) error {
	s.blobs[name] = plaintext
	return nil
}

func (s *memCredStore) Get(_ context.Context, name string) ([]byte, error) {
	b, ok := s.blobs[name]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return b, nil
}

func (s *memCredStore) Delete(_ context.Context, name string) error {
	delete(s.blobs, name)
	return nil
}

func (s *memCredStore) Available(_ context.Context) bool { return true }

var _ credstore.Store = (*memCredStore)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func newAuthFixture() (AuthService, *stubUserRepo, *memCredStore) {
	repo := newStubUserRepo()
	creds := newMemCredStore()
	return NewAuthService(repo, creds, testConfig()), repo, creds
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		ID:           uuid.New(),
		CompanyID:    uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
	}
	repo.users[email] = u
	return u
}

// ── Login / SignUp / Refresh ──────────────────────────────────────────────────

func TestLoginSuccess(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	u := seedUser(t, repo, "maria@example.com", "s3cret")
	repo.profiles[u.ID] = &model.Profile{
		ID: uuid.New(), UserID: u.ID, Name: "Maria", Email: u.Email, RegisteredAt: time.Now(),
	}

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "maria@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, u.CompanyID.String(), resp.CompanyID)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Maria", resp.Profile.Name)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "maria@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpCreatesAccountAndProfile(t *testing.T) {
	svc, repo, _ := newAuthFixture()

	resp, err := svc.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "novo@example.com",
		Password: "senha123",
		Name:     "Novo Usuário",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	u, ok := repo.users["novo@example.com"]
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, u.CompanyID)

	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Novo Usuário", resp.Profile.Name)
}

func TestSignUpSurvivesProfileFailure(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	repo.failProfile = true

	resp, err := svc.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "novo@example.com",
		Password: "senha123",
		Name:     "Novo Usuário",
	})
	require.NoError(t, err)

	// account exists and tokens were issued, only profile data is missing
	assert.NotEmpty(t, resp.AccessToken)
	assert.Nil(t, resp.Profile)
	_, ok := repo.users["novo@example.com"]
	assert.True(t, ok)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	_, err := svc.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "maria@example.com",
		Password: "outra",
		Name:     "Maria 2",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "maria@example.com", Password: "s3cret"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.UserID, refreshed.UserID)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.Error(t, err)
}

// ── Device credential flow ────────────────────────────────────────────────────

func TestEnableDeviceRequiresValidCredentials(t *testing.T) {
	svc, repo, creds := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	_, err := svc.EnableDevice(context.Background(), dto.EnableDeviceRequest{
		DeviceID: "device-1",
		Email:    "maria@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, creds.blobs)
}

func TestDeviceLoginRoundTrip(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	u := seedUser(t, repo, "maria@example.com", "s3cret")

	enrolled, err := svc.EnableDevice(context.Background(), dto.EnableDeviceRequest{
		DeviceID: "device-1",
		Email:    "maria@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, enrolled.DeviceSecret)

	resp, err := svc.LoginWithDevice(context.Background(), dto.DeviceLoginRequest{
		DeviceID:     "device-1",
		DeviceSecret: enrolled.DeviceSecret,
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestDeviceLoginWrongSecret(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	_, err := svc.EnableDevice(context.Background(), dto.EnableDeviceRequest{
		DeviceID: "device-1",
		Email:    "maria@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = svc.LoginWithDevice(context.Background(), dto.DeviceLoginRequest{
		DeviceID:     "device-1",
		DeviceSecret: "0000000000000000000000000000000000000000000000000000000000000000",
	})
	assert.ErrorIs(t, err, ErrChallengeRejected)
}

func TestDeviceLoginNotEnrolled(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.LoginWithDevice(context.Background(), dto.DeviceLoginRequest{
		DeviceID:     "device-unknown",
		DeviceSecret: "whatever",
	})
	assert.ErrorIs(t, err, ErrDeviceNotEnrolled)
}

func TestDeviceLoginFailsAfterPasswordChange(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	u := seedUser(t, repo, "maria@example.com", "s3cret")

	enrolled, err := svc.EnableDevice(context.Background(), dto.EnableDeviceRequest{
		DeviceID: "device-1",
		Email:    "maria@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	// password changed after enrollment: stored credentials must stop working
	hash, err := bcrypt.GenerateFromPassword([]byte("nova-senha"), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)

	_, err = svc.LoginWithDevice(context.Background(), dto.DeviceLoginRequest{
		DeviceID:     "device-1",
		DeviceSecret: enrolled.DeviceSecret,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDisableDeviceRemovesEnrollment(t *testing.T) {
	svc, repo, creds := newAuthFixture()
	seedUser(t, repo, "maria@example.com", "s3cret")

	enrolled, err := svc.EnableDevice(context.Background(), dto.EnableDeviceRequest{
		DeviceID: "device-1",
		Email:    "maria@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DisableDevice(context.Background(), dto.DisableDeviceRequest{DeviceID: "device-1"}))
	assert.Empty(t, creds.blobs)

	_, err = svc.LoginWithDevice(context.Background(), dto.DeviceLoginRequest{
		DeviceID:     "device-1",
		DeviceSecret: enrolled.DeviceSecret,
	})
	assert.ErrorIs(t, err, ErrDeviceNotEnrolled)
}
