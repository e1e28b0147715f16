package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/config"
	"github.com/Jvjesus89/ERPapp/internal/credstore"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/model"
	"github.com/Jvjesus89/ERPapp/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDeviceNotEnrolled  = errors.New("device not enrolled")
	ErrChallengeRejected  = errors.New("device challenge rejected")
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)

	// Device credential flow — the server-side half of biometric login.
	DeviceSupport(ctx context.Context) bool
	EnableDevice(ctx context.Context, req dto.EnableDeviceRequest) (*dto.EnableDeviceResponse, error)
	LoginWithDevice(ctx context.Context, req dto.DeviceLoginRequest) (*dto.LoginResponse, error)
	DisableDevice(ctx context.Context, req dto.DisableDeviceRequest) error
}

type authService struct {
	repo  repository.UserRepository
	creds credstore.Store
	cfg   *config.Config
}

func NewAuthService(repo repository.UserRepository, creds credstore.Store, cfg *config.Config) AuthService {
	return &authService{repo: repo, creds: creds, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.buildLoginResponse(ctx, user)
}

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.LoginResponse, error) {
	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}

	companyName := req.CompanyName
	if companyName == "" {
		companyName = req.Name
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Active:       true,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		company := &model.Company{Name: companyName}
		if err := s.repo.CreateCompanyTx(tx, company); err != nil {
			return err
		}
		user.CompanyID = company.ID
		return s.repo.CreateTx(tx, user)
	})
	if err != nil {
		return nil, err
	}

	// The profile insert is deliberately outside the transaction: the
	// account must survive a profile failure.
	profile := &model.Profile{
		CompanyID:    user.CompanyID,
		UserID:       user.ID,
		Name:         req.Name,
		Email:        req.Email,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		log.Warn().Str("user_id", user.ID.String()).Err(err).Msg("profile insert failed, account kept")
	}

	return s.buildLoginResponse(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("malformed token")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, errors.New("user not found or inactive")
	}

	return s.buildLoginResponse(ctx, user)
}

// ─── Device credential flow ──────────────────────────────────────────────────

// deviceBlob is what gets sealed into the credential store. SecretHash keeps
// the device secret itself out of the blob: the server can verify a
// presented secret without being able to reproduce it.
type deviceBlob struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	SecretHash string `json:"secret_hash"`
}

func (s *authService) DeviceSupport(ctx context.Context) bool {
	return s.creds != nil && s.creds.Available(ctx)
}

func (s *authService) EnableDevice(ctx context.Context, req dto.EnableDeviceRequest) (*dto.EnableDeviceResponse, error) {
	// Live sign-in first: never store credentials that don't work.
	if _, err := s.Login(ctx, dto.LoginRequest{Email: req.Email, Password: req.Password}); err != nil {
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	secret := hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(secret))

	blob, err := json.Marshal(deviceBlob{
		Email:      req.Email,
		Password:   req.Password,
		SecretHash: hex.EncodeToString(hash[:]),
	})
	if err != nil {
		return nil, err
	}
	if err := s.creds.Save(ctx, req.DeviceID, blob); err != nil {
		return nil, err
	}

	// The secret is shown exactly once. Enrollment issues no tokens; the
	// device logs in normally right after.
	return &dto.EnableDeviceResponse{DeviceSecret: secret}, nil
}

func (s *authService) LoginWithDevice(ctx context.Context, req dto.DeviceLoginRequest) (*dto.LoginResponse, error) {
	data, err := s.creds.Get(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil, ErrDeviceNotEnrolled
		}
		return nil, err
	}
	var blob deviceBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, err
	}

	presented := sha256.Sum256([]byte(req.DeviceSecret))
	if !hmac.Equal([]byte(hex.EncodeToString(presented[:])), []byte(blob.SecretHash)) {
		return nil, ErrChallengeRejected
	}

	// Replay through the normal path so deactivated accounts and changed
	// passwords fail the same way they would interactively.
	return s.Login(ctx, dto.LoginRequest{Email: blob.Email, Password: blob.Password})
}

func (s *authService) DisableDevice(ctx context.Context, req dto.DisableDeviceRequest) error {
	return s.creds.Delete(ctx, req.DeviceID)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *authService) buildLoginResponse(ctx context.Context, user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	resp := &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		UserID:       user.ID.String(),
		CompanyID:    user.CompanyID.String(),
		Email:        user.Email,
	}
	if profile := s.fetchProfileWithRetry(ctx, user.ID); profile != nil {
		resp.Profile = &dto.ProfileResponse{
			ID:           profile.ID.String(),
			Name:         profile.Name,
			Email:        profile.Email,
			RegisteredAt: profile.RegisteredAt.UTC().Format(time.RFC3339),
		}
	}
	return resp, nil
}

// fetchProfileWithRetry absorbs the read-after-write gap right after signup:
// a missing profile is retried with doubling backoff instead of failing the
// login. Still missing after the last attempt means the best-effort insert
// lost — the login proceeds without profile data.
func (s *authService) fetchProfileWithRetry(ctx context.Context, userID uuid.UUID) *model.Profile {
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		profile, err := s.repo.FindProfileByUserID(ctx, userID)
		if err == nil {
			return profile
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("user_id", userID.String()).Err(err).Msg("profile fetch failed")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil
}

func (s *authService) generateToken(user *model.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"company_id": user.CompanyID.String(),
		"email":      user.Email,
		"exp":        time.Now().Add(ttl).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
