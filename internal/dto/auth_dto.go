package dto

// ─── Requests ────────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"required"`
	// CompanyName defaults to Name when blank — a fresh signup opens a
	// fresh tenant.
	CompanyName string `json:"company_name"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// EnableDeviceRequest validates the credentials with a live sign-in before
// storing them for biometric-gated replay.
type EnableDeviceRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required"`
}

// DeviceLoginRequest replays stored credentials after the device secret
// (released by the device's biometric gate) passes the challenge.
type DeviceLoginRequest struct {
	DeviceID     string `json:"device_id"     validate:"required"`
	DeviceSecret string `json:"device_secret" validate:"required"`
}

type DisableDeviceRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type ProfileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"`
	UserID       string           `json:"user_id"`
	CompanyID    string           `json:"company_id"`
	Email        string           `json:"email"`
	Profile      *ProfileResponse `json:"profile,omitempty"`
}

type EnableDeviceResponse struct {
	// DeviceSecret is returned exactly once; the device keeps it behind its
	// biometric gate and presents it on device login.
	DeviceSecret string `json:"device_secret"`
}

type DeviceSupportResponse struct {
	Supported bool `json:"supported"`
}
