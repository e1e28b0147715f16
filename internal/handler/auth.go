package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jvjesus89/ERPapp/internal/apierror"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Email and password login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SignUp godoc
// @Summary Register a new account and tenant
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignUpRequest true "New account"
// @Success 201 {object} dto.LoginResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Device credentials ───────────────────────────────────────────────────────

// DeviceSupport godoc
// @Summary Whether device credential login is available
// @Tags auth
// @Produce json
// @Success 200 {object} dto.DeviceSupportResponse
// @Router /v1/auth/device/support [get]
func (h *AuthHandler) DeviceSupport(c *gin.Context) {
	c.JSON(http.StatusOK, dto.DeviceSupportResponse{
		Supported: h.svc.DeviceSupport(c.Request.Context()),
	})
}

// EnableDevice godoc
// @Summary Enroll a device for credential login
// @Description Validates the credentials with a live sign-in, stores them encrypted and returns the one-time device secret.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.EnableDeviceRequest true "Device and credentials"
// @Success 201 {object} dto.EnableDeviceResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/device/enable [post]
func (h *AuthHandler) EnableDevice(c *gin.Context) {
	var req dto.EnableDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EnableDevice(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to enroll device"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DeviceLogin godoc
// @Summary Login with a stored device credential
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.DeviceLoginRequest true "Device challenge"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/auth/device/login [post]
func (h *AuthHandler) DeviceLogin(c *gin.Context) {
	var req dto.DeviceLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.LoginWithDevice(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeviceNotEnrolled):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		case errors.Is(err, service.ErrChallengeRejected), errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, apierror.New("Device login failed"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DisableDevice godoc
// @Summary Remove a device enrollment
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.DisableDeviceRequest true "Device"
// @Success 204
// @Router /v1/auth/device [delete]
func (h *AuthHandler) DisableDevice(c *gin.Context) {
	var req dto.DisableDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.DisableDevice(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to remove enrollment"))
		return
	}
	c.Status(http.StatusNoContent)
}
