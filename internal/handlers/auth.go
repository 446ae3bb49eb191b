// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"adsouk/internal/middleware"
	"adsouk/internal/store"
	"adsouk/internal/token"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	users  *store.UserStore
	tokens *token.Store
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, tokens *token.Store) *Auth {
	return &Auth{users: users, tokens: tokens}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and issues an API token.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if errs := validateRegistration(req.Name, req.Email, req.Password); errs != nil {
		validationJSON(w, errs, nil)
		return
	}

	existing, err := a.users.FindByEmail(req.Email)
	if err != nil {
		slog.Error("register lookup failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if existing != nil {
		validationJSON(w, map[string][]string{
			"email": {"The email has already been taken."},
		}, nil)
		return
	}

	user, err := a.users.Create(req.Name, req.Email, req.Password)
	if err != nil {
		slog.Error("register create failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	plaintext, err := a.tokens.Issue(r.Context(), &token.Data{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		slog.Error("register token issue failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   plaintext,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code"`
}

// Login verifies credentials (and, when enrolled, the TOTP code) and
// issues an API token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	user, err := a.users.FindByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if user == nil || !a.users.CheckPassword(user, req.Password) {
		validationJSON(w, map[string][]string{
			"email": {"The provided credentials are incorrect."},
		}, nil)
		return
	}

	if user.TOTPEnabled && user.TOTPSecret != nil {
		if !totp.Validate(req.OTPCode, *user.TOTPSecret) {
			validationJSON(w, map[string][]string{
				"otp_code": {"The one-time code is invalid."},
			}, nil)
			return
		}
	}

	plaintext, err := a.tokens.Issue(r.Context(), &token.Data{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		slog.Error("login token issue failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   plaintext,
	})
}

// Logout revokes the presented token.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.tokens.Revoke(r.Context(), middleware.BearerFromCtx(r.Context())); err != nil {
		slog.Error("logout revoke failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out successfully",
	})
}

// TwoFASetup generates a TOTP secret for the authenticated user and
// returns the provisioning URI with a QR code PNG (base64).
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	identity := middleware.TokenFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "adsouk",
		AccountName: identity.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := a.users.SetTOTPSecret(identity.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
		"qr_png":      base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates the TOTP code and enables 2FA for the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	identity := middleware.TokenFromCtx(r.Context())

	var req twoFAVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	user, err := a.users.FindByID(identity.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if user.TOTPSecret == nil {
		validationJSON(w, map[string][]string{
			"code": {"Two-factor setup has not been started."},
		}, nil)
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		validationJSON(w, map[string][]string{
			"code": {"The one-time code is invalid."},
		}, nil)
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Two-factor authentication enabled",
	})
}
