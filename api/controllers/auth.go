package controllers

import (
	"net/http"
	"time"

	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/api/validators"
	"github.com/agritraceio/agritrace-backend/internal/users"
	pkgauth "github.com/agritraceio/agritrace-backend/pkg/auth"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	FullName       string `json:"full_name" validate:"required,min=1"`
	Password       string `json:"password" validate:"required,min=8"`
	Role           string `json:"role" validate:"required,oneof=farmer processor inspector consumer admin"`
	LedgerIdentity string `json:"ledger_identity" validate:"required,min=1"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	LedgerIdentity string `json:"ledger_identity"`
}

// Register creates an account.
func Register(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), users.RegisterInput{
			Email:          req.Email,
			FullName:       req.FullName,
			Password:       req.Password,
			Role:           req.Role,
			LedgerIdentity: req.LedgerIdentity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, userResponse{
			ID:             user.ID.String(),
			Email:          user.Email,
			FullName:       user.FullName,
			Role:           string(user.Role),
			LedgerIdentity: user.LedgerIdentity,
		})
	}
}

// Login checks credentials and mints an access token.
func Login(svc users.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
			UserID:         user.ID,
			Role:           user.Role,
			LedgerIdentity: user.LedgerIdentity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"access_token": token,
			"user": userResponse{
				ID:             user.ID.String(),
				Email:          user.Email,
				FullName:       user.FullName,
				Role:           string(user.Role),
				LedgerIdentity: user.LedgerIdentity,
			},
		})
	}
}
