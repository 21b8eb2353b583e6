package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
	authmw "github.com/MrEthical07/authcore/middleware"
	"github.com/go-chi/chi/v5"
)

type signupRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type tokenUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Message          string            `json:"message"`
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	ExpiresIn        int64             `json:"expires_in"`
	RefreshExpiresIn int64             `json:"refresh_expires_in"`
	User             tokenUserResponse `json:"user"`
}

type refreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newUserResponse(id authcore.Identity) userResponse {
	return userResponse{
		ID:         id.ID,
		Username:   id.Username,
		Email:      id.Email,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		Role:       string(id.Role),
		IsVerified: id.Verified,
		CreatedAt:  id.CreatedAt,
		UpdatedAt:  id.UpdatedAt,
	}
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.engine.Signup(r.Context(), authcore.SignupRequest{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		Message: "Account Created! Check email to verify your account",
		User:    newUserResponse(id),
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:          "Login successful",
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		ExpiresIn:        int64(h.engine.Issuer().AccessTTL().Seconds()),
		RefreshExpiresIn: int64(h.engine.Issuer().RefreshTTL().Seconds()),
		User: tokenUserResponse{
			ID:    res.User.ID,
			Email: res.User.Email,
		},
	})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	principal, _ := authcore.PrincipalFromContext(r.Context())
	access, err := h.engine.RefreshPrincipal(r.Context(), principal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Message:     "Access token refreshed successfully",
		AccessToken: access,
		ExpiresIn:   int64(h.engine.Issuer().AccessTTL().Seconds()),
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	principal, _ := authcore.PrincipalFromContext(r.Context())
	if err := h.engine.Revoke(r.Context(), principal); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (h *handler) currentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := authmw.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, authcore.ErrInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(id))
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account verified successfully")
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.RequestEmailVerification(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Please check your email to verify your account")
}

func (h *handler) passwordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Please check your email for instructions to reset your password")
}

func (h *handler) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	err := h.engine.ConfirmPasswordReset(r.Context(), chi.URLParam(r, "token"), authcore.PasswordResetConfirmation{
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset Successfully")
}
