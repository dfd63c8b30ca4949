package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"shopapp/internal/auth"
	"shopapp/internal/email"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		writeError(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}

	ctx := r.Context()

	// Email and name conflicts are reported distinctly.
	if _, err := s.Users.FindByEmail(ctx, req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "Email already exists")
		return
	} else if !errors.Is(err, auth.ErrNotFound) {
		log.Printf("register: lookup by email failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := s.Users.FindByName(ctx, req.Name); err == nil {
		writeError(w, http.StatusBadRequest, "User name already exists")
		return
	} else if !errors.Is(err, auth.ErrNotFound) {
		log.Printf("register: lookup by name failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	hashed, err := s.Hasher.Hash(req.Password)
	if err != nil {
		log.Printf("register: hash failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := s.Users.Create(ctx, &auth.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         auth.RoleUser,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already exists")
		case errors.Is(err, auth.ErrNameTaken):
			writeError(w, http.StatusBadRequest, "User name already exists")
		default:
			log.Printf("register: create user failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := s.issueAndDeliverOTP(ctx, user); err != nil {
		log.Printf("register: issue otp failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Registration initiated. An OTP has been sent to your e-mail and is valid for 1 minute.",
		"userId":  user.ID,
	})
}

type verifyRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

func (s *Server) handleVerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "Please provide userId and otp")
		return
	}

	ctx := r.Context()
	user, err := s.Users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("verify: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user.IsVerified {
		writeError(w, http.StatusBadRequest, "User already verified")
		return
	}

	if err := s.OTP.Verify(ctx, user, req.OTP); err != nil {
		switch {
		case errors.Is(err, auth.ErrOTPNotFound):
			writeError(w, http.StatusBadRequest, "OTP not found or expired")
		case errors.Is(err, auth.ErrOTPExpired):
			writeError(w, http.StatusBadRequest, "OTP expired")
		case errors.Is(err, auth.ErrOTPMismatch):
			writeError(w, http.StatusBadRequest, "Invalid OTP")
		default:
			log.Printf("verify: consume otp failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	user.IsVerified = true
	user.OTP = nil

	token, err := s.issueSession(w, user.ID)
	if err != nil {
		log.Printf("verify: token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User verified successfully",
		"user":    user.Sanitized(),
		"token":   token,
	})
}

type resendOTPRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Please provide userId")
		return
	}

	ctx := r.Context()
	user, err := s.Users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("resend-otp: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user.IsVerified {
		writeError(w, http.StatusBadRequest, "User already verified")
		return
	}

	if err := s.issueAndDeliverOTP(ctx, user); err != nil {
		log.Printf("resend-otp: issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "An OTP has been sent to your e-mail and is valid for 1 minute.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}

	ctx := r.Context()
	user, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("login: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Unverified accounts can never log in, only complete verification.
	if !user.IsVerified {
		writeError(w, http.StatusBadRequest, "User not verified")
		return
	}
	if !s.Hasher.Compare(user.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := s.issueSession(w, user.ID)
	if err != nil {
		log.Printf("login: token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    user.Sanitized(),
		"token":   token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	sessionUser := userFromContext(r.Context())
	if sessionUser == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Re-read in case the record vanished since authentication.
	user, err := s.Users.FindByID(r.Context(), sessionUser.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("get-me: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user.Sanitized(),
	})
}

// issueAndDeliverOTP mints and persists a fresh code, then hands it to the
// notifier. Delivery failures are logged, not surfaced: the code is already
// persisted and the user can always ask for a resend.
func (s *Server) issueAndDeliverOTP(ctx context.Context, user *auth.User) error {
	code, err := s.OTP.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	subject, body := email.OTPMessage(code, int(s.OTP.TTL.Seconds()))
	if err := s.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("otp email send failed for %s: %v", user.Email, err)
	}
	return nil
}

func (s *Server) issueSession(w http.ResponseWriter, userID string) (string, error) {
	expires := time.Now().Add(s.Config.SessionTTL)
	token, err := auth.GenerateToken(userID, []byte(s.Config.JWTSecret), s.Config.SessionTTL)
	if err != nil {
		return "", err
	}
	auth.SetSessionCookie(w, token, expires)
	return token, nil
}
