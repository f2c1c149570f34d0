package in

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"siteaudit/internal/modules/advert/dto"
	advertin "siteaudit/internal/modules/advert/port/in"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/platform/logging"
)

const (
	signatureHeader = "Checkout-Signature"
	maxUploadBytes  = 6 << 20
	maxWebhookBytes = 1 << 20
)

// AdminCredentials guard the moderation routes. PasswordHash is a bcrypt
// hash; an empty hash locks the admin routes.
type AdminCredentials struct {
	User         string
	PasswordHash string
}

type HTTPHandler struct {
	usecase advertin.Usecase
	admin   AdminCredentials
	logger  *zap.Logger
}

func NewHTTPHandler(usecase advertin.Usecase, admin AdminCredentials, logger *zap.Logger) HTTPHandler {
	return HTTPHandler{usecase: usecase, admin: admin, logger: logging.OrNop(logger)}
}

func (h HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/adverts", h.submit)
	r.Post("/checkout/webhook", h.webhook)

	r.Route("/admin/adverts", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/", h.list)
		r.Post("/{id}/status", h.setStatus)
	})
	return r
}

func (h HTTPHandler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	input := dto.SubmitInput{
		BusinessName: r.FormValue("business_name"),
		Email:        r.FormValue("email"),
		Website:      r.FormValue("website"),
	}
	file, header, err := r.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read image: %w", err))
		return
	}
	if file != nil {
		defer file.Close()
		input.ImageName = header.Filename
		if input.Image, err = io.ReadAll(file); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read image: %w", err))
			return
		}
	}

	out, err := h.usecase.Submit(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", out.CheckoutURL)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, out.CheckoutURL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h HTTPHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	out, err := h.usecase.HandleWebhook(r.Context(), dto.WebhookInput{
		Payload:   payload,
		Signature: r.Header.Get(signatureHeader),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h HTTPHandler) list(w http.ResponseWriter, r *http.Request) {
	adverts, err := h.usecase.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adverts)
}

func (h HTTPHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
			return
		}
	} else {
		req.Status = r.FormValue("status")
	}
	out, err := h.usecase.SetStatus(r.Context(), dto.SetStatusInput{ID: chi.URLParam(r, "id"), Status: req.Status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h HTTPHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || !h.checkAdmin(user, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="siteaudit admin", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h HTTPHandler) checkAdmin(user, password string) bool {
	if h.admin.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.admin.User)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

func (h HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("advert request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
