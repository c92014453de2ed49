package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/mail"
	"github.com/hack4change/moncton/internal/submission"
)

// SignatureHeader carries base64(HMAC-SHA256(secret, raw body)) on form
// webhooks.
const SignatureHeader = "Tally-Signature"

// SubmissionRecorder stores form submissions.
type SubmissionRecorder interface {
	Insert(ctx context.Context, s *submission.Submission) error
}

// WelcomeMailer sends the welcome email.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, firstName string) error
}

type formField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

type formPayload struct {
	Data struct {
		SubmissionID string      `json:"submissionId"`
		Fields       []formField `json:"fields"`
	} `json:"data"`
}

// field returns the value of the first field whose key or label equals name,
// case-insensitively. Non-string scalars are formatted; missing or empty
// values return "".
func (p *formPayload) field(name string) string {
	for _, f := range p.Data.Fields {
		if !strings.EqualFold(f.Key, name) && !strings.EqualFold(f.Label, name) {
			continue
		}
		switch v := f.Value.(type) {
		case nil:
			return ""
		case string:
			return strings.TrimSpace(v)
		case float64, bool:
			return fmt.Sprint(v)
		default:
			return ""
		}
	}
	return ""
}

type detectedFields struct {
	UserID       bool `json:"user_id"`
	EventID      bool `json:"event_id"`
	SubmissionID bool `json:"submission_id"`
}

// FormWebhookHandler records registration form completions.
type FormWebhookHandler struct {
	secret      string
	submissions SubmissionRecorder
}

// NewFormWebhookHandler creates a new FormWebhookHandler.
func NewFormWebhookHandler(secret string, submissions SubmissionRecorder) *FormWebhookHandler {
	return &FormWebhookHandler{secret: secret, submissions: submissions}
}

// ValidSignature reports whether signature is the base64 HMAC-SHA256 of body
// under secret.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ServeHTTP handles POST /webhooks/tally.
func (h *FormWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.secret == "" {
		slog.Error("form webhook secret is not configured")
		response.Err(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Webhook secret is not configured", requestID)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_BODY", "Request body could not be read", requestID)
		return
	}

	if !ValidSignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		slog.Warn("form webhook signature mismatch", "requestId", requestID)
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid signature", requestID)
		return
	}

	var payload formPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	rawUserID := payload.field("user_id")
	eventID := payload.field("event_id")
	submissionID := strings.TrimSpace(payload.Data.SubmissionID)
	if rawUserID == "" || eventID == "" || submissionID == "" {
		slog.Error("form webhook is missing required fields", "userId", rawUserID, "eventId", eventID, "submissionId", submissionID)
		response.ErrWithDetails(w, http.StatusBadRequest, "MISSING_FIELDS", "Missing required fields", detectedFields{
			UserID:       rawUserID != "",
			EventID:      eventID != "",
			SubmissionID: submissionID != "",
		}, requestID)
		return
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "user_id must be a valid UUID", requestID)
		return
	}

	err = h.submissions.Insert(r.Context(), &submission.Submission{
		UserID:            userID,
		EventID:           eventID,
		TallySubmissionID: submissionID,
	})
	switch {
	case errors.Is(err, submission.ErrDuplicateSubmission):
		response.Success(w, http.StatusOK, response.Message{Message: "Submission already recorded"}, requestID)
	case errors.Is(err, submission.ErrUnknownUser):
		response.Err(w, http.StatusBadRequest, "UNKNOWN_USER", "user_id does not match a registered user", requestID)
	case err != nil:
		slog.Error("failed to store form submission", "error", err, "userId", userID, "eventId", eventID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store submission", requestID)
	default:
		slog.Info("form submission recorded", "userId", userID, "eventId", eventID)
		response.Success(w, http.StatusOK, response.Message{Message: "Success"}, requestID)
	}
}

type authUserRecord struct {
	Email            string  `json:"email"`
	EmailConfirmedAt *string `json:"email_confirmed_at"`
	RawUserMetaData  struct {
		FirstName string `json:"first_name"`
	} `json:"raw_user_meta_data"`
}

type authWebhookPayload struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Record    *authUserRecord `json:"record"`
	OldRecord *authUserRecord `json:"old_record"`
}

// justConfirmed reports whether the update set email_confirmed_at.
func (p *authWebhookPayload) justConfirmed() bool {
	if p.Record == nil || p.Record.EmailConfirmedAt == nil || *p.Record.EmailConfirmedAt == "" {
		return false
	}
	return p.OldRecord == nil || p.OldRecord.EmailConfirmedAt == nil || *p.OldRecord.EmailConfirmedAt == ""
}

// AuthWebhookHandler sends the welcome email when an account confirms its
// email address.
type AuthWebhookHandler struct {
	mailer WelcomeMailer
}

// NewAuthWebhookHandler creates a new AuthWebhookHandler. A nil mailer makes
// every confirmation fail with a configuration error.
func NewAuthWebhookHandler(mailer WelcomeMailer) *AuthWebhookHandler {
	return &AuthWebhookHandler{mailer: mailer}
}

// ServeHTTP handles POST /webhooks/auth.
func (h *AuthWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.mailer == nil {
		slog.Error("welcome mailer is not configured")
		response.Err(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Mailer is not configured", requestID)
		return
	}

	var payload authWebhookPayload
	if !decodeJSON(w, r, &payload, requestID) {
		return
	}

	switch {
	case payload.Table != "users":
		response.Success(w, http.StatusOK, response.Message{Message: "Ignored table"}, requestID)
		return
	case payload.Type != "UPDATE":
		response.Success(w, http.StatusOK, response.Message{Message: "Ignored operation type"}, requestID)
		return
	case !payload.justConfirmed():
		response.Success(w, http.StatusOK, response.Message{Message: "No confirmation detected"}, requestID)
		return
	}

	email := payload.Record.Email
	firstName := strings.TrimSpace(payload.Record.RawUserMetaData.FirstName)
	if firstName == "" {
		firstName = mail.DefaultFirstName
	}

	if err := h.mailer.SendWelcome(r.Context(), email, firstName); err != nil {
		slog.Error("failed to send welcome email", "error", err, "email", email)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to send email", requestID)
		return
	}

	slog.Info("welcome email sent", "email", email)
	response.Success(w, http.StatusOK, response.Message{Message: "Welcome email sent"}, requestID)
}
