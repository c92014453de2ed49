package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/api/handler"
	"github.com/hack4change/moncton/internal/submission"
)

const webhookSecret = "tally-secret"

type memSubmissions struct {
	mu       sync.Mutex
	rows     map[string]submission.Submission
	insertFn func(ctx context.Context, s *submission.Submission) error
}

func (m *memSubmissions) Insert(ctx context.Context, s *submission.Submission) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]submission.Submission{}
	}
	key := s.UserID.String() + "/" + s.EventID
	if _, ok := m.rows[key]; ok {
		return submission.ErrDuplicateSubmission
	}
	m.rows[key] = *s
	return nil
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func tallyBody(userID string) string {
	return `{"eventId":"e1","data":{"submissionId":"sub-42","fields":[` +
		`{"key":"question_abc","label":"User_ID","value":"` + userID + `"},` +
		`{"key":"EVENT_ID","label":"Hidden","value":"hack4change-2026"}]}}`
}

func postTally(h http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tally", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(handler.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestValidSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"a":1}`)
	assert.True(t, handler.ValidSignature("k", body, sign("k", string(body))))
	assert.False(t, handler.ValidSignature("k", body, sign("other", string(body))))
	assert.False(t, handler.ValidSignature("k", body, ""))
}

func TestFormWebhook_RecordsSubmission(t *testing.T) {
	t.Parallel()

	store := &memSubmissions{}
	h := handler.NewFormWebhookHandler(webhookSecret, store)
	body := tallyBody(callerID.String())

	w := postTally(h, body, sign(webhookSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Success", dataObject(t, w)["message"])
	require.Len(t, store.rows, 1)
	for _, s := range store.rows {
		assert.Equal(t, callerID, s.UserID)
		assert.Equal(t, "hack4change-2026", s.EventID)
		assert.Equal(t, "sub-42", s.TallySubmissionID)
	}
}

func TestFormWebhook_DuplicateDeliveryIsAcknowledged(t *testing.T) {
	t.Parallel()

	store := &memSubmissions{}
	h := handler.NewFormWebhookHandler(webhookSecret, store)
	body := tallyBody(callerID.String())

	first := postTally(h, body, sign(webhookSecret, body))
	second := postTally(h, body, sign(webhookSecret, body))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "Submission already recorded", dataObject(t, second)["message"])
	assert.Len(t, store.rows, 1)
}

func TestFormWebhook_Rejections(t *testing.T) {
	t.Parallel()

	valid := tallyBody(callerID.String())
	missingUser := `{"data":{"submissionId":"s","fields":[{"key":"event_id","value":"e"}]}}`
	badUser := tallyBody("not-a-uuid")

	tests := []struct {
		name       string
		secret     string
		body       string
		signature  string
		insertErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "secret unset", secret: "", body: valid, signature: sign("", valid), wantStatus: http.StatusInternalServerError, wantCode: "CONFIGURATION_ERROR"},
		{name: "bad signature", secret: webhookSecret, body: valid, signature: sign("wrong", valid), wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "no signature", secret: webhookSecret, body: valid, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "malformed json", secret: webhookSecret, body: `{`, signature: sign(webhookSecret, `{`), wantStatus: http.StatusBadRequest, wantCode: "INVALID_JSON"},
		{name: "missing user", secret: webhookSecret, body: missingUser, signature: sign(webhookSecret, missingUser), wantStatus: http.StatusBadRequest, wantCode: "MISSING_FIELDS"},
		{name: "bad user id", secret: webhookSecret, body: badUser, signature: sign(webhookSecret, badUser), wantStatus: http.StatusBadRequest, wantCode: "INVALID_ID"},
		{name: "unknown user", secret: webhookSecret, body: valid, signature: sign(webhookSecret, valid), insertErr: submission.ErrUnknownUser, wantStatus: http.StatusBadRequest, wantCode: "UNKNOWN_USER"},
		{name: "store failure", secret: webhookSecret, body: valid, signature: sign(webhookSecret, valid), insertErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &memSubmissions{}
			if tt.insertErr != nil {
				store.insertFn = func(context.Context, *submission.Submission) error { return tt.insertErr }
			}
			h := handler.NewFormWebhookHandler(tt.secret, store)

			w := postTally(h, tt.body, tt.signature)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestFormWebhook_MissingFieldsReportsDetection(t *testing.T) {
	t.Parallel()

	body := `{"data":{"fields":[{"label":"user_id","value":"` + callerID.String() + `"}]}}`
	h := handler.NewFormWebhookHandler(webhookSecret, &memSubmissions{})

	w := postTally(h, body, sign(webhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := parseEnvelope(t, w)["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, true, details["user_id"])
	assert.Equal(t, false, details["event_id"])
	assert.Equal(t, false, details["submission_id"])
}

type mockMailer struct {
	sendFn func(ctx context.Context, to, firstName string) error
	calls  int
}

func (m *mockMailer) SendWelcome(ctx context.Context, to, firstName string) error {
	m.calls++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, firstName)
	}
	return nil
}

func TestAuthWebhook_SendsWelcomeOnConfirmation(t *testing.T) {
	t.Parallel()

	var gotTo, gotName string
	mailer := &mockMailer{sendFn: func(_ context.Context, to, firstName string) error {
		gotTo, gotName = to, firstName
		return nil
	}}
	h := handler.NewAuthWebhookHandler(mailer)

	body := []byte(`{"type":"UPDATE","table":"users",
		"record":{"email":"ada@example.com","email_confirmed_at":"2026-02-01T10:00:00Z","raw_user_meta_data":{"first_name":"Ada"}},
		"old_record":{"email":"ada@example.com","email_confirmed_at":null}}`)
	req, w := makeChiRequest(http.MethodPost, "/webhooks/auth", body, nil, nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome email sent", dataObject(t, w)["message"])
	assert.Equal(t, "ada@example.com", gotTo)
	assert.Equal(t, "Ada", gotName)
}

func TestAuthWebhook_DefaultsFirstName(t *testing.T) {
	t.Parallel()

	var gotName string
	mailer := &mockMailer{sendFn: func(_ context.Context, _, firstName string) error {
		gotName = firstName
		return nil
	}}
	h := handler.NewAuthWebhookHandler(mailer)

	body := []byte(`{"type":"UPDATE","table":"users","record":{"email":"x@example.com","email_confirmed_at":"2026-02-01T10:00:00Z"},"old_record":{}}`)
	req, w := makeChiRequest(http.MethodPost, "/webhooks/auth", body, nil, nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hacker", gotName)
}

func TestAuthWebhook_IgnoredEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "other table", body: `{"type":"UPDATE","table":"profiles"}`, message: "Ignored table"},
		{name: "insert", body: `{"type":"INSERT","table":"users","record":{"email_confirmed_at":"2026-02-01T10:00:00Z"}}`, message: "Ignored operation type"},
		{name: "already confirmed", body: `{"type":"UPDATE","table":"users","record":{"email_confirmed_at":"2026-02-02T10:00:00Z"},"old_record":{"email_confirmed_at":"2026-02-01T10:00:00Z"}}`, message: "No confirmation detected"},
		{name: "still unconfirmed", body: `{"type":"UPDATE","table":"users","record":{"email_confirmed_at":null},"old_record":{"email_confirmed_at":null}}`, message: "No confirmation detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mailer := &mockMailer{}
			h := handler.NewAuthWebhookHandler(mailer)

			req, w := makeChiRequest(http.MethodPost, "/webhooks/auth", []byte(tt.body), nil, nil)
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.message, dataObject(t, w)["message"])
			assert.Zero(t, mailer.calls)
		})
	}
}

func TestAuthWebhook_Failures(t *testing.T) {
	t.Parallel()

	confirmed := []byte(`{"type":"UPDATE","table":"users","record":{"email":"a@example.com","email_confirmed_at":"2026-02-01T10:00:00Z"},"old_record":{}}`)

	t.Run("mailer not configured", func(t *testing.T) {
		t.Parallel()
		h := handler.NewAuthWebhookHandler(nil)
		req, w := makeChiRequest(http.MethodPost, "/webhooks/auth", confirmed, nil, nil)
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "CONFIGURATION_ERROR", errorCode(t, w))
	})

	t.Run("smtp failure", func(t *testing.T) {
		t.Parallel()
		h := handler.NewAuthWebhookHandler(&mockMailer{sendFn: func(context.Context, string, string) error {
			return errors.New("535 auth failed")
		}})
		req, w := makeChiRequest(http.MethodPost, "/webhooks/auth", confirmed, nil, nil)
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
	})
}
