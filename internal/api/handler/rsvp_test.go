package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hack4change/moncton/internal/api/handler"
	"github.com/hack4change/moncton/internal/rsvp"
)

type mockRSVPService struct {
	formURL         string
	updateRSVPFn    func(ctx context.Context, userID uuid.UUID, status string) error
	getFormStatusFn func(ctx context.Context, userID uuid.UUID) (*rsvp.FormStatus, error)
}

func (m *mockRSVPService) FormURL() string { return m.formURL }

func (m *mockRSVPService) UpdateRSVP(ctx context.Context, userID uuid.UUID, status string) error {
	if m.updateRSVPFn != nil {
		return m.updateRSVPFn(ctx, userID, status)
	}
	return nil
}

func (m *mockRSVPService) GetFormStatus(ctx context.Context, userID uuid.UUID) (*rsvp.FormStatus, error) {
	if m.getFormStatusFn != nil {
		return m.getFormStatusFn(ctx, userID)
	}
	return &rsvp.FormStatus{}, nil
}

func TestRSVPHandler_Update(t *testing.T) {
	t.Parallel()

	var gotUser uuid.UUID
	var gotStatus string
	svc := &mockRSVPService{updateRSVPFn: func(_ context.Context, userID uuid.UUID, status string) error {
		gotUser, gotStatus = userID, status
		return nil
	}}
	h := handler.NewRSVPHandler(svc)

	req, w := makeChiRequest(http.MethodPut, "/me/rsvp", []byte(`{"status":"declined"}`), participant(), nil)
	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, callerID, gotUser)
	assert.Equal(t, "declined", gotStatus)
	assert.Equal(t, "declined", dataObject(t, w)["status"])
}

func TestRSVPHandler_Update_FormRequired(t *testing.T) {
	t.Parallel()

	svc := &mockRSVPService{
		formURL: "https://tally.so/r/h4c",
		updateRSVPFn: func(context.Context, uuid.UUID, string) error {
			return rsvp.ErrFormRequired
		},
	}
	h := handler.NewRSVPHandler(svc)

	req, w := makeChiRequest(http.MethodPut, "/me/rsvp", []byte(`{"status":"confirmed"}`), participant(), nil)
	h.Update(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "FORM_REQUIRED", errObj["code"])
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "https://tally.so/r/h4c", details["formUrl"])
}

func TestRSVPHandler_Update_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "unknown status", body: `{"status":"maybe"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "missing status", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "invalid json", body: `nope`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_JSON"},
		{name: "store failure", body: `{"status":"pending"}`, svcErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockRSVPService{updateRSVPFn: func(context.Context, uuid.UUID, string) error { return tt.svcErr }}
			h := handler.NewRSVPHandler(svc)

			req, w := makeChiRequest(http.MethodPut, "/me/rsvp", []byte(tt.body), participant(), nil)
			h.Update(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestRSVPHandler_FormStatus(t *testing.T) {
	t.Parallel()

	completed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	svc := &mockRSVPService{getFormStatusFn: func(context.Context, uuid.UUID) (*rsvp.FormStatus, error) {
		return &rsvp.FormStatus{EventID: "hack4change-2026", Completed: true, CompletedAt: &completed, FormURL: "https://tally.so/r/h4c"}, nil
	}}
	h := handler.NewRSVPHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/me/form-status", nil, participant(), nil)
	h.FormStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataObject(t, w)
	assert.Equal(t, true, data["completed"])
	assert.Equal(t, "2026-03-01T09:30:00Z", data["completedAt"])
	assert.Equal(t, "hack4change-2026", data["eventId"])
}

func TestRSVPHandler_FormStatus_NotCompleted(t *testing.T) {
	t.Parallel()

	svc := &mockRSVPService{getFormStatusFn: func(context.Context, uuid.UUID) (*rsvp.FormStatus, error) {
		return &rsvp.FormStatus{EventID: "hack4change-2026"}, nil
	}}
	h := handler.NewRSVPHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/me/form-status", nil, participant(), nil)
	h.FormStatus(w, req)

	data := dataObject(t, w)
	assert.Equal(t, false, data["completed"])
	assert.Nil(t, data["completedAt"])
}
