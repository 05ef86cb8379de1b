package api_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MilynDsilva/consultrooms/internal/api"
	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDeliverer captures presence events handed to the bridge
type recordingDeliverer struct {
	mu     sync.Mutex
	titles []string
	events []models.PresenceEvent
}

func (d *recordingDeliverer) Deliver(title string, event models.PresenceEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.titles = append(d.titles, title)
	d.events = append(d.events, event)
}

func (d *recordingDeliverer) delivered() ([]string, []models.PresenceEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.titles...), append([]models.PresenceEvent(nil), d.events...)
}

func signPayload(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("v0:%s:%s", timestamp, string(body))))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func sendWebhook(t *testing.T, handler http.Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook/presence", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDeliversJoin(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "")

	body := []byte(`{"event":"meeting.attendee_joined","payload":{"title":"ROOM1","attendee_id":"att-1","external_user_id":"ab12cd34#Alice"}}`)
	rec := sendWebhook(t, handler, body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	titles, events := sink.delivered()
	require.Len(t, events, 1)
	assert.Equal(t, []string{"ROOM1"}, titles)
	assert.Equal(t, models.PresenceEvent{
		AttendeeID:     "att-1",
		ExternalUserID: "ab12cd34#Alice",
		Present:        true,
	}, events[0])
}

func TestWebhookDeliversLeave(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "")

	body := []byte(`{"event":"meeting.attendee_left","payload":{"title":"ROOM1","attendee_id":"att-1"}}`)
	rec := sendWebhook(t, handler, body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, events := sink.delivered()
	require.Len(t, events, 1)
	assert.False(t, events[0].Present)
}

func TestWebhookValidSignature(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "topsecret")

	body := []byte(`{"event":"meeting.attendee_joined","payload":{"title":"ROOM1","attendee_id":"att-1"}}`)
	timestamp := "1756500000"

	rec := sendWebhook(t, handler, body, map[string]string{
		"x-cr-signature":         signPayload("topsecret", timestamp, body),
		"x-cr-request-timestamp": timestamp,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, events := sink.delivered()
	assert.Len(t, events, 1)
}

func TestWebhookInvalidSignature(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "topsecret")

	body := []byte(`{"event":"meeting.attendee_joined","payload":{"title":"ROOM1","attendee_id":"att-1"}}`)

	cases := map[string]map[string]string{
		"wrong secret": {
			"x-cr-signature":         signPayload("othersecret", "1756500000", body),
			"x-cr-request-timestamp": "1756500000",
		},
		"missing signature": {
			"x-cr-request-timestamp": "1756500000",
		},
		"missing timestamp": {
			"x-cr-signature": signPayload("topsecret", "1756500000", body),
		},
		"malformed version": {
			"x-cr-signature":         "v9=deadbeef",
			"x-cr-request-timestamp": "1756500000",
		},
	}

	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			rec := sendWebhook(t, handler, body, headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	_, events := sink.delivered()
	assert.Empty(t, events)
}

func TestWebhookUnsupportedEventAcknowledged(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "")

	body := []byte(`{"event":"meeting.ended","payload":{"title":"ROOM1","attendee_id":"att-1"}}`)
	rec := sendWebhook(t, handler, body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, events := sink.delivered()
	assert.Empty(t, events)
}

func TestWebhookMissingFields(t *testing.T) {
	sink := &recordingDeliverer{}
	handler := api.NewWebhookHandler(sink, "")

	rec := sendWebhook(t, handler, []byte(`{"event":"meeting.attendee_joined","payload":{"title":"ROOM1"}}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = sendWebhook(t, handler, []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
