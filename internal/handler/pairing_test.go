package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studysync/sync-server-go/internal/identity"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/repository"
	"github.com/studysync/sync-server-go/internal/service"
)

type stubPairingRepo struct {
	mock.Mock
}

func (m *stubPairingRepo) TryCreatePending(ctx context.Context, params model.CreatePairingRequestParams) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func (m *stubPairingRepo) FindByCode(ctx context.Context, code string) (*model.PairingRequest, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PairingRequest), args.Error(1)
}

func (m *stubPairingRepo) TransitionToPaired(ctx context.Context, code, userID, deviceToken string) (repository.TransitionResult, error) {
	args := m.Called(ctx, code, userID, deviceToken)
	return args.Get(0).(repository.TransitionResult), args.Error(1)
}

func (m *stubPairingRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type stubDeviceRepo struct {
	mock.Mock
}

func (m *stubDeviceRepo) Register(ctx context.Context, token, ownerUserID string) (*model.Device, error) {
	args := m.Called(ctx, token, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Device), args.Error(1)
}

func (m *stubDeviceRepo) FindByToken(ctx context.Context, token string) (*model.Device, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Device), args.Error(1)
}

func (m *stubDeviceRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Device, error) {
	args := m.Called(ctx, ownerUserID)
	return args.Get(0).([]model.Device), args.Error(1)
}

func (m *stubDeviceRepo) Revoke(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *stubDeviceRepo) TouchLastSeen(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type bearerVerifier struct {
	bearer string
	uid    string
}

func (v bearerVerifier) Verify(ctx context.Context, bearerToken string) (string, error) {
	if bearerToken == v.bearer {
		return v.uid, nil
	}
	return "", identity.ErrInvalidCredential
}

func newPairingTestServer(t *testing.T, pairings *stubPairingRepo, devices *stubDeviceRepo, devConfirm bool) *httptest.Server {
	t.Helper()
	svc := service.NewPairingService(
		pairings, devices,
		bearerVerifier{bearer: "good-bearer", uid: "user-1"},
		10*time.Minute,
	)
	ts := httptest.NewServer(NewPairingHandler(svc, devConfirm).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestPairingRequestEndpoint(t *testing.T) {
	pairings := new(stubPairingRepo)
	pairings.On("TryCreatePending", mock.Anything, mock.Anything).Return(true, nil).Once()
	ts := newPairingTestServer(t, pairings, new(stubDeviceRepo), false)

	resp, err := http.Post(ts.URL+"/request", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Len(t, body["pairCode"], 10)

	_, err = time.Parse(time.RFC3339, body["expiresAt"].(string))
	assert.NoError(t, err, "expiresAt should be RFC3339")
}

func TestPairingStatusEndpoint(t *testing.T) {
	t.Run("missing code is rejected", func(t *testing.T) {
		ts := newPairingTestServer(t, new(stubPairingRepo), new(stubDeviceRepo), false)

		resp, err := http.Get(ts.URL + "/status")
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "MISSING_REQUIRED", body["code"])
	})

	t.Run("pending code omits the device token entirely", func(t *testing.T) {
		pairings := new(stubPairingRepo)
		pairings.On("FindByCode", mock.Anything, "AB2D9F7KQZ").Return(&model.PairingRequest{
			Code:      "AB2D9F7KQZ",
			State:     model.PairStatePending,
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil)
		ts := newPairingTestServer(t, pairings, new(stubDeviceRepo), false)

		resp, err := http.Get(ts.URL + "/status?code=AB2D9F7KQZ")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "PENDING", body["status"])
		_, present := body["deviceToken"]
		assert.False(t, present, "pending status must not carry a deviceToken field")
	})

	t.Run("paired code returns the device token", func(t *testing.T) {
		token := "issued-device-token"
		uid := "user-1"
		pairings := new(stubPairingRepo)
		pairings.On("FindByCode", mock.Anything, "AB2D9F7KQZ").Return(&model.PairingRequest{
			Code:         "AB2D9F7KQZ",
			State:        model.PairStatePaired,
			ExpiresAt:    time.Now().Add(5 * time.Minute),
			PairedUserID: &uid,
			DeviceToken:  &token,
		}, nil)
		ts := newPairingTestServer(t, pairings, new(stubDeviceRepo), false)

		resp, err := http.Get(ts.URL + "/status?code=ab2d9f7kqz")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "PAIRED", body["status"])
		assert.Equal(t, token, body["deviceToken"])
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		pairings := new(stubPairingRepo)
		pairings.On("FindByCode", mock.Anything, "ZZZZZZZZZZ").Return(nil, nil)
		ts := newPairingTestServer(t, pairings, new(stubDeviceRepo), false)

		resp, err := http.Get(ts.URL + "/status?code=ZZZZZZZZZZ")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestPairingConfirmEndpoint(t *testing.T) {
	t.Run("missing bearer is 401", func(t *testing.T) {
		ts := newPairingTestServer(t, new(stubPairingRepo), new(stubDeviceRepo), false)

		resp, err := http.Post(ts.URL+"/confirm", "application/json",
			strings.NewReader(`{"pairCode":"AB2D9F7KQZ"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "UNAUTHORIZED", body["code"])
	})

	t.Run("valid bearer pairs the code", func(t *testing.T) {
		pairings := new(stubPairingRepo)
		pairings.On("FindByCode", mock.Anything, "AB2D9F7KQZ").Return(&model.PairingRequest{
			Code:      "AB2D9F7KQZ",
			State:     model.PairStatePending,
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil)
		pairings.On("TransitionToPaired", mock.Anything, "AB2D9F7KQZ", "user-1", mock.Anything).
			Return(repository.TransitionOK, nil)

		devices := new(stubDeviceRepo)
		devices.On("Register", mock.Anything, mock.Anything, "user-1").
			Return(&model.Device{OwnerUserID: "user-1"}, nil)

		ts := newPairingTestServer(t, pairings, devices, false)

		req, err := http.NewRequest(http.MethodPost, ts.URL+"/confirm",
			strings.NewReader(`{"pairCode":"AB2D9F7KQZ"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer good-bearer")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["ok"])
		assert.Len(t, body["deviceToken"], 43)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		ts := newPairingTestServer(t, new(stubPairingRepo), new(stubDeviceRepo), false)

		resp, err := http.Post(ts.URL+"/confirm", "application/json",
			strings.NewReader(`{not json`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestConfirmDevEndpoint(t *testing.T) {
	t.Run("not mounted by default", func(t *testing.T) {
		ts := newPairingTestServer(t, new(stubPairingRepo), new(stubDeviceRepo), false)

		resp, err := http.Post(ts.URL+"/confirm-dev", "application/json",
			strings.NewReader(`{"pairCode":"AB2D9F7KQZ","uid":"user-9"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("pairs without a bearer when enabled", func(t *testing.T) {
		pairings := new(stubPairingRepo)
		pairings.On("FindByCode", mock.Anything, "AB2D9F7KQZ").Return(&model.PairingRequest{
			Code:      "AB2D9F7KQZ",
			State:     model.PairStatePending,
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil)
		pairings.On("TransitionToPaired", mock.Anything, "AB2D9F7KQZ", "user-9", mock.Anything).
			Return(repository.TransitionOK, nil)

		devices := new(stubDeviceRepo)
		devices.On("Register", mock.Anything, mock.Anything, "user-9").
			Return(&model.Device{OwnerUserID: "user-9"}, nil)

		ts := newPairingTestServer(t, pairings, devices, true)

		resp, err := http.Post(ts.URL+"/confirm-dev", "application/json",
			strings.NewReader(`{"pairCode":"AB2D9F7KQZ","uid":"user-9"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["ok"])
		assert.NotEmpty(t, body["deviceToken"])
	})

	t.Run("requires a uid", func(t *testing.T) {
		ts := newPairingTestServer(t, new(stubPairingRepo), new(stubDeviceRepo), true)

		resp, err := http.Post(ts.URL+"/confirm-dev", "application/json",
			strings.NewReader(`{"pairCode":"AB2D9F7KQZ"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "MISSING_REQUIRED", body["code"])
	})
}
