package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imagestore/internal/auth"
	"imagestore/internal/imaging"
	"imagestore/internal/models"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(testServer.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func createTestUser(t *testing.T) string {
	t.Helper()
	hashedPassword, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	username := "user-" + uuid.NewString()[:8]
	_, err = testServer.store.CreateUser(context.Background(), username, hashedPassword)
	require.NoError(t, err)
	return username
}

func tokenFor(t *testing.T, username string) string {
	t.Helper()
	token, err := testServer.tokens.Issue(username)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func uploadBody(content string) UploadImageRequest {
	return UploadImageRequest{
		Content:   base64.StdEncoding.EncodeToString([]byte(content)),
		Extension: "jpg",
	}
}

func TestAPI_EndToEnd(t *testing.T) {
	srv := newTestHTTPServer(t)
	username := createTestUser(t)

	resp := doRequest(t, srv, http.MethodPost, "/login", "", LoginRequest{Username: username, Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeJSON[TokenResponse](t, resp).Token
	require.NotEmpty(t, token)

	resp = doRequest(t, srv, http.MethodPost, "/img", token, uploadBody("ABC"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hash := decodeJSON[UploadImageResponse](t, resp).Hash
	require.Equal(t, imaging.Digest([]byte("ABC")), hash)

	resp = doRequest(t, srv, http.MethodGet, "/img/hashes", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, decodeJSON[HashesResponse](t, resp).Hashes, hash)

	resp = doRequest(t, srv, http.MethodGet, "/img/"+hash, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON[map[string]any](t, resp)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("ABC")), got["content"])
	require.Equal(t, "jpg", got["extension"])
	require.Equal(t, username, got["owner"])
	require.Nil(t, got["latitude"])

	resp = doRequest(t, srv, http.MethodDelete, "/img/"+hash, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decodeJSON[DeleteResponse](t, resp).Success)

	resp = doRequest(t, srv, http.MethodGet, "/img/"+hash, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodDelete, "/img/"+hash, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.False(t, decodeJSON[DeleteResponse](t, resp).Success)
}

func TestAPI_Login_InvalidCredentials(t *testing.T) {
	srv := newTestHTTPServer(t)
	username := createTestUser(t)

	wrongPassword := doRequest(t, srv, http.MethodPost, "/login", "", LoginRequest{Username: username, Password: "nope"})
	unknownUser := doRequest(t, srv, http.MethodPost, "/login", "", LoginRequest{Username: "ghost-" + uuid.NewString()[:8], Password: testPassword})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)

	a, err := io.ReadAll(wrongPassword.Body)
	require.NoError(t, err)
	b, err := io.ReadAll(unknownUser.Body)
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestAPI_Login_BadRequest(t *testing.T) {
	srv := newTestHTTPServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/login", "", "{not json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPost, "/login", "", LoginRequest{Username: "alice"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "password is required")
}

func TestAPI_Unauthorized(t *testing.T) {
	srv := newTestHTTPServer(t)
	username := createTestUser(t)

	past := func() time.Time { return time.Now().Add(-25 * time.Hour) }
	expired, err := auth.NewTokenIssuer("api_test_secret", auth.DefaultTokenTTL, auth.WithClock(past)).Issue(username)
	require.NoError(t, err)

	foreign, err := auth.NewTokenIssuer("another_secret", auth.DefaultTokenTTL).Issue(username)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token " + tokenFor(t, username),
		"garbage":        "Bearer garbage",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + foreign,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/img/hashes", nil)
			require.NoError(t, err)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAPI_Upload_Duplicate(t *testing.T) {
	srv := newTestHTTPServer(t)
	token := tokenFor(t, createTestUser(t))
	content := "dup-" + uuid.NewString()

	first := uploadBody(content)
	name := "original.jpg"
	first.ImageName = &name
	resp := doRequest(t, srv, http.MethodPost, "/img", token, first)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hash := decodeJSON[UploadImageResponse](t, resp).Hash

	resp = doRequest(t, srv, http.MethodPost, "/img", token, uploadBody(content))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decodeJSON[ConflictResponse](t, resp)
	require.Equal(t, hash, conflict.Hash)
	require.NotNil(t, conflict.Image)
	require.Equal(t, "original.jpg", *conflict.Image.ImageName)

	resp = doRequest(t, srv, http.MethodGet, "/img/hashes", token, nil)
	require.Equal(t, []string{hash}, decodeJSON[HashesResponse](t, resp).Hashes)
}

func TestAPI_Upload_InvalidInput(t *testing.T) {
	srv := newTestHTTPServer(t)
	token := tokenFor(t, createTestUser(t))

	resp := doRequest(t, srv, http.MethodPost, "/img", token, UploadImageRequest{Content: "QUJD"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPost, "/img", token, UploadImageRequest{Content: "%%%", Extension: "jpg"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPost, "/img", token, UploadImageRequest{Content: "QUJD", Extension: "../x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadImageHandler_BodyTooLarge(t *testing.T) {
	username := createTestUser(t)

	body, err := json.Marshal(uploadBody(strings.Repeat("A", 2<<20)))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/img", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(withOwner(req.Context(), username))
	http.HandlerFunc(testServer.UploadImageHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestAPI_OwnerIsolation(t *testing.T) {
	srv := newTestHTTPServer(t)
	alice := tokenFor(t, createTestUser(t))
	bob := tokenFor(t, createTestUser(t))

	resp := doRequest(t, srv, http.MethodPost, "/img", alice, uploadBody("private-"+uuid.NewString()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hash := decodeJSON[UploadImageResponse](t, resp).Hash

	resp = doRequest(t, srv, http.MethodGet, "/img/hashes", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decodeJSON[HashesResponse](t, resp).Hashes)

	resp = doRequest(t, srv, http.MethodGet, "/img/"+hash, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodDelete, "/img/"+hash, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/img/"+hash, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_SharedContentSurvivesOtherOwnersDelete(t *testing.T) {
	srv := newTestHTTPServer(t)
	alice := tokenFor(t, createTestUser(t))
	bob := tokenFor(t, createTestUser(t))
	content := "shared-" + uuid.NewString()

	resp := doRequest(t, srv, http.MethodPost, "/img", alice, uploadBody(content))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hash := decodeJSON[UploadImageResponse](t, resp).Hash

	resp = doRequest(t, srv, http.MethodPost, "/img", bob, uploadBody(content))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodDelete, "/img/"+hash, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/img/"+hash, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON[map[string]any](t, resp)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte(content)), got["content"])
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	srv := newTestHTTPServer(t)
	token := tokenFor(t, createTestUser(t))

	resp := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "OK", string(body))

	resp = doRequest(t, srv, http.MethodPost, "/img", token, uploadBody("metrics-"+uuid.NewString()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `imagestore_uploads_total{outcome="created"}`)
	require.Contains(t, string(body), `route="/img"`)
	require.NotContains(t, string(body), imaging.Digest([]byte("ABC")))
}

func TestAPI_WebsocketReceivesOwnEvents(t *testing.T) {
	srv := newTestHTTPServer(t)
	username := createTestUser(t)
	token := tokenFor(t, username)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return testServer.wsHub.ClientCount(username) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp := doRequest(t, srv, http.MethodPost, "/img", token, uploadBody("ws-"+uuid.NewString()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hash := decodeJSON[UploadImageResponse](t, resp).Hash

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.ImageEvent
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, models.EventImageUploaded, event.EventType)
	require.Equal(t, hash, event.Hash)
}

func TestAPI_WebsocketRequiresToken(t *testing.T) {
	srv := newTestHTTPServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/ws", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/ws?token=garbage", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_UniformRejection(t *testing.T) {
	var seen string
	protected := testServer.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFromContext(r.Context())
	}))

	var bodies []string
	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "Bearer a b", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/img/hashes", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		bodies = append(bodies, rr.Body.String())
	}
	for _, b := range bodies[1:] {
		require.Equal(t, bodies[0], b)
	}
	require.Empty(t, seen)

	username := createTestUser(t)
	req := httptest.NewRequest(http.MethodGet, "/img/hashes", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, username))
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, username, seen)
}
