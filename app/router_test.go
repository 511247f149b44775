package app

import (
	"bitwise74/user-api/db"
	"bitwise74/user-api/internal"
	"bitwise74/user-api/internal/model"
	"bitwise74/user-api/internal/service"
	"bitwise74/user-api/internal/stash"
	"bitwise74/user-api/internal/store"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexHTML = "<html>frontend</html>"

type countingNotifier struct {
	mu sync.Mutex
	to []string
}

func (n *countingNotifier) SendConfirmation(to, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.to = append(n.to, to)
}

func newTestServer(t *testing.T, maxUpload int64) (*gin.Engine, *countingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	p := filepath.Join(dir, "test.db")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	conn, err := db.New(db.Options{Driver: "sqlite", DSN: p, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	l, err := stash.NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	publicDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(publicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "app.js"), []byte("console.log(1)"), 0o644))

	n := &countingNotifier{}
	d := &internal.Deps{
		DB:    conn,
		Stash: l,
		Users: service.NewUserService(store.NewUsers(conn), l, n),
	}

	return NewRouter(d, Options{MaxUploadSize: maxUpload, PublicDir: publicDir}), n
}

type formFile struct {
	name    string
	content string
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	if file != nil {
		fw, err := w.CreateFormFile("profile_pic", file.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(file.content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &b, w.FormDataContentType()
}

func do(r *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) model.User {
	t.Helper()

	var u model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u), w.Body.String())
	return u
}

func createUser(t *testing.T, r *gin.Engine, fields map[string]string, file *formFile) model.User {
	t.Helper()

	body, ct := multipartBody(t, fields, file)
	w := do(r, http.MethodPost, "/api/users", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decodeUser(t, w)
}

func TestUserLifecycle(t *testing.T) {
	r, n := newTestServer(t, 1<<20)

	body, ct := multipartBody(t, map[string]string{"name": "Ann", "email": "ann@x.com"}, nil)
	w := do(r, http.MethodPost, "/api/users", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "profile_pic")
	assert.Nil(t, raw["profile_pic"])
	assert.Nil(t, raw["phone"])

	created := decodeUser(t, w)
	assert.Equal(t, []string{"ann@x.com"}, n.to)

	w = do(r, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeUser(t, w))

	w = do(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted"}`, w.Body.String())

	w = do(r, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_MissingFields(t *testing.T) {
	r, n := newTestServer(t, 1<<20)

	body, ct := multipartBody(t, map[string]string{"name": "Ann"}, nil)
	w := do(r, http.MethodPost, "/api/users", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name and email are required")
	assert.Empty(t, n.to)

	w = do(r, http.MethodPost, "/api/users", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_URLEncodedAndJSON(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	form := url.Values{"name": {"Ann"}, "email": {"ann@x.com"}, "phone": {"555"}}
	w := do(r, http.MethodPost, "/api/users", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	u := decodeUser(t, w)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "555", *u.Phone)

	w = do(r, http.MethodPost, "/api/users", strings.NewReader(`{"name":"Bob","email":"bob@x.com"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Bob", decodeUser(t, w).Name)

	w = do(r, http.MethodPost, "/api/users", strings.NewReader(`{"name":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	createUser(t, r, map[string]string{"name": "Ann", "email": "ann@x.com"}, nil)

	body, ct := multipartBody(t, map[string]string{"name": "Ann", "email": "ann@x.com"}, nil)
	w := do(r, http.MethodPost, "/api/users", body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")

	w = do(r, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var users []model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestList_NewestFirst(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	w := do(r, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, n := range []string{"A", "B", "C"} {
		createUser(t, r, map[string]string{"name": n, "email": n + "@x.com"}, nil)
	}

	w = do(r, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var users []model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 3)
	assert.Equal(t, "C", users[0].Name)
	assert.Equal(t, "B", users[1].Name)
	assert.Equal(t, "A", users[2].Name)
}

func TestProfilePicture(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	u := createUser(t, r, map[string]string{"name": "Ann", "email": "ann@x.com"}, &formFile{"me.png", "old picture"})
	require.NotNil(t, u.ProfilePic)
	old := *u.ProfilePic
	assert.True(t, strings.HasPrefix(old, "/uploads/profile_pic-"), old)

	w := do(r, http.MethodGet, old, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "old picture", w.Body.String())

	body, ct := multipartBody(t, nil, &formFile{"me.png", "new picture"})
	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d", u.ID), body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decodeUser(t, w)
	require.NotNil(t, updated.ProfilePic)
	assert.NotEqual(t, old, *updated.ProfilePic)
	assert.Equal(t, "Ann", updated.Name)

	w = do(r, http.MethodGet, old, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, *updated.ProfilePic, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new picture", w.Body.String())

	w = do(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", u.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, *updated.ProfilePic, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdate(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	a := createUser(t, r, map[string]string{"name": "Ann", "email": "ann@x.com", "phone": "1"}, nil)
	createUser(t, r, map[string]string{"name": "Bob", "email": "bob@x.com"}, nil)

	w := do(r, http.MethodPut, fmt.Sprintf("/api/users/%d", a.ID), strings.NewReader(`{"phone":"2"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u := decodeUser(t, w)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "2", *u.Phone)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d", a.ID), strings.NewReader(`{"email":"bob@x.com"}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPut, "/api/users/999", strings.NewReader(`{"name":"x"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBadID(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	for _, m := range []string{http.MethodGet, http.MethodDelete} {
		w := do(r, m, "/api/users/abc", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, m)
	}
}

func TestCreate_BodyTooLarge(t *testing.T) {
	r, _ := newTestServer(t, 1024)

	body, ct := multipartBody(t, map[string]string{"name": "Ann", "email": "ann@x.com"}, &formFile{"big.png", strings.Repeat("x", 4096)})
	w := do(r, http.MethodPost, "/api/users", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestFrontendFallback(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	w := do(r, http.MethodGet, "/dashboard/users/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, indexHTML, w.Body.String())

	w = do(r, http.MethodGet, "/app.js", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = do(r, http.MethodGet, "/uploads/missing.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeat(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	w := do(r, http.MethodHead, "/api/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWrongMethod(t *testing.T) {
	r, _ := newTestServer(t, 1<<20)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/heartbeat"},
		{http.MethodPatch, "/api/users/1"},
	} {
		w := do(r, tc.method, tc.target, nil, "")
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, tc.target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
		assert.Equal(t, "Method not allowed", body["error"])
		assert.NotEmpty(t, body["requestID"])
	}
}

func TestCorsConfig(t *testing.T) {
	cfg := corsConfig([]string{"*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.Empty(t, cfg.AllowOrigins)

	cfg = corsConfig([]string{"http://localhost:5173"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowOrigins)
	assert.True(t, cfg.AllowCredentials)
}
