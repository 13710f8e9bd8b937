package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iosworks/claimdesk/internal/attachment"
	attdomain "github.com/iosworks/claimdesk/internal/attendance/domain"
	attservice "github.com/iosworks/claimdesk/internal/attendance/service"
	auditdomain "github.com/iosworks/claimdesk/internal/audit/domain"
	auditservice "github.com/iosworks/claimdesk/internal/audit/service"
	authdomain "github.com/iosworks/claimdesk/internal/auth/domain"
	authservice "github.com/iosworks/claimdesk/internal/auth/service"
	"github.com/iosworks/claimdesk/internal/authorization"
	"github.com/iosworks/claimdesk/internal/blobstore"
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/iosworks/claimdesk/internal/events"
	"github.com/iosworks/claimdesk/internal/geocode"
	recdomain "github.com/iosworks/claimdesk/internal/records/domain"
	recservice "github.com/iosworks/claimdesk/internal/records/service"
	"github.com/iosworks/claimdesk/internal/tenant"
)

type testEnv struct {
	server  *Server
	engine  *gin.Engine
	authsvc authdomain.Service
	hub     *events.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:    "test",
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		AuthTenant:     "main",
		MaxUploadBytes: 16 << 20,
	}
	holder := config.NewStaticStorageHolder(config.StorageConfig{
		Driver:      "sqlite",
		DSNTemplate: fmt.Sprintf("file:%s_{tenant}?mode=memory&cache=shared", t.Name()),
	})

	log := zap.NewNop()
	models := append(recdomain.Models(),
		&attdomain.Attendance{}, &blobstore.Blob{}, &auditdomain.Entry{}, &authdomain.User{})
	registry := tenant.NewRegistry(holder, log, models)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	hub := events.NewHub()

	authsvc := authservice.New(authservice.Params{Cfg: cfg, Log: log, GenID: node, Registry: registry})
	authz, err := authorization.New(authorization.Params{Log: log})
	require.NoError(t, err)

	auditRec := auditservice.NewRecorder(registry, node, log)
	auditRec.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = auditRec.Stop(ctx)
	})

	attendances := attservice.New(registry, hub, node, log)
	attachments := attachment.NewManager(registry, blobstore.NewStore(node), attendances, log)

	geo := geocode.Disabled{}
	engine := NewEngine(log, NewHTTPMetrics())
	srv := NewServer(ServerParams{
		Gin:                engine,
		Cfg:                cfg,
		Log:                log,
		Authsvc:            authsvc,
		AuthzSvc:           authz,
		AuditRec:           auditRec,
		Hub:                hub,
		Brokers:            recservice.New[recdomain.Broker](registry, geo, hub, node, log),
		InsuranceCompanies: recservice.New[recdomain.InsuranceCompany](registry, geo, hub, node, log),
		Insureds:           recservice.New[recdomain.Insured](registry, geo, hub, node, log),
		Regulators:         recservice.New[recdomain.Regulator](registry, geo, hub, node, log),
		RiskManagers:       recservice.New[recdomain.RiskManager](registry, geo, hub, node, log),
		ShippingCompanies:  recservice.New[recdomain.ShippingCompany](registry, geo, hub, node, log),
		Attendances:        attendances,
		Attachments:        attachments,
	})

	return &testEnv{server: srv, engine: engine, authsvc: authsvc, hub: hub}
}

func (e *testEnv) token(t *testing.T, email, role string, tenants []string) string {
	t.Helper()
	_, err := e.authsvc.SignUp(context.Background(), authdomain.SignUpRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Test User",
		Role:     role,
		Tenants:  tenants,
	})
	require.NoError(t, err)

	result, err := e.authsvc.SignIn(context.Background(), authdomain.SignInRequest{
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return result.Token
}

func (e *testEnv) do(t *testing.T, method, path, token, tenantHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenantHeader != "" {
		req.Header.Set(HeaderTenant, tenantHeader)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignUpSignInMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/users/signup", "", "", gin.H{
		"email": "ana@example.com", "password": "secret123", "name": "Ana", "role": "Manager", "tenants": []string{"t1"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/signin", "", "", gin.H{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "t1", body["defaultTenant"])

	w = env.do(t, http.MethodGet, "/api/users/me", token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	user := me["user"].(map[string]any)
	assert.Equal(t, "ana@example.com", user["email"])
}

func TestSignUpDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{"email": "dup@example.com", "password": "secret123"}
	w := env.do(t, http.MethodPost, "/api/users/signup", "", "", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/signup", "", "", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w)["error"], "exists")
}

func TestSignInWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.token(t, "ana@example.com", "User", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/users/signin", "", "", gin.H{
		"email": "ana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/brokers", "", "t1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/brokers", "not-a-token", "t1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantHeaderRequired(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodGet, "/api/brokers", token, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], HeaderTenant)
}

func TestForbiddenTenantsEnumerated(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodGet, "/api/brokers", token, "t1, t2 ,t3", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	msg := decode(t, w)["error"].(string)
	assert.Contains(t, msg, "t2")
	assert.Contains(t, msg, "t3")
	assert.NotContains(t, msg, "t1,")
}

func TestAdminBypassesAllowList(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "root@example.com", "Admin", nil)

	w := env.do(t, http.MethodGet, "/api/brokers", token, "anything", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMultiTenantWriteRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1", "t2"})

	w := env.do(t, http.MethodPost, "/api/brokers", token, "t1,t2", gin.H{"email": "b@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "exactly one tenant")
}

func TestWriteRequiresElevatedRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "viewer@example.com", "User", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/brokers", token, "t1", gin.H{"email": "b@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Reads stay open to every authenticated role.
	w = env.do(t, http.MethodGet, "/api/brokers", token, "t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateThenFetchIsTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1", "t2"})

	w := env.do(t, http.MethodPost, "/api/brokers", token, "t1", gin.H{"email": "a@b.com", "city": "X"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	id := created["id"]
	require.NotNil(t, id)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/brokers/%v", id), token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", decode(t, w)["email"])

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/brokers/%v", id), token, "t2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendancePaginationScenario(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	for i := 0; i < 25; i++ {
		w := env.do(t, http.MethodPost, "/api/attendances", token, "t1", gin.H{
			"policy_number": fmt.Sprintf("AP-%02d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/attendances?page=2&limit=10", token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 25, body["total"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 3, body["pages"])
	assert.Len(t, body["attendances"], 10)
}

func TestCrossTenantListTagsRecords(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1", "t2"})

	w := env.do(t, http.MethodPost, "/api/regulators", token, "t1", gin.H{"name": "Reg One"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/regulators", token, "t2", gin.H{"name": "Reg Two"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/regulators", token, "t1,t2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	items := body["regulators"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	assert.Equal(t, "t1", first["tenant"])
	assert.Equal(t, "Reg One", first["name"])
	assert.Equal(t, "t2", second["tenant"])

	perTenant := body["perTenant"].([]any)
	require.Len(t, perTenant, 2)
	assert.Equal(t, []any{"t1", "t2"}, body["tenants"])
}

func TestListFilterParam(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	for _, name := range []string{"Vistoria Norte", "Perícia Sul"} {
		w := env.do(t, http.MethodPost, "/api/regulators", token, "t1", gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/regulators?filter=norte", token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
}

func TestDuplicateBrokerEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/brokers", token, "t1", gin.H{"email": "dup@b.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/brokers", token, "t1", gin.H{"email": "dup@b.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodGet, "/api/brokers/not-an-id", token, "t1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/attendances", token, "t1", gin.H{"insured_name": "X"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"]

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/attendances/%v/followups", id), token, "t1", gin.H{
		"actions": "contacted insured", "user": "ana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode(t, w)["followups"], 1)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/attendances/%v/followups/0", id), token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["followups"], 0)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/attendances/%v/followups/7", id), token, "t1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (e *testEnv) uploadFile(t *testing.T, method, path, token, tenantID, category, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if category != "" {
		require.NoError(t, mw.WriteField("category", category))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(HeaderTenant, tenantID)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestAttachmentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/attendances", token, "t1", gin.H{"insured_name": "X"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"]

	w = env.uploadFile(t, http.MethodPost, fmt.Sprintf("/api/attendances/%v/files", id), token, "t1", "invoice", "nota.pdf", []byte("pdf-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	files := decode(t, w)["files"].([]any)
	require.Len(t, files, 1)
	key := files[0].(map[string]any)["filename"].(string)

	// download round-trip
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/attendances/%v/files/%s", id, key), token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "nota.pdf")

	// replace by key keeps one entry
	w = env.uploadFile(t, http.MethodPut, fmt.Sprintf("/api/attendances/%v/files/%s", id, key), token, "t1", "invoice", "nota-v2.pdf", []byte("v2"))
	require.Equal(t, http.StatusOK, w.Code)
	files = decode(t, w)["files"].([]any)
	require.Len(t, files, 1)
	newKey := files[0].(map[string]any)["filename"].(string)
	assert.NotEqual(t, key, newKey)

	// old key no longer downloadable
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/attendances/%v/files/%s", id, key), token, "t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// delete removes metadata and blob
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/attendances/%v/files/%s", id, newKey), token, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["files"], 0)

	// deleting an unknown key stays a no-op success
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/attendances/%v/files/%s", id, newKey), token, "t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ana@example.com", "Manager", []string{"t1"})

	w := env.do(t, http.MethodPost, "/api/brokers", token, "t1", gin.H{
		"email": "a@b.com", "password": "super-secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	deadline := time.Now().Add(2 * time.Second)
	for {
		w = env.do(t, http.MethodGet, "/api/audit-logs", token, "t1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		if total, ok := body["total"].(float64); ok && total >= 1 {
			entries := body["auditLogs"].([]any)
			entry := entries[0].(map[string]any)
			assert.Equal(t, "ana@example.com", entry["user"])
			assert.Equal(t, "POST", entry["action"])
			assert.Equal(t, "/api/brokers", entry["route"])
			raw, err := json.Marshal(entry["newValue"])
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "super-secret")
			assert.Contains(t, string(raw), auditdomain.Marker)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("audit entry never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAuditLogsRequireElevatedRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "viewer@example.com", "User", []string{"t1"})

	w := env.do(t, http.MethodGet, "/api/audit-logs", token, "t1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
