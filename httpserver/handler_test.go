package httpserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/access"
	"github.com/sudo-Harshk/SeSPHR/api"
	"github.com/sudo-Harshk/SeSPHR/audit"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/identity"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
	"github.com/sudo-Harshk/SeSPHR/kms"
	"github.com/sudo-Harshk/SeSPHR/registry"
	"github.com/sudo-Harshk/SeSPHR/storage"
)

type testEnv struct {
	ts       *httptest.Server
	client   *api.Client
	identity *identity.Store
	keys     map[string]cryptoutils.PrivateKeyPEM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	broker, err := kms.GenerateSimpleBroker()
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	idStore := identity.NewStore()
	coordinator := access.NewCoordinator(idStore, broker, audit.NewLedger(), registry.NewFileRegistry(), log)
	handler := NewHandler(coordinator, storage.NewMemoryStore(), log)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      log,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}, handler)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)

	return &testEnv{
		ts:       ts,
		client:   api.NewClient(ts.URL),
		identity: idStore,
		keys:     make(map[string]cryptoutils.PrivateKeyPEM),
	}
}

func (e *testEnv) registerPrincipal(t *testing.T, id string, attrs interfaces.AttributeSet) {
	t.Helper()

	priv, pub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)
	require.NoError(t, e.identity.Register(interfaces.PrincipalID(id), attrs, pub))
	e.keys[id] = priv
}

// upload performs the full client-side encrypt and wrap before posting.
func (e *testEnv) upload(t *testing.T, owner string, plaintext []byte, policyStr string) *api.UploadResponse {
	t.Helper()

	pubResp, err := e.client.BrokerPubkey()
	require.NoError(t, err)

	ciphertext, iv, key, err := cryptoutils.Encrypt(plaintext)
	require.NoError(t, err)

	wrapped, err := cryptoutils.WrapKey(key, cryptoutils.PublicKeyPEM(pubResp.PublicKey))
	require.NoError(t, err)

	resp, err := e.client.Upload(&api.UploadRequest{
		OwnerID:    owner,
		Policy:     policyStr,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		WrappedKey: base64.StdEncoding.EncodeToString(wrapped),
	})
	require.NoError(t, err)
	return resp
}

func TestUploadAccessDecryptOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})
	env.registerPrincipal(t, "doctor1", interfaces.AttributeSet{"Role": "Doctor", "Dept": "ICU"})

	plaintext := []byte("MRI report: unremarkable")
	uploaded := env.upload(t, "alice", plaintext, "Role:Doctor AND Dept:ICU")
	require.NotEmpty(t, uploaded.FileID)

	decision, err := env.client.RequestAccess(uploaded.FileID, &api.AccessRequest{RequesterID: "doctor1"})
	require.NoError(t, err)
	require.Equal(t, "GRANTED", decision.Status)

	wrapped, err := base64.StdEncoding.DecodeString(decision.WrappedKey)
	require.NoError(t, err)
	iv, err := base64.StdEncoding.DecodeString(decision.IV)
	require.NoError(t, err)
	ciphertext, err := base64.StdEncoding.DecodeString(decision.Ciphertext)
	require.NoError(t, err)

	key, err := cryptoutils.UnwrapKey(wrapped, env.keys["doctor1"])
	require.NoError(t, err)

	got, err := cryptoutils.Decrypt(ciphertext, key, iv)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAccessDeniedReturns403(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})
	env.registerPrincipal(t, "nurse1", interfaces.AttributeSet{"Role": "Nurse"})

	uploaded := env.upload(t, "alice", []byte("restricted"), "Role:Doctor")

	body, _ := json.Marshal(api.AccessRequest{RequesterID: "nurse1"})
	resp, err := http.Post(env.ts.URL+"/api/files/"+uploaded.FileID+"/access", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var decision api.AccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	assert.Equal(t, "DENIED_POLICY", decision.Status)
	assert.Empty(t, decision.WrappedKey)
	assert.Empty(t, decision.Ciphertext)
}

func TestAccessUnknownFileReturns404(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "doctor1", interfaces.AttributeSet{"Role": "Doctor"})

	body, _ := json.Marshal(api.AccessRequest{RequesterID: "doctor1"})
	resp, err := http.Post(env.ts.URL+"/api/files/"+interfaces.NewFileID().String()+"/access", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var decision api.AccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	assert.Equal(t, "INVALID_REQUEST", decision.Status)
}

func TestUploadMalformedPolicyReturns400(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})

	reqBody, _ := json.Marshal(api.UploadRequest{
		OwnerID:    "alice",
		Policy:     "Role:Doctor AND",
		Ciphertext: base64.StdEncoding.EncodeToString([]byte("ct")),
		IV:         base64.StdEncoding.EncodeToString(make([]byte, 12)),
		WrappedKey: base64.StdEncoding.EncodeToString([]byte("wk")),
	})
	resp, err := http.Post(env.ts.URL+"/api/files", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nothing was registered.
	files, err := env.client.ListFiles()
	require.NoError(t, err)
	assert.Empty(t, files.Files)
}

func TestRevokeFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})
	env.registerPrincipal(t, "doctor1", interfaces.AttributeSet{"Role": "Doctor"})
	env.registerPrincipal(t, "mallory", interfaces.AttributeSet{"Role": "Doctor"})

	uploaded := env.upload(t, "alice", []byte("doc"), "Role:Doctor")

	// Non-owner revoke is forbidden.
	body, _ := json.Marshal(api.RevokeRequest{OwnerID: "mallory"})
	resp, err := http.Post(env.ts.URL+"/api/files/"+uploaded.FileID+"/revoke", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner revoke succeeds.
	revoked, err := env.client.Revoke(uploaded.FileID, &api.RevokeRequest{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", revoked.Status)

	decision, err := env.client.RequestAccess(uploaded.FileID, &api.AccessRequest{RequesterID: "doctor1"})
	require.NoError(t, err)
	assert.Equal(t, "DENIED_REVOKED", decision.Status)
}

func TestListFilesHidesKeyMaterial(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})

	env.upload(t, "alice", []byte("doc one"), "Role:Doctor")
	env.upload(t, "alice", []byte("doc two"), "Role:Nurse")

	files, err := env.client.ListFiles()
	require.NoError(t, err)
	require.Len(t, files.Files, 2)
	assert.Equal(t, "alice", files.Files[0].OwnerID)
	assert.NotEmpty(t, files.Files[0].Handle)
}

func TestAuditEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.registerPrincipal(t, "alice", interfaces.AttributeSet{"Role": "Owner"})
	env.registerPrincipal(t, "doctor1", interfaces.AttributeSet{"Role": "Doctor"})

	uploaded := env.upload(t, "alice", []byte("doc"), "Role:Doctor")
	_, err := env.client.RequestAccess(uploaded.FileID, &api.AccessRequest{RequesterID: "doctor1"})
	require.NoError(t, err)

	auditResp, err := env.client.Audit()
	require.NoError(t, err)
	require.Len(t, auditResp.Entries, 2)
	assert.Equal(t, "UPLOAD", auditResp.Entries[0].Action)
	assert.Equal(t, "ACCESS", auditResp.Entries[1].Action)
	assert.Equal(t, auditResp.Entries[0].Hash, auditResp.Entries[1].PrevHash)

	verify, err := env.client.VerifyAudit()
	require.NoError(t, err)
	assert.True(t, verify.Valid)
	assert.Equal(t, 2, verify.Entries)
}

func TestHealthAndDrainEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		path       string
		wantStatus int
	}{
		{"/livez", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/drain", http.StatusOK},
	} {
		resp, err := http.Get(env.ts.URL + tc.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.wantStatus, resp.StatusCode, tc.path)
	}

	// Drained server reports not ready until undrained.
	resp, err := http.Get(env.ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(env.ts.URL + "/undrain")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
