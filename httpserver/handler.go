package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sudo-Harshk/SeSPHR/access"
	"github.com/sudo-Harshk/SeSPHR/api"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
	"github.com/sudo-Harshk/SeSPHR/policy"
)

// maxBodySize is the maximum allowed request body size (16MB). Uploaded
// ciphertext travels base64-encoded inside the JSON body.
const maxBodySize = 16 * 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Handler processes HTTP requests for the coordinator service. It owns the
// blob store for ciphertext persistence and delegates every decision to the
// access coordinator.
type Handler struct {
	coordinator *access.Coordinator
	blobs       interfaces.BlobStore
	log         *slog.Logger
}

// NewHandler creates a new HTTP request handler.
//
// Parameters:
//   - coordinator: the trusted decision core
//   - blobs: blob store backend for ciphertext documents
//   - log: structured logger for operational insights
func NewHandler(coordinator *access.Coordinator, blobs interfaces.BlobStore, log *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		blobs:       blobs,
		log:         log,
	}
}

// HandleUpload registers a client-side encrypted document.
//
// URL format: POST /api/files
//
// The policy is validated before anything is persisted, so a malformed
// policy leaves no blob behind. The ciphertext is then stored
// content-addressed and the file registered with the coordinator.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	owner, err := interfaces.NewPrincipalID(req.OwnerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := policy.Canonicalize(req.Policy); err != nil {
		h.log.Info("Upload rejected: malformed policy", "err", err, "owner", req.OwnerID)
		http.Error(w, fmt.Sprintf("invalid policy: %v", err), http.StatusBadRequest)
		return
	}

	ciphertext, iv, wrappedKey, reqErr := decodeUploadPayload(&req)
	if reqErr != nil {
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}

	handle, err := h.blobs.Put(r.Context(), ciphertext)
	if err != nil {
		h.log.Error("Failed to store ciphertext blob", "err", err)
		http.Error(w, "failed to store ciphertext", http.StatusInternalServerError)
		return
	}

	file, err := h.coordinator.Upload(r.Context(), owner, handle, wrappedKey, iv, req.Policy)
	if err != nil {
		h.log.Error("Upload failed", "err", err, "owner", req.OwnerID)
		if errors.Is(err, interfaces.ErrPrincipalNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, &api.UploadResponse{
		FileID: file.ID.String(),
		Handle: file.Handle.String(),
		Policy: file.Policy,
	})
}

// HandleAccess processes one access request and returns the audited
// decision.
//
// URL format: POST /api/files/{file_id}/access
//
// Status mapping: GRANTED is 200 with rewrapped key, IV, and ciphertext;
// DENIED_POLICY and DENIED_REVOKED are 403; INVALID_REQUEST is 404. The
// decision body is returned in every case.
func (h *Handler) HandleAccess(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.pathFileID(w, r)
	if !ok {
		return
	}

	var req api.AccessRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	requester, err := interfaces.NewPrincipalID(req.RequesterID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := h.coordinator.RequestAccess(r.Context(), requester, fileID)
	if err != nil {
		h.log.Error("Access request failed", "err", err, "file_id", fileID.String())
		http.Error(w, "failed to process access request", http.StatusInternalServerError)
		return
	}

	resp := &api.AccessResponse{
		Status: decision.Status.String(),
		Reason: decision.Reason,
	}

	switch decision.Status {
	case interfaces.StatusGranted:
		ciphertext, err := h.blobs.Get(r.Context(), decision.Handle)
		if err != nil {
			h.log.Error("Failed to fetch granted ciphertext", "err", err,
				"file_id", fileID.String(), "handle", decision.Handle.String())
			http.Error(w, "failed to fetch ciphertext", http.StatusInternalServerError)
			return
		}
		resp.WrappedKey = base64.StdEncoding.EncodeToString(decision.WrappedKey)
		resp.IV = base64.StdEncoding.EncodeToString(decision.IV)
		resp.Handle = decision.Handle.String()
		resp.Ciphertext = base64.StdEncoding.EncodeToString(ciphertext)
		h.writeJSON(w, http.StatusOK, resp)
	case interfaces.StatusInvalidRequest:
		h.writeJSON(w, http.StatusNotFound, resp)
	default:
		h.writeJSON(w, http.StatusForbidden, resp)
	}
}

// HandleRevoke revokes all future access to a file.
//
// URL format: POST /api/files/{file_id}/revoke
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.pathFileID(w, r)
	if !ok {
		return
	}

	var req api.RevokeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	owner, err := interfaces.NewPrincipalID(req.OwnerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.coordinator.Revoke(r.Context(), owner, fileID); err != nil {
		h.log.Info("Revoke rejected", "err", err, "file_id", fileID.String(), "owner", req.OwnerID)
		switch {
		case errors.Is(err, interfaces.ErrNotOwner):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, interfaces.ErrFileNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, &api.RevokeResponse{
		FileID: fileID.String(),
		Status: interfaces.StatusSuccess.String(),
	})
}

// HandleListFiles returns all registered files ordered by creation time.
// Wrapped keys are not exposed in listings.
//
// URL format: GET /api/files
func (h *Handler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	files := h.coordinator.ListFiles()

	resp := &api.ListFilesResponse{Files: make([]api.FileRecord, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, api.FileRecord{
			FileID:    f.ID.String(),
			OwnerID:   f.Owner.String(),
			Handle:    f.Handle.String(),
			Policy:    f.Policy,
			CreatedAt: f.CreatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleAudit returns the full audit ledger in chain order.
//
// URL format: GET /api/audit
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	entries := h.coordinator.AuditEntries()

	resp := &api.AuditResponse{Entries: make([]api.AuditEntryRecord, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, api.AuditEntryRecord(e))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleAuditVerify recomputes the hash chain over the current ledger.
//
// URL format: GET /api/audit/verify
func (h *Handler) HandleAuditVerify(w http.ResponseWriter, r *http.Request) {
	resp := &api.AuditVerifyResponse{
		Valid:   true,
		Entries: len(h.coordinator.AuditEntries()),
	}

	if err := h.coordinator.VerifyLedger(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleBrokerPubkey returns the escrow broker's public key for client-side
// key wrapping.
//
// URL format: GET /api/broker/pubkey
func (h *Handler) HandleBrokerPubkey(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, &api.BrokerPubkeyResponse{
		PublicKey: string(h.coordinator.BrokerPublicKey()),
	})
}

// decodeUploadPayload decodes the base64 binary fields of an upload request.
func decodeUploadPayload(req *api.UploadRequest) (ciphertext, iv, wrappedKey []byte, reqErr *RequestError) {
	ciphertext, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil || len(ciphertext) == 0 {
		return nil, nil, nil, &RequestError{http.StatusBadRequest, errors.New("invalid ciphertext encoding")}
	}

	iv, err = base64.StdEncoding.DecodeString(req.IV)
	if err != nil || len(iv) != cryptoutils.IVSize {
		return nil, nil, nil, &RequestError{http.StatusBadRequest, errors.New("invalid iv")}
	}

	wrappedKey, err = base64.StdEncoding.DecodeString(req.WrappedKey)
	if err != nil || len(wrappedKey) == 0 {
		return nil, nil, nil, &RequestError{http.StatusBadRequest, errors.New("invalid wrapped key encoding")}
	}

	return ciphertext, iv, wrappedKey, nil
}

func (h *Handler) pathFileID(w http.ResponseWriter, r *http.Request) (interfaces.FileID, bool) {
	fileID, err := interfaces.ParseFileID(r.PathValue("file_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return fileID, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
