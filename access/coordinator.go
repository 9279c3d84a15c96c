package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sudo-Harshk/SeSPHR/audit"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
	"github.com/sudo-Harshk/SeSPHR/policy"
)

// DecisionObserver receives every audited decision for metrics collection.
type DecisionObserver interface {
	ObserveDecision(action interfaces.Action, status interfaces.AccessStatus)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(interfaces.Action, interfaces.AccessStatus) {}

// Coordinator is the trusted core that evaluates access policies, drives
// key rewrapping through the escrow broker, and records every decision in
// the audit ledger. It never sees plaintext documents or raw symmetric keys.
type Coordinator struct {
	identity interfaces.IdentityStore
	broker   interfaces.KeyBroker
	ledger   interfaces.AuditLedger
	registry interfaces.FileRegistry
	log      *slog.Logger
	observer DecisionObserver
	now      func() int64
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(identity interfaces.IdentityStore, broker interfaces.KeyBroker, ledger interfaces.AuditLedger, registry interfaces.FileRegistry, log *slog.Logger) *Coordinator {
	return &Coordinator{
		identity: identity,
		broker:   broker,
		ledger:   ledger,
		registry: registry,
		log:      log,
		observer: nopObserver{},
		now:      func() int64 { return time.Now().Unix() },
	}
}

// WithObserver attaches a decision observer for metrics collection.
func (c *Coordinator) WithObserver(obs DecisionObserver) *Coordinator {
	c.observer = obs
	return c
}

// BrokerPublicKey returns the escrow broker's public key. Clients wrap
// their document keys under it at upload time.
func (c *Coordinator) BrokerPublicKey() interfaces.PublicKeyPEM {
	return c.broker.PublicKey()
}

// Upload registers an uploaded document. The ciphertext blob has already
// been stored under handle; the symmetric key arrives wrapped under the
// broker's public key and is stored as-is. The policy string must parse.
// Every upload attempt is audited.
func (c *Coordinator) Upload(ctx context.Context, owner interfaces.PrincipalID, handle interfaces.BlobHandle, wrappedKey interfaces.WrappedKey, iv interfaces.IV, policyStr string) (interfaces.File, error) {
	if _, err := c.identity.GetAttributes(ctx, owner); err != nil {
		_ = c.audit(owner, "", interfaces.ActionUpload, interfaces.StatusInvalidRequest)
		return interfaces.File{}, fmt.Errorf("unknown owner %q: %w", owner, err)
	}

	canonical, err := policy.Canonicalize(policyStr)
	if err != nil {
		_ = c.audit(owner, "", interfaces.ActionUpload, interfaces.StatusInvalidRequest)
		return interfaces.File{}, fmt.Errorf("rejected policy: %w", err)
	}

	file := interfaces.File{
		ID:         interfaces.NewFileID(),
		Owner:      owner,
		Handle:     handle,
		WrappedKey: append(interfaces.WrappedKey(nil), wrappedKey...),
		IV:         append(interfaces.IV(nil), iv...),
		Policy:     canonical,
		CreatedAt:  c.now(),
	}

	if err := c.registry.Register(file); err != nil {
		return interfaces.File{}, fmt.Errorf("failed to register file: %w", err)
	}

	if err := c.audit(owner, file.ID, interfaces.ActionUpload, interfaces.StatusSuccess); err != nil {
		return interfaces.File{}, err
	}

	c.log.Info("File uploaded",
		slog.String("file_id", file.ID.String()),
		slog.String("owner", owner.String()),
		slog.String("policy", canonical))

	return file, nil
}

// RequestAccess evaluates one access request end to end: resolve the file
// and the requester, evaluate the stored policy against the requester's
// attributes, and on a grant rewrap the escrowed key for the requester.
// A rewrap failure downgrades the grant to a denial before anything is
// recorded. Exactly one audit entry is appended per request, whatever the
// outcome.
func (c *Coordinator) RequestAccess(ctx context.Context, requester interfaces.PrincipalID, fileID interfaces.FileID) (interfaces.AccessDecision, error) {
	decision := c.decide(ctx, requester, fileID)

	if err := c.audit(requester, fileID, interfaces.ActionAccess, decision.Status); err != nil {
		// A decision that cannot be recorded is not delivered.
		return interfaces.AccessDecision{Status: decision.Status, Reason: decision.Reason}, err
	}

	c.log.Info("Access decision",
		slog.String("file_id", fileID.String()),
		slog.String("requester", requester.String()),
		slog.String("status", decision.Status.String()),
		slog.String("reason", decision.Reason))

	return decision, nil
}

func (c *Coordinator) decide(ctx context.Context, requester interfaces.PrincipalID, fileID interfaces.FileID) interfaces.AccessDecision {
	file, err := c.registry.Get(fileID)
	if err != nil {
		return interfaces.AccessDecision{
			Status: interfaces.StatusInvalidRequest,
			Reason: "unknown file",
		}
	}

	attrs, err := c.identity.GetAttributes(ctx, requester)
	if err != nil {
		return interfaces.AccessDecision{
			Status: interfaces.StatusInvalidRequest,
			Reason: "unknown requester",
		}
	}

	pol, err := policy.Parse(file.Policy)
	if err != nil {
		// A stored policy that no longer parses must not grant anything.
		return interfaces.AccessDecision{
			Status: interfaces.StatusInvalidRequest,
			Reason: "stored policy unparseable",
		}
	}

	if pol.Revoked() {
		return interfaces.AccessDecision{
			Status: interfaces.StatusDeniedRevoked,
			Reason: "access revoked by owner",
		}
	}

	if status := pol.Evaluate(attrs); status != interfaces.StatusGranted {
		return interfaces.AccessDecision{
			Status: status,
			Reason: "attributes do not satisfy policy",
		}
	}

	recipientKey, err := c.identity.GetPublicKey(ctx, requester)
	if err != nil {
		return interfaces.AccessDecision{
			Status: interfaces.StatusInvalidRequest,
			Reason: "requester has no registered public key",
		}
	}

	rewrapped, err := c.broker.Rewrap(file.WrappedKey, recipientKey)
	if err != nil {
		// Fail closed: a grant whose key cannot be delivered is a denial.
		c.log.Error("Rewrap failed for granted request",
			slog.String("file_id", fileID.String()),
			slog.String("requester", requester.String()),
			"err", err)
		reason := "key rewrap failed"
		if errors.Is(err, interfaces.ErrBrokerLocked) {
			reason = "key broker is locked"
		}
		return interfaces.AccessDecision{
			Status: interfaces.StatusDeniedPolicy,
			Reason: reason,
		}
	}

	return interfaces.AccessDecision{
		Status:     interfaces.StatusGranted,
		WrappedKey: rewrapped,
		IV:         append(interfaces.IV(nil), file.IV...),
		Handle:     file.Handle,
	}
}

// Revoke replaces the file's policy with the revocation sentinel so that
// every subsequent access request terminates as DENIED_REVOKED. Only the
// file's owner may revoke. Every revocation attempt is audited.
func (c *Coordinator) Revoke(ctx context.Context, owner interfaces.PrincipalID, fileID interfaces.FileID) error {
	file, err := c.registry.Get(fileID)
	if err != nil {
		_ = c.audit(owner, fileID, interfaces.ActionRevoke, interfaces.StatusInvalidRequest)
		return fmt.Errorf("cannot revoke: %w", err)
	}

	if file.Owner != owner {
		_ = c.audit(owner, fileID, interfaces.ActionRevoke, interfaces.StatusInvalidRequest)
		return fmt.Errorf("cannot revoke %s: %w", fileID, interfaces.ErrNotOwner)
	}

	if err := c.registry.ReplacePolicy(fileID, policy.RevokedSentinel); err != nil {
		return fmt.Errorf("failed to replace policy: %w", err)
	}

	if err := c.audit(owner, fileID, interfaces.ActionRevoke, interfaces.StatusSuccess); err != nil {
		return err
	}

	c.log.Info("File access revoked",
		slog.String("file_id", fileID.String()),
		slog.String("owner", owner.String()))

	return nil
}

// ListFiles returns all registered file records ordered by creation time.
func (c *Coordinator) ListFiles() []interfaces.File {
	return c.registry.List()
}

// AuditEntries returns a snapshot of the audit ledger in chain order.
func (c *Coordinator) AuditEntries() []interfaces.AuditEntry {
	return c.ledger.Entries()
}

// VerifyLedger recomputes the hash chain over the current ledger snapshot.
// Returns nil when the chain is intact.
func (c *Coordinator) VerifyLedger() error {
	return audit.Verify(c.ledger.Entries())
}

func (c *Coordinator) audit(user interfaces.PrincipalID, file interfaces.FileID, action interfaces.Action, status interfaces.AccessStatus) error {
	if _, err := c.ledger.Append(user, file, action, status); err != nil {
		c.log.Error("Failed to record audit entry",
			slog.String("user", user.String()),
			slog.String("file", file.String()),
			slog.String("action", action.String()),
			slog.String("status", status.String()),
			"err", err)
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	c.observer.ObserveDecision(action, status)
	return nil
}
