package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// Store is an in-memory identity and attribute store. Attribute
// administration happens out of band; the access core only ever reads from
// it through the interfaces.IdentityStore contract.
type Store struct {
	mu         sync.RWMutex
	principals map[interfaces.PrincipalID]record
}

type record struct {
	attributes interfaces.AttributeSet
	publicKey  interfaces.PublicKeyPEM
}

// NewStore creates an empty identity store.
func NewStore() *Store {
	return &Store{principals: make(map[interfaces.PrincipalID]record)}
}

// Register adds a principal with its attribute set and public key. The
// private half stays with the principal and is never seen by the server.
func (s *Store) Register(id interfaces.PrincipalID, attrs interfaces.AttributeSet, pub interfaces.PublicKeyPEM) error {
	if err := pub.Validate(); err != nil {
		return fmt.Errorf("invalid public key for %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.principals[id]; exists {
		return fmt.Errorf("principal %s already registered", id)
	}
	s.principals[id] = record{attributes: attrs.Clone(), publicKey: pub}
	return nil
}

// SetAttributes replaces a principal's attribute set.
func (s *Store) SetAttributes(id interfaces.PrincipalID, attrs interfaces.AttributeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.principals[id]
	if !ok {
		return interfaces.ErrPrincipalNotFound
	}
	rec.attributes = attrs.Clone()
	s.principals[id] = rec
	return nil
}

// GetAttributes returns a copy of the principal's attribute set.
func (s *Store) GetAttributes(ctx context.Context, id interfaces.PrincipalID) (interfaces.AttributeSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.principals[id]
	if !ok {
		return nil, interfaces.ErrPrincipalNotFound
	}
	return rec.attributes.Clone(), nil
}

// GetPublicKey returns the principal's registered public key.
func (s *Store) GetPublicKey(ctx context.Context, id interfaces.PrincipalID) (interfaces.PublicKeyPEM, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.principals[id]
	if !ok {
		return nil, interfaces.ErrPrincipalNotFound
	}
	return rec.publicKey, nil
}
