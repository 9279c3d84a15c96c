package identity

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// PrincipalRecord is one entry of a principals file.
type PrincipalRecord struct {
	ID         string                  `json:"id"`
	Attributes interfaces.AttributeSet `json:"attributes"`
	PublicKey  string                  `json:"public_key"`
}

// PrincipalsFile is the on-disk format for bootstrapping the identity store.
type PrincipalsFile struct {
	Principals []PrincipalRecord `json:"principals"`
}

// LoadFromFile builds a store from a JSON principals file. Every record must
// carry a valid PEM public key; duplicate ids are rejected.
func LoadFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read principals file: %w", err)
	}

	var pf PrincipalsFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse principals file: %w", err)
	}

	store := NewStore()
	for _, rec := range pf.Principals {
		id, err := interfaces.NewPrincipalID(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("principals file: %w", err)
		}

		pub, err := cryptoutils.NewPublicKeyPEM([]byte(rec.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("principal %q: %w", rec.ID, err)
		}

		if err := store.Register(id, rec.Attributes, pub); err != nil {
			return nil, fmt.Errorf("principal %q: %w", rec.ID, err)
		}
	}

	return store, nil
}
