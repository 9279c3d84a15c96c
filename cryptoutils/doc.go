// Package cryptoutils implements the hybrid-encryption envelope used to
// protect shared health records.
//
// Payload data is encrypted with a fresh AES-256-GCM key and IV per document
// (Encrypt/Decrypt), and the symmetric key is wrapped for a recipient with
// RSA-2048 OAEP using SHA-256 (WrapKey/UnwrapKey). The same OAEP hash is used
// on both sides of the wrap; a mismatch makes unwrap fail by construction.
//
// The package also provides RSA keypair generation for principals and the
// escrow broker, and a sealed keystore that encrypts the escrow private key
// at rest under an Argon2id passphrase-derived key.
//
// All failures wrap ErrCrypto and never include key material or plaintext in
// their messages.
package cryptoutils
