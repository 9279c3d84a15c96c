// Package audit implements the tamper-evident, hash-chained decision ledger.
//
// Every access decision, upload, and revocation is recorded as one
// AuditEntry whose hash covers the canonical JSON serialization of
// {action, file, prev_hash, status, timestamp, user} with keys in strict
// alphabetical order. Each entry embeds the hash of its predecessor; the
// first entry links to the empty genesis value. Editing, inserting, or
// deleting any persisted entry breaks recomputation from that index onward.
//
// The append path is the system's single serialization point: the ledger
// holds a mutex across "read tail hash, compute, append". Verification is
// read-only over a snapshot and never mutates the chain.
//
// Two ledgers are provided: a pure in-memory one (NewLedger) and a JSON-lines
// file-backed one (OpenFileLedger) that replays and verifies the persisted
// chain before continuing it.
package audit
