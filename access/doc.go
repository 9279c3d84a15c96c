// Package access implements the trusted coordinator at the centre of the
// system. The coordinator owns the decision pipeline for every request:
// resolve the file record and the requesting principal, evaluate the file's
// attribute policy, rewrap the escrowed document key for an approved
// requester, and append exactly one hash-chained audit entry per decision.
//
// The coordinator handles only wrapped key material. Plaintext documents and
// raw symmetric keys exist solely on clients and, transiently, inside the
// key broker's rewrap operation. Any crypto failure on a granted request
// fails closed to a denial before the decision is recorded.
package access
