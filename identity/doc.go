// Package identity provides the in-memory implementation of the identity
// and attribute collaborator consumed by the access core. User and
// attribute administration is external to the core; this store exists to
// wire the server binary and the tests.
package identity
