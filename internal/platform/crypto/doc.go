// Package crypto hashes and verifies account passwords.
package crypto
