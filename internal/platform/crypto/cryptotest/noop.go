package cryptotest

import "github.com/pscheid92/memeboard/internal/domain"

// PlainHasher stores passwords with a fixed prefix instead of hashing. Test use only.
type PlainHasher struct{}

const prefix = "plain:"

func (PlainHasher) Hash(password string) (string, error) { return prefix + password, nil }

func (PlainHasher) Compare(hash, password string) error {
	if hash != prefix+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}
