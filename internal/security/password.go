package security

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash from a plaintext password.
// The work factor is bcrypt's default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// A mismatch is not an error; callers only ever need the boolean.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
