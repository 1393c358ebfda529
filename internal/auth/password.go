package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password. Costs outside bcrypt's accepted
// range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value. An empty hash
// never matches, so accounts without a password cannot log in.
func ComparePassword(hashed, plain string) error {
	if hashed == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
