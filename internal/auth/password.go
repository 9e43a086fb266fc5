package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost the rest of the stored credentials were hashed
// with; changing it only affects newly created hashes.
const bcryptCost = 10

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches the stored hash. Any
// failure, including a malformed hash, reads as a mismatch.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
