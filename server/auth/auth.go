package auth

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sindi/umshado/server/auth/key"
	"golang.org/x/crypto/bcrypt"
)

const (
	GuestPasswordLength   = 8
	guestPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))

type UmshadoTokenClaims struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	IsAdmin bool   `json:"is_admin"`
	jwt.StandardClaims
}

// GeneratePassword returns a short guest credential drawn from uppercase
// letters & digits. Collisions between guests are possible & unguarded -
// login always pairs the password with the guest's phone number.
func GeneratePassword() string {
	password := make([]byte, GuestPasswordLength)
	for i := range password {
		password[i] = guestPasswordAlphabet[seededRand.Intn(len(guestPasswordAlphabet))]
	}

	return string(password)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func EncodeJWT(claims UmshadoTokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*UmshadoTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UmshadoTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*UmshadoTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to UmshadoTokenClaims")
	}

	return tokenClaims, nil
}
