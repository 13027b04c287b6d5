package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for reset tokens
    "encoding/hex"  // hex encoding
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ResetTokenBytes is the amount of randomness in a password reset token.
// The raw token is its hex encoding (64 characters).
const ResetTokenBytes = 32

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// Claims identify the caller of a document route when the server runs in
// token mode.  The subject is the username.
type Claims struct {
    Email string `json:"email"`
    Role  string `json:"role"`
    jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token for the given account.
func NewAccessToken(secret, username, email, role string, ttlMin int, now time.Time) (AccessToken, error) {
    exp := now.UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := Claims{
        Email: email,
        Role:  role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   username,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now.UTC()),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry.  Expiry is
// judged against now.
func ParseAccessToken(secret, raw string, now time.Time) (*Claims, error) {
    claims := &Claims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithTimeFunc(func() time.Time { return now }),
    )
    if err != nil {
        return nil, err
    }
    if !tok.Valid {
        return nil, errors.New("invalid token")
    }
    return claims, nil
}

// NewResetToken returns a random password reset token.  Only HashToken of
// it is persisted; the raw value travels in the emailed link.
func NewResetToken() (string, error) {
    return randomHex(ResetTokenBytes)
}

// HashToken returns the SHA‑256 hex digest of a raw token so that a leaked
// table row cannot be replayed as a reset link.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
