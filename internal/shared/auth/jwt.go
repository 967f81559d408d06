package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Claims is the identity carried by an access token. Role is one of admin,
// recruiter or candidate; an empty role is treated as candidate.
type Claims struct {
	Sub       string `json:"sub"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
	Role      string `json:"role,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Nbf       int64  `json:"nbf,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired matches ErrInvalidToken with errors.Is.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)

	errMissingSecret = errors.New("JWT_SECRET required outside dev")
)

const (
	defaultTokenTTL = 24 * time.Hour
	clockSkew       = 30 * time.Second
)

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
}

var hs256Header = mustSegment(header{Alg: "HS256", Typ: "JWT"})

// SignJWT issues an HS256 token. Iat defaults to now and Exp to now plus
// JWT_TTL_HOURS (24h when unset).
func SignJWT(claims Claims) (string, error) {
	if strings.TrimSpace(claims.Sub) == "" {
		return "", fmt.Errorf("%w: sub is required", ErrInvalidToken)
	}
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if claims.Iat == 0 {
		claims.Iat = now.Unix()
	}
	if claims.Exp == 0 {
		claims.Exp = now.Add(tokenTTL()).Unix()
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	unsigned := hs256Header + "." + base64.RawURLEncoding.EncodeToString(payload)
	return unsigned + "." + signature(unsigned, secret), nil
}

// VerifyJWT checks the signature, algorithm and time window of token and
// returns its claims. Expired tokens fail with ErrTokenExpired.
func VerifyJWT(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}
	head, payload, sig, ok := splitToken(token)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var h header
	if err := decodeSegment(head, &h); err != nil || h.Alg != "HS256" {
		return Claims{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(signature(head+"."+payload, secret))) {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := decodeSegment(payload, &claims); err != nil || strings.TrimSpace(claims.Sub) == "" {
		return Claims{}, ErrInvalidToken
	}
	now := time.Now().UTC()
	if claims.Exp > 0 && now.After(time.Unix(claims.Exp, 0).Add(clockSkew)) {
		return Claims{}, ErrTokenExpired
	}
	if claims.Nbf > 0 && now.Add(clockSkew).Before(time.Unix(claims.Nbf, 0)) {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func splitToken(token string) (head, payload, sig string, ok bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func decodeSegment(seg string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func mustSegment(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func signature(input string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func tokenTTL() time.Duration {
	hours, err := strconv.Atoi(strings.TrimSpace(os.Getenv("JWT_TTL_HOURS")))
	if err != nil || hours <= 0 {
		return defaultTokenTTL
	}
	return time.Duration(hours) * time.Hour
}

// secretKey reads JWT_SECRET. Dev and test environments fall back to a fixed
// key; every other ENV must set one.
func secretKey() ([]byte, error) {
	if secret := strings.TrimSpace(os.Getenv("JWT_SECRET")); secret != "" {
		return []byte(secret), nil
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))) {
	case "", "dev", "local", "test":
		return []byte("dev-secret"), nil
	default:
		return nil, errMissingSecret
	}
}
