package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tyrowin/roomchat/internal/store"
)

var (
	// ErrNoToken is returned when a request carries no token.
	ErrNoToken = errors.New("no token")
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultCookieName is the cookie the CMS front end stores its token in.
const DefaultCookieName = "payload-token"

// Claims are the JWT claims issued for chat users.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserLookup loads users by ID.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*store.User, error)
}

// JWTConfig holds JWT resolver configuration.
type JWTConfig struct {
	SecretKey  string
	CookieName string
	Issuer     string
}

// JWTResolver resolves identities from HS256 tokens carried in the
// Authorization header or a cookie.
type JWTResolver struct {
	config JWTConfig
	users  UserLookup
}

// NewJWTResolver creates a resolver. users may be nil, in which case the
// name is taken from the token claims alone.
func NewJWTResolver(config JWTConfig, users UserLookup) *JWTResolver {
	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}
	return &JWTResolver{config: config, users: users}
}

// IssueToken signs a token for userID valid for ttl.
func (r *JWTResolver) IssueToken(userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(r.config.SecretKey))
}

// ValidateToken parses tokenString and returns its claims.
func (r *JWTResolver) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(r.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(ctx context.Context, header http.Header, cookies []*http.Cookie) Identity {
	tokenString, err := r.extractToken(header, cookies)
	if err != nil {
		return Anonymous()
	}

	claims, err := r.ValidateToken(tokenString)
	if err != nil {
		log.Printf("Rejected auth token: %v", err)
		return Anonymous()
	}

	id := Identity{UserID: claims.UserID, UserName: claims.Name}
	if r.users == nil {
		return id
	}

	user, err := r.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("User lookup for %s failed: %v", claims.UserID, err)
		}
		return Anonymous()
	}
	if user.Name != "" {
		id.UserName = user.Name
	}
	return id
}

func (r *JWTResolver) extractToken(header http.Header, cookies []*http.Cookie) (string, error) {
	if authHeader := header.Get("Authorization"); authHeader != "" {
		for _, scheme := range []string{"Bearer ", "JWT "} {
			if strings.HasPrefix(authHeader, scheme) {
				if token := strings.TrimSpace(strings.TrimPrefix(authHeader, scheme)); token != "" {
					return token, nil
				}
			}
		}
	}

	for _, cookie := range cookies {
		if cookie.Name == r.config.CookieName && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoToken
}
