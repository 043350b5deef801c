// ABOUTME: Signed session cookie management for the web UI
// ABOUTME: Uses HS256 JWTs carrying the username, issued on login and cleared on logout

package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "seatwatch_session"

// Session errors
var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

// sessionManager issues and verifies the signed session cookie. The cookie
// value is an HS256 JWT so the server keeps no session state; expiry is
// enforced by the token itself.
type sessionManager struct {
	secret   []byte
	duration time.Duration
}

func newSessionManager(secret []byte, duration time.Duration) *sessionManager {
	return &sessionManager{secret: secret, duration: duration}
}

// issue creates a signed session token for the given username.
// The jti claim uniquely identifies the session for logging.
func (m *sessionManager) issue(username string) (token string, sessionID string, err error) {
	now := time.Now()
	sessionID = uuid.NewString()

	claims := jwt.MapClaims{
		"sub": username,
		"jti": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(m.duration).Unix(),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing session token: %w", err)
	}
	return token, sessionID, nil
}

// verify validates the token and extracts the username from the "sub" claim.
func (m *sessionManager) verify(tokenString string) (username string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSession
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !token.Valid {
		return "", ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidSession
	}

	return sub, nil
}

// setCookie attaches a fresh session cookie for the user to the response.
func (m *sessionManager) setCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.duration),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie expires the session cookie.
func (m *sessionManager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// usernameFromRequest extracts the authenticated username from the request's
// session cookie. A missing, malformed, or expired cookie means anonymous.
func (m *sessionManager) usernameFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return m.verify(cookie.Value)
}
