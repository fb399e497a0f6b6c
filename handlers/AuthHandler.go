package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"NotesWebService/config"
	"NotesWebService/models"
	"NotesWebService/response"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const tokenTTL = 24 * time.Hour

var (
	errMissingToken = errors.New("missing authorization header")
	errRevokedToken = errors.New("token has been revoked")
)

// Identity is the signed-in user a request acts for.
type Identity struct {
	Username  string
	Role      string
	AccountId string
	TokenId   string
	ExpiresAt time.Time
}

func (id *Identity) isAdmin() bool {
	return id.Role == models.RoleAdmin
}

// Authenticator checks credentials against the configured accounts and issues
// and verifies JWT tokens. Revoked token ids are kept until the token expires.
type Authenticator struct {
	secret   []byte
	accounts []config.Account

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthenticator(secret string, accounts []config.Account) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		accounts: accounts,
		revoked:  make(map[string]time.Time),
	}
}

// Login returns the account matching username and password.
func (a *Authenticator) Login(username, password string) (config.Account, bool) {
	for _, account := range a.accounts {
		userOK := subtle.ConstantTimeCompare([]byte(account.Username), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(account.Password), []byte(password)) == 1
		if userOK && passOK {
			return account, true
		}
	}
	return config.Account{}, false
}

// CreateToken generates a JWT token for the account.
// The token is signed using the HS256 algorithm and includes an expiration time of 24 hours.
// It returns the generated token string in the format "Bearer <token>".
func (a *Authenticator) CreateToken(account config.Account) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"username":  account.Username,
			"Role":      account.Role,
			"AccountId": account.AccountId,
			"jti":       uuid.NewString(),
			"exp":       time.Now().Add(tokenTTL).Unix(),
		})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}
	return "Bearer " + tokenString, nil
}

// VerifyToken verifies the validity of a JWT token and extracts the identity from its claims.
// A "Bearer " prefix is accepted and stripped.
func (a *Authenticator) VerifyToken(tokenString string) (*Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	id := &Identity{}
	if id.Role, ok = claims["Role"].(string); !ok {
		return nil, fmt.Errorf("role not found in token claims")
	}
	if id.AccountId, ok = claims["AccountId"].(string); !ok || id.AccountId == "" {
		return nil, fmt.Errorf("account id not found in token claims")
	}
	id.Username, _ = claims["username"].(string)
	id.TokenId, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}

	if a.isRevoked(id.TokenId) {
		return nil, errRevokedToken
	}
	return id, nil
}

// Revoke rejects the identity's token in later requests.
func (a *Authenticator) Revoke(id *Identity) {
	if id.TokenId == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for jti, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, jti)
		}
	}
	a.revoked[id.TokenId] = id.ExpiresAt
}

func (a *Authenticator) isRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revoked[jti]
	return ok
}

// authorize checks the "Authorization" header for a valid token of a known role.
func (h *TaskHandler) authorize(req *http.Request) (*Identity, error) {
	tokenString := req.Header.Get("Authorization")
	if tokenString == "" {
		return nil, errMissingToken
	}
	id, err := h.auth.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if id.Role != models.RoleUser && id.Role != models.RoleAdmin {
		return nil, fmt.Errorf("unauthorized role %q", id.Role)
	}
	return id, nil
}

// LoginHandler handles the login request and generates a token for authorized users.
// It keeps track of the number of requests or errors using Prometheus counters.
//
// Example request body:
//
//	{
//	  "username": "linda",
//	  "password": "123456"
//	}
//
// Example response:
//
//	{
//	  "token": "Bearer eyJhbGciOiJIUzI1NiIs..."
//	}
//
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.User true "Credentials"
// @Success 200 {object} response.Token
// @Failure 401 {object} response.Message
// @Router /task/login [post]
func (h *TaskHandler) LoginHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/login", "logging in user"
	endPointCounter.WithLabelValues(endpoint).Inc()

	var u models.User
	if err := json.NewDecoder(req.Body).Decode(&u); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(u); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body inputs", err)
		return
	}
	account, ok := h.auth.Login(u.Username, u.Password)
	if !ok {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	tokenString, err := h.auth.CreateToken(account)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "error with creating token", err)
		return
	}

	h.entry(req, operation).WithField("username", account.Username).Info("user signed in")
	response.JSON(res, http.StatusOK, response.Token{Token: tokenString})
}

// LogoutHandler revokes the token of the request.
//
// @Summary Sign out
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /task/logout [post]
func (h *TaskHandler) LogoutHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/logout", "logging out user"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	h.auth.Revoke(id)

	h.entry(req, operation).WithField("username", id.Username).Info("user signed out")
	response.JSON(res, http.StatusOK, response.Response{Message: "Successfully logged out"})
}
