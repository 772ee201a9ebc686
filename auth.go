package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// LoginResult is the payload of the "login result" event. Clients parse it
// from a JSON string, so the shape is fixed.
type LoginResult struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`

	accountID int64
}

// Auth answers web login events. Accounts are created on first login; a
// nil DB approves everyone as a guest.
type Auth struct {
	db        *DB
	jwtSecret []byte

	// Login attempt limiting, keyed by client IP
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth handler. db may be nil.
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// WebLogin resolves a "web login" event: existing accounts verify their
// password, unknown usernames register on the spot, and without a DB every
// login is approved as a guest.
func (a *Auth) WebLogin(name, password, ip string) LoginResult {
	name = strings.TrimSpace(name)

	if len(name) < minUsernameLen || len(name) > maxUsernameLen {
		return LoginResult{Status: 0, Name: name, Message: "invalid username"}
	}
	if !a.checkRate(ip) {
		return LoginResult{Status: 0, Name: name, Message: "too many login attempts, try again later"}
	}

	if a.db == nil {
		return LoginResult{Status: 1, Name: name, Message: "Login successful"}
	}

	account, err := a.db.GetAccountByUsername(name)
	if err != nil {
		return LoginResult{Status: 0, Name: name, Message: "internal error"}
	}

	if account == nil {
		return a.register(name, password)
	}

	if password == "" ||
		bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)) != nil {
		return LoginResult{Status: 0, Name: name, Message: "invalid username or password"}
	}

	token, err := a.generateToken(account.ID, name)
	if err != nil {
		return LoginResult{Status: 0, Name: name, Message: "internal error"}
	}
	return LoginResult{
		Status:    1,
		Name:      name,
		Message:   "Login successful",
		Token:     token,
		accountID: account.ID,
	}
}

func (a *Auth) register(name, password string) LoginResult {
	if len(password) < minPasswordLen {
		return LoginResult{Status: 0, Name: name, Message: "password too short"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return LoginResult{Status: 0, Name: name, Message: "internal error"}
	}
	id, err := a.db.CreateAccount(name, string(hash))
	if err != nil {
		return LoginResult{Status: 0, Name: name, Message: "failed to create account"}
	}
	token, err := a.generateToken(id, name)
	if err != nil {
		return LoginResult{Status: 0, Name: name, Message: "internal error"}
	}
	log.Printf("registered account %q", name)
	return LoginResult{
		Status:    1,
		Name:      name,
		Message:   "Account created",
		Token:     token,
		accountID: id,
	}
}

// ValidateToken checks a previously issued token and returns the account
// id and username it names.
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	aid, ok := claims["aid"].(float64)
	if !ok {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	return int64(aid), username, nil
}

func (a *Auth) generateToken(accountID int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"aid": accountID,
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
