package market_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/pkg/httpx"
)

const (
	testPassword   = "correct-horse"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

var signingKey = []byte("backend-secret")

// fakeBackend is an in-process marketplace API.
type fakeBackend struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  int
	inquiries []domain.Inquiry
	visits    []domain.Visit
	reject    bool // answer logins with success=false
}

var properties = []domain.Property{
	{ID: "p-1", Title: "Harbour view apartment", City: "Sydney", Price: decimal.RequireFromString("1250000"), Status: domain.PropertyAvailable},
	{ID: "p-2", Title: "Hills family home", City: "Perth", Price: decimal.RequireFromString("640000.50"), Status: domain.PropertyAvailable},
	{ID: "p-3", Title: "Riverside villa", City: "Perth", Price: decimal.RequireFromString("2100000"), Status: domain.PropertySold},
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", b.login("consumer", false))
	mux.HandleFunc("POST /agent/auth/login", b.login("agent", true))
	mux.HandleFunc("GET /auth/me", b.me("consumer"))
	mux.HandleFunc("GET /agent/me", b.me("agent"))

	mux.HandleFunc("GET /properties", func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("city")
		out := []domain.Property{}
		for _, p := range properties {
			if city == "" || strings.EqualFold(p.City, city) {
				out = append(out, p)
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"content": out, "totalElements": len(out)})
	})
	mux.HandleFunc("GET /properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range properties {
			if p.ID == r.PathValue("id") {
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": p})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Property not found"})
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"content": []domain.Project{{ID: "pr-1", Name: "Northbank", City: "Brisbane"}}},
		})
	})
	mux.HandleFunc("GET /projects/{id}/phases", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"data": []domain.Phase{
				{ID: "ph-1", ProjectID: r.PathValue("id"), Name: "Stage 1", Units: 40},
				{ID: "ph-2", ProjectID: r.PathValue("id"), Name: "Stage 2", Units: 25},
			},
		})
	})
	mux.HandleFunc("POST /inquiries", func(w http.ResponseWriter, r *http.Request) {
		var in domain.Inquiry
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Bad input"})
			return
		}
		b.mu.Lock()
		b.inquiries = append(b.inquiries, in)
		in.ID = "inq-" + string(rune('0'+len(b.inquiries)))
		b.mu.Unlock()
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{"data": in, "message": "Inquiry sent", "success": true})
	})
	mux.HandleFunc("POST /visits", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.subject(r, "consumer"); !ok {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var v domain.Visit
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Bad input"})
			return
		}
		v.ID = "v-1"
		v.Status = domain.VisitRequested
		b.mu.Lock()
		b.visits = append(b.visits, v)
		b.mu.Unlock()
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{"data": v, "success": true})
	})

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests++
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) rejectLogins() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = true
}

func (b *fakeBackend) inquiryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inquiries)
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

func (b *fakeBackend) login(role string, requireOTP bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Bad input"})
			return
		}
		if creds.Password != testPassword {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		if requireOTP && !totp.Validate(creds.OTP, testTOTPSecret) {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "otp required"})
			return
		}

		b.mu.Lock()
		reject := b.reject
		b.mu.Unlock()
		if reject {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": nil, "message": "Account locked", "success": false})
			return
		}

		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  creds.Email,
			"role": role,
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString(signingKey)

		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"token": token,
				"user":  domain.User{ID: role + "-1", Email: creds.Email, Name: "Ada", Role: role},
			},
			"message": "Login successful",
			"success": true,
		})
	}
}

func (b *fakeBackend) me(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := b.subject(r, role)
		if !ok {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"data": domain.User{ID: role + "-1", Email: sub, Name: "Ada Lovelace", Role: role},
		})
	}
}

// subject verifies the bearer token and returns its sub claim.
func (b *fakeBackend) subject(r *http.Request, role string) (string, bool) {
	raw := httpx.BearerToken(r)
	if raw == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || claims["role"] != role {
		return "", false
	}
	sub, _ := claims.GetSubject()
	return sub, true
}
