package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	users "auction-house/internal/userService"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testClock lets tests move auctions past their deadline
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testApp is the full HTTP stack over an in-memory store
type testApp struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	clock  *testClock
}

// SetupTestApp initializes the router with in-memory repository for integration testing.
func SetupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}

	tokens, err := auth.NewTokenIssuer("integration-secret", time.Hour)
	require.NoError(t, err)

	router := server.SetupRouter(server.Services{
		Auctions: auction.NewAuctionService(repo, auction.WithClock(clock.Now)),
		Users:    users.NewUserService(repo, tokens),
		Tokens:   tokens,
	})
	return &testApp{router: router, repo: repo, clock: clock}
}

// SeedItem adds an open item directly to the store
func (a *testApp) SeedItem(id, price string, endsIn time.Duration) {
	a.repo.AddItem(models.Item{
		ItemID:        id,
		Name:          "Item " + id,
		Description:   "seeded",
		StartingPrice: mustDecimal(price),
		CurrentPrice:  mustDecimal(price),
		EndTime:       a.clock.Now().Add(endsIn),
		Status:        models.StatusOpen,
		CreatedAt:     a.clock.Now(),
	})
}

// Login registers a user with role and returns a bearer token for it
func (a *testApp) Login(t *testing.T, username string, role models.Role) string {
	t.Helper()

	_, w := a.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp, w := a.Do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["token"].(string)
}

// Do executes an HTTP request on the router and parses the envelope
func (a *testApp) Do(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	a.router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

func dataOf(resp map[string]any) map[string]any {
	return resp["data"].(map[string]any)
}
