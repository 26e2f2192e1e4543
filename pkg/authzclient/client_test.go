package authzclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/transport/http/middleware"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// grantsRepo backs the test server with a fixed user-to-permissions table.
type grantsRepo struct {
	grants map[int64][]string
}

func (r *grantsRepo) ListByUser(_ context.Context, userID int64) ([]domain.Permission, error) {
	names := r.grants[userID]
	perms := make([]domain.Permission, 0, len(names))
	for i, name := range names {
		perms = append(perms, domain.Permission{ID: int64(i + 1), Name: name, Category: domain.PermissionCategory(name)})
	}
	return perms, nil
}

func (r *grantsRepo) List(context.Context) ([]domain.Permission, error)            { return nil, nil }
func (r *grantsRepo) GetByID(context.Context, int64) (*domain.Permission, error)   { return nil, nil }
func (r *grantsRepo) GetByName(context.Context, string) (*domain.Permission, error) { return nil, nil }
func (r *grantsRepo) GetByIDs(context.Context, []int64) ([]domain.Permission, error) {
	return nil, nil
}
func (r *grantsRepo) ListCategories(context.Context) ([]string, error) { return nil, nil }
func (r *grantsRepo) ListByRole(context.Context, int64) ([]domain.Permission, error) {
	return nil, nil
}
func (r *grantsRepo) ListByRoles(context.Context, []int64) (map[int64][]domain.Permission, error) {
	return nil, nil
}
func (r *grantsRepo) UserHasPermission(context.Context, int64, string) (bool, error) {
	return false, nil
}

var _ port.PermissionRepository = (*grantsRepo)(nil)

// newTestServer exposes /api/v1/me/permissions and a guarded admin route.
// Authentication is simulated by an X-Test-User header; authorization runs
// through the real server-side guard.
func newTestServer(t *testing.T, grants map[int64][]string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	access := usecase.NewAccessService(&grantsRepo{grants: grants}, zap.NewNop())
	guard := middleware.NewPermissionGuard(access, zap.NewNop())

	identify := func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader("X-Test-User"), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}

	router := gin.New()
	router.GET("/api/v1/me/permissions", identify, func(c *gin.Context) {
		userID, _ := middleware.GetAuthenticatedUserID(c)
		set, err := access.ResolvePermissionSet(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "permissions": set.Names()})
	})
	router.DELETE("/api/v1/roles/1", identify, guard.RequireAll("roles.delete"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
	})

	return httptest.NewServer(router)
}

// refresh uses the X-Test-User header instead of a bearer token by swapping
// the transport, keeping the client code path identical.
type userHeaderTransport struct {
	userID int64
}

func (tr userHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Test-User", strconv.FormatInt(tr.userID, 10))
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, server *httptest.Server, userID int64, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, WithHTTPClient(&http.Client{Transport: userHeaderTransport{userID: userID}}))
	client, err := New(server.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestRefreshPopulatesMirror(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view", "roles.*"}})
	defer server.Close()

	client := newTestClient(t, server, 42)
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if !client.Can("users.view") {
		t.Error("expected users.view to be granted")
	}
	if !client.Can("roles.delete") {
		t.Error("expected roles.delete via category wildcard")
	}
	if client.Can("settings.edit") {
		t.Error("did not expect settings.edit")
	}
	if !client.CanAny("settings.edit", "users.view") {
		t.Error("expected CanAny to pass with one grant")
	}
	if client.CanAll("users.view", "settings.edit") {
		t.Error("expected CanAll to fail with a missing grant")
	}
}

func TestCannotInvertsCan(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})
	defer server.Close()

	client := newTestClient(t, server, 42)
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if client.Cannot("users.view") {
		t.Error("expected Cannot to be false for a granted permission")
	}
	if !client.Cannot("settings.edit") {
		t.Error("expected Cannot to be true for a missing permission")
	}
	if client.Cannot("") {
		t.Error("expected empty requirement to never be denied")
	}
}

func TestConcurrentChecksDuringRefresh(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})
	defer server.Close()

	client := newTestClient(t, server, 42)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				client.Can("users.view")
				client.CanAny("users.view", "roles.edit")
				client.Session()
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := client.Refresh(context.Background(), "token"); err != nil {
					t.Errorf("Refresh: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if !client.Can("users.view") {
		t.Error("expected grant to survive concurrent refreshes")
	}
}

func TestEmptyMirrorDeniesEverythingButEmptyRequirement(t *testing.T) {
	server := newTestServer(t, map[int64][]string{})
	defer server.Close()

	client := newTestClient(t, server, 42)
	if client.Can("users.view") {
		t.Error("expected denial without a loaded mirror")
	}
	if !client.Can("") {
		t.Error("expected empty requirement to pass")
	}
}

func TestUnavailableServerKeepsPreviousMirror(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})

	client := newTestClient(t, server, 42)
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	server.Close()

	err := client.Refresh(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !isUnavailable(err) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !client.Can("users.view") {
		t.Error("expected previous mirror to survive an outage")
	}
}

func isUnavailable(err error) bool {
	for err != nil {
		if err == ErrUnavailable {
			return true
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestUnauthorizedRefresh(t *testing.T) {
	server := newTestServer(t, map[int64][]string{})
	defer server.Close()

	client := newTestClient(t, server, 0)
	if err := client.Refresh(context.Background(), "token"); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionPersistsAcrossRestart(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	client := newTestClient(t, server, 42, WithStore(store))
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Simulate a restart: a fresh client over the same store.
	restarted := newTestClient(t, server, 42, WithStore(store))
	if !restarted.Can("users.view") {
		t.Error("expected persisted mirror to be loaded on start")
	}
	if restarted.Session() == nil || restarted.Session().UserID != 42 {
		t.Error("expected persisted session identity")
	}
}

func TestLogoutClearsStore(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	client := newTestClient(t, server, 42, WithStore(store))
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := client.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if client.Can("users.view") {
		t.Error("expected mirror to be dropped after logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected session file to be removed")
	}
}

func TestTamperedMirrorDoesNotBypassServer(t *testing.T) {
	server := newTestServer(t, map[int64][]string{42: {"users.view"}})
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	client := newTestClient(t, server, 42, WithStore(store))
	if err := client.Refresh(context.Background(), "token"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Edit the persisted session to claim a super-admin grant.
	forged, err := json.Marshal(Session{UserID: 42, Permissions: []string{"*"}})
	if err != nil {
		t.Fatalf("marshal forged session: %v", err)
	}
	if err := os.WriteFile(path, forged, 0o600); err != nil {
		t.Fatalf("write forged session: %v", err)
	}

	tampered := newTestClient(t, server, 42, WithStore(store))
	if !tampered.Can("roles.delete") {
		t.Fatal("expected forged mirror to grant locally; tampering changes UI only")
	}

	// The guarded endpoint still decides from its own data.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/roles/1", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Test-User", "42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 from server despite forged mirror, got %d", resp.StatusCode)
	}
}
