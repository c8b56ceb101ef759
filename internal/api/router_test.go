package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"quizgen/internal/app/service"
	"quizgen/internal/common"
	"quizgen/internal/common/security"
	"quizgen/internal/domain/model"
	"quizgen/internal/platform/config"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// memUserRepo is an in-memory UserRepository backing full-router tests.
// The raw map holds documents whose _id is a literal string.
type memUserRepo struct {
	users map[string]*model.User
	raw   map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User), raw: make(map[string]*model.User)}
}

func (m *memUserRepo) seed(t *testing.T, u model.User) *model.User {
	t.Helper()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID.Hex()] = &u
	return &u
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return common.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	cp := *user
	m.users[user.ID.Hex()] = &cp
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	if u, ok := m.users[id.Hex()]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) FindByRawID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.raw[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) UpdateStatus(_ context.Context, id bson.ObjectID, status string) (*model.User, error) {
	u, ok := m.users[id.Hex()]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = status
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) UpdateStatusByEmail(_ context.Context, email, status string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u.Status = status
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) Promote(_ context.Context, id bson.ObjectID, role, status, hashedPassword string) (*model.User, error) {
	u, ok := m.users[id.Hex()]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Role = role
	u.Status = status
	u.HashedPassword = hashedPassword
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) ListPendingPrivileged(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		if u.Status == model.StatusPending && u.IsPrivileged() {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// memReportRepo mirrors the PENDING-filtered atomic resolve of the mongo
// implementation.
type memReportRepo struct {
	reports map[string]*model.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*model.Report)}
}

func (m *memReportRepo) Create(_ context.Context, report *model.Report) error {
	if report.ID.IsZero() {
		report.ID = bson.NewObjectID()
	}
	cp := *report
	m.reports[report.ID.Hex()] = &cp
	return nil
}

func (m *memReportRepo) FindByID(_ context.Context, id bson.ObjectID) (*model.Report, error) {
	if r, ok := m.reports[id.Hex()]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (m *memReportRepo) ListAll(_ context.Context) ([]model.Report, error) {
	var out []model.Report
	for _, r := range m.reports {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memReportRepo) Resolve(_ context.Context, id bson.ObjectID, status string, resolvedBy bson.ObjectID, resolvedAt time.Time) (*model.Report, error) {
	r, ok := m.reports[id.Hex()]
	if !ok || r.Status != model.ReportStatusPending {
		return nil, common.ErrNotFound
	}
	r.Status = status
	r.ResolvedBy = &resolvedBy
	r.ResolvedAt = &resolvedAt
	cp := *r
	return &cp, nil
}

func newTestRouter(t *testing.T) (http.Handler, *memUserRepo, *memReportRepo) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTAccessKey:  []byte("router-access-secret"),
		JWTRefreshKey: []byte("router-refresh-secret"),
		JWTAccessExp:  time.Hour,
		JWTRefreshExp: 7 * 24 * time.Hour,
	}
	security.InitJWT()

	users := newMemUserRepo()
	reports := newMemReportRepo()
	authService := service.NewAuthService(users, nil, nil)
	adminService := service.NewAdminService(users)
	reportService := service.NewReportService(reports)
	return NewRouter(authService, adminService, reportService), users, reports
}

func seedActiveAdmin(t *testing.T, users *memUserRepo) *model.User {
	t.Helper()
	hashed, err := security.HashPassword("admin123")
	require.NoError(t, err)
	return users.seed(t, model.User{
		Username: "root", Email: "root@x.com", HashedPassword: hashed,
		Role: model.RoleAdmin, Status: model.StatusActive,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func loginToken(t *testing.T, router http.Handler, path, loginField, password string) service.AuthResponse {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, path, "", map[string]string{
		"username_or_email": loginField,
		"password":          password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp service.AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Access)
	return resp
}

func TestApprovalFlow(t *testing.T) {
	router, users, _ := newTestRouter(t)
	seedActiveAdmin(t, users)

	// Self-registration is immediately ACTIVE with the USER role.
	rec := doRequest(t, router, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "email": "alice@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var alice model.User
	decodeBody(t, rec, &alice)
	require.Equal(t, model.RoleUser, alice.Role)
	require.Equal(t, model.StatusActive, alice.Status)

	aliceAuth := loginToken(t, router, "/login", "alice", "secret1")

	// A plain user token is rejected by the moderator surface.
	rec = doRequest(t, router, http.MethodGet, "/admin/verify-token", aliceAuth.Access, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Moderator registration lands in PENDING.
	rec = doRequest(t, router, http.MethodPost, "/admin/register", "", map[string]string{
		"username": "bob", "email": "bob@x.com", "password": "secret1", "role": model.RoleMod,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bob model.User
	decodeBody(t, rec, &bob)
	require.Equal(t, model.StatusPending, bob.Status)

	// Pending accounts cannot use the admin login.
	rec = doRequest(t, router, http.MethodPost, "/admin/login", "", map[string]string{
		"username_or_email": "bob", "password": "secret1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var errResp common.ErrorResponse
	decodeBody(t, rec, &errResp)
	require.Contains(t, errResp.Error, "pending approval")

	adminAuth := loginToken(t, router, "/admin/login", "root", "admin123")

	// The pending listing shows bob.
	rec = doRequest(t, router, http.MethodGet, "/admin/pending", adminAuth.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []model.User
	decodeBody(t, rec, &pending)
	require.Len(t, pending, 1)
	require.Equal(t, "bob", pending[0].Username)

	// Approval flips bob to ACTIVE and unlocks the admin login.
	rec = doRequest(t, router, http.MethodPost, "/admin/approve", adminAuth.Access, map[string]string{
		"user_id": bob.ID.Hex(), "action": "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved model.User
	decodeBody(t, rec, &approved)
	require.Equal(t, model.StatusActive, approved.Status)

	bobAuth := loginToken(t, router, "/admin/login", "bob", "secret1")

	rec = doRequest(t, router, http.MethodGet, "/admin/verify-token", bobAuth.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The admin-only endpoints stay closed to a moderator.
	rec = doRequest(t, router, http.MethodGet, "/admin/users", bobAuth.Access, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTokenRejection(t *testing.T) {
	router, users, _ := newTestRouter(t)
	users.seed(t, model.User{Username: "alice", Email: "alice@x.com", Role: model.RoleUser, Status: model.StatusActive})

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/reports", "", map[string]string{"reason": "spam"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/reports", "garbage", map[string]string{"reason": "spam"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("well-formed token with no matching account", func(t *testing.T) {
		access, _, err := security.GenerateAccessToken(bson.NewObjectID().Hex(), "ghost", "USER")
		require.NoError(t, err)
		rec := doRequest(t, router, http.MethodPost, "/reports", access, map[string]string{"reason": "spam"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("legacy string id resolves through the raw fallback", func(t *testing.T) {
		legacy := model.User{ID: bson.NewObjectID(), Username: "legacy", Email: "l@x.com", Role: model.RoleUser, Status: model.StatusActive}
		users.raw["legacy-7"] = &legacy

		access, _, err := security.GenerateAccessToken("legacy-7", "legacy", "USER")
		require.NoError(t, err)
		rec := doRequest(t, router, http.MethodPost, "/reports", access, map[string]string{"reason": "spam"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

func TestReportLifecycle(t *testing.T) {
	router, users, _ := newTestRouter(t)
	seedActiveAdmin(t, users)
	adminAuth := loginToken(t, router, "/admin/login", "root", "admin123")

	hashed, err := security.HashPassword("secret1")
	require.NoError(t, err)
	users.seed(t, model.User{Username: "alice", Email: "alice@x.com", HashedPassword: hashed, Role: model.RoleUser, Status: model.StatusActive})
	aliceAuth := loginToken(t, router, "/login", "alice", "secret1")

	// Any authenticated account can file a report.
	rec := doRequest(t, router, http.MethodPost, "/reports", aliceAuth.Access, map[string]string{"reason": "spam"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var filed model.Report
	decodeBody(t, rec, &filed)
	require.Equal(t, model.ReportStatusPending, filed.Status)

	// Listing is admin-only.
	rec = doRequest(t, router, http.MethodGet, "/reports", aliceAuth.Access, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/reports", adminAuth.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Report
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)

	// Resolution stamps the resolver; repeating it is a conflict.
	rec = doRequest(t, router, http.MethodPost, "/reports/status", adminAuth.Access, map[string]string{
		"report_id": filed.ID.Hex(), "status": model.ReportStatusResolved,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resolved model.Report
	decodeBody(t, rec, &resolved)
	require.Equal(t, model.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)

	rec = doRequest(t, router, http.MethodPost, "/reports/status", adminAuth.Access, map[string]string{
		"report_id": filed.ID.Hex(), "status": model.ReportStatusRejected,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestBlockAndUnblock(t *testing.T) {
	router, users, _ := newTestRouter(t)
	seedActiveAdmin(t, users)
	adminAuth := loginToken(t, router, "/admin/login", "root", "admin123")

	hashed, err := security.HashPassword("secret1")
	require.NoError(t, err)
	users.seed(t, model.User{Username: "alice", Email: "alice@x.com", HashedPassword: hashed, Role: model.RoleUser, Status: model.StatusActive})
	aliceAuth := loginToken(t, router, "/login", "alice", "secret1")

	// Blocking cuts off both new logins and already issued tokens.
	rec := doRequest(t, router, http.MethodPost, "/admin/users/status", adminAuth.Access, map[string]string{
		"email": "alice@x.com", "status": model.StatusBlocked,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/login", "", map[string]string{
		"username_or_email": "alice", "password": "secret1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/reports", aliceAuth.Access, map[string]string{"reason": "spam"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Unblocking restores access.
	rec = doRequest(t, router, http.MethodPost, "/admin/users/status", adminAuth.Access, map[string]string{
		"email": "alice@x.com", "status": model.StatusActive,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginToken(t, router, "/login", "alice", "secret1")
}

func TestRefreshEndpoint(t *testing.T) {
	router, users, _ := newTestRouter(t)
	hashed, err := security.HashPassword("secret1")
	require.NoError(t, err)
	users.seed(t, model.User{Username: "alice", Email: "alice@x.com", HashedPassword: hashed, Role: model.RoleUser, Status: model.StatusActive})
	auth := loginToken(t, router, "/login", "alice", "secret1")
	require.NotEmpty(t, auth.Refresh)

	rec := doRequest(t, router, http.MethodPost, "/login/refresh", "", map[string]string{"refresh": auth.Refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp service.RefreshResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Access)

	// The new access token works on a protected route.
	rec = doRequest(t, router, http.MethodPost, "/reports", resp.Access, map[string]string{"reason": "spam"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/login/refresh", "", map[string]string{"refresh": "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
