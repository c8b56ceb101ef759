package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"quizgen/internal/common"
	"quizgen/internal/common/security"
	"quizgen/internal/domain/model"
	"quizgen/internal/platform/config"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// initTestJWT wires a throwaway signing config so token issuance works
// without a .env file.
func initTestJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTAccessKey:  []byte("test-access-secret"),
		JWTRefreshKey: []byte("test-refresh-secret"),
		JWTAccessExp:  time.Hour,
		JWTRefreshExp: 7 * 24 * time.Hour,
	}
	security.InitJWT()
}

// fakeUserRepo is an in-memory UserRepository. The raw map holds documents
// whose _id is a literal string rather than an ObjectID, which is what the
// raw-id resolution fallback exists for.
type fakeUserRepo struct {
	users map[string]*model.User
	raw   map[string]*model.User
	err   error // when set, every call fails with it
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*model.User),
		raw:   make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) seed(t *testing.T, u model.User) *model.User {
	t.Helper()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	f.users[u.ID.Hex()] = &u
	return &u
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return common.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	cp := *user
	f.users[user.ID.Hex()] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id.Hex()]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByRawID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.raw[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, id bson.ObjectID, status string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id.Hex()]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = status
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateStatusByEmail(_ context.Context, email, status string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			u.Status = status
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) Promote(_ context.Context, id bson.ObjectID, role, status, hashedPassword string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id.Hex()]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Role = role
	u.Status = status
	u.HashedPassword = hashedPassword
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ListPendingPrivileged(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.User
	for _, u := range f.users {
		if u.Status == model.StatusPending && u.IsPrivileged() {
			out = append(out, *u)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(users []model.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}

// fakeLoginLogRepo collects login attempt records in memory.
type fakeLoginLogRepo struct {
	entries []model.LoginLog
	err     error
}

func (f *fakeLoginLogRepo) Create(_ context.Context, entry *model.LoginLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

// fakeReportRepo is an in-memory ReportRepository enforcing the same
// PENDING-filtered resolve the mongo implementation uses.
type fakeReportRepo struct {
	reports map[string]*model.Report
	err     error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*model.Report)}
}

func (f *fakeReportRepo) seed(t *testing.T, r model.Report) *model.Report {
	t.Helper()
	if r.ID.IsZero() {
		r.ID = bson.NewObjectID()
	}
	if r.Status == "" {
		r.Status = model.ReportStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	f.reports[r.ID.Hex()] = &r
	return &r
}

func (f *fakeReportRepo) Create(_ context.Context, report *model.Report) error {
	if f.err != nil {
		return f.err
	}
	if report.ID.IsZero() {
		report.ID = bson.NewObjectID()
	}
	cp := *report
	f.reports[report.ID.Hex()] = &cp
	return nil
}

func (f *fakeReportRepo) FindByID(_ context.Context, id bson.ObjectID) (*model.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.reports[id.Hex()]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeReportRepo) ListAll(_ context.Context) ([]model.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Report
	for _, r := range f.reports {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeReportRepo) Resolve(_ context.Context, id bson.ObjectID, status string, resolvedBy bson.ObjectID, resolvedAt time.Time) (*model.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[id.Hex()]
	if !ok || r.Status != model.ReportStatusPending {
		return nil, common.ErrNotFound
	}
	r.Status = status
	r.ResolvedBy = &resolvedBy
	r.ResolvedAt = &resolvedAt
	cp := *r
	return &cp, nil
}
