package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

type mockDirectory struct {
	users       map[int64]*entity.User
	findByIDErr error
	findRoleErr error
}

func newMockDirectory(users ...*entity.User) *mockDirectory {
	d := &mockDirectory{users: make(map[int64]*entity.User)}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

func (m *mockDirectory) FindByID(ctx context.Context, userID int64) (*entity.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.users[userID], nil
}

func (m *mockDirectory) FindByRole(ctx context.Context, bucket workflow.RoleBucket) ([]*entity.User, error) {
	if m.findRoleErr != nil {
		return nil, m.findRoleErr
	}
	var out []*entity.User
	for id := int64(1); id <= 1000; id++ {
		if u, ok := m.users[id]; ok && u.Bucket() == bucket {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	mu         sync.Mutex
	created    []*entity.Notification
	createFunc func(ctx context.Context, n *entity.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.created {
		if n.RecipientUserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, userID int64) (bool, error) {
	for _, n := range m.created {
		if n.ID == id && n.RecipientUserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) recipients() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.created))
	for _, n := range m.created {
		ids = append(ids, n.RecipientUserID)
	}
	return ids
}

type mockClaimRepo struct {
	claims   map[int64]*entity.Claim
	lastList query.ClaimQuery
	findErr  error
}

func newMockClaimRepo(claims ...*entity.Claim) *mockClaimRepo {
	m := &mockClaimRepo{claims: make(map[int64]*entity.Claim)}
	for _, c := range claims {
		m.claims[c.SequentialID] = c
	}
	return m
}

func (m *mockClaimRepo) FindBySequentialID(ctx context.Context, id int64) (*entity.Claim, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.claims[id], nil
}

func (m *mockClaimRepo) List(ctx context.Context, q query.ClaimQuery) ([]*entity.Claim, error) {
	m.lastList = q
	var out []*entity.Claim
	for _, c := range m.claims {
		if q.OwnerUserID != nil && c.OwnerUserID != *q.OwnerUserID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockClaimRepo) Count(ctx context.Context, q query.ClaimQuery) (int64, error) {
	list, _ := m.List(ctx, q)
	return int64(len(list)), nil
}

func (m *mockClaimRepo) Insert(ctx context.Context, c *entity.Claim) error {
	m.claims[c.SequentialID] = c
	return nil
}

func (m *mockClaimRepo) Replace(ctx context.Context, c *entity.Claim) error {
	m.claims[c.SequentialID] = c
	return nil
}

func (m *mockClaimRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := m.claims[id]
	delete(m.claims, id)
	return ok, nil
}

func (m *mockClaimRepo) NextSequentialID(ctx context.Context) (int64, error) {
	var max int64
	for id := range m.claims {
		if id > max {
			max = id
		}
	}
	return max + 1, nil
}

type mockPusher struct {
	pushed   []int64
	pushFunc func(userID int64) error
}

func (m *mockPusher) Push(ctx context.Context, userID int64, evt string, payload interface{}) error {
	if m.pushFunc != nil {
		if err := m.pushFunc(userID); err != nil {
			return err
		}
	}
	m.pushed = append(m.pushed, userID)
	return nil
}

type sentEmail struct {
	to, subject, body string
}

type mockEmail struct {
	disabled bool
	sent     []sentEmail
	sendErr  error
}

func (m *mockEmail) Enabled() bool { return !m.disabled }

func (m *mockEmail) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentEmail{to, subject, htmlBody})
	return nil
}

type mockExporter struct {
	exported []*entity.Claim
}

func (m *mockExporter) Export(w io.Writer, claims []*entity.Claim) error {
	m.exported = claims
	_, err := fmt.Fprintf(w, "%d claims", len(claims))
	return err
}

var errStore = errors.New("store unavailable")

// org chart used across tests:
// admin 1; director 30 (no manager); director 31; manager 20 -> 30; employee 10 -> 20;
// accountant 40, 41; employee 11 -> 21 (dangling); employee 12 -> 22 (manager without manager)
func testDirectory() *mockDirectory {
	return newMockDirectory(
		&entity.User{UserID: 1, RoleCode: "admin", Email: "admin@example.com", FullName: "Admin"},
		&entity.User{UserID: 30, RoleCode: "giam_doc", Email: "d30@example.com", FullName: "Director A"},
		&entity.User{UserID: 31, RoleCode: "director", Email: "d31@example.com"},
		&entity.User{UserID: 20, RoleCode: "ip_manager", ManagerUserID: "30", Email: "m20@example.com", FullName: "Manager"},
		&entity.User{UserID: 22, RoleCode: "quan_ly", ManagerUserID: ""},
		&entity.User{UserID: 10, RoleCode: "staff", ManagerUserID: "20", Email: "e10@example.com", FullName: "Employee"},
		&entity.User{UserID: 11, RoleCode: "staff", ManagerUserID: "21"},
		&entity.User{UserID: 12, RoleCode: "staff", ManagerUserID: "22"},
		&entity.User{UserID: 13, RoleCode: "staff", ManagerUserID: "n/a"},
		&entity.User{UserID: 40, RoleCode: "ke_toan", Email: "a40@example.com"},
		&entity.User{UserID: 41, RoleCode: "accountant"},
	)
}
