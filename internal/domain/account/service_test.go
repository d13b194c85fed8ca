package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	users []*User
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users = append(m.users, u)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Status = status
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if f.BarangayID != nil && (u.BarangayID == nil || *u.BarangayID != *f.BarangayID) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByBarangay(_ context.Context, barangayID uuid.UUID) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if u.BarangayID != nil && *u.BarangayID == barangayID && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

func encoder(email string, brgy uuid.UUID) *User {
	return &User{Email: email, FullName: email, Role: "encoder", BarangayID: &brgy}
}

func TestService_Create_Defaults(t *testing.T) {
	svc := NewService(&mockRepo{})
	u := encoder(" BHW@Example.PH ", uuid.New())
	require.NoError(t, svc.Create(context.Background(), u))
	assert.Equal(t, "bhw@example.ph", u.Email)
	assert.Equal(t, StatusActive, u.Status)
}

func TestService_Create_Validation(t *testing.T) {
	brgy := uuid.New()
	tests := []struct {
		name string
		user *User
	}{
		{"encoder without barangay", &User{Email: "a@x.ph", Role: "encoder"}},
		{"unknown role", &User{Email: "a@x.ph", Role: "doctor", BarangayID: &brgy}},
		{"bad status", &User{Email: "a@x.ph", Role: "encoder", BarangayID: &brgy, Status: "banned"}},
		{"empty email", &User{Email: " ", Role: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewService(&mockRepo{}).Create(context.Background(), tt.user))
		})
	}
}

func TestService_Create_AdminHasNoBarangay(t *testing.T) {
	brgy := uuid.New()
	u := &User{Email: "cho@x.ph", Role: "admin", BarangayID: &brgy}
	require.NoError(t, NewService(&mockRepo{}).Create(context.Background(), u))
	assert.Nil(t, u.BarangayID)
}

func TestService_ListActiveByBarangay(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockRepo{})
	brgy, other := uuid.New(), uuid.New()

	a := encoder("a@x.ph", brgy)
	b := encoder("b@x.ph", brgy)
	c := encoder("c@x.ph", other)
	for _, u := range []*User{a, b, c} {
		require.NoError(t, svc.Create(ctx, u))
	}
	_, err := svc.SetStatus(ctx, b.ID, StatusInactive)
	require.NoError(t, err)

	got, err := svc.ListActiveByBarangay(ctx, brgy)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.ph", got[0].Email)
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockRepo{})

	_, err := svc.SetStatus(ctx, uuid.New(), StatusInactive)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetStatus(ctx, uuid.New(), "paused")
	assert.Error(t, err)
}
