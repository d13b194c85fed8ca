package barangay

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	items map[uuid.UUID]*Barangay
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Barangay)}
}

func (m *mockRepo) Create(_ context.Context, b *Barangay) error {
	for _, existing := range m.items {
		if existing.Name == b.Name {
			return ErrDuplicate
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.items[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Barangay, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Barangay, int, error) {
	var out []*Barangay
	for _, b := range m.items {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func TestService_Create(t *testing.T) {
	svc := NewService(newMockRepo())
	b := &Barangay{Name: "  San Isidro "}
	require.NoError(t, svc.Create(context.Background(), b))
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, "San Isidro", b.Name)

	got, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestService_Create_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())
	assert.Error(t, svc.Create(context.Background(), &Barangay{Name: "   "}))
}

func TestService_Create_Duplicate(t *testing.T) {
	svc := NewService(newMockRepo())
	require.NoError(t, svc.Create(context.Background(), &Barangay{Name: "Pulo"}))
	assert.ErrorIs(t, svc.Create(context.Background(), &Barangay{Name: "Pulo"}), ErrDuplicate)
}

func TestService_List(t *testing.T) {
	svc := NewService(newMockRepo())
	for _, n := range []string{"Pulo", "Banlic", "Mamatid"} {
		require.NoError(t, svc.Create(context.Background(), &Barangay{Name: n}))
	}
	items, total, err := svc.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Banlic", items[0].Name)
}
