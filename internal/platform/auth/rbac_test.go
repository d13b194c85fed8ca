package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []string
		ok    bool
	}{
		{"encoder needs encoder", []string{RoleEncoder}, []string{RoleEncoder}, true},
		{"encoder is not admin", []string{RoleEncoder}, []string{RoleAdmin}, false},
		{"admin passes everything", []string{RoleAdmin}, []string{RoleEncoder}, true},
		{"no roles", nil, []string{RoleEncoder}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithIdentity(context.Background(), "u1", tt.roles, "")
			assert.Equal(t, tt.ok, HasRole(ctx, tt.want...))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(WithIdentity(context.Background(), "u1", []string{RoleEncoder, RoleAdmin}, "")))
	assert.False(t, IsAdmin(WithIdentity(context.Background(), "u2", []string{RoleEncoder}, "")))
	assert.False(t, IsAdmin(context.Background()))
}
