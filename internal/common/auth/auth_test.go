package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"career-readiness/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("s3cret", "user-1", "a@example.com", RoleClerk, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.IsStaff())
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := IssueToken("s3cret", "user-1", "", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("s3cret", "user-1", "", RoleUser, -time.Minute)
	require.NoError(t, err)
	noSubject, err := IssueToken("s3cret", "", "", RoleUser, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong secret", good + "x"},
		{"expired", expired},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken("s3cret", tt.token)
			assert.Error(t, err)
		})
	}

	claims, err := ParseToken("s3cret", good)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
	assert.False(t, claims.IsStaff())
}

func TestKeycloakDirectory_ListClerks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/realms/career/groups/clerks/members", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Clerk{
			{ID: "c1", Email: "one@example.com", FirstName: "Ada", LastName: "Lane", Enabled: true},
			{ID: "c2", Email: "two@example.com", Enabled: false},
			{ID: "c3", Email: "three@example.com", Enabled: true},
		})
	}))
	defer srv.Close()

	dir := newKeycloakDirectoryWithClient(srv.URL+"/", "career", "clerks", srv.Client())
	clerks, err := dir.ListClerks(t.Context())
	require.NoError(t, err)
	require.Len(t, clerks, 2)
	assert.Equal(t, "Ada Lane", clerks[0].DisplayName())
	assert.Equal(t, "three@example.com", clerks[1].DisplayName())
}

func TestNewKeycloakDirectory_Unconfigured(t *testing.T) {
	assert.Nil(t, NewKeycloakDirectory(config.KeycloakConfig{URL: "http://kc.local"}))
}
