package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
)

func TestAccountRegistry_Resolve(t *testing.T) {
	registry := NewAccountRegistry(map[string]config.AccountConfig{
		"musora": {WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora", TrackAPIKey: "t", AppAPIKey: "a"},
		"broken": {WorkspaceName: "Broken", SiteID: "site-broken", TrackAPIKey: "t", AppAPIKey: "a"},
	})

	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{name: "configured account", account: "musora"},
		{name: "unknown account", account: "nope", wantErr: true},
		{name: "incomplete scope", account: "broken", wantErr: true},
		{name: "names are case-sensitive", account: "Musora", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := registry.Resolve(tt.account)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domainErrors.IsType(err, domainErrors.ErrTypeConfiguration))
				assert.Contains(t, err.Error(), "no config exists for account name: "+tt.account)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "musora", account.Name)
			assert.Equal(t, entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora"}, account.Scope)
			assert.Equal(t, "t", account.TrackAPIKey)
		})
	}
}

func TestAccountRegistry_ResolveScope(t *testing.T) {
	shared := config.AccountConfig{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora", TrackAPIKey: "t", AppAPIKey: "a"}
	registry := NewAccountRegistry(map[string]config.AccountConfig{
		"musora":        shared,
		"musora-legacy": shared,
	})

	account, err := registry.ResolveScope(entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora"})
	require.NoError(t, err)
	assert.Equal(t, "musora", account.Name)

	_, err = registry.ResolveScope(entity.Scope{WorkspaceName: "Other", WorkspaceID: "9", SiteID: "x"})
	assert.True(t, domainErrors.IsType(err, domainErrors.ErrTypeConfiguration))
}
