package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleCatalog = `
customer_attribute_name_for_user_id: musora_user_id
accounts:
  musora:
    workspace_name: Musora
    workspace_id: "1"
    site_id: site-musora
    track_api_key: track-musora
    app_api_key: app-musora
  singeo:
    workspace_name: Singeo
    workspace_id: "2"
    site_id: site-singeo
    track_api_key: track-singeo
    app_api_key: app-singeo
forms:
  Example Form Name:
    custom_attributes:
      attribute_to_sync_1: value_1
      attribute_to_sync_2: value_2
    events_to_trigger: [event_to_sync_1, event_to_sync_2]
    accounts_to_sync: [musora, singeo]
forms_events_utm_parameters:
  utm_source: source
  utm_campaign: campaign
`

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(exampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, "musora_user_id", catalog.UserIDAttributeName)
	assert.Len(t, catalog.Accounts, 2)
	assert.Equal(t, "site-singeo", catalog.Accounts["singeo"].SiteID)

	form, ok := catalog.Form("Example Form Name")
	require.True(t, ok)
	assert.Equal(t, []string{"musora", "singeo"}, form.AccountsToSync)
	assert.Equal(t, "value_2", form.CustomAttributes["attribute_to_sync_2"])
	assert.Equal(t, "campaign", catalog.FormsEventsUTMParameters["utm_campaign"])

	_, ok = catalog.Form("example form name")
	assert.False(t, ok, "form names are case-sensitive")
}

func TestParseCatalog_DefaultsUserIDAttribute(t *testing.T) {
	catalog, err := ParseCatalog([]byte("accounts: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultUserIDAttributeName, catalog.UserIDAttributeName)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing credentials",
			yaml: "accounts:\n  musora:\n    workspace_name: Musora\n    workspace_id: '1'\n    site_id: s\n",
		},
		{
			name: "form references unknown account",
			yaml: "forms:\n  Signup:\n    accounts_to_sync: [nobody]\n",
		},
		{
			name: "malformed yaml",
			yaml: "accounts: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleCatalog), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Example Form Name"}, catalog.FormNames())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalog_ShippedFile(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join("..", "..", "configs", "customer-io-catalog.yaml"))
	require.NoError(t, err)

	form, ok := catalog.Form("Example Form Name")
	require.True(t, ok)
	assert.Equal(t, []string{"musora", "singeo"}, form.AccountsToSync)
	assert.Equal(t, DefaultUserIDAttributeName, catalog.UserIDAttributeName)
}
