package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultUserIDAttributeName is the remote attribute that receives a
// customer's user id when the catalog does not name one.
const DefaultUserIDAttributeName = "user_id"

// Catalog is the static account and form configuration. It is loaded once
// at startup and treated as read-only afterwards.
type Catalog struct {
	Accounts map[string]AccountConfig `yaml:"accounts"`
	Forms    map[string]FormConfig    `yaml:"forms"`
	// FormsEventsUTMParameters maps a request parameter name to the key it
	// is stored under in the data of events raised by a form submission.
	FormsEventsUTMParameters map[string]string `yaml:"forms_events_utm_parameters"`
	UserIDAttributeName      string            `yaml:"customer_attribute_name_for_user_id"`
}

type AccountConfig struct {
	WorkspaceName string `yaml:"workspace_name"`
	WorkspaceID   string `yaml:"workspace_id"`
	SiteID        string `yaml:"site_id"`
	TrackAPIKey   string `yaml:"track_api_key"`
	AppAPIKey     string `yaml:"app_api_key"`
}

type FormConfig struct {
	CustomAttributes map[string]string `yaml:"custom_attributes"`
	EventsToTrigger  []string          `yaml:"events_to_trigger"`
	AccountsToSync   []string          `yaml:"accounts_to_sync"`
}

// LoadCatalog reads the catalog from a YAML file. It is kept apart from the
// viper managed settings because account and form names are case-sensitive.
func LoadCatalog(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if catalog.UserIDAttributeName == "" {
		catalog.UserIDAttributeName = DefaultUserIDAttributeName
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks that every account has its credentials and that forms
// only reference configured accounts.
func (c *Catalog) Validate() error {
	for name, account := range c.Accounts {
		if account.SiteID == "" || account.TrackAPIKey == "" || account.AppAPIKey == "" {
			return fmt.Errorf("account %q is missing site_id, track_api_key or app_api_key", name)
		}
		if account.WorkspaceName == "" || account.WorkspaceID == "" {
			return fmt.Errorf("account %q is missing workspace_name or workspace_id", name)
		}
	}
	for formName, form := range c.Forms {
		for _, accountName := range form.AccountsToSync {
			if _, ok := c.Accounts[accountName]; !ok {
				return fmt.Errorf("form %q syncs to unknown account %q", formName, accountName)
			}
		}
	}
	return nil
}

// FormNames returns the configured form names in sorted order.
func (c *Catalog) FormNames() []string {
	names := make([]string, 0, len(c.Forms))
	for name := range c.Forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Form(name string) (FormConfig, bool) {
	form, ok := c.Forms[name]
	return form, ok
}
