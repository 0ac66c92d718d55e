package usecase

import (
	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
)

// AccountRegistry resolves account names to credentials and scope. It is
// built once from the catalog and never changes.
type AccountRegistry struct {
	accounts map[string]entity.Account
}

func NewAccountRegistry(accounts map[string]config.AccountConfig) *AccountRegistry {
	registry := &AccountRegistry{accounts: make(map[string]entity.Account, len(accounts))}
	for name, cfg := range accounts {
		registry.accounts[name] = entity.Account{
			Name:        name,
			TrackAPIKey: cfg.TrackAPIKey,
			AppAPIKey:   cfg.AppAPIKey,
			Scope: entity.Scope{
				WorkspaceName: cfg.WorkspaceName,
				WorkspaceID:   cfg.WorkspaceID,
				SiteID:        cfg.SiteID,
			},
		}
	}
	return registry
}

// Resolve fails with a configuration error when the account is unknown or
// its scope is incomplete.
func (r *AccountRegistry) Resolve(accountName string) (*entity.Account, error) {
	account, ok := r.accounts[accountName]
	if !ok || account.WorkspaceName == "" || account.WorkspaceID == "" || account.SiteID == "" {
		return nil, domainErrors.NewConfigurationError(accountName)
	}
	return &account, nil
}

// ResolveScope finds the account owning a scope. When several accounts share
// a scope the one with the lowest name wins, so the choice is stable.
func (r *AccountRegistry) ResolveScope(scope entity.Scope) (*entity.Account, error) {
	var found *entity.Account
	for name := range r.accounts {
		account := r.accounts[name]
		if account.Scope != scope {
			continue
		}
		if found == nil || account.Name < found.Name {
			found = &account
		}
	}
	if found == nil {
		return nil, domainErrors.NewConfigurationError(scope.WorkspaceName + "/" + scope.WorkspaceID + "/" + scope.SiteID)
	}
	return found, nil
}
