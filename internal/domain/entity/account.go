package entity

// Scope is the workspace triple every local customer row belongs to. Two
// accounts that share a scope see the same customers.
type Scope struct {
	WorkspaceName string `json:"workspace_name"`
	WorkspaceID   string `json:"workspace_id"`
	SiteID        string `json:"site_id"`
}

// Account is a named customer.io workspace with its credentials.
type Account struct {
	Name        string
	TrackAPIKey string
	AppAPIKey   string
	Scope
}
