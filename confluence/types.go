package confluence

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	UserKey     string `json:"userKey"`
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
type Space struct {
	Key    string `json:"key,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Page is a single content item as returned by the v1 content API:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
// I'm embellishing it with the SpaceKey field so downstream code doesn't have
// to thread the space through separately.
type Page struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`   // page, blogpost
	Status string `json:"status,omitempty"` // current, archived, deleted, trashed
	Title  string `json:"title,omitempty"`

	Version *Version `json:"version,omitempty"`

	Space *Space `json:"space,omitempty"`

	Body Body `json:"body"`

	SpaceKey string `json:"-"`
}

// Version defines the content version number.  The number increases
// monotonically on every edit; we use it for the local skip/rewrite decision.
type Version struct {
	Number    int    `json:"number"`
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	MinorEdit bool   `json:"minorEdit,omitempty"`
}

// Body holds the rendered representations we ask for.
type Body struct {
	ExportView *Storage `json:"export_view,omitempty"`
	View       *Storage `json:"view,omitempty"`
}

// Storage defines one rendered representation of a page body.
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}
