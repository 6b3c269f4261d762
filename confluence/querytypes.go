package confluence

// ContentQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
type ContentQuery struct {
	// Filter the results to content based on...
	SpaceKey string `url:"spaceKey,omitempty"` // the space it lives in.
	Type     string `url:"type,omitempty"`     // its type: page or blogpost.
	Status   string `url:"status,omitempty"`   // its status: current, archived, trashed.

	// Start/Limit drive offset pagination.  The API may clamp Limit; never
	// assume the requested page size came back.
	Start int `url:"start"`
	Limit int `url:"limit,omitempty"`

	Expand []string `url:"expand,omitempty,comma"`
}

// ContentByIDQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
type ContentByIDQuery struct {
	ID string `url:"-"` // ID of the page; required

	Expand []string `url:"expand,omitempty,comma"` // e.g. body.export_view, version
}

// SpacesQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
type SpacesQuery struct {
	Type   string `url:"type,omitempty"`   // global or personal
	Status string `url:"status,omitempty"` // current or archived

	Start int `url:"start"`
	Limit int `url:"limit,omitempty"`
}

// PDFExportQuery defines the query parameters for the space PDF export action.
// This isn't a documented REST endpoint; it's the same action the "Export to
// PDF" button in the UI hits.
type PDFExportQuery struct {
	PageID string `url:"pageId"`
}

// WordExportQuery defines the query parameters for the legacy export action,
// which despite its path can be asked for PDF output.
type WordExportQuery struct {
	PageID     string `url:"pageId"`
	ExportType string `url:"exportType,omitempty"`
}
