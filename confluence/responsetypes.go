package confluence

// ContentList is the response shape of the v1 content listing.  Size and Limit
// describe the page we were given, not the collection; the only reliable
// end-of-results signal is receiving fewer items than we asked for.
type ContentList struct {
	Results []Page `json:"results"`

	Start int `json:"start"`
	Limit int `json:"limit"`
	Size  int `json:"size"`

	Links struct {
		// Relative URL for the next set of results.  Absent when the server
		// believes there is no more data.
		Next string `json:"next"`
	} `json:"_links"`
}

// SpaceList is the response shape of the v1 space listing.
type SpaceList struct {
	Results []Space `json:"results"`

	Start int `json:"start"`
	Limit int `json:"limit"`
	Size  int `json:"size"`
}
