package models

// PageInformation page information
type PageInformation struct {
	Size    int   `json:"size,omitempty"`
	Count   int   `json:"count"`
	HasMore bool  `json:"has_more"`
	Oldest  int64 `json:"oldest,omitempty"`
}

// Page page model
type Page struct {
	PageInformation *PageInformation `json:"page_information,omitempty"`
	State           *FeedState       `json:"state,omitempty"`
	Entities        interface{}      `json:"entities,omitempty"`
}

// NewPage new page
func NewPage(pageInfo *PageInformation, state *FeedState, entities interface{}) *Page {
	return &Page{
		PageInformation: pageInfo,
		State:           state,
		Entities:        entities,
	}
}
