package model

// PageRecord is one entry of the visited store.
type PageRecord struct {
	// URL is the store key, exactly as it was enqueued or discovered.
	URL string `json:"url"`

	// Visited is true once the page was fetched successfully.
	Visited bool `json:"visited"`

	// Outbound lists resolved links found on the page in discovery order,
	// duplicates and out-of-scope links included.
	Outbound []string `json:"outbound"`
}

// OutboundCount returns the number of recorded outbound links.
func (p PageRecord) OutboundCount() int {
	return len(p.Outbound)
}

// UniqueOutbound returns the outbound links with duplicates removed,
// keeping first-seen order.
func (p PageRecord) UniqueOutbound() []string {
	seen := make(map[string]struct{}, len(p.Outbound))
	unique := make([]string, 0, len(p.Outbound))
	for _, link := range p.Outbound {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		unique = append(unique, link)
	}
	return unique
}
