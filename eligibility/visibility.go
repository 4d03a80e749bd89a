package eligibility

// IsVisible decides whether a viewer may see and act on an opportunity. An
// empty restriction set means public. Admins always see everything. Otherwise
// the viewer needs membership in at least one listed organization.
func IsVisible(visibilityOrgIDs, viewerOrgIDs []int64, viewerIsAdmin bool) bool {
	if len(visibilityOrgIDs) == 0 || viewerIsAdmin {
		return true
	}
	for _, allowed := range visibilityOrgIDs {
		for _, member := range viewerOrgIDs {
			if allowed == member {
				return true
			}
		}
	}
	return false
}
