package eligibility

import (
	"sort"
	"time"
)

// OccurrenceVerdict pairs one occurrence of a recurring series with the
// viewer's verdict for it.
type OccurrenceVerdict struct {
	OpportunityID int64   `json:"opportunity_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	Verdict       Verdict `json:"verdict"`
}

// OrgCount is one entry of the co-attending organization ranking.
type OrgCount struct {
	OrgID int64 `json:"org_id"`
	Count int   `json:"count"`
}

// SeriesView is the engine's projection of a recurring series for one viewer:
// per-occurrence verdicts plus display aggregates across the whole series.
type SeriesView struct {
	Occurrences      []OccurrenceVerdict `json:"occurrences"`
	Participants     []Participant       `json:"participants"`
	TopOrganizations []OrgCount          `json:"top_organizations"`
}

// DescribeSeries evaluates every occurrence of a recurring series and builds
// the de-duplicated participant aggregate. Occurrences are ordered
// chronologically first; when the same user appears on several rosters the
// chronologically-first occurrence wins for display fields, and the
// registered/attended flags accumulate across occurrences.
func DescribeSeries(occurrences []Opportunity, viewer Viewer, now time.Time) (SeriesView, error) {
	sorted := make([]Opportunity, len(occurrences))
	copy(sorted, occurrences)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	view := SeriesView{Occurrences: make([]OccurrenceVerdict, 0, len(sorted))}

	seen := make(map[int64]int) // user id -> index in view.Participants
	for _, occ := range sorted {
		verdict, err := Describe(occ, viewer, now)
		if err != nil {
			return SeriesView{}, err
		}
		view.Occurrences = append(view.Occurrences, OccurrenceVerdict{
			OpportunityID: occ.ID,
			Date:          occ.Date,
			StartTime:     occ.StartTime,
			Verdict:       verdict,
		})
		if !verdict.Visible {
			continue
		}
		for _, p := range occ.Roster {
			if idx, ok := seen[p.UserID]; ok {
				view.Participants[idx].Registered = view.Participants[idx].Registered || p.Registered
				view.Participants[idx].Attended = view.Participants[idx].Attended || p.Attended
				continue
			}
			seen[p.UserID] = len(view.Participants)
			view.Participants = append(view.Participants, p)
		}
	}

	view.TopOrganizations = TopOrganizations(view.Participants)
	return view, nil
}

// TopOrganizations ranks the organizations with at least two registered
// members on the roster, largest first, org id as the stable tie-break, and
// returns at most three.
func TopOrganizations(roster []Participant) []OrgCount {
	counts := make(map[int64]int)
	for _, p := range roster {
		if !p.Registered {
			continue
		}
		for _, orgID := range p.OrgIDs {
			counts[orgID]++
		}
	}

	var ranked []OrgCount
	for orgID, n := range counts {
		if n >= 2 {
			ranked = append(ranked, OrgCount{OrgID: orgID, Count: n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].OrgID < ranked[j].OrgID
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}
