package push

import (
	"strings"

	"crmpush/internal/crm"
)

type MatchedPair struct {
	Local  Contact
	Remote crm.Contact
}

// MatchResult partitions local contacts; both slices keep input order.
type MatchResult struct {
	Matched   []MatchedPair
	Unmatched []Contact
}

// MatchContacts pairs each local contact with the first remote contact that
// matches it, see FindMatch.
func MatchContacts(local []Contact, remote []crm.Contact) MatchResult {
	var res MatchResult
	for _, c := range local {
		if r, ok := FindMatch(c, remote); ok {
			res.Matched = append(res.Matched, MatchedPair{Local: c, Remote: r})
		} else {
			res.Unmatched = append(res.Unmatched, c)
		}
	}
	return res
}

// FindMatch scans remote in order and returns the first record equal to
// local by LinkedIn ID, email, or case-insensitive first+last name, tried in
// that order for each record. The first matching record wins even when a
// later record would match on a stronger field.
func FindMatch(local Contact, remote []crm.Contact) (crm.Contact, bool) {
	lp := local.Properties()
	for _, r := range remote {
		if matchesLinkedIn(lp, r.Properties) || matchesEmail(lp, r.Properties) || matchesName(lp, r.Properties) {
			return r, true
		}
	}
	return crm.Contact{}, false
}

func matchesLinkedIn(local, remote crm.Properties) bool {
	return local.LinkedInID != "" && remote.LinkedInID == local.LinkedInID
}

func matchesEmail(local, remote crm.Properties) bool {
	return local.Email != "" && remote.Email == local.Email
}

// matchesName needs both local names; a partial name never matches.
func matchesName(local, remote crm.Properties) bool {
	if local.FirstName == "" || local.LastName == "" {
		return false
	}
	return strings.ToLower(remote.FirstName) == strings.ToLower(local.FirstName) &&
		strings.ToLower(remote.LastName) == strings.ToLower(local.LastName)
}

// Merge builds the update sent for a matched pair: the local value of each
// field when non-empty, otherwise the remote one.
func Merge(local Contact, remote crm.Contact) crm.Properties {
	return local.Properties().FillFrom(remote.Properties)
}
