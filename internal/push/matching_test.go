package push

import (
	"testing"

	"crmpush/internal/crm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localContact(id uint64, p Profile) Contact {
	c := p.contact(1)
	c.ID = id
	return c
}

func TestMatchContacts_ByCriteria(t *testing.T) {
	tests := []struct {
		name   string
		local  Profile
		remote crm.Properties
	}{
		{"linkedin_id", Profile{LinkedInID: "linkedin_123"}, crm.Properties{LinkedInID: "linkedin_123"}},
		{"email", Profile{Email: "test@example.com"}, crm.Properties{Email: "test@example.com"}},
		{"full_name", Profile{FirstName: "John", LastName: "Doe"}, crm.Properties{FirstName: "John", LastName: "Doe"}},
		{"full_name_case_insensitive", Profile{FirstName: "JOHN", LastName: "DOE"}, crm.Properties{FirstName: "john", LastName: "doe"}},
		{"full_name_non_ascii", Profile{FirstName: "ÉLODIE", LastName: "MÜLLER"}, crm.Properties{FirstName: "élodie", LastName: "müller"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := localContact(1, tt.local)
			remote := crm.Contact{ID: "hubspot_1", Properties: tt.remote}

			res := MatchContacts([]Contact{local}, []crm.Contact{remote})

			require.Len(t, res.Matched, 1)
			assert.Empty(t, res.Unmatched)
			assert.Equal(t, local.ID, res.Matched[0].Local.ID)
			assert.Equal(t, "hubspot_1", res.Matched[0].Remote.ID)
		})
	}
}

func TestMatchContacts_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		local  Profile
		remote crm.Properties
	}{
		{"different_emails", Profile{Email: "unique@example.com"}, crm.Properties{Email: "different@example.com"}},
		{"partial_name_first_only", Profile{FirstName: "John"}, crm.Properties{FirstName: "John", LastName: "Doe"}},
		{"partial_name_last_only", Profile{LastName: "Doe"}, crm.Properties{FirstName: "John", LastName: "Doe"}},
		{"different_linkedin_ids", Profile{LinkedInID: "linkedin_123"}, crm.Properties{LinkedInID: "linkedin_456"}},
		{"email_is_case_sensitive", Profile{Email: "Test@example.com"}, crm.Properties{Email: "test@example.com"}},
		{"empty_local_never_matches_empty_remote", Profile{Phone: "555"}, crm.Properties{}},
		{"remote_missing_last_name", Profile{FirstName: "John", LastName: "Doe"}, crm.Properties{FirstName: "John"}},
		{"linkedin_whitespace_is_significant", Profile{LinkedInID: " li-1 "}, crm.Properties{LinkedInID: "li-1"}},
		{"email_whitespace_is_significant", Profile{Email: "a@example.com "}, crm.Properties{Email: "a@example.com"}},
		{"name_compares_lowercase_not_folded", Profile{FirstName: "ſam", LastName: "Doe"}, crm.Properties{FirstName: "sam", LastName: "Doe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MatchContacts(
				[]Contact{localContact(1, tt.local)},
				[]crm.Contact{{ID: "hubspot_1", Properties: tt.remote}},
			)

			assert.Empty(t, res.Matched)
			assert.Len(t, res.Unmatched, 1)
		})
	}
}

func TestFindMatch_LinkedInBeatsEmail(t *testing.T) {
	local := localContact(1, Profile{LinkedInID: "linkedin_123", Email: "wrong@example.com"})
	remote := []crm.Contact{
		{ID: "hs_linkedin", Properties: crm.Properties{LinkedInID: "linkedin_123", Email: "other@example.com"}},
		{ID: "hs_email", Properties: crm.Properties{Email: "wrong@example.com"}},
	}

	got, ok := FindMatch(local, remote)
	require.True(t, ok)
	assert.Equal(t, "hs_linkedin", got.ID)
}

func TestFindMatch_EmailBeatsName(t *testing.T) {
	local := localContact(1, Profile{Email: "test@example.com", FirstName: "Wrong", LastName: "Name"})
	remote := []crm.Contact{
		{ID: "hs_email", Properties: crm.Properties{Email: "test@example.com", FirstName: "Other", LastName: "Person"}},
		{ID: "hs_name", Properties: crm.Properties{FirstName: "Wrong", LastName: "Name"}},
	}

	got, ok := FindMatch(local, remote)
	require.True(t, ok)
	assert.Equal(t, "hs_email", got.ID)
}

func TestFindMatch_FirstRecordWins(t *testing.T) {
	local := localContact(1, Profile{LinkedInID: "li-1", Email: "x"})
	remote := []crm.Contact{
		{ID: "by_email", Properties: crm.Properties{Email: "x"}},
		{ID: "by_linkedin", Properties: crm.Properties{LinkedInID: "li-1"}},
	}

	got, ok := FindMatch(local, remote)
	require.True(t, ok)
	assert.Equal(t, "by_email", got.ID, "an earlier record wins over a later stronger match")
}

func TestFindMatch_LinkedInFirstRegardlessOfOthers(t *testing.T) {
	local := localContact(1, Profile{LinkedInID: "li-1"})
	remote := []crm.Contact{
		{ID: "a", Properties: crm.Properties{LinkedInID: "li-1"}},
		{ID: "b", Properties: crm.Properties{Email: "x"}},
	}

	got, ok := FindMatch(local, remote)
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestMatchContacts_EmptyInputs(t *testing.T) {
	tests := []struct {
		name              string
		local             []Contact
		remote            []crm.Contact
		matched, unmatched int
	}{
		{"empty_local", nil, []crm.Contact{{ID: "hubspot_1"}}, 0, 0},
		{"empty_remote", []Contact{localContact(1, Profile{Email: "test@example.com"})}, nil, 0, 1},
		{"both_empty", nil, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MatchContacts(tt.local, tt.remote)
			assert.Len(t, res.Matched, tt.matched)
			assert.Len(t, res.Unmatched, tt.unmatched)
		})
	}
}

func TestMatchContacts_MixedBatchKeepsOrder(t *testing.T) {
	local := []Contact{
		localContact(1, Profile{Email: "match@example.com"}),
		localContact(2, Profile{Email: "nomatch@example.com"}),
		localContact(3, Profile{LinkedInID: "linkedin_456"}),
	}
	remote := []crm.Contact{
		{ID: "hs_1", Properties: crm.Properties{Email: "match@example.com"}},
		{ID: "hs_2", Properties: crm.Properties{LinkedInID: "linkedin_456"}},
	}

	res := MatchContacts(local, remote)

	require.Len(t, res.Matched, 2)
	assert.Equal(t, uint64(1), res.Matched[0].Local.ID)
	assert.Equal(t, "hs_1", res.Matched[0].Remote.ID)
	assert.Equal(t, uint64(3), res.Matched[1].Local.ID)
	assert.Equal(t, "hs_2", res.Matched[1].Remote.ID)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, uint64(2), res.Unmatched[0].ID)
}

func TestMerge_LocalWinsWhenNonEmpty(t *testing.T) {
	local := localContact(1, Profile{FirstName: "Johnny", Email: "johnny@example.com"})
	remote := crm.Contact{ID: "hubspot_1", Properties: crm.Properties{
		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john.doe@example.com",
		LinkedInID: "linkedin_1",
		Phone:      "1234567890",
		Company:    "Example Inc",
	}}

	got := Merge(local, remote)

	assert.Equal(t, crm.Properties{
		FirstName:  "Johnny",
		LastName:   "Doe",
		Email:      "johnny@example.com",
		LinkedInID: "linkedin_1",
		Phone:      "1234567890",
		Company:    "Example Inc",
	}, got)
}

func TestProfileContact_KeepsValuesVerbatim(t *testing.T) {
	c := Profile{LinkedInID: " li-1 ", Phone: "+33 6 12", FirstName: ""}.contact(1)

	require.NotNil(t, c.LinkedInID)
	assert.Equal(t, " li-1 ", *c.LinkedInID)
	assert.Equal(t, "+33 6 12", *c.Phone)
	assert.Nil(t, c.FirstName)
}
