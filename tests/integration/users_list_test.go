//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/dandy1414/user-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listScenario struct {
	tag                     string
	alice, bob, carol, dave createdUser
}

// newListScenario stores three active users of different roles and one
// inactive user, all sharing a tag in their names so a search isolates them.
func newListScenario(t *testing.T) listScenario {
	t.Helper()
	client := newTestClient(t)

	tag := testutil.RandomName("scn")
	s := listScenario{tag: tag}
	s.alice = createTestUser(t, client, tag+" Alice")
	s.bob = createTestUser(t, client, tag+" Bob", withRole("manager"))
	s.carol = createTestUser(t, client, tag+" Carol", withRole("administrator"))
	s.dave = createTestUser(t, client, tag+" Dave", withActive(false))

	addOrders(t, s.alice.ID, 2)
	addOrders(t, s.dave.ID, 1)
	return s
}

func TestListUsers_ActiveOnlyWithOrderCounts(t *testing.T) {
	s := newListScenario(t)
	client := newTestClient(t)

	page := listUsers(t, client, url.Values{"search": {s.tag}})

	assert.Equal(t, []int64{s.alice.ID, s.bob.ID, s.carol.ID}, userIDs(page))
	assert.Equal(t, int64(3), page.Total)

	counts := map[int64]int64{}
	for _, u := range page.Data {
		assert.True(t, u.Active)
		counts[u.ID] = u.OrdersCount
	}
	assert.Equal(t, map[int64]int64{s.alice.ID: 2, s.bob.ID: 0, s.carol.ID: 0}, counts)
}

func TestListUsers_CanEdit(t *testing.T) {
	s := newListScenario(t)
	client := newTestClient(t)

	canEdit := func(query url.Values) map[int64]bool {
		query.Set("search", s.tag)
		result := map[int64]bool{}
		for _, u := range listUsers(t, client, query).Data {
			result[u.ID] = u.CanEdit
		}
		return result
	}

	tests := []struct {
		name  string
		query url.Values
		want  map[int64]bool
	}{
		{
			name:  "administrator edits everyone",
			query: url.Values{"currentRole": {"administrator"}},
			want:  map[int64]bool{s.alice.ID: true, s.bob.ID: true, s.carol.ID: true},
		},
		{
			name:  "manager edits plain users",
			query: url.Values{"currentRole": {"manager"}},
			want:  map[int64]bool{s.alice.ID: true, s.bob.ID: false, s.carol.ID: false},
		},
		{
			name:  "user edits only self",
			query: url.Values{"currentRole": {"user"}, "currentUserId": {strconv.FormatInt(s.alice.ID, 10)}},
			want:  map[int64]bool{s.alice.ID: true, s.bob.ID: false, s.carol.ID: false},
		},
		{
			name:  "anonymous user edits nobody",
			query: url.Values{},
			want:  map[int64]bool{s.alice.ID: false, s.bob.ID: false, s.carol.ID: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.SetT(t)
			assert.Equal(t, tt.want, canEdit(tt.query))
		})
	}
}

func TestListUsers_SearchIsCaseInsensitiveOnNameAndEmail(t *testing.T) {
	client := newTestClient(t)
	tag := testutil.RandomName("srch")
	byName := createTestUser(t, client, tag+" Person")
	byEmail := createTestUser(t, client, "Someone Else",
		withEmail(fmt.Sprintf("x-%s@example.com", tag[len("srch "):])))

	page := listUsers(t, client, url.Values{"search": {tag[len("srch "):]}, "limit": {"100"}})
	assert.ElementsMatch(t, []int64{byName.ID, byEmail.ID}, userIDs(page))

	upper := listUsers(t, client, url.Values{"search": {"SRCH " + tag[len("srch "):]}})
	assert.Equal(t, []int64{byName.ID}, userIDs(upper))
}

func TestListUsers_SearchTreatsWildcardsLiterally(t *testing.T) {
	client := newTestClient(t)
	tag := testutil.RandomName("pct")
	literal := createTestUser(t, client, tag+" 100% done")
	createTestUser(t, client, tag+" 1000 done")

	page := listUsers(t, client, url.Values{"search": {tag + " 100%"}})
	assert.Equal(t, []int64{literal.ID}, userIDs(page))

	underscore := listUsers(t, client, url.Values{"search": {tag + " 1_0"}})
	assert.Empty(t, underscore.Data)
	assert.Equal(t, int64(0), underscore.Total)
}

func TestListUsers_Sorting(t *testing.T) {
	client := newTestClient(t)
	tag := testutil.RandomName("sort")

	charlie := createTestUser(t, client, tag+" Charlie", withEmail(testutil.RandomEmail("a-sort")))
	alpha := createTestUser(t, client, tag+" Alpha", withEmail(testutil.RandomEmail("c-sort")))
	bravo := createTestUser(t, client, tag+" Bravo", withEmail(testutil.RandomEmail("b-sort")))

	tests := []struct {
		sortBy string
		want   []int64
	}{
		{sortBy: "name", want: []int64{alpha.ID, bravo.ID, charlie.ID}},
		{sortBy: "email", want: []int64{charlie.ID, bravo.ID, alpha.ID}},
		{sortBy: "created_at", want: []int64{charlie.ID, alpha.ID, bravo.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			client.SetT(t)
			page := listUsers(t, client, url.Values{"search": {tag}, "sortBy": {tt.sortBy}})
			assert.Equal(t, tt.want, userIDs(page))
		})
	}
}

func TestListUsers_Pagination(t *testing.T) {
	client := newTestClient(t)
	tag := testutil.RandomName("page")

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, createTestUser(t, client, fmt.Sprintf("%s %d", tag, i)).ID)
	}

	query := url.Values{"search": {tag}, "limit": {"2"}, "page": {"2"}}
	page := listUsers(t, client, query)

	assert.Equal(t, ids[2:4], userIDs(page))
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.LastPage)
	require.NotNil(t, page.From)
	require.NotNil(t, page.To)
	assert.Equal(t, int64(3), *page.From)
	assert.Equal(t, int64(4), *page.To)
	assert.Equal(t, "/api/users", page.Path)

	pageURL := func(n int) string {
		q := url.Values{"search": {tag}, "limit": {"2"}, "page": {strconv.Itoa(n)}}
		return "/api/users?" + q.Encode()
	}
	assert.Equal(t, pageURL(1), page.FirstPageURL)
	assert.Equal(t, pageURL(3), page.LastPageURL)
	require.NotNil(t, page.NextPageURL)
	require.NotNil(t, page.PrevPageURL)
	assert.Equal(t, pageURL(3), *page.NextPageURL)
	assert.Equal(t, pageURL(1), *page.PrevPageURL)

	labels := make([]string, 0, len(page.Links))
	for _, l := range page.Links {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"&laquo; Previous", "1", "2", "3", "Next &raquo;"}, labels)
	assert.True(t, page.Links[2].Active)
	require.NotNil(t, page.Links[3].URL)
	assert.Equal(t, pageURL(3), *page.Links[3].URL)

	last := listUsers(t, client, url.Values{"search": {tag}, "limit": {"2"}, "page": {"3"}})
	assert.Equal(t, ids[4:], userIDs(last))
	assert.Nil(t, last.NextPageURL)

	beyond := listUsers(t, client, url.Values{"search": {tag}, "limit": {"2"}, "page": {"99"}})
	assert.Empty(t, beyond.Data)
	assert.Nil(t, beyond.From)
	assert.Nil(t, beyond.To)
	assert.Equal(t, int64(5), beyond.Total)
}

func TestListUsers_InvalidQuery(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.GET("/api/user", url.Values{
		"limit":  {"101"},
		"page":   {"0"},
		"sortBy": {"password"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var result validationResponse
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, map[string]string{
		"limit":  "max",
		"page":   "min",
		"sortBy": "oneof",
	}, result.fields())
}

func TestListUsers_SingularAlias(t *testing.T) {
	client := newTestClient(t)
	s := newListScenario(t)

	resp, err := client.GET("/api/user", url.Values{"search": {s.tag}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page userPage
	testutil.DecodeJSON(t, resp, &page)
	assert.Equal(t, "/api/user", page.Path)
	assert.Len(t, page.Data, 3)
}
