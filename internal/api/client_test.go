// ABOUTME: Tests for the API transport and generic resource client
// ABOUTME: Covers query serialization, bearer headers, error normalization and bulk bodies

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/registrar/internal/apierr"
)

type testCollege struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var testEndpoint = Endpoint{
	Path:      "/colleges",
	BulkField: "codes",
	Singular:  "college",
	Plural:    "colleges",
}

// staticToken is a TokenSource whose value tests can change between calls.
type staticToken struct {
	mu    sync.Mutex
	token string
}

func (s *staticToken) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticToken) set(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

// recorded captures what the test server saw.
type recorded struct {
	method string
	path   string
	query  map[string][]string
	auth   string
	body   []byte
}

func newTestServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestQueryValues_OmitsAbsentFields(t *testing.T) {
	v := Query{}.Values()
	assert.Empty(t, v)

	v = Query{
		Search:   "CS",
		Filters:  map[string]string{"college_code": "CCS", "gender": ""},
		Page:     2,
		PageSize: 6,
		Sort:     &Sort{Key: "name", Direction: SortDesc},
	}.Values()

	assert.Equal(t, "CS", v.Get("search"))
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "6", v.Get("per_page"))
	assert.Equal(t, "name", v.Get("sort_by"))
	assert.Equal(t, "desc", v.Get("sort_order"))
	assert.Equal(t, "CCS", v.Get("college_code"))
	_, hasGender := v["gender"]
	assert.False(t, hasGender, "empty filter values must not be sent")
}

func TestQueryClone_IsDeep(t *testing.T) {
	q := Query{Filters: map[string]string{"a": "1"}, Sort: &Sort{Key: "code", Direction: SortAsc}}
	c := q.Clone()
	c.Filters["a"] = "2"
	c.Sort.Direction = SortDesc

	assert.Equal(t, "1", q.Filters["a"])
	assert.Equal(t, SortAsc, q.Sort.Direction)
}

func TestSortDirection_Flip(t *testing.T) {
	assert.Equal(t, SortDesc, SortAsc.Flip())
	assert.Equal(t, SortAsc, SortDesc.Flip())
	assert.Equal(t, SortAsc, SortAsc.Flip().Flip())
}

func TestList_DecodesEnvelope(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK,
		`{"data":[{"code":"CCS","name":"Computer Studies"}],"meta":{"page":1,"per_page":10,"total_pages":3,"total_items":21}}`)

	c := NewClient(srv.URL, time.Second, nil)
	res := NewResource[testCollege](c, testEndpoint)

	page, err := res.List(context.Background(), Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "CCS", page.Items[0].Code)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 21, page.TotalItems)

	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodGet, (*seen)[0].method)
	assert.Equal(t, "/colleges", (*seen)[0].path)
	assert.Empty(t, (*seen)[0].auth, "no token means no authorization header")
}

func TestList_EmptyDataIsEmptySlice(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"data":null,"meta":{"total_pages":0}}`)
	res := NewResource[testCollege](NewClient(srv.URL, time.Second, nil), testEndpoint)

	page, err := res.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestClient_ReadsTokenAtCallTime(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"data":[],"meta":{}}`)

	tokens := &staticToken{token: "first"}
	c := NewClient(srv.URL, time.Second, nil)
	c.SetTokenSource(tokens)
	res := NewResource[testCollege](c, testEndpoint)

	_, err := res.List(context.Background(), Query{})
	require.NoError(t, err)

	tokens.set("")
	_, err = res.List(context.Background(), Query{})
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	assert.Equal(t, "Bearer first", (*seen)[0].auth)
	assert.Empty(t, (*seen)[1].auth, "logout must stop the next request from carrying a credential")
}

func TestClient_ServerErrorMessageVerbatim(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":"College code already exists"}`)
	res := NewResource[testCollege](NewClient(srv.URL, time.Second, nil), testEndpoint)

	_, err := res.Create(context.Background(), testCollege{Code: "CCS", Name: "Dup"})
	require.Error(t, err)

	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "College code already exists", apiErr.Message)
}

func TestClient_FallbackMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `not json`)
	res := NewResource[testCollege](NewClient(srv.URL, time.Second, nil), testEndpoint)

	err := res.Delete(context.Background(), "CCS")
	require.Error(t, err)
	assert.Equal(t, "Failed to delete college", err.Error())
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusOf(err))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := NewResource[testCollege](NewClient(url, time.Second, nil), testEndpoint)
	_, err := res.List(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, apierr.IsNetwork(err))
}

func TestUpdateAndDelete_EscapeKey(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"code":"BS CS","name":"x"}`)
	res := NewResource[testCollege](NewClient(srv.URL, time.Second, nil), testEndpoint)

	_, err := res.Update(context.Background(), "BS CS", testCollege{Code: "BS CS", Name: "x"})
	require.NoError(t, err)
	require.NoError(t, res.Delete(context.Background(), "BS CS"))

	require.Len(t, *seen, 2)
	assert.Equal(t, http.MethodPut, (*seen)[0].method)
	assert.Equal(t, "/colleges/BS CS", (*seen)[0].path)
	assert.Equal(t, http.MethodDelete, (*seen)[1].method)
}

func TestBulkDelete_UsesEndpointField(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"message":"2 students deleted"}`)
	res := NewResource[testCollege](NewClient(srv.URL, time.Second, nil), Endpoint{
		Path: "/students", BulkField: "ids", Singular: "student", Plural: "students",
	})

	require.NoError(t, res.BulkDelete(context.Background(), []string{"2021-0001", "2021-0002"}))

	require.Len(t, *seen, 1)
	assert.Equal(t, "/students/bulk-delete", (*seen)[0].path)
	var body map[string][]string
	require.NoError(t, json.Unmarshal((*seen)[0].body, &body))
	assert.Equal(t, []string{"2021-0001", "2021-0002"}, body["ids"])
}

func TestLogin_DecodesTokenAndUser(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK,
		`{"message":"Login successful","access_token":"tok","user":{"id":7,"username":"admin","full_name":"Ada","role":"admin"}}`)
	c := NewClient(srv.URL, time.Second, nil)

	resp, err := c.Login(context.Background(), Credentials{Username: "admin", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.IsAdmin())
	assert.Equal(t, "/auth/login", (*seen)[0].path)
}

func TestStatistics(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"total_students":12,"total_programs":4,"total_colleges":2}`)
	c := NewClient(srv.URL, time.Second, nil)

	stats, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalStudents)
	assert.Equal(t, 4, stats.TotalPrograms)
	assert.Equal(t, 2, stats.TotalColleges)
}
