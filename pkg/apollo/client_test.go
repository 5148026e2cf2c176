package apollo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichOrganization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantID   string
		wantEmps *int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"organization":{
				"id":"org-1","name":"Acme AB","primary_domain":"acme.se",
				"estimated_num_employees":340,"industry":"computer software",
				"keywords":["ml"],"technology_names":["AWS","Python"],
				"latest_funding_stage":"Series B","annual_revenue":1.5e7,
				"total_funding":null,"phone":"+46 8 123","founded_year":2016}}`,
			wantID:   "org-1",
			wantEmps: intPtr(340),
		},
		{
			name:    "no_organization",
			status:  http.StatusOK,
			body:    `{}`,
			wantErr: "no organization for acme.se",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":"invalid api key"}`,
			wantErr: "apollo: HTTP 401",
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `{"organization":`,
			wantErr: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/organizations/enrich", r.URL.Path)
				assert.Equal(t, "acme.se", r.URL.Query().Get("domain"))
				assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL))
			org, err := c.EnrichOrganization(context.Background(), "acme.se")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, org)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, org.ID)
			assert.Equal(t, tt.wantEmps, org.EstimatedNumEmployees)
			assert.Equal(t, []string{"AWS", "Python"}, org.TechnologyNames)
			assert.Nil(t, org.TotalFunding)
			require.NotNil(t, org.AnnualRevenue)
			assert.InDelta(t, 1.5e7, *org.AnnualRevenue, 0.1)
		})
	}
}

func TestSearchPeople(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mixed_people/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, []any{"acme.se"}, req["q_organization_domains_list"])
		assert.Equal(t, []any{"CEO", "CTO"}, req["person_titles"])
		assert.EqualValues(t, 3, req["per_page"])

		_, _ = w.Write([]byte(`{"people":[
			{"id":"p1","name":"Anna Berg","title":"CEO","email":"anna@acme.se"},
			{"id":"p2","first_name":"Lars","last_name":"Nilsson","title":"CTO"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.SearchPeople(context.Background(), PeopleSearchRequest{
		OrganizationDomains: []string{"acme.se"},
		PersonTitles:        []string{"CEO", "CTO"},
		PerPage:             3,
	})
	require.NoError(t, err)
	require.Len(t, resp.People, 2)
	assert.Equal(t, "Anna Berg", resp.People[0].FullName())
	assert.Equal(t, "Lars Nilsson", resp.People[1].FullName())
}

func TestSearchPeople_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`slow down`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.SearchPeople(context.Background(), PeopleSearchRequest{OrganizationDomains: []string{"a.se"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "slow down", apiErr.Body)
}

func TestWithRateLimit_Throttles(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"people":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(20))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.SearchPeople(context.Background(), PeopleSearchRequest{})
		require.NoError(t, err)
	}
	// Burst of 20 lets all three through immediately.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	c := NewClient("k", WithBaseURL("http://127.0.0.1:0"), WithRateLimit(0.001))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.EnrichOrganization(ctx, "a.se")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func intPtr(n int) *int { return &n }
