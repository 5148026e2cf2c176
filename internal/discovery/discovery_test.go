package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apify"
)

// fakeApify serves canned dataset items per location.
type fakeApify struct {
	items     map[string]string // location -> JSON array
	fail      map[string]bool
	locations []string
	syncCalls int
}

func (f *fakeApify) RunActor(_ context.Context, _ string, input any) (*apify.Run, error) {
	in := input.(SearchInput)
	f.locations = append(f.locations, in.Location)
	if f.fail[in.Location] {
		return nil, &apify.APIError{StatusCode: 500, Body: "actor crashed"}
	}
	return &apify.Run{ID: "run-" + in.Location, Status: apify.StatusSucceeded, DefaultDatasetID: in.Location}, nil
}

func (f *fakeApify) GetRun(_ context.Context, runID string) (*apify.Run, error) {
	return &apify.Run{ID: runID, Status: apify.StatusSucceeded}, nil
}

func (f *fakeApify) GetDatasetItems(_ context.Context, datasetID string, out any) error {
	raw, ok := f.items[datasetID]
	if !ok {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeApify) RunSyncGetDatasetItems(ctx context.Context, _ string, input any, out any) error {
	f.syncCalls++
	in := input.(SearchInput)
	f.locations = append(f.locations, in.Location)
	if f.fail[in.Location] {
		return &apify.APIError{StatusCode: 408, Body: "timeout"}
	}
	return f.GetDatasetItems(ctx, in.Location, out)
}

func TestDiscover_SequentialNoDedupe(t *testing.T) {
	f := &fakeApify{items: map[string]string{
		"Sweden":  `[{"name":"Acme AB","website":"https://www.acme.se/about","employeeCountRange":"51-200"}]`,
		"Denmark": `[{"name":"Acme AB","website":"acme.se"},{"name":"Nordisk AI","staffCount":12}]`,
	}}
	d := New(f, "actor", WithPollOptions(apify.WithPollInterval(time.Millisecond)))

	got, err := d.Discover(context.Background(), "ai", []string{"Sweden", "Denmark"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Sweden", "Denmark"}, f.locations)

	assert.Equal(t, "acme.se", got[0].Domain)
	assert.Equal(t, "51-200", got[0].EmployeeCount)
	assert.Equal(t, "Sweden", got[0].Location)
	assert.Equal(t, "Acme AB", got[1].Name)
	assert.Equal(t, model.UnknownEmployeeCount, got[1].EmployeeCount)
	assert.Equal(t, "12", got[2].EmployeeCount)
	assert.Empty(t, got[2].Domain)
}

func TestDiscover_LimitIsPerLocation(t *testing.T) {
	f := &fakeApify{items: map[string]string{
		"Norway":  `[{"name":"A"},{"name":"B"},{"name":"C"}]`,
		"Finland": `[{"name":"D"}]`,
	}}
	d := New(f, "actor")

	got, err := d.Discover(context.Background(), "ai", []string{"Norway", "Finland"}, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Norway", "Finland"}, f.locations)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
	assert.Equal(t, "D", got[2].Name)
}

func TestDiscover_FullLocationDoesNotStopSearch(t *testing.T) {
	var items []string
	for i := 0; i < 20; i++ {
		items = append(items, fmt.Sprintf(`{"name":"Dansk %d"}`, i))
	}
	f := &fakeApify{items: map[string]string{
		"Denmark": "[" + strings.Join(items, ",") + "]",
		"Sweden":  `[{"name":"Acme AB"}]`,
	}}
	d := New(f, "actor", WithSync(true))

	locations := []string{"Denmark", "Sweden", "Norway", "Finland"}
	got, err := d.Discover(context.Background(), "ai", locations, 20)
	require.NoError(t, err)
	assert.Equal(t, locations, f.locations)
	assert.Len(t, got, 21)
	assert.Equal(t, "Sweden", got[20].Location)
}

func TestDiscover_PartialFailure(t *testing.T) {
	f := &fakeApify{
		items: map[string]string{"Finland": `[{"name":"Oulu Robotics"}]`},
		fail:  map[string]bool{"Sweden": true},
	}
	d := New(f, "actor")

	got, err := d.Discover(context.Background(), "ai", []string{"Sweden", "Finland"}, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Oulu Robotics", got[0].Name)
}

func TestDiscover_TotalFailureYieldsEmpty(t *testing.T) {
	f := &fakeApify{fail: map[string]bool{"Sweden": true, "Norway": true}}
	d := New(f, "actor", WithSync(true))

	got, err := d.Discover(context.Background(), "ai", []string{"Sweden", "Norway"}, 20)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 2, f.syncCalls)
}

func TestDiscover_CancelledContext(t *testing.T) {
	f := &fakeApify{}
	d := New(f, "actor")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Discover(ctx, "ai", []string{"Sweden"}, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.locations)
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.linkedin.com/search/results/companies/?keywords=machine+learning+Sweden",
		SearchURL(" machine learning ", "Sweden"))
}
