package sink

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) FindLeadByDomain(ctx context.Context, domain string) (string, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Error(1)
}

func (m *mockNotion) CreateLead(ctx context.Context, lead notion.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *mockNotion) UpdateLead(ctx context.Context, pageID string, lead notion.Lead) error {
	return m.Called(ctx, pageID, lead).Error(0)
}

func TestNotionSink_CreatesLead(t *testing.T) {
	ctx := context.Background()
	mc := new(mockNotion)

	mc.On("FindLeadByDomain", ctx, "acme.se").Return("", nil)
	mc.On("CreateLead", ctx, mock.MatchedBy(func(l notion.Lead) bool {
		return l.Name == "Acme AI AB" && l.Category == "startup_small" && l.Strategy == "Lead with inference cost savings."
	})).Return("page-1", nil)

	s := NewNotion(mc)
	require.NoError(t, s.Write(ctx, sampleRecord()))
	assert.Equal(t, "notion", s.Name())
	mc.AssertExpectations(t)
}

func TestNotionSink_UpdatesExisting(t *testing.T) {
	ctx := context.Background()
	mc := new(mockNotion)

	mc.On("FindLeadByDomain", ctx, "acme.se").Return("page-9", nil)
	mc.On("UpdateLead", ctx, "page-9", mock.AnythingOfType("notion.Lead")).Return(nil)

	require.NoError(t, NewNotion(mc).Write(ctx, sampleRecord()))
	mc.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
	mc.AssertExpectations(t)
}

func TestNotionSink_Error(t *testing.T) {
	ctx := context.Background()
	mc := new(mockNotion)
	mc.On("FindLeadByDomain", ctx, "acme.se").Return("", eris.New("unauthorized"))

	err := NewNotion(mc).Write(ctx, sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion sink: upsert")
}

func TestNotionLead(t *testing.T) {
	lead := notionLead(sampleRecord())

	assert.Equal(t, "acme.se", lead.Domain)
	assert.Equal(t, "startup_small", lead.Category)
	assert.Equal(t, "11-50", lead.Employees)
	assert.Equal(t, "run-1", lead.RunID)
	assert.Equal(t, []string{"Anna Lind (CTO) <anna@acme.se>", "Erik Berg (CEO)"}, lead.Contacts)
	assert.Equal(t, []string{"PyTorch", "machine learning", "AWS"}, lead.Stack)
}

func TestFormatContact(t *testing.T) {
	assert.Equal(t, "Solo", formatContact(model.Contact{Name: "Solo"}))
	assert.Equal(t, "Solo <s@x.io>", formatContact(model.Contact{Name: "Solo", Email: "s@x.io"}))
}
