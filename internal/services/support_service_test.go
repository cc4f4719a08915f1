package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

func TestFAQPublishingFlow(t *testing.T) {
	db := openTestDB(t)
	svc := NewSupportService(db)

	first, err := svc.CreateFAQ(FAQInput{Question: "How long does processing take?", Answer: "Usually two weeks.", SortOrder: 2})
	require.NoError(t, err)
	assert.True(t, first.IsPublished)

	hidden := false
	second, err := svc.CreateFAQ(FAQInput{Question: "Internal draft entry", Answer: "Not ready.", IsPublished: &hidden, SortOrder: 1})
	require.NoError(t, err)

	public, err := svc.PublishedFAQs()
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, first.ID, public[0].ID)

	all, err := svc.AllFAQs()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "ordered by sort_order")

	shown := true
	_, err = svc.UpdateFAQ(second.ID, FAQInput{IsPublished: &shown, SortOrder: 1})
	require.NoError(t, err)
	public, err = svc.PublishedFAQs()
	require.NoError(t, err)
	assert.Len(t, public, 2)

	require.NoError(t, svc.DeleteFAQ(first.ID))
	assert.Error(t, svc.DeleteFAQ(first.ID))
}

func TestCreateFAQRequiresQuestionAndAnswer(t *testing.T) {
	db := openTestDB(t)
	svc := NewSupportService(db)
	_, err := svc.CreateFAQ(FAQInput{Question: "  ", Answer: "x"})
	assert.Error(t, err)
}

func TestFeedbackFlow(t *testing.T) {
	db := openTestDB(t)
	svc := NewSupportService(db)

	fb, err := svc.SubmitFeedback("Juan", "juan@example.com", "The tracker is very helpful.", nil, RequestMeta{IP: "10.0.0.9"})
	require.NoError(t, err)
	assert.False(t, fb.Resolved)
	assert.EqualValues(t, 1, auditCount(t, db, models.AuditSupportFeedback))

	_, err = svc.SubmitFeedback("", "", "   ", nil, RequestMeta{})
	assert.Error(t, err)

	items, total, err := svc.ListFeedback(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	require.NoError(t, svc.ResolveFeedback(fb.ID, true))
	items, _, err = svc.ListFeedback(1, 10)
	require.NoError(t, err)
	assert.True(t, items[0].Resolved)

	assert.Error(t, svc.ResolveFeedback(9999, true))
}
