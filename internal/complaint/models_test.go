package complaint

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

func validDraft() Draft {
	return Draft{
		Category: CategoryHostel,
		Severity: SeverityMedium,
		Title:    "Broken window in block C",
		Body:     "The window in room 214 has been broken for two weeks now.",
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"submitted to in_progress", StatusSubmitted, StatusInProgress, true},
		{"submitted to resolved", StatusSubmitted, StatusResolved, true},
		{"in_progress to resolved", StatusInProgress, StatusResolved, true},
		{"in_progress to submitted", StatusInProgress, StatusSubmitted, false},
		{"resolved to submitted", StatusResolved, StatusSubmitted, false},
		{"resolved to in_progress", StatusResolved, StatusInProgress, false},
		{"resolved to resolved", StatusResolved, StatusResolved, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestDraftValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *Draft)
		code   dErrors.Code
	}{
		{"valid draft", func(d *Draft) {}, ""},
		{"unknown category", func(d *Draft) { d.Category = "parking" }, dErrors.CodeValidation},
		{"unknown severity", func(d *Draft) { d.Severity = "critical" }, dErrors.CodeValidation},
		{"title too short", func(d *Draft) { d.Title = "Bad" }, dErrors.CodeValidation},
		{"title too long", func(d *Draft) { d.Title = strings.Repeat("x", 101) }, dErrors.CodeValidation},
		{"multibyte title counts runes not bytes", func(d *Draft) { d.Title = strings.Repeat("жалоба", 10) }, ""},
		{"multibyte title too long", func(d *Draft) { d.Title = strings.Repeat("ж", 101) }, dErrors.CodeValidation},
		{"body too short", func(d *Draft) { d.Body = "too short" }, dErrors.CodeValidation},
		{"body too long", func(d *Draft) { d.Body = strings.Repeat("x", 1001) }, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			d.Normalize()
			err := d.Validate()
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestDraftNormalizeTrimsWhitespace(t *testing.T) {
	d := validDraft()
	d.Title = "  " + d.Title + "  "
	d.Body = "\n" + d.Body + "\t"
	d.Normalize()
	require.NoError(t, d.Validate())
	assert.Equal(t, validDraft().Title, d.Title)
}

func TestComplaintLifecycle(t *testing.T) {
	now := time.Now()

	newComplaint := func(t *testing.T) *Complaint {
		c, err := New(id.NewComplaintID(), id.NewPrincipalID(), validDraft(), now)
		require.NoError(t, err)
		return c
	}

	t.Run("new complaint starts submitted and active", func(t *testing.T) {
		c := newComplaint(t)
		assert.Equal(t, StatusSubmitted, c.Status)
		assert.True(t, c.IsActive())
		assert.Nil(t, c.ResolvedAt)
	})

	t.Run("resolution stamps ResolvedAt and deactivates", func(t *testing.T) {
		c := newComplaint(t)
		require.NoError(t, c.CanTransition(StatusResolved))
		c.ApplyTransition(StatusResolved, now)
		require.NotNil(t, c.ResolvedAt)
		assert.False(t, c.IsActive())
	})

	t.Run("withdrawal is rejected after resolution", func(t *testing.T) {
		c := newComplaint(t)
		c.ApplyTransition(StatusResolved, now)
		err := c.CanWithdraw()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("double withdrawal is rejected", func(t *testing.T) {
		c := newComplaint(t)
		require.NoError(t, c.CanWithdraw())
		c.ApplyWithdrawal("filed by mistake", now)
		assert.False(t, c.IsActive())
		err := c.CanWithdraw()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rating requires resolution", func(t *testing.T) {
		c := newComplaint(t)
		err := c.CanRate(4)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rating bounds are enforced", func(t *testing.T) {
		c := newComplaint(t)
		c.ApplyTransition(StatusResolved, now)
		assert.True(t, dErrors.HasCode(c.CanRate(0), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(c.CanRate(6), dErrors.CodeValidation))
		assert.NoError(t, c.CanRate(5))
	})

	t.Run("rating is recorded at most once", func(t *testing.T) {
		c := newComplaint(t)
		c.ApplyTransition(StatusResolved, now)
		require.NoError(t, c.CanRate(3))
		c.ApplyRating(3)
		err := c.CanRate(5)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		require.NotNil(t, c.Rating)
		assert.Equal(t, 3, *c.Rating)
	})

	t.Run("redaction zeroes the submitter only", func(t *testing.T) {
		c := newComplaint(t)
		c.Anonymous = true
		r := c.Redacted()
		assert.True(t, r.SubmitterID.IsNil())
		assert.Equal(t, c.Title, r.Title)
		assert.False(t, c.SubmitterID.IsNil(), "original must stay intact")
	})
}
