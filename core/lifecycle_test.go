// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkeye/model"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		from   model.ChartStatus
		action Action
		want   model.ChartStatus
	}{
		{model.StatusDraft, ActionSubmit, model.StatusReview},
		{model.StatusReview, ActionApprove, model.StatusApproved},
		{model.StatusReview, ActionReject, model.StatusDraft},
		{model.StatusReview, ActionPublish, model.StatusLive},
		{model.StatusApproved, ActionPublish, model.StatusLive},
		{model.StatusLive, ActionGoLive, model.StatusPortalLive},
		{model.StatusLive, ActionRetire, model.StatusRetired},
		{model.StatusPortalLive, ActionRetire, model.StatusRetired},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := Advance(tt.from, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvanceRejectsIllegalTransitions(t *testing.T) {
	tests := []struct {
		from   model.ChartStatus
		action Action
	}{
		{model.StatusDraft, ActionPublish},
		{model.StatusDraft, ActionApprove},
		{model.StatusApproved, ActionReject},
		{model.StatusLive, ActionPublish},
		{model.StatusReview, ActionGoLive},
		{model.StatusPortalLive, ActionGoLive},
		{model.StatusDraft, Action("delete")},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := Advance(tt.from, tt.action)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.from, got)
		})
	}

	_, err := Advance(model.StatusDraft, ActionPublish)
	assert.EqualError(t, err, `cannot publish chart in status "draft": requires review or approved`)
}

func TestRetiredIsTerminal(t *testing.T) {
	for _, action := range []Action{ActionSubmit, ActionApprove, ActionReject, ActionPublish, ActionGoLive, ActionRetire} {
		_, err := Advance(model.StatusRetired, action)
		assert.Error(t, err, action)
	}
}

func TestRetryPolicyStopsAtMaxAttempts(t *testing.T) {
	var delays []time.Duration
	p := RetryPolicy{MaxAttempts: 6, Delay: 2 * time.Second, Sleep: func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}}
	boom := errors.New("boom")
	calls := 0
	attempts, err := p.Do(t.Context(), func(context.Context, int) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 6, attempts)
	assert.Equal(t, 6, calls)
	assert.Len(t, delays, 5)
	for _, d := range delays {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, Delay: time.Second, Multiplier: 2, Sleep: noSleep}
	var seen []int
	attempts, err := p.Do(t.Context(), func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRetryPolicyPermanentError(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, Sleep: noSleep}
	bad := errors.New("bad input")
	attempts, err := p.Do(t.Context(), func(context.Context, int) error {
		return Permanent(bad)
	})
	require.ErrorIs(t, err, bad)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicyHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	p := RetryPolicy{MaxAttempts: 6, Delay: time.Hour}
	attempts, err := p.Do(ctx, func(context.Context, int) error {
		cancel()
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func noSleep(context.Context, time.Duration) error { return nil }
