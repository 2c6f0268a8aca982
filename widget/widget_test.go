package widget_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
	"github.com/warp/office-attendance/store"
	"github.com/warp/office-attendance/store/memory"
	"github.com/warp/office-attendance/visit"
	"github.com/warp/office-attendance/widget"
)

var (
	march2025 = calendar.Month{Year: 2025, Month: time.March}
	published = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
)

// fakeSource is a widget.Source with canned values.
type fakeSource struct {
	progress visit.Progress
	current  *visit.OfficeVisit
}

func (f fakeSource) MonthProgress() visit.Progress { return f.progress }

func (f fakeSource) CurrentVisit() (*visit.OfficeVisit, bool) {
	return f.current, f.current != nil
}

func inOfficeSource(t *testing.T) fakeSource {
	v := visit.NewVisit(calendar.NewDay(2025, time.March, 14), geo.Coordinate{})
	require.NoError(t, v.StartNewSession(time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)))
	return fakeSource{progress: visit.NewProgress(march2025, 5, 10), current: v}
}

func newPublisher(kv store.KV) *widget.Publisher {
	return widget.NewPublisher(widget.PublisherConfig{
		KV:     kv,
		Now:    func() time.Time { return published },
		Logger: zerolog.Nop(),
	})
}

func TestPublish_ThenRead(t *testing.T) {
	// GIVEN: a snapshot published while in the office
	ctx := context.Background()
	kv := memory.New()
	newPublisher(kv).Publish(ctx, inOfficeSource(t))

	// WHEN: a reader looks an hour later
	snap, ok, err := widget.Read(ctx, kv, published.Add(time.Hour))

	// THEN: progress and presence are reported
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, march2025, snap.Month)
	assert.Equal(t, 5, snap.Current)
	assert.Equal(t, 10, snap.Goal)
	assert.InDelta(t, 0.5, snap.Percentage, 1e-9)
	assert.True(t, snap.IsInOffice)
	require.NotNil(t, snap.EntryTime)
	assert.True(t, snap.EntryTime.Equal(time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)))
	assert.False(t, snap.Stale)
}

func TestRead_StaleAfterMaxAge(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	newPublisher(kv).Publish(ctx, inOfficeSource(t))

	atLimit, _, err := widget.Read(ctx, kv, published.Add(widget.MaxAge))
	require.NoError(t, err)
	assert.True(t, atLimit.IsInOffice)
	assert.False(t, atLimit.Stale)

	stale, _, err := widget.Read(ctx, kv, published.Add(widget.MaxAge+time.Second))
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.False(t, stale.IsInOffice)
	assert.Nil(t, stale.EntryTime)
	assert.Equal(t, 5, stale.Current, "progress survives staleness")
}

func TestRead_NothingPublished(t *testing.T) {
	_, ok, err := widget.Read(context.Background(), memory.New(), published)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRead_Undecodable(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, store.KeyWidgetSnapshot, []byte("nope")))

	_, ok, err := widget.Read(ctx, kv, published)

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPublish_FailureStillReturnsSnapshot(t *testing.T) {
	kv := memory.New()
	require.NoError(t, kv.Close())

	snap := newPublisher(kv).Publish(context.Background(), fakeSource{progress: visit.NewProgress(march2025, 1, 4)})

	assert.Equal(t, 1, snap.Current)
	assert.False(t, snap.IsInOffice)
	assert.Nil(t, snap.EntryTime)
}
