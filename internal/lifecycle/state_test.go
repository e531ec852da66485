package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capctl/internal/capability"
)

func TestStateAffordances(t *testing.T) {
	assert.True(t, State{Status: capability.StatusDownloadable}.CanDownload())
	assert.False(t, State{Status: capability.StatusDownloadable}.CanInvoke())
	assert.True(t, State{Status: capability.StatusAvailable}.CanInvoke())
	assert.False(t, State{}.CanDownload())
	assert.False(t, State{}.HasError())
}

func TestSubscribe_ReceivesTransitionsInOrder(t *testing.T) {
	p := &fakeProvider{
		supported: true,
		statuses:  []capability.Status{capability.StatusDownloadable, capability.StatusAvailable},
		progress:  []float64{10, 55, 100},
	}
	m := newTranslatorManager(t, p)
	sub := m.Subscribe(32)

	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	require.NoError(t, m.Download(context.Background(), capability.TranslatorOptions{}, nil))
	m.Unsubscribe(sub)

	var statuses []capability.Status
	var progress []float64
	for ev := range sub.Channel {
		assert.Equal(t, capability.KindTranslator, ev.Kind)
		statuses = append(statuses, ev.New.Status)
		progress = append(progress, ev.New.DownloadProgress)
	}

	assert.Equal(t, []capability.Status{
		capability.StatusDownloadable,
		capability.StatusDownloading,
		capability.StatusDownloading,
		capability.StatusDownloading,
		capability.StatusDownloading,
		capability.StatusAvailable,
	}, statuses)
	assert.Equal(t, []float64{0, 0, 10, 55, 100, 100}, progress)
}

func TestSubscribe_NoEventWithoutChange(t *testing.T) {
	m := newTranslatorManager(t, &fakeProvider{supported: true})
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	sub := m.Subscribe(4)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	m.ClearError()

	assert.Empty(t, sub.Channel)
}

func TestSubscribe_SlowSubscriberDropsEvents(t *testing.T) {
	p := &fakeProvider{supported: true, progress: []float64{1, 2, 3, 4, 5}}
	m := newTranslatorManager(t, p)
	sub := m.Subscribe(2)

	require.NoError(t, m.Download(context.Background(), capability.TranslatorOptions{}, nil))

	assert.Len(t, sub.Channel, 2)
	assert.Positive(t, sub.Dropped())
	assert.Equal(t, 5.0, m.DownloadProgress(), "the manager never waits on subscribers")
}

func TestClose_ClosesSubscriptions(t *testing.T) {
	m := newTranslatorManager(t, &fakeProvider{supported: true})
	sub := m.Subscribe(1)

	m.Close()
	m.Close()
	assert.True(t, sub.IsClosed())

	_, ok := <-sub.Channel
	assert.False(t, ok)

	late := m.Subscribe(1)
	assert.True(t, late.IsClosed())

	m.Unsubscribe(sub)
	m.Unsubscribe(nil)
}
