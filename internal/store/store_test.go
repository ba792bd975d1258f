package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractify/tractify-go/internal/testutil"
)

// fakeFetcher scripts JSON replies per method+path and records calls.
type fakeFetcher struct {
	mu      sync.Mutex
	replies map[string]func(out any) error
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{replies: map[string]func(out any) error{}}
}

func (f *fakeFetcher) on(method, path string, fn func(out any) error) {
	f.replies[method+" "+path] = fn
}

func (f *fakeFetcher) JSON(_ context.Context, method, path string, _, out any) error {
	f.mu.Lock()
	key := method + " " + path
	f.calls = append(f.calls, key)
	fn, ok := f.replies[key]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("unexpected call %s", key)
	}
	return fn(out)
}

func reply[T any](items T) func(out any) error {
	return func(out any) error {
		if out == nil {
			return nil
		}
		ptr, ok := out.(*T)
		if !ok {
			return fmt.Errorf("unexpected out type %T", out)
		}
		*ptr = items
		return nil
	}
}

func noContent(out any) error { return nil }

func testParcels() []Parcel {
	arrived := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return []Parcel{
		{ID: "p1", TrackingCode: "TC1", RecipientID: "u1", Status: ParcelStatusArrived, ArrivedAt: arrived},
		{ID: "p2", TrackingCode: "TC2", RecipientID: "u2", Status: ParcelStatusNotified, ArrivedAt: arrived},
	}
}

func newParcelFixture(t *testing.T) (*Store[Parcel], *fakeFetcher) {
	t.Helper()
	fetcher := newFakeFetcher()
	s := NewParcelStore(fetcher, nil)
	s.now = testutil.FixedTimeFunc(testutil.TestTime())
	return s, fetcher
}

func TestNew_RequiresOptions(t *testing.T) {
	fetcher := newFakeFetcher()
	id := func(p Parcel) string { return p.ID }

	assert.Panics(t, func() { New(Options[Parcel]{Fetch: fetcher, ID: id}) })
	assert.Panics(t, func() { New(Options[Parcel]{Resource: "parcels", ID: id}) })
	assert.Panics(t, func() { New(Options[Parcel]{Resource: "parcels", Fetch: fetcher}) })
}

func TestList_ReplacesLiveCache(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))

	items, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, items, s.Live())

	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()[:1]))
	items, err = s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestList_ErrorLeavesCacheAlone(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))

	_, err := s.List(context.Background())
	require.NoError(t, err)

	fetcher.on(http.MethodGet, "/api/parcels", func(any) error { return errors.New("network down") })
	_, err = s.List(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Live(), 2)
}

func TestAdd_AppendsCreatedRecord(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	created := Parcel{ID: "p9", TrackingCode: "TC9", RecipientID: "u1", Status: ParcelStatusArrived}
	fetcher.on(http.MethodPost, "/api/parcels", reply(created))

	got, err := s.Add(context.Background(), Parcel{TrackingCode: "TC9", RecipientID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "p9", got.ID)

	live := s.Live()
	require.Len(t, live, 1)
	assert.Equal(t, created, live[0])
}

func TestUpdate_SplicesUpdatedCopy(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	updated := testParcels()[0]
	updated.Status = ParcelStatusPickedUp
	fetcher.on(http.MethodPut, "/api/parcels/p1", reply(updated))

	got, err := s.Update(context.Background(), "p1", updated)
	require.NoError(t, err)
	assert.Equal(t, ParcelStatusPickedUp, got.Status)

	live := s.Live()
	require.Len(t, live, 2)
	assert.Equal(t, ParcelStatusPickedUp, live[0].Status)
	assert.Equal(t, "p2", live[1].ID)
}

func TestMoveToTrash_SoftDeletes(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	fetcher.on(http.MethodPost, "/api/parcels/p1/trash", noContent)
	require.NoError(t, s.MoveToTrash(context.Background(), "p1"))

	live := s.Live()
	require.Len(t, live, 1)
	assert.Equal(t, "p2", live[0].ID)

	trashed := s.Trashed()
	require.Len(t, trashed, 1)
	assert.Equal(t, "p1", trashed[0].Original.ID)
	assert.Equal(t, trashed[0].Item, trashed[0].Original)
	assert.Equal(t, testutil.TestTime(), trashed[0].DeletedAt)
}

func TestRestoreFromTrash_ReinstatesOriginal(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	fetcher.on(http.MethodPost, "/api/parcels/p1/trash", noContent)
	require.NoError(t, s.MoveToTrash(context.Background(), "p1"))

	fetcher.on(http.MethodPost, "/api/parcels/p1/restore", noContent)
	require.NoError(t, s.RestoreFromTrash(context.Background(), "p1"))

	assert.Len(t, s.Live(), 2)
	assert.Empty(t, s.Trashed())

	// The reinstated record is the pristine pre-delete copy.
	var found bool
	for _, p := range s.Live() {
		if p.ID == "p1" {
			found = true
			assert.Equal(t, testParcels()[0], p)
		}
	}
	assert.True(t, found)
}

func TestDeletePermanent_RemovesEverywhere(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	fetcher.on(http.MethodPost, "/api/parcels/p1/trash", noContent)
	require.NoError(t, s.MoveToTrash(context.Background(), "p1"))

	fetcher.on(http.MethodDelete, "/api/parcels/p1", noContent)
	require.NoError(t, s.DeletePermanent(context.Background(), "p1"))
	assert.Empty(t, s.Trashed())
	assert.Len(t, s.Live(), 1)

	fetcher.on(http.MethodDelete, "/api/parcels/p2", noContent)
	require.NoError(t, s.DeletePermanent(context.Background(), "p2"))
	assert.Empty(t, s.Live())
}

func TestMutations_FailWhenBackendRejects(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	rejection := errors.New("backend rejected")
	fetcher.on(http.MethodPost, "/api/parcels/p1/trash", func(any) error { return rejection })

	err = s.MoveToTrash(context.Background(), "p1")
	require.ErrorIs(t, err, rejection)

	// Local caches stay untouched when the backend call fails.
	assert.Len(t, s.Live(), 2)
	assert.Empty(t, s.Trashed())
}

func TestReset_DropsBothCaches(t *testing.T) {
	s, fetcher := newParcelFixture(t)
	fetcher.on(http.MethodGet, "/api/parcels", reply(testParcels()))
	_, err := s.List(context.Background())
	require.NoError(t, err)

	fetcher.on(http.MethodPost, "/api/parcels/p1/trash", noContent)
	require.NoError(t, s.MoveToTrash(context.Background(), "p1"))

	s.Reset()
	assert.Empty(t, s.Live())
	assert.Empty(t, s.Trashed())
}

func TestStoreConstructors_UseResourcePaths(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(http.MethodGet, "/api/members", reply([]Member{{ID: "m1"}}))
	fetcher.on(http.MethodGet, "/api/staff", reply([]Staff{{ID: "s1"}}))
	fetcher.on(http.MethodGet, "/api/profiles", reply([]Profile{{ID: "pr1"}}))
	fetcher.on(http.MethodGet, "/api/announcements", reply([]Announcement{{ID: "a1"}}))

	ctx := context.Background()
	members, err := NewMemberStore(fetcher, nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	staff, err := NewStaffStore(fetcher, nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, staff, 1)

	profiles, err := NewProfileStore(fetcher, nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	notices, err := NewAnnouncementStore(fetcher, nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, notices, 1)
}
