package bootstrap

import (
	"log/slog"

	"github.com/tractify/tractify-go/internal/service"
	"github.com/tractify/tractify-go/internal/store"
)

// Stores bundles the collection caches backed by one authenticated fetcher.
type Stores struct {
	Members       *store.Store[store.Member]
	Staff         *store.Store[store.Staff]
	Profiles      *store.Store[store.Profile]
	Parcels       *store.Store[store.Parcel]
	Announcements *store.Store[store.Announcement]
}

// BuildStores wires the collection caches to the session manager. Each store
// registers its cache reset as a logout cleanup so no authenticated data
// survives the session.
func BuildStores(manager *service.SessionManager, client service.Caller, logger *slog.Logger) *Stores {
	fetch := service.NewFetch(service.FetchOptions{
		Manager: manager,
		Client:  client,
		Logger:  logger,
	})

	s := &Stores{
		Members:       store.NewMemberStore(fetch, logger),
		Staff:         store.NewStaffStore(fetch, logger),
		Profiles:      store.NewProfileStore(fetch, logger),
		Parcels:       store.NewParcelStore(fetch, logger),
		Announcements: store.NewAnnouncementStore(fetch, logger),
	}

	manager.RegisterCleanup(s.Members.Reset)
	manager.RegisterCleanup(s.Staff.Reset)
	manager.RegisterCleanup(s.Profiles.Reset)
	manager.RegisterCleanup(s.Parcels.Reset)
	manager.RegisterCleanup(s.Announcements.Reset)

	return s
}
