package store

import (
	"log/slog"
	"time"
)

// Member is a dormitory resident record.
type Member struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	DormID     string `json:"dormId"`
	RoomNumber string `json:"roomNumber"`
}

// Staff is a staff account record.
type Staff struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Position  string `json:"position"`
}

// Profile is the editable profile view of the current account.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Parcel statuses as reported by the backend.
const (
	ParcelStatusArrived  = "ARRIVED"
	ParcelStatusNotified = "NOTIFIED"
	ParcelStatusPickedUp = "PICKED_UP"
	ParcelStatusReturned = "RETURNED"
)

// Parcel is a package awaiting or past pickup.
type Parcel struct {
	ID           string     `json:"id"`
	TrackingCode string     `json:"trackingCode"`
	Carrier      string     `json:"carrier,omitempty"`
	RecipientID  string     `json:"recipientId"`
	Status       string     `json:"status"`
	ArrivedAt    time.Time  `json:"arrivedAt"`
	PickedUpAt   *time.Time `json:"pickedUpAt,omitempty"`
}

// Announcement is a staff-posted notice shown to residents.
type Announcement struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	PostedAt time.Time `json:"postedAt"`
}

// NewMemberStore builds the members collection cache.
func NewMemberStore(fetch Fetcher, logger *slog.Logger) *Store[Member] {
	return New(Options[Member]{
		Resource: "members",
		Fetch:    fetch,
		ID:       func(m Member) string { return m.ID },
		Logger:   logger,
	})
}

// NewStaffStore builds the staff collection cache.
func NewStaffStore(fetch Fetcher, logger *slog.Logger) *Store[Staff] {
	return New(Options[Staff]{
		Resource: "staff",
		Fetch:    fetch,
		ID:       func(s Staff) string { return s.ID },
		Logger:   logger,
	})
}

// NewProfileStore builds the profiles collection cache.
func NewProfileStore(fetch Fetcher, logger *slog.Logger) *Store[Profile] {
	return New(Options[Profile]{
		Resource: "profiles",
		Fetch:    fetch,
		ID:       func(p Profile) string { return p.ID },
		Logger:   logger,
	})
}

// NewParcelStore builds the parcels collection cache.
func NewParcelStore(fetch Fetcher, logger *slog.Logger) *Store[Parcel] {
	return New(Options[Parcel]{
		Resource: "parcels",
		Fetch:    fetch,
		ID:       func(p Parcel) string { return p.ID },
		Logger:   logger,
	})
}

// NewAnnouncementStore builds the announcements collection cache.
func NewAnnouncementStore(fetch Fetcher, logger *slog.Logger) *Store[Announcement] {
	return New(Options[Announcement]{
		Resource: "announcements",
		Fetch:    fetch,
		ID:       func(a Announcement) string { return a.ID },
		Logger:   logger,
	})
}
