package types

import "time"

// RoomStatus is the lifecycle state of a listing. ARCHIVED is terminal.
type RoomStatus string

const (
	RoomActive   RoomStatus = "ACTIVE"
	RoomFull     RoomStatus = "FULL"
	RoomArchived RoomStatus = "ARCHIVED"
)

// Valid reports whether the status is one of the known values.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomActive, RoomFull, RoomArchived:
		return true
	}
	return false
}

// RoomType distinguishes how the space is let.
type RoomType string

const (
	RoomShared   RoomType = "SHARED"
	RoomPrivate  RoomType = "PRIVATE"
	RoomBedSpace RoomType = "BED_SPACE"
)

// Valid reports whether the room type is one of the known values.
func (t RoomType) Valid() bool {
	switch t {
	case RoomShared, RoomPrivate, RoomBedSpace:
		return true
	}
	return false
}

// Utilities records which utilities are included in the monthly price.
type Utilities struct {
	Electricity bool `json:"electricity,omitempty"`
	Water       bool `json:"water,omitempty"`
	Internet    bool `json:"internet,omitempty"`
	Gas         bool `json:"gas,omitempty"`
}

// RoomRules are the house rules stated by the owner.
type RoomRules struct {
	Smoking    string `json:"smoking,omitempty"`
	Alcohol    string `json:"alcohol,omitempty"`
	Visitors   string `json:"visitors,omitempty"`
	QuietHours string `json:"quietHours,omitempty"`
}

// RoomPreferences are the owner's stated tenant preferences. An unset field
// never excludes a searcher; only an explicitly conflicting value does.
type RoomPreferences struct {
	PreferredGender     string `json:"preferredGender,omitempty"`
	PreferredReligion   string `json:"preferredReligion,omitempty"`
	PreferredOccupation string `json:"preferredOccupation,omitempty"`
}

// Room is a rental listing owned by exactly one user.
type Room struct {
	// ID is the opaque unique identifier of the listing.
	ID string `json:"id"`

	// OwnerID is the id of the owning user. Ownership is exclusive.
	OwnerID string `json:"ownerId"`

	Country string `json:"country"`
	City    string `json:"city"`
	Area    string `json:"area"`

	RoomType      RoomType `json:"roomType"`
	BedsTotal     int      `json:"bedsTotal"`
	BedsAvailable int      `json:"bedsAvailable"`

	PriceMonthly  float64 `json:"priceMonthly"`
	DepositAmount float64 `json:"depositAmount,omitempty"`

	UtilitiesIncluded *Utilities       `json:"utilitiesIncluded,omitempty"`
	ShortStayAllowed  bool             `json:"shortStayAllowed"`
	MinStayMonths     int              `json:"minStayMonths,omitempty"`
	Rules             *RoomRules       `json:"rules,omitempty"`
	Preferences       *RoomPreferences `json:"preferences,omitempty"`

	Amenities   []string `json:"amenities,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Description string   `json:"description,omitempty"`

	Status RoomStatus `json:"status"`

	RatingAvg   float64 `json:"ratingAvg"`
	RatingCount int     `json:"ratingCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoomFilter is the conjunction of search criteria applied to ACTIVE
// listings. Zero values mean "not filtered". The preference fields are soft:
// they exclude a listing only when the listing explicitly states a
// conflicting value.
type RoomFilter struct {
	Country      string
	City         string
	Area         string
	MinPrice     *float64
	MaxPrice     *float64
	ShortStay    bool
	Amenities    []string
	Gender       string
	Religion     string
	Smoking      string
	StayDuration string
}

// OwnerSummary is the owner shape embedded in room detail responses.
type OwnerSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RatingAvg   float64 `json:"ratingAvg"`
	RatingCount int     `json:"ratingCount"`
}
