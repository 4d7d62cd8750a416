package models

import "time"

// FarmerProfile is the profile record served by the backend.
type FarmerProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	Village     string   `json:"village,omitempty"`
	District    string   `json:"district,omitempty"`
	State       string   `json:"state,omitempty"`
	Language    string   `json:"language,omitempty"`
	LandAcres   float64  `json:"land_acres,omitempty"`
	Crops       []string `json:"crops,omitempty"`
	CattleCount int      `json:"cattle_count,omitempty"`
}

// RentalItem is a piece of equipment listed in the rental marketplace.
type RentalItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	OwnerID     string  `json:"owner_id,omitempty"`
	PricePerDay float64 `json:"price_per_day"`
	Location    string  `json:"location,omitempty"`
	Available   bool    `json:"available"`
}

// RentalBooking is a request to rent an item for a date range.
type RentalBooking struct {
	ItemID    string `json:"item_id"`
	FarmerID  string `json:"farmer_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes,omitempty"`
}

// RentalBookingResult is the backend's answer to a booking.
type RentalBookingResult struct {
	BookingID  string  `json:"booking_id"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// CalendarEvent is a farming calendar entry.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Type     string    `json:"type,omitempty"`
	Crop     string    `json:"crop,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Complete bool      `json:"complete,omitempty"`
}

// VoiceCommandResult is the transcription and reply for an uploaded voice command.
type VoiceCommandResult struct {
	Transcript string         `json:"transcript"`
	Response   string         `json:"response"`
	Language   string         `json:"language,omitempty"`
	Action     string         `json:"action,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}
