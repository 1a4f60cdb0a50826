package domain

import "time"

// Lead is a sales lead tied to a business.
type Lead struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	AccountID  string    `json:"accountId,omitempty"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Source     string    `json:"source,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BookingStatus values persisted on booking records.
const (
	BookingStatusScheduled   = "scheduled"
	BookingStatusRescheduled = "rescheduled"
	BookingStatusCancelled   = "cancelled"
	BookingStatusCompleted   = "completed"
)

// Booking is a scheduled appointment for a lead.
type Booking struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"leadId"`
	BusinessID string    `json:"businessId"`
	Address    Address   `json:"address"`
	StartTime  time.Time `json:"startTime"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Address is the service address attached to a booking.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// AddressVerification is the input to the automation platform's
// address check.
type AddressVerification struct {
	LeadID     string  `json:"leadId"`
	AccountID  string  `json:"accountId,omitempty"`
	BusinessID string  `json:"businessId"`
	Address    Address `json:"address"`
}

// AddressResult is the automation platform's verdict on an address.
type AddressResult struct {
	Serviceable bool    `json:"serviceable"`
	Normalized  Address `json:"normalized"`
}

// BookingRequest creates a booking through the automation webhook.
type BookingRequest struct {
	LeadID     string    `json:"leadId"`
	AccountID  string    `json:"accountId,omitempty"`
	BusinessID string    `json:"businessId"`
	Address    Address   `json:"address"`
	StartTime  time.Time `json:"startTime"`
}

// FreeSlot is an open appointment window on the calendar.
type FreeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DashboardMetrics aggregates headline numbers for the accessible
// business set.
type DashboardMetrics struct {
	TotalLeads       int `json:"totalLeads"`
	NewLeads         int `json:"newLeads"`
	TotalBookings    int `json:"totalBookings"`
	UpcomingBookings int `json:"upcomingBookings"`
	CallsAnswered    int `json:"callsAnswered"`
	CallsMissed      int `json:"callsMissed"`
}
