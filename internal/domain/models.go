package domain

import (
	"encoding/json"
	"time"
)

// Domain contains the wire models exchanged with the dashboard backend. The
// API client itself is schema-agnostic; these types shape request bodies and
// give callers something to decode responses into.

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Date is a calendar date serialized as an ISO-8601 timestamp at UTC midnight.
// Only birth dates use it; anything with a time of day is a time.Time.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	y, m, day := d.Date()
	return json.Marshal(time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			d.Time = t
			return nil
		}
	}
	return &time.ParseError{Layout: time.RFC3339, Value: *s, Message: ": unrecognized date"}
}

// RegisterInput is the profile submitted on sign-up.
type RegisterInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Gender      string `json:"gender,omitempty"`
	BirthDate   Date   `json:"birthDate"`
}

// User is the profile the backend returns after login.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Contact is a customer record.
type Contact struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Company     string `json:"company,omitempty"`
	Status      string `json:"status,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Product is a stock item.
type Product struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// Todo is a task owned by a user. DueDate keeps the time of day; nil means
// no due date.
type Todo struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
}

// CountryCode is one dialing-code entry.
type CountryCode struct {
	Code    string `json:"code"`
	Country string `json:"country,omitempty"`
	Flag    string `json:"flag,omitempty"`
}

// SalesSeriesQuery filters the sales time series.
type SalesSeriesQuery struct {
	From     time.Time
	To       time.Time
	UserOnly *bool
}
