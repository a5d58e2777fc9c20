package models

import "time"

// Message is a single inbound chat message, as handed over by the chat
// transport. Only the fields the event pipeline needs are carried here.
type Message struct {
	ID        string    `json:"id"`        // Transport-assigned message identifier
	Channel   string    `json:"channel"`   // Chat/group identifier the message arrived on
	Sender    string    `json:"sender"`    // Display name or address of the author
	Text      string    `json:"text"`      // Raw message body
	Timestamp time.Time `json:"timestamp"` // When the message was sent
}

// EventCandidate holds the loosely structured event attributes the extraction
// service pulled out of a message. Every field is independently optional;
// an empty string means the attribute was not mentioned.
type EventCandidate struct {
	Title       string `json:"title"`
	DatePhrase  string `json:"date"` // Free-form, e.g. "Monday", "יום שני", "25/12/2024"
	TimePhrase  string `json:"time"` // Free-form, e.g. "15:00", "3 PM", "בשעה 18:00"
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Record is an announced event: the encoded iCalendar payload plus the
// display metadata the delivery backends need.
type Record struct {
	UID         string // Unique identifier, also used as the object name on CalDAV
	Audience    string // Routing label for the target audience
	Summary     string // Event title
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	ICS         string // The serialized calendar record
}
