// Package zenmoney is the gateway to the remote ledger service. The
// whole protocol is one endpoint: POST /v8/diff/ both reads changes
// since a cursor and commits any entities included in the request body.
package zenmoney

import "zenledger/internal/core"

// DiffRequest is the request body for the diff endpoint. ServerTimestamp
// is the client's cursor; zero requests the full state. Any populated
// entity slice is committed server-side in the same round trip.
type DiffRequest struct {
	CurrentClientTimestamp int64 `json:"currentClientTimestamp"`
	ServerTimestamp        int64 `json:"serverTimestamp"`

	Instrument     []core.Instrument     `json:"instrument,omitempty"`
	Company        []core.Company        `json:"company,omitempty"`
	User           []core.User           `json:"user,omitempty"`
	Account        []core.Account        `json:"account,omitempty"`
	Tag            []core.Tag            `json:"tag,omitempty"`
	Merchant       []core.Merchant       `json:"merchant,omitempty"`
	Transaction    []core.Transaction    `json:"transaction,omitempty"`
	Reminder       []core.Reminder       `json:"reminder,omitempty"`
	ReminderMarker []core.ReminderMarker `json:"reminderMarker,omitempty"`
	Budget         []core.Budget         `json:"budget,omitempty"`
	Deletion       []core.Deletion       `json:"deletion,omitempty"`
}

// Diff is the response: the new cursor, every entity changed since the
// requested one (including anything the request just committed), and
// structural deletions. Deletions are disjoint from the entity arrays.
type Diff struct {
	ServerTimestamp int64 `json:"serverTimestamp"`

	Instrument     []core.Instrument     `json:"instrument,omitempty"`
	Company        []core.Company        `json:"company,omitempty"`
	User           []core.User           `json:"user,omitempty"`
	Account        []core.Account        `json:"account,omitempty"`
	Tag            []core.Tag            `json:"tag,omitempty"`
	Merchant       []core.Merchant       `json:"merchant,omitempty"`
	Transaction    []core.Transaction    `json:"transaction,omitempty"`
	Reminder       []core.Reminder       `json:"reminder,omitempty"`
	ReminderMarker []core.ReminderMarker `json:"reminderMarker,omitempty"`
	Budget         []core.Budget         `json:"budget,omitempty"`
	Deletion       []core.Deletion       `json:"deletion,omitempty"`
}

// Changes is the client-side write payload: the entities a caller wants
// committed. It maps one-to-one onto the optional arrays of DiffRequest.
type Changes struct {
	Account        []core.Account
	Transaction    []core.Transaction
	Reminder       []core.Reminder
	ReminderMarker []core.ReminderMarker
	Budget         []core.Budget
	Deletion       []core.Deletion
}

// IsEmpty reports whether the payload carries nothing to commit.
func (c *Changes) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Account) == 0 && len(c.Transaction) == 0 && len(c.Reminder) == 0 &&
		len(c.ReminderMarker) == 0 && len(c.Budget) == 0 && len(c.Deletion) == 0
}

// NewRequest assembles the body for one diff round trip: the cursor,
// the wall-clock stamp, and whatever the caller wants committed.
func NewRequest(cursor, clientTimestamp int64, changes *Changes) *DiffRequest {
	req := &DiffRequest{
		CurrentClientTimestamp: clientTimestamp,
		ServerTimestamp:        cursor,
	}
	changes.apply(req)
	return req
}

func (c *Changes) apply(req *DiffRequest) {
	if c == nil {
		return
	}
	req.Account = c.Account
	req.Transaction = c.Transaction
	req.Reminder = c.Reminder
	req.ReminderMarker = c.ReminderMarker
	req.Budget = c.Budget
	req.Deletion = c.Deletion
}
