package webhook

import "encoding/json"

// Type discriminates Clerk webhook events. The three user lifecycle types are
// the only ones this service acts on; everything else is acknowledged and
// dropped.
type Type string

const (
	TypeUserCreated Type = "user.created"
	TypeUserUpdated Type = "user.updated"
	TypeUserDeleted Type = "user.deleted"
)

// Event is a verified webhook delivery. Data's shape depends on Type.
type Event struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData mirrors the user object Clerk embeds in lifecycle events.
type UserData struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the first listed email address, matching how the web
// app picked the address at signup.
func (d UserData) PrimaryEmail() string {
	if len(d.EmailAddresses) == 0 {
		return ""
	}
	return d.EmailAddresses[0].EmailAddress
}

// UserData decodes the event payload as a user object.
func (e Event) UserData() (UserData, error) {
	var data UserData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return UserData{}, err
	}
	return data, nil
}
