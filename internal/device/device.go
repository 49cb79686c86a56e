package device

import "fmt"

// User is a device-local user profile. Index is the position in the device's
// user list and addresses the record store; ID is the Android user id passed
// to --user.
type User struct {
	Index     int
	ID        int
	Protected bool
	// Implicit marks the single stand-in user of a device that reported at
	// most one profile. Commands for it carry no --user flag.
	Implicit bool
}

func (u User) String() string {
	if u.Implicit {
		return "default user"
	}
	return fmt.Sprintf("user %d", u.ID)
}

// Device is the active handset for a session. It does not change once
// discovered; a different device means a new session state.
type Device struct {
	Serial     string
	Model      string
	AndroidSDK int
	Users      []User
	Authorized bool
}

func (d Device) String() string {
	if d.Model == "" {
		return d.Serial
	}
	return fmt.Sprintf("%s (%s)", d.Model, d.Serial)
}

// SessionUsers returns the users packages are enumerated for. Devices with at
// most one profile get a single implicit user at index 0.
func (d Device) SessionUsers() []User {
	if len(d.Users) <= 1 {
		u := User{Index: 0, Implicit: true}
		if len(d.Users) == 1 {
			u.ID = d.Users[0].ID
			u.Protected = d.Users[0].Protected
		}
		return []User{u}
	}
	users := make([]User, len(d.Users))
	for i, u := range d.Users {
		u.Index = i
		users[i] = u
	}
	return users
}

// SupportsUsers reports whether pm accepts --user (Lollipop and later).
func (d Device) SupportsUsers() bool {
	return d.AndroidSDK >= 21
}
