package entity

import "fmt"

type UserRef struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
}

// Label returns the display name, falling back to the user id.
func (u UserRef) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return fmt.Sprintf("User ID %d", u.ID)
}

// ActiveUsers filters out users that cannot be picked as attendees or
// presenters.
func ActiveUsers(users []UserRef) []UserRef {
	out := make([]UserRef, 0, len(users))
	for _, u := range users {
		if u.Active {
			out = append(out, u)
		}
	}
	return out
}

func UserIDs(users []UserRef) []int {
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
