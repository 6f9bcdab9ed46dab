package models

// Identity is the current authentication state. The zero value is anonymous.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Anonymous is the identity used before sign-in.
var Anonymous = Identity{}

// Authenticated returns the identity bound to userID.
func Authenticated(userID, email string) Identity {
	return Identity{UserID: userID, Email: email}
}

// IsAuthenticated reports whether the identity is bound to a user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// Same reports whether two identities select the same owner.
//
// Email and display name changes do not constitute an identity transition.
func (i Identity) Same(other Identity) bool {
	return i.UserID == other.UserID
}

// OwnerKey returns the cache owner segment: "anonymous" or "user:<id>".
func (i Identity) OwnerKey() string {
	if !i.IsAuthenticated() {
		return "anonymous"
	}
	return "user:" + i.UserID
}

func (i Identity) String() string {
	if !i.IsAuthenticated() {
		return "anonymous"
	}
	if i.Email != "" {
		return i.UserID + " <" + i.Email + ">"
	}
	return i.UserID
}
