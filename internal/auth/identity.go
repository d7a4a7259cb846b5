package auth

// Identity is the caller of an engine operation. The zero value is anonymous.
type Identity struct {
	UserID uint
}

// Anonymous is the explicit unauthenticated caller.
var Anonymous = Identity{}

// User returns the identity of an authenticated user.
func User(id uint) Identity {
	return Identity{UserID: id}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}
