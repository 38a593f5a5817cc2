package lx

// User is the opaque identity record the engine stores on registration.
// The matcher never inspects anything beyond ID; the remaining fields are
// carried because the original system's IsValid() check requires them
// (see original_source/include/User.h), and dropping them would leave
// RegisterUser's validation untestable.
type User struct {
	ID    UserID
	Name  string
	Phone string
	Email string
}

// IsValid requires every identity field to be present.
func (u User) IsValid() bool {
	return u.ID != "" && u.Name != "" && u.Phone != "" && u.Email != ""
}
