package models

// User is the stored account record. Only Username and PasswordHash take part in
// authentication; the rest is profile data.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
	DisplayName  string `json:"display_name"`
	Description  string `json:"description,omitempty"`
}

// UserFields is a partial update of a user; nil fields are left untouched.
type UserFields struct {
	PasswordHash *string
	DisplayName  *string
	Description  *string
}

// Empty reports whether no field is set.
func (f UserFields) Empty() bool {
	return f.PasswordHash == nil && f.DisplayName == nil && f.Description == nil
}
