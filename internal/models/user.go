package models

// Account is the full users row. It is only handled by the credential store;
// everything past login works with an Identity.
type Account struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Identity is the allow-listed projection of an account that sessions restore
// to. It has no field able to carry a password hash.
type Identity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity projects the account onto the fields safe to hand downstream.
func (a *Account) Identity() Identity {
	return Identity{ID: a.ID, Name: a.Name, Email: a.Email}
}
