package main

// User represents an account that can log in and own pets
type User struct {
	ID       int64
	PublicID string
	Name     string
	Password string // bcrypt hash
	Admin    bool
}

// Pet represents a pet; OwnerID never changes after creation
type Pet struct {
	ID      int64
	Name    string
	OwnerID int64
}

// userPayload is the wire form of a User, password hash included.
type userPayload struct {
	PublicID string `json:"public_id"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

type petPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toUserPayload(u *User) userPayload {
	return userPayload{
		PublicID: u.PublicID,
		Name:     u.Name,
		Password: u.Password,
		Admin:    u.Admin,
	}
}

func toPetPayload(p *Pet) petPayload {
	return petPayload{ID: p.ID, Name: p.Name}
}
