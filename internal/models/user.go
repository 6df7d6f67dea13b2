package models

import "time"

// AuthUser is the signed-in account as cached by the client.
type AuthUser struct {
	ID       string `json:"_id"`
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// AuthResponse is returned by the register and login endpoints.
type AuthResponse struct {
	AuthUser
	Token     string `json:"token"`
	IsNewUser bool   `json:"isNewUser,omitempty"`
}

// User is the server-side account record.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Profile projects the account into the shape clients cache.
func (u User) Profile() AuthUser {
	return AuthUser{ID: u.ID, UID: u.ID, Name: u.Name, Email: u.Email, Provider: "local"}
}
