package models

import "time"

// User is an account record. Profile edits and favorite toggles replace the
// whole record; there is no partial-field update contract.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"` // bcrypt hash, never the raw value
	Pets      []Pet     `json:"pets,omitempty"`
	Favorites []string  `json:"favorites,omitempty"` // clinic IDs
	IsManager bool      `json:"is_manager,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pet is one entry of a user's pet list.
type Pet struct {
	Type     string `json:"type"` // free text, e.g. "Cat"
	ImageURL string `json:"imageUrl,omitempty"`
}

// ResizePets grows or shrinks the pet list to n entries, keeping existing
// entries by index. Shrinking truncates from the end, growing pads with
// zero-value pets. n below zero is treated as zero.
func ResizePets(pets []Pet, n int) []Pet {
	if n < 0 {
		n = 0
	}
	if n <= len(pets) {
		return pets[:n]
	}
	out := make([]Pet, n)
	copy(out, pets)
	return out
}

// IsFavorite reports whether clinicID is in the user's favorites.
func (u *User) IsFavorite(clinicID string) bool {
	for _, id := range u.Favorites {
		if id == clinicID {
			return true
		}
	}
	return false
}

// ToggleFavorite adds clinicID to favorites, or removes it when present.
func (u *User) ToggleFavorite(clinicID string) {
	for i, id := range u.Favorites {
		if id == clinicID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			return
		}
	}
	u.Favorites = append(u.Favorites, clinicID)
}
