package domain

import "time"

// Role is a user's permission level.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleModerator
}

// User is an account that writes or moderates reviews.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsModerator reports whether the user holds the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// Product is the reviewed item. Only lookup by id is supported.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductRating contains aggregate statistics of a product's approved reviews.
type ProductRating struct {
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}
