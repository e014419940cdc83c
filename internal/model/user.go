package model

import "time"

// User is an employee that equipment can be assigned to. The registry
// consumes users, it does not manage them: Legajo is the external
// business key and the only identifier the assignment ledger stores.
type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Legajo    string `gorm:"size:64;uniqueIndex;not null" json:"legajo"`
	FirstName string `gorm:"size:128;not null" json:"first_name"`
	LastName  string `gorm:"size:128;not null" json:"last_name"`
	Phone     string `gorm:"size:64" json:"phone"`
	Email     string `gorm:"size:128" json:"email"`
	Address   string `gorm:"size:256" json:"address"`
	Site      Site   `gorm:"size:32;not null" json:"site"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DisplayName returns "First Last" for search results and audit details.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
