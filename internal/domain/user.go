package domain

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	TgID      int64     `db:"tg_id" json:"tg_id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	Balance   int64     `db:"balance" json:"balance"` // ставки и взносы списываются отсюда
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName - имя для соперника и записей об играх
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "player"
}
