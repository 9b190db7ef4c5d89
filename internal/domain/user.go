package domain

import "time"

type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Hash      string    `db:"password_hash"`
	IsAdmin   bool      `db:"is_admin"`
	CreatedAt time.Time `db:"created_at"`
}
