package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleWorker   Role = "WORKER"
	RoleAdmin    Role = "ADMIN"
)

// Worker is the scheduling view of a user with the WORKER role. Workers are
// created and mutated by identity management; this service only reads them.
type Worker struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Skills    string    `db:"skills" json:"skills,omitempty"`
	Role      Role      `db:"role" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WorkerAvailability decorates a worker with an availability flag for a
// requested time window.
type WorkerAvailability struct {
	Worker
	Available bool `json:"available"`
}
