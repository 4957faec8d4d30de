package taskmate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity model. Email is the natural key.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Role          Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Token is one ledger record per issued session token. Records are flagged,
// never deleted, so "invalidated" and "never issued" stay distinguishable.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tkn"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Expired       bool       `bun:"expired,notnull" json:"expired"`
	Revoked       bool       `bun:"revoked,notnull" json:"revoked"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// IsLive reports whether the record still backs a valid session.
func (t *Token) IsLive() bool {
	return t != nil && !t.Expired && !t.Revoked
}

// TaskStatus is the task workflow state
type TaskStatus = string

const (
	// TaskStatusPending is the state every new task starts in
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress marks a task being worked on
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted marks a finished task
	TaskStatusCompleted TaskStatus = "completed"
)

// ParseTaskStatus safely parses a status string
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// Task is the task model
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Deadline      *time.Time `bun:"deadline,nullzero" json:"deadline,omitempty"`
	Status        TaskStatus `bun:"status,notnull" json:"status,omitempty"`
	AssignedToID  uuid.UUID  `bun:"assigned_to,notnull,type:uuid" json:"assigned_to,omitempty"`
	AssignedTo    *User      `bun:"rel:belongs-to,join:assigned_to=id" json:"assigned_to_user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
