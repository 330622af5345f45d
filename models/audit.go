package models

import (
	"time"
)

type AuditAction string

const (
	AuditActionLogin        AuditAction = "login"
	AuditActionRegister     AuditAction = "register"
	AuditActionGroupCreate  AuditAction = "group_create"
	AuditActionGroupUpdate  AuditAction = "group_update"
	AuditActionGroupDelete  AuditAction = "group_delete"
	AuditActionGroupJoin    AuditAction = "group_join"
	AuditActionGroupLeave   AuditAction = "group_leave"
	AuditActionMemberAdd    AuditAction = "member_add"
	AuditActionMemberRemove AuditAction = "member_remove"
	AuditActionPollCreate   AuditAction = "poll_create"
	AuditActionPollUpdate   AuditAction = "poll_update"
	AuditActionPollDelete   AuditAction = "poll_delete"
	AuditActionPollClose    AuditAction = "poll_close"
	AuditActionPollVote     AuditAction = "poll_vote"
	AuditActionShareCreate  AuditAction = "share_create"
)

type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index" json:"user_id"`
	Username  string      `json:"username"`
	Action    AuditAction `gorm:"index" json:"action"`
	GroupID   *uint       `gorm:"index" json:"group_id,omitempty"`
	PollID    *uint       `gorm:"index" json:"poll_id,omitempty"`
	Details   string      `json:"details,omitempty"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}
