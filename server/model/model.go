package model

import (
	"encoding/json"
	"time"
)

type RoomStatus string

const (
	RoomStatusPending RoomStatus = "pending"
	RoomStatusActive  RoomStatus = "active"
	RoomStatusLocked  RoomStatus = "locked"
	RoomStatusDeleted RoomStatus = "deleted"
)

// Room is a discussion room. Status is only changed through the lifecycle
// machine in the app package.
type Room struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	MemberCount      int        `db:"member_count" json:"member_count"`
	Status           RoomStatus `db:"status" json:"status"`
	UniquePosters72h int        `db:"unique_posters_72h" json:"unique_posters_72h"`
	ActivatedAt      *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	LockedAt         *time.Time `db:"locked_at" json:"locked_at,omitempty"`
	DeletedAt        *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	LastModeratorID  *string    `db:"last_moderator_id" json:"last_moderator_id,omitempty"`
	Version          int64      `db:"version" json:"version"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

type Membership struct {
	RoomID     string     `db:"room_id" json:"room_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`
	LastPostAt *time.Time `db:"last_post_at" json:"last_post_at,omitempty"`
	LastViewAt *time.Time `db:"last_view_at" json:"last_view_at,omitempty"`
	IsFounder  bool       `db:"is_founder" json:"is_founder"`

	// Joined from rooms and users.
	RoomStatus   RoomStatus `db:"room_status" json:"room_status"`
	Banned       bool       `db:"banned" json:"banned"`
	BanExpiresAt *time.Time `db:"ban_expires_at" json:"ban_expires_at,omitempty"`
}

// IsBanned reports whether the member is under a ban at now. A ban without
// an expiry never lifts.
func (m Membership) IsBanned(now time.Time) bool {
	if !m.Banned {
		return false
	}
	return m.BanExpiresAt == nil || m.BanExpiresAt.After(now)
}

// Post is a root post or a reply. Replies carry the id of their root post.
type Post struct {
	ID              string     `db:"id" json:"id"`
	RoomID          string     `db:"room_id" json:"room_id"`
	RootID          string     `db:"root_id" json:"root_id,omitempty"`
	AuthorID        string     `db:"author_id" json:"author_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	LifetimeDays    int        `db:"lifetime_days" json:"lifetime_days"`
	Pinned          bool       `db:"pinned" json:"pinned"`
	NoExpireReason  string     `db:"no_expire_reason" json:"no_expire_reason,omitempty"`
	ExtensionReason string     `db:"extension_reason" json:"extension_reason,omitempty"`
	BulkExtended    bool       `db:"bulk_extended" json:"bulk_extended"`
	DeletedAt       *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (p Post) IsReply() bool {
	return p.RootID != ""
}

type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	// PostCount is the number of posts and replies the user ever authored.
	PostCount int `db:"post_count" json:"post_count"`
}

type BadgeCriteria string

const (
	CriteriaAccountAgeDays BadgeCriteria = "account_age_days"
	CriteriaPostCount      BadgeCriteria = "post_count"
)

type Badge struct {
	Name          string        `db:"name" json:"name"`
	CriteriaType  BadgeCriteria `db:"criteria_type" json:"criteria_type"`
	CriteriaValue int           `db:"criteria_value" json:"criteria_value"`
}

// UserBadgeAward is unique per (UserID, BadgeName). A nil AwardedBy means the
// award was made by the system.
type UserBadgeAward struct {
	UserID    string    `db:"user_id" json:"user_id"`
	BadgeName string    `db:"badge_name" json:"badge_name"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
	AwardedBy *string   `db:"awarded_by" json:"awarded_by,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
}

type NotificationType string

const (
	NotificationRoomActivated    NotificationType = "room_activated"
	NotificationRoomLocked       NotificationType = "room_locked"
	NotificationRoomUnlocked     NotificationType = "room_unlocked"
	NotificationRoomDeleted      NotificationType = "room_deleted"
	NotificationPostExpiringSoon NotificationType = "post_expiring_soon"
	NotificationPostingWarning   NotificationType = "posting_inactivity_warning"
	NotificationViewingWarning   NotificationType = "viewing_inactivity_warning"
	NotificationComplianceAlert  NotificationType = "compliance_violation"
	NotificationBadgeAwarded     NotificationType = "badge_awarded"
	NotificationDigest           NotificationType = "digest"
)

type Notification struct {
	ID           string           `db:"id" json:"id"`
	RecipientID  string           `db:"recipient_id" json:"recipient_id"`
	Type         NotificationType `db:"type" json:"type"`
	Payload      json.RawMessage  `db:"payload" json:"payload"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	ScheduledFor time.Time        `db:"scheduled_for" json:"scheduled_for"`
	SentAt       *time.Time       `db:"sent_at" json:"sent_at,omitempty"`
}

type ViolationType string

const (
	ViolationPosting ViolationType = "posting"
	ViolationViewing ViolationType = "viewing"
)

type Violation struct {
	UserID       string        `db:"user_id" json:"user_id"`
	RoomID       string        `db:"room_id" json:"room_id"`
	Type         ViolationType `db:"type" json:"type"`
	ActualDays   int           `db:"actual_days" json:"actual_days"`
	RequiredDays int           `db:"required_days" json:"required_days"`
	RecordedAt   time.Time     `db:"recorded_at" json:"recorded_at"`
}
