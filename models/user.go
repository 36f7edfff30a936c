package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	ProfileImageURL string             `bson:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
	Role            Role               `bson:"role" json:"role"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// UserView is a user without credentials.
type UserView struct {
	ID              primitive.ObjectID `json:"_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            Role               `json:"role"`
	ProfileImageURL string             `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserSummary is the populated form of an assignee reference.
type UserSummary struct {
	ID              primitive.ObjectID `json:"_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	ProfileImageURL string             `json:"profileImageUrl,omitempty"`
}

func NewUserSummary(u *User) UserSummary {
	return UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// MemberWithCounts is a directory entry annotated with assigned task counts.
type MemberWithCounts struct {
	UserView
	PendingTask    int64 `json:"pendingTask"`
	InProgressTask int64 `json:"inprogressTask"`
	CompletedTask  int64 `json:"completedTask"`
}

// AuthResult is returned by register, login and profile update.
type AuthResult struct {
	ID              primitive.ObjectID `json:"_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            Role               `json:"role"`
	ProfileImageURL string             `json:"profileImageUrl,omitempty"`
	Token           string             `json:"token"`
}

type RegisterInput struct {
	Name             string `json:"name" validate:"required,min=4,max=49,trimmed"`
	Email            string `json:"email" validate:"required,email,trimmed"`
	Password         string `json:"password" validate:"required,min=8,max=20,letternum"`
	ProfileImageURL  string `json:"profileImageUrl" validate:"omitempty,uri"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email,trimmed"`
	Password string `json:"password" validate:"required,min=8,max=20,letternum"`
}

type UpdateProfileInput struct {
	Name     string `json:"name" validate:"required,min=4,max=49,trimmed"`
	Email    string `json:"email" validate:"required,email,trimmed"`
	Password string `json:"password" validate:"omitempty,min=8,max=20,letternum"`
}
