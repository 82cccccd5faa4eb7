// Package enrol exposes course membership to the synchronizers.
package enrol

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("enrolled user not found")

// User is one person who can be invited to a course's meetings.
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName string `gorm:"size:255" json:"full_name"`
}

// Enrolment links a user to a course.
type Enrolment struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	CourseID int64 `gorm:"index:idx_enrol_course_user,unique;not null" json:"course_id"`
	UserID   int64 `gorm:"index:idx_enrol_course_user,unique;not null" json:"user_id"`
}

// Roster answers who is enrolled in a course right now. The reconciler treats
// this as the source of truth for the desired participant set.
type Roster interface {
	EnrolledUsers(ctx context.Context, courseID int64) (map[int64]User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
}

// GormRoster reads enrolments from the relational database.
type GormRoster struct {
	db *gorm.DB
}

func NewGormRoster(db *gorm.DB) *GormRoster {
	return &GormRoster{db: db}
}

func (r *GormRoster) AutoMigrate() error {
	return r.db.AutoMigrate(&User{}, &Enrolment{})
}

func (r *GormRoster) EnrolledUsers(ctx context.Context, courseID int64) (map[int64]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("JOIN enrolments ON enrolments.user_id = users.id").
		Where("enrolments.course_id = ?", courseID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *GormRoster) GetUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
