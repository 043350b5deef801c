// ABOUTME: Store interface and data types for seatwatch persistence
// ABOUTME: Defines User, RoomSeatInfo, RoomImage structs and sentinel errors

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrImageExists is returned when a room already has a stored image.
var ErrImageExists = errors.New("room image already exists")

// ErrInvalidSeatCount is returned when seat counts violate 0 <= vacant <= total.
var ErrInvalidSeatCount = errors.New("invalid seat count")

// ErrNoVacantSeats is returned when reserving a seat in a fully occupied room.
var ErrNoVacantSeats = errors.New("no vacant seats")

// ErrNoReservedSeats is returned when releasing a seat in a room with no
// outstanding reservations.
var ErrNoReservedSeats = errors.New("no reserved seats")

// User represents a registered account. The username is the primary key;
// the password is only ever stored as a bcrypt hash.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RoomSeatInfo holds the seat counts for a single study room.
type RoomSeatInfo struct {
	StudyRoom   string
	VacantSeats int
	TotalSeats  int
	UpdatedAt   time.Time
}

// RoomCapacity is the (room, total seats) projection used by the seats view.
type RoomCapacity struct {
	StudyRoom  string
	TotalSeats int
}

// RoomImage holds the display image for a study room.
type RoomImage struct {
	StudyRoom   string
	Image       []byte
	ContentType string
	CreatedAt   time.Time
}

// Store defines the persistence interface for seatwatch.
type Store interface {
	// Credentials
	CreateUser(ctx context.Context, username, password string) error
	GetUser(ctx context.Context, username string) (*User, error)
	VerifyUser(ctx context.Context, username, password string) (bool, error)
	ListUsers(ctx context.Context) ([]*User, error)

	// Seat inventory
	UpsertRoomSeats(ctx context.Context, room string, vacant, total int) error
	GetRoomSeats(ctx context.Context, room string) (*RoomSeatInfo, error)
	ListRoomTotals(ctx context.Context) ([]RoomCapacity, error)
	ListUtilization(ctx context.Context) ([]*RoomSeatInfo, error)
	ReserveSeat(ctx context.Context, room string) error
	ReleaseSeat(ctx context.Context, room string) error

	// Room images
	SaveImage(ctx context.Context, room string, data []byte, contentType string) error
	GetImage(ctx context.Context, room string) ([]byte, string, error)

	Close() error
}
