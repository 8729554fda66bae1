package domain

import (
	"errors"
	"net/http"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateName       = errors.New("participant name already exists")
	ErrDuplicateAPIKey     = errors.New("api key already exists")
	ErrDuplicateAPIBase    = errors.New("api base already exists")
	ErrMissingFields       = errors.New("name, api key and api base are required")
	ErrNoGame              = errors.New("no game state")
	ErrEmptyMessage        = errors.New("message is empty")
)

// ServiceError is a structured rejection from the game service. It travels
// as {"error": ..., "is_game_over": ...} and is rebuilt by the HTTP client.
type ServiceError struct {
	Message  string `json:"error"`
	GameOver bool   `json:"is_game_over,omitempty"`
	Status   int    `json:"-"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func Rejected(msg string) *ServiceError {
	return &ServiceError{Message: msg, Status: http.StatusBadRequest}
}

func GameOverError(winner string) *ServiceError {
	return &ServiceError{Message: "game already over, winner: " + winner, GameOver: true, Status: http.StatusBadRequest}
}

func Internal(msg string) *ServiceError {
	return &ServiceError{Message: msg, Status: http.StatusInternalServerError}
}
