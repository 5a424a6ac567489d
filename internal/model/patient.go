package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a person undergoing PHQ-9 screening. Patients are immutable
// after creation; assessments reference them by id without owning them.
type Patient struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Identification string    `db:"identification" json:"identification"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	DateCreated    time.Time `db:"date_created" json:"date_created"`
}

// FullName returns the display name used in prompts and alerts.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type CreatePatientRequest struct {
	FirstName      string `json:"first_name" binding:"required,max=100"`
	LastName       string `json:"last_name" binding:"required,max=100"`
	Identification string `json:"identification" binding:"required,max=20"`
	DateOfBirth    string `json:"date_of_birth" binding:"required,dateonly"`
}
