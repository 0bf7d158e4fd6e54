package models

import (
	"time"

	"MediCore/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

// allowedTransitions is the complete lifecycle graph. Statuses without
// outgoing edges are terminal.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: nil,
	StatusCancelled: nil,
	StatusNoShow:    nil,
}

// transitionActors lists the roles allowed to move an appointment into a status.
var transitionActors = map[AppointmentStatus][]RoleName{
	StatusConfirmed: {RoleDoctor, RoleNurse, RoleAdmin},
	StatusCompleted: {RoleDoctor},
	StatusCancelled: {RolePatient, RoleAdmin, RoleDoctor, RoleNurse},
	StatusNoShow:    {RoleDoctor, RoleNurse, RoleAdmin},
}

// AllStatuses lists every status.
var AllStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

// IsValid reports whether s belongs to the status vocabulary.
func (s AppointmentStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return s.IsValid() && len(allowedTransitions[s]) == 0
}

// IsActive reports whether an appointment in s still occupies its time.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// CanTransitionTo reports whether next is directly reachable from s.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// RoleMaySet reports whether role is allowed to move an appointment into status.
func RoleMaySet(role RoleName, status AppointmentStatus) bool {
	for _, r := range transitionActors[status] {
		if r == role {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses that block a doctor's or patient's time.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed}

// Appointment model
type Appointment struct {
	ID                 string            `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	PatientID          string            `gorm:"type:uuid;column:patient_id;not null;index:idx_appointment_patient_time" json:"patientId"`
	DoctorID           string            `gorm:"type:uuid;column:doctor_id;not null;index:idx_appointment_doctor_time" json:"doctorId"`
	DateTime           time.Time         `gorm:"column:date_time;not null;index:idx_appointment_patient_time;index:idx_appointment_doctor_time" json:"dateTime"`
	Duration           int               `gorm:"column:duration;not null;check:duration > 0" json:"duration"`
	Status             AppointmentStatus `gorm:"column:status;size:20;not null;index;check:status IN ('SCHEDULED','CONFIRMED','COMPLETED','CANCELLED','NO_SHOW')" json:"status"`
	Reason             string            `gorm:"column:reason" json:"reason"`
	Notes              string            `gorm:"column:notes" json:"notes"`
	CancellationReason string            `gorm:"column:cancellation_reason" json:"cancellationReason,omitempty"`
	ConfirmedAt        *time.Time        `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	CompletedAt        *time.Time        `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	Patient            *Patient          `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Doctor             *Doctor           `gorm:"foreignKey:DoctorID;references:ID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointment"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// EndTime is the instant the appointment stops occupying the doctor.
func (a *Appointment) EndTime() time.Time {
	return a.DateTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Overlaps reports whether the half-open intervals of a and the given
// window intersect.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.DateTime.Before(end) && start.Before(a.EndTime())
}

// Transition moves the appointment to next at the given instant. Re-applying
// the current status is a no-op and reports changed=false.
func (a *Appointment) Transition(next AppointmentStatus, at time.Time) (bool, error) {
	if !next.IsValid() {
		return false, apperrors.NewValidationError("unknown appointment status "+string(next), nil)
	}
	if a.Status == next {
		return false, nil
	}
	if !a.Status.CanTransitionTo(next) {
		return false, apperrors.NewInvalidTransitionError(string(a.Status), string(next))
	}

	a.Status = next
	stamp := at.UTC()
	switch next {
	case StatusConfirmed:
		a.ConfirmedAt = &stamp
	case StatusCompleted:
		a.CompletedAt = &stamp
	case StatusCancelled, StatusNoShow:
		a.CancelledAt = &stamp
	}
	return true, nil
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Status    AppointmentStatus
	From      *time.Time
	To        *time.Time
}
