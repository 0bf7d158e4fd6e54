package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Medication is one line of a prescription.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription model. One per completed appointment.
type Prescription struct {
	ID            string                          `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	AppointmentID string                          `gorm:"type:uuid;column:appointment_id;not null;uniqueIndex" json:"appointmentId"`
	PatientID     string                          `gorm:"type:uuid;column:patient_id;not null;index" json:"patientId"`
	DoctorID      string                          `gorm:"type:uuid;column:doctor_id;not null;index" json:"doctorId"`
	Medications   datatypes.JSONSlice[Medication] `gorm:"column:medications;not null" json:"medications"`
	Diagnosis     string                          `gorm:"column:diagnosis;not null" json:"diagnosis"`
	Notes         string                          `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time                       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	Appointment   *Appointment                    `gorm:"foreignKey:AppointmentID;references:ID" json:"-"`
	Patient       *Patient                        `gorm:"foreignKey:PatientID;references:ID" json:"-"`
	Doctor        *Doctor                         `gorm:"foreignKey:DoctorID;references:ID" json:"-"`
}

func (Prescription) TableName() string {
	return "prescription"
}

func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
