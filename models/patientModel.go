package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gender values accepted on patient records.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// EmergencyContact is stored inline on the patient row.
type EmergencyContact struct {
	Name         string `gorm:"column:name" json:"name"`
	Phone        string `gorm:"column:phone" json:"phone"`
	Relationship string `gorm:"column:relationship" json:"relationship"`
}

// Patient model
type Patient struct {
	ID               string                      `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	UserID           string                      `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"userId"`
	User             *User                       `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	DateOfBirth      string                      `gorm:"column:date_of_birth;not null;index" json:"dateOfBirth"`
	Gender           string                      `gorm:"column:gender;check:gender IN ('MALE','FEMALE','OTHER');not null" json:"gender"`
	Phone            string                      `gorm:"column:phone" json:"phone"`
	Address          string                      `gorm:"column:address" json:"address"`
	BloodGroup       string                      `gorm:"column:blood_group" json:"bloodGroup"`
	Allergies        datatypes.JSONSlice[string] `gorm:"column:allergies" json:"allergies"`
	MedicalHistory   datatypes.JSONSlice[string] `gorm:"column:medical_history" json:"medicalHistory"`
	EmergencyContact EmergencyContact            `gorm:"embedded;embeddedPrefix:emergency_contact_" json:"emergencyContact"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt        gorm.DeletedAt              `gorm:"column:deleted_at;index" json:"-"`
}

func (Patient) TableName() string {
	return "patient"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TimeSlot is a doctor-defined bookable window, expressed as wall clock
// times ("HH:MM") in the clinic time zone.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

const clockLayout = "15:04"

// Bounds resolves the slot on the calendar day of day, in loc.
func (s TimeSlot) Bounds(day time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid slot start %q", s.StartTime)
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid slot end %q", s.EndTime)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("slot %s-%s ends before it starts", s.StartTime, s.EndTime)
	}

	d := day.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	to := time.Date(d.Year(), d.Month(), d.Day(), end.Hour(), end.Minute(), 0, 0, loc)
	return from, to, nil
}

// Doctor model
type Doctor struct {
	ID                 string                        `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	UserID             string                        `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"userId"`
	User               *User                         `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Specialization     string                        `gorm:"column:specialization;not null;index" json:"specialization"`
	LicenseNumber      string                        `gorm:"column:license_number;not null;unique" json:"licenseNumber"`
	Phone              string                        `gorm:"column:phone" json:"phone"`
	ConsultationFee    float64                       `gorm:"column:consultation_fee" json:"consultationFee"`
	AvailableDays      datatypes.JSONSlice[string]   `gorm:"column:available_days" json:"availableDays"`
	AvailableTimeSlots datatypes.JSONSlice[TimeSlot] `gorm:"column:available_time_slots" json:"availableTimeSlots"`
	CreatedAt          time.Time                     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt          gorm.DeletedAt                `gorm:"column:deleted_at;index" json:"-"`
}

func (Doctor) TableName() string {
	return "doctor"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// WorksOn reports whether day is one of the doctor's available days.
func (d *Doctor) WorksOn(day time.Weekday) bool {
	for _, name := range d.AvailableDays {
		if strings.EqualFold(name, day.String()) {
			return true
		}
	}
	return false
}

// SlotContaining returns the slot that fully contains [start, end) on that
// day, if any.
func (d *Doctor) SlotContaining(start, end time.Time, loc *time.Location) (TimeSlot, bool) {
	if !d.WorksOn(start.In(loc).Weekday()) {
		return TimeSlot{}, false
	}
	for _, slot := range d.AvailableTimeSlots {
		from, to, err := slot.Bounds(start, loc)
		if err != nil {
			continue
		}
		if !start.Before(from) && !end.After(to) {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// Weekdays lists the accepted available-day names.
var Weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}
