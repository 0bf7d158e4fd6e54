package services

import (
	"context"

	"MediCore/apperrors"
	"MediCore/models"
	"MediCore/repositories"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.RoleName
}

// IsStaff reports whether the actor works at the clinic rather than being a patient.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleDoctor || a.Role == models.RoleNurse
}

// ownership resolves which patient or doctor record an actor stands for.
type ownership struct {
	patientRepo repositories.PatientRepository
	doctorRepo  repositories.DoctorRepository
}

// patientOf returns the patient record of a PATIENT actor.
func (o ownership) patientOf(ctx context.Context, actor Actor) (*models.Patient, error) {
	patient, err := o.patientRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve patient", err)
	}
	if patient == nil {
		return nil, apperrors.NewForbiddenError("no patient record is linked to this account")
	}
	return patient, nil
}

// doctorOf returns the doctor record of a DOCTOR actor.
func (o ownership) doctorOf(ctx context.Context, actor Actor) (*models.Doctor, error) {
	doctor, err := o.doctorRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve doctor", err)
	}
	if doctor == nil {
		return nil, apperrors.NewForbiddenError("no doctor record is linked to this account")
	}
	return doctor, nil
}

// checkAppointment enforces that patients and doctors only touch their own
// appointments. Admins and nurses act on any appointment.
func (o ownership) checkAppointment(ctx context.Context, actor Actor, appointment *models.Appointment) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleNurse:
		return nil
	case models.RolePatient:
		patient, err := o.patientOf(ctx, actor)
		if err != nil {
			return err
		}
		if patient.ID != appointment.PatientID {
			return apperrors.NewForbiddenError("appointment belongs to another patient")
		}
		return nil
	case models.RoleDoctor:
		doctor, err := o.doctorOf(ctx, actor)
		if err != nil {
			return err
		}
		if doctor.ID != appointment.DoctorID {
			return apperrors.NewForbiddenError("appointment belongs to another doctor")
		}
		return nil
	default:
		return apperrors.NewForbiddenError("role is not allowed to access appointments")
	}
}

// checkPatientRecords lets staff read any patient's records and patients
// only their own.
func (o ownership) checkPatientRecords(ctx context.Context, actor Actor, patientID string) error {
	if actor.IsStaff() {
		return nil
	}
	if actor.Role != models.RolePatient {
		return apperrors.NewForbiddenError("role is not allowed to access patient records")
	}
	patient, err := o.patientOf(ctx, actor)
	if err != nil {
		return err
	}
	if patient.ID != patientID {
		return apperrors.NewForbiddenError("records belong to another patient")
	}
	return nil
}
