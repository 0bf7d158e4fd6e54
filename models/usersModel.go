package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleName is the closed set of user roles.
type RoleName string

const (
	RoleAdmin   RoleName = "ADMIN"
	RoleDoctor  RoleName = "DOCTOR"
	RolePatient RoleName = "PATIENT"
	RoleNurse   RoleName = "NURSE"
)

// AllRoles lists every role in seeding order.
var AllRoles = []RoleName{RoleAdmin, RoleDoctor, RolePatient, RoleNurse}

// IsValid reports whether r is one of the known roles.
func (r RoleName) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Role represents a user role
type Role struct {
	ID          int64        `gorm:"primaryKey;column:id" json:"id"`
	Name        RoleName     `gorm:"size:20;not null;unique;index;column:name;check:name IN ('ADMIN','DOCTOR','PATIENT','NURSE')" json:"name"`
	Description string       `gorm:"type:text;column:description" json:"description"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// User represents an account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        string    `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	Email     string    `gorm:"size:255;not null;unique;index;column:email" json:"email"`
	Password  string    `gorm:"size:255;not null;column:password" json:"-"`
	FirstName string    `gorm:"size:100;not null;column:first_name" json:"firstName"`
	LastName  string    `gorm:"size:100;not null;column:last_name" json:"lastName"`
	RoleID    int64     `gorm:"index;not null;column:role_id" json:"-"`
	Role      Role      `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...RoleName) bool {
	for _, r := range roles {
		if u.Role.Name == r {
			return true
		}
	}
	return false
}

// Permission represents a permission in the system
type Permission struct {
	ID          int64  `gorm:"primaryKey;column:id" json:"id"`
	Name        string `gorm:"size:100;not null;unique;index;column:name" json:"name"`
	Description string `gorm:"type:text;column:description" json:"description"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RolePermission represents the association between roles and permissions
type RolePermission struct {
	RoleID       int64 `gorm:"primaryKey;column:role_id" json:"roleId"`
	PermissionID int64 `gorm:"primaryKey;column:permission_id" json:"permissionId"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

var roleDescriptions = map[RoleName]string{
	RoleAdmin:   "Full access to the system",
	RoleDoctor:  "Confirms and completes own appointments, writes prescriptions",
	RolePatient: "Books and cancels own appointments",
	RoleNurse:   "Manages patient records and confirms appointments",
}

var initialPermissions = []Permission{
	{Name: "manage_users", Description: "Create, update, or delete users"},
	{Name: "manage_patients", Description: "Create or update patient records"},
	{Name: "view_patients", Description: "View patient data"},
	{Name: "manage_doctors", Description: "Create or update doctor records"},
	{Name: "manage_appointments", Description: "Create or update any appointment"},
	{Name: "write_prescriptions", Description: "Attach prescriptions to completed appointments"},
	{Name: "view_self", Description: "View personal data"},
}

// RolePermissionNames is the permission matrix applied by SeedRolePermissions.
var RolePermissionNames = map[RoleName][]string{
	RoleAdmin:   {"manage_users", "manage_patients", "view_patients", "manage_doctors", "manage_appointments", "write_prescriptions", "view_self"},
	RoleDoctor:  {"view_patients", "write_prescriptions", "view_self"},
	RoleNurse:   {"manage_patients", "view_patients", "manage_appointments", "view_self"},
	RolePatient: {"view_self"},
}

// SeedRoles inserts initial roles into the database
func SeedRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range AllRoles {
			role := Role{Name: name, Description: roleDescriptions[name]}
			if err := tx.FirstOrCreate(&role, Role{Name: name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedPermissions inserts initial permissions into the database
func SeedPermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, permission := range initialPermissions {
			p := permission
			if err := tx.FirstOrCreate(&p, Permission{Name: p.Name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedRolePermissions links roles and permissions by name.
func SeedRolePermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for roleName, permissionNames := range RolePermissionNames {
			var role Role
			if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
				return err
			}
			var permissions []Permission
			if err := tx.Where("name IN ?", permissionNames).Find(&permissions).Error; err != nil {
				return err
			}
			for _, p := range permissions {
				link := RolePermission{RoleID: role.ID, PermissionID: p.ID}
				if err := tx.FirstOrCreate(&link, link).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
