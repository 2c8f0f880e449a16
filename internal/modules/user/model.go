// README: User aggregate, roles, and registration status definitions.
package user

import (
	"time"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type Role string

const (
	RoleDriver Role = "DRIVER"
	RoleSender Role = "SENDER"
	RoleAdmin  Role = "ADMIN"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

type TruckStatus string

const (
	TruckIdle  TruckStatus = "IDLE"
	TruckReady TruckStatus = "READY"
	TruckBusy  TruckStatus = "BUSY"
)

type TruckDetails struct {
	LicensePlate    string       `bson:"licensePlate" json:"licensePlate"`
	Model           string       `bson:"model" json:"model"`
	Capacity        string       `bson:"capacity" json:"capacity"`
	ExperienceYears string       `bson:"experienceYears" json:"experienceYears"`
	Location        *types.Point `bson:"location,omitempty" json:"location,omitempty"`
	CurrentStatus   TruckStatus  `bson:"currentStatus" json:"currentStatus"`
}

type OrganizationDetails struct {
	Name         string `bson:"name" json:"name"`
	Type         string `bson:"type" json:"type"`
	RegNumber    string `bson:"regNumber" json:"regNumber"`
	Sector       string `bson:"sector" json:"sector"`
	Headquarters string `bson:"headquarters" json:"headquarters"`
}

type User struct {
	ID                  types.ID             `bson:"_id" json:"id"`
	Name                string               `bson:"name" json:"name"`
	Email               string               `bson:"email" json:"email"`
	PasswordHash        string               `bson:"passwordHash" json:"-"`
	Role                Role                 `bson:"role" json:"role"`
	RegistrationStatus  RegistrationStatus   `bson:"registrationStatus" json:"registrationStatus"`
	TruckDetails        *TruckDetails        `bson:"truckDetails,omitempty" json:"truckDetails,omitempty"`
	OrganizationDetails *OrganizationDetails `bson:"organizationDetails,omitempty" json:"organizationDetails,omitempty"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ValidRegistrationStatus reports whether s is a status an admin may set.
// Every state is revisitable: approvals and rejections can be reverted to
// PENDING, and re-decided.
func ValidRegistrationStatus(s RegistrationStatus) bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}
