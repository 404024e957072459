package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chetak-health/chetak-api/geo"
)

// Hospital holds the structure for the hospitals collection in mongo. The capability
// profile (HasICU, Specialists, Equipment) is what the ranking reads.
type Hospital struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	HospitalID        int                `json:"id,omitempty" bson:"id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Email             string             `json:"email,omitempty" bson:"email,omitempty"`
	Password          string             `json:"-" bson:"password,omitempty"`
	Phone             string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address           string             `json:"address,omitempty" bson:"address,omitempty"`
	LicenseNumber     string             `json:"licenseNumber,omitempty" bson:"licenseNumber,omitempty"`
	Location          geo.Point          `json:"location" bson:"location"`
	HasICU            bool               `json:"hasICU" bson:"hasICU"`
	Specialists       []string           `json:"specialists" bson:"specialists"`
	Equipment         []string           `json:"equipment" bson:"equipment"`
	Facilities        []Facility         `json:"facilities,omitempty" bson:"facilities,omitempty"`
	Specialties       []Specialty        `json:"specialties,omitempty" bson:"specialties,omitempty"`
	EmergencyCapacity *EmergencyCapacity `json:"emergencyCapacity,omitempty" bson:"emergencyCapacity,omitempty"`
	CreatedAt         time.Time          `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Coordinate returns the hospital location as a lat/lon pair
func (h Hospital) Coordinate() geo.Coordinate {
	return h.Location.Coordinate()
}

// HasSpecialist reports whether the hospital lists the given specialist tag
func (h Hospital) HasSpecialist(tag string) bool {
	return containsTag(h.Specialists, tag)
}

// HasEquipment reports whether the hospital lists the given equipment tag
func (h Hospital) HasEquipment(tag string) bool {
	return containsTag(h.Equipment, tag)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Facility is a piece of equipment or service a hospital maintains
type Facility struct {
	Name         string `json:"name" bson:"name"`
	Availability bool   `json:"availability" bson:"availability"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
}

// Specialty is a department a hospital staffs
type Specialty struct {
	Name          string `json:"name" bson:"name"`
	DoctorsCount  int    `json:"doctorsCount" bson:"doctorsCount"`
	AvailableTime string `json:"availableTime,omitempty" bson:"availableTime,omitempty"`
}

// BedCount holds a total/available pair
type BedCount struct {
	Total     int `json:"total" bson:"total"`
	Available int `json:"available" bson:"available"`
}

// EmergencyCapacity holds the bed and ventilator capacity of a hospital
type EmergencyCapacity struct {
	TotalBeds     int      `json:"totalBeds" bson:"totalBeds"`
	AvailableBeds int      `json:"availableBeds" bson:"availableBeds"`
	ICUBeds       BedCount `json:"icuBeds" bson:"icuBeds"`
	Ventilators   BedCount `json:"ventilators" bson:"ventilators"`
}

// RankedHospital is a suitable hospital along with its distance from the patient
type RankedHospital struct {
	Hospital   `bson:",inline"`
	DistanceKm float64 `json:"distance_km" bson:"distance_km"`
}
