package permits

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestType classifies the movement a permit authorizes. The five literal
// codes are part of the external contract.
type RequestType string

const (
	RequestMaterialEntrance         RequestType = "material_entrance"
	RequestMaterialExit             RequestType = "material_exit"
	RequestHeavyVehicleEntranceExit RequestType = "heavy_vehicle_entrance_exit"
	RequestHeavyVehicleEntrance     RequestType = "heavy_vehicle_entrance"
	RequestHeavyVehicleExit         RequestType = "heavy_vehicle_exit"
)

// ParseRequestType validates a raw code against the closed set.
func ParseRequestType(raw string) (RequestType, error) {
	switch RequestType(raw) {
	case RequestMaterialEntrance, RequestMaterialExit, RequestHeavyVehicleEntranceExit,
		RequestHeavyVehicleEntrance, RequestHeavyVehicleExit:
		return RequestType(raw), nil
	}
	return "", fmt.Errorf("permits: unknown request type %q", raw)
}

// Material describes one item in a permit's ordered materials list.
type Material struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// Permit is the primary tracked business record.
type Permit struct {
	ID           uuid.UUID
	PermitNumber string
	Date         time.Time
	Region       string
	Location     string
	CarrierName  string
	CarrierID    string
	RequestType  RequestType
	VehiclePlate string
	Materials    []Material
	ClosedBy     *uuid.UUID
	ClosedAt     *time.Time
	ClosedByName string
	CanReopen    bool
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}

// Closed reports whether the permit is in the closed lifecycle state.
func (p Permit) Closed() bool {
	return p.ClosedAt != nil
}
