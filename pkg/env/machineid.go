package env

import (
	"github.com/denisbrodbeck/machineid"
)

// DefaultBoardID is used when the machine ID isn't available.
const DefaultBoardID = "servo"

// MachineID retrieves an ID identifying the machine, hashed per application.
func MachineID() string {
	id, err := machineid.ProtectedID("servo.go")
	if err != nil || id == "" {
		return DefaultBoardID
	}
	// the full hash is unwieldy in topics
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
