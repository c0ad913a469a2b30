// Package catalog records per-frame metadata for the current recording
// session. The catalog is purely supplemental: the frame-list dump stays
// the only artifact the importer reads, the catalog only feeds the
// inspection endpoints.
package catalog

import (
	"crypto/rand"
	"fmt"
	"time"
)

// FrameRecord is the catalog row logged for one accepted render request.
type FrameRecord struct {
	// Idx is the frame index, equal to the simulation time step.
	Idx         int       `json:"idx"`
	SceneSHA256 string    `json:"scene_sha256"`
	ImageType   string    `json:"image_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ObjectCount int       `json:"object_count"`
	ReceivedAt  time.Time `json:"received_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
