package api

import (
	"time"

	"github.com/nepfaff/drake-blender-recorder/internal/catalog"
)

// ErrorResponse is the protocol's failure payload. Every failure, whatever
// its cause, is reported with this single shape; callers are not given
// distinct error kinds.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string `json:"state"`
	FramesRecorded int    `json:"frames_recorded"`
	DumpPath       string `json:"dump_path"`
	ExportPath     string `json:"export_path"`
	Exported       bool   `json:"exported"`
}

type FrameResponse struct {
	Idx         int    `json:"idx"`
	SceneSHA256 string `json:"scene_sha256"`
	ImageType   string `json:"image_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ObjectCount int    `json:"object_count"`
	ReceivedAt  string `json:"received_at"`
}

type FramesResponse struct {
	Frames []FrameResponse `json:"frames"`
}

func FrameToResponse(f *catalog.FrameRecord) FrameResponse {
	return FrameResponse{
		Idx:         f.Idx,
		SceneSHA256: f.SceneSHA256,
		ImageType:   f.ImageType,
		Width:       f.Width,
		Height:      f.Height,
		ObjectCount: f.ObjectCount,
		ReceivedAt:  f.ReceivedAt.Format(time.RFC3339),
	}
}
