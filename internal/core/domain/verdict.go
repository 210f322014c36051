package domain

import (
	"strings"
	"time"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence normalizes classifier output; anything unrecognized maps to
// the empty value rather than failing the verdict.
func ParseConfidence(raw string) Confidence {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return ConfidenceLow
	case "medium":
		return ConfidenceMedium
	case "high":
		return ConfidenceHigh
	default:
		return ""
	}
}

type VerdictStatus string

const (
	VerdictSuccess VerdictStatus = "success"
	VerdictError   VerdictStatus = "error"
)

// Verdict is the classifier outcome for one (query, image) pair. Produced
// exactly once per pair and never mutated after creation.
type Verdict struct {
	ImageID      string        `json:"image_id"`
	ImageName    string        `json:"filename"`
	Match        bool          `json:"match"`
	Count        *int          `json:"count"`
	Confidence   Confidence    `json:"confidence,omitempty"`
	Description  string        `json:"description"`
	Details      string        `json:"details,omitempty"`
	LocationName string        `json:"location_name"`
	CameraIP     string        `json:"camera_ip"`
	District     string        `json:"district"`
	Mandal       string        `json:"mandal"`
	Latitude     string        `json:"latitude"`
	Longitude    string        `json:"longitude"`
	Status       VerdictStatus `json:"status"`
	Error        string        `json:"error,omitempty"`
	AnalyzedAt   time.Time     `json:"timestamp"`
}

// FailedVerdict records an image whose classification could not be completed.
// Absorbing the failure into the verdict keeps one bad image from aborting
// the job.
func FailedVerdict(img ImageRef, meta CameraMetadata, err error) Verdict {
	v := Verdict{
		ImageID:     img.ID,
		ImageName:   img.DisplayName,
		Match:       false,
		Description: "analysis failed",
		CameraIP:    CameraIPFromName(img.DisplayName),
		Status:      VerdictError,
		AnalyzedAt:  time.Now().UTC(),
	}
	if err != nil {
		v.Error = err.Error()
	}
	v.ApplyMetadata(meta)
	return v
}

// ApplyMetadata merges the camera catalog record into the verdict.
func (v *Verdict) ApplyMetadata(meta CameraMetadata) {
	v.LocationName = meta.LocationName
	v.District = meta.District
	v.Mandal = meta.Mandal
	v.Latitude = meta.Latitude
	v.Longitude = meta.Longitude
}
