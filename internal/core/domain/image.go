package domain

import "strings"

// ImageRef identifies one corpus image. The ID is the stable identity used
// everywhere; the locator is a dereferenceable URL minted on demand and may
// expire, so it is never persisted.
type ImageRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Locator     string `json:"locator,omitempty"`
}

// CameraMetadata is the deployment-sheet record for one camera.
type CameraMetadata struct {
	LocationName  string `json:"location_name"`
	District      string `json:"district"`
	Mandal        string `json:"mandal"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	CameraType    string `json:"camera_type"`
	AnalyticsType string `json:"analytics_type"`
}

// UnknownCameraMetadata is returned for cameras absent from the catalog.
func UnknownCameraMetadata() CameraMetadata {
	return CameraMetadata{
		LocationName:  "Unknown",
		District:      "Unknown",
		Mandal:        "Unknown",
		CameraType:    "Unknown",
		AnalyticsType: "Unknown",
	}
}

// CameraIPFromName extracts the camera IP encoded in an image file name.
// Names follow the capture convention <location>_A_B_C_D_<date>_<time>.jpg:
// the four octets are the last six underscore fields minus the trailing
// date and time.
func CameraIPFromName(name string) string {
	trimmed := name
	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		trimmed = strings.TrimSuffix(trimmed, ext)
	}
	parts := strings.Split(trimmed, "_")
	if len(parts) < 6 {
		return "Unknown"
	}
	octets := parts[len(parts)-6 : len(parts)-2]
	return strings.Join(octets, ".")
}
