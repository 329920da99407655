package models

// ShotList is the structured document the AI assistant produces for a
// planned shoot. It passes through the normalizer with minimal validation:
// presence of Scenes is what classifies a payload as a shot list.
type ShotList struct {
	ProjectTitle string  `json:"projectTitle"`
	Scenes       []Scene `json:"scenes"`
}

// Scene groups the shots filmed at one location/setup.
type Scene struct {
	SceneNumber string `json:"sceneNumber"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Shots       []Shot `json:"shots"`
}

// Shot is a single planned camera setup.
type Shot struct {
	ShotNumber int `json:"shotNumber"`

	// Size is the framing: "WS", "MS", "CU" or "ECU".
	Size string `json:"size"`

	// Type is the movement: "Static", "Handheld", "Gimbal" or "Dolly".
	Type string `json:"type"`

	Description string `json:"description"`
	Notes       string `json:"notes"`
}
