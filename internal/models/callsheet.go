package models

// CallSheet is the day-of-shoot logistics document the AI assistant
// produces. Presence of Crew or Schedule is what classifies a payload as a
// call sheet; beyond that the structure is assumed correct.
type CallSheet struct {
	ProjectTitle    string          `json:"projectTitle"`
	Client          string          `json:"client"`
	ShootDate       string          `json:"shootDate"`
	GeneralCallTime string          `json:"generalCallTime"`
	Location        string          `json:"location"`
	Weather         string          `json:"weather"`
	Crew            []CrewCall      `json:"crew"`
	Talent          []TalentCall    `json:"talent"`
	Schedule        []ScheduleEntry `json:"schedule"`
	Locations       LocationInfo    `json:"locations"`
	Notes           string          `json:"notes"`
}

// CrewCall is one crew member's call.
type CrewCall struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	CallTime string `json:"callTime"`
}

// TalentCall is one on-camera talent's call.
type TalentCall struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	CallTime string `json:"callTime"`
	Notes    string `json:"notes"`
}

// ScheduleEntry is one row of the shoot-day schedule.
type ScheduleEntry struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// LocationInfo carries the practical location details crews need on the day.
type LocationInfo struct {
	Address  string `json:"address"`
	Parking  string `json:"parking"`
	Hospital string `json:"hospital"`
}
