package request

// SignInRequest is the identity asserted by the upstream OAuth front end
type SignInRequest struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
}

// CreatePartyRequest is the request body for creating a party
type CreatePartyRequest struct {
	Game string `json:"game"`
}

// JoinPartyRequest is the request body for joining a party by code
type JoinPartyRequest struct {
	Code string `json:"code"`
}

// SaveGameRequest is the request body for recording a played game
type SaveGameRequest struct {
	Game     string `json:"game"`
	Duration int    `json:"duration,omitempty"` // seconds
}
