package domain

// Position is an electable office with its ordered candidates. The backend
// owns it; the client only ever holds a cached read-only snapshot.
type Position struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
	Candidates  []Candidate `json:"candidates"`
}

// Candidate belongs to exactly one Position.
type Candidate struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Bio          string `json:"bio,omitempty"`
	Position     int    `json:"position,omitempty"`
	PositionName string `json:"position_name,omitempty"`
}
