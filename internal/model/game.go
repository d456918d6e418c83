package model

// Game is a boxed game lent out per timeslot.  Stock is the number of
// copies owned; how many are free for a given date and slot is derived
// from non-cancelled booking items, never stored.
type Game struct {
	ID          uint64 `json:"id"`          // games.id
	Name        string `json:"name"`        // games.name
	Description string `json:"description"` // games.description
	ImageURL    string `json:"image_url"`   // games.image_url
	Stock       int    `json:"stock"`       // games.stock
}
