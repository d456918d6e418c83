package model

// Table is a bookable game table.  Names are unique and double as the
// identity shown to customers.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique table name (e.g. "T1").
//  Description – optional free text.
type Table struct {
	ID          uint64 `json:"id"`          // game_tables.id
	Name        string `json:"name"`        // game_tables.name
	Description string `json:"description"` // game_tables.description
}
