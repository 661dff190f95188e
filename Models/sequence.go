package Models

// Sequence is the counter row behind the human readable ids, named by
// prefix plus date, e.g. "TK240510".
type Sequence struct {
	Name string `gorm:"primaryKey;size:32"`
	Last int    `gorm:"not null"`
}
