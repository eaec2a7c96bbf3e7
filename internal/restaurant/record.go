package restaurant

// Ratings are integers on a 1..5 star scale; RatingUnrated marks a record
// nobody has rated yet and is never accepted by Rate.
const (
	RatingUnrated = 0
	RatingMin     = 1
	RatingMax     = 5
)

// Record describes a single restaurant in the registry. IDs are assigned by
// the store on creation and are never reused after deletion. Landmark and
// Notes are optional and nil when absent.
type Record struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Location string  `db:"location" json:"location"`
	Landmark *string `db:"landmark" json:"landmark,omitempty"`
	Notes    *string `db:"notes" json:"notes,omitempty"`
	Rating   int     `db:"rating" json:"rating,omitempty"`
}

// Rated reports whether the record has received a rating.
func (r Record) Rated() bool {
	return r.Rating >= RatingMin
}
