package entity

// Question is a single deck entry. correct_option is stored zero-based;
// the Oracle Adapter returns 1-based values and the conversion happens at
// insert time only (see SPEC_FULL.md §4.6 and the ambiguity note in §9).
type Question struct {
	ID            uint   `gorm:"primarykey"`
	RoomID        uint   `gorm:"column:game_id;index"`
	Team          string `gorm:"size:1"`
	OrderIndex    int
	Text          string
	Option1       string `gorm:"column:option_1"`
	Option2       string `gorm:"column:option_2"`
	Option3       string `gorm:"column:option_3"`
	Option4       string `gorm:"column:option_4"`
	CorrectOption int    `json:"-"`
	Answered      bool
}

func (Question) TableName() string { return "questions" }

// Options returns the four choices as a slice, in display order.
func (q *Question) Options() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// SetOptions fills the four discrete columns from a 4-element slice.
func (q *Question) SetOptions(opts []string) {
	q.Option1, q.Option2, q.Option3, q.Option4 = opts[0], opts[1], opts[2], opts[3]
}

// IsCorrect reports whether a zero-based option index matches.
func (q *Question) IsCorrect(optionIndex int) bool {
	return optionIndex == q.CorrectOption
}

// SpeedBonus returns the bonus points (0, 1 or 2) for a correct answer
// submitted elapsedSeconds after the question became current, per §4.1:
// bonus = 2 if elapsed <= 8, 1 if elapsed <= 15, else 0.
func SpeedBonus(elapsedSeconds int) int {
	switch {
	case elapsedSeconds <= 8:
		return 2
	case elapsedSeconds <= 15:
		return 1
	default:
		return 0
	}
}

// IsValidOption reports whether a zero-based index is in range.
func IsValidOption(optionIndex int) bool {
	return optionIndex >= 0 && optionIndex <= 3
}
