package flow

import "strconv"

// Button is a labeled action the transport renders under a message.
type Button struct {
	Label   string
	Action  string
	Payload string
}

// Render describes an outbound reply without any transport formatting.
type Render struct {
	Text    string
	Buttons [][]Button
}

// Empty reports whether there is nothing to render.
func (r Render) Empty() bool {
	return r.Text == "" && len(r.Buttons) == 0
}

func cancelRow() []Button {
	return []Button{{Label: "✖ Cancel", Action: ActionCancel}}
}

func skipCancelRow() []Button {
	return []Button{
		{Label: "Skip", Action: ActionSkip},
		{Label: "✖ Cancel", Action: ActionCancel},
	}
}

func starRows() [][]Button {
	stars := make([]Button, 0, 5)
	for i := 1; i <= 5; i++ {
		stars = append(stars, Button{
			Label:   ratingLabel(i),
			Action:  ActionRateScore,
			Payload: strconv.Itoa(i),
		})
	}
	return [][]Button{stars, cancelRow()}
}

func ratingLabel(n int) string {
	return strconv.Itoa(n) + "⭐"
}

