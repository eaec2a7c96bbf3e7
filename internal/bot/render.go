package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/restobot/internal/flow"
	"github.com/m3rciful/restobot/internal/restaurant"
)

// renderCreated confirms a finished add workflow.
func renderCreated(rec restaurant.Record) flow.Render {
	return flow.Render{Text: fmt.Sprintf("Added %s (%s).", rec.Name, rec.Location)}
}

// renderRated confirms a stored rating with the star it now carries.
func renderRated(rec restaurant.Record) flow.Render {
	return flow.Render{Text: fmt.Sprintf("Saved: %s %s.", rec.Name, stars(rec.Rating))}
}

// renderList shows the whole registry with a rate button per restaurant.
// Admins additionally get a delete button on each row.
func renderList(records []restaurant.Record, admin bool) flow.Render {
	if len(records) == 0 {
		return flow.Render{Text: textEmptyList}
	}
	var sb strings.Builder
	buttons := make([][]flow.Button, 0, len(records))
	for i, rec := range records {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(describe(rec))
		sb.WriteByte('\n')
		id := strconv.FormatInt(rec.ID, 10)
		row := []flow.Button{{
			Label:   "⭐ " + rec.Name,
			Action:  flow.ActionRate,
			Payload: id,
		}}
		if admin {
			row = append(row, flow.Button{
				Label:   "🗑",
				Action:  flow.ActionDeletePick,
				Payload: id,
			})
		}
		buttons = append(buttons, row)
	}
	return flow.Render{Text: strings.TrimRight(sb.String(), "\n"), Buttons: buttons}
}

// renderRecommendations shows rated restaurants best first, crowning the
// ones at or above the recommendation threshold. Empty input means nothing
// is rated at all.
func renderRecommendations(records []restaurant.Record, minRating int) flow.Render {
	if len(records) == 0 {
		return flow.Render{Text: textNoRecs}
	}
	var sb strings.Builder
	sb.WriteString("Worth a visit:\n")
	for i, rec := range records {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		if rec.Rating >= minRating {
			sb.WriteString("🏆 ")
		}
		sb.WriteString(describe(rec))
		sb.WriteByte('\n')
	}
	return flow.Render{Text: strings.TrimRight(sb.String(), "\n")}
}

// renderDeleteCandidates shows one pick button per restaurant plus cancel.
func renderDeleteCandidates(records []restaurant.Record) flow.Render {
	if len(records) == 0 {
		return flow.Render{Text: textEmptyList}
	}
	buttons := make([][]flow.Button, 0, len(records)+1)
	for _, rec := range records {
		buttons = append(buttons, []flow.Button{{
			Label:   rec.Name + " — " + rec.Location,
			Action:  flow.ActionDeletePick,
			Payload: strconv.FormatInt(rec.ID, 10),
		}})
	}
	buttons = append(buttons, []flow.Button{{Label: "✖ Cancel", Action: flow.ActionCancel}})
	return flow.Render{Text: "Pick a restaurant to delete.", Buttons: buttons}
}

// describe renders one registry line: name, location, rating, then the
// optional landmark and notes.
func describe(rec restaurant.Record) string {
	var sb strings.Builder
	sb.WriteString(rec.Name)
	sb.WriteString(" — ")
	sb.WriteString(rec.Location)
	if rec.Rated() {
		sb.WriteString(" ")
		sb.WriteString(stars(rec.Rating))
	}
	if rec.Landmark != nil {
		sb.WriteString("\n   📍 ")
		sb.WriteString(*rec.Landmark)
	}
	if rec.Notes != nil {
		sb.WriteString("\n   📝 ")
		sb.WriteString(*rec.Notes)
	}
	return sb.String()
}

func stars(n int) string {
	if n < restaurant.RatingMin || n > restaurant.RatingMax {
		return ""
	}
	return strings.Repeat("⭐", n)
}
