// Package report renders the fight log as a printable PDF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

// Fight summarizes the rows of one duel.
type Fight struct {
	HordeHeroID    int64
	AllianceHeroID int64
	Started        time.Time
	Rows           []hero.FightLog
	// Winner is empty while the duel is unfinished or was cancelled.
	Winner hero.Faction
}

// Summarize groups rows into fights. A fight starts at every row carrying
// both starting healths and collects the rows of the same pair after it.
//
// Precondition: rows are ordered by id.
func Summarize(rows []hero.FightLog) []Fight {
	var fights []Fight
	for _, row := range rows {
		n := len(fights)
		starts := row.Horde.Health != nil && row.Alliance.Health != nil
		samePair := n > 0 &&
			fights[n-1].HordeHeroID == row.HordeHeroID &&
			fights[n-1].AllianceHeroID == row.AllianceHeroID
		if starts || !samePair {
			fights = append(fights, Fight{
				HordeHeroID:    row.HordeHeroID,
				AllianceHeroID: row.AllianceHeroID,
				Started:        row.At,
			})
			n++
		}
		f := &fights[n-1]
		f.Rows = append(f.Rows, row)
		for _, side := range []hero.Faction{hero.Horde, hero.Alliance} {
			if v := row.Side(side).Victory; v != nil && *v {
				f.Winner = side
			}
		}
	}
	return fights
}

// Names resolves hero ids for display.
type Names map[int64]string

func (n Names) of(id int64) string {
	if name, ok := n[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

var columns = []struct {
	title string
	width float64
}{
	{"Time", 55},
	{"Side", 70},
	{"Health", 45},
	{"Insp.", 40},
	{"Knows", 40},
	{"Own", 40},
	{"Uses", 40},
	{"Defends", 45},
	{"Die", 35},
	{"Victory", 45},
}

// Write renders fights to w, one section per fight.
func Write(w io.Writer, title string, fights []Fight, names Names) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(30, 30, 30)
	pdf.SetAutoPageBreak(true, 30)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 22, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 14, fmt.Sprintf("%d fights", len(fights)), "", 1, "L", false, 0, "")

	for i, f := range fights {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "B", 11)
		heading := fmt.Sprintf("Fight %d: %s (Horde) vs %s (Alliance)", i+1, names.of(f.HordeHeroID), names.of(f.AllianceHeroID))
		pdf.CellFormat(0, 16, heading, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 12, outcome(f, names), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(45, 45, 45)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range columns {
			pdf.CellFormat(c.width, 14, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 8)
		for _, row := range f.Rows {
			for _, side := range []hero.Faction{hero.Horde, hero.Alliance} {
				cells := rowCells(row, side, names)
				for j, c := range columns {
					pdf.CellFormat(c.width, 12, cells[j], "1", 0, "C", false, 0, "")
				}
				pdf.Ln(-1)
			}
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return pdf.Output(w)
}

func outcome(f Fight, names Names) string {
	switch f.Winner {
	case hero.Horde:
		return "Winner: " + names.of(f.HordeHeroID)
	case hero.Alliance:
		return "Winner: " + names.of(f.AllianceHeroID)
	}
	return "No winner"
}

func rowCells(row hero.FightLog, side hero.Faction, names Names) []string {
	s := row.Side(side)
	id := row.HordeHeroID
	if side == hero.Alliance {
		id = row.AllianceHeroID
	}
	return []string{
		row.At.Format("15:04:05"),
		strings.ToUpper(string(side[:1])) + " " + names.of(id),
		intCell(s.Health),
		boolCell(s.Inspiration),
		boolCell(s.KnowVulnerability),
		boolCell(s.OwnVulnerability),
		boolCell(s.UseVulnerability),
		boolCell(s.DefVulnerability),
		intCell(s.DiceRoll),
		boolCell(s.Victory),
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolCell(v *bool) string {
	switch {
	case v == nil:
		return ""
	case *v:
		return "yes"
	default:
		return "no"
	}
}
