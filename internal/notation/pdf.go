package notation

import (
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Layout constants for the drawn fallbacks, in millimeters on A4.
const (
	pageMargin   = 20.0
	staffLines   = 5
	lineSpacing  = 2.0
	systemGap    = 22.0
	noteSpacing  = 9.0
	staffTopY    = 45.0
	pageBottomY  = 270.0
	titleFontPt  = 18
	noteFontPt   = 7
	labelFontPt  = 9
	a4Width      = 210.0
)

// scoreRenderer draws a readable approximation of the score with fpdf:
// staff systems with note heads placed by pitch. It is not engraving,
// but it is a usable document when the external engine is absent.
type scoreRenderer struct{}

func (r *scoreRenderer) Name() string { return "score" }

func (r *scoreRenderer) Render(_ context.Context, musicxmlPath, outputPath string) error {
	score, err := ReadMusicXML(musicxmlPath)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	drawTitle(pdf, score.Work.Title)

	x := pageMargin
	y := staffTopY
	drawStaff(pdf, y)

	for _, part := range score.Parts {
		for _, m := range part.Measures {
			for _, n := range m.Notes {
				if x > a4Width-pageMargin {
					x = pageMargin
					y += systemGap
					if y > pageBottomY {
						pdf.AddPage()
						y = staffTopY
					}
					drawStaff(pdf, y)
				}
				if n.Rest != nil {
					x += noteSpacing / 2
					continue
				}
				drawNoteHead(pdf, x, y, n)
				x += noteSpacing
			}
			// Barline.
			if x <= a4Width-pageMargin {
				pdf.Line(x-2, y, x-2, y+float64(staffLines-1)*lineSpacing)
			}
		}
	}

	return pdf.OutputFileAndClose(outputPath)
}

// drawNoteHead places a filled dot on the staff for the note's pitch.
// E4 sits on the bottom line of the treble staff; each diatonic step is
// half a line spacing.
func drawNoteHead(pdf *fpdf.Fpdf, x, y float64, n XMLNote) {
	diatonic := map[string]int{"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6}
	stepIdx := diatonic[n.Pitch.Step]

	// Diatonic distance from E4, the bottom staff line.
	fromE4 := (n.Pitch.Octave-4)*7 + stepIdx - 2
	bottomY := y + float64(staffLines-1)*lineSpacing
	noteY := bottomY - float64(fromE4)*lineSpacing/2

	pdf.SetFillColor(0, 0, 0)
	pdf.Ellipse(x, noteY, 1.4, 1.0, 0, "F")
	if n.Pitch.Alter > 0 {
		pdf.SetFont("Helvetica", "", noteFontPt)
		pdf.Text(x-3.2, noteY+1.0, "#")
	}
}

func drawStaff(pdf *fpdf.Fpdf, y float64) {
	pdf.SetDrawColor(0, 0, 0)
	for i := 0; i < staffLines; i++ {
		lineY := y + float64(i)*lineSpacing
		pdf.Line(pageMargin, lineY, a4Width-pageMargin, lineY)
	}
}

func drawTitle(pdf *fpdf.Fpdf, title string) {
	if title == "" {
		title = defaultTitle
	}
	pdf.SetFont("Helvetica", "B", titleFontPt)
	pdf.Text(pageMargin, 25, title)
	pdf.SetFont("Helvetica", "", labelFontPt)
	pdf.Text(pageMargin, 32, "Piano transcription")
}

// textRenderer is the last rung of the ladder: the notes as plain
// time-stamped text under a staff skeleton. Always succeeds as long as
// the intermediate parses and the disk cooperates.
type textRenderer struct{}

func (r *textRenderer) Name() string { return "text" }

func (r *textRenderer) Render(_ context.Context, musicxmlPath, outputPath string) error {
	score, err := ReadMusicXML(musicxmlPath)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	drawTitle(pdf, score.Work.Title)
	drawStaff(pdf, staffTopY)

	y := staffTopY + float64(staffLines)*lineSpacing + 10
	pdf.SetFont("Helvetica", "", labelFontPt)

	for _, part := range score.Parts {
		for _, m := range part.Measures {
			for _, n := range m.Notes {
				if n.Rest != nil {
					continue
				}
				if y > pageBottomY {
					pdf.AddPage()
					y = staffTopY
				}
				accidental := ""
				if n.Pitch.Alter > 0 {
					accidental = "#"
				}
				line := fmt.Sprintf("m%d  %s%s%d  (%s)",
					m.Number, n.Pitch.Step, accidental, n.Pitch.Octave, n.Type)
				pdf.Text(pageMargin, y, line)
				y += 5
			}
		}
	}

	return pdf.OutputFileAndClose(outputPath)
}
