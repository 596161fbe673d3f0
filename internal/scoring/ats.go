package scoring

import (
	"strings"

	"resume-builder/internal/content"
	"resume-builder/internal/templates"
)

const (
	atsCheckPoints     = 20
	defaultTemplateID  = "classic"
	defaultSafeFont    = "Arial"
	singleColumnLayout = 1
)

var recognizedFonts = []string{
	"arial",
	"book antiqua",
	"calibri",
	"cambria",
	"garamond",
	"georgia",
	"helvetica",
	"lato",
	"open sans",
	"roboto",
	"tahoma",
	"times new roman",
	"trebuchet ms",
	"verdana",
}

func scoreATS(r content.Resume, documentTemplate string, b *Breakdown) int {
	templateID := documentTemplate
	if templateID == "" {
		templateID = r.Settings.TemplateID
	}
	if templateID == "" {
		templateID = defaultTemplateID
	}
	// An unknown template leaves font/columns to the settings and fails the PDF check.
	tpl, known := templates.Lookup(templateID)

	font := strings.TrimSpace(r.Settings.FontFamily)
	if font == "" {
		font = tpl.FontFamily
	}
	columns := r.Settings.Columns
	if columns <= 0 {
		columns = tpl.Columns
	}
	if columns <= 0 {
		columns = singleColumnLayout
	}

	b.ATS = ATSChecklist{
		StandardSections: len(r.Work) > 0 && len(r.Education) > 0 && hasSkills(r),
		NoPhoto:          strings.TrimSpace(r.Basics.PhotoURL) == "",
		RecognizedFont:   isRecognizedFont(font),
		SingleColumn:     columns <= singleColumnLayout,
		PDFCompatible:    known && tpl.ATSSafe,
	}

	score := 0
	for _, ok := range []bool{b.ATS.StandardSections, b.ATS.NoPhoto, b.ATS.RecognizedFont, b.ATS.SingleColumn, b.ATS.PDFCompatible} {
		if ok {
			score += atsCheckPoints
		}
	}
	return score
}

func isRecognizedFont(font string) bool {
	font = strings.ToLower(strings.Trim(strings.TrimSpace(font), `"'`))
	for _, f := range recognizedFonts {
		if f == font {
			return true
		}
	}
	return false
}

func hasSkills(r content.Resume) bool {
	for _, s := range r.Skills {
		if strings.TrimSpace(s.Name) != "" || len(nonEmpty(s.Keywords)) > 0 {
			return true
		}
	}
	return false
}
