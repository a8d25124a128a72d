package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/agroscan/agroscan/pkg/models"
)

func printResult(stderr, stdout io.Writer, a *models.Analysis) {
	fmt.Fprintln(stderr)
	dim := color.New(color.FgHiBlack)
	_, _ = dim.Fprintln(stderr, "  "+strings.Repeat("━", 50))
	printInfectionBar(stderr, a.InfectedPercentage)
	fmt.Fprintln(stderr)

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(stdout, "%s\n", a.ImageID)
	fmt.Fprintln(stdout)

	_, _ = bold.Fprintln(stdout, "CLASS")
	fmt.Fprintf(stdout, "%s (%s)\n", a.PredictedClass, a.PredictedClass.Description())
	fmt.Fprintln(stdout)

	_, _ = bold.Fprintln(stdout, "INFECTION")
	fmt.Fprintf(stdout, "%.2f%%\n", a.InfectedPercentage)
	if a.InfectedPixels != nil && a.GreenPixels != nil {
		_, _ = dim.Fprintf(stdout, "%d infected / %d green pixels\n", *a.InfectedPixels, *a.GreenPixels)
	}
	fmt.Fprintln(stdout)

	_, _ = bold.Fprintln(stdout, "RESULT")
	fmt.Fprintln(stdout, a.Result)

	if susceptible(a.PredictedClass) {
		fmt.Fprintln(stderr)
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Fprintln(stderr, "  Tip: Susceptible lines should be confirmed with a field inspection.")
	}
}

// printJSON writes the analysis in the same shape as the web API, masks
// included.
func printJSON(w io.Writer, a *models.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a.Payload())
}

func susceptible(c models.SeverityClass) bool {
	switch c {
	case models.ClassMS, models.ClassMSS, models.ClassS:
		return true
	}
	return false
}

func printInfectionBar(w io.Writer, percent float64) {
	const barWidth = 24
	filled := int(percent * barWidth / 100)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var barColor *color.Color
	switch {
	case percent >= 50:
		barColor = color.New(color.FgRed)
	case percent >= 20:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgGreen)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(w, "  Infection: %.1f%% ", percent)
	_, _ = barColor.Fprint(w, bar)
	fmt.Fprintln(w)
}
