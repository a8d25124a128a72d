package models

import (
	"sort"
	"strconv"
	"time"
)

// TimestampLayout is the display format of history timestamps.
const TimestampLayout = "2006-01-02 15:04"

// HistoryEntry is one row of the results history and admin analysis log.
type HistoryEntry struct {
	ImageID          string        `json:"image_id"`
	Class            SeverityClass `json:"class"`
	InfectionPercent float64       `json:"infection_percent"`
	Timestamp        time.Time     `json:"timestamp"`
}

// PercentString formats the infection percentage without trailing zeros.
func (e HistoryEntry) PercentString() string {
	return strconv.FormatFloat(e.InfectionPercent, 'f', -1, 64)
}

// TimestampString formats the timestamp for tables and exports.
func (e HistoryEntry) TimestampString() string {
	return e.Timestamp.Format(TimestampLayout)
}

// ClassCount is one bar of the class distribution chart.
type ClassCount struct {
	Class SeverityClass `json:"name"`
	Count int           `json:"count"`
}

// InfectionPoint is one point of the infection-over-time chart.
type InfectionPoint struct {
	Label   string  `json:"date"`
	Percent float64 `json:"percent"`
}

// Dashboard bundles the data shown on the results dashboard.
type Dashboard struct {
	Distribution []ClassCount     `json:"class_distribution"`
	OverTime     []InfectionPoint `json:"infection_over_time"`
	History      []HistoryEntry   `json:"history"`
}

// ClassDistribution counts entries per dashboard class, in dashboard order.
func ClassDistribution(entries []HistoryEntry) []ClassCount {
	counts := make(map[SeverityClass]int, len(DashboardClasses))
	for _, e := range entries {
		counts[e.Class]++
	}
	out := make([]ClassCount, 0, len(DashboardClasses))
	for _, c := range DashboardClasses {
		out = append(out, ClassCount{Class: c, Count: counts[c]})
	}
	return out
}

// InfectionOverTime returns one point per entry labelled by month, oldest first.
func InfectionOverTime(entries []HistoryEntry) []InfectionPoint {
	sorted := make([]HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	out := make([]InfectionPoint, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, InfectionPoint{Label: e.Timestamp.Format("2006-01"), Percent: e.InfectionPercent})
	}
	return out
}
