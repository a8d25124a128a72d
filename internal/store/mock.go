package store

import (
	"time"

	"github.com/agroscan/agroscan/pkg/models"
)

func at(s string) time.Time {
	t, err := time.Parse(models.TimestampLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// MockHistory is the canned results history shown on the dashboard.
func MockHistory() []models.HistoryEntry {
	return []models.HistoryEntry{
		{ImageID: "WR001", Class: models.ClassMRMS, InfectionPercent: 22, Timestamp: at("2025-05-01 14:32")},
		{ImageID: "WR002", Class: models.ClassMS, InfectionPercent: 35, Timestamp: at("2025-05-06 09:45")},
		{ImageID: "WR003", Class: models.ClassR, InfectionPercent: 5, Timestamp: at("2025-05-08 16:20")},
		{ImageID: "WR004", Class: models.ClassMR, InfectionPercent: 12, Timestamp: at("2025-03-09 11:10")},
		{ImageID: "WR005", Class: models.ClassS, InfectionPercent: 48, Timestamp: at("2025-03-11 15:30")},
		{ImageID: "WR006", Class: models.ClassRMR, InfectionPercent: 8, Timestamp: at("2025-03-12 13:15")},
		{ImageID: "WR007", Class: models.ClassMS, InfectionPercent: 30, Timestamp: at("2025-03-23 10:45")},
		{ImageID: "WR008", Class: models.ClassMRMS, InfectionPercent: 25, Timestamp: at("2025-05-25 14:55")},
	}
}

// MockAdminLog is the canned analysis log shown in the admin panel.
func MockAdminLog() []models.HistoryEntry {
	return []models.HistoryEntry{
		{ImageID: "WR001", Class: models.ClassMRMS, InfectionPercent: 22, Timestamp: at("2025-08-15 14:32")},
		{ImageID: "WR002", Class: models.ClassMS, InfectionPercent: 35, Timestamp: at("2025-08-14 09:45")},
		{ImageID: "WR003", Class: models.ClassR, InfectionPercent: 5, Timestamp: at("2025-08-13 16:20")},
		{ImageID: "WR004", Class: models.ClassMR, InfectionPercent: 12, Timestamp: at("2025-08-12 11:10")},
		{ImageID: "WR005", Class: models.ClassS, InfectionPercent: 48, Timestamp: at("2025-08-11 15:30")},
		{ImageID: "WR006", Class: models.ClassRMR, InfectionPercent: 8, Timestamp: at("2025-08-10 13:15")},
		{ImageID: "WR007", Class: models.ClassMS, InfectionPercent: 30, Timestamp: at("2025-08-09 10:45")},
		{ImageID: "WR008", Class: models.ClassMRMS, InfectionPercent: 25, Timestamp: at("2025-08-08 14:55")},
		{ImageID: "WR009", Class: models.ClassMR, InfectionPercent: 15, Timestamp: at("2025-08-07 16:20")},
		{ImageID: "WR010", Class: models.ClassS, InfectionPercent: 55, Timestamp: at("2025-08-06 11:10")},
	}
}

// MockDashboard is the canned chart data shown on the dashboard.
func MockDashboard() models.Dashboard {
	return models.Dashboard{
		Distribution: []models.ClassCount{
			{Class: models.ClassR, Count: 15},
			{Class: models.ClassMR, Count: 22},
			{Class: models.ClassMS, Count: 18},
			{Class: models.ClassS, Count: 12},
			{Class: models.ClassRMR, Count: 8},
			{Class: models.ClassMRMS, Count: 25},
		},
		OverTime: []models.InfectionPoint{
			{Label: "2025-05", Percent: 18},
			{Label: "2025-05", Percent: 22},
			{Label: "2025-05", Percent: 19},
			{Label: "2025-05", Percent: 24},
			{Label: "2025-05", Percent: 27},
			{Label: "2025-05", Percent: 21},
			{Label: "2025-06", Percent: 15},
			{Label: "2025-06", Percent: 12},
		},
		History: MockHistory(),
	}
}

// Entries returns the history rows of records, preserving order.
func Entries(records []AnalysisRecord) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(records))
	for i, r := range records {
		out[i] = r.Entry
	}
	return out
}
