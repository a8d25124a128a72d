package models

import (
	"encoding/base64"
	"time"
)

// Image is a binary image together with its MIME type.
type Image struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
}

// DataURI encodes the image for inline use in an <img> tag.
func (i Image) DataURI() string {
	ct := i.ContentType
	if ct == "" {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Empty reports whether the image has no content.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// Analysis is the display model of one successful analysis call.
type Analysis struct {
	ImageID            string        `json:"image_id"`
	PredictedClass     SeverityClass `json:"predicted_class"`
	InfectedPercentage float64       `json:"infected_percentage"`
	Result             string        `json:"result"`
	InfectedPixels     *int          `json:"infected_pixels,omitempty"`
	GreenPixels        *int          `json:"green_pixels,omitempty"`
	Original           Image         `json:"-"`
	GreenMask          Image         `json:"-"`
	InfectedHighlight  Image         `json:"-"`
	CompletedAt        time.Time     `json:"completed_at"`
}

// Complete reports whether every display field is populated.
func (a *Analysis) Complete() bool {
	return a != nil &&
		a.PredictedClass.Valid() &&
		a.InfectedPercentage >= 0 && a.InfectedPercentage <= 100 &&
		a.Result != "" &&
		!a.Original.Empty() &&
		!a.GreenMask.Empty() &&
		!a.InfectedHighlight.Empty()
}

// Payload is the JSON form of an analysis, with the masks inlined as
// base64 strings.
type Payload struct {
	ImageID            string        `json:"image_id"`
	PredictedClass     SeverityClass `json:"predicted_class"`
	Description        string        `json:"description"`
	InfectedPercentage float64       `json:"infected_percentage"`
	Result             string        `json:"result"`
	InfectedPixels     *int          `json:"infected_pixels,omitempty"`
	GreenPixels        *int          `json:"green_pixels,omitempty"`
	GreenMask          string        `json:"green_mask"`
	InfectedHighlight  string        `json:"infected_highlight"`
	CompletedAt        time.Time     `json:"completed_at"`
}

func (a *Analysis) Payload() Payload {
	return Payload{
		ImageID:            a.ImageID,
		PredictedClass:     a.PredictedClass,
		Description:        a.PredictedClass.Description(),
		InfectedPercentage: a.InfectedPercentage,
		Result:             a.Result,
		InfectedPixels:     a.InfectedPixels,
		GreenPixels:        a.GreenPixels,
		GreenMask:          base64.StdEncoding.EncodeToString(a.GreenMask.Data),
		InfectedHighlight:  base64.StdEncoding.EncodeToString(a.InfectedHighlight.Data),
		CompletedAt:        a.CompletedAt,
	}
}

// HistoryEntry returns the row this analysis contributes to history tables.
func (a *Analysis) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		ImageID:          a.ImageID,
		Class:            a.PredictedClass,
		InfectionPercent: a.InfectedPercentage,
		Timestamp:        a.CompletedAt,
	}
}
