// Package analyzer is the client for the external wheat rust analysis service.
package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/agroscan/agroscan/pkg/models"
)

// DefaultEndpoint is where the analysis service listens when run locally.
const DefaultEndpoint = "http://127.0.0.1:5000/analyze"

var (
	ErrNoImage         = errors.New("please select an image file")
	ErrNoImageID       = errors.New("please enter an image ID")
	ErrUnsupportedType = errors.New("invalid image: only PNG, JPG and JPEG are supported")
	ErrAnalysisFailed  = errors.New("invalid image, please provide a wheat leaf sample")
)

// allowedTypes maps accepted MIME types to the file extension the service expects.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpeg",
}

// Upload is one image submitted for analysis.
type Upload struct {
	ImageID     string
	Filename    string
	ContentType string
	Data        []byte
}

// Validate checks an upload before any network call is made.
func Validate(u *Upload) error {
	if u == nil || len(u.Data) == 0 {
		return ErrNoImage
	}
	if _, ok := allowedTypes[u.ContentType]; !ok {
		return ErrUnsupportedType
	}
	if strings.TrimSpace(u.ImageID) == "" {
		return ErrNoImageID
	}
	return nil
}

// DetectContentType normalizes the declared MIME type of an upload, sniffing
// the content when the browser sent nothing useful.
func DetectContentType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return strings.ToLower(mt)
		}
	}
	if len(data) == 0 {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// Client calls the analysis service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// New creates a Client. A zero timeout leaves requests bounded only by the
// caller's context.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// response is the JSON body returned by the analysis service.
type response struct {
	PredictedClass     string   `json:"predicted_class"`
	InfectedPercentage *float64 `json:"infected_percentage"`
	Result             string   `json:"result"`
	GreenMask          string   `json:"green_mask"`
	InfectedHighlight  string   `json:"infected_highlight"`
	InfectedPixels     *int     `json:"infected_pixels,omitempty"`
	GreenPixels        *int     `json:"green_pixels,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// Analyze submits the upload and maps the response into the display model.
// Every failure past validation wraps ErrAnalysisFailed.
func (c *Client) Analyze(ctx context.Context, u *Upload) (*models.Analysis, error) {
	if err := Validate(u); err != nil {
		return nil, err
	}

	body, contentType, err := encodeForm(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrAnalysisFailed, err)
	}

	var r response
	decodeErr := json.Unmarshal(raw, &r)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && r.Error != "" {
			msg = r.Error
		}
		return nil, fmt.Errorf("%w: service returned %d: %s", ErrAnalysisFailed, resp.StatusCode, truncate(msg, 200))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", ErrAnalysisFailed, decodeErr)
	}

	return c.mapResponse(u, &r)
}

func (c *Client) mapResponse(u *Upload, r *response) (*models.Analysis, error) {
	class, err := models.ParseSeverityClass(r.PredictedClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if r.InfectedPercentage == nil {
		return nil, fmt.Errorf("%w: response missing infected_percentage", ErrAnalysisFailed)
	}
	mask, err := decodeImage(r.GreenMask)
	if err != nil {
		return nil, fmt.Errorf("%w: green_mask: %v", ErrAnalysisFailed, err)
	}
	highlight, err := decodeImage(r.InfectedHighlight)
	if err != nil {
		return nil, fmt.Errorf("%w: infected_highlight: %v", ErrAnalysisFailed, err)
	}

	a := &models.Analysis{
		ImageID:            u.ImageID,
		PredictedClass:     class,
		InfectedPercentage: *r.InfectedPercentage,
		Result:             r.Result,
		InfectedPixels:     r.InfectedPixels,
		GreenPixels:        r.GreenPixels,
		Original:           models.Image{Data: u.Data, ContentType: u.ContentType},
		GreenMask:          models.Image{Data: mask, ContentType: "image/png"},
		InfectedHighlight:  models.Image{Data: highlight, ContentType: "image/png"},
		CompletedAt:        c.now(),
	}
	if !a.Complete() {
		return nil, fmt.Errorf("%w: incomplete response", ErrAnalysisFailed)
	}
	return a, nil
}

// decodeImage decodes a base64 PNG, tolerating a data URI prefix.
func decodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, errors.New("empty image")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the multipart body with the image and image_id fields.
func encodeForm(u *Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(uploadFilename(u))))
	h.Set("Content-Type", u.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(u.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("image_id", u.ImageID); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// uploadFilename returns a filename whose extension the service accepts,
// since it filters uploads by extension rather than content.
func uploadFilename(u *Upload) string {
	name := filepath.Base(u.Filename)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return name
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "upload"
	}
	return stem + allowedTypes[u.ContentType]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
