//go:build gocv

package fingerprint

import (
	"gocv.io/x/gocv"
)

// Compute decodes the image with OpenCV and returns its hue fingerprint.
// The header is checked against maxPixels before OpenCV allocates anything.
func Compute(data []byte, maxPixels int) (Vector, error) {
	if err := CheckSize(data, maxPixels); err != nil {
		return nil, err
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		return nil, ErrDecode
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)

	step := sampleStep(hsv.Cols(), hsv.Rows())

	// OpenCV stores 8-bit hue as degrees/2 and saturation/value as 0..255.
	var h histogram
	for y := 0; y < hsv.Rows(); y += step {
		for x := 0; x < hsv.Cols(); x += step {
			px := hsv.GetVecbAt(y, x)
			if float64(px[1])/255 < minSaturation || float64(px[2])/255 < minValue {
				continue
			}
			h.add(float64(px[0]) * 2)
		}
	}
	return h.vector(), nil
}
