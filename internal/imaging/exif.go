package imaging

import (
	"bytes"
	"math"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Coordinates holds signed decimal degrees. A nil axis means the image
// carried no usable value for it.
type Coordinates struct {
	Latitude  *float64
	Longitude *float64
}

// ExtractGPS reads the EXIF GPS block of a JPEG, TIFF or raw EXIF payload.
// It never fails: unreadable metadata yields empty Coordinates.
func ExtractGPS(data []byte) (c Coordinates) {
	defer func() {
		// goexif is not hardened against hostile input.
		if recover() != nil {
			c = Coordinates{}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return Coordinates{}
	}

	c.Latitude = gpsAxis(x, exif.GPSLatitude, exif.GPSLatitudeRef, 'N', 'S')
	c.Longitude = gpsAxis(x, exif.GPSLongitude, exif.GPSLongitudeRef, 'E', 'W')
	return c
}

func gpsAxis(x *exif.Exif, coord, ref exif.FieldName, positive, negative byte) *float64 {
	tag, err := x.Get(coord)
	if err != nil || tag.Format() != tiff.RatVal || tag.Count < 3 {
		return nil
	}

	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		parts[i] = float64(num) / float64(den)
	}

	decimal := DMSToDecimal(parts[0], parts[1], parts[2], hemisphere(x, ref, positive) == negative)
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return nil
	}
	return &decimal
}

// hemisphere returns the first letter of the reference tag, or def when
// the tag is absent.
func hemisphere(x *exif.Exif, ref exif.FieldName, def byte) byte {
	tag, err := x.Get(ref)
	if err != nil {
		return def
	}
	s, err := tag.StringVal()
	if err != nil {
		return def
	}
	s = strings.ToUpper(strings.Trim(s, "\x00 "))
	if s == "" {
		return def
	}
	return s[0]
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees,
// negated for the southern or western hemisphere.
func DMSToDecimal(degrees, minutes, seconds float64, negative bool) float64 {
	decimal := degrees + minutes/60 + seconds/3600
	if negative {
		return -decimal
	}
	return decimal
}
