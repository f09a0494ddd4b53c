package pathtemplate

import (
	"fmt"
	"path"
	"strings"

	"github.com/adsamcik/photocopy/internal/model"
)

// RawValue computes the unconditioned value of a KNOWN_VARIABLES identifier
// for one file. number is the duplicate
// counter threaded in by the Collision Resolver; it is 0 during the scan
// pass and whenever the template does not reference {number}.
func RawValue(identifier string, rec *model.FileRecord, opts model.Options, number int) string {
	switch identifier {
	case "year":
		return fmt.Sprintf("%04d", rec.DateTime.Value.Year())
	case "month":
		return fmt.Sprintf("%02d", rec.DateTime.Value.Month())
	case "day":
		return fmt.Sprintf("%02d", rec.DateTime.Value.Day())
	case "dayOfYear":
		return fmt.Sprintf("%03d", rec.DateTime.Value.YearDay())
	case "name":
		return rec.Name
	case "namenoext":
		ext := path.Ext(rec.Name)
		return strings.TrimSuffix(rec.Name, ext)
	case "ext":
		ext := path.Ext(rec.Name)
		return strings.TrimPrefix(ext, ".")
	case "directory":
		dir := path.Dir(path.Clean(filepathToSlash(rec.RelPath)))
		if dir == "." {
			return ""
		}
		return dir
	case "number":
		if number <= 0 {
			return ""
		}
		return fmt.Sprintf("%d", number)
	case "district":
		return locationField(rec.Location, func(l *model.LocationData) string { return l.District })
	case "city":
		return locationField(rec.Location, func(l *model.LocationData) string { return l.City })
	case "county":
		return locationField(rec.Location, func(l *model.LocationData) string { return l.County })
	case "state":
		return locationField(rec.Location, func(l *model.LocationData) string { return l.State })
	case "country":
		return locationField(rec.Location, func(l *model.LocationData) string {
			if opts.CountryAsCode {
				return l.CountryCode
			}
			return l.Country
		})
	default:
		return ""
	}
}

func locationField(loc *model.LocationData, pick func(*model.LocationData) string) string {
	if loc == nil {
		return ""
	}
	return pick(loc)
}

// filepathToSlash normalizes a relative path to forward slashes regardless
// of the host platform's separator — PhotoCopy always renders
// forward-slash, no trailing separator (see DESIGN.md).
func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
