package files

import (
	"strings"

	"travelcli/internal/dates"
)

// Category identifies what kind of input a raw file is.
type Category string

const (
	CategoryRoster       Category = "roster"
	CategoryAlibaba      Category = "alibaba"
	CategoryCtrip        Category = "ctrip"
	CategoryZaitu        Category = "zaitu"
	CategoryUnclassified Category = "unclassified"
)

// Filename markers. Rosters are recognized anywhere in the name, vendor
// statements by their fixed prefix.
const (
	rosterMarker  = "花名册"
	alibabaMarker = "阿里"
	ctripMarker   = "携程"
	zaituMarker   = "在途"
)

// Classify categorizes a filename into exactly one category.
func Classify(filename string) Category {
	switch {
	case strings.Contains(filename, rosterMarker):
		return CategoryRoster
	case strings.HasPrefix(filename, alibabaMarker):
		return CategoryAlibaba
	case strings.HasPrefix(filename, ctripMarker):
		return CategoryCtrip
	case strings.HasPrefix(filename, zaituMarker):
		return CategoryZaitu
	default:
		return CategoryUnclassified
	}
}

// TravelFile is a classified vendor statement with its derived attribution.
type TravelFile struct {
	FileInfo
	Source Category
	// DateRange is the booking period extracted from the filename; HasRange
	// is false for unattributable files, which the pipeline skips.
	DateRange dates.DateRange
	HasRange  bool
	// TargetMonth is the dominant month of the range.
	TargetMonth string
	// MatchingRoster is the roster month selected for department lookups;
	// empty when no roster months exist.
	MatchingRoster string
}

// RosterFile is a classified roster file with its extracted month.
type RosterFile struct {
	FileInfo
	Month string
}

// ScanResult groups one directory scan's classified files.
type ScanResult struct {
	// Rosters maps month key to roster file; a later file for the same
	// month replaces the earlier one.
	Rosters map[string]RosterFile
	Alibaba []TravelFile
	Ctrip   []TravelFile
	Zaitu   []TravelFile
	// Unattributable holds travel files whose names carry no usable date
	// token, and roster files without a month token.
	Unattributable []FileInfo
	Unclassified   []FileInfo
}

// AllTravelFiles returns the vendor files in scan order, alibaba first.
func (r *ScanResult) AllTravelFiles() []TravelFile {
	out := make([]TravelFile, 0, len(r.Alibaba)+len(r.Ctrip)+len(r.Zaitu))
	out = append(out, r.Alibaba...)
	out = append(out, r.Ctrip...)
	out = append(out, r.Zaitu...)
	return out
}

// RosterMonths returns the available roster months, unsorted.
func (r *ScanResult) RosterMonths() []string {
	months := make([]string, 0, len(r.Rosters))
	for m := range r.Rosters {
		months = append(months, m)
	}
	return months
}

// ScanAndClassify scans a raw-input directory, classifies every Excel file,
// derives each travel file's target month from its filename date range, and
// selects the best-matching roster month for it. A missing directory is an
// error; everything else degrades per file.
func (d *Discovery) ScanAndClassify(dir string) (*ScanResult, error) {
	excelFiles, err := d.FindExcelFiles(dir)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Rosters: make(map[string]RosterFile)}

	for _, file := range excelFiles {
		switch category := Classify(file.Name); category {
		case CategoryRoster:
			month, ok := dates.ExtractRosterMonth(file.Name)
			if !ok {
				result.Unattributable = append(result.Unattributable, file)
				continue
			}
			result.Rosters[month] = RosterFile{FileInfo: file, Month: month}

		case CategoryAlibaba, CategoryCtrip, CategoryZaitu:
			travel := TravelFile{FileInfo: file, Source: category}
			if rng, ok := dates.ParseRange(file.Name); ok {
				travel.DateRange = rng
				travel.HasRange = true
				travel.TargetMonth = rng.DominantMonth()
			} else {
				result.Unattributable = append(result.Unattributable, file)
				continue
			}

			switch category {
			case CategoryAlibaba:
				result.Alibaba = append(result.Alibaba, travel)
			case CategoryCtrip:
				result.Ctrip = append(result.Ctrip, travel)
			case CategoryZaitu:
				result.Zaitu = append(result.Zaitu, travel)
			}

		default:
			result.Unclassified = append(result.Unclassified, file)
		}
	}

	// Second pass: roster matching needs the full set of roster months.
	months := result.RosterMonths()
	assign := func(files []TravelFile) {
		for i := range files {
			if matched, ok := dates.MatchRoster(files[i].TargetMonth, months); ok {
				files[i].MatchingRoster = matched
			}
		}
	}
	assign(result.Alibaba)
	assign(result.Ctrip)
	assign(result.Zaitu)

	return result, nil
}
