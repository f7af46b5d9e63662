package baseline

import (
	"fmt"
	"strings"
	"time"

	"baselinebuilder/pkg/contracts/domain"
)

var unitReplacer = strings.NewReplacer(
	"\t", "",
	"\n", "",
	"\r", "",
	"/", "-",
	"\\", "-",
)

// SanitizeUnit trims unit and strips characters that are unsafe in a filename.
func SanitizeUnit(unit string) string {
	return unitReplacer.Replace(strings.TrimSpace(unit))
}

// Filename builds the download name {unit}_{discount}_{YYYY-MM-DD}{ext}.
func Filename(unit string, discountPercent int, now time.Time, format domain.ExportFormat) string {
	return fmt.Sprintf("%s_%d_%s%s", SanitizeUnit(unit), discountPercent, now.Format(dateLayout), format.Extension())
}
