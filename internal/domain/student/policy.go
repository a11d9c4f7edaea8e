package student

import (
	"time"

	"dtcteamcrm/internal/dateutil"
)

// Subscription package constants.
const (
	PackageSilver      = "Silver"
	PackageGold        = "Gold"
	PackagePlatinum    = "Platinum"
	PackageElite       = "Elite"
	PackageGrandmaster = "Grandmaster"
)

// DefaultLessons is the lesson allowance used when the package is not in
// the table. Legacy imports carry package names we no longer sell.
const DefaultLessons = 20

// packageDurations maps a package to its length in days. Grandmaster is
// listed for completeness but end dates for it are month-based, see
// EndDateFor.
var packageDurations = map[string]int{
	PackageSilver:      30,
	PackageGold:        60,
	PackagePlatinum:    90,
	PackageElite:       180,
	PackageGrandmaster: 365,
}

// packageLessons maps a package to its lesson allowance.
var packageLessons = map[string]int{
	PackageSilver:      8,
	PackageGold:        16,
	PackagePlatinum:    24,
	PackageElite:       48,
	PackageGrandmaster: 56,
}

// KnownPackage reports whether pkg is a package we sell.
func KnownPackage(pkg string) bool {
	_, ok := packageDurations[pkg]
	return ok
}

// Packages returns the package names in sales order, cheapest first.
func Packages() []string {
	return []string{PackageSilver, PackageGold, PackagePlatinum, PackageElite, PackageGrandmaster}
}

// DurationDays returns the nominal length of a package in days.
// Unknown packages fall back to the shortest plan.
func DurationDays(pkg string) int {
	if d, ok := packageDurations[pkg]; ok {
		return d
	}
	return packageDurations[PackageSilver]
}

// LessonsFor returns the lesson allowance for a package.
// POST: returns DefaultLessons for packages not in the table
func LessonsFor(pkg string) int {
	if n, ok := packageLessons[pkg]; ok {
		return n
	}
	return DefaultLessons
}

// EndDateFor derives the subscription end date from a start date and a
// package. Grandmaster runs a full calendar year rather than a fixed day
// count, so a leap year gives 366 days.
// POST: the returned date is strictly after start
func EndDateFor(start time.Time, pkg string) time.Time {
	if pkg == PackageGrandmaster {
		return dateutil.AddMonths(start, 12)
	}
	return dateutil.AddDays(start, DurationDays(pkg))
}
