package models

import (
	"regexp"
	"strings"
)

// rankingPrefixRegex matches poll rankings in front of a team name:
// "#5 Georgia", "5 Georgia", "(5) Georgia", "No. 5 Georgia".
var rankingPrefixRegex = regexp.MustCompile(`^(?:#\s*\d+|\(\d+\)|No\.\s*\d+|\d+)\s+`)

// recordSuffixRegex matches a trailing win-loss record: "Georgia (6-0)".
var recordSuffixRegex = regexp.MustCompile(`\s*\(\d+-\d+(?:-\d+)?\)$`)

// stAbbrevRegex matches a non-leading "St" / "St." word ("Ohio St.", "Boise St").
// A leading "St." is Saint and is left alone.
var stAbbrevRegex = regexp.MustCompile(`(\S)\s+St\.?(\s|$)`)

// teamMascots maps canonical school names to their mascot. Each entry makes
// "<school> <mascot>" an alias of "<school>".
var teamMascots = map[string]string{
	"Air Force":         "Falcons",
	"Akron":             "Zips",
	"Alabama":           "Crimson Tide",
	"Appalachian State": "Mountaineers",
	"Arizona":           "Wildcats",
	"Arizona State":     "Sun Devils",
	"Arkansas":          "Razorbacks",
	"Army":              "Black Knights",
	"Auburn":            "Tigers",
	"Baylor":            "Bears",
	"Boise State":       "Broncos",
	"Boston College":    "Eagles",
	"BYU":               "Cougars",
	"California":        "Golden Bears",
	"Cincinnati":        "Bearcats",
	"Clemson":           "Tigers",
	"Colorado":          "Buffaloes",
	"Colorado State":    "Rams",
	"Duke":              "Blue Devils",
	"Florida":           "Gators",
	"Florida State":     "Seminoles",
	"Fresno State":      "Bulldogs",
	"Georgia":           "Bulldogs",
	"Georgia Tech":      "Yellow Jackets",
	"Houston":           "Cougars",
	"Illinois":          "Fighting Illini",
	"Indiana":           "Hoosiers",
	"Iowa":              "Hawkeyes",
	"Iowa State":        "Cyclones",
	"Kansas":            "Jayhawks",
	"Kansas State":      "Wildcats",
	"Kentucky":          "Wildcats",
	"Louisville":        "Cardinals",
	"LSU":               "Tigers",
	"Maryland":          "Terrapins",
	"Memphis":           "Tigers",
	"Miami":             "Hurricanes",
	"Michigan":          "Wolverines",
	"Michigan State":    "Spartans",
	"Minnesota":         "Golden Gophers",
	"Mississippi State": "Bulldogs",
	"Missouri":          "Tigers",
	"Navy":              "Midshipmen",
	"NC State":          "Wolfpack",
	"Nebraska":          "Cornhuskers",
	"North Carolina":    "Tar Heels",
	"Northwestern":      "Wildcats",
	"Notre Dame":        "Fighting Irish",
	"Ohio State":        "Buckeyes",
	"Oklahoma":          "Sooners",
	"Oklahoma State":    "Cowboys",
	"Ole Miss":          "Rebels",
	"Oregon":            "Ducks",
	"Oregon State":      "Beavers",
	"Penn State":        "Nittany Lions",
	"Pittsburgh":        "Panthers",
	"Purdue":            "Boilermakers",
	"Rutgers":           "Scarlet Knights",
	"SMU":               "Mustangs",
	"South Carolina":    "Gamecocks",
	"Stanford":          "Cardinal",
	"Syracuse":          "Orange",
	"TCU":               "Horned Frogs",
	"Tennessee":         "Volunteers",
	"Texas":             "Longhorns",
	"Texas A&M":         "Aggies",
	"Texas Tech":        "Red Raiders",
	"Tulane":            "Green Wave",
	"UCF":               "Knights",
	"UCLA":              "Bruins",
	"USC":               "Trojans",
	"Utah":              "Utes",
	"Vanderbilt":        "Commodores",
	"Virginia":          "Cavaliers",
	"Virginia Tech":     "Hokies",
	"Wake Forest":       "Demon Deacons",
	"Washington":        "Huskies",
	"Washington State":  "Cougars",
	"West Virginia":     "Mountaineers",
	"Wisconsin":         "Badgers",
}

// teamAliases maps alternate spellings (lower case) to canonical names.
var teamAliases = map[string]string{
	"mississippi":             "Ole Miss",
	"miami (fl)":              "Miami",
	"miami fl":                "Miami",
	"miami-florida":           "Miami",
	"southern california":     "USC",
	"southern cal":            "USC",
	"louisiana state":         "LSU",
	"texas christian":         "TCU",
	"central florida":         "UCF",
	"brigham young":           "BYU",
	"southern methodist":      "SMU",
	"pitt":                    "Pittsburgh",
	"north carolina state":    "NC State",
	"n.c. state":              "NC State",
	"texas a & m":             "Texas A&M",
	"texas am":                "Texas A&M",
	"app state":               "Appalachian State",
	"cal":                     "California",
	"miami (fl) hurricanes":   "Miami",
	"ole miss rebels":         "Ole Miss",
	"mississippi rebels":      "Ole Miss",
	"army west point":         "Army",
	"army black knights":      "Army",
	"nc state wolfpack":       "NC State",
	"penn st nittany lions":   "Penn State",
	"ohio st buckeyes":        "Ohio State",
	"fla state":               "Florida State",
	"florida st seminoles":    "Florida State",
	"michigan st spartans":    "Michigan State",
	"oklahoma st cowboys":     "Oklahoma State",
	"boise st broncos":        "Boise State",
	"appalachian st":          "Appalachian State",
	"pittsburgh panthers":     "Pittsburgh",
	"southern california usc": "USC",
}

func init() {
	for school, mascot := range teamMascots {
		key := strings.ToLower(school)
		teamAliases[key] = school
		teamAliases[key+" "+strings.ToLower(mascot)] = school
	}
}

// CanonicalTeamName maps the different ways upstream pages spell a team to
// one display name, so that gameline keys from different sources and refresh
// cycles compare equal. Unknown teams are returned cleaned but otherwise
// unchanged.
func CanonicalTeamName(name string) string {
	s := strings.Join(strings.Fields(name), " ")
	if s == "" {
		return ""
	}
	s = rankingPrefixRegex.ReplaceAllString(s, "")
	s = recordSuffixRegex.ReplaceAllString(s, "")
	s = stAbbrevRegex.ReplaceAllString(s, "${1} State${2}")
	s = strings.TrimSpace(s)

	if canonical, ok := teamAliases[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

// SameTeam reports whether two upstream spellings name the same team.
func SameTeam(a, b string) bool {
	return strings.EqualFold(CanonicalTeamName(a), CanonicalTeamName(b))
}
