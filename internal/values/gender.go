package values

import "strings"

// Grammatical genders known to JSContact.
const (
	GenderAnimate   = "animate"
	GenderCommon    = "common"
	GenderFeminine  = "feminine"
	GenderInanimate = "inanimate"
	GenderMasculine = "masculine"
	GenderNeuter    = "neuter"
)

// sexToGender maps the vCard GENDER sex component onto grammaticalGender.
// "U" (unknown) and the empty component have no equivalent.
var sexToGender = map[string]string{
	"M": GenderMasculine,
	"F": GenderFeminine,
	"N": GenderNeuter,
	"O": GenderCommon,
}

// GenderFromSex returns the grammatical gender for a GENDER sex component.
func GenderFromSex(sex string) (string, bool) {
	g, ok := sexToGender[strings.ToUpper(strings.TrimSpace(sex))]
	return g, ok
}

// SexFromGender returns the GENDER sex component for a grammatical gender.
// animate and inanimate have no generic vCard equivalent.
func SexFromGender(gender string) (string, bool) {
	for sex, g := range sexToGender {
		if g == gender {
			return sex, true
		}
	}
	return "", false
}

// Expertise levels: vCard LEVEL on EXPERTISE versus PersonalInformation.level.
var expertiseLevels = map[string]string{
	"beginner": "low",
	"average":  "medium",
	"expert":   "high",
}

// Interest levels used by HOBBY and INTEREST are already low/medium/high.
var interestLevels = map[string]string{
	"low":    "low",
	"medium": "medium",
	"high":   "high",
}

// LevelToJSON converts a LEVEL parameter into PersonalInformation.level.
func LevelToJSON(property, level string) (string, bool) {
	level = strings.ToLower(strings.TrimSpace(level))
	if strings.EqualFold(property, "EXPERTISE") {
		l, ok := expertiseLevels[level]
		return l, ok
	}
	l, ok := interestLevels[level]
	return l, ok
}

// LevelToVCard converts PersonalInformation.level back into a LEVEL
// parameter for the given property.
func LevelToVCard(property, level string) (string, bool) {
	table := interestLevels
	if strings.EqualFold(property, "EXPERTISE") {
		table = expertiseLevels
	}
	for legacy, l := range table {
		if l == level {
			return legacy, true
		}
	}
	return "", false
}
