package jscontact

import (
	"strings"

	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Roundcube only properties
const (
	propAnniversaryX = "X-ANNIVERSARY"
	propGenderX      = "X-GENDER"
	propManager      = "X-MANAGER"
	propAssistant    = "X-ASSISTANT"
	propSpouse       = "X-SPOUSE"
)

// roundcubeOverlay covers the vCard 3 dialect written by Roundcube: X-*
// instant messengers, departments, extra TEL tokens and single purpose
// relation properties.
var roundcubeOverlay = Overlay{
	organizationsRule(true),
	speakToAsRule(roundcubeGender),
	phonesRule(phoneOptions{
		contexts: values.ContextTable{
			"home2": "private",
			"work2": "work",
		},
		composites: map[string][]string{
			"homefax": {"home", "fax"},
			"workfax": {"work", "fax"},
		},
	}),
	onlineRule([]onlineProperty{
		{name: "X-AIM", kind: models.ResourceUsername, label: "aim"},
		{name: "X-ICQ", kind: models.ResourceUsername, label: "icq"},
		{name: "X-MSN", kind: models.ResourceUsername, label: "msn"},
		{name: "X-YAHOO", kind: models.ResourceUsername, label: "yahoo"},
		{name: "X-JABBER", kind: models.ResourceUsername, label: "jabber"},
		{name: "X-SKYPE-USERNAME", kind: models.ResourceUsername, label: "skype"},
	}),
	photosRule(true),
	anniversariesRule([]anniversaryProperty{
		{name: propAnniversaryX, label: "x-anniversary"},
	}),
	relatedToRule(map[string]string{
		propManager:   "manager",
		propAssistant: "assistant",
		propSpouse:    "spouse",
	}),
}

var roundcubeGenders = map[string]string{
	"male":   values.GenderMasculine,
	"female": values.GenderFeminine,
}

var roundcubeGender = genderCodec{
	names: []string{propGenderX},
	read: func(a *Adapter) (string, bool) {
		for _, f := range a.presentFields(propGenderX) {
			if gender, ok := roundcubeGenders[strings.ToLower(strings.TrimSpace(f.Value))]; ok {
				return gender, true
			}
			a.warn(f.Name, "Unknown X-GENDER dropped", logging.String("value", f.Value))
		}
		return "", false
	},
	write: func(a *Adapter, gender string) (bool, error) {
		for value, g := range roundcubeGenders {
			if g == gender {
				a.add(propGenderX, value, nil)
				return true, nil
			}
		}
		return true, errors.MappingErrorf("speakToAs: grammatical gender %q has no X-GENDER equivalent", gender)
	},
}
