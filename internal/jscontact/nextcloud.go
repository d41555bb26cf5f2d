package jscontact

import (
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

const propSocialProfile = "X-SOCIALPROFILE"

// nextcloudOverlay adds social profiles, upper case TEL types and the
// inanimate GENDER identity used by the Nextcloud contacts app.
var nextcloudOverlay = Overlay{
	onlineRule([]onlineProperty{
		{name: propSocialProfile, kind: models.ResourceURI, network: true},
	}),
	phonesRule(phoneOptions{writeOther: true, upper: true}),
	speakToAsRule(nextcloudGender),
}

// Nextcloud stores inanimate as the identity component of GENDER:N.
const inanimateIdentity = "inanimate"

var nextcloudGender = genderCodec{
	read: func(a *Adapter) (string, bool) {
		for _, f := range a.presentFields(vcard.FieldGender) {
			parts := values.SplitStructured(f.Value, 2)
			if strings.EqualFold(strings.TrimSpace(parts[0]), "N") &&
				strings.EqualFold(strings.TrimSpace(parts[1]), inanimateIdentity) {
				return values.GenderInanimate, true
			}
		}
		return "", false
	},
	write: func(a *Adapter, gender string) (bool, error) {
		if gender != values.GenderInanimate {
			return false, nil
		}
		a.add(vcard.FieldGender, values.JoinStructured("N", inanimateIdentity), nil)
		return true, nil
	},
}
