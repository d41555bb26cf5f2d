package jscontact

// vCard property names not covered by go-vcard's Field constants.
const (
	propCreated      = "CREATED"
	propBirthPlace   = "BIRTHPLACE"
	propDeathDate    = "DEATHDATE"
	propDeathPlace   = "DEATHPLACE"
	propExpertise    = "EXPERTISE"
	propHobby        = "HOBBY"
	propInterest     = "INTEREST"
	propOrgDirectory = "ORG-DIRECTORY"
	propContactURI   = "CONTACT-URI"
	propPronouns     = "PRONOUNS"
)

// standardRules is the RFC 6350 / RFC 9554 table, in mapping order.
var standardRules = []Rule{
	uidRule,
	prodIDRule,
	kindRule,
	createdRule,
	updatedRule,
	fullNameRule,
	nameRule,
	nickNamesRule,
	organizationsRule(false),
	titlesRule,
	speakToAsRule(genderCodec{}),
	emailsRule,
	phonesRule(phoneOptions{writeOther: true}),
	onlineRule(nil),
	photosRule(false),
	languagesRule,
	addressesRule,
	anniversariesRule(nil),
	personalInfoRule,
	notesRule,
	categoriesRule,
	relatedToRule(nil),
	membersRule,
}
