package models

// JSContact object types. Every record carries its type in "@type".
const (
	TypeCard                = "Card"
	TypeName                = "Name"
	TypeNameComponent       = "NameComponent"
	TypeNickName            = "NickName"
	TypeOrganization        = "Organization"
	TypeTitle               = "Title"
	TypeSpeakToAs           = "SpeakToAs"
	TypePronouns            = "Pronouns"
	TypeEmailAddress        = "EmailAddress"
	TypePhone               = "Phone"
	TypeResource            = "Resource"
	TypeFile                = "File"
	TypeContactLanguage     = "ContactLanguage"
	TypeAddress             = "Address"
	TypeStreetComponent     = "StreetComponent"
	TypeAnniversary         = "Anniversary"
	TypePersonalInformation = "PersonalInformation"
	TypeRelation            = "Relation"
)

// JSContactVersion is written into every Card.
const JSContactVersion = "1.0"

// Card is a JSContact contact card. Map-shaped properties are nil when no
// legacy property contributed an entry.
type Card struct {
	AtType                    string                          `json:"@type"`
	Version                   string                          `json:"version,omitempty"`
	UID                       string                          `json:"uid,omitempty"`
	ProdID                    string                          `json:"prodId,omitempty"`
	Created                   string                          `json:"created,omitempty"`
	Updated                   string                          `json:"updated,omitempty"`
	Kind                      string                          `json:"kind,omitempty"`
	Members                   map[string]bool                 `json:"members,omitempty"`
	FullName                  string                          `json:"fullName,omitempty"`
	Name                      *Name                           `json:"name,omitempty"`
	NickNames                 map[string]*NickName            `json:"nickNames,omitempty"`
	Organizations             map[string]*Organization        `json:"organizations,omitempty"`
	Titles                    map[string]*Title               `json:"titles,omitempty"`
	SpeakToAs                 *SpeakToAs                      `json:"speakToAs,omitempty"`
	Emails                    map[string]*EmailAddress        `json:"emails,omitempty"`
	Phones                    map[string]*Phone               `json:"phones,omitempty"`
	Online                    map[string]*Resource            `json:"online,omitempty"`
	Photos                    map[string]*File                `json:"photos,omitempty"`
	PreferredContactLanguages map[string][]*ContactLanguage   `json:"preferredContactLanguages,omitempty"`
	Addresses                 map[string]*Address             `json:"addresses,omitempty"`
	Anniversaries             map[string]*Anniversary         `json:"anniversaries,omitempty"`
	PersonalInfo              map[string]*PersonalInformation `json:"personalInfo,omitempty"`
	Notes                     string                          `json:"notes,omitempty"`
	Categories                map[string]bool                 `json:"categories,omitempty"`
	RelatedTo                 map[string]*Relation            `json:"relatedTo,omitempty"`
}

// NewCard returns an empty Card.
func NewCard() *Card {
	return &Card{AtType: TypeCard, Version: JSContactVersion}
}

// Name holds the ordered components of a structured name.
type Name struct {
	AtType     string           `json:"@type"`
	Components []*NameComponent `json:"components,omitempty"`
}

// NewName returns an empty Name.
func NewName() *Name {
	return &Name{AtType: TypeName}
}

// Name component types
const (
	NamePrefix     = "prefix"
	NameGiven      = "given"
	NameSurname    = "surname"
	NameAdditional = "additional"
	NameSuffix     = "suffix"
)

// NameComponent is one typed part of a Name.
type NameComponent struct {
	AtType string `json:"@type"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// NewNameComponent returns a component of the given type.
func NewNameComponent(kind, value string) *NameComponent {
	return &NameComponent{AtType: TypeNameComponent, Type: kind, Value: value}
}

// NickName is one entry of Card.NickNames.
type NickName struct {
	AtType   string          `json:"@type"`
	Name     string          `json:"name"`
	Contexts map[string]bool `json:"contexts,omitempty"`
	Pref     int             `json:"pref,omitempty"`
}

// NewNickName returns a nickname entry.
func NewNickName(name string) *NickName {
	return &NickName{AtType: TypeNickName, Name: name}
}

// Organization is a company or institution with optional units.
type Organization struct {
	AtType string   `json:"@type"`
	Name   string   `json:"name,omitempty"`
	Units  []string `json:"units,omitempty"`
}

// NewOrganization returns an empty Organization.
func NewOrganization() *Organization {
	return &Organization{AtType: TypeOrganization}
}

// Title kinds
const (
	TitleKindTitle = "title"
	TitleKindRole  = "role"
)

// Title is a job title or role.
type Title struct {
	AtType string `json:"@type"`
	Title  string `json:"title"`
	Kind   string `json:"kind,omitempty"`
}

// NewTitle returns a Title of the given kind.
func NewTitle(title, kind string) *Title {
	return &Title{AtType: TypeTitle, Title: title, Kind: kind}
}

// SpeakToAs tells how to address the contact.
type SpeakToAs struct {
	AtType            string               `json:"@type"`
	GrammaticalGender string               `json:"grammaticalGender,omitempty"`
	Pronouns          map[string]*Pronouns `json:"pronouns,omitempty"`
}

// NewSpeakToAs returns an empty SpeakToAs.
func NewSpeakToAs() *SpeakToAs {
	return &SpeakToAs{AtType: TypeSpeakToAs}
}

// Pronouns is one entry of SpeakToAs.Pronouns.
type Pronouns struct {
	AtType   string          `json:"@type"`
	Pronouns string          `json:"pronouns"`
	Contexts map[string]bool `json:"contexts,omitempty"`
	Pref     int             `json:"pref,omitempty"`
}

// NewPronouns returns a pronouns entry.
func NewPronouns(pronouns string) *Pronouns {
	return &Pronouns{AtType: TypePronouns, Pronouns: pronouns}
}

// EmailAddress is one entry of Card.Emails.
type EmailAddress struct {
	AtType   string          `json:"@type"`
	Address  string          `json:"address"`
	Contexts map[string]bool `json:"contexts,omitempty"`
	Pref     int             `json:"pref,omitempty"`
}

// NewEmailAddress returns an email entry.
func NewEmailAddress(address string) *EmailAddress {
	return &EmailAddress{AtType: TypeEmailAddress, Address: address}
}

// Phone is one entry of Card.Phones.
type Phone struct {
	AtType   string          `json:"@type"`
	Phone    string          `json:"phone"`
	Contexts map[string]bool `json:"contexts,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
	Pref     int             `json:"pref,omitempty"`
	Label    string          `json:"label,omitempty"`
}

// NewPhone returns a phone entry.
func NewPhone(number string) *Phone {
	return &Phone{AtType: TypePhone, Phone: number}
}

// Resource types
const (
	ResourceURI      = "uri"
	ResourceUsername = "username"
)

// Resource is one entry of Card.Online.
type Resource struct {
	AtType    string          `json:"@type"`
	Resource  string          `json:"resource"`
	Type      string          `json:"type,omitempty"`
	Label     string          `json:"label,omitempty"`
	MediaType string          `json:"mediaType,omitempty"`
	Contexts  map[string]bool `json:"contexts,omitempty"`
	Pref      int             `json:"pref,omitempty"`
}

// NewResource returns an online resource entry.
func NewResource(resource, kind, label string) *Resource {
	return &Resource{AtType: TypeResource, Resource: resource, Type: kind, Label: label}
}

// File is one entry of Card.Photos.
type File struct {
	AtType    string `json:"@type"`
	Href      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
	Size      int    `json:"size,omitempty"`
	Pref      int    `json:"pref,omitempty"`
}

// NewFile returns a file entry.
func NewFile(href string) *File {
	return &File{AtType: TypeFile, Href: href}
}

// ContactLanguage is one entry of Card.PreferredContactLanguages.
type ContactLanguage struct {
	AtType   string          `json:"@type"`
	Contexts map[string]bool `json:"contexts,omitempty"`
	Pref     int             `json:"pref,omitempty"`
}

// NewContactLanguage returns an empty language preference.
func NewContactLanguage() *ContactLanguage {
	return &ContactLanguage{AtType: TypeContactLanguage}
}

// Street component types
const (
	StreetPostOfficeBox = "postOfficeBox"
	StreetExtension     = "extension"
	StreetName          = "name"
)

// StreetComponent is one typed part of Address.Street.
type StreetComponent struct {
	AtType string `json:"@type"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// NewStreetComponent returns a street component of the given type.
func NewStreetComponent(kind, value string) *StreetComponent {
	return &StreetComponent{AtType: TypeStreetComponent, Type: kind, Value: value}
}

// Address is a postal address, a place, or the timezone carrier entry.
type Address struct {
	AtType      string             `json:"@type"`
	Street      []*StreetComponent `json:"street,omitempty"`
	Locality    string             `json:"locality,omitempty"`
	Region      string             `json:"region,omitempty"`
	Postcode    string             `json:"postcode,omitempty"`
	Country     string             `json:"country,omitempty"`
	CountryCode string             `json:"countryCode,omitempty"`
	Coordinates string             `json:"coordinates,omitempty"`
	TimeZone    string             `json:"timeZone,omitempty"`
	FullAddress string             `json:"fullAddress,omitempty"`
	Contexts    map[string]bool    `json:"contexts,omitempty"`
	Pref        int                `json:"pref,omitempty"`
	Label       string             `json:"label,omitempty"`
}

// NewAddress returns an empty Address.
func NewAddress() *Address {
	return &Address{AtType: TypeAddress}
}

// Anniversary types
const (
	AnniversaryBirth = "birth"
	AnniversaryDeath = "death"
)

// Anniversary is a memorable date with an optional place.
type Anniversary struct {
	AtType string   `json:"@type"`
	Type   string   `json:"type,omitempty"`
	Label  string   `json:"label,omitempty"`
	Date   string   `json:"date"`
	Place  *Address `json:"place,omitempty"`
}

// NewAnniversary returns an anniversary on date.
func NewAnniversary(date string) *Anniversary {
	return &Anniversary{AtType: TypeAnniversary, Date: date}
}

// Personal information types
const (
	PersonalExpertise = "expertise"
	PersonalHobby     = "hobby"
	PersonalInterest  = "interest"
)

// PersonalInformation is one entry of Card.PersonalInfo.
type PersonalInformation struct {
	AtType string `json:"@type"`
	Type   string `json:"type"`
	Value  string `json:"value"`
	Level  string `json:"level,omitempty"`
}

// NewPersonalInformation returns a personal information entry.
func NewPersonalInformation(kind, value string) *PersonalInformation {
	return &PersonalInformation{AtType: TypePersonalInformation, Type: kind, Value: value}
}

// Relation describes how the contact relates to another one. Relation is
// always serialized, as {} when no relation type is known.
type Relation struct {
	AtType   string          `json:"@type"`
	Relation map[string]bool `json:"relation"`
}

// NewRelation returns a relation with an empty, non-nil relation map.
func NewRelation() *Relation {
	return &Relation{AtType: TypeRelation, Relation: map[string]bool{}}
}
