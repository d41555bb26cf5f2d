package jscalendar

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Participant roles
const (
	RoleOwner         = "owner"
	RoleAttendee      = "attendee"
	RoleChair         = "chair"
	RoleOptional      = "optional"
	RoleInformational = "informational"
)

const mailtoScheme = "mailto:"

// participantKinds maps CUTYPE onto kind.
var participantKinds = map[string]string{
	"INDIVIDUAL": "individual",
	"GROUP":      "group",
	"RESOURCE":   "resource",
	"ROOM":       "location",
}

// participationStatuses lists the PARTSTAT values carried over. They map
// onto the lower-cased token.
var participationStatuses = map[string]bool{
	"NEEDS-ACTION": true,
	"ACCEPTED":     true,
	"DECLINED":     true,
	"TENTATIVE":    true,
	"DELEGATED":    true,
}

var participantsRule = Rule{
	Field:       "participants",
	LegacyNames: []string{ical.PropOrganizer, ical.PropAttendee},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		participants := make(map[string]*models.Participant)
		for _, prop := range a.props(ical.PropAttendee) {
			key := participantKey(prop.Value)
			if _, dup := participants[key]; dup {
				a.warn(ical.PropAttendee, "Duplicate attendee dropped", logging.String("value", prop.Value))
				continue
			}
			participants[key] = a.readParticipant(prop)
		}

		if prop := a.prop(ical.PropOrganizer); prop != nil {
			key := participantKey(prop.Value)
			p, ok := participants[key]
			if !ok {
				p = a.readParticipant(*prop)
				p.Roles = nil
				participants[key] = p
			}
			if p.Roles == nil {
				p.Roles = make(map[string]bool)
			}
			p.Roles[RoleOwner] = true
		}
		event.Participants = values.NilIfEmpty(participants)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		organizerWritten := false
		for _, key := range values.SortedKeys(event.Participants) {
			p := event.Participants[key]
			if p == nil {
				continue
			}
			address := participantAddress(p)
			if address == "" {
				return errors.MappingErrorf("participants/%s: no email or imip address", key)
			}

			if p.Roles[RoleOwner] && !organizerWritten {
				params := map[string]string{"CN": p.Name}
				a.add(ical.PropOrganizer, address, params)
				organizerWritten = true
			}
			if !isAttendee(p) {
				continue
			}

			params, err := attendeeParams(p)
			if err != nil {
				return errors.MappingErrorf("participants/%s: %v", key, err)
			}
			prop := legacy.NewICalProp(ical.PropAttendee, address, params)
			setDelegates(prop, "DELEGATED-TO", p.DelegatedTo, event.Participants)
			setDelegates(prop, "DELEGATED-FROM", p.DelegatedFrom, event.Participants)
			a.event.Props[prop.Name] = append(a.event.Props[prop.Name], *prop)
		}
		return nil
	},
}

func participantKey(address string) string {
	return values.ContentKey(ical.PropAttendee, strings.ToLower(strings.TrimSpace(address)))
}

func (a *Adapter) readParticipant(prop ical.Prop) *models.Participant {
	p := models.NewParticipant()
	p.Name = legacy.Param(prop.Params, "CN")

	address := strings.TrimSpace(prop.Value)
	if len(address) > len(mailtoScheme) && strings.EqualFold(address[:len(mailtoScheme)], mailtoScheme) {
		p.Email = address[len(mailtoScheme):]
		p.SendTo = map[string]string{"imip": mailtoScheme + p.Email}
	} else {
		p.SendTo = map[string]string{"other": address}
	}

	if cutype := legacy.Param(prop.Params, "CUTYPE"); cutype != "" {
		if kind, ok := participantKinds[strings.ToUpper(cutype)]; ok {
			p.Kind = kind
		} else {
			a.warn(prop.Name, "Unknown CUTYPE dropped", logging.String("value", cutype))
		}
	}

	p.Roles = map[string]bool{}
	switch strings.ToUpper(legacy.Param(prop.Params, "ROLE")) {
	case "CHAIR":
		p.Roles[RoleChair] = true
		p.Roles[RoleAttendee] = true
	case "OPT-PARTICIPANT":
		p.Roles[RoleOptional] = true
	case "NON-PARTICIPANT":
		p.Roles[RoleInformational] = true
	default:
		p.Roles[RoleAttendee] = true
	}

	if status := strings.ToUpper(legacy.Param(prop.Params, "PARTSTAT")); status != "" {
		if participationStatuses[status] {
			p.ParticipationStatus = strings.ToLower(status)
		} else {
			a.warn(prop.Name, "Unknown PARTSTAT dropped", logging.String("value", status))
		}
	}
	p.ExpectReply = strings.EqualFold(legacy.Param(prop.Params, "RSVP"), "TRUE")
	p.DelegatedTo = delegates(prop.Params, "DELEGATED-TO")
	p.DelegatedFrom = delegates(prop.Params, "DELEGATED-FROM")
	return p
}

// delegates reads a DELEGATED-TO/FROM parameter into a set of participant
// keys.
func delegates(params ical.Params, name string) map[string]bool {
	out := make(map[string]bool)
	for _, v := range legacy.ParamValues(params, name) {
		for _, address := range strings.Split(v, ",") {
			if address = strings.Trim(strings.TrimSpace(address), `"`); address != "" {
				out[participantKey(address)] = true
			}
		}
	}
	return values.NilIfEmpty(out)
}

// setDelegates writes the addresses of the participants keyed in set as a
// multi-valued parameter. Keys that name no participant are skipped.
func setDelegates(prop *ical.Prop, name string, set map[string]bool, participants map[string]*models.Participant) {
	var addresses []string
	for _, key := range values.SortedKeys(set) {
		if !set[key] {
			continue
		}
		if p := participants[key]; p != nil {
			if address := participantAddress(p); address != "" {
				addresses = append(addresses, address)
			}
		}
	}
	if len(addresses) > 0 {
		prop.Params[name] = addresses
	}
}

func participantAddress(p *models.Participant) string {
	if imip := p.SendTo["imip"]; values.HasText(imip) {
		return imip
	}
	if values.HasText(p.Email) {
		return mailtoScheme + p.Email
	}
	if other := p.SendTo["other"]; values.HasText(other) {
		return other
	}
	return ""
}

// isAttendee reports whether p takes part beyond organizing.
func isAttendee(p *models.Participant) bool {
	for role, on := range p.Roles {
		if on && role != RoleOwner {
			return true
		}
	}
	return len(p.Roles) == 0
}

func attendeeParams(p *models.Participant) (map[string]string, error) {
	params := map[string]string{"CN": p.Name}

	if p.Kind != "" {
		token := ""
		for cutype, kind := range participantKinds {
			if kind == p.Kind {
				token = cutype
			}
		}
		if token == "" {
			return nil, fmt.Errorf("unknown kind %q", p.Kind)
		}
		params["CUTYPE"] = token
	}

	switch {
	case p.Roles[RoleChair]:
		params["ROLE"] = "CHAIR"
	case p.Roles[RoleOptional]:
		params["ROLE"] = "OPT-PARTICIPANT"
	case p.Roles[RoleInformational]:
		params["ROLE"] = "NON-PARTICIPANT"
	default:
		params["ROLE"] = "REQ-PARTICIPANT"
	}
	for role, on := range p.Roles {
		switch role {
		case RoleOwner, RoleAttendee, RoleChair, RoleOptional, RoleInformational:
		default:
			if on {
				return nil, fmt.Errorf("unknown role %q", role)
			}
		}
	}

	if p.ParticipationStatus != "" {
		status := strings.ToUpper(p.ParticipationStatus)
		if !participationStatuses[status] {
			return nil, fmt.Errorf("unknown participationStatus %q", p.ParticipationStatus)
		}
		params["PARTSTAT"] = status
	}
	if p.ExpectReply {
		params["RSVP"] = "TRUE"
	}
	return params, nil
}
