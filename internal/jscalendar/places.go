package jscalendar

import (
	"strconv"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Link relations used for URL and ATTACH.
const (
	relDescribedBy = "describedby"
	relEnclosure   = "enclosure"
)

// locationsRule joins LOCATION and GEO into one Location. iCalendar has a
// single LOCATION slot, so only the first location is written back.
var locationsRule = Rule{
	Field:       "locations",
	LegacyNames: []string{ical.PropLocation, ical.PropGeo},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		name := a.text(ical.PropLocation)
		var coordinates string
		if raw := a.value(ical.PropGeo); raw != "" {
			c, err := values.ParseICalGeo(raw)
			if err != nil {
				a.warn(ical.PropGeo, "Invalid GEO dropped", logging.String("value", raw))
			} else {
				coordinates = c.URI()
			}
		}
		if name == "" && coordinates == "" {
			return
		}
		loc := models.NewLocation()
		loc.Name = name
		loc.Coordinates = coordinates
		event.Locations = map[string]*models.Location{
			values.ContentKey(ical.PropLocation, name+coordinates): loc,
		}
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		keys := values.SortedKeys(event.Locations)
		written := false
		for _, key := range keys {
			loc := event.Locations[key]
			if loc == nil || !values.AnyPresent(loc.Name, loc.Coordinates) {
				continue
			}
			if written {
				a.warn(ical.PropLocation, "Additional location dropped", logging.String("key", key))
				continue
			}
			var geo string
			if values.HasText(loc.Coordinates) {
				c, err := values.ParseGeoURI(loc.Coordinates)
				if err != nil {
					return errors.MappingErrorf("locations/%s/coordinates: %v", key, err)
				}
				geo = c.ICal()
			}
			if values.HasText(loc.Name) {
				a.addText(ical.PropLocation, loc.Name, nil)
			}
			if geo != "" {
				a.add(ical.PropGeo, geo, nil)
			}
			written = true
		}
		return nil
	},
}

// linksRule maps URL onto a "describedby" link and each ATTACH onto an
// "enclosure" link.
var linksRule = Rule{
	Field:       "links",
	LegacyNames: []string{ical.PropURL, ical.PropAttach},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		links := make(map[string]*models.Link)
		for _, prop := range a.props(ical.PropURL) {
			link := models.NewLink(prop.Value)
			link.Rel = relDescribedBy
			links[values.UniqueKey(links, values.ContentKey(ical.PropURL, prop.Value))] = link
		}
		for _, prop := range a.props(ical.PropAttach) {
			if legacy.Param(prop.Params, "VALUE") == "BINARY" {
				a.warn(ical.PropAttach, "Inline attachment dropped")
				continue
			}
			link := models.NewLink(prop.Value)
			link.Rel = relEnclosure
			link.ContentType = legacy.Param(prop.Params, "FMTTYPE")
			if size := legacy.Param(prop.Params, "SIZE"); size != "" {
				if n, err := strconv.Atoi(size); err == nil && n > 0 {
					link.Size = n
				}
			}
			links[values.UniqueKey(links, values.ContentKey(ical.PropAttach, prop.Value))] = link
		}
		event.Links = values.NilIfEmpty(links)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		for _, key := range values.SortedKeys(event.Links) {
			link := event.Links[key]
			if link == nil || !values.HasText(link.Href) {
				continue
			}
			if link.Size < 0 {
				return errors.MappingErrorf("links/%s/size: negative value %d", key, link.Size)
			}
			switch link.Rel {
			case relDescribedBy:
				a.add(ical.PropURL, link.Href, nil)
			default:
				params := map[string]string{"FMTTYPE": link.ContentType}
				if link.Size > 0 {
					params["SIZE"] = strconv.Itoa(link.Size)
				}
				a.add(ical.PropAttach, link.Href, params)
			}
		}
		return nil
	},
}
