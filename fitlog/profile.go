package fitlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tormoder/fit"
)

const (
	mesgFileID = 0

	// Globals from here up are manufacturer specific.
	mesgMfgRangeMin = 0xFF00
)

type fieldSpec struct {
	name    string
	units   string
	convert func(decoded any) (any, bool)
}

var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// messageNames pins the names the converter dispatches on; everything else is
// named from the fit profile.
var messageNames = map[uint16]string{
	0:   "file_id",
	2:   "device_settings",
	3:   "user_profile",
	7:   "zones_target",
	12:  "sport",
	18:  "session",
	19:  "lap",
	20:  "record",
	21:  "event",
	23:  "device_info",
	34:  "activity",
	49:  "file_creator",
	72:  "training_file",
	78:  "hrv",
	206: "field_description",
	207: "developer_data_id",
}

var profile = map[uint16]map[uint8]fieldSpec{
	0: { // file_id
		0: {name: "type", convert: fileTypeName},
		1: {name: "manufacturer", convert: manufacturerName},
		2: {name: "product"},
		3: {name: "serial_number"},
		4: {name: "time_created", convert: toTime},
		5: {name: "number"},
		8: {name: "product_name"},
	},
	12: { // sport
		0: {name: "sport", convert: enumName(sportNames, sportProfileName)},
		1: {name: "sub_sport", convert: subSportName},
		3: {name: "name"},
	},
	18: { // session
		253: {name: "timestamp", convert: toTime},
		2:   {name: "start_time", convert: toTime},
		5:   {name: "sport", convert: enumName(sportNames, sportProfileName)},
		7:   {name: "total_elapsed_time", units: "s", convert: scaleBy(1000, 0)},
		8:   {name: "total_timer_time", units: "s", convert: scaleBy(1000, 0)},
		9:   {name: "total_distance", units: "m", convert: scaleBy(100, 0)},
		11:  {name: "total_calories", units: "kcal"},
		14:  {name: "avg_speed", units: "m/s", convert: scaleBy(1000, 0)},
		15:  {name: "max_speed", units: "m/s", convert: scaleBy(1000, 0)},
		16:  {name: "avg_heart_rate", units: "bpm"},
		17:  {name: "max_heart_rate", units: "bpm"},
		18:  {name: "avg_cadence", units: "rpm"},
		19:  {name: "max_cadence", units: "rpm"},
		26:  {name: "num_laps"},
	},
	19: { // lap
		253: {name: "timestamp", convert: toTime},
		2:   {name: "start_time", convert: toTime},
		7:   {name: "total_elapsed_time", units: "s", convert: scaleBy(1000, 0)},
		8:   {name: "total_timer_time", units: "s", convert: scaleBy(1000, 0)},
		9:   {name: "total_distance", units: "m", convert: scaleBy(100, 0)},
		11:  {name: "total_calories", units: "kcal"},
		13:  {name: "avg_speed", units: "m/s", convert: scaleBy(1000, 0)},
		14:  {name: "max_speed", units: "m/s", convert: scaleBy(1000, 0)},
		15:  {name: "avg_heart_rate", units: "bpm"},
		16:  {name: "max_heart_rate", units: "bpm"},
		17:  {name: "avg_cadence", units: "rpm"},
		18:  {name: "max_cadence", units: "rpm"},
		24:  {name: "lap_trigger"},
		25:  {name: "sport", convert: enumName(sportNames, sportProfileName)},
		110: {name: "enhanced_avg_speed", units: "m/s", convert: scaleBy(1000, 0)},
		111: {name: "enhanced_max_speed", units: "m/s", convert: scaleBy(1000, 0)},
	},
	20: { // record
		253: {name: "timestamp", convert: toTime},
		0:   {name: "position_lat", units: "semicircles"},
		1:   {name: "position_long", units: "semicircles"},
		2:   {name: "altitude", units: "m", convert: scaleBy(5, 500)},
		3:   {name: "heart_rate", units: "bpm"},
		4:   {name: "cadence", units: "rpm"},
		5:   {name: "distance", units: "m", convert: scaleBy(100, 0)},
		6:   {name: "speed", units: "m/s", convert: scaleBy(1000, 0)},
		7:   {name: "power", units: "watts"},
		13:  {name: "temperature", units: "C"},
		53:  {name: "fractional_cadence", units: "rpm", convert: scaleBy(128, 0)},
		73:  {name: "enhanced_speed", units: "m/s", convert: scaleBy(1000, 0)},
		78:  {name: "enhanced_altitude", units: "m", convert: scaleBy(5, 500)},
	},
	21: { // event
		253: {name: "timestamp", convert: toTime},
		0:   {name: "event", convert: enumName(eventNames, eventProfileName)},
		1:   {name: "event_type", convert: enumName(eventTypeNames, nil)},
		2:   {name: "data16"},
		3:   {name: "data"},
		4:   {name: "event_group"},
	},
	49: { // file_creator
		0: {name: "software_version"},
		1: {name: "hardware_version"},
	},
}

var sportNames = map[uint64]string{
	0:  "generic",
	1:  "running",
	2:  "cycling",
	3:  "transition",
	4:  "fitness_equipment",
	5:  "swimming",
	6:  "basketball",
	7:  "soccer",
	8:  "tennis",
	9:  "american_football",
	10: "training",
	11: "walking",
	12: "cross_country_skiing",
	13: "alpine_skiing",
	14: "snowboarding",
	15: "rowing",
	16: "mountaineering",
	17: "hiking",
	18: "multisport",
	19: "paddling",
}

var eventNames = map[uint64]string{
	0:  "timer",
	3:  "workout",
	4:  "workout_step",
	5:  "power_down",
	6:  "power_up",
	7:  "off_course",
	8:  "session",
	9:  "lap",
	10: "course_point",
	11: "battery",
	26: "activity",
	27: "fitness_equipment",
	28: "length",
	32: "user_marker",
	33: "sport_point",
	36: "calibration",
}

var eventTypeNames = map[uint64]string{
	0: "start",
	1: "stop",
	2: "consecutive_depreciated",
	3: "marker",
	4: "stop_all",
	5: "begin_depreciated",
	6: "end_depreciated",
	7: "end_all_depreciated",
	8: "stop_disable",
	9: "stop_disable_all",
}

func lookupField(global uint16, num uint8) fieldSpec {
	if m, ok := profile[global]; ok {
		if s, ok := m[num]; ok {
			return s
		}
	}
	if num == timestampFieldNum {
		return fieldSpec{name: "timestamp", convert: toTime}
	}
	return fieldSpec{name: fmt.Sprintf("field_%d", num)}
}

func describeField(global uint16, num uint8, decoded any, invalid bool) Field {
	spec := lookupField(global, num)
	f := Field{Number: num, Name: spec.name, Units: spec.units, Value: decoded, Invalid: invalid}
	if invalid {
		f.Raw, f.Value = decoded, nil
		return f
	}
	if spec.convert != nil {
		if v, ok := spec.convert(decoded); ok {
			f.Raw, f.Value = decoded, v
		}
	}
	standardUnits(&f)
	return f
}

// standardUnits reports distance in km, speeds in km/h and positions in
// degrees.
func standardUnits(f *Field) {
	switch {
	case f.Name == "distance":
		if v, ok := f.Value.(float64); ok {
			f.Value = v / 1000
		}
		f.Units = "km"
	case f.Name == "speed" || strings.HasSuffix(f.Name, "_speed"):
		if v, ok := f.Value.(float64); ok {
			f.Value = v * 60 * 60 / 1000
		}
		f.Units = "km/h"
	case f.Units == "semicircles":
		if v, ok := toFloat(f.Value); ok {
			f.Raw = f.Value
			f.Value = v * 180 / (1 << 31)
		}
		f.Units = "deg"
	}
}

// deriveFields adds the fields the profile resolves dynamically, such as the
// garmin_product sub-field of file_id.product.
func deriveFields(m *Message) {
	if m.Global != mesgFileID {
		return
	}
	man, ok := m.Field("manufacturer")
	if !ok || man.Invalid {
		return
	}
	prod, ok := m.Field("product")
	if !ok || prod.Invalid {
		return
	}
	manufacturer, ok := toUint(man.rawValue())
	if !ok {
		return
	}
	product, ok := toUint(prod.rawValue())
	if !ok {
		return
	}
	switch manufacturer {
	case 1, 13, 15, 89: // garmin, dynastream_oem, dynastream, tacx
		m.Fields = append(m.Fields, Field{
			Number: prod.Number,
			Name:   "garmin_product",
			Value:  garminProductName(uint16(product)),
			Raw:    prod.Value,
		})
	}
}

func (f Field) rawValue() any {
	if f.Raw != nil {
		return f.Raw
	}
	return f.Value
}

func garminProductName(product uint16) string {
	if name, ok := profileName(fit.GarminProduct(product), "GarminProduct"); ok {
		return strings.ReplaceAll(name, "_", "")
	}
	return strconv.Itoa(int(product))
}

func messageName(global uint16) string {
	if global >= mesgMfgRangeMin {
		return fmt.Sprintf("unknown_%d", global)
	}
	if name, ok := messageNames[global]; ok {
		return name
	}
	if name, ok := profileName(fit.MesgNum(global), "MesgNum"); ok {
		return name
	}
	return fmt.Sprintf("unknown_%d", global)
}

// profileName snake-cases the name a fit profile type reports for itself.
// Values the profile does not know print as "Type(n)" and are rejected.
func profileName(v fmt.Stringer, prefix string) (string, bool) {
	name := strings.TrimPrefix(v.String(), prefix)
	if name == "" || strings.Contains(name, "(") || strings.EqualFold(name, "invalid") {
		return "", false
	}
	return snakeCase(name), true
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func enumName(table map[uint64]string, fallback func(uint64) (string, bool)) func(any) (any, bool) {
	return func(decoded any) (any, bool) {
		v, ok := toUint(decoded)
		if !ok {
			return nil, false
		}
		if name, ok := table[v]; ok {
			return name, true
		}
		if fallback != nil {
			if name, ok := fallback(v); ok {
				return name, true
			}
		}
		return nil, false
	}
}

func sportProfileName(v uint64) (string, bool) {
	return profileName(fit.Sport(v), "Sport")
}

func eventProfileName(v uint64) (string, bool) {
	return profileName(fit.Event(v), "Event")
}

func subSportName(decoded any) (any, bool) {
	v, ok := toUint(decoded)
	if !ok {
		return nil, false
	}
	if name, ok := profileName(fit.SubSport(v), "SubSport"); ok {
		return name, true
	}
	return nil, false
}

func manufacturerName(decoded any) (any, bool) {
	v, ok := toUint(decoded)
	if !ok {
		return nil, false
	}
	if name, ok := profileName(fit.Manufacturer(v), "Manufacturer"); ok {
		return name, true
	}
	return nil, false
}

func fileTypeName(decoded any) (any, bool) {
	v, ok := toUint(decoded)
	if !ok {
		return nil, false
	}
	if name, ok := profileName(fit.FileType(v), "FileType"); ok {
		return name, true
	}
	return nil, false
}

func scaleBy(scale, offset float64) func(any) (any, bool) {
	return func(decoded any) (any, bool) {
		v, ok := toFloat(decoded)
		if !ok {
			return nil, false
		}
		return v/scale - offset, true
	}
}

func toTime(decoded any) (any, bool) {
	v, ok := toUint(decoded)
	if !ok || v == 0xFFFFFFFF {
		return nil, false
	}
	return fitEpoch.Add(time.Duration(v) * time.Second), true
}

func toFloat(decoded any) (float64, bool) {
	switch v := decoded.(type) {
	case float64:
		return v, true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toUint(decoded any) (uint64, bool) {
	switch v := decoded.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	default:
		return 0, false
	}
}
