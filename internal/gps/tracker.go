package gps

import (
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

// Tracker folds decoded records into the latest Fix. It is safe for
// concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	fix  Fix
	have bool
	now  func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Fix returns the current fix and whether any position has been seen.
func (t *Tracker) Fix() (Fix, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fix, t.have
}

// Apply merges rec into the fix. It returns true when the position moved,
// which is when callers publish.
func (t *Tracker) Apply(rec ubx.Record) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := &t.fix
	switch r := rec.(type) {
	case ubx.PVT:
		f.FixType = r.FixType.String()
		f.NumSV = r.NumSV
		f.Validity = validity(r.GNSSFixOK)
		if !r.Time.IsZero() {
			f.setUTC(r.Time)
		}
		if !hasPosition(r.FixType) {
			return false
		}
		f.Latitude, f.Longitude = r.Latitude, r.Longitude
		f.AltitudeM = r.HeightMSLM
		f.HAccM = r.HAccM
		f.setSpeedMS(r.GroundSpeedMS)
		f.CourseDeg = r.HeadingDeg
		return t.moved(r.MessageName(), r.Time)

	case ubx.PositionFix:
		f.Latitude, f.Longitude = r.Latitude, r.Longitude
		if !r.LatLonOnly {
			f.AltitudeM = r.HeightMSLM
			f.HAccM = r.HAccM
		}
		return t.moved(r.MessageName(), time.Time{})

	case ubx.VelocityNED:
		f.setSpeedMS(r.GroundSpeedMS)
		f.CourseDeg = r.HeadingDeg

	case ubx.TimeUTC:
		if r.ValidUTC {
			f.setUTC(r.Time)
		}

	case ubx.Status:
		f.FixType = r.FixType.String()
		f.Validity = validity(r.GNSSFixOK)

	case pipeline.Sentence:
		return t.applySentence(r)
	}
	return false
}

func (t *Tracker) applySentence(s pipeline.Sentence) bool {
	f := &t.fix
	switch m := s.Parsed.(type) {
	case nmea.RMC:
		f.Time = m.Time.String()
		f.Date = m.Date.String()
		f.Validity = string(m.Validity)
		f.SpeedKnots = m.Speed
		f.SpeedMS = m.Speed / knotsPerMS
		f.CourseDeg = m.Course
		if m.Validity != nmea.ValidRMC {
			return false
		}
		f.Latitude, f.Longitude = m.Latitude, m.Longitude
		return t.moved(s.MessageName(), time.Time{})

	case nmea.GGA:
		f.NumSV = int(m.NumSatellites)
		if m.FixQuality == nmea.Invalid {
			return false
		}
		f.Latitude, f.Longitude = m.Latitude, m.Longitude
		f.AltitudeM = m.Altitude
		return t.moved(s.MessageName(), time.Time{})
	}
	return false
}

func (t *Tracker) moved(source string, utc time.Time) bool {
	t.fix.Source = source
	if utc.IsZero() {
		t.fix.Timestamp = t.now().UTC()
	}
	t.have = true
	return true
}

func hasPosition(ft ubx.FixType) bool {
	switch ft {
	case ubx.Fix2D, ubx.Fix3D, ubx.FixGNSSDeadReckoning, ubx.FixDeadReckoning:
		return true
	}
	return false
}

func validity(ok bool) string {
	if ok {
		return "A"
	}
	return "V"
}
