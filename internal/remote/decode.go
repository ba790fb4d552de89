package remote

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/javiermolinar/defensegrid/internal/api"
	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

func decodeOfferings(data []byte) ([]availability.Offering, error) {
	root, err := parseArray(data)
	if err != nil {
		return nil, err
	}

	var offerings []availability.Offering
	for _, item := range root.Array() {
		o := availability.Offering{
			ID:       item.Get("id").String(),
			CourseID: item.Get("courseId").String(),
			Year:     int(item.Get("year").Int()),
			Term:     int(item.Get("term").Int()),
			Phase:    int(item.Get("phase").Int()),
		}
		if o.ID == "" {
			return nil, fmt.Errorf("%w: offering without id", ErrMalformedResponse)
		}
		if o.Dates, err = decodeDates(item.Get("dates")); err != nil {
			return nil, err
		}
		if o.Times, err = decodeTimes(item.Get("timesOfDay")); err != nil {
			return nil, err
		}
		offerings = append(offerings, o)
	}
	return offerings, nil
}

func decodeGrid(data []byte) (*availability.Grid, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformedResponse)
	}

	var (
		grid availability.Grid
		err  error
	)
	if grid.Definition.Dates, err = decodeDates(root.Get("dates")); err != nil {
		return nil, err
	}
	if grid.Definition.Times, err = decodeTimes(root.Get("timesOfDay")); err != nil {
		return nil, err
	}

	for _, item := range root.Get("availability").Array() {
		key, err := availability.ParseKey(item.Get("date").String(), item.Get("timeOfDay").String())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		grid.Persisted = append(grid.Persisted, availability.Record{
			Key:       key,
			Available: item.Get("available").Bool(),
		})
	}
	return &grid, nil
}

func decodeDefenses(data []byte, period availability.Period, loc *time.Location) ([]availability.Defense, error) {
	root, err := parseArray(data)
	if err != nil {
		return nil, err
	}

	var defenses []availability.Defense
	for _, item := range root.Array() {
		slot, err := api.ParseSlot(item.Get("slot").String(), loc)
		if err != nil {
			return nil, fmt.Errorf("%w: defense %d: %w", ErrMalformedResponse, item.Get("id").Int(), err)
		}

		d := availability.Defense{
			ID:        item.Get("id").Int(),
			Period:    period,
			Candidate: item.Get("candidate").String(),
			Slot:      slot,
		}
		if id := item.Get("offeringId").String(); id != "" {
			d.Period.OfferingID = id
		}
		for _, p := range item.Get("participants").Array() {
			d.Participants = append(d.Participants, availability.Participant{
				Member: availability.MemberID(p.Get("member").String()),
				Role:   availability.Role(p.Get("role").String()),
			})
		}
		defenses = append(defenses, d)
	}
	return defenses, nil
}

func parseArray(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return root, nil
	}
	if !root.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: expected an array", ErrMalformedResponse)
	}
	return root, nil
}

func decodeDates(r gjson.Result) ([]dateutil.Date, error) {
	var dates []dateutil.Date
	for _, v := range r.Array() {
		d, err := dateutil.ParseDate(v.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", availability.ErrMalformedGrid, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func decodeTimes(r gjson.Result) ([]dateutil.TimeOfDay, error) {
	var times []dateutil.TimeOfDay
	for _, v := range r.Array() {
		t, err := dateutil.ParseTimeOfDay(v.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", availability.ErrMalformedGrid, err)
		}
		times = append(times, t)
	}
	return times, nil
}

func errorMessage(data []byte) string {
	if gjson.ValidBytes(data) {
		if msg := gjson.GetBytes(data, "error").String(); msg != "" {
			return msg
		}
	}
	if len(data) > 200 {
		data = data[:200]
	}
	return string(data)
}
