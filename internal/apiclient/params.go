package apiclient

import (
	"net/url"
	"strconv"

	"github.com/marcus/giftwell/internal/models"
)

func pageValues(p models.PageParams) url.Values {
	v := url.Values{}
	if p.Cursor != "" {
		v.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

func setID(v url.Values, name string, id int64) {
	if id != 0 {
		v.Set(name, strconv.FormatInt(id, 10))
	}
}

func personValues(f models.PersonFilter) url.Values {
	v := pageValues(f.PageParams)
	setID(v, "group_id", f.GroupID)
	return v
}

func giftValues(f models.GiftFilter) url.Values {
	v := pageValues(f.PageParams)
	for _, id := range f.PersonIDs {
		v.Add("person_ids", strconv.FormatInt(id, 10))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	for _, tag := range f.Tags {
		v.Add("tags", tag)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

func listValues(f models.ListFilter) url.Values {
	v := pageValues(f.PageParams)
	setID(v, "occasion_id", f.OccasionID)
	setID(v, "person_id", f.PersonID)
	return v
}

func occasionValues(f models.OccasionFilter) url.Values {
	v := pageValues(f.PageParams)
	if f.Upcoming {
		v.Set("upcoming", "true")
	}
	return v
}

func fieldOptionValues(f models.FieldOptionFilter) url.Values {
	v := pageValues(f.PageParams)
	if f.Field != "" {
		v.Set("field", f.Field)
	}
	return v
}

func commentValues(f models.CommentFilter) url.Values {
	v := pageValues(f.PageParams)
	v.Set("entity_type", string(f.EntityType))
	v.Set("entity_id", strconv.FormatInt(f.EntityID, 10))
	return v
}
